package store

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkg/errors"

	"hcplog/models"
)

var _ InteractionStore = (*DynamoStore)(nil)

const (
	defaultDynamoTable = "Interactions"
	// The id counter lives in the same table under a reserved key.
	counterID = 0
)

// dynamoAPI is the subset of *dynamodb.Client the store uses.
type dynamoAPI interface {
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoStore keeps interactions in a DynamoDB table keyed by numeric ID.
type DynamoStore struct {
	client dynamoAPI
	table  string
}

// OpenDynamo builds a client from the default AWS config. A non-empty endpoint
// targets DynamoDB Local with static dummy credentials.
func OpenDynamo(ctx context.Context, table, region, endpoint string) (*DynamoStore, error) {
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if endpoint != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{
				AccessKeyID: "dummy", SecretAccessKey: "dummy", SessionToken: "dummy",
			},
		}))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load aws config")
	}

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return newDynamoStore(ctx, client, table)
}

func newDynamoStore(ctx context.Context, client dynamoAPI, table string) (*DynamoStore, error) {
	if table == "" {
		table = defaultDynamoTable
	}
	s := &DynamoStore{client: client, table: table}
	if err := s.ensureTable(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *DynamoStore) ensureTable(ctx context.Context) error {
	_, err := s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("ID"),
				AttributeType: types.ScalarAttributeTypeN,
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("ID"),
				KeyType:       types.KeyTypeHash,
			},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			return nil
		}
		return errors.Wrapf(err, "failed to create table %s", s.table)
	}
	slog.Info("created dynamodb table", "table", s.table)
	return nil
}

func (s *DynamoStore) nextID(ctx context.Context) (int64, error) {
	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.table),
		Key:              idKey(counterID),
		UpdateExpression: aws.String("ADD #seq :one"),
		ExpressionAttributeNames: map[string]string{
			"#seq": "Seq",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to allocate interaction id")
	}
	seq, ok := out.Attributes["Seq"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, errors.New("id counter returned no sequence value")
	}
	return strconv.ParseInt(seq.Value, 10, 64)
}

func (s *DynamoStore) Create(ctx context.Context, rec *models.Interaction) error {
	id, err := s.nextID(ctx)
	if err != nil {
		return err
	}
	rec.ID = id
	rec.CreatedAt = time.Unix(rec.CreatedAt.Unix(), 0).UTC()

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                toItem(rec),
		ConditionExpression: aws.String("attribute_not_exists(ID)"),
	})
	if err != nil {
		return errors.Wrapf(err, "failed to put interaction %d", id)
	}
	return nil
}

func (s *DynamoStore) Get(ctx context.Context, id int64) (*models.Interaction, error) {
	if id == counterID {
		return nil, errors.Wrapf(ErrNotFound, "id %d", id)
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get interaction %d", id)
	}
	if len(out.Item) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "id %d", id)
	}
	return fromItem(out.Item)
}

func (s *DynamoStore) List(ctx context.Context) ([]models.Interaction, error) {
	return s.scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(s.table),
		FilterExpression: aws.String("ID > :zero"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero": &types.AttributeValueMemberN{Value: "0"},
		},
	})
}

func (s *DynamoStore) ListBySummary(ctx context.Context, summary string) ([]models.Interaction, error) {
	return s.scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(s.table),
		FilterExpression: aws.String("ID > :zero AND Summary = :summary"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero":    &types.AttributeValueMemberN{Value: "0"},
			":summary": &types.AttributeValueMemberS{Value: summary},
		},
	})
}

// scan reads every page and orders the result newest first.
func (s *DynamoStore) scan(ctx context.Context, in *dynamodb.ScanInput) ([]models.Interaction, error) {
	list := make([]models.Interaction, 0)
	p := dynamodb.NewScanPaginator(s.client, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan interactions")
		}
		for _, item := range page.Items {
			rec, err := fromItem(item)
			if err != nil {
				return nil, err
			}
			list = append(list, *rec)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

func (s *DynamoStore) Update(ctx context.Context, rec *models.Interaction) error {
	if rec.ID == counterID {
		return errors.Wrapf(ErrNotFound, "id %d", rec.ID)
	}
	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.table),
		Key:                 idKey(rec.ID),
		UpdateExpression:    aws.String("SET HCPName = :name, Notes = :notes, Summary = :summary"),
		ConditionExpression: aws.String("attribute_exists(ID)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":name":    &types.AttributeValueMemberS{Value: rec.HCPName},
			":notes":   &types.AttributeValueMemberS{Value: rec.Notes},
			":summary": &types.AttributeValueMemberS{Value: rec.Summary},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return errors.Wrapf(ErrNotFound, "id %d", rec.ID)
		}
		return errors.Wrapf(err, "failed to update interaction %d", rec.ID)
	}
	updated, err := fromItem(out.Attributes)
	if err != nil {
		return err
	}
	*rec = *updated
	return nil
}

func (s *DynamoStore) Delete(ctx context.Context, id int64) error {
	if id == counterID {
		return errors.Wrapf(ErrNotFound, "id %d", id)
	}
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.table),
		Key:                 idKey(id),
		ConditionExpression: aws.String("attribute_exists(ID)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return errors.Wrapf(ErrNotFound, "id %d", id)
		}
		return errors.Wrapf(err, "failed to delete interaction %d", id)
	}
	return nil
}

func (s *DynamoStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	return errors.Wrap(err, "failed to describe table")
}

func (s *DynamoStore) Close() error { return nil }

func idKey(id int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"ID": &types.AttributeValueMemberN{Value: strconv.FormatInt(id, 10)},
	}
}

func toItem(rec *models.Interaction) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"ID":        &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.ID, 10)},
		"HCPName":   &types.AttributeValueMemberS{Value: rec.HCPName},
		"Notes":     &types.AttributeValueMemberS{Value: rec.Notes},
		"Summary":   &types.AttributeValueMemberS{Value: rec.Summary},
		"CreatedTs": &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.CreatedAt.Unix(), 10)},
	}
}

func fromItem(item map[string]types.AttributeValue) (*models.Interaction, error) {
	var rec models.Interaction
	id, err := numberAttr(item, "ID")
	if err != nil {
		return nil, err
	}
	createdTs, err := numberAttr(item, "CreatedTs")
	if err != nil {
		return nil, err
	}
	rec.ID = id
	rec.CreatedAt = time.Unix(createdTs, 0).UTC()
	rec.HCPName = stringAttr(item, "HCPName")
	rec.Notes = stringAttr(item, "Notes")
	rec.Summary = stringAttr(item, "Summary")
	return &rec, nil
}

func numberAttr(item map[string]types.AttributeValue, name string) (int64, error) {
	v, ok := item[name].(*types.AttributeValueMemberN)
	if !ok {
		return 0, errors.Errorf("item attribute %s missing or not a number", name)
	}
	n, err := strconv.ParseInt(v.Value, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "item attribute %s", name)
	}
	return n, nil
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}
