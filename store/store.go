// Package store persists interaction records. SQL (SQLite, Postgres) and
// DynamoDB backends share the InteractionStore contract.
package store

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"hcplog/models"
)

// ErrNotFound is returned when no record exists for the requested id.
var ErrNotFound = errors.New("interaction not found")

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverDynamoDB = "dynamodb"
)

// InteractionStore is the persistence contract used by the service layer.
// Create assigns ID; Update rewrites hcp_name, notes and summary only and
// reloads CreatedAt from storage.
type InteractionStore interface {
	Create(ctx context.Context, rec *models.Interaction) error
	Get(ctx context.Context, id int64) (*models.Interaction, error)
	// List returns every record, newest first.
	List(ctx context.Context) ([]models.Interaction, error)
	ListBySummary(ctx context.Context, summary string) ([]models.Interaction, error)
	Update(ctx context.Context, rec *models.Interaction) error
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Driver string
	// DSN is a file path for sqlite and a connection URI for postgres.
	DSN string

	DynamoTable    string
	DynamoEndpoint string
	Region         string
}

// Open constructs the backend named by opts.Driver and initializes its schema.
func Open(ctx context.Context, opts Options) (InteractionStore, error) {
	var (
		s   InteractionStore
		err error
	)
	switch strings.ToLower(opts.Driver) {
	case "", DriverSQLite:
		s, err = OpenSQLite(ctx, opts.DSN)
	case DriverPostgres:
		s, err = OpenPostgres(ctx, opts.DSN)
	case DriverDynamoDB:
		s, err = OpenDynamo(ctx, opts.DynamoTable, opts.Region, opts.DynamoEndpoint)
	default:
		return nil, errors.Errorf("unsupported driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
