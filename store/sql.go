package store

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"hcplog/models"
)

var _ InteractionStore = (*SQLStore)(nil)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

var schemas = map[dialect][]string{
	dialectSQLite: {
		`CREATE TABLE IF NOT EXISTS interactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			hcp_name TEXT NOT NULL,
			notes TEXT NOT NULL,
			summary TEXT NOT NULL,
			created_ts BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_created_ts ON interactions (created_ts)`,
	},
	dialectPostgres: {
		`CREATE TABLE IF NOT EXISTS interactions (
			id BIGSERIAL PRIMARY KEY,
			hcp_name TEXT NOT NULL,
			notes TEXT NOT NULL,
			summary TEXT NOT NULL,
			created_ts BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_created_ts ON interactions (created_ts)`,
	},
}

const selectColumns = `id, hcp_name, notes, summary, created_ts`

// SQLStore keeps interactions in a single SQL table. created_ts holds unix
// seconds so the same statements work on SQLite and Postgres.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

func newSQLStore(ctx context.Context, db *sql.DB, d dialect) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: d}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	for _, stmt := range schemas[s.dialect] {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to initialize interactions schema")
		}
	}
	return nil
}

// rebind rewrites ? placeholders into $n for Postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) Create(ctx context.Context, rec *models.Interaction) error {
	stmt := s.rebind(`INSERT INTO interactions (hcp_name, notes, summary, created_ts)
		VALUES (?, ?, ?, ?)
		RETURNING id`)
	createdTs := rec.CreatedAt.Unix()
	if err := s.db.QueryRowContext(ctx, stmt, rec.HCPName, rec.Notes, rec.Summary, createdTs).Scan(&rec.ID); err != nil {
		return errors.Wrap(err, "failed to insert interaction")
	}
	rec.CreatedAt = time.Unix(createdTs, 0).UTC()
	return nil
}

func (s *SQLStore) Get(ctx context.Context, id int64) (*models.Interaction, error) {
	stmt := s.rebind(`SELECT ` + selectColumns + ` FROM interactions WHERE id = ?`)
	rec, err := scanInteraction(s.db.QueryRowContext(ctx, stmt, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(ErrNotFound, "id %d", id)
		}
		return nil, errors.Wrapf(err, "failed to get interaction %d", id)
	}
	return rec, nil
}

func (s *SQLStore) List(ctx context.Context) ([]models.Interaction, error) {
	return s.list(ctx, `SELECT `+selectColumns+` FROM interactions ORDER BY created_ts DESC, id DESC`)
}

func (s *SQLStore) ListBySummary(ctx context.Context, summary string) ([]models.Interaction, error) {
	return s.list(ctx, s.rebind(`SELECT `+selectColumns+` FROM interactions WHERE summary = ? ORDER BY created_ts DESC, id DESC`), summary)
}

func (s *SQLStore) list(ctx context.Context, query string, args ...any) ([]models.Interaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list interactions")
	}
	defer func() { _ = rows.Close() }()

	list := make([]models.Interaction, 0)
	for rows.Next() {
		rec, err := scanInteraction(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan interaction")
		}
		list = append(list, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate interactions")
	}
	return list, nil
}

func (s *SQLStore) Update(ctx context.Context, rec *models.Interaction) error {
	stmt := s.rebind(`UPDATE interactions SET hcp_name = ?, notes = ?, summary = ?
		WHERE id = ?
		RETURNING ` + selectColumns)
	updated, err := scanInteraction(s.db.QueryRowContext(ctx, stmt, rec.HCPName, rec.Notes, rec.Summary, rec.ID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errors.Wrapf(ErrNotFound, "id %d", rec.ID)
		}
		return errors.Wrapf(err, "failed to update interaction %d", rec.ID)
	}
	*rec = *updated
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM interactions WHERE id = ?`), id)
	if err != nil {
		return errors.Wrapf(err, "failed to delete interaction %d", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return errors.Wrapf(ErrNotFound, "id %d", id)
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for tests.
func (s *SQLStore) DB() *sql.DB { return s.db }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInteraction(row rowScanner) (*models.Interaction, error) {
	var (
		rec       models.Interaction
		createdTs int64
	)
	if err := row.Scan(&rec.ID, &rec.HCPName, &rec.Notes, &rec.Summary, &createdTs); err != nil {
		return nil, err
	}
	rec.CreatedAt = time.Unix(createdTs, 0).UTC()
	return &rec, nil
}
