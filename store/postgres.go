package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

// OpenPostgres connects to uri, verifies the connection and initializes the schema.
func OpenPostgres(ctx context.Context, uri string) (*SQLStore, error) {
	if uri == "" {
		return nil, errors.New("postgres dsn required")
	}
	db, err := sql.Open("postgres", withSSLMode(uri))
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to postgres")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to ping postgres")
	}

	s, err := newSQLStore(ctx, db, dialectPostgres)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// withSSLMode disables TLS unless the connection string already chooses a mode.
// Both URL and key=value connection strings are accepted.
func withSSLMode(uri string) string {
	if strings.Contains(uri, "sslmode=") {
		return uri
	}
	if !strings.Contains(uri, "://") {
		return uri + " sslmode=disable"
	}
	if strings.Contains(uri, "?") {
		return uri + "&sslmode=disable"
	}
	return uri + "?sslmode=disable"
}
