package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hcplog/models"
)

func newTestSQLite(t *testing.T) *SQLStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "crm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	rec := &models.Interaction{
		HCPName:   "Dr. Smith",
		Notes:     "Saw Dr. Smith today about the new drug",
		Summary:   "Met Dr. Smith and discussed key points.",
		CreatedAt: time.Date(2026, 3, 1, 9, 30, 15, 500, time.UTC),
	}
	require.NoError(t, s.Create(ctx, rec))
	assert.NotZero(t, rec.ID)
	assert.Equal(t, time.Date(2026, 3, 1, 9, 30, 15, 0, time.UTC), rec.CreatedAt)

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, *rec, *got)
}

func TestSQLiteIDsAreUnique(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	seen := map[int64]bool{}
	for i := 0; i < 5; i++ {
		rec := &models.Interaction{HCPName: "Dr. A", Notes: "n", Summary: "s", CreatedAt: time.Now()}
		require.NoError(t, s.Create(ctx, rec))
		assert.False(t, seen[rec.ID], "duplicate id %d", rec.ID)
		seen[rec.ID] = true
	}
}

func TestSQLiteListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	older := &models.Interaction{HCPName: "Dr. Old", Notes: "n", Summary: "s", CreatedAt: base}
	newer := &models.Interaction{HCPName: "Dr. New", Notes: "n", Summary: "s", CreatedAt: base.Add(time.Hour)}
	sameSecond := &models.Interaction{HCPName: "Dr. Tie", Notes: "n", Summary: "s", CreatedAt: base.Add(time.Hour)}
	require.NoError(t, s.Create(ctx, older))
	require.NoError(t, s.Create(ctx, newer))
	require.NoError(t, s.Create(ctx, sameSecond))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"Dr. Tie", "Dr. New", "Dr. Old"}, []string{list[0].HCPName, list[1].HCPName, list[2].HCPName})
}

func TestSQLiteListEmpty(t *testing.T) {
	list, err := newTestSQLite(t).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestSQLiteListBySummary(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)
	require.NoError(t, s.Create(ctx, &models.Interaction{HCPName: "a", Notes: "n", Summary: "keep", CreatedAt: time.Now()}))
	require.NoError(t, s.Create(ctx, &models.Interaction{HCPName: "b", Notes: "n", Summary: "match", CreatedAt: time.Now()}))

	list, err := s.ListBySummary(ctx, "match")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].HCPName)
}

func TestSQLiteUpdatePreservesIdentity(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)
	rec := &models.Interaction{HCPName: "Dr. A", Notes: "before", Summary: "s", CreatedAt: time.Date(2026, 2, 2, 2, 2, 2, 0, time.UTC)}
	require.NoError(t, s.Create(ctx, rec))

	edit := &models.Interaction{ID: rec.ID, HCPName: "Dr. B", Notes: "after", Summary: "Updated: Met Dr. B"}
	require.NoError(t, s.Update(ctx, edit))
	assert.Equal(t, rec.ID, edit.ID)
	assert.Equal(t, rec.CreatedAt, edit.CreatedAt)

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, *edit, *got)
}

func TestSQLiteMissingIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	_, err := s.Get(ctx, 42)
	assert.True(t, errors.Is(err, ErrNotFound))

	err = s.Update(ctx, &models.Interaction{ID: 42, HCPName: "x"})
	assert.True(t, errors.Is(err, ErrNotFound))

	err = s.Delete(ctx, 42)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)
	rec := &models.Interaction{HCPName: "Dr. A", Notes: "n", Summary: "s", CreatedAt: time.Now()}
	require.NoError(t, s.Create(ctx, rec))

	require.NoError(t, s.Delete(ctx, rec.ID))
	_, err := s.Get(ctx, rec.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(s.Delete(ctx, rec.ID), ErrNotFound))
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "crm.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	rec := &models.Interaction{HCPName: "Dr. Persist", Notes: "n", Summary: "s", CreatedAt: time.Now()}
	require.NoError(t, s.Create(ctx, rec))
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	got, err := reopened.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Persist", got.HCPName)
}

func TestSQLiteSchemaIsIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	require.NoError(t, s.migrate(context.Background()))

	var name string
	err := s.DB().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", "interactions").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "interactions", name)
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{dialect: dialectPostgres}
	assert.Equal(t, "UPDATE t SET a = $1, b = $2 WHERE id = $3", pg.rebind("UPDATE t SET a = ?, b = ? WHERE id = ?"))

	lite := &SQLStore{dialect: dialectSQLite}
	assert.Equal(t, "SELECT ? ", lite.rebind("SELECT ? "))
}

func TestWithSSLMode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://localhost/crm", "postgres://localhost/crm?sslmode=disable"},
		{"postgres://localhost/crm?connect_timeout=5", "postgres://localhost/crm?connect_timeout=5&sslmode=disable"},
		{"postgres://localhost/crm?sslmode=require", "postgres://localhost/crm?sslmode=require"},
		{"host=localhost dbname=crm", "host=localhost dbname=crm sslmode=disable"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, withSSLMode(tt.in))
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "mysql"})
	assert.Error(t, err)
}
