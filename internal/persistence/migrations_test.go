package persistence

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/dashboard/internal/session"
)

type recordingExecer struct {
	statements []string
	failOn     string
}

func (r *recordingExecer) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	if r.failOn != "" && sql == r.failOn {
		return pgconn.CommandTag{}, errors.New("boom")
	}
	r.statements = append(r.statements, sql)
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func TestRunMigrationsInOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/002_b.sql": {Data: []byte("B")},
		"migrations/001_a.sql": {Data: []byte("A")},
		"migrations/sub/x.sql": {Data: []byte("X")},
	}
	db := &recordingExecer{}

	require.NoError(t, RunMigrations(context.Background(), db, fsys, "migrations", zap.NewNop()))
	assert.Equal(t, []string{"A", "B"}, db.statements)
}

func TestRunMigrationsStopsOnFailure(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/001_a.sql": {Data: []byte("A")},
		"migrations/002_b.sql": {Data: []byte("B")},
	}
	db := &recordingExecer{failOn: "A"}

	err := RunMigrations(context.Background(), db, fsys, "migrations", zap.NewNop())
	require.Error(t, err)
	assert.Empty(t, db.statements)
}

func TestSessionMigrationsEmbedded(t *testing.T) {
	db := &recordingExecer{}
	require.NoError(t, RunMigrations(context.Background(), db, session.Migrations, "migrations", zap.NewNop()))
	require.Len(t, db.statements, 1)
	assert.Contains(t, db.statements[0], "session_records")
}

func TestRunMigrationsSkipsNonSQL(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/001_a.sql":   {Data: []byte("A")},
		"migrations/README.md":   {Data: []byte("notes")},
		"migrations/002_nop.sql": {Data: []byte("  \n")},
	}
	db := &recordingExecer{}

	require.NoError(t, RunMigrations(context.Background(), db, fsys, "migrations", zap.NewNop()))
	assert.Equal(t, []string{"A"}, db.statements)
}
