package session

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Migrations creates the session_records table.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps the record in session_records. The record column is
// text so the bytes read back are the bytes written.
type PostgresStore struct {
	db  Querier
	key string
}

// NewPostgresStore builds a store for key.
func NewPostgresStore(db Querier, key string) *PostgresStore {
	return &PostgresStore{db: db, key: key}
}

func (p *PostgresStore) Load(ctx context.Context) ([]byte, error) {
	const query = `SELECT record FROM session_records WHERE key=$1`
	var record string
	if err := p.db.QueryRow(ctx, query, p.key).Scan(&record); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoRecord
		}
		return nil, fmt.Errorf("select session record: %w", err)
	}
	return []byte(record), nil
}

func (p *PostgresStore) Save(ctx context.Context, record []byte) error {
	const query = `
        INSERT INTO session_records (key, record, updated_at)
        VALUES ($1,$2,NOW())
        ON CONFLICT (key) DO UPDATE SET record=EXCLUDED.record, updated_at=NOW()`
	if _, err := p.db.Exec(ctx, query, p.key, string(record)); err != nil {
		return fmt.Errorf("upsert session record: %w", err)
	}
	return nil
}

func (p *PostgresStore) Clear(ctx context.Context) error {
	const query = `DELETE FROM session_records WHERE key=$1`
	if _, err := p.db.Exec(ctx, query, p.key); err != nil {
		return fmt.Errorf("delete session record: %w", err)
	}
	return nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	if pinger, ok := p.db.(Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}
