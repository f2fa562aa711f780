// Package pgkv is a history.Store backed by a PostgreSQL table. The full
// entry is kept as jsonb; tenant and run id are copied into columns so
// operators can query history without decoding it.
package pgkv

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentstation/catalogsync/pkg/errors"
	"github.com/agentstation/catalogsync/pkg/history"
)

// DefaultTable is the history table name.
const DefaultTable = "catalogsync_history"

const maxConns = 4

// Store is a Postgres-backed history store.
type Store struct {
	pool  *pgxpool.Pool
	name  string
	table string
}

var _ history.Store = (*Store)(nil)

// Pool opens a connection pool for dsn and verifies it with a ping.
func Pool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.NewConfigError("postgres", "invalid dsn", err)
	}
	cfg.MaxConns = maxConns
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.WrapAPI("postgres", 0, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.WrapAPI("postgres", 0, err)
	}
	return pool, nil
}

// Open connects to dsn, creates the table if missing and returns the store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := Pool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	s := New(pool, DefaultTable)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool, table string) *Store {
	if table == "" {
		table = DefaultTable
	}
	return &Store{pool: pool, name: table, table: pgx.Identifier{table}.Sanitize()}
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Migrate creates the history table and its indexes.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + s.table + ` (
			key        text PRIMARY KEY,
			value      jsonb NOT NULL,
			tenant     text NOT NULL,
			run_id     text NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS ` + pgx.Identifier{s.name + "_tenant_run_idx"}.Sanitize() + ` ON ` + s.table + ` (tenant, run_id)`,
	}
	for _, q := range stmts {
		if _, err := s.pool.Exec(ctx, q); err != nil {
			return errors.WrapResource("create", "history table", s.table, err)
		}
	}
	return nil
}

// Get implements history.Store.
func (s *Store) Get(ctx context.Context, key string) (*history.Entry, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM `+s.table+` WHERE key = $1`, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.NewNotFoundError("history entry", key)
	}
	if err != nil {
		return nil, errors.WrapResource("fetch", "history", key, err)
	}
	var e history.Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, errors.WrapParse("json", key, err)
	}
	return &e, nil
}

// Put implements history.Store.
func (s *Store) Put(ctx context.Context, key string, entry history.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return errors.WrapParse("json", key, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO `+s.table+` (key, value, tenant, run_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, tenant = EXCLUDED.tenant, run_id = EXCLUDED.run_id`,
		key, data, entry.Tenant, entry.RunID, entry.Timestamp.Time)
	return errors.WrapResource("create", "history", key, err)
}

// Delete implements history.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM `+s.table+` WHERE key = $1`, key)
	return errors.WrapResource("delete", "history", key, err)
}

// List implements history.Store.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT key FROM `+s.table+` WHERE key LIKE $1 ESCAPE '\' ORDER BY key`, escapeLike(prefix)+"%")
	if err != nil {
		return nil, errors.WrapResource("list", "history", prefix, err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.WrapResource("list", "history", prefix, err)
	}
	return keys, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
