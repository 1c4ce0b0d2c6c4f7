// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package postgres provides a persistence.SnapshotStore on PostgreSQL.
//
// Each snapshot is one row keyed by entity id. The indexed columns mirror the
// filterable attributes and the full snapshot is kept as JSONB.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/lifecycle/errors"
	"github.com/tochemey/lifecycle/lifecycle"
	"github.com/tochemey/lifecycle/persistence"
)

const schema = `
CREATE TABLE IF NOT EXISTS %[1]s (
	entity_id  TEXT PRIMARY KEY,
	category   TEXT NOT NULL,
	format     TEXT NOT NULL,
	state      TEXT NOT NULL,
	revision   BIGINT NOT NULL,
	snapshot   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS %[1]s_category_idx ON %[1]s (lower(category));
CREATE INDEX IF NOT EXISTS %[1]s_state_idx ON %[1]s (state);
`

// Store implements persistence.SnapshotStore on a pgx connection pool
type Store struct {
	pool   *pgxpool.Pool
	table  string
	closed *atomic.Bool
}

var _ persistence.SnapshotStore = (*Store)(nil)

// NewStore opens the connection pool and creates the snapshot table when missing
func NewStore(ctx context.Context, config *Config) (*Store, error) {
	if config == nil {
		return nil, errors.New("postgres: config is nil")
	}

	config.Sanitize()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(config.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = config.MaxConns
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Minute * 30
	poolConfig.MaxConnIdleTime = time.Minute * 5
	poolConfig.HealthCheckPeriod = time.Minute
	poolConfig.ConnConfig.ConnectTimeout = config.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, fmt.Sprintf(schema, config.Table)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create snapshot table: %w", err)
	}

	return &Store{
		pool:   pool,
		table:  config.Table,
		closed: atomic.NewBool(false),
	}, nil
}

// Ping implements persistence.SnapshotStore
func (s *Store) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return gerrors.ErrStoreClosed
	}
	return s.pool.Ping(ctx)
}

// Upsert implements persistence.SnapshotStore
func (s *Store) Upsert(ctx context.Context, snapshot *lifecycle.Snapshot) error {
	if s.closed.Load() {
		return gerrors.ErrStoreClosed
	}
	if err := snapshot.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("postgres: encode %s: %w", snapshot.EntityID, err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (entity_id, category, format, state, revision, snapshot, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (entity_id) DO UPDATE SET
			category = EXCLUDED.category,
			format = EXCLUDED.format,
			state = EXCLUDED.state,
			revision = EXCLUDED.revision,
			snapshot = EXCLUDED.snapshot,
			updated_at = EXCLUDED.updated_at`, s.table)

	_, err = s.pool.Exec(ctx, query,
		snapshot.EntityID,
		snapshot.Classification.Category,
		snapshot.Classification.Format,
		string(snapshot.State),
		int64(snapshot.Revision),
		body,
		snapshot.CreatedAt,
		snapshot.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert %s: %w", snapshot.EntityID, err)
	}
	return nil
}

// Get implements persistence.SnapshotStore
func (s *Store) Get(ctx context.Context, entityID string) (*lifecycle.Snapshot, error) {
	if s.closed.Load() {
		return nil, gerrors.ErrStoreClosed
	}

	var body []byte
	query := fmt.Sprintf(`SELECT snapshot FROM %s WHERE entity_id = $1`, s.table)
	if err := s.pool.QueryRow(ctx, query, entityID).Scan(&body); err != nil {
		return nil, handleNotFound(err)
	}
	return decode(body)
}

// List implements persistence.SnapshotStore
func (s *Store) List(ctx context.Context, filter persistence.Filter) ([]*lifecycle.Snapshot, error) {
	if s.closed.Load() {
		return nil, gerrors.ErrStoreClosed
	}

	query := fmt.Sprintf(`
		SELECT snapshot FROM %s
		WHERE ($1 = '' OR lower(category) = lower($1))
		  AND ($2 = '' OR lower(format) = lower($2))
		  AND ($3 = '' OR state = $3)
		ORDER BY entity_id COLLATE "C"`, s.table)

	rows, err := s.pool.Query(ctx, query, filter.Category, filter.Format, string(filter.State))
	if err != nil {
		return nil, fmt.Errorf("postgres: list: %w", err)
	}

	bodies, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, fmt.Errorf("postgres: list: %w", err)
	}

	out := make([]*lifecycle.Snapshot, 0, len(bodies))
	for _, body := range bodies {
		snapshot, err := decode(body)
		if err != nil {
			return nil, err
		}
		out = append(out, snapshot)
	}
	return out, nil
}

// Close closes the connection pool
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.pool.Close()
	return nil
}

func decode(body []byte) (*lifecycle.Snapshot, error) {
	snapshot := new(lifecycle.Snapshot)
	if err := json.Unmarshal(body, snapshot); err != nil {
		return nil, fmt.Errorf("postgres: decode snapshot: %w", err)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func handleNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return persistence.ErrKeyNotFound
	}
	return fmt.Errorf("postgres: %w", err)
}
