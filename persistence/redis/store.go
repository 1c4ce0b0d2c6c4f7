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

// Package redis provides a persistence.SnapshotStore on redis.
//
// Each snapshot is written under "<prefix>:snapshot:<entity id>" and its id is
// indexed in the sorted set "<prefix>:snapshots" so List walks ids in order.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/lifecycle/errors"
	"github.com/tochemey/lifecycle/lifecycle"
	"github.com/tochemey/lifecycle/persistence"
)

const listBatchSize = 256

// Store implements persistence.SnapshotStore on redis
type Store struct {
	client *goredis.Client
	config *Config
	codec  *persistence.Codec
	closed *atomic.Bool
}

var _ persistence.SnapshotStore = (*Store)(nil)

// NewStore creates a Store and verifies the connection.
// A nil codec means persistence.DefaultCodec.
func NewStore(ctx context.Context, config *Config, codec *persistence.Codec) (*Store, error) {
	if config == nil {
		return nil, errors.New("redis: config is nil")
	}

	config.Sanitize()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if codec == nil {
		codec = persistence.DefaultCodec
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:        config.Addr,
		Username:    config.Username,
		Password:    config.Password,
		DB:          config.DB,
		DialTimeout: config.DialTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: failed to connect: %w", err)
	}

	return &Store{
		client: client,
		config: config,
		codec:  codec,
		closed: atomic.NewBool(false),
	}, nil
}

// Ping implements persistence.SnapshotStore
func (s *Store) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return gerrors.ErrStoreClosed
	}
	return s.client.Ping(ctx).Err()
}

// Upsert implements persistence.SnapshotStore.
// The value and its index entry are written in one MULTI/EXEC transaction.
func (s *Store) Upsert(ctx context.Context, snapshot *lifecycle.Snapshot) error {
	if s.closed.Load() {
		return gerrors.ErrStoreClosed
	}
	if err := snapshot.Validate(); err != nil {
		return err
	}

	data, err := s.codec.Encode(snapshot)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, s.snapshotKey(snapshot.EntityID), data, 0)
		pipe.ZAdd(ctx, s.indexKey(), goredis.Z{Score: 0, Member: snapshot.EntityID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: upsert %s: %w", snapshot.EntityID, err)
	}
	return nil
}

// Get implements persistence.SnapshotStore
func (s *Store) Get(ctx context.Context, entityID string) (*lifecycle.Snapshot, error) {
	if s.closed.Load() {
		return nil, gerrors.ErrStoreClosed
	}

	data, err := s.client.Get(ctx, s.snapshotKey(entityID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, persistence.ErrKeyNotFound
		}
		return nil, fmt.Errorf("redis: get %s: %w", entityID, err)
	}
	return s.codec.Decode(data)
}

// List implements persistence.SnapshotStore
func (s *Store) List(ctx context.Context, filter persistence.Filter) ([]*lifecycle.Snapshot, error) {
	if s.closed.Load() {
		return nil, gerrors.ErrStoreClosed
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list index: %w", err)
	}

	out := make([]*lifecycle.Snapshot, 0, len(ids))
	for start := 0; start < len(ids); start += listBatchSize {
		end := min(start+listBatchSize, len(ids))
		keys := make([]string, 0, end-start)
		for _, id := range ids[start:end] {
			keys = append(keys, s.snapshotKey(id))
		}

		values, err := s.client.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, fmt.Errorf("redis: list values: %w", err)
		}

		for i, value := range values {
			raw, ok := value.(string)
			if !ok {
				// index entry without a value
				continue
			}
			snapshot, err := s.codec.Decode([]byte(raw))
			if err != nil {
				return nil, fmt.Errorf("redis: decoding %s: %w", keys[i], err)
			}
			if filter.Matches(snapshot) {
				out = append(out, snapshot)
			}
		}
	}
	persistence.SortByEntityID(out)
	return out, nil
}

// Close implements persistence.SnapshotStore
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.client.Close()
}

func (s *Store) snapshotKey(entityID string) string {
	return s.config.KeyPrefix + ":snapshot:" + entityID
}

func (s *Store) indexKey() string {
	return s.config.KeyPrefix + ":snapshots"
}
