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

// Package bolt provides a persistence.SnapshotStore backed by a local bbolt database file.
package bolt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bbolt "go.etcd.io/bbolt"
	"go.uber.org/atomic"

	"github.com/tochemey/lifecycle/errors"
	"github.com/tochemey/lifecycle/lifecycle"
	"github.com/tochemey/lifecycle/persistence"
)

const (
	fileMode   os.FileMode = 0o600
	bucketName             = "snapshots"
)

var defaultOptions = &bbolt.Options{Timeout: 5 * time.Second, NoGrowSync: true}

// Store implements persistence.SnapshotStore on bbolt.
//
// bbolt provides single-writer/multi-reader semantics; only the close state is
// guarded to refuse operations once the store is shut down.
type Store struct {
	db     *bbolt.DB
	bucket []byte
	codec  *persistence.Codec
	closed *atomic.Bool
}

var _ persistence.SnapshotStore = (*Store)(nil)

// Open opens (or creates) the database file at path.
// A nil codec means persistence.DefaultCodec.
func Open(path string, codec *persistence.Codec) (*Store, error) {
	if codec == nil {
		codec = persistence.DefaultCodec
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("bolt: creating directory: %w", err)
	}

	optionsCopy := *defaultOptions
	db, err := bbolt.Open(path, fileMode, &optionsCopy)
	if err != nil {
		return nil, fmt.Errorf("bolt: opening %s: %w", path, err)
	}

	bucket := []byte(bucketName)
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(bucket)
		return e
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bolt: initializing bucket: %w", err)
	}

	return &Store{
		db:     db,
		bucket: bucket,
		codec:  codec,
		closed: atomic.NewBool(false),
	}, nil
}

// Ping implements persistence.SnapshotStore
func (s *Store) Ping(ctx context.Context) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	return contextErr(ctx)
}

// Upsert implements persistence.SnapshotStore
func (s *Store) Upsert(ctx context.Context, snapshot *lifecycle.Snapshot) error {
	if err := s.Ping(ctx); err != nil {
		return err
	}
	if err := snapshot.Validate(); err != nil {
		return err
	}

	data, err := s.codec.Encode(snapshot)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if bucket == nil {
			return fmt.Errorf("bolt: bucket %q missing", s.bucket)
		}
		return bucket.Put([]byte(snapshot.EntityID), data)
	})
}

// Get implements persistence.SnapshotStore
func (s *Store) Get(ctx context.Context, entityID string) (*lifecycle.Snapshot, error) {
	if err := s.Ping(ctx); err != nil {
		return nil, err
	}

	var snapshot *lifecycle.Snapshot
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if bucket == nil {
			return fmt.Errorf("bolt: bucket %q missing", s.bucket)
		}
		raw := bucket.Get([]byte(entityID))
		if raw == nil {
			return persistence.ErrKeyNotFound
		}
		decoded, err := s.codec.Decode(raw)
		if err != nil {
			return err
		}
		snapshot = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// List implements persistence.SnapshotStore.
// Keys are iterated in byte order which is the entity id order.
func (s *Store) List(ctx context.Context, filter persistence.Filter) ([]*lifecycle.Snapshot, error) {
	if err := s.Ping(ctx); err != nil {
		return nil, err
	}

	out := make([]*lifecycle.Snapshot, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if bucket == nil {
			return fmt.Errorf("bolt: bucket %q missing", s.bucket)
		}
		return bucket.ForEach(func(key, value []byte) error {
			if err := contextErr(ctx); err != nil {
				return err
			}
			snapshot, err := s.codec.Decode(bytes.Clone(value))
			if err != nil {
				return fmt.Errorf("bolt: decoding %s: %w", key, err)
			}
			if filter.Matches(snapshot) {
				out = append(out, snapshot)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.db.Path()
}

// Close releases the underlying bbolt handle. The database file is kept.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureOpen() error {
	if s.closed.Load() {
		return errors.ErrStoreClosed
	}
	return nil
}

func contextErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
