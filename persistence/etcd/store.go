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

// Package etcd provides a persistence.SnapshotStore on etcd v3.
package etcd

import (
	"context"
	"errors"
	"fmt"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/namespace"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	gerrors "github.com/tochemey/lifecycle/errors"
	"github.com/tochemey/lifecycle/lifecycle"
	"github.com/tochemey/lifecycle/persistence"
)

const snapshotPrefix = "snapshots/"

// Store implements persistence.SnapshotStore on etcd.
// Every operation is bounded by the configured timeout.
type Store struct {
	config *Config
	client *clientv3.Client
	kv     clientv3.KV
	codec  *persistence.Codec
	closed *atomic.Bool
}

var _ persistence.SnapshotStore = (*Store)(nil)

// NewStore connects to etcd and returns a Store.
// A nil codec means persistence.DefaultCodec.
func NewStore(config *Config, codec *persistence.Codec) (*Store, error) {
	if config == nil {
		return nil, errors.New("etcd: config is nil")
	}

	config.Sanitize()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if codec == nil {
		codec = persistence.DefaultCodec
	}

	client, err := clientv3.New(clientv3.Config{
		Endpoints:   config.Endpoints,
		DialTimeout: config.DialTimeout,
		TLS:         config.TLS,
		Username:    config.Username,
		Password:    config.Password,
		Context:     config.Context,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(config.Context, config.DialTimeout)
	defer cancel()

	if _, err = client.Status(ctx, config.Endpoints[0]); err != nil {
		if cerr := client.Close(); cerr != nil {
			return nil, multierr.Combine(err, fmt.Errorf("failed to close etcd client: %w", cerr))
		}
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	return &Store{
		config: config,
		client: client,
		kv:     namespace.NewKV(client.KV, config.Namespace),
		codec:  codec,
		closed: atomic.NewBool(false),
	}, nil
}

// Ping implements persistence.SnapshotStore
func (s *Store) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return gerrors.ErrStoreClosed
	}
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := s.client.Status(opCtx, s.config.Endpoints[0])
	return err
}

// Upsert implements persistence.SnapshotStore
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

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	if _, err := s.kv.Put(opCtx, snapshotKey(snapshot.EntityID), string(data)); err != nil {
		return fmt.Errorf("etcd: upsert %s: %w", snapshot.EntityID, err)
	}
	return nil
}

// Get implements persistence.SnapshotStore
func (s *Store) Get(ctx context.Context, entityID string) (*lifecycle.Snapshot, error) {
	if s.closed.Load() {
		return nil, gerrors.ErrStoreClosed
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	resp, err := s.kv.Get(opCtx, snapshotKey(entityID))
	if err != nil {
		return nil, fmt.Errorf("etcd: get %s: %w", entityID, err)
	}
	if len(resp.Kvs) == 0 {
		return nil, persistence.ErrKeyNotFound
	}
	return s.codec.Decode(resp.Kvs[0].Value)
}

// List implements persistence.SnapshotStore
func (s *Store) List(ctx context.Context, filter persistence.Filter) ([]*lifecycle.Snapshot, error) {
	if s.closed.Load() {
		return nil, gerrors.ErrStoreClosed
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	resp, err := s.kv.Get(opCtx, snapshotPrefix,
		clientv3.WithPrefix(),
		clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend))
	if err != nil {
		return nil, fmt.Errorf("etcd: list: %w", err)
	}

	out := make([]*lifecycle.Snapshot, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		snapshot, err := s.codec.Decode(kv.Value)
		if err != nil {
			return nil, fmt.Errorf("etcd: decoding %s: %w", kv.Key, err)
		}
		if filter.Matches(snapshot) {
			out = append(out, snapshot)
		}
	}
	return out, nil
}

// Close releases the etcd client. Close is idempotent.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.client.Close()
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = s.config.Context
	}
	return context.WithTimeout(ctx, s.config.Timeout)
}

func snapshotKey(entityID string) string {
	return snapshotPrefix + entityID
}
