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

package main

import (
	"context"
	"time"

	"github.com/flowchartsman/retry"

	"github.com/tochemey/lifecycle/config"
	gerrors "github.com/tochemey/lifecycle/errors"
	"github.com/tochemey/lifecycle/log"
	"github.com/tochemey/lifecycle/persistence"
	"github.com/tochemey/lifecycle/persistence/bolt"
	"github.com/tochemey/lifecycle/persistence/etcd"
	"github.com/tochemey/lifecycle/persistence/postgres"
	"github.com/tochemey/lifecycle/persistence/redis"
	"github.com/tochemey/lifecycle/transport"
	"github.com/tochemey/lifecycle/transport/memory"
	"github.com/tochemey/lifecycle/transport/nats"
)

// openStore opens the configured store and waits for it to answer a ping
func openStore(ctx context.Context, cfg *config.Config, logger log.Logger) (persistence.SnapshotStore, error) {
	codec, err := persistence.NewCodec(cfg.Store.Compression)
	if err != nil {
		return nil, err
	}

	var store persistence.SnapshotStore
	switch cfg.Store.Driver {
	case config.StoreMemory:
		store = persistence.NewMemoryStore()
	case config.StoreBolt:
		store, err = bolt.Open(cfg.Store.BoltPath, codec)
	case config.StoreRedis:
		store, err = redis.NewStore(ctx, &cfg.Store.Redis, codec)
	case config.StoreEtcd:
		cfg.Store.Etcd.Context = context.WithoutCancel(ctx)
		store, err = etcd.NewStore(&cfg.Store.Etcd, codec)
	case config.StorePostgres:
		store, err = postgres.NewStore(ctx, &cfg.Store.Postgres)
	default:
		return nil, gerrors.ErrUnsupportedStoreDriver
	}
	if err != nil {
		return nil, err
	}

	retrier := retry.NewRetrier(5, 100*time.Millisecond, 2*time.Second)
	if err := retrier.RunContext(ctx, func(ctx context.Context) error {
		return store.Ping(ctx)
	}); err != nil {
		_ = store.Close()
		return nil, err
	}

	logger.Infof("%s snapshot store ready", cfg.Store.Driver)
	return store, nil
}

func openTransport(cfg *config.Config, logger log.Logger) (transport.Transport, error) {
	switch cfg.Transport.Driver {
	case config.TransportMemory:
		return memory.NewBus(), nil
	case config.TransportNATS:
		return nats.Connect(&cfg.Transport.NATS, nats.WithLogger(logger))
	default:
		return nil, gerrors.ErrUnsupportedTransportDriver
	}
}
