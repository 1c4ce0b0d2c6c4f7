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

// Command lifecycled runs the document lifecycle service: it opens the
// configured snapshot store, connects the transport and serves signed
// requests until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/multierr"

	"github.com/tochemey/lifecycle/actor"
	"github.com/tochemey/lifecycle/config"
	"github.com/tochemey/lifecycle/log"
	"github.com/tochemey/lifecycle/protocol"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := pflag.StringP("config", "c", "", "path to the YAML configuration file")
	pflag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) (err error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := log.NewZap(cfg.Level(), os.Stdout)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, store.Close()) }()

	registry, err := actor.NewRegistry(store,
		actor.WithLogger(logger),
		actor.WithInboxCapacity(cfg.InboxCapacity),
		actor.WithPersistenceTimeout(cfg.PersistenceTimeout),
		actor.WithRequestTimeout(cfg.RequestTimeout))
	if err != nil {
		return err
	}

	tr, err := openTransport(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, tr.Close()) }()

	signer, err := identity(cfg, logger)
	if err != nil {
		return err
	}

	adapter, err := protocol.NewAdapter(registry, tr, signer,
		protocol.WithLogger(logger),
		protocol.WithConcurrency(cfg.Concurrency),
		protocol.WithNamespace(cfg.Namespace),
		protocol.WithAnnouncements(cfg.Announcements))
	if err != nil {
		return err
	}

	if err := adapter.Start(ctx); err != nil {
		return err
	}
	logger.Infof("lifecycle service started (store=%s, transport=%s)", cfg.Store.Driver, cfg.Transport.Driver)

	<-ctx.Done()
	logger.Info("shutting down lifecycle service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return multierr.Combine(adapter.Stop(shutdownCtx), registry.Stop(shutdownCtx))
}

func identity(cfg *config.Config, logger log.Logger) (*protocol.Signer, error) {
	if cfg.IdentitySeed != "" {
		return protocol.ParseSigner(cfg.IdentitySeed)
	}
	logger.Warn("no identity seed configured, using an ephemeral identity")
	return protocol.GenerateSigner()
}
