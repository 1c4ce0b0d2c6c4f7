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

package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	gerrors "github.com/tochemey/lifecycle/errors"
	"github.com/tochemey/lifecycle/internal/storetest"
)

func startPostgres(t *testing.T) *Config {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "lifecycle",
				// a linguistic collation orders "doc-a" before "doc-B"
				"POSTGRES_INITDB_ARGS": "--locale-provider=icu --icu-locale=en-US",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	config := DefaultConfig()
	config.Host = host
	config.Port = port.Int()
	return &config
}

func TestStore(t *testing.T) {
	config := startPostgres(t)

	store, err := NewStore(t.Context(), config)
	require.NoError(t, err)

	storetest.Run(t, store)

	require.NoError(t, store.Close())
	assert.ErrorIs(t, store.Ping(context.Background()), gerrors.ErrStoreClosed)
}

func TestConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		config := &Config{Host: "db", User: "u", DBName: "d"}
		config.Sanitize()
		require.NoError(t, config.Validate())
		assert.Equal(t, 5432, config.Port)
		assert.Equal(t, "lifecycle_snapshots", config.Table)
		assert.True(t, strings.Contains(config.DSN(), "host=db port=5432"))
	})
	t.Run("invalid", func(t *testing.T) {
		config := &Config{Table: "drop table;"}
		config.Sanitize()
		require.Error(t, config.Validate())
	})
	t.Run("nil config", func(t *testing.T) {
		store, err := NewStore(t.Context(), nil)
		require.Error(t, err)
		require.Nil(t, store)
	})
}
