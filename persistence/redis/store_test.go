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

package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	gerrors "github.com/tochemey/lifecycle/errors"
	"github.com/tochemey/lifecycle/internal/storetest"
	"github.com/tochemey/lifecycle/persistence"
)

func startRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestStore(t *testing.T) {
	addr := startRedis(t)
	codec, err := persistence.NewCodec(persistence.BrotliCompression)
	require.NoError(t, err)

	store, err := NewStore(t.Context(), &Config{Addr: addr, KeyPrefix: "test"}, codec)
	require.NoError(t, err)

	storetest.Run(t, store)

	require.NoError(t, store.Close())
	assert.ErrorIs(t, store.Ping(context.Background()), gerrors.ErrStoreClosed)
}

func TestNewStore(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		store, err := NewStore(t.Context(), nil, nil)
		require.Error(t, err)
		require.Nil(t, store)
	})
	t.Run("invalid config", func(t *testing.T) {
		store, err := NewStore(t.Context(), &Config{}, nil)
		require.Error(t, err)
		require.Nil(t, store)
	})
	t.Run("defaults", func(t *testing.T) {
		config := &Config{Addr: " 127.0.0.1:6379 ", KeyPrefix: ":docs:"}
		config.Sanitize()
		assert.Equal(t, "127.0.0.1:6379", config.Addr)
		assert.Equal(t, "docs", config.KeyPrefix)
		assert.Equal(t, 5*time.Second, config.DialTimeout)
	})
	t.Run("unreachable server", func(t *testing.T) {
		store, err := NewStore(t.Context(), &Config{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond}, nil)
		require.Error(t, err)
		require.Nil(t, store)
	})
}
