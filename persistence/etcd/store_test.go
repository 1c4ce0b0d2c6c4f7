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

package etcd

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	testcontainer "github.com/testcontainers/testcontainers-go/modules/etcd"

	gerrors "github.com/tochemey/lifecycle/errors"
	"github.com/tochemey/lifecycle/internal/storetest"
)

func startEtcd(t *testing.T) []string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping etcd container test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainer.Run(ctx, "gcr.io/etcd-development/etcd:v3.5.14")
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	endpoints, err := container.ClientEndpoints(ctx)
	require.NoError(t, err)
	return endpoints
}

func TestStore(t *testing.T) {
	endpoints := startEtcd(t)

	store, err := NewStore(&Config{
		Context:     t.Context(),
		Endpoints:   endpoints,
		Namespace:   "/lifecycle-test",
		DialTimeout: 5 * time.Second,
		Timeout:     5 * time.Second,
	}, nil)
	require.NoError(t, err)

	storetest.Run(t, store)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
	assert.ErrorIs(t, store.Ping(context.Background()), gerrors.ErrStoreClosed)
}

func TestNewStore(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		store, err := NewStore(nil, nil)
		require.Error(t, err)
		require.Nil(t, store)
	})
	t.Run("invalid config", func(t *testing.T) {
		store, err := NewStore(&Config{}, nil)
		require.Error(t, err)
		require.Nil(t, store)
	})
	t.Run("defaults", func(t *testing.T) {
		config := &Config{Endpoints: []string{"http://127.0.0.1:2379"}, Namespace: "/docs"}
		config.Sanitize()
		require.NoError(t, config.Validate())
		assert.NotNil(t, config.Context)
		assert.Equal(t, "/docs/", config.Namespace)
		assert.Equal(t, 5*time.Second, config.Timeout)

		empty := &Config{}
		empty.Sanitize()
		assert.Equal(t, defaultNamespace, empty.Namespace)
	})
	t.Run("invalid endpoints", func(t *testing.T) {
		store, err := NewStore(&Config{
			Context:     t.Context(),
			Endpoints:   []string{"http://127.0.0.1:1"},
			DialTimeout: 500 * time.Millisecond,
			Timeout:     500 * time.Millisecond,
		}, nil)
		require.Error(t, err)
		require.Nil(t, store)
	})
}
