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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/lifecycle/log"
	"github.com/tochemey/lifecycle/persistence"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lifecycle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("With defaults", func(t *testing.T) {
		config, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, log.InfoLevel, config.Level())
		assert.Equal(t, StoreMemory, config.Store.Driver)
		assert.Equal(t, TransportMemory, config.Transport.Driver)
		assert.Equal(t, persistence.NoCompression, config.Store.Compression)
		assert.Equal(t, 256, config.InboxCapacity)
		assert.Equal(t, 5*time.Second, config.PersistenceTimeout)
		assert.Equal(t, 30*time.Second, config.RequestTimeout)
		assert.Equal(t, 64, config.Concurrency)
		assert.True(t, config.Announcements)
	})
	t.Run("With file", func(t *testing.T) {
		path := writeConfig(t, `
log:
  level: debug
namespace: documents
actor:
  inbox_capacity: 16
  persistence_timeout: 2s
adapter:
  announcements: false
store:
  driver: redis
  compression: zstd
  redis:
    addr: redis:6379
    db: 2
transport:
  driver: nats
  nats:
    server: nats://nats:4222
`)
		config, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, log.DebugLevel, config.Level())
		assert.Equal(t, "documents", config.Namespace)
		assert.Equal(t, 16, config.InboxCapacity)
		assert.Equal(t, 2*time.Second, config.PersistenceTimeout)
		assert.False(t, config.Announcements)
		assert.Equal(t, StoreRedis, config.Store.Driver)
		assert.Equal(t, persistence.ZstdCompression, config.Store.Compression)
		assert.Equal(t, "redis:6379", config.Store.Redis.Addr)
		assert.Equal(t, 2, config.Store.Redis.DB)
		assert.Equal(t, "nats://nats:4222", config.Transport.NATS.Server)
		assert.Equal(t, "lifecycle", config.Transport.NATS.SubjectPrefix)
	})
	t.Run("With environment overrides", func(t *testing.T) {
		path := writeConfig(t, "store:\n  driver: memory\n")
		t.Setenv("LIFECYCLE_STORE_DRIVER", "bolt")
		t.Setenv("LIFECYCLE_STORE_BOLT_PATH", "/var/lib/lifecycle.db")
		t.Setenv("LIFECYCLE_ACTOR_REQUEST_TIMEOUT", "10s")

		config, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, StoreBolt, config.Store.Driver)
		assert.Equal(t, "/var/lib/lifecycle.db", config.Store.BoltPath)
		assert.Equal(t, 10*time.Second, config.RequestTimeout)
	})
	t.Run("With missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})
	t.Run("With invalid settings", func(t *testing.T) {
		for name, content := range map[string]string{
			"store driver":     "store:\n  driver: mongo\n",
			"transport driver": "transport:\n  driver: kafka\n",
			"compression":      "store:\n  compression: lz4\n",
			"log level":        "log:\n  level: loud\n",
			"inbox":            "actor:\n  inbox_capacity: 0\n",
			"postgres table":   "store:\n  driver: postgres\n  postgres:\n    table: Bad-Table\n",
			"nats prefix":      "transport:\n  driver: nats\n  nats:\n    subject_prefix: a.*\n",
		} {
			_, err := Load(writeConfig(t, content))
			assert.Errorf(t, err, "%s should be rejected", name)
		}
	})
}
