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

// Package config loads the lifecycle service configuration from a YAML file
// with LIFECYCLE_ prefixed environment overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/spf13/viper"

	"github.com/tochemey/lifecycle/internal/validation"
	"github.com/tochemey/lifecycle/log"
	"github.com/tochemey/lifecycle/persistence"
	"github.com/tochemey/lifecycle/persistence/etcd"
	"github.com/tochemey/lifecycle/persistence/postgres"
	"github.com/tochemey/lifecycle/persistence/redis"
	"github.com/tochemey/lifecycle/transport/nats"
)

// EnvPrefix prefixes the environment variables overriding the file settings.
// Nested keys use underscores: LIFECYCLE_STORE_DRIVER overrides store.driver.
const EnvPrefix = "LIFECYCLE"

// Store drivers
const (
	StoreMemory   = "memory"
	StoreBolt     = "bolt"
	StoreRedis    = "redis"
	StoreEtcd     = "etcd"
	StorePostgres = "postgres"
)

// Transport drivers
const (
	TransportMemory = "memory"
	TransportNATS   = "nats"
)

// Config is the service configuration
type Config struct {
	LogLevel  string
	Namespace string
	// IdentitySeed is the hex encoded ed25519 seed of the service. A random identity is used when empty.
	IdentitySeed string

	InboxCapacity      int
	PersistenceTimeout time.Duration
	RequestTimeout     time.Duration

	Concurrency   int
	Announcements bool

	Store     StoreConfig
	Transport TransportConfig
}

// StoreConfig selects and configures the snapshot store
type StoreConfig struct {
	Driver      string
	Compression persistence.Compression
	BoltPath    string
	Redis       redis.Config
	Etcd        etcd.Config
	Postgres    postgres.Config
}

// TransportConfig selects and configures the transport
type TransportConfig struct {
	Driver string
	NATS   nats.Config
}

// Level returns the configured log level
func (c *Config) Level() log.Level {
	return log.ParseLevel(c.LogLevel)
}

// Load reads the configuration file at path, when given, and applies the
// environment overrides on top of the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	postgresConfig := postgres.DefaultConfig()
	postgresConfig.Host = v.GetString("store.postgres.host")
	postgresConfig.Port = v.GetInt("store.postgres.port")
	postgresConfig.User = v.GetString("store.postgres.user")
	postgresConfig.Password = v.GetString("store.postgres.password")
	postgresConfig.DBName = v.GetString("store.postgres.dbname")
	postgresConfig.SSLMode = v.GetString("store.postgres.sslmode")
	postgresConfig.Table = v.GetString("store.postgres.table")

	config := &Config{
		LogLevel:           v.GetString("log.level"),
		Namespace:          v.GetString("namespace"),
		IdentitySeed:       v.GetString("identity.seed"),
		InboxCapacity:      v.GetInt("actor.inbox_capacity"),
		PersistenceTimeout: v.GetDuration("actor.persistence_timeout"),
		RequestTimeout:     v.GetDuration("actor.request_timeout"),
		Concurrency:        v.GetInt("adapter.concurrency"),
		Announcements:      v.GetBool("adapter.announcements"),
		Store: StoreConfig{
			Driver:      strings.ToLower(v.GetString("store.driver")),
			Compression: persistence.Compression(strings.ToLower(v.GetString("store.compression"))),
			BoltPath:    v.GetString("store.bolt.path"),
			Redis: redis.Config{
				Addr:      v.GetString("store.redis.addr"),
				Username:  v.GetString("store.redis.username"),
				Password:  v.GetString("store.redis.password"),
				DB:        v.GetInt("store.redis.db"),
				KeyPrefix: v.GetString("store.redis.key_prefix"),
			},
			Etcd: etcd.Config{
				Endpoints:   v.GetStringSlice("store.etcd.endpoints"),
				Namespace:   v.GetString("store.etcd.namespace"),
				DialTimeout: v.GetDuration("store.etcd.dial_timeout"),
				Username:    v.GetString("store.etcd.username"),
				Password:    v.GetString("store.etcd.password"),
			},
			Postgres: postgresConfig,
		},
		Transport: TransportConfig{
			Driver: strings.ToLower(v.GetString("transport.driver")),
			NATS: nats.Config{
				Server:        v.GetString("transport.nats.server"),
				SubjectPrefix: v.GetString("transport.nats.subject_prefix"),
				MaxRetries:    v.GetInt("transport.nats.max_retries"),
			},
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	defaults := postgres.DefaultConfig()
	for key, value := range map[string]any{
		"log.level":                     "info",
		"namespace":                     "lifecycle",
		"identity.seed":                 "",
		"actor.inbox_capacity":          256,
		"actor.persistence_timeout":     5 * time.Second,
		"actor.request_timeout":         30 * time.Second,
		"adapter.concurrency":           64,
		"adapter.announcements":         true,
		"store.driver":                  StoreMemory,
		"store.compression":             string(persistence.NoCompression),
		"store.bolt.path":               "lifecycle.db",
		"store.redis.addr":              "127.0.0.1:6379",
		"store.redis.username":          "",
		"store.redis.password":          "",
		"store.redis.db":                0,
		"store.redis.key_prefix":        "lifecycle",
		"store.etcd.endpoints":          []string{"127.0.0.1:2379"},
		"store.etcd.namespace":          "/lifecycle/",
		"store.etcd.dial_timeout":       5 * time.Second,
		"store.etcd.username":           "",
		"store.etcd.password":           "",
		"store.postgres.host":           defaults.Host,
		"store.postgres.port":           defaults.Port,
		"store.postgres.user":           defaults.User,
		"store.postgres.password":       defaults.Password,
		"store.postgres.dbname":         defaults.DBName,
		"store.postgres.sslmode":        defaults.SSLMode,
		"store.postgres.table":          defaults.Table,
		"transport.driver":              TransportMemory,
		"transport.nats.server":         "nats://127.0.0.1:4222",
		"transport.nats.subject_prefix": nats.DefaultSubjectPrefix,
		"transport.nats.max_retries":    nats.DefaultMaxRetries,
	} {
		v.SetDefault(key, value)
	}
}

// Validate checks the configuration, including the settings of the selected drivers
func (c *Config) Validate() error {
	stores := mapset.NewSet(StoreMemory, StoreBolt, StoreRedis, StoreEtcd, StorePostgres)
	transports := mapset.NewSet(TransportMemory, TransportNATS)
	compressions := mapset.NewSet(persistence.NoCompression, persistence.ZstdCompression, persistence.BrotliCompression)

	err := validation.New(validation.AllErrors()).
		AddAssertion(c.Level() != log.InvalidLevel, fmt.Sprintf("unknown log level %q", c.LogLevel)).
		AddValidator(validation.NewEmptyStringValidator("namespace", c.Namespace)).
		AddAssertion(c.InboxCapacity > 0, "actor inbox capacity must be greater than zero").
		AddAssertion(c.PersistenceTimeout > 0, "actor persistence timeout must be greater than zero").
		AddAssertion(c.RequestTimeout > 0, "actor request timeout must be greater than zero").
		AddAssertion(c.Concurrency > 0, "adapter concurrency must be greater than zero").
		AddAssertion(stores.Contains(c.Store.Driver), fmt.Sprintf("unsupported store driver %q", c.Store.Driver)).
		AddAssertion(compressions.Contains(c.Store.Compression), fmt.Sprintf("unsupported compression %q", c.Store.Compression)).
		AddAssertion(transports.Contains(c.Transport.Driver), fmt.Sprintf("unsupported transport driver %q", c.Transport.Driver)).
		Validate()
	if err != nil {
		return err
	}

	switch c.Store.Driver {
	case StoreBolt:
		err = validation.NewEmptyStringValidator("store.bolt.path", c.Store.BoltPath).Validate()
	case StoreRedis:
		c.Store.Redis.Sanitize()
		err = c.Store.Redis.Validate()
	case StoreEtcd:
		c.Store.Etcd.Sanitize()
		err = c.Store.Etcd.Validate()
	case StorePostgres:
		c.Store.Postgres.Sanitize()
		err = c.Store.Postgres.Validate()
	}
	if err != nil {
		return fmt.Errorf("invalid %s store settings: %w", c.Store.Driver, err)
	}

	if c.Transport.Driver == TransportNATS {
		c.Transport.NATS.Sanitize()
		if err := c.Transport.NATS.Validate(); err != nil {
			return fmt.Errorf("invalid nats transport settings: %w", err)
		}
	}
	return nil
}
