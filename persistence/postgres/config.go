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
	"fmt"
	"regexp"
	"time"

	"github.com/tochemey/lifecycle/internal/validation"
)

var tablePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Config holds the PostgreSQL connection settings
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	// Table is the snapshot table name
	Table string
	// MaxConns caps the connection pool size
	MaxConns int32
	// ConnectTimeout bounds the initial connection
	ConnectTimeout time.Duration
}

// DefaultConfig returns a local development configuration
func DefaultConfig() Config {
	return Config{
		Host:           "localhost",
		Port:           5432,
		User:           "postgres",
		Password:       "postgres",
		DBName:         "lifecycle",
		SSLMode:        "disable",
		Table:          "lifecycle_snapshots",
		MaxConns:       10,
		ConnectTimeout: 5 * time.Second,
	}
}

// Sanitize fills the unset fields from DefaultConfig
func (c *Config) Sanitize() {
	defaults := DefaultConfig()
	if c.Port == 0 {
		c.Port = defaults.Port
	}
	if c.SSLMode == "" {
		c.SSLMode = defaults.SSLMode
	}
	if c.Table == "" {
		c.Table = defaults.Table
	}
	if c.MaxConns <= 0 {
		c.MaxConns = defaults.MaxConns
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaults.ConnectTimeout
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	return validation.New(validation.AllErrors()).
		AddValidator(validation.NewEmptyStringValidator("Host", c.Host)).
		AddValidator(validation.NewEmptyStringValidator("User", c.User)).
		AddValidator(validation.NewEmptyStringValidator("DBName", c.DBName)).
		AddAssertion(c.Port > 0 && c.Port < 65536, "Port is invalid").
		AddAssertion(tablePattern.MatchString(c.Table), "Table must be a lowercase SQL identifier").
		Validate()
}

// DSN returns the keyword/value connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}
