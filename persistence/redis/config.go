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
	"strings"
	"time"

	"github.com/tochemey/lifecycle/internal/validation"
)

const defaultKeyPrefix = "lifecycle"

// Config defines the redis store settings
type Config struct {
	// Addr is the host:port of the redis server
	Addr string
	// Username and Password authenticate against the server when set
	Username string
	Password string
	// DB selects the redis logical database
	DB int
	// KeyPrefix namespaces every key written by the store
	KeyPrefix string
	// DialTimeout bounds the connection establishment
	DialTimeout time.Duration
}

// Sanitize applies the defaults
func (c *Config) Sanitize() {
	c.Addr = strings.TrimSpace(c.Addr)
	c.KeyPrefix = strings.Trim(strings.TrimSpace(c.KeyPrefix), ":")
	if c.KeyPrefix == "" {
		c.KeyPrefix = defaultKeyPrefix
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	return validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("Addr", c.Addr)).
		AddAssertion(c.DB >= 0, "DB must not be negative").
		Validate()
}
