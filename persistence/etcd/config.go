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
	"crypto/tls"
	"strings"
	"time"

	"github.com/tochemey/lifecycle/internal/validation"
)

const defaultNamespace = "/lifecycle/"

// Config defines the etcd store settings
type Config struct {
	// Context is the base context of the etcd client
	Context context.Context
	// Endpoints lists the etcd cluster client endpoints
	Endpoints []string
	// Namespace prefixes every key written by the store
	Namespace string
	// DialTimeout bounds the connection establishment
	DialTimeout time.Duration
	// Timeout bounds a single store operation
	Timeout  time.Duration
	TLS      *tls.Config
	Username string
	Password string
}

// Sanitize applies the defaults
func (c *Config) Sanitize() {
	if c.Context == nil {
		c.Context = context.Background()
	}
	if strings.TrimSpace(c.Namespace) == "" {
		c.Namespace = defaultNamespace
	}
	if !strings.HasSuffix(c.Namespace, "/") {
		c.Namespace += "/"
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	chain := validation.New(validation.FailFast()).
		AddAssertion(len(c.Endpoints) > 0, "etcd endpoints are required")
	for _, endpoint := range c.Endpoints {
		chain = chain.AddValidator(validation.NewEmptyStringValidator("endpoint", endpoint))
	}
	return chain.Validate()
}
