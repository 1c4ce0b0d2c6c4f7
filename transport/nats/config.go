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

package nats

import (
	"strings"
	"time"

	"github.com/tochemey/lifecycle/internal/validation"
)

const (
	// DefaultSubjectPrefix is the subject namespace used when none is configured
	DefaultSubjectPrefix = "lifecycle"
	// DefaultConnectTimeout bounds a single connection attempt
	DefaultConnectTimeout = 2 * time.Second
	// DefaultMaxRetries is the number of connection attempts
	DefaultMaxRetries = 5
)

// Config defines the NATS transport settings
type Config struct {
	// Server defines the nats server in the format nats://host:port
	Server string
	// SubjectPrefix prefixes every subject. Envelopes are published on <prefix>.<kind>
	SubjectPrefix string
	// Name is the connection name reported to the server
	Name string
	// ConnectTimeout bounds a single connection attempt
	ConnectTimeout time.Duration
	// MaxRetries is the number of connection attempts before giving up
	MaxRetries int
}

// Sanitize fills the unset fields with their default values
func (x *Config) Sanitize() {
	x.SubjectPrefix = strings.Trim(strings.TrimSpace(x.SubjectPrefix), ".")
	if x.SubjectPrefix == "" {
		x.SubjectPrefix = DefaultSubjectPrefix
	}
	if x.ConnectTimeout <= 0 {
		x.ConnectTimeout = DefaultConnectTimeout
	}
	if x.MaxRetries <= 0 {
		x.MaxRetries = DefaultMaxRetries
	}
	if x.Name == "" {
		x.Name = "lifecycle"
	}
}

// Validate checks the configuration
func (x *Config) Validate() error {
	return validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("Server", x.Server)).
		AddValidator(validation.NewEmptyStringValidator("SubjectPrefix", x.SubjectPrefix)).
		AddAssertion(!strings.ContainsAny(x.SubjectPrefix, " *>"), "subject prefix must not contain wildcards or spaces").
		Validate()
}
