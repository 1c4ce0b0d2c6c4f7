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

package validation

import (
	"fmt"
	"regexp"

	"github.com/tochemey/lifecycle/errors"
)

const maxIDLength = 255

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._:\-]*$`)

type idValidator struct {
	id string
}

var _ Validator = (*idValidator)(nil)

// NewIDValidator creates a validator for entity identifiers.
// A valid identifier starts with an alphanumeric character, contains only
// word characters plus '.', '_', ':' or '-', and is at most 255 characters long.
func NewIDValidator(id string) Validator {
	return &idValidator{id: id}
}

// Validate executes the validation
func (v idValidator) Validate() error {
	if len(v.id) == 0 || len(v.id) > maxIDLength {
		return fmt.Errorf("%w: length must be between 1 and %d", errors.ErrInvalidEntityID, maxIDLength)
	}
	if !idPattern.MatchString(v.id) {
		return fmt.Errorf("%w: %q", errors.ErrInvalidEntityID, v.id)
	}
	return nil
}
