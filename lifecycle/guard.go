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

package lifecycle

import (
	"fmt"
	"strings"
	"time"
)

const (
	// GuardClassificationComplete requires every classification attribute before review
	GuardClassificationComplete = "classification-complete"
	// GuardLegalRequirementsPresent requires legal requirements for fiscal entities
	GuardLegalRequirementsPresent = "legal-requirements-present"
	// GuardMandatoryFieldsPresent requires every declared mandatory field in the metadata
	GuardMandatoryFieldsPresent = "mandatory-fields-present"
	// GuardEffectivePeriodValid requires a coherent effective period on activation
	GuardEffectivePeriodValid = "effective-period-valid"
)

// FiscalCategory is the category that requires legal requirements on approval
const FiscalCategory = "fiscal"

// Guard is a named pure predicate over the current snapshot and the incoming command.
// Check returns an empty string when the guard holds, otherwise the reason it failed.
type Guard struct {
	Name  string
	Check func(snapshot *Snapshot, command Command, at time.Time) string
}

func classificationComplete() Guard {
	return Guard{
		Name: GuardClassificationComplete,
		Check: func(snapshot *Snapshot, _ Command, _ time.Time) string {
			c := snapshot.Classification
			missing := make([]string, 0, 6)
			for _, field := range []struct{ name, value string }{
				{"document_type", c.DocumentType},
				{"code", c.Code},
				{"name", c.Name},
				{"category", c.Category},
				{"format", c.Format},
				{"version", c.Version},
			} {
				if strings.TrimSpace(field.value) == "" {
					missing = append(missing, field.name)
				}
			}
			if len(missing) > 0 {
				return "missing " + strings.Join(missing, ", ")
			}
			return ""
		},
	}
}

func legalRequirementsPresent() Guard {
	return Guard{
		Name: GuardLegalRequirementsPresent,
		Check: func(snapshot *Snapshot, _ Command, _ time.Time) string {
			if strings.EqualFold(snapshot.Classification.Category, FiscalCategory) &&
				len(snapshot.Classification.LegalRequirements) == 0 {
				return "category fiscal requires at least one legal requirement"
			}
			return ""
		},
	}
}

func mandatoryFieldsPresent() Guard {
	return Guard{
		Name: GuardMandatoryFieldsPresent,
		Check: func(snapshot *Snapshot, _ Command, _ time.Time) string {
			missing := make([]string, 0)
			for _, field := range snapshot.Classification.MandatoryFields {
				if strings.TrimSpace(snapshot.Classification.Metadata[field]) == "" {
					missing = append(missing, field)
				}
			}
			if len(missing) > 0 {
				return "missing mandatory fields " + strings.Join(missing, ", ")
			}
			return ""
		},
	}
}

func effectivePeriodValid() Guard {
	return Guard{
		Name: GuardEffectivePeriodValid,
		Check: func(_ *Snapshot, command Command, at time.Time) string {
			from := at
			if command.Payload.EffectiveFrom != nil {
				from = *command.Payload.EffectiveFrom
			}
			if to := command.Payload.EffectiveTo; to != nil && to.Before(from) {
				return fmt.Sprintf("effective_to %s precedes effective_from %s",
					to.UTC().Format(time.RFC3339), from.UTC().Format(time.RFC3339))
			}
			return ""
		},
	}
}
