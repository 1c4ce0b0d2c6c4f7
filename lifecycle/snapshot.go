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
	"maps"
	"slices"
	"time"

	"github.com/tochemey/lifecycle/errors"
	"github.com/tochemey/lifecycle/internal/validation"
)

// DefaultVersion is assigned to entities created without a version
const DefaultVersion = "1.0.0"

// Classification holds the descriptive attributes set once at creation
type Classification struct {
	DocumentType      string            `json:"document_type"`
	Code              string            `json:"code"`
	Name              string            `json:"name"`
	Category          string            `json:"category"`
	Format            string            `json:"format"`
	Version           string            `json:"version"`
	Description       string            `json:"description,omitempty"`
	LegalRequirements []string          `json:"legal_requirements,omitempty"`
	MandatoryFields   []string          `json:"mandatory_fields,omitempty"`
	TemplateURL       string            `json:"template_url,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// Review records the begin-review transition
type Review struct {
	StartedBy string     `json:"review_started_by,omitempty"`
	StartedAt *time.Time `json:"review_started_at,omitempty"`
}

// Approval records the approve transition
type Approval struct {
	ApprovedBy string     `json:"approved_by,omitempty"`
	Comments   string     `json:"approval_comments,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
}

// RejectionAudit records the reject transition
type RejectionAudit struct {
	Reason     string     `json:"rejection_reason,omitempty"`
	RejectedBy string     `json:"rejected_by,omitempty"`
	RejectedAt *time.Time `json:"rejected_at,omitempty"`
}

// Activation records the activate and reactivate transitions
type Activation struct {
	EffectiveFrom *time.Time `json:"effective_from,omitempty"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty"`
	ActivatedBy   string     `json:"activated_by,omitempty"`
	ActivatedAt   *time.Time `json:"activated_at,omitempty"`
}

// Supersession records the supersede transition
type Supersession struct {
	Reason        string     `json:"superseded_reason,omitempty"`
	SupersededBy  string     `json:"superseded_by,omitempty"`
	SupersededAt  *time.Time `json:"superseded_at,omitempty"`
	ReplacementID string     `json:"replacement_id,omitempty"`
}

// Snapshot is the full durable attribute set of one entity
type Snapshot struct {
	EntityID       string         `json:"entity_id"`
	Classification Classification `json:"classification"`
	State          State          `json:"state"`
	Revision       uint64         `json:"revision"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Review         Review         `json:"review"`
	Approval       Approval       `json:"approval"`
	Rejection      RejectionAudit `json:"rejection"`
	Activation     Activation     `json:"activation"`
	Supersession   Supersession   `json:"supersession"`
}

// CreateInput carries the attributes supplied by a creation command
type CreateInput struct {
	DocumentType      string            `json:"document_type"`
	Code              string            `json:"code"`
	Name              string            `json:"name"`
	Category          string            `json:"category"`
	Format            string            `json:"format"`
	Version           string            `json:"version,omitempty"`
	Description       string            `json:"description,omitempty"`
	LegalRequirements []string          `json:"legal_requirements,omitempty"`
	MandatoryFields   []string          `json:"mandatory_fields,omitempty"`
	TemplateURL       string            `json:"template_url,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// Validate checks the attributes required to create an entity
func (in CreateInput) Validate() error {
	return validation.New(validation.AllErrors()).
		AddValidator(validation.NewEmptyStringValidator("name", in.Name)).
		AddValidator(validation.NewEmptyStringValidator("category", in.Category)).
		AddValidator(validation.NewEmptyStringValidator("format", in.Format)).
		Validate()
}

// NewSnapshot builds the initial snapshot of an entity in the Registered state.
// The version defaults to DefaultVersion.
func NewSnapshot(id string, in CreateInput, at time.Time) (*Snapshot, error) {
	if err := validation.NewIDValidator(id).Validate(); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	version := in.Version
	if version == "" {
		version = DefaultVersion
	}

	at = at.UTC()
	return &Snapshot{
		EntityID: id,
		Classification: Classification{
			DocumentType:      in.DocumentType,
			Code:              in.Code,
			Name:              in.Name,
			Category:          in.Category,
			Format:            in.Format,
			Version:           version,
			Description:       in.Description,
			LegalRequirements: slices.Clone(in.LegalRequirements),
			MandatoryFields:   slices.Clone(in.MandatoryFields),
			TemplateURL:       in.TemplateURL,
			Metadata:          maps.Clone(in.Metadata),
		},
		State:     Registered,
		CreatedAt: at,
		UpdatedAt: at,
	}, nil
}

// Clone returns a deep copy of the snapshot
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}

	out := *s
	out.Classification.LegalRequirements = slices.Clone(s.Classification.LegalRequirements)
	out.Classification.MandatoryFields = slices.Clone(s.Classification.MandatoryFields)
	out.Classification.Metadata = maps.Clone(s.Classification.Metadata)
	out.Review.StartedAt = cloneTime(s.Review.StartedAt)
	out.Approval.ApprovedAt = cloneTime(s.Approval.ApprovedAt)
	out.Rejection.RejectedAt = cloneTime(s.Rejection.RejectedAt)
	out.Activation.EffectiveFrom = cloneTime(s.Activation.EffectiveFrom)
	out.Activation.EffectiveTo = cloneTime(s.Activation.EffectiveTo)
	out.Activation.ActivatedAt = cloneTime(s.Activation.ActivatedAt)
	out.Supersession.SupersededAt = cloneTime(s.Supersession.SupersededAt)
	return &out
}

// Validate checks the invariants of a snapshot read back from storage
func (s *Snapshot) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil snapshot", errors.ErrInvalidSnapshot)
	}
	if err := validation.NewIDValidator(s.EntityID).Validate(); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrInvalidSnapshot, err)
	}
	if !s.State.IsValid() {
		return fmt.Errorf("%w: unknown state %q", errors.ErrInvalidSnapshot, s.State)
	}
	return nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func timePtr(t time.Time) *time.Time {
	v := t.UTC()
	return &v
}
