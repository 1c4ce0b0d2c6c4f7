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

package protocol

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	gerrors "github.com/tochemey/lifecycle/errors"
	"github.com/tochemey/lifecycle/transport"
)

// Signer holds the ed25519 identity of a protocol participant
type Signer struct {
	private ed25519.PrivateKey
	public  string
}

// NewSigner creates a Signer from a 32 bytes seed
func NewSigner(seed []byte) (*Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("signer seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	private := ed25519.NewKeyFromSeed(seed)
	return &Signer{
		private: private,
		public:  hex.EncodeToString(private.Public().(ed25519.PublicKey)),
	}, nil
}

// ParseSigner creates a Signer from a hex encoded seed
func ParseSigner(hexSeed string) (*Signer, error) {
	seed, err := hex.DecodeString(hexSeed)
	if err != nil {
		return nil, fmt.Errorf("invalid signer seed: %w", err)
	}
	return NewSigner(seed)
}

// GenerateSigner creates a Signer with a random identity
func GenerateSigner() (*Signer, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	return NewSigner(seed)
}

// PublicKey returns the hex encoded public key
func (s *Signer) PublicKey() string {
	return s.public
}

// NewEnvelope builds and signs an envelope
func (s *Signer) NewEnvelope(kind int, tags [][]string, content string, at time.Time) (*transport.Envelope, error) {
	envelope := &transport.Envelope{
		CreatedAt: at.Unix(),
		Kind:      kind,
		Tags:      tags,
		Content:   content,
	}
	if err := s.Sign(envelope); err != nil {
		return nil, err
	}
	return envelope, nil
}

// Sign sets the public key, the identifier and the signature of the envelope
func (s *Signer) Sign(envelope *transport.Envelope) error {
	if envelope.Tags == nil {
		envelope.Tags = [][]string{}
	}
	envelope.PubKey = s.public

	id, err := EnvelopeID(envelope)
	if err != nil {
		return err
	}

	digest, _ := hex.DecodeString(id)
	envelope.ID = id
	envelope.Sig = hex.EncodeToString(ed25519.Sign(s.private, digest))
	return nil
}

// EnvelopeID computes the hex sha256 of the canonical serialization
// [0, pubkey, created_at, kind, tags, content]
func EnvelopeID(envelope *transport.Envelope) (string, error) {
	tags := envelope.Tags
	if tags == nil {
		tags = [][]string{}
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode([]any{0, envelope.PubKey, envelope.CreatedAt, envelope.Kind, tags, envelope.Content}); err != nil {
		return "", fmt.Errorf("failed to serialize envelope: %w", err)
	}

	sum := sha256.Sum256(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return hex.EncodeToString(sum[:]), nil
}

// Verify checks that the envelope identifier matches its content and that
// the signature was produced by the declared public key
func Verify(envelope *transport.Envelope) error {
	public, err := hex.DecodeString(envelope.PubKey)
	if err != nil || len(public) != ed25519.PublicKeySize {
		return gerrors.ErrInvalidPublicKey
	}

	id, err := EnvelopeID(envelope)
	if err != nil {
		return err
	}
	if id != envelope.ID {
		return gerrors.ErrInvalidEnvelopeID
	}

	digest, _ := hex.DecodeString(id)
	sig, err := hex.DecodeString(envelope.Sig)
	if err != nil || !ed25519.Verify(public, digest, sig) {
		return gerrors.ErrInvalidSignature
	}
	return nil
}
