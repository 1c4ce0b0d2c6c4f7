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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/lifecycle/errors"
	"github.com/tochemey/lifecycle/transport"
)

func TestSigner(t *testing.T) {
	t.Run("With canonical identifier", func(t *testing.T) {
		signer, err := GenerateSigner()
		require.NoError(t, err)

		envelope, err := signer.NewEnvelope(transport.KindRequest, [][]string{{"p", "x"}}, `{"a":"<b>"}`, time.Unix(123, 0))
		require.NoError(t, err)

		canonical := fmt.Sprintf(`[0,"%s",123,5055,[["p","x"]],"{\"a\":\"<b>\"}"]`, signer.PublicKey())
		sum := sha256.Sum256([]byte(canonical))
		assert.Equal(t, hex.EncodeToString(sum[:]), envelope.ID)
		assert.Equal(t, signer.PublicKey(), envelope.PubKey)
		require.NoError(t, Verify(envelope))
	})
	t.Run("With nil tags", func(t *testing.T) {
		signer, err := GenerateSigner()
		require.NoError(t, err)
		envelope, err := signer.NewEnvelope(transport.KindResponse, nil, "", time.Unix(1, 0))
		require.NoError(t, err)
		assert.NotNil(t, envelope.Tags)
		require.NoError(t, Verify(envelope))
	})
	t.Run("With tampering", func(t *testing.T) {
		signer, err := GenerateSigner()
		require.NoError(t, err)
		other, err := GenerateSigner()
		require.NoError(t, err)

		sign := func() *transport.Envelope {
			envelope, err := signer.NewEnvelope(transport.KindRequest, nil, "content", time.Unix(1, 0))
			require.NoError(t, err)
			return envelope
		}

		envelope := sign()
		envelope.Content = "changed"
		require.ErrorIs(t, Verify(envelope), gerrors.ErrInvalidEnvelopeID)

		envelope = sign()
		sig, err := hex.DecodeString(envelope.Sig)
		require.NoError(t, err)
		sig[0] ^= 0xff
		envelope.Sig = hex.EncodeToString(sig)
		require.ErrorIs(t, Verify(envelope), gerrors.ErrInvalidSignature)

		envelope = sign()
		envelope.Sig = "zz"
		require.ErrorIs(t, Verify(envelope), gerrors.ErrInvalidSignature)

		envelope = sign()
		envelope.PubKey = "abc"
		require.ErrorIs(t, Verify(envelope), gerrors.ErrInvalidPublicKey)

		// a valid identifier recomputed for another key does not verify
		envelope = sign()
		envelope.PubKey = other.PublicKey()
		envelope.ID, err = EnvelopeID(envelope)
		require.NoError(t, err)
		require.ErrorIs(t, Verify(envelope), gerrors.ErrInvalidSignature)
	})
	t.Run("With seed", func(t *testing.T) {
		seed := "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
		first, err := ParseSigner(seed)
		require.NoError(t, err)
		second, err := ParseSigner(seed)
		require.NoError(t, err)
		assert.Equal(t, first.PublicKey(), second.PublicKey())

		_, err = ParseSigner("not hex")
		require.Error(t, err)
		_, err = NewSigner([]byte("short"))
		require.Error(t, err)
	})
}
