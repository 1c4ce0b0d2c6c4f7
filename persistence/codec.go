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

package persistence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"

	"github.com/tochemey/lifecycle/lifecycle"
)

// Compression selects how encoded snapshots are compressed
type Compression string

const (
	// NoCompression stores plain JSON
	NoCompression Compression = "none"
	// ZstdCompression compresses with zstd
	ZstdCompression Compression = "zstd"
	// BrotliCompression compresses with brotli
	BrotliCompression Compression = "brotli"
)

// frame markers prepended to compressed payloads. Plain JSON always starts with '{'.
const (
	zstdFrame   byte = 0x01
	brotliFrame byte = 0x02
)

var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdErr     error

	brotliWriters = sync.Pool{
		New: func() any {
			return brotli.NewWriterLevel(nil, brotli.DefaultCompression)
		},
	}
)

// zstdCodecs lazily builds the shared zstd encoder and decoder.
// EncodeAll and DecodeAll are safe for concurrent use.
func zstdCodecs() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		if zstdEncoder, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault)); zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil)
	})
	return zstdEncoder, zstdDecoder, zstdErr
}

// Codec encodes snapshots for the byte oriented stores
type Codec struct {
	compression Compression
}

// DefaultCodec stores plain JSON
var DefaultCodec = &Codec{compression: NoCompression}

// NewCodec creates a Codec. An empty compression means NoCompression.
func NewCodec(compression Compression) (*Codec, error) {
	switch compression {
	case "", NoCompression:
		return &Codec{compression: NoCompression}, nil
	case ZstdCompression, BrotliCompression:
		return &Codec{compression: compression}, nil
	default:
		return nil, fmt.Errorf("unsupported compression %q", compression)
	}
}

// Compression returns the compression used when encoding
func (c *Codec) Compression() Compression {
	return c.compression
}

// Encode serializes the snapshot
func (c *Codec) Encode(snapshot *lifecycle.Snapshot) ([]byte, error) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot %s: %w", snapshot.EntityID, err)
	}

	switch c.compression {
	case ZstdCompression:
		encoder, _, err := zstdCodecs()
		if err != nil {
			return nil, err
		}
		out := make([]byte, 1, len(raw)/2+1)
		out[0] = zstdFrame
		return encoder.EncodeAll(raw, out), nil
	case BrotliCompression:
		buffer := bytes.NewBuffer(make([]byte, 0, len(raw)/2+1))
		buffer.WriteByte(brotliFrame)
		writer := brotliWriters.Get().(*brotli.Writer)
		writer.Reset(buffer)
		defer brotliWriters.Put(writer)
		if _, err := writer.Write(raw); err != nil {
			return nil, err
		}
		if err := writer.Close(); err != nil {
			return nil, err
		}
		return buffer.Bytes(), nil
	default:
		return raw, nil
	}
}

// Decode deserializes a snapshot written by any Codec regardless of its compression
func (c *Codec) Decode(data []byte) (*lifecycle.Snapshot, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("decode snapshot: empty payload")
	}

	raw := data
	switch data[0] {
	case zstdFrame:
		_, decoder, err := zstdCodecs()
		if err != nil {
			return nil, err
		}
		decoded, err := decoder.DecodeAll(data[1:], nil)
		if err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		raw = decoded
	case brotliFrame:
		decoded, err := io.ReadAll(brotli.NewReader(bytes.NewReader(data[1:])))
		if err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		raw = decoded
	}

	snapshot := new(lifecycle.Snapshot)
	if err := json.Unmarshal(raw, snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	return snapshot, nil
}
