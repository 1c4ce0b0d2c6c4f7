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

package shardmap

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	t.Run("With store and load", func(t *testing.T) {
		m := New[int]()
		m.Store("doc-1", 1)
		val, ok := m.Load("doc-1")
		require.True(t, ok)
		assert.Equal(t, 1, val)

		_, ok = m.Load("doc-2")
		assert.False(t, ok)
	})
	t.Run("With load or store", func(t *testing.T) {
		m := New[string]()
		actual, loaded := m.LoadOrStore("doc-1", "first")
		assert.False(t, loaded)
		assert.Equal(t, "first", actual)

		actual, loaded = m.LoadOrStore("doc-1", "second")
		assert.True(t, loaded)
		assert.Equal(t, "first", actual)
	})
	t.Run("With delete and reset", func(t *testing.T) {
		m := New[int]()
		for i := range 100 {
			m.Store(fmt.Sprintf("doc-%d", i), i)
		}
		assert.Equal(t, 100, m.Len())
		assert.Len(t, m.Values(), 100)

		m.Delete("doc-1")
		assert.Equal(t, 99, m.Len())

		m.Reset()
		assert.Zero(t, m.Len())
	})
	t.Run("With concurrent load or store", func(t *testing.T) {
		m := New[int]()
		var wg sync.WaitGroup
		stored := make([]bool, 100)
		for i := range 100 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, loaded := m.LoadOrStore("doc-1", i)
				stored[i] = !loaded
			}(i)
		}
		wg.Wait()

		winners := 0
		for _, ok := range stored {
			if ok {
				winners++
			}
		}
		assert.Equal(t, 1, winners)
		assert.Equal(t, 1, m.Len())
	})
	t.Run("With concurrent writers", func(t *testing.T) {
		m := New[int]()
		var wg sync.WaitGroup
		for i := range 200 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				m.Store(fmt.Sprintf("doc-%d", i%50), i)
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 50, m.Len())
	})
	t.Run("With many keys", func(t *testing.T) {
		m := New[int]()
		const total = 10_000
		for i := range total {
			_, loaded := m.LoadOrStore(fmt.Sprintf("doc-%d", i), i)
			require.False(t, loaded)
		}
		require.Equal(t, total, m.Len())

		for i := range total {
			val, ok := m.Load(fmt.Sprintf("doc-%d", i))
			require.Truef(t, ok, "doc-%d should be found", i)
			require.Equal(t, i, val)

			actual, loaded := m.LoadOrStore(fmt.Sprintf("doc-%d", i), -1)
			require.True(t, loaded)
			require.Equal(t, i, actual)
		}
		assert.Equal(t, total, m.Len())
	})
}
