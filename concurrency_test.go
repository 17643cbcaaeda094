// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package owner

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// Property P7: under the thread-safe flag, goroutines running a mix of
// make/get/free/count each free every handle they made, and Count is back
// to zero once they have all finished.
func TestThreadSafeConcurrentMakeGetFree(t *testing.T) {
	o := New[int](Config{ThreadSafe: true, TargetChunkBytes: 64, MaxElements: 4096})

	const goroutines = 8
	const perGoroutine = 500

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(seed int) {
			defer wg.Done()
			var held []Handle
			for i := 0; i < perGoroutine; i++ {
				switch i % 3 {
				case 0:
					h := o.MakeValue(seed*perGoroutine + i)
					if !h.IsNull() {
						held = append(held, h)
					}
				case 1:
					if len(held) > 0 {
						h := held[len(held)-1]
						held = held[:len(held)-1]
						if v, ok := o.Get(h); ok {
							_ = *v
						}
						o.Free(h)
					}
				case 2:
					o.Count()
				}
			}
			for _, h := range held {
				o.Free(h)
			}
		}(g)
	}
	wg.Wait()

	require.EqualValues(t, 0, o.Count())
}

func TestThreadSafeChunkLimitFixedAtConstruction(t *testing.T) {
	o := New[int](Config{ThreadSafe: true, TargetChunkBytes: 16, MaxElements: 16}) // epc=2
	require.EqualValues(t, 9, o.arena.ChunkLimit())                               // ceil(16/2)+1

	for i := 0; i < 16; i++ {
		require.False(t, o.MakeValue(i).IsNull())
	}
	require.EqualValues(t, 16, o.Count())
}

func TestBorrowUnderConcurrency(t *testing.T) {
	a := New[int](Config{ThreadSafe: true})
	b := New[int](Config{ThreadSafe: true})

	h := a.MakeValue(1)

	var wg sync.WaitGroup
	results := make([]bool, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = b.Owns(h)
		}(i)
	}
	wg.Wait()

	require.True(t, b.Borrow(a, h))
	v, ok := b.Get(h)
	require.True(t, ok)
	require.EqualValues(t, 1, *v)
}
