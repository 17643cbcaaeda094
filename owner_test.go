// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package owner

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// Scenario 1: basic round-trip.
func TestBasicRoundTrip(t *testing.T) {
	o := New[uint32](Config{TargetChunkBytes: 64, MaxElements: 256})

	h := o.MakeValue(42)
	require.True(t, o.Owns(h))
	v, ok := o.Get(h)
	require.True(t, ok)
	require.EqualValues(t, 42, *v)
	require.EqualValues(t, 1, o.Count())

	o.Free(h)
	require.False(t, o.Owns(h))
	_, ok = o.Get(h)
	require.False(t, ok)
	require.EqualValues(t, 0, o.Count())
}

// Scenario 2: stale handle after reuse.
func TestStaleHandleAfterReuse(t *testing.T) {
	o := New[int](Config{})

	h1 := o.MakeValue(1)
	o.Free(h1)
	h2 := o.MakeValue(2)

	require.EqualValues(t, h1.index(), h2.index())
	require.NotEqual(t, h1, h2)

	_, ok := o.Get(h1)
	require.False(t, ok)
	v2, ok := o.Get(h2)
	require.True(t, ok)
	require.EqualValues(t, 2, *v2)
}

// Scenario 3: chunk growth.
func TestChunkGrowth(t *testing.T) {
	o := New[uint64](Config{TargetChunkBytes: 16, MaxElements: 32}) // elementsPerChunk = 2

	var handles []Handle
	for i := uint64(0); i < 5; i++ {
		handles = append(handles, o.MakeValue(i))
	}
	for i, h := range handles {
		v, ok := o.Get(h)
		require.True(t, ok)
		require.EqualValues(t, i, *v)
	}
	require.EqualValues(t, 3, o.arena.ChunkCount())
	require.EqualValues(t, 6, o.arena.Capacity())
}

// Scenario 4: capacity limit.
func TestCapacityLimit(t *testing.T) {
	o := New[uint64](Config{TargetChunkBytes: 16, MaxElements: 4}) // elementsPerChunk = 2, chunkLimit = 3

	var handles []Handle
	for i := 0; i < 6; i++ {
		h := o.MakeValue(uint64(i))
		require.False(t, h.IsNull())
		handles = append(handles, h)
	}

	seventh := o.MakeValue(99)
	require.True(t, seventh.IsNull())

	for i, h := range handles {
		v, ok := o.Get(h)
		require.True(t, ok)
		require.EqualValues(t, i, *v)
	}
}

// Scenario 5: allocate then initialize.
func TestAllocateThenInitialize(t *testing.T) {
	o := New[int](Config{})

	h := o.Allocate()
	require.True(t, o.Owns(h))
	_, ok := o.Get(h)
	require.False(t, ok, "get before initialize must fail")

	require.True(t, o.InitializeValue(h, 99))
	v, ok := o.Get(h)
	require.True(t, ok)
	require.EqualValues(t, 99, *v)

	require.False(t, o.InitializeValue(h, 100), "double-initialize must fail")
	v, ok = o.Get(h)
	require.True(t, ok)
	require.EqualValues(t, 99, *v, "payload must be unchanged by the failed re-initialize")
}

func TestFreeOfUninitializedHandleFails(t *testing.T) {
	o := New[int](Config{})
	h := o.Allocate()
	o.Free(h)
	require.True(t, o.Owns(h), "failed free must leave the slot allocated")
}

func TestFreeOfStaleOrNullHandle(t *testing.T) {
	o := New[int](Config{})
	h := o.MakeValue(1)
	o.Free(h)

	o.Free(h) // double free: stale, must be a no-op
	require.EqualValues(t, 0, o.Count())

	o.Free(NullHandle) // must not panic
}

func TestGetOwnsOutOfRangeHandle(t *testing.T) {
	o := New[int](Config{})
	bogus := newHandle(1, 9999)
	_, ok := o.Get(bogus)
	require.False(t, ok)
	require.False(t, o.Owns(bogus))
}

func TestEnumerateIncludesUninitializedAndMatchesCount(t *testing.T) {
	o := New[int](Config{TargetChunkBytes: 8, MaxElements: 64})
	live := o.MakeValue(1)
	uninit := o.Allocate()

	handles := o.Enumerate()
	require.Len(t, handles, 2)
	require.ElementsMatch(t, []Handle{live, uninit}, handles)
	for _, h := range handles {
		require.True(t, o.Owns(h))
	}

	// Count only reflects "occupied", same definition Enumerate uses.
	require.EqualValues(t, len(handles), o.Count())
}

func TestFillBufferMatchesEnumerate(t *testing.T) {
	o := New[int](Config{})
	for i := 0; i < 5; i++ {
		o.MakeValue(i)
	}

	enumerated := o.Enumerate()
	buf := make([]Handle, len(enumerated))
	n := o.FillBuffer(buf)
	require.Equal(t, len(enumerated), n)
	if diff := cmp.Diff(enumerated, buf); diff != "" {
		t.Fatalf("FillBuffer diverged from Enumerate (-enumerate +buffer):\n%s", diff)
	}
}

func TestFillBufferStopsAtCapacity(t *testing.T) {
	o := New[int](Config{})
	for i := 0; i < 5; i++ {
		o.MakeValue(i)
	}
	buf := make([]Handle, 2)
	n := o.FillBuffer(buf)
	require.Equal(t, 2, n)
}

func TestMakeDefaultZeroValue(t *testing.T) {
	o := New[string](Config{})
	h := o.Make()
	v, ok := o.Get(h)
	require.True(t, ok)
	require.Equal(t, "", *v)
}

func TestSetDescriptionIsInert(t *testing.T) {
	o := New[int](Config{})
	o.SetDescription("sprites")
	h := o.MakeValue(1)
	v, ok := o.Get(h)
	require.True(t, ok)
	require.EqualValues(t, 1, *v)
}

func TestHandleAcrossTwoOwnersDoesNotAlias(t *testing.T) {
	a := New[int](Config{})
	b := New[int](Config{})

	ha := a.MakeValue(1)
	hb := b.MakeValue(2)

	require.True(t, a.Owns(ha))
	require.False(t, a.Owns(hb))
	require.True(t, b.Owns(hb))
	require.False(t, b.Owns(ha))
}
