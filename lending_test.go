// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package owner

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Scenario 6: cross-owner lending.
func TestBorrowRoundTrip(t *testing.T) {
	a := New[int](Config{})
	b := New[int](Config{})

	h := a.MakeValue(7)
	require.True(t, b.Borrow(a, h))

	require.True(t, a.Owns(h))
	require.True(t, b.Owns(h))

	v, ok := b.Get(h)
	require.True(t, ok)
	require.EqualValues(t, 7, *v)

	a.Free(h)

	require.False(t, a.Owns(h))
	require.False(t, b.Owns(h))
	_, borrowing := b.borrowed[h]
	require.False(t, borrowing, "borrower's borrowed map must be cleared on free")
}

func TestBorrowFromSelfFails(t *testing.T) {
	a := New[int](Config{})
	h := a.MakeValue(1)
	require.False(t, a.Borrow(a, h))
}

func TestBorrowNonOwnedHandleFails(t *testing.T) {
	a := New[int](Config{})
	b := New[int](Config{})
	c := New[int](Config{})

	h := a.MakeValue(1)
	require.False(t, c.Borrow(b, h), "b does not own h")
}

func TestDuplicateBorrowFails(t *testing.T) {
	a := New[int](Config{})
	b := New[int](Config{})

	h := a.MakeValue(1)
	require.True(t, b.Borrow(a, h))
	require.False(t, b.Borrow(a, h), "b is already borrowing h")
}

func TestFreeBorrowedHandleViaLenderOnlyClearsBothMaps(t *testing.T) {
	a := New[int](Config{})
	b := New[int](Config{})
	c := New[int](Config{})

	h := a.MakeValue(1)
	require.True(t, b.Borrow(a, h))
	require.True(t, c.Borrow(a, h))

	a.Free(h)

	require.False(t, b.Owns(h))
	require.False(t, c.Owns(h))
	require.Empty(t, b.borrowed)
	require.Empty(t, c.borrowed)
	require.Empty(t, a.lent)
}
