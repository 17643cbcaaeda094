// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package owner

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPtrOwnerRoundTrip(t *testing.T) {
	type widget struct{ n int }
	p := NewPtr[widget](Config{})

	w := &widget{n: 1}
	h := p.Make(w)

	got, ok := p.Get(h)
	require.True(t, ok)
	require.Same(t, w, got)

	w2 := &widget{n: 2}
	require.True(t, p.Replace(h, w2))
	got, ok = p.Get(h)
	require.True(t, ok)
	require.Same(t, w2, got)

	p.Free(h)
	_, ok = p.Get(h)
	require.False(t, ok)
}

func TestPtrOwnerReplaceFailsWhenNotLive(t *testing.T) {
	type widget struct{ n int }
	p := NewPtr[widget](Config{})

	h := p.Allocate()
	require.False(t, p.Replace(h, &widget{n: 1}), "replace before initialize must fail")

	p.Free(NullHandle) // must not panic
	require.False(t, p.Replace(NullHandle, &widget{n: 1}))
}
