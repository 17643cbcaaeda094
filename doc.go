// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package owner implements a typed slab allocator with generational
// handles.
//
// Client subsystems hold opaque 64-bit Handle values instead of raw
// pointers. An Owner maps each Handle to a stably addressed storage slot
// and guarantees that a stale Handle can never be mistaken for a live one,
// even after the slot has been reused for something else.
//
// # Basic usage
//
//	o := owner.New[Sprite](owner.Config{})
//	h := o.MakeValue(Sprite{X: 1, Y: 2})
//	if s, ok := o.Get(h); ok {
//	    s.X++
//	}
//	o.Free(h)
//
// # Concurrency
//
// An Owner constructed with Config.ThreadSafe serializes every public
// operation behind a single internal mutex. An Owner constructed without
// it is not safe for concurrent use by any two operations; pick whichever
// matches the call site, there is no way to change it after New.
//
// # Lending
//
// Two Owners of the same element type may share handles: Borrow registers
// that a Handle minted by one Owner should also resolve through another,
// without transferring ownership. See (*Owner[T]).Borrow.
package owner
