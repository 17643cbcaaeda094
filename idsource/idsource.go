// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package idsource provides the monotonic 64-bit counter owner.Owner uses
// to mint fresh per-slot validators. There is exactly one counter shared by
// every Owner of every element type, not a counter per Owner: Owners hold
// no class relationship to each other, so the sharing happens through a
// free-standing atomic rather than a common base type.
package idsource

import "sync/atomic"

// Source is a monotonic, atomic counter. The zero value is ready to use
// and starts at 0; Next's first return is 1, matching the "never yields
// zero" contract.
type Source struct {
	n atomic.Uint64
}

// Next returns the next value in the sequence. It is safe to call Next
// concurrently from any number of goroutines; it never returns 0.
func (s *Source) Next() uint64 {
	return s.n.Add(1)
}

// process is the single counter shared by every Owner in this process,
// exactly as the design's "ID source" component describes.
var process Source

// Next returns the next process-wide value.
func Next() uint64 {
	return process.Next()
}
