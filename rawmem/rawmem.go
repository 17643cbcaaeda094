// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rawmem is the process-wide raw memory facade the owner package's
// chunked storage builds on. It stands in for the "process-wide byte
// allocator" collaborator described in the design: allocate/reallocate/free
// untyped byte blocks, aligned variants, and live/peak usage accounting.
//
// Go has no free-standing malloc/free; AllocRaw and friends hand back
// ordinary byte slices and exist so the accounting and fatal/soft-error
// behavior called for by the design lives in one place instead of being
// duplicated at every call site.
package rawmem

import (
	"fmt"
	"os"
	"sync/atomic"
)

// Stats is a snapshot of process-wide allocation accounting.
type Stats struct {
	LiveBytes int64
	MaxBytes  int64
	LiveAllocs int64
}

var (
	liveBytes  atomic.Int64
	maxBytes   atomic.Int64
	liveAllocs atomic.Int64
)

// CurrentStats returns the current live/peak accounting.
func CurrentStats() Stats {
	return Stats{
		LiveBytes:  liveBytes.Load(),
		MaxBytes:   maxBytes.Load(),
		LiveAllocs: liveAllocs.Load(),
	}
}

func recordAlloc(n int) {
	nb := liveBytes.Add(int64(n))
	liveAllocs.Add(1)
	bumpPeak(nb)
}

func bumpPeak(nb int64) {
	for {
		cur := maxBytes.Load()
		if nb <= cur {
			return
		}
		if maxBytes.CompareAndSwap(cur, nb) {
			return
		}
	}
}

func recordFree(n int) {
	liveBytes.Add(-int64(n))
	liveAllocs.Add(-1)
}

// AllocRaw returns a freshly zeroed block of n bytes. It never returns a
// partially initialized buffer.
func AllocRaw(n int) []byte {
	if n < 0 {
		Fatal("rawmem: negative allocation size %d", n)
	}
	b := make([]byte, n)
	recordAlloc(n)
	return b
}

// ReallocRaw resizes p, which must have been obtained from AllocRaw or
// ReallocRaw with the given oldSize, to newSize, preserving the leading
// min(oldSize, newSize) bytes.
func ReallocRaw(p []byte, oldSize, newSize int) []byte {
	if newSize < 0 {
		Fatal("rawmem: negative reallocation size %d", newSize)
	}
	b := make([]byte, newSize)
	copy(b, p)
	recordAlloc(newSize)
	recordFree(oldSize)
	return b
}

// FreeRaw releases a block previously returned by AllocRaw/ReallocRaw.
func FreeRaw(p []byte) {
	recordFree(len(p))
}

// ErrorSink receives soft-error diagnostics. The default sink writes one
// line to os.Stderr, matching the plain fmt-based diagnostics used
// throughout this package's ancestry instead of a logging framework.
type ErrorSink func(msg string)

var sink atomic.Value // ErrorSink

func init() {
	sink.Store(ErrorSink(func(msg string) { fmt.Fprintln(os.Stderr, msg) }))
}

// SetErrorSink overrides where SoftError diagnostics go. Passing nil
// restores the default stderr sink.
func SetErrorSink(s ErrorSink) {
	if s == nil {
		s = func(msg string) { fmt.Fprintln(os.Stderr, msg) }
	}
	sink.Store(s)
}

// SoftError reports a recoverable diagnostic; the caller is responsible for
// choosing and returning the appropriate sentinel value.
func SoftError(format string, args ...any) {
	sink.Load().(ErrorSink)(fmt.Sprintf(format, args...))
}

// FatalError is the panic value used by Fatal.
type FatalError struct {
	Msg string
}

func (e *FatalError) Error() string { return e.Msg }

// Fatal reports an unrecoverable condition. There is no process-wide
// crash-reporting facility to hand off to here, so Fatal panics with a
// *FatalError; callers that need to observe this in a test can recover it.
func Fatal(format string, args ...any) {
	panic(&FatalError{Msg: fmt.Sprintf(format, args...)})
}
