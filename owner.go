// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package owner

import (
	"sync"

	"modernc.org/owner/idsource"
	"modernc.org/owner/internal/slab"
	"modernc.org/owner/rawmem"
)

// DefaultTargetChunkBytes is the chunk size target used when
// Config.TargetChunkBytes is left at zero.
const DefaultTargetChunkBytes = 65536

// DefaultMaxElements is the element cap used when Config.MaxElements is
// left at zero.
const DefaultMaxElements = 262144

// Config configures an Owner at construction. Every field is fixed for the
// Owner's lifetime; there is no way to change it after New.
type Config struct {
	// TargetChunkBytes bounds how many bytes each chunk aims to occupy;
	// it is overridden to 1 element per chunk if a single T exceeds it.
	// Zero means DefaultTargetChunkBytes.
	TargetChunkBytes uint32

	// MaxElements sets the Owner's chunk limit to
	// ⌈MaxElements / elementsPerChunk⌉ + 1 chunks, so the Owner can grow
	// to one chunk's worth of slots beyond MaxElements rounded up to a
	// whole chunk. Zero means DefaultMaxElements.
	MaxElements uint32

	// ThreadSafe serializes every public operation behind a single
	// mutex and pre-sizes the outer chunk vectors to the computed chunk
	// limit up front, so readers of the chunk vector never race with
	// its growth. When false, the Owner is not safe for concurrent use
	// by any two operations, and the outer vectors instead grow one
	// chunk at a time.
	ThreadSafe bool

	// Description is an optional human-readable tag surfaced in the
	// Owner's diagnostics (capacity errors, invalid-handle errors). It is
	// purely informational. An Owner has no destruction step, so no
	// leaked-allocation report is ever made.
	Description string
}

func (c Config) withDefaults() Config {
	if c.TargetChunkBytes == 0 {
		c.TargetChunkBytes = DefaultTargetChunkBytes
	}
	if c.MaxElements == 0 {
		c.MaxElements = DefaultMaxElements
	}
	return c
}

// locker is the synchronization strategy an Owner is parameterized by:
// either a real mutex (ThreadSafe) or a zero-overhead no-op, chosen once
// at construction rather than via a build tag or an inheritance
// relationship between Owners.
type locker interface {
	Lock()
	Unlock()
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// Owner is the allocator façade: a typed slab of T, addressed by Handle,
// with O(1) acquire/release and generation-checked lookups. The zero value
// is not usable; construct one with New.
type Owner[T any] struct {
	mu          locker
	arena       *slab.Arena[T]
	description string

	// borrowed maps a Handle minted by some other Owner to that Owner,
	// so this Owner's Get/Owns can delegate to it. lent is the reverse
	// map: a Handle this Owner minted that some other Owner is now
	// resolving on our behalf. See lending.go.
	borrowed map[Handle]*Owner[T]
	lent     map[Handle]*Owner[T]
}

// New constructs an Owner for payload type T with the given configuration.
func New[T any](cfg Config) *Owner[T] {
	cfg = cfg.withDefaults()

	var mu locker
	if cfg.ThreadSafe {
		mu = &sync.Mutex{}
	} else {
		mu = noopLocker{}
	}

	return &Owner[T]{
		mu:          mu,
		arena:       slab.NewForType[T](cfg.TargetChunkBytes, cfg.MaxElements, cfg.ThreadSafe),
		description: cfg.Description,
		borrowed:    make(map[Handle]*Owner[T]),
		lent:        make(map[Handle]*Owner[T]),
	}
}

func (o *Owner[T]) descTag() string {
	if o.description == "" {
		return ""
	}
	return " '" + o.description + "'"
}

// mintEpoch draws the next validator epoch from the process-wide ID
// source, masked to 31 bits. A masked value of 0x7FFFFFFF means the
// source has been exhausted across this process's lifetime, which is
// fatal: there is no way to hand out a distinguishable validator beyond
// that point.
func mintEpoch() uint32 {
	e := uint32(idsource.Next() & uint64(slab.ValidatorMask))
	if e == slab.ValidatorMask {
		rawmem.Fatal("owner: validator epoch overflow")
	}
	return e
}

// acquire reserves a slot and marks it allocated-but-uninitialized. The
// caller must hold o.mu.
func (o *Owner[T]) acquire() (Handle, bool) {
	epoch := mintEpoch()
	index, ok := o.arena.Acquire(epoch)
	if !ok {
		rawmem.SoftError("owner%s: element limit reached", o.descTag())
		return NullHandle, false
	}
	return newHandle(epoch, index), true
}

// Allocate reserves a slot but does not construct a payload in it. The
// returned Handle is valid for exactly one subsequent Initialize call and
// for Owns, but Get returns false until Initialize succeeds.
func (o *Owner[T]) Allocate() Handle {
	o.mu.Lock()
	defer o.mu.Unlock()
	h, _ := o.acquire()
	return h
}

// initializeLocked transitions h's slot from allocated-uninitialized to
// live and returns a pointer to its payload storage for the caller to
// populate. The caller must hold o.mu.
func (o *Owner[T]) initializeLocked(h Handle) (*T, bool) {
	if h.IsNull() {
		return nil, false
	}
	slot := o.arena.Slot(h.index())
	if slot == nil {
		return nil, false
	}
	if slot.Validator&slab.UninitBit == 0 {
		rawmem.SoftError("owner%s: double-initialize of handle %d", o.descTag(), h.ID())
		return nil, false
	}
	if slot.Validator&slab.ValidatorMask != h.validator() {
		rawmem.SoftError("owner%s: initialize of stale handle %d", o.descTag(), h.ID())
		return nil, false
	}
	slot.Validator &^= slab.UninitBit
	return &slot.Payload, true
}

// Initialize transitions an allocated-but-uninitialized handle to live,
// constructing the payload as its zero value.
func (o *Owner[T]) Initialize(h Handle) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.initializeLocked(h)
	if !ok {
		return false
	}
	var zero T
	*p = zero
	return true
}

// InitializeValue transitions an allocated-but-uninitialized handle to
// live, constructing the payload as a copy of value.
func (o *Owner[T]) InitializeValue(h Handle, value T) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.initializeLocked(h)
	if !ok {
		return false
	}
	*p = value
	return true
}

// Make allocates and default-initializes a new slot in one step.
func (o *Owner[T]) Make() Handle {
	o.mu.Lock()
	defer o.mu.Unlock()
	h, ok := o.acquire()
	if !ok {
		return NullHandle
	}
	p, _ := o.initializeLocked(h)
	var zero T
	*p = zero
	return h
}

// MakeValue allocates a new slot and initializes it with value in one
// step.
func (o *Owner[T]) MakeValue(value T) Handle {
	o.mu.Lock()
	defer o.mu.Unlock()
	h, ok := o.acquire()
	if !ok {
		return NullHandle
	}
	p, _ := o.initializeLocked(h)
	*p = value
	return h
}

// Get resolves h to a pointer to its payload. It returns (nil, false) for
// the null handle, an out-of-range or stale handle, or an
// allocated-but-uninitialized one (the latter also reports a diagnostic,
// since it signals a use-before-initialize bug at the call site). If h was
// registered via Borrow, resolution is delegated entirely to the foreign
// Owner that actually owns it.
func (o *Owner[T]) Get(h Handle) (*T, bool) {
	if h.IsNull() {
		return nil, false
	}

	o.mu.Lock()
	if lender, ok := o.borrowed[h]; ok {
		o.mu.Unlock()
		return lender.Get(h)
	}
	defer o.mu.Unlock()

	slot := o.arena.Slot(h.index())
	if slot == nil {
		return nil, false
	}

	want := h.validator()
	if slot.Validator == want {
		return &slot.Payload, true
	}
	if slot.Validator != slab.Sentinel && slot.Validator&slab.UninitBit != 0 &&
		slot.Validator&slab.ValidatorMask == want {
		rawmem.SoftError("owner%s: use of uninitialized handle %d", o.descTag(), h.ID())
	}
	return nil, false
}

// Owns reports whether h currently refers to an occupied slot in this
// Owner (live or allocated-but-uninitialized), resolving through Borrow
// registrations the same way Get does.
func (o *Owner[T]) Owns(h Handle) bool {
	if h.IsNull() {
		return false
	}

	o.mu.Lock()
	if lender, ok := o.borrowed[h]; ok {
		o.mu.Unlock()
		return lender.Owns(h)
	}
	defer o.mu.Unlock()

	slot := o.arena.Slot(h.index())
	if slot == nil {
		return false
	}
	return slot.Validator != slab.Sentinel && slot.Validator&slab.ValidatorMask == h.validator()
}

// Free destroys h's payload, invalidates its slot, and returns the slot to
// the freelist. Freeing the null handle is a silent no-op. Freeing an
// out-of-range handle, a stale handle, or an allocated-but-uninitialized
// handle reports a diagnostic and leaves the Owner's state unchanged. Freeing a borrowed handle
// through the borrower is not supported; Free only ever operates on this
// Owner's own slots.
func (o *Owner[T]) Free(h Handle) {
	if h.IsNull() {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	slot := o.arena.Slot(h.index())
	if slot == nil {
		rawmem.SoftError("owner%s: free of out-of-range handle %d", o.descTag(), h.ID())
		return
	}
	if slot.Validator&slab.UninitBit != 0 {
		rawmem.SoftError("owner%s: free of uninitialized or invalid handle %d", o.descTag(), h.ID())
		return
	}
	if slot.Validator != h.validator() {
		rawmem.SoftError("owner%s: free of stale handle %d", o.descTag(), h.ID())
		return
	}

	if borrower, ok := o.lent[h]; ok {
		delete(o.lent, h)
		// Erased directly on the borrower without acquiring its mutex:
		// the lending maps are guarded independently by each Owner, a
		// known asymmetry rather than an oversight (see DESIGN.md).
		delete(borrower.borrowed, h)
	}

	o.arena.Release(h.index())
}

// Count returns the number of slots currently live or
// allocated-but-uninitialized.
func (o *Owner[T]) Count() uint32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.arena.LiveCount()
}

// Enumerate returns every handle whose slot is occupied (including
// allocated-but-uninitialized ones), in ascending slot-index order.
func (o *Owner[T]) Enumerate() []Handle {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Handle, 0, o.arena.LiveCount())
	o.arena.Each(func(index, validator uint32) bool {
		out = append(out, newHandle(validator, index))
		return true
	})
	return out
}

// FillBuffer writes every occupied handle (including
// allocated-but-uninitialized ones), in ascending slot-index order, into
// buf and returns how many were written. The caller must ensure
// len(buf) >= Count(); FillBuffer stops once buf is full.
func (o *Owner[T]) FillBuffer(buf []Handle) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	o.arena.Each(func(index, validator uint32) bool {
		if n >= len(buf) {
			return false
		}
		buf[n] = newHandle(validator, index)
		n++
		return true
	})
	return n
}

// SetDescription sets the human-readable diagnostic tag. Purely
// informational.
func (o *Owner[T]) SetDescription(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.description = text
}
