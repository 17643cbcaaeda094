// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package owner

// PtrOwner is the pointer-valued specialization: a trivial wrapper over an
// Owner of *T that adds Replace, overwriting the stored pointer for a live
// slot without touching its validator.
type PtrOwner[T any] struct {
	inner *Owner[*T]
}

// NewPtr constructs a PtrOwner with the given configuration.
func NewPtr[T any](cfg Config) *PtrOwner[T] {
	return &PtrOwner[T]{inner: New[*T](cfg)}
}

// Make allocates and initializes a new slot holding ptr.
func (p *PtrOwner[T]) Make(ptr *T) Handle { return p.inner.MakeValue(ptr) }

// Allocate reserves a slot without initializing it.
func (p *PtrOwner[T]) Allocate() Handle { return p.inner.Allocate() }

// Initialize initializes a previously allocated slot with ptr.
func (p *PtrOwner[T]) Initialize(h Handle, ptr *T) bool { return p.inner.InitializeValue(h, ptr) }

// Get returns the stored pointer, or nil and false if h is not live.
func (p *PtrOwner[T]) Get(h Handle) (*T, bool) {
	pp, ok := p.inner.Get(h)
	if !ok {
		return nil, false
	}
	return *pp, true
}

// Owns reports whether h refers to an occupied slot in this PtrOwner.
func (p *PtrOwner[T]) Owns(h Handle) bool { return p.inner.Owns(h) }

// Free destroys h's slot.
func (p *PtrOwner[T]) Free(h Handle) { p.inner.Free(h) }

// Count returns the number of occupied slots.
func (p *PtrOwner[T]) Count() uint32 { return p.inner.Count() }

// Enumerate returns every occupied handle in ascending slot-index order.
func (p *PtrOwner[T]) Enumerate() []Handle { return p.inner.Enumerate() }

// SetDescription sets the diagnostic tag.
func (p *PtrOwner[T]) SetDescription(text string) { p.inner.SetDescription(text) }

// Replace overwrites the stored pointer for a live slot without touching
// its validator. It fails if handle is not live.
func (p *PtrOwner[T]) Replace(handle Handle, ptr *T) bool {
	p.inner.mu.Lock()
	defer p.inner.mu.Unlock()

	if handle.IsNull() {
		return false
	}
	slot := p.inner.arena.Slot(handle.index())
	if slot == nil {
		return false
	}
	if slot.Validator != handle.validator() {
		return false
	}
	slot.Payload = ptr
	return true
}
