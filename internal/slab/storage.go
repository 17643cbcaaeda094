// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package slab implements the chunked, growable, address-stable storage
// and the parallel freelist that back an owner.Owner. It knows nothing
// about handles or validators beyond the single 32-bit validator word
// every slot carries; the generation/validator state machine lives here
// because growth, acquisition and release all have to agree on it
// atomically, but encoding/decoding a 64-bit Handle from a validator and
// an index is the owner package's job.
//
// A chunk, once allocated, is never reallocated or moved: its backing Go
// array is the "stable address" the design calls for. Only the outer
// vector of chunk slices grows, exactly as described for the owner's
// chunked storage and its parallel freelist.
package slab

import (
	"unsafe"

	"modernc.org/mathutil"
	"modernc.org/owner/rawmem"
)

// Sentinel marks a slot that has never been occupied, or has been freed;
// its payload is garbage.
const Sentinel uint32 = 0xFFFFFFFF

// UninitBit, set on an otherwise-valid validator, marks a slot that has
// been reserved but not yet constructed.
const UninitBit uint32 = 0x80000000

// ValidatorMask isolates the 31-bit epoch from the uninit bit.
const ValidatorMask uint32 = 0x7FFFFFFF

// Slot is a single fixed-address cell inside a chunk.
type Slot[T any] struct {
	Payload   T
	Validator uint32
}

// Arena is the chunked storage plus its parallel freelist for one Owner.
type Arena[T any] struct {
	chunks     [][]Slot[T]
	freeChunks [][]uint32

	elementsPerChunk uint32
	chunkLimit       uint32
	preSize          bool

	liveCount uint32
	capacity  uint32

	// outerBytes is the rawmem-accounted size of each outer chunk vector
	// (chunks and freeChunks grow in lockstep, so one tally covers both).
	// Only used in the append-growth path; a pre-sized Arena accounts its
	// outer vectors once, at construction, and never reallocates them.
	outerBytes int
}

// outerPointerBytes is the accounting unit for one more chunk pointer
// appended to an outer vector, matching the design's single-threaded
// growth path of "grow by exactly one pointer via realloc_raw".
const outerPointerBytes = int(unsafe.Sizeof(uintptr(0)))

// New builds an empty Arena. elementsPerChunk and chunkLimit are fixed for
// the Arena's lifetime, exactly as the design's configuration is fixed at
// Owner construction. preSize pre-allocates the outer chunk vectors to
// chunkLimit up front (the thread-safe mode's growth strategy, which
// avoids ever reallocating the outer vector so a reader observing a chunk
// pointer never races with its reallocation); when preSize is false the
// outer vectors grow one element at a time via append, mirroring the
// single-threaded path's realloc-per-chunk behavior. This asymmetry is
// intentional, not an oversight: see the design notes on outer-array
// growth under thread-safety.
func New[T any](elementsPerChunk, chunkLimit uint32, preSize bool) *Arena[T] {
	if elementsPerChunk == 0 {
		elementsPerChunk = 1
	}
	a := &Arena[T]{
		elementsPerChunk: elementsPerChunk,
		chunkLimit:       chunkLimit,
		preSize:          preSize,
	}
	if preSize {
		a.chunks = make([][]Slot[T], chunkLimit)
		a.freeChunks = make([][]uint32, chunkLimit)
	}
	return a
}

// ElementsPerChunk returns the fixed per-chunk element count.
func (a *Arena[T]) ElementsPerChunk() uint32 { return a.elementsPerChunk }

// ChunkLimit returns the fixed maximum chunk count.
func (a *Arena[T]) ChunkLimit() uint32 { return a.chunkLimit }

// ChunkCount returns the number of chunks actually allocated so far.
func (a *Arena[T]) ChunkCount() uint32 { return a.capacity / a.elementsPerChunk }

// Capacity returns the number of slots backed by allocated chunks.
func (a *Arena[T]) Capacity() uint32 { return a.capacity }

// LiveCount returns the number of slots currently allocated (live or
// allocated-but-uninitialized).
func (a *Arena[T]) LiveCount() uint32 { return a.liveCount }

func (a *Arena[T]) chunkSizeBytes() int {
	var zero T
	return int(unsafe.Sizeof(zero)) * int(a.elementsPerChunk)
}

// grow adds one more chunk of slots and one more chunk of freelist entries.
// It reports false, leaving the Arena unchanged, if doing so would exceed
// chunkLimit.
func (a *Arena[T]) grow() bool {
	chunkCount := a.ChunkCount()
	if chunkCount == a.chunkLimit {
		return false
	}

	// Raw-byte accounting only: the actual storage is the Go slice
	// allocated just below, which is what gives us address stability
	// without unsafe pointer bookkeeping. Chunks are never released
	// until the Owner itself is, so this is recorded as a permanent live
	// allocation rather than paired with an immediate free.
	rawmem.AllocRaw(a.chunkSizeBytes())

	slots := make([]Slot[T], a.elementsPerChunk)
	free := make([]uint32, a.elementsPerChunk)
	for i := range slots {
		slots[i].Validator = Sentinel
		free[i] = a.capacity + uint32(i)
	}

	if a.preSize {
		a.chunks[chunkCount] = slots
		a.freeChunks[chunkCount] = free
	} else {
		a.reallocOuterVectors()
		a.chunks = append(a.chunks, slots)
		a.freeChunks = append(a.freeChunks, free)
	}

	a.capacity += a.elementsPerChunk
	return true
}

// reallocOuterVectors records, for rawmem accounting purposes, that the
// two outer chunk vectors (slots and freelist) have each grown by one
// pointer-sized entry. The actual growth happens through append just
// below; this keeps the single-threaded "grow by one pointer via
// realloc_raw" outer-vector path reflected in live/peak byte accounting
// the same way the chunk bodies themselves are.
func (a *Arena[T]) reallocOuterVectors() {
	oldBytes := a.outerBytes
	newBytes := oldBytes + outerPointerBytes
	rawmem.ReallocRaw(nil, oldBytes, newBytes) // chunks vector
	rawmem.ReallocRaw(nil, oldBytes, newBytes) // freeChunks vector
	a.outerBytes = newBytes
}

func (a *Arena[T]) freeEntry(pos uint32) uint32 {
	c, e := pos/a.elementsPerChunk, pos%a.elementsPerChunk
	return a.freeChunks[c][e]
}

func (a *Arena[T]) setFreeEntry(pos, value uint32) {
	c, e := pos/a.elementsPerChunk, pos%a.elementsPerChunk
	a.freeChunks[c][e] = value
}

// Slot returns a pointer to the slot at index, or nil if index is out of
// the currently allocated range. The returned pointer is stable for the
// Arena's lifetime.
func (a *Arena[T]) Slot(index uint32) *Slot[T] {
	if index >= a.capacity {
		return nil
	}
	c, e := index/a.elementsPerChunk, index%a.elementsPerChunk
	return &a.chunks[c][e]
}

// Acquire reserves a slot, growing storage if needed, and marks it
// allocated-but-uninitialized with the given epoch. It reports the
// reserved slot index and true, or false if the Arena is at capacity and
// growth failed (chunk limit reached).
func (a *Arena[T]) Acquire(epoch uint32) (index uint32, ok bool) {
	if a.liveCount == a.capacity {
		if !a.grow() {
			return 0, false
		}
	}

	raw := a.freeEntry(a.liveCount)
	slot := a.Slot(raw)
	slot.Validator = epoch | UninitBit
	a.liveCount++
	return raw, true
}

// Release destructs the slot's payload (by zeroing it), invalidates its
// validator, decrements LiveCount and returns the index to the freelist in
// LIFO order. The caller must have already verified the slot is occupied.
func (a *Arena[T]) Release(index uint32) {
	slot := a.Slot(index)
	var zero T
	slot.Payload = zero
	slot.Validator = Sentinel

	a.liveCount--
	a.setFreeEntry(a.liveCount, index)
}

// Each calls fn with the index and validator of every occupied slot
// (including allocated-but-uninitialized ones), in ascending index order,
// stopping early if fn returns false.
func (a *Arena[T]) Each(fn func(index uint32, validator uint32) bool) {
	for i := uint32(0); i < a.capacity; i++ {
		v := a.Slot(i).Validator
		if v == Sentinel {
			continue
		}
		if !fn(i, v) {
			return
		}
	}
}

// ElementsPerChunkFor computes the fixed per-chunk element count for a
// payload of the given size, following the design's formula exactly:
// elementsPerChunk = sizeof(T) > targetChunkBytes ? 1 : targetChunkBytes / sizeof(T).
func ElementsPerChunkFor(elemSize, targetChunkBytes int) uint32 {
	elemSize = mathutil.Max(elemSize, 1)
	if elemSize > targetChunkBytes {
		return 1
	}
	return uint32(mathutil.Max(targetChunkBytes/elemSize, 1))
}

// ChunkLimitFor computes ⌈maxElements / elementsPerChunk⌉ + 1, the fixed
// maximum chunk count, following the design's formula exactly.
func ChunkLimitFor(maxElements, elementsPerChunk uint32) uint32 {
	elementsPerChunk = uint32(mathutil.Max(int(elementsPerChunk), 1))
	return (maxElements+elementsPerChunk-1)/elementsPerChunk + 1
}

// NewForType builds an Arena[T] sized from targetChunkBytes and
// maxElements the same way an Owner's configuration does, keeping the
// unsafe.Sizeof(T) computation contained to this package.
func NewForType[T any](targetChunkBytes, maxElements uint32, preSize bool) *Arena[T] {
	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	epc := ElementsPerChunkFor(elemSize, int(targetChunkBytes))
	limit := ChunkLimitFor(maxElements, epc)
	return New[T](epc, limit, preSize)
}
