// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rawmem

import (
	"encoding/binary"
	"unsafe"
)

// backOffsetSize is the width, in bytes, of the recorded back-offset that
// AllocAligned stores immediately before the returned block.
const backOffsetSize = 4

// sizeHeaderSize is the width, in bytes, of the recorded total-raw-length
// header AllocAligned stores at the very start of the raw block. The design
// calls this the "padded variant" used for mem_usage accounting and says it
// is forced on in debug builds; this package has no separate release mode,
// so it is unconditionally on.
const sizeHeaderSize = 8

// AllocAligned returns a block of n bytes whose start address is aligned to
// a (a power of two). It over-allocates a-1+backOffsetSize bytes beyond a
// leading size header, records the distance from the start of the raw
// block to the returned pointer in the backOffsetSize bytes immediately
// preceding it, and uses that recorded offset (plus the leading size
// header) to recover and free the whole raw block in FreeAligned.
func AllocAligned(n int, a int) []byte {
	if a <= 0 || a&(a-1) != 0 {
		Fatal("rawmem: alignment %d is not a power of two", a)
	}

	total := sizeHeaderSize + n + a - 1 + backOffsetSize
	raw := AllocRaw(total)
	binary.LittleEndian.PutUint64(raw[:sizeHeaderSize], uint64(total))

	base := uintptr(unsafe.Pointer(&raw[0]))
	want := (base + sizeHeaderSize + backOffsetSize + uintptr(a) - 1) &^ (uintptr(a) - 1)
	off := int(want - base)

	binary.LittleEndian.PutUint32(raw[off-backOffsetSize:off], uint32(off))
	return raw[off : off+n : off+n]
}

// ReallocAligned resizes an aligned block, preserving min(oldSize, newSize)
// leading bytes, freeing the old block.
func ReallocAligned(p []byte, oldSize, newSize int, a int) []byte {
	n := AllocAligned(newSize, a)
	copy(n, p)
	FreeAligned(p)
	return n
}

// FreeAligned releases a block previously returned by AllocAligned or
// ReallocAligned.
func FreeAligned(p []byte) {
	if p == nil {
		return
	}
	ptr := unsafe.Pointer(&p[0])
	offBytes := unsafe.Slice((*byte)(unsafe.Add(ptr, -backOffsetSize)), backOffsetSize)
	off := int(binary.LittleEndian.Uint32(offBytes))

	base := unsafe.Add(ptr, -off)
	sizeBytes := unsafe.Slice((*byte)(base), sizeHeaderSize)
	total := int(binary.LittleEndian.Uint64(sizeBytes))

	raw := unsafe.Slice((*byte)(base), total)
	FreeRaw(raw)
}
