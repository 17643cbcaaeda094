// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package owner

import "modernc.org/owner/internal/slab"

// Handle is an opaque 64-bit identifier an Owner hands out in exchange for
// a slot. The low 32 bits are the slot index; the high 32 bits are the
// validator epoch that identified the specific occupant of that slot at
// the time the Handle was minted. The zero Handle is the distinguished
// null Handle and is never valid.
type Handle uint64

// NullHandle is the distinguished zero-value Handle. It never refers to a
// slot and every Owner operation treats it as "absent" rather than failing.
const NullHandle Handle = 0

// IsNull reports whether h is the null Handle.
func (h Handle) IsNull() bool { return h == NullHandle }

// ID returns h's raw 64-bit value. It has no meaning beyond equality and
// is never persisted or interpreted across process boundaries.
func (h Handle) ID() uint64 { return uint64(h) }

func (h Handle) index() uint32 { return uint32(h) }

// validator returns the bare 31-bit epoch this Handle was minted with
// (its top bit is always 0; the uninitialized-slot flag lives only on the
// slot's own validator word, never on the Handle).
func (h Handle) validator() uint32 { return uint32(h>>32) & slab.ValidatorMask }

func newHandle(validator, index uint32) Handle {
	return Handle(uint64(validator&slab.ValidatorMask)<<32 | uint64(index))
}
