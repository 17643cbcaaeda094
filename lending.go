// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package owner

import "modernc.org/owner/rawmem"

// Borrow registers that handle, owned by other, can also be resolved
// through o without transferring ownership: subsequent Get/Owns calls on o
// for handle delegate to other, and other.Free(handle) tears the
// registration down on both sides.
//
// Borrow fails (reporting a diagnostic and leaving both Owners' lending
// maps unchanged) if o and other are the same Owner, if other does not own
// handle, or if o is already borrowing handle.
func (o *Owner[T]) Borrow(other *Owner[T], handle Handle) bool {
	if o == other {
		rawmem.SoftError("owner%s: cannot borrow a handle from itself", o.descTag())
		return false
	}
	if !other.Owns(handle) {
		rawmem.SoftError("owner%s: cannot borrow handle %d not owned by the lender", o.descTag(), handle.ID())
		return false
	}

	o.mu.Lock()
	if _, already := o.borrowed[handle]; already {
		o.mu.Unlock()
		rawmem.SoftError("owner%s: already borrowing handle %d", o.descTag(), handle.ID())
		return false
	}
	o.borrowed[handle] = other
	o.mu.Unlock()

	// other's mutex is acquired only after o's has been released, so at
	// most one Owner's lock is ever held at a time.
	other.mu.Lock()
	other.lent[handle] = o
	other.mu.Unlock()

	return true
}
