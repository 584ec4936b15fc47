// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import "strconv"

// Handle is the platform-native integer identifying an OS socket.
//
// The zero value is the unowned sentinel.
type Handle uintptr

// String returns the decimal representation of the handle.
func (h Handle) String() string {
	return strconv.FormatUint(uint64(h), 10)
}

// noCopy may be embedded in structs that must not be copied after first use.
//
// See https://golang.org/issues/8005#issuecomment-190753527. The go vet
// copylocks checker flags copies of any struct embedding it.
type noCopy struct{}

// Lock is a no-op used by go vet's copylocks checker.
func (*noCopy) Lock() {}

// Unlock is a no-op used by go vet's copylocks checker.
func (*noCopy) Unlock() {}

// handleOwner is the exclusive owner of at most one [Handle].
type handleOwner struct {
	_ noCopy
	h Handle
}

// valid returns whether the owner currently holds a live handle.
func (o *handleOwner) valid() bool {
	return o.h != 0
}

// take transfers the handle out of the owner, leaving it unowned.
func (o *handleOwner) take() Handle {
	h := o.h
	o.h = 0
	return h
}

// release closes the owned handle, if any, and reports what was closed.
//
// Calling release on an unowned owner is a no-op returning (0, nil).
func (o *handleOwner) release() (Handle, error) {
	h := o.take()
	if h == 0 {
		return 0, nil
	}
	return h, sysClose(h)
}
