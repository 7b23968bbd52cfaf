//go:build linux
// +build linux

package device

import "golang.org/x/sys/unix"

// LockMemory pins the process's memory so a page fault can never
// delay key-event handling between a physical press and its emitted
// output — the same realtime-responsiveness concern as scheduling
// priority, applied to paging instead.
func LockMemory() error {
	return unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE)
}
