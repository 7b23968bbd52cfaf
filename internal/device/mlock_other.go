//go:build !linux
// +build !linux

package device

// LockMemory is a no-op outside Linux; uinput/evdev are Linux-only
// anyway, but this keeps the package buildable for tooling that cross
// compiles it as a dependency.
func LockMemory() error { return nil }
