//go:build linux || darwin

package crypto

import "golang.org/x/sys/unix"

// LockMemory pins key material so it cannot be swapped to disk. Best effort:
// callers ignore the error when the platform or rlimit refuses.
func LockMemory(b []byte) error   { return unix.Mlock(b) }
func UnlockMemory(b []byte) error { return unix.Munlock(b) }
