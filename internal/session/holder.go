// Package session holds the master encryption key for the lifetime of an
// unlocked vault. Holders are the only place the raw key lives outside the
// engine's stack frames; none of them write to the vault's durable store.
package session

import (
	cr "credvault/internal/crypto"
)

// KeyHolder is the session-scoped capability from the engine's point of view:
// set, get, clear. A holder's scope ends with the process (MemoryKeyHolder)
// or with an explicit clear (KeyringHolder).
type KeyHolder interface {
	SetKey(key []byte) error
	Key() ([]byte, bool)
	ClearKey()
}

// MemoryKeyHolder keeps the key in a locked heap buffer.
type MemoryKeyHolder struct {
	key []byte
}

func NewMemoryKeyHolder() *MemoryKeyHolder { return &MemoryKeyHolder{} }

func (h *MemoryKeyHolder) SetKey(key []byte) error {
	h.ClearKey()
	h.key = append([]byte(nil), key...)
	_ = cr.LockMemory(h.key) // best effort
	return nil
}

func (h *MemoryKeyHolder) Key() ([]byte, bool) {
	if h.key == nil {
		return nil, false
	}
	return append([]byte(nil), h.key...), true
}

func (h *MemoryKeyHolder) ClearKey() {
	if h.key == nil {
		return
	}
	cr.Zero(h.key)
	_ = cr.UnlockMemory(h.key)
	h.key = nil
}
