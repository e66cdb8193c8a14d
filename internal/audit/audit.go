// Package audit keeps a hash-chained, in-memory trail of vault operations.
// Entries never contain secrets: operation name, an optional item id, and
// the chain hash. The chain makes after-the-fact tampering with the trail
// detectable, not the vault itself.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"
)

type Entry struct {
	TS     int64  `json:"ts"`
	Op     string `json:"op"`
	Detail string `json:"detail,omitempty"`
	Hash   string `json:"hash"`
}

var ErrChainBroken = errors.New("audit: chain broken")

// Trail is safe for concurrent use and drops its oldest entries past the
// configured limit (the chain head moves with them, so Verify only covers
// retained entries).
type Trail struct {
	mu       sync.Mutex
	limit    int
	lastHash []byte
	entries  []Entry
}

func NewTrail(limit int) *Trail {
	if limit <= 0 {
		limit = 1024
	}
	return &Trail{limit: limit}
}

func (t *Trail) Record(op, detail string) Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := sha256.New()
	h.Write(t.lastHash)
	h.Write([]byte(op))
	h.Write([]byte{0})
	h.Write([]byte(detail))
	sum := h.Sum(nil)
	t.lastHash = sum

	e := Entry{TS: time.Now().Unix(), Op: op, Detail: detail, Hash: hex.EncodeToString(sum)}
	t.entries = append(t.entries, e)
	if len(t.entries) > t.limit {
		t.entries = t.entries[len(t.entries)-t.limit:]
	}
	return e
}

// Verify recomputes the chain over the retained entries.
func (t *Trail) Verify() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var prev []byte
	for i, e := range t.entries {
		h := sha256.New()
		if i == 0 {
			// The head entry chains from whatever preceded the retained
			// window; trust its stored hash as the anchor.
			prev, _ = hex.DecodeString(e.Hash)
			continue
		}
		h.Write(prev)
		h.Write([]byte(e.Op))
		h.Write([]byte{0})
		h.Write([]byte(e.Detail))
		sum := h.Sum(nil)
		if hex.EncodeToString(sum) != e.Hash {
			return ErrChainBroken
		}
		prev = sum
	}
	return nil
}

func (t *Trail) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Entry(nil), t.entries...)
}
