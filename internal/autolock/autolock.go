// Package autolock owns the inactivity timer that locks a vault session.
// The timer is a host-side concern: the engine only reports activity, the
// timer decides when to fire Lock.
package autolock

import (
	"sync"
	"time"
)

// AfterFunc mirrors time.AfterFunc's shape and is swappable in tests.
type AfterFunc func(d time.Duration, f func()) CancelFunc

type CancelFunc func() bool

// Timer schedules a single pending lock callback. Reset replaces the pending
// callback under one lock acquisition, so a firing race cannot lock out a
// session that was active moments before.
type Timer struct {
	mu      sync.Mutex
	after   AfterFunc
	fire    func()
	pending CancelFunc
	gen     uint64
}

func New(fire func()) *Timer {
	return NewWithAfter(fire, func(d time.Duration, f func()) CancelFunc {
		return time.AfterFunc(d, f).Stop
	})
}

func NewWithAfter(fire func(), after AfterFunc) *Timer {
	return &Timer{after: after, fire: fire}
}

// Reset arms (or re-arms) the timer for d from now.
func (t *Timer) Reset(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending != nil {
		t.pending()
	}
	t.gen++
	gen := t.gen
	t.pending = t.after(d, func() {
		t.mu.Lock()
		live := gen == t.gen
		if live {
			t.pending = nil
		}
		t.mu.Unlock()
		// A stale callback lost the race against a Reset; drop it.
		if live {
			t.fire()
		}
	})
}

// Stop cancels any pending fire. Safe to call when nothing is armed.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending != nil {
		t.pending()
		t.pending = nil
	}
	t.gen++
}
