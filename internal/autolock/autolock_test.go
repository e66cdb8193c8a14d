package autolock

import (
	"testing"
	"time"
)

// fakeAfter collects scheduled callbacks so tests fire them by hand.
type fakeAfter struct {
	scheduled []func()
	cancelled []bool
}

func (f *fakeAfter) after(_ time.Duration, fn func()) CancelFunc {
	idx := len(f.scheduled)
	f.scheduled = append(f.scheduled, fn)
	f.cancelled = append(f.cancelled, false)
	return func() bool {
		was := f.cancelled[idx]
		f.cancelled[idx] = true
		return !was
	}
}

func TestTimerFires(t *testing.T) {
	fired := 0
	fa := &fakeAfter{}
	tm := NewWithAfter(func() { fired++ }, fa.after)

	tm.Reset(5 * time.Minute)
	if len(fa.scheduled) != 1 {
		t.Fatalf("expected 1 scheduled callback, got %d", len(fa.scheduled))
	}
	fa.scheduled[0]()
	if fired != 1 {
		t.Fatalf("expected fire once, got %d", fired)
	}
}

func TestResetSupersedesPending(t *testing.T) {
	fired := 0
	fa := &fakeAfter{}
	tm := NewWithAfter(func() { fired++ }, fa.after)

	tm.Reset(time.Minute)
	tm.Reset(time.Minute)
	if !fa.cancelled[0] {
		t.Fatal("first callback not cancelled by reset")
	}
	// Even if the first callback sneaks through the cancel race it must not
	// fire the lock.
	fa.scheduled[0]()
	if fired != 0 {
		t.Fatal("stale callback fired lock")
	}
	fa.scheduled[1]()
	if fired != 1 {
		t.Fatalf("expected exactly one fire, got %d", fired)
	}
}

func TestStopCancels(t *testing.T) {
	fired := 0
	fa := &fakeAfter{}
	tm := NewWithAfter(func() { fired++ }, fa.after)

	tm.Stop() // nothing armed

	tm.Reset(time.Minute)
	tm.Stop()
	fa.scheduled[0]()
	if fired != 0 {
		t.Fatal("callback fired after Stop")
	}
}
