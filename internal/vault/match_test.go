package vault

import (
	"context"
	"testing"
)

func TestRegistrableDomain(t *testing.T) {
	cases := map[string]string{
		"example.com":                    "example.com",
		"www.example.com":                "example.com",
		"accounts.example.com":           "example.com",
		"https://accounts.example.com/x": "example.com",
		"Example.COM":                    "example.com",
		"example.com:8443":               "example.com",
		"example.com.":                   "example.com",
		"deep.sub.example.co.uk":         "example.co.uk",
		"localhost":                      "localhost",
	}
	for in, want := range cases {
		if got := registrableDomain(in); got != want {
			t.Errorf("registrableDomain(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMatchSubdomain(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)
	_ = e.SetMaster(ctx, "Secret123!")
	_, _ = e.AddLogin(ctx, LoginInput{Domain: "example.com", Title: "Ex", Username: "alice", Password: "p1"})
	_, _ = e.AddLogin(ctx, LoginInput{Domain: "other.net", Title: "O", Username: "bob", Password: "p2"})

	got, err := e.Match(ctx, "www.example.com")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 match, got %d", len(got))
	}
	if got[0].Username != "alice" || got[0].Domain != "example.com" {
		t.Fatalf("unexpected match %+v", got[0])
	}
}

func TestMatchEmptyResult(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)
	_ = e.SetMaster(ctx, "Secret123!")
	got, err := e.Match(ctx, "nothing.example.org")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
}

// An undecryptable item is silently excluded; the match still succeeds.
func TestMatchSkipsCorruptItem(t *testing.T) {
	ctx := context.Background()
	e, st := newTestEngine(t)
	_ = e.SetMaster(ctx, "Secret123!")
	_, _ = e.AddLogin(ctx, LoginInput{Domain: "example.com", Username: "alice", Password: "p1"})
	_, _ = e.AddLogin(ctx, LoginInput{Domain: "example.com", Username: "carol", Password: "p3"})

	corruptOneItem(t, st)
	// Force a re-read of the corrupted record.
	e.sess.vault = nil

	got, err := e.Match(ctx, "example.com")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(got) != 1 || got[0].Username != "alice" {
		t.Fatalf("expected only the intact item, got %+v", got)
	}
}

func TestCheckNewLogin(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)
	_ = e.SetMaster(ctx, "Secret123!")
	_, _ = e.AddLogin(ctx, LoginInput{Domain: "example.com", Username: "alice", Password: "p1"})

	check, err := e.CheckNewLogin(ctx, "example.com", "alice", "p1")
	if err != nil || check.Status != StatusUnchanged {
		t.Fatalf("unchanged: %v %+v", err, check)
	}

	check, err = e.CheckNewLogin(ctx, "example.com", "alice", "p2")
	if err != nil || check.Status != StatusUpdate {
		t.Fatalf("update: %v %+v", err, check)
	}
	if check.ID == "" {
		t.Fatal("update classification missing item id")
	}

	check, err = e.CheckNewLogin(ctx, "example.com", "bob", "p1")
	if err != nil || check.Status != StatusNew {
		t.Fatalf("different username: %v %+v", err, check)
	}

	check, err = e.CheckNewLogin(ctx, "unknown.org", "alice", "p1")
	if err != nil || check.Status != StatusNew {
		t.Fatalf("unknown domain: %v %+v", err, check)
	}

	// Subdomain of a stored registrable domain still matches.
	check, err = e.CheckNewLogin(ctx, "login.example.com", "alice", "p1")
	if err != nil || check.Status != StatusUnchanged {
		t.Fatalf("subdomain: %v %+v", err, check)
	}
}

func TestCheckNewLoginLocked(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)
	_ = e.SetMaster(ctx, "Secret123!")
	e.Lock()
	check, err := e.CheckNewLogin(ctx, "example.com", "alice", "p1")
	if err != nil || check.Status != StatusNew {
		t.Fatalf("locked session should classify NEW, got %v %+v", err, check)
	}
}

func TestCheckNewLoginCorruptItem(t *testing.T) {
	ctx := context.Background()
	e, st := newTestEngine(t)
	_ = e.SetMaster(ctx, "Secret123!")
	_, _ = e.AddLogin(ctx, LoginInput{Domain: "example.com", Username: "alice", Password: "p1"})

	corruptOneItem(t, st)
	e.sess.vault = nil

	check, err := e.CheckNewLogin(ctx, "example.com", "alice", "p1")
	if err != nil || check.Status != StatusNew {
		t.Fatalf("undecryptable item should classify NEW, got %v %+v", err, check)
	}
}
