package store

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
)

func testRoundTrip(t *testing.T, s KVStore) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Set(ctx, KeyVault, []byte(`{"items":[]}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(ctx, KeyVault)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(got, []byte(`{"items":[]}`)) {
		t.Fatalf("unexpected value: %q", got)
	}
	if err := s.Set(ctx, KeyVault, []byte("v2")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err = s.Get(ctx, KeyVault)
	if err != nil || !bytes.Equal(got, []byte("v2")) {
		t.Fatalf("overwrite readback: %q %v", got, err)
	}
	if err := s.Delete(ctx, KeyVault); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, KeyVault); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	testRoundTrip(t, NewMemoryStore())
}

func TestBoltStore(t *testing.T) {
	s, err := OpenBolt(filepath.Join(t.TempDir(), "vault.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	testRoundTrip(t, s)
}

func TestMemoryStoreCopiesValue(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	v := []byte("secret")
	if err := s.Set(ctx, "k", v); err != nil {
		t.Fatal(err)
	}
	v[0] = 'X'
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "secret" {
		t.Fatalf("store aliased caller buffer: %q", got)
	}
}
