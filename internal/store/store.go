package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("store: key not found")

// Well-known keys the vault engine reads and writes.
const (
	KeyVault    = "vault"
	KeyNotes    = "notes"
	KeyAutofill = "autofillSetting"
	KeyTimeout  = "timeoutLock"
)

// KVStore is the opaque byte store backing a vault. The engine never assumes
// anything about the medium beyond get/set/delete by string key.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
