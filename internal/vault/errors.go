package vault

import "errors"

var (
	ErrLocked          = errors.New("vault: not unlocked")
	ErrNotFound        = errors.New("vault: item not found")
	ErrNoVault         = errors.New("vault: no vault")
	ErrVaultExists     = errors.New("vault: vault already exists")
	ErrOldMaster       = errors.New("vault: old master incorrect")
	ErrSameMaster      = errors.New("vault: new master must be different from old master")
	ErrTooManyAttempts = errors.New("vault: too many unlock attempts")

	// ErrRotationAborted means an item or note failed to decrypt under the
	// old key during a master-password change; nothing was persisted.
	ErrRotationAborted = errors.New("vault: rotation aborted before any write")
)
