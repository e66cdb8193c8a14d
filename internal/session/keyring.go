package session

import (
	"encoding/base64"

	"github.com/zalando/go-keyring"
)

const keyringService = "credvault"

// KeyringHolder stores the session key in the OS keyring so short-lived
// processes (the CLI) can share one unlocked session. The keyring entry is a
// session artifact, not durable vault data: Lock removes it.
type KeyringHolder struct {
	account string
}

func NewKeyringHolder(account string) *KeyringHolder {
	if account == "" {
		account = "default"
	}
	return &KeyringHolder{account: account}
}

func (h *KeyringHolder) SetKey(key []byte) error {
	return keyring.Set(keyringService, h.account, base64.StdEncoding.EncodeToString(key))
}

func (h *KeyringHolder) Key() ([]byte, bool) {
	b64, err := keyring.Get(keyringService, h.account)
	if err != nil {
		return nil, false
	}
	key, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, false
	}
	return key, true
}

func (h *KeyringHolder) ClearKey() {
	_ = keyring.Delete(keyringService, h.account)
}
