package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
)

const NonceSize = 12

// ErrAuthFailed covers every decryption failure: bad encoding, truncation,
// tag mismatch, wrong key. Callers must not be able to tell these apart.
var ErrAuthFailed = errors.New("crypto: authentication failed")

// Encrypt JSON-encodes v and seals it with AES-256-GCM under a fresh random
// 96-bit nonce. Nonce and ciphertext come back independently base64-encoded,
// matching the stored item layout.
func Encrypt(key []byte, v any) (ivB64, ctB64 string, err error) {
	if len(key) != KeySize {
		return "", "", errors.New("crypto: bad key size")
	}
	pt, err := json.Marshal(v)
	if err != nil {
		return "", "", err
	}
	defer Zero(pt)

	aead, err := newGCM(key)
	if err != nil {
		return "", "", err
	}
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", "", err
	}
	ct := aead.Seal(nil, nonce, pt, nil)
	return base64.StdEncoding.EncodeToString(nonce),
		base64.StdEncoding.EncodeToString(ct), nil
}

// Decrypt reverses Encrypt into out. Any failure is reported as ErrAuthFailed.
func Decrypt(key []byte, ivB64, ctB64 string, out any) error {
	if len(key) != KeySize {
		return ErrAuthFailed
	}
	nonce, err := base64.StdEncoding.DecodeString(ivB64)
	if err != nil || len(nonce) != NonceSize {
		return ErrAuthFailed
	}
	ct, err := base64.StdEncoding.DecodeString(ctB64)
	if err != nil {
		return ErrAuthFailed
	}
	aead, err := newGCM(key)
	if err != nil {
		return ErrAuthFailed
	}
	pt, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return ErrAuthFailed
	}
	defer Zero(pt)
	if err := json.Unmarshal(pt, out); err != nil {
		return ErrAuthFailed
	}
	return nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
