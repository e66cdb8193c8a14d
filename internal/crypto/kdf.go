package crypto

import (
	"crypto/rand"
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize          = 16
	KeySize           = 32
	DefaultIterations = 200_000
)

// KDFParams travels with the vault record so the same key can be re-derived
// after the defaults change.
type KDFParams struct {
	Salt       []byte `json:"salt"`
	Iterations int    `json:"iterations"`
	Hash       string `json:"hash"`
}

func NewKDFParams() KDFParams {
	salt := make([]byte, SaltSize)
	_, _ = rand.Read(salt)
	return KDFParams{Salt: salt, Iterations: DefaultIterations, Hash: "SHA-256"}
}

// DeriveMEK stretches a passphrase into the 256-bit master encryption key
// using PBKDF2-HMAC-SHA256.
func DeriveMEK(passphrase []byte, p KDFParams) []byte {
	iters := p.Iterations
	if iters <= 0 {
		iters = DefaultIterations
	}
	return pbkdf2.Key(passphrase, p.Salt, iters, KeySize, sha256.New)
}
