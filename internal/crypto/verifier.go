package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"io"

	"golang.org/x/crypto/hkdf"
)

const verifierConstant = "verify"

// VerifierTag computes the passphrase-check MAC stored next to the KDF
// parameters. The MAC key is expanded from the MEK with HKDF-SHA256 (fixed
// info, no salt) so the tag is deterministic for a given key while keeping
// the AEAD key and the MAC key in distinct usage domains.
func VerifierTag(mek []byte) []byte {
	macKey := make([]byte, KeySize)
	stream := hkdf.New(sha256.New, mek, nil, []byte("credvault/verifier/v1"))
	if _, err := io.ReadFull(stream, macKey); err != nil {
		panic("crypto: hkdf expand failed: " + err.Error())
	}
	defer Zero(macKey)

	mac := hmac.New(sha256.New, macKey)
	mac.Write([]byte(verifierConstant))
	return mac.Sum(nil)
}

// VerifierEqual compares two tags without short-circuiting.
func VerifierEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
