package vault

import "time"

// Record is the persisted vault document: KDF parameters, the passphrase
// verifier, and the encrypted login items. Stored under the "vault" key.
type Record struct {
	KDF      KDFInfo     `json:"kdf"`
	Verifier string      `json:"verifier"` // base64 MAC over the verify constant
	Items    []LoginItem `json:"items"`
}

type KDFInfo struct {
	Salt       string `json:"salt"` // base64, 16 bytes
	Iterations int    `json:"iter"`
	Hash       string `json:"hash"`
}

// LoginItem keeps title and domain in the clear so matching works without
// decryption; only the credential pair is sealed.
type LoginItem struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Domain     string    `json:"domain"`
	IV         string    `json:"iv"`
	Ciphertext string    `json:"ciphertext"`
	DateAdded  time.Time `json:"dateAdded"`
}

// NoteItem lives in its own persisted collection under the "notes" key.
type NoteItem struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	IV         string `json:"iv"`
	Ciphertext string `json:"ciphertext"`
}

// loginSecret is the plaintext behind a LoginItem ciphertext.
type loginSecret struct {
	U string `json:"u"`
	P string `json:"p"`
}

// noteBody is the plaintext behind a NoteItem ciphertext.
type noteBody struct {
	Content string `json:"content"`
}

// LoginInput is the caller-supplied shape for AddLogin.
type LoginInput struct {
	Domain   string `json:"domain"`
	Title    string `json:"title"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// ItemPatch updates a login item. The credential pair is re-encrypted only
// when both halves are supplied; title and domain merge verbatim.
type ItemPatch struct {
	Title    *string `json:"title,omitempty"`
	Domain   *string `json:"domain,omitempty"`
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
}

// LoginSummary is the list/match shape: never carries the password.
type LoginSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Domain   string `json:"domain"`
	Username string `json:"username"`
}

// Credentials is the result of explicitly decrypting one login item.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type NoteSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type NoteContent struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// LoginStatus classifies a submitted credential against the stored vault.
type LoginStatus string

const (
	StatusNew       LoginStatus = "NEW"
	StatusUnchanged LoginStatus = "UNCHANGED"
	StatusUpdate    LoginStatus = "UPDATE"
)

// LoginCheck carries the three-way classification; ID is set only for
// StatusUpdate so the caller can fetch and patch the matching item.
type LoginCheck struct {
	Status LoginStatus `json:"msg"`
	ID     string      `json:"id,omitempty"`
}

const (
	DefaultTimeoutMinutes = 5
	defaultAutofill       = true
)
