package vault

import (
	"credvault/internal/session"
)

// Session is the volatile half of a vault: the master key (held behind a
// session.KeyHolder, never the durable store) plus still-encrypted caches of
// the record and the notes. One Session per logical vault-open; the host that
// builds the engine owns its lifecycle.
type Session struct {
	keys  session.KeyHolder
	vault *Record
	notes []NoteItem
}

func NewSession(keys session.KeyHolder) *Session {
	if keys == nil {
		keys = session.NewMemoryKeyHolder()
	}
	return &Session{keys: keys}
}

// Unlocked reports whether the holder currently has a key.
func (s *Session) Unlocked() bool {
	_, ok := s.keys.Key()
	return ok
}

// key returns a copy of the MEK. Callers zero it when done.
func (s *Session) key() ([]byte, bool) {
	return s.keys.Key()
}

func (s *Session) populate(mek []byte, rec *Record, notes []NoteItem) error {
	if err := s.keys.SetKey(mek); err != nil {
		return err
	}
	s.vault = rec
	s.notes = notes
	return nil
}

// clear drops everything; the session is LOCKED afterwards no matter what
// state it was in.
func (s *Session) clear() {
	s.keys.ClearKey()
	s.vault = nil
	s.notes = nil
}
