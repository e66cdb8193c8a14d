package vault

import (
	"context"

	"github.com/google/uuid"

	cr "credvault/internal/crypto"
)

// AddNote seals the content under the session MEK and appends to the note
// collection. Title stays plaintext, like a login item's.
func (e *Engine) AddNote(ctx context.Context, title, content string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	mek, err := e.unlockedKey(ctx)
	if err != nil {
		return "", err
	}
	defer cr.Zero(mek)

	iv, ct, err := cr.Encrypt(mek, noteBody{Content: content})
	if err != nil {
		return "", err
	}
	note := NoteItem{ID: uuid.NewString(), Title: title, IV: iv, Ciphertext: ct}
	e.sess.notes = append(e.sess.notes, note)
	if err := e.saveNotes(ctx, e.sess.notes); err != nil {
		return "", err
	}
	e.record("add_note", note.ID)
	e.bumpActivity(ctx)
	return note.ID, nil
}

// Note decrypts one note by id.
func (e *Engine) Note(ctx context.Context, id string) (NoteContent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	mek, err := e.unlockedKey(ctx)
	if err != nil {
		return NoteContent{}, err
	}
	defer cr.Zero(mek)

	for _, n := range e.sess.notes {
		if n.ID == id {
			var body noteBody
			if err := cr.Decrypt(mek, n.IV, n.Ciphertext, &body); err != nil {
				return NoteContent{}, err
			}
			return NoteContent{ID: n.ID, Title: n.Title, Content: body.Content}, nil
		}
	}
	return NoteContent{}, ErrNotFound
}

// SetNote replaces a note's title and content; the content is re-encrypted
// with a fresh IV.
func (e *Engine) SetNote(ctx context.Context, id, title, content string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	mek, err := e.unlockedKey(ctx)
	if err != nil {
		return err
	}
	defer cr.Zero(mek)

	idx := -1
	for i, n := range e.sess.notes {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrNotFound
	}
	iv, ct, err := cr.Encrypt(mek, noteBody{Content: content})
	if err != nil {
		return err
	}
	e.sess.notes[idx].Title = title
	e.sess.notes[idx].IV = iv
	e.sess.notes[idx].Ciphertext = ct
	if err := e.saveNotes(ctx, e.sess.notes); err != nil {
		return err
	}
	e.record("set_note", id)
	e.bumpActivity(ctx)
	return nil
}

// DeleteNote removes a note by id; unknown ids report ErrNotFound with the
// collection unchanged.
func (e *Engine) DeleteNote(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	mek, err := e.unlockedKey(ctx)
	if err != nil {
		return err
	}
	cr.Zero(mek)

	notes := e.sess.notes
	kept := notes[:0:0]
	for _, n := range notes {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	if len(kept) == len(notes) {
		return ErrNotFound
	}
	e.sess.notes = kept
	if err := e.saveNotes(ctx, e.sess.notes); err != nil {
		return err
	}
	e.record("delete_note", id)
	e.bumpActivity(ctx)
	return nil
}

// Notes lists id and title only; content stays sealed until Note is called.
func (e *Engine) Notes(ctx context.Context) ([]NoteSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	mek, err := e.unlockedKey(ctx)
	if err != nil {
		return nil, err
	}
	cr.Zero(mek)

	out := make([]NoteSummary, 0, len(e.sess.notes))
	for _, n := range e.sess.notes {
		out = append(out, NoteSummary{ID: n.ID, Title: n.Title})
	}
	return out, nil
}
