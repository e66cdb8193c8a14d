package vault

import (
	"context"
	"time"

	"github.com/google/uuid"

	cr "credvault/internal/crypto"
)

// AddLogin seals the credential pair under the session MEK with a fresh IV,
// assigns a random id and the current timestamp, and persists the record.
func (e *Engine) AddLogin(ctx context.Context, in LoginInput) (time.Time, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	mek, err := e.unlockedKey(ctx)
	if err != nil {
		return time.Time{}, err
	}
	defer cr.Zero(mek)

	iv, ct, err := cr.Encrypt(mek, loginSecret{U: in.Username, P: in.Password})
	if err != nil {
		return time.Time{}, err
	}
	item := LoginItem{
		ID:         uuid.NewString(),
		Title:      in.Title,
		Domain:     in.Domain,
		IV:         iv,
		Ciphertext: ct,
		DateAdded:  e.now(),
	}
	e.sess.vault.Items = append(e.sess.vault.Items, item)
	if err := e.saveRecord(ctx, e.sess.vault); err != nil {
		return time.Time{}, err
	}
	e.record("add_login", item.ID)
	e.bumpActivity(ctx)
	return item.DateAdded, nil
}

// Item returns the cached, still-encrypted record. Decryption is a separate
// explicit step (DecryptLogin) so plaintext exposure stays localized.
func (e *Engine) Item(ctx context.Context, id string) (LoginItem, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	mek, err := e.unlockedKey(ctx)
	if err != nil {
		return LoginItem{}, err
	}
	cr.Zero(mek)

	for _, it := range e.sess.vault.Items {
		if it.ID == id {
			return it, nil
		}
	}
	return LoginItem{}, ErrNotFound
}

// DecryptLogin opens one item's credential pair under the session MEK.
func (e *Engine) DecryptLogin(ctx context.Context, item LoginItem) (Credentials, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	mek, err := e.unlockedKey(ctx)
	if err != nil {
		return Credentials{}, err
	}
	defer cr.Zero(mek)

	var sec loginSecret
	if err := cr.Decrypt(mek, item.IV, item.Ciphertext, &sec); err != nil {
		return Credentials{}, err
	}
	return Credentials{Username: sec.U, Password: sec.P}, nil
}

// SetItem patches an item in place. When both username and password are
// supplied the pair is re-encrypted with a fresh IV before title and domain
// merge verbatim.
func (e *Engine) SetItem(ctx context.Context, id string, patch ItemPatch) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	mek, err := e.unlockedKey(ctx)
	if err != nil {
		return err
	}
	defer cr.Zero(mek)

	idx := -1
	for i, it := range e.sess.vault.Items {
		if it.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrNotFound
	}

	item := e.sess.vault.Items[idx]
	if patch.Username != nil && patch.Password != nil {
		iv, ct, err := cr.Encrypt(mek, loginSecret{U: *patch.Username, P: *patch.Password})
		if err != nil {
			return err
		}
		item.IV, item.Ciphertext = iv, ct
	}
	if patch.Title != nil {
		item.Title = *patch.Title
	}
	if patch.Domain != nil {
		item.Domain = *patch.Domain
	}
	e.sess.vault.Items[idx] = item
	if err := e.saveRecord(ctx, e.sess.vault); err != nil {
		return err
	}
	e.record("set_item", id)
	e.bumpActivity(ctx)
	return nil
}

// DeleteItem removes an item by id; an unknown id leaves the vault unchanged
// and reports ErrNotFound.
func (e *Engine) DeleteItem(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	mek, err := e.unlockedKey(ctx)
	if err != nil {
		return err
	}
	cr.Zero(mek)

	items := e.sess.vault.Items
	kept := items[:0:0]
	for _, it := range items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(items) {
		return ErrNotFound
	}
	e.sess.vault.Items = kept
	if err := e.saveRecord(ctx, e.sess.vault); err != nil {
		return err
	}
	e.record("delete_item", id)
	e.bumpActivity(ctx)
	return nil
}

// Logins lists every item with its username decrypted, never the password.
// Items that fail to decrypt are excluded rather than failing the listing.
func (e *Engine) Logins(ctx context.Context) ([]LoginSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	mek, err := e.unlockedKey(ctx)
	if err != nil {
		return nil, err
	}
	defer cr.Zero(mek)

	out := make([]LoginSummary, 0, len(e.sess.vault.Items))
	for _, it := range e.sess.vault.Items {
		var sec loginSecret
		if err := cr.Decrypt(mek, it.IV, it.Ciphertext, &sec); err != nil {
			continue
		}
		out = append(out, LoginSummary{ID: it.ID, Title: it.Title, Domain: it.Domain, Username: sec.U})
	}
	return out, nil
}
