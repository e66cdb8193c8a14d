// Package vault implements the secret-storage engine: a single encrypted
// vault of login and note records protected by one master passphrase, with
// unlock/lock sessions, CRUD, domain matching, and full re-encryption on
// passphrase rotation.
package vault

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"credvault/internal/audit"
	cr "credvault/internal/crypto"
	"credvault/internal/store"
)

// Scheduler is the host-owned inactivity timer. The engine resets it after
// every successful mutating operation and stops it on explicit Lock; the
// host wires its fire callback back to Lock.
type Scheduler interface {
	Reset(d time.Duration)
	Stop()
}

type Engine struct {
	mu    sync.Mutex
	store store.KVStore
	sess  *Session

	sched          Scheduler
	limiter        *rate.Limiter
	allowOverwrite bool
	now            func() time.Time
	trail          *audit.Trail
}

type Option func(*Engine)

// WithScheduler attaches the auto-lock timer.
func WithScheduler(s Scheduler) Option { return func(e *Engine) { e.sched = s } }

// WithUnlockLimit throttles unlock attempts. Off by default.
func WithUnlockLimit(l *rate.Limiter) Option { return func(e *Engine) { e.limiter = l } }

// WithOverwrite lets SetMaster replace an existing vault. Without it a second
// SetMaster fails with ErrVaultExists.
func WithOverwrite() Option { return func(e *Engine) { e.allowOverwrite = true } }

// WithClock injects the timestamp source for tests.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithAudit records operation names into a hash-chained trail.
func WithAudit(t *audit.Trail) Option { return func(e *Engine) { e.trail = t } }

func New(st store.KVStore, sess *Session, opts ...Option) *Engine {
	if sess == nil {
		sess = NewSession(nil)
	}
	e := &Engine{store: st, sess: sess, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// SetMaster creates a fresh vault: random salt, derived MEK, verifier, empty
// item and note collections, default settings. The session comes back
// populated (UNLOCKED).
func (e *Engine) SetMaster(ctx context.Context, passphrase string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.allowOverwrite {
		if _, err := e.store.Get(ctx, store.KeyVault); err == nil {
			return ErrVaultExists
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}

	params := cr.NewKDFParams()
	mek := cr.DeriveMEK([]byte(passphrase), params)
	defer cr.Zero(mek)

	rec := &Record{
		KDF: KDFInfo{
			Salt:       base64.StdEncoding.EncodeToString(params.Salt),
			Iterations: params.Iterations,
			Hash:       params.Hash,
		},
		Verifier: base64.StdEncoding.EncodeToString(cr.VerifierTag(mek)),
		Items:    []LoginItem{},
	}

	if err := e.saveRecord(ctx, rec); err != nil {
		return err
	}
	if err := e.saveNotes(ctx, []NoteItem{}); err != nil {
		return err
	}
	if err := e.setBool(ctx, store.KeyAutofill, defaultAutofill); err != nil {
		return err
	}
	if err := e.setInt(ctx, store.KeyTimeout, DefaultTimeoutMinutes); err != nil {
		return err
	}

	if err := e.sess.populate(mek, rec, []NoteItem{}); err != nil {
		return err
	}
	e.record("set_master", "")
	e.bumpActivity(ctx)
	return nil
}

// Unlock re-derives a candidate key from the stored KDF parameters and admits
// the session only when its verifier matches the stored one, compared in
// constant time. A missing vault and a wrong passphrase are indistinguishable
// to the caller.
func (e *Engine) Unlock(ctx context.Context, passphrase string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.limiter != nil && !e.limiter.Allow() {
		return ErrTooManyAttempts
	}

	rec, err := e.loadRecord(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return cr.ErrAuthFailed
		}
		return err
	}

	salt, err := base64.StdEncoding.DecodeString(rec.KDF.Salt)
	if err != nil {
		return cr.ErrAuthFailed
	}
	stored, err := base64.StdEncoding.DecodeString(rec.Verifier)
	if err != nil {
		return cr.ErrAuthFailed
	}

	candidate := cr.DeriveMEK([]byte(passphrase), cr.KDFParams{
		Salt:       salt,
		Iterations: rec.KDF.Iterations,
		Hash:       rec.KDF.Hash,
	})
	defer cr.Zero(candidate)

	if !cr.VerifierEqual(cr.VerifierTag(candidate), stored) {
		return cr.ErrAuthFailed
	}

	notes, err := e.loadNotes(ctx)
	if err != nil {
		return err
	}
	if err := e.sess.populate(candidate, rec, notes); err != nil {
		return err
	}
	e.record("unlock", "")
	e.bumpActivity(ctx)
	return nil
}

// Lock clears the session unconditionally and cancels the auto-lock timer.
// It never fails, whatever state the session was in.
func (e *Engine) Lock() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sched != nil {
		e.sched.Stop()
	}
	e.sess.clear()
	e.record("lock", "")
}

// Locked reports the session state: true when no MEK is held.
func (e *Engine) Locked() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.sess.Unlocked()
}

// ChangeMasterPassword rotates the vault to a new passphrase: every login and
// note is decrypted under the old key into memory first, so a single failure
// aborts before anything is written. On success the new salt, verifier, and
// re-encrypted collections are persisted and the session swaps to the new key.
func (e *Engine) ChangeMasterPassword(ctx context.Context, oldPass, newPass string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.loadRecord(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNoVault
		}
		return err
	}
	salt, err := base64.StdEncoding.DecodeString(rec.KDF.Salt)
	if err != nil {
		return cr.ErrAuthFailed
	}
	stored, err := base64.StdEncoding.DecodeString(rec.Verifier)
	if err != nil {
		return cr.ErrAuthFailed
	}
	oldParams := cr.KDFParams{Salt: salt, Iterations: rec.KDF.Iterations, Hash: rec.KDF.Hash}

	oldKey := cr.DeriveMEK([]byte(oldPass), oldParams)
	defer cr.Zero(oldKey)
	if !cr.VerifierEqual(cr.VerifierTag(oldKey), stored) {
		return ErrOldMaster
	}

	// A new passphrase that reproduces the same verifier under the old salt
	// is the old passphrase in disguise.
	newTest := cr.DeriveMEK([]byte(newPass), oldParams)
	same := cr.VerifierEqual(cr.VerifierTag(newTest), stored)
	cr.Zero(newTest)
	if same {
		return ErrSameMaster
	}

	notes, err := e.loadNotes(ctx)
	if err != nil {
		return err
	}

	// Stage every plaintext before writing anything: all-or-nothing.
	logins := make([]loginSecret, len(rec.Items))
	for i, it := range rec.Items {
		if err := cr.Decrypt(oldKey, it.IV, it.Ciphertext, &logins[i]); err != nil {
			return fmt.Errorf("%w: item %s", ErrRotationAborted, it.ID)
		}
	}
	bodies := make([]noteBody, len(notes))
	for i, n := range notes {
		if err := cr.Decrypt(oldKey, n.IV, n.Ciphertext, &bodies[i]); err != nil {
			return fmt.Errorf("%w: note %s", ErrRotationAborted, n.ID)
		}
	}

	newParams := cr.NewKDFParams()
	newKey := cr.DeriveMEK([]byte(newPass), newParams)
	defer cr.Zero(newKey)

	next := &Record{
		KDF: KDFInfo{
			Salt:       base64.StdEncoding.EncodeToString(newParams.Salt),
			Iterations: newParams.Iterations,
			Hash:       newParams.Hash,
		},
		Verifier: base64.StdEncoding.EncodeToString(cr.VerifierTag(newKey)),
		Items:    make([]LoginItem, len(rec.Items)),
	}
	for i, it := range rec.Items {
		iv, ct, err := cr.Encrypt(newKey, logins[i])
		if err != nil {
			return err
		}
		it.IV, it.Ciphertext = iv, ct
		next.Items[i] = it
	}
	nextNotes := make([]NoteItem, len(notes))
	for i, n := range notes {
		iv, ct, err := cr.Encrypt(newKey, bodies[i])
		if err != nil {
			return err
		}
		n.IV, n.Ciphertext = iv, ct
		nextNotes[i] = n
	}

	if err := e.saveRecord(ctx, next); err != nil {
		return err
	}
	if err := e.saveNotes(ctx, nextNotes); err != nil {
		return err
	}
	if err := e.sess.populate(newKey, next, nextNotes); err != nil {
		return err
	}
	e.record("rotate_master", "")
	return nil
}

// ---- settings ----

func (e *Engine) AutofillEnabled(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.getBool(ctx, store.KeyAutofill)
}

func (e *Engine) ToggleAutofill(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cur, err := e.getBool(ctx, store.KeyAutofill)
	if err != nil {
		return false, err
	}
	if err := e.setBool(ctx, store.KeyAutofill, !cur); err != nil {
		return false, err
	}
	return !cur, nil
}

func (e *Engine) TimeoutMinutes(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeoutMinutes(ctx)
}

func (e *Engine) SetTimeoutMinutes(ctx context.Context, minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("vault: timeout must be positive, got %d", minutes)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.setInt(ctx, store.KeyTimeout, minutes); err != nil {
		return err
	}
	e.bumpActivity(ctx)
	return nil
}

// AuditTrail exposes the recorded operation log, if one was attached.
func (e *Engine) AuditTrail() *audit.Trail { return e.trail }

// ---- internals ----

// unlockedKey hands back a MEK copy after making sure the caches are
// hydrated. Lazy hydration matters when the key outlives the process in an
// OS-keyring holder. Caller zeroes the key and must hold e.mu.
func (e *Engine) unlockedKey(ctx context.Context) ([]byte, error) {
	mek, ok := e.sess.key()
	if !ok {
		return nil, ErrLocked
	}
	if e.sess.vault == nil {
		rec, err := e.loadRecord(ctx)
		if err != nil {
			cr.Zero(mek)
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrLocked
			}
			return nil, err
		}
		notes, err := e.loadNotes(ctx)
		if err != nil {
			cr.Zero(mek)
			return nil, err
		}
		e.sess.vault = rec
		e.sess.notes = notes
	}
	return mek, nil
}

func (e *Engine) loadRecord(ctx context.Context) (*Record, error) {
	raw, err := e.store.Get(ctx, store.KeyVault)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("vault: corrupt record: %w", err)
	}
	return &rec, nil
}

func (e *Engine) saveRecord(ctx context.Context, rec *Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return e.store.Set(ctx, store.KeyVault, raw)
}

func (e *Engine) loadNotes(ctx context.Context) ([]NoteItem, error) {
	raw, err := e.store.Get(ctx, store.KeyNotes)
	if errors.Is(err, store.ErrNotFound) {
		return []NoteItem{}, nil
	}
	if err != nil {
		return nil, err
	}
	var notes []NoteItem
	if err := json.Unmarshal(raw, &notes); err != nil {
		return nil, fmt.Errorf("vault: corrupt notes: %w", err)
	}
	return notes, nil
}

func (e *Engine) saveNotes(ctx context.Context, notes []NoteItem) error {
	raw, err := json.Marshal(notes)
	if err != nil {
		return err
	}
	return e.store.Set(ctx, store.KeyNotes, raw)
}

func (e *Engine) getBool(ctx context.Context, key string) (bool, error) {
	raw, err := e.store.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, err
	}
	return v, nil
}

func (e *Engine) setBool(ctx context.Context, key string, v bool) error {
	raw, _ := json.Marshal(v)
	return e.store.Set(ctx, key, raw)
}

func (e *Engine) setInt(ctx context.Context, key string, v int) error {
	raw, _ := json.Marshal(v)
	return e.store.Set(ctx, key, raw)
}

func (e *Engine) timeoutMinutes(ctx context.Context) (int, error) {
	raw, err := e.store.Get(ctx, store.KeyTimeout)
	if errors.Is(err, store.ErrNotFound) {
		return DefaultTimeoutMinutes, nil
	}
	if err != nil {
		return 0, err
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil || v <= 0 {
		return DefaultTimeoutMinutes, nil
	}
	return v, nil
}

// bumpActivity re-arms the auto-lock timer. Called with e.mu held after a
// successful mutating operation.
func (e *Engine) bumpActivity(ctx context.Context) {
	if e.sched == nil {
		return
	}
	minutes, err := e.timeoutMinutes(ctx)
	if err != nil {
		minutes = DefaultTimeoutMinutes
	}
	e.sched.Reset(time.Duration(minutes) * time.Minute)
}

func (e *Engine) record(op, detail string) {
	if e.trail != nil {
		e.trail.Record(op, detail)
	}
}
