package vault

import (
	"context"
	"strings"

	"golang.org/x/net/publicsuffix"

	cr "credvault/internal/crypto"
)

// registrableDomain reduces a host (or sloppy URL) to its eTLD+1 so that
// accounts.example.com and example.com compare equal. Hosts without a public
// suffix (localhost, bare names, IPs) fall back to the cleaned host itself.
func registrableDomain(raw string) string {
	host := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(host, "://"); i != -1 {
		host = host[i+3:]
	}
	if i := strings.IndexAny(host, "/?#"); i != -1 {
		host = host[:i]
	}
	if i := strings.LastIndex(host, ":"); i > strings.LastIndex(host, "]") {
		host = host[:i]
	}
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return ""
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return etld1
}

// Match returns the logins whose stored domain shares the query's registrable
// domain, with usernames decrypted and passwords withheld. An item that fails
// to decrypt is excluded; the match itself still succeeds.
func (e *Engine) Match(ctx context.Context, domain string) ([]LoginSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	mek, err := e.unlockedKey(ctx)
	if err != nil {
		return nil, err
	}
	defer cr.Zero(mek)

	want := registrableDomain(domain)
	out := []LoginSummary{}
	for _, it := range e.sess.vault.Items {
		if registrableDomain(it.Domain) != want {
			continue
		}
		var sec loginSecret
		if err := cr.Decrypt(mek, it.IV, it.Ciphertext, &sec); err != nil {
			continue
		}
		out = append(out, LoginSummary{ID: it.ID, Title: it.Title, Domain: it.Domain, Username: sec.U})
	}
	return out, nil
}

// CheckNewLogin classifies a submitted credential against the first stored
// item on the same registrable domain:
//
//	no match, undecryptable match, or different username -> NEW
//	same username, same password                         -> UNCHANGED
//	same username, different password                    -> UPDATE (+id)
//
// A locked session classifies as NEW: the engine cannot consult the vault and
// the calling layer's save prompt is the safe default.
func (e *Engine) CheckNewLogin(ctx context.Context, domain, username, password string) (LoginCheck, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	mek, err := e.unlockedKey(ctx)
	if err != nil {
		if err == ErrLocked {
			return LoginCheck{Status: StatusNew}, nil
		}
		return LoginCheck{}, err
	}
	defer cr.Zero(mek)

	want := registrableDomain(domain)
	for _, it := range e.sess.vault.Items {
		if registrableDomain(it.Domain) != want {
			continue
		}
		var sec loginSecret
		if err := cr.Decrypt(mek, it.IV, it.Ciphertext, &sec); err != nil {
			return LoginCheck{Status: StatusNew}, nil
		}
		switch {
		case sec.U == username && sec.P == password:
			return LoginCheck{Status: StatusUnchanged}, nil
		case sec.U == username:
			return LoginCheck{Status: StatusUpdate, ID: it.ID}, nil
		default:
			return LoginCheck{Status: StatusNew}, nil
		}
	}
	return LoginCheck{Status: StatusNew}, nil
}
