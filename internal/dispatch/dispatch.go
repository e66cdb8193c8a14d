package dispatch

import (
	"context"
	"errors"
	"time"

	"credvault/internal/passgen"
	"credvault/internal/vault"
)

type Dispatcher struct {
	engine *vault.Engine
}

func New(engine *vault.Engine) *Dispatcher {
	return &Dispatcher{engine: engine}
}

// Handle runs one request against the engine. Every branch returns a
// Response; no engine error value crosses this boundary.
func (d *Dispatcher) Handle(ctx context.Context, req Request) Response {
	switch r := req.(type) {
	case SetMasterRequest:
		return boolResp(d.engine.SetMaster(ctx, r.Master))

	case UnlockRequest:
		return boolResp(d.engine.Unlock(ctx, r.Master))

	case LockRequest:
		d.engine.Lock()
		return Response{OK: true}

	case GetLockStateRequest:
		locked := d.engine.Locked()
		return Response{OK: true, Locked: &locked}

	case AddLoginRequest:
		added, err := d.engine.AddLogin(ctx, r.Item)
		if err != nil {
			return fail(err)
		}
		return Response{OK: true, DateAdded: added.Format(time.RFC3339)}

	case GetVaultRequest:
		items, err := d.engine.Logins(ctx)
		if err != nil {
			return fail(err)
		}
		return Response{OK: true, Items: items}

	case GetItemRequest:
		item, err := d.engine.Item(ctx, r.ID)
		if err != nil {
			return fail(err)
		}
		creds, err := d.engine.DecryptLogin(ctx, item)
		if err != nil {
			return fail(err)
		}
		return Response{OK: true, Item: &ItemDetail{
			ID:       item.ID,
			Title:    item.Title,
			Domain:   item.Domain,
			Username: creds.Username,
			Password: creds.Password,
		}}

	case SetItemRequest:
		return boolResp(d.engine.SetItem(ctx, r.ID, r.Patch))

	case DeleteItemRequest:
		return boolResp(d.engine.DeleteItem(ctx, r.ID))

	case MatchRequest:
		items, err := d.engine.Match(ctx, r.Domain)
		if err != nil {
			return fail(err)
		}
		return Response{OK: true, Items: items}

	case CheckNewLoginRequest:
		check, err := d.engine.CheckNewLogin(ctx, r.Domain, r.Username, r.Password)
		if err != nil {
			return fail(err)
		}
		return Response{OK: true, Msg: check.Status, ID: check.ID}

	case GeneratePasswordRequest:
		pw, err := passgen.Generate(r.Options)
		if err != nil {
			return fail(err)
		}
		return Response{OK: true, Password: pw}

	case ChangeMasterPasswordRequest:
		if err := d.engine.ChangeMasterPassword(ctx, r.OldMaster, r.NewMaster); err != nil {
			return Response{OK: false, Error: rotationError(err)}
		}
		return Response{OK: true}

	case GetAutofillRequest:
		v, err := d.engine.AutofillEnabled(ctx)
		if err != nil {
			return fail(err)
		}
		return Response{OK: true, Value: &v}

	case ToggleAutofillRequest:
		v, err := d.engine.ToggleAutofill(ctx)
		if err != nil {
			return fail(err)
		}
		return Response{OK: true, Value: &v}

	case GetTimeoutRequest:
		m, err := d.engine.TimeoutMinutes(ctx)
		if err != nil {
			return fail(err)
		}
		return Response{OK: true, Timeout: m}

	case SetTimeoutRequest:
		return boolResp(d.engine.SetTimeoutMinutes(ctx, r.Timeout))

	case AddNoteRequest:
		id, err := d.engine.AddNote(ctx, r.Title, r.Content)
		if err != nil {
			return fail(err)
		}
		return Response{OK: true, ID: id}

	case GetNoteRequest:
		note, err := d.engine.Note(ctx, r.ID)
		if err != nil {
			return fail(err)
		}
		return Response{OK: true, Note: &note}

	case SetNoteRequest:
		return boolResp(d.engine.SetNote(ctx, r.ID, r.Title, r.Content))

	case DeleteNoteRequest:
		return boolResp(d.engine.DeleteNote(ctx, r.ID))

	case GetAllNotesRequest:
		notes, err := d.engine.Notes(ctx)
		if err != nil {
			return fail(err)
		}
		return Response{OK: true, Notes: notes}

	default:
		return Response{OK: false, Error: "unknown request"}
	}
}

func boolResp(err error) Response {
	if err != nil {
		return fail(err)
	}
	return Response{OK: true}
}

// fail deliberately withholds error internals: the calling layer shows a
// generic failure message and must not branch on causes.
func fail(error) Response {
	return Response{OK: false}
}

// rotationError maps the three distinguished master-change failures to their
// caller-visible strings; anything else stays generic.
func rotationError(err error) string {
	switch {
	case errors.Is(err, vault.ErrNoVault):
		return "No vault"
	case errors.Is(err, vault.ErrOldMaster):
		return "Old master incorrect"
	case errors.Is(err, vault.ErrSameMaster):
		return "New master must be different from old master"
	default:
		return "Failed to change master password"
	}
}
