package dispatch

import (
	"context"
	"testing"

	"credvault/internal/passgen"
	"credvault/internal/store"
	"credvault/internal/vault"
)

func newDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	return New(vault.New(store.NewMemoryStore(), vault.NewSession(nil)))
}

func TestFullScenario(t *testing.T) {
	ctx := context.Background()
	d := newDispatcher(t)

	if resp := d.Handle(ctx, SetMasterRequest{Master: "Secret123!"}); !resp.OK {
		t.Fatalf("set master: %+v", resp)
	}

	resp := d.Handle(ctx, GetLockStateRequest{})
	if !resp.OK || resp.Locked == nil || *resp.Locked {
		t.Fatalf("expected unlocked state, got %+v", resp)
	}

	resp = d.Handle(ctx, AddLoginRequest{Item: vault.LoginInput{
		Domain: "example.com", Title: "Ex", Username: "alice", Password: "p1",
	}})
	if !resp.OK || resp.DateAdded == "" {
		t.Fatalf("add login: %+v", resp)
	}

	resp = d.Handle(ctx, MatchRequest{Domain: "www.example.com"})
	if !resp.OK || len(resp.Items) != 1 || resp.Items[0].Username != "alice" {
		t.Fatalf("match: %+v", resp)
	}

	resp = d.Handle(ctx, GetItemRequest{ID: resp.Items[0].ID})
	if !resp.OK || resp.Item == nil || resp.Item.Password != "p1" {
		t.Fatalf("get item: %+v", resp)
	}

	resp = d.Handle(ctx, CheckNewLoginRequest{Domain: "example.com", Username: "alice", Password: "p2"})
	if !resp.OK || resp.Msg != vault.StatusUpdate || resp.ID == "" {
		t.Fatalf("check new login: %+v", resp)
	}

	if resp := d.Handle(ctx, LockRequest{}); !resp.OK {
		t.Fatalf("lock: %+v", resp)
	}
	resp = d.Handle(ctx, UnlockRequest{Master: "nope"})
	if resp.OK {
		t.Fatalf("wrong passphrase accepted: %+v", resp)
	}
	if resp.Error != "" {
		t.Fatalf("unlock failure leaked error detail: %q", resp.Error)
	}
	if resp := d.Handle(ctx, UnlockRequest{Master: "Secret123!"}); !resp.OK {
		t.Fatalf("unlock: %+v", resp)
	}
}

func TestLockedOpsReturnNotOK(t *testing.T) {
	ctx := context.Background()
	d := newDispatcher(t)
	_ = d.Handle(ctx, SetMasterRequest{Master: "Secret123!"})
	_ = d.Handle(ctx, LockRequest{})

	for _, req := range []Request{
		AddLoginRequest{Item: vault.LoginInput{Domain: "x.com"}},
		GetVaultRequest{},
		GetItemRequest{ID: "x"},
		DeleteItemRequest{ID: "x"},
		MatchRequest{Domain: "x.com"},
		GetAllNotesRequest{},
		AddNoteRequest{Title: "t", Content: "c"},
	} {
		if resp := d.Handle(ctx, req); resp.OK {
			t.Fatalf("%T succeeded while locked", req)
		}
	}
}

func TestChangeMasterPasswordErrorStrings(t *testing.T) {
	ctx := context.Background()
	d := newDispatcher(t)

	resp := d.Handle(ctx, ChangeMasterPasswordRequest{OldMaster: "a", NewMaster: "b"})
	if resp.OK || resp.Error != "No vault" {
		t.Fatalf("expected \"No vault\", got %+v", resp)
	}

	_ = d.Handle(ctx, SetMasterRequest{Master: "Secret123!"})
	resp = d.Handle(ctx, ChangeMasterPasswordRequest{OldMaster: "wrong", NewMaster: "b"})
	if resp.OK || resp.Error != "Old master incorrect" {
		t.Fatalf("expected \"Old master incorrect\", got %+v", resp)
	}
	resp = d.Handle(ctx, ChangeMasterPasswordRequest{OldMaster: "Secret123!", NewMaster: "Secret123!"})
	if resp.OK || resp.Error != "New master must be different from old master" {
		t.Fatalf("expected same-master error, got %+v", resp)
	}
}

func TestGeneratePassword(t *testing.T) {
	d := newDispatcher(t)
	resp := d.Handle(context.Background(), GeneratePasswordRequest{Options: passgen.Options{
		Length: 20, Upper: true, Digits: true, RequireEachSelected: true,
	}})
	if !resp.OK || len(resp.Password) != 20 {
		t.Fatalf("generate: %+v", resp)
	}
	resp = d.Handle(context.Background(), GeneratePasswordRequest{Options: passgen.Options{Length: -1}})
	if resp.OK {
		t.Fatalf("invalid options accepted: %+v", resp)
	}
}

func TestNotesOverDispatch(t *testing.T) {
	ctx := context.Background()
	d := newDispatcher(t)
	_ = d.Handle(ctx, SetMasterRequest{Master: "Secret123!"})

	resp := d.Handle(ctx, AddNoteRequest{Title: "wifi", Content: "hunter2"})
	if !resp.OK || resp.ID == "" {
		t.Fatalf("add note: %+v", resp)
	}
	id := resp.ID

	resp = d.Handle(ctx, GetAllNotesRequest{})
	if !resp.OK || len(resp.Notes) != 1 || resp.Notes[0].Title != "wifi" {
		t.Fatalf("list notes: %+v", resp)
	}

	resp = d.Handle(ctx, GetNoteRequest{ID: id})
	if !resp.OK || resp.Note == nil || resp.Note.Content != "hunter2" {
		t.Fatalf("get note: %+v", resp)
	}

	if resp := d.Handle(ctx, DeleteNoteRequest{ID: id}); !resp.OK {
		t.Fatalf("delete note: %+v", resp)
	}
	if resp := d.Handle(ctx, GetNoteRequest{ID: id}); resp.OK {
		t.Fatalf("deleted note still readable: %+v", resp)
	}
}
