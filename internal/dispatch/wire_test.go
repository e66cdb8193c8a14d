package dispatch

import (
	"context"
	"encoding/json"
	"testing"

	"credvault/internal/store"
	"credvault/internal/vault"
)

func TestDecodeRequestVariants(t *testing.T) {
	cases := []struct {
		body string
		want Request
	}{
		{`{"type":"SET_MASTER","master":"s"}`, SetMasterRequest{Master: "s"}},
		{`{"type":"UNLOCK","master":"s"}`, UnlockRequest{Master: "s"}},
		{`{"type":"LOCK"}`, LockRequest{}},
		{`{"type":"GET_LOCK_STATE"}`, GetLockStateRequest{}},
		{`{"type":"GET_VAULT"}`, GetVaultRequest{}},
		{`{"type":"GET_ITEM","id":"i1"}`, GetItemRequest{ID: "i1"}},
		{`{"type":"DELETE_ITEM","id":"i1"}`, DeleteItemRequest{ID: "i1"}},
		{`{"type":"MATCH","domain":"example.com"}`, MatchRequest{Domain: "example.com"}},
		{`{"type":"CHECK_NEW_LOGIN","domain":"d","username":"u","password":"p"}`,
			CheckNewLoginRequest{Domain: "d", Username: "u", Password: "p"}},
		{`{"type":"CHANGE_MASTER_PASSWORD","oldMaster":"a","newMaster":"b"}`,
			ChangeMasterPasswordRequest{OldMaster: "a", NewMaster: "b"}},
		{`{"type":"SET_TIMEOUT_LOCK","timeout":10}`, SetTimeoutRequest{Timeout: 10}},
		{`{"type":"GET_ALL_NOTE"}`, GetAllNotesRequest{}},
		{`{"type":"ADD_NOTE","title":"t","content":"c"}`, AddNoteRequest{Title: "t", Content: "c"}},
	}
	for _, tc := range cases {
		got, err := DecodeRequest([]byte(tc.body))
		if err != nil {
			t.Errorf("decode %s: %v", tc.body, err)
			continue
		}
		if got != tc.want {
			t.Errorf("decode %s: got %#v, want %#v", tc.body, got, tc.want)
		}
	}
}

func TestDecodeAddLogin(t *testing.T) {
	body := `{"type":"ADD_LOGIN","item":{"domain":"example.com","title":"Ex","username":"u","password":"p"}}`
	got, err := DecodeRequest([]byte(body))
	if err != nil {
		t.Fatal(err)
	}
	req, ok := got.(AddLoginRequest)
	if !ok || req.Item.Domain != "example.com" || req.Item.Password != "p" {
		t.Fatalf("unexpected request %#v", got)
	}
}

func TestDecodeSetItemNestedShape(t *testing.T) {
	body := `{"type":"SET_ITEM","item":{"id":"i1","title":"New","username":"u","password":"p"}}`
	got, err := DecodeRequest([]byte(body))
	if err != nil {
		t.Fatal(err)
	}
	req, ok := got.(SetItemRequest)
	if !ok || req.ID != "i1" {
		t.Fatalf("unexpected request %#v", got)
	}
	if req.Patch.Title == nil || *req.Patch.Title != "New" {
		t.Fatalf("title patch missing: %#v", req.Patch)
	}
	if req.Patch.Username == nil || req.Patch.Password == nil {
		t.Fatalf("credential patch missing: %#v", req.Patch)
	}
	if req.Patch.Domain != nil {
		t.Fatalf("absent field decoded as set: %#v", req.Patch)
	}
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	if _, err := DecodeRequest([]byte(`{"type":"NUKE_VAULT"}`)); err == nil {
		t.Fatal("unknown type accepted")
	}
	if _, err := DecodeRequest([]byte(`not json`)); err == nil {
		t.Fatal("malformed message accepted")
	}
}

// Decode and handle round trip over the wire shapes.
func TestWireEndToEnd(t *testing.T) {
	ctx := context.Background()
	d := New(vault.New(store.NewMemoryStore(), vault.NewSession(nil)))

	for _, body := range []string{
		`{"type":"SET_MASTER","master":"Secret123!"}`,
		`{"type":"ADD_LOGIN","item":{"domain":"example.com","title":"Ex","username":"alice","password":"p1"}}`,
	} {
		req, err := DecodeRequest([]byte(body))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp := d.Handle(ctx, req); !resp.OK {
			t.Fatalf("handle %s: %+v", body, resp)
		}
	}

	req, _ := DecodeRequest([]byte(`{"type":"MATCH","domain":"login.example.com"}`))
	resp := d.Handle(ctx, req)
	if !resp.OK || len(resp.Items) != 1 {
		t.Fatalf("match over wire: %+v", resp)
	}

	// The wire response must never carry a password for MATCH.
	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	var loose map[string]any
	_ = json.Unmarshal(raw, &loose)
	if _, ok := loose["password"]; ok {
		t.Fatal("match response leaked a password field")
	}
}

func FuzzDecodeRequest(f *testing.F) {
	f.Add(`{"type":"UNLOCK","master":"x"}`)
	f.Add(`{"type":"SET_ITEM","item":{"id":"1"}}`)
	f.Add(`{}`)
	f.Fuzz(func(t *testing.T, body string) {
		req, err := DecodeRequest([]byte(body))
		if err == nil && req == nil {
			t.Fatal("nil request without error")
		}
	})
}
