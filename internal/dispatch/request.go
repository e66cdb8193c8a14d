// Package dispatch models the caller-facing operation surface as a closed
// union of request types, dispatched exhaustively, with every engine failure
// folded into an ok:false response. Callers outside this package never see
// engine error values; only the master-password change exposes distinguished
// error strings.
package dispatch

import (
	"credvault/internal/passgen"
	"credvault/internal/vault"
)

// Request is sealed: only the types below satisfy it, so the dispatcher's
// type switch is exhaustive by construction.
type Request interface{ isRequest() }

type (
	SetMasterRequest struct {
		Master string `json:"master"`
	}
	UnlockRequest struct {
		Master string `json:"master"`
	}
	LockRequest         struct{}
	GetLockStateRequest struct{}

	AddLoginRequest struct {
		Item vault.LoginInput `json:"item"`
	}
	GetVaultRequest struct{}
	GetItemRequest  struct {
		ID string `json:"id"`
	}
	SetItemRequest struct {
		ID    string          `json:"id"`
		Patch vault.ItemPatch `json:"patch"`
	}
	DeleteItemRequest struct {
		ID string `json:"id"`
	}

	MatchRequest struct {
		Domain string `json:"domain"`
	}
	CheckNewLoginRequest struct {
		Domain   string `json:"domain"`
		Username string `json:"username"`
		Password string `json:"password"`
	}

	GeneratePasswordRequest struct {
		Options passgen.Options `json:"options"`
	}
	ChangeMasterPasswordRequest struct {
		OldMaster string `json:"oldMaster"`
		NewMaster string `json:"newMaster"`
	}

	GetAutofillRequest    struct{}
	ToggleAutofillRequest struct{}
	GetTimeoutRequest     struct{}
	SetTimeoutRequest     struct {
		Timeout int `json:"timeout"`
	}

	AddNoteRequest struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	GetNoteRequest struct {
		ID string `json:"id"`
	}
	SetNoteRequest struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	DeleteNoteRequest struct {
		ID string `json:"id"`
	}
	GetAllNotesRequest struct{}
)

func (SetMasterRequest) isRequest()            {}
func (UnlockRequest) isRequest()               {}
func (LockRequest) isRequest()                 {}
func (GetLockStateRequest) isRequest()         {}
func (AddLoginRequest) isRequest()             {}
func (GetVaultRequest) isRequest()             {}
func (GetItemRequest) isRequest()              {}
func (SetItemRequest) isRequest()              {}
func (DeleteItemRequest) isRequest()           {}
func (MatchRequest) isRequest()                {}
func (CheckNewLoginRequest) isRequest()        {}
func (GeneratePasswordRequest) isRequest()     {}
func (ChangeMasterPasswordRequest) isRequest() {}
func (GetAutofillRequest) isRequest()          {}
func (ToggleAutofillRequest) isRequest()       {}
func (GetTimeoutRequest) isRequest()           {}
func (SetTimeoutRequest) isRequest()           {}
func (AddNoteRequest) isRequest()              {}
func (GetNoteRequest) isRequest()              {}
func (SetNoteRequest) isRequest()              {}
func (DeleteNoteRequest) isRequest()           {}
func (GetAllNotesRequest) isRequest()          {}

// ItemDetail is the full decrypted login returned by GET_ITEM only.
type ItemDetail struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Domain   string `json:"domain"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Response is the single reply shape: OK plus whichever named fields the
// operation fills in.
type Response struct {
	OK        bool                 `json:"ok"`
	Error     string               `json:"error,omitempty"`
	Locked    *bool                `json:"locked,omitempty"`
	Item      *ItemDetail          `json:"item,omitempty"`
	Items     []vault.LoginSummary `json:"items,omitempty"`
	Note      *vault.NoteContent   `json:"note,omitempty"`
	Notes     []vault.NoteSummary  `json:"notes,omitempty"`
	Password  string               `json:"password,omitempty"`
	Timeout   int                  `json:"timeout,omitempty"`
	Value     *bool                `json:"value,omitempty"`
	ID        string               `json:"id,omitempty"`
	DateAdded string               `json:"dateAdded,omitempty"`
	Msg       vault.LoginStatus    `json:"msg,omitempty"`
}
