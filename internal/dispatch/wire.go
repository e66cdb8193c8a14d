package dispatch

import (
	"encoding/json"
	"fmt"

	"credvault/internal/vault"
)

// Operation names on the wire.
const (
	TypeSetMaster            = "SET_MASTER"
	TypeUnlock               = "UNLOCK"
	TypeLock                 = "LOCK"
	TypeGetLockState         = "GET_LOCK_STATE"
	TypeAddLogin             = "ADD_LOGIN"
	TypeGetVault             = "GET_VAULT"
	TypeGetItem              = "GET_ITEM"
	TypeSetItem              = "SET_ITEM"
	TypeDeleteItem           = "DELETE_ITEM"
	TypeMatch                = "MATCH"
	TypeCheckNewLogin        = "CHECK_NEW_LOGIN"
	TypeGeneratePassword     = "GENERATE_PASSWORD"
	TypeChangeMasterPassword = "CHANGE_MASTER_PASSWORD"
	TypeGetAutofill          = "GET_AUTOFILL_SETTING"
	TypeToggleAutofill       = "TOGGLE_AUTOFILL_SETTING"
	TypeGetTimeout           = "GET_TIMEOUT_LOCK"
	TypeSetTimeout           = "SET_TIMEOUT_LOCK"
	TypeAddNote              = "ADD_NOTE"
	TypeGetNote              = "GET_NOTE"
	TypeSetNote              = "SET_NOTE"
	TypeDeleteNote           = "DELETE_NOTE"
	TypeGetAllNotes          = "GET_ALL_NOTE"
)

// DecodeRequest turns a type-tagged JSON message into the matching request
// variant. Unknown types are an error at the edge, not a silent fallthrough.
func DecodeRequest(data []byte) (Request, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("dispatch: bad message: %w", err)
	}

	decode := func(req Request) (Request, error) {
		if err := json.Unmarshal(data, req); err != nil {
			return nil, fmt.Errorf("dispatch: bad %s payload: %w", probe.Type, err)
		}
		return req, nil
	}

	switch probe.Type {
	case TypeSetMaster:
		r, err := decode(&SetMasterRequest{})
		return deref(r), err
	case TypeUnlock:
		r, err := decode(&UnlockRequest{})
		return deref(r), err
	case TypeLock:
		return LockRequest{}, nil
	case TypeGetLockState:
		return GetLockStateRequest{}, nil
	case TypeAddLogin:
		r, err := decode(&AddLoginRequest{})
		return deref(r), err
	case TypeGetVault:
		return GetVaultRequest{}, nil
	case TypeGetItem:
		r, err := decode(&GetItemRequest{})
		return deref(r), err
	case TypeSetItem:
		// The wire shape nests id and patch fields in one "item" object.
		var w struct {
			Item struct {
				ID string `json:"id"`
				vault.ItemPatch
			} `json:"item"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("dispatch: bad %s payload: %w", probe.Type, err)
		}
		return SetItemRequest{ID: w.Item.ID, Patch: w.Item.ItemPatch}, nil
	case TypeDeleteItem:
		r, err := decode(&DeleteItemRequest{})
		return deref(r), err
	case TypeMatch:
		r, err := decode(&MatchRequest{})
		return deref(r), err
	case TypeCheckNewLogin:
		r, err := decode(&CheckNewLoginRequest{})
		return deref(r), err
	case TypeGeneratePassword:
		r, err := decode(&GeneratePasswordRequest{})
		return deref(r), err
	case TypeChangeMasterPassword:
		r, err := decode(&ChangeMasterPasswordRequest{})
		return deref(r), err
	case TypeGetAutofill:
		return GetAutofillRequest{}, nil
	case TypeToggleAutofill:
		return ToggleAutofillRequest{}, nil
	case TypeGetTimeout:
		return GetTimeoutRequest{}, nil
	case TypeSetTimeout:
		r, err := decode(&SetTimeoutRequest{})
		return deref(r), err
	case TypeAddNote:
		r, err := decode(&AddNoteRequest{})
		return deref(r), err
	case TypeGetNote:
		r, err := decode(&GetNoteRequest{})
		return deref(r), err
	case TypeSetNote:
		r, err := decode(&SetNoteRequest{})
		return deref(r), err
	case TypeDeleteNote:
		r, err := decode(&DeleteNoteRequest{})
		return deref(r), err
	case TypeGetAllNotes:
		return GetAllNotesRequest{}, nil
	default:
		return nil, fmt.Errorf("dispatch: unknown request type %q", probe.Type)
	}
}

// deref unwraps the pointer decode produced so Handle always sees value
// types.
func deref(r Request) Request {
	switch v := r.(type) {
	case *SetMasterRequest:
		return *v
	case *UnlockRequest:
		return *v
	case *AddLoginRequest:
		return *v
	case *GetItemRequest:
		return *v
	case *DeleteItemRequest:
		return *v
	case *MatchRequest:
		return *v
	case *CheckNewLoginRequest:
		return *v
	case *GeneratePasswordRequest:
		return *v
	case *ChangeMasterPasswordRequest:
		return *v
	case *SetTimeoutRequest:
		return *v
	case *AddNoteRequest:
		return *v
	case *GetNoteRequest:
		return *v
	case *SetNoteRequest:
		return *v
	case *DeleteNoteRequest:
		return *v
	default:
		return r
	}
}
