// Package policy holds the authorization decision function for notes.  It is
// pure: a decision depends only on the action, the note and the caller's id,
// never on request state or storage.
package policy

import (
	"errors"

	"github.com/iliyamo/collab-notes/internal/model"
)

// Action enumerates the operations a caller can attempt on a note.
type Action string

const (
	ActionView   Action = "view"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionShare  Action = "share"
)

// ErrForbidden is the generic denial for view/update/share.  Handlers
// translate it into an HTTP 403 response.
var ErrForbidden = errors.New("not authorized")

// ErrNotOwner is the denial for owner-only actions attempted by someone
// else.  It is deliberately distinct from ErrForbidden so callers can give a
// sharper message than a plain 403; handlers translate it into HTTP 422.
var ErrNotOwner = errors.New("only the owner may perform this action")

// Authorize decides whether identityID may perform action on note.
//
// The rule table is asymmetric: shared users may view and update a note but
// may not delete or share it.  That asymmetry is a documented product
// choice, not an oversight, so do not "fix" it here without product input.
func Authorize(action Action, note model.Note, identityID uint64) error {
	owner := note.OwnerID == identityID
	switch action {
	case ActionView, ActionUpdate:
		if owner || note.SharedWithUser(identityID) {
			return nil
		}
		return ErrForbidden
	case ActionDelete:
		if owner {
			return nil
		}
		return ErrNotOwner
	case ActionShare:
		if owner {
			return nil
		}
		return ErrForbidden
	default:
		return ErrForbidden
	}
}
