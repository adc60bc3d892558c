package policy

import (
	"errors"
	"testing"

	"github.com/iliyamo/collab-notes/internal/model"
)

const (
	ownerID  uint64 = 1
	sharedID uint64 = 2
	otherID  uint64 = 3
)

func note() model.Note {
	return model.Note{ID: 10, OwnerID: ownerID, SharedWith: []uint64{sharedID}}
}

func TestAuthorize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		action   Action
		identity uint64
		want     error
	}{
		{"owner view", ActionView, ownerID, nil},
		{"shared view", ActionView, sharedID, nil},
		{"stranger view", ActionView, otherID, ErrForbidden},

		{"owner update", ActionUpdate, ownerID, nil},
		{"shared update", ActionUpdate, sharedID, nil},
		{"stranger update", ActionUpdate, otherID, ErrForbidden},

		{"owner delete", ActionDelete, ownerID, nil},
		{"shared delete", ActionDelete, sharedID, ErrNotOwner},
		{"stranger delete", ActionDelete, otherID, ErrNotOwner},

		{"owner share", ActionShare, ownerID, nil},
		{"shared share", ActionShare, sharedID, ErrForbidden},
		{"stranger share", ActionShare, otherID, ErrForbidden},

		{"unknown action", Action("export"), ownerID, ErrForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(tc.action, note(), tc.identity)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Authorize(%s, id=%d) = %v, want %v", tc.action, tc.identity, err, tc.want)
			}
		})
	}
}

// A shared user being denied delete must yield the owner-only error, not the
// generic one, because the two map to different HTTP statuses.
func TestAuthorize_DeleteDenialIsDistinct(t *testing.T) {
	t.Parallel()

	err := Authorize(ActionDelete, note(), sharedID)
	if errors.Is(err, ErrForbidden) {
		t.Fatalf("delete denial must not be the generic ErrForbidden")
	}
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("delete denial = %v, want ErrNotOwner", err)
	}
}
