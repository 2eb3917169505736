// Package roster defines the ports to the external participation
// service: member/group directory reads, scorecard reads and writes, and
// the two membership write calls the reconciliation engine drives.
package roster

import (
	"context"
	"time"

	"github.com/rayyanhq/mutabaa/internal/domain/model"
)

// MemberFilter narrows a directory listing. Zero values match everything.
type MemberFilter struct {
	Status  model.Status
	Role    model.Role
	GroupID int
}

// Directory lists members and groups as the external service knows them.
type Directory interface {
	// ListMembers returns members matching the filter.
	ListMembers(ctx context.Context, f MemberFilter) ([]model.Member, error)

	// ListGroups returns every group.
	ListGroups(ctx context.Context) ([]model.Group, error)
}

// Cards reads and writes scorecards.
type Cards interface {
	// GetCard returns the card for (member, date). The boolean is false
	// when no card exists yet for that date.
	GetCard(ctx context.Context, memberID int, date time.Time) (model.CardRecord, bool, error)

	// SaveCard creates or replaces the card for (member, date).
	SaveCard(ctx context.Context, rec model.CardRecord) (model.CardRecord, error)

	// ListCards returns a member's cards with dates inside [from, to];
	// zero bounds are open.
	ListCards(ctx context.Context, memberID int, from, to time.Time) ([]model.CardRecord, error)
}

// Membership is the write surface of group assignment. The external
// service offers no atomic multi-member transfer: a full-replacement
// set call plus one clear call per member is all there is.
type Membership interface {
	// SetMembers replaces the group's desired member-id list in one call.
	SetMembers(ctx context.Context, groupID int, memberIDs []int) error

	// ClearGroup removes a single member's group reference.
	ClearGroup(ctx context.Context, memberID int) error
}

// Roster is the full collaborator surface the application consumes.
type Roster interface {
	Directory
	Cards
	Membership
}
