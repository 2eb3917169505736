// Package reconcile turns a free-form re-selection of a group's members
// into a classified change-set and drives the two-phase apply sequence
// against the external membership API.
package reconcile

import (
	"fmt"
	"sort"

	"github.com/rayyanhq/mutabaa/internal/domain/model"
)

// Move records a member arriving from a different group; the origin
// group's name is carried for the confirmation display.
type Move struct {
	Member        model.Member
	FromGroupID   int
	FromGroupName string
}

// ChangeSet classifies every member touched by a desired-membership
// re-selection. The four classes are disjoint and together cover the
// union of the group's current members and the desired set. It is
// derived, never persisted, and recomputed fresh on every prepare.
type ChangeSet struct {
	GroupID   int
	Added     []model.Member // desired, had no group
	Moved     []Move         // desired, had a different group
	Removed   []model.Member // had this group, not desired
	Unchanged []model.Member // had this group, still desired
}

// Empty reports whether there is nothing to apply. Unchanged members do
// not count: a selection identical to the current membership is empty.
func (cs ChangeSet) Empty() bool {
	return len(cs.Added) == 0 && len(cs.Moved) == 0 && len(cs.Removed) == 0
}

// DesiredIDs returns the full desired member-id set of the change-set
// (added + moved + unchanged), sorted ascending. This is the payload of
// the phase-1 "set members" call.
func (cs ChangeSet) DesiredIDs() []int {
	ids := make([]int, 0, len(cs.Added)+len(cs.Moved)+len(cs.Unchanged))
	for _, m := range cs.Added {
		ids = append(ids, m.ID)
	}
	for _, mv := range cs.Moved {
		ids = append(ids, mv.Member.ID)
	}
	for _, m := range cs.Unchanged {
		ids = append(ids, m.ID)
	}
	sort.Ints(ids)
	return ids
}

// Diff classifies the desired member-id set against a snapshot of
// current member state. Every desired id must resolve in the snapshot;
// an unknown id is a validation failure reported before any call is
// issued. Each class comes back sorted by member ID so repeated diffs
// over identical input are identical.
func Diff(groupID int, snapshot []model.Member, desired []int) (ChangeSet, error) {
	byID := make(map[int]model.Member, len(snapshot))
	for _, m := range snapshot {
		byID[m.ID] = m
	}

	wanted := make(map[int]bool, len(desired))
	for _, id := range desired {
		if _, ok := byID[id]; !ok {
			return ChangeSet{}, fmt.Errorf("%w: member %d", ErrUnknownMember, id)
		}
		wanted[id] = true
	}

	cs := ChangeSet{GroupID: groupID}
	for id := range wanted {
		m := byID[id]
		switch {
		case m.GroupID == groupID:
			cs.Unchanged = append(cs.Unchanged, m)
		case !m.InGroup():
			cs.Added = append(cs.Added, m)
		default:
			cs.Moved = append(cs.Moved, Move{
				Member:        m,
				FromGroupID:   m.GroupID,
				FromGroupName: m.GroupName,
			})
		}
	}
	for _, m := range snapshot {
		if m.GroupID == groupID && !wanted[m.ID] {
			cs.Removed = append(cs.Removed, m)
		}
	}

	sort.Slice(cs.Added, func(i, j int) bool { return cs.Added[i].ID < cs.Added[j].ID })
	sort.Slice(cs.Moved, func(i, j int) bool { return cs.Moved[i].Member.ID < cs.Moved[j].Member.ID })
	sort.Slice(cs.Removed, func(i, j int) bool { return cs.Removed[i].ID < cs.Removed[j].ID })
	sort.Slice(cs.Unchanged, func(i, j int) bool { return cs.Unchanged[i].ID < cs.Unchanged[j].ID })
	return cs, nil
}
