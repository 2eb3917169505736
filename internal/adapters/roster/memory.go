package roster

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rayyanhq/mutabaa/internal/domain/card"
	"github.com/rayyanhq/mutabaa/internal/domain/model"
)

// MemoryRoster implements Roster in memory. It backs tests and offline
// use, and mirrors the collaborator's semantics: single-valued group
// membership, one card per (member, date), full-replacement set-members.
type MemoryRoster struct {
	mu sync.RWMutex

	members map[int]model.Member
	groups  map[int]model.Group
	cards   map[int][]model.CardRecord // member id -> records
	nextID  int
	now     func() time.Time
}

// MemoryOption configures a MemoryRoster.
type MemoryOption func(*MemoryRoster)

// WithMembers seeds the directory.
func WithMembers(members ...model.Member) MemoryOption {
	return func(r *MemoryRoster) {
		for _, m := range members {
			r.members[m.ID] = m
		}
	}
}

// WithGroups seeds the group directory.
func WithGroups(groups ...model.Group) MemoryOption {
	return func(r *MemoryRoster) {
		for _, g := range groups {
			r.groups[g.ID] = g
		}
	}
}

// WithCards seeds existing card records.
func WithCards(cards ...model.CardRecord) MemoryOption {
	return func(r *MemoryRoster) {
		for _, rec := range cards {
			rec.Date = model.Day(rec.Date)
			r.cards[rec.MemberID] = append(r.cards[rec.MemberID], rec)
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) MemoryOption {
	return func(r *MemoryRoster) {
		if now != nil {
			r.now = now
		}
	}
}

// NewMemory creates an empty in-memory roster.
func NewMemory(opts ...MemoryOption) *MemoryRoster {
	r := &MemoryRoster{
		members: make(map[int]model.Member),
		groups:  make(map[int]model.Group),
		cards:   make(map[int][]model.CardRecord),
		nextID:  1,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ListMembers returns members matching the filter, ordered by ID.
func (r *MemoryRoster) ListMembers(_ context.Context, f MemberFilter) ([]model.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Member, 0, len(r.members))
	for _, m := range r.members {
		if f.Status != "" && m.Status != f.Status {
			continue
		}
		if f.Role != "" && m.Role != f.Role {
			continue
		}
		if f.GroupID != 0 && m.GroupID != f.GroupID {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListGroups returns every group ordered by ID, with derived member
// counts over active members.
func (r *MemoryRoster) ListGroups(_ context.Context) ([]model.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Group, 0, len(r.groups))
	for _, g := range r.groups {
		g.MemberCount = 0
		for _, m := range r.members {
			if m.GroupID == g.ID && m.Status == model.StatusActive {
				g.MemberCount++
			}
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetCard returns the card for (member, date) when present.
func (r *MemoryRoster) GetCard(_ context.Context, memberID int, date time.Time) (model.CardRecord, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.cards[memberID] {
		if model.SameDay(rec.Date, date) {
			return rec, true, nil
		}
	}
	return model.CardRecord{}, false, nil
}

// SaveCard creates or replaces the (member, date) card. Derived totals
// are recomputed from the field values; whatever the caller put in the
// derived fields is ignored.
func (r *MemoryRoster) SaveCard(_ context.Context, rec model.CardRecord) (model.CardRecord, error) {
	c, err := card.FromRecord(rec)
	if err != nil {
		return model.CardRecord{}, &CallError{Op: "save card", MemberID: rec.MemberID, Err: err}
	}
	stored, err := c.Record()
	if err != nil {
		return model.CardRecord{}, &CallError{Op: "save card", MemberID: rec.MemberID, Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[rec.MemberID]; !ok {
		return model.CardRecord{}, &CallError{Op: "save card", MemberID: rec.MemberID, Err: ErrNotFound}
	}

	stored.UpdatedAt = r.now()
	existing := r.cards[rec.MemberID]
	for i, old := range existing {
		if model.SameDay(old.Date, stored.Date) {
			stored.ID = old.ID
			existing[i] = stored
			return stored, nil
		}
	}
	stored.ID = r.nextID
	r.nextID++
	r.cards[rec.MemberID] = append(existing, stored)
	return stored, nil
}

// ListCards returns a member's cards inside [from, to], newest first.
func (r *MemoryRoster) ListCards(_ context.Context, memberID int, from, to time.Time) ([]model.CardRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.CardRecord
	for _, rec := range r.cards[memberID] {
		d := model.Day(rec.Date)
		if !from.IsZero() && d.Before(model.Day(from)) {
			continue
		}
		if !to.IsZero() && d.After(model.Day(to)) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// SetMembers assigns the group to every listed member in one call. It
// does not touch members missing from the list; clearing them is the
// caller's phase-2 concern, exactly like the real service.
func (r *MemoryRoster) SetMembers(_ context.Context, groupID int, memberIDs []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.groups[groupID]
	if !ok {
		return &CallError{Op: "set members", GroupID: groupID, Err: ErrNotFound}
	}
	for _, id := range memberIDs {
		m, ok := r.members[id]
		if !ok {
			return &CallError{Op: "set members", GroupID: groupID, MemberID: id,
				Err: fmt.Errorf("%w: member", ErrNotFound)}
		}
		m.GroupID = g.ID
		m.GroupName = g.Name
		r.members[id] = m
	}
	return nil
}

// ClearGroup removes one member's group reference.
func (r *MemoryRoster) ClearGroup(_ context.Context, memberID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[memberID]
	if !ok {
		return &CallError{Op: "clear group", MemberID: memberID, Err: ErrNotFound}
	}
	m.GroupID = 0
	m.GroupName = ""
	r.members[memberID] = m
	return nil
}
