package reconcile

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rayyanhq/mutabaa/internal/domain/model"
)

// State of a reconciliation session.
type State string

const (
	StateSelecting State = "selecting"
	StateDiffed    State = "diffed"
	StateApplying  State = "applying"
	StateCommitted State = "committed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateFailed || s == StateCancelled
}

// Applier is the slice of the external membership API the apply sequence
// needs: a full-replacement member-set call and a per-member clear call.
type Applier interface {
	// SetMembers replaces the group's member-id list in one call.
	SetMembers(ctx context.Context, groupID int, memberIDs []int) error
	// ClearGroup removes a single member's group reference.
	ClearGroup(ctx context.Context, memberID int) error
}

// RemovalOutcome is the result of one phase-2 clear call.
type RemovalOutcome struct {
	MemberID int
	Err      error
}

// Result reports what an apply actually did. Phase-2 clear calls are
// independent, so the result names exactly which removals succeeded and
// which failed.
type Result struct {
	Phase1Err error
	Removals  []RemovalOutcome
}

// Succeeded returns the member IDs whose group reference was cleared.
func (r Result) Succeeded() []int {
	var ids []int
	for _, o := range r.Removals {
		if o.Err == nil {
			ids = append(ids, o.MemberID)
		}
	}
	return ids
}

// Failed returns the member IDs whose clear call failed.
func (r Result) Failed() []int {
	var ids []int
	for _, o := range r.Removals {
		if o.Err != nil {
			ids = append(ids, o.MemberID)
		}
	}
	return ids
}

const defaultApplyConcurrency = 4

// Session is one reconciliation pass over a single group. The entity
// snapshot taken at Begin is immutable for the session's lifetime, so
// the diff cannot shift under the user mid-session. Concurrent sessions
// against the same group are not serialized here; the last confirmed
// session wins at the collaborator (known limitation).
type Session struct {
	mu sync.Mutex

	id          uuid.UUID
	group       model.Group
	snapshot    []model.Member
	desired     []int
	state       State
	changeSet   ChangeSet
	concurrency int
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithApplyConcurrency bounds the number of in-flight phase-2 clear
// calls. Values below 1 are ignored.
func WithApplyConcurrency(n int) SessionOption {
	return func(s *Session) {
		if n >= 1 {
			s.concurrency = n
		}
	}
}

// Begin starts a session for the group over a frozen snapshot of member
// state. The initial desired set is the group's current membership.
func Begin(group model.Group, snapshot []model.Member, opts ...SessionOption) *Session {
	s := &Session{
		id:          uuid.New(),
		group:       group,
		snapshot:    snapshot,
		state:       StateSelecting,
		concurrency: defaultApplyConcurrency,
	}
	for _, m := range snapshot {
		if m.GroupID == group.ID {
			s.desired = append(s.desired, m.ID)
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// Group returns the target group.
func (s *Session) Group() model.Group { return s.group }

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns a copy of the frozen member state the session diffs
// against; mutating it cannot shift the diff mid-session.
func (s *Session) Snapshot() []model.Member {
	out := make([]model.Member, len(s.snapshot))
	copy(out, s.snapshot)
	return out
}

// Desired returns the current desired member-id selection.
func (s *Session) Desired() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.desired))
	copy(out, s.desired)
	return out
}

// SetDesired replaces the desired member-id selection. Allowed while
// Selecting; calling it after a Prepare drops the session back to
// Selecting and discards the stale change-set.
func (s *Session) SetDesired(ids []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSelecting && s.state != StateDiffed {
		return fmt.Errorf("%w: set desired in %s", ErrInvalidState, s.state)
	}
	s.desired = append([]int(nil), ids...)
	s.state = StateSelecting
	s.changeSet = ChangeSet{}
	return nil
}

// Prepare computes the change-set against the session snapshot and moves
// the session to Diffed, awaiting confirmation.
func (s *Session) Prepare() (ChangeSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSelecting && s.state != StateDiffed {
		return ChangeSet{}, fmt.Errorf("%w: prepare in %s", ErrInvalidState, s.state)
	}
	cs, err := Diff(s.group.ID, s.snapshot, s.desired)
	if err != nil {
		return ChangeSet{}, err
	}
	s.changeSet = cs
	s.state = StateDiffed
	return cs, nil
}

// ChangeSet returns the change-set computed by the last Prepare.
func (s *Session) ChangeSet() ChangeSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changeSet
}

// Confirm applies the prepared change-set. An empty change-set is a
// no-op: the session returns to Selecting and no call is issued.
//
// The apply sequence is two-phase and non-atomic. Phase 1 issues the
// full-replacement set-members call; its failure aborts everything.
// Phase 2 issues one clear call per removed member; the calls are
// independent and run concurrently, and every outcome is reported.
// Once Applying has begun the session is no longer cancellable: it
// waits for all in-flight calls and reports the true resulting state.
func (s *Session) Confirm(ctx context.Context, applier Applier) (Result, error) {
	s.mu.Lock()
	if s.state != StateDiffed {
		s.mu.Unlock()
		return Result{}, fmt.Errorf("%w: confirm in %s", ErrInvalidState, s.state)
	}
	if s.changeSet.Empty() {
		s.state = StateSelecting
		s.mu.Unlock()
		return Result{}, ErrNoChanges
	}
	s.state = StateApplying
	cs := s.changeSet
	s.mu.Unlock()

	// Phase 1: full-replacement membership write. Must complete before
	// any removal is attempted.
	if err := applier.SetMembers(ctx, cs.GroupID, cs.DesiredIDs()); err != nil {
		res := Result{Phase1Err: err}
		s.finish(StateFailed)
		return res, &ApplyError{GroupID: cs.GroupID, Phase1: err}
	}

	res := Result{Removals: s.applyRemovals(ctx, applier, cs.Removed)}
	if len(res.Failed()) > 0 {
		s.finish(StateFailed)
		return res, &ApplyError{GroupID: cs.GroupID, Removals: res.Removals}
	}
	s.finish(StateCommitted)
	return res, nil
}

// applyRemovals fans the clear calls out with bounded concurrency. No
// ordering is required between them: each targets a disjoint member. A
// failure on one never blocks attempts on the others.
func (s *Session) applyRemovals(ctx context.Context, applier Applier, removed []model.Member) []RemovalOutcome {
	outcomes := make([]RemovalOutcome, 0, len(removed))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, m := range removed {
		m := m
		g.Go(func() error {
			err := applier.ClearGroup(gctx, m.ID)
			mu.Lock()
			outcomes = append(outcomes, RemovalOutcome{MemberID: m.ID, Err: err})
			mu.Unlock()
			// Failures are collected, never propagated, so sibling
			// removals keep running.
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].MemberID < outcomes[j].MemberID })
	return outcomes
}

// Cancel abandons the session. Allowed any time before Applying; no
// calls are issued and the snapshot is discarded with the session.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSelecting && s.state != StateDiffed {
		return fmt.Errorf("%w: cancel in %s", ErrInvalidState, s.state)
	}
	s.state = StateCancelled
	return nil
}

func (s *Session) finish(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
