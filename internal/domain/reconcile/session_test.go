package reconcile_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rayyanhq/mutabaa/internal/domain/model"
	"github.com/rayyanhq/mutabaa/internal/domain/reconcile"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeApplier records membership calls and fails on demand.
type fakeApplier struct {
	mu sync.Mutex

	setCalls   [][]int
	setErr     error
	clearCalls []int
	clearErrs  map[int]error
}

func (f *fakeApplier) SetMembers(_ context.Context, _ int, memberIDs []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls = append(f.setCalls, memberIDs)
	return f.setErr
}

func (f *fakeApplier) ClearGroup(_ context.Context, memberID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearCalls = append(f.clearCalls, memberID)
	return f.clearErrs[memberID]
}

func snapshot() []model.Member {
	return []model.Member{
		{ID: 1, Name: "A", GroupID: 1, GroupName: "g1"},
		{ID: 2, Name: "B", GroupID: 1, GroupName: "g1"},
		{ID: 3, Name: "C", GroupID: 1, GroupName: "g1"},
		{ID: 4, Name: "D", GroupID: 2, GroupName: "g2"},
		{ID: 5, Name: "E"},
	}
}

func TestSessionLifecycle(t *testing.T) {
	Convey("Given a fresh session", t, func() {
		s := reconcile.Begin(model.Group{ID: 1, Name: "g1"}, snapshot())

		Convey("Then it starts Selecting with the current membership desired", func() {
			So(s.State(), ShouldEqual, reconcile.StateSelecting)
			So(s.Desired(), ShouldResemble, []int{1, 2, 3})
		})

		Convey("When preparing without changes", func() {
			cs, err := s.Prepare()
			So(err, ShouldBeNil)
			So(cs.Empty(), ShouldBeTrue)
			So(s.State(), ShouldEqual, reconcile.StateDiffed)

			Convey("Then confirming is a no-op back to Selecting", func() {
				_, err := s.Confirm(context.Background(), &fakeApplier{})
				So(errors.Is(err, reconcile.ErrNoChanges), ShouldBeTrue)
				So(s.State(), ShouldEqual, reconcile.StateSelecting)
			})
		})

		Convey("When adjusting the selection after a prepare", func() {
			_, err := s.Prepare()
			So(err, ShouldBeNil)
			So(s.SetDesired([]int{1, 2}), ShouldBeNil)

			Convey("Then the session drops back to Selecting", func() {
				So(s.State(), ShouldEqual, reconcile.StateSelecting)
				So(s.ChangeSet(), ShouldResemble, reconcile.ChangeSet{})
			})
		})

		Convey("When cancelling before applying", func() {
			So(s.Cancel(), ShouldBeNil)
			So(s.State(), ShouldEqual, reconcile.StateCancelled)

			Convey("Then no further operation is allowed", func() {
				So(errors.Is(s.SetDesired(nil), reconcile.ErrInvalidState), ShouldBeTrue)
				_, err := s.Prepare()
				So(errors.Is(err, reconcile.ErrInvalidState), ShouldBeTrue)
				So(errors.Is(s.Cancel(), reconcile.ErrInvalidState), ShouldBeTrue)
			})
		})

		Convey("When confirming without a prepare", func() {
			_, err := s.Confirm(context.Background(), &fakeApplier{})
			So(errors.Is(err, reconcile.ErrInvalidState), ShouldBeTrue)
		})

		Convey("When a caller mutates the returned snapshot", func() {
			leaked := s.Snapshot()
			leaked[0].GroupID = 99
			leaked[0].Name = "tampered"

			Convey("Then the session's own snapshot is untouched", func() {
				So(s.Snapshot()[0].Name, ShouldEqual, "A")
				So(s.Snapshot()[0].GroupID, ShouldEqual, 1)

				cs, err := s.Prepare()
				So(err, ShouldBeNil)
				So(cs.Empty(), ShouldBeTrue)
			})
		})
	})
}

func TestSessionApply(t *testing.T) {
	Convey("Given a session keeping A, adding D and E, dropping B and C", t, func() {
		s := reconcile.Begin(model.Group{ID: 1, Name: "g1"}, snapshot())
		So(s.SetDesired([]int{1, 4, 5}), ShouldBeNil)
		cs, err := s.Prepare()
		So(err, ShouldBeNil)
		So(cs.Removed, ShouldHaveLength, 2)

		Convey("When every call succeeds", func() {
			applier := &fakeApplier{}
			res, err := s.Confirm(context.Background(), applier)

			Convey("Then the session commits", func() {
				So(err, ShouldBeNil)
				So(s.State(), ShouldEqual, reconcile.StateCommitted)
			})

			Convey("And phase 1 carried the full desired set", func() {
				So(applier.setCalls, ShouldHaveLength, 1)
				So(applier.setCalls[0], ShouldResemble, []int{1, 4, 5})
			})

			Convey("And phase 2 cleared exactly the removed members", func() {
				So(res.Succeeded(), ShouldResemble, []int{2, 3})
				So(res.Failed(), ShouldBeEmpty)
			})

			Convey("And re-diffing against post-apply state is a no-op", func() {
				after := []model.Member{
					{ID: 1, Name: "A", GroupID: 1, GroupName: "g1"},
					{ID: 2, Name: "B"},
					{ID: 3, Name: "C"},
					{ID: 4, Name: "D", GroupID: 1, GroupName: "g1"},
					{ID: 5, Name: "E", GroupID: 1, GroupName: "g1"},
				}
				cs2, err := reconcile.Diff(1, after, []int{1, 4, 5})
				So(err, ShouldBeNil)
				So(cs2.Empty(), ShouldBeTrue)
			})
		})

		Convey("When phase 1 fails", func() {
			applier := &fakeApplier{setErr: errors.New("boom")}
			res, err := s.Confirm(context.Background(), applier)

			Convey("Then the whole operation aborts and nothing else is attempted", func() {
				var applyErr *reconcile.ApplyError
				So(errors.As(err, &applyErr), ShouldBeTrue)
				So(applyErr.Phase1, ShouldNotBeNil)
				So(res.Phase1Err, ShouldNotBeNil)
				So(applier.clearCalls, ShouldBeEmpty)
				So(s.State(), ShouldEqual, reconcile.StateFailed)
			})
		})

		Convey("When confirming again after a terminal state", func() {
			_, _ = s.Confirm(context.Background(), &fakeApplier{})
			_, err := s.Confirm(context.Background(), &fakeApplier{})
			So(errors.Is(err, reconcile.ErrInvalidState), ShouldBeTrue)
		})
	})

	Convey("Given three removals where one clear call fails", t, func() {
		members := []model.Member{
			{ID: 1, Name: "A", GroupID: 1},
			{ID: 2, Name: "B", GroupID: 1},
			{ID: 3, Name: "C", GroupID: 1},
			{ID: 9, Name: "Z"},
		}
		s := reconcile.Begin(model.Group{ID: 1}, members, reconcile.WithApplyConcurrency(2))
		So(s.SetDesired([]int{9}), ShouldBeNil)
		_, err := s.Prepare()
		So(err, ShouldBeNil)

		applier := &fakeApplier{clearErrs: map[int]error{2: errors.New("unreachable")}}
		res, err := s.Confirm(context.Background(), applier)

		Convey("Then the session fails with a partial report", func() {
			So(s.State(), ShouldEqual, reconcile.StateFailed)

			var applyErr *reconcile.ApplyError
			So(errors.As(err, &applyErr), ShouldBeTrue)
			So(applyErr.Phase1, ShouldBeNil)
		})

		Convey("And the report names two successes and the one failure", func() {
			So(res.Succeeded(), ShouldResemble, []int{1, 3})
			So(res.Failed(), ShouldResemble, []int{2})
		})

		Convey("And the failure on one removal did not block the others", func() {
			So(applier.clearCalls, ShouldHaveLength, 3)
		})
	})
}
