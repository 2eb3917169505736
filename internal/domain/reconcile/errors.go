package reconcile

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds for reconciliation errors. These allow errors.Is/As
// from callers.
var (
	ErrUnknownMember = errors.New("desired member not in snapshot")
	ErrNoChanges     = errors.New("change-set is empty, nothing to apply")
	ErrInvalidState  = errors.New("operation not allowed in current session state")
)

// ApplyError is the typed partial-failure report of an apply sequence.
// Phase1 holds the fatal set-members error when phase 1 failed (in which
// case no removals were attempted). Otherwise Removals lists the outcome
// of every clear call, successes included.
type ApplyError struct {
	GroupID  int
	Phase1   error
	Removals []RemovalOutcome
}

func (e *ApplyError) Error() string {
	if e.Phase1 != nil {
		return fmt.Sprintf("set members for group %d failed: %v", e.GroupID, e.Phase1)
	}
	var failed []string
	for _, r := range e.Removals {
		if r.Err != nil {
			failed = append(failed, fmt.Sprintf("member %d: %v", r.MemberID, r.Err))
		}
	}
	return fmt.Sprintf("group %d: %d of %d removals failed (%s)",
		e.GroupID, len(failed), len(e.Removals), strings.Join(failed, "; "))
}

func (e *ApplyError) Unwrap() error { return e.Phase1 }
