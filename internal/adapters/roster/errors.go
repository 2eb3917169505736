package roster

import (
	"errors"
	"fmt"
)

// Sentinel kinds for roster errors.
var (
	ErrNotFound = errors.New("not found")
)

// CallError classifies a failed collaborator call with enough detail
// (operation + affected identifiers) for manual remediation. The core
// never retries; retry policy belongs to the transport.
type CallError struct {
	Op       string
	GroupID  int
	MemberID int
	Err      error
}

func (e *CallError) Error() string {
	switch {
	case e.GroupID != 0 && e.MemberID != 0:
		return fmt.Sprintf("%s (group %d, member %d): %v", e.Op, e.GroupID, e.MemberID, e.Err)
	case e.GroupID != 0:
		return fmt.Sprintf("%s (group %d): %v", e.Op, e.GroupID, e.Err)
	case e.MemberID != 0:
		return fmt.Sprintf("%s (member %d): %v", e.Op, e.MemberID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }
