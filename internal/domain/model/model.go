// Package model contains domain records passed between layers.
package model

import "time"

// Gender is the canonical gender code for a member.
type Gender string

// Canonical gender codes. The external service sometimes returns the
// localized Arabic labels instead; NormalizeGender maps both forms.
const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Localized labels accepted as equivalents of the canonical codes.
const (
	labelMale   = "ذكر"
	labelFemale = "أنثى"
)

// NormalizeGender maps a canonical code or a localized label to the
// canonical Gender. Unknown values are returned unchanged so that
// equality filters simply never match them.
func NormalizeGender(v string) Gender {
	switch v {
	case string(GenderMale), labelMale:
		return GenderMale
	case string(GenderFemale), labelFemale:
		return GenderFemale
	}
	return Gender(v)
}

// Status is the participation status of a member.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusRejected  Status = "rejected"
	StatusWithdrawn Status = "withdrawn"
)

// Role of a member within the program.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleSupervisor  Role = "supervisor"
	RoleAdmin       Role = "super_admin"
)

// Member represents a participant as reported by the external service.
// Group membership is single-valued: GroupID is 0 when the member has no
// group. This core only reads members and proposes GroupID changes.
type Member struct {
	ID        int
	Name      string
	Gender    Gender
	Email     string
	Phone     string
	Status    Status
	Role      Role
	GroupID   int    // 0 = no group
	GroupName string // denormalized for display, "" when GroupID is 0
}

// InGroup reports whether the member currently belongs to any group.
func (m Member) InGroup() bool { return m.GroupID != 0 }

// Group is a supervised circle of members. MemberCount is derived by the
// external service and used for display only; it is never authoritative.
type Group struct {
	ID             int
	Name           string
	SupervisorID   int // 0 = unassigned
	SupervisorName string
	MemberCount    int
}

// CardRecord is a persisted scorecard as returned by the external service:
// committed numeric field values keyed by field name, plus derived totals
// the collaborator may or may not have computed itself.
type CardRecord struct {
	ID       int
	MemberID int
	Date     time.Time // calendar date; time-of-day is ignored
	Values   map[string]float64
	Note     string

	// Collaborator-supplied derived values. Percentage is a cross-check
	// only; local recomputation is the source of truth.
	Total      float64
	Max        float64
	Percentage float64

	UpdatedAt time.Time
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}
