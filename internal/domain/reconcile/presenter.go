package reconcile

// MovedLine is one moved member in a confirmation summary: the display
// name plus the origin group's name, both resolved from the same
// snapshot the diff was computed from.
type MovedLine struct {
	Name      string
	FromGroup string
}

// Summary is the human-reviewable rendering of a change-set, shown
// before commit. It is purely derived; building it has no side effects.
type Summary struct {
	GroupID   int
	GroupName string

	Added     []string
	Moved     []MovedLine
	Removed   []string
	Unchanged int // count only; unchanged members are not enumerated

	// Empty is the "no changes" state; commit must be disabled then.
	Empty     bool
	CanCommit bool
}

// Summarize renders a change-set for confirmation. Names come from the
// members carried inside the change-set itself, which were resolved from
// the session snapshot; no second, possibly-stale lookup happens here.
func Summarize(groupName string, cs ChangeSet) Summary {
	s := Summary{
		GroupID:   cs.GroupID,
		GroupName: groupName,
		Unchanged: len(cs.Unchanged),
		Empty:     cs.Empty(),
	}
	s.CanCommit = !s.Empty

	for _, m := range cs.Added {
		s.Added = append(s.Added, m.Name)
	}
	for _, mv := range cs.Moved {
		s.Moved = append(s.Moved, MovedLine{Name: mv.Member.Name, FromGroup: mv.FromGroupName})
	}
	for _, m := range cs.Removed {
		s.Removed = append(s.Removed, m.Name)
	}
	return s
}
