// Package rank reduces collections of scorecards into per-member totals
// and produces deterministically ordered leaderboard rows.
package rank

import (
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/rayyanhq/mutabaa/internal/domain/card"
	"github.com/rayyanhq/mutabaa/internal/domain/model"
)

// SortKey selects the primary ordering of a ranking.
type SortKey string

const (
	SortByScore SortKey = "score"
	SortByName  SortKey = "name"
)

// Direction of the primary sort.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// DefaultDirection is descending for scores and ascending for names.
func DefaultDirection(key SortKey) Direction {
	if key == SortByName {
		return Ascending
	}
	return Descending
}

// TopThree marks the distinguished display band.
const topThree = 3

// Row is one ranked leaderboard entry.
type Row struct {
	MemberID       int
	Name           string
	Gender         model.Gender
	GroupID        int
	GroupName      string
	SupervisorName string

	Total      float64
	MaxTotal   float64
	Percentage float64
	Cards      int

	Rank     int  // dense 1-based position in the tie-broken order
	TopThree bool // presentation hint, not a ranking concept
}

// Ranker aggregates and orders rows using locale-aware name collation.
type Ranker struct {
	collator *collate.Collator
}

// New creates a Ranker collating names for the given language.
func New(tag language.Tag) *Ranker {
	return &Ranker{collator: collate.New(tag)}
}

// Aggregate computes one row per member from the cards whose date falls
// in the window. Totals are recomputed from field values; collaborator
// totals are never trusted. Members with no cards in the window get a
// zero row rather than being dropped.
func (r *Ranker) Aggregate(members []model.Member, cards []model.CardRecord, w Window) ([]Row, error) {
	byMember := make(map[int][]model.CardRecord, len(members))
	for _, rec := range cards {
		if !w.Contains(rec.Date) {
			continue
		}
		byMember[rec.MemberID] = append(byMember[rec.MemberID], rec)
	}

	rows := make([]Row, 0, len(members))
	for _, m := range members {
		row := Row{
			MemberID:  m.ID,
			Name:      m.Name,
			Gender:    m.Gender,
			GroupID:   m.GroupID,
			GroupName: m.GroupName,
		}
		var maxTotal float64
		for _, rec := range byMember[m.ID] {
			c, err := card.FromRecord(rec)
			if err != nil {
				return nil, fmt.Errorf("aggregate: %w", err)
			}
			row.Total += c.Total()
			maxTotal += c.Max()
			row.Cards++
		}
		row.MaxTotal = maxTotal
		if maxTotal > 0 {
			row.Percentage = card.Round1(row.Total / maxTotal * 100)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Order sorts rows by the given key and direction, breaking exact ties
// by member ID ascending, and assigns dense 1-based ranks over the fully
// tie-broken order. Repeated runs over identical input yield identical
// output.
func (r *Ranker) Order(rows []Row, key SortKey, dir Direction) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)

	less := r.primaryLess(key, dir)
	sort.SliceStable(out, func(i, j int) bool {
		if c := less(out[i], out[j]); c != 0 {
			return c < 0
		}
		return out[i].MemberID < out[j].MemberID
	})

	for i := range out {
		out[i].Rank = i + 1
		out[i].TopThree = out[i].Rank <= topThree
	}
	return out
}

// primaryLess returns a three-way comparator for the primary sort key.
func (r *Ranker) primaryLess(key SortKey, dir Direction) func(a, b Row) int {
	reverse := 1
	if dir == Descending {
		reverse = -1
	}
	if key == SortByName {
		return func(a, b Row) int {
			return reverse * r.collator.CompareString(a.Name, b.Name)
		}
	}
	return func(a, b Row) int {
		switch {
		case a.Total < b.Total:
			return reverse * -1
		case a.Total > b.Total:
			return reverse * 1
		}
		return 0
	}
}
