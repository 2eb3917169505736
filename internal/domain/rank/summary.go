package rank

import (
	"sort"
	"time"

	"github.com/rayyanhq/mutabaa/internal/domain/card"
	"github.com/rayyanhq/mutabaa/internal/domain/model"
)

// Submission pairs a member with the card they submitted for a date.
type Submission struct {
	Member model.Member
	Card   model.CardRecord
}

// DailySummary splits a group's members into those who submitted a card
// for a date and those who did not.
type DailySummary struct {
	Date         time.Time
	Submitted    []Submission
	NotSubmitted []model.Member
	TotalMembers int
}

// Daily builds the submission summary for one calendar date. Cards
// outside that date are ignored. Derived totals are recomputed from the
// field values on ingest, the same source of truth Aggregate uses;
// collaborator-supplied totals are never carried into the summary.
func Daily(members []model.Member, cards []model.CardRecord, date time.Time) DailySummary {
	w := DayOf(date)
	byMember := make(map[int]model.CardRecord, len(cards))
	for _, rec := range cards {
		if !w.Contains(rec.Date) {
			continue
		}
		if c, err := card.FromRecord(rec); err == nil {
			rec.Total = c.Total()
			rec.Max = c.Max()
			rec.Percentage = c.Percentage()
		}
		byMember[rec.MemberID] = rec
	}

	s := DailySummary{Date: model.Day(date), TotalMembers: len(members)}
	for _, m := range members {
		if rec, ok := byMember[m.ID]; ok {
			s.Submitted = append(s.Submitted, Submission{Member: m, Card: rec})
		} else {
			s.NotSubmitted = append(s.NotSubmitted, m)
		}
	}
	return s
}

// MemberStats summarizes one participant's own standing: today's, this
// week's and overall percentages, plus their position on the all-time
// board.
type MemberStats struct {
	TodayPercentage   float64
	WeekPercentage    float64
	OverallPercentage float64
	OverallTotal      float64
	Rank              int
	TotalParticipants int
	Cards             int
}

// StatsFor computes a participant's self-view. The rank is the member's
// position among all given members on the all-time score board; a member
// with no cards still receives a deterministic position.
func (r *Ranker) StatsFor(memberID int, members []model.Member, cards []model.CardRecord, now time.Time) (MemberStats, error) {
	var stats MemberStats
	stats.TotalParticipants = len(members)

	windows := []struct {
		w   Window
		dst *float64
	}{
		{DayOf(now), &stats.TodayPercentage},
		{WeekOf(now), &stats.WeekPercentage},
		{AllTime(), &stats.OverallPercentage},
	}
	for _, win := range windows {
		rows, err := r.Aggregate(members, cards, win.w)
		if err != nil {
			return MemberStats{}, err
		}
		for _, row := range rows {
			if row.MemberID != memberID {
				continue
			}
			*win.dst = row.Percentage
			if win.w == AllTime() {
				stats.OverallTotal = row.Total
				stats.Cards = row.Cards
			}
		}
	}

	overall, err := r.Aggregate(members, cards, AllTime())
	if err != nil {
		return MemberStats{}, err
	}
	for _, row := range r.Order(overall, SortByScore, Descending) {
		if row.MemberID == memberID {
			stats.Rank = row.Rank
			break
		}
	}
	return stats, nil
}

// SortSubmissions orders submissions by card total descending with the
// member-ID tie-break, matching the board ordering guarantees.
func SortSubmissions(subs []Submission) {
	sort.SliceStable(subs, func(i, j int) bool {
		ti, tj := subs[i].Card.Total, subs[j].Card.Total
		if ti != tj {
			return ti > tj
		}
		return subs[i].Member.ID < subs[j].Member.ID
	})
}
