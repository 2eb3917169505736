package rank_test

import (
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/rayyanhq/mutabaa/internal/domain/model"
	"github.com/rayyanhq/mutabaa/internal/domain/rank"
	. "github.com/smartystreets/goconvey/convey"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func record(memberID int, date time.Time, values map[string]float64) model.CardRecord {
	return model.CardRecord{MemberID: memberID, Date: date, Values: values}
}

func TestWindow(t *testing.T) {
	Convey("Given the different window kinds", t, func() {
		Convey("AllTime contains any date", func() {
			So(rank.AllTime().Contains(day(1999, 1, 1)), ShouldBeTrue)
			So(rank.AllTime().Contains(day(2100, 12, 31)), ShouldBeTrue)
		})

		Convey("DayOf contains exactly one date", func() {
			w := rank.DayOf(day(2026, 3, 5))
			So(w.Contains(day(2026, 3, 5)), ShouldBeTrue)
			So(w.Contains(day(2026, 3, 4)), ShouldBeFalse)
			So(w.Contains(day(2026, 3, 6)), ShouldBeFalse)
			So(w.Days(), ShouldEqual, 1)
		})

		Convey("WeekOf anchors on Monday", func() {
			// 2026-03-05 is a Thursday; its week starts Monday 2026-03-02.
			w := rank.WeekOf(day(2026, 3, 5))
			start, end := w.Bounds()
			So(start, ShouldEqual, day(2026, 3, 2))
			So(end, ShouldEqual, day(2026, 3, 5))
			So(w.Contains(day(2026, 3, 1)), ShouldBeFalse)
			So(w.Contains(day(2026, 3, 2)), ShouldBeTrue)
		})

		Convey("LastDays is a rolling inclusive window", func() {
			w := rank.LastDays(day(2026, 3, 10), 7)
			So(w.Contains(day(2026, 3, 4)), ShouldBeTrue)
			So(w.Contains(day(2026, 3, 3)), ShouldBeFalse)
			So(w.Days(), ShouldEqual, 7)
		})

		Convey("Between is inclusive on both edges", func() {
			w := rank.Between(day(2026, 3, 1), day(2026, 3, 3))
			So(w.Contains(day(2026, 3, 1)), ShouldBeTrue)
			So(w.Contains(day(2026, 3, 3)), ShouldBeTrue)
			So(w.Contains(day(2026, 3, 4)), ShouldBeFalse)
			So(w.Days(), ShouldEqual, 3)
		})
	})
}

func TestAggregate(t *testing.T) {
	Convey("Given members with cards across several days", t, func() {
		r := rank.New(language.Arabic)
		members := []model.Member{
			{ID: 1, Name: "أحمد"},
			{ID: 2, Name: "بلال"},
			{ID: 3, Name: "خالد"},
		}
		cards := []model.CardRecord{
			record(1, day(2026, 3, 1), map[string]float64{"quran": 10, "duas": 10}),
			record(1, day(2026, 3, 2), map[string]float64{"quran": 5}),
			record(2, day(2026, 3, 1), map[string]float64{"quran": 8}),
		}

		Convey("When aggregating all-time", func() {
			rows, err := r.Aggregate(members, cards, rank.AllTime())
			So(err, ShouldBeNil)

			Convey("Then totals and card counts are summed per member", func() {
				So(rows, ShouldHaveLength, 3)
				So(rows[0].Total, ShouldEqual, 25)
				So(rows[0].Cards, ShouldEqual, 2)
				So(rows[0].MaxTotal, ShouldEqual, 220)
				So(rows[0].Percentage, ShouldEqual, 11.4) // 25/220*100 = 11.36
			})

			Convey("And a member without cards gets a zero row", func() {
				So(rows[2].MemberID, ShouldEqual, 3)
				So(rows[2].Total, ShouldEqual, 0)
				So(rows[2].Cards, ShouldEqual, 0)
				So(rows[2].Percentage, ShouldEqual, 0)
			})
		})

		Convey("When aggregating a single day", func() {
			rows, err := r.Aggregate(members, cards, rank.DayOf(day(2026, 3, 2)))
			So(err, ShouldBeNil)

			So(rows[0].Total, ShouldEqual, 5)
			So(rows[0].Cards, ShouldEqual, 1)
			So(rows[1].Cards, ShouldEqual, 0)
		})

		Convey("When a record carries an invalid value", func() {
			bad := append(cards, record(3, day(2026, 3, 1), map[string]float64{"quran": 99}))
			_, err := r.Aggregate(members, bad, rank.AllTime())

			So(err, ShouldNotBeNil)
		})
	})
}

func TestOrder(t *testing.T) {
	Convey("Given aggregated rows with a tied score", t, func() {
		r := rank.New(language.Arabic)
		rows := []rank.Row{
			{MemberID: 3, Name: "خالد", Total: 40},
			{MemberID: 1, Name: "أحمد", Total: 90},
			{MemberID: 2, Name: "بلال", Total: 40},
		}

		Convey("When ordering by score descending", func() {
			out := r.Order(rows, rank.SortByScore, rank.Descending)

			Convey("Then ties break by member ID ascending", func() {
				So(out[0].MemberID, ShouldEqual, 1)
				So(out[1].MemberID, ShouldEqual, 2)
				So(out[2].MemberID, ShouldEqual, 3)
			})

			Convey("And ranks are dense, sequential and 1-based", func() {
				So(out[0].Rank, ShouldEqual, 1)
				So(out[1].Rank, ShouldEqual, 2)
				So(out[2].Rank, ShouldEqual, 3)
			})

			Convey("And the top three are flagged", func() {
				So(out[0].TopThree, ShouldBeTrue)
				So(out[2].TopThree, ShouldBeTrue)
			})

			Convey("And the input slice is not mutated", func() {
				So(rows[0].MemberID, ShouldEqual, 3)
				So(rows[0].Rank, ShouldEqual, 0)
			})
		})

		Convey("When ordering by name ascending", func() {
			out := r.Order(rows, rank.SortByName, rank.Ascending)

			So(out[0].Name, ShouldEqual, "أحمد")
			So(out[1].Name, ShouldEqual, "بلال")
			So(out[2].Name, ShouldEqual, "خالد")
		})

		Convey("When ordering by name descending", func() {
			out := r.Order(rows, rank.SortByName, rank.Descending)

			So(out[0].Name, ShouldEqual, "خالد")
		})

		Convey("Then two independent runs produce identical orderings", func() {
			a := r.Order(rows, rank.SortByScore, rank.Descending)
			b := r.Order(rows, rank.SortByScore, rank.Descending)
			So(a, ShouldResemble, b)
		})
	})

	Convey("Given rows beyond the top three", t, func() {
		r := rank.New(language.Arabic)
		rows := []rank.Row{
			{MemberID: 1, Total: 10},
			{MemberID: 2, Total: 20},
			{MemberID: 3, Total: 30},
			{MemberID: 4, Total: 40},
		}

		out := r.Order(rows, rank.SortByScore, rank.Descending)
		So(out[2].TopThree, ShouldBeTrue)
		So(out[3].TopThree, ShouldBeFalse)
		So(out[3].Rank, ShouldEqual, 4)
	})
}

func TestDefaultDirection(t *testing.T) {
	Convey("Score defaults descending, name defaults ascending", t, func() {
		So(rank.DefaultDirection(rank.SortByScore), ShouldEqual, rank.Descending)
		So(rank.DefaultDirection(rank.SortByName), ShouldEqual, rank.Ascending)
	})
}
