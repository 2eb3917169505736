// Package card models one member's one-day scorecard and its derived
// totals. A card holds a fixed ordered set of named fields, each scored
// on a 0-10 scale in half-point steps.
package card

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rayyanhq/mutabaa/internal/domain/model"
)

// Scoring bounds shared by every field.
const (
	MinValue = 0.0
	MaxValue = 10.0
	Step     = 0.5
)

// DefaultFields is the fixed ordered field registry of the program's
// daily card. Order matters for display; the set matters for Max().
var DefaultFields = []string{
	"quran",
	"duas",
	"taraweeh",
	"tahajjud",
	"duha",
	"rawatib",
	"main_lesson",
	"required_lesson",
	"enrichment_lesson",
	"charity_worship",
	"extra_work",
}

// cellKind tags the editing state of a single field value.
type cellKind int

const (
	kindUnset cellKind = iota
	kindPending
	kindCommitted
)

// Cell is the tagged value of one field: Unset, Pending (raw text from an
// in-progress edit, never summed), or Committed (validated number).
type Cell struct {
	kind  cellKind
	raw   string
	value float64
}

// Pending reports whether the cell holds unresolved edit text.
func (c Cell) Pending() bool { return c.kind == kindPending }

// Value returns the committed number and true, or 0 and false when the
// cell is unset or pending.
func (c Cell) Value() (float64, bool) {
	if c.kind == kindCommitted {
		return c.value, true
	}
	return 0, false
}

// Card is a single (member, date) scorecard under edit or review.
type Card struct {
	MemberID int
	Date     time.Time
	Note     string

	fields []string
	cells  map[string]Cell
}

// New creates an empty card over the default field registry.
func New(memberID int, date time.Time) *Card {
	return NewWithFields(memberID, date, DefaultFields)
}

// NewWithFields creates an empty card over a custom field registry.
func NewWithFields(memberID int, date time.Time, fields []string) *Card {
	return &Card{
		MemberID: memberID,
		Date:     model.Day(date),
		fields:   fields,
		cells:    make(map[string]Cell, len(fields)),
	}
}

// FromRecord builds a card from a persisted record: every recognized
// field becomes a committed cell (absent values default to 0 implicitly,
// via the unset state contributing nothing and Value(field) reading 0).
// Values outside the valid range are a data-integrity failure.
func FromRecord(rec model.CardRecord) (*Card, error) {
	c := New(rec.MemberID, rec.Date)
	c.Note = rec.Note
	for _, f := range c.fields {
		v, ok := rec.Values[f]
		if !ok {
			continue
		}
		if err := c.Set(f, v); err != nil {
			return nil, fmt.Errorf("record for member %d on %s: %w",
				rec.MemberID, rec.Date.Format(time.DateOnly), err)
		}
	}
	return c, nil
}

// Fields returns the card's ordered field registry.
func (c *Card) Fields() []string { return c.fields }

// Set commits a numeric value for a field. Values outside [0,10] or off
// the half-point grid are rejected and the previous cell state retained.
func (c *Card) Set(field string, v float64) error {
	if !c.recognized(field) {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	if !validValue(v) {
		return &RangeError{Field: field, Value: v}
	}
	c.cells[field] = Cell{kind: kindCommitted, value: v}
	return nil
}

// SetRaw stores in-progress edit text for a field without interpreting
// it. The cell stops contributing to Total until Resolve commits it.
func (c *Card) SetRaw(field, raw string) error {
	if !c.recognized(field) {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	c.cells[field] = Cell{kind: kindPending, raw: raw}
	return nil
}

// Cell returns the tagged state of one field.
func (c *Card) Cell(field string) Cell { return c.cells[field] }

// Value returns the committed value of a field, 0 when unset or pending.
func (c *Card) Value(field string) float64 {
	v, _ := c.cells[field].Value()
	return v
}

// Resolve commits every pending cell for submission. Empty or non-numeric
// text resolves to 0; numeric text outside the valid range is rejected
// with a RangeError and the card is left unmodified.
func (c *Card) Resolve() error {
	resolved := make(map[string]Cell, len(c.cells))
	for f, cell := range c.cells {
		if cell.kind != kindPending {
			resolved[f] = cell
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(cell.raw), 64)
		if err != nil {
			resolved[f] = Cell{kind: kindCommitted, value: 0}
			continue
		}
		if !validValue(v) {
			return &RangeError{Field: f, Value: v}
		}
		resolved[f] = Cell{kind: kindCommitted, value: v}
	}
	c.cells = resolved
	return nil
}

// Total sums the committed field values. Pending and unset cells count 0.
func (c *Card) Total() float64 {
	var sum float64
	for _, f := range c.fields {
		sum += c.Value(f)
	}
	return sum
}

// Max is the highest achievable total: field count times the per-field cap.
func (c *Card) Max() float64 {
	return float64(len(c.fields)) * MaxValue
}

// Percentage is Total/Max as a percentage rounded to one decimal.
// Defined as 0 when the card has no recognized fields.
func (c *Card) Percentage() float64 {
	max := c.Max()
	if max == 0 {
		return 0
	}
	return Round1(c.Total() / max * 100)
}

// Verify cross-checks a collaborator-supplied percentage against the
// locally computed one. Local computation stays the source of truth;
// a disagreement is reported, never adopted.
func (c *Card) Verify(supplied float64) error {
	local := c.Percentage()
	if math.Abs(local-supplied) > 0.05 {
		return fmt.Errorf("%w: local %.1f, supplied %.1f", ErrPercentageMismatch, local, supplied)
	}
	return nil
}

// Record snapshots the card into a persistable record. Pending cells must
// be resolved first; Record resolves implicitly and propagates errors.
func (c *Card) Record() (model.CardRecord, error) {
	if err := c.Resolve(); err != nil {
		return model.CardRecord{}, err
	}
	values := make(map[string]float64, len(c.fields))
	for _, f := range c.fields {
		values[f] = c.Value(f)
	}
	return model.CardRecord{
		MemberID:   c.MemberID,
		Date:       c.Date,
		Values:     values,
		Note:       c.Note,
		Total:      c.Total(),
		Max:        c.Max(),
		Percentage: c.Percentage(),
	}, nil
}

// ValidateDate rejects future-dated submissions.
func ValidateDate(date, now time.Time) error {
	if model.Day(date).After(model.Day(now)) {
		return ErrFutureDate
	}
	return nil
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func (c *Card) recognized(field string) bool {
	for _, f := range c.fields {
		if f == field {
			return true
		}
	}
	return false
}

func validValue(v float64) bool {
	if v < MinValue || v > MaxValue {
		return false
	}
	// Half-point grid: v*2 must be whole.
	_, frac := math.Modf(v * 2)
	return frac == 0
}
