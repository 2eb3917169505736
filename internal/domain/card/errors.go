package card

import (
	"errors"
	"fmt"
)

// Sentinel kinds for card validation errors. These allow errors.Is/As
// from callers.
var (
	ErrUnknownField       = errors.New("unknown score field")
	ErrFutureDate         = errors.New("card date is in the future")
	ErrPercentageMismatch = errors.New("supplied percentage disagrees with computed value")
)

// RangeError reports a score value outside the allowed [0,10] half-point
// grid. The previous cell value is retained when this is returned.
type RangeError struct {
	Field string
	Value float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("score %v for field %q outside [%v,%v] in steps of %v",
		e.Value, e.Field, MinValue, MaxValue, Step)
}
