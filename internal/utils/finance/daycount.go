// Package finance holds the pure financial calculations used by the matcher and
// the break detectors: day counts, accrued interest, yields, FX arithmetic and
// price statistics.
package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/recon_engine/internal/apperrors"
	"github.com/shopspring/decimal"
)

// ErrInvalidCalculationInput is returned when the inputs of a calculation are
// outside its domain (unknown convention, settlement before last coupon, ...).
var ErrInvalidCalculationInput = fmt.Errorf("%w: invalid calculation input", apperrors.ErrCalculation)

// ErrNotConverged is returned by iterative solvers that run out of iterations.
var ErrNotConverged = fmt.Errorf("%w: did not converge", apperrors.ErrCalculation)

// DayCountConvention names a rule for counting days and year fractions.
type DayCountConvention string

const (
	ActualActual DayCountConvention = "ACT/ACT"
	Actual365    DayCountConvention = "ACT/365"
	Actual360    DayCountConvention = "ACT/360"
	Thirty360    DayCountConvention = "30/360"
	Thirty365    DayCountConvention = "30/365"
)

var conventionAliases = map[string]DayCountConvention{
	"ACT/ACT":       ActualActual,
	"ACTUAL/ACTUAL": ActualActual,
	"ACT/ACT ISDA":  ActualActual,
	"ACT/365":       Actual365,
	"ACTUAL/365":    Actual365,
	"ACT/365F":      Actual365,
	"ACT/360":       Actual360,
	"ACTUAL/360":    Actual360,
	"30/360":        Thirty360,
	"30/360 ISDA":   Thirty360,
	"BOND BASIS":    Thirty360,
	"30/365":        Thirty365,
}

// ParseDayCountConvention accepts the common spellings of the supported conventions.
func ParseDayCountConvention(s string) (DayCountConvention, error) {
	conv, ok := conventionAliases[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: unknown day-count convention %q", ErrInvalidCalculationInput, s)
	}
	return conv, nil
}

// IsValid reports whether c is one of the supported conventions.
func (c DayCountConvention) IsValid() bool {
	switch c {
	case ActualActual, Actual365, Actual360, Thirty360, Thirty365:
		return true
	}
	return false
}

// DaysBetween counts the days from start to end under conv. The result is
// negative when end is before start.
func DaysBetween(start, end time.Time, conv DayCountConvention) (int, error) {
	if !conv.IsValid() {
		return 0, fmt.Errorf("%w: unknown day-count convention %q", ErrInvalidCalculationInput, conv)
	}
	start, end = DateOnly(start), DateOnly(end)
	if end.Before(start) {
		n, err := DaysBetween(end, start, conv)
		return -n, err
	}
	switch conv {
	case Thirty360, Thirty365:
		return thirtyDays(start, end), nil
	default:
		return ActualDays(start, end), nil
	}
}

// YearFraction returns the fraction of a year between start and end under conv.
func YearFraction(start, end time.Time, conv DayCountConvention) (decimal.Decimal, error) {
	if !conv.IsValid() {
		return decimal.Zero, fmt.Errorf("%w: unknown day-count convention %q", ErrInvalidCalculationInput, conv)
	}
	start, end = DateOnly(start), DateOnly(end)
	if end.Before(start) {
		f, err := YearFraction(end, start, conv)
		return f.Neg(), err
	}

	switch conv {
	case ActualActual:
		return actualActualFraction(start, end), nil
	case Actual365:
		return divDays(ActualDays(start, end), 365), nil
	case Actual360:
		return divDays(ActualDays(start, end), 360), nil
	case Thirty360:
		return divDays(thirtyDays(start, end), 360), nil
	default:
		return divDays(thirtyDays(start, end), 365), nil
	}
}

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ActualDays is the calendar-day distance between two dates.
func ActualDays(start, end time.Time) int {
	return int(DateOnly(end).Sub(DateOnly(start)).Hours() / 24)
}

func divDays(days, basis int) decimal.Decimal {
	return decimal.NewFromInt(int64(days)).Div(decimal.NewFromInt(int64(basis)))
}

// thirtyDays applies the ISDA bond-basis rule: a start on the 31st becomes the
// 30th, and an end on the 31st becomes the 30th only when the start is the 30th or later.
func thirtyDays(start, end time.Time) int {
	y1, m1, d1 := start.Date()
	y2, m2, d2 := end.Date()
	if d1 == 31 {
		d1 = 30
	}
	if d2 == 31 && d1 >= 30 {
		d2 = 30
	}
	return 360*(y2-y1) + 30*(int(m2)-int(m1)) + (d2 - d1)
}

// actualActualFraction splits the span at year boundaries and divides each
// piece by the length of its own year.
func actualActualFraction(start, end time.Time) decimal.Decimal {
	total := decimal.Zero
	cursor := start
	for cursor.Before(end) {
		nextYear := time.Date(cursor.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)
		segEnd := end
		if nextYear.Before(end) {
			segEnd = nextYear
		}
		total = total.Add(divDays(ActualDays(cursor, segEnd), daysInYear(cursor.Year())))
		cursor = segEnd
	}
	return total
}

func daysInYear(year int) int {
	if IsLeapYear(year) {
		return 366
	}
	return 365
}

// IsLeapYear reports whether year has a February 29th.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// AddMonths moves t by n months, clamping to the last day of the target month.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}
