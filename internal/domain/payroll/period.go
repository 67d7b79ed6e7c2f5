package payroll

import (
	"fmt"
	"time"

	"github.com/gestor/backend/internal/domain/shared"
)

// Period identifies one payroll month
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// NewPeriod creates a validated period
func NewPeriod(month, year int) (Period, error) {
	p := Period{Month: month, Year: year}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// PeriodOf returns the period containing the given time
func PeriodOf(t time.Time) Period {
	return Period{Month: int(t.Month()), Year: t.Year()}
}

// Validate checks month and year ranges
func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return shared.NewDomainError("INVALID_PERIOD", "Month must be between 1 and 12")
	}
	if p.Year < 2000 || p.Year > 2200 {
		return shared.NewDomainError("INVALID_PERIOD", "Year is out of range")
	}
	return nil
}

// Previous returns the preceding calendar month
func (p Period) Previous() Period {
	if p.Month == 1 {
		return Period{Month: 12, Year: p.Year - 1}
	}
	return Period{Month: p.Month - 1, Year: p.Year}
}

// Next returns the following calendar month
func (p Period) Next() Period {
	if p.Month == 12 {
		return Period{Month: 1, Year: p.Year + 1}
	}
	return Period{Month: p.Month + 1, Year: p.Year}
}

// Start returns the first instant of the period's calendar month
func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.Local)
}

// End returns the last instant of the period's calendar month
func (p Period) End() time.Time {
	return p.Next().Start().Add(-time.Nanosecond)
}

// Contains reports whether t falls inside the calendar month
func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.Year && int(t.Month()) == p.Month
}

// Before reports whether p is strictly earlier than other
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

// Equals reports whether both periods are the same month
func (p Period) Equals(other Period) bool {
	return p.Month == other.Month && p.Year == other.Year
}

// String returns "MM/YYYY"
func (p Period) String() string {
	return fmt.Sprintf("%02d/%04d", p.Month, p.Year)
}

// OpenWindow is the date range during which advances, absences and internal
// consumption accrue toward a period's close. Closings can happen mid-month,
// so the window starts at the previous month's closing timestamp rather than
// the calendar month boundary, and runs to "now" rather than month-end.
type OpenWindow struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t falls inside the window (From inclusive)
func (w OpenWindow) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// ResolveOpenWindow computes the open window for a period given the previous
// month's closing timestamp. When the previous month has not been closed the
// period is unavailable: closings proceed strictly in calendar order.
// previousClosedAt may be nil only for the very first period in the system,
// in which case the window starts at the calendar month start.
func ResolveOpenWindow(p Period, previousClosedAt *time.Time, firstPeriod bool, now time.Time) (OpenWindow, error) {
	if previousClosedAt == nil {
		if !firstPeriod {
			return OpenWindow{}, shared.ErrPeriodUnavailable
		}
		return OpenWindow{From: p.Start(), To: now}, nil
	}
	return OpenWindow{From: *previousClosedAt, To: now}, nil
}

// EndOfDay returns the last instant of the given day, used to stamp closings
// at the end of the selected date.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
