package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidMonth = errors.New("invalid month")
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

// Date is a calendar day with no time-of-day component.
// The zero value is not a valid date.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses an ISO YYYY-MM-DD string. Anything else is ErrInvalidDate.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

// DateOf extracts the calendar date from t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) asTime() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) Weekday() time.Weekday { return d.asTime().Weekday() }

// Next returns the following calendar day. Month and year rollover are
// handled by the time package.
func (d Date) Next() Date { return DateOf(d.asTime().AddDate(0, 0, 1)) }

func (d Date) Before(o Date) bool { return d.asTime().Before(o.asTime()) }

func (d Date) After(o Date) bool { return d.asTime().After(o.asTime()) }

// Window is an inclusive date range.
type Window struct {
	Start Date
	End   Date
}

// MonthWindow parses a YYYY-MM string into the window covering that whole
// calendar month, day 1 through the last day.
func MonthWindow(yearMonth string) (Window, error) {
	t, err := time.Parse(monthLayout, yearMonth)
	if err != nil {
		return Window{}, fmt.Errorf("%w: %q", ErrInvalidMonth, yearMonth)
	}
	first := DateOf(t)
	last := DateOf(t.AddDate(0, 1, -1))
	return Window{Start: first, End: last}, nil
}
