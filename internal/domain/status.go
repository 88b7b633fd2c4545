package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidStatus = errors.New("invalid status")

// StatusKind is the wire value of a day's attendance status.
type StatusKind string

const (
	StatusPresent     StatusKind = "present"
	StatusAbsent      StatusKind = "absent"
	StatusHoliday     StatusKind = "holiday"
	StatusNotEnrolled StatusKind = "not-enrolled"
)

// DayStatus is the tagged status variant for one calendar day.
// HolidayName is meaningful only when Kind is StatusHoliday.
type DayStatus struct {
	Kind        StatusKind
	HolidayName string
}

func Present() DayStatus     { return DayStatus{Kind: StatusPresent} }
func Absent() DayStatus      { return DayStatus{Kind: StatusAbsent} }
func NotEnrolled() DayStatus { return DayStatus{Kind: StatusNotEnrolled} }

func Holiday(name string) DayStatus {
	return DayStatus{Kind: StatusHoliday, HolidayName: name}
}

// ParseStatusKind validates a wire status value.
func ParseStatusKind(s string) (StatusKind, error) {
	switch StatusKind(s) {
	case StatusPresent, StatusAbsent, StatusHoliday, StatusNotEnrolled:
		return StatusKind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Valid reports whether the status carries a known kind.
func (s DayStatus) Valid() bool {
	_, err := ParseStatusKind(string(s.Kind))
	return err == nil
}

// Equal compares the full variant, including the holiday name.
func (s DayStatus) Equal(o DayStatus) bool { return s == o }

func (s DayStatus) String() string {
	if s.Kind == StatusHoliday && s.HolidayName != "" {
		return string(s.Kind) + " (" + s.HolidayName + ")"
	}
	return string(s.Kind)
}

// DayRecord is the persisted status for one user on one calendar date.
type DayRecord struct {
	Status    DayStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
