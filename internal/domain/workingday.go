package domain

import "time"

// UserConfig holds per-user attendance settings. The zero value (no weekly
// days off) is a valid configuration.
type UserConfig struct {
	// WeeklyDaysOff are ISO weekday numbers, Monday=1 .. Sunday=7.
	WeeklyDaysOff []int
}

// ISOWeekday maps time.Weekday to ISO numbering (Monday=1 .. Sunday=7).
func ISOWeekday(w time.Weekday) int {
	if w == time.Sunday {
		return 7
	}
	return int(w)
}

func (c UserConfig) hasDayOff(w time.Weekday) bool {
	iso := ISOWeekday(w)
	for _, d := range c.WeeklyDaysOff {
		if d == iso {
			return true
		}
	}
	return false
}

// IsWorkingDay reports whether d counts toward attendance. Sunday is never a
// working day; configured weekly days off are excluded as well. Holidays and
// enrollment are not consulted here — the aggregator applies those from the
// day records.
func IsWorkingDay(d Date, cfg UserConfig) bool {
	w := d.Weekday()
	if w == time.Sunday {
		return false
	}
	return !cfg.hasDayOff(w)
}
