package domain

import "time"

// NextReminder computes the next instant, on the clock's shifted scale, at
// which a mark reminder should fire: the next working day at hour:00,
// strictly after now. Days off are skipped; the scan is capped so a config
// with every weekday off cannot loop forever.
func NextReminder(now time.Time, hour int, cfg UserConfig) time.Time {
	if hour < 0 || hour > 23 {
		hour = 20
	}
	day := DateOf(now)
	for i := 0; i < 14; i++ {
		at := time.Date(day.Year, day.Month, day.Day, hour, 0, 0, 0, time.UTC)
		if at.After(now) && IsWorkingDay(day, cfg) {
			return at
		}
		day = day.Next()
	}
	// Everything off: fall back to two weeks out so the scheduler re-checks
	// after a config change.
	return now.Add(14 * 24 * time.Hour)
}
