package attendance

import (
	"context"

	"github.com/ykvlv/attendance-bot/internal/domain"
)

// RangeResult is the outcome of aggregating a date window.
type RangeResult struct {
	Percentage       int
	PresentDays      int
	TotalWorkingDays int
}

// Aggregator computes present/total ratios over date windows. It is
// read-only: every call re-walks its range against a fresh store snapshot,
// so results are pure in (records, config, today) and tolerate concurrent
// writes landing before or after the snapshot.
type Aggregator struct {
	days    *Store
	configs *Configs
	clock   domain.Clock
}

func NewAggregator(days *Store, configs *Configs, clock domain.Clock) *Aggregator {
	return &Aggregator{days: days, configs: configs, clock: clock}
}

// MonthlyPercentage aggregates one calendar month given as YYYY-MM.
func (a *Aggregator) MonthlyPercentage(ctx context.Context, uid, yearMonth string) (int, error) {
	w, err := domain.MonthWindow(yearMonth)
	if err != nil {
		return 0, err
	}
	res, err := a.RangePercentage(ctx, uid, w)
	if err != nil {
		return 0, err
	}
	return res.Percentage, nil
}

// RangePercentage walks [w.Start, w.End] one day at a time. A day joins the
// denominator only if it is not in the future, is a working day, and is not
// marked holiday or not-enrolled; of those, days marked present join the
// numerator. An unmarked working day counts against the user.
func (a *Aggregator) RangePercentage(ctx context.Context, uid string, w domain.Window) (RangeResult, error) {
	cfg, err := a.configs.Get(ctx, uid)
	if err != nil {
		return RangeResult{}, err
	}
	records, err := a.days.loadRange(ctx, uid)
	if err != nil {
		return RangeResult{}, err
	}

	today := a.clock.Today()
	var res RangeResult
	for d := w.Start; !d.After(w.End); d = d.Next() {
		if d.After(today) {
			break
		}
		if !domain.IsWorkingDay(d, cfg) {
			continue
		}
		rec, marked := records[d.String()]
		if marked && (rec.Status.Kind == domain.StatusHoliday || rec.Status.Kind == domain.StatusNotEnrolled) {
			continue
		}
		res.TotalWorkingDays++
		if marked && rec.Status.Kind == domain.StatusPresent {
			res.PresentDays++
		}
	}
	res.Percentage = roundPercent(res.PresentDays, res.TotalWorkingDays)
	return res, nil
}

// roundPercent is round-half-up of 100*present/total in integer arithmetic.
func roundPercent(present, total int) int {
	if total == 0 {
		return 0
	}
	return (200*present + total) / (2 * total)
}
