package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ykvlv/attendance-bot/internal/domain"
)

func fixedClock(s string) domain.Clock {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	// Offset zero with a pinned wall clock; noon avoids any edge around midnight.
	return domain.NewClockAt(0, func() time.Time { return t.Add(12 * time.Hour) })
}

type aggFixture struct {
	days    *Store
	configs *Configs
}

func newAggFixture(t *testing.T) aggFixture {
	docs := openTestDocs(t)
	return aggFixture{days: NewStore(docs), configs: NewConfigs(docs)}
}

func (f aggFixture) aggregator(clock domain.Clock) *Aggregator {
	return NewAggregator(f.days, f.configs, clock)
}

func (f aggFixture) mark(t *testing.T, uid, date string, st domain.DayStatus) {
	t.Helper()
	require.NoError(t, f.days.SetIfAbsent(context.Background(), uid, date, st, time.Now().UTC()))
}

// June 2024: Saturdays 1,8,15,22,29 and Sundays 2,9,16,23,30. With Saturday
// configured off, 20 working days remain; one holiday brings the denominator
// to 19.
func TestMonthlyPercentageSyntheticMonth(t *testing.T) {
	f := newAggFixture(t)
	ctx := context.Background()

	require.NoError(t, f.configs.Set(ctx, "u1", domain.UserConfig{WeeklyDaysOff: []int{6}}))
	f.mark(t, "u1", "2024-06-05", domain.Holiday("Eid"))

	present := []string{
		"2024-06-03", "2024-06-04", "2024-06-06", "2024-06-07",
		"2024-06-10", "2024-06-11", "2024-06-12", "2024-06-13", "2024-06-14",
		"2024-06-17", "2024-06-18", "2024-06-19", "2024-06-20", "2024-06-21",
		"2024-06-24",
	}
	for _, d := range present {
		f.mark(t, "u1", d, domain.Present())
	}

	agg := f.aggregator(fixedClock("2024-07-15"))
	got, err := agg.MonthlyPercentage(ctx, "u1", "2024-06")
	require.NoError(t, err)
	// round(100 * 15 / 19) = 79
	assert.Equal(t, 79, got)

	res, err := agg.RangePercentage(ctx, "u1", mustWindow(t, "2024-06-01", "2024-06-30"))
	require.NoError(t, err)
	assert.Equal(t, 15, res.PresentDays)
	assert.Equal(t, 19, res.TotalWorkingDays)
}

func TestFutureDaysNeverCounted(t *testing.T) {
	f := newAggFixture(t)
	ctx := context.Background()

	require.NoError(t, f.configs.Set(ctx, "u1", domain.UserConfig{WeeklyDaysOff: []int{6}}))
	f.mark(t, "u1", "2024-06-05", domain.Holiday("Eid"))
	for _, d := range []string{
		"2024-06-03", "2024-06-04", "2024-06-06", "2024-06-07",
		"2024-06-10", "2024-06-11", "2024-06-12", "2024-06-13", "2024-06-14",
	} {
		f.mark(t, "u1", d, domain.Present())
	}
	// A stray future mark must not enter either counter.
	f.mark(t, "u1", "2024-06-21", domain.Present())

	agg := f.aggregator(fixedClock("2024-06-14"))
	res, err := agg.RangePercentage(ctx, "u1", mustWindow(t, "2024-06-01", "2024-06-30"))
	require.NoError(t, err)
	assert.Equal(t, 9, res.PresentDays)
	assert.Equal(t, 9, res.TotalWorkingDays)
	assert.Equal(t, 100, res.Percentage)
}

func TestUnmarkedWorkingDaysCountAgainst(t *testing.T) {
	f := newAggFixture(t)
	ctx := context.Background()

	// Mon 2024-06-03 present; Tue and Wed unmarked.
	f.mark(t, "u1", "2024-06-03", domain.Present())

	agg := f.aggregator(fixedClock("2024-06-05"))
	res, err := agg.RangePercentage(ctx, "u1", mustWindow(t, "2024-06-03", "2024-06-05"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.PresentDays)
	assert.Equal(t, 3, res.TotalWorkingDays)
	assert.Equal(t, 33, res.Percentage)
}

func TestNotEnrolledDaysExcluded(t *testing.T) {
	f := newAggFixture(t)
	ctx := context.Background()

	f.mark(t, "u1", "2024-06-03", domain.Present())
	f.mark(t, "u1", "2024-06-04", domain.NotEnrolled())
	f.mark(t, "u1", "2024-06-05", domain.Absent())

	agg := f.aggregator(fixedClock("2024-06-05"))
	res, err := agg.RangePercentage(ctx, "u1", mustWindow(t, "2024-06-03", "2024-06-05"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.PresentDays)
	assert.Equal(t, 2, res.TotalWorkingDays)
	assert.Equal(t, 50, res.Percentage)
}

func TestEmptyWindowIsZeroNotPanic(t *testing.T) {
	f := newAggFixture(t)

	// All-Sunday window: denominator stays zero.
	agg := f.aggregator(fixedClock("2024-06-30"))
	res, err := agg.RangePercentage(context.Background(), "u1", mustWindow(t, "2024-06-02", "2024-06-02"))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Percentage)
	assert.Equal(t, 0, res.TotalWorkingDays)
}

func TestMonthlyPercentageRejectsBadMonth(t *testing.T) {
	f := newAggFixture(t)
	agg := f.aggregator(fixedClock("2024-06-30"))
	_, err := agg.MonthlyPercentage(context.Background(), "u1", "June 2024")
	assert.ErrorIs(t, err, domain.ErrInvalidMonth)
}

func TestRoundPercentHalfUp(t *testing.T) {
	tests := []struct{ present, total, want int }{
		{0, 0, 0},
		{0, 1, 0},
		{1, 1, 100},
		{1, 8, 13},  // 12.5 rounds up
		{1, 3, 33},  // 33.33 rounds down
		{2, 3, 67},  // 66.67 rounds up
		{20, 21, 95},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, roundPercent(tt.present, tt.total), "%d/%d", tt.present, tt.total)
	}
}

// The canonical walkthrough: mark Monday present, confirm an overwrite to
// absent, and the month reads zero percent.
func TestExampleScenario(t *testing.T) {
	f := newAggFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, f.days.SetIfAbsent(ctx, "u1", "2024-06-03", domain.Present(), now))

	err := f.days.SetIfAbsent(ctx, "u1", "2024-06-03", domain.Absent(), now)
	var already *AlreadySetError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, domain.Present(), already.Existing.Status)

	require.NoError(t, f.days.Overwrite(ctx, "u1", "2024-06-03", domain.Absent(), now))

	agg := f.aggregator(fixedClock("2024-06-03"))
	got, err := agg.MonthlyPercentage(ctx, "u1", "2024-06")
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	res, err := agg.RangePercentage(ctx, "u1", mustWindow(t, "2024-06-03", "2024-06-03"))
	require.NoError(t, err)
	assert.Equal(t, 0, res.PresentDays)
	assert.Equal(t, 1, res.TotalWorkingDays)
}

func mustWindow(t *testing.T, start, end string) domain.Window {
	t.Helper()
	s, err := domain.ParseDate(start)
	require.NoError(t, err)
	e, err := domain.ParseDate(end)
	require.NoError(t, err)
	return domain.Window{Start: s, End: e}
}
