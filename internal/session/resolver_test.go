package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ykvlv/attendance-bot/internal/domain"
)

type boundsStub struct {
	window domain.Window
	ok     bool
}

func (b boundsStub) Bounds(context.Context, string) (domain.Window, bool, error) {
	return b.window, b.ok, nil
}

func clockAt(t *testing.T, s string) domain.Clock {
	t.Helper()
	day, err := domain.ParseDate(s)
	require.NoError(t, err)
	return domain.NewClockAt(0, func() time.Time {
		return time.Date(day.Year, day.Month, day.Day, 12, 0, 0, 0, time.UTC)
	})
}

func TestResolveExplicitNameNeverFallsBack(t *testing.T) {
	r := testRegistry(t, openTestDocs(t))
	ctx := context.Background()

	// A selected session exists, but an explicit miss must still fail.
	_, err := r.Create(ctx, "u1", "Fallback", date(t, "2024-01-01"), nil, true)
	require.NoError(t, err)

	res := NewResolver(r, boundsStub{}, clockAt(t, "2024-06-15"))
	_, err = res.Resolve(ctx, "u1", "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveExplicitName(t *testing.T) {
	r := testRegistry(t, openTestDocs(t))
	ctx := context.Background()

	end := date(t, "2024-05-31")
	created, err := r.Create(ctx, "u1", "Spring", date(t, "2024-03-01"), &end, false)
	require.NoError(t, err)

	res := NewResolver(r, boundsStub{}, clockAt(t, "2024-06-15"))
	got, err := res.Resolve(ctx, "u1", created.Code)
	require.NoError(t, err)
	require.NotNil(t, got.Session)
	assert.Equal(t, created.ID, got.Session.ID)
	assert.Equal(t, "2024-03-01", got.Window.Start.String())
	assert.Equal(t, "2024-05-31", got.Window.End.String())
}

func TestResolvePrefersSelected(t *testing.T) {
	r := testRegistry(t, openTestDocs(t))
	ctx := context.Background()

	selected, err := r.Create(ctx, "u1", "Selected", date(t, "2024-02-01"), nil, true)
	require.NoError(t, err)
	_, err = r.Create(ctx, "u1", "Newest", date(t, "2024-05-01"), nil, false)
	require.NoError(t, err)

	res := NewResolver(r, boundsStub{}, clockAt(t, "2024-06-15"))
	got, err := res.Resolve(ctx, "u1", "")
	require.NoError(t, err)
	require.NotNil(t, got.Session)
	assert.Equal(t, selected.ID, got.Session.ID)
}

func TestResolveFallsBackToMostRecent(t *testing.T) {
	r := testRegistry(t, openTestDocs(t))
	ctx := context.Background()

	_, err := r.Create(ctx, "u1", "Older", date(t, "2024-01-01"), nil, false)
	require.NoError(t, err)
	newest, err := r.Create(ctx, "u1", "Newest", date(t, "2024-05-01"), nil, false)
	require.NoError(t, err)

	res := NewResolver(r, boundsStub{}, clockAt(t, "2024-06-15"))
	got, err := res.Resolve(ctx, "u1", "")
	require.NoError(t, err)
	require.NotNil(t, got.Session)
	assert.Equal(t, newest.ID, got.Session.ID)
}

func TestResolveFallsBackToRecordedBounds(t *testing.T) {
	r := testRegistry(t, openTestDocs(t))
	bounds := boundsStub{
		window: domain.Window{Start: date(t, "2024-04-02"), End: date(t, "2024-06-10")},
		ok:     true,
	}

	res := NewResolver(r, bounds, clockAt(t, "2024-06-15"))
	got, err := res.Resolve(context.Background(), "u1", "")
	require.NoError(t, err)
	assert.Nil(t, got.Session)
	assert.Equal(t, "2024-04-02", got.Window.Start.String())
	assert.Equal(t, "2024-06-10", got.Window.End.String())
}

func TestResolveDefaultsToToday(t *testing.T) {
	r := testRegistry(t, openTestDocs(t))

	res := NewResolver(r, boundsStub{}, clockAt(t, "2024-06-15"))
	got, err := res.Resolve(context.Background(), "u1", "")
	require.NoError(t, err)
	assert.Nil(t, got.Session)
	assert.Equal(t, "2024-06-15", got.Window.Start.String())
	assert.Equal(t, "2024-06-15", got.Window.End.String())
}

func TestResolveClampsToToday(t *testing.T) {
	r := testRegistry(t, openTestDocs(t))
	ctx := context.Background()

	// Open-ended session runs through today.
	open, err := r.Create(ctx, "u1", "Open", date(t, "2024-06-01"), nil, true)
	require.NoError(t, err)

	res := NewResolver(r, boundsStub{}, clockAt(t, "2024-06-15"))
	got, err := res.Resolve(ctx, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, open.ID, got.Session.ID)
	assert.Equal(t, "2024-06-15", got.Window.End.String())

	// A future end date is clamped as well.
	futureEnd := date(t, "2024-12-31")
	_, err = r.Create(ctx, "u1", "Open", date(t, "2024-06-01"), &futureEnd, true)
	require.NoError(t, err)
	got, err = res.Resolve(ctx, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-15", got.Window.End.String())
}
