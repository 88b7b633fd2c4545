package attendance

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ykvlv/attendance-bot/internal/domain"
	"github.com/ykvlv/attendance-bot/internal/store"
)

func openTestDocs(t *testing.T) store.Docs {
	t.Helper()
	docs, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "docs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = docs.Close() })
	return docs
}

func TestSetIfAbsentIsIdempotent(t *testing.T) {
	s := NewStore(openTestDocs(t))
	ctx := context.Background()
	now := time.Date(2024, time.June, 3, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.SetIfAbsent(ctx, "u1", "2024-06-03", domain.Present(), now))

	err := s.SetIfAbsent(ctx, "u1", "2024-06-03", domain.Present(), now)
	var already *AlreadySetError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, domain.Present(), already.Existing.Status)

	rec, ok, err := s.Get(ctx, "u1", "2024-06-03")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.Present(), rec.Status)
}

func TestSetIfAbsentConcurrentSingleWinner(t *testing.T) {
	s := NewStore(openTestDocs(t))
	ctx := context.Background()
	now := time.Now().UTC()

	statuses := []domain.DayStatus{
		domain.Present(), domain.Absent(), domain.Holiday("Eid"),
		domain.NotEnrolled(), domain.Present(), domain.Absent(),
	}

	var mu sync.Mutex
	var wins, conflicts int
	var wg sync.WaitGroup
	for _, st := range statuses {
		wg.Add(1)
		go func(st domain.DayStatus) {
			defer wg.Done()
			err := s.SetIfAbsent(ctx, "u1", "2024-06-03", st, now)
			mu.Lock()
			defer mu.Unlock()
			var already *AlreadySetError
			switch {
			case err == nil:
				wins++
			case errors.As(err, &already):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(st)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, len(statuses)-1, conflicts)

	_, ok, err := s.Get(ctx, "u1", "2024-06-03")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOverwriteReplacesAndKeepsCreatedAt(t *testing.T) {
	s := NewStore(openTestDocs(t))
	ctx := context.Background()
	created := time.Date(2024, time.June, 3, 8, 0, 0, 0, time.UTC)
	later := created.Add(2 * time.Hour)

	require.NoError(t, s.SetIfAbsent(ctx, "u1", "2024-06-03", domain.Present(), created))
	require.NoError(t, s.Overwrite(ctx, "u1", "2024-06-03", domain.Absent(), later))

	rec, ok, err := s.Get(ctx, "u1", "2024-06-03")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.Absent(), rec.Status)
	assert.Equal(t, created, rec.CreatedAt)
	assert.Equal(t, later, rec.UpdatedAt)
}

func TestOverwriteHolidayThenPresentDropsName(t *testing.T) {
	s := NewStore(openTestDocs(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.SetIfAbsent(ctx, "u1", "2024-06-05", domain.Holiday("Eid"), now))
	require.NoError(t, s.Overwrite(ctx, "u1", "2024-06-05", domain.Present(), now))

	rec, ok, err := s.Get(ctx, "u1", "2024-06-05")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.Present(), rec.Status)
	assert.Empty(t, rec.Status.HolidayName)
}

func TestMarkValidationBeforeIO(t *testing.T) {
	s := NewStore(openTestDocs(t))
	ctx := context.Background()
	now := time.Now().UTC()

	err := s.SetIfAbsent(ctx, "u1", "june third", domain.Present(), now)
	assert.ErrorIs(t, err, domain.ErrInvalidDate)

	err = s.SetIfAbsent(ctx, "u1", "2024-06-03", domain.DayStatus{Kind: "late"}, now)
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, _, err = s.Get(ctx, "u1", "not-a-date")
	assert.ErrorIs(t, err, domain.ErrInvalidDate)
}

func TestBounds(t *testing.T) {
	s := NewStore(openTestDocs(t))
	ctx := context.Background()
	now := time.Now().UTC()

	_, ok, err := s.Bounds(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetIfAbsent(ctx, "u1", "2024-06-10", domain.Present(), now))
	require.NoError(t, s.SetIfAbsent(ctx, "u1", "2024-05-02", domain.Absent(), now))
	require.NoError(t, s.SetIfAbsent(ctx, "u1", "2024-06-28", domain.Present(), now))
	// Another user's records must not bleed into u1's bounds.
	require.NoError(t, s.SetIfAbsent(ctx, "u2", "2023-01-01", domain.Present(), now))

	w, ok, err := s.Bounds(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2024-05-02", w.Start.String())
	assert.Equal(t, "2024-06-28", w.End.String())
}
