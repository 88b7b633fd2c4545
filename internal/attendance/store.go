// Package attendance holds the day-status store and the percentage
// aggregator. One status per (user, day); statuses are only ever set
// explicitly, never inferred.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ykvlv/attendance-bot/internal/domain"
	"github.com/ykvlv/attendance-bot/internal/store"
)

// AlreadySetError is the benign conflict from SetIfAbsent: the day already
// carries a status. It carries the existing record so the caller can decide
// whether to ask for a confirmed overwrite.
type AlreadySetError struct {
	Existing domain.DayRecord
}

func (e *AlreadySetError) Error() string {
	return "day already marked " + e.Existing.Status.String()
}

// Store is the durable per-user, per-date status record.
type Store struct {
	docs store.Docs
}

func NewStore(docs store.Docs) *Store { return &Store{docs: docs} }

// Get returns the record for (uid, date), reporting absence via ok=false.
// A malformed date is rejected before any I/O.
func (s *Store) Get(ctx context.Context, uid, date string) (domain.DayRecord, bool, error) {
	if _, err := domain.ParseDate(date); err != nil {
		return domain.DayRecord{}, false, err
	}
	doc, err := s.docs.Get(ctx, store.DayPath(uid, date))
	if errors.Is(err, store.ErrNotFound) {
		return domain.DayRecord{}, false, nil
	}
	if err != nil {
		return domain.DayRecord{}, false, err
	}
	rec, err := decodeRecord(doc)
	if err != nil {
		return domain.DayRecord{}, false, err
	}
	return rec, true, nil
}

// SetIfAbsent writes the status only when the day has none yet. The check
// and the write run in one transaction: of N concurrent callers for the same
// (uid, date) exactly one wins and the rest get AlreadySetError. Duplicate
// and retried requests from the conversation layer land here, so this is the
// one genuinely atomic operation in the system.
func (s *Store) SetIfAbsent(ctx context.Context, uid, date string, status domain.DayStatus, now time.Time) error {
	if err := validateMark(date, status); err != nil {
		return err
	}
	path := store.DayPath(uid, date)
	return s.docs.RunTransaction(ctx, func(tx store.Tx) error {
		switch doc, err := tx.Get(path); {
		case err == nil:
			existing, derr := decodeRecord(doc)
			if derr != nil {
				return derr
			}
			return &AlreadySetError{Existing: existing}
		case errors.Is(err, store.ErrNotFound):
			return tx.Set(path, encodeRecord(status, now, now), false)
		default:
			return err
		}
	})
}

// Overwrite unconditionally replaces the day's status. Only the confirmation
// flow calls this, after an explicit yes. Last write wins; the original
// createdAt is preserved when the record exists.
func (s *Store) Overwrite(ctx context.Context, uid, date string, status domain.DayStatus, now time.Time) error {
	if err := validateMark(date, status); err != nil {
		return err
	}
	path := store.DayPath(uid, date)
	return s.docs.RunTransaction(ctx, func(tx store.Tx) error {
		created := now
		if doc, err := tx.Get(path); err == nil {
			if t := doc.Time("createdAt"); !t.IsZero() {
				created = t
			}
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		return tx.Set(path, encodeRecord(status, created, now), false)
	})
}

// Bounds returns the window spanning the earliest and latest recorded day
// for uid, with ok=false when no day was ever written. Day documents sort by
// path, which for ISO dates is date order, so the scan's ends are the answer.
func (s *Store) Bounds(ctx context.Context, uid string) (domain.Window, bool, error) {
	prefix := store.DaysPrefix(uid)
	entries, err := s.docs.List(ctx, prefix)
	if err != nil {
		return domain.Window{}, false, err
	}
	if len(entries) == 0 {
		return domain.Window{}, false, nil
	}
	first, err := domain.ParseDate(strings.TrimPrefix(entries[0].Path, prefix))
	if err != nil {
		return domain.Window{}, false, fmt.Errorf("corrupt day path %s: %w", entries[0].Path, err)
	}
	last, err := domain.ParseDate(strings.TrimPrefix(entries[len(entries)-1].Path, prefix))
	if err != nil {
		return domain.Window{}, false, fmt.Errorf("corrupt day path %s: %w", entries[len(entries)-1].Path, err)
	}
	return domain.Window{Start: first, End: last}, true, nil
}

// loadRange reads every day record for uid into a date-keyed map; the
// aggregator works from this one snapshot per call.
func (s *Store) loadRange(ctx context.Context, uid string) (map[string]domain.DayRecord, error) {
	prefix := store.DaysPrefix(uid)
	entries, err := s.docs.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.DayRecord, len(entries))
	for _, e := range entries {
		rec, err := decodeRecord(e.Doc)
		if err != nil {
			return nil, err
		}
		out[strings.TrimPrefix(e.Path, prefix)] = rec
	}
	return out, nil
}

func validateMark(date string, status domain.DayStatus) error {
	if _, err := domain.ParseDate(date); err != nil {
		return err
	}
	if !status.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status.Kind)
	}
	return nil
}

// The status variant is decoded exactly once, here at the storage boundary.

func encodeRecord(status domain.DayStatus, created, updated time.Time) store.Doc {
	doc := store.Doc{
		"status":    string(status.Kind),
		"createdAt": created.Unix(),
		"updatedAt": updated.Unix(),
	}
	if status.Kind == domain.StatusHoliday && status.HolidayName != "" {
		doc["holidayName"] = status.HolidayName
	}
	return doc
}

func decodeRecord(doc store.Doc) (domain.DayRecord, error) {
	kind, err := domain.ParseStatusKind(doc.Str("status"))
	if err != nil {
		return domain.DayRecord{}, err
	}
	status := domain.DayStatus{Kind: kind}
	if kind == domain.StatusHoliday {
		status.HolidayName = doc.Str("holidayName")
	}
	return domain.DayRecord{
		Status:    status,
		CreatedAt: doc.Time("createdAt"),
		UpdatedAt: doc.Time("updatedAt"),
	}, nil
}
