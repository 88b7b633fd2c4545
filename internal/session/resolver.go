package session

import (
	"context"

	"github.com/ykvlv/attendance-bot/internal/domain"
)

// DayBounds reports the earliest and latest recorded day for a user, used
// as the implicit window when no session exists.
type DayBounds interface {
	Bounds(ctx context.Context, uid string) (domain.Window, bool, error)
}

// Resolved is the effective aggregation window plus the session it came
// from, when any.
type Resolved struct {
	Window  domain.Window
	Session *Session
}

// Resolver decides the date range a percentage query aggregates over.
type Resolver struct {
	sessions *Registry
	days     DayBounds
	clock    domain.Clock
}

func NewResolver(sessions *Registry, days DayBounds, clock domain.Clock) *Resolver {
	return &Resolver{sessions: sessions, days: days, clock: clock}
}

// Resolve applies the fallback ladder:
//
//  1. explicit identifier — a miss is ErrNotFound, never a silent fallback
//  2. the selected session
//  3. the most-recently-created session
//  4. earliest through latest recorded day
//  5. today only
//
// The window's end is clamped to today in every case; future dates are
// never aggregated.
func (r *Resolver) Resolve(ctx context.Context, uid, identifier string) (Resolved, error) {
	today := r.clock.Today()

	if identifier != "" {
		s, err := r.sessions.Find(ctx, uid, identifier)
		if err != nil {
			return Resolved{}, err
		}
		return resolvedFrom(s, today), nil
	}

	if s, err := r.sessions.Selected(ctx, uid); err != nil {
		return Resolved{}, err
	} else if s != nil {
		return resolvedFrom(*s, today), nil
	}

	sessions, err := r.sessions.List(ctx, uid)
	if err != nil {
		return Resolved{}, err
	}
	if len(sessions) > 0 {
		return resolvedFrom(sessions[0], today), nil
	}

	if w, ok, err := r.days.Bounds(ctx, uid); err != nil {
		return Resolved{}, err
	} else if ok {
		return Resolved{Window: clampEnd(w, today)}, nil
	}

	return Resolved{Window: domain.Window{Start: today, End: today}}, nil
}

func resolvedFrom(s Session, today domain.Date) Resolved {
	w := domain.Window{Start: s.Start, End: today}
	if s.End != nil {
		w.End = *s.End
	}
	return Resolved{Window: clampEnd(w, today), Session: &s}
}

func clampEnd(w domain.Window, today domain.Date) domain.Window {
	if w.End.After(today) {
		w.End = today
	}
	return w
}
