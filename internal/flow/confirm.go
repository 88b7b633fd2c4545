// Package flow implements the yes/no gate in front of destructive status
// overwrites. A Flow is conversation-scoped: the adapter keeps one per chat
// in memory for the duration of a single back-and-forth and never persists
// it anywhere.
package flow

import (
	"context"
	"errors"
	"time"

	"github.com/ykvlv/attendance-bot/internal/attendance"
	"github.com/ykvlv/attendance-bot/internal/domain"
)

// Days is the slice of the day-status store the flow drives.
type Days interface {
	SetIfAbsent(ctx context.Context, uid, date string, status domain.DayStatus, now time.Time) error
	Overwrite(ctx context.Context, uid, date string, status domain.DayStatus, now time.Time) error
}

// Pending is the overwrite waiting on an explicit confirmation.
type Pending struct {
	Date      string
	NewStatus domain.DayStatus
	OldStatus domain.DayStatus
}

// Outcome tells the adapter what a turn did, so it can choose wording.
type Outcome int

const (
	// OutcomeNone: the turn was not for us (an answer with nothing pending).
	OutcomeNone Outcome = iota
	// OutcomeMarked: the status was written directly, no conflict.
	OutcomeMarked
	// OutcomeAlreadySet: the day already carries exactly this status; no-op.
	OutcomeAlreadySet
	// OutcomeNeedsConfirmation: a conflicting status exists; awaiting yes/no.
	OutcomeNeedsConfirmation
	// OutcomeOverwritten: yes was answered and the overwrite was applied.
	OutcomeOverwritten
	// OutcomeDiscarded: no was answered; nothing was written.
	OutcomeDiscarded
)

type state int

const (
	idle state = iota
	awaitingConfirmation
)

// Flow is the per-conversation confirmation state machine for one uid.
type Flow struct {
	uid     string
	days    Days
	clock   domain.Clock
	state   state
	pending Pending
}

func New(uid string, days Days, clock domain.Clock) *Flow {
	return &Flow{uid: uid, days: days, clock: clock}
}

// Mark attempts to record status for date. A pending confirmation from an
// earlier turn is discarded first — a fresh mark intent is an unrelated
// turn, and a stale prompt must never be answerable.
func (f *Flow) Mark(ctx context.Context, date string, status domain.DayStatus) (Outcome, Pending, error) {
	f.reset()

	err := f.days.SetIfAbsent(ctx, f.uid, date, status, f.clock.Now())
	var already *attendance.AlreadySetError
	switch {
	case err == nil:
		return OutcomeMarked, Pending{Date: date, NewStatus: status}, nil
	case errors.As(err, &already):
		p := Pending{Date: date, NewStatus: status, OldStatus: already.Existing.Status}
		if already.Existing.Status.Equal(status) {
			return OutcomeAlreadySet, p, nil
		}
		f.state = awaitingConfirmation
		f.pending = p
		return OutcomeNeedsConfirmation, p, nil
	default:
		return OutcomeNone, Pending{}, err
	}
}

// Answer consumes a yes/no turn. With nothing pending it reports
// OutcomeNone so the adapter treats the input as ordinary text. The pending
// change is cleared either way; a failed overwrite fails closed.
func (f *Flow) Answer(ctx context.Context, yes bool) (Outcome, Pending, error) {
	if f.state != awaitingConfirmation {
		return OutcomeNone, Pending{}, nil
	}
	p := f.pending
	f.reset()

	if !yes {
		return OutcomeDiscarded, p, nil
	}
	if err := f.days.Overwrite(ctx, f.uid, p.Date, p.NewStatus, f.clock.Now()); err != nil {
		return OutcomeNone, p, err
	}
	return OutcomeOverwritten, p, nil
}

// Interrupt silently discards any pending confirmation. The adapter calls
// this on every turn that is neither a mark nor a yes/no.
func (f *Flow) Interrupt() { f.reset() }

// Awaiting reports the pending overwrite, if one is armed.
func (f *Flow) Awaiting() (Pending, bool) {
	return f.pending, f.state == awaitingConfirmation
}

func (f *Flow) reset() {
	f.state = idle
	f.pending = Pending{}
}
