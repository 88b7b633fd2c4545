// Package scheduler nudges users who have not marked attendance today.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ykvlv/attendance-bot/internal/attendance"
	"github.com/ykvlv/attendance-bot/internal/domain"
	"github.com/ykvlv/attendance-bot/internal/profile"
)

// Sender is the minimal interface the scheduler needs to reach a chat.
// telegram.Router implements it.
type Sender interface {
	SendMessage(chatID int64, text string) error
}

// Scheduler periodically polls for due reminders and dispatches them. A
// reminder fires at the configured hour on working days, and only when the
// user has not yet marked the day.
type Scheduler struct {
	profiles *profile.Repo
	days     *attendance.Store
	configs  *attendance.Configs
	clock    domain.Clock
	log      *zap.Logger
	sender   Sender
	hour     int
	interval time.Duration
}

func New(profiles *profile.Repo, days *attendance.Store, configs *attendance.Configs, clock domain.Clock, log *zap.Logger, sender Sender, hour int) *Scheduler {
	return &Scheduler{
		profiles: profiles,
		days:     days,
		configs:  configs,
		clock:    clock,
		log:      log,
		sender:   sender,
		hour:     hour,
		interval: time.Minute,
	}
}

// Run starts the loop until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopping")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick performs one cycle: find due profiles, remind where warranted,
// reschedule. Every due profile gets advanced even when the reminder is
// skipped, so a skipped day does not re-fire every minute.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.clock.Now()
	today := s.clock.Today()

	due, err := s.profiles.ListDue(ctx, now, 100)
	if err != nil {
		s.log.Error("ListDue failed", zap.Error(err))
		return
	}
	for _, p := range due {
		cfg, err := s.configs.Get(ctx, p.UID)
		if err != nil {
			s.log.Error("config read failed", zap.Error(err), zap.String("uid", p.UID))
			continue
		}
		next := domain.NextReminder(now, s.hour, cfg)

		if domain.IsWorkingDay(today, cfg) {
			_, marked, err := s.days.Get(ctx, p.UID, today.String())
			if err != nil {
				s.log.Error("day read failed", zap.Error(err), zap.String("uid", p.UID))
				continue
			}
			if !marked {
				if err := s.sender.SendMessage(p.ChatID, reminderText(today)); err != nil {
					s.log.Error("send failed", zap.Error(err), zap.Int64("chatID", p.ChatID))
					continue
				}
			}
		}

		if err := s.profiles.Advance(ctx, p.UID, next); err != nil {
			s.log.Error("advance failed", zap.Error(err), zap.String("uid", p.UID))
		}
	}
}

func reminderText(today domain.Date) string {
	return "You haven't marked attendance for " + today.String() + " yet. Send /present or /absent."
}
