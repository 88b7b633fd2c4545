package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/attendance-bot/internal/domain"
	"github.com/ykvlv/attendance-bot/internal/flow"
	"github.com/ykvlv/attendance-bot/internal/session"
	"github.com/ykvlv/attendance-bot/internal/store"
)

// --- Start ---

func (r *Router) handleStart(ctx context.Context, chatID int64, uid string) {
	clock := r.deps.Clock
	next := domain.NextReminder(clock.Now(), r.deps.ReminderHour, domain.UserConfig{})
	if _, err := r.deps.Profiles.Ensure(ctx, uid, chatID, clock.Now(), next); err != nil {
		r.log.Error("ensure profile failed", zap.Error(err))
		r.sendText(chatID, storageErrText)
		return
	}
	msg := tgbotapi.NewMessage(chatID, startText)
	msg.ReplyMarkup = mainMenuKeyboard()
	_, _ = r.bot.Send(msg)
}

// --- Marking ---

func (r *Router) handleMark(ctx context.Context, chatID int64, status domain.DayStatus, args []string) {
	date := r.deps.Clock.Today().String()
	if len(args) > 0 {
		date = args[0]
	}
	r.mark(ctx, chatID, date, status)
}

// handleHoliday accepts "/holiday Eid", "/holiday Eid 2024-06-05" and a
// bare "/holiday 2024-06-05"; the trailing token is a date only if it
// parses as one.
func (r *Router) handleHoliday(ctx context.Context, chatID int64, args []string) {
	date := r.deps.Clock.Today().String()
	name := args
	if n := len(args); n > 0 {
		if _, err := domain.ParseDate(args[n-1]); err == nil {
			date = args[n-1]
			name = args[:n-1]
		}
	}
	r.mark(ctx, chatID, date, domain.Holiday(strings.Join(name, " ")))
}

func (r *Router) mark(ctx context.Context, chatID int64, date string, status domain.DayStatus) {
	out, p, err := r.flowFor(chatID).Mark(ctx, date, status)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidDate):
			r.sendText(chatID, dateHint)
		case errors.Is(err, store.ErrUnavailable):
			r.sendText(chatID, storageErrText)
		default:
			r.log.Error("mark failed", zap.Error(err))
			r.sendText(chatID, "Couldn't save that.")
		}
		return
	}
	switch out {
	case flow.OutcomeMarked:
		r.sendText(chatID, fmt.Sprintf("Marked %s as %s.", p.Date, p.NewStatus))
	case flow.OutcomeAlreadySet:
		r.sendText(chatID, fmt.Sprintf("%s is already marked %s.", p.Date, p.NewStatus))
	case flow.OutcomeNeedsConfirmation:
		r.sendText(chatID, fmt.Sprintf(
			"%s is currently marked %s. Overwrite with %s? (yes/no)",
			p.Date, p.OldStatus, p.NewStatus,
		))
	}
}

// --- Free-form: yes/no confirmations, everything else is an unrelated turn ---

func (r *Router) handleFreeForm(ctx context.Context, chatID int64, text string) {
	switch strings.ToLower(text) {
	case "yes", "y":
		r.answer(ctx, chatID, true)
	case "no", "n":
		r.answer(ctx, chatID, false)
	default:
		r.interrupt(chatID)
		r.sendText(chatID, helpText)
	}
}

func (r *Router) answer(ctx context.Context, chatID int64, yes bool) {
	out, p, err := r.flowFor(chatID).Answer(ctx, yes)
	if err != nil {
		r.log.Error("confirm failed", zap.Error(err))
		r.sendText(chatID, storageErrText)
		return
	}
	switch out {
	case flow.OutcomeOverwritten:
		r.sendText(chatID, fmt.Sprintf("Done. %s is now %s.", p.Date, p.NewStatus))
	case flow.OutcomeDiscarded:
		r.sendText(chatID, fmt.Sprintf("Kept %s as %s.", p.Date, p.OldStatus))
	case flow.OutcomeNone:
		r.sendText(chatID, "Nothing to confirm.")
	}
}

// --- Percentages ---

func (r *Router) handleMonth(ctx context.Context, chatID int64, uid string, args []string) {
	today := r.deps.Clock.Today()
	yearMonth := fmt.Sprintf("%04d-%02d", today.Year, int(today.Month))
	if len(args) > 0 {
		yearMonth = args[0]
	}
	pct, err := r.deps.Aggregator.MonthlyPercentage(ctx, uid, yearMonth)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidMonth) {
			r.sendText(chatID, monthHint)
			return
		}
		r.log.Error("monthly percentage failed", zap.Error(err))
		r.sendText(chatID, storageErrText)
		return
	}
	r.sendText(chatID, fmt.Sprintf("Attendance for %s: %d%%", yearMonth, pct))
}

func (r *Router) handlePercent(ctx context.Context, chatID int64, uid string, args []string) {
	identifier := strings.Join(args, " ")

	resolved, err := r.deps.Resolver.Resolve(ctx, uid, identifier)
	if err != nil {
		var ambiguous *session.AmbiguousError
		switch {
		case errors.Is(err, session.ErrNotFound):
			r.sendText(chatID, r.noSuchSessionText(ctx, uid, identifier))
		case errors.As(err, &ambiguous):
			r.sendText(chatID, fmt.Sprintf(
				"Several sessions are named %q. Pick one by code: %s",
				ambiguous.Name, strings.Join(ambiguous.Codes, ", "),
			))
		default:
			r.log.Error("resolve session failed", zap.Error(err))
			r.sendText(chatID, storageErrText)
		}
		return
	}

	res, err := r.deps.Aggregator.RangePercentage(ctx, uid, resolved.Window)
	if err != nil {
		r.log.Error("range percentage failed", zap.Error(err))
		r.sendText(chatID, storageErrText)
		return
	}

	label := fmt.Sprintf("%s – %s", resolved.Window.Start, resolved.Window.End)
	if resolved.Session != nil {
		label = fmt.Sprintf("%s (%s)", resolved.Session.Name, label)
	}
	r.sendText(chatID, fmt.Sprintf(
		"%s: %d%% — present %d of %d working days.",
		label, res.Percentage, res.PresentDays, res.TotalWorkingDays,
	))
}

func (r *Router) noSuchSessionText(ctx context.Context, uid, identifier string) string {
	sessions, err := r.deps.Sessions.List(ctx, uid)
	if err != nil || len(sessions) == 0 {
		return fmt.Sprintf("No session named %q. Create one with /newsession.", identifier)
	}
	names := make([]string, len(sessions))
	for i, s := range sessions {
		names[i] = fmt.Sprintf("%s [%s]", s.Name, s.Code)
	}
	return fmt.Sprintf("No session named %q. You have: %s", identifier, strings.Join(names, ", "))
}

// --- Sessions ---

func (r *Router) handleSessions(ctx context.Context, chatID int64, uid string) {
	sessions, err := r.deps.Sessions.List(ctx, uid)
	if err != nil {
		r.log.Error("list sessions failed", zap.Error(err))
		r.sendText(chatID, storageErrText)
		return
	}
	if len(sessions) == 0 {
		r.sendText(chatID, "No sessions yet. Create one: /newsession <name> <start> [end]")
		return
	}
	selected, err := r.deps.Sessions.Selected(ctx, uid)
	if err != nil {
		r.log.Error("read selection failed", zap.Error(err))
		r.sendText(chatID, storageErrText)
		return
	}

	var b strings.Builder
	b.WriteString("Your sessions:\n")
	for _, s := range sessions {
		end := "open"
		if s.End != nil {
			end = s.End.String()
		}
		fmt.Fprintf(&b, "• %s [%s] %s – %s", s.Name, s.Code, s.Start, end)
		if selected != nil && selected.ID == s.ID {
			b.WriteString(" ← selected")
		}
		b.WriteString("\n")
	}
	r.sendText(chatID, b.String())
}

// handleNewSession parses "/newsession <name...> <start> [end]"; the name
// may span several words, so dates are peeled off the tail.
func (r *Router) handleNewSession(ctx context.Context, chatID int64, uid string, args []string) {
	const usage = "Usage: /newsession <name> <start> [end], e.g. /newsession Term 1 2024-06-01 2024-12-20"

	var dates []domain.Date
	rest := args
	for len(rest) > 0 && len(dates) < 2 {
		d, err := domain.ParseDate(rest[len(rest)-1])
		if err != nil {
			break
		}
		dates = append([]domain.Date{d}, dates...)
		rest = rest[:len(rest)-1]
	}
	name := strings.Join(rest, " ")
	if name == "" || len(dates) == 0 {
		r.sendText(chatID, usage)
		return
	}

	start := dates[0]
	var end *domain.Date
	if len(dates) == 2 {
		end = &dates[1]
	}

	s, err := r.deps.Sessions.Create(ctx, uid, name, start, end, true)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrEmptyName), errors.Is(err, session.ErrBadRange):
			r.sendText(chatID, usage)
		default:
			r.log.Error("create session failed", zap.Error(err))
			r.sendText(chatID, storageErrText)
		}
		return
	}
	r.sendText(chatID, fmt.Sprintf(
		"Created session %s [%s] and selected it. /percent now reports on it.",
		s.Name, s.Code,
	))
}

func (r *Router) handleSelect(ctx context.Context, chatID int64, uid string, args []string) {
	identifier := strings.Join(args, " ")
	if identifier == "" {
		r.sendText(chatID, "Usage: /select <code or name>, or /select none to clear.")
		return
	}
	if identifier == "none" {
		if err := r.deps.Sessions.ClearSelection(ctx, uid); err != nil {
			r.log.Error("clear selection failed", zap.Error(err))
			r.sendText(chatID, storageErrText)
			return
		}
		r.sendText(chatID, "Selection cleared.")
		return
	}

	s, err := r.deps.Sessions.Select(ctx, uid, identifier)
	if err != nil {
		var ambiguous *session.AmbiguousError
		switch {
		case errors.Is(err, session.ErrNotFound):
			r.sendText(chatID, r.noSuchSessionText(ctx, uid, identifier))
		case errors.As(err, &ambiguous):
			r.sendText(chatID, fmt.Sprintf(
				"Several sessions are named %q. Pick one by code: %s",
				ambiguous.Name, strings.Join(ambiguous.Codes, ", "),
			))
		default:
			r.log.Error("select session failed", zap.Error(err))
			r.sendText(chatID, storageErrText)
		}
		return
	}
	r.sendText(chatID, fmt.Sprintf("Selected %s [%s].", s.Name, s.Code))
}

// --- Settings ---

var weekdayNames = map[string]int{
	"mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6, "sun": 7,
}

func (r *Router) handleDaysOff(ctx context.Context, chatID int64, uid string, args []string) {
	if len(args) == 0 {
		cfg, err := r.deps.Configs.Get(ctx, uid)
		if err != nil {
			r.log.Error("config read failed", zap.Error(err))
			r.sendText(chatID, storageErrText)
			return
		}
		if len(cfg.WeeklyDaysOff) == 0 {
			r.sendText(chatID, "No weekly days off set (Sundays are always off). Example: /daysoff sat")
			return
		}
		r.sendText(chatID, "Weekly days off: "+formatDaysOff(cfg.WeeklyDaysOff)+". Sundays are always off.")
		return
	}

	var cfg domain.UserConfig
	if args[0] != "none" {
		for _, tok := range strings.Split(strings.ToLower(args[0]), ",") {
			day, ok := weekdayNames[strings.TrimSpace(tok)]
			if !ok {
				r.sendText(chatID, "Day names are mon..sun, comma-separated. Example: /daysoff wed,sat")
				return
			}
			cfg.WeeklyDaysOff = append(cfg.WeeklyDaysOff, day)
		}
	}
	if err := r.deps.Configs.Set(ctx, uid, cfg); err != nil {
		r.log.Error("config write failed", zap.Error(err))
		r.sendText(chatID, storageErrText)
		return
	}
	if len(cfg.WeeklyDaysOff) == 0 {
		r.sendText(chatID, "Weekly days off cleared. Sundays remain off.")
		return
	}
	r.sendText(chatID, "Weekly days off set: "+formatDaysOff(cfg.WeeklyDaysOff))
}

func formatDaysOff(days []int) string {
	names := []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}
	out := make([]string, 0, len(days))
	for _, d := range days {
		if d >= 1 && d <= 7 {
			out = append(out, names[d-1])
		}
	}
	return strings.Join(out, ", ")
}

func (r *Router) handleReminders(ctx context.Context, chatID int64, uid string, args []string) {
	if len(args) == 0 || (args[0] != "on" && args[0] != "off") {
		r.sendText(chatID, "Usage: /reminders on|off")
		return
	}
	on := args[0] == "on"

	var next *time.Time
	if on {
		cfg, err := r.deps.Configs.Get(ctx, uid)
		if err != nil {
			r.log.Error("config read failed", zap.Error(err))
			r.sendText(chatID, storageErrText)
			return
		}
		n := domain.NextReminder(r.deps.Clock.Now(), r.deps.ReminderHour, cfg)
		next = &n
	}
	if err := r.deps.Profiles.SetReminders(ctx, uid, on, next); err != nil {
		r.log.Error("set reminders failed", zap.Error(err))
		r.sendText(chatID, storageErrText)
		return
	}
	if on {
		r.sendText(chatID, "Reminders on. I'll nudge you on working days you haven't marked.")
	} else {
		r.sendText(chatID, "Reminders off.")
	}
}
