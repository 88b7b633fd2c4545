package telegram

import (
	"context"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/attendance-bot/internal/attendance"
	"github.com/ykvlv/attendance-bot/internal/domain"
	"github.com/ykvlv/attendance-bot/internal/flow"
	"github.com/ykvlv/attendance-bot/internal/profile"
	"github.com/ykvlv/attendance-bot/internal/session"
)

// Deps bundles the core services the router drives. The router owns no
// business rules; it resolves the uid (the chat id), parses command
// arguments, and renders typed results as text.
type Deps struct {
	Days         *attendance.Store
	Configs      *attendance.Configs
	Aggregator   *attendance.Aggregator
	Sessions     *session.Registry
	Resolver     *session.Resolver
	Profiles     *profile.Repo
	Clock        domain.Clock
	ReminderHour int
}

// Router wires Telegram updates to handlers. The only in-memory state is
// the per-chat confirmation flow, which lives exactly as long as one
// yes/no exchange.
type Router struct {
	bot   *tgbotapi.BotAPI
	log   *zap.Logger
	deps  Deps
	mu    sync.Mutex
	flows map[int64]*flow.Flow
}

// NewRouter creates a new Telegram router.
func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, deps Deps) *Router {
	return &Router{
		bot:   bot,
		log:   log,
		deps:  deps,
		flows: make(map[int64]*flow.Flow),
	}
}

func uidFor(chatID int64) string { return strconv.FormatInt(chatID, 10) }

// flowFor returns the chat's confirmation flow, creating it on first use.
func (r *Router) flowFor(chatID int64) *flow.Flow {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.flows[chatID]
	if !ok {
		f = flow.New(uidFor(chatID), r.deps.Days, r.deps.Clock)
		r.flows[chatID] = f
	}
	return f
}

// HandleUpdate routes a single update to the appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	msg := upd.Message
	chatID := msg.Chat.ID
	uid := uidFor(chatID)
	text := strings.TrimSpace(msg.Text)

	fields := strings.Fields(text)
	if len(fields) == 0 {
		return
	}
	// "/present@MyBot" arrives in group chats.
	cmd, _, _ := strings.Cut(fields[0], "@")
	args := fields[1:]

	switch cmd {
	case "/start":
		r.interrupt(chatID)
		r.handleStart(ctx, chatID, uid)
	case "/present":
		r.handleMark(ctx, chatID, domain.Present(), args)
	case "/absent":
		r.handleMark(ctx, chatID, domain.Absent(), args)
	case "/unenrolled":
		r.handleMark(ctx, chatID, domain.NotEnrolled(), args)
	case "/holiday":
		r.handleHoliday(ctx, chatID, args)
	case "/month":
		r.interrupt(chatID)
		r.handleMonth(ctx, chatID, uid, args)
	case "/percent":
		r.interrupt(chatID)
		r.handlePercent(ctx, chatID, uid, args)
	case "/sessions":
		r.interrupt(chatID)
		r.handleSessions(ctx, chatID, uid)
	case "/newsession":
		r.interrupt(chatID)
		r.handleNewSession(ctx, chatID, uid, args)
	case "/select":
		r.interrupt(chatID)
		r.handleSelect(ctx, chatID, uid, args)
	case "/daysoff":
		r.interrupt(chatID)
		r.handleDaysOff(ctx, chatID, uid, args)
	case "/reminders":
		r.interrupt(chatID)
		r.handleReminders(ctx, chatID, uid, args)
	case "/help":
		r.interrupt(chatID)
		r.sendText(chatID, helpText)
	default:
		r.handleFreeForm(ctx, chatID, text)
	}
}

// interrupt discards any pending confirmation; every turn that is neither a
// mark nor a yes/no is an unrelated turn.
func (r *Router) interrupt(chatID int64) {
	r.flowFor(chatID).Interrupt()
}

// SendMessage sends a plain text message to the given chat.
// This makes Router satisfy scheduler.Sender.
func (r *Router) SendMessage(chatID int64, text string) error {
	_, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (r *Router) sendText(chatID int64, text string) {
	_, _ = r.bot.Send(tgbotapi.NewMessage(chatID, text))
}
