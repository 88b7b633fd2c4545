package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/attendance-bot/internal/attendance"
	"github.com/ykvlv/attendance-bot/internal/config"
	"github.com/ykvlv/attendance-bot/internal/domain"
	"github.com/ykvlv/attendance-bot/internal/profile"
	"github.com/ykvlv/attendance-bot/internal/scheduler"
	"github.com/ykvlv/attendance-bot/internal/session"
	"github.com/ykvlv/attendance-bot/internal/store"
	"github.com/ykvlv/attendance-bot/internal/telegram"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	docs    store.Docs
	router  *telegram.Router
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting attendance-bot",
		zap.Int("utcOffsetMin", a.cfg.UTCOffsetMin),
		zap.String("http", a.cfg.HTTPAddr),
	)

	// Open the document store and run migrations. Re-running on an existing
	// database is an idempotent no-op.
	docs, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.docs = docs
	a.log.Info("sqlite ready")

	// Every component gets the store handle explicitly; there is no shared
	// global to initialize.
	clock := domain.NewClock(a.cfg.UTCOffsetMin)
	days := attendance.NewStore(docs)
	configs := attendance.NewConfigs(docs)
	aggregator := attendance.NewAggregator(days, configs, clock)
	sessions := session.NewRegistry(docs, a.log)
	resolver := session.NewResolver(sessions, days, clock)
	profiles := profile.NewRepo(docs)

	a.router = telegram.NewRouter(a.bot, a.log, telegram.Deps{
		Days:         days,
		Configs:      configs,
		Aggregator:   aggregator,
		Sessions:     sessions,
		Resolver:     resolver,
		Profiles:     profiles,
		Clock:        clock,
		ReminderHour: a.cfg.ReminderHour,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	sched := scheduler.New(profiles, days, configs, clock, a.log, a.router, a.cfg.ReminderHour)
	go sched.Run(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")

			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := a.httpSrv.Shutdown(shCtx)
			cancel()

			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}
			if a.docs != nil {
				_ = a.docs.Close()
			}
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}
