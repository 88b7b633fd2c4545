package attendance

import (
	"context"
	"errors"

	"github.com/ykvlv/attendance-bot/internal/domain"
	"github.com/ykvlv/attendance-bot/internal/store"
)

// Configs is the per-user settings repository. Read-mostly; a user with no
// config document gets the zero config (no weekly days off).
type Configs struct {
	docs store.Docs
}

func NewConfigs(docs store.Docs) *Configs { return &Configs{docs: docs} }

func (c *Configs) Get(ctx context.Context, uid string) (domain.UserConfig, error) {
	doc, err := c.docs.Get(ctx, store.ConfigPath(uid))
	if errors.Is(err, store.ErrNotFound) {
		return domain.UserConfig{}, nil
	}
	if err != nil {
		return domain.UserConfig{}, err
	}
	return domain.UserConfig{WeeklyDaysOff: doc.Ints("weeklyDaysOff")}, nil
}

func (c *Configs) Set(ctx context.Context, uid string, cfg domain.UserConfig) error {
	days := make([]any, 0, len(cfg.WeeklyDaysOff))
	for _, d := range cfg.WeeklyDaysOff {
		days = append(days, d)
	}
	return c.docs.Set(ctx, store.ConfigPath(uid), store.Doc{"weeklyDaysOff": days}, false)
}
