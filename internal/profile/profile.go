// Package profile tracks known users and their reminder schedule.
package profile

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/ykvlv/attendance-bot/internal/store"
)

// Profile is one known user. NextRemindAt is on the bot's shifted clock
// scale (see domain.Clock); nil means no reminder is scheduled.
type Profile struct {
	UID          string
	ChatID       int64
	RemindersOn  bool
	NextRemindAt *time.Time
	CreatedAt    time.Time
}

// Repo is the profile repository.
type Repo struct {
	docs store.Docs
}

func NewRepo(docs store.Docs) *Repo { return &Repo{docs: docs} }

// Get returns the profile for uid, or nil when the user is unknown.
func (r *Repo) Get(ctx context.Context, uid string) (*Profile, error) {
	doc, err := r.docs.Get(ctx, store.ProfilePath(uid))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p := decodeProfile(uid, doc)
	return &p, nil
}

// Ensure returns the existing profile or creates one with reminders on and
// the given first reminder time.
func (r *Repo) Ensure(ctx context.Context, uid string, chatID int64, now, next time.Time) (*Profile, error) {
	if p, err := r.Get(ctx, uid); err != nil || p != nil {
		return p, err
	}
	p := &Profile{
		UID:          uid,
		ChatID:       chatID,
		RemindersOn:  true,
		NextRemindAt: &next,
		CreatedAt:    now.UTC(),
	}
	if err := r.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repo) Save(ctx context.Context, p *Profile) error {
	return r.docs.Set(ctx, store.ProfilePath(p.UID), encodeProfile(p), false)
}

// SetReminders toggles reminders, rescheduling when they turn on.
func (r *Repo) SetReminders(ctx context.Context, uid string, on bool, next *time.Time) error {
	doc := store.Doc{"remindersOn": on}
	if next != nil {
		doc["nextRemindAt"] = next.Unix()
	}
	return r.docs.Set(ctx, store.ProfilePath(uid), doc, true)
}

// Advance moves the reminder schedule forward after a send or a skip.
func (r *Repo) Advance(ctx context.Context, uid string, next time.Time) error {
	return r.docs.Set(ctx, store.ProfilePath(uid), store.Doc{"nextRemindAt": next.Unix()}, true)
}

// ListDue returns up to limit profiles whose reminder is due at now,
// soonest first. The scan walks every profile; user counts here are chat
// sized, not fleet sized.
func (r *Repo) ListDue(ctx context.Context, now time.Time, limit int) ([]Profile, error) {
	entries, err := r.docs.List(ctx, store.UsersPrefix())
	if err != nil {
		return nil, err
	}
	var due []Profile
	for _, e := range entries {
		uid, ok := uidFromProfilePath(e.Path)
		if !ok {
			continue
		}
		p := decodeProfile(uid, e.Doc)
		if !p.RemindersOn || p.NextRemindAt == nil || p.NextRemindAt.After(now) {
			continue
		}
		due = append(due, p)
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextRemindAt.Before(*due[j].NextRemindAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func uidFromProfilePath(path string) (string, bool) {
	rest, ok := strings.CutPrefix(path, store.UsersPrefix())
	if !ok {
		return "", false
	}
	uid, ok := strings.CutSuffix(rest, "/profile")
	if !ok || strings.Contains(uid, "/") {
		return "", false
	}
	return uid, true
}

func encodeProfile(p *Profile) store.Doc {
	doc := store.Doc{
		"chatId":      p.ChatID,
		"remindersOn": p.RemindersOn,
		"createdAt":   p.CreatedAt.Unix(),
	}
	if p.NextRemindAt != nil {
		doc["nextRemindAt"] = p.NextRemindAt.Unix()
	}
	return doc
}

func decodeProfile(uid string, doc store.Doc) Profile {
	p := Profile{
		UID:         uid,
		ChatID:      doc.Int64("chatId"),
		RemindersOn: doc.Bool("remindersOn"),
		CreatedAt:   doc.Time("createdAt"),
	}
	if t := doc.Time("nextRemindAt"); !t.IsZero() {
		p.NextRemindAt = &t
	}
	return p
}
