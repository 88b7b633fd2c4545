// Package session stores named date ranges and resolves which one a
// percentage query should aggregate over.
package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ykvlv/attendance-bot/internal/domain"
	"github.com/ykvlv/attendance-bot/internal/store"
)

var (
	// ErrNotFound means no session matched the given identifier. Callers are
	// expected to re-prompt with the available sessions, never to fall back
	// silently.
	ErrNotFound = errors.New("session not found")
	// ErrEmptyName rejects creation with a blank display name.
	ErrEmptyName = errors.New("session name is empty")
	// ErrBadRange rejects an end date before the start date.
	ErrBadRange = errors.New("session ends before it starts")
)

// AmbiguousError means several sessions share the requested name; the caller
// must disambiguate by code rather than have us guess.
type AmbiguousError struct {
	Name  string
	Codes []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("session name %q is ambiguous, codes: %s", e.Name, strings.Join(e.Codes, ", "))
}

// Session is a named, user-defined date range. End is nil for open-ended
// sessions, which run through today.
type Session struct {
	ID        string
	Name      string
	Code      string
	Start     domain.Date
	End       *domain.Date
	CreatedAt time.Time
}

// Registry is the durable per-user session collection. The selected session
// lives in its own single document, so toggling the selection never rewrites
// the session list.
type Registry struct {
	docs  store.Docs
	log   *zap.Logger
	newID func() string
	now   func() time.Time
}

func NewRegistry(docs store.Docs, log *zap.Logger) *Registry {
	return &Registry{
		docs:  docs,
		log:   log,
		newID: uuid.NewString,
		now:   time.Now,
	}
}

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// newCode derives the session code: lowercased name stripped of
// non-alphanumerics, truncated to 8 characters, with a random suffix so two
// sessions with the same display name never collide on code.
func (r *Registry) newCode(name string) string {
	slug := nonAlphanumeric.ReplaceAllString(strings.ToLower(name), "")
	if len(slug) > 8 {
		slug = slug[:8]
	}
	suffix := strings.ReplaceAll(r.newID(), "-", "")[:4]
	if slug == "" {
		return suffix
	}
	return slug + "-" + suffix
}

// Create registers a session. A session with the same name
// (case-insensitive) or the freshly generated code is replaced in place
// rather than duplicated. With makeSelected, the selection document is
// written in the same transaction, so the registry is never observed with a
// stale selection mid-create.
func (r *Registry) Create(ctx context.Context, uid, name string, start domain.Date, end *domain.Date, makeSelected bool) (Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Session{}, ErrEmptyName
	}
	if end != nil && end.Before(start) {
		return Session{}, fmt.Errorf("%w: %s > %s", ErrBadRange, start, *end)
	}

	s := Session{
		ID:        r.newID(),
		Name:      name,
		Code:      r.newCode(name),
		Start:     start,
		End:       end,
		CreatedAt: r.now().UTC().Truncate(time.Second),
	}

	err := r.docs.RunTransaction(ctx, func(tx store.Tx) error {
		existing, err := decodeAll(tx.List(store.SessionsPrefix(uid)))
		if err != nil {
			return err
		}
		for _, e := range existing {
			if strings.EqualFold(e.Name, name) || e.Code == s.Code {
				// Replace in place: keep the identity, take the new definition.
				s.ID = e.ID
				break
			}
		}
		if err := tx.Set(store.SessionPath(uid, s.ID), encodeSession(s), false); err != nil {
			return err
		}
		if makeSelected {
			return tx.Set(store.SelectionPath(uid), store.Doc{"sessionId": s.ID}, false)
		}
		return nil
	})
	if err != nil {
		return Session{}, err
	}
	return s, nil
}

// List returns the user's sessions, newest-created first. Ties keep the
// stored path order.
func (r *Registry) List(ctx context.Context, uid string) ([]Session, error) {
	sessions, err := decodeAll(r.docs.List(ctx, store.SessionsPrefix(uid)))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

// Find matches an identifier against the user's sessions: exact code first,
// then case-insensitive name. A name shared by several sessions yields
// AmbiguousError. Find never changes the selection.
func (r *Registry) Find(ctx context.Context, uid, identifier string) (Session, error) {
	sessions, err := r.List(ctx, uid)
	if err != nil {
		return Session{}, err
	}
	for _, s := range sessions {
		if s.Code == identifier {
			return s, nil
		}
	}
	var byName []Session
	for _, s := range sessions {
		if strings.EqualFold(s.Name, identifier) {
			byName = append(byName, s)
		}
	}
	switch len(byName) {
	case 0:
		return Session{}, fmt.Errorf("%w: %q", ErrNotFound, identifier)
	case 1:
		return byName[0], nil
	default:
		codes := make([]string, len(byName))
		for i, s := range byName {
			codes[i] = s.Code
		}
		return Session{}, &AmbiguousError{Name: identifier, Codes: codes}
	}
}

// Select makes the matched session the default aggregation window. The
// selection is one document, so there is never more than one selected
// session no matter how calls interleave.
func (r *Registry) Select(ctx context.Context, uid, identifier string) (Session, error) {
	s, err := r.Find(ctx, uid, identifier)
	if err != nil {
		return Session{}, err
	}
	if err := r.docs.Set(ctx, store.SelectionPath(uid), store.Doc{"sessionId": s.ID}, false); err != nil {
		return Session{}, err
	}
	return s, nil
}

// ClearSelection drops the default session, if any.
func (r *Registry) ClearSelection(ctx context.Context, uid string) error {
	return r.docs.Delete(ctx, store.SelectionPath(uid))
}

// Selected returns the user's selected session, or nil when none is set. A
// selection pointing at a session that no longer exists is an invariant
// violation: it is logged, and the selection is forced to the
// most-recently-created session instead of propagating the dangling pointer.
func (r *Registry) Selected(ctx context.Context, uid string) (*Session, error) {
	doc, err := r.docs.Get(ctx, store.SelectionPath(uid))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	id := doc.Str("sessionId")

	sessions, err := r.List(ctx, uid)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].ID == id {
			return &sessions[i], nil
		}
	}

	r.log.Error("selection points at a missing session, forcing most recent",
		zap.String("uid", uid),
		zap.String("sessionId", id),
	)
	if len(sessions) == 0 {
		_ = r.docs.Delete(ctx, store.SelectionPath(uid))
		return nil, nil
	}
	canonical := sessions[0]
	if err := r.docs.Set(ctx, store.SelectionPath(uid), store.Doc{"sessionId": canonical.ID}, false); err != nil {
		return nil, err
	}
	return &canonical, nil
}

func encodeSession(s Session) store.Doc {
	doc := store.Doc{
		"name":      s.Name,
		"code":      s.Code,
		"startDate": s.Start.String(),
		"createdAt": s.CreatedAt.Unix(),
	}
	if s.End != nil {
		doc["endDate"] = s.End.String()
	}
	return doc
}

func decodeSession(path string, doc store.Doc) (Session, error) {
	start, err := domain.ParseDate(doc.Str("startDate"))
	if err != nil {
		return Session{}, fmt.Errorf("corrupt session %s: %w", path, err)
	}
	s := Session{
		ID:        path[strings.LastIndex(path, "/")+1:],
		Name:      doc.Str("name"),
		Code:      doc.Str("code"),
		Start:     start,
		CreatedAt: doc.Time("createdAt"),
	}
	if raw := doc.Str("endDate"); raw != "" {
		end, err := domain.ParseDate(raw)
		if err != nil {
			return Session{}, fmt.Errorf("corrupt session %s: %w", path, err)
		}
		s.End = &end
	}
	return s, nil
}

func decodeAll(entries []store.Entry, err error) ([]Session, error) {
	if err != nil {
		return nil, err
	}
	sessions := make([]Session, 0, len(entries))
	for _, e := range entries {
		s, err := decodeSession(e.Path, e.Doc)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}
