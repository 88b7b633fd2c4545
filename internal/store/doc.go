package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound means no document exists at the requested path.
	ErrNotFound = errors.New("document not found")
	// ErrExists is returned by Tx.Create when the path is already taken.
	ErrExists = errors.New("document already exists")
	// ErrUnavailable wraps transient storage I/O failures. Callers may retry;
	// the store itself never does.
	ErrUnavailable = errors.New("storage unavailable")
)

// Doc is one decoded JSON document.
type Doc map[string]any

// Entry pairs a document with its path, as returned by List.
type Entry struct {
	Path string
	Doc  Doc
}

// Docs is a document-style key-value store. Paths are slash-separated and a
// trailing-slash prefix acts as a collection (see List). One document per
// day, one per session, one per user config — the layout lives in paths.go.
type Docs interface {
	// Get returns the document at path, or ErrNotFound.
	Get(ctx context.Context, path string) (Doc, error)
	// Set writes the document at path. With merge, fields are folded into the
	// existing document instead of replacing it wholesale.
	Set(ctx context.Context, path string, doc Doc, merge bool) error
	// Delete removes the document at path. Missing documents are a no-op.
	Delete(ctx context.Context, path string) error
	// List returns all documents whose path starts with prefix, path-ordered.
	List(ctx context.Context, prefix string) ([]Entry, error)
	// RunTransaction runs fn inside a single atomic read-modify-write. Any
	// error from fn aborts the transaction with nothing written.
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// Tx is the transactional view handed to RunTransaction callbacks.
type Tx interface {
	Get(path string) (Doc, error)
	Set(path string, doc Doc, merge bool) error
	// Create writes a new document, failing with ErrExists if one is present.
	Create(path string, doc Doc) error
	Delete(path string) error
	List(prefix string) ([]Entry, error)
}

// JSON numbers decode as float64, so typed reads go through these helpers.
// A missing or mistyped field yields the zero value; the document shapes are
// all written by this process, so that is a decode bug, not user input.

func (d Doc) Str(key string) string {
	s, _ := d[key].(string)
	return s
}

func (d Doc) Int64(key string) int64 {
	f, _ := d[key].(float64)
	return int64(f)
}

func (d Doc) Bool(key string) bool {
	b, _ := d[key].(bool)
	return b
}

// Time reads a unix-seconds field. Zero means the field was absent.
func (d Doc) Time(key string) time.Time {
	sec := d.Int64(key)
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// Ints reads a JSON array of numbers.
func (d Doc) Ints(key string) []int {
	raw, _ := d[key].([]any)
	if len(raw) == 0 {
		return nil
	}
	out := make([]int, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(float64); ok {
			out = append(out, int(f))
		}
	}
	return out
}
