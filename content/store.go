// Package content is the blog store: posts, categories and tags, with
// upsert-by-name taxonomy and slug normalisation. It runs unchanged on
// SQLite and PostgreSQL.
package content

import (
	"database/sql"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eringen/fitpress/log"
	"github.com/eringen/fitpress/metrics"
)

// Store reads and writes content over a database/sql handle.
type Store struct {
	db     *sql.DB
	clock  func() time.Time
	logger *zap.Logger

	// tagFetchLimit bounds concurrent per-post tag lookups in listings.
	tagFetchLimit int
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.clock = fn }
}

// WithLogger replaces the package logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithTagFetchLimit sets how many tag lookups a listing runs at once.
func WithTagFetchLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.tagFetchLimit = n
		}
	}
}

// NewStore returns a Store over a migrated database.
func NewStore(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:            db,
		clock:         time.Now,
		logger:        log.Logger.Named("content"),
		tagFetchLimit: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// now is UTC and truncated to microseconds so values round-trip through
// both backends unchanged.
func (s *Store) now() time.Time {
	return s.clock().UTC().Truncate(time.Microsecond)
}

// softFail logs and counts an error that must not abort the caller.
func (s *Store) softFail(kind, msg string, err error, fields ...zap.Field) {
	metrics.ObserveSoftFailure(kind)
	s.logger.Warn(msg, append(fields, zap.Error(err))...)
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
