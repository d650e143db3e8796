package generation

import (
	"context"
	"database/sql"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/google/uuid"

	"github.com/eringen/fitpress/content"
)

// LogStatus is the state of one generation run.
type LogStatus string

const (
	LogProcessing LogStatus = "processing"
	LogCompleted  LogStatus = "completed"
	LogFailed     LogStatus = "failed"
)

// LogEntry records one generation run.
type LogEntry struct {
	ID           string    `json:"id"`
	Prompt       string    `json:"prompt"`
	Status       LogStatus `json:"status"`
	BlogPostID   string    `json:"blog_post_id,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Joined from blog_posts when the post still exists.
	PostTitle  string `json:"post_title,omitempty"`
	PostStatus string `json:"post_status,omitempty"`
}

// LogStore reads and writes ai_generation_logs.
type LogStore struct {
	db    *sql.DB
	clock func() time.Time
}

// NewLogStore returns a LogStore over a migrated database.
func NewLogStore(db *sql.DB) *LogStore {
	return &LogStore{db: db, clock: time.Now}
}

func (s *LogStore) now() time.Time {
	return s.clock().UTC().Truncate(time.Microsecond)
}

// Start records a run in the processing state and returns its id.
func (s *LogStore) Start(ctx context.Context, prompt string) (string, error) {
	id := uuid.NewString()
	now := s.now()
	if _, err := s.db.ExecContext(ctx, `
INSERT INTO ai_generation_logs (id, prompt, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)`, id, prompt, string(LogProcessing), now, now); err != nil {
		return "", &content.PersistenceError{Op: "start generation log", Err: errors.WithStack(err)}
	}
	return id, nil
}

// Complete marks the run completed with the post it produced.
func (s *LogStore) Complete(ctx context.Context, id, postID string) error {
	return s.finish(ctx, id, LogCompleted, postID, "")
}

// Fail marks the run failed with msg.
func (s *LogStore) Fail(ctx context.Context, id, msg string) error {
	if msg == "" {
		msg = "Unknown error"
	}
	return s.finish(ctx, id, LogFailed, "", msg)
}

func (s *LogStore) finish(ctx context.Context, id string, status LogStatus, postID, msg string) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE ai_generation_logs
SET status = $1, blog_post_id = $2, error_message = $3, updated_at = $4
WHERE id = $5`,
		string(status),
		sql.NullString{String: postID, Valid: postID != ""},
		sql.NullString{String: msg, Valid: msg != ""},
		s.now(), id)
	if err != nil {
		return &content.PersistenceError{Op: "finish generation log", Err: errors.WithStack(err)}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &content.NotFoundError{Entity: "generation log", Key: id}
	}
	return nil
}

// List returns the newest limit runs.
func (s *LogStore) List(ctx context.Context, limit int) ([]LogEntry, error) {
	if limit < 1 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT l.id, l.prompt, l.status, l.blog_post_id, l.error_message,
       l.created_at, l.updated_at, p.title, p.status
FROM ai_generation_logs l
LEFT JOIN blog_posts p ON p.id = l.blog_post_id
ORDER BY l.created_at DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, &content.PersistenceError{Op: "list generation logs", Err: errors.WithStack(err)}
	}
	defer rows.Close()

	var out []LogEntry
	for rows.Next() {
		var (
			e                              LogEntry
			postID, msg, title, postStatus sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Prompt, &e.Status, &postID, &msg,
			&e.CreatedAt, &e.UpdatedAt, &title, &postStatus); err != nil {
			return nil, &content.PersistenceError{Op: "scan generation log", Err: errors.WithStack(err)}
		}
		e.BlogPostID = postID.String
		e.ErrorMessage = msg.String
		e.PostTitle = title.String
		e.PostStatus = postStatus.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &content.PersistenceError{Op: "list generation logs", Err: errors.WithStack(err)}
	}
	return out, nil
}
