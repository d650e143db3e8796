package generation

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/google/uuid"

	"github.com/eringen/fitpress/content"
)

// Frequency is how often scheduled generation runs.
type Frequency string

const (
	Daily  Frequency = "daily"
	Weekly Frequency = "weekly"
	Custom Frequency = "custom"
)

// ContentLength selects the target article length.
type ContentLength string

const (
	Short  ContentLength = "short"
	Medium ContentLength = "medium"
	Long   ContentLength = "long"
)

// WordCount is the approximate article length asked of the model.
func WordCount(l ContentLength) int {
	switch l {
	case Short:
		return 800
	case Long:
		return 1800
	default:
		return 1200
	}
}

// NextGenerationTime returns when the next scheduled run is due after now:
// 08:00 on the following day for daily, 08:00 seven days on for weekly.
// Custom schedules are driven externally, so now is returned unchanged.
func NextGenerationTime(freq Frequency, now time.Time) time.Time {
	var days int
	switch freq {
	case Daily:
		days = 1
	case Weekly:
		days = 7
	default:
		return now
	}
	y, m, d := now.Date()
	return time.Date(y, m, d+days, 8, 0, 0, 0, now.Location())
}

// Schedule is the active generation configuration.
type Schedule struct {
	ID                 string        `json:"id,omitempty"`
	Frequency          Frequency     `json:"frequency"`
	Categories         []string      `json:"categories"`
	ContentLength      ContentLength `json:"content_length"`
	PublishImmediately bool          `json:"publish_immediately"`
	NextGenerationTime time.Time     `json:"next_generation_time"`
	CreatedAt          time.Time     `json:"created_at,omitempty"`
	UpdatedAt          time.Time     `json:"updated_at,omitempty"`
}

// DefaultSchedule is used until a schedule has been saved.
func DefaultSchedule(now time.Time) Schedule {
	return Schedule{
		Frequency:          Daily,
		Categories:         []string{"Workouts", "Nutrition", "Recovery"},
		ContentLength:      Medium,
		PublishImmediately: false,
		NextGenerationTime: now.Add(24 * time.Hour),
	}
}

func (s *Schedule) normalize() error {
	switch s.Frequency {
	case Daily, Weekly, Custom:
	default:
		return &content.ValidationError{Field: "frequency", Reason: "must be daily, weekly or custom"}
	}
	switch s.ContentLength {
	case "":
		s.ContentLength = Medium
	case Short, Medium, Long:
	default:
		return &content.ValidationError{Field: "content_length", Reason: "must be short, medium or long"}
	}

	cats := s.Categories[:0]
	for _, c := range s.Categories {
		if c = strings.TrimSpace(c); c != "" {
			cats = append(cats, c)
		}
	}
	if len(cats) == 0 {
		return &content.ValidationError{Field: "categories", Reason: "at least one category is required"}
	}
	s.Categories = cats
	return nil
}

// ScheduleStore persists schedules. Every save adds a row with the next
// revision; the highest revision is the active schedule.
type ScheduleStore struct {
	db    *sql.DB
	clock func() time.Time
}

// NewScheduleStore returns a ScheduleStore over a migrated database.
func NewScheduleStore(db *sql.DB) *ScheduleStore {
	return &ScheduleStore{db: db, clock: time.Now}
}

func (s *ScheduleStore) now() time.Time {
	return s.clock().UTC().Truncate(time.Microsecond)
}

// Get returns the active schedule, or DefaultSchedule when none is saved.
func (s *ScheduleStore) Get(ctx context.Context) (*Schedule, error) {
	var (
		sc   Schedule
		cats string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, frequency, categories, content_length, publish_immediately,
       next_generation_time, created_at, updated_at
FROM ai_generation_schedule
ORDER BY revision DESC, created_at DESC, id DESC
LIMIT 1`).Scan(&sc.ID, &sc.Frequency, &cats, &sc.ContentLength, &sc.PublishImmediately,
		&sc.NextGenerationTime, &sc.CreatedAt, &sc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		def := DefaultSchedule(s.now())
		return &def, nil
	}
	if err != nil {
		return nil, &content.PersistenceError{Op: "get schedule", Err: errors.WithStack(err)}
	}
	if err := json.Unmarshal([]byte(cats), &sc.Categories); err != nil {
		return nil, &content.PersistenceError{Op: "decode schedule categories", Err: errors.WithStack(err)}
	}
	sc.NextGenerationTime = sc.NextGenerationTime.UTC()
	sc.CreatedAt = sc.CreatedAt.UTC()
	sc.UpdatedAt = sc.UpdatedAt.UTC()
	return &sc, nil
}

// Save validates sc and stores it as the active schedule. A zero
// NextGenerationTime is filled from the frequency.
func (s *ScheduleStore) Save(ctx context.Context, sc Schedule) (*Schedule, error) {
	sc.Categories = append([]string(nil), sc.Categories...)
	if err := sc.normalize(); err != nil {
		return nil, err
	}

	now := s.now()
	if sc.NextGenerationTime.IsZero() {
		sc.NextGenerationTime = NextGenerationTime(sc.Frequency, now)
	}
	sc.NextGenerationTime = sc.NextGenerationTime.UTC().Truncate(time.Microsecond)
	sc.ID = uuid.NewString()
	sc.CreatedAt, sc.UpdatedAt = now, now

	cats, err := json.Marshal(sc.Categories)
	if err != nil {
		return nil, errors.Wrap(err, "encode schedule categories")
	}
	if _, err := s.db.ExecContext(ctx, `
INSERT INTO ai_generation_schedule (
    id, frequency, categories, content_length, publish_immediately,
    next_generation_time, created_at, updated_at, revision
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
    (SELECT COALESCE(MAX(revision), 0) + 1 FROM ai_generation_schedule))`,
		sc.ID, string(sc.Frequency), string(cats), string(sc.ContentLength),
		sc.PublishImmediately, sc.NextGenerationTime, sc.CreatedAt, sc.UpdatedAt); err != nil {
		return nil, &content.PersistenceError{Op: "save schedule", Err: errors.WithStack(err)}
	}
	return &sc, nil
}
