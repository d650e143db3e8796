package generation

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eringen/fitpress/content"
)

type fakeCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt, _ string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func draftJSON(t *testing.T, d Draft) string {
	t.Helper()
	b, err := json.Marshal(d)
	require.NoError(t, err)
	return string(b)
}

type fixture struct {
	posts     *content.Store
	schedules *ScheduleStore
	logs      *LogStore
	completer *fakeCompleter
	gen       *Generator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := openTestDB(t)
	clock := stepping(time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC))

	f := &fixture{
		posts:     content.NewStore(db.DB, content.WithLogger(zap.NewNop()), content.WithClock(clock)),
		schedules: NewScheduleStore(db.DB),
		logs:      NewLogStore(db.DB),
		completer: &fakeCompleter{},
	}
	f.schedules.clock = clock
	f.logs.clock = clock
	f.gen = NewGenerator(f.completer, f.posts, f.schedules, f.logs,
		WithPicker(func(n int) int { return n - 1 }))
	f.gen.logger = zap.NewNop()
	return f
}

func TestGenerateCreatesDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.completer.reply = "```json\n" + draftJSON(t, Draft{
		Title:   "5 Recovery Myths",
		Content: "<h2>Sleep</h2><p>...</p>",
		Excerpt: "Short summary",
		Tags:    []string{"Recovery", "Sleep"},
	}) + "\n```"

	post, err := f.gen.Generate(ctx, "Recovery", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "5-recovery-myths", post.Slug)
	assert.Equal(t, content.StatusDraft, post.Status)
	assert.Nil(t, post.PublishedAt)
	assert.True(t, post.IsAIGenerated)
	assert.Equal(t, "admin-1", post.AuthorID)
	assert.NotEmpty(t, post.CategoryID)

	require.Len(t, f.completer.prompts, 1)
	assert.Contains(t, f.completer.prompts[0], "fitness blog post about Recovery")
	assert.Contains(t, f.completer.prompts[0], "approximately 1200 words")

	stored, err := f.posts.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Recovery", "Sleep"}, stored.TagNames())
	require.NotNil(t, stored.Category)
	assert.Equal(t, "Recovery", stored.Category.Name)

	logs, err := f.logs.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, LogCompleted, logs[0].Status)
	assert.Equal(t, post.ID, logs[0].BlogPostID)
	assert.Equal(t, "5 Recovery Myths", logs[0].PostTitle)
}

func TestGeneratePublishesWhenScheduled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.schedules.Save(ctx, Schedule{
		Frequency:          Daily,
		Categories:         []string{"Strength"},
		ContentLength:      Short,
		PublishImmediately: true,
	})
	require.NoError(t, err)
	f.completer.reply = draftJSON(t, Draft{Title: "Deadlift Basics", Content: "<p>hinge</p>"})

	post, err := f.gen.Generate(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, content.StatusPublished, post.Status)
	assert.NotNil(t, post.PublishedAt)
	assert.Contains(t, f.completer.prompts[0], "about Strength")
	assert.Contains(t, f.completer.prompts[0], "approximately 800 words")
}

func TestGenerateFailuresAreLogged(t *testing.T) {
	cases := []struct {
		name  string
		reply string
		err   error
		want  string
	}{
		{"completion error", "", errors.New("upstream 503"), "upstream 503"},
		{"not json", "I cannot help with that", nil, "not valid JSON"},
		{"missing title", `{"content":"<p>x</p>"}`, nil, "missing title"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.completer.reply, f.completer.err = tc.reply, tc.err

			_, err := f.gen.Generate(ctx, "Nutrition", "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)

			logs, lerr := f.logs.List(ctx, 10)
			require.NoError(t, lerr)
			require.Len(t, logs, 1)
			assert.Equal(t, LogFailed, logs[0].Status)
			assert.True(t, strings.Contains(logs[0].ErrorMessage, tc.want))
			assert.Empty(t, logs[0].BlogPostID)

			st, serr := f.posts.Stats(ctx)
			require.NoError(t, serr)
			assert.Equal(t, 0, st.Total)
		})
	}
}

func TestRunScheduled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.schedules.Save(ctx, Schedule{
		Frequency:  Weekly,
		Categories: []string{"Workouts", "Cardio"},
	})
	require.NoError(t, err)
	f.completer.reply = draftJSON(t, Draft{Title: "Zone 2 Training", Content: "<p>easy</p>", Tags: []string{"cardio"}})

	now := time.Date(2026, 4, 10, 15, 0, 0, 0, time.UTC)
	run, err := f.gen.RunScheduled(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, "zone-2-training", run.Post.Slug)
	assert.Equal(t, time.Date(2026, 4, 17, 8, 0, 0, 0, time.UTC), run.NextGenerationTime)
	// the picker takes the last category
	assert.Contains(t, f.completer.prompts[0], "about Cardio")

	sched, err := f.schedules.Get(ctx)
	require.NoError(t, err)
	assert.True(t, run.NextGenerationTime.Equal(sched.NextGenerationTime))
	assert.Equal(t, []string{"Workouts", "Cardio"}, sched.Categories)
}

func TestRunScheduledFailureKeepsSchedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.completer.err = errors.New("timeout")

	_, err := f.gen.RunScheduled(ctx, time.Now())
	require.Error(t, err)

	sched, err := f.schedules.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, sched.ID, "nothing saved, still the default")
}
