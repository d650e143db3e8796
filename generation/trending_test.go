package generation

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/fitpress/content"
)

func seoJSON(t *testing.T, d SEODraft) string {
	t.Helper()
	b, err := json.Marshal(d)
	require.NoError(t, err)
	return string(b)
}

func TestTrendingTopics(t *testing.T) {
	f := newFixture(t)
	f.completer.reply = "```json\n" + `{"topics": [
		{"title": "Zone 2 Cardio for Longevity", "keywords": ["zone 2", "cardio"], "difficulty": "low"},
		{"title": "  "},
		{"title": "Creatine for Women", "estimated_search_volume": "high"}
	]}` + "\n```"

	topics, err := f.gen.TrendingTopics(context.Background())
	require.NoError(t, err)
	require.Len(t, topics, 2)
	assert.Equal(t, "Zone 2 Cardio for Longevity", topics[0].Title)
	assert.Equal(t, []string{"zone 2", "cardio"}, topics[0].Keywords)
	assert.Equal(t, "high", topics[1].EstimatedSearchVolume)
	assert.Contains(t, f.completer.prompts[0], "Respond with a valid JSON object only.")
}

func TestTrendingTopicsErrors(t *testing.T) {
	f := newFixture(t)
	f.completer.reply = `{"topics": []}`
	_, err := f.gen.TrendingTopics(context.Background())
	require.Error(t, err)

	f.completer.reply = "no idea"
	_, err = f.gen.TrendingTopics(context.Background())
	require.Error(t, err)

	f.completer.err = errors.New("upstream 503")
	_, err = f.gen.TrendingTopics(context.Background())
	assert.ErrorContains(t, err, "upstream 503")
}

func TestGenerateTrendingUsesModelSlug(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	catID, err := f.posts.ResolveCategory(ctx, "Strength Training")
	require.NoError(t, err)

	draft := SEODraft{
		Title:           "Progressive Overload Explained",
		Slug:            "progressive-overload-guide",
		Content:         "<h2>Why</h2><p>more load</p>",
		MetaDescription: "How to add load safely.",
		Keywords:        []string{"progressive overload"},
		Tags:            []string{"strength", "programming"},
		ImagePrompts:    []string{"barbell close-up"},
	}
	draft.FAQ = &struct {
		Questions []FAQ `json:"questions"`
	}{Questions: []FAQ{{Question: "How often?", Answer: "Every <week>."}}}
	f.completer.reply = seoJSON(t, draft)

	res, err := f.gen.GenerateTrending(ctx, "Progressive Overload", []string{"strength", "overload"}, "admin-1", true)
	require.NoError(t, err)
	post := res.Post
	assert.Equal(t, "progressive-overload-guide", post.Slug)
	assert.Equal(t, content.StatusPublished, post.Status)
	assert.NotNil(t, post.PublishedAt)
	assert.True(t, post.IsAIGenerated)
	assert.Equal(t, catID, post.CategoryID)
	assert.Equal(t, "How to add load safely.", post.Excerpt)
	assert.Contains(t, post.Content, "<h3>How often?</h3>")
	assert.Contains(t, post.Content, "Every &lt;week&gt;.")
	assert.Equal(t, []string{"barbell close-up"}, res.ImagePrompts)

	require.Len(t, f.completer.prompts, 1)
	assert.Contains(t, f.completer.prompts[0], "Title: Progressive Overload")
	assert.Contains(t, f.completer.prompts[0], "Target keywords: strength, overload")

	logs, err := f.logs.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, LogCompleted, logs[0].Status)
	assert.Equal(t, post.ID, logs[0].BlogPostID)
}

func TestGenerateTrendingCreatesNoCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.completer.reply = seoJSON(t, SEODraft{Title: "Sauna After Lifting", Slug: "???", Content: "<p>heat</p>"})

	res, err := f.gen.GenerateTrending(ctx, "Sauna", []string{"sauna"}, "", false)
	require.NoError(t, err)
	assert.Equal(t, "sauna-after-lifting", res.Post.Slug, "unusable model slug falls back to the title")
	assert.Equal(t, content.StatusDraft, res.Post.Status)
	assert.Empty(t, res.Post.CategoryID)

	cats, err := f.posts.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, cats)
}

func TestGenerateTrendingFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.gen.GenerateTrending(ctx, " ", nil, "", false)
	assert.True(t, content.IsValidation(err))
	assert.Empty(t, f.completer.prompts)

	f.completer.reply = seoJSON(t, SEODraft{Title: "Deload Weeks", Slug: "deload", Content: "<p>rest</p>"})
	_, err = f.gen.GenerateTrending(ctx, "Deload", nil, "", false)
	require.NoError(t, err)

	_, err = f.gen.GenerateTrending(ctx, "Deload again", nil, "", false)
	assert.True(t, content.IsConflict(err))

	logs, err := f.logs.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, LogFailed, logs[0].Status)
}
