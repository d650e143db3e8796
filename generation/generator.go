// Package generation turns model completions into blog posts. It owns the
// generation schedule and the per-run generation log.
package generation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	"go.uber.org/zap"

	"github.com/eringen/fitpress/content"
	"github.com/eringen/fitpress/llm"
	"github.com/eringen/fitpress/log"
	"github.com/eringen/fitpress/metrics"
)

// PostStore stores generated posts and looks up existing categories.
type PostStore interface {
	CreatePost(ctx context.Context, in content.PostInput) (*content.Post, error)
	FindCategory(ctx context.Context, fragment string) (string, error)
}

// Generator runs the generation pipeline.
type Generator struct {
	completer llm.Completer
	posts     PostStore
	schedules *ScheduleStore
	logs      *LogStore

	pick   func(n int) int
	logger *zap.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithPicker replaces the random category picker. fn returns an index in
// [0, n).
func WithPicker(fn func(n int) int) Option {
	return func(g *Generator) { g.pick = fn }
}

// NewGenerator wires a Generator.
func NewGenerator(c llm.Completer, posts PostStore, schedules *ScheduleStore, logs *LogStore, opts ...Option) *Generator {
	g := &Generator{
		completer: c,
		posts:     posts,
		schedules: schedules,
		logs:      logs,
		pick:      rand.IntN,
		logger:    log.Logger.Named("generation"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Draft is the JSON object the model is asked to return.
type Draft struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Excerpt string   `json:"excerpt"`
	Tags    []string `json:"tags"`
}

// BuildPrompt returns the article prompt for category at the given length.
func BuildPrompt(category string, wordCount int) string {
	return fmt.Sprintf(`Generate a comprehensive, engaging, and informative fitness blog post about %s.

The blog post should:
1. Have a catchy title that includes relevant keywords for SEO
2. Be approximately %d words in length
3. Include an introduction that hooks the reader
4. Have 5-7 main sections with descriptive subheadings
5. Include actionable tips and advice
6. Cite scientific research where appropriate
7. Have a conclusion that summarizes key points
8. Include a call to action at the end

The tone should be professional but conversational, and the content should be accurate,
evidence-based, and valuable to readers interested in fitness and health.

Format your response as a JSON object with the following structure:
{
  "title": "The blog post title",
  "content": "The full HTML content of the blog post",
  "excerpt": "A 150-character summary of the post",
  "tags": ["tag1", "tag2", "tag3"]
}`, category, wordCount)
}

// Generate writes one post about category (a random scheduled category when
// empty) on behalf of authorID, which may be empty.
func (g *Generator) Generate(ctx context.Context, category, authorID string) (*content.Post, error) {
	sched, err := g.schedules.Get(ctx)
	if err != nil {
		return nil, err
	}
	return g.generate(ctx, "manual", sched, category, authorID)
}

func (g *Generator) generate(ctx context.Context, trigger string, sched *Schedule, category, authorID string) (*content.Post, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		if len(sched.Categories) == 0 {
			return nil, &content.ValidationError{Field: "category", Reason: "no category given and none scheduled"}
		}
		category = sched.Categories[g.pick(len(sched.Categories))]
	}

	prompt := BuildPrompt(category, WordCount(sched.ContentLength))
	logger := g.logger.With(zap.String("category", category))
	return g.track(ctx, trigger, prompt, logger, func() (*content.Post, error) {
		text, err := g.completer.Complete(ctx, prompt, "")
		if err != nil {
			return nil, errors.Wrap(err, "complete blog prompt")
		}

		var draft Draft
		if err := llm.DecodeJSON(text, &draft); err != nil {
			return nil, err
		}
		if strings.TrimSpace(draft.Title) == "" || strings.TrimSpace(draft.Content) == "" {
			return nil, errors.New("completion is missing title or content")
		}

		status := content.StatusDraft
		if sched.PublishImmediately {
			status = content.StatusPublished
		}
		return g.posts.CreatePost(ctx, content.PostInput{
			Title:         draft.Title,
			Excerpt:       draft.Excerpt,
			Content:       draft.Content,
			AuthorID:      authorID,
			Category:      category,
			Status:        status,
			IsAIGenerated: true,
			Tags:          draft.Tags,
		})
	})
}

// track records one generation run in the generation log and metrics. The
// log entry is marked failed when produce returns an error.
func (g *Generator) track(ctx context.Context, trigger, prompt string, logger *zap.Logger,
	produce func() (*content.Post, error)) (post *content.Post, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveGeneration(trigger, time.Since(start).Seconds(), err)
	}()

	logID, err := g.logs.Start(ctx, prompt)
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.String("log_id", logID))

	defer func() {
		if err == nil {
			return
		}
		// Mark the run failed even if ctx was cancelled mid-way.
		failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if ferr := g.logs.Fail(failCtx, logID, err.Error()); ferr != nil {
			logger.Error("mark generation failed", zap.Error(ferr))
		}
		logger.Warn("generation failed", zap.Error(err))
	}()

	post, err = produce()
	if err != nil {
		return nil, err
	}

	if err = g.logs.Complete(ctx, logID, post.ID); err != nil {
		// The post exists; a stale log is not worth failing the run over.
		logger.Error("mark generation completed", zap.Error(err))
		err = nil
	}
	logger.Info("post generated",
		zap.String("post_id", post.ID),
		zap.String("slug", post.Slug),
		zap.String("trigger", trigger))
	return post, nil
}

// ScheduledRun is the result of RunScheduled.
type ScheduledRun struct {
	Post               *content.Post `json:"post"`
	NextGenerationTime time.Time     `json:"nextGenerationTime"`
}

// RunScheduled generates a post with a random scheduled category and
// advances the schedule's next run from now.
func (g *Generator) RunScheduled(ctx context.Context, now time.Time) (*ScheduledRun, error) {
	sched, err := g.schedules.Get(ctx)
	if err != nil {
		return nil, err
	}

	post, err := g.generate(ctx, "scheduled", sched, "", "")
	if err != nil {
		return nil, err
	}

	next := NextGenerationTime(sched.Frequency, now)
	updated := *sched
	updated.NextGenerationTime = next
	if _, err := g.schedules.Save(ctx, updated); err != nil {
		return nil, err
	}
	return &ScheduledRun{Post: post, NextGenerationTime: next}, nil
}
