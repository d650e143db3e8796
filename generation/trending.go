package generation

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/Laisky/errors/v2"
	"go.uber.org/zap"

	"github.com/eringen/fitpress/content"
	"github.com/eringen/fitpress/llm"
)

// Topic is one trending subject suggested by the model.
type Topic struct {
	Title                 string   `json:"title"`
	Description           string   `json:"description"`
	Keywords              []string `json:"keywords"`
	EstimatedSearchVolume string   `json:"estimated_search_volume"`
	Difficulty            string   `json:"difficulty"`
}

const topicsPrompt = `List 5 health and fitness topics that are trending right now and would make strong blog posts.

For each topic give:
1. A compelling blog title
2. A short description of what the article would cover
3. 5-7 relevant SEO keywords
4. The estimated search volume: high, medium or low
5. The competition difficulty: high, medium or low

Prefer topics that are seasonal or currently popular, answer common questions,
and have good search potential for fitness enthusiasts.

Format your response as a JSON object with the following structure:
{
  "topics": [
    {
      "title": "Blog title",
      "description": "What the article covers",
      "keywords": ["keyword1", "keyword2"],
      "estimated_search_volume": "medium",
      "difficulty": "low"
    }
  ]
}`

const topicsSystemPrompt = "You are an SEO and content strategy expert for the health and fitness industry. " +
	"Recommend topics with strong search potential and relatively low competition, " +
	"based on current trends, seasonal interest and evergreen questions."

const seoSystemPrompt = "You are an expert SEO content writer specialising in health and fitness. " +
	"Use a clear H2 and H3 heading structure, place keywords naturally in the title, headings, " +
	"first paragraph and conclusion, and write in a conversational yet authoritative tone " +
	"backed by research where appropriate."

// TrendingWordCount is the article length asked for trending posts.
const TrendingWordCount = 1800

// SEODraft is the JSON object the model returns for a trending post.
type SEODraft struct {
	Title           string   `json:"title"`
	Slug            string   `json:"slug"`
	Excerpt         string   `json:"excerpt"`
	Content         string   `json:"content"`
	MetaDescription string   `json:"meta_description"`
	Keywords        []string `json:"keywords"`
	Tags            []string `json:"tags"`
	FAQ             *struct {
		Questions []FAQ `json:"questions"`
	} `json:"faq_section,omitempty"`
	ImagePrompts []string `json:"image_prompts"`
}

// FAQ is one question and answer of a trending post.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// TrendingPost is the result of GenerateTrending.
type TrendingPost struct {
	Post            *content.Post `json:"post"`
	ImagePrompts    []string      `json:"imagePrompts"`
	MetaDescription string        `json:"metaDescription,omitempty"`
	Keywords        []string      `json:"keywords,omitempty"`
}

// BuildTrendingPrompt returns the SEO article prompt for title and keywords.
func BuildTrendingPrompt(title string, keywords []string) string {
	return fmt.Sprintf(`Write a comprehensive, SEO-optimised blog post.

Title: %s
Target keywords: %s
Word count: %d
Target audience: Fitness enthusiasts
Content type: informational

The blog post should:
1. Open with an introduction that hooks the reader
2. Use H2 and H3 headings structured for SEO
3. Work the target keywords in naturally
4. Give practical, actionable advice
5. End with a conclusion and a call to action
6. Include a FAQ section with 5 common questions and detailed answers
7. Suggest 3 image prompts that would complement the article

Format your response as a JSON object with the following structure:
{
  "title": "The final blog post title",
  "slug": "seo-friendly-url-slug",
  "excerpt": "A compelling 150-character summary of the post",
  "content": "The full HTML content of the blog post",
  "meta_description": "SEO meta description under 160 characters",
  "keywords": ["keyword1", "keyword2"],
  "tags": ["tag1", "tag2"],
  "faq_section": {"questions": [{"question": "Question?", "answer": "Answer"}]},
  "image_prompts": ["Image prompt 1", "Image prompt 2", "Image prompt 3"]
}`, title, strings.Join(keywords, ", "), TrendingWordCount)
}

// TrendingTopics asks the model for currently trending fitness topics.
func (g *Generator) TrendingTopics(ctx context.Context) ([]Topic, error) {
	var out struct {
		Topics []Topic `json:"topics"`
	}
	if err := llm.CompleteJSON(ctx, g.completer, topicsPrompt, topicsSystemPrompt, &out); err != nil {
		return nil, errors.Wrap(err, "trending topics")
	}

	topics := out.Topics[:0]
	for _, t := range out.Topics {
		if t.Title = strings.TrimSpace(t.Title); t.Title != "" {
			topics = append(topics, t)
		}
	}
	if len(topics) == 0 {
		return nil, errors.New("completion has no trending topics")
	}
	g.logger.Debug("trending topics", zap.Int("count", len(topics)))
	return topics, nil
}

// GenerateTrending writes an SEO post about title on behalf of authorID.
// The model chooses the slug. The post joins the first existing category
// whose name contains the first keyword; none is created.
func (g *Generator) GenerateTrending(ctx context.Context, title string, keywords []string, authorID string, publish bool) (*TrendingPost, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &content.ValidationError{Field: "title", Reason: "is required"}
	}
	kws := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			kws = append(kws, k)
		}
	}

	prompt := BuildTrendingPrompt(title, kws)
	logger := g.logger.With(zap.String("topic", title))

	var draft SEODraft
	post, err := g.track(ctx, "trending", prompt, logger, func() (*content.Post, error) {
		if err := llm.CompleteJSON(ctx, g.completer, prompt, seoSystemPrompt, &draft); err != nil {
			return nil, errors.Wrap(err, "complete trending prompt")
		}
		if strings.TrimSpace(draft.Title) == "" || strings.TrimSpace(draft.Content) == "" {
			return nil, errors.New("completion is missing title or content")
		}

		in := content.PostInput{
			Title:         draft.Title,
			Slug:          draft.Slug,
			Excerpt:       draft.Excerpt,
			Content:       draft.Content + faqHTML(draft),
			AuthorID:      authorID,
			CategoryID:    g.matchCategory(ctx, kws, logger),
			Status:        content.StatusDraft,
			IsAIGenerated: true,
			Tags:          draft.Tags,
		}
		if content.NormalizeSlug(in.Slug) == "" {
			in.Slug = ""
		}
		if strings.TrimSpace(in.Excerpt) == "" {
			in.Excerpt = draft.MetaDescription
		}
		if publish {
			in.Status = content.StatusPublished
		}
		return g.posts.CreatePost(ctx, in)
	})
	if err != nil {
		return nil, err
	}
	return &TrendingPost{
		Post:            post,
		ImagePrompts:    draft.ImagePrompts,
		MetaDescription: draft.MetaDescription,
		Keywords:        draft.Keywords,
	}, nil
}

// matchCategory returns the id of the category matching the first keyword,
// or "" when there is none or the lookup fails.
func (g *Generator) matchCategory(ctx context.Context, keywords []string, logger *zap.Logger) string {
	if len(keywords) == 0 {
		return ""
	}
	id, err := g.posts.FindCategory(ctx, keywords[0])
	switch {
	case content.IsNotFound(err):
		return ""
	case err != nil:
		logger.Warn("match trending category", zap.String("keyword", keywords[0]), zap.Error(err))
		return ""
	}
	return id
}

// faqHTML renders the draft's FAQ section, or "" when it has none.
func faqHTML(d SEODraft) string {
	if d.FAQ == nil || len(d.FAQ.Questions) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n<h2>Frequently Asked Questions</h2>\n")
	for _, q := range d.FAQ.Questions {
		if strings.TrimSpace(q.Question) == "" {
			continue
		}
		fmt.Fprintf(&b, "<h3>%s</h3>\n<p>%s</p>\n", html.EscapeString(q.Question), html.EscapeString(q.Answer))
	}
	return b.String()
}
