package content

import "time"

// Status is the publication state of a post.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Post is a stored blog post.
type Post struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Slug          string       `json:"slug"`
	Excerpt       string       `json:"excerpt"`
	Content       string       `json:"content"`
	FeaturedImage string       `json:"featured_image,omitempty"`
	AuthorID      string       `json:"author_id,omitempty"`
	CategoryID    string       `json:"category_id,omitempty"`
	Status        Status       `json:"status"`
	IsAIGenerated bool         `json:"is_ai_generated"`
	ViewCount     int64        `json:"view_count"`
	PublishedAt   *time.Time   `json:"published_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	Category      *CategoryRef `json:"category,omitempty"`
	Tags          []Tag        `json:"tags,omitempty"`
}

// Published reports whether the post is publicly visible.
func (p Post) Published() bool { return p.Status == StatusPublished }

// Date is the date shown to readers: published_at when set, else created_at.
func (p Post) Date() time.Time {
	if p.PublishedAt != nil {
		return *p.PublishedAt
	}
	return p.CreatedAt
}

// TagNames returns the names of the attached tags.
func (p Post) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		names = append(names, t.Name)
	}
	return names
}

// PostInput is the caller-supplied data for CreatePost.
//
// Category is a free-text category name resolved (or created) by the store.
// It is ignored when CategoryID is set.
type PostInput struct {
	Title         string   `json:"title"`
	Slug          string   `json:"slug,omitempty"`
	Excerpt       string   `json:"excerpt"`
	Content       string   `json:"content"`
	FeaturedImage string   `json:"featured_image,omitempty"`
	AuthorID      string   `json:"author_id,omitempty"`
	CategoryID    string   `json:"category_id,omitempty"`
	Category      string   `json:"category,omitempty"`
	Status        Status   `json:"status"`
	IsAIGenerated bool     `json:"is_ai_generated"`
	Tags          []string `json:"tags,omitempty"`
}

// PostPatch is a partial update. Nil fields are left untouched.
//
// A non-nil Tags replaces the post's whole tag set; an empty slice clears it.
type PostPatch struct {
	Title         *string  `json:"title,omitempty"`
	Slug          *string  `json:"slug,omitempty"`
	Excerpt       *string  `json:"excerpt,omitempty"`
	Content       *string  `json:"content,omitempty"`
	FeaturedImage *string  `json:"featured_image,omitempty"`
	CategoryID    *string  `json:"category_id,omitempty"`
	Category      *string  `json:"category,omitempty"`
	Status        *Status  `json:"status,omitempty"`
	IsAIGenerated *bool    `json:"is_ai_generated,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

// Category groups posts under one topic.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	PostCount   int       `json:"post_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// CategoryRef is the category summary joined onto a post.
type CategoryRef struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Tag labels posts; a post may carry many.
type Tag struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	PostCount int    `json:"post_count,omitempty"`
}

// Page is one page of a post listing.
type Page struct {
	Posts      []Post `json:"posts"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"totalPages"`
}

// HasNext reports whether a later page exists.
func (p *Page) HasNext() bool { return p.Page < p.TotalPages }

// HasPrev reports whether an earlier page exists.
func (p *Page) HasPrev() bool { return p.Page > 1 }

// Stats summarises the post table for the admin dashboard.
type Stats struct {
	Total       int   `json:"total"`
	Published   int   `json:"published"`
	Drafts      int   `json:"drafts"`
	AIGenerated int   `json:"ai_generated"`
	TotalViews  int64 `json:"total_views"`
}
