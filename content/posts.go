package content

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eringen/fitpress/metrics"
)

func (in *PostInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	if strings.TrimSpace(in.Content) == "" {
		return &ValidationError{Field: "content", Reason: "is required"}
	}
	if !in.Status.Valid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("must be %q or %q", StatusDraft, StatusPublished)}
	}
	return nil
}

func (p *PostPatch) validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be blank"}
	}
	if p.Content != nil && strings.TrimSpace(*p.Content) == "" {
		return &ValidationError{Field: "content", Reason: "must not be blank"}
	}
	if p.Slug != nil && NormalizeSlug(*p.Slug) == "" {
		return &ValidationError{Field: "slug", Reason: "must contain a letter or digit"}
	}
	if p.Status != nil && !p.Status.Valid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("must be %q or %q", StatusDraft, StatusPublished)}
	}
	return nil
}

// CreatePost validates and inserts a post, then links its tags.
//
// A failed insert returns a PersistenceError and no tag is touched. Tag and
// category resolution failures are logged and skipped; the post is still
// returned. The returned post carries no tag list.
func (s *Store) CreatePost(ctx context.Context, in PostInput) (*Post, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	slug := in.Slug
	if strings.TrimSpace(slug) == "" {
		slug = in.Title
	}
	slug = NormalizeSlug(slug)
	if slug == "" {
		return nil, &ValidationError{Field: "slug", Reason: "must contain a letter or digit"}
	}

	categoryID := in.CategoryID
	if categoryID == "" && strings.TrimSpace(in.Category) != "" {
		categoryID = s.resolveCategorySoft(ctx, in.Category)
	}

	now := s.now()
	post := &Post{
		ID:            uuid.NewString(),
		Title:         strings.TrimSpace(in.Title),
		Slug:          slug,
		Excerpt:       in.Excerpt,
		Content:       in.Content,
		FeaturedImage: in.FeaturedImage,
		AuthorID:      in.AuthorID,
		CategoryID:    categoryID,
		Status:        in.Status,
		IsAIGenerated: in.IsAIGenerated,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if post.Status == StatusPublished {
		post.PublishedAt = &now
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO blog_posts (
    id, title, slug, excerpt, content, featured_image, author_id, category_id,
    status, is_ai_generated, view_count, published_at, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		post.ID, post.Title, post.Slug, post.Excerpt, post.Content,
		nullString(post.FeaturedImage), nullString(post.AuthorID), nullString(post.CategoryID),
		string(post.Status), post.IsAIGenerated, 0, nullTime(post.PublishedAt),
		post.CreatedAt, post.UpdatedAt)
	metrics.ObservePostWrite("create", err)
	if err != nil {
		return nil, persistence("insert post", err)
	}

	linked := s.associateTags(ctx, post.ID, in.Tags)
	s.logger.Info("post created",
		zap.String("id", post.ID),
		zap.String("slug", post.Slug),
		zap.String("status", string(post.Status)),
		zap.Int("tags", linked))
	return post, nil
}

// UpdatePost applies patch to the post with the given id and returns the
// updated post with its tags.
//
// Moving to published stamps published_at unless it is already set; it is
// never cleared. A non-nil patch.Tags replaces the tag set with the same
// per-tag skip policy as CreatePost.
func (s *Store) UpdatePost(ctx context.Context, id string, patch PostPatch) (*Post, error) {
	if err := patch.validate(); err != nil {
		return nil, err
	}

	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	now := s.now()
	if patch.Title != nil {
		set("title", strings.TrimSpace(*patch.Title))
	}
	if patch.Slug != nil {
		set("slug", NormalizeSlug(*patch.Slug))
	}
	if patch.Excerpt != nil {
		set("excerpt", *patch.Excerpt)
	}
	if patch.Content != nil {
		set("content", *patch.Content)
	}
	if patch.FeaturedImage != nil {
		set("featured_image", nullString(*patch.FeaturedImage))
	}
	switch {
	case patch.CategoryID != nil:
		set("category_id", nullString(*patch.CategoryID))
	case patch.Category != nil && strings.TrimSpace(*patch.Category) == "":
		set("category_id", nullString(""))
	case patch.Category != nil:
		// Resolving creates the category, so the post must exist first.
		if err := s.requirePost(ctx, id); err != nil {
			return nil, err
		}
		if categoryID := s.resolveCategorySoft(ctx, *patch.Category); categoryID != "" {
			set("category_id", categoryID)
		}
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
		if *patch.Status == StatusPublished {
			args = append(args, now)
			sets = append(sets, fmt.Sprintf("published_at = COALESCE(published_at, $%d)", len(args)))
		}
	}
	if patch.IsAIGenerated != nil {
		set("is_ai_generated", *patch.IsAIGenerated)
	}
	set("updated_at", now)

	args = append(args, id)
	query := fmt.Sprintf("UPDATE blog_posts SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		metrics.ObservePostWrite("update", err)
		return nil, persistence("update post", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		metrics.ObservePostWrite("update", err)
		return nil, persistence("update post", err)
	}
	if n == 0 {
		return nil, &NotFoundError{Entity: "post", Key: id}
	}
	metrics.ObservePostWrite("update", nil)

	if patch.Tags != nil {
		s.replaceTags(ctx, id, patch.Tags)
	}

	post, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("post updated", zap.String("id", id), zap.Int("fields", len(sets)))
	return post, nil
}

// requirePost returns a NotFoundError when no post has the given id.
func (s *Store) requirePost(ctx context.Context, id string) error {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM blog_posts WHERE id = $1", id).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return &NotFoundError{Entity: "post", Key: id}
	case err != nil:
		return persistence("look up post", err)
	}
	return nil
}

// replaceTags drops every association of the post and links names instead.
// When the old associations cannot be dropped the new ones are not added,
// so the tag set is never a union of old and new.
func (s *Store) replaceTags(ctx context.Context, postID string, names []string) {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM blog_post_tags WHERE blog_post_id = $1`, postID); err != nil {
		s.softFail("tag", "clear post tags", err, zap.String("post_id", postID))
		return
	}
	s.associateTags(ctx, postID, names)
}

// DeletePost removes the post and its tag associations in one transaction.
func (s *Store) DeletePost(ctx context.Context, id string) (err error) {
	defer func() {
		if err == nil || IsPersistence(err) {
			metrics.ObservePostWrite("delete", err)
		}
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistence("begin delete post", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM blog_post_tags WHERE blog_post_id = $1`, id); err != nil {
		return persistence("delete post tags", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
	if err != nil {
		return persistence("delete post", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return persistence("delete post", err)
	}
	if n == 0 {
		return &NotFoundError{Entity: "post", Key: id}
	}
	if err = tx.Commit(); err != nil {
		return persistence("commit delete post", err)
	}

	s.logger.Info("post deleted", zap.String("id", id))
	return nil
}

// IncrementViewCount adds one view to the post. It never fails the caller:
// errors, including an unknown id, are only logged and counted.
func (s *Store) IncrementViewCount(ctx context.Context, id string) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE blog_posts SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		s.softFail("view_count", "increment view count", err, zap.String("post_id", id))
		return
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		s.softFail("view_count", "increment view count",
			errors.Errorf("post %q not found", id), zap.String("post_id", id))
	}
}
