package content

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/Laisky/errors/v2"
	"golang.org/x/sync/errgroup"
)

const postSelect = `
SELECT p.id, p.title, p.slug, p.excerpt, p.content, p.featured_image, p.author_id,
       p.category_id, p.status, p.is_ai_generated, p.view_count, p.published_at,
       p.created_at, p.updated_at, c.name, c.slug
FROM blog_posts p
LEFT JOIN categories c ON c.id = p.category_id`

const postOrder = ` ORDER BY p.published_at DESC NULLS LAST, p.created_at DESC, p.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (Post, error) {
	var (
		p                          Post
		status                     string
		image, author, categoryID  sql.NullString
		categoryName, categorySlug sql.NullString
		publishedAt                sql.NullTime
	)
	if err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Content, &image, &author,
		&categoryID, &status, &p.IsAIGenerated, &p.ViewCount, &publishedAt,
		&p.CreatedAt, &p.UpdatedAt, &categoryName, &categorySlug,
	); err != nil {
		return Post{}, err
	}
	p.Status = Status(status)
	p.FeaturedImage = image.String
	p.AuthorID = author.String
	p.CategoryID = categoryID.String
	if publishedAt.Valid {
		t := publishedAt.Time.UTC()
		p.PublishedAt = &t
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	if categoryName.Valid {
		p.Category = &CategoryRef{Name: categoryName.String, Slug: categorySlug.String}
	}
	return p, nil
}

func (s *Store) getPostWhere(ctx context.Context, key, where string, arg any) (*Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, postSelect+" WHERE "+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "post", Key: key}
	}
	if err != nil {
		return nil, persistence("get post", err)
	}
	if p.Tags, err = s.tagsFor(ctx, p.ID); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPostBySlug returns the post with the exact slug, any status.
func (s *Store) GetPostBySlug(ctx context.Context, slug string) (*Post, error) {
	return s.getPostWhere(ctx, slug, "p.slug = $1", slug)
}

// GetPost returns the post with the given id, any status.
func (s *Store) GetPost(ctx context.Context, id string) (*Post, error) {
	return s.getPostWhere(ctx, id, "p.id = $1", id)
}

// ListPosts returns one page of posts with the given status, newest first.
// An empty status means published. A page past the end is empty, not an
// error.
func (s *Store) ListPosts(ctx context.Context, page, limit int, status Status) (*Page, error) {
	if status == "" {
		status = StatusPublished
	}
	if !status.Valid() {
		return nil, &ValidationError{Field: "status", Reason: "unknown status " + string(status)}
	}
	return s.listPosts(ctx, page, limit, "p.status = $1", string(status))
}

// ListPostsByCategory returns one page of published posts in the category
// with the given slug.
func (s *Store) ListPostsByCategory(ctx context.Context, categorySlug string, page, limit int) (*Page, error) {
	return s.listPosts(ctx, page, limit,
		"p.status = $1 AND c.slug = $2", string(StatusPublished), categorySlug)
}

func (s *Store) listPosts(ctx context.Context, page, limit int, where string, args ...any) (*Page, error) {
	if page < 1 {
		return nil, &ValidationError{Field: "page", Reason: "must be at least 1"}
	}
	if limit < 1 {
		return nil, &ValidationError{Field: "limit", Reason: "must be at least 1"}
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM blog_posts p
LEFT JOIN categories c ON c.id = p.category_id
WHERE `+where, args...).Scan(&total); err != nil {
		return nil, persistence("count posts", err)
	}

	result := &Page{
		Posts:      []Post{},
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}
	offset := (page - 1) * limit
	if offset >= total {
		return result, nil
	}

	n := len(args)
	query := postSelect + " WHERE " + where + postOrder +
		" LIMIT $" + strconv.Itoa(n+1) + " OFFSET $" + strconv.Itoa(n+2)
	rows, err := s.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, persistence("list posts", err)
	}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			_ = rows.Close()
			return nil, persistence("scan post", err)
		}
		result.Posts = append(result.Posts, p)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, persistence("list posts", err)
	}
	_ = rows.Close()

	if err := s.attachTags(ctx, result.Posts); err != nil {
		return nil, err
	}
	return result, nil
}

// attachTags fetches each post's tags concurrently, bounded by
// tagFetchLimit.
func (s *Store) attachTags(ctx context.Context, posts []Post) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.tagFetchLimit)
	for i := range posts {
		g.Go(func() error {
			tags, err := s.tagsFor(gctx, posts[i].ID)
			if err != nil {
				return err
			}
			posts[i].Tags = tags
			return nil
		})
	}
	return g.Wait()
}

// RelatedPosts returns up to limit other published posts sharing post's
// category.
func (s *Store) RelatedPosts(ctx context.Context, post *Post, limit int) ([]Post, error) {
	if post == nil || post.CategoryID == "" || limit < 1 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, postSelect+`
WHERE p.status = $1 AND p.category_id = $2 AND p.id <> $3`+postOrder+` LIMIT $4`,
		string(StatusPublished), post.CategoryID, post.ID, limit)
	if err != nil {
		return nil, persistence("related posts", err)
	}
	defer rows.Close()

	var out []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, persistence("scan post", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("related posts", err)
	}
	return out, nil
}

// AllPublished returns every published post without tags, newest first.
// Feeds and the sitemap use it.
func (s *Store) AllPublished(ctx context.Context) ([]Post, error) {
	rows, err := s.db.QueryContext(ctx, postSelect+` WHERE p.status = $1`+postOrder,
		string(StatusPublished))
	if err != nil {
		return nil, persistence("list published", err)
	}
	defer rows.Close()

	var out []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, persistence("scan post", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("list published", err)
	}
	return out, nil
}

// Stats counts posts for the admin dashboard.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*),
       COALESCE(SUM(CASE WHEN status = $1 THEN 1 ELSE 0 END), 0),
       COALESCE(SUM(CASE WHEN is_ai_generated THEN 1 ELSE 0 END), 0),
       COALESCE(SUM(view_count), 0)
FROM blog_posts`, string(StatusPublished)).
		Scan(&st.Total, &st.Published, &st.AIGenerated, &st.TotalViews)
	if err != nil {
		return nil, persistence("post stats", err)
	}
	st.Drafts = st.Total - st.Published
	return &st, nil
}
