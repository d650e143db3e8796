package content

import (
	"context"
	"database/sql"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FindCategory returns the id of the oldest category whose name contains
// fragment (case-insensitively), or a NotFoundError.
func (s *Store) FindCategory(ctx context.Context, fragment string) (string, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return "", &ValidationError{Field: "category", Reason: "must not be blank"}
	}

	var id string
	err := s.db.QueryRowContext(ctx, `
SELECT id FROM categories
WHERE LOWER(name) LIKE $1 ESCAPE '\'
ORDER BY created_at, id
LIMIT 1`, "%"+escapeLike(strings.ToLower(fragment))+"%").Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", &NotFoundError{Entity: "category", Key: fragment}
	case err != nil:
		return "", persistence("find category", err)
	}
	return id, nil
}

// ResolveCategory returns the id of the oldest category whose name contains
// name (case-insensitively), creating the category when none does.
func (s *Store) ResolveCategory(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	id, err := s.FindCategory(ctx, name)
	if !IsNotFound(err) {
		return id, err
	}

	slug := NormalizeSlug(name)
	if slug == "" {
		return "", &ValidationError{Field: "category", Reason: "must contain a letter or digit"}
	}
	// Upsert on slug: concurrent creators converge on a single row.
	err = s.db.QueryRowContext(ctx, `
INSERT INTO categories (id, name, slug, description, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (slug) DO UPDATE SET slug = excluded.slug
RETURNING id`,
		uuid.NewString(), name, slug, "Articles about "+name, s.now()).Scan(&id)
	if err != nil {
		return "", persistence("upsert category", err)
	}
	s.logger.Debug("category resolved", zap.String("name", name), zap.String("id", id))
	return id, nil
}

// resolveCategorySoft is ResolveCategory with failures logged and absorbed.
// It returns "" when the category could not be resolved.
func (s *Store) resolveCategorySoft(ctx context.Context, name string) string {
	id, err := s.ResolveCategory(ctx, name)
	if err != nil {
		s.softFail("category", "resolve category", err, zap.String("category", name))
		return ""
	}
	return id
}

// ResolveTag returns the id of the tag named name, creating it if needed.
// Names that normalise to the same slug share one tag.
func (s *Store) ResolveTag(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	slug := NormalizeSlug(name)
	if slug == "" {
		return "", &ValidationError{Field: "tag", Reason: "must contain a letter or digit"}
	}

	var id string
	err := s.db.QueryRowContext(ctx, `
INSERT INTO tags (id, name, slug, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (slug) DO UPDATE SET slug = excluded.slug
RETURNING id`,
		uuid.NewString(), name, slug, s.now()).Scan(&id)
	if err != nil {
		return "", persistence("upsert tag", err)
	}
	return id, nil
}

// associateTags links each named tag to the post. Failures are per tag:
// the tag is logged and skipped, the rest still apply. It returns how many
// tags were linked.
func (s *Store) associateTags(ctx context.Context, postID string, names []string) int {
	linked := 0
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		tagID, err := s.ResolveTag(ctx, name)
		if err != nil {
			s.softFail("tag", "resolve tag", err,
				zap.String("post_id", postID), zap.String("tag", name))
			continue
		}
		if _, err := s.db.ExecContext(ctx, `
INSERT INTO blog_post_tags (blog_post_id, tag_id) VALUES ($1, $2)
ON CONFLICT DO NOTHING`, postID, tagID); err != nil {
			s.softFail("tag", "associate tag", err,
				zap.String("post_id", postID), zap.String("tag", name))
			continue
		}
		linked++
	}
	return linked
}

// ListCategories returns every category with its published post count.
func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT c.id, c.name, c.slug, c.description, c.created_at, COUNT(p.id)
FROM categories c
LEFT JOIN blog_posts p ON p.category_id = c.id AND p.status = $1
GROUP BY c.id, c.name, c.slug, c.description, c.created_at
ORDER BY c.name`, string(StatusPublished))
	if err != nil {
		return nil, persistence("list categories", err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var (
			c    Category
			desc sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &desc, &c.CreatedAt, &c.PostCount); err != nil {
			return nil, persistence("scan category", err)
		}
		c.Description = desc.String
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("list categories", err)
	}
	return out, nil
}

// GetCategoryBySlug returns the category with the exact slug.
func (s *Store) GetCategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	var (
		c    Category
		desc sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, name, slug, description, created_at FROM categories WHERE slug = $1`, slug).
		Scan(&c.ID, &c.Name, &c.Slug, &desc, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "category", Key: slug}
	}
	if err != nil {
		return nil, persistence("get category", err)
	}
	c.Description = desc.String
	return &c, nil
}

// ListTags returns every tag with its published post count.
func (s *Store) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT t.id, t.name, t.slug, COUNT(p.id)
FROM tags t
LEFT JOIN blog_post_tags bt ON bt.tag_id = t.id
LEFT JOIN blog_posts p ON p.id = bt.blog_post_id AND p.status = $1
GROUP BY t.id, t.name, t.slug
ORDER BY t.name`, string(StatusPublished))
	if err != nil {
		return nil, persistence("list tags", err)
	}
	defer rows.Close()

	var out []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.PostCount); err != nil {
			return nil, persistence("scan tag", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("list tags", err)
	}
	return out, nil
}

// tagsFor returns the tags attached to one post, by name.
func (s *Store) tagsFor(ctx context.Context, postID string) ([]Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT t.id, t.name, t.slug
FROM tags t
JOIN blog_post_tags bt ON bt.tag_id = t.id
WHERE bt.blog_post_id = $1
ORDER BY t.name`, postID)
	if err != nil {
		return nil, persistence("list post tags", err)
	}
	defer rows.Close()

	var out []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, persistence("scan post tag", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("list post tags", err)
	}
	return out, nil
}
