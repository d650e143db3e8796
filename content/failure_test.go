package content

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	return NewStore(db,
		WithLogger(zap.NewNop()),
		WithClock(func() time.Time { return fixed }),
	), mock
}

var (
	insertPostSQL = regexp.QuoteMeta(`INSERT INTO blog_posts`)
	upsertTagSQL  = regexp.QuoteMeta(`INSERT INTO tags`)
	linkTagSQL    = regexp.QuoteMeta(`INSERT INTO blog_post_tags`)
	findCatSQL    = regexp.QuoteMeta(`SELECT id FROM categories`)
)

func TestCreateInsertFailureSkipsTags(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(insertPostSQL).WillReturnError(errors.New("disk full"))

	_, err := s.CreatePost(context.Background(), PostInput{
		Title: "T", Content: "c", Status: StatusDraft, Tags: []string{"a", "b"},
	})
	require.Error(t, err)
	assert.True(t, IsPersistence(err))
	assert.False(t, IsConflict(err))
	assert.ErrorContains(t, err, "disk full")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSkipsFailingTag(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(insertPostSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(upsertTagSQL).WillReturnError(errors.New("tag insert failed"))
	mock.ExpectQuery(upsertTagSQL).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("tag-b"))
	mock.ExpectExec(linkTagSQL).
		WithArgs(sqlmock.AnyArg(), "tag-b").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(upsertTagSQL).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("tag-c"))
	mock.ExpectExec(linkTagSQL).
		WithArgs(sqlmock.AnyArg(), "tag-c").
		WillReturnError(errors.New("link failed"))

	p, err := s.CreatePost(context.Background(), PostInput{
		Title: "Partial", Content: "c", Status: StatusPublished, Tags: []string{"a", "b", "c"},
	})
	require.NoError(t, err)
	assert.Equal(t, "partial", p.Slug)
	require.NotNil(t, p.PublishedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCategoryFailureIsSoft(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM blog_posts WHERE id = $1`)).
		WithArgs("post-1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(findCatSQL).WillReturnError(errors.New("categories unavailable"))
	mock.ExpectExec(insertPostSQL).
		WithArgs(sqlmock.AnyArg(), "Cat", "cat", "", "c",
			nil, nil, nil, // featured_image, author_id, category_id
			"draft", false, 0, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p, err := s.CreatePost(context.Background(), PostInput{
		Title: "Cat", Content: "c", Status: StatusDraft, Category: "Workouts",
	})
	require.NoError(t, err)
	assert.Empty(t, p.CategoryID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCategoryFailureIsSoft(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM blog_posts WHERE id = $1`)).
		WithArgs("post-1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(findCatSQL).WillReturnError(errors.New("categories unavailable"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE blog_posts SET title = $1, updated_at = $2 WHERE id = $3`)).
		WithArgs("New", sqlmock.AnyArg(), "post-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM blog_posts p`)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "slug", "excerpt", "content", "featured_image", "author_id",
			"category_id", "status", "is_ai_generated", "view_count", "published_at",
			"created_at", "updated_at", "name", "slug",
		}).AddRow("post-1", "New", "new", "", "c", nil, nil,
			nil, "draft", false, 0, nil,
			time.Now(), time.Now(), nil, nil))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM tags t`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug"}))

	p, err := s.UpdatePost(context.Background(), "post-1", PostPatch{
		Title: ptr("New"), Category: ptr("Workouts"),
	})
	require.NoError(t, err)
	assert.Equal(t, "New", p.Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStorageFailure(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE blog_posts SET`)).
		WillReturnError(errors.New("connection reset"))

	_, err := s.UpdatePost(context.Background(), "post-1", PostPatch{Title: ptr("x"), Tags: []string{"a"}})
	assert.True(t, IsPersistence(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRollsBackWhenMissing(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM blog_post_tags`)).
		WithArgs("nope").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM blog_posts`)).
		WithArgs("nope").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.DeletePost(context.Background(), "nope")
	assert.True(t, IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementViewCountSwallowsErrors(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE blog_posts SET view_count = view_count + 1`)).
		WithArgs("post-1").
		WillReturnError(errors.New("database is locked"))

	assert.NotPanics(t, func() { s.IncrementViewCount(context.Background(), "post-1") })
	require.NoError(t, mock.ExpectationsWereMet())
}
