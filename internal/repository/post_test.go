package repository

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	post := &models.Post{Text: "hello", AuthorID: 3}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), post))
	assert.Equal(t, uint(1), post.ID)
	assert.False(t, post.PubDate.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_ListOrdering(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(`SELECT posts\.\*, \(SELECT COUNT\(\*\) FROM comments WHERE comments\.post_id = posts\.id\) AS comments_count FROM "posts" WHERE posts\.group_id = \$1 ORDER BY posts\.pub_date DESC,posts\.id DESC LIMIT \$2 OFFSET \$3`).
		WithArgs(7, 10, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "text", "author_id", "comments_count"}))

	posts, err := repo.List(context.Background(), PostFilter{GroupID: 7}, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_UpdateWritesEditableColumnsOnly(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "group_id"=$1,"image"=$2,"text"=$3 WHERE id = $4`)).
		WithArgs(nil, "", "edited", 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), &models.Post{ID: 5, Text: "edited", AuthorID: 99})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Feeds(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	leo := testutil.MakeUser(t, db, "leo")
	ann := testutil.MakeUser(t, db, "ann")
	reader := testutil.MakeUser(t, db, "reader")
	cats := testutil.MakeGroup(t, db, "cats")
	dogs := testutil.MakeGroup(t, db, "dogs")

	testutil.MakePosts(t, db, leo, cats, 13)
	testutil.MakePost(t, db, ann, dogs, "dog post", time.Now())
	require.NoError(t, db.Create(&models.Follow{UserID: reader.ID, AuthorID: ann.ID}).Error)

	t.Run("index lists newest first", func(t *testing.T) {
		posts, err := repo.List(ctx, PostFilter{}, 10, 0)
		require.NoError(t, err)
		require.Len(t, posts, 10)
		assert.Equal(t, "dog post", posts[0].Text)
		assert.Equal(t, "post 12", posts[1].Text)
		for i := 1; i < len(posts); i++ {
			assert.False(t, posts[i].PubDate.After(posts[i-1].PubDate))
		}
		assert.Equal(t, "ann", posts[0].Author.Username)
		require.NotNil(t, posts[0].Group)
		assert.Equal(t, "dogs", posts[0].Group.Slug)
	})

	t.Run("group filter", func(t *testing.T) {
		total, err := repo.Count(ctx, PostFilter{GroupID: cats.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(13), total)

		second, err := repo.List(ctx, PostFilter{GroupID: cats.ID}, 10, 10)
		require.NoError(t, err)
		assert.Len(t, second, 3)
		for _, p := range second {
			assert.Equal(t, cats.ID, *p.GroupID)
		}
	})

	t.Run("author filter", func(t *testing.T) {
		total, err := repo.Count(ctx, PostFilter{AuthorID: ann.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("follow feed", func(t *testing.T) {
		posts, err := repo.List(ctx, PostFilter{FollowerID: reader.ID}, 10, 0)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, ann.ID, posts[0].AuthorID)

		empty, err := repo.List(ctx, PostFilter{FollowerID: leo.ID}, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

func TestPostRepository_GetByIDCountsComments(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	leo := testutil.MakeUser(t, db, "leo")
	post := testutil.MakePost(t, db, leo, nil, "hello", time.Time{})
	for i := 0; i < 2; i++ {
		require.NoError(t, NewCommentRepository(db).Create(ctx, &models.Comment{PostID: post.ID, AuthorID: leo.ID, Text: fmt.Sprintf("c%d", i)}))
	}

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CommentsCount)
	assert.Equal(t, "leo", got.Author.Username)
	assert.Nil(t, got.Group)

	_, err = repo.GetByID(ctx, 9999)
	assert.True(t, models.IsNotFound(err))
}

func TestPostRepository_UpdateKeepsAuthorAndPubDate(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	leo := testutil.MakeUser(t, db, "leo")
	other := testutil.MakeUser(t, db, "other")
	cats := testutil.MakeGroup(t, db, "cats")
	post := testutil.MakePost(t, db, leo, cats, "original", time.Now().Add(-time.Hour))

	edit := *post
	edit.Text = "edited"
	edit.GroupID = nil
	edit.AuthorID = other.ID
	edit.PubDate = time.Now()
	require.NoError(t, repo.Update(ctx, &edit))

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Text)
	assert.Nil(t, got.GroupID)
	assert.Equal(t, leo.ID, got.AuthorID)
	assert.WithinDuration(t, post.PubDate, got.PubDate, time.Second)

	err = repo.Update(ctx, &models.Post{ID: 424242, Text: "x"})
	assert.True(t, models.IsNotFound(err))
}

func TestPostRepository_Constraints(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	leo := testutil.MakeUser(t, db, "leo")

	t.Run("blank text rejected by the database", func(t *testing.T) {
		err := repo.Create(ctx, &models.Post{Text: "   ", AuthorID: leo.ID})
		assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
	})

	t.Run("unknown author rejected", func(t *testing.T) {
		err := repo.Create(ctx, &models.Post{Text: "x", AuthorID: 999})
		assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
	})

	t.Run("unknown group rejected", func(t *testing.T) {
		missing := uint(999)
		err := repo.Create(ctx, &models.Post{Text: "x", AuthorID: leo.ID, GroupID: &missing})
		assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
	})
}

func TestCascades(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	posts := NewPostRepository(db)
	comments := NewCommentRepository(db)
	follows := NewFollowRepository(db)

	leo := testutil.MakeUser(t, db, "leo")
	ann := testutil.MakeUser(t, db, "ann")
	cats := testutil.MakeGroup(t, db, "cats")
	leoPost := testutil.MakePost(t, db, leo, cats, "leo's", time.Time{})
	annPost := testutil.MakePost(t, db, ann, cats, "ann's", time.Time{})
	require.NoError(t, comments.Create(ctx, &models.Comment{PostID: annPost.ID, AuthorID: leo.ID, Text: "nice"}))
	require.NoError(t, comments.Create(ctx, &models.Comment{PostID: leoPost.ID, AuthorID: ann.ID, Text: "hi"}))
	_, err := follows.Create(ctx, ann.ID, leo.ID)
	require.NoError(t, err)

	t.Run("deleting a group keeps its posts", func(t *testing.T) {
		require.NoError(t, NewGroupRepository(db).Delete(ctx, cats.ID))
		got, err := posts.GetByID(ctx, annPost.ID)
		require.NoError(t, err)
		assert.Nil(t, got.GroupID)
	})

	t.Run("deleting a post removes its comments", func(t *testing.T) {
		require.NoError(t, posts.Delete(ctx, leoPost.ID))
		left, err := comments.ListByPost(ctx, leoPost.ID)
		require.NoError(t, err)
		assert.Empty(t, left)
		assert.True(t, models.IsNotFound(posts.Delete(ctx, leoPost.ID)))
	})

	t.Run("deleting a user removes their posts, comments and follows", func(t *testing.T) {
		require.NoError(t, NewUserRepository(db).Delete(ctx, leo.ID))

		left, err := comments.ListByPost(ctx, annPost.ID)
		require.NoError(t, err)
		assert.Empty(t, left)

		total, err := posts.Count(ctx, PostFilter{AuthorID: leo.ID})
		require.NoError(t, err)
		assert.Zero(t, total)

		n, err := follows.CountFollowing(ctx, ann.ID)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
