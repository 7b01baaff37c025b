package repository

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowRepository_CreateUsesOnConflict(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFollowRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "follows"`)+`.*`+regexp.QuoteMeta(`ON CONFLICT ("user_id","author_id") DO NOTHING`)).
		WithArgs(1, 2, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	created, err := repo.Create(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowRepository_Lifecycle(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	leo := testutil.MakeUser(t, db, "leo")
	ann := testutil.MakeUser(t, db, "ann")

	created, err := repo.Create(ctx, ann.ID, leo.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Create(ctx, ann.ID, leo.ID)
	require.NoError(t, err)
	assert.False(t, created, "duplicate follow is a no-op")

	var rows int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	exists, err := repo.Exists(ctx, ann.ID, leo.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	followers, err := repo.CountFollowers(ctx, leo.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), followers)

	deleted, err := repo.Delete(ctx, ann.ID, leo.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, ann.ID, leo.ID)
	require.NoError(t, err)
	assert.False(t, deleted, "unfollowing twice is a no-op")
}

func TestFollowRepository_SelfFollowRejectedByDatabase(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewFollowRepository(db)
	leo := testutil.MakeUser(t, db, "leo")

	_, err := repo.Create(context.Background(), leo.ID, leo.ID)
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
}

func TestFollowRepository_ConcurrentDuplicates(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()
	leo := testutil.MakeUser(t, db, "leo")
	ann := testutil.MakeUser(t, db, "ann")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, ann.ID, leo.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	n, err := repo.CountFollowing(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
