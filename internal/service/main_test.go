package service

import (
	"context"
	"errors"
	"testing"

	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// invalidatorStub counts Invalidate calls.
type invalidatorStub struct {
	calls int
	err   error
}

func (s *invalidatorStub) Invalidate(_ context.Context) error {
	s.calls++
	return s.err
}

// imageStoreStub is a stub for ImageStore.
type imageStoreStub struct {
	saveFn   func(context.Context, UploadImageInput) (string, error)
	removed  []string
	removeFn func(string) error
}

func (s *imageStoreStub) SaveImage(ctx context.Context, in UploadImageInput) (string, error) {
	return s.saveFn(ctx, in)
}

func (s *imageStoreStub) RemoveImage(path string) error {
	s.removed = append(s.removed, path)
	if s.removeFn != nil {
		return s.removeFn(path)
	}
	return nil
}

type testEnv struct {
	db       *gorm.DB
	index    *invalidatorStub
	images   *imageStoreStub
	posts    *PostService
	comments *CommentService
	follows  *FollowService
	users    *UserService
	groups   *GroupService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t)

	postRepo := repository.NewPostRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	userRepo := repository.NewUserRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	followRepo := repository.NewFollowRepository(db)

	env := &testEnv{
		db:    db,
		index: &invalidatorStub{},
		images: &imageStoreStub{
			saveFn: func(_ context.Context, in UploadImageInput) (string, error) {
				return "posts/" + in.Filename, nil
			},
		},
	}
	env.posts = NewPostService(postRepo, groupRepo, userRepo, env.images, env.index, 10)
	env.comments = NewCommentService(commentRepo, postRepo)
	env.follows = NewFollowService(followRepo, userRepo, postRepo)
	env.users = NewUserService(userRepo)
	env.groups = NewGroupService(groupRepo)
	return env
}

// assertErrorCode asserts that err is an AppError with the given code.
func assertErrorCode(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

// assertFieldError asserts a VALIDATION_ERROR carrying a message for field.
func assertFieldError(t *testing.T, err error, field string) {
	t.Helper()
	appErr := assertErrorCode(t, err, models.CodeValidation)
	assert.Contains(t, appErr.Fields, field)
}
