package service

import (
	"context"

	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
)

// ErrSelfFollow is returned when a user tries to follow themselves.
var ErrSelfFollow = models.NewValidationError("You cannot follow yourself")

type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	postRepo   repository.PostRepository
}

func NewFollowService(
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
		postRepo:   postRepo,
	}
}

// Follow subscribes userID to the author. Following twice is a no-op reported as created=false.
func (s *FollowService) Follow(ctx context.Context, userID uint, authorUsername string) (created bool, err error) {
	author, err := s.userRepo.GetByUsername(ctx, authorUsername)
	if err != nil {
		return false, err
	}
	if author.ID == userID {
		observability.FollowEvents.WithLabelValues("follow", "rejected").Inc()
		return false, ErrSelfFollow
	}

	created, err = s.followRepo.Create(ctx, userID, author.ID)
	if err != nil {
		return false, err
	}
	observability.FollowEvents.WithLabelValues("follow", outcome(created)).Inc()
	return created, nil
}

// Unfollow removes the subscription if there is one.
func (s *FollowService) Unfollow(ctx context.Context, userID uint, authorUsername string) (deleted bool, err error) {
	author, err := s.userRepo.GetByUsername(ctx, authorUsername)
	if err != nil {
		return false, err
	}
	deleted, err = s.followRepo.Delete(ctx, userID, author.ID)
	if err != nil {
		return false, err
	}
	observability.FollowEvents.WithLabelValues("unfollow", outcome(deleted)).Inc()
	return deleted, nil
}

// IsFollowing is false for anonymous viewers and for a user looking at their own profile.
func (s *FollowService) IsFollowing(ctx context.Context, userID, authorID uint) (bool, error) {
	if userID == 0 || userID == authorID {
		return false, nil
	}
	return s.followRepo.Exists(ctx, userID, authorID)
}

func (s *FollowService) ProfileStats(ctx context.Context, authorID uint) (*models.ProfileStats, error) {
	stats := &models.ProfileStats{}
	var err error
	if stats.Posts, err = s.postRepo.Count(ctx, repository.PostFilter{AuthorID: authorID}); err != nil {
		return nil, err
	}
	if stats.Followers, err = s.followRepo.CountFollowers(ctx, authorID); err != nil {
		return nil, err
	}
	if stats.Following, err = s.followRepo.CountFollowing(ctx, authorID); err != nil {
		return nil, err
	}
	return stats, nil
}

func outcome(changed bool) string {
	if changed {
		return "changed"
	}
	return "noop"
}
