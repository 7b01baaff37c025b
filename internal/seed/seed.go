package seed

import (
	"fmt"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"gorm.io/gorm"
)

// Options configures Seed.
type Options struct {
	NumUsers        int
	NumGroups       int
	NumPosts        int
	CommentsPerPost int
	FollowsPerUser  int
	MaxDays         int
	ShouldClean     bool
	// RandSeed makes runs reproducible when non-zero.
	RandSeed int64
}

// DefaultOptions is what cmd/seed runs with when no flags are given.
var DefaultOptions = Options{
	NumUsers:        20,
	NumGroups:       5,
	NumPosts:        150,
	CommentsPerPost: 3,
	FollowsPerUser:  4,
	MaxDays:         90,
	ShouldClean:     true,
}

// Summary reports how many rows Seed created.
type Summary struct {
	Users    int
	Groups   int
	Posts    int
	Comments int
	Follows  int
}

// Seed populates db with users, groups, posts, comments and follows.
func Seed(db *gorm.DB, opts Options) (*Summary, error) {
	if opts.NumUsers < 1 {
		return nil, fmt.Errorf("seed needs at least one user")
	}
	f, err := NewFactory(db, opts.RandSeed, opts.MaxDays)
	if err != nil {
		return nil, err
	}
	log := middleware.Logger

	if opts.ShouldClean {
		if err := ClearAll(db); err != nil {
			return nil, fmt.Errorf("clear data: %w", err)
		}
	}

	summary := &Summary{}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		u, err := f.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	summary.Users = len(users)
	log.Info("seeded users", "count", summary.Users)

	groups := make([]*models.Group, 0, opts.NumGroups)
	for i := 0; i < opts.NumGroups; i++ {
		g, err := f.CreateGroup()
		if err != nil {
			return nil, fmt.Errorf("create group: %w", err)
		}
		groups = append(groups, g)
	}
	summary.Groups = len(groups)
	log.Info("seeded groups", "count", summary.Groups)

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		var group *models.Group
		// Roughly a third of posts stay ungrouped.
		if len(groups) > 0 && f.Pick(3) > 0 {
			group = groups[f.Pick(len(groups))]
		}
		posts = append(posts, f.BuildPost(users[f.Pick(len(users))], group))
	}
	if err := f.CreatePostsBatch(posts); err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	summary.Posts = len(posts)
	log.Info("seeded posts", "count", summary.Posts)

	if opts.CommentsPerPost > 0 {
		for _, p := range posts {
			for n := f.Pick(opts.CommentsPerPost + 1); n > 0; n-- {
				if _, err := f.CreateComment(users[f.Pick(len(users))], p); err != nil {
					return nil, fmt.Errorf("create comment: %w", err)
				}
				summary.Comments++
			}
		}
		log.Info("seeded comments", "count", summary.Comments)
	}

	if opts.FollowsPerUser > 0 && len(users) > 1 {
		follows := min(opts.FollowsPerUser, len(users)-1)
		for i, u := range users {
			// Walk forward from the user so each follow is distinct and never self.
			for k := 1; k <= follows; k++ {
				if err := f.CreateFollow(u, users[(i+k)%len(users)]); err != nil {
					return nil, fmt.Errorf("create follow: %w", err)
				}
				summary.Follows++
			}
		}
		log.Info("seeded follows", "count", summary.Follows)
	}

	return summary, nil
}

// ClearAll removes every row the seeder can create, children first.
func ClearAll(db *gorm.DB) error {
	tx := db.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []any{&models.Follow{}, &models.Comment{}, &models.Post{}, &models.Group{}, &models.User{}} {
		if err := tx.Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
