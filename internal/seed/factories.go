// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"strings"
	"time"

	"yatube/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password every seeded user can log in with.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by Seed and by tests.
type Factory struct {
	db      *gorm.DB
	faker   *gofakeit.Faker
	maxDays int
	hash    string
	seq     int
}

// NewFactory creates a Factory bound to db. A zero randSeed picks a random one.
func NewFactory(db *gorm.DB, randSeed int64, maxDays int) (*Factory, error) {
	if maxDays <= 0 {
		maxDays = 90
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	return &Factory{
		db:      db,
		faker:   gofakeit.New(randSeed),
		maxDays: maxDays,
		hash:    string(hash),
	}, nil
}

func (f *Factory) next() int {
	f.seq++
	return f.seq
}

// BuildUser returns an unsaved user with a unique username.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	first, last := f.faker.FirstName(), f.faker.LastName()
	username := fmt.Sprintf("%s_%s%d", strings.ToLower(first), strings.ToLower(last), f.next())
	user := &models.User{
		Username:  sanitizeUsername(username),
		Email:     strings.ToLower(username) + "@example.com",
		FirstName: first,
		LastName:  last,
		Password:  f.hash,
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUser builds and persists a user.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(overrides...)
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildGroup returns an unsaved group with a unique slug.
func (f *Factory) BuildGroup(overrides ...func(*models.Group)) *models.Group {
	title := f.faker.Hobby()
	group := &models.Group{
		Title:       title,
		Slug:        fmt.Sprintf("%s-%d", slugify(title), f.next()),
		Description: f.faker.Sentence(12),
	}
	for _, override := range overrides {
		override(group)
	}
	return group
}

// CreateGroup builds and persists a group.
func (f *Factory) CreateGroup(overrides ...func(*models.Group)) (*models.Group, error) {
	group := f.BuildGroup(overrides...)
	if err := f.db.Create(group).Error; err != nil {
		return nil, err
	}
	return group, nil
}

// BuildPost returns an unsaved post by author, published at a random moment
// within the factory's window. group may be nil.
func (f *Factory) BuildPost(author *models.User, group *models.Group, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		Text:     f.faker.Paragraph(1, f.faker.Number(1, 4), 12, "\n"),
		PubDate:  f.pastTime(),
		AuthorID: author.ID,
	}
	if group != nil {
		id := group.ID
		post.GroupID = &id
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists posts in a single insert.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return f.db.Omit("Author", "Group").CreateInBatches(posts, 100).Error
}

// CreateComment persists a comment by author on post, dated after the post.
func (f *Factory) CreateComment(author *models.User, post *models.Post) (*models.Comment, error) {
	created := post.PubDate.Add(time.Duration(f.faker.Number(1, 72*60)) * time.Minute)
	if created.After(time.Now()) {
		created = time.Now()
	}
	comment := &models.Comment{
		PostID:   post.ID,
		AuthorID: author.ID,
		Text:     f.faker.Sentence(f.faker.Number(3, 15)),
		Created:  created,
	}
	if err := f.db.Omit("Author", "Post").Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateFollow subscribes user to author. Self-follows are skipped.
func (f *Factory) CreateFollow(user, author *models.User) error {
	if user.ID == author.ID {
		return nil
	}
	follow := &models.Follow{UserID: user.ID, AuthorID: author.ID}
	return f.db.Omit("User", "Author").
		Where(models.Follow{UserID: user.ID, AuthorID: author.ID}).
		FirstOrCreate(follow).Error
}

func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.faker.Number(0, f.maxDays*24*60)) * time.Minute
	return time.Now().Add(-back).Truncate(time.Second)
}

// Pick returns a random element index in [0, n).
func (f *Factory) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	return f.faker.Number(0, n-1)
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "group"
	}
	return out
}

func sanitizeUsername(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', strings.ContainsRune("_.@+-", r):
			return r
		default:
			return -1
		}
	}, s)
}
