package service

import (
	"context"
	"strconv"
	"strings"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
	"yatube/internal/validation"
)

// ImageStore keeps uploaded post images.
type ImageStore interface {
	SaveImage(ctx context.Context, in UploadImageInput) (string, error)
	RemoveImage(path string) error
}

// PageInvalidator drops cached pages after content changes. *cache.PageCache implements it.
type PageInvalidator interface {
	Invalidate(ctx context.Context) error
}

type PostService struct {
	postRepo  repository.PostRepository
	groupRepo repository.GroupRepository
	userRepo  repository.UserRepository
	images    ImageStore
	indexPage PageInvalidator
	perPage   int
}

// ListPostsInput selects a feed. At most one of the filters is normally set.
type ListPostsInput struct {
	GroupSlug      string
	AuthorUsername string
	FollowerID     uint
	// Page is the raw ?page= value.
	Page string
}

// PostListing is one page of a feed plus the group or author it was filtered by.
type PostListing struct {
	Page   *models.Page
	Group  *models.Group
	Author *models.User
}

// PostFormInput is the submitted post form. GroupID is the raw select value.
type PostFormInput struct {
	Text    string
	GroupID string
	Image   *UploadImageInput
}

type CreatePostInput struct {
	UserID uint
	Form   PostFormInput
}

type UpdatePostInput struct {
	UserID     uint
	PostID     uint
	Form       PostFormInput
	ClearImage bool
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

const invalidGroupChoice = "Select a valid choice. That choice is not one of the available choices."

func NewPostService(
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	images ImageStore,
	indexPage PageInvalidator,
	perPage int,
) *PostService {
	if perPage <= 0 {
		perPage = DefaultPostsPerPage
	}
	return &PostService{
		postRepo:  postRepo,
		groupRepo: groupRepo,
		userRepo:  userRepo,
		images:    images,
		indexPage: indexPage,
		perPage:   perPage,
	}
}

// PerPage is the fixed page size of every feed.
func (s *PostService) PerPage() int {
	return s.perPage
}

// ListPosts returns one page of posts, newest first.
// Unknown group slugs and usernames are NOT_FOUND; bad page numbers are clamped.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) (listing *PostListing, err error) {
	ctx, end := observability.StartSpan(ctx, "service", "PostService.ListPosts")
	defer func() { end(err) }()

	listing = &PostListing{}
	filter := repository.PostFilter{FollowerID: in.FollowerID}

	if in.GroupSlug != "" {
		group, err := s.groupRepo.GetBySlug(ctx, in.GroupSlug)
		if err != nil {
			return nil, err
		}
		listing.Group = group
		filter.GroupID = group.ID
	}
	if in.AuthorUsername != "" {
		author, err := s.userRepo.GetByUsername(ctx, in.AuthorUsername)
		if err != nil {
			return nil, err
		}
		listing.Author = author
		filter.AuthorID = author.ID
	}

	total, err := s.postRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	pages := numPages(total, s.perPage)
	number := resolvePage(in.Page, pages)

	posts, err := s.postRepo.List(ctx, filter, s.perPage, (number-1)*s.perPage)
	if err != nil {
		return nil, err
	}

	listing.Page = &models.Page{
		Posts:    posts,
		Number:   number,
		NumPages: pages,
		Total:    total,
		PerPage:  s.perPage,
	}
	return listing, nil
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

// Groups lists the choices for the post form's group select.
func (s *PostService) Groups(ctx context.Context) ([]models.Group, error) {
	return s.groupRepo.List(ctx)
}

// GetEditablePost returns the post when userID wrote it, FORBIDDEN otherwise.
func (s *PostService) GetEditablePost(ctx context.Context, userID, postID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, models.NewForbiddenError("You can only edit your own posts")
	}
	return post, nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	ctx, end := observability.StartSpan(ctx, "service", "PostService.CreatePost")
	defer func() { end(err) }()

	groupID, err := s.cleanForm(ctx, in.Form)
	if err != nil {
		return nil, err
	}

	image, err := s.saveImage(ctx, in.Form.Image)
	if err != nil {
		return nil, err
	}

	post = &models.Post{
		Text:     in.Form.Text,
		AuthorID: in.UserID,
		GroupID:  groupID,
		Image:    image,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		s.removeImage(ctx, image)
		return nil, err
	}

	observability.ContentEvents.WithLabelValues("post_created").Inc()
	s.invalidateIndex(ctx)
	return post, nil
}

// UpdatePost rewrites text, group and image of a post owned by in.UserID.
// Author and publication date are never changed.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (post *models.Post, err error) {
	ctx, end := observability.StartSpan(ctx, "service", "PostService.UpdatePost")
	defer func() { end(err) }()

	post, err = s.GetEditablePost(ctx, in.UserID, in.PostID)
	if err != nil {
		return nil, err
	}

	groupID, err := s.cleanForm(ctx, in.Form)
	if err != nil {
		return nil, err
	}

	previousImage := post.Image
	newImage, err := s.saveImage(ctx, in.Form.Image)
	if err != nil {
		return nil, err
	}
	switch {
	case newImage != "":
		post.Image = newImage
	case in.ClearImage:
		post.Image = ""
	}

	post.Text = in.Form.Text
	post.GroupID = groupID
	if err := s.postRepo.Update(ctx, post); err != nil {
		s.removeImage(ctx, newImage)
		return nil, err
	}
	if previousImage != "" && previousImage != post.Image {
		s.removeImage(ctx, previousImage)
	}

	observability.ContentEvents.WithLabelValues("post_edited").Inc()
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) (err error) {
	ctx, end := observability.StartSpan(ctx, "service", "PostService.DeletePost")
	defer func() { end(err) }()

	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return err
	}
	if post.AuthorID != in.UserID {
		return models.NewForbiddenError("You can only delete your own posts")
	}
	if err := s.postRepo.Delete(ctx, post.ID); err != nil {
		return err
	}
	s.removeImage(ctx, post.Image)

	observability.ContentEvents.WithLabelValues("post_deleted").Inc()
	s.invalidateIndex(ctx)
	return nil
}

// cleanForm validates text and group and returns the chosen group id.
func (s *PostService) cleanForm(ctx context.Context, form PostFormInput) (*uint, error) {
	errs := validation.Errors{}
	errs.Check("text", validation.Required(form.Text))

	var groupID *uint
	if raw := strings.TrimSpace(form.GroupID); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			errs.Add("group", invalidGroupChoice)
		} else if group, err := s.groupRepo.GetByID(ctx, uint(id)); err != nil {
			if !models.IsNotFound(err) {
				return nil, err
			}
			errs.Add("group", invalidGroupChoice)
		} else {
			groupID = &group.ID
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return groupID, nil
}

func (s *PostService) saveImage(ctx context.Context, upload *UploadImageInput) (string, error) {
	if upload == nil || len(upload.Content) == 0 {
		return "", nil
	}
	if s.images == nil {
		return "", models.NewFieldValidationError(map[string]string{"image": "Image uploads are not available"})
	}
	path, err := s.images.SaveImage(ctx, *upload)
	if err != nil {
		if models.ErrorCode(err) == models.CodeValidation {
			errs := validation.Errors{}
			errs.Check("image", err)
			return "", errs.Err()
		}
		return "", err
	}
	return path, nil
}

func (s *PostService) removeImage(ctx context.Context, path string) {
	if path == "" || s.images == nil {
		return
	}
	if err := s.images.RemoveImage(path); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to remove post image", "path", path, "error", err)
	}
}

func (s *PostService) invalidateIndex(ctx context.Context) {
	if s.indexPage == nil {
		return
	}
	if err := s.indexPage.Invalidate(ctx); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to invalidate index page cache", "error", err)
	}
}
