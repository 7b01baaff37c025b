package server

import (
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Index renders the feed of all posts.
func (s *Server) Index(c *fiber.Ctx) error {
	listing, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{Page: c.Query("page")})
	if err != nil {
		return err
	}
	return c.Render("posts/index", s.viewData(c, "Latest posts", fiber.Map{
		"Page": listing.Page,
	}))
}

// GroupPosts renders the feed of one group.
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	listing, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		GroupSlug: c.Params("slug"),
		Page:      c.Query("page"),
	})
	if err != nil {
		return err
	}
	return c.Render("posts/group", s.viewData(c, listing.Group.Title, fiber.Map{
		"Group": listing.Group,
		"Page":  listing.Page,
	}))
}

// Profile renders an author's posts with follow counters and the follow button.
func (s *Server) Profile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	listing, err := s.postService.ListPosts(ctx, service.ListPostsInput{
		AuthorUsername: c.Params("username"),
		Page:           c.Query("page"),
	})
	if err != nil {
		return err
	}
	author := listing.Author

	stats, err := s.followService.ProfileStats(ctx, author.ID)
	if err != nil {
		return err
	}
	viewerID, _ := middleware.UserID(c)
	following, err := s.followService.IsFollowing(ctx, viewerID, author.ID)
	if err != nil {
		return err
	}

	return c.Render("posts/profile", s.viewData(c, "Profile of "+author.DisplayName(), fiber.Map{
		"Author":    author,
		"Page":      listing.Page,
		"Stats":     stats,
		"Following": following,
		"IsOwner":   viewerID == author.ID,
	}))
}

// PostDetail renders one post with its comments and the comment form.
func (s *Server) PostDetail(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	return s.renderPostDetail(c, id, "", nil)
}

func (s *Server) renderPostDetail(c *fiber.Ctx, id uint, commentText string, commentErrors map[string]string) error {
	ctx := c.UserContext()
	post, err := s.postService.GetPost(ctx, id)
	if err != nil {
		return err
	}
	comments, err := s.commentService.ListComments(ctx, post.ID)
	if err != nil {
		return err
	}
	stats, err := s.followService.ProfileStats(ctx, post.AuthorID)
	if err != nil {
		return err
	}
	viewerID, _ := middleware.UserID(c)

	return c.Render("posts/detail", s.viewData(c, post.Excerpt(30), fiber.Map{
		"Post":          post,
		"Comments":      comments,
		"AuthorStats":   stats,
		"IsAuthor":      viewerID == post.AuthorID,
		"CommentText":   commentText,
		"CommentErrors": commentErrors,
	}))
}

// postFormView holds what the create and edit form template shows.
type postFormView struct {
	Text    string
	GroupID string
	Image   string
	IsEdit  bool
	PostID  uint
	Errors  map[string]string
	Groups  []models.Group
	Action  string
	Heading string
	Submit  string
}

func (s *Server) renderPostForm(c *fiber.Ctx, form postFormView) error {
	groups, err := s.postService.Groups(c.UserContext())
	if err != nil {
		return err
	}
	form.Groups = groups
	return c.Render("posts/form", s.viewData(c, form.Heading, fiber.Map{
		"Form": form,
	}))
}

func newPostForm() postFormView {
	return postFormView{
		Action:  "/create/",
		Heading: "New post",
		Submit:  "Save",
	}
}

func editPostForm(post *models.Post) postFormView {
	form := postFormView{
		Text:    post.Text,
		Image:   post.Image,
		IsEdit:  true,
		PostID:  post.ID,
		Action:  postURL(post.ID) + "edit/",
		Heading: "Edit post",
		Submit:  "Save changes",
	}
	if post.GroupID != nil {
		form.GroupID = uintString(*post.GroupID)
	}
	return form
}

// PostCreateForm shows an empty post form.
func (s *Server) PostCreateForm(c *fiber.Ctx) error {
	return s.renderPostForm(c, newPostForm())
}

// PostCreate saves a new post and sends the author to their profile.
func (s *Server) PostCreate(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	input, err := s.postFormInput(c)
	if err != nil {
		return err
	}

	_, err = s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID: userID,
		Form:   input,
	})
	if fields, ok := formErrors(err); ok {
		form := newPostForm()
		form.Text, form.GroupID, form.Errors = input.Text, input.GroupID, fields
		return s.renderPostForm(c, form)
	}
	if err != nil {
		return err
	}
	return c.Redirect(profileURL(middleware.Username(c)), fiber.StatusFound)
}

// PostEditForm shows the edit form to the post's author.
func (s *Server) PostEditForm(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	userID, _ := middleware.UserID(c)
	post, err := s.postService.GetEditablePost(c.UserContext(), userID, id)
	if err != nil {
		return err
	}
	return s.renderPostForm(c, editPostForm(post))
}

// PostEdit applies an edit and returns to the post page.
func (s *Server) PostEdit(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	userID, _ := middleware.UserID(c)
	input, err := s.postFormInput(c)
	if err != nil {
		return err
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID:     userID,
		PostID:     id,
		Form:       input,
		ClearImage: c.FormValue("image-clear") != "",
	})
	if fields, ok := formErrors(err); ok {
		current, getErr := s.postService.GetEditablePost(c.UserContext(), userID, id)
		if getErr != nil {
			return getErr
		}
		form := editPostForm(current)
		form.Text, form.GroupID, form.Errors = input.Text, input.GroupID, fields
		return s.renderPostForm(c, form)
	}
	if err != nil {
		return err
	}
	return c.Redirect(postURL(post.ID), fiber.StatusFound)
}

// PostDelete removes the author's post and returns to their profile.
func (s *Server) PostDelete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	userID, _ := middleware.UserID(c)
	if err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{UserID: userID, PostID: id}); err != nil {
		return err
	}
	return c.Redirect(profileURL(middleware.Username(c)), fiber.StatusFound)
}

// AddComment stores a comment and returns to the post. An empty comment is
// shown again with its error.
func (s *Server) AddComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	userID, _ := middleware.UserID(c)
	text := c.FormValue("text")

	_, err = s.commentService.AddComment(c.UserContext(), service.AddCommentInput{
		UserID: userID,
		PostID: id,
		Text:   text,
	})
	if fields, ok := formErrors(err); ok {
		return s.renderPostDetail(c, id, text, fields)
	}
	if err != nil {
		return err
	}
	return c.Redirect(postURL(id), fiber.StatusFound)
}

func (s *Server) postFormInput(c *fiber.Ctx) (service.PostFormInput, error) {
	upload, err := readUpload(c, "image", int64(s.config.MaxUploadMB)*1024*1024)
	if err != nil {
		return service.PostFormInput{}, err
	}
	return service.PostFormInput{
		Text:    c.FormValue("text"),
		GroupID: c.FormValue("group"),
		Image:   upload,
	}, nil
}
