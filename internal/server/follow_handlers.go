package server

import (
	"yatube/internal/middleware"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// FollowIndex renders posts by the authors the current user follows.
func (s *Server) FollowIndex(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	listing, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		FollowerID: userID,
		Page:       c.Query("page"),
	})
	if err != nil {
		return err
	}
	return c.Render("posts/follow", s.viewData(c, "Your subscriptions", fiber.Map{
		"Page": listing.Page,
	}))
}

// ProfileFollow subscribes the current user to the author. Repeating it is harmless.
func (s *Server) ProfileFollow(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	username := c.Params("username")
	if _, err := s.followService.Follow(c.UserContext(), userID, username); err != nil {
		return err
	}
	return c.Redirect(profileURL(username), fiber.StatusFound)
}

// ProfileUnfollow drops the subscription if there is one.
func (s *Server) ProfileUnfollow(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	username := c.Params("username")
	if _, err := s.followService.Unfollow(c.UserContext(), userID, username); err != nil {
		return err
	}
	return c.Redirect(profileURL(username), fiber.StatusFound)
}
