package server

import (
	"yatube/internal/featureflags"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

type signupFormView struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
}

// SignupForm shows the registration form.
func (s *Server) SignupForm(c *fiber.Ctx) error {
	if !s.featureFlags.Enabled(featureflags.Signup, 0) {
		return fiber.ErrNotFound
	}
	return c.Render("auth/signup", s.viewData(c, "Sign up", fiber.Map{
		"Form":   signupFormView{},
		"Errors": map[string]string{},
	}))
}

// Signup registers a user, logs them in and sends them to the index.
func (s *Server) Signup(c *fiber.Ctx) error {
	if !s.featureFlags.Enabled(featureflags.Signup, 0) {
		return fiber.ErrNotFound
	}

	in := service.SignupInput{
		Username:        c.FormValue("username"),
		Email:           c.FormValue("email"),
		FirstName:       c.FormValue("first_name"),
		LastName:        c.FormValue("last_name"),
		Password:        c.FormValue("password1"),
		PasswordConfirm: c.FormValue("password2"),
	}
	user, err := s.userService.Signup(c.UserContext(), in)
	if fields, ok := formErrors(err); ok {
		return c.Render("auth/signup", s.viewData(c, "Sign up", fiber.Map{
			"Form": signupFormView{
				Username:  in.Username,
				Email:     in.Email,
				FirstName: in.FirstName,
				LastName:  in.LastName,
			},
			"Errors": fields,
		}))
	}
	if err != nil {
		return err
	}

	if err := s.sessions.SetCookie(c, user.ID, user.Username); err != nil {
		return models.NewInternalError(err)
	}
	middleware.Logger.InfoContext(c.UserContext(), "user signed up", "user_id", user.ID, "username", user.Username)
	return c.Redirect("/", fiber.StatusFound)
}

// LoginForm shows the login form, remembering where to go afterwards.
func (s *Server) LoginForm(c *fiber.Ctx) error {
	return c.Render("auth/login", s.viewData(c, "Log in", fiber.Map{
		"Next":         safeNext(c.Query("next"), ""),
		"FormUsername": "",
		"Error":        "",
	}))
}

// Login starts a session and redirects to next, or to the index.
func (s *Server) Login(c *fiber.Ctx) error {
	username := c.FormValue("username")
	next := safeNext(c.FormValue("next", c.Query("next")), "")

	user, err := s.userService.Authenticate(c.UserContext(), username, c.FormValue("password"))
	if models.ErrorCode(err) == models.CodeUnauthorized {
		var appErr *models.AppError
		asAppError(err, &appErr)
		return c.Render("auth/login", s.viewData(c, "Log in", fiber.Map{
			"Next":         next,
			"FormUsername": username,
			"Error":        appErr.Message,
		}))
	}
	if err != nil {
		return err
	}

	if err := s.sessions.SetCookie(c, user.ID, user.Username); err != nil {
		return models.NewInternalError(err)
	}
	return c.Redirect(safeNext(next, "/"), fiber.StatusFound)
}

// Logout clears the session cookie.
func (s *Server) Logout(c *fiber.Ctx) error {
	s.sessions.ClearCookie(c)
	return c.Redirect("/", fiber.StatusFound)
}
