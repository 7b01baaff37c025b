package server

import (
	"errors"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
)

func asAppError(err error, target **models.AppError) bool {
	return errors.As(err, target)
}

// statusForError maps an AppError code to an HTTP status.
func statusForError(err error) int {
	switch models.ErrorCode(err) {
	case models.CodeValidation:
		return fiber.StatusBadRequest
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeForbidden:
		return fiber.StatusForbidden
	case models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

var errorTitles = map[int]string{
	fiber.StatusBadRequest:            "Bad request",
	fiber.StatusForbidden:             "Access denied",
	fiber.StatusNotFound:              "Page not found",
	fiber.StatusMethodNotAllowed:      "Method not allowed",
	fiber.StatusConflict:              "Conflict",
	fiber.StatusRequestEntityTooLarge: "Upload too large",
	fiber.StatusTooManyRequests:       "Too many requests",
	fiber.StatusServiceUnavailable:    "Service unavailable",
}

// errorHandler renders every failed request as an HTML error page.
// Unauthenticated access is sent to the login page instead.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := ""

	var fe *fiber.Error
	var appErr *models.AppError
	switch {
	case errors.As(err, &fe):
		status = fe.Code
		message = fe.Message
	case errors.As(err, &appErr):
		if appErr.Code == models.CodeUnauthorized {
			return c.Redirect(middleware.LoginRedirectURL(c.OriginalURL()), fiber.StatusFound)
		}
		status = statusForError(appErr)
		if status != fiber.StatusInternalServerError {
			message = appErr.Message
		}
	}

	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error", "error", err, "path", c.Path())
		message = "Something went wrong on our side. Please try again later."
	}

	title, ok := errorTitles[status]
	if !ok {
		title = "Server error"
	}

	c.Status(status)
	renderErr := c.Render("errors/error", s.viewData(c, title, fiber.Map{
		"Status":  status,
		"Message": message,
	}))
	if renderErr != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "failed to render error page", "error", renderErr)
		return c.Status(status).SendString(title)
	}
	return nil
}
