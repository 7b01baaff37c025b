package server

import (
	"io"
	"net/url"
	"strconv"
	"strings"

	"yatube/internal/featureflags"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

func uintString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// viewData returns the values every page template needs, merged with data.
func (s *Server) viewData(c *fiber.Ctx, title string, data fiber.Map) fiber.Map {
	out := fiber.Map{
		"Title":         title,
		"Path":          c.Path(),
		"Username":      middleware.Username(c),
		"SignupEnabled": s.featureFlags.Enabled(featureflags.Signup, 0),
	}
	if id, ok := middleware.UserID(c); ok {
		out["UserID"] = id
	}
	for k, v := range data {
		out[k] = v
	}
	return out
}

// parseID reads a positive integer route parameter. Anything else is a 404.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.ErrNotFound
	}
	return uint(id), nil
}

// profileURL is the canonical profile path for username.
func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

func postURL(id uint) string {
	return "/posts/" + uintString(id) + "/"
}

// safeNext returns next when it is a local path, fallback otherwise.
func safeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return fallback
	}
	return next
}

// readUpload returns the uploaded image for field, or nil when none was sent.
func readUpload(c *fiber.Ctx, field string, maxBytes int64) (*service.UploadImageInput, error) {
	fh, err := c.FormFile(field)
	if err != nil || fh == nil || fh.Size == 0 {
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer f.Close()

	// One extra byte lets the media service see that the limit was exceeded.
	content, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &service.UploadImageInput{Filename: fh.Filename, Content: content}, nil
}

// formErrors extracts per-field messages from a validation error.
func formErrors(err error) (map[string]string, bool) {
	if models.ErrorCode(err) != models.CodeValidation {
		return nil, false
	}
	var appErr *models.AppError
	if !asAppError(err, &appErr) {
		return nil, false
	}
	if len(appErr.Fields) == 0 {
		return map[string]string{"__all__": appErr.Message}, true
	}
	return appErr.Fields, true
}
