package server

import (
	"yatube/internal/featureflags"
	"yatube/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// cacheIndexPage serves the index from the page cache and stores fresh renders.
// Entries vary by full URL and by viewer, since the header shows who is logged in.
func (s *Server) cacheIndexPage() fiber.Handler {
	return func(c *fiber.Ctx) error {
		viewerID, _ := middleware.UserID(c)
		if c.Method() != fiber.MethodGet || !s.featureFlags.Enabled(featureflags.IndexCache, viewerID) {
			return c.Next()
		}

		ctx := c.UserContext()
		variant := c.OriginalURL() + "|viewer=" + uintString(viewerID)

		if body, ok := s.indexCache.Get(ctx, variant); ok {
			c.Set("X-Cache", "HIT")
			c.Type("html", "utf-8")
			return c.Send(body)
		}

		if err := c.Next(); err != nil {
			return err
		}

		if c.Response().StatusCode() == fiber.StatusOK && s.indexCache.Enabled() {
			body := append([]byte(nil), c.Response().Body()...)
			if err := s.indexCache.Set(ctx, variant, body); err != nil {
				middleware.Logger.WarnContext(ctx, "failed to store index page", "error", err)
			}
			c.Set("X-Cache", "MISS")
		}
		return nil
	}
}
