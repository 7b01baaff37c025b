package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-32-characters-long"

func TestSessions_IssueAndParse(t *testing.T) {
	s := NewSessions(testSecret, time.Hour, false)

	token, err := s.Issue(42, "leo")
	require.NoError(t, err)

	claims, err := s.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "leo", claims.Username)
	assert.NotEmpty(t, claims.ID)
}

func TestSessions_ParseRejects(t *testing.T) {
	s := NewSessions(testSecret, time.Hour, false)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewSessions("another-secret-at-least-32-characters", time.Hour, false)
		token, err := other.Issue(1, "leo")
		require.NoError(t, err)
		_, err = s.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewSessions(testSecret, -time.Minute, false)
		token, err := expired.Issue(1, "leo")
		require.NoError(t, err)
		_, err = s.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("wrong audience", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "1",
			"iss": sessionIssuer,
			"aud": "someone-else",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = s.Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := s.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidSession)
	})
}

func TestLoginRedirectURL(t *testing.T) {
	assert.Equal(t, "/auth/login/?next=/create/", LoginRedirectURL("/create/"))
	assert.Equal(t, "/auth/login/?next=/posts/3/edit/", LoginRedirectURL("/posts/3/edit/"))
	assert.Equal(t, "/auth/login/?next=/follow/%3Fpage%3D2", LoginRedirectURL("/follow/?page=2"))
}

func TestCurrentUserAndLoginRequired(t *testing.T) {
	s := NewSessions(testSecret, time.Hour, false)

	app := fiber.New()
	app.Use(s.CurrentUser())
	app.Get("/create/", LoginRequired(), func(c *fiber.Ctx) error {
		return c.SendString(Username(c))
	})

	t.Run("anonymous is redirected", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/create/", nil))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/auth/login/?next=/create/", resp.Header.Get("Location"))
	})

	t.Run("valid cookie passes", func(t *testing.T) {
		token, err := s.Issue(7, "leo")
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/create/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "leo", string(body))
	})

	t.Run("tampered cookie is treated as anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/create/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tampered"})

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusFound, resp.StatusCode)
	})
}
