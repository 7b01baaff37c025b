package server

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"yatube/internal/config"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	srv *Server
	app *fiber.App
	db  *gorm.DB
	mr  *miniredis.Miniredis
	cfg *config.Config
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Env:               "test",
		SessionSecret:     "test-session-secret-0123456789abcdef",
		SessionTTLHours:   1,
		MediaRoot:         t.TempDir(),
		MediaURL:          "/media/",
		MaxUploadMB:       1,
		PostsPerPage:      10,
		IndexCacheSeconds: 20,
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db := testutil.NewSQLiteDB(t)
	mr, rdb := testutil.NewMiniRedis(t)
	cfg := testConfig(t)

	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)
	app, err := srv.NewApp()
	require.NoError(t, err)

	return &testServer{srv: srv, app: app, db: db, mr: mr, cfg: cfg}
}

func (ts *testServer) do(t *testing.T, req *http.Request, user *models.User) (*http.Response, string) {
	t.Helper()
	if user != nil {
		token, err := ts.srv.sessions.Issue(user.ID, user.Username)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, string(body)
}

func (ts *testServer) get(t *testing.T, path string, user *models.User) (*http.Response, string) {
	t.Helper()
	return ts.do(t, httptest.NewRequest(http.MethodGet, path, nil), user)
}

func (ts *testServer) postForm(t *testing.T, path string, form url.Values, user *models.User) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return ts.do(t, req, user)
}

func (ts *testServer) postMultipart(t *testing.T, path string, fields map[string]string, fileField, fileName string, content []byte, user *models.User) (*http.Response, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return ts.do(t, req, user)
}

// countPosts counts rendered post cards on a page.
func countPosts(body string) int {
	return strings.Count(body, `class="post-card"`)
}
