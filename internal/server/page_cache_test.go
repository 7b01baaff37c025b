package server

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"yatube/internal/featureflags"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexCacheServesStalePageUntilExpiry(t *testing.T) {
	ts := newTestServer(t)
	leo := testutil.MakeUser(t, ts.db, "leo")
	post := testutil.MakePost(t, ts.db, leo, nil, "cached text", time.Time{})

	resp, body := ts.get(t, "/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "cached text")
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))

	// Bypass the service so nothing invalidates the cache.
	require.NoError(t, repository.NewPostRepository(ts.db).Delete(context.Background(), post.ID))

	resp, body = ts.get(t, "/", nil)
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
	assert.Contains(t, body, "cached text", "deleted post stays visible until the entry expires")

	ts.mr.FastForward(21 * time.Second)

	resp, body = ts.get(t, "/", nil)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	assert.NotContains(t, body, "cached text")
}

func TestIndexCacheInvalidatedByNewPost(t *testing.T) {
	ts := newTestServer(t)
	leo := testutil.MakeUser(t, ts.db, "leo")

	_, body := ts.get(t, "/", nil)
	assert.Equal(t, 0, countPosts(body))

	resp, _ := ts.postForm(t, "/create/", url.Values{"text": {"fresh post"}}, leo)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp, body = ts.get(t, "/", nil)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	assert.Contains(t, body, "fresh post")
}

func TestIndexCacheVariesByPageAndViewer(t *testing.T) {
	ts := newTestServer(t)
	leo := testutil.MakeUser(t, ts.db, "leo")
	testutil.MakePosts(t, ts.db, leo, nil, 12)

	_, guest := ts.get(t, "/", nil)
	_, member := ts.get(t, "/", leo)
	assert.NotContains(t, guest, "New post")
	assert.Contains(t, member, "New post")

	_, second := ts.get(t, "/?page=2", nil)
	assert.Equal(t, 2, countPosts(second))
}

func TestIndexCacheFlagOff(t *testing.T) {
	ts := newTestServer(t)
	ts.srv.featureFlags = featureflags.NewManager("index_cache=off")

	leo := testutil.MakeUser(t, ts.db, "leo")
	post := testutil.MakePost(t, ts.db, leo, nil, "uncached", time.Time{})

	_, body := ts.get(t, "/", nil)
	assert.Contains(t, body, "uncached")
	require.NoError(t, ts.db.Delete(&models.Post{}, post.ID).Error)

	resp, body := ts.get(t, "/", nil)
	assert.Empty(t, resp.Header.Get("X-Cache"))
	assert.NotContains(t, body, "uncached")
}
