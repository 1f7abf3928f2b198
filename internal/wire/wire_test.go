package wire

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cinema-reviews/internal/data/repository"
	"cinema-reviews/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const reviewBody = "A slow first act gives way to a tense and beautifully shot second half that stays with you. "

type envelope struct {
	Status  bool              `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

type testClient struct {
	t       *testing.T
	handler http.Handler
}

func newTestClient(t *testing.T) *testClient {
	t.Helper()

	config := &utils.Config{
		App:      utils.AppConfig{Name: "cinema-reviews-test"},
		Database: utils.DatabaseConfig{Driver: utils.DriverMemory},
		JWT:      utils.JWTConfig{Secret: "wire-test-secret", ExpiryMinutes: 30},
		Admin:    utils.AdminConfig{Username: "admin", Password: "adminpass1"},
		CORS:     utils.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
	logger := zap.NewNop()

	app := Wiring(repository.NewMemoryRepository(logger), config, logger)
	require.NoError(t, app.Service.Auth.EnsureAdmin(context.Background(), config.Admin))

	return &testClient{t: t, handler: app.Router}
}

func (c *testClient) raw(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

func (c *testClient) do(method, path, token string, body any) (int, envelope) {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := c.raw(req)

	var env envelope
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	return rec.Code, env
}

func (c *testClient) data(env envelope, dst any) {
	c.t.Helper()
	require.NoError(c.t, json.Unmarshal(env.Data, dst))
}

type authData struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Role     string `json:"role"`
	} `json:"user"`
}

func (c *testClient) register(username string) authData {
	c.t.Helper()
	code, env := c.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"password": "password123",
	})
	require.Equal(c.t, http.StatusCreated, code, env.Message)

	var auth authData
	c.data(env, &auth)
	return auth
}

func (c *testClient) login(username, password string) authData {
	c.t.Helper()
	code, env := c.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(c.t, http.StatusOK, code, env.Message)

	var auth authData
	c.data(env, &auth)
	return auth
}

type reviewData struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	MovieTitle string `json:"movie_title"`
	Status     string `json:"status"`
	Likes      int    `json:"likes"`
	IsLiked    *bool  `json:"is_liked"`
	Author     struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"author"`
}

type pageData struct {
	Data       []map[string]any `json:"data"`
	Pagination struct {
		Total      int64 `json:"total"`
		Page       int   `json:"page"`
		Limit      int   `json:"limit"`
		TotalPages int   `json:"total_pages"`
	} `json:"pagination"`
}

func (c *testClient) createReview(token, title string) reviewData {
	c.t.Helper()
	code, env := c.do(http.MethodPost, "/api/reviews", token, reviewPayload(title))
	require.Equal(c.t, http.StatusCreated, code, env.Message)

	var review reviewData
	c.data(env, &review)
	return review
}

func (c *testClient) page(path, token string) pageData {
	c.t.Helper()
	code, env := c.do(http.MethodGet, path, token, nil)
	require.Equal(c.t, http.StatusOK, code, env.Message)

	var page pageData
	c.data(env, &page)
	return page
}

func reviewPayload(title string) map[string]string {
	return map[string]string{
		"title":       title,
		"movie_title": "Heat",
		"content":     strings.Repeat(reviewBody, 2),
	}
}

func TestReviewLifecycleOverHTTP(t *testing.T) {
	c := newTestClient(t)

	alice := c.register("alice1")
	bob := c.register("bobby1")
	admin := c.login("admin", "adminpass1")
	assert.Equal(t, "bearer", alice.TokenType)
	assert.Equal(t, "admin", admin.User.Role)

	review := c.createReview(alice.AccessToken, "A patient heist film")
	assert.Equal(t, "pending", review.Status)
	assert.Equal(t, 0, review.Likes)
	assert.Equal(t, alice.User.ID, review.Author.ID)
	reviewPath := "/api/reviews/" + review.ID

	// Pending reviews are hidden from everyone but the owner and admins.
	code, _ := c.do(http.MethodGet, reviewPath, "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = c.do(http.MethodGet, reviewPath, bob.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = c.do(http.MethodGet, reviewPath, alice.AccessToken, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = c.do(http.MethodGet, reviewPath, admin.AccessToken, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = c.do(http.MethodPost, reviewPath+"/like", bob.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	queue := c.page("/api/reviews/moderation", admin.AccessToken)
	require.Len(t, queue.Data, 1)
	assert.NotContains(t, queue.Data[0], "is_liked")

	code, _ = c.do(http.MethodPost, reviewPath+"/approve", bob.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := c.do(http.MethodPost, reviewPath+"/approve", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	var approved reviewData
	c.data(env, &approved)
	assert.Equal(t, "approved", approved.Status)

	code, env = c.do(http.MethodPost, reviewPath+"/reject", admin.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "review has already been processed", env.Message)

	var toggled struct {
		Likes   int  `json:"likes"`
		IsLiked bool `json:"is_liked"`
	}
	for _, want := range []struct {
		likes int
		liked bool
	}{{1, true}, {0, false}, {1, true}} {
		code, env = c.do(http.MethodPost, reviewPath+"/like", bob.AccessToken, nil)
		require.Equal(t, http.StatusOK, code, env.Message)
		c.data(env, &toggled)
		assert.Equal(t, want.likes, toggled.Likes)
		assert.Equal(t, want.liked, toggled.IsLiked)
	}

	public := c.page("/api/reviews/public", "")
	require.Len(t, public.Data, 1)
	assert.NotContains(t, public.Data[0], "is_liked")
	assert.EqualValues(t, 1, public.Data[0]["likes"])

	public = c.page("/api/reviews/public", bob.AccessToken)
	require.Len(t, public.Data, 1)
	assert.Equal(t, true, public.Data[0]["is_liked"])

	public = c.page("/api/reviews/public?author_id="+bob.User.ID, "")
	assert.Empty(t, public.Data)
	assert.Equal(t, 1, public.Pagination.TotalPages)

	// Deleting bob takes his like with him.
	code, _ = c.do(http.MethodDelete, "/api/admin/users/"+bob.User.ID, admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)

	code, env = c.do(http.MethodGet, reviewPath, "", nil)
	require.Equal(t, http.StatusOK, code)
	var afterDelete reviewData
	c.data(env, &afterDelete)
	assert.Equal(t, 0, afterDelete.Likes)

	code, _ = c.do(http.MethodGet, "/api/auth/me", bob.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	// Editing sends the review back to moderation.
	edited := reviewPayload("A patient heist film, revisited")
	code, env = c.do(http.MethodPut, reviewPath, alice.AccessToken, edited)
	require.Equal(t, http.StatusOK, code, env.Message)
	var updated reviewData
	c.data(env, &updated)
	assert.Equal(t, "pending", updated.Status)
	assert.Equal(t, edited["title"], updated.Title)

	assert.Empty(t, c.page("/api/reviews/public", "").Data)

	own := c.page("/api/reviews/my", alice.AccessToken)
	require.Len(t, own.Data, 1)
	assert.Equal(t, "pending", own.Data[0]["status"])

	code, _ = c.do(http.MethodDelete, reviewPath, admin.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = c.do(http.MethodDelete, reviewPath, alice.AccessToken, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = c.do(http.MethodGet, reviewPath, alice.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAuthRoutes(t *testing.T) {
	c := newTestClient(t)
	carol := c.register("carol1")

	code, env := c.do(http.MethodGet, "/api/auth/me", carol.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	var me struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	c.data(env, &me)
	assert.Equal(t, carol.User.ID, me.ID)
	assert.Equal(t, "user", me.Role)

	code, _ = c.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "carol1", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, code)

	code, env = c.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "x!", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Errors, "username")
	assert.Contains(t, env.Errors, "password")

	code, _ = c.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "carol1", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = c.do(http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = c.do(http.MethodGet, "/api/auth/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Token "+carol.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, c.raw(req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{"))
	assert.Equal(t, http.StatusBadRequest, c.raw(req).Code)
}

func TestUserRoutes(t *testing.T) {
	c := newTestClient(t)
	dave := c.register("dave01")
	admin := c.login("admin", "adminpass1")

	code, env := c.do(http.MethodGet, "/api/users/"+dave.User.ID, "", nil)
	require.Equal(t, http.StatusOK, code)
	var profile map[string]any
	c.data(env, &profile)
	assert.Equal(t, "dave01", profile["username"])
	assert.NotContains(t, profile, "role")

	code, _ = c.do(http.MethodGet, "/api/users/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = c.do(http.MethodGet, "/api/users/00000000-0000-0000-0000-000000000001", "", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = c.do(http.MethodDelete, "/api/admin/users/"+dave.User.ID, dave.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = c.do(http.MethodDelete, "/api/admin/users/"+admin.User.ID, admin.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestReviewRouteErrors(t *testing.T) {
	c := newTestClient(t)
	erin := c.register("erin01")

	code, _ := c.do(http.MethodPost, "/api/reviews", "", reviewPayload("Anonymous attempt"))
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := c.do(http.MethodPost, "/api/reviews", erin.AccessToken, map[string]string{
		"title": "Hi", "movie_title": "Heat", "content": "too short",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Errors, "title")
	assert.Contains(t, env.Errors, "content")

	code, _ = c.do(http.MethodGet, "/api/reviews/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = c.do(http.MethodPost, "/api/reviews/00000000-0000-0000-0000-000000000001/like", erin.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = c.do(http.MethodGet, "/api/reviews/moderation", erin.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	for _, query := range []string{"page=abc", "page=0", "limit=101", "sort=title", "order=up", "search=a", "author_id=nope"} {
		code, _ = c.do(http.MethodGet, "/api/reviews/public?"+query, "", nil)
		assert.Equal(t, http.StatusBadRequest, code, query)
	}
}

func TestPublicListingPagination(t *testing.T) {
	c := newTestClient(t)
	frank := c.register("frank1")
	admin := c.login("admin", "adminpass1")

	for i := range 3 {
		review := c.createReview(frank.AccessToken, fmt.Sprintf("Review number %d", i+1))
		code, _ := c.do(http.MethodPost, "/api/reviews/"+review.ID+"/approve", admin.AccessToken, nil)
		require.Equal(t, http.StatusOK, code)
	}

	first := c.page("/api/reviews/public?page=1&limit=2", "")
	assert.Len(t, first.Data, 2)
	assert.EqualValues(t, 3, first.Pagination.Total)
	assert.Equal(t, 2, first.Pagination.TotalPages)
	assert.Equal(t, "Review number 3", first.Data[0]["title"])

	beyond := c.page("/api/reviews/public?page=5&limit=2", "")
	assert.Empty(t, beyond.Data)
	assert.Equal(t, 5, beyond.Pagination.Page)

	oldest := c.page("/api/reviews/public?order=asc&limit=1", "")
	require.Len(t, oldest.Data, 1)
	assert.Equal(t, "Review number 1", oldest.Data[0]["title"])

	found := c.page("/api/reviews/public?search=number%202", "")
	require.Len(t, found.Data, 1)
	assert.Equal(t, "Review number 2", found.Data[0]["title"])
}

func TestHealthAndCORS(t *testing.T) {
	c := newTestClient(t)

	rec := c.raw(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	req := httptest.NewRequest(http.MethodOptions, "/api/reviews", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = c.raw(req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = c.raw(req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	code, _ := c.do(http.MethodGet, "/api/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}
