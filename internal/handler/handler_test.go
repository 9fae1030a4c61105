package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/folio/internal/access"
	"github.com/folio/internal/config"
	"github.com/folio/internal/db"
	"github.com/folio/internal/service"
	"github.com/folio/internal/task"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type recordingQueue struct {
	jobs   []task.Job
	accept bool
}

func (q *recordingQueue) Enqueue(job task.Job) bool {
	q.jobs = append(q.jobs, job)
	return q.accept
}

func setupTestAPI(t *testing.T, queue task.Enqueuer) *API {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := db.Open(fmt.Sprintf("file:handler_%s?mode=memory&cache=shared", name), logger.Silent)
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, db.Migrate(gdb), "failed to migrate test database")
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return NewAPI(gdb, Options{
		Pagination: config.PaginationConfig{PageSize: 10, MaxPageSize: 50},
		Tasks:      queue,
		Logger:     zerolog.Nop(),
	})
}

func newContext(method, target string, body string) (*gin.Context, *httptest.ResponseRecorder) {
	rr := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rr)
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestFailMapsServiceErrors(t *testing.T) {
	api := &API{log: zerolog.Nop()}
	verr := &service.ValidationError{}
	verr.Add("title", "This field may not be blank.")

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "validation", err: verr, status: http.StatusBadRequest},
		{name: "auth required", err: service.ErrAuthenticationRequired, status: http.StatusUnauthorized},
		{name: "invalid token", err: service.ErrInvalidToken, status: http.StatusUnauthorized},
		{name: "forbidden", err: service.ErrForbidden, status: http.StatusForbidden},
		{name: "post missing", err: fmt.Errorf("wrapped: %w", service.ErrPostNotFound), status: http.StatusNotFound},
		{name: "page missing", err: service.ErrPageNotFound, status: http.StatusNotFound},
		{name: "invalid page", err: service.ErrInvalidPage, status: http.StatusNotFound},
		{name: "slug race", err: service.ErrSlugConflict, status: http.StatusConflict},
		{name: "unexpected", err: errors.New("disk on fire"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rr := newContext(http.MethodGet, "/", "")
			api.fail(c, tt.err)
			assert.Equal(t, tt.status, rr.Code)
			assert.True(t, c.IsAborted())
		})
	}

	c, rr := newContext(http.MethodGet, "/", "")
	api.fail(c, verr)
	assert.Equal(t, map[string]any{"title": []any{"This field may not be blank."}}, decodeBody(t, rr))
}

func TestBindJSONReportsFieldErrors(t *testing.T) {
	c, rr := newContext(http.MethodPost, "/", `{"title": "x"}`)
	var payload postWritePayload
	assert.False(t, bindJSON(c, &payload))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, map[string]any{"content": []any{"This field is required."}}, decodeBody(t, rr))

	c, rr = newContext(http.MethodPost, "/", `{"title": 5, "content": "x"}`)
	assert.False(t, bindJSON(c, &payload))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeBody(t, rr), "title")

	c, rr = newContext(http.MethodPost, "/", `{"title": `)
	assert.False(t, bindJSON(c, &payload))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeBody(t, rr)["detail"], "JSON parse error")

	c, _ = newContext(http.MethodPatch, "/", "")
	var patch postPatchPayload
	assert.True(t, bindJSON(c, &patch), "empty PATCH body is valid")
}

func TestParseListFilter(t *testing.T) {
	api := &API{pagination: config.PaginationConfig{PageSize: 10, MaxPageSize: 20}}

	c, _ := newContext(http.MethodGet, "/api/pages/?published=true&author=3&show_in_navigation=0&search=go&ordering=-title&page=2&page_size=500", "")
	filter, ok := api.parseListFilter(c, true)
	require.True(t, ok)
	require.NotNil(t, filter.Published)
	assert.True(t, *filter.Published)
	require.NotNil(t, filter.AuthorID)
	assert.EqualValues(t, 3, *filter.AuthorID)
	require.NotNil(t, filter.ShowInNavigation)
	assert.False(t, *filter.ShowInNavigation)
	assert.Equal(t, "go", filter.Search)
	assert.Equal(t, "-title", filter.Ordering)
	assert.Equal(t, 2, filter.Page)
	assert.Equal(t, 20, filter.PageSize)

	c, _ = newContext(http.MethodGet, "/api/posts/?show_in_navigation=yes", "")
	filter, ok = api.parseListFilter(c, false)
	require.True(t, ok)
	assert.Nil(t, filter.ShowInNavigation, "posts ignore the navigation filter")

	c, rr := newContext(http.MethodGet, "/api/posts/?author=bob", "")
	_, ok = api.parseListFilter(c, false)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	c, rr = newContext(http.MethodGet, "/api/posts/?page=0", "")
	_, ok = api.parseListFilter(c, false)
	assert.False(t, ok)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRenderMarkdownSanitizes(t *testing.T) {
	out := renderMarkdown("# Title\n\n<script>alert(1)</script>\n\n[link](javascript:alert(1))")
	assert.Contains(t, out, "<h1")
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "javascript:")
}

func TestProjectionsFollowOperationKind(t *testing.T) {
	post := &db.Post{ID: 1, Title: "T", Slug: "t", Content: "*hi*", Author: db.User{ID: 7, Username: "alice"}}

	list, ok := projectPost(OpList, post).(postListView)
	require.True(t, ok)
	assert.Equal(t, "alice", list.Author.Username)

	detail, ok := projectPost(OpRetrieve, post).(postDetailView)
	require.True(t, ok)
	assert.Equal(t, "<p><em>hi</em></p>\n", detail.ContentHTML)
	assert.Nil(t, projectPost(OpDelete, post))

	page := &db.Page{ID: 2, Title: "About", Slug: "about", Order: 3, ShowInNavigation: true}
	_, ok = projectPage(OpUpdate, page).(pageDetailView)
	assert.True(t, ok)
	_, ok = projectPage(OpList, page).(pageListView)
	assert.True(t, ok)
	assert.Nil(t, projectPage(OpDelete, page))

	nav := projectNavigation([]db.Page{*page})
	assert.Equal(t, []navigationPageView{{ID: 2, Title: "About", Slug: "about", Order: 3}}, nav)
	assert.Equal(t, "retrieve", OpRetrieve.String())
}

func TestAuthenticateMiddleware(t *testing.T) {
	api := setupTestAPI(t, nil)
	user, token, err := api.auth.Register(service.RegisterInput{Username: "alice", Email: "alice@example.com", Password: "testpass123"})
	require.NoError(t, err)

	r := gin.New()
	r.Use(api.Authenticate())
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": actorFrom(c).UserID})
	})
	r.GET("/private", RequireAuth(), func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name   string
		path   string
		header string
		status int
		userID float64
	}{
		{name: "anonymous", path: "/whoami", status: http.StatusOK},
		{name: "token scheme", path: "/whoami", header: "Token " + token.Key, status: http.StatusOK, userID: float64(user.ID)},
		{name: "bearer scheme", path: "/whoami", header: "Bearer " + token.Key, status: http.StatusOK, userID: float64(user.ID)},
		{name: "other scheme ignored", path: "/whoami", header: "Basic abc", status: http.StatusOK},
		{name: "missing key", path: "/whoami", header: "Token", status: http.StatusUnauthorized},
		{name: "unknown key", path: "/whoami", header: "Token deadbeef", status: http.StatusUnauthorized},
		{name: "private anonymous", path: "/private", status: http.StatusUnauthorized},
		{name: "private authenticated", path: "/private", header: "Token " + token.Key, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			if tt.path == "/whoami" && tt.status == http.StatusOK {
				assert.Equal(t, tt.userID, decodeBody(t, rr)["user_id"])
			}
		})
	}
}

func TestRegisterQueuesWelcomeEmail(t *testing.T) {
	queue := &recordingQueue{accept: false}
	api := setupTestAPI(t, queue)

	c, rr := newContext(http.MethodPost, "/api/auth/register/", `{"username":"bob","email":"bob@example.com","password":"testpass123","password2":"testpass123"}`)
	api.Register(c)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	body := decodeBody(t, rr)
	assert.Len(t, body["token"], 40)
	require.Len(t, queue.jobs, 1, "welcome email is handed to the queue even if it is dropped")
	assert.Equal(t, "welcome_email", queue.jobs[0].Name)
}

func TestCreateAndListPostsThroughHandlers(t *testing.T) {
	api := setupTestAPI(t, nil)
	user, _, err := api.auth.Register(service.RegisterInput{Username: "alice", Email: "alice@example.com", Password: "testpass123"})
	require.NoError(t, err)

	c, rr := newContext(http.MethodPost, "/api/posts/", `{"title":"Hello World","content":"body","published":true}`)
	c.Set(actorContextKey, access.User(user.ID))
	api.CreatePost(c)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decodeBody(t, rr)
	assert.Equal(t, "hello-world", created["slug"])
	assert.Equal(t, "<p>body</p>\n", created["content_html"])

	c, rr = newContext(http.MethodGet, "/api/posts/", "")
	api.ListPosts(c)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decodeBody(t, rr)
	assert.EqualValues(t, 1, list["count"])
	results := list["results"].([]any)
	require.Len(t, results, 1)
	assert.NotContains(t, results[0], "content", "list projection omits the body")

	c, rr = newContext(http.MethodGet, "/api/posts/abc/", "")
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	api.GetPost(c)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPageLinkKeepsOtherQueryParameters(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/api/posts/?search=go&page=3", "")
	c.Request.Header.Set("X-Forwarded-Proto", "https")

	assert.Equal(t, "https://example.com/api/posts/?page=4&search=go", pageLink(c, 4))
	assert.Equal(t, "https://example.com/api/posts/?search=go", pageLink(c, 1))
}

func TestRespondPageEnvelope(t *testing.T) {
	c, rr := newContext(http.MethodGet, "/api/posts/", "")
	result := &service.ListResult[db.Post]{Total: 3, Page: 1, PageSize: 2, TotalPages: 2}
	respondPage(c, result, []any{})

	var envelope pageEnvelope
	require.NoError(t, json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&envelope))
	assert.EqualValues(t, 3, envelope.Count)
	require.NotNil(t, envelope.Next)
	assert.Nil(t, envelope.Previous)
}
