package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/go-task-tracker/internal/events"
	"github.com/adanyl0v/go-task-tracker/internal/services"
	"github.com/adanyl0v/go-task-tracker/internal/storage/memory"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type testServer struct {
	router *gin.Engine
	token  string
	userID int64
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithPinger(t, nil)
}

func newTestServerWithPinger(t *testing.T, pinger Pinger) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	if pinger == nil {
		pinger = store
	}
	logger := zerolog.Nop()
	auth := services.NewAuthService(logger, store, "task-tracker", "task-tracker-clients",
		[]byte("handler-test-key"), time.Hour,
		services.WithHashParams(&argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}))
	tasks := services.NewTaskService(logger, store, events.NewBroadcaster(logger))

	router := gin.New()
	RegisterRoutes(router, New(logger, auth, tasks, pinger, "test", "1.0.0"))
	return &testServer{router: router}
}

func (s *testServer) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/user", gin.H{"username": "alice", "password": "s3cret"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/user/login", gin.H{"username": "alice", "password": "s3cret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp loginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	s.token = resp.Token
	s.userID = resp.User.ID
}

func (s *testServer) createTask(t *testing.T, body gin.H) taskResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/task", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var task taskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	return task
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestTaskRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	for _, route := range []struct{ method, target string }{
		{http.MethodGet, "/api/task"},
		{http.MethodPost, "/api/task"},
		{http.MethodGet, "/api/task/1"},
		{http.MethodPut, "/api/task/1"},
		{http.MethodDelete, "/api/task/1"},
		{http.MethodGet, "/api/task/status-summary"},
	} {
		w := s.do(t, route.method, route.target, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.target)
	}

	s.token = "garbage"
	w := s.do(t, http.MethodGet, "/api/task", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMalformedAuthorizationHeader(t *testing.T) {
	s := newTestServer(t)
	for _, header := range []string{"Basic abc", "Bearer", "Bearer a b"} {
		req := httptest.NewRequest(http.MethodGet, "/api/task", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		assert.Equal(t, errAuthorizationHeader.Error(), errorMessage(t, w))
	}
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/user", gin.H{"username": "Alice", "password": "s3cret"})
	require.Equal(t, http.StatusCreated, w.Code)
	var user userResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, "Alice", user.Username)
	assert.NotContains(t, w.Body.String(), "password")

	w = s.do(t, http.MethodPost, "/api/user", gin.H{"username": "alice", "password": "other"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/user", gin.H{"username": "bob"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorMessage(t, w), "Password must be provided")

	w = s.do(t, http.MethodPost, "/api/user", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/user/login", gin.H{"username": "Alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/user/login", gin.H{"username": "ALICE", "password": "s3cret"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp loginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.True(t, resp.ExpiresAt.After(time.Now()))
}

func TestCreateAndGetTask(t *testing.T) {
	s := newTestServer(t)
	s.login(t)

	w := s.do(t, http.MethodPost, "/api/task", gin.H{
		"title":       "Write report",
		"description": "quarterly numbers",
		"priority":    "High",
		"dueDate":     "2026-11-01T12:00:00Z",
		"status":      "InProgress",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created taskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "/api/task/"+strconv.FormatInt(created.ID, 10), w.Header().Get("Location"))
	assert.Equal(t, s.userID, created.UserID, "user id defaults to the caller")

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Equal(t, "High", raw["priority"])
	assert.Equal(t, "InProgress", raw["status"])
	assert.Equal(t, "2026-11-01T12:00:00Z", raw["dueDate"])

	w = s.do(t, http.MethodGet, w.Header().Get("Location"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got taskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Write report", got.Title)
	assert.Equal(t, "quarterly numbers", *got.Description)
}

func TestCreateTaskRejectsInvalidBody(t *testing.T) {
	s := newTestServer(t)
	s.login(t)

	for name, body := range map[string]any{
		"missing title":    gin.H{"dueDate": "2026-11-01T12:00:00Z"},
		"missing due date": gin.H{"title": "x"},
		"unknown priority": gin.H{"title": "x", "dueDate": "2026-11-01T12:00:00Z", "priority": "Urgent"},
		"numeric status":   gin.H{"title": "x", "dueDate": "2026-11-01T12:00:00Z", "status": 1},
		"blank title":      gin.H{"title": "   ", "dueDate": "2026-11-01T12:00:00Z"},
		"malformed json":   "{",
	} {
		w := s.do(t, http.MethodPost, "/api/task", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}
}

func TestGetTask(t *testing.T) {
	s := newTestServer(t)
	s.login(t)

	w := s.do(t, http.MethodGet, "/api/task/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, services.ErrTaskNotFound.Error(), errorMessage(t, w))

	w = s.do(t, http.MethodGet, "/api/task/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errInvalidTaskID.Error(), errorMessage(t, w))
}

func TestListTasks(t *testing.T) {
	s := newTestServer(t)
	s.login(t)

	for _, title := range []string{"beta", "alpha", "gamma foo"} {
		s.createTask(t, gin.H{"title": title, "dueDate": "2026-11-01T12:00:00Z"})
	}

	w := s.do(t, http.MethodGet, "/api/task?sortBy=title&pageSize=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp listTasksResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)
	require.Len(t, resp.Tasks, 2)
	assert.Equal(t, "alpha", resp.Tasks[0].Title)
	assert.Equal(t, "beta", resp.Tasks[1].Title)

	w = s.do(t, http.MethodGet, "/api/task?search=foo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)

	w = s.do(t, http.MethodGet, "/api/task?page=50", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":3,"tasks":[]}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/task?page=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errInvalidQuery.Error(), errorMessage(t, w))
}

func TestUpdateTask(t *testing.T) {
	s := newTestServer(t)
	s.login(t)
	task := s.createTask(t, gin.H{"title": "draft", "dueDate": "2026-11-01T12:00:00Z"})
	target := "/api/task/" + strconv.FormatInt(task.ID, 10)

	body := gin.H{
		"id":       task.ID + 1,
		"title":    "final",
		"dueDate":  "2026-11-02T12:00:00Z",
		"priority": "Medium",
		"status":   "Completed",
		"userId":   s.userID,
	}
	w := s.do(t, http.MethodPut, target, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, services.ErrTaskIDMismatch.Error(), errorMessage(t, w))

	body["id"] = 999
	w = s.do(t, http.MethodPut, "/api/task/999", body)
	assert.Equal(t, http.StatusNotFound, w.Code)

	body["id"] = task.ID
	w = s.do(t, http.MethodPut, target, body)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	assert.Empty(t, w.Body.String())

	w = s.do(t, http.MethodGet, target, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got taskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "final", got.Title)
	assert.Equal(t, "Completed", got.Status.String())
}

func TestDeleteTask(t *testing.T) {
	s := newTestServer(t)
	s.login(t)
	task := s.createTask(t, gin.H{"title": "temp", "dueDate": "2026-11-01T12:00:00Z"})
	target := "/api/task/" + strconv.FormatInt(task.ID, 10)

	w := s.do(t, http.MethodDelete, target, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodDelete, target, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, target, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusSummary(t *testing.T) {
	s := newTestServer(t)
	s.login(t)

	w := s.do(t, http.MethodGet, "/api/task/status-summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	s.createTask(t, gin.H{"title": "a", "dueDate": "2026-11-01T12:00:00Z"})
	s.createTask(t, gin.H{"title": "b", "dueDate": "2026-11-01T12:00:00Z", "status": "Completed"})
	s.createTask(t, gin.H{"title": "c", "dueDate": "2026-11-01T12:00:00Z", "status": "Completed"})

	w = s.do(t, http.MethodGet, "/api/task/status-summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary []statusCountResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.ElementsMatch(t, []statusCountResponse{
		{Status: 0, Count: 1},
		{Status: 2, Count: 2},
	}, summary)
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/healthcheck", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"available","environment":"test","version":"1.0.0"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	down := newTestServerWithPinger(t, pingerFunc(func(context.Context) error {
		return errors.New("connection refused")
	}))
	w = down.do(t, http.MethodGet, "/api/healthcheck", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"unavailable"`)
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/healthcheck", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestBearerSchemeIgnoresCase(t *testing.T) {
	s := newTestServer(t)
	s.login(t)

	for _, scheme := range []string{"Bearer", "bearer", "BEARER"} {
		req := httptest.NewRequest(http.MethodGet, "/api/task", nil)
		req.Header.Set("Authorization", scheme+" "+s.token)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, scheme)
	}
}

func TestListTasksLargePageSize(t *testing.T) {
	s := newTestServer(t)
	s.login(t)

	for i := 0; i < 250; i++ {
		s.createTask(t, gin.H{"title": fmt.Sprintf("t%03d", i), "dueDate": "2026-11-01T12:00:00Z"})
	}

	w := s.do(t, http.MethodGet, "/api/task?page=2&pageSize=200", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp listTasksResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 250, resp.Total)
	require.Len(t, resp.Tasks, 50)
	for i, task := range resp.Tasks {
		assert.Equal(t, fmt.Sprintf("t%03d", 200+i), task.Title)
	}

	w = s.do(t, http.MethodGet, "/api/task?page=1&pageSize=150", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Tasks, 150)
	assert.Equal(t, "t000", resp.Tasks[0].Title)
	assert.Equal(t, "t149", resp.Tasks[149].Title)
}
