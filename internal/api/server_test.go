package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"collabrio-backend/internal/api"
	"collabrio-backend/internal/api/middleware"
	"collabrio-backend/internal/api/routes"
	v1 "collabrio-backend/internal/api/routes/v1"
	"collabrio-backend/internal/kanban"
	"collabrio-backend/internal/libraries"
	"collabrio-backend/internal/models"
	"collabrio-backend/internal/repo"
	"collabrio-backend/internal/services"
	"collabrio-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "api-test-secret"

type testApp struct {
	app *fiber.App
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	boards := repo.NewBoardRepository(db)
	tasks := repo.NewTaskRepository(db)
	users := repo.NewUserRepository(db)

	ctx := context.Background()
	for _, u := range []models.User{
		{ID: "admin", FirstName: "Ada", Surname: "Lovelace", Email: "ada@example.com"},
		{ID: "bob", FirstName: "Bob", Surname: "Builder", Email: "bob@example.com"},
		{ID: "eve", FirstName: "Eve", Surname: "Outsider", Email: "eve@example.com"},
	} {
		u := u
		require.NoError(t, users.UpsertUser(ctx, &u))
	}

	blobs, err := libraries.NewFileBlobStore(t.TempDir(), "http://localhost:3000/files")
	require.NoError(t, err)

	hubCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	hub := libraries.NewHub()
	go hub.Run(hubCtx)

	bus := kanban.NewBus()
	bus.Subscribe(services.NewAggregator(boards, tasks).Handle)
	bus.Subscribe(services.NewPushNotifier(boards, hub).Handle)

	notifications := services.NewNotificationService(libraries.LogMailer{}, users, services.NotificationConfig{
		AppBaseURL: "http://localhost:3000",
	})
	documents := services.NewDocumentService(boards, users, blobs, bus, false)

	app := api.NewServer(4 * 1024 * 1024)
	routes.Register(app, v1.Deps{
		Auth:      middleware.NewAuth(secret, "", ""),
		Users:     users,
		Boards:    services.NewBoardService(boards, tasks, users, documents, notifications, bus, false),
		Tasks:     services.NewTaskService(boards, tasks, bus),
		Documents: documents,
		Reports:   services.NewReportService(boards, tasks, users),
		Hub:       hub,
		FilesDir:  blobs.Dir(),
	})
	return &testApp{app: app}
}

func token(t *testing.T, sub string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func (a *testApp) do(t *testing.T, method, path, user string, body interface{}) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if user != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token(t, user))
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (a *testApp) createBoard(t *testing.T) string {
	t.Helper()
	resp := a.do(t, http.MethodPost, "/api/v1/boards", "admin", map[string]interface{}{
		"boardName":   "Launch",
		"description": "Ship it",
		"priority":    "High",
		"deadline":    "2030-01-15T00:00:00Z",
		"members":     []string{"bob"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out struct {
		Board models.Board `json:"board"`
	}
	decode(t, resp, &out)
	return out.Board.ID.String()
}

func TestHealthIsPublic(t *testing.T) {
	a := newTestApp(t)
	resp := a.do(t, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMissingTokenIsRejected(t *testing.T) {
	a := newTestApp(t)
	resp := a.do(t, http.MethodGet, "/api/v1/boards", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body errorBody
	decode(t, resp, &body)
	assert.Equal(t, "not_authenticated", body.Kind)
}

func TestBoardTaskFlow(t *testing.T) {
	a := newTestApp(t)
	boardID := a.createBoard(t)

	resp := a.do(t, http.MethodPost, "/api/v1/boards/"+boardID+"/tasks", "bob", map[string]string{"title": "Write docs"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Task models.Task `json:"task"`
	}
	decode(t, resp, &created)
	assert.Equal(t, models.StatusTodo, created.Task.Status)

	resp = a.do(t, http.MethodPatch, "/api/v1/boards/"+boardID+"/tasks/"+created.Task.ID.String()+"/move", "bob",
		map[string]string{"from": "todo", "to": "done"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var moved services.MoveResult
	decode(t, resp, &moved)
	assert.True(t, moved.Moved)
	assert.Equal(t, 100, moved.CompletionPercentage)
	assert.Equal(t, models.BoardCompleted, moved.Status)

	resp = a.do(t, http.MethodGet, "/api/v1/boards/"+boardID, "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got struct {
		Board models.Board `json:"board"`
	}
	decode(t, resp, &got)
	assert.Equal(t, 100, got.Board.CompletionPercentage)
}

func TestErrorEnvelope(t *testing.T) {
	a := newTestApp(t)
	boardID := a.createBoard(t)

	cases := []struct {
		name   string
		method string
		path   string
		user   string
		body   interface{}
		status int
		kind   string
	}{
		{"outsider", http.MethodGet, "/api/v1/boards/" + boardID, "eve", nil, http.StatusForbidden, "not_authorized"},
		{"bad id", http.MethodGet, "/api/v1/boards/nope", "admin", nil, http.StatusBadRequest, "validation"},
		{"member edits deadline", http.MethodPut, "/api/v1/boards/" + boardID + "/deadline", "bob",
			map[string]interface{}{"deadline": nil}, http.StatusForbidden, "not_authorized"},
		{"bad column", http.MethodPost, "/api/v1/boards/" + boardID + "/tasks", "admin",
			map[string]string{"title": "x", "status": "later"}, http.StatusBadRequest, "invalid_status"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := a.do(t, tc.method, tc.path, tc.user, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			var body errorBody
			decode(t, resp, &body)
			assert.Equal(t, tc.kind, body.Kind)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestReportDownloads(t *testing.T) {
	a := newTestApp(t)
	boardID := a.createBoard(t)

	resp := a.do(t, http.MethodGet, "/api/v1/boards/"+boardID+"/report.pdf", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), `filename="Launch-report.pdf"`)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))

	today := time.Now().UTC().Format(time.DateOnly)
	resp = a.do(t, http.MethodGet, "/api/v1/users/bob/report.xlsx?from="+today+"&to="+today, "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "spreadsheetml")

	resp = a.do(t, http.MethodGet, "/api/v1/users/bob/report.pdf?from=yesterday&to="+today, "admin", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
