package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"notekeeper/internal/backup"
	"notekeeper/internal/markdown"
	"notekeeper/internal/model"
	"notekeeper/internal/repository/memory"
	"notekeeper/internal/service"
	"notekeeper/internal/storage"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	svc := service.New(memory.NewRepository(), service.NewTokens("test", time.Hour), nil, zap.NewNop())
	return NewServer(NewHandler(svc, markdown.New(), time.UTC), ServerOptions{})
}

func do(t *testing.T, e *echo.Echo, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func register(t *testing.T, e *echo.Echo, email string) string {
	t.Helper()
	rec := do(t, e, http.MethodPost, "/api/auth/register", "",
		`{"name":"Ann","email":"`+email+`","password":"Secret123"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res model.AuthResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res.Token
}

func TestAuthRequired(t *testing.T) {
	e := newTestServer(t)

	rec := do(t, e, http.MethodGet, "/api/notes", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, e, http.MethodGet, "/api/notes", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, e, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNoteLifecycle(t *testing.T) {
	e := newTestServer(t)
	token := register(t, e, "ann@example.com")

	rec := do(t, e, http.MethodPost, "/api/notes", token, `{"title":"Root","content":"# hi"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var root model.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &root))

	rec = do(t, e, http.MethodPost, "/api/notes", token, `{"title":"Child","parent_id":"`+root.ID+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, e, http.MethodPost, "/api/notes", token, `{"title":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"title"`)

	rec = do(t, e, http.MethodPut, "/api/notes/"+root.ID, token, `{"deleted":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var trash []model.Note
	rec = do(t, e, http.MethodGet, "/api/notes?trash=true", token, "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trash))
	require.Len(t, trash, 1)
	assert.Equal(t, root.ID, trash[0].ID)

	rec = do(t, e, http.MethodDelete, "/api/notes/"+root.ID, token, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, e, http.MethodDelete, "/api/notes/"+root.ID, token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotesAreOwnerScoped(t *testing.T) {
	e := newTestServer(t)
	ann := register(t, e, "ann@example.com")
	bob := register(t, e, "bob@example.com")

	rec := do(t, e, http.MethodPost, "/api/notes", ann, `{"title":"Private"}`)
	var n model.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &n))

	rec = do(t, e, http.MethodGet, "/api/notes/"+n.ID, bob, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, e, http.MethodGet, "/api/notes/search?q=priv", ann, "")
	assert.Contains(t, rec.Body.String(), "Private")
	rec = do(t, e, http.MethodGet, "/api/notes/search?q=priv", bob, "")
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestTasksAndEvents(t *testing.T) {
	e := newTestServer(t)
	token := register(t, e, "ann@example.com")

	rec := do(t, e, http.MethodPost, "/api/tasks", token, `{"text":"water plants","date":"2024-03-10"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, e, http.MethodGet, "/api/tasks?date=2024-03-10", token, "")
	assert.Contains(t, rec.Body.String(), "water plants")

	rec = do(t, e, http.MethodPost, "/api/events", token,
		`{"title":"Dentist","start_date_time":"2024-03-10T09:00:00Z","end_date_time":"2024-03-10T10:00:00Z","tag":"HIGH"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, e, http.MethodGet, "/api/events?date=2024-03-11", token, "")
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	rec = do(t, e, http.MethodGet, "/api/events?date=2024-03-10", token, "")
	assert.Contains(t, rec.Body.String(), `"tag":"HIGH"`)

	rec = do(t, e, http.MethodGet, "/api/events?date=tomorrow", token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRenderMarkdown(t *testing.T) {
	e := newTestServer(t)
	token := register(t, e, "ann@example.com")

	rec := do(t, e, http.MethodPost, "/api/markdown", token, `{"content":"**bold**"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Contains(t, out["html"], "<strong>bold</strong>")
}

func TestBackupRoutes(t *testing.T) {
	svc := service.New(memory.NewRepository(), service.NewTokens("test", time.Hour), nil, zap.NewNop())
	h := NewHandler(svc, markdown.New(), time.UTC)

	data := storage.NewMemoryFileSystem()
	require.NoError(t, data.WriteFile("notekeeper.db", []byte("db")))
	h.SetBackups(backup.NewManager(data, []string{"notekeeper.db"}, nil), []backup.Target{backup.NewDir(afero.NewMemMapFs(), "remote")})
	e := NewServer(h, ServerOptions{})
	token := register(t, e, "ann@example.com")

	rec := do(t, e, http.MethodPost, "/api/backup/dir", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, e, http.MethodPost, "/api/backup/s3", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, e, http.MethodPost, "/api/backup/dir", token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = do(t, e, http.MethodGet, "/api/backup/list/dir", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []backup.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, created["file"], list[0].Name)

	rec = do(t, e, http.MethodPost, "/api/backup/verify/dir", token, `{"filename":"`+created["file"]+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "notekeeper.db")

	rec = do(t, e, http.MethodPost, "/api/backup/verify/dir", token, `{"filename":"../x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
