package admin

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/kolwatch/internal/models"
	"github.com/songzhibin97/kolwatch/internal/registry/file"
)

func setupServer(t *testing.T) (*Server, *file.FileRegistry) {
	reg, err := file.NewFileRegistry(filepath.Join(t.TempDir(), "kols.json"))
	require.NoError(t, err)
	return NewServer(reg, slog.New(slog.NewTextHandler(io.Discard, nil))), reg
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	s, _ := setupServer(t)
	rec := do(s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success": true, "data": {"status": "ok"}}`, rec.Body.String())
}

func TestServer_Metrics(t *testing.T) {
	s, _ := setupServer(t)
	rec := do(s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestServer_CreateListDelete(t *testing.T) {
	s, reg := setupServer(t)

	rec := do(s, http.MethodPost, "/kols", `{"handle_name": "@alice"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Success bool                  `json:"success"`
		Data    models.TrackedAccount `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, created.Success)
	assert.Equal(t, "alice", created.Data.Handle)
	assert.NotEmpty(t, created.Data.ID)

	rec = do(s, http.MethodPost, "/kols", `{"handle_name": "bob, carol,,"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(s, http.MethodGet, "/kols", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Data []models.TrackedAccount `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed.Data, 3)

	rec = do(s, http.MethodDelete, "/kols/"+created.Data.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(s, http.MethodDelete, "/kols/"+created.Data.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	accounts, err := reg.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}

func TestServer_CreateValidation(t *testing.T) {
	s, _ := setupServer(t)

	rec := do(s, http.MethodPost, "/kols", `{"handle_name": "  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(s, http.MethodPost, "/kols", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
