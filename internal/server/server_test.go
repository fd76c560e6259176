package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/3leaps/godrives/internal/errors"
	"github.com/3leaps/godrives/internal/server/handlers"
	"github.com/3leaps/godrives/pkg/gateway"
	"github.com/3leaps/godrives/pkg/provider"
	"github.com/3leaps/godrives/pkg/registry"
)

func newAPIServer(t *testing.T) *Server {
	t.Helper()
	root := t.TempDir()
	reg := registry.New(registry.NewFactory(registry.FactoryConfig{FileRoot: root}, nil), nil)
	gw := gateway.New(reg, provider.KindFile, nil)
	return New("127.0.0.1", 0, WithGateway(gw))
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServerUsesStandardErrorHandlers(t *testing.T) {
	srv := New("127.0.0.1", 0)

	rec := doJSON(t, srv, http.MethodGet, "/does-not-exist", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestServer_Port(t *testing.T) {
	tests := []struct {
		name string
		port int
	}{
		{"default port", 8080},
		{"custom port", 9000},
		{"zero port", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New("127.0.0.1", tt.port)
			assert.Equal(t, tt.port, srv.Port())
		})
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	srv := New("127.0.0.1", 0)

	rec := doJSON(t, srv, http.MethodPost, "/version", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "METHOD_NOT_ALLOWED", body.Error.Code)
}

func TestServer_RoutesRegistered(t *testing.T) {
	handlers.InitHealthManager("test")
	srv := New("127.0.0.1", 0)

	endpoints := []struct {
		method string
		path   string
		want   int
	}{
		{"GET", "/health", http.StatusOK},
		{"GET", "/health/live", http.StatusOK},
		{"GET", "/health/ready", http.StatusOK},
		{"GET", "/health/startup", http.StatusOK},
		{"GET", "/version", http.StatusOK},
	}

	for _, ep := range endpoints {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			rec := doJSON(t, srv, ep.method, ep.path, nil)
			assert.Equal(t, ep.want, rec.Code)
		})
	}
}

func TestAPI_MountLifecycle(t *testing.T) {
	srv := newAPIServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/drives/workspace/mount", mountBody())
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Second mount conflicts.
	rec = doJSON(t, srv, http.MethodPost, "/api/drives/workspace/mount", mountBody())
	require.Equal(t, http.StatusConflict, rec.Code)
	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ALREADY_MOUNTED", body.Error.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/drives/workspace/unmount", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Unmount again fails.
	rec = doJSON(t, srv, http.MethodPost, "/api/drives/workspace/unmount", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "NOT_MOUNTED", body.Error.Code)
}

func TestAPI_ContentLifecycle(t *testing.T) {
	srv := newAPIServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/drives/workspace/mount", mountBody())
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Save a text file.
	rec = doJSON(t, srv, http.MethodPut, "/api/drives/workspace/contents/notes/todo.md", map[string]any{
		"content":        "# todo\n- ship\n",
		"options_format": "text",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var saved struct {
		Data gateway.File `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&saved))
	assert.Equal(t, "notes/todo.md", saved.Data.Path)
	assert.Equal(t, int64(len("# todo\n- ship\n")), saved.Data.Size)

	// Read it back.
	rec = doJSON(t, srv, http.MethodGet, "/api/drives/workspace/contents/notes/todo.md", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched struct {
		Data gateway.File `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&fetched))
	assert.Equal(t, "# todo\n- ship\n", fetched.Data.Content)

	// The parent resolves to a directory listing.
	rec = doJSON(t, srv, http.MethodGet, "/api/drives/workspace/contents/notes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Data []gateway.Entry `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&listed))
	require.Len(t, listed.Data, 1)
	assert.Equal(t, "notes/todo.md", listed.Data[0].Path)

	// Existence check.
	req := httptest.NewRequest(http.MethodHead, "/api/drives/workspace/contents/notes/todo.md", nil)
	headRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(headRec, req)
	assert.Equal(t, http.StatusOK, headRec.Code)

	// Rename.
	rec = doJSON(t, srv, http.MethodPatch, "/api/drives/workspace/contents/notes/todo.md", map[string]any{
		"new_path": "notes/done.md",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Copy.
	rec = doJSON(t, srv, http.MethodPost, "/api/drives/workspace/copy", map[string]any{
		"path":    "notes/done.md",
		"to_path": "archive/done.md",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Delete both.
	rec = doJSON(t, srv, http.MethodDelete, "/api/drives/workspace/contents/notes/done.md", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, srv, http.MethodDelete, "/api/drives/workspace/contents/archive/done.md", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Deleting again reports not found.
	rec = doJSON(t, srv, http.MethodDelete, "/api/drives/workspace/contents/notes/done.md", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_ContentAgainstUnmountedDrive(t *testing.T) {
	srv := newAPIServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/drives/ghost/contents/a.txt", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "NOT_MOUNTED", body.Error.Code)
}

func TestAPI_ListDrivesUnsupported(t *testing.T) {
	// No container lister is wired, so discovery is unsupported.
	srv := newAPIServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/drives", nil)
	require.Equal(t, http.StatusNotImplemented, rec.Code)

	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "UNSUPPORTED_PROVIDER", body.Error.Code)
}

func mountBody() map[string]any {
	return map[string]any{"provider": "file"}
}
