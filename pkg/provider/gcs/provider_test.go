package gcs

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/godrives/pkg/provider"
	"github.com/3leaps/godrives/pkg/restclient"
)

func newTestStore(t *testing.T, handler http.Handler) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := restclient.New(restclient.Config{
		BaseURL:         srv.URL,
		AccessKeyID:     "id",
		SecretAccessKey: "secret",
		SessionToken:    "token",
	}, nil)

	s, err := New(client, Config{Bucket: "data"})
	require.NoError(t, err)
	return s
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{}
	assert.Error(t, cfg.Validate())

	cfg.Bucket = "data"
	assert.NoError(t, cfg.Validate())
}

func TestList_PageTokens(t *testing.T) {
	var prefixes []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/storage/v1/b/data/o", r.URL.Path)
		prefixes = append(prefixes, r.URL.Query().Get("prefix"))

		page := map[string]any{
			"items": []map[string]any{
				{"name": "logs/a.txt", "size": "3", "updated": "2024-02-01T10:00:00Z"},
			},
		}
		if r.URL.Query().Get("pageToken") == "" {
			page["nextPageToken"] = "t2"
		} else {
			page["items"] = []map[string]any{
				{"name": "logs/b.txt", "size": "5", "updated": "2024-02-01T11:00:00Z"},
			}
		}
		_ = json.NewEncoder(w).Encode(page)
	})

	s := newTestStore(t, handler)
	entries, err := provider.Drain(context.Background(), s.List(context.Background(), "logs", 0))
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "logs/a.txt", entries[0].Path)
	assert.Equal(t, int64(3), entries[0].Size)
	assert.Equal(t, "logs/b.txt", entries[1].Path)

	// The listing prefix is directory-style.
	require.NotEmpty(t, prefixes)
	assert.Equal(t, "logs/", prefixes[0])
}

func TestGet_Media(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/storage/v1/b/data/o/notes.txt", r.URL.Path)
		require.Equal(t, "media", r.URL.Query().Get("alt"))
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("hello"))
	})

	s := newTestStore(t, handler)
	body, err := s.Get(context.Background(), "notes.txt")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestGet_BinaryMedia(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0x00, 0xff, 0xfe, 0x01}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "media", r.URL.Query().Get("alt"))
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(payload)
	})

	s := newTestStore(t, handler)
	body, err := s.Get(context.Background(), "data/fig.png")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestGet_NotFound(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"no such object"}`, http.StatusNotFound)
	})

	s := newTestStore(t, handler)
	_, err := s.Get(context.Background(), "missing.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrNotFound)
}

func TestPut_CreateSendsGenerationGuard(t *testing.T) {
	var gotQuery map[string][]string
	var gotBody []byte
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/upload/storage/v1/b/data/o", r.URL.Path)
		gotQuery = r.URL.Query()
		gotBody, _ = io.ReadAll(r.Body)
		_ = json.NewEncoder(w).Encode(map[string]any{"name": "new.bin"})
	})

	s := newTestStore(t, handler)
	err := s.Put(context.Background(), "new.bin", strings.NewReader("\x00\x01payload"), provider.PutCreate)
	require.NoError(t, err)

	assert.Equal(t, []string{"media"}, gotQuery["uploadType"])
	assert.Equal(t, []string{"new.bin"}, gotQuery["name"])
	assert.Equal(t, []string{"0"}, gotQuery["ifGenerationMatch"])
	assert.Equal(t, []byte("\x00\x01payload"), gotBody)
}

func TestPut_CreateConflict(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"conditionNotMet"}`, http.StatusPreconditionFailed)
	})

	s := newTestStore(t, handler)
	err := s.Put(context.Background(), "existing.bin", strings.NewReader("x"), provider.PutCreate)
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrAlreadyExists)
}

func TestHead(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/storage/v1/b/data/o/report.pdf", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name":        "report.pdf",
			"size":        "2048",
			"updated":     "2024-03-05T08:30:00Z",
			"etag":        "CJf=",
			"contentType": "application/pdf",
		})
	})

	s := newTestStore(t, handler)
	meta, err := s.Head(context.Background(), "report.pdf")
	require.NoError(t, err)

	assert.Equal(t, "report.pdf", meta.Path)
	assert.Equal(t, int64(2048), meta.Size)
	assert.Equal(t, "application/pdf", meta.ContentType)
	assert.Equal(t, 2024, meta.LastModified.Year())
}

func TestCopy_URL(t *testing.T) {
	var gotPath string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]any{"done": true})
	})

	s := newTestStore(t, handler)
	require.NoError(t, s.Copy(context.Background(), "a.txt", "b.txt"))
	assert.Equal(t, "/storage/v1/b/data/o/a.txt/copyTo/b/data/o/b.txt", gotPath)
}

func TestAccount_ListContainers(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/storage/v1/b", r.URL.Path)
		require.Equal(t, "proj-1", r.URL.Query().Get("project"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"name": "data", "location": "EU", "timeCreated": "2023-06-01T00:00:00Z"},
				{"name": "backup", "location": "US-EAST1"},
			},
		})
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := restclient.New(restclient.Config{
		BaseURL:         srv.URL,
		AccessKeyID:     "id",
		SecretAccessKey: "secret",
		SessionToken:    "token",
	}, nil)

	account := NewAccount(client, "proj-1")
	containers, err := account.ListContainers(context.Background())
	require.NoError(t, err)

	require.Len(t, containers, 2)
	assert.Equal(t, "data", containers[0].Name)
	assert.Equal(t, "eu", containers[0].Region)
}
