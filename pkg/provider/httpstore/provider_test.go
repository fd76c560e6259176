package httpstore

import (
	"context"
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

	s, err := New(client, srv.URL)
	require.NoError(t, err)
	return s
}

func TestNew_RejectsNonHTTPBase(t *testing.T) {
	client := restclient.New(restclient.Config{
		AccessKeyID:     "id",
		SecretAccessKey: "secret",
		SessionToken:    "token",
	}, nil)

	_, err := New(client, "ftp://example.com")
	assert.Error(t, err)
}

func TestGet(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/data/report.csv", r.URL.Path)
		_, _ = w.Write([]byte("a,b\n1,2\n"))
	})

	s := newTestStore(t, handler)
	body, err := s.Get(context.Background(), "data/report.csv")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))
}

func TestGet_Binary(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0x00, 0xff, 0xfe, 0x01}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(payload)
	})

	s := newTestStore(t, handler)
	body, err := s.Get(context.Background(), "images/fig.png")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore(t, http.NotFoundHandler())

	_, err := s.Get(context.Background(), "missing.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrNotFound)
}

func TestHead(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodHead, r.Method)
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Length", "8")
		w.Header().Set("Last-Modified", "Mon, 05 Feb 2024 10:30:00 GMT")
	})

	s := newTestStore(t, handler)
	meta, err := s.Head(context.Background(), "data/report.csv")
	require.NoError(t, err)

	assert.Equal(t, "data/report.csv", meta.Path)
	assert.Equal(t, int64(8), meta.Size)
	assert.Equal(t, "text/csv", meta.ContentType)
	assert.Equal(t, 2024, meta.LastModified.Year())
}

func TestHead_NotFound(t *testing.T) {
	s := newTestStore(t, http.NotFoundHandler())

	_, err := s.Head(context.Background(), "missing.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrNotFound)
}

func TestList_AlwaysEmpty(t *testing.T) {
	s := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("listing must not hit the backend")
	}))

	entries, err := provider.Drain(context.Background(), s.List(context.Background(), "any/prefix", 0))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWrites_ReadOnly(t *testing.T) {
	s := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("write operations must not hit the backend")
	}))
	ctx := context.Background()

	assert.ErrorIs(t, s.Put(ctx, "k", strings.NewReader("x"), provider.PutOverwrite), provider.ErrReadOnly)
	assert.ErrorIs(t, s.Delete(ctx, "k"), provider.ErrReadOnly)
	assert.ErrorIs(t, s.Copy(ctx, "a", "b"), provider.ErrReadOnly)
	assert.ErrorIs(t, s.Rename(ctx, "a", "b"), provider.ErrReadOnly)
}
