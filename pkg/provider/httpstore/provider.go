// Package httpstore implements a read-only store over a plain HTTP object
// source. Keys map to URL paths under the drive's base URL.
//
// The backend has no listing protocol and no write support: Get and Head
// work, everything else fails with the appropriate sentinel.
package httpstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/3leaps/godrives/pkg/provider"
	"github.com/3leaps/godrives/pkg/restclient"
)

// Store implements provider.Store for HTTP-readable sources.
type Store struct {
	client  *restclient.Client
	baseURL string
}

var _ provider.Store = (*Store)(nil)

// New creates an HTTP store rooted at baseURL. The drive name is its own
// base URL for this backend.
func New(client *restclient.Client, baseURL string) (*Store, error) {
	if _, err := url.Parse(baseURL); err != nil || !strings.HasPrefix(baseURL, "http") {
		return nil, &provider.StoreError{
			Op:    "New",
			Kind:  provider.KindHTTP,
			Drive: baseURL,
			Err:   fmt.Errorf("base URL must be absolute http(s): %q", baseURL),
		}
	}
	return &Store{client: client, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// List always yields an empty listing: plain HTTP sources expose no listing
// protocol, so every path resolves through the gateway's file fallback.
func (s *Store) List(ctx context.Context, prefix string, pageSize int) provider.Listing {
	_, _ = prefix, pageSize
	return provider.NewSliceListing(nil, 0)
}

// Get fetches the object at key as a raw byte stream.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	body, err := s.client.Download(ctx, restclient.Request{URL: s.objectURL(key)})
	if err != nil {
		return nil, s.wrapError("Get", key, err)
	}
	return body, nil
}

// Head issues a HEAD request through the configured client, so the call
// shares its timeout and rate limit.
func (s *Store) Head(ctx context.Context, key string) (*provider.ObjectMeta, error) {
	res, err := s.client.Head(ctx, restclient.Request{URL: s.objectURL(key)})
	if err != nil {
		return nil, s.wrapError("Head", key, err)
	}

	meta := &provider.ObjectMeta{
		Path:        key,
		Size:        res.ContentLength,
		ContentType: res.Header.Get("Content-Type"),
	}
	if lm := res.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			meta.LastModified = t
		}
	}
	return meta, nil
}

// Put is unsupported; the backend is read-only.
func (s *Store) Put(ctx context.Context, key string, body io.Reader, mode provider.PutMode) error {
	return s.wrapError("Put", key, provider.ErrReadOnly)
}

// Delete is unsupported; the backend is read-only.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.wrapError("Delete", key, provider.ErrReadOnly)
}

// Copy is unsupported; the backend is read-only.
func (s *Store) Copy(ctx context.Context, src, dst string) error {
	return s.wrapError("Copy", src, provider.ErrReadOnly)
}

// Rename is unsupported; the backend is read-only.
func (s *Store) Rename(ctx context.Context, src, dst string) error {
	return s.wrapError("Rename", src, provider.ErrReadOnly)
}

// Close releases any resources held by the store.
func (s *Store) Close() error {
	return nil
}

func (s *Store) objectURL(key string) string {
	return s.baseURL + "/" + strings.TrimPrefix(key, "/")
}

func (s *Store) wrapError(op, key string, err error) error {
	wrapped := &provider.StoreError{
		Op:    op,
		Kind:  provider.KindHTTP,
		Drive: s.baseURL,
		Key:   key,
		Err:   err,
	}

	var provErr *restclient.ProviderError
	if errors.As(err, &provErr) && provErr.Status == http.StatusNotFound {
		wrapped.Err = provider.ErrNotFound
	}
	return wrapped
}
