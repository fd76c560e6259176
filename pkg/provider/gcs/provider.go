// Package gcs implements the store interface for Google Cloud Storage and
// compatible stores, via the JSON storage API.
//
// Unlike the S3 store, which talks through the AWS SDK, this store is
// REST-backed and routes every call through the paginated provider client.
package gcs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/3leaps/godrives/pkg/provider"
	"github.com/3leaps/godrives/pkg/restclient"
)

// DefaultPageSize is the default maxResults for object listings.
const DefaultPageSize = 1000

// Config configures a GCS store bound to one drive (bucket).
type Config struct {
	// Bucket is the bucket backing the drive (required).
	Bucket string

	// Project is the project id, required only for container discovery.
	Project string
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("gcs config: bucket name is required")
	}
	return nil
}

// Store implements provider.Store over the GCS JSON API.
type Store struct {
	client *restclient.Client
	bucket string
}

var _ provider.Store = (*Store)(nil)

// New creates a GCS store. The rest client carries the credentials and the
// base API URL.
func New(client *restclient.Client, cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// object is the JSON API representation of one stored object.
type object struct {
	Name        string `json:"name"`
	Size        string `json:"size"`
	Updated     string `json:"updated"`
	ETag        string `json:"etag"`
	ContentType string `json:"contentType"`
}

func (o object) entry() provider.Entry {
	size, _ := strconv.ParseInt(o.Size, 10, 64)
	updated, _ := time.Parse(time.RFC3339, o.Updated)
	return provider.Entry{Path: o.Name, Size: size, LastModified: updated}
}

// List returns a lazy listing driven by nextPageToken, one API page per Next
// call.
func (s *Store) List(ctx context.Context, prefix string, pageSize int) provider.Listing {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	dirPrefix := provider.DirPrefix(prefix)

	var token string
	done := false

	return provider.ListingFunc(func(ctx context.Context) ([]provider.Entry, error) {
		if done {
			return nil, io.EOF
		}

		params := url.Values{}
		params.Set("maxResults", strconv.Itoa(pageSize))
		if dirPrefix != "" {
			params.Set("prefix", dirPrefix)
		}
		if token != "" {
			params.Set("pageToken", token)
		}

		result, err := s.client.Call(ctx, restclient.Request{
			URL:        s.objectsURL(),
			Params:     params,
			ExpectJSON: true,
		})
		if err != nil {
			return nil, s.wrapError("List", prefix, err)
		}

		var page struct {
			Items         []object `json:"items"`
			NextPageToken string   `json:"nextPageToken"`
		}
		if err := redecode(result, &page); err != nil {
			return nil, s.wrapError("List", prefix, err)
		}

		if page.NextPageToken != "" {
			token = page.NextPageToken
		} else {
			done = true
		}

		if len(page.Items) == 0 && done {
			return nil, io.EOF
		}
		entries := make([]provider.Entry, 0, len(page.Items))
		for _, item := range page.Items {
			entries = append(entries, item.entry())
		}
		return entries, nil
	})
}

// Get downloads the object media as a raw byte stream.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	body, err := s.client.Download(ctx, restclient.Request{
		URL:    s.objectURL(key),
		Params: url.Values{"alt": []string{"media"}},
	})
	if err != nil {
		return nil, s.wrapError("Get", key, err)
	}
	return body, nil
}

// Put uploads an object through the media upload endpoint. With
// provider.PutCreate the upload is conditional on generation 0, which only
// matches when the object does not exist.
func (s *Store) Put(ctx context.Context, key string, body io.Reader, mode provider.PutMode) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return s.wrapError("Put", key, err)
	}

	params := url.Values{}
	params.Set("uploadType", "media")
	params.Set("name", key)
	if mode == provider.PutCreate {
		params.Set("ifGenerationMatch", "0")
	}

	_, err = s.client.Call(ctx, restclient.Request{
		URL:        s.uploadURL(),
		Method:     http.MethodPost,
		RawBody:    data,
		Params:     params,
		ExpectJSON: true,
	})
	if err != nil {
		return s.wrapError("Put", key, err)
	}
	return nil
}

// Head returns object metadata.
func (s *Store) Head(ctx context.Context, key string) (*provider.ObjectMeta, error) {
	result, err := s.client.Call(ctx, restclient.Request{
		URL:        s.objectURL(key),
		ExpectJSON: true,
	})
	if err != nil {
		return nil, s.wrapError("Head", key, err)
	}

	var obj object
	if err := redecode(result, &obj); err != nil {
		return nil, s.wrapError("Head", key, err)
	}
	entry := obj.entry()
	return &provider.ObjectMeta{
		Path:         key,
		Size:         entry.Size,
		LastModified: entry.LastModified,
		ETag:         obj.ETag,
		ContentType:  obj.ContentType,
	}, nil
}

// Delete removes an object.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.Call(ctx, restclient.Request{
		URL:    s.objectURL(key),
		Method: http.MethodDelete,
	})
	if err != nil {
		return s.wrapError("Delete", key, err)
	}
	return nil
}

// Copy duplicates src to dst server-side.
func (s *Store) Copy(ctx context.Context, src, dst string) error {
	copyURL := s.objectURL(src) + "/copyTo/b/" + url.PathEscape(s.bucket) + "/o/" + url.PathEscape(dst)
	_, err := s.client.Call(ctx, restclient.Request{
		URL:        copyURL,
		Method:     http.MethodPost,
		ExpectJSON: true,
	})
	if err != nil {
		return s.wrapError("Copy", src, err)
	}
	return nil
}

// Rename moves src to dst as a copy followed by a delete.
func (s *Store) Rename(ctx context.Context, src, dst string) error {
	if err := s.Copy(ctx, src, dst); err != nil {
		return err
	}
	return s.Delete(ctx, src)
}

// Close releases any resources held by the store.
func (s *Store) Close() error {
	return nil
}

func (s *Store) objectsURL() string {
	return "storage/v1/b/" + url.PathEscape(s.bucket) + "/o"
}

func (s *Store) objectURL(key string) string {
	return s.objectsURL() + "/" + url.PathEscape(key)
}

func (s *Store) uploadURL() string {
	return "upload/storage/v1/b/" + url.PathEscape(s.bucket) + "/o"
}

// wrapError maps rest-client failures onto the store sentinel errors.
func (s *Store) wrapError(op, key string, err error) error {
	wrapped := &provider.StoreError{
		Op:    op,
		Kind:  provider.KindGCS,
		Drive: s.bucket,
		Key:   key,
		Err:   err,
	}

	var provErr *restclient.ProviderError
	if errors.As(err, &provErr) {
		switch provErr.Status {
		case http.StatusNotFound:
			wrapped.Err = provider.ErrNotFound
		case http.StatusForbidden:
			wrapped.Err = provider.ErrAccessDenied
		case http.StatusUnauthorized:
			wrapped.Err = provider.ErrInvalidCredentials
		case http.StatusPreconditionFailed:
			wrapped.Err = provider.ErrAlreadyExists
		}
	}
	return wrapped
}

// redecode converts a dynamically decoded JSON value into a typed struct.
func redecode(value any, target any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}

// Account performs account-wide GCS operations: bucket discovery.
type Account struct {
	client  *restclient.Client
	project string
}

var _ provider.ContainerLister = (*Account)(nil)

// NewAccount creates an account-level client for container discovery.
func NewAccount(client *restclient.Client, project string) *Account {
	return &Account{client: client, project: project}
}

// ListContainers returns every bucket in the configured project.
func (a *Account) ListContainers(ctx context.Context) ([]provider.Container, error) {
	params := url.Values{}
	if a.project != "" {
		params.Set("project", a.project)
	}

	result, err := a.client.Call(ctx, restclient.Request{
		URL:        "storage/v1/b",
		Params:     params,
		ExpectJSON: true,
		Paginate:   true,
	})
	if err != nil {
		return nil, &provider.StoreError{Op: "ListContainers", Kind: provider.KindGCS, Err: err}
	}

	// Pagination may deliver one page object or a sequence of them.
	pages, ok := result.([]any)
	if !ok {
		pages = []any{result}
	}

	var containers []provider.Container
	for _, pageValue := range pages {
		var page struct {
			Items []struct {
				Name        string `json:"name"`
				Location    string `json:"location"`
				TimeCreated string `json:"timeCreated"`
			} `json:"items"`
		}
		if err := redecode(pageValue, &page); err != nil {
			return nil, &provider.StoreError{Op: "ListContainers", Kind: provider.KindGCS, Err: err}
		}
		for _, b := range page.Items {
			created, _ := time.Parse(time.RFC3339, b.TimeCreated)
			containers = append(containers, provider.Container{
				Name:         b.Name,
				Region:       strings.ToLower(b.Location),
				CreationDate: created,
			})
		}
	}
	return containers, nil
}
