// Package file implements the store interface over a local filesystem
// directory. Keys are slash-separated paths under the base directory.
//
// The store exists for local workflows and hermetic tests; it emulates the
// flat key space of the cloud backends, including their directory-style
// listing prefixes.
package file

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/3leaps/godrives/pkg/provider"
)

// Store implements provider.Store for local filesystem paths.
type Store struct {
	baseDir string
}

var _ provider.Store = (*Store)(nil)

// Config configures a file store.
type Config struct {
	// BaseDir is the directory backing the drive (required).
	BaseDir string
}

// Validate checks that required configuration is present.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseDir) == "" {
		return fmt.Errorf("file config: base dir is required")
	}
	return nil
}

// New creates a file store rooted at cfg.BaseDir.
func New(cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Store{baseDir: filepath.Clean(cfg.BaseDir)}, nil
}

// List returns a lazy listing of keys with the given string prefix.
func (s *Store) List(ctx context.Context, prefix string, pageSize int) provider.Listing {
	keys, err := s.collectKeys()
	if err != nil {
		return provider.NewErrListing(s.wrapError("List", prefix, err))
	}
	sort.Strings(keys)
	dirPrefix := provider.DirPrefix(prefix)

	var entries []provider.Entry
	for _, k := range keys {
		if dirPrefix != "" && !strings.HasPrefix(k, dirPrefix) {
			continue
		}
		st, err := os.Stat(s.fullPathUnchecked(k))
		if err != nil || st.IsDir() {
			continue
		}
		entries = append(entries, provider.Entry{Path: k, Size: st.Size(), LastModified: st.ModTime()})
	}
	return provider.NewSliceListing(entries, pageSize)
}

// Get opens the object content for reading.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	full, err := s.fullPath(key)
	if err != nil {
		return nil, s.wrapError("Get", key, err)
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, s.wrapError("Get", key, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, s.wrapError("Get", key, err)
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, s.wrapError("Get", key, provider.ErrNotFound)
	}
	return f, nil
}

// Put writes an object atomically via a temp file and rename.
func (s *Store) Put(ctx context.Context, key string, body io.Reader, mode provider.PutMode) error {
	full, err := s.fullPath(key)
	if err != nil {
		return s.wrapError("Put", key, err)
	}
	if mode == provider.PutCreate {
		if _, err := os.Stat(full); err == nil {
			return s.wrapError("Put", key, provider.ErrAlreadyExists)
		}
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return s.wrapError("Put", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), "godrives-put-*")
	if err != nil {
		return s.wrapError("Put", key, err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := io.Copy(tmp, body); err != nil {
		return s.wrapError("Put", key, err)
	}
	if err := tmp.Close(); err != nil {
		return s.wrapError("Put", key, err)
	}

	if err := os.Rename(tmpName, full); err != nil {
		return s.wrapError("Put", key, err)
	}
	return nil
}

// Head returns metadata for a single object.
func (s *Store) Head(ctx context.Context, key string) (*provider.ObjectMeta, error) {
	full, err := s.fullPath(key)
	if err != nil {
		return nil, s.wrapError("Head", key, err)
	}
	st, err := os.Stat(full)
	if err != nil {
		return nil, s.wrapError("Head", key, err)
	}
	if st.IsDir() {
		return nil, s.wrapError("Head", key, provider.ErrNotFound)
	}
	return &provider.ObjectMeta{
		Path:         strings.TrimPrefix(key, "/"),
		Size:         st.Size(),
		LastModified: st.ModTime(),
	}, nil
}

// Delete removes an object. Missing keys surface as ErrNotFound per the
// store contract.
func (s *Store) Delete(ctx context.Context, key string) error {
	full, err := s.fullPath(key)
	if err != nil {
		return s.wrapError("Delete", key, err)
	}
	if err := os.Remove(full); err != nil {
		return s.wrapError("Delete", key, err)
	}
	return nil
}

// Copy duplicates src to dst.
func (s *Store) Copy(ctx context.Context, src, dst string) error {
	r, err := s.Get(ctx, src)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()
	return s.Put(ctx, dst, r, provider.PutOverwrite)
}

// Rename moves src to dst.
func (s *Store) Rename(ctx context.Context, src, dst string) error {
	srcFull, err := s.fullPath(src)
	if err != nil {
		return s.wrapError("Rename", src, err)
	}
	dstFull, err := s.fullPath(dst)
	if err != nil {
		return s.wrapError("Rename", src, err)
	}
	if _, err := os.Stat(srcFull); err != nil {
		return s.wrapError("Rename", src, err)
	}
	if err := os.MkdirAll(filepath.Dir(dstFull), 0o755); err != nil {
		return s.wrapError("Rename", src, err)
	}
	if err := os.Rename(srcFull, dstFull); err != nil {
		return s.wrapError("Rename", src, err)
	}
	return nil
}

// Close releases any resources held by the store.
func (s *Store) Close() error {
	return nil
}

func (s *Store) fullPath(key string) (string, error) {
	key = strings.TrimSpace(key)
	key = strings.TrimPrefix(key, "/")
	// Prevent path traversal.
	clean := filepath.Clean("/" + key)
	clean = strings.TrimPrefix(clean, "/")
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("invalid key path")
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(clean)), nil
}

func (s *Store) fullPathUnchecked(key string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(key))
}

func (s *Store) collectKeys() ([]string, error) {
	if _, err := os.Stat(s.baseDir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var keys []string
	_ = filepath.WalkDir(s.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.baseDir, path)
		if err != nil {
			return nil
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	return keys, nil
}

func (s *Store) wrapError(op, key string, err error) error {
	wrapped := &provider.StoreError{Op: op, Kind: provider.KindFile, Key: key, Err: err}
	if err == nil {
		wrapped.Err = fmt.Errorf("unknown error")
	}
	// Normalize common filesystem errors to store sentinels.
	if os.IsNotExist(err) {
		wrapped.Err = provider.ErrNotFound
	}
	if os.IsPermission(err) {
		wrapped.Err = provider.ErrAccessDenied
	}
	return wrapped
}
