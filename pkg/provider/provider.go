// Package provider defines the uniform capability surface over cloud object
// storage backends.
//
// A Store is bound to exactly one drive (bucket/container). Implementations
// exist per backend family (S3-compatible, GCS-compatible, plain HTTP, local
// filesystem); callers never branch on the backend except when a Store is
// constructed.
//
// Implementations should:
//   - Stream listings page by page rather than materializing them
//   - Be safe for concurrent use
//   - Map backend failures onto the sentinel errors in this package
package provider

import (
	"context"
	"io"
	"time"
)

// Store abstracts object operations for a single mounted drive.
type Store interface {
	// List returns a lazy listing of objects under prefix. Prefixes are
	// directory-style: a non-empty prefix matches keys below it as a path
	// segment, never an object whose key equals the prefix itself.
	// pageSize <= 0 uses the backend default. The listing is restartable
	// only by re-issuing List with the same prefix.
	List(ctx context.Context, prefix string, pageSize int) Listing

	// Get returns the object content as a stream.
	// Returns ErrNotFound if the key does not exist.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Put creates or replaces an object.
	// With PutCreate the call fails with ErrAlreadyExists when the key
	// is already present.
	Put(ctx context.Context, key string, body io.Reader, mode PutMode) error

	// Head returns metadata for a single object.
	// Returns ErrNotFound if the key does not exist.
	Head(ctx context.Context, key string) (*ObjectMeta, error)

	// Delete removes an object. Returns ErrNotFound for missing keys.
	Delete(ctx context.Context, key string) error

	// Copy duplicates src to dst within the drive.
	// Returns ErrNotFound if src does not exist.
	Copy(ctx context.Context, src, dst string) error

	// Rename moves src to dst within the drive.
	// Returns ErrNotFound if src does not exist.
	Rename(ctx context.Context, src, dst string) error

	// Close releases any resources held by the store.
	Close() error
}

// Listing yields pages of entries until exhaustion.
type Listing interface {
	// Next returns the next page. It returns nil, io.EOF once the listing
	// is exhausted.
	Next(ctx context.Context) ([]Entry, error)
}

// ContainerLister discovers drives account-wide, independent of any mount.
//
// This is a provider-level capability, not a per-drive one: S3 and GCS
// accounts expose it, the plain HTTP backend does not (ErrUnsupported).
type ContainerLister interface {
	ListContainers(ctx context.Context) ([]Container, error)
}

// DirectoryMarkerCreator is an optional Store capability.
//
// S3-family backends cannot represent an empty directory with a plain put,
// so they expose an out-of-band zero-byte marker object under key + "/".
// Detected by type assertion, following the optional-capability pattern.
type DirectoryMarkerCreator interface {
	CreateDirectoryMarker(ctx context.Context, key string) error
}

// Entry is one item in a listing result. Paths are forward-slash separated
// and relative to the drive root.
type Entry struct {
	Path         string
	Size         int64
	LastModified time.Time
}

// ObjectMeta contains metadata for a single object, returned by Head.
type ObjectMeta struct {
	Path         string
	Size         int64
	LastModified time.Time

	// ETag is the entity tag when the backend reports one.
	ETag string

	// ContentType is the MIME type when the backend reports one.
	ContentType string
}

// Container describes one drive discovered account-wide.
type Container struct {
	Name         string
	Region       string
	CreationDate time.Time
}

// PutMode selects create-or-replace semantics for Put.
type PutMode string

const (
	// PutOverwrite replaces the object or creates it.
	PutOverwrite PutMode = "overwrite"

	// PutCreate requires that the key does not already exist.
	PutCreate PutMode = "create"
)

// Kind identifies a storage backend family.
type Kind string

const (
	// KindS3 represents AWS S3 or S3-compatible storage.
	KindS3 Kind = "s3"

	// KindGCS represents Google Cloud Storage and compatible stores.
	KindGCS Kind = "gcs"

	// KindHTTP represents a read-only plain HTTP object source.
	KindHTTP Kind = "http"

	// KindFile represents a local filesystem store.
	KindFile Kind = "file"
)

// String returns the string representation of the backend kind.
func (k Kind) String() string {
	return string(k)
}

// ParseKind validates a backend kind received from a caller.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindS3, KindGCS, KindHTTP, KindFile:
		return Kind(s), nil
	}
	return "", &StoreError{Op: "ParseKind", Key: s, Err: ErrUnsupported}
}
