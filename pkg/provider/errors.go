package provider

import (
	"errors"
	"fmt"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates the requested object does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrAlreadyExists indicates a PutCreate hit an existing key.
	ErrAlreadyExists = errors.New("object already exists")

	// ErrBucketNotFound indicates the drive (bucket) does not exist.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrAccessDenied indicates insufficient permissions.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidCredentials indicates authentication failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrReadOnly indicates the backend does not support writes.
	ErrReadOnly = errors.New("backend is read-only")

	// ErrUnsupported indicates the backend does not support the operation.
	ErrUnsupported = errors.New("operation not supported by backend")
)

// StoreError wraps backend-specific errors with context.
type StoreError struct {
	// Op is the operation that failed (e.g., "List", "Head").
	Op string

	// Kind is the backend family (e.g., "s3").
	Kind Kind

	// Drive is the drive (bucket) name, if applicable.
	Drive string

	// Key is the object key, if applicable.
	Key string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %s: %s/%s: %v", e.Kind, e.Op, e.Drive, e.Key, e.Err)
	}
	if e.Drive != "" {
		return fmt.Sprintf("%s %s: %s: %v", e.Kind, e.Op, e.Drive, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err indicates a missing object.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists reports whether err indicates a create conflict.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsReadOnly reports whether err indicates a write to a read-only backend.
func IsReadOnly(err error) bool {
	return errors.Is(err, ErrReadOnly)
}

// IsUnsupported reports whether err indicates an unsupported operation.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}
