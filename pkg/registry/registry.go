// Package registry tracks which drives are mounted and which store backs
// each one.
//
// The registry owns every drive-to-store binding: bindings are created by
// Mount, destroyed by Unmount, and looked up per operation through Resolve.
// Callers must not cache a resolved binding across operations.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/3leaps/godrives/pkg/provider"
)

// Sentinel errors for registry operations.
var (
	// ErrAlreadyMounted indicates the drive name already has a binding.
	ErrAlreadyMounted = errors.New("drive already mounted")

	// ErrNotMounted indicates the drive name has no binding.
	ErrNotMounted = errors.New("drive is not mounted or doesn't exist")
)

// MountError wraps a store construction failure during Mount.
type MountError struct {
	Drive string
	Err   error
}

func (e *MountError) Error() string {
	return fmt.Sprintf("mounting drive %s failed: %v", e.Drive, e.Err)
}

func (e *MountError) Unwrap() error {
	return e.Err
}

// Binding is one live drive-to-store binding.
type Binding struct {
	Store  provider.Store
	Kind   provider.Kind
	Region string
}

// Factory constructs a store for a drive at mount time.
type Factory func(ctx context.Context, kind provider.Kind, drive, region string) (provider.Store, error)

// Registry maps mounted drive names to their bindings.
//
// Mount/unmount check-then-act is atomic: the binding map is the only
// mutable shared state and is guarded by a mutex.
type Registry struct {
	factory Factory
	logger  *zap.Logger

	mu       sync.RWMutex
	bindings map[string]Binding
}

// New creates an empty registry. A nil logger disables logging.
func New(factory Factory, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		factory:  factory,
		logger:   logger,
		bindings: make(map[string]Binding),
	}
}

// Mount constructs a store for the drive and records the binding.
//
// Fails with ErrAlreadyMounted when the name is already bound; the existing
// binding is left untouched. Store construction failures surface as
// *MountError.
func (r *Registry) Mount(ctx context.Context, name string, kind provider.Kind, region string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bindings[name]; ok {
		return ErrAlreadyMounted
	}

	store, err := r.factory(ctx, kind, name, region)
	if err != nil {
		return &MountError{Drive: name, Err: err}
	}

	r.bindings[name] = Binding{Store: store, Kind: kind, Region: region}
	r.logger.Debug("drive mounted",
		zap.String("drive", name),
		zap.String("provider", kind.String()),
		zap.String("region", region))
	return nil
}

// Unmount discards the drive's binding and closes its store.
//
// Unmounting an unbound name fails with ErrNotMounted; a retry after success
// therefore fails rather than reporting success. Remote data is never
// touched.
func (r *Registry) Unmount(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	binding, ok := r.bindings[name]
	if !ok {
		return ErrNotMounted
	}
	delete(r.bindings, name)

	if err := binding.Store.Close(); err != nil {
		r.logger.Warn("store close failed", zap.String("drive", name), zap.Error(err))
	}
	r.logger.Debug("drive unmounted", zap.String("drive", name))
	return nil
}

// Resolve returns the drive's binding, or ErrNotMounted.
func (r *Registry) Resolve(name string) (Binding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	binding, ok := r.bindings[name]
	if !ok {
		return Binding{}, ErrNotMounted
	}
	return binding, nil
}

// IsMounted reports whether the drive name has a live binding.
func (r *Registry) IsMounted(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.bindings[name]
	return ok
}
