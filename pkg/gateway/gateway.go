// Package gateway implements the drive content gateway: a uniform contents
// API over heterogeneous object-store drives.
//
// A Gateway resolves drive-scoped paths against the stores held by a
// registry, disambiguating directories from files over flat keyspaces, and
// negotiating text and base64 content representations. Drive discovery and
// mounting are exposed alongside the content operations so a hosting server
// can serve the full drive lifecycle from one type.
package gateway

import (
	"context"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/3leaps/godrives/pkg/provider"
	"github.com/3leaps/godrives/pkg/registry"
)

// DefaultChunkSize is the read buffer size used when assembling object
// content. Larger objects are drained in chunks of this size rather than in
// a single read.
const DefaultChunkSize = 5 * 1024 * 1024

// RegionLookup resolves the region a named container lives in. Providers
// with region-scoped access expose it so mounts without an explicit region
// can be placed correctly.
type RegionLookup interface {
	BucketRegion(ctx context.Context, name string) (string, error)
}

// Gateway serves drive discovery, mount lifecycle, and content operations.
type Gateway struct {
	reg       *registry.Registry
	lister    provider.ContainerLister
	kind      provider.Kind
	logger    *zap.Logger
	chunkSize int
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithChunkSize overrides the content read buffer size.
func WithChunkSize(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.chunkSize = n
		}
	}
}

// WithContainerLister attaches a discovery backend for ListDrives.
func WithContainerLister(l provider.ContainerLister) Option {
	return func(g *Gateway) {
		g.lister = l
	}
}

// New creates a Gateway over the given registry. kind names the default
// provider reported for discovered drives.
func New(reg *registry.Registry, kind provider.Kind, logger *zap.Logger, opts ...Option) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Gateway{
		reg:       reg,
		kind:      kind,
		logger:    logger,
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// normalizePath strips leading and trailing slashes from a drive-scoped
// path. A bare "/" (and the empty string) addresses the drive root, spelled
// "". Normalization is idempotent.
func normalizePath(p string) string {
	return strings.Trim(p, "/")
}

// DriveInfo describes one discoverable or mounted drive.
type DriveInfo struct {
	Name         string `json:"name"`
	Region       string `json:"region,omitempty"`
	CreationDate string `json:"creation_date,omitempty"`
	Mounted      bool   `json:"mounted"`
	Provider     string `json:"provider"`
}

// ListDrives enumerates the drives visible to the configured credentials,
// marking those currently mounted. pattern, when non-empty, is a doublestar
// glob applied to drive names.
func (g *Gateway) ListDrives(ctx context.Context, pattern string) ([]DriveInfo, error) {
	if g.lister == nil {
		return nil, &Error{Kind: KindList, Err: provider.ErrUnsupported}
	}
	containers, err := g.lister.ListContainers(ctx)
	if err != nil {
		return nil, &Error{Kind: KindList, Err: err}
	}
	drives := make([]DriveInfo, 0, len(containers))
	for _, c := range containers {
		if pattern != "" {
			ok, matchErr := doublestar.Match(pattern, c.Name)
			if matchErr != nil {
				return nil, &Error{Kind: KindList, Err: matchErr}
			}
			if !ok {
				continue
			}
		}
		info := DriveInfo{
			Name:     c.Name,
			Region:   c.Region,
			Mounted:  g.reg.IsMounted(c.Name),
			Provider: string(g.kind),
		}
		if !c.CreationDate.IsZero() {
			info.CreationDate = c.CreationDate.UTC().Format(timeFormat)
		}
		drives = append(drives, info)
	}
	return drives, nil
}

// MountDrive mounts the named drive. An empty kind falls back to the
// gateway's default provider; an empty region is resolved through the
// discovery backend when it supports region lookup.
func (g *Gateway) MountDrive(ctx context.Context, name, kind, region string) error {
	k := g.kind
	if kind != "" {
		parsed, err := provider.ParseKind(kind)
		if err != nil {
			return err
		}
		k = parsed
	}
	if region == "" && k == provider.KindS3 {
		if lookup, ok := g.lister.(RegionLookup); ok && lookup != nil {
			resolved, err := lookup.BucketRegion(ctx, name)
			if err != nil {
				g.logger.Debug("region lookup failed, mounting without region",
					zap.String("drive", name),
					zap.Error(err))
			} else {
				region = resolved
			}
		}
	}
	return g.reg.Mount(ctx, name, k, region)
}

// UnmountDrive unmounts the named drive and releases its store.
func (g *Gateway) UnmountDrive(name string) error {
	return g.reg.Unmount(name)
}

// resolve returns the mounted store for a drive.
func (g *Gateway) resolve(drive string) (registry.Binding, error) {
	return g.reg.Resolve(drive)
}
