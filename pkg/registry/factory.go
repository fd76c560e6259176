package registry

import (
	"context"
	"path/filepath"

	"github.com/3leaps/godrives/pkg/provider"
	"github.com/3leaps/godrives/pkg/provider/file"
	"github.com/3leaps/godrives/pkg/provider/gcs"
	"github.com/3leaps/godrives/pkg/provider/httpstore"
	"github.com/3leaps/godrives/pkg/provider/s3"
	"github.com/3leaps/godrives/pkg/restclient"
)

// FactoryConfig carries the credentials and endpoints shared by every store
// the default factory constructs.
type FactoryConfig struct {
	// AccessKeyID, SecretAccessKey and SessionToken authenticate S3-family
	// stores and the REST-backed providers.
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// Endpoint is a custom S3-compatible endpoint. Empty for AWS S3.
	Endpoint string

	// Project is the project id for GCS container discovery.
	Project string

	// FileRoot is the directory under which file-backed drives live.
	FileRoot string
}

// NewFactory returns the default store factory: one construction path per
// backend kind. This is the only place the system branches on provider
// identity after mount time.
func NewFactory(cfg FactoryConfig, rest *restclient.Client) Factory {
	return func(ctx context.Context, kind provider.Kind, drive, region string) (provider.Store, error) {
		switch kind {
		case provider.KindS3:
			return s3.New(ctx, s3.Config{
				Bucket:          drive,
				Region:          region,
				Endpoint:        cfg.Endpoint,
				AccessKeyID:     cfg.AccessKeyID,
				SecretAccessKey: cfg.SecretAccessKey,
				SessionToken:    cfg.SessionToken,
				ForcePathStyle:  cfg.Endpoint != "",
			})
		case provider.KindGCS:
			return gcs.New(rest, gcs.Config{Bucket: drive, Project: cfg.Project})
		case provider.KindHTTP:
			return httpstore.New(rest, drive)
		case provider.KindFile:
			return file.New(file.Config{BaseDir: filepath.Join(cfg.FileRoot, drive)})
		}
		return nil, &provider.StoreError{Op: "Mount", Kind: kind, Drive: drive, Err: provider.ErrUnsupported}
	}
}
