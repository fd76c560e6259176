package cmd

import (
	"context"

	"github.com/3leaps/godrives/internal/config"
	"github.com/3leaps/godrives/pkg/provider/gcs"
	"github.com/3leaps/godrives/pkg/provider/s3"
	"github.com/3leaps/godrives/pkg/restclient"
)

// newS3Account builds the account-level S3 client used for drive
// discovery and region lookup.
func newS3Account(ctx context.Context, cfg *config.Config) (*s3.Account, error) {
	return s3.NewAccount(ctx, s3.Config{
		Region:          cfg.Provider.Region,
		Endpoint:        cfg.Provider.Endpoint,
		AccessKeyID:     cfg.Provider.AccessKeyID,
		SecretAccessKey: cfg.Provider.SecretAccessKey,
		SessionToken:    cfg.Provider.SessionToken,
	})
}

// newGCSAccount builds the project-scoped GCS discovery client.
func newGCSAccount(cfg *config.Config, rest *restclient.Client) (*gcs.Account, error) {
	return gcs.NewAccount(rest, cfg.Provider.Project), nil
}
