package s3

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/3leaps/godrives/pkg/provider"
)

// Account performs account-wide S3 operations that are independent of any
// single drive: bucket discovery and bucket region lookup.
//
// Region lookups require a client pinned to the bucket's region; clients are
// cached per region and reused across lookups. Account is safe for concurrent
// use.
type Account struct {
	cfg    Config
	awsCfg aws.Config

	mu      sync.Mutex
	clients map[string]*s3.Client
}

var _ provider.ContainerLister = (*Account)(nil)

// NewAccount creates an account-level client from the same configuration an
// individual store uses. The Bucket field is ignored.
func NewAccount(ctx context.Context, cfg Config) (*Account, error) {
	// Bucket validation does not apply account-wide.
	probe := cfg
	probe.Bucket = "-"
	if err := probe.Validate(); err != nil {
		return nil, err
	}

	awsCfg, err := loadAWSConfig(ctx, probe)
	if err != nil {
		return nil, &provider.StoreError{Op: "NewAccount", Kind: provider.KindS3, Err: err}
	}

	return &Account{
		cfg:     cfg,
		awsCfg:  awsCfg,
		clients: make(map[string]*s3.Client),
	}, nil
}

// ListContainers returns every bucket visible to the account, with each
// bucket's resolved region.
func (a *Account) ListContainers(ctx context.Context) ([]provider.Container, error) {
	client := a.clientFor("")

	output, err := client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, &provider.StoreError{Op: "ListContainers", Kind: provider.KindS3, Err: err}
	}

	containers := make([]provider.Container, 0, len(output.Buckets))
	for _, b := range output.Buckets {
		name := aws.ToString(b.Name)
		region, err := a.BucketRegion(ctx, name)
		if err != nil {
			return nil, err
		}
		containers = append(containers, provider.Container{
			Name:         name,
			Region:       region,
			CreationDate: aws.ToTime(b.CreationDate),
		})
	}
	return containers, nil
}

// BucketRegion resolves the region a bucket lives in.
//
// GetBucketLocation reports the empty LocationConstraint for us-east-1
// buckets; the default region is substituted in that case.
func (a *Account) BucketRegion(ctx context.Context, bucket string) (string, error) {
	client := a.clientFor("")

	output, err := client.GetBucketLocation(ctx, &s3.GetBucketLocationInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return "", &provider.StoreError{Op: "BucketRegion", Kind: provider.KindS3, Drive: bucket, Err: err}
	}

	region := string(output.LocationConstraint)
	if region == "" {
		region = DefaultAWSRegion
	}
	return region, nil
}

// clientFor returns a client pinned to region, constructing and caching it on
// first use. The empty region selects the account's default client.
func (a *Account) clientFor(region string) *s3.Client {
	a.mu.Lock()
	defer a.mu.Unlock()

	if c, ok := a.clients[region]; ok {
		return c
	}

	awsCfg := a.awsCfg
	if region != "" {
		awsCfg.Region = region
	}
	c := newClient(awsCfg, a.cfg)
	a.clients[region] = c
	return c
}
