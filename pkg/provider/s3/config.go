// Package s3 implements the store interface for AWS S3 and S3-compatible storage.
package s3

// Config configures an S3 store bound to one drive (bucket).
//
// When no explicit keys are set, credentials resolve through the AWS SDK v2
// default chain (environment, shared credentials file, shared config
// profile). Explicit AccessKeyID/SecretAccessKey take precedence.
//
// For S3-compatible stores (Wasabi, MinIO, DigitalOcean Spaces), set
// Endpoint; path-style addressing is forced automatically in that case by
// the default factory.
type Config struct {
	// Bucket is the S3 bucket backing the drive (required).
	Bucket string

	// Region is the AWS region the bucket lives in, as resolved at mount
	// time. Empty falls back to the environment and, for AWS proper, to
	// us-east-1. No default is applied when Endpoint is set.
	Region string

	// Endpoint is a custom endpoint URL for S3-compatible stores.
	// Leave empty for AWS S3.
	Endpoint string

	// Profile selects a shared-config profile. Empty uses the default
	// profile or environment credentials.
	Profile string

	// AccessKeyID and SecretAccessKey are explicit credentials; both must
	// be set together.
	AccessKeyID     string
	SecretAccessKey string

	// SessionToken is an optional session token for temporary credentials.
	SessionToken string

	// ForcePathStyle forces path-style URLs (bucket in path, not
	// subdomain). Required for most S3-compatible stores.
	ForcePathStyle bool

	// MaxKeys is the default page size for List operations. Zero uses the
	// provider default; values over 1000 are clamped.
	MaxKeys int
}

// DefaultMaxKeys is the default page size for List operations.
const DefaultMaxKeys = 1000

// MaxAllowedKeys is the maximum page size allowed by S3.
const MaxAllowedKeys = 1000

// DefaultAWSRegion is the fallback region for AWS S3 when not specified.
const DefaultAWSRegion = "us-east-1"

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Bucket == "" {
		return &ConfigError{Field: "Bucket", Message: "bucket name is required"}
	}
	if (c.AccessKeyID != "") != (c.SecretAccessKey != "") {
		return &ConfigError{
			Field:   "AccessKeyID/SecretAccessKey",
			Message: "both access key ID and secret access key must be provided together",
		}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "s3 config: " + e.Field + ": " + e.Message
}
