package s3archive

import (
	"errors"
	"fmt"
	"time"

	"github.com/ManuelReschke/Marketfox/app/models"
	"github.com/ManuelReschke/Marketfox/internal/pkg/env"
)

// Config holds S3 archive configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	Prefix          string
	Enabled         bool
}

// LoadConfig loads S3 archive configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ARCHIVE_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_ARCHIVE_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_ARCHIVE_REGION", "eu-central-1"),
		BucketName:      env.GetEnv("S3_ARCHIVE_BUCKET", ""),
		EndpointURL:     env.GetEnv("S3_ARCHIVE_ENDPOINT_URL", ""),
		Prefix:          env.GetEnv("S3_ARCHIVE_PREFIX", "dlq"),
		Enabled:         env.GetEnvBool("S3_ARCHIVE_ENABLED", false),
	}

	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ARCHIVE_ACCESS_KEY_ID is required when the S3 archive is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_ARCHIVE_SECRET_ACCESS_KEY is required when the S3 archive is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_ARCHIVE_BUCKET is required when the S3 archive is enabled")
		}
	}

	return config, nil
}

// ObjectKey builds the key for an archived item:
// <prefix>/<kind>/YYYY/MM/<id>-<suffix>.bin
func (c *Config) ObjectKey(kind models.DeadLetterKind, id uint, at time.Time, suffix string) string {
	prefix := c.Prefix
	if prefix == "" {
		prefix = "dlq"
	}
	return fmt.Sprintf("%s/%s/%04d/%02d/%d-%s.bin", prefix, kind, at.Year(), int(at.Month()), id, suffix)
}
