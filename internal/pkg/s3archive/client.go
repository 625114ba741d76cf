// Package s3archive stores dead-letter payloads that ran out of retries.
package s3archive

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/ManuelReschke/Marketfox/app/models"
)

const maxReasonMetadata = 512

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Client uploads exhausted dead-letter items
type Client struct {
	s3     objectPutter
	config *Config
	now    func() time.Time
}

// NewClient creates a new S3 archive client
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("S3 archive is disabled")
	}

	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})

	if _, err := s3Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.BucketName)}); err != nil {
		return nil, fmt.Errorf("bucket %s not accessible: %w", cfg.BucketName, err)
	}

	log.Infof("[S3Archive] Archiving exhausted dead-letter items to bucket: %s", cfg.BucketName)
	return &Client{s3: s3Client, config: cfg, now: time.Now}, nil
}

// Archive uploads the raw payload. The failure reason and item id travel as
// object metadata.
func (c *Client) Archive(ctx context.Context, kind models.DeadLetterKind, id uint, payload []byte, reason string) error {
	key := c.config.ObjectKey(kind, id, c.now().UTC(), uuid.NewString())

	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.config.BucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(payload),
		ContentType:   aws.String("application/octet-stream"),
		ContentLength: aws.Int64(int64(len(payload))),
		Metadata: map[string]string{
			"dlq-kind":      string(kind),
			"dlq-item-id":   strconv.FormatUint(uint64(id), 10),
			"dlq-reason":    metadataValue(reason),
			"upload-source": "marketfox-dlq",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	log.Infof("[S3Archive] Archived %s item %d to s3://%s/%s", kind, id, c.config.BucketName, key)
	return nil
}

// metadataValue keeps printable ASCII; S3 rejects other header bytes.
func metadataValue(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 0x20 && r < 0x7f {
			b.WriteRune(r)
		} else {
			b.WriteByte('?')
		}
		if b.Len() >= maxReasonMetadata {
			break
		}
	}
	return b.String()
}
