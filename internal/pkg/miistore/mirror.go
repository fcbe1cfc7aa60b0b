package miistore

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/velomica/accounthub/internal/pkg/env"
)

// Config holds the S3 mirror settings, read from the environment.
type Config struct {
	Enabled         bool
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string
}

// NewConfigFromEnv reads the mirror configuration. The mirror is off unless
// S3_MII_MIRROR_ENABLED is "true".
func NewConfigFromEnv() *Config {
	return &Config{
		Enabled:         env.GetEnv("S3_MII_MIRROR_ENABLED", "false") == "true",
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "auto"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
	}
}

// Validate checks that all required settings are present.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.AccessKeyID == "" || c.SecretAccessKey == "" {
		return fmt.Errorf("miistore: S3 credentials missing")
	}
	if c.BucketName == "" {
		return fmt.Errorf("miistore: S3_BUCKET_NAME missing")
	}
	return nil
}

// ObjectKey builds the bucket key for a user's Mii slot.
func ObjectKey(userID uint, slot int) string {
	return fmt.Sprintf("miis/%d/%d.mii", userID, slot)
}

// Mirror copies Mii payloads into an S3-compatible bucket so they survive
// database restores. All operations are best effort from the caller's point
// of view; failures are logged and returned but never block the local write.
type Mirror struct {
	client *s3.Client
	cfg    *Config
	log    zerolog.Logger
}

// NewMirror builds the S3 client and verifies bucket access. Returns nil
// without error when the mirror is disabled.
func NewMirror(ctx context.Context, cfg *Config, log zerolog.Logger) (*Mirror, error) {
	if !cfg.Enabled {
		log.Debug().Msg("Mii S3 mirror disabled")
		return nil, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("miistore: load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})

	testCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := client.HeadBucket(testCtx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.BucketName),
	}); err != nil {
		return nil, fmt.Errorf("miistore: bucket %s not reachable: %w", cfg.BucketName, err)
	}

	log.Info().Str("bucket", cfg.BucketName).Msg("Mii S3 mirror connected")
	return &Mirror{client: client, cfg: cfg, log: log}, nil
}

// Put uploads one Mii payload under the user/slot key.
func (m *Mirror) Put(ctx context.Context, userID uint, slot int, payload []byte) error {
	key := ObjectKey(userID, slot)
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.cfg.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		m.log.Error().Err(err).Str("key", key).Msg("Mii mirror upload failed")
		return err
	}
	m.log.Debug().Str("key", key).Msg("Mii mirrored")
	return nil
}

// Delete removes a mirrored Mii.
func (m *Mirror) Delete(ctx context.Context, userID uint, slot int) error {
	key := ObjectKey(userID, slot)
	_, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(m.cfg.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		m.log.Error().Err(err).Str("key", key).Msg("Mii mirror delete failed")
		return err
	}
	return nil
}
