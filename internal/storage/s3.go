// Package storage wraps the object store holding receipt files. The bucket
// is private: reads go through short-lived presigned URLs only.
package storage

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/frahmantamala/expense-portal/internal"
)

// SignedURLTTL bounds how long a receipt link stays readable.
const SignedURLTTL = 5 * time.Minute

type Client struct {
	s3      *s3.Client
	presign *s3.PresignClient
	bucket  string
	logger  *slog.Logger
}

func New(ctx context.Context, cfg internal.StorageConfig, logger *slog.Logger) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, internal.NewBackendError(internal.BackendCodeStorage, "storage configuration failed", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // MinIO and friends
		}
	})

	return &Client{
		s3:      client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.ReceiptBucket,
		logger:  logger,
	}, nil
}

// Upload streams one file into the receipts bucket under key.
func (c *Client) Upload(ctx context.Context, key, contentType string, body io.Reader) error {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Body:        body,
	})
	if err != nil {
		c.logger.Error("receipt upload failed", "key", key, "error", err)
		return internal.NewBackendError(internal.BackendCodeStorage, "upload failed", err)
	}
	return nil
}

// SignedURL returns a time-limited read link for a stored receipt.
func (c *Client) SignedURL(ctx context.Context, key string) (string, error) {
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(SignedURLTTL))
	if err != nil {
		c.logger.Error("presign failed", "key", key, "error", err)
		return "", internal.NewBackendError(internal.BackendCodeStorage, "presign failed", err)
	}
	return req.URL, nil
}
