// Package storage archives generated report files to an S3 compatible bucket.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"fuelsync-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	log "github.com/sirupsen/logrus"
)

// Store uploads objects under a fixed key prefix.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// New returns nil when no bucket is configured; archiving is then skipped.
func New(ctx context.Context, cfg *config.Config) (*Store, error) {
	sc := cfg.Storage
	if sc.Bucket == "" || sc.AccessKey == "" || sc.SecretKey == "" {
		log.Printf("[Storage] Object storage not configured, report archiving disabled")
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			sc.AccessKey,
			sc.SecretKey,
			"",
		)),
		awsconfig.WithRegion(sc.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if sc.Endpoint != "" {
			o.BaseEndpoint = aws.String(sc.Endpoint)
			o.UsePathStyle = true
		}
	})
	log.Printf("[Storage] Archiving reports to bucket %s", sc.Bucket)
	return &Store{client: client, bucket: sc.Bucket, prefix: sc.Prefix}, nil
}

// ObjectKey places a report under <prefix>/<tenant>/<yyyy>/<mm>/<name>.
func ObjectKey(prefix, tenantID, name string, at time.Time) string {
	return path.Join(prefix, tenantID, at.Format("2006"), at.Format("01"), name)
}

// Put uploads data and returns the object key it was written to.
func (s *Store) Put(ctx context.Context, tenantID, name, contentType string, data []byte) (string, error) {
	key := ObjectKey(s.prefix, tenantID, name, time.Now().UTC())
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return key, nil
}

// Ping checks that the bucket is reachable.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		MaxKeys: aws.Int32(1),
	})
	return err
}
