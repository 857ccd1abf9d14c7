package s3

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// PutObjectAPI is the slice of the S3 client the store uses
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
}

// Store writes pipeline artifacts to one S3 bucket. Puts are last-write-wins
// per key; rerunning a date overwrites that date's partition and nothing
// else.
type Store struct {
	client PutObjectAPI
	bucket string
	logger *zap.Logger
}

// NewStore creates a store over the given bucket
func NewStore(client PutObjectAPI, bucket string, logger *zap.Logger) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		logger: logger,
	}
}

// Put writes one object
func (s *Store) Put(ctx context.Context, key, contentType string, body []byte) error {
	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to put s3://%s/%s: %w", s.bucket, key, err)
	}

	s.logger.Debug("Object written",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int("bytes", len(body)),
	)
	return nil
}
