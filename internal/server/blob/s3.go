// Package blob stores raw attested content in an S3-compatible backend.
// Verification never reads content back from here (digests are always
// re-derived from caller-supplied bytes), so the store only needs put for
// the create flow and presigned get for owner downloads.
package blob

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	sc "github.com/veristamp/veristamp/internal/server/config"
)

// presignExpiry bounds how long an owner's download link stays valid.
const presignExpiry = 15 * time.Minute

// Test seams over the AWS SDK, replaceable in unit tests.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Store is the blob collaborator as seen by the attestation service.
type Store interface {
	// Put durably writes the full content under key. The caller relies on
	// a successful return meaning the bytes are persisted: attestation
	// records are only inserted after Put returns.
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error

	// PresignGet returns a short-lived download URL for key.
	PresignGet(ctx context.Context, key string) (string, error)
}

// S3Store implements Store over an S3-compatible endpoint (MinIO in dev).
type S3Store struct {
	config *sc.Config
}

func NewS3Store(config *sc.Config) *S3Store {
	return &S3Store{config: config}
}

// NewStorageKey mints a date-bucketed random object key. Keys deliberately
// contain no attestation identifier: an identifier-collision retry reuses
// the already-written blob instead of uploading a second copy.
func NewStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("content/%d/%d/%d/%v", d.Year(), int(d.Month()), d.Day(), uuid.New())
}

func (s *S3Store) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

func (s *S3Store) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	client, err := s.getClient(ctx)
	if err != nil {
		return err
	}

	bucket := s.config.S3Bucket
	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:        &bucket,
		Key:           &key,
		Body:          body,
		ContentType:   &contentType,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("blob put: %w", err)
	}
	return nil
}

func (s *S3Store) PresignGet(ctx context.Context, key string) (string, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("blob presign: %w", err)
	}

	return req.URL, nil
}
