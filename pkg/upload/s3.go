package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Store stores images in an S3-compatible bucket.
//
// Example usage:
//
//	client := upload.NewS3Client(upload.S3ClientOptions{Region: "eu-west-1"})
//	store := upload.NewS3Store(client, "bases", "image/", "https://cdn.example.com", 5<<20)
type S3Store struct {
	client    S3API
	bucket    string
	prefix    string
	publicURL string
	maxSize   int64
}

// S3ClientOptions configures NewS3Client.
type S3ClientOptions struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// NewS3Client builds an S3 client with static credentials. An empty
// Endpoint uses the AWS default resolver.
func NewS3Client(opts S3ClientOptions) *s3.Client {
	o := s3.Options{
		Region:       opts.Region,
		UsePathStyle: opts.UsePathStyle,
	}
	if opts.Endpoint != "" {
		o.BaseEndpoint = aws.String(opts.Endpoint)
	}
	if opts.AccessKeyID != "" {
		creds := aws.Credentials{
			AccessKeyID:     opts.AccessKeyID,
			SecretAccessKey: opts.SecretAccessKey,
			Source:          "thbase",
		}
		o.Credentials = aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return creds, nil
		})
	}
	return s3.New(o)
}

// NewS3Store creates a new S3 image store.
//
// Parameters:
//   - client: S3 client (or any S3API implementation)
//   - bucket: S3 bucket name
//   - prefix: Key prefix for images (e.g., "image/")
//   - publicURL: Base URL objects are reachable under
//   - maxSize: Maximum file size in bytes (0 = no limit)
func NewS3Store(client S3API, bucket, prefix, publicURL string, maxSize int64) *S3Store {
	return &S3Store{
		client:    client,
		bucket:    bucket,
		prefix:    prefix,
		publicURL: strings.TrimRight(publicURL, "/"),
		maxSize:   maxSize,
	}
}

// Save uploads an image to the bucket.
func (s *S3Store) Save(ctx context.Context, name, contentType string, r io.Reader) (*File, error) {
	if !ValidName(name) {
		return nil, ErrNotFound
	}

	// Images are capped at a few MiB, so buffering keeps the request
	// replayable for the SDK's retries.
	var buf bytes.Buffer
	var reader io.Reader = r
	if s.maxSize > 0 {
		reader = io.LimitReader(r, s.maxSize+1)
	}
	n, err := io.Copy(&buf, reader)
	if err != nil {
		return nil, err
	}
	if s.maxSize > 0 && n > s.maxSize {
		return nil, ErrTooLarge
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(name)),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(n),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 upload failed: %w", err)
	}

	return &File{
		Name:        name,
		ContentType: contentType,
		Size:        n,
		URL:         s.URL(name),
	}, nil
}

// Remove deletes an image from the bucket.
func (s *S3Store) Remove(ctx context.Context, name string) error {
	if !ValidName(name) {
		return ErrNotFound
	}
	key := s.key(name)

	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return ErrNotFound
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete failed: %w", err)
	}
	return nil
}

// URL returns the public URL of an image.
func (s *S3Store) URL(name string) string {
	if s.publicURL == "" {
		return "s3://" + s.bucket + "/" + s.key(name)
	}
	return s.publicURL + "/" + s.key(name)
}

func (s *S3Store) key(name string) string {
	return s.prefix + name
}
