package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Config configures the S3 backend. Endpoint and the static keys are
// optional: without them the SDK's default credential chain and the AWS
// endpoint for Region are used.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // e.g. http://localhost:9000 for MinIO
	AccessKey string
	SecretKey string
	PublicURL string // prefix for returned references; empty returns the bare key
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads images to a bucket under <folder>/<uuid><ext>.
type S3Store struct {
	client    objectPutter
	bucket    string
	publicURL string
}

// NewS3Store builds an S3 client from cfg.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage: S3 bucket is required")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// MinIO and most self-hosted gateways don't do virtual-host buckets.
			o.UsePathStyle = true
		}
	})

	return newS3Store(client, cfg.Bucket, cfg.PublicURL), nil
}

func newS3Store(client objectPutter, bucket, publicURL string) *S3Store {
	return &S3Store{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// Save uploads r and returns PublicURL/<key>, or the key when no public URL
// is configured.
func (s *S3Store) Save(ctx context.Context, folder, originalName, contentType string, r io.Reader) (string, error) {
	if !validFolder(folder) {
		return "", fmt.Errorf("storage: unknown folder %q", folder)
	}
	ext, err := CheckImageName(originalName)
	if err != nil {
		return "", err
	}

	key := folder + "/" + uuid.NewString() + ext
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentTypeFor(ext, contentType)),
	})
	if err != nil {
		return "", fmt.Errorf("storage: uploading %s: %w", key, err)
	}

	if s.publicURL == "" {
		return key, nil
	}
	return s.publicURL + "/" + key, nil
}
