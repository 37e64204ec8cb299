package sink

import (
	"bytes"
	"context"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	apperr "github.com/GriffinCanCode/screenrec/internal/errors"
)

// putObjectAPI is the subset of the S3 client the sink uses.
type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 uploads artifacts to a bucket, keyed by prefix and the base name of the
// chosen path.
type S3 struct {
	Bucket string
	Prefix string
	client putObjectAPI
}

// NewS3 builds an S3 sink from the default AWS credential chain.
func NewS3(ctx context.Context, bucket, prefix, region string) (*S3, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeConfigInvalid, "load aws config")
	}
	return &S3{Bucket: bucket, Prefix: prefix, client: s3.NewFromConfig(cfg)}, nil
}

// Key returns the object key for a local path.
func (s *S3) Key(p string) string {
	base := filepath.Base(p)
	prefix := strings.Trim(s.Prefix, "/")
	if prefix == "" {
		return base
	}
	return path.Join(prefix, base)
}

func (s *S3) Write(ctx context.Context, p string, a Artifact) error {
	key := s.Key(p)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(a.Data),
		ContentType:   aws.String(a.MimeType),
		ContentLength: aws.Int64(int64(len(a.Data))),
		Metadata: map[string]string{
			"source":     a.Source,
			"created-at": a.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		},
	})
	if err != nil {
		return apperr.Wrap(err, apperr.CodeFileWriteFailed, "upload recording").
			WithMetadata("bucket", s.Bucket).
			WithMetadata("key", key)
	}
	return nil
}
