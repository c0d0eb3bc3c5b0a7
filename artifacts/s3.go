package artifacts

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store keeps artifacts as objects under a bucket prefix.
type S3Store struct {
	bucket string
	prefix string
	client *s3.Client
}

var _ Store = (*S3Store)(nil)

type S3Option func(*S3Store)

func WithBucket(bucket string) S3Option {
	return func(s *S3Store) {
		s.bucket = bucket
	}
}

func WithPrefix(prefix string) S3Option {
	return func(s *S3Store) {
		s.prefix = prefix
	}
}

func WithClient(clt *s3.Client) S3Option {
	return func(s *S3Store) {
		s.client = clt
	}
}

func NewS3Store(opts ...S3Option) *S3Store {
	ret := new(S3Store)
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Put uploads the artifact and returns its s3:// URL.
func (s *S3Store) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	key := path.Join(s.prefix, name)
	putObjInput := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	}
	if _, err := s.client.PutObject(ctx, putObjInput); err != nil {
		return "", fmt.Errorf("failed to put object to S3: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
