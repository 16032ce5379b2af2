package filestore

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/lab"
)

type s3Store struct {
	presign *s3.PresignClient
	bucket  string
	ttl     time.Duration
}

var _ lab.FileStore = (*s3Store)(nil)

// NewS3Store hands out presigned URLs for the submissions bucket. Static
// keys are used when configured, the default AWS chain otherwise. A custom
// endpoint switches to path-style addressing (MinIO and friends).
func NewS3Store(ctx context.Context, conf core.StorageConfig) (lab.FileStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(conf.Region)}
	if conf.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(conf.AccessKey, conf.SecretKey, ""),
		))
	}
	awsConf, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "filestore.NewS3Store")
	}

	client := s3.NewFromConfig(awsConf, func(o *s3.Options) {
		if conf.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &s3Store{
		presign: s3.NewPresignClient(client),
		bucket:  conf.Bucket,
		ttl:     conf.SignedURLTTL,
	}, nil
}

func (st *s3Store) SignedGetURL(ctx context.Context, path string) (string, error) {
	req, err := st.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(st.bucket),
		Key:    aws.String(strings.TrimPrefix(path, "/")),
	}, s3.WithPresignExpires(st.ttl))
	if err != nil {
		return "", errors.Wrap(err, "filestore.SignedGetURL")
	}
	return req.URL, nil
}

func (st *s3Store) SignedPutURL(ctx context.Context, path, contentType string) (string, error) {
	in := &s3.PutObjectInput{
		Bucket: aws.String(st.bucket),
		Key:    aws.String(strings.TrimPrefix(path, "/")),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	req, err := st.presign.PresignPutObject(ctx, in, s3.WithPresignExpires(st.ttl))
	if err != nil {
		return "", errors.Wrap(err, "filestore.SignedPutURL")
	}
	return req.URL, nil
}
