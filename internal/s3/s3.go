package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// objectPutter is the part of the S3 client the repository needs.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type s3Session struct {
	client objectPutter
	bucket string
}

// NewS3Session creates the S3 client once so it can be shared by every request.
// Static credentials are used when both keys are given, otherwise the default
// AWS credential chain (env, shared config, instance role) applies.
func NewS3Session(ctx context.Context, accessKey string, secretKey string, region string, bucket string, prefix string) (*S3Repository, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not load aws config: %w", err)
	}

	return newS3Repository(s3.NewFromConfig(cfg), bucket, prefix), nil
}

func newS3Repository(client objectPutter, bucket string, prefix string) *S3Repository {
	return &S3Repository{
		s3_session: &s3Session{
			client: client,
			bucket: bucket,
		},
		prefix: prefix,
	}
}
