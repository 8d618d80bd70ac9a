package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Source reads objects from S3 or any S3 compatible store such as MinIO.
type S3Source struct {
	client *s3.Client
}

func NewS3Source(ctx context.Context, sourceConfig SourceConfig) (*S3Source, error) {
	region := sourceConfig.Region
	if region == "" {
		region = "us-east-1"
	}

	options := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if sourceConfig.AccessKeyID != "" {
		options = append(options, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(sourceConfig.AccessKeyID, sourceConfig.SecretAccessKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if sourceConfig.Endpoint != "" {
			o.BaseEndpoint = aws.String(strings.TrimSuffix(sourceConfig.Endpoint, "/"))
		}
		o.UsePathStyle = sourceConfig.UsePathStyle
	})

	return &S3Source{client: client}, nil
}

func (s *S3Source) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		var notFound *types.NotFound
		if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrSourceNotFound, bucket, key)
		}
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading s3://%s/%s failed: %w", bucket, key, err)
	}

	object, err := decodeObject(bucket, key, raw)
	if err != nil {
		return nil, err
	}
	return object.Data, nil
}

func (s *S3Source) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	keys := make([]string, 0)

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list s3://%s/%s: %w", bucket, prefix, err)
		}
		for _, object := range page.Contents {
			keys = append(keys, aws.ToString(object.Key))
		}
	}

	return keys, nil
}

func (s *S3Source) Close() error {
	return nil
}
