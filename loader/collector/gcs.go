package collector

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSSource reads objects from a Google Cloud Storage bucket.
type GCSSource struct {
	client *storage.Client
}

func NewGCSSource(ctx context.Context, sourceConfig SourceConfig) (*GCSSource, error) {
	options := make([]option.ClientOption, 0)
	if sourceConfig.CredentialsFile != "" {
		options = append(options, option.WithCredentialsFile(sourceConfig.CredentialsFile))
	}
	if sourceConfig.Endpoint != "" {
		options = append(options, option.WithEndpoint(sourceConfig.Endpoint))
	}

	client, err := storage.NewClient(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}

	return &GCSSource{client: client}, nil
}

func (g *GCSSource) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	// ReadCompressed keeps gzip encoded objects as stored, decodeObject
	// takes care of them like every other source.
	reader, err := g.client.Bucket(bucket).Object(key).ReadCompressed(true).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, fmt.Errorf("%w: gs://%s/%s", ErrSourceNotFound, bucket, key)
		}
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", bucket, key, err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading gs://%s/%s failed: %w", bucket, key, err)
	}

	object, err := decodeObject(bucket, key, raw)
	if err != nil {
		return nil, err
	}
	return object.Data, nil
}

func (g *GCSSource) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	keys := make([]string, 0)

	it := g.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list gs://%s/%s: %w", bucket, prefix, err)
		}
		keys = append(keys, attrs.Name)
	}

	return keys, nil
}

func (g *GCSSource) Close() error {
	return g.client.Close()
}
