package collector

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"strings"
)

const CSVSuffix = ".csv"

var gzipMagic = []byte{0x1f, 0x8b}

func NewSource(ctx context.Context, sourceConfig SourceConfig) (Source, error) {
	switch sourceConfig.Type {
	case "s3", "minio", "":
		return NewS3Source(ctx, sourceConfig)
	case "gcs":
		return NewGCSSource(ctx, sourceConfig)
	default:
		return nil, fmt.Errorf("source type not supported: %v", sourceConfig.Type)
	}
}

// ListCSVKeys returns the keys below prefix that end in .csv, in listing order.
func ListCSVKeys(ctx context.Context, source Source, bucket, prefix string) ([]string, error) {
	keys, err := source.List(ctx, bucket, prefix)
	if err != nil {
		return nil, err
	}

	csvKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		if strings.HasSuffix(key, CSVSuffix) {
			csvKeys = append(csvKeys, key)
		}
	}
	return csvKeys, nil
}

// decodeObject transparently uncompresses gzip payloads.
func decodeObject(bucket, key string, raw []byte) (Object, error) {
	object := Object{
		Bucket:           bucket,
		Key:              key,
		Data:             raw,
		CompressedSize:   int64(len(raw)),
		UncompressedSize: int64(len(raw)),
	}

	if !bytes.HasPrefix(raw, gzipMagic) {
		return object, nil
	}

	reader, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return Object{}, fmt.Errorf("failed to open gzip payload of %s/%s: %w", bucket, key, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return Object{}, fmt.Errorf("failed to uncompress %s/%s: %w", bucket, key, err)
	}

	object.Data = data
	object.UncompressedSize = int64(len(data))
	return object, nil
}
