package collector

import (
	"context"
	"errors"
)

var ErrSourceNotFound = errors.New("source object not found")

// Source is an object store holding CSV files.
type Source interface {
	// Fetch returns the content of the object at key. It fails with an
	// error wrapping ErrSourceNotFound if the key does not exist.
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
	// List returns all object keys below prefix.
	List(ctx context.Context, bucket, prefix string) ([]string, error)
	Close() error
}

type SourceConfig struct {
	Type string

	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool

	// GCS only
	CredentialsFile string
}

type Object struct {
	Bucket string
	Key    string
	Data   []byte

	CompressedSize   int64
	UncompressedSize int64
}
