package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrObjectNotFound indicates the requested key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStorage captures the minimal S3-compatible operations the analysis needs: input
// workbooks are read from it and report exports are written to it.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	GetObject(ctx context.Context, key string) ([]byte, error)
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
}

// Backend names.
const (
	BackendMinio   = "minio"
	BackendSevalla = "sevalla"
	BackendS3      = "s3"
)

// Config encapsulates the connection info for an S3-compatible store.
type Config struct {
	Backend   string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// New builds the client for cfg.Backend; an empty backend selects MinIO.
func New(ctx context.Context, cfg Config) (ObjectStorage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendMinio:
		return NewMinioClient(cfg)
	case BackendSevalla:
		return NewSevallaClient(cfg)
	case BackendS3:
		return NewS3Client(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func validate(name string, cfg Config, needEndpoint bool) error {
	if needEndpoint && cfg.Endpoint == "" {
		return fmt.Errorf("%s endpoint must be provided", name)
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return fmt.Errorf("%s credentials must be provided", name)
	}
	if cfg.Bucket == "" {
		return fmt.Errorf("%s bucket must be provided", name)
	}
	return nil
}

func region(cfg Config) string {
	if r := strings.TrimSpace(cfg.Region); r != "" {
		return r
	}
	return "us-east-1"
}

// ResolveKey joins a key onto prefix unless the key already starts with it.
func ResolveKey(prefix, key string) string {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	prefixTrimmed := strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	if prefixTrimmed == "" || key == "" {
		return key
	}
	if strings.HasPrefix(key, prefixTrimmed+"/") {
		return key
	}
	return prefixTrimmed + "/" + key
}
