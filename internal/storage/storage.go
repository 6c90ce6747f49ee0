package storage

import (
	"context"
	"io"
)

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key  string
	Size int64
	ETag string
}

// ObjectStorage captures the minimal S3-compatible operations the catalog needs.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	OpenObject(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	UploadObject(ctx context.Context, key string, data []byte, contentType string) error
}
