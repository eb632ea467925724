package ports

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned (possibly wrapped) when a key does not exist.
var ErrObjectNotFound = errors.New("object not found")

type PutObjectInput struct {
	ObjectKey   string
	ContentType string
	Reader      io.Reader
	// Size is -1 when unknown.
	Size int64
}

type PutObjectOutput struct {
	ObjectKey string
	Size      int64
}

type ObjectInfo struct {
	ObjectKey   string
	ContentType string
	Size        int64
	ModifiedAt  time.Time
}

type SignedURLOutput struct {
	URL       string
	ExpiresAt time.Time
}

// StorageProvider is a flat key namespace (localfs, gdrive, s3). PutObject
// must never expose a partially written object under its final key.
type StorageProvider interface {
	Provider() string

	PutObject(ctx context.Context, in PutObjectInput) (PutObjectOutput, error)
	GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, info ObjectInfo, err error)
	StatObject(ctx context.Context, objectKey string) (ObjectInfo, error)
	DeleteObject(ctx context.Context, objectKey string) error

	// GetSignedURL returns an empty URL when the provider cannot sign.
	GetSignedURL(ctx context.Context, objectKey string, expiresIn time.Duration) (SignedURLOutput, error)
}

// LocalPather is implemented by providers whose objects already live on the
// local filesystem, so the transform can read them in place.
type LocalPather interface {
	LocalPath(objectKey string) (string, error)
}
