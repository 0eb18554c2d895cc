package objectstore

import (
	"context"
	"io"
)

// FileStorer is the opaque byte-blob store. The ingest endpoint writes; the
// pipeline only reads.
type FileStorer interface {
	Upload(ctx context.Context, file io.Reader, bucket, key, contentType string) (string, error)
	Download(ctx context.Context, bucket, key string) ([]byte, error)
}
