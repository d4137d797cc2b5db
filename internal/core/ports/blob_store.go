package ports

import (
	"context"
	"io"
)

// BlobInfo describes a stored blob.
type BlobInfo struct {
	URL  string `json:"fileUrl"`
	Name string `json:"fileName"`
}

// BlobStore persists uploaded files and hands back a public retrieval URL.
type BlobStore interface {
	Put(ctx context.Context, name string, r io.Reader) (*BlobInfo, error)
	Delete(ctx context.Context, url string) error
}

// BlobCleanupJob asks for the removal of a blob that is no longer referenced.
type BlobCleanupJob struct {
	OwnerID string
	URL     string
}

// BlobJanitor schedules asynchronous blob removal.
type BlobJanitor interface {
	Enqueue(job BlobCleanupJob)
}
