package storage

import (
	"context"
	"fmt"
	"io"
)

// UploadResult reports where an object landed after a successful upload.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader abstracts the object store holding tournament posters.
// Keys are caller-owned; use PosterKey for poster objects so re-uploads
// overwrite in place instead of accumulating stale copies.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// PosterKey is the canonical object key for a tournament's poster.
func PosterKey(tournamentID int) string {
	return fmt.Sprintf("tournaments/%d/poster", tournamentID)
}
