package storage

import (
	"context"
	"io"
	"path"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// ArchiveKey is the object key of a closed tournament's archived file.
func ArchiveKey(tournamentID, fileName string) string {
	return path.Join("tournaments", tournamentID, fileName)
}
