// Package storage provides S3-compatible object storage for lead attachments.
package storage

import (
	"context"
	"io"
	"net/url"
	"time"
)

// PresignedURLTTL is the expiration time for presigned URLs.
const PresignedURLTTL = 15 * time.Minute

// PresignedURL contains the URL and metadata for a presigned operation.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"file_key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ObjectStore defines the object storage operations the attachments feature
// needs.
type ObjectStore interface {
	GenerateUploadURL(ctx context.Context, bucket, folder, fileName, contentType string, sizeBytes int64) (*PresignedURL, error)
	GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*PresignedURL, error)
	UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)
	DeleteObject(ctx context.Context, bucket, fileKey string) error
	EnsureBucketExists(ctx context.Context, bucket string) error
	ValidateContentType(contentType string) error
	ValidateFileSize(sizeBytes int64) error
}

// queryNone is the empty request parameter set for presigned GETs.
var queryNone = url.Values{}
