package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Upload folders, one per kind of picture.
const (
	FolderShareImages    = "shareImages"
	FolderProjectPosters = "projectPosters"
	FolderActivityImages = "activityImages"
	FolderProfileImages  = "profileImages"
)

// ValidFolder reports whether uploads may be written to folder.
func ValidFolder(folder string) bool {
	switch folder {
	case FolderShareImages, FolderProjectPosters, FolderActivityImages, FolderProfileImages:
		return true
	}
	return false
}

// BlobStore stores an uploaded file and returns a URL it can be fetched from.
type BlobStore interface {
	Upload(ctx context.Context, folder, filename, contentType string, r io.Reader) (string, error)
}

// FirebaseBlobStore writes objects to the project's Firebase Storage bucket
type FirebaseBlobStore struct {
	bucket     *gcs.BucketHandle
	bucketName string
}

// NewFirebaseBlobStore creates a new FirebaseBlobStore over bucket
func NewFirebaseBlobStore(bucket *gcs.BucketHandle, bucketName string) *FirebaseBlobStore {
	return &FirebaseBlobStore{bucket: bucket, bucketName: bucketName}
}

// Upload stores r under folder with a random name and returns a token download URL.
func (s *FirebaseBlobStore) Upload(ctx context.Context, folder, filename, contentType string, r io.Reader) (string, error) {
	if !ValidFolder(folder) {
		return "", ErrInvalidFolder
	}
	name := folder + "/" + uuid.NewString() + strings.ToLower(path.Ext(filename))
	token := uuid.NewString()

	w := s.bucket.Object(name).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{"firebaseStorageDownloadTokens": token}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", errors.Wrap(err, "write object")
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrap(err, "close object")
	}
	return DownloadURL(s.bucketName, name, token), nil
}

// DownloadURL is the public URL of a Firebase Storage object guarded by a download token
func DownloadURL(bucket, object, token string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket, url.PathEscape(object), url.QueryEscape(token))
}
