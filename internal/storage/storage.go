// Package storage persists uploaded images.
//
// Two backends implement ImageStore:
//   - DiskStore writes under a local directory that the server also exposes
//     at /uploads/
//   - S3Store puts objects into an S3-compatible bucket (AWS, MinIO)
//
// Both return a reference string that is stored on the user or photo
// record and handed to clients as-is.
package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/sakif/reactgram/internal/apperror"
)

// Folders an image can be saved into.
const (
	FolderUsers  = "users"
	FolderPhotos = "photos"
)

// ImageStore saves an uploaded image and returns the reference clients use
// to load it.
type ImageStore interface {
	Save(ctx context.Context, folder, originalName, contentType string, r io.Reader) (string, error)
}

// CheckImageName accepts only .png and .jpg uploads (case-insensitive) and
// returns the normalised extension.
func CheckImageName(name string) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".png", ".jpg":
		return ext, nil
	}
	return "", apperror.ValidationFailed("image", "please send only png or jpg")
}

// contentTypeFor picks the MIME type from the extension when the client
// sent none or a generic one.
func contentTypeFor(ext, sent string) string {
	if sent != "" && sent != "application/octet-stream" {
		return sent
	}
	if ext == ".png" {
		return "image/png"
	}
	return "image/jpeg"
}

func validFolder(folder string) bool {
	return folder == FolderUsers || folder == FolderPhotos
}
