// Package repository declares the storage contracts the services depend on.
//
// Implementations translate driver errors once: a missing row becomes
// apperror.ErrNotFound, a uniqueness clash becomes apperror.ErrConflict.
// Nothing above this layer inspects driver errors.
package repository

import (
	"context"

	"github.com/sakif/reactgram/internal/model"
)

type UserRepository interface {
	// Create inserts user, assigning ID and timestamps in place.
	// A duplicate email yields apperror.ErrConflict.
	Create(ctx context.Context, user *model.User) error
	// GetByID never populates PasswordHash.
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetCredentialsByEmail is the only read that returns PasswordHash.
	GetCredentialsByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, id string, upd model.UserUpdate) (*model.User, error)
}

type PhotoRepository interface {
	Create(ctx context.Context, photo *model.Photo) error
	GetByID(ctx context.Context, id string) (*model.Photo, error)
	// List returns every photo, newest first.
	List(ctx context.Context) ([]model.Photo, error)
	ListByUser(ctx context.Context, userID string) ([]model.Photo, error)
	// Search matches q case-insensitively against titles.
	Search(ctx context.Context, q string) ([]model.Photo, error)
	UpdateTitle(ctx context.Context, id, title string) (*model.Photo, error)
	Delete(ctx context.Context, id string) error
	// AddLike yields apperror.ErrConflict when userID already liked the photo.
	AddLike(ctx context.Context, photoID, userID string) error
	AddComment(ctx context.Context, photoID string, c *model.Comment) error
}
