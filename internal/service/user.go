package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sakif/reactgram/internal/auth"
	"github.com/sakif/reactgram/internal/model"
	"github.com/sakif/reactgram/internal/repository"
	"github.com/sakif/reactgram/internal/storage"
)

// Upload is a file received from a client.
type Upload struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// UserService reads and edits profiles.
type UserService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	images    storage.ImageStore
	logger    *slog.Logger
}

func NewUserService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	images storage.ImageStore,
	logger *slog.Logger,
) *UserService {
	return &UserService{users: users, passwords: passwords, images: images, logger: logger}
}

// GetByID returns the public profile of id.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/user: fetching %s: %w", id, err)
	}
	return user, nil
}

// UpdateInput is an already shape-validated profile edit.
// nil fields are left unchanged.
type UpdateInput struct {
	Name         *string
	Password     *string
	Bio          *string
	ProfileImage *Upload
}

// Update edits the caller's own profile. Only the caller can be edited:
// there is no id parameter to get wrong.
//
// A new password is re-hashed; a new image is stored under users/ first so a
// failed upload leaves the profile untouched.
func (s *UserService) Update(ctx context.Context, caller model.User, in UpdateInput) (*model.User, error) {
	var upd model.UserUpdate

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		upd.Name = &name
	}
	if in.Bio != nil {
		upd.Bio = in.Bio
	}
	if in.Password != nil {
		hash, err := s.passwords.Hash(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("service/user: hashing password: %w", err)
		}
		upd.PasswordHash = &hash
	}
	if in.ProfileImage != nil {
		ref, err := s.images.Save(ctx, storage.FolderUsers, in.ProfileImage.Name, in.ProfileImage.ContentType, in.ProfileImage.Body)
		if err != nil {
			return nil, fmt.Errorf("service/user: saving profile image: %w", err)
		}
		upd.ProfileImage = &ref
	}

	user, err := s.users.Update(ctx, caller.ID, upd)
	if err != nil {
		return nil, fmt.Errorf("service/user: updating %s: %w", caller.ID, err)
	}

	s.logger.Info("profile updated",
		slog.String("userID", caller.ID),
		slog.Bool("passwordChanged", upd.PasswordHash != nil),
		slog.Bool("imageChanged", upd.ProfileImage != nil),
	)
	return user, nil
}
