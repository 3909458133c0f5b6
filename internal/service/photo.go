package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/reactgram/internal/auth"
	"github.com/sakif/reactgram/internal/model"
	"github.com/sakif/reactgram/internal/repository"
	"github.com/sakif/reactgram/internal/storage"
)

// PhotoService implements uploads, listings and the owner-only mutations.
//
// ORDER OF CHECKS ON MUTATIONS:
// existence first (404), ownership second (403). A non-owner therefore
// learns that the photo exists, which is fine: listings are public to any
// authenticated caller anyway.
type PhotoService struct {
	photos repository.PhotoRepository
	images storage.ImageStore
	logger *slog.Logger
}

func NewPhotoService(photos repository.PhotoRepository, images storage.ImageStore, logger *slog.Logger) *PhotoService {
	return &PhotoService{photos: photos, images: images, logger: logger}
}

// Create stores the image under photos/ and records it as owned by caller.
func (s *PhotoService) Create(ctx context.Context, caller model.User, title string, image Upload) (*model.Photo, error) {
	ref, err := s.images.Save(ctx, storage.FolderPhotos, image.Name, image.ContentType, image.Body)
	if err != nil {
		return nil, fmt.Errorf("service/photo: saving image: %w", err)
	}

	photo := &model.Photo{
		Image:    ref,
		Title:    strings.TrimSpace(title),
		UserID:   caller.ID,
		UserName: caller.Name,
	}
	if err := s.photos.Create(ctx, photo); err != nil {
		return nil, fmt.Errorf("service/photo: creating: %w", err)
	}

	s.logger.Info("photo created", slog.String("photoID", photo.ID), slog.String("userID", caller.ID))
	return photo, nil
}

func (s *PhotoService) List(ctx context.Context) ([]model.Photo, error) {
	photos, err := s.photos.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/photo: listing: %w", err)
	}
	return photos, nil
}

func (s *PhotoService) ListByUser(ctx context.Context, userID string) ([]model.Photo, error) {
	photos, err := s.photos.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/photo: listing for %s: %w", userID, err)
	}
	return photos, nil
}

func (s *PhotoService) Search(ctx context.Context, q string) ([]model.Photo, error) {
	photos, err := s.photos.Search(ctx, strings.TrimSpace(q))
	if err != nil {
		return nil, fmt.Errorf("service/photo: searching: %w", err)
	}
	return photos, nil
}

func (s *PhotoService) GetByID(ctx context.Context, id string) (*model.Photo, error) {
	photo, err := s.photos.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/photo: fetching %s: %w", id, err)
	}
	return photo, nil
}

// UpdateTitle renames a photo the caller owns.
func (s *PhotoService) UpdateTitle(ctx context.Context, caller model.User, id, title string) (*model.Photo, error) {
	if _, err := s.owned(ctx, caller, id, "you can only edit your own photos"); err != nil {
		return nil, err
	}

	photo, err := s.photos.UpdateTitle(ctx, id, strings.TrimSpace(title))
	if err != nil {
		return nil, fmt.Errorf("service/photo: updating %s: %w", id, err)
	}
	return photo, nil
}

// Like records the caller's like. Liking is an owner mutation: non-owners
// get Forbidden, and a second like by the same user is a Conflict.
func (s *PhotoService) Like(ctx context.Context, caller model.User, id string) error {
	if _, err := s.owned(ctx, caller, id, "you can only like your own photos"); err != nil {
		return err
	}
	if err := s.photos.AddLike(ctx, id, caller.ID); err != nil {
		return fmt.Errorf("service/photo: liking %s: %w", id, err)
	}
	return nil
}

// Comment adds a comment by caller. Any authenticated user may comment.
func (s *PhotoService) Comment(ctx context.Context, caller model.User, id, text string) (*model.Comment, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	c := &model.Comment{
		Comment:   strings.TrimSpace(text),
		UserID:    caller.ID,
		UserName:  caller.Name,
		UserImage: caller.ProfileImage,
	}
	if err := s.photos.AddComment(ctx, id, c); err != nil {
		return nil, fmt.Errorf("service/photo: commenting on %s: %w", id, err)
	}
	return c, nil
}

// Delete removes a photo the caller owns.
func (s *PhotoService) Delete(ctx context.Context, caller model.User, id string) error {
	if _, err := s.owned(ctx, caller, id, "you can only delete your own photos"); err != nil {
		return err
	}
	if err := s.photos.Delete(ctx, id); err != nil {
		return fmt.Errorf("service/photo: deleting %s: %w", id, err)
	}

	s.logger.Info("photo deleted", slog.String("photoID", id), slog.String("userID", caller.ID))
	return nil
}

// owned loads photo id and checks that caller owns it.
func (s *PhotoService) owned(ctx context.Context, caller model.User, id, denied string) (*model.Photo, error) {
	photo, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireOwner(photo.UserID, caller.ID, denied); err != nil {
		s.logger.Warn("ownership check failed",
			slog.String("photoID", id),
			slog.String("ownerID", photo.UserID),
			slog.String("callerID", caller.ID),
		)
		return nil, err
	}
	return photo, nil
}
