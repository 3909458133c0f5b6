package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/reactgram/internal/apperror"
	"github.com/sakif/reactgram/internal/model"
	"github.com/sakif/reactgram/internal/service"
)

// PhotoHandler serves /api/photos. Every route is behind the Auth Gate, so
// each method receives the resolved caller next to the request.
type PhotoHandler struct {
	photos    *service.PhotoService
	maxUpload int64
	logger    *slog.Logger
}

// NewPhotoHandler creates a PhotoHandler. maxUpload caps the multipart body
// of POST /api/photos.
func NewPhotoHandler(photos *service.PhotoService, maxUpload int64, logger *slog.Logger) *PhotoHandler {
	return &PhotoHandler{photos: photos, maxUpload: maxUpload, logger: logger}
}

type titleRequest struct {
	Title string `json:"title" validate:"required,min=3"`
}

type commentRequest struct {
	Comment string `json:"comment" validate:"required"`
}

// LikeResponse is returned by PUT /api/photos/like/{id}.
type LikeResponse struct {
	PhotoID string `json:"photoId"`
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// CommentResponse is returned by PUT /api/photos/comment/{id}.
type CommentResponse struct {
	Comment *model.Comment `json:"comment"`
	Message string         `json:"message"`
}

// DeleteResponse is returned by DELETE /api/photos/{id}.
type DeleteResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// HandleCreate uploads a photo.
//
// HTTP: POST /api/photos
// REQUEST: multipart/form-data with "image" (png or jpg) and "title"
//
//	201 the stored photo, owned by the caller
func (h *PhotoHandler) HandleCreate(w http.ResponseWriter, r *http.Request, caller model.User) {
	if !isMultipart(r) {
		writeError(w, h.logger, apperror.BadRequest("expected multipart/form-data"))
		return
	}
	if err := parseMultipart(w, r, h.maxUpload); err != nil {
		writeError(w, h.logger, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	var req titleRequest
	if title, ok := formValue(r, "title"); ok {
		req.Title = *title
	}

	file, upload, err := formFile(r, "image")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if file != nil {
		defer file.Close()
	}

	// A missing image is reported together with any title errors.
	var imageErr *apperror.AppError
	if upload == nil {
		imageErr = apperror.ValidationFailed("image", "image is required")
	}
	if err := validateStruct(req, imageErr); err != nil {
		writeError(w, h.logger, err)
		return
	}

	photo, err := h.photos.Create(r.Context(), caller, req.Title, *upload)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, photo)
}

// HandleList returns every photo, newest first.
//
// HTTP: GET /api/photos
func (h *PhotoHandler) HandleList(w http.ResponseWriter, r *http.Request, _ model.User) {
	photos, err := h.photos.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, photos)
}

// HandleListByUser returns the photos of one user, newest first.
//
// HTTP: GET /api/photos/user/{id}
func (h *PhotoHandler) HandleListByUser(w http.ResponseWriter, r *http.Request, _ model.User) {
	id, err := pathID(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	photos, err := h.photos.ListByUser(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, photos)
}

// HandleSearch finds photos whose title contains q, ignoring case.
//
// HTTP: GET /api/photos/search?q=
func (h *PhotoHandler) HandleSearch(w http.ResponseWriter, r *http.Request, _ model.User) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, h.logger, apperror.ValidationFailed("q", "q is required"))
		return
	}

	photos, err := h.photos.Search(r.Context(), q)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, photos)
}

// HandleGetByID returns one photo.
//
// HTTP: GET /api/photos/{id}
func (h *PhotoHandler) HandleGetByID(w http.ResponseWriter, r *http.Request, _ model.User) {
	id, err := pathID(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	photo, err := h.photos.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, photo)
}

// HandleUpdate renames a photo. Owner only.
//
// HTTP: PUT /api/photos/{id}
// REQUEST BODY: {"title": "..."}
func (h *PhotoHandler) HandleUpdate(w http.ResponseWriter, r *http.Request, caller model.User) {
	id, err := pathID(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req titleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := validateStruct(req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	photo, err := h.photos.UpdateTitle(r.Context(), caller, id, req.Title)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, photo)
}

// HandleLike records the caller's like. Owner only; a repeat like is 422.
//
// HTTP: PUT /api/photos/like/{id}
func (h *PhotoHandler) HandleLike(w http.ResponseWriter, r *http.Request, caller model.User) {
	id, err := pathID(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.photos.Like(r.Context(), caller, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, LikeResponse{
		PhotoID: id,
		UserID:  caller.ID,
		Message: "photo liked",
	})
}

// HandleComment adds a comment. Open to any authenticated user.
//
// HTTP: PUT /api/photos/comment/{id}
// REQUEST BODY: {"comment": "..."}
func (h *PhotoHandler) HandleComment(w http.ResponseWriter, r *http.Request, caller model.User) {
	id, err := pathID(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	req.Comment = strings.TrimSpace(req.Comment)
	if err := validateStruct(req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	c, err := h.photos.Comment(r.Context(), caller, id, req.Comment)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, CommentResponse{Comment: c, Message: "comment added"})
}

// HandleDelete removes a photo. Owner only.
//
// HTTP: DELETE /api/photos/{id}
//
//	200 {"id", "message"}
//	403 caller is not the owner
//	404 no such photo
func (h *PhotoHandler) HandleDelete(w http.ResponseWriter, r *http.Request, caller model.User) {
	id, err := pathID(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.photos.Delete(r.Context(), caller, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{ID: id, Message: "photo deleted"})
}
