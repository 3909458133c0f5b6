package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/reactgram/internal/auth"
	"github.com/sakif/reactgram/internal/model"
	"github.com/sakif/reactgram/internal/service"
)

// UserHandler serves account endpoints under /api/users.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister → create an account, issue the first token
//   - HandleLogin    → check credentials, issue a token
//   - HandleLogout   → clear the token cookie
//   - HandleProfile  → the caller's own identity (gated)
//   - HandleUpdate   → edit the caller's profile (gated)
//   - HandleGetByID  → public lookup of any user
//
// Tokens go out twice: in the JSON body for clients that send a Bearer
// header, and in an HttpOnly cookie for browsers.
type UserHandler struct {
	auth      *service.AuthService
	users     *service.UserService
	cookies   *auth.Cookies
	maxUpload int64
	logger    *slog.Logger
}

// NewUserHandler creates a UserHandler. maxUpload caps multipart bodies of
// profile updates.
func NewUserHandler(
	authSvc *service.AuthService,
	users *service.UserService,
	cookies *auth.Cookies,
	maxUpload int64,
	logger *slog.Logger,
) *UserHandler {
	return &UserHandler{
		auth:      authSvc,
		users:     users,
		cookies:   cookies,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

type registerRequest struct {
	Name            string `json:"name" validate:"required,min=3"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=5,maxbytes=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// RegisterResponse is returned by POST /api/users/register.
type RegisterResponse struct {
	ID    string `json:"_id"`
	Token string `json:"token"`
}

// HandleRegister creates an account.
//
// HTTP: POST /api/users/register
// REQUEST BODY: {"name","email","password","confirmPassword"}
//
//	201 {"_id": "...", "token": "..."}  + token cookie
//	422 field errors, or "email already in use"
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := validateStruct(req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.auth.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.cookies.Set(w, res.Token)
	writeJSON(w, http.StatusCreated, RegisterResponse{ID: res.User.ID, Token: res.Token})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned by POST /api/users/login.
type LoginResponse struct {
	ID           string `json:"_id"`
	ProfileImage string `json:"profileImage"`
	Token        string `json:"token"`
	Message      string `json:"message"`
}

// HandleLogin exchanges email and password for a token.
//
// HTTP: POST /api/users/login
//
//	200 {"_id", "profileImage", "token", "message"} + token cookie
//	404 "user not found"
//	422 "invalid credentials"
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validateStruct(req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.cookies.Set(w, res.Token)
	writeJSON(w, http.StatusOK, LoginResponse{
		ID:           res.User.ID,
		ProfileImage: res.User.ProfileImage,
		Token:        res.Token,
		Message:      "logged in",
	})
}

// HandleLogout clears the token cookie.
//
// HTTP: POST /api/users/logout
//
// Tokens are stateless, so a copied token stays valid until it expires.
// Logout only removes the browser's copy.
func (h *UserHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "logged out"})
}

// HandleProfile returns the caller's identity as the gate resolved it.
//
// HTTP: GET /api/users/profile (gated)
func (h *UserHandler) HandleProfile(w http.ResponseWriter, r *http.Request, caller model.User) {
	writeJSON(w, http.StatusOK, caller)
}

type updateUserRequest struct {
	Name     *string `json:"name" validate:"omitnil,min=3"`
	Password *string `json:"password" validate:"omitnil,min=5,maxbytes=72"`
	Bio      *string `json:"bio" validate:"omitnil,max=500"`
}

// HandleUpdate edits the caller's profile.
//
// HTTP: PUT /api/users (gated)
//
// Accepts JSON, or multipart/form-data when a new profileImage is sent.
// Omitted fields are left as they are.
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request, caller model.User) {
	var (
		req    updateUserRequest
		upload *service.Upload
	)

	if isMultipart(r) {
		if err := parseMultipart(w, r, h.maxUpload); err != nil {
			writeError(w, h.logger, err)
			return
		}
		defer r.MultipartForm.RemoveAll()

		req.Name, _ = formValue(r, "name")
		req.Password, _ = formRawValue(r, "password")
		req.Bio, _ = formValue(r, "bio")

		file, up, err := formFile(r, "profileImage")
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		if file != nil {
			defer file.Close()
			upload = up
		}
	} else if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := validateStruct(req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.users.Update(r.Context(), caller, service.UpdateInput{
		Name:         req.Name,
		Password:     req.Password,
		Bio:          req.Bio,
		ProfileImage: upload,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleGetByID returns a user's public profile.
//
// HTTP: GET /api/users/{id}
func (h *UserHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
