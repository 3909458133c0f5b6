package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/reactgram/internal/apperror"
	"github.com/sakif/reactgram/internal/model"
)

// IdentityResolver loads the user a verified token points at.
// The returned user must not carry a password hash.
type IdentityResolver interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// HandlerFunc is a handler that runs only for an admitted request.
// The caller is the user the gate resolved for this request.
type HandlerFunc func(w http.ResponseWriter, r *http.Request, caller model.User)

// Gate is the per-route authentication check.
//
// PIPELINE (one request at a time, no shared state between requests):
//
//	Extract  → Bearer header, else the "token" cookie   none    → 401 "no token provided"
//	Verify   → TokenService.Verify                      invalid → 401 "invalid token"
//	Resolve  → IdentityResolver.GetByID                 missing → 404 "user not found"
//	Admit    → next(w, r, user)
//
// The gate is wrapped around individual routes in server.go, never
// installed globally, so public routes such as register/login stay open.
type Gate struct {
	tokens *TokenService
	users  IdentityResolver
	logger *slog.Logger
}

// NewGate creates a Gate.
func NewGate(tokens *TokenService, users IdentityResolver, logger *slog.Logger) *Gate {
	return &Gate{tokens: tokens, users: users, logger: logger}
}

// Require wraps next so it runs only for an authenticated caller.
func (g *Gate) Require(next HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := g.Authenticate(r)
		if err != nil {
			g.deny(w, r, err)
			return
		}
		next(w, r, caller)
	})
}

// Authenticate runs Extract → Verify → Resolve for r.
//
// Errors are *apperror.AppError values classified as ErrUnauthenticated or
// ErrNotFound; anything else is a store failure.
func (g *Gate) Authenticate(r *http.Request) (model.User, error) {
	raw := ExtractToken(r)
	if raw == "" {
		return model.User{}, apperror.Unauthenticated("no token provided")
	}

	subject, err := g.tokens.Verify(raw)
	if err != nil {
		return model.User{}, apperror.Unauthenticated("invalid token")
	}

	user, err := g.users.GetByID(r.Context(), subject)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return model.User{}, apperror.NotFoundMessage("user not found")
		}
		return model.User{}, fmt.Errorf("auth: resolving user %s: %w", subject, err)
	}

	caller := *user
	caller.PasswordHash = ""
	return caller, nil
}

// ExtractToken returns the bearer token of r, or "" when none is present.
//
// "Authorization: Bearer <t>" wins; the scheme is matched case-insensitively.
// Otherwise the "token" cookie is used, which is what browsers send after
// login since the cookie is HttpOnly.
func ExtractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(strings.TrimSpace(h), " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			if token = strings.TrimSpace(token); token != "" {
				return token
			}
		}
	}

	if c, err := r.Cookie(TokenCookieName); err == nil {
		return c.Value
	}
	return ""
}

// deny writes the gate's failure response in the API's {"errors": [...]} shape.
func (g *Gate) deny(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	var appErr *apperror.AppError
	switch {
	case errors.Is(err, apperror.ErrUnauthenticated) && errors.As(err, &appErr):
		status, message = http.StatusUnauthorized, appErr.Message
	case errors.Is(err, apperror.ErrNotFound) && errors.As(err, &appErr):
		status, message = http.StatusNotFound, appErr.Message
	default:
		g.logger.Error("auth gate: resolving caller failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}

	if status != http.StatusInternalServerError {
		g.logger.Debug("auth gate: request denied",
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.String("reason", message),
		)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string][]string{"errors": {message}})
}
