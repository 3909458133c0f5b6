package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/reactgram/internal/auth"
	"github.com/sakif/reactgram/internal/handler"
	sqliteRepo "github.com/sakif/reactgram/internal/repository/sqlite"
	"github.com/sakif/reactgram/internal/service"
	"github.com/sakif/reactgram/internal/storage"
)

const testMaxUpload = 1 << 20

// harness wires the handlers over a real in-memory database and a
// temporary upload directory, with routes laid out as in production.
type harness struct {
	router    *chi.Mux
	tokens    *auth.TokenService
	uploadDir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	uploadDir := t.TempDir()
	images, err := storage.NewDiskStore(uploadDir)
	require.NoError(t, err)

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789", 0)
	require.NoError(t, err)
	passwords := auth.NewPasswordServiceForTest(4)
	cookies := auth.NewCookies(auth.CookieConfig{}, tokens.TTL())
	gate := auth.NewGate(tokens, db.Users(), logger)

	authSvc := service.NewAuthService(db.Users(), tokens, passwords, logger)
	userSvc := service.NewUserService(db.Users(), passwords, images, logger)
	photoSvc := service.NewPhotoService(db.Photos(), images, logger)

	users := handler.NewUserHandler(authSvc, userSvc, cookies, testMaxUpload, logger)
	photos := handler.NewPhotoHandler(photoSvc, testMaxUpload, logger)

	r := chi.NewRouter()
	r.Get("/", handler.HandleRoot)
	r.Get("/api-docs/openapi.json", handler.HandleOpenAPI)
	r.Route("/api/users", func(r chi.Router) {
		r.Post("/register", users.HandleRegister)
		r.Post("/login", users.HandleLogin)
		r.Post("/logout", users.HandleLogout)
		r.Method(http.MethodGet, "/profile", gate.Require(users.HandleProfile))
		r.Method(http.MethodPut, "/", gate.Require(users.HandleUpdate))
		r.Get("/{id}", users.HandleGetByID)
	})
	r.Route("/api/photos", func(r chi.Router) {
		r.Method(http.MethodPost, "/", gate.Require(photos.HandleCreate))
		r.Method(http.MethodGet, "/", gate.Require(photos.HandleList))
		r.Method(http.MethodGet, "/user/{id}", gate.Require(photos.HandleListByUser))
		r.Method(http.MethodGet, "/search", gate.Require(photos.HandleSearch))
		r.Method(http.MethodGet, "/{id}", gate.Require(photos.HandleGetByID))
		r.Method(http.MethodPut, "/{id}", gate.Require(photos.HandleUpdate))
		r.Method(http.MethodDelete, "/{id}", gate.Require(photos.HandleDelete))
		r.Method(http.MethodPut, "/like/{id}", gate.Require(photos.HandleLike))
		r.Method(http.MethodPut, "/comment/{id}", gate.Require(photos.HandleComment))
	})

	return &harness{router: r, tokens: tokens, uploadDir: uploadDir}
}

// do sends a request. token, when non-empty, goes in a Bearer header.
func (h *harness) do(method, path, contentType string, body io.Reader, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.router.ServeHTTP(rr, req)
	return rr
}

func (h *harness) doJSON(method, path, body, token string) *httptest.ResponseRecorder {
	return h.do(method, path, "application/json", bytes.NewBufferString(body), token)
}

// register creates an account and returns its id and token.
func (h *harness) register(t *testing.T, name, email string) (string, string) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{
		"name":            name,
		"email":           email,
		"password":        "secret1",
		"confirmPassword": "secret1",
	})
	rr := h.doJSON(http.MethodPost, "/api/users/register", string(body), "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var res handler.RegisterResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	return res.ID, res.Token
}

type formFile struct {
	field, name, contentType string
	data                     []byte
}

// multipartBody builds a multipart/form-data body from fields and files.
func multipartBody(t *testing.T, fields map[string]string, files ...formFile) (string, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		hdr.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return mw.FormDataContentType(), &buf
}

func pngFile(field, name string) formFile {
	return formFile{field: field, name: name, contentType: "image/png", data: []byte("\x89PNG\r\n\x1a\nfake")}
}

func decodeErrors(t *testing.T, rr *httptest.ResponseRecorder) []string {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body.Errors
}

func tokenCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.TokenCookieName {
			return c
		}
	}
	return nil
}
