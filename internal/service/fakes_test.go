package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sakif/reactgram/internal/apperror"
	"github.com/sakif/reactgram/internal/auth"
	"github.com/sakif/reactgram/internal/model"
	"github.com/sakif/reactgram/internal/storage"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory repository.UserRepository.
// Using a fake (not a mock framework) keeps the tests easy to read: you
// can see exactly what the fake does.
type fakeUserRepo struct {
	mu      sync.Mutex
	users   map[string]*model.User // keyed by ID
	nextID  int
	failErr error // non-nil simulates a database failure on every call
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, user.Email) {
			return apperror.Conflict("email already in use")
		}
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	copied.PasswordHash = ""
	return &copied, nil
}

func (f *fakeUserRepo) GetCredentialsByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFoundMessage("user not found")
}

func (f *fakeUserRepo) Update(_ context.Context, id string, upd model.UserUpdate) (*model.User, error) {
	f.mu.Lock()
	u, ok := f.users[id]
	if !ok {
		f.mu.Unlock()
		return nil, apperror.NotFound("user", id)
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	if upd.ProfileImage != nil {
		u.ProfileImage = *upd.ProfileImage
	}
	u.UpdatedAt = time.Now()
	f.mu.Unlock()
	return f.GetByID(context.Background(), id)
}

// fakePhotoRepo is an in-memory repository.PhotoRepository.
type fakePhotoRepo struct {
	mu      sync.Mutex
	photos  map[string]*model.Photo
	seq     int
	deleted []string
}

func newFakePhotoRepo() *fakePhotoRepo {
	return &fakePhotoRepo{photos: make(map[string]*model.Photo)}
}

func (f *fakePhotoRepo) Create(_ context.Context, p *model.Photo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	p.ID = fmt.Sprintf("photo-%d", f.seq)
	p.CreatedAt = time.Unix(int64(f.seq), 0)
	p.Likes = []string{}
	p.Comments = []model.Comment{}
	copied := *p
	f.photos[p.ID] = &copied
	return nil
}

func (f *fakePhotoRepo) GetByID(_ context.Context, id string) (*model.Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.photos[id]
	if !ok {
		return nil, apperror.NotFoundMessage("photo not found")
	}
	copied := *p
	copied.Likes = append([]string{}, p.Likes...)
	copied.Comments = append([]model.Comment{}, p.Comments...)
	return &copied, nil
}

func (f *fakePhotoRepo) filter(keep func(*model.Photo) bool) []model.Photo {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Photo{}
	for _, p := range f.photos {
		if keep(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakePhotoRepo) List(context.Context) ([]model.Photo, error) {
	return f.filter(func(*model.Photo) bool { return true }), nil
}

func (f *fakePhotoRepo) ListByUser(_ context.Context, userID string) ([]model.Photo, error) {
	return f.filter(func(p *model.Photo) bool { return p.UserID == userID }), nil
}

func (f *fakePhotoRepo) Search(_ context.Context, q string) ([]model.Photo, error) {
	q = strings.ToLower(q)
	return f.filter(func(p *model.Photo) bool { return strings.Contains(strings.ToLower(p.Title), q) }), nil
}

func (f *fakePhotoRepo) UpdateTitle(ctx context.Context, id, title string) (*model.Photo, error) {
	f.mu.Lock()
	p, ok := f.photos[id]
	if ok {
		p.Title = title
	}
	f.mu.Unlock()
	if !ok {
		return nil, apperror.NotFoundMessage("photo not found")
	}
	return f.GetByID(ctx, id)
}

func (f *fakePhotoRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.photos[id]; !ok {
		return apperror.NotFoundMessage("photo not found")
	}
	delete(f.photos, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakePhotoRepo) AddLike(_ context.Context, photoID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.photos[photoID]
	if !ok {
		return apperror.NotFoundMessage("photo not found")
	}
	for _, id := range p.Likes {
		if id == userID {
			return apperror.Conflict("photo already liked")
		}
	}
	p.Likes = append(p.Likes, userID)
	return nil
}

func (f *fakePhotoRepo) AddComment(_ context.Context, photoID string, c *model.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.photos[photoID]
	if !ok {
		return apperror.NotFoundMessage("photo not found")
	}
	c.ID = fmt.Sprintf("comment-%d", len(p.Comments)+1)
	c.CreatedAt = time.Now()
	p.Comments = append(p.Comments, *c)
	return nil
}

// fakeImageStore records what was saved and returns folder/name refs.
type fakeImageStore struct {
	saved []string
	err   error
}

func (f *fakeImageStore) Save(_ context.Context, folder, name, _ string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := storage.CheckImageName(name); err != nil {
		return "", err
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	ref := folder + "/" + name
	f.saved = append(f.saved, ref)
	return ref, nil
}

var errDatabaseDown = errors.New("database is down")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!", 0)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

// newTestAuthService returns an AuthService wired with fake dependencies.
func newTestAuthService(t *testing.T, repo *fakeUserRepo) (*AuthService, *auth.TokenService) {
	t.Helper()
	ts := newTestTokens(t)
	// Cost 4 is the bcrypt minimum; it keeps the tests fast.
	ps := auth.NewPasswordServiceForTest(4)
	return NewAuthService(repo, ts, ps, testLogger()), ts
}
