package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sakif/reactgram/internal/apperror"
	"github.com/sakif/reactgram/internal/model"
)

// newTestUserDB returns a *UserDB backed by a fresh in-memory DB.
func newTestUserDB(t *testing.T) (*DB, *UserDB) {
	t.Helper()
	db := newTestDB(t)
	return db, db.Users()
}

// createTestUser creates a user and fails the test if it errors.
func createTestUser(t *testing.T, u *UserDB, name, email string) *model.User {
	t.Helper()
	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: "$2a$04$fakehashfakehashfakehashfakehashfakehashfakehashfake",
	}
	if err := u.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestUserCreate(t *testing.T) {
	_, u := newTestUserDB(t)

	user := &model.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "h"}
	if err := u.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if user.ID == "" {
		t.Error("Create() did not set user.ID")
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	_, u := newTestUserDB(t)
	createTestUser(t, u, "First", "dup@example.com")

	tests := []struct {
		name  string
		email string
	}{
		{"same case", "dup@example.com"},
		{"different case", "DUP@Example.com"},
		{"surrounding spaces", "  dup@example.com "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dup := &model.User{Name: "Second", Email: tt.email, PasswordHash: "h"}
			err := u.Create(context.Background(), dup)
			if !errors.Is(err, apperror.ErrConflict) {
				t.Fatalf("Create() error = %v, want ErrConflict", err)
			}
			if err.Error() != "email already in use" {
				t.Errorf("Create() message = %q", err.Error())
			}
			if dup.ID != "" {
				t.Errorf("Create() left ID %q on failure", dup.ID)
			}
		})
	}
}

// Concurrent registrations of one email: the UNIQUE constraint lets exactly one win.
func TestUserCreate_ConcurrentDuplicate(t *testing.T) {
	_, u := newTestUserDB(t)

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok, clash int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := u.Create(context.Background(), &model.User{Name: "Racer", Email: "race@example.com", PasswordHash: "h"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, apperror.ErrConflict):
				clash++
			default:
				t.Errorf("Create() unexpected error = %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || clash != n-1 {
		t.Errorf("successes = %d, conflicts = %d; want 1 and %d", ok, clash, n-1)
	}
}

// =========================================================================
// READ TESTS
// =========================================================================

func TestUserGetByID_OmitsPasswordHash(t *testing.T) {
	_, u := newTestUserDB(t)
	created := createTestUser(t, u, "Alice", "alice@example.com")

	got, err := u.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Email != "alice@example.com" || got.Name != "Alice" {
		t.Errorf("GetByID() = %+v", got)
	}
	if got.PasswordHash != "" {
		t.Error("GetByID() returned a password hash")
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	_, u := newTestUserDB(t)

	_, err := u.GetByID(context.Background(), "d0000000000000000000")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestUserGetCredentialsByEmail(t *testing.T) {
	_, u := newTestUserDB(t)
	created := createTestUser(t, u, "Alice", "alice@example.com")

	got, err := u.GetCredentialsByEmail(context.Background(), "ALICE@example.com")
	if err != nil {
		t.Fatalf("GetCredentialsByEmail() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("ID = %q, want %q", got.ID, created.ID)
	}
	if got.PasswordHash != created.PasswordHash {
		t.Error("GetCredentialsByEmail() did not return the password hash")
	}

	_, err = u.GetCredentialsByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetCredentialsByEmail(unknown) error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestUserUpdate_PartialFields(t *testing.T) {
	_, u := newTestUserDB(t)
	created := createTestUser(t, u, "Alice", "alice@example.com")

	bio := "hello there"
	got, err := u.Update(context.Background(), created.ID, model.UserUpdate{Bio: &bio})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Bio != bio {
		t.Errorf("Bio = %q, want %q", got.Bio, bio)
	}
	if got.Name != "Alice" {
		t.Errorf("Name changed to %q although it was not in the update", got.Name)
	}

	name, image, hash := "Alicia", "1700000000000.png", "new-hash"
	got, err = u.Update(context.Background(), created.ID, model.UserUpdate{
		Name:         &name,
		ProfileImage: &image,
		PasswordHash: &hash,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Name != name || got.ProfileImage != image || got.Bio != bio {
		t.Errorf("Update() = %+v", got)
	}

	creds, _ := u.GetCredentialsByEmail(context.Background(), "alice@example.com")
	if creds.PasswordHash != hash {
		t.Errorf("PasswordHash = %q, want %q", creds.PasswordHash, hash)
	}
}

func TestUserUpdate_NotFound(t *testing.T) {
	_, u := newTestUserDB(t)
	name := "ghost"
	_, err := u.Update(context.Background(), "missing", model.UserUpdate{Name: &name})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Update() error = %v, want ErrNotFound", err)
	}
}
