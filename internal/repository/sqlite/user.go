package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/reactgram/internal/apperror"
	"github.com/sakif/reactgram/internal/model"
	"github.com/sakif/reactgram/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB is the store for the users table.
type UserDB struct {
	conn *sql.DB
}

// publicUserColumns is every column except password_hash.
const publicUserColumns = `id, name, email, bio, profile_image, created_at, updated_at`

// Create inserts a new user.
//
// DUPLICATE EMAILS:
// There is no "does this email exist?" pre-check. The UNIQUE (COLLATE NOCASE)
// constraint on users.email decides, so two concurrent registrations for the
// same address cannot both succeed. The loser gets apperror.Conflict.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.Email = strings.TrimSpace(user.Email)
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := u.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, bio, profile_image, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Bio,
		user.ProfileImage,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		user.ID = ""
		if isUniqueViolation(err) {
			return apperror.Conflict("email already in use")
		}
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by id, without the password hash.
// Returns apperror.ErrNotFound if no user exists with that id.
func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := u.conn.QueryRowContext(ctx,
		`SELECT `+publicUserColumns+` FROM users WHERE id = ?`, id)

	user, err := scanPublicUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

// GetCredentialsByEmail looks the user up by email (case-insensitive) and
// includes the password hash. Only the login path should call this.
func (u *UserDB) GetCredentialsByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := u.conn.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, bio, profile_image, created_at, updated_at
		 FROM users WHERE email = ?`,
		strings.TrimSpace(email),
	).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Bio,
		&user.ProfileImage,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundMessage("user not found")
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return &user, nil
}

// Update applies the non-nil fields of upd and returns the fresh record.
//
// COALESCE keeps the stored value for every NULL parameter, so one
// statement serves every combination of edited fields.
func (u *UserDB) Update(ctx context.Context, id string, upd model.UserUpdate) (*model.User, error) {
	res, err := u.conn.ExecContext(ctx,
		`UPDATE users SET
			name          = COALESCE(?, name),
			password_hash = COALESCE(?, password_hash),
			bio           = COALESCE(?, bio),
			profile_image = COALESCE(?, profile_image),
			updated_at    = ?
		 WHERE id = ?`,
		nullable(upd.Name),
		nullable(upd.PasswordHash),
		nullable(upd.Bio),
		nullable(upd.ProfileImage),
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating user %s: %w", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return nil, apperror.NotFound("user", id)
	}

	return u.GetByID(ctx, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPublicUser(row rowScanner) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Bio,
		&user.ProfileImage,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// nullable turns an optional string into a SQL parameter: nil → NULL.
func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
