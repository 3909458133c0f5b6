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

var _ repository.PhotoRepository = (*PhotoDB)(nil)

// PhotoDB is the store for photos and their likes and comments.
//
// Likes and comments live in their own tables (photo_likes, photo_comments)
// and are folded back into model.Photo on read. The composite primary key
// of photo_likes is what makes "like twice" impossible.
type PhotoDB struct {
	conn *sql.DB
}

const photoColumns = `id, image, title, user_id, user_name, created_at, updated_at`

// Create inserts a photo, assigning ID and timestamps in place.
// An unknown user_id yields apperror.ErrNotFound.
func (p *PhotoDB) Create(ctx context.Context, photo *model.Photo) error {
	now := time.Now().UTC()
	photo.ID = xid.New().String()
	photo.CreatedAt = now
	photo.UpdatedAt = now
	photo.Likes = []string{}
	photo.Comments = []model.Comment{}

	_, err := p.conn.ExecContext(ctx,
		`INSERT INTO photos (id, image, title, user_id, user_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		photo.ID,
		photo.Image,
		photo.Title,
		photo.UserID,
		photo.UserName,
		photo.CreatedAt,
		photo.UpdatedAt,
	)
	if err != nil {
		photo.ID = ""
		if isForeignKeyViolation(err) {
			return apperror.NotFoundMessage("user not found")
		}
		return fmt.Errorf("sqlite: inserting photo: %w", err)
	}
	return nil
}

// GetByID returns the photo with its likes and comments.
func (p *PhotoDB) GetByID(ctx context.Context, id string) (*model.Photo, error) {
	var photo model.Photo
	err := p.conn.QueryRowContext(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE id = ?`, id,
	).Scan(
		&photo.ID,
		&photo.Image,
		&photo.Title,
		&photo.UserID,
		&photo.UserName,
		&photo.CreatedAt,
		&photo.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundMessage("photo not found")
		}
		return nil, fmt.Errorf("sqlite: getting photo %s: %w", id, err)
	}

	photos := []model.Photo{photo}
	if err := p.attachRelations(ctx, photos); err != nil {
		return nil, err
	}
	return &photos[0], nil
}

// List returns every photo, newest first.
//
// ORDER BY id as the tie-breaker: xids sort by creation time, so photos
// created within the same timestamp tick keep a stable order.
func (p *PhotoDB) List(ctx context.Context) ([]model.Photo, error) {
	return p.query(ctx,
		`SELECT `+photoColumns+` FROM photos ORDER BY created_at DESC, id DESC`)
}

// ListByUser returns the photos owned by userID, newest first.
func (p *PhotoDB) ListByUser(ctx context.Context, userID string) ([]model.Photo, error) {
	return p.query(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID)
}

// Search returns photos whose title contains q, ignoring case (Unicode
// lower-folding on both sides). LIKE wildcards in q are matched literally.
func (p *PhotoDB) Search(ctx context.Context, q string) ([]model.Photo, error) {
	return p.query(ctx,
		`SELECT `+photoColumns+` FROM photos
		 WHERE fold_case(title) LIKE '%' || ? || '%' ESCAPE '\'
		 ORDER BY created_at DESC, id DESC`,
		escapeLike(strings.ToLower(q)))
}

// UpdateTitle sets the title and returns the updated photo.
func (p *PhotoDB) UpdateTitle(ctx context.Context, id, title string) (*model.Photo, error) {
	res, err := p.conn.ExecContext(ctx,
		`UPDATE photos SET title = ?, updated_at = ? WHERE id = ?`,
		title, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating photo %s: %w", id, err)
	}
	if err := expectOneRow(res, "photo not found"); err != nil {
		return nil, err
	}
	return p.GetByID(ctx, id)
}

// Delete removes the photo. Likes and comments go with it (ON DELETE CASCADE).
func (p *PhotoDB) Delete(ctx context.Context, id string) error {
	res, err := p.conn.ExecContext(ctx, `DELETE FROM photos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting photo %s: %w", id, err)
	}
	return expectOneRow(res, "photo not found")
}

// AddLike records that userID likes photoID.
func (p *PhotoDB) AddLike(ctx context.Context, photoID, userID string) error {
	_, err := p.conn.ExecContext(ctx,
		`INSERT INTO photo_likes (photo_id, user_id, created_at) VALUES (?, ?, ?)`,
		photoID, userID, time.Now().UTC())
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return apperror.Conflict("photo already liked")
		case isForeignKeyViolation(err):
			return apperror.NotFoundMessage("photo not found")
		}
		return fmt.Errorf("sqlite: liking photo %s: %w", photoID, err)
	}
	return nil
}

// AddComment appends c to the photo, assigning its ID and CreatedAt.
func (p *PhotoDB) AddComment(ctx context.Context, photoID string, c *model.Comment) error {
	c.ID = xid.New().String()
	c.CreatedAt = time.Now().UTC()

	_, err := p.conn.ExecContext(ctx,
		`INSERT INTO photo_comments (id, photo_id, user_id, user_name, user_image, comment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, photoID, c.UserID, c.UserName, c.UserImage, c.Comment, c.CreatedAt)
	if err != nil {
		c.ID = ""
		if isForeignKeyViolation(err) {
			return apperror.NotFoundMessage("photo not found")
		}
		return fmt.Errorf("sqlite: commenting on photo %s: %w", photoID, err)
	}
	return nil
}

// query runs a photo SELECT and attaches likes and comments to the result.
func (p *PhotoDB) query(ctx context.Context, query string, args ...any) ([]model.Photo, error) {
	rows, err := p.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing photos: %w", err)
	}
	defer rows.Close()

	// Non-nil so an empty result encodes as [] rather than null.
	photos := []model.Photo{}
	for rows.Next() {
		var photo model.Photo
		if err := rows.Scan(
			&photo.ID,
			&photo.Image,
			&photo.Title,
			&photo.UserID,
			&photo.UserName,
			&photo.CreatedAt,
			&photo.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning photo: %w", err)
		}
		photos = append(photos, photo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating photos: %w", err)
	}
	// Close before issuing the relation queries: a ":memory:" pool has one connection.
	rows.Close()

	if err := p.attachRelations(ctx, photos); err != nil {
		return nil, err
	}
	return photos, nil
}

// attachRelations loads likes and comments for every photo in two queries
// instead of two per photo.
func (p *PhotoDB) attachRelations(ctx context.Context, photos []model.Photo) error {
	if len(photos) == 0 {
		return nil
	}

	index := make(map[string]int, len(photos))
	ids := make([]any, len(photos))
	for i := range photos {
		photos[i].Likes = []string{}
		photos[i].Comments = []model.Comment{}
		index[photos[i].ID] = i
		ids[i] = photos[i].ID
	}
	in := placeholders(len(ids))

	likeRows, err := p.conn.QueryContext(ctx,
		`SELECT photo_id, user_id FROM photo_likes
		 WHERE photo_id IN (`+in+`) ORDER BY created_at, user_id`, ids...)
	if err != nil {
		return fmt.Errorf("sqlite: loading likes: %w", err)
	}
	for likeRows.Next() {
		var photoID, userID string
		if err := likeRows.Scan(&photoID, &userID); err != nil {
			likeRows.Close()
			return fmt.Errorf("sqlite: scanning like: %w", err)
		}
		i := index[photoID]
		photos[i].Likes = append(photos[i].Likes, userID)
	}
	if err := likeRows.Err(); err != nil {
		likeRows.Close()
		return fmt.Errorf("sqlite: iterating likes: %w", err)
	}
	likeRows.Close()

	commentRows, err := p.conn.QueryContext(ctx,
		`SELECT id, photo_id, user_id, user_name, user_image, comment, created_at
		 FROM photo_comments WHERE photo_id IN (`+in+`) ORDER BY created_at, id`, ids...)
	if err != nil {
		return fmt.Errorf("sqlite: loading comments: %w", err)
	}
	defer commentRows.Close()
	for commentRows.Next() {
		var (
			c       model.Comment
			photoID string
		)
		if err := commentRows.Scan(&c.ID, &photoID, &c.UserID, &c.UserName, &c.UserImage, &c.Comment, &c.CreatedAt); err != nil {
			return fmt.Errorf("sqlite: scanning comment: %w", err)
		}
		i := index[photoID]
		photos[i].Comments = append(photos[i].Comments, c)
	}
	if err := commentRows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating comments: %w", err)
	}
	return nil
}

func expectOneRow(res sql.Result, notFound string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFoundMessage(notFound)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
