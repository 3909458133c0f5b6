package model

import "time"

// Photo is an uploaded image owned by exactly one user.
//
// UserName is denormalised at upload time so listings can show the author
// without a join; it is not rewritten when the owner later renames.
type Photo struct {
	ID        string    `json:"_id"`
	Image     string    `json:"image"`
	Title     string    `json:"title"`
	Likes     []string  `json:"likes"`
	Comments  []Comment `json:"comments"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Comment is a single comment on a photo, carrying a snapshot of the
// commenter's name and avatar.
type Comment struct {
	ID        string    `json:"_id"`
	Comment   string    `json:"comment"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	UserImage string    `json:"userImage"`
	CreatedAt time.Time `json:"createdAt"`
}
