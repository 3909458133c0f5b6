// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// JSON TAGS:
// The field names follow the client contract the frontend already speaks:
// "_id" for the identifier and camelCase for everything else.
//
// PasswordHash is loaded only by the credential lookup used at login and is
// never serialised.
type User struct {
	ID           string    `json:"_id"          db:"id"`
	Name         string    `json:"name"         db:"name"`
	Email        string    `json:"email"        db:"email"`
	PasswordHash string    `json:"-"            db:"password_hash"`
	Bio          string    `json:"bio"          db:"bio"`
	ProfileImage string    `json:"profileImage" db:"profile_image"`
	CreatedAt    time.Time `json:"createdAt"    db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"    db:"updated_at"`
}

// UserUpdate carries the optional fields of a profile edit.
// A nil pointer means "leave unchanged".
type UserUpdate struct {
	Name         *string
	PasswordHash *string
	Bio          *string
	ProfileImage *string
}
