package models

import (
	"database/sql"
	"time"
)

type User struct {
	ID           int       `db:"id"`
	Email        string    `db:"email"`
	Name         string    `db:"name"`
	PasswordHash string    `db:"password_hash"`
	IsAdmin      bool      `db:"is_admin"`
	CreatedAt    time.Time `db:"created_at"`
}

type Post struct {
	ID        int       `db:"id"`
	UserID    int       `db:"user_id"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

// FeedPost is a post joined with its author's display name.
type FeedPost struct {
	Post
	Author string `db:"author"`
}

type Session struct {
	ID        string       `db:"id"`
	UserID    int          `db:"user_id"`
	CreatedAt time.Time    `db:"created_at"`
	ExpiresAt time.Time    `db:"expires_at"`
	RevokedAt sql.NullTime `db:"revoked_at"`
}

// Stats holds the admin dashboard aggregates.
type Stats struct {
	Users int
	Posts int
}
