package models

import (
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

func CreateUser(db *sqlx.DB, email, name, passwordHash string, isAdmin bool) error {
	_, err := db.Exec(
		`INSERT INTO users (email, name, password_hash, is_admin, created_at) VALUES (?, ?, ?, ?, ?)`,
		email, name, passwordHash, isAdmin, time.Now().UTC(),
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
		return ErrDuplicateEmail
	}
	return err
}

func GetUserByEmail(db *sqlx.DB, email string) (*User, error) {
	var u User
	err := db.Get(&u, `SELECT id, email, name, password_hash, is_admin, created_at FROM users WHERE email = ?`, email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func GetUserByID(db *sqlx.DB, id int) (*User, error) {
	var u User
	err := db.Get(&u, `SELECT id, email, name, password_hash, is_admin, created_at FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns all users ordered by id. The password hash is not
// projected.
func ListUsers(db *sqlx.DB) ([]User, error) {
	var users []User
	err := db.Select(&users, `SELECT id, email, name, is_admin, created_at FROM users ORDER BY id`)
	return users, err
}

func CountUsers(db *sqlx.DB) (int, error) {
	var n int
	err := db.Get(&n, `SELECT COUNT(*) FROM users`)
	return n, err
}

func CountPosts(db *sqlx.DB) (int, error) {
	var n int
	err := db.Get(&n, `SELECT COUNT(*) FROM posts`)
	return n, err
}

func CreatePost(db *sqlx.DB, userID int, content string) error {
	_, err := db.Exec(
		`INSERT INTO posts (user_id, content, created_at) VALUES (?, ?, ?)`,
		userID, content, time.Now().UTC(),
	)
	return err
}

// ListFeed returns every post joined with its author, most recent
// first. The full feed is returned every time; there is no pagination.
func ListFeed(db *sqlx.DB) ([]FeedPost, error) {
	var posts []FeedPost
	err := db.Select(&posts,
		`SELECT p.id, p.user_id, p.content, p.created_at, u.name AS author
		 FROM posts p JOIN users u ON u.id = p.user_id
		 ORDER BY p.created_at DESC, p.id DESC`)
	return posts, err
}

func CreateSession(db *sqlx.DB, userID int, sessionID string, expires time.Time) error {
	// revoke existing
	_, err := db.Exec(`UPDATE sessions SET revoked_at = ? WHERE user_id = ? AND revoked_at IS NULL`,
		time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	_, err = db.Exec(`INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		sessionID, userID, time.Now().UTC(), expires)
	return err
}

func GetSession(db *sqlx.DB, id string) (*Session, error) {
	var s Session
	err := db.Get(&s, `SELECT id, user_id, created_at, expires_at, revoked_at FROM sessions WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func RevokeSession(db *sqlx.DB, id string) error {
	_, err := db.Exec(`UPDATE sessions SET revoked_at = ? WHERE id = ?`, time.Now().UTC(), id)
	return err
}
