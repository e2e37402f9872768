package db

import (
	"database/sql"
	"embed"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

//go:embed schema.sql
var schemaFS embed.FS

const (
	AdminEmail = "admin@vibra.com"
	DemoEmail  = "demo@vibra.com"

	seedPassword   = "vibra123"
	welcomeContent = "Welcome to VIBRA! This is a sample post."
)

// Open opens the sqlite database at path, creating the containing
// directory if needed, then applies the schema and seed rows. The
// handle is returned even when migration or seeding fails so the
// caller can start degraded and surface the error per request.
func Open(path string) (*sqlx.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		return db, err
	}
	return db, seed(db)
}

func migrate(db *sqlx.DB) error {
	sqlBytes, err := fs.ReadFile(schemaFS, "schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(string(sqlBytes))
	return err
}

// seed inserts the two fixed accounts and the welcome post on an empty
// store. Existence checks keyed by email and post count keep repeated
// startups non-duplicating.
func seed(db *sqlx.DB) error {
	accounts := []struct {
		email, name string
		admin       bool
	}{
		{AdminEmail, "Matheus Pereira Silva", true},
		{DemoEmail, "Demo User", false},
	}
	for _, a := range accounts {
		var id int
		err := db.Get(&id, `SELECT id FROM users WHERE email = ?`, a.email)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		if _, err := db.Exec(
			`INSERT INTO users (email, name, password_hash, is_admin, created_at) VALUES (?, ?, ?, ?, ?)`,
			a.email, a.name, string(hash), a.admin, time.Now().UTC(),
		); err != nil {
			return err
		}
	}

	var posts int
	if err := db.Get(&posts, `SELECT COUNT(*) FROM posts`); err != nil {
		return err
	}
	if posts == 0 {
		if _, err := db.Exec(
			`INSERT INTO posts (user_id, content, created_at)
			 VALUES ((SELECT id FROM users WHERE email = ?), ?, ?)`,
			AdminEmail, welcomeContent, time.Now().UTC(),
		); err != nil {
			return err
		}
	}
	return nil
}
