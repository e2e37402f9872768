package models_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"vibra/internal/db"
	"vibra/internal/models"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("db open: %v", err)
	}
	return database
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	database := openTestDB(t)
	err := models.CreateUser(database, db.AdminEmail, "Someone Else", "hash", false)
	if !errors.Is(err, models.ErrDuplicateEmail) {
		t.Fatalf("got %v, want ErrDuplicateEmail", err)
	}
	n, _ := models.CountUsers(database)
	if n != 2 {
		t.Fatalf("got %d users, want 2", n)
	}
}

func TestListUsersOmitsHash(t *testing.T) {
	database := openTestDB(t)
	users, err := models.ListUsers(database)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("got %d users", len(users))
	}
	for i := 1; i < len(users); i++ {
		if users[i].ID < users[i-1].ID {
			t.Fatalf("users not ordered by id")
		}
	}
	for _, u := range users {
		if u.PasswordHash != "" {
			t.Fatalf("password hash projected for %s", u.Email)
		}
	}
}

func TestListFeedOrder(t *testing.T) {
	database := openTestDB(t)
	demo, err := models.GetUserByEmail(database, db.DemoEmail)
	if err != nil {
		t.Fatalf("demo user: %v", err)
	}
	for _, content := range []string{"first", "second"} {
		if err := models.CreatePost(database, demo.ID, content); err != nil {
			t.Fatalf("create post: %v", err)
		}
	}
	posts, err := models.ListFeed(database)
	if err != nil {
		t.Fatalf("list feed: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("got %d posts, want 3", len(posts))
	}
	if posts[0].Content != "second" || posts[1].Content != "first" {
		t.Fatalf("feed out of order: %q, %q", posts[0].Content, posts[1].Content)
	}
	if posts[0].Author != "Demo User" {
		t.Fatalf("author %q", posts[0].Author)
	}
}

func TestSessionLifecycle(t *testing.T) {
	database := openTestDB(t)
	admin, err := models.GetUserByEmail(database, db.AdminEmail)
	if err != nil {
		t.Fatalf("admin user: %v", err)
	}
	expires := time.Now().Add(time.Hour)
	if err := models.CreateSession(database, admin.ID, "sid-1", expires); err != nil {
		t.Fatalf("create session: %v", err)
	}
	sess, err := models.GetSession(database, "sid-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if sess.UserID != admin.ID || sess.RevokedAt.Valid {
		t.Fatalf("unexpected session %+v", sess)
	}

	// a second login revokes the first session
	if err := models.CreateSession(database, admin.ID, "sid-2", expires); err != nil {
		t.Fatalf("create session: %v", err)
	}
	sess, err = models.GetSession(database, "sid-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if !sess.RevokedAt.Valid {
		t.Fatalf("first session not revoked")
	}

	if err := models.RevokeSession(database, "sid-2"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	sess, _ = models.GetSession(database, "sid-2")
	if !sess.RevokedAt.Valid {
		t.Fatalf("second session not revoked")
	}
}
