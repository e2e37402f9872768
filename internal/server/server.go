package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"vibra/internal/models"
)

const sessionTTL = 24 * time.Hour

type Server struct {
	DB         *sqlx.DB
	tmpl       map[string]*template.Template
	validate   *validator.Validate
	secret     []byte
	CookieName string
}

func New(db *sqlx.DB, templateDir, secret string) (*Server, error) {
	templates := map[string]*template.Template{}
	layout := filepath.Join(templateDir, "layout.html")
	pages, err := filepath.Glob(filepath.Join(templateDir, "*.html"))
	if err != nil {
		return nil, err
	}
	for _, page := range pages {
		if filepath.Base(page) == "layout.html" {
			continue
		}
		t, err := template.ParseFiles(layout, page)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(page), ".html")
		templates[name] = t
	}
	return &Server{
		DB:         db,
		tmpl:       templates,
		validate:   validator.New(),
		secret:     []byte(secret),
		CookieName: "session_id",
	}, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/logout", s.handleLogout)
	mux.HandleFunc("/feed", s.requireAuth(s.handleFeed))
	mux.HandleFunc("/admin", s.requireAdmin(s.handleAdmin))
	mux.HandleFunc("/admin/users", s.requireAdmin(s.handleAdminUsers))
	return mux
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.routes().ServeHTTP(w, r)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	s.renderStatus(w, http.StatusOK, name, data)
}

func (s *Server) renderStatus(w http.ResponseWriter, status int, name string, data any) {
	t, ok := s.tmpl[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		log.Printf("render %s: %v", name, err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.currentUser(r) != nil {
		http.Redirect(w, r, "/feed", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, "login", map[string]any{
			"User":  s.currentUser(r),
			"Next":  r.URL.Query().Get("next"),
			"Flash": s.popFlash(w, r),
		})
	case http.MethodPost:
		email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
		password := r.FormValue("password")
		next := r.FormValue("next")

		user, err := models.GetUserByEmail(s.DB, email)
		if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
			// uniform failure, no hint which field was wrong
			s.flash(w, "danger", "Invalid credentials.")
			target := "/login"
			if next != "" {
				target += "?next=" + url.QueryEscape(next)
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}

		sid := uuid.NewString()
		expires := time.Now().Add(sessionTTL)
		if err := models.CreateSession(s.DB, user.ID, sid, expires); err != nil {
			http.Error(w, "could not create session", http.StatusInternalServerError)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     s.CookieName,
			Value:    s.signSession(sid),
			Path:     "/",
			Expires:  expires,
			HttpOnly: true,
		})
		s.flash(w, "success", "Signed in.")
		if next == "" {
			next = "/feed"
		}
		http.Redirect(w, r, next, http.StatusSeeOther)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if cookie, err := r.Cookie(s.CookieName); err == nil {
		if sid, ok := s.verifySession(cookie.Value); ok {
			models.RevokeSession(s.DB, sid)
		}
		http.SetCookie(w, &http.Cookie{Name: s.CookieName, Path: "/", MaxAge: -1})
	}
	s.flash(w, "info", "Signed out.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request, user *models.User) {
	switch r.Method {
	case http.MethodGet:
		posts, err := models.ListFeed(s.DB)
		if err != nil {
			http.Error(w, "error", http.StatusInternalServerError)
			return
		}
		s.render(w, "feed", map[string]any{
			"User":  user,
			"Posts": posts,
			"Flash": s.popFlash(w, r),
		})
	case http.MethodPost:
		content := strings.TrimSpace(r.FormValue("content"))
		if content == "" {
			s.flash(w, "warning", "Write something to publish.")
		} else if err := models.CreatePost(s.DB, user.ID, content); err != nil {
			http.Error(w, "could not create post", http.StatusInternalServerError)
			return
		} else {
			s.flash(w, "success", "Published!")
		}
		http.Redirect(w, r, "/feed", http.StatusSeeOther)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request, user *models.User) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	users, err := models.CountUsers(s.DB)
	if err != nil {
		http.Error(w, "error", http.StatusInternalServerError)
		return
	}
	posts, err := models.CountPosts(s.DB)
	if err != nil {
		http.Error(w, "error", http.StatusInternalServerError)
		return
	}
	s.render(w, "admin", map[string]any{
		"User":  user,
		"Stats": models.Stats{Users: users, Posts: posts},
		"Flash": s.popFlash(w, r),
	})
}

type createUserForm struct {
	Name     string `validate:"required"`
	Email    string `validate:"required"`
	Password string `validate:"required,min=6"`
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request, user *models.User) {
	switch r.Method {
	case http.MethodGet:
		users, err := models.ListUsers(s.DB)
		if err != nil {
			http.Error(w, "error", http.StatusInternalServerError)
			return
		}
		s.render(w, "admin_users", map[string]any{
			"User":  user,
			"Users": users,
			"Flash": s.popFlash(w, r),
		})
	case http.MethodPost:
		form := createUserForm{
			Name:     strings.TrimSpace(r.FormValue("name")),
			Email:    strings.ToLower(strings.TrimSpace(r.FormValue("email"))),
			Password: r.FormValue("password"),
		}
		isAdmin := r.FormValue("is_admin") == "on"

		if err := s.validate.Struct(form); err != nil {
			s.flash(w, "warning", "Fill in all fields (password 6+ characters).")
			http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "could not create user", http.StatusInternalServerError)
			return
		}
		switch err := models.CreateUser(s.DB, form.Email, form.Name, string(hash), isAdmin); {
		case errors.Is(err, models.ErrDuplicateEmail):
			s.flash(w, "danger", "E-mail already registered.")
		case err != nil:
			http.Error(w, "could not create user", http.StatusInternalServerError)
			return
		default:
			s.flash(w, "success", "User created.")
		}
		http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// middleware

// requireAuth redirects anonymous requests to the login form, keeping
// the requested path as the post-login destination.
func (s *Server) requireAuth(next func(http.ResponseWriter, *http.Request, *models.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := s.currentUser(r)
		if user == nil {
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.Path), http.StatusSeeOther)
			return
		}
		next(w, r, user)
	}
}

// requireAdmin denies authenticated non-admins outright; anonymous
// requests still go through the login redirect.
func (s *Server) requireAdmin(next func(http.ResponseWriter, *http.Request, *models.User)) http.HandlerFunc {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request, user *models.User) {
		if !user.IsAdmin {
			s.renderStatus(w, http.StatusForbidden, "forbidden", map[string]any{"User": user})
			return
		}
		next(w, r, user)
	})
}

func (s *Server) currentUser(r *http.Request) *models.User {
	cookie, err := r.Cookie(s.CookieName)
	if err != nil {
		return nil
	}
	sid, ok := s.verifySession(cookie.Value)
	if !ok {
		return nil
	}
	sess, err := models.GetSession(s.DB, sid)
	if err != nil || sess.RevokedAt.Valid || sess.ExpiresAt.Before(time.Now()) {
		return nil
	}
	user, err := models.GetUserByID(s.DB, sess.UserID)
	if err != nil {
		return nil
	}
	return user
}

// signSession appends an HMAC to the session id so a forged cookie is
// rejected before it reaches the database.
func (s *Server) signSession(sid string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(sid))
	return sid + "." + hex.EncodeToString(mac.Sum(nil))
}

func (s *Server) verifySession(value string) (string, bool) {
	sid, _, ok := strings.Cut(value, ".")
	if !ok {
		return "", false
	}
	if !hmac.Equal([]byte(s.signSession(sid)), []byte(value)) {
		return "", false
	}
	return sid, true
}

// LogRequests wraps a handler with per-request logging; enabled by the
// debug flag.
func LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
