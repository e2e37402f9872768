package server

import (
	"net/http"
	"net/url"
	"strings"
)

const flashCookie = "flash"

// Notice is a one-shot user-facing message with a display category
// (success, info, warning, danger). It lives in a cookie until the
// next page render consumes it.
type Notice struct {
	Category string
	Message  string
}

func (s *Server) flash(w http.ResponseWriter, category, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(category + "|" + message),
		Path:     "/",
		HttpOnly: true,
	})
}

// popFlash returns the pending notice, if any, and clears it.
func (s *Server) popFlash(w http.ResponseWriter, r *http.Request) *Notice {
	cookie, err := r.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})
	raw, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil
	}
	category, message, ok := strings.Cut(raw, "|")
	if !ok {
		return nil
	}
	return &Notice{Category: category, Message: message}
}
