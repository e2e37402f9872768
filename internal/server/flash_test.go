package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFlashRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	w := httptest.NewRecorder()
	srv.flash(w, "warning", "Write something to publish.")

	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	w2 := httptest.NewRecorder()
	notice := srv.popFlash(w2, req)
	if notice == nil {
		t.Fatalf("no notice")
	}
	if notice.Category != "warning" || notice.Message != "Write something to publish." {
		t.Fatalf("got %+v", notice)
	}

	// popFlash expires the cookie
	var cleared bool
	for _, c := range w2.Result().Cookies() {
		if c.Name == "flash" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("flash cookie not cleared")
	}
}

func TestPopFlashEmpty(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	if notice := srv.popFlash(httptest.NewRecorder(), req); notice != nil {
		t.Fatalf("unexpected notice %+v", notice)
	}
}
