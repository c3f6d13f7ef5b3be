package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSessionIssuesCookie(t *testing.T) {
	var captured string
	handler := Session(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = SessionID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/chapters", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if captured == "" {
		t.Fatal("expected a session id in the request context")
	}

	cookies := resp.Result().Cookies()
	found := false
	for _, cookie := range cookies {
		if cookie.Name == SessionCookie && cookie.Value == captured {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s cookie carrying the session id, got %+v", SessionCookie, cookies)
	}
}

func TestSessionReusesExistingCookie(t *testing.T) {
	var captured string
	handler := Session(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = SessionID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/chapters", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "existing-session"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if captured != "existing-session" {
		t.Fatalf("expected existing session id to be reused, got %q", captured)
	}
	if len(resp.Result().Cookies()) != 0 {
		t.Fatal("expected no new cookie when one is already present")
	}
}

func TestSessionIDWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := SessionID(req.Context()); id != "" {
		t.Fatalf("expected empty session id, got %q", id)
	}
}
