package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_AllowsLoginAndStatic(t *testing.T) {
	handler := AuthMiddleware(okHandler())

	for _, path := range []string{"/login", "/auth/login", "/static/app.js"} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("Expected %s to pass through, got %d", path, w.Code)
		}
	}
}

func TestAuthMiddleware_RedirectsUnauthenticatedPages(t *testing.T) {
	handler := AuthMiddleware(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusSeeOther {
		t.Fatalf("Expected redirect, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("Expected redirect to /login, got %s", loc)
	}
}

func TestAuthMiddleware_APIGets401(t *testing.T) {
	handler := AuthMiddleware(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for API request, got %d", w.Code)
	}
}

func TestAuthMiddleware_AJAXGets401(t *testing.T) {
	handler := AuthMiddleware(okHandler())

	r := httptest.NewRequest(http.MethodGet, "/settings", nil)
	r.Header.Set("X-Requested-With", "XMLHttpRequest")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for AJAX request, got %d", w.Code)
	}
}

func TestAuthMiddleware_ValidCookiePasses(t *testing.T) {
	handler := AuthMiddleware(okHandler())

	r := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	r.AddCookie(&http.Cookie{Name: "authenticated", Value: "true"})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("Expected authenticated request to pass, got %d", w.Code)
	}
}

func TestAuthMiddleware_WrongCookieValue(t *testing.T) {
	handler := AuthMiddleware(okHandler())

	r := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	r.AddCookie(&http.Cookie{Name: "authenticated", Value: "false"})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for wrong cookie value, got %d", w.Code)
	}
}
