package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/crucial707/mlregistry/internal/models"
	"github.com/crucial707/mlregistry/internal/session"
	"golang.org/x/time/rate"
)

var testSecret = []byte("test-secret")

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(session.FromContext(r.Context()).Username))
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	token, _, err := session.Issue(testSecret, models.User{ID: 1, Username: "alice", Role: role}, time.Now(), time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return "Bearer " + token
}

func TestAuthenticate(t *testing.T) {
	h := Authenticate(testSecret)(http.HandlerFunc(okHandler))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", bearer(t, models.RoleViewer), http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/models", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != tt.want {
			t.Errorf("%s: status %d, want %d", tt.name, rr.Code, tt.want)
		}
		if tt.want == http.StatusOK && rr.Body.String() != "alice" {
			t.Errorf("%s: session not in context, body %q", tt.name, rr.Body.String())
		}
	}
}

func TestRequireRole(t *testing.T) {
	h := Authenticate(testSecret)(RequireRole(models.RoleAdmin)(http.HandlerFunc(okHandler)))

	for role, want := range map[string]int{
		models.RoleAdmin:         http.StatusOK,
		models.RoleDataScientist: http.StatusForbidden,
		models.RoleViewer:        http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req.Header.Set("Authorization", bearer(t, role))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != want {
			t.Errorf("role %s: status %d, want %d", role, rr.Code, want)
		}
	}

	rr := httptest.NewRecorder()
	RequireRole(models.RoleAdmin)(http.HandlerFunc(okHandler)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: status %d, want 401", rr.Code)
	}
}

func TestIPRateLimiter(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(0.001), 2)
	h := l.Middleware(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}

	// another port of the same host shares the bucket
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:6666"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("same host other port: status %d", rr.Code)
	}

	req.RemoteAddr = "10.0.0.2:5555"
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("other host: status %d", rr.Code)
	}
}

func TestMaxBytes(t *testing.T) {
	h := MaxBytes(8)(http.HandlerFunc(okHandler))
	req := httptest.NewRequest(http.MethodPost, "/models", strings.NewReader(strings.Repeat("x", 64)))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status %d, want 413", rr.Code)
	}
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"http://localhost:3000"})(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodOptions, "/models", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent || rr.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Errorf("preflight: status %d headers %v", rr.Code, rr.Header())
	}

	req = httptest.NewRequest(http.MethodGet, "/models", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unlisted origin must not be allowed")
	}
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("boom") }))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusInternalServerError || !strings.Contains(rr.Body.String(), "internal server error") {
		t.Errorf("status %d body %q", rr.Code, rr.Body.String())
	}
}
