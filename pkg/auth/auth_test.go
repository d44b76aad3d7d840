package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"paradisian/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager(secret, time.Hour, "paradisian")

	token, expiresAt, err := m.Issue(Identity{UserID: "u1", Email: "a@b.co", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if time.Until(expiresAt) <= 59*time.Minute {
		t.Errorf("unexpected expiry %v", expiresAt)
	}

	id, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if id.UserID != "u1" || id.Email != "a@b.co" || !id.IsAdmin() {
		t.Errorf("unexpected identity %+v", id)
	}
}

func TestTokenManager_RejectsExpiredAndForeignTokens(t *testing.T) {
	m := NewTokenManager(secret, time.Minute, "paradisian")
	token, _, err := m.Issue(Identity{UserID: "u1", Role: RoleUser})
	if err != nil {
		t.Fatal(err)
	}

	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := m.Parse(token); err == nil {
		t.Error("expected expired token to be rejected")
	}

	other := NewTokenManager("ffffffffffffffffffffffffffffffff", time.Minute, "paradisian")
	if _, err := other.Parse(token); err == nil {
		t.Error("expected token signed with another secret to be rejected")
	}
}

func TestTokenManager_RequiresSecret(t *testing.T) {
	m := NewTokenManager("", time.Minute, "paradisian")
	if _, _, err := m.Issue(Identity{UserID: "u1"}); err != ErrNoSecret {
		t.Errorf("expected ErrNoSecret, got %v", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse", 4)
	if err != nil {
		t.Fatal(err)
	}
	if err := CheckPassword(hash, "correct horse"); err != nil {
		t.Errorf("expected match, got %v", err)
	}
	if err := CheckPassword(hash, "battery staple"); err != ErrPasswordMismatch {
		t.Errorf("expected ErrPasswordMismatch, got %v", err)
	}
}

func serve(t *testing.T, m *TokenManager, handle httprouter.Handle, header string) *httptest.ResponseRecorder {
	t.Helper()
	router := httprouter.New()
	router.GET("/x", handle)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	Middleware(m, logger.Discard())(router).ServeHTTP(rec, req)
	return rec
}

func TestMiddleware_RoleChecks(t *testing.T) {
	m := NewTokenManager(secret, time.Hour, "paradisian")
	userToken, _, _ := m.Issue(Identity{UserID: "u1", Role: RoleUser})
	adminToken, _, _ := m.Issue(Identity{UserID: "a1", Role: RoleAdmin})

	ok := func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		id, _ := FromContext(r.Context())
		_, _ = w.Write([]byte(id.UserID))
	}
	log := logger.Discard()

	tests := []struct {
		name   string
		handle httprouter.Handle
		header string
		want   int
	}{
		{"anonymous on protected route", Authenticated(log, ok), "", http.StatusUnauthorized},
		{"user on protected route", Authenticated(log, ok), "Bearer " + userToken, http.StatusOK},
		{"user on admin route", AdminOnly(log, ok), "Bearer " + userToken, http.StatusForbidden},
		{"admin on admin route", AdminOnly(log, ok), "Bearer " + adminToken, http.StatusOK},
		{"garbage token", Authenticated(log, ok), "Bearer nope", http.StatusUnauthorized},
		{"wrong scheme", Authenticated(log, ok), "Basic abc", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, m, tt.handle, tt.header)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
			if tt.want == http.StatusOK && !strings.HasPrefix(rec.Body.String(), "u1") && !strings.HasPrefix(rec.Body.String(), "a1") {
				t.Errorf("unexpected body %q", rec.Body.String())
			}
		})
	}
}
