package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AnshRaj112/ridit-backend/internal/models"
	"github.com/AnshRaj112/ridit-backend/internal/services"
	"github.com/golang-jwt/jwt/v5"
)

func fakeValidator(valid map[string]*services.Claims) func(context.Context, string) (*services.Claims, error) {
	return func(_ context.Context, token string) (*services.Claims, error) {
		if c, ok := valid[token]; ok {
			return c, nil
		}
		return nil, services.ErrInvalidSession
	}
}

func claims(sub string, role models.Role) *services.Claims {
	return &services.Claims{Role: role, RegisteredClaims: jwt.RegisteredClaims{Subject: sub, ID: "jti-" + sub}}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"":             "",
		"Bearer":       "",
	}
	for header, want := range cases {
		r := httptest.NewRequest("GET", "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		if got := BearerToken(r); got != want {
			t.Errorf("BearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestRequireAuth(t *testing.T) {
	orig := validateSession
	t.Cleanup(func() { validateSession = orig })
	validateSession = fakeValidator(map[string]*services.Claims{
		"seller-token": claims("s1", models.RoleSeller),
		"admin-token":  claims("a1", models.RoleAdmin),
	})

	var seen *services.Claims
	h := RequireAuth(models.RoleSeller)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClaimsFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		token string
		want  int
	}{
		{"", http.StatusUnauthorized},
		{"bogus", http.StatusUnauthorized},
		{"admin-token", http.StatusForbidden},
		{"seller-token", http.StatusNoContent},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/seller/items/s1", nil)
		if c.token != "" {
			r.Header.Set("Authorization", "Bearer "+c.token)
		}
		h.ServeHTTP(rec, r)
		if rec.Code != c.want {
			t.Errorf("token %q: status %d, want %d", c.token, rec.Code, c.want)
		}
		if rec.Code >= 400 {
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["detail"] == "" {
				t.Errorf("token %q: body %q lacks detail", c.token, rec.Body.String())
			}
		}
	}
	if seen == nil || seen.Subject != "s1" {
		t.Fatalf("claims not propagated: %+v", seen)
	}
}

func TestLoginRateLimit(t *testing.T) {
	loginLimiters = newLimiterSet(0, 2)
	h := LoginRateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := []int{}
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest("POST", "/auth/login", nil)
		r.RemoteAddr = "192.0.2.1:1234"
		h.ServeHTTP(rec, r)
		codes = append(codes, rec.Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}

	rec := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/seller/items/x", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	h.ServeHTTP(rec, r)
	if rec.Code != 200 {
		t.Fatalf("non-login path limited: %d", rec.Code)
	}
}

func TestAcceptRateLimitKeysByUser(t *testing.T) {
	acceptLimiters = newLimiterSet(0, 1)
	h := AcceptRateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	do := func(sub string) int {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest("POST", "/collector/items/i/accept", nil)
		r.RemoteAddr = "192.0.2.9:1"
		r = r.WithContext(WithClaims(r.Context(), claims(sub, models.RoleCollector)))
		h.ServeHTTP(rec, r)
		return rec.Code
	}
	if do("c1") != 200 || do("c1") != http.StatusTooManyRequests {
		t.Fatal("c1 should be limited after its burst")
	}
	if do("c2") != 200 {
		t.Fatal("c2 shares an IP with c1 but has its own bucket")
	}
}

func TestLimiterSetSweep(t *testing.T) {
	s := newLimiterSet(1, 1)
	s.cleanupRun = true // keep the background sweeper out of the test
	s.get("a")
	s.entries["a"].lastUse = time.Now().Add(-2 * limiterTTL)
	s.get("b")
	s.sweep(time.Now())
	if _, ok := s.entries["a"]; ok {
		t.Fatal("idle entry not swept")
	}
	if _, ok := s.entries["b"]; !ok {
		t.Fatal("fresh entry swept")
	}
}

func TestSecurityHeadersAndHostCheck(t *testing.T) {
	h := SecurityHeaders(HostCheck("api.ridit.in")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	rec := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "http://api.ridit.in:443/health", nil)
	h.ServeHTTP(rec, r)
	if rec.Code != 200 || rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatalf("allowed host: %d %v", rec.Code, rec.Header())
	}

	rec = httptest.NewRecorder()
	r = httptest.NewRequest("GET", "http://evil.example/health", nil)
	h.ServeHTTP(rec, r)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign host: %d", rec.Code)
	}
}
