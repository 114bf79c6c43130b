package portal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AnshRaj112/ridit-backend/internal/config"
	"github.com/AnshRaj112/ridit-backend/internal/models"
	"github.com/AnshRaj112/ridit-backend/internal/portal/session"
)

type fakeServer struct {
	revoked  atomic.Bool
	listings atomic.Int32
	expire   atomic.Bool
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Password == "wrong-pass" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"Invalid credentials"}`))
			return
		}
		json.NewEncoder(w).Encode(models.AuthResponse{ID: "s1", Name: "Asha", Role: models.RoleSeller, Token: "tok"})
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer tok" {
			f.revoked.Store(true)
		}
		w.Write([]byte(`{"message":"ok"}`))
	})
	mux.HandleFunc("/seller/items/s1", func(w http.ResponseWriter, r *http.Request) {
		if f.expire.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"Invalid or expired session"}`))
			return
		}
		f.listings.Add(1)
		json.NewEncoder(w).Encode(models.ItemList{})
	})
	return mux
}

func newTestPortal(t *testing.T) (*Portal, *fakeServer) {
	t.Helper()
	f := &fakeServer{}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	cfg := &config.PortalConfig{APIBaseURL: srv.URL, PrefetchTTL: time.Minute, RequestTimeout: 5 * time.Second, LoginPrefetch: true}
	return New(cfg, &session.MemoryStorage{}, nil), f
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLoginPrefetchesAndLogoutClears(t *testing.T) {
	p, f := newTestPortal(t)
	ctx := context.Background()

	if _, err := p.Session.Login(ctx, models.LoginRequest{Identifier: "9876543210", Password: "secret123"}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return p.Items.PrefetchPending() == 1 })

	if err := p.Session.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	if p.Session.IsAuthenticated() {
		t.Error("still authenticated after logout")
	}
	if p.Items.PrefetchPending() != 0 {
		t.Error("prefetch snapshot survived logout")
	}
	if !f.revoked.Load() {
		t.Error("server token not revoked")
	}
}

func TestUnauthorizedEndsSession(t *testing.T) {
	p, f := newTestPortal(t)
	ctx := context.Background()
	if _, err := p.Session.Login(ctx, models.LoginRequest{Identifier: "9876543210", Password: "secret123"}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return f.listings.Load() > 0 })

	f.expire.Store(true)
	if _, err := p.Items.ListSellerItems(ctx, "s1", ""); err == nil {
		t.Fatal("expected 401")
	}
	if p.Session.IsAuthenticated() {
		t.Error("session kept after 401")
	}
}

func TestWrongPasswordKeepsCurrentSession(t *testing.T) {
	p, _ := newTestPortal(t)
	ctx := context.Background()

	if _, err := p.Session.Login(ctx, models.LoginRequest{Identifier: "9876543210", Password: "secret123"}); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Session.Login(ctx, models.LoginRequest{Identifier: "9876543210", Password: "wrong-pass"}); err == nil {
		t.Fatal("wrong password accepted")
	}
	if !p.Session.IsAuthenticated() {
		t.Error("rejected login ended the live session")
	}
}

func TestLoginPrefetchDisabled(t *testing.T) {
	f := &fakeServer{}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	cfg := &config.PortalConfig{APIBaseURL: srv.URL, PrefetchTTL: time.Minute, RequestTimeout: 5 * time.Second}
	p := New(cfg, &session.MemoryStorage{}, nil)
	ctx := context.Background()

	if _, err := p.Session.Login(ctx, models.LoginRequest{Identifier: "9876543210", Password: "secret123"}); err != nil {
		t.Fatal(err)
	}
	d, err := p.Items.SellerDashboard(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if d.FromPrefetch || f.listings.Load() != 1 || p.Items.PrefetchPending() != 0 {
		t.Errorf("prefetch=%v listings=%d pending=%d", d.FromPrefetch, f.listings.Load(), p.Items.PrefetchPending())
	}
}
