package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/AnshRaj112/ridit-backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestSignAndParseToken(t *testing.T) {
	ConfigureSessions("test-secret", time.Hour, 30*time.Minute)
	id := uuid.New()

	token, err := signToken(id, models.RoleCollector, "jti-1", time.Hour, time.Now())
	if err != nil {
		t.Fatalf("signToken: %v", err)
	}
	claims, err := parseToken(token)
	if err != nil {
		t.Fatalf("parseToken: %v", err)
	}
	if claims.Subject != id.String() || claims.Role != models.RoleCollector || claims.ID != "jti-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if got, _ := claims.UserID(); got != id {
		t.Fatalf("UserID = %v", got)
	}
}

func TestParseTokenRejects(t *testing.T) {
	ConfigureSessions("test-secret", 0, 0)
	id := uuid.New()

	expired, _ := signToken(id, models.RoleSeller, "jti", time.Minute, time.Now().Add(-time.Hour))
	if _, err := parseToken(expired); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("expired token: got %v", err)
	}

	noJTI, _ := signToken(id, models.RoleSeller, "", time.Hour, time.Now())
	if _, err := parseToken(noJTI); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("token without jti: got %v", err)
	}

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			ID:        "x",
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, _ := forged.SignedString([]byte("other-secret"))
	if _, err := parseToken(signed); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("wrong key: got %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: models.RoleAdmin})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := parseToken(unsigned); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("alg none: got %v", err)
	}
}

func TestSessionTTLByRole(t *testing.T) {
	ConfigureSessions("", 24*time.Hour, 8*time.Hour)
	if sessionTTL(models.RoleSeller) != 24*time.Hour || sessionTTL(models.RoleAdmin) != 8*time.Hour {
		t.Fatal("unexpected session lifetimes")
	}
}

func TestCollectorRadiusKeepsChosenValue(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	cases := []struct {
		in   *float64
		want float64
	}{
		{nil, models.DefaultSearchRadiusKm},
		{f(models.MinSearchRadiusKm), models.MinSearchRadiusKm},
		{f(25), 25},
		{f(models.MaxSearchRadiusKm), models.MaxSearchRadiusKm},
	}
	for _, c := range cases {
		if got := collectorRadius(c.in); got != c.want {
			t.Errorf("collectorRadius(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestSaveLocationRejectsRadiusOutOfRange(t *testing.T) {
	for _, r := range []float64{0.5, 75} {
		r := r
		_, err := SaveLocation(context.Background(), "00000000-0000-0000-0000-000000000001", models.RoleCollector,
			models.Location{Latitude: 20.29, Longitude: 85.82, SearchRadiusKm: &r})
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Fields["search_radius_km"] == "" {
			t.Errorf("radius %v: err = %v, want search_radius_km validation error", r, err)
		}
	}
}

func TestNewItemIDIsMonotonic(t *testing.T) {
	now := time.Now()
	prev := newItemID(now)
	for i := 0; i < 100; i++ {
		next := newItemID(now)
		if len(next) != 26 || next <= prev {
			t.Fatalf("ids not increasing: %s then %s", prev, next)
		}
		prev = next
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Message: "invalid item", Fields: map[string]string{"b": "two", "a": "one"}}
	if got := err.Error(); got != "invalid item: a: one; b: two" {
		t.Fatalf("Error() = %q", got)
	}
}

type recordingConn struct {
	mu     sync.Mutex
	events []models.ItemEvent
	done   chan struct{}
}

func (c *recordingConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	c.events = append(c.events, v.(models.ItemEvent))
	c.mu.Unlock()
	c.done <- struct{}{}
	return nil
}

func (c *recordingConn) Close() error { return nil }

func TestItemHubFanOut(t *testing.T) {
	hub := NewItemHub()
	a1 := &recordingConn{done: make(chan struct{}, 1)}
	a2 := &recordingConn{done: make(chan struct{}, 1)}
	b := &recordingConn{done: make(chan struct{}, 1)}
	hub.Register("user-a", a1)
	hub.Register("user-a", a2)
	hub.Register("user-b", b)

	if hub.Connections("user-a") != 2 {
		t.Fatalf("Connections = %d", hub.Connections("user-a"))
	}

	hub.FanOut("user-a", models.ItemEvent{ItemID: "item-1", Type: models.EventItemAccepted})
	for _, c := range []*recordingConn{a1, a2} {
		select {
		case <-c.done:
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
	select {
	case <-b.done:
		t.Fatal("user-b received user-a's event")
	case <-time.After(50 * time.Millisecond):
	}

	hub.Unregister("user-a", a1)
	hub.Unregister("user-a", a2)
	if hub.Connections("user-a") != 0 {
		t.Fatal("connections not removed")
	}
}

func TestDetectImageType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	if ct, err := DetectImageType(png); err != nil || ct != "image/png" {
		t.Fatalf("png: %q, %v", ct, err)
	}
	if _, err := DetectImageType([]byte("%PDF-1.4")); !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("pdf: %v", err)
	}
}
