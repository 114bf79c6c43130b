package location

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/AnshRaj112/ridit-backend/internal/models"
	"github.com/AnshRaj112/ridit-backend/internal/portal/api"
	"github.com/AnshRaj112/ridit-backend/pkg/geo"
	"github.com/AnshRaj112/ridit-backend/pkg/geocode"
)

// memBackend stores locations like the server does.
type memBackend struct {
	calls int
	saved map[string]models.Location
}

func newMemBackend() *memBackend { return &memBackend{saved: map[string]models.Location{}} }

func (m *memBackend) SetLocation(_ context.Context, ownerID string, role models.Role, loc models.Location) (*models.Location, error) {
	m.calls++
	loc.OwnerID, loc.OwnerRole = ownerID, role
	m.saved[ownerID] = loc
	return &loc, nil
}

func (m *memBackend) Location(_ context.Context, ownerID string, _ models.Role) (*models.Location, error) {
	m.calls++
	loc, ok := m.saved[ownerID]
	if !ok {
		return nil, &api.NotFoundError{Detail: "Location not set"}
	}
	return &loc, nil
}

type fakeGeocoder struct {
	label string
	err   error
	calls int
}

func (f *fakeGeocoder) Reverse(context.Context, float64, float64) (string, error) {
	f.calls++
	return f.label, f.err
}

func TestSaveLocationRejectsOutOfBoundsOffline(t *testing.T) {
	bad := []geo.Coordinates{
		{Lat: 90.0001, Lng: 0},
		{Lat: -91, Lng: 10},
		{Lat: 0, Lng: 180.5},
		{Lat: 10, Lng: -181},
		{Lat: math.NaN(), Lng: 0},
		{Lat: 0, Lng: math.Inf(1)},
	}
	for _, c := range bad {
		backend := newMemBackend()
		gc := &fakeGeocoder{label: "Indiranagar"}
		svc := New(backend, gc, nil)

		_, err := svc.SaveLocation(context.Background(), "s1", models.RoleSeller, c, nil, "")
		var verr *api.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%+v: err = %v, want ValidationError", c, err)
		}
		if backend.calls != 0 || gc.calls != 0 {
			t.Errorf("%+v: network calls backend=%d geocoder=%d, want none", c, backend.calls, gc.calls)
		}
	}
}

func TestSaveLocationRejectsRadiusOutOfRange(t *testing.T) {
	for _, r := range []float64{0, 0.5, 75} {
		r := r
		backend := newMemBackend()
		svc := New(backend, nil, nil)
		_, err := svc.SaveLocation(context.Background(), "c1", models.RoleCollector, geo.Coordinates{Lat: 12.97, Lng: 77.59}, &r, "MG Road")
		var verr *api.ValidationError
		if !errors.As(err, &verr) || verr.Fields["search_radius_km"] == "" {
			t.Errorf("radius %v: err = %v", r, err)
		}
		if backend.calls != 0 {
			t.Errorf("radius %v: backend called", r)
		}
	}
}

func TestRadiusBoundsRoundTrip(t *testing.T) {
	for _, r := range []float64{models.MinSearchRadiusKm, models.MaxSearchRadiusKm} {
		r := r
		backend := newMemBackend()
		svc := New(backend, nil, nil)
		if _, err := svc.SaveLocation(context.Background(), "c1", models.RoleCollector, geo.Coordinates{Lat: 12.97, Lng: 77.59}, &r, "MG Road"); err != nil {
			t.Fatalf("radius %v: %v", r, err)
		}
		got, err := svc.GetLocation(context.Background(), "c1", models.RoleCollector)
		if err != nil {
			t.Fatal(err)
		}
		if got.SearchRadiusKm == nil || *got.SearchRadiusKm != r {
			t.Errorf("radius = %v, want %v", got.SearchRadiusKm, r)
		}
	}
}

func TestSaveThenGetRoundTrip(t *testing.T) {
	backend := newMemBackend()
	svc := New(backend, &fakeGeocoder{label: "Koramangala, Bengaluru"}, nil)
	coords := geo.Coordinates{Lat: 12.935192, Lng: 77.624480}
	radius := 7.5

	if _, err := svc.SaveLocation(context.Background(), "c1", models.RoleCollector, coords, &radius, ""); err != nil {
		t.Fatal(err)
	}
	got, err := svc.GetLocation(context.Background(), "c1", models.RoleCollector)
	if err != nil {
		t.Fatal(err)
	}
	if got.Latitude != coords.Lat || got.Longitude != coords.Lng {
		t.Errorf("coords = %v,%v want %v", got.Latitude, got.Longitude, coords)
	}
	if got.SearchRadiusKm == nil || *got.SearchRadiusKm != radius {
		t.Errorf("radius = %v, want %v", got.SearchRadiusKm, radius)
	}
	if got.AreaName != "Koramangala, Bengaluru" {
		t.Errorf("area = %q", got.AreaName)
	}
}

func TestSellerRadiusIsDropped(t *testing.T) {
	backend := newMemBackend()
	svc := New(backend, nil, nil)
	r := 5.0
	loc, err := svc.SaveLocation(context.Background(), "s1", models.RoleSeller, geo.Coordinates{Lat: 1, Lng: 1}, &r, "Home")
	if err != nil {
		t.Fatal(err)
	}
	if loc.SearchRadiusKm != nil {
		t.Error("seller location carried a radius")
	}
}

func TestReverseGeocodeFallback(t *testing.T) {
	svc := New(newMemBackend(), &fakeGeocoder{err: errors.New("503")}, nil)
	if got := svc.ReverseGeocode(context.Background(), 1, 2); got != geocode.Fallback {
		t.Errorf("got %q, want fallback", got)
	}

	// A failing geocoder must not block the save.
	loc, err := svc.SaveLocation(context.Background(), "s1", models.RoleSeller, geo.Coordinates{Lat: 1, Lng: 2}, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if loc.AreaName != geocode.Fallback {
		t.Errorf("area = %q", loc.AreaName)
	}
}

func TestResolveCurrentPosition(t *testing.T) {
	want := geo.Coordinates{Lat: 28.61, Lng: 77.21}
	svc := New(nil, nil, Static(want))
	got, err := svc.ResolveCurrentPosition(context.Background(), time.Second)
	if err != nil || got != want {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestResolveCurrentPositionFailures(t *testing.T) {
	denied := PositionFunc(func(context.Context) (geo.Coordinates, error) {
		return geo.Coordinates{}, errors.New("permission denied")
	})
	// Ignores its context entirely; the timeout must still fire.
	stuck := PositionFunc(func(context.Context) (geo.Coordinates, error) {
		time.Sleep(time.Hour)
		return geo.Coordinates{}, nil
	})

	cases := map[string]PositionSource{"none": nil, "denied": denied, "stuck": stuck}
	for name, src := range cases {
		svc := New(nil, nil, src)
		start := time.Now()
		_, err := svc.ResolveCurrentPosition(context.Background(), 50*time.Millisecond)
		if !errors.Is(err, ErrLocationUnavailable) {
			t.Errorf("%s: err = %v", name, err)
		}
		if time.Since(start) > 2*time.Second {
			t.Errorf("%s: did not honor timeout", name)
		}
	}
}

func TestPickFromMap(t *testing.T) {
	svc := New(nil, nil, nil)

	clicks := make(chan geo.Coordinates, 3)
	clicks <- geo.Coordinates{Lat: 1, Lng: 1}
	clicks <- geo.Coordinates{Lat: 200, Lng: 1} // off the map, ignored
	clicks <- geo.Coordinates{Lat: 2, Lng: 2}
	close(clicks)
	got, err := svc.PickFromMap(context.Background(), clicks, nil)
	if err != nil || got != (geo.Coordinates{Lat: 2, Lng: 2}) {
		t.Errorf("got %v, %v", got, err)
	}

	empty := make(chan geo.Coordinates)
	close(empty)
	initial := geo.Coordinates{Lat: 5, Lng: 5}
	got, err = svc.PickFromMap(context.Background(), empty, &initial)
	if err != nil || got != initial {
		t.Errorf("initial: got %v, %v", got, err)
	}

	empty = make(chan geo.Coordinates)
	close(empty)
	if _, err := svc.PickFromMap(context.Background(), empty, nil); !errors.Is(err, ErrNoSelection) {
		t.Errorf("no clicks: err = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.PickFromMap(ctx, make(chan geo.Coordinates), nil); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled: err = %v", err)
	}
}
