package geo

import (
	"math"
	"testing"
)

func TestValidateBounds(t *testing.T) {
	cases := []struct {
		name    string
		lat     float64
		lng     float64
		wantErr error
	}{
		{"origin", 0, 0, nil},
		{"corners", 90, -180, nil},
		{"lat too high", 90.0001, 0, ErrLatitudeOutOfRange},
		{"lat too low", -91, 0, ErrLatitudeOutOfRange},
		{"lng too high", 0, 180.5, ErrLongitudeOutOfRange},
		{"lng too low", 0, -181, ErrLongitudeOutOfRange},
		{"nan", math.NaN(), 0, ErrLatitudeOutOfRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidateBounds(tc.lat, tc.lng); err != tc.wantErr {
				t.Fatalf("ValidateBounds(%v,%v) = %v, want %v", tc.lat, tc.lng, err, tc.wantErr)
			}
		})
	}
}

func TestDistanceKm(t *testing.T) {
	bengaluru := Coordinates{Lat: 12.9716, Lng: 77.5946}
	if d := DistanceKm(bengaluru, bengaluru); d != 0 {
		t.Fatalf("distance to self = %v, want 0", d)
	}

	// One degree of latitude is roughly 111.19 km.
	d := DistanceKm(Coordinates{Lat: 0, Lng: 0}, Coordinates{Lat: 1, Lng: 0})
	if math.Abs(d-111.19) > 0.05 {
		t.Fatalf("one degree latitude = %v km, want ~111.19", d)
	}

	ab := DistanceKm(bengaluru, Coordinates{Lat: 13.0827, Lng: 80.2707})
	ba := DistanceKm(Coordinates{Lat: 13.0827, Lng: 80.2707}, bengaluru)
	if math.Abs(ab-ba) > 1e-9 {
		t.Fatalf("distance not symmetric: %v vs %v", ab, ba)
	}
}

func TestWithinRadius(t *testing.T) {
	a := Coordinates{Lat: 0, Lng: 0}
	b := Coordinates{Lat: 0.05, Lng: 0} // ~5.56 km

	if !WithinRadius(a, b, 6) {
		t.Errorf("expected point inside 6 km")
	}
	if WithinRadius(a, b, 5) {
		t.Errorf("expected point outside 5 km")
	}
	if !WithinRadius(a, a, 0) {
		t.Errorf("expected zero radius to include the same point")
	}
	if WithinRadius(a, a, -1) {
		t.Errorf("negative radius must match nothing")
	}
}

func TestRoundKm(t *testing.T) {
	if got := RoundKm(5.5599); got != 5.56 {
		t.Fatalf("RoundKm = %v, want 5.56", got)
	}
}
