package models

import (
	"fmt"
	"time"

	"github.com/AnshRaj112/ridit-backend/pkg/geo"
)

const (
	// DefaultSearchRadiusKm applies when a collector has not chosen a radius.
	DefaultSearchRadiusKm = 10.0
	MinSearchRadiusKm     = 1.0
	MaxSearchRadiusKm     = 50.0
)

// Location is the single saved position of a seller or collector.
type Location struct {
	OwnerID        string    `json:"owner_id,omitempty"`
	OwnerRole      Role      `json:"owner_role,omitempty"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AreaName       string    `json:"area_name,omitempty"`
	SearchRadiusKm *float64  `json:"search_radius_km,omitempty"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`
}

// Coordinates returns the location as a geo point.
func (l Location) Coordinates() geo.Coordinates {
	return geo.Coordinates{Lat: l.Latitude, Lng: l.Longitude}
}

// Radius returns the search radius or the default.
func (l Location) Radius() float64 {
	if l.SearchRadiusKm == nil {
		return DefaultSearchRadiusKm
	}
	return *l.SearchRadiusKm
}

// Validate checks coordinate bounds and, when a radius is present, that it
// lies within [MinSearchRadiusKm, MaxSearchRadiusKm].
func (l Location) Validate() FieldErrors {
	errs := FieldErrors{}
	if err := geo.ValidateBounds(l.Latitude, 0); err != nil {
		errs.Add("latitude", err.Error())
	}
	if err := geo.ValidateBounds(0, l.Longitude); err != nil {
		errs.Add("longitude", err.Error())
	}
	if r := l.SearchRadiusKm; r != nil && !(*r >= MinSearchRadiusKm && *r <= MaxSearchRadiusKm) {
		errs.Add("search_radius_km", fmt.Sprintf("search_radius_km must be between %g and %g", MinSearchRadiusKm, MaxSearchRadiusKm))
	}
	return errs
}
