// Package location resolves and persists where a seller or collector is.
package location

import (
	"context"
	"errors"
	"time"

	"github.com/AnshRaj112/ridit-backend/internal/models"
	"github.com/AnshRaj112/ridit-backend/internal/portal/api"
	"github.com/AnshRaj112/ridit-backend/pkg/geo"
	"github.com/AnshRaj112/ridit-backend/pkg/geocode"
)

// ErrLocationUnavailable covers denial, timeout and a missing position source.
var ErrLocationUnavailable = errors.New("location unavailable")

// ErrNoSelection is returned by PickFromMap when nothing was picked.
var ErrNoSelection = errors.New("no point selected")

// PositionSource reports the device position.
type PositionSource interface {
	CurrentPosition(ctx context.Context) (geo.Coordinates, error)
}

// PositionFunc adapts a function to PositionSource.
type PositionFunc func(ctx context.Context) (geo.Coordinates, error)

func (f PositionFunc) CurrentPosition(ctx context.Context) (geo.Coordinates, error) { return f(ctx) }

// Static is a fixed PositionSource, e.g. coordinates given on the command line.
type Static geo.Coordinates

func (s Static) CurrentPosition(context.Context) (geo.Coordinates, error) {
	return geo.Coordinates(s), nil
}

// Backend is the part of the API client the service needs.
type Backend interface {
	SetLocation(ctx context.Context, ownerID string, role models.Role, loc models.Location) (*models.Location, error)
	Location(ctx context.Context, ownerID string, role models.Role) (*models.Location, error)
}

type Service struct {
	backend  Backend
	geocoder geocode.Reverser
	source   PositionSource
}

// New returns a Service. source and geocoder may be nil.
func New(backend Backend, geocoder geocode.Reverser, source PositionSource) *Service {
	return &Service{backend: backend, geocoder: geocoder, source: source}
}

// ResolveCurrentPosition asks the position source for a fix and gives up
// after timeout even if the source ignores its context.
func (s *Service) ResolveCurrentPosition(ctx context.Context, timeout time.Duration) (geo.Coordinates, error) {
	if s.source == nil {
		return geo.Coordinates{}, ErrLocationUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type fix struct {
		c   geo.Coordinates
		err error
	}
	ch := make(chan fix, 1)
	go func() {
		c, err := s.source.CurrentPosition(ctx)
		ch <- fix{c, err}
	}()

	select {
	case <-ctx.Done():
		return geo.Coordinates{}, ErrLocationUnavailable
	case f := <-ch:
		if f.err != nil {
			return geo.Coordinates{}, errors.Join(ErrLocationUnavailable, f.err)
		}
		if f.c.Validate() != nil {
			return geo.Coordinates{}, ErrLocationUnavailable
		}
		return f.c, nil
	}
}

// ReverseGeocode returns a display label for the point, or geocode.Fallback
// when the lookup fails.
func (s *Service) ReverseGeocode(ctx context.Context, lat, lng float64) string {
	return geocode.ReverseOrFallback(ctx, s.geocoder, lat, lng)
}

// SaveLocation validates and stores the owner's location. Bounds are
// checked before anything is sent. An empty areaName is filled by reverse
// geocoding.
func (s *Service) SaveLocation(ctx context.Context, ownerID string, role models.Role, coords geo.Coordinates, radiusKm *float64, areaName string) (*models.Location, error) {
	loc := models.Location{
		OwnerID:   ownerID,
		OwnerRole: role,
		Latitude:  coords.Lat,
		Longitude: coords.Lng,
		AreaName:  areaName,
	}
	if role == models.RoleCollector {
		loc.SearchRadiusKm = radiusKm
	}
	if errs := loc.Validate(); errs.Any() {
		return nil, &api.ValidationError{Message: "invalid location", Fields: errs}
	}
	if role != models.RoleSeller && role != models.RoleCollector {
		return nil, api.Invalid("role", "role must be seller or collector")
	}
	if loc.AreaName == "" {
		loc.AreaName = s.ReverseGeocode(ctx, coords.Lat, coords.Lng)
	}
	return s.backend.SetLocation(ctx, ownerID, role, loc)
}

// GetLocation reads the owner's saved location.
func (s *Service) GetLocation(ctx context.Context, ownerID string, role models.Role) (*models.Location, error) {
	return s.backend.Location(ctx, ownerID, role)
}

// PickFromMap follows map clicks until the channel closes and returns the
// last valid point. initial, when given, is the pre-placed marker.
func (s *Service) PickFromMap(ctx context.Context, clicks <-chan geo.Coordinates, initial *geo.Coordinates) (geo.Coordinates, error) {
	var marker *geo.Coordinates
	if initial != nil && initial.Validate() == nil {
		c := *initial
		marker = &c
	}
	for {
		select {
		case <-ctx.Done():
			return geo.Coordinates{}, ctx.Err()
		case c, ok := <-clicks:
			if !ok {
				if marker == nil {
					return geo.Coordinates{}, ErrNoSelection
				}
				return *marker, nil
			}
			if c.Validate() == nil {
				marker = &c
			}
		}
	}
}
