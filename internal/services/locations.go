package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/AnshRaj112/ridit-backend/internal/database"
	"github.com/AnshRaj112/ridit-backend/internal/models"
	"github.com/AnshRaj112/ridit-backend/pkg/geocode"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// collectorRadius returns the radius to store: the chosen value, already
// range-checked by Location.Validate, or the default.
func collectorRadius(r *float64) float64 {
	if r == nil {
		return models.DefaultSearchRadiusKm
	}
	return *r
}

// SaveLocation upserts the single location of a seller or collector.
func SaveLocation(ctx context.Context, ownerID string, role models.Role, loc models.Location) (*models.Location, error) {
	if role != models.RoleSeller && role != models.RoleCollector {
		return nil, ErrForbidden
	}
	if errs := loc.Validate(); errs.Any() {
		return nil, &ValidationError{Message: "invalid location", Fields: errs}
	}
	id, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	u, err := GetUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if u.Role != role {
		return nil, ErrForbidden
	}

	var radius *float64
	if role == models.RoleCollector {
		r := collectorRadius(loc.SearchRadiusKm)
		radius = &r
	}

	area := strings.TrimSpace(loc.AreaName)
	if area == "" && Geocoder != nil {
		area = geocode.ReverseOrFallback(ctx, Geocoder, loc.Latitude, loc.Longitude)
	}

	now := time.Now().UTC()
	_, err = database.PostgresDB.ExecContext(ctx, `
		INSERT INTO locations (owner_id, owner_role, latitude, longitude, area_name, search_radius_km, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (owner_id) DO UPDATE SET
			owner_role = EXCLUDED.owner_role,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			area_name = EXCLUDED.area_name,
			search_radius_km = EXCLUDED.search_radius_km,
			updated_at = EXCLUDED.updated_at
	`, id, role, loc.Latitude, loc.Longitude, area, radius, now)
	if err != nil {
		return nil, err
	}

	return &models.Location{
		OwnerID:        ownerID,
		OwnerRole:      role,
		Latitude:       loc.Latitude,
		Longitude:      loc.Longitude,
		AreaName:       area,
		SearchRadiusKm: radius,
		UpdatedAt:      now,
	}, nil
}

// GetLocation returns the saved location of an owner.
func GetLocation(ctx context.Context, ownerID string) (*models.Location, error) {
	id, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, ErrLocationNotSet
	}

	var loc models.Location
	var radius sql.NullFloat64
	err = database.PostgresDB.QueryRowContext(ctx, `
		SELECT owner_role, latitude, longitude, area_name, search_radius_km, updated_at
		FROM locations WHERE owner_id = $1
	`, id).Scan(&loc.OwnerRole, &loc.Latitude, &loc.Longitude, &loc.AreaName, &radius, &loc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLocationNotSet
	}
	if err != nil {
		return nil, err
	}
	loc.OwnerID = ownerID
	if radius.Valid {
		r := radius.Float64
		loc.SearchRadiusKm = &r
	}
	return &loc, nil
}

// locationsFor loads the saved coordinates of several owners at once.
func locationsFor(ctx context.Context, ownerIDs []string) (map[string]models.Location, error) {
	out := make(map[string]models.Location, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return out, nil
	}
	rows, err := database.PostgresDB.QueryContext(ctx, `
		SELECT owner_id, latitude, longitude FROM locations WHERE owner_id::text = ANY($1)
	`, pq.Array(ownerIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var loc models.Location
		if err := rows.Scan(&loc.OwnerID, &loc.Latitude, &loc.Longitude); err != nil {
			return nil, err
		}
		out[loc.OwnerID] = loc
	}
	return out, rows.Err()
}
