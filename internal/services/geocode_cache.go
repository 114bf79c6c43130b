package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/AnshRaj112/ridit-backend/pkg/geocode"
)

// GeocodeCacheTTL keeps area names for a day; they rarely change.
const GeocodeCacheTTL = 24 * time.Hour

// CachedReverser memoises reverse-geocoding results in Redis. Coordinates
// are bucketed to 4 decimals (about 11 m).
type CachedReverser struct {
	Next  geocode.Reverser
	Cache *CacheService
}

func (c *CachedReverser) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	key := cacheKey("geocode", fmt.Sprintf("%.4f", lat), fmt.Sprintf("%.4f", lng))

	var label string
	if ok, _ := c.Cache.Get(ctx, key, &label); ok && label != "" {
		return label, nil
	}

	label, err := c.Next.Reverse(ctx, lat, lng)
	if err != nil {
		return "", err
	}
	if err := c.Cache.Put(ctx, key, label, GeocodeCacheTTL); err != nil {
		log.Printf("geocode cache write failed: %v", err)
	}
	return label, nil
}

// Geocoder resolves area names for saved locations. Set from main.
var Geocoder geocode.Reverser
