// Package matching decides which listings a collector can see and how much
// of each listing a viewer is allowed to read.
package matching

import (
	"math"
	"sort"

	"github.com/AnshRaj112/ridit-backend/internal/models"
	"github.com/AnshRaj112/ridit-backend/pkg/geo"
)

// ComputeVisibleItems returns the pending candidates within radiusKm of the
// collector, nearest first, with DistanceKm set. Items without coordinates
// and a negative or NaN radius yield nothing.
func ComputeVisibleItems(collector geo.Coordinates, radiusKm float64, candidates []models.Item) []models.Item {
	if math.IsNaN(radiusKm) || radiusKm < 0 || collector.Validate() != nil {
		return []models.Item{}
	}

	visible := make([]models.Item, 0, len(candidates))
	for _, it := range candidates {
		if it.Status != models.StatusPending {
			continue
		}
		c := it.Address.Coordinates
		if c.IsZero() || c.Validate() != nil {
			continue
		}
		d := geo.DistanceKm(collector, c)
		if d > radiusKm {
			continue
		}
		rounded := geo.RoundKm(d)
		it.DistanceKm = &rounded
		visible = append(visible, it)
	}

	sort.SliceStable(visible, func(i, j int) bool {
		return *visible[i].DistanceKm < *visible[j].DistanceKm
	})
	return visible
}

// CanSeeContact reports whether viewerID may read the seller's contact
// details on item.
func CanSeeContact(item models.Item, viewerID string) bool {
	if viewerID == "" {
		return false
	}
	if item.SellerID == viewerID {
		return true
	}
	switch item.Status {
	case models.StatusAccepted, models.StatusCollected:
		return item.AcceptedBy(viewerID)
	}
	return false
}

// Present strips the seller's name, phone and street unless CanSeeContact.
func Present(item models.Item, viewerID string) models.Item {
	if CanSeeContact(item, viewerID) {
		return item
	}
	item.SellerName = ""
	item.SellerPhone = ""
	item.Address.Street = ""
	return item
}

// PresentAll applies Present to every item.
func PresentAll(items []models.Item, viewerID string) []models.Item {
	out := make([]models.Item, len(items))
	for i, it := range items {
		out[i] = Present(it, viewerID)
	}
	return out
}
