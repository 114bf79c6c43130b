package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/AnshRaj112/ridit-backend/pkg/geo"
	"github.com/AnshRaj112/ridit-backend/pkg/pricing"
)

// ItemStatus is the lifecycle state of a listing.
type ItemStatus string

const (
	StatusPending   ItemStatus = "pending"
	StatusAccepted  ItemStatus = "accepted"
	StatusCollected ItemStatus = "collected"
	StatusCancelled ItemStatus = "cancelled"
)

// MinDescriptionLength is the shortest accepted item description.
const MinDescriptionLength = 10

// PriceNote accompanies every estimate shown to sellers.
const PriceNote = "Final price based on actual weight at pickup"

// Valid reports whether s is a known status.
func (s ItemStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusCollected, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s ItemStatus) Terminal() bool {
	return s == StatusCollected || s == StatusCancelled
}

var transitions = map[ItemStatus][]ItemStatus{
	StatusPending:  {StatusAccepted, StatusCancelled},
	StatusAccepted: {StatusCollected},
}

// CanTransition reports whether an item may move from one status to another.
func CanTransition(from, to ItemStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// releases are admin-only edges taken when the collector holding an item
// is deleted. Users never reach them through CanTransition.
var releases = map[ItemStatus]ItemStatus{
	StatusAccepted: StatusPending,
}

// ReleaseTarget returns the status an item in from falls back to when its
// collector account is removed.
func ReleaseTarget(from ItemStatus) (ItemStatus, bool) {
	to, ok := releases[from]
	return to, ok
}

type Address struct {
	Street      string          `json:"street"`
	City        string          `json:"city"`
	ZipCode     string          `json:"zip_code"`
	Coordinates geo.Coordinates `json:"coordinates"`
}

type PickupSlot struct {
	Date      string `json:"date"`       // YYYY-MM-DD
	StartTime string `json:"start_time"` // HH:MM
	EndTime   string `json:"end_time"`   // HH:MM
}

// Validate checks date and time formats and that the window is not empty.
func (p PickupSlot) Validate() error {
	if _, err := time.Parse("2006-01-02", p.Date); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD")
	}
	start, err := time.Parse("15:04", p.StartTime)
	if err != nil {
		return fmt.Errorf("start_time must be HH:MM")
	}
	end, err := time.Parse("15:04", p.EndTime)
	if err != nil {
		return fmt.Errorf("end_time must be HH:MM")
	}
	if !end.After(start) {
		return fmt.Errorf("end_time must be after start_time")
	}
	return nil
}

type Item struct {
	ID          string           `json:"id"`
	SellerID    string           `json:"seller_id"`
	SellerName  string           `json:"seller_name,omitempty"`
	SellerPhone string           `json:"seller_phone,omitempty"`
	Category    pricing.Category `json:"category"`
	QuantityKg  float64          `json:"quantity_kg"`
	Description string           `json:"description"`
	ImageURL    string           `json:"image_url"`
	Address     Address          `json:"address"`
	PickupSlot  PickupSlot       `json:"pickup_slot"`

	EstimatedPrice float64  `json:"estimated_price"`
	ActualWeight   *float64 `json:"actual_weight,omitempty"`
	FinalPrice     *float64 `json:"final_price,omitempty"`

	Status         ItemStatus `json:"status"`
	CollectorID    *string    `json:"collector_id,omitempty"`
	CollectorName  string     `json:"collector_name,omitempty"`
	CollectorPhone string     `json:"collector_phone,omitempty"`

	PostedDate  time.Time  `json:"posted_date"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CollectedAt *time.Time `json:"collected_at,omitempty"`

	// Set by matching queries only.
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// AcceptedBy reports whether collectorID holds the item.
func (i Item) AcceptedBy(collectorID string) bool {
	return i.CollectorID != nil && *i.CollectorID == collectorID
}

// ItemDraft is what a seller submits to list an item.
type ItemDraft struct {
	Category    pricing.Category `json:"category"`
	QuantityKg  float64          `json:"quantity_kg"`
	Description string           `json:"description"`
	ImageURL    string           `json:"image_url"`
	Address     Address          `json:"address"`
	PickupSlot  PickupSlot       `json:"pickup_slot"`
}

// Validate applies the listing rules shared by the portal and the API.
func (d ItemDraft) Validate() FieldErrors {
	errs := FieldErrors{}
	if !d.Category.Valid() {
		errs.Add("category", fmt.Sprintf("category must be one of %v", pricing.Categories()))
	}
	if d.QuantityKg <= 0 {
		errs.Add("quantity_kg", "quantity_kg must be greater than 0")
	}
	if utf8.RuneCountInString(strings.TrimSpace(d.Description)) < MinDescriptionLength {
		errs.Add("description", fmt.Sprintf("description must be at least %d characters", MinDescriptionLength))
	}
	if strings.TrimSpace(d.ImageURL) == "" {
		errs.Add("image_url", "image_url is required")
	}
	if err := d.PickupSlot.Validate(); err != nil {
		errs.Add("pickup_slot", err.Error())
	}
	if err := d.Address.Coordinates.Validate(); err != nil {
		errs.Add("address.coordinates", err.Error())
	}
	return errs
}

// ItemList is the envelope for item listings.
type ItemList struct {
	Items      []Item `json:"items"`
	TotalCount int    `json:"total_count"`
}

// ItemStatusView is the lightweight status lookup a seller polls.
type ItemStatusView struct {
	ItemID         string     `json:"item_id"`
	Status         ItemStatus `json:"status"`
	CollectorName  string     `json:"collector_name,omitempty"`
	CollectorPhone string     `json:"collector_phone,omitempty"`
	EstimatedPrice float64    `json:"estimated_price"`
	FinalPrice     *float64   `json:"final_price,omitempty"`
	PostedDate     time.Time  `json:"posted_date"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// WeightOverride is the admin correction payload.
type WeightOverride struct {
	ActualWeight float64 `json:"actual_weight"`
}

// SearchArea echoes the centre and radius a matching query used.
type SearchArea struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusKm  float64 `json:"radius_km"`
}

// AvailableItems is the collector's matching result.
type AvailableItems struct {
	Items             []Item     `json:"items"`
	TotalCount        int        `json:"total_count"`
	CollectorLocation SearchArea `json:"collector_location"`
}

// ItemHistory is a page of an item's timeline.
type ItemHistory struct {
	Events  []ItemEvent `json:"events"`
	HasMore bool        `json:"has_more"`
}
