package models

import (
	"strings"
	"testing"
	"time"

	"github.com/AnshRaj112/ridit-backend/pkg/geo"
)

func validDraft() ItemDraft {
	return ItemDraft{
		Category:    "plastic",
		QuantityKg:  5,
		Description: "Two bags of PET bottles",
		ImageURL:    "https://res.cloudinary.com/demo/bottles.jpg",
		Address: Address{
			Street:      "12 MG Road",
			City:        "Bengaluru",
			ZipCode:     "560001",
			Coordinates: geo.Coordinates{Lat: 12.97, Lng: 77.59},
		},
		PickupSlot: PickupSlot{Date: "2026-10-20", StartTime: "09:00", EndTime: "11:00"},
	}
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]ItemStatus{
		{StatusPending, StatusAccepted},
		{StatusPending, StatusCancelled},
		{StatusAccepted, StatusCollected},
	}
	for _, tr := range allowed {
		if !CanTransition(tr[0], tr[1]) {
			t.Errorf("expected %s -> %s to be allowed", tr[0], tr[1])
		}
	}

	denied := [][2]ItemStatus{
		{StatusAccepted, StatusCancelled},
		{StatusCollected, StatusPending},
		{StatusCancelled, StatusAccepted},
		{StatusPending, StatusCollected},
		{StatusAccepted, StatusAccepted},
	}
	for _, tr := range denied {
		if CanTransition(tr[0], tr[1]) {
			t.Errorf("expected %s -> %s to be rejected", tr[0], tr[1])
		}
	}

	if !StatusCollected.Terminal() || !StatusCancelled.Terminal() || StatusPending.Terminal() {
		t.Errorf("terminal states misreported")
	}
}

func TestReleaseEdgeIsAdminOnly(t *testing.T) {
	to, ok := ReleaseTarget(StatusAccepted)
	if !ok || to != StatusPending {
		t.Fatalf("ReleaseTarget(accepted) = %s, %v", to, ok)
	}
	if CanTransition(StatusAccepted, to) {
		t.Error("release edge reachable through CanTransition")
	}
	for _, s := range []ItemStatus{StatusPending, StatusCollected, StatusCancelled} {
		if _, ok := ReleaseTarget(s); ok {
			t.Errorf("%s should not be releasable", s)
		}
	}
}

func TestItemDraftValidate(t *testing.T) {
	if errs := validDraft().Validate(); errs.Any() {
		t.Fatalf("valid draft rejected: %v", errs)
	}

	d := validDraft()
	d.QuantityKg = 0
	d.Description = "short"
	d.ImageURL = " "
	d.Category = "glass"
	d.PickupSlot.EndTime = "08:00"
	d.Address.Coordinates.Lat = 95

	errs := d.Validate()
	for _, field := range []string{"quantity_kg", "description", "image_url", "category", "pickup_slot", "address.coordinates"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("expected error on %s, got %v", field, errs)
		}
	}
	if !strings.Contains(errs.Error(), "quantity_kg") {
		t.Errorf("Error() should mention quantity_kg: %s", errs.Error())
	}

	// Length is measured in characters, not bytes.
	d = validDraft()
	d.Description = "ééééé"
	if _, ok := d.Validate()["description"]; !ok {
		t.Error("5-character non-ASCII description accepted")
	}
	d.Description = "पुराने अखबार" // 12 characters
	if _, ok := d.Validate()["description"]; ok {
		t.Error("12-character non-ASCII description rejected")
	}
}

func TestPickupSlotValidate(t *testing.T) {
	bad := []PickupSlot{
		{Date: "20-10-2026", StartTime: "09:00", EndTime: "10:00"},
		{Date: "2026-10-20", StartTime: "9am", EndTime: "10:00"},
		{Date: "2026-10-20", StartTime: "09:00", EndTime: "09:00"},
	}
	for _, p := range bad {
		if p.Validate() == nil {
			t.Errorf("expected %+v to be invalid", p)
		}
	}
}

func TestLocationValidate(t *testing.T) {
	zero := 0.0
	loc := Location{Latitude: -91, Longitude: 181, SearchRadiusKm: &zero}
	errs := loc.Validate()
	if len(errs) != 3 {
		t.Fatalf("expected 3 field errors, got %v", errs)
	}

	ok := Location{Latitude: 12.9, Longitude: 77.6}
	if ok.Validate().Any() {
		t.Fatalf("valid location rejected")
	}
	if ok.Radius() != DefaultSearchRadiusKm {
		t.Fatalf("default radius = %v", ok.Radius())
	}

	for _, r := range []float64{0.5, 75, -1} {
		r := r
		l := Location{Latitude: 12.9, Longitude: 77.6, SearchRadiusKm: &r}
		if l.Validate()["search_radius_km"] == "" {
			t.Errorf("radius %v accepted", r)
		}
	}
	for _, r := range []float64{MinSearchRadiusKm, MaxSearchRadiusKm} {
		r := r
		l := Location{Latitude: 12.9, Longitude: 77.6, SearchRadiusKm: &r}
		if l.Validate().Any() {
			t.Errorf("radius %v rejected", r)
		}
	}
}

func TestSubscriptionActiveAt(t *testing.T) {
	now := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-time.Hour)

	if !(Subscription{Status: SubscriptionActive, ExpiryDate: &future}).ActiveAt(now) {
		t.Errorf("unexpired active subscription should be active")
	}
	if (Subscription{Status: SubscriptionActive, ExpiryDate: &past}).ActiveAt(now) {
		t.Errorf("expired subscription should be inactive")
	}
	if (Subscription{Status: SubscriptionInactive}).ActiveAt(now) {
		t.Errorf("inactive subscription should be inactive")
	}
}

func TestRegisterRequestValidate(t *testing.T) {
	r := RegisterRequest{Name: "Asha", Phone: "98765", Password: "abc", Role: RoleAdmin}
	errs := r.Validate()
	for _, f := range []string{"phone", "password", "role"} {
		if _, ok := errs[f]; !ok {
			t.Errorf("expected %s error", f)
		}
	}
	r = RegisterRequest{Name: "Asha", Phone: "9876543210", Password: "secret1", Role: RoleSeller}
	if r.Validate().Any() {
		t.Errorf("valid registration rejected: %v", r.Validate())
	}
}

func TestAdminCreateUserRequestValidate(t *testing.T) {
	ok := AdminCreateUserRequest{Name: "Ravi", Phone: "9876543210", Password: "secret1", Role: RoleCollector}
	if errs := ok.Validate(); errs.Any() {
		t.Fatalf("valid request rejected: %v", errs)
	}

	admin := ok
	admin.Role = RoleAdmin
	if errs := admin.Validate(); errs["email"] == "" {
		t.Errorf("admin without email accepted: %v", errs)
	}
	admin.Email = "ops@ridit.in"
	if errs := admin.Validate(); errs.Any() {
		t.Errorf("admin with email rejected: %v", errs)
	}

	bad := AdminCreateUserRequest{Name: " ", Phone: "123", Password: "12345", Role: "owner"}
	errs := bad.Validate()
	for _, f := range []string{"name", "phone", "password", "role"} {
		if errs[f] == "" {
			t.Errorf("missing %s error in %v", f, errs)
		}
	}
}
