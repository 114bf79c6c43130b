package pricing

import "testing"

func TestEstimate(t *testing.T) {
	got, err := Estimate(Plastic, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 75 {
		t.Fatalf("Estimate(plastic, 5) = %v, want 75", got)
	}

	got, err = Estimate(EWaste, 2.5)
	if err != nil || got != 150 {
		t.Fatalf("Estimate(ewaste, 2.5) = %v, %v; want 150", got, err)
	}
}

func TestEstimateUnknownCategory(t *testing.T) {
	if _, err := Estimate(Category("glass"), 1); err == nil {
		t.Fatalf("expected error for unknown category")
	}
	if Category("glass").Valid() {
		t.Fatalf("glass should not be a valid category")
	}
}

func TestCustomRates(t *testing.T) {
	r := Rates{Plastic: 20}
	got, err := r.Estimate(Plastic, 3)
	if err != nil || got != 60 {
		t.Fatalf("custom estimate = %v, %v; want 60", got, err)
	}
	if _, err := r.Estimate(Metal, 1); err == nil {
		t.Fatalf("expected error for category missing from custom table")
	}
}
