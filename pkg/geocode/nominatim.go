package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public OpenStreetMap reverse geocoder.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"
	// UnknownArea labels a point the geocoder could not name.
	UnknownArea = "Unknown Area"
	// Fallback is returned by callers that must not fail on geocoding errors.
	Fallback = "Location fetched"
)

// Reverser turns coordinates into a human-readable area label.
type Reverser interface {
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}

// Nominatim is a client for the Nominatim /reverse endpoint.
type Nominatim struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
}

// NewNominatim returns a client with a 5 second timeout.
func NewNominatim(baseURL string) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Nominatim{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		UserAgent:  "ridit-backend/1.0",
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}
}

type reverseResponse struct {
	Address struct {
		Suburb        string `json:"suburb"`
		Neighbourhood string `json:"neighbourhood"`
		Village       string `json:"village"`
		Town          string `json:"town"`
		City          string `json:"city"`
	} `json:"address"`
}

// Reverse returns "<area>, <city>" or "<area>" for the given point.
func (n *Nominatim) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', 6, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.BaseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	if n.UserAgent != "" {
		req.Header.Set("User-Agent", n.UserAgent)
	}

	client := n.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocode: unexpected status %d", resp.StatusCode)
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("reverse geocode: decode: %w", err)
	}
	return label(body), nil
}

func label(r reverseResponse) string {
	a := r.Address
	area := firstNonEmpty(a.Suburb, a.Neighbourhood, a.Village, a.Town, a.City)
	if area == "" {
		area = UnknownArea
	}
	city := firstNonEmpty(a.City, a.Town)
	if city != "" && city != area {
		return area + ", " + city
	}
	return area
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// ReverseOrFallback never fails: any lookup error yields Fallback.
func ReverseOrFallback(ctx context.Context, r Reverser, lat, lng float64) string {
	if r == nil {
		return Fallback
	}
	name, err := r.Reverse(ctx, lat, lng)
	if err != nil || name == "" {
		return Fallback
	}
	return name
}
