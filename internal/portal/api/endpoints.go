package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/AnshRaj112/ridit-backend/internal/models"
	"github.com/AnshRaj112/ridit-backend/pkg/pricing"
)

func p(parts ...string) string {
	path := ""
	for _, part := range parts {
		path += "/" + url.PathEscape(part)
	}
	return path
}

// --- auth ---

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GoogleLogin(ctx context.Context, req models.FederatedAuthRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/google-login", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GoogleRegister(ctx context.Context, req models.FederatedAuthRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/google-register", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminLogin(ctx context.Context, req models.AdminLoginRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/admin/login", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the current token server-side. Admin tokens use the
// admin route.
func (c *Client) Logout(ctx context.Context, role models.Role) error {
	path := "/auth/logout"
	if role == models.RoleAdmin {
		path = "/admin/logout"
	}
	return c.do(ctx, http.MethodPost, path, nil, nil, nil)
}

func (c *Client) Profile(ctx context.Context, userID string) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodGet, p("auth", "profile", userID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodPut, p("auth", "profile", userID), nil, upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- seller ---

func (c *Client) AddItem(ctx context.Context, sellerID string, draft models.ItemDraft) (*models.Item, error) {
	var out models.Item
	q := url.Values{"seller_id": {sellerID}}
	if err := c.do(ctx, http.MethodPost, "/seller/items/add", q, draft, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SellerItems(ctx context.Context, sellerID string, status models.ItemStatus) ([]models.Item, error) {
	var q url.Values
	if status != "" {
		q = url.Values{"status_filter": {string(status)}}
	}
	var out models.ItemList
	if err := c.do(ctx, http.MethodGet, p("seller", "items", sellerID), q, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) ItemStatus(ctx context.Context, itemID string) (*models.ItemStatusView, error) {
	var out models.ItemStatusView
	if err := c.do(ctx, http.MethodGet, p("seller", "items", itemID, "status"), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ItemHistory pages an item's timeline, newest first. A zero before starts
// from the latest event.
func (c *Client) ItemHistory(ctx context.Context, itemID string, before time.Time, limit int) (*models.ItemHistory, error) {
	q := url.Values{}
	if !before.IsZero() {
		q.Set("before", before.UTC().Format(time.RFC3339))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out models.ItemHistory
	if err := c.do(ctx, http.MethodGet, p("items", itemID, "history"), q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelItem(ctx context.Context, itemID string) (*models.Item, error) {
	var out models.Item
	if err := c.do(ctx, http.MethodPut, p("seller", "items", itemID, "cancel"), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteItem(ctx context.Context, itemID string) error {
	return c.do(ctx, http.MethodDelete, p("seller", "items", itemID), nil, nil, nil)
}

// UploadImage posts a listing photo and returns its hosted URL.
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return "", fmt.Errorf("read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/upload", nil, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		URL string `json:"url"`
	}
	if err := c.send(req, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// --- locations ---

func locationPath(role models.Role, ownerID string) string {
	if role == models.RoleCollector {
		return p("collector", "location", ownerID)
	}
	return p("seller", "location", ownerID)
}

func (c *Client) SetLocation(ctx context.Context, ownerID string, role models.Role, loc models.Location) (*models.Location, error) {
	var out models.Location
	if err := c.do(ctx, http.MethodPut, locationPath(role, ownerID), nil, loc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Location(ctx context.Context, ownerID string, role models.Role) (*models.Location, error) {
	var out models.Location
	if err := c.do(ctx, http.MethodGet, locationPath(role, ownerID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- collector ---

func (c *Client) AvailableItems(ctx context.Context, collectorID string, category pricing.Category) (*models.AvailableItems, error) {
	q := url.Values{"collector_id": {collectorID}}
	if category != "" {
		q.Set("category", string(category))
	}
	var out models.AvailableItems
	if err := c.do(ctx, http.MethodGet, "/collector/items", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AcceptedItems(ctx context.Context, collectorID string) ([]models.Item, error) {
	var out models.ItemList
	q := url.Values{"collector_id": {collectorID}}
	if err := c.do(ctx, http.MethodGet, "/collector/my-accepted", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) AcceptItem(ctx context.Context, itemID, collectorID string) (*models.Item, error) {
	var out models.Item
	q := url.Values{"collector_id": {collectorID}}
	if err := c.do(ctx, http.MethodPost, p("collector", "items", itemID, "accept"), q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CompleteCollection(ctx context.Context, itemID, collectorID string, actualWeightKg float64) (*models.Item, error) {
	var out models.Item
	q := url.Values{
		"collector_id":  {collectorID},
		"actual_weight": {strconv.FormatFloat(actualWeightKg, 'f', -1, 64)},
	}
	if err := c.do(ctx, http.MethodPost, p("collector", "items", itemID, "complete"), q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Subscription(ctx context.Context, collectorID string) (*models.Subscription, error) {
	var out models.Subscription
	if err := c.do(ctx, http.MethodGet, p("collector", "subscription", collectorID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- admin ---

func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	var out struct {
		Users []models.User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/users", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (c *Client) CreateUser(ctx context.Context, req models.AdminCreateUserRequest) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodPost, "/admin/users/create", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) User(ctx context.Context, userID string) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodGet, p("admin", "user", userID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUser(ctx context.Context, userID string, upd models.AdminUserUpdate) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodPut, p("admin", "user", userID), nil, upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUserRole(ctx context.Context, userID string, role models.Role) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodPut, p("admin", "user", userID, "role"), nil, models.RoleUpdate{Role: role}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, p("admin", "user", userID), nil, nil, nil)
}

func (c *Client) AllItems(ctx context.Context) ([]models.Item, error) {
	var out models.ItemList
	if err := c.do(ctx, http.MethodGet, "/admin/items", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) OverrideItemWeight(ctx context.Context, itemID string, weightKg float64) (*models.Item, error) {
	var out models.Item
	body := models.WeightOverride{ActualWeight: weightKg}
	if err := c.do(ctx, http.MethodPut, p("admin", "item", itemID), nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminDeleteItem(ctx context.Context, itemID string) error {
	return c.do(ctx, http.MethodDelete, p("admin", "item", itemID), nil, nil, nil)
}

func (c *Client) Subscriptions(ctx context.Context) ([]models.Subscription, error) {
	var out struct {
		Subscriptions []models.Subscription `json:"subscriptions"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/subscriptions", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Subscriptions, nil
}

func (c *Client) ActivateSubscription(ctx context.Context, collectorID string, req models.SubscriptionRequest) (*models.Subscription, error) {
	var out models.Subscription
	if err := c.do(ctx, http.MethodPost, p("admin", "subscriptions", collectorID), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelSubscription(ctx context.Context, collectorID string) (*models.Subscription, error) {
	var out models.Subscription
	if err := c.do(ctx, http.MethodDelete, p("admin", "subscriptions", collectorID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
