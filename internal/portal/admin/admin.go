// Package admin is the operator's override layer over users, items and
// subscriptions.
package admin

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/AnshRaj112/ridit-backend/internal/models"
	"github.com/AnshRaj112/ridit-backend/internal/portal/api"
	"github.com/AnshRaj112/ridit-backend/pkg/utils"
)

// Backend is the admin half of the API client.
type Backend interface {
	Users(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, req models.AdminCreateUserRequest) (*models.User, error)
	User(ctx context.Context, userID string) (*models.User, error)
	UpdateUser(ctx context.Context, userID string, upd models.AdminUserUpdate) (*models.User, error)
	UpdateUserRole(ctx context.Context, userID string, role models.Role) (*models.User, error)
	DeleteUser(ctx context.Context, userID string) error
	AllItems(ctx context.Context) ([]models.Item, error)
	OverrideItemWeight(ctx context.Context, itemID string, weightKg float64) (*models.Item, error)
	AdminDeleteItem(ctx context.Context, itemID string) error
	Subscriptions(ctx context.Context) ([]models.Subscription, error)
	ActivateSubscription(ctx context.Context, collectorID string, req models.SubscriptionRequest) (*models.Subscription, error)
	CancelSubscription(ctx context.Context, collectorID string) (*models.Subscription, error)
}

type Panel struct {
	backend Backend
}

func New(backend Backend) *Panel {
	return &Panel{backend: backend}
}

// Overview is the admin landing page.
type Overview struct {
	Users         []models.User
	Items         []models.Item
	Subscriptions []models.Subscription

	UsersByRole   map[models.Role]int
	ItemsByStatus map[models.ItemStatus]int
	ActiveSubs    int
}

func (p *Panel) ListAllUsers(ctx context.Context) ([]models.User, error) {
	return p.backend.Users(ctx)
}

func (p *Panel) ListAllItems(ctx context.Context) ([]models.Item, error) {
	return p.backend.AllItems(ctx)
}

func (p *Panel) ListAllSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	return p.backend.Subscriptions(ctx)
}

// Overview loads users, items and subscriptions concurrently. Any failure
// fails the whole overview.
func (p *Panel) Overview(ctx context.Context) (*Overview, error) {
	o := &Overview{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		o.Users, err = p.backend.Users(gctx)
		return err
	})
	g.Go(func() (err error) {
		o.Items, err = p.backend.AllItems(gctx)
		return err
	})
	g.Go(func() (err error) {
		o.Subscriptions, err = p.backend.Subscriptions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	o.UsersByRole = make(map[models.Role]int)
	for _, u := range o.Users {
		o.UsersByRole[u.Role]++
	}
	o.ItemsByStatus = make(map[models.ItemStatus]int)
	for _, it := range o.Items {
		o.ItemsByStatus[it.Status]++
	}
	for _, s := range o.Subscriptions {
		if s.Status == models.SubscriptionActive {
			o.ActiveSubs++
		}
	}
	return o, nil
}

// CreateUser adds a seller, collector or admin with a password. The
// server rejects a phone that is already registered.
func (p *Panel) CreateUser(ctx context.Context, req models.AdminCreateUserRequest) (*models.User, error) {
	req.Phone = utils.NormalizePhone(req.Phone)
	if errs := req.Validate(); errs.Any() {
		return nil, &api.ValidationError{Message: "invalid user", Fields: errs}
	}
	return p.backend.CreateUser(ctx, req)
}

func (p *Panel) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return p.backend.User(ctx, userID)
}

// UpdateUser corrects a user's name, email or phone.
func (p *Panel) UpdateUser(ctx context.Context, userID string, upd models.AdminUserUpdate) (*models.User, error) {
	if upd.Name == nil && upd.Email == nil && upd.Phone == nil {
		return nil, api.Invalid("body", "nothing to update")
	}
	if upd.Phone != nil && *upd.Phone != "" && !models.ValidPhone(*upd.Phone) {
		return nil, api.Invalid("phone", "phone must be at least 10 digits")
	}
	return p.backend.UpdateUser(ctx, userID, upd)
}

func (p *Panel) UpdateUserRole(ctx context.Context, userID string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, api.Invalid("role", "role must be seller, collector or admin")
	}
	return p.backend.UpdateUserRole(ctx, userID, role)
}

// DeleteUser hard-deletes an account regardless of ownership rules.
func (p *Panel) DeleteUser(ctx context.Context, userID string) error {
	return p.backend.DeleteUser(ctx, userID)
}

// DeleteItem hard-deletes an item in any status.
func (p *Panel) DeleteItem(ctx context.Context, itemID string) error {
	return p.backend.AdminDeleteItem(ctx, itemID)
}

// OverrideItemWeight corrects a recorded weight outside the collection flow.
func (p *Panel) OverrideItemWeight(ctx context.Context, itemID string, weightKg float64) (*models.Item, error) {
	if !(weightKg > 0) || math.IsInf(weightKg, 0) {
		return nil, api.Invalid("actual_weight", "weight must be greater than 0")
	}
	return p.backend.OverrideItemWeight(ctx, itemID, weightKg)
}

func (p *Panel) ActivateSubscription(ctx context.Context, collectorID, planType string, daysValid int) (*models.Subscription, error) {
	if daysValid <= 0 {
		return nil, api.Invalid("days_valid", "days_valid must be greater than 0")
	}
	return p.backend.ActivateSubscription(ctx, collectorID, models.SubscriptionRequest{PlanType: planType, DaysValid: daysValid})
}

func (p *Panel) CancelSubscription(ctx context.Context, collectorID string) (*models.Subscription, error) {
	return p.backend.CancelSubscription(ctx, collectorID)
}
