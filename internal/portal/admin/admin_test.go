package admin

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/AnshRaj112/ridit-backend/internal/models"
	"github.com/AnshRaj112/ridit-backend/internal/portal/api"
)

type fakeBackend struct {
	mu      sync.Mutex
	calls   []string
	subsErr error
}

func (f *fakeBackend) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeBackend) Users(context.Context) ([]models.User, error) {
	f.record("users")
	return []models.User{{ID: "s1", Role: models.RoleSeller}, {ID: "c1", Role: models.RoleCollector}, {ID: "c2", Role: models.RoleCollector}}, nil
}

func (f *fakeBackend) CreateUser(_ context.Context, req models.AdminCreateUserRequest) (*models.User, error) {
	f.record("create-user")
	if req.Phone == "9000000009" {
		return nil, &api.ConflictError{Detail: "phone number already registered"}
	}
	return &models.User{ID: "new", Name: req.Name, Phone: req.Phone, Role: req.Role}, nil
}

func (f *fakeBackend) User(_ context.Context, id string) (*models.User, error) {
	f.record("user")
	return &models.User{ID: id}, nil
}

func (f *fakeBackend) UpdateUser(_ context.Context, id string, _ models.AdminUserUpdate) (*models.User, error) {
	f.record("update-user")
	return &models.User{ID: id}, nil
}

func (f *fakeBackend) UpdateUserRole(_ context.Context, id string, role models.Role) (*models.User, error) {
	f.record("update-role")
	return &models.User{ID: id, Role: role}, nil
}

func (f *fakeBackend) DeleteUser(context.Context, string) error {
	f.record("delete-user")
	return nil
}

func (f *fakeBackend) AllItems(context.Context) ([]models.Item, error) {
	f.record("items")
	return []models.Item{{ID: "i1", Status: models.StatusPending}, {ID: "i2", Status: models.StatusCollected}}, nil
}

func (f *fakeBackend) OverrideItemWeight(_ context.Context, id string, kg float64) (*models.Item, error) {
	f.record("override")
	return &models.Item{ID: id, ActualWeight: &kg}, nil
}

func (f *fakeBackend) AdminDeleteItem(context.Context, string) error {
	f.record("delete-item")
	return nil
}

func (f *fakeBackend) Subscriptions(context.Context) ([]models.Subscription, error) {
	f.record("subs")
	if f.subsErr != nil {
		return nil, f.subsErr
	}
	return []models.Subscription{{CollectorID: "c1", Status: models.SubscriptionActive}, {CollectorID: "c2", Status: models.SubscriptionInactive}}, nil
}

func (f *fakeBackend) ActivateSubscription(_ context.Context, id string, req models.SubscriptionRequest) (*models.Subscription, error) {
	f.record("activate")
	return &models.Subscription{CollectorID: id, PlanType: req.PlanType, Status: models.SubscriptionActive}, nil
}

func (f *fakeBackend) CancelSubscription(_ context.Context, id string) (*models.Subscription, error) {
	f.record("cancel")
	return &models.Subscription{CollectorID: id, Status: models.SubscriptionInactive}, nil
}

func TestOverview(t *testing.T) {
	p := New(&fakeBackend{})
	o, err := p.Overview(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if o.UsersByRole[models.RoleCollector] != 2 || o.UsersByRole[models.RoleSeller] != 1 {
		t.Errorf("users by role = %v", o.UsersByRole)
	}
	if o.ItemsByStatus[models.StatusCollected] != 1 || o.ActiveSubs != 1 {
		t.Errorf("items=%v active=%d", o.ItemsByStatus, o.ActiveSubs)
	}
}

func TestOverviewFailsAsAWhole(t *testing.T) {
	boom := &api.ServerError{Status: 500, Detail: "boom"}
	p := New(&fakeBackend{subsErr: boom})
	if _, err := p.Overview(context.Background()); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

func TestLocalValidationSkipsBackend(t *testing.T) {
	ctx := context.Background()
	f := &fakeBackend{}
	p := New(f)
	bad := "12345"

	checks := map[string]error{}
	_, checks["override zero"] = p.OverrideItemWeight(ctx, "i1", 0)
	_, checks["override negative"] = p.OverrideItemWeight(ctx, "i1", -3)
	_, checks["days zero"] = p.ActivateSubscription(ctx, "c1", "basic", 0)
	_, checks["bad role"] = p.UpdateUserRole(ctx, "u1", "superuser")
	_, checks["empty update"] = p.UpdateUser(ctx, "u1", models.AdminUserUpdate{})
	_, checks["short phone"] = p.UpdateUser(ctx, "u1", models.AdminUserUpdate{Phone: &bad})
	_, checks["create no password"] = p.CreateUser(ctx, models.AdminCreateUserRequest{Name: "A", Phone: "9876543210", Role: models.RoleSeller})
	_, checks["create bad role"] = p.CreateUser(ctx, models.AdminCreateUserRequest{Name: "A", Phone: "9876543210", Password: "secret1", Role: "owner"})
	_, checks["create admin no email"] = p.CreateUser(ctx, models.AdminCreateUserRequest{Name: "A", Phone: "9876543210", Password: "secret1", Role: models.RoleAdmin})

	for name, err := range checks {
		var verr *api.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: err = %v, want ValidationError", name, err)
		}
	}
	if len(f.calls) != 0 {
		t.Errorf("backend calls = %v, want none", f.calls)
	}
}

func TestPassThrough(t *testing.T) {
	ctx := context.Background()
	f := &fakeBackend{}
	p := New(f)

	item, err := p.OverrideItemWeight(ctx, "i1", 7.25)
	if err != nil || *item.ActualWeight != 7.25 {
		t.Fatalf("override = %+v, %v", item, err)
	}
	sub, err := p.ActivateSubscription(ctx, "c1", "premium", 30)
	if err != nil || sub.PlanType != "premium" {
		t.Fatalf("activate = %+v, %v", sub, err)
	}
	if err := p.DeleteItem(ctx, "i1"); err != nil {
		t.Fatal(err)
	}
	if err := p.DeleteUser(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if _, err := p.CancelSubscription(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	want := []string{"override", "activate", "delete-item", "delete-user", "cancel"}
	if len(f.calls) != len(want) {
		t.Fatalf("calls = %v", f.calls)
	}
	for i := range want {
		if f.calls[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, f.calls[i], want[i])
		}
	}
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	f := &fakeBackend{}
	p := New(f)

	u, err := p.CreateUser(ctx, models.AdminCreateUserRequest{
		Name: "Ravi", Phone: "98765-43210", Password: "secret1", Role: models.RoleCollector,
	})
	if err != nil {
		t.Fatal(err)
	}
	if u.Phone != "9876543210" || u.Role != models.RoleCollector {
		t.Errorf("created = %+v", u)
	}

	_, err = p.CreateUser(ctx, models.AdminCreateUserRequest{
		Name: "Dup", Phone: "9000000009", Password: "secret1", Role: models.RoleSeller,
	})
	var conflict *api.ConflictError
	if !errors.As(err, &conflict) {
		t.Errorf("duplicate phone: err = %v, want ConflictError", err)
	}
}
