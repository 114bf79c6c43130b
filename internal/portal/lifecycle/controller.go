// Package lifecycle drives an item from listing to collection for the
// seller and collector portals.
package lifecycle

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AnshRaj112/ridit-backend/internal/models"
	"github.com/AnshRaj112/ridit-backend/internal/portal/api"
	"github.com/AnshRaj112/ridit-backend/pkg/pricing"
)

// Backend is the part of the API client the controller needs.
type Backend interface {
	AddItem(ctx context.Context, sellerID string, draft models.ItemDraft) (*models.Item, error)
	SellerItems(ctx context.Context, sellerID string, status models.ItemStatus) ([]models.Item, error)
	AvailableItems(ctx context.Context, collectorID string, category pricing.Category) (*models.AvailableItems, error)
	AcceptedItems(ctx context.Context, collectorID string) ([]models.Item, error)
	AcceptItem(ctx context.Context, itemID, collectorID string) (*models.Item, error)
	CompleteCollection(ctx context.Context, itemID, collectorID string, actualWeightKg float64) (*models.Item, error)
	CancelItem(ctx context.Context, itemID string) (*models.Item, error)
	DeleteItem(ctx context.Context, itemID string) error
}

// Views is the last applied state of each list.
type Views struct {
	SellerItems []models.Item
	Available   []models.Item
	Accepted    []models.Item
}

type Controller struct {
	backend Backend
	rates   pricing.Rates
	cache   *PrefetchCache
	fences  fences

	// PrefetchTimeout bounds a background prefetch.
	PrefetchTimeout time.Duration

	mu    sync.RWMutex
	views Views
}

// New returns a controller. A nil rates uses pricing.DefaultRates.
func New(backend Backend, rates pricing.Rates, cache *PrefetchCache) *Controller {
	if rates == nil {
		rates = pricing.DefaultRates
	}
	if cache == nil {
		cache = NewPrefetchCache(time.Minute)
	}
	return &Controller{backend: backend, rates: rates, cache: cache, PrefetchTimeout: 30 * time.Second}
}

// Views returns a copy of the current lists.
func (c *Controller) Views() Views {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Views{
		SellerItems: append([]models.Item(nil), c.views.SellerItems...),
		Available:   append([]models.Item(nil), c.views.Available...),
		Accepted:    append([]models.Item(nil), c.views.Accepted...),
	}
}

// PreviewPrice estimates the listing price locally. The server's figure
// replaces it once the item is created.
func (c *Controller) PreviewPrice(category pricing.Category, kg float64) (float64, error) {
	if !(kg > 0) {
		return 0, api.Invalid("quantity_kg", "quantity_kg must be greater than 0")
	}
	price, err := c.rates.Estimate(category, kg)
	if err != nil {
		return 0, api.Invalid("category", err.Error())
	}
	return price, nil
}

// CreateItem validates the draft and lists it. The returned item carries
// the server's estimated price.
func (c *Controller) CreateItem(ctx context.Context, sellerID string, draft models.ItemDraft) (*models.Item, error) {
	if errs := draft.Validate(); errs.Any() {
		return nil, &api.ValidationError{Message: "invalid item", Fields: errs}
	}
	item, err := c.backend.AddItem(ctx, sellerID, draft)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.views.SellerItems = upsert(c.views.SellerItems, *item, true)
	c.mu.Unlock()
	return item, nil
}

// ListSellerItems fetches the seller's items. If a newer call was issued
// meanwhile, the items are returned with ErrStaleResponse and not applied.
func (c *Controller) ListSellerItems(ctx context.Context, sellerID string, status models.ItemStatus) ([]models.Item, error) {
	ticket := c.fences.next(viewSellerItems)
	items, err := c.backend.SellerItems(ctx, sellerID, status)
	if err != nil {
		return nil, err
	}
	return items, c.fences.apply(viewSellerItems, ticket, func() {
		c.mu.Lock()
		c.views.SellerItems = items
		c.mu.Unlock()
	})
}

// ListAvailableItems fetches pending items within the collector's radius.
func (c *Controller) ListAvailableItems(ctx context.Context, collectorID string, category pricing.Category) (*models.AvailableItems, error) {
	ticket := c.fences.next(viewAvailable)
	res, err := c.backend.AvailableItems(ctx, collectorID, category)
	if err != nil {
		return nil, err
	}
	return res, c.fences.apply(viewAvailable, ticket, func() {
		c.mu.Lock()
		c.views.Available = res.Items
		c.mu.Unlock()
	})
}

// ListAcceptedItems fetches the items the collector holds.
func (c *Controller) ListAcceptedItems(ctx context.Context, collectorID string) ([]models.Item, error) {
	ticket := c.fences.next(viewAccepted)
	items, err := c.backend.AcceptedItems(ctx, collectorID)
	if err != nil {
		return nil, err
	}
	return items, c.fences.apply(viewAccepted, ticket, func() {
		c.mu.Lock()
		c.views.Accepted = items
		c.mu.Unlock()
	})
}

// AcceptItem claims a pending item. A ConflictError (someone else took
// it) or NotFoundError is returned unchanged and never retried; the item
// is dropped from the available list either way.
func (c *Controller) AcceptItem(ctx context.Context, itemID, collectorID string) (*models.Item, error) {
	item, err := c.backend.AcceptItem(ctx, itemID, collectorID)
	if err != nil {
		if api.IsConflict(err) || api.IsNotFound(err) {
			c.mu.Lock()
			c.views.Available = remove(c.views.Available, itemID)
			c.mu.Unlock()
		}
		return nil, err
	}
	c.mu.Lock()
	c.views.Available = remove(c.views.Available, itemID)
	c.views.Accepted = upsert(c.views.Accepted, *item, false)
	c.mu.Unlock()
	return item, nil
}

// CompleteCollection records the weighed quantity. The weight is checked
// before any request.
func (c *Controller) CompleteCollection(ctx context.Context, itemID, collectorID string, actualWeightKg float64) (*models.Item, error) {
	if !(actualWeightKg > 0) || math.IsInf(actualWeightKg, 0) {
		return nil, api.Invalid("actual_weight", "actual_weight must be greater than 0")
	}
	item, err := c.backend.CompleteCollection(ctx, itemID, collectorID, actualWeightKg)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.views.Accepted = remove(c.views.Accepted, itemID)
	c.mu.Unlock()
	return item, nil
}

// CancelItem withdraws a pending listing.
func (c *Controller) CancelItem(ctx context.Context, itemID string) (*models.Item, error) {
	item, err := c.backend.CancelItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.views.SellerItems = upsert(c.views.SellerItems, *item, false)
	c.mu.Unlock()
	return item, nil
}

// DeleteItem removes a pending or cancelled listing.
func (c *Controller) DeleteItem(ctx context.Context, itemID string) error {
	if err := c.backend.DeleteItem(ctx, itemID); err != nil {
		return err
	}
	c.mu.Lock()
	c.views.SellerItems = remove(c.views.SellerItems, itemID)
	c.mu.Unlock()
	return nil
}

// Prefetch loads the lists the role's dashboard opens with and stashes
// them for a single read.
func (c *Controller) Prefetch(ctx context.Context, userID string, role models.Role) error {
	return c.prefetch(ctx, c.cache.Generation(), userID, role)
}

// prefetch is a no-op if the cache was cleared since gen was read, both
// before any request goes out and when the snapshot is stored.
func (c *Controller) prefetch(ctx context.Context, gen uint64, userID string, role models.Role) error {
	if c.cache.Generation() != gen {
		return nil
	}
	snap := Snapshot{tickets: make(map[viewKind]uint64)}
	g, gctx := errgroup.WithContext(ctx)
	switch role {
	case models.RoleSeller:
		snap.tickets[viewSellerItems] = c.fences.next(viewSellerItems)
		g.Go(func() error {
			items, err := c.backend.SellerItems(gctx, userID, "")
			snap.SellerItems = items
			return err
		})
	case models.RoleCollector:
		snap.tickets[viewAvailable] = c.fences.next(viewAvailable)
		snap.tickets[viewAccepted] = c.fences.next(viewAccepted)
		g.Go(func() error {
			res, err := c.backend.AvailableItems(gctx, userID, "")
			snap.Available = res
			return err
		})
		g.Go(func() error {
			items, err := c.backend.AcceptedItems(gctx, userID)
			snap.Accepted = items
			return err
		})
	default:
		return nil
	}
	if err := g.Wait(); err != nil {
		return err
	}
	snap.FetchedAt = time.Now()
	c.cache.PutIfCurrent(gen, role, userID, snap)
	return nil
}

// PrefetchAsync runs Prefetch in the background. Failures are logged and
// the dashboard falls back to a normal fetch.
// The generation is read here, not in the goroutine, so a logout that runs
// before the goroutine starts still cancels it.
func (c *Controller) PrefetchAsync(userID string, role models.Role) {
	gen := c.cache.Generation()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.PrefetchTimeout)
		defer cancel()
		if err := c.prefetch(ctx, gen, userID, role); err != nil {
			log.Printf("prefetch for %s %s skipped: %v", role, userID, err)
		}
	}()
}

// ClearPrefetch drops any unconsumed snapshot.
func (c *Controller) ClearPrefetch() {
	c.cache.Clear()
}

// PrefetchPending returns the number of unconsumed snapshots.
func (c *Controller) PrefetchPending() int {
	return c.cache.Len()
}

func upsert(items []models.Item, it models.Item, front bool) []models.Item {
	for i := range items {
		if items[i].ID == it.ID {
			out := append([]models.Item(nil), items...)
			out[i] = it
			return out
		}
	}
	if front {
		return append([]models.Item{it}, items...)
	}
	return append(append([]models.Item(nil), items...), it)
}

func remove(items []models.Item, id string) []models.Item {
	out := make([]models.Item, 0, len(items))
	for _, it := range items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}
