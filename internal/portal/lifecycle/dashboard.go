package lifecycle

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/AnshRaj112/ridit-backend/internal/models"
)

type SellerDashboard struct {
	Items  []models.Item
	Counts map[models.ItemStatus]int
	// Estimated value of open listings and final value of collected ones.
	OpenValue      float64
	CollectedValue float64
	FromPrefetch   bool
}

type CollectorDashboard struct {
	Available    *models.AvailableItems
	Accepted     []models.Item
	FromPrefetch bool
}

// SellerDashboard renders from the login prefetch when one is waiting and
// no list request was issued after it, otherwise it fetches.
func (c *Controller) SellerDashboard(ctx context.Context, sellerID string) (*SellerDashboard, error) {
	d := &SellerDashboard{}
	snap, ok := c.cache.Take(models.RoleSeller, sellerID)
	if ok {
		err := c.fences.apply(viewSellerItems, snap.tickets[viewSellerItems], func() {
			c.mu.Lock()
			c.views.SellerItems = snap.SellerItems
			c.mu.Unlock()
		})
		ok = err == nil
	}
	if ok {
		d.Items, d.FromPrefetch = snap.SellerItems, true
	} else {
		items, err := c.ListSellerItems(ctx, sellerID, "")
		if err != nil {
			return nil, err
		}
		d.Items = items
	}

	d.Counts = make(map[models.ItemStatus]int)
	for _, it := range d.Items {
		d.Counts[it.Status]++
		switch it.Status {
		case models.StatusPending, models.StatusAccepted:
			d.OpenValue += it.EstimatedPrice
		case models.StatusCollected:
			if it.FinalPrice != nil {
				d.CollectedValue += *it.FinalPrice
			}
		}
	}
	return d, nil
}

// CollectorDashboard loads the available and accepted lists together.
func (c *Controller) CollectorDashboard(ctx context.Context, collectorID string) (*CollectorDashboard, error) {
	if snap, ok := c.cache.Take(models.RoleCollector, collectorID); ok {
		if err := c.fences.applyAll(snap.tickets, func() {
			c.mu.Lock()
			c.views.Available = snap.Available.Items
			c.views.Accepted = snap.Accepted
			c.mu.Unlock()
		}); err == nil {
			return &CollectorDashboard{Available: snap.Available, Accepted: snap.Accepted, FromPrefetch: true}, nil
		}
	}

	d := &CollectorDashboard{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := c.ListAvailableItems(gctx, collectorID, "")
		d.Available = res
		return err
	})
	g.Go(func() error {
		items, err := c.ListAcceptedItems(gctx, collectorID)
		d.Accepted = items
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}
