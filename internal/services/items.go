package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/AnshRaj112/ridit-backend/internal/database"
	"github.com/AnshRaj112/ridit-backend/internal/models"
	"github.com/AnshRaj112/ridit-backend/internal/portal/matching"
	"github.com/AnshRaj112/ridit-backend/pkg/geo"
	"github.com/AnshRaj112/ridit-backend/pkg/pricing"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const itemSelect = `
	SELECT i.id, i.seller_id, s.name, s.phone, i.category, i.quantity_kg, i.description, i.image_url,
		i.street, i.city, i.zip_code, i.latitude, i.longitude,
		i.pickup_date, i.pickup_start, i.pickup_end,
		i.estimated_price, i.actual_weight, i.final_price, i.status, i.collector_id,
		COALESCE(c.name, ''), COALESCE(c.phone, ''),
		i.created_at, i.updated_at, i.collected_at
	FROM items i
	JOIN users s ON s.id = i.seller_id
	LEFT JOIN users c ON c.id = i.collector_id`

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func newItemID(now time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}

func scanItem(row rowScanner) (*models.Item, error) {
	var it models.Item
	var actual, final sql.NullFloat64
	var collectorID sql.NullString
	var collectedAt sql.NullTime
	err := row.Scan(&it.ID, &it.SellerID, &it.SellerName, &it.SellerPhone, &it.Category, &it.QuantityKg,
		&it.Description, &it.ImageURL,
		&it.Address.Street, &it.Address.City, &it.Address.ZipCode,
		&it.Address.Coordinates.Lat, &it.Address.Coordinates.Lng,
		&it.PickupSlot.Date, &it.PickupSlot.StartTime, &it.PickupSlot.EndTime,
		&it.EstimatedPrice, &actual, &final, &it.Status, &collectorID,
		&it.CollectorName, &it.CollectorPhone,
		&it.PostedDate, &it.UpdatedAt, &collectedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	if actual.Valid {
		v := actual.Float64
		it.ActualWeight = &v
	}
	if final.Valid {
		v := final.Float64
		it.FinalPrice = &v
	}
	if collectorID.Valid {
		v := collectorID.String
		it.CollectorID = &v
	}
	it.CollectedAt = nullTime(collectedAt)
	return &it, nil
}

func queryItems(ctx context.Context, q database.Querier, where string, args ...any) ([]models.Item, error) {
	rows, err := q.QueryContext(ctx, itemSelect+" "+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// GetItem loads one item with seller and collector names.
func GetItem(ctx context.Context, itemID string) (*models.Item, error) {
	return scanItem(database.PostgresDB.QueryRowContext(ctx, itemSelect+` WHERE i.id = $1`, itemID))
}

// CreateItem lists a new pending item for a seller. The price is computed
// here from the rate table; any client-side preview is discarded.
func CreateItem(ctx context.Context, sellerID string, draft models.ItemDraft) (*models.Item, error) {
	draft.Description = strings.TrimSpace(draft.Description)
	draft.ImageURL = strings.TrimSpace(draft.ImageURL)
	errs := draft.Validate()
	if found := ScreenDescription(draft.Description); len(found) > 0 {
		errs.Add("description", "description must not contain contact details ("+strings.Join(found, ", ")+")")
	}
	if errs.Any() {
		return nil, &ValidationError{Message: "invalid item", Fields: errs}
	}

	seller, err := GetUser(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if seller.Role != models.RoleSeller {
		return nil, ErrNotSeller
	}

	price, err := pricing.Estimate(draft.Category, draft.QuantityKg)
	if err != nil {
		return nil, invalid("category", err.Error())
	}

	now := time.Now().UTC()
	id := newItemID(now)
	_, err = database.PostgresDB.ExecContext(ctx, `
		INSERT INTO items (id, seller_id, category, quantity_kg, description, image_url,
			street, city, zip_code, latitude, longitude,
			pickup_date, pickup_start, pickup_end, estimated_price, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, 'pending', $16, $16)
	`, id, seller.ID, draft.Category, draft.QuantityKg, draft.Description, draft.ImageURL,
		draft.Address.Street, draft.Address.City, draft.Address.ZipCode,
		draft.Address.Coordinates.Lat, draft.Address.Coordinates.Lng,
		draft.PickupSlot.Date, draft.PickupSlot.StartTime, draft.PickupSlot.EndTime, price, now)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	emitItemEvent(models.ItemEvent{
		ItemID:     id,
		Type:       models.EventItemCreated,
		ActorID:    seller.ID,
		ActorRole:  models.RoleSeller,
		SellerID:   seller.ID,
		NextStatus: models.StatusPending,
		Payload:    map[string]any{"category": draft.Category, "quantity_kg": draft.QuantityKg, "estimated_price": price},
		Timestamp:  now,
	})

	return GetItem(ctx, id)
}

// ListSellerItems returns a seller's items, newest first, optionally
// filtered by status.
func ListSellerItems(ctx context.Context, sellerID string, status models.ItemStatus) ([]models.Item, error) {
	id, err := uuid.Parse(sellerID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if status != "" {
		if !status.Valid() {
			return nil, invalid("status_filter", "unknown status")
		}
		return queryItems(ctx, database.PostgresDB, `WHERE i.seller_id = $1 AND i.status = $2 ORDER BY i.created_at DESC`, id, status)
	}
	return queryItems(ctx, database.PostgresDB, `WHERE i.seller_id = $1 ORDER BY i.created_at DESC`, id)
}

// GetItemStatus returns the status view of a seller's own item.
func GetItemStatus(ctx context.Context, itemID, sellerID string) (*models.ItemStatusView, error) {
	it, err := GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if it.SellerID != sellerID {
		return nil, ErrForbidden
	}
	return &models.ItemStatusView{
		ItemID:         it.ID,
		Status:         it.Status,
		CollectorName:  it.CollectorName,
		CollectorPhone: it.CollectorPhone,
		EstimatedPrice: it.EstimatedPrice,
		FinalPrice:     it.FinalPrice,
		PostedDate:     it.PostedDate,
		UpdatedAt:      it.UpdatedAt,
	}, nil
}

// explainMiss turns a conditional update that touched no row into the right
// error: not found, not the owner, or a status that forbids the action.
func explainMiss(ctx context.Context, itemID string, owns func(*models.Item) bool) error {
	it, err := GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	if owns != nil && !owns(it) {
		return ErrForbidden
	}
	if it.Status == models.StatusAccepted || it.Status == models.StatusCollected {
		return ErrItemTaken
	}
	return ErrInvalidTransition
}

// CancelItem moves a seller's pending item to cancelled.
func CancelItem(ctx context.Context, itemID, sellerID string) (*models.Item, error) {
	res, err := database.PostgresDB.ExecContext(ctx, `
		UPDATE items SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND seller_id::text = $2 AND status = 'pending'
	`, itemID, sellerID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err := explainMiss(ctx, itemID, func(it *models.Item) bool { return it.SellerID == sellerID })
		if errors.Is(err, ErrItemTaken) {
			err = ErrInvalidTransition
		}
		return nil, err
	}

	emitItemEvent(models.ItemEvent{
		ItemID:         itemID,
		Type:           models.EventItemCancelled,
		ActorID:        sellerID,
		ActorRole:      models.RoleSeller,
		SellerID:       sellerID,
		PreviousStatus: models.StatusPending,
		NextStatus:     models.StatusCancelled,
	})
	return GetItem(ctx, itemID)
}

// DeleteItem hard-deletes a seller's own item while it is pending or cancelled.
func DeleteItem(ctx context.Context, itemID, sellerID string) error {
	res, err := database.PostgresDB.ExecContext(ctx, `
		DELETE FROM items WHERE id = $1 AND seller_id::text = $2 AND status IN ('pending', 'cancelled')
	`, itemID, sellerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err := explainMiss(ctx, itemID, func(it *models.Item) bool { return it.SellerID == sellerID })
		if errors.Is(err, ErrItemTaken) {
			err = ErrInvalidTransition
		}
		return err
	}

	emitItemEvent(models.ItemEvent{
		ItemID:    itemID,
		Type:      models.EventItemDeleted,
		ActorID:   sellerID,
		ActorRole: models.RoleSeller,
		SellerID:  sellerID,
	})
	return nil
}

// AdminDeleteItem removes any item regardless of owner or status.
func AdminDeleteItem(ctx context.Context, itemID, adminID string) error {
	it, err := GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	res, err := database.PostgresDB.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, itemID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrItemNotFound
	}

	ev := models.ItemEvent{
		ItemID:         itemID,
		Type:           models.EventItemDeleted,
		ActorID:        adminID,
		ActorRole:      models.RoleAdmin,
		SellerID:       it.SellerID,
		PreviousStatus: it.Status,
	}
	if it.CollectorID != nil {
		ev.CollectorID = *it.CollectorID
	}
	emitItemEvent(ev)
	return nil
}

// requireCollector checks role, subscription and saved location.
func requireCollector(ctx context.Context, collectorID string) (*models.User, *models.Location, error) {
	u, err := GetUser(ctx, collectorID)
	if err != nil {
		return nil, nil, err
	}
	if u.Role != models.RoleCollector {
		return nil, nil, ErrNotCollector
	}
	if err := RequireActiveSubscription(ctx, collectorID); err != nil {
		return nil, nil, err
	}
	loc, err := GetLocation(ctx, collectorID)
	if err != nil {
		return nil, nil, err
	}
	return u, loc, nil
}

// itemCoordinates falls back to the seller's saved location when the item
// carries none.
func itemCoordinates(ctx context.Context, it *models.Item) (geo.Coordinates, bool) {
	if !it.Address.Coordinates.IsZero() {
		return it.Address.Coordinates, true
	}
	loc, err := GetLocation(ctx, it.SellerID)
	if err != nil {
		return geo.Coordinates{}, false
	}
	return loc.Coordinates(), true
}

// AcceptItem claims a pending item for a collector. The status flip is a
// single conditional UPDATE, so of two concurrent accepts exactly one wins
// and the other gets ErrItemTaken.
func AcceptItem(ctx context.Context, itemID, collectorID string) (*models.Item, error) {
	collector, loc, err := requireCollector(ctx, collectorID)
	if err != nil {
		return nil, err
	}

	it, err := GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if it.Status != models.StatusPending {
		if it.Status == models.StatusCancelled {
			return nil, ErrInvalidTransition
		}
		return nil, ErrItemTaken
	}
	coords, ok := itemCoordinates(ctx, it)
	if !ok || !geo.WithinRadius(loc.Coordinates(), coords, loc.Radius()) {
		return nil, ErrOutOfRange
	}

	res, err := database.PostgresDB.ExecContext(ctx, `
		UPDATE items SET status = 'accepted', collector_id = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, itemID, collector.ID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, explainMiss(ctx, itemID, nil)
	}

	emitItemEvent(models.ItemEvent{
		ItemID:         itemID,
		Type:           models.EventItemAccepted,
		ActorID:        collector.ID,
		ActorRole:      models.RoleCollector,
		SellerID:       it.SellerID,
		CollectorID:    collector.ID,
		PreviousStatus: models.StatusPending,
		NextStatus:     models.StatusAccepted,
	})
	return GetItem(ctx, itemID)
}

// CompleteCollection records the weighed amount, recomputes the final price
// and bumps the collector's collection count, all in one transaction.
func CompleteCollection(ctx context.Context, itemID, collectorID string, actualWeight float64) (*models.Item, error) {
	if !(actualWeight > 0) {
		return nil, invalid("actual_weight", "actual_weight must be greater than 0")
	}

	tx, err := database.PostgresDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var status models.ItemStatus
	var category pricing.Category
	var holder sql.NullString
	var sellerID string
	err = tx.QueryRowContext(ctx, `
		SELECT status, category, collector_id, seller_id FROM items WHERE id = $1 FOR UPDATE
	`, itemID).Scan(&status, &category, &holder, &sellerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("complete: lock item: %w", err)
	}
	if !holder.Valid || holder.String != collectorID {
		return nil, ErrForbidden
	}
	if !models.CanTransition(status, models.StatusCollected) {
		return nil, ErrInvalidTransition
	}

	finalPrice, err := pricing.Estimate(category, actualWeight)
	if err != nil {
		return nil, fmt.Errorf("complete: price: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE items SET status = 'collected', actual_weight = $2, final_price = $3,
			collected_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, itemID, actualWeight, finalPrice); err != nil {
		return nil, fmt.Errorf("complete: update item: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE users SET total_collections = total_collections + 1, updated_at = NOW() WHERE id::text = $1
	`, collectorID); err != nil {
		return nil, fmt.Errorf("complete: bump collector: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	emitItemEvent(models.ItemEvent{
		ItemID:         itemID,
		Type:           models.EventItemCollected,
		ActorID:        collectorID,
		ActorRole:      models.RoleCollector,
		SellerID:       sellerID,
		CollectorID:    collectorID,
		PreviousStatus: models.StatusAccepted,
		NextStatus:     models.StatusCollected,
		Payload:        map[string]any{"actual_weight": actualWeight, "final_price": finalPrice},
	})
	return GetItem(ctx, itemID)
}

// ListAcceptedItems returns the items a collector currently holds.
func ListAcceptedItems(ctx context.Context, collectorID string) ([]models.Item, error) {
	id, err := uuid.Parse(collectorID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return queryItems(ctx, database.PostgresDB,
		`WHERE i.collector_id = $1 AND i.status = 'accepted' ORDER BY i.updated_at DESC`, id)
}

// ListAvailableItems returns pending items within the collector's radius,
// nearest first, with seller contact hidden.
func ListAvailableItems(ctx context.Context, collectorID string, category pricing.Category) (*models.AvailableItems, error) {
	_, loc, err := requireCollector(ctx, collectorID)
	if err != nil {
		return nil, err
	}

	var pending []models.Item
	if category != "" {
		if !category.Valid() {
			return nil, invalid("category", "unknown category")
		}
		pending, err = queryItems(ctx, database.PostgresDB,
			`WHERE i.status = 'pending' AND i.category = $1 ORDER BY i.created_at DESC`, category)
	} else {
		pending, err = queryItems(ctx, database.PostgresDB,
			`WHERE i.status = 'pending' ORDER BY i.created_at DESC`)
	}
	if err != nil {
		return nil, err
	}

	// Items listed without coordinates are matched on the seller's location
	var missing []string
	for _, it := range pending {
		if it.Address.Coordinates.IsZero() {
			missing = append(missing, it.SellerID)
		}
	}
	if len(missing) > 0 {
		sellerLocs, err := locationsFor(ctx, missing)
		if err != nil {
			return nil, err
		}
		for i := range pending {
			if !pending[i].Address.Coordinates.IsZero() {
				continue
			}
			if sl, ok := sellerLocs[pending[i].SellerID]; ok {
				pending[i].Address.Coordinates = sl.Coordinates()
			}
		}
	}

	radius := loc.Radius()
	visible := matching.PresentAll(matching.ComputeVisibleItems(loc.Coordinates(), radius, pending), collectorID)
	return &models.AvailableItems{
		Items:      visible,
		TotalCount: len(visible),
		CollectorLocation: models.SearchArea{
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			RadiusKm:  radius,
		},
	}, nil
}

// ListAllItems is the unfiltered admin listing.
func ListAllItems(ctx context.Context) ([]models.Item, error) {
	return queryItems(ctx, database.PostgresDB, `ORDER BY i.created_at DESC`)
}

// OverrideItemWeight is the admin correction path. It sets the actual weight
// and recomputes the final price without touching status.
func OverrideItemWeight(ctx context.Context, itemID, adminID string, weight float64) (*models.Item, error) {
	if !(weight > 0) {
		return nil, invalid("actual_weight", "actual_weight must be greater than 0")
	}
	it, err := GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	finalPrice, err := pricing.Estimate(it.Category, weight)
	if err != nil {
		return nil, err
	}

	res, err := database.PostgresDB.ExecContext(ctx, `
		UPDATE items SET actual_weight = $2, final_price = $3, updated_at = NOW() WHERE id = $1
	`, itemID, weight, finalPrice)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrItemNotFound
	}

	ev := models.ItemEvent{
		ItemID:    itemID,
		Type:      models.EventItemWeighed,
		ActorID:   adminID,
		ActorRole: models.RoleAdmin,
		SellerID:  it.SellerID,
		Payload:   map[string]any{"actual_weight": weight, "final_price": finalPrice},
	}
	if it.CollectorID != nil {
		ev.CollectorID = *it.CollectorID
	}
	emitItemEvent(ev)
	return GetItem(ctx, itemID)
}
