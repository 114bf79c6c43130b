package services

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/AnshRaj112/ridit-backend/internal/database"
	"github.com/AnshRaj112/ridit-backend/internal/models"
	"github.com/google/uuid"
)

// DefaultPlan is used when an activation names no plan.
const DefaultPlan = "basic"

// subscriptionCacheTTL bounds how long the accept/matching gate trusts a
// cached plan. Expiry itself is re-checked on every read.
const subscriptionCacheTTL = 5 * time.Minute

// GetSubscription returns the collector's subscription. A collector who
// never had one reads as inactive with plan "none".
func GetSubscription(ctx context.Context, collectorID string) (*models.Subscription, error) {
	id, err := uuid.Parse(collectorID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	sub := models.Subscription{CollectorID: collectorID, PlanType: models.PlanNone, Status: models.SubscriptionInactive}
	var expiry, created, cancelled sql.NullTime
	err = database.PostgresDB.QueryRowContext(ctx, `
		SELECT plan_type, status, expiry_date, created_at, cancelled_at
		FROM subscriptions WHERE collector_id = $1
	`, id).Scan(&sub.PlanType, &sub.Status, &expiry, &created, &cancelled)
	if errors.Is(err, sql.ErrNoRows) {
		return &sub, nil
	}
	if err != nil {
		return nil, err
	}
	sub.ExpiryDate = nullTime(expiry)
	sub.CreatedAt = nullTime(created)
	sub.CancelledAt = nullTime(cancelled)
	if !sub.ActiveAt(time.Now()) {
		sub.Status = models.SubscriptionInactive
	}
	return &sub, nil
}

// RequireActiveSubscription returns ErrSubscriptionInactive unless the
// collector has an unexpired active plan.
func RequireActiveSubscription(ctx context.Context, collectorID string) error {
	key := cacheKey("subscription", collectorID)
	var sub models.Subscription
	if ok, err := Cache.Get(ctx, key, &sub); err != nil || !ok {
		fresh, err := GetSubscription(ctx, collectorID)
		if err != nil {
			return err
		}
		sub = *fresh
		if err := Cache.Put(ctx, key, sub, subscriptionCacheTTL); err != nil {
			log.Printf("subscription cache write failed: %v", err)
		}
	}
	if !sub.ActiveAt(time.Now()) {
		return ErrSubscriptionInactive
	}
	return nil
}

// ActivateSubscription starts or renews a collector's plan for daysValid days.
func ActivateSubscription(ctx context.Context, collectorID string, req models.SubscriptionRequest) (*models.Subscription, error) {
	if req.DaysValid <= 0 {
		return nil, invalid("days_valid", "days_valid must be greater than 0")
	}
	plan := strings.TrimSpace(req.PlanType)
	if plan == "" {
		plan = DefaultPlan
	}

	u, err := GetUser(ctx, collectorID)
	if err != nil {
		return nil, err
	}
	if u.Role != models.RoleCollector {
		return nil, ErrNotCollector
	}

	now := time.Now().UTC()
	expiry := now.AddDate(0, 0, req.DaysValid)
	_, err = database.PostgresDB.ExecContext(ctx, `
		INSERT INTO subscriptions (collector_id, plan_type, status, expiry_date, created_at, cancelled_at)
		VALUES ($1, $2, 'active', $3, $4, NULL)
		ON CONFLICT (collector_id) DO UPDATE SET
			plan_type = EXCLUDED.plan_type,
			status = 'active',
			expiry_date = EXCLUDED.expiry_date,
			created_at = EXCLUDED.created_at,
			cancelled_at = NULL
	`, u.ID, plan, expiry, now)
	if err != nil {
		return nil, err
	}
	forgetSubscription(ctx, u.ID)

	return &models.Subscription{
		CollectorID:   u.ID,
		CollectorName: u.Name,
		Email:         u.Email,
		Phone:         u.Phone,
		PlanType:      plan,
		Status:        models.SubscriptionActive,
		ExpiryDate:    &expiry,
		CreatedAt:     &now,
	}, nil
}

// CancelSubscription deactivates a collector's plan.
func CancelSubscription(ctx context.Context, collectorID string) (*models.Subscription, error) {
	u, err := GetUser(ctx, collectorID)
	if err != nil {
		return nil, err
	}
	if u.Role != models.RoleCollector {
		return nil, ErrNotCollector
	}

	now := time.Now().UTC()
	_, err = database.PostgresDB.ExecContext(ctx, `
		INSERT INTO subscriptions (collector_id, plan_type, status, cancelled_at)
		VALUES ($1, $2, 'inactive', $3)
		ON CONFLICT (collector_id) DO UPDATE SET
			plan_type = EXCLUDED.plan_type,
			status = 'inactive',
			cancelled_at = EXCLUDED.cancelled_at
	`, u.ID, models.PlanNone, now)
	if err != nil {
		return nil, err
	}
	forgetSubscription(ctx, u.ID)
	return GetSubscription(ctx, collectorID)
}

func forgetSubscription(ctx context.Context, collectorID string) {
	if err := Cache.Invalidate(ctx, cacheKey("subscription", collectorID)); err != nil {
		log.Printf("⚠️  subscription cache invalidation failed for %s: %v", collectorID, err)
	}
}

// ListSubscriptions returns one row per collector, subscribed or not.
func ListSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	rows, err := database.PostgresDB.QueryContext(ctx, `
		SELECT u.id, u.name, u.email, u.phone,
			COALESCE(s.plan_type, 'none'), COALESCE(s.status, 'inactive'),
			s.expiry_date, s.created_at, s.cancelled_at
		FROM users u
		LEFT JOIN subscriptions s ON s.collector_id = u.id
		WHERE u.role = 'collector'
		ORDER BY u.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	now := time.Now()
	subs := []models.Subscription{}
	for rows.Next() {
		var s models.Subscription
		var expiry, created, cancelled sql.NullTime
		if err := rows.Scan(&s.CollectorID, &s.CollectorName, &s.Email, &s.Phone,
			&s.PlanType, &s.Status, &expiry, &created, &cancelled); err != nil {
			return nil, err
		}
		s.ExpiryDate = nullTime(expiry)
		s.CreatedAt = nullTime(created)
		s.CancelledAt = nullTime(cancelled)
		if !s.ActiveAt(now) {
			s.Status = models.SubscriptionInactive
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// ExpireSubscriptions flips every lapsed active plan to inactive.
func ExpireSubscriptions(ctx context.Context) (int64, error) {
	res, err := database.PostgresDB.ExecContext(ctx, `
		UPDATE subscriptions SET status = 'inactive'
		WHERE status = 'active' AND expiry_date IS NOT NULL AND expiry_date <= NOW()
	`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// StartSubscriptionSweeper runs ExpireSubscriptions immediately and then
// every interval until ctx is done.
func StartSubscriptionSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}

	sweep := func() {
		sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		n, err := ExpireSubscriptions(sweepCtx)
		if err != nil {
			log.Printf("⚠️  subscription sweep failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("✅ Expired %d subscription(s)", n)
		}
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		sweep()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweep()
			}
		}
	}()
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
