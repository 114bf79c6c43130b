package services

import (
	"context"
	"log"
	"time"

	"github.com/AnshRaj112/ridit-backend/internal/database"
	"github.com/AnshRaj112/ridit-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const itemEventsCollection = "item_events"

// EnsureItemEventIndexes configures indexes for the item_events collection.
// Called on startup from main after Mongo has connected.
func EnsureItemEventIndexes(ctx context.Context) error {
	col := database.DB.Collection(itemEventsCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "item_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_item_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "seller_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_seller_timestamp"),
		},
	}

	_, err := col.Indexes().CreateMany(ctx, indexes)
	return err
}

// RecordItemEventAsync appends ev to the timeline without blocking the caller.
func RecordItemEventAsync(ev models.ItemEvent) {
	if database.DB == nil {
		return
	}
	go func(e models.ItemEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if e.Timestamp.IsZero() {
			e.Timestamp = time.Now().UTC()
		}
		if _, err := database.DB.Collection(itemEventsCollection).InsertOne(ctx, e); err != nil {
			log.Printf("failed to record %s for item %s: %v", e.Type, e.ItemID, err)
		}
	}(ev)
}

// LoadItemEvents returns an item's timeline, oldest first. Pagination is
// timestamp + limit, scrolling back from before.
func LoadItemEvents(ctx context.Context, itemID string, before *time.Time, limit int64) ([]models.ItemEvent, bool, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if database.DB == nil {
		return []models.ItemEvent{}, false, nil
	}

	filter := bson.M{"item_id": itemID}
	if before != nil {
		filter["timestamp"] = bson.M{"$lt": before.UTC()}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit + 1)

	cur, err := database.DB.Collection(itemEventsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, false, err
	}
	defer cur.Close(ctx)

	events := []models.ItemEvent{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, false, err
	}

	hasMore := int64(len(events)) > limit
	if hasMore {
		events = events[:limit]
	}

	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, hasMore, nil
}

// emitItemEvent records ev and fans it out to the seller and collector.
func emitItemEvent(ev models.ItemEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	RecordItemEventAsync(ev)

	if database.RedisClient == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, userID := range []string{ev.SellerID, ev.CollectorID} {
			if userID == "" {
				continue
			}
			if err := PublishItemEvent(ctx, userID, ev); err != nil {
				log.Printf("failed to publish %s to %s: %v", ev.Type, userID, err)
			}
		}
	}()
}
