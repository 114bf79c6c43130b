package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Item event types.
const (
	EventItemCreated   = "item.created"
	EventItemAccepted  = "item.accepted"
	EventItemCollected = "item.collected"
	EventItemCancelled = "item.cancelled"
	EventItemDeleted   = "item.deleted"
	EventItemWeighed   = "item.weight_overridden"
	EventItemReleased  = "item.released"
)

// ItemEvent is an append-only record of something that happened to an item.
type ItemEvent struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ItemID         string             `bson:"item_id" json:"item_id"`
	Type           string             `bson:"type" json:"type"`
	ActorID        string             `bson:"actor_id,omitempty" json:"actor_id,omitempty"`
	ActorRole      Role               `bson:"actor_role,omitempty" json:"actor_role,omitempty"`
	SellerID       string             `bson:"seller_id,omitempty" json:"seller_id,omitempty"`
	CollectorID    string             `bson:"collector_id,omitempty" json:"collector_id,omitempty"`
	PreviousStatus ItemStatus         `bson:"previous_status,omitempty" json:"previous_status,omitempty"`
	NextStatus     ItemStatus         `bson:"next_status,omitempty" json:"next_status,omitempty"`
	Payload        map[string]any     `bson:"payload,omitempty" json:"payload,omitempty"`
	Timestamp      time.Time          `bson:"timestamp" json:"timestamp"`
}
