package services

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/AnshRaj112/ridit-backend/internal/database"
	"github.com/AnshRaj112/ridit-backend/internal/models"
)

const itemChannelPrefix = "items:user:"

// ItemConn is the minimal interface our WebSocket implementation must satisfy.
type ItemConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// ItemHub tracks live connections per user. A user may have several tabs
// or devices open.
type ItemHub struct {
	mu    sync.RWMutex
	conns map[string]map[ItemConn]*sync.Mutex
}

func NewItemHub() *ItemHub {
	return &ItemHub{conns: make(map[string]map[ItemConn]*sync.Mutex)}
}

var (
	itemHub           = NewItemHub()
	itemSubscriberRun sync.Once
)

// DefaultItemHub is the process-wide hub used by the WebSocket handler.
func DefaultItemHub() *ItemHub { return itemHub }

func (h *ItemHub) Register(userID string, conn ItemConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[ItemConn]*sync.Mutex)
	}
	h.conns[userID][conn] = &sync.Mutex{}
}

func (h *ItemHub) Unregister(userID string, conn ItemConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns[userID], conn)
	if len(h.conns[userID]) == 0 {
		delete(h.conns, userID)
	}
}

// Connections returns the number of live connections of a user.
func (h *ItemHub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// FanOut writes ev to every local connection of userID. Writes to one
// connection are serialised.
func (h *ItemHub) FanOut(userID string, ev models.ItemEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn, lock := range h.conns[userID] {
		go func(c ItemConn, l *sync.Mutex) {
			l.Lock()
			defer l.Unlock()
			if err := c.WriteJSON(ev); err != nil {
				log.Printf("error writing item event to websocket: %v", err)
			}
		}(conn, lock)
	}
}

// PublishItemEvent publishes ev on the user's Redis channel.
func PublishItemEvent(ctx context.Context, userID string, ev models.ItemEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return database.RedisClient.Publish(ctx, itemChannelPrefix+userID, data).Err()
}

// StartItemEventSubscriber ensures a single shared Redis listener per instance.
func StartItemEventSubscriber(ctx context.Context) {
	itemSubscriberRun.Do(func() {
		go runItemSubscriber(ctx, itemHub)
	})
}

func runItemSubscriber(ctx context.Context, hub *ItemHub) {
	client := database.RedisClient
	if client == nil {
		log.Println("Redis client not initialized; item subscriber not started")
		return
	}

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := client.PSubscribe(ctx, itemChannelPrefix+"*")
			defer pubsub.Close()

			log.Println("✅ Item Redis subscriber started (pattern: items:user:*)")

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Printf("Redis subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var ev models.ItemEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Printf("failed to unmarshal item event: %v", err)
					continue
				}

				hub.FanOut(strings.TrimPrefix(msg.Channel, itemChannelPrefix), ev)
			}
		}()
	}
}
