package stream

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const publishTimeout = 2 * time.Second

// Hub fans the live tracking state of a rider out to websocket watchers.
// With redis attached, every broadcast travels through pub/sub and each
// instance (the publishing one included) hands it to its local watchers from
// the subscription, so a watcher sees each broadcast exactly once.
type Hub struct {
	redis   *redis.Client
	logger  *zap.Logger
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	UserID string
	Send   chan []byte
}

func NewHub(redisClient *redis.Client, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		redis:   redisClient,
		logger:  logger,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		pubsub := redisClient.PSubscribe(context.Background(), "rides:*:live")
		// confirm the subscription is active before anyone can publish
		if _, err := pubsub.Receive(context.Background()); err != nil {
			h.logger.Warn("redis subscribe", zap.Error(err))
			_ = pubsub.Close()
		} else {
			go h.forward(pubsub)
		}
	}
	return h
}

func (h *Hub) Register(userID string) *Client {
	client := &Client{
		UserID: userID,
		Send:   make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = map[*Client]struct{}{}
	}
	h.clients[userID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if userClients, ok := h.clients[client.UserID]; ok {
		delete(userClients, client)
		if len(userClients) == 0 {
			delete(h.clients, client.UserID)
		}
	}
	close(client.Send)
}

// Broadcast never blocks on a watcher and bounds the publish round trip, so
// a slow consumer or a stalled redis cannot stall the caller.
func (h *Hub) Broadcast(userID string, payload []byte) {
	if h.redis == nil {
		h.deliver(userID, payload)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := h.redis.Publish(ctx, redisChannel(userID), payload).Err(); err != nil {
		h.logger.Warn("redis publish", zap.Error(err))
	}
}

// deliver holds the lock across the sends; Unregister closes Send under the
// same lock, so a send can never hit a closed channel.
func (h *Hub) deliver(userID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) forward(pubsub *redis.PubSub) {
	defer pubsub.Close()
	for msg := range pubsub.Channel() {
		h.deliver(userIDFromChannel(msg.Channel), []byte(msg.Payload))
	}
}

func redisChannel(userID string) string {
	return "rides:" + userID + ":live"
}

func userIDFromChannel(ch string) string {
	// rides:{user}:live
	const prefix = "rides:"
	const suffix = ":live"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
