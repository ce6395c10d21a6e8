package events

import (
	"context"
	"encoding/json"
	"expvar"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventBalanceChange EventType = "balance_change"
	EventBadgeAwarded  EventType = "badge_awarded"
	EventWeekFinalized EventType = "week_finalized"
)

const childChannelPrefix = "events:child:"

var (
	wsConnectionsGauge   = expvar.NewInt("websocket_connections")
	wsEventsSentTotal    = expvar.NewInt("websocket_events_sent_total")
	wsEventsDroppedTotal = expvar.NewInt("websocket_events_dropped_total")
)

// Event is one realtime notification about a child's wallet or achievements.
type Event struct {
	Type    EventType   `json:"type"`
	ChildID uuid.UUID   `json:"child_id"`
	Data    interface{} `json:"data,omitempty"`
}

type Connection struct {
	UserID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte
}

// Hub fans events out to connected family members. Each connection follows
// one or more children; Redis Pub/Sub carries events across instances so a
// client sees changes no matter which server applied them.
type Hub struct {
	connections map[*Connection]bool
	followers   map[uuid.UUID]map[*Connection]bool

	redis  *redis.Client
	pubsub *redis.PubSub

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(redisClient *redis.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		connections: make(map[*Connection]bool),
		followers:   make(map[uuid.UUID]map[*Connection]bool),
		redis:       redisClient,
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		ctx:         ctx,
		cancel:      cancel,
	}

	if redisClient != nil {
		h.pubsub = redisClient.PSubscribe(ctx, childChannelPrefix+"*")
	}
	return h
}

// Run starts the hub (call in goroutine).
func (h *Hub) Run() {
	if h.pubsub != nil {
		go h.runRedisSubscriber()
	}

	for {
		select {
		case <-h.ctx.Done():
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn] = true
			h.mu.Unlock()
			wsConnectionsGauge.Add(1)
			log.Debug().Str("user_id", conn.UserID.String()).Msg("client connected")

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.connections[conn]; ok {
				delete(h.connections, conn)
				close(conn.Send)
				wsConnectionsGauge.Add(-1)
			}
			for childID, conns := range h.followers {
				delete(conns, conn)
				if len(conns) == 0 {
					delete(h.followers, childID)
				}
			}
			h.mu.Unlock()
			log.Debug().Str("user_id", conn.UserID.String()).Msg("client disconnected")
		}
	}
}

func (h *Hub) runRedisSubscriber() {
	ch := h.pubsub.Channel()

	for {
		select {
		case <-h.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(msg.Channel) <= len(childChannelPrefix) ||
				msg.Channel[:len(childChannelPrefix)] != childChannelPrefix {
				continue
			}
			childID, err := uuid.Parse(msg.Channel[len(childChannelPrefix):])
			if err != nil {
				continue
			}
			h.deliverLocal(childID, []byte(msg.Payload))
		}
	}
}

// deliverLocal pushes a payload to the followers connected to THIS instance.
func (h *Hub) deliverLocal(childID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.followers[childID] {
		select {
		case conn.Send <- data:
			wsEventsSentTotal.Add(1)
		default:
			wsEventsDroppedTotal.Add(1)
			log.Warn().Str("user_id", conn.UserID.String()).Msg("websocket send buffer full")
		}
	}
}

func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// Follow subscribes a connection to one child's events.
func (h *Hub) Follow(conn *Connection, childID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.followers[childID] == nil {
		h.followers[childID] = make(map[*Connection]bool)
	}
	h.followers[childID][conn] = true
}

// Publish sends the event to every follower across all instances. Without
// Redis it degrades to local-only delivery.
func (h *Hub) Publish(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("marshal event failed")
		return
	}

	if h.redis != nil {
		channel := childChannelPrefix + event.ChildID.String()
		if err := h.redis.Publish(h.ctx, channel, data).Err(); err != nil {
			log.Error().Err(err).Str("channel", channel).Msg("redis publish failed")
			h.deliverLocal(event.ChildID, data)
		}
		return
	}
	h.deliverLocal(event.ChildID, data)
}

// FollowerCount returns the number of local followers for a child.
func (h *Hub) FollowerCount(childID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.followers[childID])
}

func (h *Hub) Shutdown() {
	h.cancel()
	if h.pubsub != nil {
		h.pubsub.Close()
	}
}
