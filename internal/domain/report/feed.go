package report

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// EventType names a feed event
type EventType string

const (
	EventReportCreated EventType = "report.created"
	EventStatusChanged EventType = "report.status_changed"
)

// FeedChannel is the Redis pub/sub channel shared by every API instance
const FeedChannel = "reports:events"

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

// FeedEvent is pushed to feed subscribers
type FeedEvent struct {
	Type   EventType `json:"type"`
	Report Report    `json:"report"`
}

// EventPublisher announces report changes
type EventPublisher interface {
	Publish(ctx context.Context, event FeedEvent)
}

type feedClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans report events out to websocket subscribers, through Redis when available
type Hub struct {
	clients map[*feedClient]struct{}
	mu      sync.RWMutex

	redis  *redis.Client
	pubsub *redis.PubSub

	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHub creates a feed hub; redisClient may be nil for single-instance deployments
func NewHub(redisClient *redis.Client, allowedOrigins []string) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		clients: make(map[*feedClient]struct{}),
		redis:   redisClient,
		ctx:     ctx,
		cancel:  cancel,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}

	if redisClient != nil {
		h.pubsub = redisClient.Subscribe(ctx, FeedChannel)
	}

	return h
}

func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowedOrigins) == 0 {
			return true
		}
		for _, allowed := range allowedOrigins {
			if allowed == "*" || origin == allowed {
				return true
			}
		}
		log.Warn().Str("origin", origin).Msg("WebSocket origin rejected")
		return false
	}
}

// Run relays events published by any instance to local clients until Shutdown
func (h *Hub) Run() {
	if h.pubsub == nil {
		<-h.ctx.Done()
		return
	}

	ch := h.pubsub.Channel()
	for {
		select {
		case <-h.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcastLocal([]byte(msg.Payload))
		}
	}
}

// Publish sends event to every subscriber on every instance
func (h *Hub) Publish(ctx context.Context, event FeedEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal feed event")
		return
	}

	if h.redis != nil {
		err := h.redis.Publish(ctx, FeedChannel, data).Err()
		if err == nil {
			return
		}
		log.Error().Err(err).Str("channel", FeedChannel).Msg("Redis publish failed, broadcasting locally")
	}
	h.broadcastLocal(data)
}

// broadcastLocal sends data to clients connected to this instance. Slow clients miss events.
func (h *Hub) broadcastLocal(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			log.Warn().Msg("Feed send buffer full, dropping event")
		}
	}
}

// ServeWS handles GET /reports/feed
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	c := &feedClient{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	log.Debug().Int("clients", h.ClientCount()).Msg("Feed client connected")

	h.wg.Add(2)
	go h.readPump(c)
	go h.writePump(c)
}

func (h *Hub) unregister(c *feedClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// readPump discards client messages and detects disconnects
func (h *Hub) readPump(c *feedClient) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
		h.wg.Done()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("Feed connection closed")
			}
			return
		}
	}
}

func (h *Hub) writePump(c *feedClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		h.wg.Done()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ClientCount returns the number of subscribers on this instance
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown disconnects every subscriber and stops the relay
func (h *Hub) Shutdown() {
	h.cancel()
	if h.pubsub != nil {
		h.pubsub.Close()
	}

	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()

	h.wg.Wait()
}
