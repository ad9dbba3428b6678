package websocket

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"agri-advisor-backend/internal/logger"
	"agri-advisor-backend/internal/middleware"
	"agri-advisor-backend/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Source delivers the payloads published on a channel until ctx is done,
// then closes the returned channel.
type Source interface {
	Subscribe(ctx context.Context, channel string) <-chan string
}

type RedisSource struct {
	client *redis.Client
}

func NewRedisSource(client *redis.Client) *RedisSource {
	return &RedisSource{client: client}
}

func (s *RedisSource) Subscribe(ctx context.Context, channel string) <-chan string {
	out := make(chan string)
	pubsub := s.client.Subscribe(ctx, channel)

	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

type client struct {
	userID uuid.UUID
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
}

// Hub fans farmer job updates and market ticks out to websocket clients.
type Hub struct {
	source Source
	auth   *middleware.JWTAuth

	mu          sync.RWMutex
	clients     map[uuid.UUID]map[*client]struct{}
	cancelFuncs map[uuid.UUID]context.CancelFunc
	closed      bool
	wg          sync.WaitGroup
}

func NewHub(source Source, auth *middleware.JWTAuth) *Hub {
	return &Hub{
		source:      source,
		auth:        auth,
		clients:     make(map[uuid.UUID]map[*client]struct{}),
		cancelFuncs: make(map[uuid.UUID]context.CancelFunc),
	}
}

// Run relays market ticks to every connected client until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for payload := range h.source.Subscribe(ctx, models.MarketTicksChannel) {
		h.broadcastAll([]byte(payload))
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		tokenStr = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	session, err := h.auth.ParseAccessToken(tokenStr)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnWithFields("websocket upgrade failed", logger.Fields{"error": err.Error()})
		return
	}

	c := &client{
		userID: session.UserID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
	if !h.register(c) {
		conn.Close()
		return
	}

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}

	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	h.wg.Add(2)

	if len(set) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[c.userID] = cancel
		h.wg.Add(1)
		go h.relayFarmer(ctx, c.userID)
	}

	logger.InfoWithFields("websocket connected", logger.Fields{
		"user_id":     c.userID.String(),
		"connections": len(set),
	})
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.clients[c.userID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.done)

	if len(set) == 0 {
		delete(h.clients, c.userID)
		if cancel, ok := h.cancelFuncs[c.userID]; ok {
			cancel()
			delete(h.cancelFuncs, c.userID)
		}
	}

	logger.InfoWithFields("websocket disconnected", logger.Fields{"user_id": c.userID.String()})
}

func (h *Hub) relayFarmer(ctx context.Context, userID uuid.UUID) {
	defer h.wg.Done()
	for payload := range h.source.Subscribe(ctx, models.FarmerChannel(userID)) {
		h.broadcast(userID, []byte(payload))
	}
}

func (h *Hub) readPump(c *client) {
	defer h.wg.Done()
	defer h.unregister(c)

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	defer h.wg.Done()
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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

func (h *Hub) broadcast(userID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[userID] {
		deliver(c, data)
	}
}

func (h *Hub) broadcastAll(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, set := range h.clients {
		for c := range set {
			deliver(c, data)
		}
	}
}

// deliver drops the message for clients whose buffer is full.
func deliver(c *client, data []byte) {
	select {
	case c.send <- data:
	default:
		logger.WarnWithFields("websocket client too slow, dropping message", logger.Fields{"user_id": c.userID.String()})
	}
}

// Connections reports how many sockets are open for userID.
func (h *Hub) Connections(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Close disconnects every client and waits for their goroutines.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for _, set := range h.clients {
		for c := range set {
			c.conn.Close()
		}
	}
	h.mu.Unlock()

	h.wg.Wait()
}
