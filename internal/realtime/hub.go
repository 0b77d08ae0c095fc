package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"resto-be/internal/auth"
	"resto-be/internal/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

type client struct {
	conn  *websocket.Conn
	send  chan []byte
	rooms []string
}

// Hub keeps websocket clients grouped in rooms and pushes events to them.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*client]struct{}
	upgrader websocket.Upgrader
}

// NewHub accepts websocket handshakes from allowedOrigin only; an empty
// origin accepts any.
func NewHub(allowedOrigin string) *Hub {
	return &Hub{
		rooms: make(map[string]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

// Publish queues msg for every client in the audience room. Clients whose
// queue is full miss the event.
func (h *Hub) Publish(ctx context.Context, msg Message) error {
	body, err := json.Marshal(envelope{Event: msg.Event, Data: msg.Payload})
	if err != nil {
		return err
	}

	key := msg.Audience.Key()
	dropped := 0

	h.mu.RLock()
	for c := range h.rooms[key] {
		select {
		case c.send <- body:
		default:
			dropped++
		}
	}
	h.mu.RUnlock()

	if dropped > 0 {
		logger.FromCtx(ctx).Warn("dropped realtime event for slow clients",
			zap.String("layer", "realtime"),
			zap.String("event", msg.Event),
			zap.String("room", key),
			zap.Int("dropped", dropped),
		)
	}
	return nil
}

// RoomSize returns the number of clients currently joined to the room.
func (h *Hub) RoomSize(key string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[key])
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, room := range c.rooms {
		members, ok := h.rooms[room]
		if !ok {
			members = make(map[*client]struct{})
			h.rooms[room] = members
		}
		members[c] = struct{}{}
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, room := range c.rooms {
		members := h.rooms[room]
		if _, ok := members[c]; !ok {
			continue
		}
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	close(c.send)
}

// roomsFor joins every client to broadcast, to its session room when it
// sent a session id, and to the staff room when its token carries a staff role.
func roomsFor(actor auth.Actor) []string {
	rooms := []string{Broadcast().Key()}
	if actor.SessionID != "" {
		rooms = append(rooms, Session(actor.SessionID).Key())
	}
	if actor.HasAnyRole(auth.StaffRoles...) {
		rooms = append(rooms, Staff().Key())
	}
	return rooms
}

// ServeWS handles GET /ws.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context()).With(zap.String("layer", "realtime"))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		rooms: roomsFor(auth.ActorFromContext(r.Context())),
	}
	h.register(c)
	log.Debug("websocket client joined", zap.Strings("rooms", c.rooms))

	go c.writePump()
	c.readPump()

	h.unregister(c)
	log.Debug("websocket client left", zap.Strings("rooms", c.rooms))
}

// readPump discards client frames; it exists to process control messages
// and notice disconnects.
func (c *client) readPump() {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
