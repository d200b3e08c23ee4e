// Package websocket pushes job board changes to connected dashboards.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"jobboard/events"
	"jobboard/models"
	"jobboard/session"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 256
)

// Envelope is the frame sent to clients.
type Envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type outbound struct {
	data     []byte
	audience func(*Client) bool
}

type Manager struct {
	clients    map[*Client]bool
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	logger     *zap.Logger
}

type Client struct {
	conn    *websocket.Conn
	session *session.Session
	send    chan []byte
	manager *Manager
}

func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves the hub until ctx is done, then closes every client.
func (m *Manager) Run(ctx context.Context) {
	defer close(m.done)
	for {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			for client := range m.clients {
				close(client.send)
				delete(m.clients, client)
			}
			m.mu.Unlock()
			return

		case client := <-m.register:
			m.mu.Lock()
			m.clients[client] = true
			n := len(m.clients)
			m.mu.Unlock()
			m.logger.Debug("websocket client registered", zap.String("account_id", client.session.AccountID), zap.Int("clients", n))

		case client := <-m.unregister:
			m.mu.Lock()
			if _, ok := m.clients[client]; ok {
				delete(m.clients, client)
				close(client.send)
			}
			n := len(m.clients)
			m.mu.Unlock()
			m.logger.Debug("websocket client unregistered", zap.Int("clients", n))

		case out := <-m.broadcast:
			m.mu.Lock()
			for client := range m.clients {
				if out.audience != nil && !out.audience(client) {
					continue
				}
				select {
				case client.send <- out.data:
				default:
					// slow consumer
					close(client.send)
					delete(m.clients, client)
				}
			}
			m.mu.Unlock()
		}
	}
}

// Broadcast queues a frame for every client accepted by audience (all
// clients when audience is nil). Frames are dropped when the hub is backed up.
func (m *Manager) Broadcast(typ string, payload interface{}, audience func(*Client) bool) {
	data, err := json.Marshal(Envelope{Type: typ, Payload: payload})
	if err != nil {
		m.logger.Error("failed to marshal websocket frame", zap.String("type", typ), zap.Error(err))
		return
	}
	select {
	case m.broadcast <- outbound{data: data, audience: audience}:
	default:
		m.logger.Warn("websocket hub busy, frame dropped", zap.String("type", typ))
	}
}

// Publish forwards job lifecycle events. Review-queue changes go to admins;
// board changes go to everyone.
func (m *Manager) Publish(_ context.Context, ev events.Event) error {
	switch ev.Type {
	case events.JobCreated, events.JobEdited, events.ApplicationSubmitted:
		m.Broadcast(string(ev.Type), ev, Admins)
	default:
		m.Broadcast(string(ev.Type), ev, nil)
	}
	return nil
}

func (m *Manager) ConnectedClients() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

func Admins(c *Client) bool {
	return c.session.Is(models.RoleAdmin)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Handler upgrades requests carrying a valid session token in ?token=.
func Handler(m *Manager, sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "Token required", http.StatusUnauthorized)
			return
		}
		sess, err := sessions.Parse(r.Context(), token)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			m.logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			conn:    conn,
			session: sess,
			send:    make(chan []byte, sendBuffer),
			manager: m,
		}
		welcome, _ := json.Marshal(Envelope{Type: "connected", Payload: map[string]interface{}{
			"userId": sess.AccountID,
			"role":   sess.Role,
			"time":   time.Now().Unix(),
		}})
		client.send <- welcome

		select {
		case m.register <- client:
		case <-m.done:
			conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.manager.unregister <- c:
		case <-c.manager.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.manager.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		var frame Envelope
		if err := json.Unmarshal(message, &frame); err != nil {
			continue
		}
		if frame.Type == "ping" {
			c.reply("pong", map[string]interface{}{"time": time.Now().Unix()})
		}
	}
}

// reply goes through the hub, which owns c.send.
func (c *Client) reply(typ string, payload interface{}) {
	c.manager.Broadcast(typ, payload, func(other *Client) bool { return other == c })
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
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
