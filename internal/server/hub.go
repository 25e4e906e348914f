package server

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"carbridge/internal/host"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is a connected head unit
type Client struct {
	ID           string    `json:"id"`
	DeviceName   string    `json:"deviceName"`
	UserAgent    string    `json:"userAgent"`
	RemoteAddr   string    `json:"remoteAddr"`
	ConnectedAt  time.Time `json:"connectedAt"`
	LastActivity time.Time `json:"lastActivity"`

	conn *websocket.Conn
	send chan []byte
}

// inbound is a frame sent by a head unit
type inbound struct {
	Type    string `json:"type"`
	Button  string `json:"button,omitempty"`
	MediaID string `json:"mediaId,omitempty"`
	Query   string `json:"query,omitempty"`
}

// Hub tracks head-unit websocket clients and fans messages out to them.
type Hub struct {
	mutex   sync.RWMutex
	clients map[string]*Client
	logger  *logrus.Logger
}

// NewHub creates an empty hub
func NewHub(logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.New()
	}
	return &Hub{clients: make(map[string]*Client), logger: logger}
}

// Broadcast queues msg for every client. A client whose queue is full is
// disconnected. Returns the number of clients reached.
func (h *Hub) Broadcast(msg Message) int {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.WithError(err).WithField("type", msg.Type).Error("Failed to encode push message")
		return 0
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	sent := 0
	for id, c := range h.clients {
		select {
		case c.send <- data:
			sent++
		default:
			h.logger.WithField("client_id", id).Warn("Client too slow, disconnecting")
			close(c.send)
			delete(h.clients, id)
		}
	}
	return sent
}

// Clients returns the connected clients ordered by connection time
func (h *Hub) Clients() []Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	out := make([]Client, 0, len(h.clients))
	for _, c := range h.clients {
		out = append(out, Client{
			ID:           c.ID,
			DeviceName:   c.DeviceName,
			UserAgent:    c.UserAgent,
			RemoteAddr:   c.RemoteAddr,
			ConnectedAt:  c.ConnectedAt,
			LastActivity: c.LastActivity,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConnectedAt.Before(out[j].ConnectedAt) })
	return out
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[c.ID] = c
}

func (h *Hub) unregister(c *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[c.ID]; ok {
		delete(h.clients, c.ID)
		close(c.send)
	}
}

func (h *Hub) touch(c *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	c.LastActivity = time.Now()
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for id, c := range h.clients {
		close(c.send)
		delete(h.clients, id)
	}
}

// Serve upgrades the request, sends initial frames and then pumps messages
// until the client disconnects. Inbound frames are passed to onEvent.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, initial []Message, onEvent func(host.Event)) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to upgrade websocket")
		return
	}

	now := time.Now()
	device := r.URL.Query().Get("device")
	if device == "" {
		device = "head unit"
	}
	c := &Client{
		ID:           uuid.NewString(),
		DeviceName:   device,
		UserAgent:    r.UserAgent(),
		RemoteAddr:   r.RemoteAddr,
		ConnectedAt:  now,
		LastActivity: now,
		conn:         conn,
		send:         make(chan []byte, sendBuffer+len(initial)),
	}

	for _, msg := range initial {
		data, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		c.send <- data
	}
	h.register(c)

	logger := h.logger.WithFields(logrus.Fields{"client_id": c.ID, "device": c.DeviceName})
	logger.Info("Head unit connected")

	go h.writePump(c)
	h.readPump(c, onEvent, logger)

	h.unregister(c)
	logger.Info("Head unit disconnected")
}

func (h *Hub) writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
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

func (h *Hub) readPump(c *Client, onEvent func(host.Event), logger *logrus.Entry) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		h.touch(c)
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WithError(err).Warn("Websocket read failed")
			}
			return
		}
		h.touch(c)
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var frame inbound
		if err := json.Unmarshal(data, &frame); err != nil {
			logger.WithError(err).Warn("Ignoring malformed head-unit frame")
			continue
		}
		ev, err := frame.event()
		if err != nil {
			logger.WithError(err).WithField("type", frame.Type).Warn("Ignoring invalid head-unit frame")
			continue
		}
		if onEvent != nil {
			onEvent(ev)
		}
	}
}

func (f inbound) event() (host.Event, error) {
	switch f.Type {
	case "button":
		return buttonEvent(f.Button)
	case "select":
		return selectEvent(f.MediaID)
	case "search":
		return searchEvent(f.Query)
	default:
		return nil, &ValidationError{Field: "type", Message: "unknown frame type " + f.Type, Code: "UNKNOWN_FRAME_TYPE"}
	}
}
