package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Event represents a message to be published
type Event struct {
	Channel string
	Message map[string]interface{}
}

// Hub fans events out to WebSocket connections subscribed per channel. The
// dashboard opens one connection per form and receives that form's view and
// submission events live.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]map[*Conn]bool
	publish chan Event
	log     *zap.Logger
}

// Conn represents one subscribed WebSocket connection
type Conn struct {
	ws      *websocket.Conn
	send    chan []byte
	hub     *Hub
	channel string
}

// NewHub creates a new WebSocket hub
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		subs:    make(map[string]map[*Conn]bool),
		publish: make(chan Event, 256),
		log:     log,
	}
}

// Run dispatches published events to subscribers. Call in its own goroutine.
func (h *Hub) Run() {
	for event := range h.publish {
		data, err := json.Marshal(event.Message)
		if err != nil {
			h.log.Error("Failed to marshal event", zap.Error(err))
			continue
		}

		h.mu.RLock()
		for conn := range h.subs[event.Channel] {
			select {
			case conn.send <- data:
			default:
				// Slow consumer, drop the event rather than block the hub.
			}
		}
		h.mu.RUnlock()
	}
}

// Publish queues an event for all subscribers of a channel.
func (h *Hub) Publish(channel string, message map[string]interface{}) {
	select {
	case h.publish <- Event{Channel: channel, Message: message}:
	default:
		h.log.Warn("Event queue full, dropping event", zap.String("channel", channel))
	}
}

// Subscribe registers an upgraded connection on a channel and starts its read
// and write pumps. The connection unregisters itself when either pump stops.
func (h *Hub) Subscribe(wsConn *websocket.Conn, channel string) {
	conn := &Conn{
		ws:      wsConn,
		send:    make(chan []byte, 64),
		hub:     h,
		channel: channel,
	}

	h.mu.Lock()
	if h.subs[channel] == nil {
		h.subs[channel] = make(map[*Conn]bool)
	}
	h.subs[channel][conn] = true
	h.mu.Unlock()

	go conn.writePump()
	go conn.readPump()
}

func (h *Hub) unsubscribe(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.subs[conn.channel]; ok && subs[conn] {
		delete(subs, conn)
		if len(subs) == 0 {
			delete(h.subs, conn.channel)
		}
		close(conn.send)
	}
}

// readPump discards inbound frames; the feed is one-way. It exists to notice
// closes and answer pings.
func (c *Conn) readPump() {
	defer func() {
		c.hub.unsubscribe(c)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(512)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
