package theaterapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/stagehand/theater/internal/theaterlog"
	"github.com/stagehand/theater/pkg/theaterevents"
)

const (
	defaultWSMaxConnections = 100
	defaultPingInterval     = 30 * time.Second
	defaultPongTimeout      = 10 * time.Second
	defaultWriteTimeout     = 10 * time.Second
	defaultSendBuffer       = 32
)

// EventMessage is the wire format events are broadcast to websocket
// clients in.
type EventMessage struct {
	Kind      string `json:"kind"`
	AgentID   string `json:"agent_id,omitempty"`
	GigID     string `json:"gig_id,omitempty"`
	Selector  string `json:"selector,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func toEventMessage(e theaterevents.Event) EventMessage {
	msg := EventMessage{
		Kind: e.Kind.String(), AgentID: e.AgentID, GigID: e.GigID,
		Selector: e.Selector, Message: e.Message, Timestamp: e.Timestamp,
	}
	if e.Err != nil {
		msg.Error = e.Err.Error()
	}
	return msg
}

type wsClient struct {
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func newWSClient(conn *websocket.Conn) *wsClient {
	return &wsClient{conn: conn, send: make(chan []byte, defaultSendBuffer)}
}

func (c *wsClient) close() {
	c.closeOnce.Do(func() {
		close(c.send)
		_ = c.conn.Close()
	})
}

// EventsHandler streams pkg/theaterevents notifications over a
// websocket, one JSON-encoded EventMessage per frame.
type EventsHandler struct {
	log      theaterlog.Logger
	events   *theaterevents.Registry
	upgrader websocket.Upgrader

	mu             sync.RWMutex
	clients        map[*wsClient]struct{}
	maxConnections int
}

// NewEventsHandler builds a handler that relays events from registry,
// accepting clients from allowedOrigins ("*" allows any origin).
func NewEventsHandler(log theaterlog.Logger, events *theaterevents.Registry, allowedOrigins []string, maxConnections int) *EventsHandler {
	if maxConnections <= 0 {
		maxConnections = defaultWSMaxConnections
	}
	h := &EventsHandler{
		log:            log,
		events:         events,
		clients:        make(map[*wsClient]struct{}),
		maxConnections: maxConnections,
	}
	origins := append([]string(nil), allowedOrigins...)
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return isOriginAllowed(r, origins) },
	}
	events.SubscribeGlobal(h)
	return h
}

// OnTheaterEvent implements theaterevents.Observer, broadcasting every
// global event to every connected websocket client.
func (h *EventsHandler) OnTheaterEvent(event theaterevents.Event) {
	payload, err := json.Marshal(toEventMessage(event))
	if err != nil {
		return
	}
	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- payload:
		default:
			h.unregister(c)
		}
	}
}

func (h *EventsHandler) register(c *wsClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) >= h.maxConnections {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *EventsHandler) unregister(c *wsClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.close()
	}
}

// ServeHTTP upgrades the request to a websocket and starts streaming
// events to it until the client disconnects.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		http.Error(w, "websocket upgrade required", http.StatusBadRequest)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	client := newWSClient(conn)
	if !h.register(client) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too many connections"),
			time.Now().Add(defaultWriteTimeout))
		_ = conn.Close()
		return
	}

	go h.writePump(client)
	h.readPump(client)
}

func (h *EventsHandler) readPump(client *wsClient) {
	defer h.unregister(client)
	readDeadline := defaultPingInterval + defaultPongTimeout
	client.conn.SetReadLimit(1 << 16)
	_ = client.conn.SetReadDeadline(time.Now().Add(readDeadline))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(readDeadline))
	})
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *EventsHandler) writePump(client *wsClient) {
	ticker := time.NewTicker(defaultPingInterval)
	defer func() {
		ticker.Stop()
		h.unregister(client)
	}()
	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				_ = client.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(defaultWriteTimeout))
				return
			}
			_ = client.conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
			if err := client.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(defaultWriteTimeout)); err != nil {
				return
			}
		}
	}
}

func isOriginAllowed(r *http.Request, allowed []string) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(strings.TrimSpace(a), origin) {
			return true
		}
	}
	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(parsed.Host, r.Host)
}
