package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Topics clients can subscribe to.
const (
	TopicMarkets  = "markets"
	TopicStrategy = "strategy"
)

// ClientMsg is a message sent by a websocket client.
type ClientMsg struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
}

// ServerMsg is a message pushed to websocket clients.
type ServerMsg struct {
	Type  string `json:"type"`
	Topic string `json:"topic,omitempty"`
	Data  any    `json:"data,omitempty"`
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) write(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

func (c *wsClient) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.write(b)
}

// SnapshotFunc returns the current value of a topic, if one has loaded.
type SnapshotFunc func(topic string) (any, bool)

// Hub fans refreshed projections out to subscribed websocket clients.
type Hub struct {
	upgrader websocket.Upgrader
	snapshot SnapshotFunc
	logger   *zap.Logger

	mu sync.RWMutex
	// topic -> set of clients
	subs map[string]map[*wsClient]struct{}
}

// NewHub creates a Hub. snapshot, if set, is used to greet new subscribers with the current value.
func NewHub(allowOrigin func(r *http.Request) bool, snapshot SnapshotFunc, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		snapshot: snapshot,
		logger:   logger,
		subs:     make(map[string]map[*wsClient]struct{}),
	}
}

// HandleWS serves one websocket connection until the client goes away.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	client := &wsClient{conn: conn}

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			h.subscribe(client, msg.Topic)
			if h.snapshot != nil {
				if data, ok := h.snapshot(msg.Topic); ok {
					_ = client.writeJSON(ServerMsg{Type: "snapshot", Topic: msg.Topic, Data: data})
				}
			}
		case "unsubscribe":
			h.unsubscribe(client, msg.Topic)
		case "ping":
			_ = client.writeJSON(ServerMsg{Type: "pong"})
		}
	}

	h.mu.Lock()
	for topic, set := range h.subs {
		delete(set, client)
		if len(set) == 0 {
			delete(h.subs, topic)
		}
	}
	h.mu.Unlock()
}

// Broadcast pushes a new value of topic to its subscribers.
func (h *Hub) Broadcast(topic string, data any) {
	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.subs[topic]))
	for c := range h.subs[topic] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	if len(clients) == 0 {
		return
	}

	b, err := json.Marshal(ServerMsg{Type: "update", Topic: topic, Data: data})
	if err != nil {
		h.logger.Warn("marshal broadcast", zap.String("topic", topic), zap.Error(err))
		return
	}
	for _, c := range clients {
		if err := c.write(b); err != nil {
			h.logger.Debug("websocket write failed", zap.String("topic", topic), zap.Error(err))
		}
	}
}

// Subscribers returns the number of clients subscribed to topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}

func (h *Hub) subscribe(c *wsClient, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[topic]; !ok {
		h.subs[topic] = make(map[*wsClient]struct{})
	}
	h.subs[topic][c] = struct{}{}
}

func (h *Hub) unsubscribe(c *wsClient, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[topic]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, topic)
		}
	}
}
