// Package spectate streams encounter snapshots to websocket watchers.
package spectate

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/milk9111/horde/logger"
	"github.com/sirupsen/logrus"
)

const writeWait = 5 * time.Second

// Message is one frame on the wire.
type Message struct {
	Type   string `json:"type"`
	Data   any    `json:"data,omitempty"`
	Events []any  `json:"events,omitempty"`
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub fans the latest frame out to every connected watcher. Watchers are
// read-only; anything they send is discarded.
type Hub struct {
	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	latest      []byte
	upgrader    websocket.Upgrader
	log         *logrus.Entry
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log: logger.For("spectate"),
	}
}

// Count is the number of connected watchers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Publish encodes msg, remembers it for late joiners and sends it to
// every watcher. Watchers that fail to keep up are dropped.
func (h *Hub) Publish(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.latest = data
	subs := make([]*subscriber, 0, len(h.subscribers))
	for sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		if err := sub.write(data); err != nil {
			h.log.WithError(err).Debug("dropping watcher")
			h.remove(sub)
		}
	}
	return nil
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	_, ok := h.subscribers[sub]
	delete(h.subscribers, sub)
	h.mu.Unlock()
	if ok {
		sub.conn.Close()
	}
}

// ServeHTTP upgrades the request and sends the latest frame right away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("upgrade failed")
		return
	}
	sub := &subscriber{conn: conn}

	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	latest := h.latest
	h.mu.Unlock()
	h.log.WithFields(logrus.Fields{"remote": r.RemoteAddr}).Info("watcher joined")

	if latest != nil {
		if err := sub.write(latest); err != nil {
			h.remove(sub)
			return
		}
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.remove(sub)
			h.log.WithFields(logrus.Fields{"remote": r.RemoteAddr}).Info("watcher left")
			return
		}
	}
}
