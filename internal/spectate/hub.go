// Package spectate streams battle snapshots to websocket subscribers. It is
// the interface boundary for rendering: consumers only ever receive
// defensively-copied state, never a handle into the resolver.
package spectate

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"emberfall/sim/internal/combat"
)

const writeWait = 10 * time.Second

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

type stateMessage struct {
	Type       string             `json:"type"`
	State      combat.BattleState `json:"state"`
	ServerTime int64              `json:"serverTime"`
}

// Hub fans battle snapshots out to subscribers.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]*subscriber
	nextID      atomic.Uint64
	upgrader    websocket.Upgrader
	latest      []byte
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]*subscriber),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Broadcast encodes a snapshot and pushes it to every subscriber. Dead
// connections are pruned on write failure.
func (h *Hub) Broadcast(state combat.BattleState) {
	payload, err := json.Marshal(stateMessage{
		Type:       "state",
		State:      state,
		ServerTime: time.Now().UnixMilli(),
	})
	if err != nil {
		log.Printf("spectate: encode snapshot: %v", err)
		return
	}

	h.mu.Lock()
	h.latest = payload
	subs := make(map[string]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	for id, sub := range subs {
		if err := sub.send(payload); err != nil {
			h.drop(id)
		}
	}
}

// ServeWS upgrades a request and registers the connection. The most recent
// snapshot is replayed immediately so late joiners see current state.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("spectate: upgrade failed: %v", err)
		return
	}
	id := fmt.Sprintf("spectator-%d", h.nextID.Add(1))
	sub := &subscriber{conn: conn}

	h.mu.Lock()
	h.subscribers[id] = sub
	latest := h.latest
	h.mu.Unlock()

	if latest != nil {
		if err := sub.send(latest); err != nil {
			h.drop(id)
			return
		}
	}

	// Reader loop only watches for close; spectators never send commands.
	go func() {
		defer h.drop(id)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) drop(id string) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
	}
	h.mu.Unlock()
	if ok {
		sub.conn.Close()
	}
}

// Subscribers reports the current connection count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
