package booking

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"lookshq/middleware"
	"lookshq/mq"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans booking events out to websocket subscribers. Customers are keyed
// by user id, shops by shop id; one event usually hits both channels.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string][]*websocket.Conn
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[string][]*websocket.Conn)}
}

// Run bridges the Redis event stream into connected sockets until ctx ends.
func (h *Hub) Run(ctx context.Context) {
	mq.Subscribe(ctx, func(ev mq.Event) {
		data, err := json.Marshal(ev)
		if err != nil {
			return
		}
		if ev.CustomerID != "" {
			h.Broadcast("user_"+ev.CustomerID, data)
		}
		if ev.ShopID != "" {
			h.Broadcast("shop_"+ev.ShopID, data)
		}
	})
}

func (h *Hub) add(key string, conn *websocket.Conn) {
	h.mu.Lock()
	h.subscribers[key] = append(h.subscribers[key], conn)
	h.mu.Unlock()
}

func (h *Hub) remove(key string, conn *websocket.Conn) {
	h.mu.Lock()
	conns := h.subscribers[key]
	kept := make([]*websocket.Conn, 0, len(conns))
	for _, c := range conns {
		if c != conn {
			kept = append(kept, c)
		}
	}
	h.subscribers[key] = kept
	h.mu.Unlock()
}

// Broadcast writes to every subscriber of key, dropping dead connections.
func (h *Hub) Broadcast(key string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.subscribers[key]
	kept := conns[:0]
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err == nil {
			kept = append(kept, conn)
		} else {
			conn.Close()
		}
	}
	h.subscribers[key] = kept
}

// HandleUpdates upgrades the connection and streams status changes for the
// authenticated user (and, with ?shop=, for one of their shops). Browsers
// cannot set Authorization on WS dials, so the token rides in ?token=.
func (h *Hub) HandleUpdates(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims, err := middleware.ValidateRawToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	key := "user_" + claims.UserID
	if shopID := r.URL.Query().Get("shop"); shopID != "" {
		key = "shop_" + shopID
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("booking ws upgrade failed:", err)
		return
	}

	h.add(key, conn)

	for {
		// Keeps the connection alive until the client disconnects.
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(key, conn)
	conn.Close()
}
