package booking

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, hub *Hub, key string) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		hub.add(key, conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubBroadcastReachesSubscriber(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub, "user_cust1")

	// give the server handler a beat to register the connection
	deadline := time.Now().Add(time.Second)
	for {
		hub.mu.Lock()
		n := len(hub.subscribers["user_cust1"])
		hub.mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Broadcast("user_cust1", []byte(`{"name":"booking-status-changed"}`))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !strings.Contains(string(data), "booking-status-changed") {
		t.Fatalf("unexpected payload %s", data)
	}
}

func TestHubBroadcastIgnoresOtherKeys(t *testing.T) {
	hub := NewHub()
	hub.Broadcast("user_nobody", []byte("x")) // no subscribers, must not panic
}

func TestHubRemoveDropsConnection(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub, "shop_s1")

	deadline := time.Now().Add(time.Second)
	for {
		hub.mu.Lock()
		conns := hub.subscribers["shop_s1"]
		hub.mu.Unlock()
		if len(conns) > 0 {
			hub.remove("shop_s1", conns[0])
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.mu.Lock()
	n := len(hub.subscribers["shop_s1"])
	hub.mu.Unlock()
	if n != 0 {
		t.Fatalf("expected no subscribers, got %d", n)
	}
	_ = conn
}
