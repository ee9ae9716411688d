package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func waitSubscribers(t *testing.T, hub *Hub, eventID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Subscribers(eventID) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("assinantes de %s: esperado %d, veio %d", eventID, want, hub.Subscribers(eventID))
}

func TestHubSubscribeEBroadcast(t *testing.T) {
	hub := NewHub(func(r *http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dialHub(t, srv)
	defer conn.Close()

	if err := conn.WriteJSON(ClientMsg{Type: "subscribe", EventID: "evt-1"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	waitSubscribers(t, hub, "evt-1", 1)

	hub.Broadcast(RowsUpdate{EventID: "evt-1", Payload: []string{"linha"}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	var got RowsUpdate
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal broadcast: %v", err)
	}
	if got.EventID != "evt-1" {
		t.Fatalf("eventId errado no broadcast: %s", got.EventID)
	}
}

func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub(func(r *http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dialHub(t, srv)
	defer conn.Close()

	if err := conn.WriteJSON(ClientMsg{Type: "subscribe", EventID: "evt-2"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	waitSubscribers(t, hub, "evt-2", 1)

	if err := conn.WriteJSON(ClientMsg{Type: "unsubscribe", EventID: "evt-2"}); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	waitSubscribers(t, hub, "evt-2", 0)
}

func TestHubPing(t *testing.T) {
	hub := NewHub(func(r *http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dialHub(t, srv)
	defer conn.Close()

	if err := conn.WriteJSON(ClientMsg{Type: "ping"}); err != nil {
		t.Fatalf("ping: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var pong map[string]string
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if pong["type"] != "pong" {
		t.Fatalf("resposta de ping errada: %v", pong)
	}
}

func TestHubRemoveConexaoMorta(t *testing.T) {
	hub := NewHub(func(r *http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dialHub(t, srv)
	if err := conn.WriteJSON(ClientMsg{Type: "subscribe", EventID: "evt-3"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	waitSubscribers(t, hub, "evt-3", 1)

	// fecha o transporte por baixo; o próximo broadcast deve podar
	conn.UnderlyingConn().Close()

	hub.Broadcast(RowsUpdate{EventID: "evt-3", Payload: nil})
	waitSubscribers(t, hub, "evt-3", 0)
}
