package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func wsServer(t *testing.T, hub *Hub) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(r.Context(), conn, "proj_ws", "user_1")
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func readMessage(ctx context.Context, t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestServeOverWebsocket(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store := newMemStore()
	hub := NewHub(store)
	url := wsServer(t, hub)

	first, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	if m := readMessage(ctx, t, first); m.Type != TypeWelcome {
		t.Fatalf("first message = %q", m.Type)
	}
	if m := readMessage(ctx, t, first); m.Type != TypeStateSync {
		t.Fatalf("second message = %q", m.Type)
	}

	second, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	m := readMessage(ctx, t, second)
	if m.Type != TypeError || !strings.Contains(string(m.Payload), "already open") {
		t.Fatalf("refusal = %s %s", m.Type, m.Payload)
	}
	if _, _, err := second.Read(ctx); websocket.CloseStatus(err) != websocket.StatusPolicyViolation {
		t.Fatalf("close status = %v", websocket.CloseStatus(err))
	}

	frame := `{"type":"drop","seq":1,"payload":{"x":10,"y":10,"data":"{\"type\":\"component\",\"componentType\":\"text\"}"}}`
	if err := first.Write(ctx, websocket.MessageText, []byte(frame)); err != nil {
		t.Fatal(err)
	}
	if m := readMessage(ctx, t, first); m.Type != TypeStateChanged {
		t.Fatalf("after drop = %q", m.Type)
	}
	first.Close(websocket.StatusNormalClosure, "")

	deadline := time.Now().Add(3 * time.Second)
	for store.versions("proj_ws") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("session not saved after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestErrorFrame(t *testing.T) {
	frame, err := errorFrame(ErrProjectBusy.Error())
	if err != nil {
		t.Fatalf("errorFrame: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(frame, &msg); err != nil {
		t.Fatal(err)
	}
	var p ErrorPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		t.Fatal(err)
	}
	if msg.Type != TypeError || p.Message != ErrProjectBusy.Error() || p.ReplyTo != 0 {
		t.Errorf("frame = %s", frame)
	}
}
