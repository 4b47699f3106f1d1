package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"tagopoly/internal/room"
	"tagopoly/internal/storage"
)

type testEnv struct {
	ts  *httptest.Server
	srv *Server
	reg *room.Registry
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	reg := room.NewRegistry(store, nil)
	srv := New(reg, nil)
	srv.SetAutoEndDelay(time.Millisecond)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, srv: srv, reg: reg}
}

func timeoutCtx(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func wsURL(ts *httptest.Server) string {
	return strings.Replace(ts.URL, "http://", "ws://", 1) + "/ws"
}

// testClient is one websocket connection with its server-assigned id.
type testClient struct {
	conn *websocket.Conn
	id   string
}

// dialWS connects and consumes the connected handshake.
func dialWS(ctx context.Context, t *testing.T, ts *httptest.Server) *testClient {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, wsURL(ts), nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })

	payload := wsExpect(ctx, t, conn, "connected")
	id, _ := payload["connectionId"].(string)
	if id == "" {
		t.Fatalf("connected event without connection id: %v", payload)
	}
	return &testClient{conn: conn, id: id}
}

// wsSend marshals and writes one intent envelope.
func wsSend(ctx context.Context, t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		p, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		raw = p
	}
	data, err := json.Marshal(WSMessage{Type: msgType, Payload: raw})
	if err != nil {
		t.Fatalf("marshal ws message: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("ws write: %v", err)
	}
}

// wsRead reads one envelope.
func wsRead(ctx context.Context, t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("ws read: %v", err)
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal ws message: %v", err)
	}
	return msg
}

// wsExpect reads one envelope and requires the given type, returning the
// payload as a generic map.
func wsExpect(ctx context.Context, t *testing.T, conn *websocket.Conn, msgType string) map[string]any {
	t.Helper()
	msg := wsRead(ctx, t, conn)
	if msg.Type != msgType {
		t.Fatalf("expected %q message, got %q: %s", msgType, msg.Type, string(msg.Payload))
	}
	var payload map[string]any
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			t.Fatalf("unmarshal %s payload: %v", msgType, err)
		}
	}
	return payload
}

// wsExpectError reads one envelope and requires a failure event for the
// intent, returning the error code.
func wsExpectError(ctx context.Context, t *testing.T, conn *websocket.Conn, intentType string) string {
	t.Helper()
	msg := wsRead(ctx, t, conn)
	if msg.Type != intentType+"Error" {
		t.Fatalf("expected %sError, got %q: %s", intentType, msg.Type, string(msg.Payload))
	}
	var ep errorPayload
	if err := json.Unmarshal(msg.Payload, &ep); err != nil {
		t.Fatalf("unmarshal error payload: %v", err)
	}
	return ep.Code
}

// createRoom creates a room over the connection and returns its code.
func createRoom(ctx context.Context, t *testing.T, c *testClient, name string) string {
	t.Helper()
	wsSend(ctx, t, c.conn, "createRoom", map[string]any{"name": name, "character": "american"})
	payload := wsExpect(ctx, t, c.conn, "roomCreated")
	code, _ := payload["roomCode"].(string)
	if code == "" {
		t.Fatalf("roomCreated without code: %v", payload)
	}
	return code
}

// joinRoom joins an existing room; the caller drains the creator's
// playerJoined broadcast separately.
func joinRoom(ctx context.Context, t *testing.T, c *testClient, code string, name string) {
	t.Helper()
	wsSend(ctx, t, c.conn, "joinRoom", map[string]any{"roomCode": code, "name": name})
	wsExpect(ctx, t, c.conn, "joinSuccess")
	wsExpect(ctx, t, c.conn, "playerJoined")
}

// twoPlayerRoom is the common fixture: host and guest in one room.
func twoPlayerRoom(ctx context.Context, t *testing.T, env *testEnv) (host, guest *testClient, code string) {
	t.Helper()
	host = dialWS(ctx, t, env.ts)
	guest = dialWS(ctx, t, env.ts)
	code = createRoom(ctx, t, host, "Alice")
	joinRoom(ctx, t, guest, code, "Bob")
	wsExpect(ctx, t, host.conn, "playerJoined")
	return host, guest, code
}

// startGame starts the fixture room and drains the gameStarted broadcasts.
func startGame(ctx context.Context, t *testing.T, host, guest *testClient, code string) {
	t.Helper()
	wsSend(ctx, t, host.conn, "startGame", map[string]any{"roomCode": code})
	wsExpect(ctx, t, host.conn, "gameStarted")
	wsExpect(ctx, t, guest.conn, "gameStarted")
}

// timeAfterPoll polls cond for up to two seconds.
func timeAfterPoll(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

// stateOf extracts the embedded snapshot from a broadcast payload.
func stateOf(t *testing.T, payload map[string]any) map[string]any {
	t.Helper()
	state, ok := payload["state"].(map[string]any)
	if !ok {
		t.Fatalf("payload without state: %v", payload)
	}
	return state
}
