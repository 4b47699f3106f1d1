package server

import (
	"testing"

	"nhooyr.io/websocket"
)

func TestConnectHandshake(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	c := dialWS(ctx, t, env.ts)
	if c.id == "" {
		t.Fatal("expected a connection id")
	}
}

func TestCreateRoom(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	c := dialWS(ctx, t, env.ts)
	wsSend(ctx, t, c.conn, "createRoom", map[string]any{"name": "Alice", "character": "american"})
	payload := wsExpect(ctx, t, c.conn, "roomCreated")

	code, _ := payload["roomCode"].(string)
	if len(code) != 6 {
		t.Fatalf("expected 6-char room code, got %q", code)
	}
	state := stateOf(t, payload)
	players, _ := state["players"].([]any)
	if len(players) != 1 {
		t.Fatalf("expected 1 player in snapshot, got %d", len(players))
	}
	if _, ok := env.reg.Get(code); !ok {
		t.Fatal("room not in registry")
	}
}

func TestCreateRoomRequiresName(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	c := dialWS(ctx, t, env.ts)
	wsSend(ctx, t, c.conn, "createRoom", map[string]any{"character": "american"})
	if code := wsExpectError(ctx, t, c.conn, "createRoom"); code != "MissingName" {
		t.Fatalf("expected MissingName, got %s", code)
	}
}

func TestCreateRoomTwice(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	c := dialWS(ctx, t, env.ts)
	createRoom(ctx, t, c, "Alice")
	wsSend(ctx, t, c.conn, "createRoom", map[string]any{"name": "Alice"})
	if code := wsExpectError(ctx, t, c.conn, "createRoom"); code != "AlreadyInRoom" {
		t.Fatalf("expected AlreadyInRoom, got %s", code)
	}
}

func TestJoinRoom(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	host := dialWS(ctx, t, env.ts)
	code := createRoom(ctx, t, host, "Alice")

	guest := dialWS(ctx, t, env.ts)
	wsSend(ctx, t, guest.conn, "joinRoom", map[string]any{"roomCode": code, "name": "Bob", "character": "french"})
	payload := wsExpect(ctx, t, guest.conn, "joinSuccess")
	if got, _ := payload["character"].(string); got != "french" {
		t.Fatalf("expected french, got %q", got)
	}
	wsExpect(ctx, t, guest.conn, "playerJoined")

	// The host sees the join too.
	joined := wsExpect(ctx, t, host.conn, "playerJoined")
	if got, _ := joined["playerId"].(string); got != guest.id {
		t.Fatalf("expected joiner id %s, got %q", guest.id, got)
	}
}

func TestJoinUnknownRoom(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	c := dialWS(ctx, t, env.ts)
	wsSend(ctx, t, c.conn, "joinRoom", map[string]any{"roomCode": "NOSUCH", "name": "Bob"})
	if code := wsExpectError(ctx, t, c.conn, "joinRoom"); code != "RoomNotFound" {
		t.Fatalf("expected RoomNotFound, got %s", code)
	}
}

func TestUnknownIntent(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	c := dialWS(ctx, t, env.ts)
	wsSend(ctx, t, c.conn, "teleport", map[string]any{})
	if code := wsExpectError(ctx, t, c.conn, "teleport"); code != "UnknownIntent" {
		t.Fatalf("expected UnknownIntent, got %s", code)
	}
}

func TestMalformedMessage(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	c := dialWS(ctx, t, env.ts)
	if err := c.conn.Write(ctx, websocket.MessageText, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if code := wsExpectError(ctx, t, c.conn, "message"); code != "MalformedMessage" {
		t.Fatalf("expected MalformedMessage, got %s", code)
	}
}

func TestGetRoomState(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	host, _, code := twoPlayerRoom(ctx, t, env)
	wsSend(ctx, t, host.conn, "getRoomState", map[string]any{"roomCode": code})
	payload := wsExpect(ctx, t, host.conn, "roomState")

	taken, _ := payload["takenCharacters"].([]any)
	if len(taken) != 2 {
		t.Fatalf("expected 2 taken characters, got %v", taken)
	}
	free, _ := payload["availableCharacters"].([]any)
	if len(free) != 3 {
		t.Fatalf("expected 3 available characters, got %v", free)
	}
}

func TestStartGame(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	host, guest, code := twoPlayerRoom(ctx, t, env)

	// Only the host may start.
	wsSend(ctx, t, guest.conn, "startGame", map[string]any{"roomCode": code})
	if ec := wsExpectError(ctx, t, guest.conn, "startGame"); ec != "NotHost" {
		t.Fatalf("expected NotHost, got %s", ec)
	}

	wsSend(ctx, t, host.conn, "startGame", map[string]any{"roomCode": code})
	payload := wsExpect(ctx, t, host.conn, "gameStarted")
	state := stateOf(t, payload)
	if started, _ := state["gameStarted"].(bool); !started {
		t.Fatal("snapshot should mark the game started")
	}
	if cur, _ := state["currentPlayer"].(string); cur != host.id {
		t.Fatalf("expected host to hold the first turn, got %q", cur)
	}
	wsExpect(ctx, t, guest.conn, "gameStarted")
}

func TestRollDice(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	host, guest, code := twoPlayerRoom(ctx, t, env)
	startGame(ctx, t, host, guest, code)

	// Rolling out of turn fails without any broadcast.
	wsSend(ctx, t, guest.conn, "rollDice", map[string]any{"roomCode": code})
	if ec := wsExpectError(ctx, t, guest.conn, "rollDice"); ec != "NotYourTurn" {
		t.Fatalf("expected NotYourTurn, got %s", ec)
	}

	wsSend(ctx, t, host.conn, "rollDice", map[string]any{"roomCode": code})
	payload := wsExpect(ctx, t, host.conn, "diceRolled")
	if got, _ := payload["playerId"].(string); got != host.id {
		t.Fatalf("expected roller id, got %q", got)
	}
	result, _ := payload["result"].(map[string]any)
	if result == nil {
		t.Fatal("diceRolled without result")
	}
	roll, _ := result["roll"].(map[string]any)
	if total, _ := roll["total"].(float64); total < 2 || total > 12 {
		t.Fatalf("implausible roll total %v", total)
	}
	wsExpect(ctx, t, guest.conn, "diceRolled")
}

func TestLobbyTagSelectionFlow(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	host, guest, code := twoPlayerRoom(ctx, t, env)

	wsSend(ctx, t, host.conn, "getTagSelection", map[string]any{"roomCode": code})
	payload := wsExpect(ctx, t, host.conn, "tagSelection")
	tags, _ := payload["tags"].([]any)
	if len(tags) != 8 {
		t.Fatalf("expected 8 country options, got %d", len(tags))
	}

	// A wrong quiz answer is rejected.
	wsSend(ctx, t, host.conn, "submitTagSelection", map[string]any{
		"roomCode": code, "selectedTagIds": []string{"us6", "us7", "us8"},
	})
	if ec := wsExpectError(ctx, t, host.conn, "submitTagSelection"); ec != "WrongTagSelection" {
		t.Fatalf("expected WrongTagSelection, got %s", ec)
	}

	wsSend(ctx, t, host.conn, "submitTagSelection", map[string]any{
		"roomCode": code, "selectedTagIds": []string{"us1", "us2", "us3"},
	})
	wsExpect(ctx, t, host.conn, "tagSelectionAccepted")

	wsSend(ctx, t, host.conn, "confirmTags", map[string]any{"roomCode": code})
	confirmed := wsExpect(ctx, t, host.conn, "tagsConfirmed")
	state := stateOf(t, confirmed)
	players, _ := state["players"].([]any)
	hostState, _ := players[0].(map[string]any)
	if tags, _ := hostState["tags"].([]any); len(tags) != 5 {
		t.Fatalf("expected 5 starting tags, got %v", tags)
	}
	wsExpect(ctx, t, guest.conn, "tagsConfirmed")

	// The guest may skip the quiz entirely.
	wsSend(ctx, t, guest.conn, "autoAssignPlayerTags", map[string]any{"roomCode": code})
	wsExpect(ctx, t, guest.conn, "tagsAutoAssigned")
	wsSend(ctx, t, guest.conn, "confirmTags", map[string]any{"roomCode": code})
	wsExpect(ctx, t, guest.conn, "tagsConfirmed")
	wsExpect(ctx, t, host.conn, "tagsConfirmed")
}

func TestAutoAssignHostTagsHostOnly(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	_, guest, code := twoPlayerRoom(ctx, t, env)
	wsSend(ctx, t, guest.conn, "autoAssignHostTags", map[string]any{"roomCode": code})
	if ec := wsExpectError(ctx, t, guest.conn, "autoAssignHostTags"); ec != "NotHost" {
		t.Fatalf("expected NotHost, got %s", ec)
	}
}

func TestEndGameBroadcastsAndRecords(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	host, guest, code := twoPlayerRoom(ctx, t, env)
	startGame(ctx, t, host, guest, code)

	wsSend(ctx, t, host.conn, "endGame", map[string]any{"roomCode": code})
	payload := wsExpect(ctx, t, host.conn, "gameEnded")
	if reason, _ := payload["reason"].(string); reason != "hostEnded" {
		t.Fatalf("expected hostEnded, got %q", reason)
	}
	scores, _ := payload["scores"].([]any)
	if len(scores) != 2 {
		t.Fatalf("expected 2 scores, got %d", len(scores))
	}
	wsExpect(ctx, t, guest.conn, "gameEnded")

	rows, err := env.reg.Results(10)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(rows) != 1 || rows[0].RoomCode != code {
		t.Fatalf("result not recorded: %v", rows)
	}

	// Further play is rejected.
	wsSend(ctx, t, host.conn, "rollDice", map[string]any{"roomCode": code})
	if ec := wsExpectError(ctx, t, host.conn, "rollDice"); ec != "GameOver" {
		t.Fatalf("expected GameOver, got %s", ec)
	}
}

func TestDisconnectBroadcastsPlayerLeft(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	host, guest, code := twoPlayerRoom(ctx, t, env)
	guest.conn.Close(websocket.StatusNormalClosure, "bye")

	payload := wsExpect(ctx, t, host.conn, "playerLeft")
	if got, _ := payload["playerId"].(string); got != guest.id {
		t.Fatalf("expected %s to leave, got %q", guest.id, got)
	}
	state := stateOf(t, payload)
	players, _ := state["players"].([]any)
	if len(players) != 1 {
		t.Fatalf("expected 1 remaining player, got %d", len(players))
	}
	if _, ok := env.reg.Get(code); !ok {
		t.Fatal("room should survive while players remain")
	}
}

func TestLastDisconnectRemovesRoom(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	host := dialWS(ctx, t, env.ts)
	code := createRoom(ctx, t, host, "Alice")
	host.conn.Close(websocket.StatusNormalClosure, "bye")

	deadline := timeAfterPoll(t, func() bool {
		_, ok := env.reg.Get(code)
		return !ok
	})
	if !deadline {
		t.Fatal("room not removed after last disconnect")
	}
}
