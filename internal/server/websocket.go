package server

import (
	"encoding/json"
	"errors"
	"net/http"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"nhooyr.io/websocket"

	"tagopoly/internal/game"
	"tagopoly/internal/room"
)

// WSMessage is the JSON envelope for WebSocket messages in both directions.
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// intent carries every field any inbound intent may use; per-intent handlers
// read only the fields they require.
type intent struct {
	RoomCode          string   `json:"roomCode,omitempty"`
	Name              string   `json:"name,omitempty"`
	Character         string   `json:"character,omitempty"`
	HostParticipation string   `json:"hostParticipation,omitempty"`
	PropertyID        int      `json:"propertyId,omitempty"`
	TagID             string   `json:"tagId,omitempty"`
	SelectedTagID     string   `json:"selectedTagId,omitempty"`
	SelectedTagIDs    []string `json:"selectedTagIds,omitempty"`
	Points            int      `json:"points,omitempty"`
	OwnerCharacter    string   `json:"ownerCharacter,omitempty"`
	Help              *bool    `json:"help,omitempty"`
	AutoEndTurn       bool     `json:"autoEndTurn,omitempty"`
	Correct           *bool    `json:"correct,omitempty"`
}

type errorPayload struct {
	Kind    game.Kind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

type client struct {
	id   string
	send chan []byte
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // clients are served from arbitrary origins
	})
	if err != nil {
		s.log.Warnw("websocket accept", "err", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	id, err := gonanoid.New()
	if err != nil {
		s.log.Errorw("generate connection id", "err", err)
		return
	}
	c := &client{id: "conn-" + id, send: make(chan []byte, 64)}

	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()

	ctx := r.Context()

	// Writer goroutine: drain the send channel to the socket.
	go func() {
		for msg := range c.send {
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}()

	s.reply(c, "connected", map[string]string{"connectionId": c.id})

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError(c, "message", &game.Error{
				Kind: game.KindInvalidInput, Code: "MalformedMessage", Message: "invalid message",
			})
			continue
		}
		s.dispatch(c, msg)
	}

	s.disconnect(c)
}

// dispatch applies one intent. Unexpected faults are contained here: the
// room's state is whatever the engine left behind, the process and the room
// keep running, and the requester gets a generic failure event.
func (s *Server) dispatch(c *client, msg WSMessage) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Errorw("intent panic", "intent", msg.Type, "conn", c.id, "panic", rec)
			s.sendError(c, msg.Type, &game.Error{
				Kind: game.KindInvalidInput, Code: "InternalFault", Message: "internal error handling intent",
			})
		}
	}()

	var in intent
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &in); err != nil {
			s.sendError(c, msg.Type, &game.Error{
				Kind: game.KindInvalidInput, Code: "MalformedPayload", Message: "invalid payload",
			})
			return
		}
	}

	switch msg.Type {
	case "createRoom":
		s.handleCreateRoom(c, in)
	case "joinRoom":
		s.handleJoinRoom(c, in)
	case "getRoomState":
		s.handleGetRoomState(c, in)
	case "startGame":
		s.handleStartGame(c, in)
	case "rollDice":
		s.handleRollDice(c, in)
	case "buyProperty":
		s.handleBuyProperty(c, in)
	case "buildHouse":
		s.handleBuildHouse(c, in)
	case "endTurn":
		s.handleEndTurn(c, in)
	case "endGame":
		s.handleEndGame(c, in)
	case "getTagSelection":
		s.handleGetTagSelection(c, in)
	case "submitTagSelection":
		s.handleSubmitTagSelection(c, in)
	case "autoAssignHostTags":
		s.handleAutoAssignTags(c, in, true)
	case "autoAssignPlayerTags":
		s.handleAutoAssignTags(c, in, false)
	case "confirmTags":
		s.handleConfirmTags(c, in)
	case "removeOwnTag":
		s.handleRemoveOwnTag(c, in)
	case "removeOwnTagWithQuestion":
		s.handleRemoveOwnTagWithQuestion(c, in)
	case "handleOthersTag":
		s.handleOthersTag(c, msg.Type, in, false)
	case "handleOthersTagWithQuestion":
		s.handleOthersTag(c, msg.Type, in, true)
	case "handleBankruptcyTags":
		s.handleBankruptcyTags(c, in)
	case "handleQuestionMarkLottery":
		s.handleQuestionMarkLottery(c, in)
	case "handleQuestionMarkTagSelection":
		s.handleQuestionMarkTagSelection(c, in)
	case "confirmQuestionMarkResult":
		s.handleConfirmQuestionMarkResult(c, in)
	case "requestShowQuestion":
		s.handleRequestShowQuestion(c, in)
	case "questionAnswered":
		s.handleQuestionAnswered(c, in)
	default:
		s.sendError(c, msg.Type, &game.Error{
			Kind: game.KindInvalidInput, Code: "UnknownIntent", Message: "unknown intent type: " + msg.Type,
		})
	}
}

// withRoom is the shared validation pipeline head: fetch the room, take its
// lock, run the handler, convert an error into a requester-only failure
// event. Handlers re-fetch player state inside fn; nothing is closed over.
func (s *Server) withRoom(c *client, intentType, code string, fn func(r *room.Room) error) {
	r, ok := s.registry.Get(code)
	if !ok {
		s.sendError(c, intentType, game.ErrRoomNotFound)
		return
	}
	r.Lock()
	err := fn(r)
	r.Unlock()
	if err != nil {
		s.sendError(c, intentType, err)
	}
}

func (s *Server) reply(c *client, msgType string, payload any) {
	p, _ := json.Marshal(payload)
	msg, _ := json.Marshal(WSMessage{Type: msgType, Payload: p})
	select {
	case c.send <- msg:
	default:
		// Slow client: drop rather than block the room.
	}
}

func (s *Server) sendError(c *client, intentType string, err error) {
	var ge *game.Error
	if !errors.As(err, &ge) {
		ge = &game.Error{Kind: game.KindInvalidInput, Code: "InternalFault", Message: err.Error()}
	}
	s.reply(c, intentType+"Error", errorPayload{Kind: ge.Kind, Code: ge.Code, Message: ge.Message})
}

// broadcast sends an event to every roster member of the room. Caller holds
// the room lock.
func (s *Server) broadcast(r *room.Room, msgType string, payload any) {
	p, _ := json.Marshal(payload)
	msg, _ := json.Marshal(WSMessage{Type: msgType, Payload: p})
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pl := range r.Game.Players {
		c, ok := s.clients[pl.ID]
		if !ok {
			continue
		}
		select {
		case c.send <- msg:
		default:
		}
	}
}

func (s *Server) disconnect(c *client) {
	s.mu.Lock()
	delete(s.clients, c.id)
	code, joined := s.inRoom[c.id]
	delete(s.inRoom, c.id)
	s.mu.Unlock()
	close(c.send)

	if !joined {
		return
	}
	r, ok := s.registry.Get(code)
	if !ok {
		return
	}
	r.Lock()
	removed, empty := r.Game.RemovePlayer(c.id)
	if removed && !empty {
		s.broadcast(r, "playerLeft", map[string]any{
			"playerId": c.id,
			"state":    r.Game.Snapshot(),
		})
	}
	r.Unlock()
	if empty {
		s.registry.Remove(code)
	}
	s.log.Infow("player disconnected", "conn", c.id, "room", code)
}
