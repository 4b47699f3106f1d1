package server

import (
	"tagopoly/internal/game"
	"tagopoly/internal/room"
)

// stateEvent merges an event's fields with the full room snapshot so clients
// can render independently of message ordering. Caller holds the room lock.
func stateEvent(r *room.Room, extra map[string]any) map[string]any {
	out := make(map[string]any, len(extra)+1)
	for k, v := range extra {
		out[k] = v
	}
	out["state"] = r.Game.Snapshot()
	return out
}

func (s *Server) handleCreateRoom(c *client, in intent) {
	s.mu.Lock()
	_, alreadyIn := s.inRoom[c.id]
	s.mu.Unlock()
	if alreadyIn {
		s.sendError(c, "createRoom", &game.Error{
			Kind: game.KindPreconditionFailed, Code: "AlreadyInRoom", Message: "already in a room",
		})
		return
	}
	if in.Name == "" {
		s.sendError(c, "createRoom", &game.Error{
			Kind: game.KindInvalidInput, Code: "MissingName", Message: "name is required",
		})
		return
	}
	observer := in.HostParticipation == "observer"
	r := s.registry.Create(c.id, in.Name, game.Character(in.Character), observer)

	s.mu.Lock()
	s.inRoom[c.id] = r.Code
	s.mu.Unlock()

	r.Lock()
	s.reply(c, "roomCreated", stateEvent(r, map[string]any{"roomCode": r.Code}))
	r.Unlock()
}

func (s *Server) handleJoinRoom(c *client, in intent) {
	s.mu.Lock()
	_, alreadyIn := s.inRoom[c.id]
	s.mu.Unlock()
	if alreadyIn {
		s.sendError(c, "joinRoom", &game.Error{
			Kind: game.KindPreconditionFailed, Code: "AlreadyInRoom", Message: "already in a room",
		})
		return
	}
	s.withRoom(c, "joinRoom", in.RoomCode, func(r *room.Room) error {
		assigned, err := r.Game.AddPlayer(c.id, in.Name, game.Character(in.Character))
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.inRoom[c.id] = r.Code
		s.mu.Unlock()
		s.reply(c, "joinSuccess", stateEvent(r, map[string]any{
			"roomCode":  r.Code,
			"character": assigned,
		}))
		s.broadcast(r, "playerJoined", stateEvent(r, map[string]any{"playerId": c.id}))
		return nil
	})
}

func (s *Server) handleGetRoomState(c *client, in intent) {
	s.withRoom(c, "getRoomState", in.RoomCode, func(r *room.Room) error {
		var taken []game.Character
		for _, p := range r.Game.Players {
			taken = append(taken, p.Character)
		}
		s.reply(c, "roomState", stateEvent(r, map[string]any{
			"roomCode":            r.Code,
			"takenCharacters":     taken,
			"availableCharacters": r.Game.AvailableCharacters(),
		}))
		return nil
	})
}

func (s *Server) handleStartGame(c *client, in intent) {
	s.withRoom(c, "startGame", in.RoomCode, func(r *room.Room) error {
		if err := r.Game.Start(c.id); err != nil {
			return err
		}
		s.broadcast(r, "gameStarted", stateEvent(r, nil))
		return nil
	})
}

func (s *Server) handleRollDice(c *client, in intent) {
	s.withRoom(c, "rollDice", in.RoomCode, func(r *room.Room) error {
		res, err := r.Game.RollDice(c.id)
		if err != nil {
			return err
		}
		s.broadcast(r, "diceRolled", stateEvent(r, map[string]any{
			"playerId": c.id,
			"result":   res,
		}))
		if res.Bankruptcy != nil && res.Bankruptcy.Eliminated {
			s.broadcast(r, "playerBankruptToAll", stateEvent(r, map[string]any{
				"playerId":   res.Bankruptcy.PlayerID,
				"creditorId": res.Bankruptcy.CreditorID,
			}))
		}
		return nil
	})
}

func (s *Server) handleBuyProperty(c *client, in intent) {
	s.withRoom(c, "buyProperty", in.RoomCode, func(r *room.Room) error {
		if err := r.Game.BuyProperty(c.id, in.PropertyID); err != nil {
			return err
		}
		s.broadcast(r, "propertyBought", stateEvent(r, map[string]any{
			"playerId":   c.id,
			"propertyId": in.PropertyID,
		}))
		return nil
	})
}

func (s *Server) handleBuildHouse(c *client, in intent) {
	s.withRoom(c, "buildHouse", in.RoomCode, func(r *room.Room) error {
		if err := r.Game.BuildHouse(c.id, in.PropertyID); err != nil {
			return err
		}
		s.broadcast(r, "houseBuilt", stateEvent(r, map[string]any{
			"playerId":   c.id,
			"propertyId": in.PropertyID,
		}))
		return nil
	})
}

func (s *Server) handleEndTurn(c *client, in intent) {
	s.withRoom(c, "endTurn", in.RoomCode, func(r *room.Room) error {
		s.registry.CancelAutoEnd(r.Code)
		advanced, err := r.Game.EndTurn(c.id)
		if err != nil {
			return err
		}
		s.broadcast(r, "turnEnded", stateEvent(r, map[string]any{
			"playerId": c.id,
			"advanced": advanced,
		}))
		return nil
	})
}

func (s *Server) handleEndGame(c *client, in intent) {
	s.withRoom(c, "endGame", in.RoomCode, func(r *room.Room) error {
		scores, err := r.Game.ForceEnd(c.id)
		if err != nil {
			return err
		}
		s.finishGame(r, scores)
		return nil
	})
}

// finishGame broadcasts gameEnded and records the result once. Caller holds
// the room lock.
func (s *Server) finishGame(r *room.Room, scores []game.Score) {
	if r.ResultRecorded {
		return
	}
	r.ResultRecorded = true
	s.registry.CancelAutoEnd(r.Code)
	if scores == nil {
		scores = r.Game.Scores()
	}
	s.broadcast(r, "gameEnded", stateEvent(r, map[string]any{
		"reason": r.Game.EndReason,
		"winner": r.Game.Winner,
		"scores": scores,
	}))
	s.registry.RecordResult(r, r.Game.EndReason, r.Game.Winner, scores)
}

// maybeFinish checks the win condition after any tag mutation. Caller holds
// the room lock.
func (s *Server) maybeFinish(r *room.Room) {
	if r.Game.Ended {
		s.finishGame(r, nil)
	}
}

// scheduleAutoEnd arms the delayed turn advance for the current player. The
// callback re-fetches everything: the room may be gone or the roster changed
// by the time it fires.
func (s *Server) scheduleAutoEnd(code string) {
	s.registry.ScheduleAutoEnd(code, s.autoEndDelay, func(r *room.Room) {
		r.Lock()
		defer r.Unlock()
		cur := r.Game.CurrentPlayerID()
		if cur == "" || r.Game.Ended {
			return
		}
		advanced, err := r.Game.EndTurn(cur)
		if err != nil {
			return
		}
		s.broadcast(r, "turnEnded", stateEvent(r, map[string]any{
			"playerId": cur,
			"advanced": advanced,
			"auto":     true,
		}))
	})
}

func (s *Server) handleGetTagSelection(c *client, in intent) {
	s.withRoom(c, "getTagSelection", in.RoomCode, func(r *room.Room) error {
		tags, err := r.Game.TagSelectionOptions(c.id)
		if err != nil {
			return err
		}
		s.reply(c, "tagSelection", map[string]any{"tags": tags})
		return nil
	})
}

func (s *Server) handleSubmitTagSelection(c *client, in intent) {
	s.withRoom(c, "submitTagSelection", in.RoomCode, func(r *room.Room) error {
		if err := r.Game.SubmitTagSelection(c.id, in.SelectedTagIDs); err != nil {
			return err
		}
		s.reply(c, "tagSelectionAccepted", map[string]any{"selectedTagIds": in.SelectedTagIDs})
		return nil
	})
}

func (s *Server) handleAutoAssignTags(c *client, in intent, hostOnly bool) {
	intentType := "autoAssignPlayerTags"
	if hostOnly {
		intentType = "autoAssignHostTags"
	}
	s.withRoom(c, intentType, in.RoomCode, func(r *room.Room) error {
		if hostOnly && c.id != r.Game.HostID {
			return game.ErrNotHost
		}
		if err := r.Game.AutoAssignTags(c.id); err != nil {
			return err
		}
		s.reply(c, "tagsAutoAssigned", map[string]any{"playerId": c.id})
		return nil
	})
}

func (s *Server) handleConfirmTags(c *client, in intent) {
	s.withRoom(c, "confirmTags", in.RoomCode, func(r *room.Room) error {
		if err := r.Game.ConfirmTags(c.id); err != nil {
			return err
		}
		s.broadcast(r, "tagsConfirmed", stateEvent(r, map[string]any{"playerId": c.id}))
		return nil
	})
}

func (s *Server) handleRemoveOwnTag(c *client, in intent) {
	s.withRoom(c, "removeOwnTag", in.RoomCode, func(r *room.Room) error {
		if err := r.Game.RemoveOwnTag(c.id, in.TagID, in.Points); err != nil {
			return err
		}
		s.broadcast(r, "tagRemoved", stateEvent(r, map[string]any{
			"playerId": c.id,
			"tagId":    in.TagID,
			"points":   in.Points,
		}))
		s.maybeFinish(r)
		return nil
	})
}

func (s *Server) handleRemoveOwnTagWithQuestion(c *client, in intent) {
	s.withRoom(c, "removeOwnTagWithQuestion", in.RoomCode, func(r *room.Room) error {
		autoEnd, err := r.Game.RemoveOwnTagWithQuestion(c.id, in.TagID, in.Points, in.AutoEndTurn)
		if err != nil {
			return err
		}
		s.broadcast(r, "tagRemoved", stateEvent(r, map[string]any{
			"playerId": c.id,
			"tagId":    in.TagID,
			"points":   in.Points,
		}))
		s.maybeFinish(r)
		if autoEnd {
			s.scheduleAutoEnd(r.Code)
		}
		return nil
	})
}

func (s *Server) handleOthersTag(c *client, intentType string, in intent, gated bool) {
	s.withRoom(c, intentType, in.RoomCode, func(r *room.Room) error {
		help := in.Help != nil && *in.Help
		var (
			res *game.OthersTagResult
			err error
		)
		if gated {
			res, err = r.Game.HandleOthersTagWithQuestion(c.id, game.Character(in.OwnerCharacter), in.TagID, help, in.AutoEndTurn)
		} else {
			res, err = r.Game.HandleOthersTag(c.id, game.Character(in.OwnerCharacter), in.TagID, help)
		}
		if err != nil {
			return err
		}
		if res.Helped {
			s.broadcast(r, "tagRemoved", stateEvent(r, map[string]any{
				"playerId": res.OwnerID,
				"tagId":    res.TagID,
				"helperId": c.id,
				"points":   res.Amount,
			}))
			s.maybeFinish(r)
			if res.AutoEnd {
				s.scheduleAutoEnd(r.Code)
			}
			return nil
		}
		// Deliberately no state snapshot: a full snapshot here would clobber
		// in-flight turn state on receiving clients.
		s.broadcast(r, "playerPenalized", map[string]any{
			"playerId": c.id,
			"amount":   res.Amount,
			"ownerId":  res.OwnerID,
			"toFund":   res.ToFund,
		})
		switch {
		case res.Recovery:
			s.broadcast(r, "playerBankruptToAll", stateEvent(r, map[string]any{
				"playerId": c.id,
				"recovery": true,
			}))
		case res.Eliminated:
			s.broadcast(r, "playerBankruptToAll", stateEvent(r, map[string]any{
				"playerId":   c.id,
				"eliminated": true,
			}))
		default:
			s.scheduleAutoEnd(r.Code)
		}
		return nil
	})
}

func (s *Server) handleBankruptcyTags(c *client, in intent) {
	s.withRoom(c, "handleBankruptcyTags", in.RoomCode, func(r *room.Room) error {
		if err := r.Game.HandleBankruptcyTags(c.id, in.SelectedTagIDs); err != nil {
			return err
		}
		s.broadcast(r, "bankruptcyRecovered", stateEvent(r, map[string]any{
			"playerId":       c.id,
			"selectedTagIds": in.SelectedTagIDs,
			"reward":         game.RecoveryReward,
		}))
		s.scheduleAutoEnd(r.Code)
		return nil
	})
}

func (s *Server) handleQuestionMarkLottery(c *client, in intent) {
	s.withRoom(c, "handleQuestionMarkLottery", in.RoomCode, func(r *room.Room) error {
		res, err := r.Game.QuestionMarkLottery(c.id)
		if err != nil {
			return err
		}
		s.broadcast(r, "questionMarkLottery", stateEvent(r, map[string]any{
			"playerId": c.id,
			"result":   res,
		}))
		return nil
	})
}

func (s *Server) handleQuestionMarkTagSelection(c *client, in intent) {
	s.withRoom(c, "handleQuestionMarkTagSelection", in.RoomCode, func(r *room.Room) error {
		if err := r.Game.QuestionMarkTagSelection(c.id, in.SelectedTagID); err != nil {
			return err
		}
		s.broadcast(r, "tagRemoved", stateEvent(r, map[string]any{
			"playerId": c.id,
			"tagId":    in.SelectedTagID,
			"lottery":  true,
		}))
		s.maybeFinish(r)
		return nil
	})
}

func (s *Server) handleConfirmQuestionMarkResult(c *client, in intent) {
	s.withRoom(c, "confirmQuestionMarkResult", in.RoomCode, func(r *room.Room) error {
		if err := r.Game.ConfirmQuestionMarkResult(c.id); err != nil {
			return err
		}
		s.broadcast(r, "questionMarkConfirmed", stateEvent(r, map[string]any{"playerId": c.id}))
		return nil
	})
}

func (s *Server) handleRequestShowQuestion(c *client, in intent) {
	s.withRoom(c, "requestShowQuestion", in.RoomCode, func(r *room.Room) error {
		q, err := r.Game.RequestShowQuestion(c.id)
		if err != nil {
			return err
		}
		s.broadcast(r, "questionShown", map[string]any{
			"playerId": c.id,
			"question": q,
		})
		return nil
	})
}

func (s *Server) handleQuestionAnswered(c *client, in intent) {
	s.withRoom(c, "questionAnswered", in.RoomCode, func(r *room.Room) error {
		correct := in.Correct != nil && *in.Correct
		replacement, err := r.Game.QuestionAnswered(c.id, correct)
		if err != nil {
			return err
		}
		if replacement != nil {
			s.broadcast(r, "questionShown", map[string]any{
				"question":    replacement,
				"replacement": true,
			})
			return nil
		}
		s.broadcast(r, "questionVerified", stateEvent(r, nil))
		return nil
	})
}
