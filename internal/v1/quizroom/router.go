package quizroom

import (
	"context"
	"encoding/json"

	"github.com/brightloop/quizarena/internal/v1/auth"
)

// dispatch authorizes and routes one inbound Message to the bound Room (or
// binds a room for the handful of events that can arrive unbound), per
// §4.4's "validates inbound events, authorizes them against room role".
func (c *Client) dispatch(ctx context.Context, msg Message) error {
	switch msg.Event {
	case EvCreateRoom:
		return c.handleCreateRoom(ctx, msg.Payload)
	case EvJoinRoom:
		return c.handleJoinRoom(ctx, msg.Payload)
	case EvRejoinRoom:
		return c.handleRejoinRoom(ctx, msg.Payload)
	}

	if c.room == nil {
		c.sendEvent(OutRoomNotFound, nil)
		return ErrRoomNotFound
	}
	room := c.room

	switch msg.Event {
	case EvStartGame:
		p, ok := mustUnmarshal[startGamePayload](msg.Payload)
		if !ok {
			return c.badPayload()
		}
		return c.submit(ctx, room, func(r *Room) error {
			return r.StartGame(c.persistentId, p.Questions, p.TimeLimit)
		})

	case EvSubmitAnswer:
		p, ok := mustUnmarshal[submitAnswerPayload](msg.Payload)
		if !ok {
			return c.badPayload()
		}
		return c.submit(ctx, room, func(r *Room) error {
			return r.SubmitAnswer(c.persistentId, p.Answer, p.HasDrawing, p.DrawingData, p.AnswerAttemptId)
		})

	case EvUpdateBoard:
		p, ok := mustUnmarshal[updateBoardPayload](msg.Payload)
		if !ok {
			return c.badPayload()
		}
		return c.submit(ctx, room, func(r *Room) error {
			return r.UpdateBoard(c.persistentId, p.BoardData)
		})

	case EvEvaluateAnswer:
		p, ok := mustUnmarshal[evaluateAnswerPayload](msg.Payload)
		if !ok {
			return c.badPayload()
		}
		return c.submit(ctx, room, func(r *Room) error {
			return r.EvaluateAnswer(c.persistentId, p.PlayerId, p.IsCorrect)
		})

	case EvNextQuestion:
		return c.submit(ctx, room, func(r *Room) error {
			return r.NextQuestion(c.persistentId)
		})

	case EvEndRoundEarly:
		return c.submit(ctx, room, func(r *Room) error {
			return r.EndRoundEarly(c.persistentId)
		})

	case EvRestartGame:
		return c.submit(ctx, room, func(r *Room) error {
			return r.RestartGame(c.persistentId)
		})

	case EvFocusSubmission:
		p, ok := mustUnmarshal[focusSubmissionPayload](msg.Payload)
		if !ok {
			return c.badPayload()
		}
		return c.submit(ctx, room, func(r *Room) error {
			return r.FocusSubmission(c.persistentId, p.PlayerId)
		})

	case EvKickPlayer:
		p, ok := mustUnmarshal[kickPlayerPayload](msg.Payload)
		if !ok {
			return c.badPayload()
		}
		return c.submit(ctx, room, func(r *Room) error {
			return r.KickPlayer(c.persistentId, p.PlayerIdToKick)
		})

	case EvToggleCommunityVoting:
		p, ok := mustUnmarshal[toggleCommunityVotingPayload](msg.Payload)
		if !ok {
			return c.badPayload()
		}
		return c.submit(ctx, room, func(r *Room) error {
			return r.ToggleCommunityVoting(c.persistentId, p.IsCommunityVotingMode)
		})

	case EvSubmitVote:
		p, ok := mustUnmarshal[submitVotePayload](msg.Payload)
		if !ok {
			return c.badPayload()
		}
		return c.submit(ctx, room, func(r *Room) error {
			return r.SubmitVote(c.persistentId, p.AnswerId, p.Vote)
		})

	case EvShowAnswer:
		p, ok := mustUnmarshal[showAnswerPayload](msg.Payload)
		if !ok {
			return c.badPayload()
		}
		return c.submit(ctx, room, func(r *Room) error {
			return r.ShowAnswer(c.persistentId, p.QuestionId)
		})

	case EvForceEndVoting:
		return c.submit(ctx, room, func(r *Room) error {
			return r.ForceEndVoting(c.persistentId)
		})

	case EvGMCommunityAnswerAccept:
		p, ok := mustUnmarshal[gmAcceptAnswerPayload](msg.Payload)
		if !ok {
			return c.badPayload()
		}
		return c.submit(ctx, room, func(r *Room) error {
			return r.GMAcceptCommunityAnswer(c.persistentId, p.AnswerId)
		})

	case EvUpdateGMBoard:
		p, ok := mustUnmarshal[boardOnlyPayload](msg.Payload)
		if !ok {
			return c.badPayload()
		}
		return c.submit(ctx, room, func(r *Room) error {
			return r.UpdateGMBoard(c.persistentId, p.BoardData)
		})

	case EvClearGMBoard:
		return c.submit(ctx, room, func(r *Room) error {
			return r.ClearGMBoard(c.persistentId)
		})

	case EvUpdateAvatar:
		p, ok := mustUnmarshal[updateAvatarPayload](msg.Payload)
		if !ok {
			return c.badPayload()
		}
		return c.submit(ctx, room, func(r *Room) error {
			return r.UpdateAvatar(p.PersistentPlayerId, p.Avatar)
		})

	case EvGetGameState:
		return c.submit(ctx, room, func(r *Room) error {
			r.broadcastGameState()
			return nil
		})

	case EvGMEndGameRequest:
		return c.submit(ctx, room, func(r *Room) error {
			return r.EndGame(c.persistentId)
		})

	case EvGMNavigateRecapRound:
		p, ok := mustUnmarshal[navigateRecapRoundPayload](msg.Payload)
		if !ok {
			return c.badPayload()
		}
		return c.submit(ctx, room, func(r *Room) error {
			return r.NavigateRecapRound(c.persistentId, p.RoundIndex)
		})

	case EvGMNavigateRecapTab:
		p, ok := mustUnmarshal[navigateRecapTabPayload](msg.Payload)
		if !ok {
			return c.badPayload()
		}
		return c.submit(ctx, room, func(r *Room) error {
			return r.NavigateRecapTab(c.persistentId, p.TabKey)
		})

	case EvWebrtcReady:
		var others []string
		err := room.Submit(ctx, func(r *Room) error {
			var err error
			others, err = r.Ready(c.connectionId)
			return err
		})
		if err != nil {
			c.sendError(err)
			return err
		}
		c.sendEvent(OutWebrtcReadyPeers, map[string]any{"peers": others})
		return nil

	case EvWebrtcOffer:
		p, ok := mustUnmarshal[signalOfferPayload](msg.Payload)
		if !ok {
			return c.badPayload()
		}
		return c.submit(ctx, room, func(r *Room) error {
			return r.RelayOffer(c.connectionId, SignalOffer{To: p.To, SDP: p.SDP})
		})

	case EvWebrtcAnswer:
		p, ok := mustUnmarshal[signalAnswerPayload](msg.Payload)
		if !ok {
			return c.badPayload()
		}
		return c.submit(ctx, room, func(r *Room) error {
			return r.RelayAnswer(c.connectionId, SignalAnswer{To: p.To, SDP: p.SDP})
		})

	case EvWebrtcIceCandidate:
		p, ok := mustUnmarshal[signalIceCandidatePayload](msg.Payload)
		if !ok {
			return c.badPayload()
		}
		return c.submit(ctx, room, func(r *Room) error {
			return r.RelayIceCandidate(c.connectionId, SignalIceCandidate{To: p.To, Candidate: p.Candidate})
		})

	case EvWebcamStateChange:
		p, ok := mustUnmarshal[mediaStatePayload](msg.Payload)
		if !ok {
			return c.badPayload()
		}
		return c.submit(ctx, room, func(r *Room) error {
			return r.WebcamStateChange(c.connectionId, p.On)
		})

	case EvMicrophoneStateChange:
		p, ok := mustUnmarshal[mediaStatePayload](msg.Payload)
		if !ok {
			return c.badPayload()
		}
		return c.submit(ctx, room, func(r *Room) error {
			return r.MicrophoneStateChange(c.connectionId, p.On)
		})
	}

	return nil
}

// submit runs fn on the room executor and, on error, surfaces a single
// error event to the offending connection without mutating state (§7).
func (c *Client) submit(ctx context.Context, room *Room, fn func(r *Room) error) error {
	if err := room.Submit(ctx, fn); err != nil {
		c.sendError(err)
		return err
	}
	return nil
}

func (c *Client) badPayload() error {
	err := newErr(KindInternal, "malformed payload")
	c.sendError(err)
	return err
}

func (c *Client) handleCreateRoom(ctx context.Context, payload json.RawMessage) error {
	if !c.isGM {
		return c.submit2Err(ErrNotGM)
	}
	p, ok := mustUnmarshal[createRoomPayload](payload)
	if !ok {
		return c.badPayload()
	}

	room, err := c.hub.getOrCreateRoom(ctx, p.Code, c.persistentId, p.IsStreamerMode, p.IsCommunityVotingMode, p.IsPointsMode)
	if err != nil {
		return c.submit2Err(err)
	}
	// A reclaim of an existing room keeps the room's original GM identity;
	// auth.Resolve mints a fresh GM-<uuid> per connection, so without this
	// rebind every GM-gated op would reject the reconnected GM.
	c.persistentId = room.GMPersistentId()
	c.bindRoom(room.Code(), room)
	room.Submit(ctx, func(r *Room) error {
		r.gm.ConnectionId = c.connectionId
		r.gm.IsActive = true
		return nil
	})
	token := c.hub.issueReconnectToken(c.persistentId, room.Code(), auth.RoleGameMaster)
	c.sendEvent(OutRoomCreated, map[string]string{"code": room.Code(), "reconnectToken": token})
	return nil
}

func (c *Client) handleJoinRoom(ctx context.Context, payload json.RawMessage) error {
	p, ok := mustUnmarshal[joinRoomPayload](payload)
	if !ok {
		return c.badPayload()
	}
	room, ok := c.hub.lookupRoom(p.Code)
	if !ok {
		c.sendEvent(OutRoomNotFound, nil)
		return ErrRoomNotFound
	}
	c.bindRoom(p.Code, room)

	err := room.Submit(ctx, func(r *Room) error {
		return r.JoinRoom(c.persistentId, c.connectionId, p.PlayerName, p.IsSpectator, p.Avatar)
	})
	if err != nil {
		c.sendError(err)
		return err
	}
	token := c.hub.issueReconnectToken(c.persistentId, p.Code, auth.RolePlayer)
	c.sendEvent(OutRoomJoined, map[string]string{"code": p.Code, "reconnectToken": token})
	return nil
}

func (c *Client) handleRejoinRoom(ctx context.Context, payload json.RawMessage) error {
	p, ok := mustUnmarshal[rejoinRoomPayload](payload)
	if !ok {
		return c.badPayload()
	}
	room, ok := c.hub.lookupRoom(p.Code)
	if !ok {
		c.sendEvent(OutRoomNotFound, nil)
		return ErrRoomNotFound
	}
	c.bindRoom(p.Code, room)

	if p.IsGameMaster {
		c.isGM = true
		c.persistentId = room.GMPersistentId()
		err := room.Submit(ctx, func(r *Room) error {
			r.HandleGMReconnect(c.connectionId)
			return nil
		})
		if err != nil {
			c.sendError(err)
			return err
		}
		token := c.hub.issueReconnectToken(c.persistentId, p.Code, auth.RoleGameMaster)
		c.sendEvent(OutRoomJoined, map[string]string{"code": p.Code, "reconnectToken": token})
		return nil
	}

	err := room.Submit(ctx, func(r *Room) error {
		return r.JoinRoom(c.persistentId, c.connectionId, c.displayName, false, p.Avatar)
	})
	if err != nil {
		c.sendError(err)
		return err
	}
	token := c.hub.issueReconnectToken(c.persistentId, p.Code, auth.RolePlayer)
	c.sendEvent(OutRoomJoined, map[string]string{"code": p.Code, "reconnectToken": token})
	return nil
}

// submit2Err reports a pre-room-executor error (e.g. authorization failures
// on createRoom that never reach Room.Submit) through the same error path.
func (c *Client) submit2Err(err error) error {
	c.sendError(err)
	return err
}
