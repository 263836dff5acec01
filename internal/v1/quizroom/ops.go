package quizroom

import "time"

// JoinRoom adds a new Player or rebinds a reconnecting one.
func (r *Room) JoinRoom(persistentId, connectionId, displayName string, asSpectator bool, avatar string) error {
	if existing, ok := r.participants[persistentId]; ok {
		return r.rebindPlayer(existing, connectionId, avatar)
	}

	lower := lowerASCII(displayName)
	for _, pid := range r.participantOrder {
		other := r.participants[pid]
		if pid != persistentId && lowerASCII(other.DisplayName) == lower {
			return ErrNameTaken
		}
	}

	lives := 3
	if asSpectator {
		lives = 0
	}
	p := &Participant{
		PersistentId:      persistentId,
		ConnectionId:      connectionId,
		DisplayName:       displayName,
		IsActive:          true,
		IsSpectator:       asSpectator,
		JoinedAsSpectator: asSpectator,
		Avatar:            avatar,
		Lives:             lives,
		Answers:           make(map[int]*Answer),
		JoinedAt:          time.Now(),
	}
	r.participants[persistentId] = p
	r.participantOrder = append(r.participantOrder, persistentId)

	r.broadcaster.BroadcastRoom(r.code, Message{Event: OutPlayerJoined, Payload: mustMarshal(p)})
	r.broadcastGameState()
	return nil
}

func (r *Room) rebindPlayer(p *Participant, connectionId, avatar string) error {
	if p.IsActive && p.ConnectionId != "" && p.ConnectionId != connectionId {
		return ErrAlreadyConnected
	}
	p.ConnectionId = connectionId
	p.IsActive = true
	p.DisconnectDeadline = nil
	if avatar != "" && avatar != p.Avatar {
		p.Avatar = avatar
		r.broadcaster.BroadcastRoom(r.code, Message{Event: OutAvatarUpdated, Payload: mustMarshal(map[string]string{"persistentId": p.PersistentId, "avatar": avatar})})
	}
	r.broadcaster.BroadcastRoom(r.code, Message{Event: OutPlayerReconnected, Payload: mustMarshal(map[string]any{"persistentId": p.PersistentId, "isActive": true})})
	r.broadcastGameState()
	return nil
}

// StartGame sets the question set and arms round 0.
func (r *Room) StartGame(callerPersistentId string, questions []Question, timeLimit *int) error {
	if callerPersistentId != r.gmPersistentId {
		return ErrNotGM
	}
	r.questions = questions
	r.started = true
	r.currentRoundIndex = 0
	r.resetRoundState()
	now := time.Now()
	r.roundStartedAt = &now
	r.timeLimitSeconds = timeLimit
	r.timer.arm(timeLimit)

	r.recordRoundTransition("awaiting_submissions")
	r.broadcaster.BroadcastRoom(r.code, Message{Event: OutGameStarted})
	r.broadcastGameState()
	return nil
}

// SubmitAnswer stores an answer for the current round, idempotent on a
// matching attemptId.
func (r *Room) SubmitAnswer(callerPersistentId, text string, hasDrawing bool, drawingBlob, attemptId string) error {
	if !r.started {
		return ErrNotStarted
	}
	if r.submissionPhaseOver {
		return ErrSubmissionPhaseOver
	}
	p, ok := r.participants[callerPersistentId]
	if !ok && (!r.isCommunityVotingMode || callerPersistentId != r.gmPersistentId) {
		return ErrPlayerNotFound
	}
	if ok && (p.IsSpectator || !p.IsActive) {
		return ErrSpectatorCannotAct
	}

	if existing, ok := r.roundAnswers[callerPersistentId]; ok {
		if attemptId != "" && existing.AttemptId == attemptId {
			return nil // idempotent retry
		}
		return newErr(KindConflict, "answer already submitted for this round") // duplicate submission without matching attemptId
	}

	if drawingBlob == "" {
		if b, ok := r.playerBoards[callerPersistentId]; ok && b.RoundIndex == r.currentRoundIndex {
			drawingBlob = b.Blob
			hasDrawing = true
		}
	}

	name := ""
	if p != nil {
		name = p.DisplayName
	}

	r.roundAnswers[callerPersistentId] = &Answer{
		RoundIndex:   r.currentRoundIndex,
		PersistentId: callerPersistentId,
		DisplayName:  name,
		Text:         text,
		HasDrawing:   hasDrawing,
		DrawingBlob:  drawingBlob,
		SubmittedAt:  time.Now(),
		AttemptId:    attemptId,
		Evaluation:   EvalUnevaluated,
		SubmitOrder:  r.nextSubmitOrder(),
	}

	r.broadcaster.BroadcastRoom(r.code, Message{Event: OutAnswerReceived, Payload: mustMarshal(map[string]string{"persistentId": callerPersistentId})})

	if r.allExpectedSubmitted() {
		r.finalizeSubmissionPhase()
	} else {
		r.broadcastGameState()
	}
	return nil
}

// UpdateBoard replaces a player's live drawing buffer.
func (r *Room) UpdateBoard(callerPersistentId, drawingBlob string) error {
	p, ok := r.participants[callerPersistentId]
	if !ok || p.IsSpectator || !p.IsActive {
		return ErrSpectatorCannotAct
	}
	if r.submissionPhaseOver {
		return ErrSubmissionPhaseOver
	}
	r.playerBoards[callerPersistentId] = &BoardSnapshot{
		Blob:       drawingBlob,
		RoundIndex: r.currentRoundIndex,
		UpdatedAt:  time.Now(),
	}
	r.broadcaster.BroadcastRoom(r.code, Message{Event: OutBoardUpdate, Payload: mustMarshal(map[string]string{"persistentId": callerPersistentId})})
	return nil
}

// EvaluateAnswer is the GM-direct judging path (non-community mode only).
func (r *Room) EvaluateAnswer(callerPersistentId, targetPid string, correct bool) error {
	if callerPersistentId != r.gmPersistentId {
		return ErrNotGM
	}
	if r.isCommunityVotingMode {
		return ErrNotCommunityMode
	}
	if _, ok := r.participants[targetPid]; !ok {
		return ErrPlayerNotFound
	}
	r.resolveAnswerEvaluation(targetPid, correct)
	r.checkEndOfGame()
	r.broadcastGameState()
	return nil
}

// SubmitVote records one voter's verdict on another answer in community
// mode, finalizing the round once every possible vote is in.
func (r *Room) SubmitVote(voterPid, answerAuthorPid string, vote Vote) error {
	if !r.isCommunityVotingMode {
		return ErrNotCommunityMode
	}
	if voterPid == answerAuthorPid {
		return ErrSelfVote
	}
	voter, ok := r.participants[voterPid]
	if !ok || !voter.IsActive || voter.IsSpectator {
		return ErrSpectatorCannotAct
	}
	if _, ok := r.roundAnswers[answerAuthorPid]; !ok {
		return ErrPlayerNotFound
	}

	if r.votes[answerAuthorPid] == nil {
		r.votes[answerAuthorPid] = make(map[string]Vote)
	}
	if _, already := r.votes[answerAuthorPid][voterPid]; already {
		return ErrAlreadyVoted
	}
	r.votes[answerAuthorPid][voterPid] = vote

	r.broadcaster.BroadcastRoom(r.code, Message{Event: OutAnswerVoted, Payload: mustMarshal(map[string]string{"answerAuthorPersistentId": answerAuthorPid, "voterPersistentId": voterPid})})

	if r.allVotesCast() {
		r.finalizeVoting()
	} else {
		r.broadcastGameState()
	}
	return nil
}

// allVotesCast implements §4.3.1's "for every submitted answer, the number
// of recorded votes equals the number of eligible voters minus one".
func (r *Room) allVotesCast() bool {
	eligible := r.expectedSubmitters()
	for authorPid := range r.roundAnswers {
		need := 0
		for _, v := range eligible {
			if v.PersistentId != authorPid {
				need++
			}
		}
		if len(r.votes[authorPid]) < need {
			return false
		}
	}
	return true
}

// finalizeVoting resolves every answer by majority (tie -> incorrect, 0/0 ->
// correct), applies life loss, checks end-of-game, and auto-advances.
func (r *Room) finalizeVoting() {
	for authorPid := range r.roundAnswers {
		correctVotes, incorrectVotes := 0, 0
		for _, v := range r.votes[authorPid] {
			if v == VoteCorrect {
				correctVotes++
			} else {
				incorrectVotes++
			}
		}
		verdict := correctVotes > incorrectVotes
		if correctVotes == 0 && incorrectVotes == 0 {
			verdict = true
		} else if correctVotes == incorrectVotes {
			verdict = false
		}
		r.resolveAnswerEvaluation(authorPid, verdict)
	}

	r.recordRoundTransition("resolved")
	r.checkEndOfGame()
	if !r.concluded {
		r.advanceToNextRound()
	}
}

// ForceEndVoting lets the GM short-circuit community voting to the same
// finalization as the auto-trigger.
func (r *Room) ForceEndVoting(callerPersistentId string) error {
	if callerPersistentId != r.gmPersistentId {
		return ErrNotGM
	}
	if !r.isCommunityVotingMode {
		return ErrNotCommunityMode
	}
	r.finalizeVoting()
	return nil
}

// GMAcceptCommunityAnswer lets the GM short-circuit evaluation for one
// answer directly to correct, without waiting for the vote quorum (§12).
func (r *Room) GMAcceptCommunityAnswer(callerPersistentId, answerAuthorPid string) error {
	if callerPersistentId != r.gmPersistentId {
		return ErrNotGM
	}
	if !r.isCommunityVotingMode {
		return ErrNotCommunityMode
	}
	if _, ok := r.roundAnswers[answerAuthorPid]; !ok {
		return ErrPlayerNotFound
	}
	r.resolveAnswerEvaluation(answerAuthorPid, true)
	r.broadcaster.BroadcastRoom(r.code, Message{Event: OutGMCommunityAnswerAccepted, Payload: mustMarshal(map[string]string{"persistentId": answerAuthorPid})})
	r.checkEndOfGame()
	if !r.concluded && r.allVotesCast() {
		r.finalizeVoting()
	} else {
		r.broadcastGameState()
	}
	return nil
}

// ShowAnswer broadcasts the correct answer text (community mode only).
func (r *Room) ShowAnswer(callerPersistentId, questionId string) error {
	if callerPersistentId != r.gmPersistentId {
		return ErrNotGM
	}
	if !r.isCommunityVotingMode {
		return ErrNotCommunityMode
	}
	for _, q := range r.questions {
		if q.ID == questionId {
			r.broadcaster.BroadcastRoom(r.code, Message{Event: OutCorrectAnswerRevealed, Payload: mustMarshal(q)})
			return nil
		}
	}
	return newErr(KindNotFound, "question not found")
}

// NextQuestion is the GM's explicit manual advance for direct-evaluation
// mode (community mode auto-advances on vote finalization instead).
func (r *Room) NextQuestion(callerPersistentId string) error {
	if callerPersistentId != r.gmPersistentId {
		return ErrNotGM
	}
	if r.currentRoundIndex >= len(r.questions)-1 {
		return ErrNoMoreQuestions
	}
	r.advanceToNextRound()
	return nil
}

// EndRoundEarly is the public entrypoint wrapping round.go's implementation.
func (r *Room) EndRoundEarly(callerPersistentId string) error {
	if callerPersistentId != r.gmPersistentId {
		return ErrNotGM
	}
	return r.endRoundEarly()
}

// RestartGame clears started/round state; spectators-by-choice stay
// spectators, everyone else gets full lives back.
func (r *Room) RestartGame(callerPersistentId string) error {
	if callerPersistentId != r.gmPersistentId {
		return ErrNotGM
	}
	r.timer.cancel()
	r.started = false
	r.concluded = false
	r.currentRoundIndex = 0
	r.questions = nil
	r.rounds = nil
	r.resetRoundState()
	r.roundStartedAt = nil
	r.timeLimitSeconds = nil

	for _, pid := range r.participantOrder {
		p := r.participants[pid]
		if p.JoinedAsSpectator {
			p.IsSpectator = true
			p.Lives = 0
		} else {
			p.IsSpectator = false
			p.Lives = 3
		}
		p.Score = 0
		p.Streak = 0
	}

	r.broadcaster.BroadcastRoom(r.code, Message{Event: OutGameRestarted})
	r.broadcastGameState()
	return nil
}

// EndGame lets the GM conclude the room directly.
func (r *Room) EndGame(callerPersistentId string) error {
	if callerPersistentId != r.gmPersistentId {
		return ErrNotGM
	}
	if r.concluded {
		return ErrAlreadyConcluded
	}
	r.concludeGame(r.soleActivePlayer())
	return nil
}

// KickPlayer removes a participant and all their per-round state.
func (r *Room) KickPlayer(callerPersistentId, targetPid string) error {
	if callerPersistentId != r.gmPersistentId {
		return ErrNotGM
	}
	if targetPid == callerPersistentId || targetPid == r.gmPersistentId {
		return ErrCannotKickSelfOrGM
	}
	p, ok := r.participants[targetPid]
	if !ok {
		return ErrPlayerNotFound
	}

	r.broadcaster.SendTo(p.ConnectionId, Message{Event: OutKickedFromRoom})
	r.removeParticipant(targetPid)
	r.broadcastGameState()
	return nil
}

func (r *Room) removeParticipant(pid string) {
	delete(r.participants, pid)
	delete(r.roundAnswers, pid)
	delete(r.evaluatedAnswers, pid)
	delete(r.playerBoards, pid)
	delete(r.votes, pid)
	for author, voters := range r.votes {
		delete(voters, pid)
		if len(voters) == 0 {
			delete(r.votes, author)
		}
	}
	for i, id := range r.participantOrder {
		if id == pid {
			r.participantOrder = append(r.participantOrder[:i], r.participantOrder[i+1:]...)
			break
		}
	}
}

// ToggleCommunityVoting flips the community-voting flag; turning it on adds
// a synthetic GM-as-player entry, turning it off removes it.
func (r *Room) ToggleCommunityVoting(callerPersistentId string, on bool) error {
	if callerPersistentId != r.gmPersistentId {
		return ErrNotGM
	}
	if r.started && r.isCommunityVotingMode != on {
		return newErr(KindInvalidPhase, "cannot change voting mode after the game has started")
	}
	if r.isCommunityVotingMode == on {
		return ErrAlreadyCommunityMode
	}

	r.isCommunityVotingMode = on
	if on {
		r.participants[r.gmPersistentId] = &Participant{
			PersistentId: r.gmPersistentId,
			ConnectionId: r.gm.ConnectionId,
			DisplayName:  "GameMaster (Playing)",
			IsActive:     true,
			Lives:        3,
			Answers:      make(map[int]*Answer),
			JoinedAt:     time.Now(),
		}
		r.participantOrder = append(r.participantOrder, r.gmPersistentId)
	} else {
		r.removeParticipant(r.gmPersistentId)
	}

	r.broadcaster.BroadcastRoom(r.code, Message{Event: OutCommunityVotingStatus, Payload: mustMarshal(map[string]bool{"isCommunityVotingMode": on})})
	r.broadcastGameState()
	return nil
}

// UpdateAvatar updates and broadcasts a participant's avatar.
func (r *Room) UpdateAvatar(targetPid, avatar string) error {
	p, ok := r.participants[targetPid]
	if !ok {
		return ErrPlayerNotFound
	}
	if p.Avatar == avatar {
		return nil
	}
	p.Avatar = avatar
	r.broadcaster.BroadcastRoom(r.code, Message{Event: OutAvatarUpdated, Payload: mustMarshal(map[string]string{"persistentId": targetPid, "avatar": avatar})})
	return nil
}

// FocusSubmission re-broadcasts which player's submission the GM is
// highlighting for shared review during preview (§12); purely a relay.
func (r *Room) FocusSubmission(callerPersistentId, targetPid string) error {
	if callerPersistentId != r.gmPersistentId {
		return ErrNotGM
	}
	r.broadcaster.BroadcastRoom(r.code, Message{Event: OutFocusSubmission, Payload: mustMarshal(map[string]string{"playerId": targetPid})})
	return nil
}

// NavigateRecapRound / NavigateRecapTab let the GM drive every client's
// recap view in lockstep during shared review (§12).
func (r *Room) NavigateRecapRound(callerPersistentId string, roundIndex int) error {
	if callerPersistentId != r.gmPersistentId {
		return ErrNotGM
	}
	r.broadcaster.BroadcastRoom(r.code, Message{Event: OutRecapRoundChanged, Payload: mustMarshal(map[string]int{"roundIndex": roundIndex})})
	return nil
}

func (r *Room) NavigateRecapTab(callerPersistentId, tabKey string) error {
	if callerPersistentId != r.gmPersistentId {
		return ErrNotGM
	}
	r.broadcaster.BroadcastRoom(r.code, Message{Event: OutRecapTabChanged, Payload: mustMarshal(map[string]string{"tabKey": tabKey})})
	return nil
}

// UpdateGMBoard / ClearGMBoard manage the GM's own drawing buffer, used in
// community mode when the GM is a playing participant.
func (r *Room) UpdateGMBoard(callerPersistentId, drawingBlob string) error {
	if callerPersistentId != r.gmPersistentId {
		return ErrNotGM
	}
	r.gmBoardSnapshot = &BoardSnapshot{Blob: drawingBlob, RoundIndex: r.currentRoundIndex, UpdatedAt: time.Now()}
	r.broadcaster.BroadcastRoom(r.code, Message{Event: OutBoardUpdate, Payload: mustMarshal(map[string]string{"persistentId": callerPersistentId})})
	return nil
}

func (r *Room) ClearGMBoard(callerPersistentId string) error {
	if callerPersistentId != r.gmPersistentId {
		return ErrNotGM
	}
	r.gmBoardSnapshot = nil
	r.broadcastGameState()
	return nil
}

// HandlePlayerDisconnect marks a player inactive and arms their removal
// deadline (§5).
func (r *Room) HandlePlayerDisconnect(pid string) {
	p, ok := r.participants[pid]
	if !ok || !p.IsActive {
		return
	}
	p.IsActive = false
	deadline := time.Now().Add(r.grace.playerDisconnect)
	p.DisconnectDeadline = &deadline

	r.broadcaster.BroadcastRoom(r.code, Message{Event: OutPlayerDisconnected, Payload: mustMarshal(map[string]any{"persistentId": pid, "isActive": false, "temporary": true})})

	time.AfterFunc(r.grace.playerDisconnect, func() {
		r.enqueueInternal(func(room *Room) error {
			room.expirePlayerIfStillInactive(pid)
			return nil
		})
	})
}

func (r *Room) expirePlayerIfStillInactive(pid string) {
	p, ok := r.participants[pid]
	if !ok || p.IsActive {
		return
	}
	r.removeParticipant(pid)
	r.broadcaster.BroadcastRoom(r.code, Message{Event: OutPlayerRemovedTimeout, Payload: mustMarshal(map[string]string{"persistentId": pid})})
	r.broadcastGameState()
}

// HandlePlayerGracefulLeave removes a player immediately (client namespace
// disconnect, as opposed to an abrupt transport drop).
func (r *Room) HandlePlayerGracefulLeave(pid string) {
	if _, ok := r.participants[pid]; !ok {
		return
	}
	r.removeParticipant(pid)
	r.broadcaster.BroadcastRoom(r.code, Message{Event: OutPlayerLeftGracefully, Payload: mustMarshal(map[string]string{"persistentId": pid})})
	r.broadcastGameState()
}

// HandleGMDisconnect arms the GM grace deadline; expiry concludes the room.
// The actual eviction (registry removal) is driven by the stale sweeper
// reading GMDisconnectedSince, per §4.2's "safety net over the 2-minute
// grace" — this schedules the room's own earlier conclusion broadcast.
func (r *Room) HandleGMDisconnect() {
	r.gm.IsActive = false
	r.setGMDisconnected(true)
	r.broadcaster.BroadcastRoom(r.code, Message{Event: OutGMDisconnectedStatus, Payload: mustMarshal(map[string]bool{"disconnected": true})})

	time.AfterFunc(r.grace.gmDisconnect, func() {
		r.enqueueInternal(func(room *Room) error {
			room.concludeIfGMStillDisconnected()
			return nil
		})
	})
}

func (r *Room) concludeIfGMStillDisconnected() {
	if r.gm.IsActive || r.concluded {
		return
	}
	r.concluded = true
	r.timer.cancel()
	r.broadcaster.BroadcastRoom(r.code, Message{Event: OutRoomNotFound})
}

// HandleGMReconnect cancels the pending GM grace deadline.
func (r *Room) HandleGMReconnect(connectionId string) {
	r.gm.IsActive = true
	r.gm.ConnectionId = connectionId
	r.setGMDisconnected(false)
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
