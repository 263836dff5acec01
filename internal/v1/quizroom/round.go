package quizroom

import (
	"time"
)

// expectedSubmitters returns the active, non-spectator players who must
// submit before the round auto-advances, plus the GM-as-player entry when
// community voting is on.
func (r *Room) expectedSubmitters() []*Participant {
	var out []*Participant
	for _, pid := range r.participantOrder {
		p := r.participants[pid]
		if p.IsActive && !p.IsSpectator {
			out = append(out, p)
		}
	}
	return out
}

func (r *Room) allExpectedSubmitted() bool {
	for _, p := range r.expectedSubmitters() {
		if _, ok := r.roundAnswers[p.PersistentId]; !ok {
			return false
		}
	}
	return true
}

func (r *Room) currentTimeLimitSeconds() float64 {
	if r.timeLimitSeconds == nil || *r.timeLimitSeconds >= noCountdownSentinel {
		return 0
	}
	return float64(*r.timeLimitSeconds)
}

func (r *Room) currentQuestion() *Question {
	if r.currentRoundIndex < 0 || r.currentRoundIndex >= len(r.questions) {
		return nil
	}
	return &r.questions[r.currentRoundIndex]
}

// handleTimerTick delivers a once-per-second countdown update.
func (r *Room) handleTimerTick(remaining int) {
	r.broadcaster.BroadcastRoom(r.code, Message{
		Event:   OutTimerUpdate,
		Payload: mustMarshal(map[string]any{"timeRemaining": remaining}),
	})
}

// handleTimeUp fires on timer expiry: broadcast time_up, then after the
// finalize grace window, auto-submit for stragglers and enter Preview.
func (r *Room) handleTimeUp() {
	if r.submissionPhaseOver {
		return
	}
	r.broadcaster.BroadcastRoom(r.code, Message{Event: OutTimeUp})
	r.scheduleGrace(func(room *Room) error {
		room.finalizeSubmissionPhase()
		return nil
	})
}

// endRoundEarly cancels the timer, broadcasts time_up immediately, then
// finalizes after the same grace window (§4.3: "same grace window applies").
func (r *Room) endRoundEarly() error {
	if !r.started || r.submissionPhaseOver {
		return newErr(KindInvalidPhase, "round is not active")
	}
	r.timer.cancel()
	r.broadcaster.BroadcastRoom(r.code, Message{Event: OutTimeUp})
	r.scheduleGrace(func(room *Room) error {
		room.finalizeSubmissionPhase()
		return nil
	})
	return nil
}

// finalizeSubmissionPhase auto-submits "-" for every still-missing expected
// participant and transitions AwaitingSubmissions -> Preview.
func (r *Room) finalizeSubmissionPhase() {
	if r.submissionPhaseOver {
		return
	}
	r.timer.cancel()
	r.submissionPhaseOver = true

	for _, p := range r.expectedSubmitters() {
		if _, ok := r.roundAnswers[p.PersistentId]; ok {
			continue
		}
		hasDrawing := false
		if b, ok := r.playerBoards[p.PersistentId]; ok && b.RoundIndex == r.currentRoundIndex {
			hasDrawing = true
		}
		r.roundAnswers[p.PersistentId] = &Answer{
			RoundIndex:   r.currentRoundIndex,
			PersistentId: p.PersistentId,
			DisplayName:  p.DisplayName,
			Text:         "-",
			HasDrawing:   hasDrawing,
			SubmittedAt:  time.Now(),
			Evaluation:   EvalUnevaluated,
			SubmitOrder:  r.nextSubmitOrder(),
		}
	}

	r.recordRoundTransition("preview")
	r.broadcaster.BroadcastRoom(r.code, Message{Event: OutStartPreviewMode})
	r.broadcastGameState()
}

func (r *Room) nextSubmitOrder() int {
	n := r.submitCounter
	r.submitCounter++
	return n
}

// resolveAnswerEvaluation applies a judged verdict to one answer: sets
// Evaluation, awards points mode score when correct, decrements lives and
// eliminates on incorrect. Callers check the end-of-game predicate afterwards.
func (r *Room) resolveAnswerEvaluation(targetPid string, correct bool) {
	if _, already := r.evaluatedAnswers[targetPid]; already && r.evaluatedAnswers[targetPid] == correct {
		return // idempotent re-application per §12: no double life loss
	}
	r.evaluatedAnswers[targetPid] = correct

	p, ok := r.participants[targetPid]
	if !ok {
		return
	}
	ans := r.roundAnswers[targetPid]
	defer r.recordAnswerEvent(targetPid, correct)

	if correct {
		if ans != nil {
			ans.Evaluation = EvalCorrect
		}
		p.Streak++
		if r.isPointsMode {
			q := r.currentQuestion()
			elapsed := 0.0
			if r.roundStartedAt != nil && ans != nil {
				elapsed = ans.SubmittedAt.Sub(*r.roundStartedAt).Seconds()
			}
			grade := 1
			if q != nil {
				grade = q.Grade
			}
			submitOrder := 0
			if ans != nil {
				submitOrder = ans.SubmitOrder
			}
			pts := awardPoints(grade, elapsed, r.currentTimeLimitSeconds(), submitOrder, p.Streak-1)
			p.Score += pts
			p.LastPointsEarned = pts
			if ans != nil {
				ans.PointsAwarded = pts
			}
		}
	} else {
		if ans != nil {
			ans.Evaluation = EvalIncorrect
		}
		p.Streak = 0
		p.Lives--
		if p.Lives <= 0 {
			p.Lives = 0
			p.IsSpectator = true
			r.broadcaster.SendTo(p.ConnectionId, Message{Event: OutBecomeSpectator})
		}
	}
}

// checkEndOfGame applies §4.3.2's predicate and concludes the room if met.
func (r *Room) checkEndOfGame() {
	if !r.started || r.concluded {
		return
	}

	if r.isCommunityVotingMode {
		var active []*Participant
		gmActive := false
		for _, pid := range r.participantOrder {
			p := r.participants[pid]
			if pid == r.gmPersistentId {
				gmActive = p.IsActive && !p.IsSpectator
				continue
			}
			if p.IsActive && !p.IsSpectator {
				active = append(active, p)
			}
		}
		switch {
		case len(active) == 0 && gmActive:
			r.concludeGame(r.gmPersistentId)
		case len(active) == 1 && !gmActive:
			r.concludeGame(active[0].PersistentId)
		case len(active) == 0 && !gmActive:
			r.concludeGame("")
		}
		return
	}

	var active []*Participant
	for _, pid := range r.participantOrder {
		p := r.participants[pid]
		if p.IsActive && !p.IsSpectator {
			active = append(active, p)
		}
	}
	if len(r.participants) > 0 && len(active) <= 1 {
		winner := ""
		if len(active) == 1 {
			winner = active[0].PersistentId
		}
		r.concludeGame(winner)
	}
}

func (r *Room) concludeGame(winnerPersistentId string) {
	if r.concluded {
		return
	}
	r.concluded = true
	r.timer.cancel()
	recap := r.buildRecap(winnerPersistentId)
	r.broadcaster.BroadcastRoom(r.code, Message{Event: OutGameOverPendingRecap})
	r.broadcaster.BroadcastRoom(r.code, Message{Event: OutGameRecap, Payload: mustMarshal(recap)})
	if r.recaps != nil {
		r.recaps.ArchiveRecap(r.code, recap)
	}
}

// advanceToNextRound resets per-round state and either arms the next round
// or concludes when no questions remain.
func (r *Room) advanceToNextRound() {
	r.snapshotRoundIntoRecap()

	if r.currentRoundIndex >= len(r.questions)-1 {
		r.concludeGame(r.soleActivePlayer())
		return
	}

	r.currentRoundIndex++
	r.resetRoundState()
	r.recordRoundTransition("awaiting_submissions")
	now := time.Now()
	r.roundStartedAt = &now
	r.timer.arm(r.timeLimitSeconds)
	r.broadcaster.BroadcastRoom(r.code, Message{Event: OutStopPreviewMode})
	r.broadcaster.BroadcastRoom(r.code, Message{Event: OutNewQuestion, Payload: mustMarshal(r.currentQuestion())})
	r.broadcastGameState()
}

func (r *Room) soleActivePlayer() string {
	var active []*Participant
	for _, pid := range r.participantOrder {
		p := r.participants[pid]
		if p.IsActive && !p.IsSpectator {
			active = append(active, p)
		}
	}
	if len(active) == 1 {
		return active[0].PersistentId
	}
	return ""
}

func (r *Room) resetRoundState() {
	r.submissionPhaseOver = false
	r.roundAnswers = make(map[string]*Answer)
	r.evaluatedAnswers = make(map[string]bool)
	r.gmBoardSnapshot = nil
	r.votes = make(map[string]map[string]Vote)
	r.submitCounter = 0
}

// snapshotRoundIntoRecap archives the just-finished round's submissions, if
// any were made (§4.3.3: "includes only rounds that had at least one answer").
func (r *Room) snapshotRoundIntoRecap() {
	if len(r.roundAnswers) == 0 {
		return
	}
	q := r.currentQuestion()
	if q == nil {
		return
	}

	var subs []RecapSubmission
	for pid, ans := range r.roundAnswers {
		p, ok := r.participants[pid]
		if !ok {
			continue
		}
		drawing := ans.DrawingBlob
		if drawing == "" {
			if b, ok := r.playerBoards[pid]; ok && b.RoundIndex == ans.RoundIndex {
				drawing = b.Blob
			}
		}
		subs = append(subs, RecapSubmission{
			PersistentId: pid,
			DisplayName:  p.DisplayName,
			Text:         ans.Text,
			HasDrawing:   ans.HasDrawing,
			Drawing:      drawing,
			Evaluation:   ans.Evaluation,
			Points:       ans.PointsAwarded,
		})
	}

	r.rounds = append(r.rounds, RoundRecap{
		RoundIndex:  r.currentRoundIndex,
		Question:    *q,
		Submissions: subs,
	})
}

// buildRecap assembles the full post-game summary.
func (r *Room) buildRecap(winnerPersistentId string) Recap {
	return Recap{
		Rounds:                  append([]RoundRecap(nil), r.rounds...),
		WinnerPersistentId:      winnerPersistentId,
		InitialSelectedRoundIdx: 0,
		InitialSelectedTabKey:   "overallResults",
	}
}
