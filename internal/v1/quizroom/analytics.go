package quizroom

import "time"

// AnswerEvent is one judged answer, recorded for the analytics sink. The
// room engine never reads this back — it is a write-only side channel for
// later offline analysis.
type AnswerEvent struct {
	RoomCode      string     `json:"roomCode"`
	RoundIndex    int        `json:"roundIndex"`
	PersistentId  string     `json:"persistentId"`
	DisplayName   string     `json:"displayName"`
	Evaluation    Evaluation `json:"evaluation"`
	PointsAwarded int        `json:"pointsAwarded,omitempty"`
	TimeToAnswer  float64    `json:"timeToAnswerSeconds"`
	RecordedAt    time.Time  `json:"recordedAt"`
}

// AnalyticsSink receives a fire-and-forget copy of every judged answer.
// Implementations must not block the room executor; a nil Room.analytics is
// the default no-op.
type AnalyticsSink interface {
	RecordAnswer(AnswerEvent)
}

// SetAnalyticsSink attaches sink to the room; safe to call before Submit is
// ever used (fields are otherwise executor-only, but this one is written once
// by Hub.wireRoom when the room is created or restored).
func (r *Room) SetAnalyticsSink(sink AnalyticsSink) {
	r.analytics = sink
}

func (r *Room) recordAnswerEvent(pid string, correct bool) {
	if r.analytics == nil {
		return
	}
	p, ok := r.participants[pid]
	if !ok {
		return
	}
	ans := r.roundAnswers[pid]
	eval := EvalIncorrect
	points := 0
	elapsed := 0.0
	if correct {
		eval = EvalCorrect
	}
	if ans != nil {
		points = ans.PointsAwarded
		if r.roundStartedAt != nil {
			elapsed = ans.SubmittedAt.Sub(*r.roundStartedAt).Seconds()
		}
	}
	r.analytics.RecordAnswer(AnswerEvent{
		RoomCode:      r.code,
		RoundIndex:    r.currentRoundIndex,
		PersistentId:  pid,
		DisplayName:   p.DisplayName,
		Evaluation:    eval,
		PointsAwarded: points,
		TimeToAnswer:  elapsed,
		RecordedAt:    time.Now(),
	})
}
