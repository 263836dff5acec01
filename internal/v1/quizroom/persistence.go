package quizroom

import "time"

// RoomSnapshot is the durable projection of a Room written to disk every
// SnapshotInterval (§10): enough to rebuild a playable room after a process
// restart, deliberately excluding anything connection-shaped — timers,
// connection ids, live board snapshots, and in-flight votes are ephemeral
// and do not survive a restart.
type RoomSnapshot struct {
	Code                  string                `json:"code"`
	GMPersistentId        string                `json:"gmPersistentId"`
	Participants          []ParticipantSnapshot `json:"participants"`
	Questions             []Question            `json:"questions"`
	CurrentRoundIndex     int                   `json:"currentRoundIndex"`
	TimeLimitSeconds      *int                  `json:"timeLimit"`
	RoundStartedAt        *time.Time            `json:"roundStartedAt"`
	Started               bool                  `json:"started"`
	IsStreamerMode        bool                  `json:"isStreamerMode"`
	IsCommunityVotingMode bool                  `json:"isCommunityVotingMode"`
	IsPointsMode          bool                  `json:"isPointsMode"`
	IsConcluded           bool                  `json:"isConcluded"`
	SavedAt               time.Time             `json:"savedAt"`
}

// ParticipantSnapshot is the durable projection of one Participant.
type ParticipantSnapshot struct {
	PersistentId      string           `json:"persistentId"`
	DisplayName       string           `json:"displayName"`
	Lives             int              `json:"lives"`
	IsActive          bool             `json:"isActive"`
	IsSpectator       bool             `json:"isSpectator"`
	JoinedAsSpectator bool             `json:"joinedAsSpectator"`
	Score             int              `json:"score"`
	Streak            int              `json:"streak"`
	Answers           map[int]*Answer  `json:"answers,omitempty"`
}

// ExportSnapshot builds this room's durable projection. Must be called from
// inside the room executor (it reads unguarded fields).
func (r *Room) ExportSnapshot() RoomSnapshot {
	participants := make([]ParticipantSnapshot, 0, len(r.participantOrder))
	for _, pid := range r.participantOrder {
		p := r.participants[pid]
		participants = append(participants, ParticipantSnapshot{
			PersistentId:      p.PersistentId,
			DisplayName:       p.DisplayName,
			Lives:             p.Lives,
			IsActive:          p.IsActive,
			IsSpectator:       p.IsSpectator,
			JoinedAsSpectator: p.JoinedAsSpectator,
			Score:             p.Score,
			Streak:            p.Streak,
			Answers:           p.Answers,
		})
	}

	return RoomSnapshot{
		Code:                  r.code,
		GMPersistentId:        r.gmPersistentId,
		Participants:          participants,
		Questions:             r.questions,
		CurrentRoundIndex:     r.currentRoundIndex,
		TimeLimitSeconds:      r.timeLimitSeconds,
		RoundStartedAt:        r.roundStartedAt,
		Started:               r.started,
		IsStreamerMode:        r.isStreamerMode,
		IsCommunityVotingMode: r.isCommunityVotingMode,
		IsPointsMode:          r.isPointsMode,
		IsConcluded:           r.concluded,
		SavedAt:               time.Now(),
	}
}

// RestoreRoom rebuilds a Room from a durable snapshot taken before a process
// restart (§10): every participant is marked inactive and given a fresh
// disconnect deadline, since no live connection yet backs them; the GM's
// connection id stays empty until it reconnects and claims the room.
func RestoreRoom(snap RoomSnapshot, cfg RoomConfig, broadcaster Broadcaster) *Room {
	r := NewRoom(snap.Code, snap.GMPersistentId, snap.IsStreamerMode, snap.IsCommunityVotingMode, snap.IsPointsMode, cfg, broadcaster)

	r.questions = snap.Questions
	r.currentRoundIndex = snap.CurrentRoundIndex
	r.timeLimitSeconds = snap.TimeLimitSeconds
	r.roundStartedAt = snap.RoundStartedAt
	r.started = snap.Started
	r.concluded = snap.IsConcluded
	r.resetRoundState()

	deadline := time.Now().Add(cfg.PlayerDisconnectGrace)
	for _, ps := range snap.Participants {
		p := &Participant{
			PersistentId:       ps.PersistentId,
			DisplayName:        ps.DisplayName,
			Lives:              ps.Lives,
			IsActive:           false,
			IsSpectator:        ps.IsSpectator,
			JoinedAsSpectator:  ps.JoinedAsSpectator,
			Score:              ps.Score,
			Streak:             ps.Streak,
			Answers:            ps.Answers,
			DisconnectDeadline: &deadline,
			JoinedAt:           time.Now(),
		}
		if p.Answers == nil {
			p.Answers = make(map[int]*Answer)
		}
		r.participants[ps.PersistentId] = p
		r.participantOrder = append(r.participantOrder, ps.PersistentId)
	}

	r.gm.IsActive = false
	r.gm.ConnectionId = ""

	return r
}
