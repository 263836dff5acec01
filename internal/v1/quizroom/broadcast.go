package quizroom

import "sort"

// GameStateUpdate is the one consolidated snapshot sent on every state
// change (§4.4: "never ships partial diffs").
type GameStateUpdate struct {
	Started               bool                      `json:"started"`
	CurrentQuestion       *Question                 `json:"currentQuestion"`
	CurrentQuestionIndex  int                       `json:"currentQuestionIndex"`
	TimeLimit             *int                      `json:"timeLimit"`
	QuestionStartTime     *int64                    `json:"questionStartTime"`
	Players               []PlayerView              `json:"players"`
	RoundAnswers          map[string]*Answer        `json:"roundAnswers"`
	EvaluatedAnswers      map[string]bool           `json:"evaluatedAnswers"`
	SubmissionPhaseOver   bool                      `json:"submissionPhaseOver"`
	IsConcluded           bool                      `json:"isConcluded"`
	PlayerBoards          map[string]*BoardSnapshot `json:"playerBoards"`
	IsCommunityVotingMode bool                      `json:"isCommunityVotingMode"`
	IsPointsMode          bool                      `json:"isPointsMode"`
	GameMasterBoardData   *BoardSnapshot            `json:"gameMasterBoardData"`
	CurrentVotes          map[string]map[string]Vote `json:"currentVotes"`
}

// PlayerView is the client-facing projection of a Participant.
type PlayerView struct {
	PersistentId      string `json:"persistentId"`
	DisplayName       string `json:"displayName"`
	IsActive          bool   `json:"isActive"`
	IsSpectator       bool   `json:"isSpectator"`
	JoinedAsSpectator bool   `json:"joinedAsSpectator"`
	Avatar            string `json:"avatar,omitempty"`
	Lives             int    `json:"lives"`
	Score             int    `json:"score"`
	Streak            int    `json:"streak"`
	LastPointsEarned  int    `json:"lastPointsEarned"`
}

// playersForView returns participants sorted active-non-spectator first,
// then by lives descending, then by stable persistentId (§4.3.3's recap
// ordering, reused for the live snapshot too).
func (r *Room) playersForView() []PlayerView {
	ids := make([]string, 0, len(r.participants))
	for id := range r.participants {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := r.participants[ids[i]], r.participants[ids[j]]
		aActive := a.IsActive && !a.IsSpectator
		bActive := b.IsActive && !b.IsSpectator
		if aActive != bActive {
			return aActive
		}
		if a.Lives != b.Lives {
			return a.Lives > b.Lives
		}
		return a.PersistentId < b.PersistentId
	})

	out := make([]PlayerView, 0, len(ids))
	for _, id := range ids {
		p := r.participants[id]
		out = append(out, PlayerView{
			PersistentId:      p.PersistentId,
			DisplayName:       p.DisplayName,
			IsActive:          p.IsActive,
			IsSpectator:       p.IsSpectator,
			JoinedAsSpectator: p.JoinedAsSpectator,
			Avatar:            p.Avatar,
			Lives:             p.Lives,
			Score:             p.Score,
			Streak:            p.Streak,
			LastPointsEarned:  p.LastPointsEarned,
		})
	}
	return out
}

// snapshot builds the pure-function-of-state GameStateUpdate (§8: "is a
// pure function of Room state at emission time").
func (r *Room) snapshot() GameStateUpdate {
	var questionStartTime *int64
	if r.roundStartedAt != nil {
		ms := r.roundStartedAt.UnixMilli()
		questionStartTime = &ms
	}

	return GameStateUpdate{
		Started:               r.started,
		CurrentQuestion:       r.currentQuestion(),
		CurrentQuestionIndex:  r.currentRoundIndex,
		TimeLimit:             r.timeLimitSeconds,
		QuestionStartTime:     questionStartTime,
		Players:               r.playersForView(),
		RoundAnswers:          r.roundAnswers,
		EvaluatedAnswers:      r.evaluatedAnswers,
		SubmissionPhaseOver:   r.submissionPhaseOver,
		IsConcluded:           r.concluded,
		PlayerBoards:          r.playerBoards,
		IsCommunityVotingMode: r.isCommunityVotingMode,
		IsPointsMode:          r.isPointsMode,
		GameMasterBoardData:   r.gmBoardSnapshot,
		CurrentVotes:          r.votes,
	}
}

// Players returns the client-facing player projection, for HTTP mirror
// callers that need the roster without a socket (§13).
func (r *Room) Players() []PlayerView {
	return r.playersForView()
}

func (r *Room) broadcastGameState() {
	r.broadcaster.BroadcastRoom(r.code, Message{
		Event:   OutGameStateUpdate,
		Payload: mustMarshal(r.snapshot()),
	})
}
