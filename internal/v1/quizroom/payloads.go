package quizroom

// Inbound payload shapes (§6.1). Every payload also carries the room `code`
// it targets; the dispatcher reads it before routing to the bound Room.

type createRoomPayload struct {
	Code                  string `json:"code,omitempty"`
	IsStreamerMode        bool   `json:"isStreamerMode,omitempty"`
	IsCommunityVotingMode bool   `json:"isCommunityVotingMode,omitempty"`
	IsPointsMode          bool   `json:"isPointsMode,omitempty"`
}

type joinRoomPayload struct {
	Code        string `json:"code"`
	PlayerName  string `json:"playerName"`
	IsSpectator bool   `json:"isSpectator,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
}

type rejoinRoomPayload struct {
	Code               string `json:"code"`
	IsGameMaster       bool   `json:"isGameMaster,omitempty"`
	PersistentPlayerId string `json:"persistentPlayerId,omitempty"`
	Avatar             string `json:"avatar,omitempty"`
}

type startGamePayload struct {
	Code      string     `json:"code"`
	Questions []Question `json:"questions"`
	TimeLimit *int       `json:"timeLimit"`
}

type submitAnswerPayload struct {
	Code             string `json:"code"`
	Answer           string `json:"answer"`
	HasDrawing       bool   `json:"hasDrawing,omitempty"`
	DrawingData      string `json:"drawingData,omitempty"`
	AnswerAttemptId  string `json:"answerAttemptId,omitempty"`
}

type updateBoardPayload struct {
	Code      string `json:"code"`
	BoardData string `json:"boardData"`
}

type evaluateAnswerPayload struct {
	Code      string `json:"code"`
	PlayerId  string `json:"playerId"`
	IsCorrect bool   `json:"isCorrect"`
}

type codeOnlyPayload struct {
	Code string `json:"code"`
}

type focusSubmissionPayload struct {
	Code     string `json:"code"`
	PlayerId string `json:"playerId"`
}

type kickPlayerPayload struct {
	Code           string `json:"code"`
	PlayerIdToKick string `json:"playerIdToKick"`
}

type toggleCommunityVotingPayload struct {
	Code                  string `json:"code"`
	IsCommunityVotingMode bool   `json:"isCommunityVotingMode"`
}

type submitVotePayload struct {
	Code     string `json:"code"`
	AnswerId string `json:"answerId"`
	Vote     Vote   `json:"vote"`
}

type showAnswerPayload struct {
	Code       string `json:"code"`
	QuestionId string `json:"questionId"`
}

type boardOnlyPayload struct {
	Code      string `json:"code"`
	BoardData string `json:"boardData"`
}

type updateAvatarPayload struct {
	Code               string `json:"code"`
	PersistentPlayerId string `json:"persistentPlayerId"`
	Avatar             string `json:"avatar"`
}

type gmAcceptAnswerPayload struct {
	Code     string `json:"code"`
	AnswerId string `json:"answerId"`
}

type navigateRecapRoundPayload struct {
	Code       string `json:"code"`
	RoundIndex int    `json:"roundIndex"`
}

type navigateRecapTabPayload struct {
	Code   string `json:"code"`
	TabKey string `json:"tabKey"`
}

type signalOfferPayload struct {
	Code string `json:"code"`
	To   string `json:"to"`
	SDP  string `json:"sdp"`
}

type signalAnswerPayload struct {
	Code string `json:"code"`
	To   string `json:"to"`
	SDP  string `json:"sdp"`
}

type signalIceCandidatePayload struct {
	Code      string `json:"code"`
	To        string `json:"to"`
	Candidate string `json:"candidate"`
}

type mediaStatePayload struct {
	Code string `json:"code"`
	On   bool   `json:"on"`
}
