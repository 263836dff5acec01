package quizroom

import "time"

// Question is an opaque record supplied by the GM at startGame; the server
// never interprets its contents beyond the fields it needs for scoring.
type Question struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Type     string `json:"type"` // "text" | "drawing"
	Answer   string `json:"answer,omitempty"`
	Grade    int    `json:"grade,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Language string `json:"language,omitempty"`
}

// Evaluation is the judged state of an Answer.
type Evaluation string

const (
	EvalUnevaluated Evaluation = "unevaluated"
	EvalCorrect     Evaluation = "correct"
	EvalIncorrect   Evaluation = "incorrect"
)

// Answer is immutable except for Evaluation and PointsAwarded.
type Answer struct {
	RoundIndex    int        `json:"roundIndex"`
	PersistentId  string     `json:"persistentId"`
	DisplayName   string     `json:"displayName"`
	Text          string     `json:"text"`
	HasDrawing    bool       `json:"hasDrawing"`
	DrawingBlob   string     `json:"drawingBlob,omitempty"`
	SubmittedAt   time.Time  `json:"submittedAt"`
	AttemptId     string     `json:"attemptId,omitempty"`
	Evaluation    Evaluation `json:"evaluation"`
	PointsAwarded int        `json:"pointsAwarded,omitempty"`
	SubmitOrder   int        `json:"submitOrder"`
}

// BoardSnapshot is a player's live drawing buffer, superseded on each update.
type BoardSnapshot struct {
	Blob       string    `json:"blob"`
	RoundIndex int       `json:"roundIndex"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Vote is one voter's verdict on another participant's answer.
type Vote string

const (
	VoteCorrect   Vote = "correct"
	VoteIncorrect Vote = "incorrect"
)

// Participant is the shared shape for both GM and Player records.
type Participant struct {
	PersistentId       string     `json:"persistentId"`
	ConnectionId       string     `json:"connectionId,omitempty"`
	DisplayName        string     `json:"displayName"`
	IsActive           bool       `json:"isActive"`
	IsSpectator        bool       `json:"isSpectator"`
	JoinedAsSpectator  bool       `json:"joinedAsSpectator"`
	Avatar             string     `json:"avatar,omitempty"`
	DisconnectDeadline *time.Time `json:"disconnectDeadline,omitempty"`
	JoinedAt           time.Time  `json:"joinedAt"`

	// Player-only fields; zero-valued and ignored for the GM record.
	Lives               int              `json:"lives"`
	Answers             map[int]*Answer  `json:"answers,omitempty"`
	Score               int              `json:"score"`
	Streak              int              `json:"streak"`
	LastPointsEarned    int              `json:"lastPointsEarned"`
	LastAnswerTimestamp time.Time        `json:"lastAnswerTimestamp,omitempty"`
}

// RoundRecap is one round's entry in the post-game recap.
type RoundRecap struct {
	RoundIndex  int               `json:"roundIndex"`
	Question    Question          `json:"question"`
	Submissions []RecapSubmission `json:"submissions"`
}

// RecapSubmission is one player's judged submission within a RoundRecap.
type RecapSubmission struct {
	PersistentId string     `json:"persistentId"`
	DisplayName  string     `json:"displayName"`
	Text         string     `json:"text"`
	HasDrawing   bool       `json:"hasDrawing"`
	Drawing      string     `json:"drawing,omitempty"`
	Evaluation   Evaluation `json:"evaluation"`
	Points       int        `json:"points"`
}

// Recap is the full post-game summary broadcast when the game concludes.
type Recap struct {
	Rounds                  []RoundRecap `json:"rounds"`
	WinnerPersistentId       string       `json:"winnerPersistentId,omitempty"`
	InitialSelectedRoundIdx  int          `json:"initialSelectedRoundIndex"`
	InitialSelectedTabKey    string       `json:"initialSelectedTabKey"`
}

// pointsPositionBonus is the fixed position-bonus table from §4.3.4, indexed
// by 0-based submission order; submissions beyond the table earn zero bonus.
var pointsPositionBonus = []int{300, 200, 100, 50, 25}

// pointsStreakMultiplier is the fixed streak multiplier table, saturating at
// the last entry for any streak at or beyond its length.
var pointsStreakMultiplier = []float64{1.0, 1.2, 1.5, 2.0, 2.5, 3.0}
