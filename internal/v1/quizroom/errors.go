package quizroom

import "errors"

// Kind classifies an operation error so the dispatcher can render it
// consistently without inspecting message text.
type Kind string

const (
	KindNotFound       Kind = "not_found"
	KindUnauthorized   Kind = "unauthorized"
	KindConflict       Kind = "conflict"
	KindInvalidPhase   Kind = "invalid_phase"
	KindRateOrSizeLimit Kind = "rate_or_size_limit"
	KindInternal       Kind = "internal"
)

// OpError is returned by every Room operation that fails. It is always
// surfaced to the offending connection as a single error event and never
// mutates room state.
type OpError struct {
	Kind    Kind
	Message string
}

func (e *OpError) Error() string { return e.Message }

func newErr(kind Kind, msg string) *OpError {
	return &OpError{Kind: kind, Message: msg}
}

var (
	ErrRoomNotFound          = newErr(KindNotFound, "room not found")
	ErrPlayerNotFound        = newErr(KindNotFound, "player not found")
	ErrNotGM                 = newErr(KindUnauthorized, "caller is not the bound game master")
	ErrSpectatorCannotAct    = newErr(KindUnauthorized, "spectators cannot perform this action")
	ErrInactiveParticipant   = newErr(KindUnauthorized, "participant is not active")
	ErrNameTaken             = newErr(KindConflict, "name already taken")
	ErrAlreadyConnected      = newErr(KindConflict, "already connected from another tab/device")
	ErrNotStarted            = newErr(KindInvalidPhase, "game has not started")
	ErrSubmissionPhaseOver   = newErr(KindInvalidPhase, "submission phase is over")
	ErrNotCommunityMode      = newErr(KindInvalidPhase, "not in community voting mode")
	ErrAlreadyCommunityMode  = newErr(KindInvalidPhase, "community voting mode already set")
	ErrSelfVote              = newErr(KindInvalidPhase, "cannot vote on your own answer")
	ErrAlreadyVoted          = newErr(KindConflict, "already voted on this answer")
	ErrNoMoreQuestions       = newErr(KindInvalidPhase, "no more questions")
	ErrAlreadyConcluded      = newErr(KindConflict, "game already concluded")
	ErrPayloadTooLarge       = newErr(KindRateOrSizeLimit, "payload exceeds 5 MB cap")
	ErrCannotKickSelfOrGM    = newErr(KindUnauthorized, "cannot kick self or the game master")
)

// AsOpError unwraps err into an *OpError if possible, defaulting to Internal.
func AsOpError(err error) *OpError {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr
	}
	return newErr(KindInternal, err.Error())
}
