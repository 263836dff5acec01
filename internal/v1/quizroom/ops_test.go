package quizroom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQuestions() []Question {
	return []Question{
		{ID: "q1", Text: "2+2?", Type: "text", Grade: 2},
		{ID: "q2", Text: "draw a cat", Type: "drawing", Grade: 1},
	}
}

func TestJoinRoom_AddsPlayerAndBroadcasts(t *testing.T) {
	b := newRecordingBroadcaster()
	r := newTestRoom(b, false, false)

	err := r.JoinRoom("P-1", "conn-1", "Alice", false, "")
	require.NoError(t, err)

	assert.Contains(t, r.participants, "P-1")
	assert.Equal(t, 3, r.participants["P-1"].Lives)
	assert.Contains(t, b.events(), OutPlayerJoined)
	assert.Contains(t, b.events(), OutGameStateUpdate)
}

func TestJoinRoom_RejectsDuplicateDisplayName(t *testing.T) {
	b := newRecordingBroadcaster()
	r := newTestRoom(b, false, false)
	require.NoError(t, r.JoinRoom("P-1", "conn-1", "Alice", false, ""))

	err := r.JoinRoom("P-2", "conn-2", "alice", false, "")
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestJoinRoom_RebindsReconnectingPlayer(t *testing.T) {
	b := newRecordingBroadcaster()
	r := newTestRoom(b, false, false)
	require.NoError(t, r.JoinRoom("P-1", "conn-1", "Alice", false, ""))
	r.participants["P-1"].IsActive = false
	r.participants["P-1"].ConnectionId = ""

	err := r.JoinRoom("P-1", "conn-2", "Alice", false, "")
	require.NoError(t, err)
	assert.True(t, r.participants["P-1"].IsActive)
	assert.Equal(t, "conn-2", r.participants["P-1"].ConnectionId)
}

func TestStartGame_RequiresGM(t *testing.T) {
	b := newRecordingBroadcaster()
	r := newTestRoom(b, false, false)

	err := r.StartGame("P-1", sampleQuestions(), nil)
	assert.ErrorIs(t, err, ErrNotGM)
}

func TestStartGame_ArmsFirstRound(t *testing.T) {
	b := newRecordingBroadcaster()
	r := newTestRoom(b, false, false)

	err := r.StartGame("GM-1", sampleQuestions(), nil)
	require.NoError(t, err)
	assert.True(t, r.started)
	assert.Equal(t, 0, r.currentRoundIndex)
	assert.Contains(t, b.events(), OutGameStarted)
}

func TestSubmitAnswer_AutoAdvancesToPreviewWhenAllIn(t *testing.T) {
	b := newRecordingBroadcaster()
	r := newTestRoom(b, false, false)
	require.NoError(t, r.JoinRoom("P-1", "conn-1", "Alice", false, ""))
	require.NoError(t, r.StartGame("GM-1", sampleQuestions(), nil))

	err := r.SubmitAnswer("P-1", "4", false, "", "attempt-1")
	require.NoError(t, err)

	assert.True(t, r.submissionPhaseOver)
	assert.Contains(t, b.events(), OutStartPreviewMode)
}

func TestSubmitAnswer_IdempotentOnRetryAttemptId(t *testing.T) {
	b := newRecordingBroadcaster()
	r := newTestRoom(b, false, false)
	require.NoError(t, r.JoinRoom("P-1", "conn-1", "Alice", false, ""))
	require.NoError(t, r.JoinRoom("P-2", "conn-2", "Bob", false, ""))
	require.NoError(t, r.StartGame("GM-1", sampleQuestions(), nil))

	require.NoError(t, r.SubmitAnswer("P-1", "4", false, "", "attempt-1"))
	err := r.SubmitAnswer("P-1", "4", false, "", "attempt-1")
	assert.NoError(t, err)
}

func TestSubmitAnswer_RejectsSpectator(t *testing.T) {
	b := newRecordingBroadcaster()
	r := newTestRoom(b, false, false)
	require.NoError(t, r.JoinRoom("P-1", "conn-1", "Alice", true, ""))
	require.NoError(t, r.StartGame("GM-1", sampleQuestions(), nil))

	err := r.SubmitAnswer("P-1", "4", false, "", "")
	assert.ErrorIs(t, err, ErrSpectatorCannotAct)
}

func TestEvaluateAnswer_DirectMode_AppliesLifeLossAndDoesNotAutoAdvance(t *testing.T) {
	b := newRecordingBroadcaster()
	r := newTestRoom(b, false, false)
	require.NoError(t, r.JoinRoom("P-1", "conn-1", "Alice", false, ""))
	require.NoError(t, r.StartGame("GM-1", sampleQuestions(), nil))
	require.NoError(t, r.SubmitAnswer("P-1", "wrong", false, "", ""))

	err := r.EvaluateAnswer("GM-1", "P-1", false)
	require.NoError(t, err)

	assert.Equal(t, 2, r.participants["P-1"].Lives)
	assert.Equal(t, 0, r.currentRoundIndex, "direct-evaluation mode requires explicit nextQuestion")
}

func TestEvaluateAnswer_RejectsInCommunityMode(t *testing.T) {
	b := newRecordingBroadcaster()
	r := newTestRoom(b, false, false)
	require.NoError(t, r.ToggleCommunityVoting("GM-1", true))
	require.NoError(t, r.StartGame("GM-1", sampleQuestions(), nil))

	err := r.EvaluateAnswer("GM-1", "GM-1", true)
	assert.ErrorIs(t, err, ErrNotCommunityMode)
}

func TestNextQuestion_AdvancesRoundInDirectMode(t *testing.T) {
	b := newRecordingBroadcaster()
	r := newTestRoom(b, false, false)
	require.NoError(t, r.JoinRoom("P-1", "conn-1", "Alice", false, ""))
	require.NoError(t, r.StartGame("GM-1", sampleQuestions(), nil))
	require.NoError(t, r.SubmitAnswer("P-1", "4", false, "", ""))
	require.NoError(t, r.EvaluateAnswer("GM-1", "P-1", true))

	err := r.NextQuestion("GM-1")
	require.NoError(t, err)
	assert.Equal(t, 1, r.currentRoundIndex)
}

func TestNextQuestion_RejectsWhenNoMoreQuestions(t *testing.T) {
	b := newRecordingBroadcaster()
	r := newTestRoom(b, false, false)
	require.NoError(t, r.JoinRoom("P-1", "conn-1", "Alice", false, ""))
	require.NoError(t, r.StartGame("GM-1", []Question{{ID: "q1", Grade: 1}}, nil))
	require.NoError(t, r.SubmitAnswer("P-1", "4", false, "", ""))

	err := r.NextQuestion("GM-1")
	assert.ErrorIs(t, err, ErrNoMoreQuestions)
}

func TestSubmitVote_SelfVoteRejected(t *testing.T) {
	b := newRecordingBroadcaster()
	r := newTestRoom(b, false, false)
	require.NoError(t, r.ToggleCommunityVoting("GM-1", true))
	require.NoError(t, r.JoinRoom("P-1", "conn-1", "Alice", false, ""))
	require.NoError(t, r.StartGame("GM-1", sampleQuestions(), nil))
	require.NoError(t, r.SubmitAnswer("P-1", "4", false, "", ""))

	err := r.SubmitVote("P-1", "P-1", VoteCorrect)
	assert.ErrorIs(t, err, ErrSelfVote)
}

func TestSubmitVote_FinalizesAndAdvancesWhenAllVotesCast(t *testing.T) {
	b := newRecordingBroadcaster()
	r := newTestRoom(b, false, false)
	require.NoError(t, r.ToggleCommunityVoting("GM-1", true))
	require.NoError(t, r.JoinRoom("P-1", "conn-1", "Alice", false, ""))
	require.NoError(t, r.JoinRoom("P-2", "conn-2", "Bob", false, ""))
	require.NoError(t, r.StartGame("GM-1", sampleQuestions(), nil))

	// GM is a playing participant in community mode; everyone must submit.
	require.NoError(t, r.SubmitAnswer("GM-1", "4", false, "", ""))
	require.NoError(t, r.SubmitAnswer("P-1", "4", false, "", ""))
	require.NoError(t, r.SubmitAnswer("P-2", "4", false, "", ""))

	// Two voters per answer (everyone except the author).
	require.NoError(t, r.SubmitVote("P-1", "GM-1", VoteCorrect))
	require.NoError(t, r.SubmitVote("P-2", "GM-1", VoteCorrect))
	require.NoError(t, r.SubmitVote("GM-1", "P-1", VoteCorrect))
	require.NoError(t, r.SubmitVote("P-2", "P-1", VoteCorrect))
	require.NoError(t, r.SubmitVote("GM-1", "P-2", VoteIncorrect))
	err := r.SubmitVote("P-1", "P-2", VoteIncorrect)
	require.NoError(t, err)

	assert.Equal(t, 1, r.currentRoundIndex, "community mode auto-advances once voting resolves")
	assert.Equal(t, 2, r.participants["P-2"].Lives, "tie/majority-incorrect costs a life")
}

func TestSubmitVote_TieResolvesIncorrect(t *testing.T) {
	b := newRecordingBroadcaster()
	r := newTestRoom(b, false, false)
	require.NoError(t, r.ToggleCommunityVoting("GM-1", true))
	require.NoError(t, r.JoinRoom("P-1", "conn-1", "Alice", false, ""))
	require.NoError(t, r.JoinRoom("P-2", "conn-2", "Bob", false, ""))
	require.NoError(t, r.StartGame("GM-1", sampleQuestions(), nil))
	require.NoError(t, r.SubmitAnswer("P-2", "4", false, "", ""))

	// finalizeVoting auto-advances and resets roundAnswers, so keep the answer.
	ans := r.roundAnswers["P-2"]
	r.votes["P-2"] = map[string]Vote{"GM-1": VoteCorrect, "P-1": VoteIncorrect}
	r.finalizeVoting()

	assert.Equal(t, EvalIncorrect, ans.Evaluation)
}

func TestKickPlayer_RemovesParticipantAndNotifies(t *testing.T) {
	b := newRecordingBroadcaster()
	r := newTestRoom(b, false, false)
	require.NoError(t, r.JoinRoom("P-1", "conn-1", "Alice", false, ""))

	err := r.KickPlayer("GM-1", "P-1")
	require.NoError(t, err)

	assert.NotContains(t, r.participants, "P-1")
	msg, ok := b.lastDirectTo("conn-1")
	require.True(t, ok)
	assert.Equal(t, OutKickedFromRoom, msg.Event)
}

func TestKickPlayer_CannotTargetGM(t *testing.T) {
	b := newRecordingBroadcaster()
	r := newTestRoom(b, false, false)

	err := r.KickPlayer("GM-1", "GM-1")
	assert.ErrorIs(t, err, ErrCannotKickSelfOrGM)
}

func TestToggleCommunityVoting_AddsAndRemovesSyntheticGMPlayer(t *testing.T) {
	b := newRecordingBroadcaster()
	r := newTestRoom(b, false, false)

	require.NoError(t, r.ToggleCommunityVoting("GM-1", true))
	assert.Contains(t, r.participants, "GM-1")

	require.NoError(t, r.ToggleCommunityVoting("GM-1", false))
	assert.NotContains(t, r.participants, "GM-1")
}

func TestToggleCommunityVoting_RejectsMidGame(t *testing.T) {
	b := newRecordingBroadcaster()
	r := newTestRoom(b, false, false)
	require.NoError(t, r.StartGame("GM-1", sampleQuestions(), nil))

	err := r.ToggleCommunityVoting("GM-1", true)
	assert.Error(t, err)
}

func TestRestartGame_ResetsLivesAndPreservesSpectatorChoice(t *testing.T) {
	b := newRecordingBroadcaster()
	r := newTestRoom(b, false, false)
	require.NoError(t, r.JoinRoom("P-1", "conn-1", "Alice", false, ""))
	require.NoError(t, r.JoinRoom("P-2", "conn-2", "Bob", true, ""))
	require.NoError(t, r.StartGame("GM-1", sampleQuestions(), nil))
	r.participants["P-1"].Lives = 0
	r.participants["P-1"].Score = 500

	err := r.RestartGame("GM-1")
	require.NoError(t, err)

	assert.False(t, r.started)
	assert.Equal(t, 3, r.participants["P-1"].Lives)
	assert.Equal(t, 0, r.participants["P-1"].Score)
	assert.True(t, r.participants["P-2"].IsSpectator, "players who joined as spectators stay spectators")
}

func TestEndGame_ConcludesAndBuildsRecap(t *testing.T) {
	b := newRecordingBroadcaster()
	r := newTestRoom(b, false, false)
	require.NoError(t, r.JoinRoom("P-1", "conn-1", "Alice", false, ""))
	require.NoError(t, r.StartGame("GM-1", sampleQuestions(), nil))

	err := r.EndGame("GM-1")
	require.NoError(t, err)
	assert.True(t, r.concluded)
	assert.Contains(t, b.events(), OutGameRecap)
}

func TestCheckEndOfGame_DirectMode_LastPlayerStandingWins(t *testing.T) {
	b := newRecordingBroadcaster()
	r := newTestRoom(b, false, false)
	require.NoError(t, r.JoinRoom("P-1", "conn-1", "Alice", false, ""))
	require.NoError(t, r.JoinRoom("P-2", "conn-2", "Bob", false, ""))
	require.NoError(t, r.StartGame("GM-1", sampleQuestions(), nil))

	r.participants["P-2"].IsSpectator = true
	r.checkEndOfGame()

	assert.True(t, r.concluded)
}
