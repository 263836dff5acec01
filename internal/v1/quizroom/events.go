package quizroom

import "encoding/json"

// Message is the wire envelope for every client<->server event: a named
// event carrying an opaque JSON payload, mirroring the teacher's JSON
// session.Message shape rather than its protobuf-framed successor.
type Message struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound event names (client -> server).
const (
	EvCreateRoom            = "create_room"
	EvJoinRoom              = "join_room"
	EvRejoinRoom            = "rejoin_room"
	EvStartGame              = "start_game"
	EvSubmitAnswer           = "submit_answer"
	EvUpdateBoard            = "update_board"
	EvEvaluateAnswer         = "evaluate_answer"
	EvNextQuestion           = "next_question"
	EvEndRoundEarly          = "end_round_early"
	EvRestartGame            = "restart_game"
	EvFocusSubmission        = "focus_submission"
	EvKickPlayer             = "kick_player"
	EvToggleCommunityVoting  = "toggle_community_voting"
	EvSubmitVote             = "submit_vote"
	EvShowAnswer             = "show_answer"
	EvForceEndVoting         = "force_end_voting"
	EvUpdateGMBoard          = "update_game_master_board"
	EvClearGMBoard           = "clear_game_master_board"
	EvUpdateAvatar           = "update_avatar"
	EvGetGameState           = "get_game_state"
	EvGMEndGameRequest       = "gm_end_game_request"
	EvGMNavigateRecapRound   = "gm_navigate_recap_round"
	EvGMNavigateRecapTab     = "gm_navigate_recap_tab"
	EvGMCommunityAnswerAccept = "gm_community_answer_accepted_request"
	EvWebrtcReady            = "webrtc-ready"
	EvWebrtcOffer            = "webrtc-offer"
	EvWebrtcAnswer           = "webrtc-answer"
	EvWebrtcIceCandidate     = "webrtc-ice-candidate"
	EvWebcamStateChange      = "webcam-state-change"
	EvMicrophoneStateChange  = "microphone-state-change"
)

// Outbound event names (server -> client).
const (
	OutPersistentIdAssigned  = "persistent_id_assigned"
	OutRoomCreated           = "room_created"
	OutRoomJoined            = "room_joined"
	OutRoomNotFound          = "room_not_found"
	OutError                 = "error"
	OutGameStateUpdate       = "game_state_update"
	OutGameStarted           = "game_started"
	OutNewQuestion           = "new_question"
	OutTimerUpdate           = "timer_update"
	OutTimeUp                = "time_up"
	OutAnswerReceived        = "answer_received"
	OutBoardUpdate           = "board_update"
	OutPlayerJoined          = "player_joined"
	OutPlayerLeftGracefully  = "player_left_gracefully"
	OutPlayerRemovedTimeout  = "player_removed_after_timeout"
	OutPlayerDisconnected    = "player_disconnected_status"
	OutPlayerReconnected     = "player_reconnected_status"
	OutGMDisconnectedStatus  = "gm_disconnected_status"
	OutBecomeSpectator       = "become_spectator"
	OutKickedFromRoom        = "kicked_from_room"
	OutGameRestarted         = "game_restarted"
	OutGameOverPendingRecap  = "game_over_pending_recap"
	OutGameRecap             = "game_recap"
	OutRecapRoundChanged     = "recap_round_changed"
	OutRecapTabChanged       = "recap_tab_changed"
	OutStartPreviewMode      = "start_preview_mode"
	OutStopPreviewMode       = "stop_preview_mode"
	OutFocusSubmission       = "focus_submission"
	OutCommunityVotingStatus = "community_voting_status_changed"
	OutAnswerVoted           = "answer_voted"
	OutCorrectAnswerRevealed = "correct_answer_revealed"
	OutGMCommunityAnswerAccepted = "gm_community_answer_accepted"
	OutAvatarUpdated         = "avatar_updated"
	OutWebrtcReadyPeers      = "webrtc-ready-peers"
)

// MaxPayloadBytes is the per-event payload cap (§5): drawing blobs can be
// large SVG, but a single event must not exceed this.
const MaxPayloadBytes = 5 * 1024 * 1024

func mustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}
