// Package quizroom implements the room engine: round state machine,
// submissions, evaluation, community voting, points, and recap generation
// for one quiz room.
//
// Every mutation to a Room's state runs on a single goroutine (the room's
// executor), reading operations off a buffered channel in FIFO order. This
// is the server-side single-writer requirement: cross-room code (the
// registry, the hub) never reaches into a Room's fields directly.
package quizroom

import (
	"context"
	"sync"
	"time"

	"github.com/brightloop/quizarena/internal/v1/logging"
	"github.com/brightloop/quizarena/internal/v1/metrics"
	"go.uber.org/zap"
)

// Broadcaster fans a Message out to connections, optionally restricted to a
// target filter. The quizroom package never touches sockets directly; the
// hub implements this.
type Broadcaster interface {
	BroadcastRoom(roomCode string, msg Message)
	SendTo(connectionId string, msg Message)
}

// op is one serialized unit of work submitted to a room's executor. reply
// receives the operation's error (nil on success) and is always closed by
// the executor after running fn.
type op struct {
	fn    func(r *Room) error
	reply chan error
}

// Room owns one game session. All fields below this comment are touched
// only from inside run(); do not read or write them from other goroutines.
type Room struct {
	code           string
	gmPersistentId string
	createdAt      time.Time

	started     bool
	concluded   bool
	isStreamerMode        bool
	isCommunityVotingMode bool
	isPointsMode          bool

	questions         []Question
	currentRoundIndex int
	roundStartedAt    *time.Time
	timeLimitSeconds  *int

	submissionPhaseOver bool
	roundAnswers        map[string]*Answer
	evaluatedAnswers    map[string]bool
	playerBoards        map[string]*BoardSnapshot
	gmBoardSnapshot     *BoardSnapshot
	votes               map[string]map[string]Vote
	submitCounter       int

	gm *Participant

	participants      map[string]*Participant
	participantOrder  []string

	rounds []RoundRecap // accumulated per-round recap material

	timer *roomTimer

	ready map[string]bool // connection ids that have announced webrtc-ready

	broadcaster Broadcaster
	analytics   AnalyticsSink
	recaps      RecapSink

	grace struct {
		gmDisconnect     time.Duration
		playerDisconnect time.Duration
		roundFinalize    time.Duration
	}

	// cross-goroutine-visible snapshot, guarded by mu; updated at the end
	// of every op so the registry's stale sweep can read it without
	// going through the executor.
	mu                  sync.RWMutex
	lastActivity        time.Time
	gmDisconnectedSince time.Time
	gmDisconnected      bool

	ops  chan op
	done chan struct{}
}

// RoomConfig carries the grace-period durations from config.Config.
type RoomConfig struct {
	GMDisconnectGrace     time.Duration
	PlayerDisconnectGrace time.Duration
	RoundFinalizeGrace    time.Duration
}

// NewRoom constructs a room bound to gmPersistentId and starts its executor
// goroutine. Callers must call Stop when the room is evicted.
func NewRoom(code, gmPersistentId string, isStreamerMode, isCommunityVotingMode, isPointsMode bool, cfg RoomConfig, broadcaster Broadcaster) *Room {
	now := time.Now()
	r := &Room{
		code:                  code,
		gmPersistentId:        gmPersistentId,
		createdAt:             now,
		isStreamerMode:        isStreamerMode,
		isCommunityVotingMode: isCommunityVotingMode,
		isPointsMode:          isPointsMode,
		roundAnswers:          make(map[string]*Answer),
		evaluatedAnswers:      make(map[string]bool),
		playerBoards:          make(map[string]*BoardSnapshot),
		votes:                 make(map[string]map[string]Vote),
		participants:          make(map[string]*Participant),
		broadcaster:           broadcaster,
		lastActivity:          now,
		ops:                   make(chan op, 256),
		done:                  make(chan struct{}),
	}
	r.gm = &Participant{
		PersistentId: gmPersistentId,
		DisplayName:  "GameMaster",
		IsActive:     true,
		JoinedAt:     now,
	}
	r.grace.gmDisconnect = cfg.GMDisconnectGrace
	r.grace.playerDisconnect = cfg.PlayerDisconnectGrace
	r.grace.roundFinalize = cfg.RoundFinalizeGrace
	r.timer = newRoomTimer(r)

	go r.run()
	return r
}

// DebugView is a small, read-only summary for the `/debug/rooms` mirror
// endpoint (§13); it deliberately omits answers/boards/votes.
type DebugView struct {
	Code              string `json:"code"`
	GMPersistentId    string `json:"gmPersistentId"`
	Started           bool   `json:"started"`
	Concluded         bool   `json:"concluded"`
	CurrentRoundIndex int    `json:"currentRoundIndex"`
	ParticipantCount  int    `json:"participantCount"`
	IsCommunityVoting bool   `json:"isCommunityVotingMode"`
	IsPointsMode      bool   `json:"isPointsMode"`
}

func (r *Room) Debug() DebugView {
	return DebugView{
		Code:              r.code,
		GMPersistentId:    r.gmPersistentId,
		Started:           r.started,
		Concluded:         r.concluded,
		CurrentRoundIndex: r.currentRoundIndex,
		ParticipantCount:  len(r.participants),
		IsCommunityVoting: r.isCommunityVotingMode,
		IsPointsMode:      r.isPointsMode,
	}
}

// Code, LastActivity and GMDisconnectedSince implement registry.Room.
func (r *Room) Code() string { return r.code }

// GMPersistentId returns the room's canonical GM identity. Safe to read from
// any goroutine: it is set once in NewRoom before the executor starts and
// never mutated afterward.
func (r *Room) GMPersistentId() string { return r.gmPersistentId }

func (r *Room) LastActivity() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastActivity
}

func (r *Room) GMDisconnectedSince() (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gmDisconnectedSince, r.gmDisconnected
}

func (r *Room) touchActivity() {
	r.mu.Lock()
	r.lastActivity = time.Now()
	r.mu.Unlock()
}

func (r *Room) setGMDisconnected(disconnected bool) {
	r.mu.Lock()
	r.gmDisconnected = disconnected
	if disconnected {
		r.gmDisconnectedSince = time.Now()
	}
	r.mu.Unlock()
}

// Submit enqueues fn to run on the room's executor and blocks until it
// completes, returning its error. This is the only way outside code mutates
// room state.
func (r *Room) Submit(ctx context.Context, fn func(r *Room) error) error {
	reply := make(chan error, 1)
	o := op{fn: fn, reply: reply}
	select {
	case r.ops <- o:
	case <-r.done:
		return ErrRoomNotFound
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop halts the room's executor and its timer. Idempotent.
func (r *Room) Stop() {
	select {
	case <-r.done:
		return
	default:
		close(r.done)
	}
	r.timer.cancel()
}

func (r *Room) run() {
	for {
		select {
		case <-r.done:
			return
		case o := <-r.ops:
			err := o.fn(r)
			r.touchActivity()
			o.reply <- err
			close(o.reply)
		}
	}
}

// enqueueInternal schedules fn to run on this room's executor without
// waiting for a caller-facing reply; used by the timer goroutine to deliver
// tick/expiry events and by grace-period delays scheduled from within an op.
// It must never be called from inside run() itself (that would deadlock on
// a full channel under heavy load); use time.AfterFunc to hop off-goroutine
// first.
func (r *Room) enqueueInternal(fn func(r *Room) error) {
	select {
	case r.ops <- op{fn: fn, reply: make(chan error, 1)}:
	case <-r.done:
	}
}

func (r *Room) recordRoundTransition(phase string) {
	metrics.RoundTransitions.WithLabelValues(phase).Inc()
}

func (r *Room) warn(msg string, fields ...zap.Field) {
	logging.Warn(context.Background(), msg, append(fields, zap.String("room_code", r.code))...)
}
