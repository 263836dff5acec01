package quizroom

import (
	"time"

	"github.com/brightloop/quizarena/internal/v1/metrics"
)

// noCountdownSentinel mirrors the client convention that a timeLimit of nil
// or >=99999 means "no countdown".
const noCountdownSentinel = 99999

// roomTimer is the room's single active countdown. A new startGame or
// nextQuestion cancels any prior timer before arming a new one, per §5.
type roomTimer struct {
	room   *Room
	cancel func()
}

func newRoomTimer(r *Room) *roomTimer {
	return &roomTimer{room: r, cancel: func() {}}
}

// arm starts (or restarts) the countdown for timeLimitSeconds. A nil or
// >=99999 limit arms no timer at all.
func (t *roomTimer) arm(timeLimitSeconds *int) {
	t.cancel()
	if timeLimitSeconds == nil || *timeLimitSeconds >= noCountdownSentinel {
		t.cancel = func() {}
		return
	}

	stop := make(chan struct{})
	remaining := *timeLimitSeconds
	ticker := time.NewTicker(time.Second)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				remaining--
				r := remaining
				metrics.TimerTicks.WithLabelValues("tick").Inc()
				t.room.enqueueInternal(func(room *Room) error {
					room.handleTimerTick(r)
					return nil
				})
				if r <= 0 {
					metrics.TimerTicks.WithLabelValues("expiry").Inc()
					t.room.enqueueInternal(func(room *Room) error {
						room.handleTimeUp()
						return nil
					})
					return
				}
			}
		}
	}()

	t.cancel = func() {
		select {
		case <-stop:
		default:
			close(stop)
		}
	}
}

// scheduleGrace runs fn on the room executor after the room's finalize-round
// grace delay, hopping off the executor goroutine via time.AfterFunc so the
// delay never blocks it.
func (r *Room) scheduleGrace(fn func(room *Room) error) {
	time.AfterFunc(r.grace.roundFinalize, func() {
		r.enqueueInternal(fn)
	})
}
