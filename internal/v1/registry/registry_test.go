package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRoom struct {
	code                string
	lastActivity        time.Time
	gmDisconnectedSince time.Time
	gmDisconnected      bool
}

func (f *fakeRoom) Code() string                 { return f.code }
func (f *fakeRoom) LastActivity() time.Time       { return f.lastActivity }
func (f *fakeRoom) GMDisconnectedSince() (time.Time, bool) {
	return f.gmDisconnectedSince, f.gmDisconnected
}

func TestPutLookupRemove(t *testing.T) {
	reg := New(24*time.Hour, 3*time.Minute)
	room := &fakeRoom{code: "ABC123", lastActivity: time.Now()}

	require.True(t, reg.Put(room))
	got, ok := reg.Lookup("ABC123")
	require.True(t, ok)
	assert.Equal(t, room, got)

	reg.Remove("ABC123")
	_, ok = reg.Lookup("ABC123")
	assert.False(t, ok)
}

func TestPut_RejectsDuplicateCode(t *testing.T) {
	reg := New(24*time.Hour, 3*time.Minute)
	room1 := &fakeRoom{code: "ABC123", lastActivity: time.Now()}
	room2 := &fakeRoom{code: "ABC123", lastActivity: time.Now()}

	assert.True(t, reg.Put(room1))
	assert.False(t, reg.Put(room2))
}

func TestNewCode_AvoidsCollisions(t *testing.T) {
	reg := New(24*time.Hour, 3*time.Minute)
	code := reg.NewCode()
	reg.Put(&fakeRoom{code: code, lastActivity: time.Now()})

	for i := 0; i < 50; i++ {
		other := reg.NewCode()
		assert.NotEqual(t, code, other)
	}
}

func TestSweepOnce_EvictsStaleRoom(t *testing.T) {
	reg := New(time.Hour, 3*time.Minute)
	reg.Put(&fakeRoom{code: "OLD001", lastActivity: time.Now().Add(-2 * time.Hour)})
	reg.Put(&fakeRoom{code: "NEW001", lastActivity: time.Now()})

	reg.sweepOnce()

	_, ok := reg.Lookup("OLD001")
	assert.False(t, ok)
	_, ok = reg.Lookup("NEW001")
	assert.True(t, ok)
}

func TestSweepOnce_EvictsGMDisconnectedPastDeadline(t *testing.T) {
	reg := New(24*time.Hour, time.Minute)
	reg.Put(&fakeRoom{
		code:                "GMOUT1",
		lastActivity:        time.Now(),
		gmDisconnected:      true,
		gmDisconnectedSince: time.Now().Add(-2 * time.Minute),
	})

	reg.sweepOnce()

	_, ok := reg.Lookup("GMOUT1")
	assert.False(t, ok)
}

func TestRunStaleSweep_StopsOnContextCancel(t *testing.T) {
	reg := New(time.Hour, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		reg.RunStaleSweep(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunStaleSweep did not stop after context cancel")
	}
}
