package quizroom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelayOffer_ForwardsOpaquePayloadToTarget(t *testing.T) {
	b := newRecordingBroadcaster()
	r := newTestRoom(b, false, false)
	require.NoError(t, r.JoinRoom("P-1", "conn-1", "Alice", false, ""))
	r.gm.ConnectionId = "conn-gm"

	err := r.RelayOffer("conn-gm", SignalOffer{To: "conn-1", SDP: "opaque-sdp"})
	require.NoError(t, err)

	msg, ok := b.lastDirectTo("conn-1")
	require.True(t, ok)
	assert.Equal(t, EvWebrtcOffer, msg.Event)
}

func TestRelayOffer_RejectsUnknownTarget(t *testing.T) {
	b := newRecordingBroadcaster()
	r := newTestRoom(b, false, false)
	r.gm.ConnectionId = "conn-gm"

	err := r.RelayOffer(r.gm.ConnectionId, SignalOffer{To: "nobody"})
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestReady_ReturnsAlreadyReadyPeersAndNotifiesThem(t *testing.T) {
	b := newRecordingBroadcaster()
	r := newTestRoom(b, false, false)
	require.NoError(t, r.JoinRoom("P-1", "conn-1", "Alice", false, ""))
	require.NoError(t, r.JoinRoom("P-2", "conn-2", "Bob", false, ""))

	others, err := r.Ready("conn-1")
	require.NoError(t, err)
	assert.Empty(t, others)

	others, err = r.Ready("conn-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"conn-1"}, others)

	msg, ok := b.lastDirectTo("conn-1")
	require.True(t, ok)
	assert.Equal(t, EvWebrtcReady, msg.Event)
}

func TestWebcamStateChange_BroadcastsRoomScoped(t *testing.T) {
	b := newRecordingBroadcaster()
	r := newTestRoom(b, false, false)
	require.NoError(t, r.JoinRoom("P-1", "conn-1", "Alice", false, ""))

	err := r.WebcamStateChange("conn-1", true)
	require.NoError(t, err)
	assert.Contains(t, b.events(), EvWebcamStateChange)
}
