package quizroom

import "github.com/brightloop/quizarena/internal/v1/metrics"

// Opaque WebRTC signaling payload shapes (§4.6). The server never inspects
// the sdp/candidate contents, only the routing fields.
type SignalOffer struct {
	To  string `json:"to"`
	SDP string `json:"sdp"`
}

type SignalAnswer struct {
	To  string `json:"to"`
	SDP string `json:"sdp"`
}

type SignalIceCandidate struct {
	To        string `json:"to"`
	Candidate string `json:"candidate"`
}

// connectionIds returns every live connection id currently bound to the
// room: the GM's plus every active participant's.
func (r *Room) connectionIds() []string {
	var out []string
	if r.gm.IsActive && r.gm.ConnectionId != "" {
		out = append(out, r.gm.ConnectionId)
	}
	for _, pid := range r.participantOrder {
		p := r.participants[pid]
		if p.IsActive && p.ConnectionId != "" {
			out = append(out, p.ConnectionId)
		}
	}
	return out
}

func (r *Room) hasConnection(connectionId string) bool {
	for _, id := range r.connectionIds() {
		if id == connectionId {
			return true
		}
	}
	return false
}

// RelayOffer forwards an SDP offer from one connection to another, both
// scoped to this room's membership.
func (r *Room) RelayOffer(fromConnectionId string, p SignalOffer) error {
	return r.relaySignal(fromConnectionId, p.To, EvWebrtcOffer, p)
}

// RelayAnswer forwards an SDP answer.
func (r *Room) RelayAnswer(fromConnectionId string, p SignalAnswer) error {
	return r.relaySignal(fromConnectionId, p.To, EvWebrtcAnswer, p)
}

// RelayIceCandidate forwards one ICE candidate.
func (r *Room) RelayIceCandidate(fromConnectionId string, p SignalIceCandidate) error {
	return r.relaySignal(fromConnectionId, p.To, EvWebrtcIceCandidate, p)
}

func (r *Room) relaySignal(fromConnectionId, toConnectionId, event string, payload any) error {
	if !r.hasConnection(fromConnectionId) || !r.hasConnection(toConnectionId) {
		return ErrPlayerNotFound
	}
	r.broadcaster.SendTo(toConnectionId, Message{Event: event, Payload: mustMarshal(payload)})
	kind := "other"
	switch event {
	case EvWebrtcOffer:
		kind = "offer"
	case EvWebrtcAnswer:
		kind = "answer"
	case EvWebrtcIceCandidate:
		kind = "ice_candidate"
	}
	metrics.SignalingMessagesRelayed.WithLabelValues(kind).Inc()
	return nil
}

// Ready marks connectionId ready and returns the other peers that were
// already ready, so the caller can initiate offers toward them. It also
// notifies those peers of the newcomer.
func (r *Room) Ready(connectionId string) ([]string, error) {
	if !r.hasConnection(connectionId) {
		return nil, ErrPlayerNotFound
	}
	if r.ready == nil {
		r.ready = make(map[string]bool)
	}

	others := make([]string, 0, len(r.ready))
	for id := range r.ready {
		if id != connectionId {
			others = append(others, id)
		}
	}
	r.ready[connectionId] = true

	for _, id := range others {
		r.broadcaster.SendTo(id, Message{Event: EvWebrtcReady, Payload: mustMarshal(map[string]string{"connectionId": connectionId})})
	}
	return others, nil
}

// Unready clears connectionId's ready flag, called on disconnect.
func (r *Room) Unready(connectionId string) {
	delete(r.ready, connectionId)
}

// WebcamStateChange / MicrophoneStateChange broadcast a per-connection media
// flag room-wide; purely a relay, never interpreted server-side.
func (r *Room) WebcamStateChange(connectionId string, on bool) error {
	if !r.hasConnection(connectionId) {
		return ErrPlayerNotFound
	}
	r.broadcaster.BroadcastRoom(r.code, Message{Event: EvWebcamStateChange, Payload: mustMarshal(map[string]any{"connectionId": connectionId, "on": on})})
	return nil
}

func (r *Room) MicrophoneStateChange(connectionId string, on bool) error {
	if !r.hasConnection(connectionId) {
		return ErrPlayerNotFound
	}
	r.broadcaster.BroadcastRoom(r.code, Message{Event: EvMicrophoneStateChange, Payload: mustMarshal(map[string]any{"connectionId": connectionId, "on": on})})
	return nil
}
