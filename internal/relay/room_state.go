package relay

import (
	"log/slog"
	"sync"

	"voice-relay/internal/metrics"
)

// AudioSender is the outbound half of a media session as seen by the relay.
type AudioSender interface {
	SendAudio(payload []byte, timestamp uint32) error
}

// roomState holds everything the relay keeps per room: the packet queue,
// the attached recipients and the RTP timestamp counter.
type roomState struct {
	queue *packetQueue

	mu        sync.RWMutex
	senders   map[string]AudioSender
	timestamp uint32
}

func newRoomState(queueLimit int) *roomState {
	return &roomState{
		queue:   newPacketQueue(queueLimit),
		senders: make(map[string]AudioSender),
	}
}

func (r *roomState) attach(userID string, sender AudioSender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.senders[userID] = sender
}

func (r *roomState) detach(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.senders, userID)
}

// fanOut delivers each packet to every attached sender except its origin.
// Delivery holds the member lock: detach acquires the write lock, so once
// detach returns no send to that user can still be in flight. Senders are
// required not to block in SendAudio.
func (r *roomState) fanOut(roomID string, packets []packet, timestamp uint32) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range packets {
		for userID, sender := range r.senders {
			if userID == p.senderID {
				continue
			}
			if err := sender.SendAudio(p.payload, timestamp); err != nil {
				metrics.RelaySendFailuresTotal.Inc()
				slog.Warn("failed to forward audio", "roomID", roomID, "userID", userID, "error", err)
				continue
			}
			metrics.RelayPacketsForwardedTotal.Inc()
		}
	}
}

// advance moves the timestamp counter by step and returns the new value.
// uint32 arithmetic wraps on overflow, which is what RTP expects.
func (r *roomState) advance(step uint32) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timestamp += step
	return r.timestamp
}
