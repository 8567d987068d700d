package domain

import "github.com/pion/webrtc/v4"

type ConnectionState string

const (
	ConnectionStateNew          = ConnectionState("new")
	ConnectionStateConnecting   = ConnectionState("connecting")
	ConnectionStateConnected    = ConnectionState("connected")
	ConnectionStateDisconnected = ConnectionState("disconnected")
	ConnectionStateFailed       = ConnectionState("failed")
	ConnectionStateClosed       = ConnectionState("closed")
)

// Terminal reports whether the state means the session is gone for good
// and its resources should be released.
func (s ConnectionState) Terminal() bool {
	return s == ConnectionStateDisconnected || s == ConnectionStateFailed || s == ConnectionStateClosed
}

// SessionEvents carries the callbacks a media session fires as the underlying
// transport progresses. All callbacks may be invoked from transport goroutines.
type SessionEvents struct {
	OnAudio             func(payload []byte)
	OnICECandidate      func(candidate webrtc.ICECandidateInit)
	OnGatheringComplete func()
	OnStateChange       func(state ConnectionState)
}

// MediaSession is a single negotiated audio transport towards one user.
type MediaSession interface {
	CreateOffer() (webrtc.SessionDescription, error)
	SetRemoteDescription(answer webrtc.SessionDescription) error
	AddICECandidate(candidate webrtc.ICECandidateInit) error
	SendAudio(payload []byte, timestamp uint32) error
	Close() error
}

type SessionFactory interface {
	NewSession(userID string, events SessionEvents) (MediaSession, error)
}
