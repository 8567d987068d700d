package rtc

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/pion/webrtc/v4"

	"voice-relay/internal/domain"
	"voice-relay/internal/metrics"
	"voice-relay/internal/utils"
)

// Hooks let the registry notify the rest of the system about session
// lifecycle and inbound audio without importing it.
type Hooks struct {
	OnConnected    func(userID string, session domain.MediaSession)
	OnDisconnected func(userID string)
	OnAudio        func(userID string, payload []byte)
}

// SessionCallbacks carry per-session signaling towards one client.
type SessionCallbacks struct {
	OnServerICE   func(candidate webrtc.ICECandidateInit)
	OnStateChange func(state domain.ConnectionState)
}

type managedSession struct {
	session    domain.MediaSession
	callbacks  SessionCallbacks
	candidates *candidateBuffer
	connected  atomic.Bool
}

// Registry owns one media session per user and drives its lifecycle:
// offer creation, answer application, ICE exchange with server-side
// candidate buffering, and cleanup on terminal connection states.
type Registry struct {
	factory  domain.SessionFactory
	hooks    Hooks
	sessions *utils.SyncMapWrapper[string, *managedSession]
}

func NewRegistry(factory domain.SessionFactory, hooks Hooks) *Registry {
	return &Registry{
		factory:  factory,
		hooks:    hooks,
		sessions: utils.NewSyncMapWrapper[string, *managedSession](),
	}
}

// CreateSession builds a fresh session for the user and returns the server's
// offer. An existing live session for the same user is closed and replaced;
// if the old session refuses to close the call fails with
// domain.ErrDuplicateSession.
func (r *Registry) CreateSession(userID string, callbacks SessionCallbacks) (webrtc.SessionDescription, error) {
	if old, ok := r.sessions.LoadAndDelete(userID); ok {
		slog.Info("replacing existing session", "userID", userID)
		metrics.ActiveSessions.Dec()
		if err := old.session.Close(); err != nil {
			return webrtc.SessionDescription{}, fmt.Errorf("%w for user %s: %v", domain.ErrDuplicateSession, userID, err)
		}
		if r.hooks.OnDisconnected != nil {
			r.hooks.OnDisconnected(userID)
		}
	}

	ms := &managedSession{
		callbacks:  callbacks,
		candidates: newCandidateBuffer(),
	}

	events := domain.SessionEvents{
		OnAudio: func(payload []byte) {
			if r.hooks.OnAudio != nil {
				r.hooks.OnAudio(userID, payload)
			}
		},
		OnICECandidate: func(candidate webrtc.ICECandidateInit) {
			metrics.ICECandidatesTotal.WithLabelValues("out").Inc()
			if !ms.candidates.Add(candidate) && callbacks.OnServerICE != nil {
				callbacks.OnServerICE(candidate)
			}
		},
		OnGatheringComplete: func() {
			for _, candidate := range ms.candidates.Flush() {
				if callbacks.OnServerICE != nil {
					callbacks.OnServerICE(candidate)
				}
			}
		},
		OnStateChange: func(state domain.ConnectionState) {
			r.handleStateChange(userID, ms, state)
		},
	}

	session, err := r.factory.NewSession(userID, events)
	if err != nil {
		metrics.SessionFailuresTotal.WithLabelValues("create").Inc()
		return webrtc.SessionDescription{}, fmt.Errorf("%w: %v", domain.ErrSessionCreationFailed, err)
	}
	ms.session = session
	r.sessions.Store(userID, ms)

	offer, err := session.CreateOffer()
	if err != nil {
		r.sessions.Delete(userID)
		_ = session.Close()
		metrics.SessionFailuresTotal.WithLabelValues("offer").Inc()
		return webrtc.SessionDescription{}, fmt.Errorf("%w: %v", domain.ErrSessionCreationFailed, err)
	}

	metrics.ActiveSessions.Inc()
	metrics.SessionsCreatedTotal.Inc()
	slog.Info("session created", "userID", userID)
	return offer, nil
}

// SetRemoteDescription applies the client's answer. Unknown users are a
// tolerated no-op.
func (r *Registry) SetRemoteDescription(userID string, answer webrtc.SessionDescription) error {
	ms, ok := r.sessions.Load(userID)
	if !ok {
		slog.Debug("answer for unknown session", "userID", userID)
		return nil
	}
	return ms.session.SetRemoteDescription(answer)
}

// AddICECandidate feeds a client candidate into the session. Unknown users
// are a tolerated no-op.
func (r *Registry) AddICECandidate(userID string, candidate webrtc.ICECandidateInit) error {
	ms, ok := r.sessions.Load(userID)
	if !ok {
		slog.Debug("ice candidate for unknown session", "userID", userID)
		return nil
	}
	metrics.ICECandidatesTotal.WithLabelValues("in").Inc()
	return ms.session.AddICECandidate(candidate)
}

// Get returns the user's session regardless of its connection state.
func (r *Registry) Get(userID string) (domain.MediaSession, bool) {
	ms, ok := r.sessions.Load(userID)
	if !ok {
		return nil, false
	}
	return ms.session, true
}

// ConnectedSession returns the user's session if it has reached the
// connected state.
func (r *Registry) ConnectedSession(userID string) (domain.MediaSession, bool) {
	ms, ok := r.sessions.Load(userID)
	if !ok || !ms.connected.Load() {
		return nil, false
	}
	return ms.session, true
}

// CloseSession tears down the user's session if one exists.
func (r *Registry) CloseSession(userID string) {
	ms, ok := r.sessions.LoadAndDelete(userID)
	if !ok {
		return
	}
	ms.candidates.Discard()
	_ = ms.session.Close()
	metrics.ActiveSessions.Dec()
	if r.hooks.OnDisconnected != nil {
		r.hooks.OnDisconnected(userID)
	}
	slog.Info("session closed", "userID", userID)
}

// Close tears down every session.
func (r *Registry) Close() {
	r.sessions.Range(func(userID string, ms *managedSession) bool {
		r.CloseSession(userID)
		return true
	})
}

func (r *Registry) handleStateChange(userID string, ms *managedSession, state domain.ConnectionState) {
	metrics.SessionStateChanges.WithLabelValues(string(state)).Inc()
	slog.Debug("session state changed", "userID", userID, "state", state)

	if ms.callbacks.OnStateChange != nil {
		ms.callbacks.OnStateChange(state)
	}

	switch {
	case state == domain.ConnectionStateConnected:
		ms.connected.Store(true)
		if r.hooks.OnConnected != nil {
			r.hooks.OnConnected(userID, ms.session)
		}
	case state.Terminal():
		ms.connected.Store(false)
		ms.candidates.Discard()
		if current, ok := r.sessions.Load(userID); ok && current == ms {
			r.sessions.Delete(userID)
			_ = ms.session.Close()
			metrics.ActiveSessions.Dec()
			if r.hooks.OnDisconnected != nil {
				r.hooks.OnDisconnected(userID)
			}
		}
	}
}
