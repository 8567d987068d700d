package rtc

import (
	"errors"
	"sync"
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-relay/internal/domain"
)

type fakeSession struct {
	mu       sync.Mutex
	events   domain.SessionEvents
	closed   bool
	closeErr error

	remoteSet  bool
	candidates []webrtc.ICECandidateInit
	sent       []uint32
}

func (f *fakeSession) CreateOffer() (webrtc.SessionDescription, error) {
	return webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0 fake"}, nil
}

func (f *fakeSession) SetRemoteDescription(webrtc.SessionDescription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remoteSet = true
	return nil
}

func (f *fakeSession) AddICECandidate(candidate webrtc.ICECandidateInit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.candidates = append(f.candidates, candidate)
	return nil
}

func (f *fakeSession) SendAudio(payload []byte, timestamp uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, timestamp)
	return nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return f.closeErr
}

func (f *fakeSession) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeFactory struct {
	mu       sync.Mutex
	sessions []*fakeSession
	err      error
}

func (f *fakeFactory) NewSession(userID string, events domain.SessionEvents) (domain.MediaSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := &fakeSession{events: events}
	f.mu.Lock()
	f.sessions = append(f.sessions, s)
	f.mu.Unlock()
	return s, nil
}

func (f *fakeFactory) last() *fakeSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[len(f.sessions)-1]
}

func candidate(s string) webrtc.ICECandidateInit {
	return webrtc.ICECandidateInit{Candidate: s}
}

func TestCreateSessionReturnsOffer(t *testing.T) {
	factory := &fakeFactory{}
	r := NewRegistry(factory, Hooks{})

	offer, err := r.CreateSession("u1", SessionCallbacks{})
	require.NoError(t, err)
	assert.Equal(t, webrtc.SDPTypeOffer, offer.Type)
	assert.NotEmpty(t, offer.SDP)
}

func TestCreateSessionFactoryFailure(t *testing.T) {
	factory := &fakeFactory{err: errors.New("no ports")}
	r := NewRegistry(factory, Hooks{})

	_, err := r.CreateSession("u1", SessionCallbacks{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSessionCreationFailed)
}

func TestCreateSessionReplacesExisting(t *testing.T) {
	factory := &fakeFactory{}
	var gone []string
	r := NewRegistry(factory, Hooks{
		OnDisconnected: func(userID string) { gone = append(gone, userID) },
	})

	_, err := r.CreateSession("u1", SessionCallbacks{})
	require.NoError(t, err)
	first := factory.last()

	_, err = r.CreateSession("u1", SessionCallbacks{})
	require.NoError(t, err)

	assert.True(t, first.isClosed())
	assert.Equal(t, []string{"u1"}, gone)
	assert.Len(t, factory.sessions, 2)
}

func TestCreateSessionDuplicateWhenOldCannotClose(t *testing.T) {
	factory := &fakeFactory{}
	r := NewRegistry(factory, Hooks{})

	_, err := r.CreateSession("u1", SessionCallbacks{})
	require.NoError(t, err)
	factory.last().closeErr = errors.New("stuck")

	_, err = r.CreateSession("u1", SessionCallbacks{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateSession)
}

func TestServerCandidatesBufferedUntilGatheringComplete(t *testing.T) {
	factory := &fakeFactory{}
	r := NewRegistry(factory, Hooks{})

	var mu sync.Mutex
	var received []webrtc.ICECandidateInit
	_, err := r.CreateSession("u1", SessionCallbacks{
		OnServerICE: func(c webrtc.ICECandidateInit) {
			mu.Lock()
			received = append(received, c)
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	events := factory.last().events

	events.OnICECandidate(candidate("a"))
	events.OnICECandidate(candidate("b"))
	assert.Empty(t, received)

	events.OnGatheringComplete()
	require.Len(t, received, 2)
	assert.Equal(t, "a", received[0].Candidate)
	assert.Equal(t, "b", received[1].Candidate)

	// after the flush new candidates go straight through
	events.OnICECandidate(candidate("c"))
	require.Len(t, received, 3)
	assert.Equal(t, "c", received[2].Candidate)
}

func TestUnknownUserOperationsAreNoOps(t *testing.T) {
	r := NewRegistry(&fakeFactory{}, Hooks{})

	assert.NoError(t, r.SetRemoteDescription("ghost", webrtc.SessionDescription{}))
	assert.NoError(t, r.AddICECandidate("ghost", candidate("x")))
	r.CloseSession("ghost")
}

func TestGetIsAPureLookup(t *testing.T) {
	factory := &fakeFactory{}
	r := NewRegistry(factory, Hooks{})

	_, ok := r.Get("u1")
	assert.False(t, ok)

	_, err := r.CreateSession("u1", SessionCallbacks{})
	require.NoError(t, err)

	session, ok := r.Get("u1")
	require.True(t, ok)
	assert.NotNil(t, session)
}

func TestAnswerAndCandidatesReachSession(t *testing.T) {
	factory := &fakeFactory{}
	r := NewRegistry(factory, Hooks{})

	_, err := r.CreateSession("u1", SessionCallbacks{})
	require.NoError(t, err)
	s := factory.last()

	require.NoError(t, r.SetRemoteDescription("u1", webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer}))
	require.NoError(t, r.AddICECandidate("u1", candidate("x")))

	assert.True(t, s.remoteSet)
	require.Len(t, s.candidates, 1)
	assert.Equal(t, "x", s.candidates[0].Candidate)
}

func TestConnectedStateFiresHookAndExposesSession(t *testing.T) {
	factory := &fakeFactory{}
	var connected []string
	r := NewRegistry(factory, Hooks{
		OnConnected: func(userID string, _ domain.MediaSession) { connected = append(connected, userID) },
	})

	_, err := r.CreateSession("u1", SessionCallbacks{})
	require.NoError(t, err)

	_, ok := r.ConnectedSession("u1")
	assert.False(t, ok)

	factory.last().events.OnStateChange(domain.ConnectionStateConnected)

	assert.Equal(t, []string{"u1"}, connected)
	session, ok := r.ConnectedSession("u1")
	require.True(t, ok)
	assert.NotNil(t, session)
}

func TestTerminalStateCleansUp(t *testing.T) {
	for _, state := range []domain.ConnectionState{
		domain.ConnectionStateDisconnected,
		domain.ConnectionStateFailed,
		domain.ConnectionStateClosed,
	} {
		t.Run(string(state), func(t *testing.T) {
			factory := &fakeFactory{}
			var gone []string
			r := NewRegistry(factory, Hooks{
				OnDisconnected: func(userID string) { gone = append(gone, userID) },
			})

			_, err := r.CreateSession("u1", SessionCallbacks{})
			require.NoError(t, err)
			s := factory.last()

			s.events.OnStateChange(domain.ConnectionStateConnected)
			s.events.OnStateChange(state)

			assert.True(t, s.isClosed())
			assert.Equal(t, []string{"u1"}, gone)
			_, ok := r.ConnectedSession("u1")
			assert.False(t, ok)

			// the registry forgot the user entirely
			assert.NoError(t, r.SetRemoteDescription("u1", webrtc.SessionDescription{}))
			assert.False(t, s.remoteSet)
		})
	}
}

func TestInboundAudioReachesHook(t *testing.T) {
	factory := &fakeFactory{}
	var payloads [][]byte
	r := NewRegistry(factory, Hooks{
		OnAudio: func(userID string, payload []byte) { payloads = append(payloads, payload) },
	})

	_, err := r.CreateSession("u1", SessionCallbacks{})
	require.NoError(t, err)

	factory.last().events.OnAudio([]byte("frame"))
	require.Len(t, payloads, 1)
	assert.Equal(t, []byte("frame"), payloads[0])
}

func TestCloseSessionClosesAndNotifies(t *testing.T) {
	factory := &fakeFactory{}
	var gone []string
	r := NewRegistry(factory, Hooks{
		OnDisconnected: func(userID string) { gone = append(gone, userID) },
	})

	_, err := r.CreateSession("u1", SessionCallbacks{})
	require.NoError(t, err)

	r.CloseSession("u1")

	assert.True(t, factory.last().isClosed())
	assert.Equal(t, []string{"u1"}, gone)
}
