package rtc

import (
	"fmt"
	"sync/atomic"

	"github.com/pion/interceptor"
	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"

	"voice-relay/internal/config"
	"voice-relay/internal/domain"
	"voice-relay/internal/metrics"
)

const rtcpBufferSize = 1500

// PionFactory builds pion-backed media sessions from a shared webrtc.API
// configured with the server's codecs and interceptors.
type PionFactory struct {
	api      *webrtc.API
	pcConfig webrtc.Configuration
}

func NewPionFactory(cfg *config.WebRTCConfig, publicIP string) (*PionFactory, error) {
	mediaEngine := &webrtc.MediaEngine{}
	for _, codec := range cfg.Codecs {
		if err := mediaEngine.RegisterCodec(codec.Params, codec.Type); err != nil {
			return nil, fmt.Errorf("failed to register codec: %w", err)
		}
	}

	interceptorRegistry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(mediaEngine, interceptorRegistry); err != nil {
		return nil, fmt.Errorf("failed to register default interceptors: %w", err)
	}

	se := webrtc.SettingEngine{}
	if len(cfg.PeerConnectionConfig.IceServers) == 0 && len(publicIP) > 0 {
		se.SetNAT1To1IPs([]string{publicIP}, webrtc.ICECandidateTypeHost)
	}

	if cfg.PortMin > 0 && cfg.PortMax > 0 {
		if err := se.SetEphemeralUDPPortRange(cfg.PortMin, cfg.PortMax); err != nil {
			return nil, fmt.Errorf("failed to set WebRTC port range: %w", err)
		}
	}

	webrtcApi := webrtc.NewAPI(
		webrtc.WithMediaEngine(mediaEngine),
		webrtc.WithInterceptorRegistry(interceptorRegistry),
		webrtc.WithSettingEngine(se),
	)

	return &PionFactory{
		api:      webrtcApi,
		pcConfig: cfg.PeerConnectionConfig.WebrtcConfiguration(),
	}, nil
}

func (f *PionFactory) NewSession(userID string, events domain.SessionEvents) (domain.MediaSession, error) {
	pc, err := f.api.NewPeerConnection(f.pcConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create peer connection: %w", err)
	}

	track, err := webrtc.NewTrackLocalStaticRTP(webrtc.RTPCodecCapability{
		MimeType:  webrtc.MimeTypePCMU,
		ClockRate: 8000,
		Channels:  1,
	}, "audio", "voice-relay-"+userID)
	if err != nil {
		_ = pc.Close()
		return nil, fmt.Errorf("failed to create audio track: %w", err)
	}

	sender, err := pc.AddTrack(track)
	if err != nil {
		_ = pc.Close()
		return nil, fmt.Errorf("failed to add audio track: %w", err)
	}

	s := &pionSession{pc: pc, track: track}

	go s.drainRTCP(sender)

	pc.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		if candidate == nil {
			return
		}
		if events.OnICECandidate != nil {
			events.OnICECandidate(candidate.ToJSON())
		}
	})

	pc.OnICEGatheringStateChange(func(state webrtc.ICEGatheringState) {
		if state == webrtc.ICEGatheringStateComplete && events.OnGatheringComplete != nil {
			events.OnGatheringComplete()
		}
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		if events.OnStateChange != nil {
			events.OnStateChange(toDomainState(state))
		}
	})

	pc.OnTrack(func(remote *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		go s.readRemoteTrack(remote, events.OnAudio)
	})

	return s, nil
}

type pionSession struct {
	pc    *webrtc.PeerConnection
	track *webrtc.TrackLocalStaticRTP
	seq   uint32
}

func (s *pionSession) CreateOffer() (webrtc.SessionDescription, error) {
	offer, err := s.pc.CreateOffer(nil)
	if err != nil {
		return webrtc.SessionDescription{}, err
	}
	if err := s.pc.SetLocalDescription(offer); err != nil {
		return webrtc.SessionDescription{}, err
	}
	return offer, nil
}

func (s *pionSession) SetRemoteDescription(answer webrtc.SessionDescription) error {
	return s.pc.SetRemoteDescription(answer)
}

func (s *pionSession) AddICECandidate(candidate webrtc.ICECandidateInit) error {
	return s.pc.AddICECandidate(candidate)
}

// SendAudio writes one audio frame with the relay-supplied timestamp.
// The track binding rewrites SSRC and payload type on the way out.
func (s *pionSession) SendAudio(payload []byte, timestamp uint32) error {
	seq := uint16(atomic.AddUint32(&s.seq, 1))
	return s.track.WriteRTP(&rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			SequenceNumber: seq,
			Timestamp:      timestamp,
		},
		Payload: payload,
	})
}

func (s *pionSession) Close() error {
	return s.pc.Close()
}

func (s *pionSession) readRemoteTrack(remote *webrtc.TrackRemote, onAudio func([]byte)) {
	for {
		pkt, _, err := remote.ReadRTP()
		if err != nil {
			return
		}
		if onAudio == nil || len(pkt.Payload) == 0 {
			continue
		}
		payload := make([]byte, len(pkt.Payload))
		copy(payload, pkt.Payload)
		onAudio(payload)
	}
}

// drainRTCP keeps the interceptor pipeline fed and counts what recipients
// report back.
func (s *pionSession) drainRTCP(sender *webrtc.RTPSender) {
	buf := make([]byte, rtcpBufferSize)
	for {
		n, _, err := sender.Read(buf)
		if err != nil {
			return
		}
		packets, err := rtcp.Unmarshal(buf[:n])
		if err != nil {
			continue
		}
		for _, pkt := range packets {
			switch pkt.(type) {
			case *rtcp.TransportLayerNack:
				metrics.RTCPPacketsTotal.WithLabelValues("nack").Inc()
			case *rtcp.ReceiverReport:
				metrics.RTCPPacketsTotal.WithLabelValues("receiver_report").Inc()
			default:
				metrics.RTCPPacketsTotal.WithLabelValues("other").Inc()
			}
		}
	}
}

func toDomainState(state webrtc.PeerConnectionState) domain.ConnectionState {
	switch state {
	case webrtc.PeerConnectionStateConnecting:
		return domain.ConnectionStateConnecting
	case webrtc.PeerConnectionStateConnected:
		return domain.ConnectionStateConnected
	case webrtc.PeerConnectionStateDisconnected:
		return domain.ConnectionStateDisconnected
	case webrtc.PeerConnectionStateFailed:
		return domain.ConnectionStateFailed
	case webrtc.PeerConnectionStateClosed:
		return domain.ConnectionStateClosed
	default:
		return domain.ConnectionStateNew
	}
}
