package config

import (
	"net/netip"
	"time"

	"github.com/pion/webrtc/v4"

	"voice-relay/internal/api"
)

type AppConfig struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Security SecurityConfig `json:"security" yaml:"security"`
	WebRTC   WebRTCConfig   `json:"webrtc" yaml:"webrtc"`
	Relay    RelayConfig    `json:"relay" yaml:"relay"`
}

type ServerConfig struct {
	Port         int    `json:"port" yaml:"port"`
	PublicIP     string `json:"publicIp" yaml:"publicIp"`
	PingInterval int    `json:"pingInterval" yaml:"pingInterval"`
}

type SecurityConfig struct {
	AdminCredential   *string        `json:"adminCredential" yaml:"adminCredential"`
	TLSCrtFile        *string        `json:"tlsCrtFile" yaml:"tlsCrtFile"`
	TLSKeyFile        *string        `json:"tlsKeyFile" yaml:"tlsKeyFile"`
	AdminsRawNetworks []netip.Prefix `json:"adminsNetworks" yaml:"adminsNetworks"`
}

type WebRTCConfig struct {
	PortMin              uint16                   `json:"portMin" yaml:"portMin"`
	PortMax              uint16                   `json:"portMax" yaml:"portMax"`
	PeerConnectionConfig api.PeerConnectionConfig `json:"peerConnectionConfig" yaml:"peerConnectionConfig"`
	Codecs               []Codec                  `json:"codecs" yaml:"codecs"`
}

type RelayConfig struct {
	TickIntervalMs  int    `json:"tickIntervalMs" yaml:"tickIntervalMs"`
	TimestampStep   uint32 `json:"timestampStep" yaml:"timestampStep"`
	MaxQueuePackets int    `json:"maxQueuePackets" yaml:"maxQueuePackets"`
	MultiRoom       bool   `json:"multiRoom" yaml:"multiRoom"`
}

func (r RelayConfig) TickInterval() time.Duration {
	return time.Duration(r.TickIntervalMs) * time.Millisecond
}

type Codec struct {
	Params webrtc.RTPCodecParameters `json:"params"`
	Type   webrtc.RTPCodecType       `json:"type"`
}

func DefaultAppConfig() AppConfig {
	return AppConfig{
		Server: ServerConfig{
			Port:         13478,
			PublicIP:     "",
			PingInterval: 30000,
		},
		Security: SecurityConfig{
			AdminCredential: nil,
			AdminsRawNetworks: []netip.Prefix{
				netip.MustParsePrefix("0.0.0.0/0"),
			},
			TLSCrtFile: nil,
			TLSKeyFile: nil,
		},
		WebRTC: WebRTCConfig{
			PortMin:              10000,
			PortMax:              20000,
			PeerConnectionConfig: api.DefaultPeerConnectionConfig(),
			Codecs:               DefaultCodecs(),
		},
		Relay: RelayConfig{
			TickIntervalMs:  20,
			TimestampStep:   160,
			MaxQueuePackets: 512,
			MultiRoom:       false,
		},
	}
}

func DefaultCodecs() []Codec {
	return []Codec{
		{
			Params: webrtc.RTPCodecParameters{
				RTPCodecCapability: webrtc.RTPCodecCapability{
					MimeType:  "audio/PCMU",
					ClockRate: 8000,
					Channels:  1,
				},
				PayloadType: 0,
			},
			Type: webrtc.RTPCodecTypeAudio,
		},
		{
			Params: webrtc.RTPCodecParameters{
				RTPCodecCapability: webrtc.RTPCodecCapability{
					MimeType:  "audio/opus",
					ClockRate: 48000,
					Channels:  2,
				},
				PayloadType: 111,
			},
			Type: webrtc.RTPCodecTypeAudio,
		},
	}
}
