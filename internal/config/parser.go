package config

import (
	"net/netip"

	"github.com/pion/webrtc/v4"

	"voice-relay/internal/api"
)

type RawServerConfig struct {
	Port         *int    `yaml:"port" json:"port"`
	PublicIP     *string `yaml:"publicIp" json:"publicIp"`
	PingInterval *int    `yaml:"pingInterval" json:"pingInterval"`
}

func (r RawServerConfig) ToDomain() ServerConfig {
	var cfg ServerConfig
	if r.Port != nil {
		cfg.Port = *r.Port
	}
	if r.PublicIP != nil {
		cfg.PublicIP = *r.PublicIP
	}
	if r.PingInterval != nil {
		cfg.PingInterval = *r.PingInterval
	}
	return cfg
}

type RawSecurityConfig struct {
	AdminCredential   *string   `yaml:"adminCredential" json:"adminCredential"`
	TLSCrtFile        *string   `yaml:"tlsCrtFile" json:"tlsCrtFile"`
	TLSKeyFile        *string   `yaml:"tlsKeyFile" json:"tlsKeyFile"`
	AdminsRawNetworks *[]string `yaml:"adminsNetworks" json:"adminsNetworks"`
}

func (r RawSecurityConfig) ToDomain() (SecurityConfig, error) {
	var cfg SecurityConfig
	cfg.AdminCredential = r.AdminCredential
	cfg.TLSCrtFile = r.TLSCrtFile
	cfg.TLSKeyFile = r.TLSKeyFile

	if r.AdminsRawNetworks != nil {
		nets := make([]netip.Prefix, 0, len(*r.AdminsRawNetworks))
		for _, s := range *r.AdminsRawNetworks {
			p, err := netip.ParsePrefix(s)
			if err != nil {
				return SecurityConfig{}, err
			}
			nets = append(nets, p)
		}
		cfg.AdminsRawNetworks = nets
	}

	return cfg, nil
}

type RawWebRTCConfig struct {
	PortMin              *uint16                   `yaml:"portMin" json:"portMin"`
	PortMax              *uint16                   `yaml:"portMax" json:"portMax"`
	PeerConnectionConfig *api.PeerConnectionConfig `yaml:"peerConnectionConfig" json:"peerConnectionConfig"`
	Codecs               *[]RawCodec               `yaml:"codecs" json:"codecs"`
}

type RawCodec struct {
	Params struct {
		MimeType    string `json:"mimeType" yaml:"mimeType"`
		ClockRate   uint32 `json:"clockRate" yaml:"clockRate"`
		PayloadType uint8  `json:"payloadType" yaml:"payloadType"`
		Channels    uint16 `json:"channels" yaml:"channels"`
	} `json:"params" yaml:"params"`
	Type string `json:"type" yaml:"type"`
}

func (r RawWebRTCConfig) ToDomain() WebRTCConfig {
	var cfg WebRTCConfig
	if r.PortMin != nil {
		cfg.PortMin = *r.PortMin
	}
	if r.PortMax != nil {
		cfg.PortMax = *r.PortMax
	}
	if r.PeerConnectionConfig != nil {
		cfg.PeerConnectionConfig = *r.PeerConnectionConfig
	}
	if r.Codecs != nil {
		cfg.Codecs = parseCodecs(*r.Codecs)
	}
	return cfg
}

type RawRelayConfig struct {
	TickIntervalMs  *int    `yaml:"tickIntervalMs" json:"tickIntervalMs"`
	TimestampStep   *uint32 `yaml:"timestampStep" json:"timestampStep"`
	MaxQueuePackets *int    `yaml:"maxQueuePackets" json:"maxQueuePackets"`
	MultiRoom       *bool   `yaml:"multiRoom" json:"multiRoom"`
}

func (r RawRelayConfig) ToDomain() RelayConfig {
	var cfg RelayConfig
	if r.TickIntervalMs != nil {
		cfg.TickIntervalMs = *r.TickIntervalMs
	}
	if r.TimestampStep != nil {
		cfg.TimestampStep = *r.TimestampStep
	}
	if r.MaxQueuePackets != nil {
		cfg.MaxQueuePackets = *r.MaxQueuePackets
	}
	if r.MultiRoom != nil {
		cfg.MultiRoom = *r.MultiRoom
	}
	return cfg
}

func parseCodecs(rawCodecs []RawCodec) []Codec {
	result := make([]Codec, 0, len(rawCodecs))

	for _, rawCodec := range rawCodecs {
		capability := webrtc.RTPCodecCapability{
			MimeType:  rawCodec.Params.MimeType,
			ClockRate: rawCodec.Params.ClockRate,
			Channels:  rawCodec.Params.Channels,
		}

		params := webrtc.RTPCodecParameters{
			RTPCodecCapability: capability,
			PayloadType:        webrtc.PayloadType(rawCodec.Params.PayloadType),
		}

		result = append(result, Codec{Params: params, Type: webrtc.NewRTPCodecType(rawCodec.Type)})
	}

	return result
}
