package api

import (
	"encoding/json"
	"fmt"

	"github.com/pion/webrtc/v4"
	"gopkg.in/yaml.v3"
)

// ICEServer mirrors the RTCIceServer dictionary handed to browser clients.
// The urls field accepts either a single string or a list of strings.
type ICEServer struct {
	URLs       []string `json:"urls" yaml:"urls"`
	Username   *string  `json:"username,omitempty" yaml:"username"`
	Credential *string  `json:"credential,omitempty" yaml:"credential"`
}

func (s *ICEServer) UnmarshalJSON(data []byte) error {
	var raw struct {
		URLs       json.RawMessage `json:"urls"`
		Username   *string         `json:"username"`
		Credential *string         `json:"credential"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.Username = raw.Username
	s.Credential = raw.Credential
	s.URLs = nil

	if len(raw.URLs) == 0 {
		return fmt.Errorf("ice server is missing urls")
	}

	var single string
	if err := json.Unmarshal(raw.URLs, &single); err == nil {
		s.URLs = []string{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(raw.URLs, &many); err != nil {
		return fmt.Errorf("ice server urls must be a string or a list of strings: %w", err)
	}
	s.URLs = many
	return nil
}

func (s *ICEServer) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		URLs       yaml.Node `yaml:"urls"`
		Username   *string   `yaml:"username"`
		Credential *string   `yaml:"credential"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	s.Username = raw.Username
	s.Credential = raw.Credential
	s.URLs = nil

	switch raw.URLs.Kind {
	case yaml.ScalarNode:
		var single string
		if err := raw.URLs.Decode(&single); err != nil {
			return err
		}
		s.URLs = []string{single}
	case yaml.SequenceNode:
		if err := raw.URLs.Decode(&s.URLs); err != nil {
			return err
		}
	default:
		return fmt.Errorf("ice server urls must be a string or a list of strings")
	}
	return nil
}

// PeerConnectionConfig is the subset of RTCConfiguration that the server both
// applies to its own peer connections and pushes to clients in init_peer.
type PeerConnectionConfig struct {
	IceServers []ICEServer `json:"iceServers" yaml:"iceServers"`
}

func DefaultPeerConnectionConfig() PeerConnectionConfig {
	return PeerConnectionConfig{
		IceServers: []ICEServer{
			{URLs: []string{"stun:stun.l.google.com:19302"}},
		},
	}
}

// WebrtcConfiguration converts the wire config into a pion configuration.
func (c PeerConnectionConfig) WebrtcConfiguration() webrtc.Configuration {
	servers := make([]webrtc.ICEServer, 0, len(c.IceServers))
	for _, s := range c.IceServers {
		server := webrtc.ICEServer{URLs: s.URLs}
		if s.Username != nil {
			server.Username = *s.Username
		}
		if s.Credential != nil {
			server.Credential = *s.Credential
		}
		servers = append(servers, server)
	}
	return webrtc.Configuration{ICEServers: servers}
}

type UserInfo struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	RoomID   *string `json:"roomId"`
	InCall   bool    `json:"inCall"`
}

type RoomInfo struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}
