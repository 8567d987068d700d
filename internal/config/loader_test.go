package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadAppConfigDefaults(t *testing.T) {
	cfg, err := LoadAppConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 13478, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Relay.TickIntervalMs)
	assert.Equal(t, uint32(160), cfg.Relay.TimestampStep)
	assert.Equal(t, 512, cfg.Relay.MaxQueuePackets)
	assert.False(t, cfg.Relay.MultiRoom)
	assert.Equal(t, 20*time.Millisecond, cfg.Relay.TickInterval())
	assert.Len(t, cfg.WebRTC.Codecs, 2)
	require.Len(t, cfg.WebRTC.PeerConnectionConfig.IceServers, 1)
}

func TestLoadAppConfigMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "server.yaml", "port: 9000\n")
	writeConfig(t, dir, "relay.yaml", "tickIntervalMs: 40\nmultiRoom: true\n")

	cfg, err := LoadAppConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 40, cfg.Relay.TickIntervalMs)
	assert.True(t, cfg.Relay.MultiRoom)
	// untouched fields keep their defaults
	assert.Equal(t, uint32(160), cfg.Relay.TimestampStep)
	assert.Equal(t, 30000, cfg.Server.PingInterval)
}

func TestLoadAppConfigJSONFallback(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "relay.json", `{"timestampStep": 320}`)

	cfg, err := LoadAppConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, uint32(320), cfg.Relay.TimestampStep)
}

func TestLoadAppConfigParsesIceServers(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "webrtc.yaml", `
peerConnectionConfig:
  iceServers:
    - urls: stun:stun.example.com:3478
    - urls:
        - turn:turn.example.com:3478
      username: u
      credential: p
`)

	cfg, err := LoadAppConfig(dir)
	require.NoError(t, err)

	servers := cfg.WebRTC.PeerConnectionConfig.IceServers
	require.Len(t, servers, 2)
	assert.Equal(t, []string{"stun:stun.example.com:3478"}, servers[0].URLs)
	require.NotNil(t, servers[1].Username)
	assert.Equal(t, "u", *servers[1].Username)
}

func TestLoadAppConfigParsesCodecs(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "webrtc.yaml", `
codecs:
  - params:
      mimeType: audio/PCMU
      clockRate: 8000
      channels: 1
      payloadType: 0
    type: audio
`)

	cfg, err := LoadAppConfig(dir)
	require.NoError(t, err)
	require.Len(t, cfg.WebRTC.Codecs, 1)
	assert.Equal(t, "audio/PCMU", cfg.WebRTC.Codecs[0].Params.MimeType)
	assert.Equal(t, uint32(8000), cfg.WebRTC.Codecs[0].Params.ClockRate)
}

func TestLoadAppConfigSecurityNetworks(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "security.yaml", "adminCredential: secret\nadminsNetworks:\n  - 10.0.0.0/8\n")

	cfg, err := LoadAppConfig(dir)
	require.NoError(t, err)

	require.NotNil(t, cfg.Security.AdminCredential)
	assert.Equal(t, "secret", *cfg.Security.AdminCredential)
	require.Len(t, cfg.Security.AdminsRawNetworks, 1)
	assert.Equal(t, "10.0.0.0/8", cfg.Security.AdminsRawNetworks[0].String())
}

func TestLoadAppConfigBadNetworkFails(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "security.yaml", "adminsNetworks:\n  - not-a-cidr\n")

	_, err := LoadAppConfig(dir)
	assert.Error(t, err)
}

func TestLoadAppConfigEmptyFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "relay.yaml", "")

	cfg, err := LoadAppConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Relay.TickIntervalMs)
}
