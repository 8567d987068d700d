package api

import "github.com/pion/webrtc/v4"

type ClientMessageEvent string

const (
	ClientMessageEventAuth        = ClientMessageEvent("auth")
	ClientMessageEventAuthRequest = ClientMessageEvent("auth:request")
	ClientMessageEventAuthFailed  = ClientMessageEvent("auth:failed")
	ClientMessageEventInitPeer    = ClientMessageEvent("init_peer")

	ClientMessageEventRegister   = ClientMessageEvent("register")
	ClientMessageEventRegistered = ClientMessageEvent("registered")

	ClientMessageEventCreateRoom = ClientMessageEvent("create_room")
	ClientMessageEventJoinRoom   = ClientMessageEvent("join_room")
	ClientMessageEventLeaveRoom  = ClientMessageEvent("leave_room")

	ClientMessageEventUpdateRooms = ClientMessageEvent("update_rooms")
	ClientMessageEventUpdateUsers = ClientMessageEvent("update_users")
	ClientMessageEventUserJoined  = ClientMessageEvent("user_joined")
	ClientMessageEventUserLeft    = ClientMessageEvent("user_left")

	ClientMessageEventOfferRequest = ClientMessageEvent("offer_request")
	ClientMessageEventOffer        = ClientMessageEvent("offer")
	ClientMessageEventOfferFailed  = ClientMessageEvent("offer:failed")
	ClientMessageEventAnswer       = ClientMessageEvent("answer")
	ClientMessageEventClientIce    = ClientMessageEvent("client_ice")
	ClientMessageEventServerIce    = ClientMessageEvent("server_ice")

	ClientMessageEventPing = ClientMessageEvent("ping")
	ClientMessageEventPong = ClientMessageEvent("pong")
)

type ClientMessage struct {
	Event         ClientMessageEvent `json:"event"`
	Auth          *AuthMessage       `json:"auth,omitempty"`
	Register      *RegisterMessage   `json:"register,omitempty"`
	Room          *RoomMessage       `json:"room,omitempty"`
	User          *UserInfo          `json:"user,omitempty"`
	Rooms         []RoomInfo         `json:"rooms,omitempty"`
	Users         []UserInfo         `json:"users,omitempty"`
	Sdp           *SdpMessage        `json:"sdp,omitempty"`
	Ice           *IceMessage        `json:"ice,omitempty"`
	InitPeer      *PcConfigMessage   `json:"initPeer,omitempty"`
	AccessMessage *string            `json:"accessMessage,omitempty"`
	Ping          *PingMessage       `json:"ping,omitempty"`
}

type AuthMessage struct {
	Credential string `json:"credential"`
}

type RegisterMessage struct {
	Username string `json:"username"`
}

type RoomMessage struct {
	RoomID *string `json:"roomId,omitempty"`
	Name   *string `json:"name,omitempty"`
	UserID *string `json:"userId,omitempty"`
}

type SdpMessage struct {
	Description webrtc.SessionDescription `json:"description"`
}

type IceMessage struct {
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

type PcConfigMessage struct {
	PcConfig PeerConnectionConfig `json:"pcConfig"`
}

type PingMessage struct {
	Timestamp int64 `json:"timestamp"`
}
