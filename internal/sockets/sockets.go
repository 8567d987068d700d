package sockets

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
)

type SocketID string

// Socket wraps a websocket connection. Writes are serialized internally so
// broadcast and per-connection goroutines can share one socket.
type Socket interface {
	ID() SocketID
	WriteJSON(v interface{}) error
	ReadJSON(v interface{}) error
	Close() error
}

type socketImpl struct {
	id      SocketID
	ws      *websocket.Conn
	writeMu sync.Mutex
}

func NewSocket(conn *websocket.Conn) Socket {
	return &socketImpl{
		id: SocketID(conn.NetConn().RemoteAddr().String()),
		ws: conn,
	}
}

func (s *socketImpl) ID() SocketID {
	return s.id
}

func (s *socketImpl) WriteJSON(v interface{}) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.ws.WriteJSON(v)
}

func (s *socketImpl) ReadJSON(v interface{}) error {
	return s.ws.ReadJSON(v)
}

func (s *socketImpl) Close() error {
	return s.ws.Close()
}
