package sockets

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
)

type SocketPool struct {
	mutex   sync.Mutex
	sockets map[SocketID]Socket
}

func NewSocketPool() *SocketPool {
	return &SocketPool{
		sockets: make(map[SocketID]Socket),
	}
}

func (p *SocketPool) AddSocket(conn *websocket.Conn) Socket {
	soc := NewSocket(conn)

	p.mutex.Lock()
	defer p.mutex.Unlock()
	if oldConn, contains := p.sockets[soc.ID()]; contains {
		_ = oldConn.Close()
	}
	p.sockets[soc.ID()] = soc
	return soc
}

func (p *SocketPool) GetSocket(id SocketID) Socket {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if conn, contains := p.sockets[id]; contains {
		return conn
	}
	return nil
}

func (p *SocketPool) CloseSocket(id SocketID) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if oldConn, contains := p.sockets[id]; contains {
		_ = oldConn.Close()
		delete(p.sockets, id)
	}
}

// Broadcast sends the message to every socket in the pool.
func (p *SocketPool) Broadcast(v interface{}) {
	p.mutex.Lock()
	targets := make([]Socket, 0, len(p.sockets))
	for _, soc := range p.sockets {
		targets = append(targets, soc)
	}
	p.mutex.Unlock()

	for _, soc := range targets {
		_ = soc.WriteJSON(v)
	}
}

func (p *SocketPool) Len() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.sockets)
}

func (p *SocketPool) Close() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	for _, conn := range p.sockets {
		_ = conn.Close()
	}
	p.sockets = make(map[SocketID]Socket)
}
