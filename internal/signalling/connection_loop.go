package signalling

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"voice-relay/internal/api"
	"voice-relay/internal/sockets"
)

// ConnectionLoop owns the outbound side of one client connection: a buffered
// writer goroutine and a periodic ping goroutine.
type ConnectionLoop struct {
	socket     sockets.Socket
	socketID   sockets.SocketID
	messages   chan interface{}
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	pingTicker *time.Ticker
}

func NewConnectionLoop(socket sockets.Socket, socketID sockets.SocketID, pingInterval time.Duration) *ConnectionLoop {
	ctx, cancel := context.WithCancel(context.Background())
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &ConnectionLoop{
		socket:     socket,
		socketID:   socketID,
		messages:   make(chan interface{}, 10),
		ctx:        ctx,
		cancel:     cancel,
		pingTicker: time.NewTicker(pingInterval),
	}
}

func (l *ConnectionLoop) Start() {
	l.wg.Add(2)
	go l.messageWriterLoop()
	go l.pingLoop()
}

// Stop cancels both goroutines and waits for them. The messages channel is
// never closed: transport callbacks may still call SendMessage after Stop,
// and those sends must be dropped, not panic.
func (l *ConnectionLoop) Stop() {
	l.cancel()
	l.pingTicker.Stop()
	l.wg.Wait()
}

// SendMessage queues a message for the writer. Safe from any goroutine at
// any time; after Stop the message is discarded.
func (l *ConnectionLoop) SendMessage(msg interface{}) {
	select {
	case l.messages <- msg:
	case <-l.ctx.Done():
	}
}

func (l *ConnectionLoop) messageWriterLoop() {
	defer l.wg.Done()

	for {
		select {
		case msg := <-l.messages:
			if err := l.socket.WriteJSON(msg); err != nil {
				slog.Error("failed to send message to client", "socketID", l.socketID, "error", err)
				return
			}
		case <-l.ctx.Done():
			return
		}
	}
}

func (l *ConnectionLoop) pingLoop() {
	defer l.wg.Done()

	for {
		select {
		case <-l.pingTicker.C:
			if err := l.socket.WriteJSON(api.ClientMessage{
				Event: api.ClientMessageEventPing,
				Ping:  &api.PingMessage{Timestamp: time.Now().Unix()},
			}); err != nil {
				slog.Error("failed to send ping", "socketID", l.socketID, "error", err)
				return
			}
		case <-l.ctx.Done():
			return
		}
	}
}
