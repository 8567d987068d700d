package relay

import (
	"log/slog"
	"sync/atomic"
	"time"

	"voice-relay/internal/metrics"
	"voice-relay/internal/utils"
)

const (
	// DefaultTickInterval is the fan-out cadence, one packetization window.
	DefaultTickInterval = 20 * time.Millisecond

	// DefaultTimestampStep is the RTP timestamp increment per tick for
	// 8 kHz audio with 20 ms frames.
	DefaultTimestampStep = 160

	// DefaultQueueLimit bounds each room's packet queue.
	DefaultQueueLimit = 512
)

// Engine forwards queued audio packets to every other member of a room on a
// fixed cadence. Each room has its own queue, recipient set and timestamp
// counter, so rooms never contend with each other.
type Engine struct {
	rooms *utils.SyncMapWrapper[string, *roomState]

	tickInterval time.Duration
	step         uint32
	queueLimit   int

	timer        utils.IntervalTimer
	tickInFlight int32
	started      int32
}

type Option func(*Engine)

func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.tickInterval = d
		}
	}
}

func WithTimestampStep(step uint32) Option {
	return func(e *Engine) {
		if step > 0 {
			e.step = step
		}
	}
}

func WithQueueLimit(limit int) Option {
	return func(e *Engine) {
		if limit > 0 {
			e.queueLimit = limit
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rooms:        utils.NewSyncMapWrapper[string, *roomState](),
		tickInterval: DefaultTickInterval,
		step:         DefaultTimestampStep,
		queueLimit:   DefaultQueueLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the tick loop. Calling Start twice is a no-op.
func (e *Engine) Start() {
	if !atomic.CompareAndSwapInt32(&e.started, 0, 1) {
		return
	}
	e.timer = utils.SetIntervalTimer(e.tickInterval, e.tick)
	slog.Info("relay engine started", "tickInterval", e.tickInterval, "timestampStep", e.step)
}

// Stop halts the tick loop. Queued packets and room state stay in place so
// the engine can be restarted in tests.
func (e *Engine) Stop() {
	if !atomic.CompareAndSwapInt32(&e.started, 1, 0) {
		return
	}
	e.timer.Stop()
	slog.Info("relay engine stopped")
}

// Ingest queues an audio packet for fan-out on the next tick. Packets for
// rooms over their queue limit are dropped.
func (e *Engine) Ingest(roomID, senderID string, payload []byte) {
	room := e.room(roomID)

	if !room.queue.Push(packet{senderID: senderID, payload: payload}) {
		metrics.RelayPacketsDroppedTotal.Inc()
		return
	}
	metrics.RelayPacketsIngestedTotal.Inc()
}

// Attach registers a recipient for a room. Attaching the same user again
// replaces the previous sender.
func (e *Engine) Attach(roomID, userID string, sender AudioSender) {
	e.room(roomID).attach(userID, sender)
	slog.Debug("attached to relay", "roomID", roomID, "userID", userID)
}

// Detach removes a recipient. Detaching a user that was never attached is
// a no-op. Detach blocks until any in-flight fan-out for the room finishes,
// so once it returns the user receives nothing further.
func (e *Engine) Detach(roomID, userID string) {
	room, ok := e.rooms.Load(roomID)
	if !ok {
		return
	}
	room.detach(userID)
	slog.Debug("detached from relay", "roomID", roomID, "userID", userID)
}

// DetachUser removes the user from every room's recipient set. Used when a
// session goes away and the user's room memberships are unknown or stale.
func (e *Engine) DetachUser(userID string) {
	e.rooms.Range(func(_ string, room *roomState) bool {
		room.detach(userID)
		return true
	})
}

// DropRoom discards a room's queue, recipients and timestamp counter.
// Called when the room itself is deleted.
func (e *Engine) DropRoom(roomID string) {
	e.rooms.Delete(roomID)
	slog.Debug("dropped relay room", "roomID", roomID)
}

func (e *Engine) room(roomID string) *roomState {
	if room, ok := e.rooms.Load(roomID); ok {
		return room
	}
	room, _ := e.rooms.LoadOrStore(roomID, newRoomState(e.queueLimit))
	return room
}

// tick guards against overlap: if the previous tick is still draining,
// this one is skipped entirely.
func (e *Engine) tick() {
	if !atomic.CompareAndSwapInt32(&e.tickInFlight, 0, 1) {
		metrics.RelayTicksSkippedTotal.Inc()
		return
	}
	defer atomic.StoreInt32(&e.tickInFlight, 0)

	start := time.Now()
	e.runTick()
	metrics.RelayTickDuration.Observe(time.Since(start).Seconds())
}

// runTick advances every room's timestamp by one step and fans out all
// queued packets to every member except the packet's sender. A failed send
// to one recipient never affects the others.
func (e *Engine) runTick() {
	e.rooms.Range(func(roomID string, room *roomState) bool {
		timestamp := room.advance(e.step)

		packets := room.queue.Drain()
		if len(packets) == 0 {
			return true
		}

		room.fanOut(roomID, packets, timestamp)
		return true
	})
}
