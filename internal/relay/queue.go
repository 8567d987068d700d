package relay

import "sync"

type packet struct {
	senderID string
	payload  []byte
}

// packetQueue is a bounded FIFO of audio packets waiting for the next tick.
// Push never blocks; when the queue is full the packet is rejected.
type packetQueue struct {
	mu      sync.Mutex
	packets []packet
	limit   int
}

func newPacketQueue(limit int) *packetQueue {
	return &packetQueue{limit: limit}
}

func (q *packetQueue) Push(p packet) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.limit > 0 && len(q.packets) >= q.limit {
		return false
	}
	q.packets = append(q.packets, p)
	return true
}

// Drain returns all queued packets in arrival order and empties the queue.
func (q *packetQueue) Drain() []packet {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.packets) == 0 {
		return nil
	}
	drained := q.packets
	q.packets = nil
	return drained
}

func (q *packetQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.packets)
}
