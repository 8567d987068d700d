package rtc

import (
	"sync"

	"github.com/pion/webrtc/v4"
)

// candidateBuffer holds server-side ICE candidates until gathering completes.
// Candidates produced after the flush pass straight through to the client.
type candidateBuffer struct {
	mu      sync.Mutex
	pending []webrtc.ICECandidateInit
	flushed bool
}

func newCandidateBuffer() *candidateBuffer {
	return &candidateBuffer{}
}

// Add buffers the candidate and reports whether it was buffered. A false
// return means gathering already finished and the caller should forward the
// candidate immediately.
func (b *candidateBuffer) Add(candidate webrtc.ICECandidateInit) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.flushed {
		return false
	}
	b.pending = append(b.pending, candidate)
	return true
}

// Flush marks gathering as complete and returns everything buffered so far.
func (b *candidateBuffer) Flush() []webrtc.ICECandidateInit {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.flushed = true
	pending := b.pending
	b.pending = nil
	return pending
}

// Discard drops any buffered candidates without flushing them.
func (b *candidateBuffer) Discard() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = nil
}
