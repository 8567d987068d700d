package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketQueueKeepsArrivalOrder(t *testing.T) {
	q := newPacketQueue(10)

	require.True(t, q.Push(packet{senderID: "a", payload: []byte{1}}))
	require.True(t, q.Push(packet{senderID: "b", payload: []byte{2}}))
	require.True(t, q.Push(packet{senderID: "a", payload: []byte{3}}))

	drained := q.Drain()
	require.Len(t, drained, 3)
	assert.Equal(t, []byte{1}, drained[0].payload)
	assert.Equal(t, []byte{2}, drained[1].payload)
	assert.Equal(t, []byte{3}, drained[2].payload)
}

func TestPacketQueueRejectsWhenFull(t *testing.T) {
	q := newPacketQueue(2)

	require.True(t, q.Push(packet{senderID: "a"}))
	require.True(t, q.Push(packet{senderID: "a"}))
	assert.False(t, q.Push(packet{senderID: "a"}))
	assert.Equal(t, 2, q.Len())
}

func TestPacketQueueDrainEmpties(t *testing.T) {
	q := newPacketQueue(2)
	require.True(t, q.Push(packet{senderID: "a"}))

	assert.Len(t, q.Drain(), 1)
	assert.Nil(t, q.Drain())
	assert.Equal(t, 0, q.Len())

	// a full drain frees capacity again
	require.True(t, q.Push(packet{senderID: "a"}))
	require.True(t, q.Push(packet{senderID: "a"}))
}
