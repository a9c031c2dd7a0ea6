package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryDeliversInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	at := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, q.Publish(ctx, Message{Kind: KindMarkAttendance, StudentID: 1, At: at}))
	require.NoError(t, q.Publish(ctx, Message{Kind: KindMarkAttendance, StudentID: 2, At: at}))

	msgs, err := q.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), (<-msgs).StudentID)
	assert.Equal(t, int64(2), (<-msgs).StudentID)
}

func TestInMemoryConsumeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := NewInMemory(1)
	msgs, err := q.Consume(ctx)
	require.NoError(t, err)

	cancel()
	select {
	case _, open := <-msgs:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("consumer channel not closed after cancel")
	}
}

func TestInMemoryPublishHonoursContext(t *testing.T) {
	q := NewInMemory(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, q.Publish(ctx, Message{Kind: KindMarkAttendance}), context.Canceled)
}

func TestEncodeDecode(t *testing.T) {
	at := time.Date(2024, 3, 5, 7, 45, 0, 0, time.UTC)
	payload, err := Encode(Message{Kind: KindMarkAttendance, StudentID: 9, At: at})
	require.NoError(t, err)

	msg, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, int64(9), msg.StudentID)
	assert.True(t, at.Equal(msg.At))

	_, err = Decode("checkin|abc")
	assert.Error(t, err)
	_, err = Decode(`{"student_id": 3}`)
	assert.Error(t, err)
}
