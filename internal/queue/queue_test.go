package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessageDecode(t *testing.T) {
	msg, err := NewMessage("password_reset", map[string]string{"email": "ana@example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "password_reset", msg.Type)

	var body struct{ Email string }
	require.NoError(t, msg.Decode(&body))
	assert.Equal(t, "ana@example.com", body.Email)
}

func TestInMemoryDelivers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	msg, err := NewMessage("ping", nil)
	require.NoError(t, err)
	require.NoError(t, q.Publish(ctx, msg))

	out, err := q.Consume(ctx)
	require.NoError(t, err)
	select {
	case got := <-out:
		assert.Equal(t, msg.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}

	cancel()
	for range out {
	}
}

func TestInMemoryPublishHonorsContext(t *testing.T) {
	q := NewInMemory(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, q.Publish(ctx, Message{Type: "ping"}), context.Canceled)
}
