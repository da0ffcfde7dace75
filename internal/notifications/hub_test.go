package notifications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupHub_BroadcastOnlyReachesGroup(t *testing.T) {
	t.Parallel()
	hub := NewGroupHub()

	a, err := hub.Register(1, nil)
	require.NoError(t, err)
	b, err := hub.Register(1, nil)
	require.NoError(t, err)
	other, err := hub.Register(2, nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	delivered := hub.Broadcast(1, []byte("hello"))
	assert.Equal(t, 2, delivered)
	assert.Equal(t, []byte("hello"), <-a.Send)
	assert.Equal(t, []byte("hello"), <-b.Send)
	assert.Empty(t, other.Send)
}

func TestGroupHub_UnregisterClosesSendOnce(t *testing.T) {
	t.Parallel()
	hub := NewGroupHub()

	c, err := hub.Register(3, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, hub.ClientCount(3))

	hub.UnregisterClient(c)
	hub.UnregisterClient(c)
	assert.Equal(t, 0, hub.ClientCount(3))

	_, open := <-c.Send
	assert.False(t, open)
	assert.Equal(t, 0, hub.Broadcast(3, []byte("x")))
}

func TestGroupHub_DropsWhenBufferFull(t *testing.T) {
	t.Parallel()
	hub := NewGroupHub()

	c, err := hub.Register(4, nil)
	require.NoError(t, err)
	for i := 0; i < sendBuffer; i++ {
		require.Equal(t, 1, hub.Broadcast(4, []byte("m")))
	}
	assert.Equal(t, 0, hub.Broadcast(4, []byte("overflow")))
	assert.Len(t, c.Send, sendBuffer)
}

func TestGroupHub_GroupLimit(t *testing.T) {
	t.Parallel()
	hub := NewGroupHub()

	for i := 0; i < maxConnsPerGroup; i++ {
		_, err := hub.Register(5, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(5, nil)
	assert.ErrorIs(t, err, ErrGroupConnLimit)

	_, err = hub.Register(6, nil)
	assert.NoError(t, err)
}

func TestGroupHub_ShutdownRejectsNewClients(t *testing.T) {
	t.Parallel()
	hub := NewGroupHub()

	c, err := hub.Register(7, nil)
	require.NoError(t, err)
	require.NoError(t, hub.Shutdown(context.Background()))
	require.NoError(t, hub.Shutdown(context.Background()))

	_, open := <-c.Send
	assert.False(t, open)
	_, err = hub.Register(7, nil)
	assert.ErrorIs(t, err, ErrHubClosed)

	// A late unregister from the client's read pump must not panic.
	hub.UnregisterClient(c)
}
