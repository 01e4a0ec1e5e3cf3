package libraries

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestHubDeliversOnlyToWatchers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	watcher := NewClient("board-1", nil)
	other := NewClient("board-2", nil)
	hub.Register <- watcher
	hub.Register <- other

	hub.PublishToBoard("board-1", BoardUpdatedMessage(map[string]string{"boardId": "board-1"}))

	var msg WebSocketMessage
	require.NoError(t, json.Unmarshal(receive(t, watcher), &msg))
	assert.Equal(t, WebSocketMessageTypeBoardUpdated, msg.Type)

	select {
	case <-other.Send:
		t.Fatal("client watching another board got the update")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	c := NewClient("board-1", nil)
	hub.Register <- c
	hub.Unregister <- c

	select {
	case _, ok := <-c.Send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
}

func TestHubShutdownClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	c := NewClient("board-1", nil)
	hub.Register <- c
	cancel()
	<-done

	_, ok := <-c.Send
	assert.False(t, ok)
}

func TestHubStoppedDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		// more than the broadcast buffer holds
		for i := 0; i < 100; i++ {
			hub.PublishToBoard("board-1", []byte("{}"))
		}
		assert.ErrorIs(t, hub.Publish(context.Background(), "board-1", []byte("{}")), ErrHubStopped)
		assert.False(t, hub.AddClient(NewClient("board-1", nil)))
		hub.RemoveClient(NewClient("board-1", nil))
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("hub calls blocked after shutdown")
	}
}
