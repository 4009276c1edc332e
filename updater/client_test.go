package updater

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, client *Client) *Message {
	t.Helper()

	select {
	case msg, ok := <-client.Messages:
		require.True(t, ok, "messages channel closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestClientReceivesNotificationsInOrder(t *testing.T) {
	c, _ := newTestCoordinator(t)

	first := c.Subscribe()
	second := c.Subscribe()
	defer first.Cancel()
	defer second.Cancel()

	assert.NotEqual(t, first.Id, second.Id)
	assert.Equal(t, 2, c.SessionCount())

	c.CheckForUpdates()
	c.HandleEngineEvent(EngineEvent{Name: EngineUpdateAvailable})
	c.HandleEngineEvent(EngineEvent{Name: EngineDownloadProgress, Progress: &Progress{Percent: 42.5}})
	c.HandleEngineEvent(EngineEvent{Name: EngineUpdateDownloaded})

	for _, client := range []*Client{first, second} {
		assert.Equal(t, &Message{Type: MessageUpdaterMsg, Status: StatusAvailable}, receive(t, client))
		assert.Equal(t, &Message{Type: MessageUpdaterMsg, Status: StatusDownloadProcessing, Progress: "42.50%"}, receive(t, client))
		assert.Equal(t, &Message{Type: MessageReadyToInstall}, receive(t, client))
		assert.Equal(t, &Message{Type: MessageUpdaterMsg, Status: StatusDownloadComplete}, receive(t, client))
	}
}

func TestCancelledClientIsDeregistered(t *testing.T) {
	c, _ := newTestCoordinator(t)

	client := c.Subscribe()
	client.Cancel()
	client.Cancel()

	assert.Equal(t, 0, c.SessionCount())
	assert.Equal(t, ErrClientCancelled, client.NotifyReadyToInstall())

	select {
	case _, ok := <-client.Messages:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("messages channel was not closed")
	}
}
