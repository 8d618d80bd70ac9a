package utils

import (
	"testing"

	"github.com/segmentio/analytics-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingClient struct {
	messages []analytics.Message
	closed   bool
}

func (c *recordingClient) Enqueue(message analytics.Message) error {
	c.messages = append(c.messages, message)
	return nil
}

func (c *recordingClient) Close() error {
	c.closed = true
	return nil
}

func TestEventTracker_TrackAndClose(t *testing.T) {
	client := &recordingClient{}
	tracker := &EventTracker{client: client, userId: "user"}

	tracker.Track(EventLoadFinished, map[string]interface{}{"status": "failure"})
	tracker.Close()

	assert.True(t, client.closed)
	require.Len(t, client.messages, 1)

	track, ok := client.messages[0].(analytics.Track)
	require.True(t, ok)
	assert.Equal(t, EventLoadFinished, track.Event)
	assert.Equal(t, "user", track.UserId)
	assert.Equal(t, "failure", track.Properties["status"])
}

func TestEventTracker_Disabled(t *testing.T) {
	tracker := NewEventTracker(Telemetry{Enabled: false, WriteKey: "key"})
	assert.Nil(t, tracker)

	tracker = NewEventTracker(Telemetry{Enabled: true})
	assert.Nil(t, tracker)

	assert.NotPanics(t, func() {
		tracker.Track(EventLoadStarted, nil)
		tracker.Close()
	})
}
