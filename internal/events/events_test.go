package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubPublishFanout(t *testing.T) {
	h := NewHub()
	a := h.Subscribe()
	b := h.Subscribe()

	h.Publish("hola")

	assert.Equal(t, "hola", <-a)
	assert.Equal(t, "hola", <-b)

	h.Unsubscribe(b)
	h.Publish("otra")
	assert.Equal(t, "otra", <-a)

	// unsubscribed channel is closed
	_, open := <-b
	assert.False(t, open)
}

func TestHubDropsWhenSlow(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()

	// channel buffer is 10; extra messages must not block the publisher
	for i := 0; i < 50; i++ {
		h.Publish("m")
	}
	assert.Len(t, ch, 10)
}

func TestMakeEventEnvelope(t *testing.T) {
	s := MakeEvent("req-1", TypeSearchCompleted, 1, map[string]any{"total": 3})

	var e Event
	require.NoError(t, json.Unmarshal([]byte(s), &e))
	assert.Equal(t, TypeSearchCompleted, e.Type)
	assert.Equal(t, 1, e.Version)
	assert.Equal(t, "req-1", e.RequestID)
	assert.False(t, e.At.IsZero())

	var data map[string]any
	require.NoError(t, json.Unmarshal(e.Data, &data))
	assert.Equal(t, float64(3), data["total"])
}

func TestMakeEventNilData(t *testing.T) {
	s := MakeEvent("", "ping", 1, nil)
	var e Event
	require.NoError(t, json.Unmarshal([]byte(s), &e))
	assert.Empty(t, e.Data)
}
