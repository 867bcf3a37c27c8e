package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOccupancyEvent(t *testing.T) {
	event := NewOccupancyEvent(3, 7, 10)
	assert.Equal(t, EventTypeOccupancy, event.Type)
	assert.EqualValues(t, 3, event.SubjectID)
	assert.Equal(t, 3, event.Remaining)
	assert.False(t, event.Timestamp.IsZero())

	assert.Zero(t, NewOccupancyEvent(3, 12, 10).Remaining)
}

func TestHub_PublishDropsWhenQueueFull(t *testing.T) {
	hub := NewHub(2, zerolog.Nop())

	assert.True(t, hub.Publish(NewOccupancyEvent(1, 1, 5)))
	assert.True(t, hub.Publish(NewOccupancyEvent(1, 2, 5)))
	assert.False(t, hub.Publish(NewOccupancyEvent(1, 3, 5)))
	assert.Zero(t, hub.ClientCount())
}

func TestHub_RegisterAfterStop(t *testing.T) {
	hub := NewHub(0, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	// Drained by Run while no clients are connected
	hub.PublishOccupancy(1, 1, 5, 1)

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		require.FailNow(t, "hub did not stop")
	}

	assert.False(t, hub.Register(&Client{send: make(chan []byte, 1)}))
}

func TestHub_SkipsStaleOccupancy(t *testing.T) {
	hub := NewHub(8, zerolog.Nop())
	client := &Client{send: make(chan []byte, 8)}
	hub.clients[client] = struct{}{}

	for _, e := range []struct {
		occupancy int
		version   uint64
	}{{6, 2}, {5, 1}, {7, 3}, {7, 3}} {
		event := NewOccupancyEvent(4, e.occupancy, 10)
		event.Version = e.version
		hub.broadcastEvent(event)
	}
	// Snapshots carry no version and are never skipped
	hub.broadcastEvent(NewOccupancyEvent(4, 7, 10))
	close(client.send)

	var got []Event
	for data := range client.send {
		var event Event
		require.NoError(t, json.Unmarshal(data, &event))
		got = append(got, event)
	}
	require.Len(t, got, 3)
	assert.Equal(t, []int{6, 7, 7}, []int{got[0].Occupancy, got[1].Occupancy, got[2].Occupancy})
	assert.Equal(t, []uint64{2, 3, 0}, []uint64{got[0].Version, got[1].Version, got[2].Version})
}
