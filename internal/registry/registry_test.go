package registry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestValidRole(t *testing.T) {
	for _, role := range KnownRoles {
		assert.True(t, ValidRole(role))
	}
	assert.False(t, ValidRole("player3"))
	assert.False(t, ValidRole(""))
}

func TestBroadcastReachesEveryRole(t *testing.T) {
	r := New()
	p1 := r.Register("player1")
	ctrl := r.Register("control")

	r.Broadcast(map[string]any{"type": "phase", "phase": "waiting"})

	assert.Equal(t, "waiting", decode(t, <-p1)["phase"])
	assert.Equal(t, "waiting", decode(t, <-ctrl)["phase"])
}

func TestSendToAbsentRoleIsNoop(t *testing.T) {
	r := New()
	r.SendTo("player2", map[string]any{"type": "message"}) // must not panic
	assert.Equal(t, 0, r.Count())
}

func TestRegisterReplacesExistingConnection(t *testing.T) {
	r := New()
	old := r.Register("player1")
	replacement := r.Register("player1")

	// old client's outbox is closed so its writer pump exits
	_, open := <-old
	assert.False(t, open)

	r.SendTo("player1", map[string]any{"type": "message", "text": "hi"})
	assert.Equal(t, "hi", decode(t, <-replacement)["text"])
	assert.Equal(t, 1, r.Count())
}

func TestUnregisterGuardsAgainstStaleOutbox(t *testing.T) {
	r := New()
	old := r.Register("player1")
	replacement := r.Register("player1")

	// the replaced reader loop dying must not tear down the new connection
	r.Unregister("player1", old)
	assert.Equal(t, 1, r.Count())

	r.Unregister("player1", replacement)
	assert.Equal(t, 0, r.Count())
}

func TestBroadcastPrunesFullClients(t *testing.T) {
	r := New()
	slow := r.Register("spectator1")
	ok := r.Register("control")

	// fill the slow client's outbox without draining it
	for i := 0; i < outboxSize; i++ {
		r.SendTo("spectator1", map[string]any{"n": i})
	}
	r.Broadcast(map[string]any{"type": "timer", "remaining": 1.0})

	assert.Equal(t, 1, r.Count(), "the stuffed client is dropped, the healthy one stays")
	assert.Equal(t, "timer", decode(t, <-ok)["type"])

	// drained messages end with channel close
	for range slow {
	}
}

func TestSendToFullClientDrops(t *testing.T) {
	r := New()
	r.Register("player2")
	for i := 0; i < outboxSize; i++ {
		r.SendTo("player2", map[string]any{"n": i})
	}
	r.SendTo("player2", map[string]any{"n": outboxSize})
	assert.Equal(t, 0, r.Count())
}

func TestBroadcastUnmarshalableMessageIgnored(t *testing.T) {
	r := New()
	ch := r.Register("control")
	r.Broadcast(map[string]any{"bad": func() {}})
	select {
	case data := <-ch:
		t.Fatalf("expected nothing, got %s", data)
	default:
	}
	assert.Equal(t, 1, r.Count())
}
