package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hong-ai/hong/internal/models"
)

// receive pulls one message off a client channel or fails the test
func receive(t *testing.T, ch chan SSEMessage) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message arrived")
		return SSEMessage{}
	}
}

func TestEventsBroadcast(t *testing.T) {
	h := NewEventsHandler()
	defer h.Stop()

	ch := make(chan SSEMessage, 100)
	h.addClient("ui-1", ch)
	require.Equal(t, 1, h.ClientCount())

	h.EmitWorktreeCreated("chat-1", "/work/wt", "hong/fix-login")

	msg := receive(t, ch)
	assert.Equal(t, WorktreeCreatedEvent, msg.Event.Type)
	assert.NotEmpty(t, msg.ID)
	assert.NotZero(t, msg.Timestamp)

	payload, ok := msg.Event.Payload.(WorktreeCreatedPayload)
	require.True(t, ok)
	assert.Equal(t, "chat-1", payload.ChatID)
	assert.Equal(t, "hong/fix-login", payload.Branch)
}

func TestEventsEmitterCoverage(t *testing.T) {
	h := NewEventsHandler()
	defer h.Stop()

	ch := make(chan SSEMessage, 100)
	h.addClient("ui-1", ch)

	now := time.Now()
	h.EmitChatUpdated(&models.Chat{ID: "chat-1", Name: "test", CreatedAt: now})
	assert.Equal(t, ChatUpdatedEvent, receive(t, ch).Event.Type)

	h.EmitChangeBatch(models.ChangeBatch{
		WorktreePath: "/work/wt",
		Changes:      []models.Change{{Path: ".git/index", Type: models.ChangeModify}},
		Timestamp:    now.UnixMilli(),
	})
	msg := receive(t, ch)
	assert.Equal(t, WorktreeChangesEvent, msg.Event.Type)
	batch, ok := msg.Event.Payload.(models.ChangeBatch)
	require.True(t, ok)
	assert.Equal(t, "/work/wt", batch.WorktreePath)

	h.EmitWorktreeDeleted("chat-1", "/work/wt")
	assert.Equal(t, WorktreeDeletedEvent, receive(t, ch).Event.Type)

	h.EmitWorkspaceMoved("chat-1", "/work/wt", "/work/elsewhere")
	msg = receive(t, ch)
	assert.Equal(t, WorkspaceMovedEvent, msg.Event.Type)
	moved, ok := msg.Event.Payload.(WorkspaceMovedPayload)
	require.True(t, ok)
	assert.Equal(t, "/work/elsewhere", moved.NewPath)
}

func TestEventsDropsStalledClients(t *testing.T) {
	h := NewEventsHandler()
	defer h.Stop()

	// Tiny buffer stands in for a client that stopped draining
	stalled := make(chan SSEMessage, 1)
	h.addClient("stalled", stalled)

	healthy := make(chan SSEMessage, 100)
	h.addClient("healthy", healthy)

	// Age the stalled client past its connection grace period
	h.clientsMux.Lock()
	h.clientConnectTimes["stalled"] = time.Now().Add(-10 * time.Second)
	h.clientsMux.Unlock()

	h.EmitWorktreeDeleted("chat-1", "/work/wt") // fills the stalled buffer
	h.EmitWorktreeDeleted("chat-2", "/work/wt2")

	assert.Equal(t, 1, h.ClientCount(), "stalled client should be dropped")
	receive(t, healthy)
	receive(t, healthy)
}

func TestEventsStalledClientGracePeriod(t *testing.T) {
	h := NewEventsHandler()
	defer h.Stop()

	// Full buffer, but the client only just connected
	fresh := make(chan SSEMessage, 1)
	h.addClient("fresh", fresh)

	h.EmitWorktreeDeleted("chat-1", "/work/wt")
	h.EmitWorktreeDeleted("chat-2", "/work/wt2")

	assert.Equal(t, 1, h.ClientCount(), "freshly connected clients survive a full buffer")
}

func TestEventsRemoveClientIdempotent(t *testing.T) {
	h := NewEventsHandler()
	defer h.Stop()

	ch := make(chan SSEMessage, 100)
	h.addClient("ui-1", ch)
	h.removeClient("ui-1")
	h.removeClient("ui-1")

	assert.Equal(t, 0, h.ClientCount())
	_, open := <-ch
	assert.False(t, open, "channel is closed on removal")
}

func TestEventsStop(t *testing.T) {
	h := NewEventsHandler()

	ch := make(chan SSEMessage, 100)
	h.addClient("ui-1", ch)

	h.Stop()
	assert.Equal(t, 0, h.ClientCount())

	// Emitting after shutdown is a no-op
	h.EmitWorktreeCreated("chat-1", "/work/wt", "hong/x")
}

func TestHeartbeatShape(t *testing.T) {
	h := NewEventsHandler()
	defer h.Stop()

	beat := h.makeHeartbeat()
	assert.Equal(t, HeartbeatEvent, beat.Event.Type)
	assert.NotEmpty(t, beat.ID)

	payload, ok := beat.Event.Payload.(HeartbeatPayload)
	require.True(t, ok)
	assert.NotZero(t, payload.Timestamp)
	assert.GreaterOrEqual(t, payload.Uptime, int64(0))
}
