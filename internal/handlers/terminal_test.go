package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalRoutes(t *testing.T) {
	f := newHandlerFixture(t)
	workDir := t.TempDir()

	var session terminalSessionInfo
	resp := f.request(t, "POST", "/v1/terminal", map[string]string{
		"workspace_id": "chat-1",
		"workdir":      workDir,
	})
	require.Equal(t, 200, resp.StatusCode)
	decodeBody(t, resp, &session)
	require.NotEmpty(t, session.ID)
	assert.Equal(t, "chat-1", session.WorkspaceID)
	assert.Equal(t, workDir, session.WorkDir)
	assert.True(t, session.Running)

	t.Run("list", func(t *testing.T) {
		var sessions []terminalSessionInfo
		resp := f.request(t, "GET", "/v1/terminal", nil)
		require.Equal(t, 200, resp.StatusCode)
		decodeBody(t, resp, &sessions)
		require.Len(t, sessions, 1)
		assert.Equal(t, session.ID, sessions[0].ID)
		assert.True(t, sessions[0].Running)
	})

	t.Run("kill by workspace", func(t *testing.T) {
		var body struct {
			Killed int `json:"killed"`
		}
		resp := f.request(t, "POST", "/v1/workspaces/chat-1/kill-terminals", nil)
		require.Equal(t, 200, resp.StatusCode)
		decodeBody(t, resp, &body)
		assert.Equal(t, 1, body.Killed)
	})

	t.Run("close after kill is a 404", func(t *testing.T) {
		resp := f.request(t, "DELETE", "/v1/terminal/"+session.ID, nil)
		assert.Equal(t, 404, resp.StatusCode)
	})
}

func TestTerminalRoutesValidateInput(t *testing.T) {
	f := newHandlerFixture(t)

	t.Run("missing workdir", func(t *testing.T) {
		resp := f.request(t, "POST", "/v1/terminal", map[string]string{"workspace_id": "x"})
		assert.Equal(t, 400, resp.StatusCode)
	})

	t.Run("unknown session", func(t *testing.T) {
		resp := f.request(t, "DELETE", "/v1/terminal/nope", nil)
		assert.Equal(t, 404, resp.StatusCode)
	})

	t.Run("websocket route requires upgrade", func(t *testing.T) {
		resp := f.request(t, "GET", "/v1/terminal/nope/ws", nil)
		assert.Equal(t, 426, resp.StatusCode)
	})
}
