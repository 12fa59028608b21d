package handlers

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/hong-ai/hong/internal/logger"
	"github.com/hong-ai/hong/internal/services"
)

// TerminalHandler exposes pty-backed shell sessions over HTTP and websocket
type TerminalHandler struct {
	terminals *services.TerminalManager
}

// NewTerminalHandler creates a new terminal handler
func NewTerminalHandler(terminals *services.TerminalManager) *TerminalHandler {
	return &TerminalHandler{terminals: terminals}
}

// RegisterRoutes registers all terminal routes
func (h *TerminalHandler) RegisterRoutes(v1 fiber.Router) {
	v1.Get("/terminal", h.ListSessions)
	v1.Post("/terminal", h.CreateSession)
	v1.Delete("/terminal/:id", h.CloseSession)
	v1.Get("/terminal/:id/ws", h.HandleWebSocket)
	v1.Post("/workspaces/:id/kill-terminals", h.KillWorkspaceTerminals)
}

// terminalControlMsg is the JSON shape of text frames from the client.
// Binary frames are raw stdin bytes.
type terminalControlMsg struct {
	Type string `json:"type"` // "stdin" or "resize"
	Data string `json:"data,omitempty"`
	Cols uint16 `json:"cols,omitempty"`
	Rows uint16 `json:"rows,omitempty"`
}

type createTerminalRequest struct {
	WorkspaceID string `json:"workspace_id"`
	WorkDir     string `json:"workdir"`
}

// terminalSessionInfo is the session shape returned over HTTP. Title and
// Running change while a session lives, so responses snapshot them
// instead of marshaling the session itself.
type terminalSessionInfo struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	WorkDir     string    `json:"work_dir"`
	CreatedAt   time.Time `json:"created_at"`
	Title       string    `json:"title,omitempty"`
	Running     bool      `json:"running"`
}

func sessionInfo(s *services.TerminalSession) terminalSessionInfo {
	return terminalSessionInfo{
		ID:          s.ID,
		WorkspaceID: s.WorkspaceID,
		WorkDir:     s.WorkDir,
		CreatedAt:   s.CreatedAt,
		Title:       s.Title(),
		Running:     s.Running(),
	}
}

// ListSessions returns all live terminal sessions
// @Summary List terminal sessions
// @Tags terminal
// @Produce json
// @Success 200 {array} handlers.terminalSessionInfo
// @Router /v1/terminal [get]
func (h *TerminalHandler) ListSessions(c *fiber.Ctx) error {
	sessions := h.terminals.ListSessions()
	infos := make([]terminalSessionInfo, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, sessionInfo(s))
	}
	return c.JSON(infos)
}

// CreateSession starts a new shell session in a working directory
// @Summary Create a terminal session
// @Tags terminal
// @Accept json
// @Produce json
// @Param request body createTerminalRequest true "Terminal creation request"
// @Success 200 {object} handlers.terminalSessionInfo
// @Router /v1/terminal [post]
func (h *TerminalHandler) CreateSession(c *fiber.Ctx) error {
	var req createTerminalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.WorkspaceID == "" || req.WorkDir == "" {
		return c.Status(400).JSON(fiber.Map{"error": "workspace_id and workdir are required"})
	}

	session, err := h.terminals.CreateSession(req.WorkspaceID, req.WorkDir)
	if err != nil {
		logger.Errorf("Failed to start terminal in %s: %v", req.WorkDir, err)
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(sessionInfo(session))
}

// CloseSession terminates one terminal session
// @Summary Close a terminal session
// @Tags terminal
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} map[string]interface{}
// @Router /v1/terminal/{id} [delete]
func (h *TerminalHandler) CloseSession(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.terminals.CloseSession(id); err != nil {
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"closed": true, "id": id})
}

// KillWorkspaceTerminals terminates every terminal bound to a workspace
// @Summary Kill workspace terminals
// @Tags terminal
// @Produce json
// @Param id path string true "Workspace ID"
// @Success 200 {object} map[string]interface{}
// @Router /v1/workspaces/{id}/kill-terminals [post]
func (h *TerminalHandler) KillWorkspaceTerminals(c *fiber.Ctx) error {
	killed := h.terminals.KillByWorkspaceID(c.Params("id"))
	return c.JSON(fiber.Map{"killed": killed})
}

// HandleWebSocket attaches a client to a terminal session. Binary frames
// carry pty output to the client; text frames carry stdin and resize JSON
// back.
// @Summary Attach to a terminal session
// @Description Upgrades to a websocket attached to the session's pty
// @Tags terminal
// @Param id path string true "Session ID"
// @Success 101 {string} string "Switching Protocols"
// @Router /v1/terminal/{id}/ws [get]
func (h *TerminalHandler) HandleWebSocket(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	sessionID := c.Params("id")
	return websocket.New(func(conn *websocket.Conn) {
		h.handleTerminalConnection(conn, sessionID)
	})(c)
}

func (h *TerminalHandler) handleTerminalConnection(conn *websocket.Conn, sessionID string) {
	defer conn.Close()

	session, ok := h.terminals.GetSession(sessionID)
	if !ok {
		logger.Warnf("Terminal websocket for unknown session %s", sessionID)
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"session not found"}`))
		return
	}

	logger.Infof("📡 Terminal client attached to session %s", sessionID)

	// Replay what the shell already printed, then follow live output
	if buffered := session.BufferedOutput(); len(buffered) > 0 {
		if err := conn.WriteMessage(websocket.BinaryMessage, buffered); err != nil {
			return
		}
	}

	output := make(chan []byte, 64)
	session.Attach(output)
	defer session.Detach(output)

	stop := make(chan struct{})
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		for {
			select {
			case data := <-output:
				if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
					return
				}
			case <-session.Done():
				// Closing the connection unblocks ReadMessage below
				conn.Close()
				return
			case <-stop:
				return
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}

		switch messageType {
		case websocket.TextMessage:
			var msg terminalControlMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				logger.Debugf("Ignoring malformed terminal control frame: %v", err)
				continue
			}
			switch msg.Type {
			case "stdin":
				if _, err := session.Write([]byte(msg.Data)); err != nil {
					logger.Warnf("Terminal %s write failed: %v", sessionID, err)
				}
			case "resize":
				if msg.Cols > 0 && msg.Rows > 0 {
					_ = session.Resize(msg.Cols, msg.Rows)
				}
			}
		case websocket.BinaryMessage:
			if _, err := session.Write(data); err != nil {
				logger.Warnf("Terminal %s write failed: %v", sessionID, err)
			}
		}
	}

	close(stop)
	<-pumpDone
	logger.Infof("📡 Terminal client detached from session %s", sessionID)
}
