package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/hong-ai/hong/internal/logger"
	"github.com/hong-ai/hong/internal/models"
)

// EventType represents the type of event that can be sent via SSE
type EventType string

// Event type constants that match the frontend TypeScript definitions
const (
	HeartbeatEvent       EventType = "heartbeat"
	ChatUpdatedEvent     EventType = "chat:updated"
	WorktreeCreatedEvent EventType = "worktree:created"
	WorktreeDeletedEvent EventType = "worktree:deleted"
	WorktreeChangesEvent EventType = "worktree:changes"
	WorkspaceMovedEvent  EventType = "workspace:moved"
)

type AppEvent struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

type HeartbeatPayload struct {
	Timestamp int64 `json:"timestamp"`
	Uptime    int64 `json:"uptime"`
}

type ChatUpdatedPayload struct {
	Chat *models.Chat `json:"chat"`
}

type WorktreeCreatedPayload struct {
	ChatID       string `json:"chat_id"`
	WorktreePath string `json:"worktree_path"`
	Branch       string `json:"branch"`
}

type WorktreeDeletedPayload struct {
	ChatID       string `json:"chat_id"`
	WorktreePath string `json:"worktree_path"`
}

type WorkspaceMovedPayload struct {
	ChatID  string `json:"chat_id"`
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path"`
}

type SSEMessage struct {
	Event     AppEvent `json:"event"`
	Timestamp int64    `json:"timestamp"`
	ID        string   `json:"id"`
}

// EventsHandler streams workspace events to connected UI clients over SSE.
// It is the concrete side of the services.EventsEmitter interface, so the
// service layer never knows it is talking to HTTP.
type EventsHandler struct {
	clients            map[string]chan SSEMessage
	clientsMux         sync.RWMutex
	clientConnectTimes map[string]time.Time
	startTime          time.Time
}

func NewEventsHandler() *EventsHandler {
	return &EventsHandler{
		clients:            make(map[string]chan SSEMessage),
		clientConnectTimes: make(map[string]time.Time),
		startTime:          time.Now(),
	}
}

// RegisterRoutes registers the events stream route
func (h *EventsHandler) RegisterRoutes(v1 fiber.Router) {
	v1.Get("/events", h.HandleSSE)
}

// HandleSSE handles Server-Sent Events connections
// @Summary Server-Sent Events endpoint for real-time workspace events
// @Description Streams chat, worktree and change-batch events. Each message is
// @Description a JSON object with `event` ({type, payload}), `timestamp` (ms)
// @Description and a unique `id`. A heartbeat is sent every 30 seconds.
// @Tags events
// @Accept text/event-stream
// @Produce text/event-stream
// @Success 200 {object} SSEMessage "SSE stream of events"
// @Router /v1/events [get]
func (h *EventsHandler) HandleSSE(c *fiber.Ctx) error {
	if ah := c.Get("Accept"); ah != "" && !strings.Contains(ah, "text/event-stream") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "This endpoint only accepts Server-Sent Events (text/event-stream)",
		})
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // disable nginx buffering

	clientID := uuid.New().String()
	clientType := c.Query("client", "unknown")
	ch := make(chan SSEMessage, 100)

	h.addClient(clientID, ch)
	logger.Infof("SSE client connected: %s (%s) from %s", clientID, clientType, c.IP())

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer h.removeClient(clientID)

		send := func(msg SSEMessage) bool {
			if msg.Event.Type == "" {
				return true
			}
			b, _ := json.Marshal(msg)
			if _, err := fmt.Fprintf(w, "data: %s\n\n", b); err != nil {
				return false
			}
			return w.Flush() == nil
		}

		if !send(h.makeHeartbeat()) {
			return
		}

		tick := time.NewTicker(30 * time.Second)
		defer tick.Stop()

		for {
			select {
			case msg, ok := <-ch:
				if !ok || !send(msg) {
					return
				}
			case <-tick.C:
				if !send(h.makeHeartbeat()) {
					return
				}
			}
		}
	}))

	return nil
}

func (h *EventsHandler) addClient(id string, ch chan SSEMessage) {
	h.clientsMux.Lock()
	h.clients[id] = ch
	h.clientConnectTimes[id] = time.Now()
	logger.Debugf("Added event client %s", id)
	h.clientsMux.Unlock()
}

func (h *EventsHandler) removeClient(id string) {
	h.clientsMux.Lock()
	if ch, ok := h.clients[id]; ok {
		logger.Debugf("Removing event client %s", id)
		close(ch)
		delete(h.clients, id)
	}
	delete(h.clientConnectTimes, id)
	h.clientsMux.Unlock()
}

func (h *EventsHandler) makeHeartbeat() SSEMessage {
	return SSEMessage{
		Event: AppEvent{
			Type: HeartbeatEvent,
			Payload: HeartbeatPayload{
				Timestamp: time.Now().UnixMilli(),
				Uptime:    time.Since(h.startTime).Milliseconds(),
			},
		},
		Timestamp: time.Now().UnixMilli(),
		ID:        uuid.New().String(),
	}
}

func (h *EventsHandler) broadcastEvent(event AppEvent) {
	if event.Type == "" {
		logger.Warnf("Attempting to broadcast event with empty type")
		return
	}

	message := SSEMessage{
		Event:     event,
		Timestamp: time.Now().UnixMilli(),
		ID:        uuid.New().String(),
	}

	h.clientsMux.RLock()
	clientsToRemove := []string{}

	for clientID, clientChan := range h.clients {
		select {
		case clientChan <- message:
		default:
			// A freshly connected client gets a grace period before a
			// full channel counts as dead
			connectTime, exists := h.clientConnectTimes[clientID]
			if exists && time.Since(connectTime) < 2*time.Second {
				logger.Debugf("Client %s in grace period, not removing (connected %v ago)", clientID, time.Since(connectTime))
			} else {
				clientsToRemove = append(clientsToRemove, clientID)
			}
		}
	}
	h.clientsMux.RUnlock()

	for _, clientID := range clientsToRemove {
		h.removeClient(clientID)
	}
}

// ClientCount returns the number of connected SSE clients
func (h *EventsHandler) ClientCount() int {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return len(h.clients)
}

// EmitChangeBatch broadcasts a debounced batch of git metadata changes
func (h *EventsHandler) EmitChangeBatch(batch models.ChangeBatch) {
	h.broadcastEvent(AppEvent{
		Type:    WorktreeChangesEvent,
		Payload: batch,
	})
}

// EmitChatUpdated broadcasts an updated chat record
func (h *EventsHandler) EmitChatUpdated(chat *models.Chat) {
	h.broadcastEvent(AppEvent{
		Type:    ChatUpdatedEvent,
		Payload: ChatUpdatedPayload{Chat: chat},
	})
}

// EmitWorktreeCreated broadcasts a worktree created event
func (h *EventsHandler) EmitWorktreeCreated(chatID, worktreePath, branch string) {
	h.broadcastEvent(AppEvent{
		Type: WorktreeCreatedEvent,
		Payload: WorktreeCreatedPayload{
			ChatID:       chatID,
			WorktreePath: worktreePath,
			Branch:       branch,
		},
	})
}

// EmitWorktreeDeleted broadcasts a worktree deleted event
func (h *EventsHandler) EmitWorktreeDeleted(chatID, worktreePath string) {
	h.broadcastEvent(AppEvent{
		Type: WorktreeDeletedEvent,
		Payload: WorktreeDeletedPayload{
			ChatID:       chatID,
			WorktreePath: worktreePath,
		},
	})
}

// EmitWorkspaceMoved broadcasts a workspace move so open views can repoint
func (h *EventsHandler) EmitWorkspaceMoved(chatID, oldPath, newPath string) {
	h.broadcastEvent(AppEvent{
		Type: WorkspaceMovedEvent,
		Payload: WorkspaceMovedPayload{
			ChatID:  chatID,
			OldPath: oldPath,
			NewPath: newPath,
		},
	})
}

// Stop disconnects every client and clears the registry
func (h *EventsHandler) Stop() {
	logger.Info("Stopping events handler...")
	h.clientsMux.RLock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.clientsMux.RUnlock()

	// removeClient owns channel closing
	for _, id := range ids {
		h.removeClient(id)
	}
}
