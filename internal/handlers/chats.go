package handlers

import (
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/hong-ai/hong/internal/models"
	"github.com/hong-ai/hong/internal/services"
)

// ChatsHandler exposes the persisted chat records
type ChatsHandler struct {
	chats *services.ChatStateManager
}

// NewChatsHandler creates a new chats handler
func NewChatsHandler(chats *services.ChatStateManager) *ChatsHandler {
	return &ChatsHandler{chats: chats}
}

// RegisterRoutes registers all chat routes
func (h *ChatsHandler) RegisterRoutes(v1 fiber.Router) {
	v1.Get("/chats", h.ListChats)
	v1.Post("/chats", h.CreateChat)
	v1.Get("/chats/:id", h.GetChat)
	v1.Patch("/chats/:id", h.UpdateChat)
	v1.Delete("/chats/:id", h.DeleteChat)
	v1.Post("/chats/:id/archive", h.ArchiveChat)
}

// ListChats returns all chat records, newest first
// @Summary List chats
// @Tags chats
// @Produce json
// @Success 200 {array} models.Chat
// @Router /v1/chats [get]
func (h *ChatsHandler) ListChats(c *fiber.Ctx) error {
	byID := h.chats.GetAllChats()
	chats := make([]*models.Chat, 0, len(byID))
	for _, chat := range byID {
		chats = append(chats, chat)
	}
	sort.Slice(chats, func(i, j int) bool {
		if !chats[i].CreatedAt.Equal(chats[j].CreatedAt) {
			return chats[i].CreatedAt.After(chats[j].CreatedAt)
		}
		return chats[i].ID < chats[j].ID
	})
	return c.JSON(chats)
}

type createChatRequest struct {
	Name        string `json:"name"`
	ProjectPath string `json:"project_path"`
}

// CreateChat creates a new chat record
// @Summary Create a chat
// @Tags chats
// @Accept json
// @Produce json
// @Param request body createChatRequest true "Chat creation request"
// @Success 200 {object} models.Chat
// @Router /v1/chats [post]
func (h *ChatsHandler) CreateChat(c *fiber.Ctx) error {
	var req createChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}

	chat := &models.Chat{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(req.Name),
		ProjectPath: req.ProjectPath,
	}
	if err := h.chats.AddChat(chat); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(chat)
}

// GetChat returns one chat record
// @Summary Get a chat
// @Tags chats
// @Produce json
// @Param id path string true "Chat ID"
// @Success 200 {object} models.Chat
// @Router /v1/chats/{id} [get]
func (h *ChatsHandler) GetChat(c *fiber.Ctx) error {
	chat, ok := h.chats.GetChat(c.Params("id"))
	if !ok {
		return c.Status(404).JSON(fiber.Map{"error": "Chat not found"})
	}
	return c.JSON(chat)
}

// UpdateChat applies a partial update to a chat record
// @Summary Update a chat
// @Tags chats
// @Accept json
// @Produce json
// @Param id path string true "Chat ID"
// @Param request body map[string]interface{} true "Fields to update"
// @Success 200 {object} models.Chat
// @Router /v1/chats/{id} [patch]
func (h *ChatsHandler) UpdateChat(c *fiber.Ctx) error {
	var updates map[string]interface{}
	if err := c.BodyParser(&updates); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	id := c.Params("id")
	if err := h.chats.UpdateChat(id, updates); err != nil {
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	}

	chat, _ := h.chats.GetChat(id)
	return c.JSON(chat)
}

// DeleteChat removes a chat record
// @Summary Delete a chat
// @Tags chats
// @Produce json
// @Param id path string true "Chat ID"
// @Success 200 {object} map[string]interface{}
// @Router /v1/chats/{id} [delete]
func (h *ChatsHandler) DeleteChat(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.chats.DeleteChat(id); err != nil {
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"deleted": true, "id": id})
}

// ArchiveChat marks a chat as archived
// @Summary Archive a chat
// @Tags chats
// @Produce json
// @Param id path string true "Chat ID"
// @Success 200 {object} models.Chat
// @Router /v1/chats/{id}/archive [post]
func (h *ChatsHandler) ArchiveChat(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.chats.ArchiveChat(id); err != nil {
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	}

	chat, _ := h.chats.GetChat(id)
	return c.JSON(chat)
}
