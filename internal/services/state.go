package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hong-ai/hong/internal/logger"
	"github.com/hong-ai/hong/internal/models"
)

// ChatStateManager is the persisted source of truth for chat records. Every
// mutation is written through to state.json so a daemon restart loses
// nothing. The worktree move protocol updates the record here after the
// directory has actually moved.
type ChatStateManager struct {
	mu       sync.RWMutex
	chats    map[string]*models.Chat
	stateDir string
	emitter  EventsEmitter
}

// NewChatStateManager loads persisted chats from stateDir and returns the
// manager. A missing or unreadable state file starts empty.
func NewChatStateManager(stateDir string, emitter EventsEmitter) *ChatStateManager {
	m := &ChatStateManager{
		chats:    make(map[string]*models.Chat),
		stateDir: stateDir,
		emitter:  emitter,
	}

	if err := m.loadState(); err != nil {
		logger.Warnf("Failed to load chat state: %v", err)
	}

	return m
}

// SetEventsEmitter connects the manager to an events emitter
func (m *ChatStateManager) SetEventsEmitter(emitter EventsEmitter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emitter = emitter
}

// AddChat registers a new chat record and persists it
func (m *ChatStateManager) AddChat(chat *models.Chat) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if chat.ID == "" {
		return fmt.Errorf("chat has no id")
	}
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = time.Now()
	}
	if chat.LastAccessed.IsZero() {
		chat.LastAccessed = chat.CreatedAt
	}

	m.chats[chat.ID] = chat
	if err := m.saveStateInternal(); err != nil {
		return err
	}

	if m.emitter != nil {
		copied := *chat
		m.emitter.EmitChatUpdated(&copied)
	}
	return nil
}

// GetChat returns a copy of the chat record
func (m *ChatStateManager) GetChat(chatID string) (*models.Chat, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	chat, exists := m.chats[chatID]
	if !exists {
		return nil, false
	}
	copied := *chat
	return &copied, true
}

// GetAllChats returns copies of every chat record keyed by ID
func (m *ChatStateManager) GetAllChats() map[string]*models.Chat {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]*models.Chat, len(m.chats))
	for id, chat := range m.chats {
		copied := *chat
		result[id] = &copied
	}
	return result
}

// FindChatByWorktree returns the chat whose worktree is at the given path
func (m *ChatStateManager) FindChatByWorktree(worktreePath string) (*models.Chat, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cleaned := filepath.Clean(worktreePath)
	for _, chat := range m.chats {
		if chat.WorktreePath != "" && filepath.Clean(chat.WorktreePath) == cleaned {
			copied := *chat
			return &copied, true
		}
	}
	return nil, false
}

// UpdateChat applies named field updates to a chat and persists the result.
// Unknown fields and mismatched value types are ignored.
func (m *ChatStateManager) UpdateChat(chatID string, updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	chat, exists := m.chats[chatID]
	if !exists {
		return fmt.Errorf("chat %s not found", chatID)
	}

	for field, value := range updates {
		switch field {
		case "name":
			if v, ok := value.(string); ok {
				chat.Name = v
			}
		case "project_path":
			if v, ok := value.(string); ok {
				chat.ProjectPath = v
			}
		case "worktree_path":
			if v, ok := value.(string); ok {
				chat.WorktreePath = v
			}
		case "branch":
			if v, ok := value.(string); ok {
				chat.Branch = v
			}
		case "base_branch":
			if v, ok := value.(string); ok {
				chat.BaseBranch = v
			}
		case "pr_url":
			if v, ok := value.(string); ok {
				chat.PRURL = v
			}
		case "pr_number":
			// JSON decoding hands numbers over as float64
			switch v := value.(type) {
			case int:
				chat.PRNumber = v
			case float64:
				chat.PRNumber = int(v)
			}
		case "archived_at":
			switch v := value.(type) {
			case *time.Time:
				chat.ArchivedAt = v
			case time.Time:
				chat.ArchivedAt = &v
			case nil:
				chat.ArchivedAt = nil
			}
		}
	}
	chat.LastAccessed = time.Now()

	if err := m.saveStateInternal(); err != nil {
		return err
	}

	if m.emitter != nil {
		copied := *chat
		m.emitter.EmitChatUpdated(&copied)
	}
	return nil
}

// ArchiveChat marks a chat archived without deleting its record
func (m *ChatStateManager) ArchiveChat(chatID string) error {
	now := time.Now()
	return m.UpdateChat(chatID, map[string]interface{}{"archived_at": &now})
}

// DeleteChat removes a chat record entirely
func (m *ChatStateManager) DeleteChat(chatID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.chats[chatID]; !exists {
		return fmt.Errorf("chat %s not found", chatID)
	}
	delete(m.chats, chatID)
	return m.saveStateInternal()
}

func (m *ChatStateManager) saveStateInternal() error {
	state := map[string]interface{}{
		"chats": m.chats,
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(m.stateDir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(m.stateDir, "state.json"), data, 0644)
}

func (m *ChatStateManager) loadState() error {
	data, err := os.ReadFile(filepath.Join(m.stateDir, "state.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var state map[string]json.RawMessage
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}

	if chatsData, exists := state["chats"]; exists {
		var chats map[string]*models.Chat
		if err := json.Unmarshal(chatsData, &chats); err == nil {
			m.chats = chats
		}
	}
	return nil
}
