package tui

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hong-ai/hong/internal/tui/components"
)

// Update routes messages to the appropriate handlers
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if windowMsg, ok := msg.(tea.WindowSizeMsg); ok {
		return m.handleWindowResize(windowMsg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(keyMsg)
	}

	if spinnerMsg, ok := msg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(spinnerMsg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tickMsg:
		return m, tea.Batch(m.refreshAll(), tick())
	case healthMsg:
		m.version = msg.Version
		return m, nil
	case chatsMsg:
		m.chats = msg
		m.loaded = true
		m.err = nil
		if m.selected >= len(m.chats) {
			m.selected = len(m.chats) - 1
		}
		if m.selected < 0 {
			m.selected = 0
		}
		// The chat list grew or shrank, so resize the event feed under it
		if m.height > 0 {
			if eventHeight := m.height - m.chromeHeight(); eventHeight >= 3 {
				m.events.Height = eventHeight
			} else {
				m.events.Height = 3
			}
		}
		return m, nil
	case watchersMsg:
		m.watchers = watcherList(msg)
		return m, nil
	case terminalsMsg:
		m.terminals = msg
		return m, nil
	case statusMsg:
		m.statuses[msg.worktreePath] = msg.status
		return m, nil
	case renameResultMsg:
		return m.handleRenameResult(msg)
	case errMsg:
		m.err = msg
		m.loaded = true
		return m, nil
	case sseConnectedMsg:
		m.sseConnected = true
		m.appendEvent("connected to daemon")
		return m, nil
	case sseDisconnectedMsg:
		if m.sseConnected {
			m.sseConnected = false
			m.appendEvent("lost daemon connection")
		}
		return m, nil
	case sseEventMsg:
		return m.handleSSEEvent(msg)
	}

	return m, nil
}

func (m Model) handleWindowResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	// The chat list grows with the chat count; the event feed takes
	// what is left under it
	eventHeight := msg.Height - m.chromeHeight()
	if eventHeight < 3 {
		eventHeight = 3
	}
	m.events.Width = msg.Width - 2
	m.events.Height = eventHeight
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.renaming {
		return m.handleRenameKey(msg)
	}

	switch msg.String() {
	case components.KeyQuit, components.KeyQuitAlt, "q":
		return m, tea.Quit
	case components.KeyUp, components.KeyVimUp:
		if m.selected > 0 {
			m.selected--
		}
		return m, m.selectionChanged()
	case components.KeyDown, components.KeyVimDown:
		if m.selected < len(m.chats)-1 {
			m.selected++
		}
		return m, m.selectionChanged()
	case components.KeyRename:
		return m.startRename()
	case components.KeyRefresh:
		return m, m.refreshAll()
	case components.KeyPageUp, components.KeyPageDown:
		var cmd tea.Cmd
		m.events, cmd = m.events.Update(msg)
		return m, cmd
	}
	return m, nil
}

// selectionChanged polls status for the newly selected chat so the
// detail pane is fresh
func (m *Model) selectionChanged() tea.Cmd {
	if chat := m.selectedChat(); chat != nil {
		return m.fetchStatus(chat.WorktreePath)
	}
	return nil
}

func (m Model) startRename() (tea.Model, tea.Cmd) {
	chat := m.selectedChat()
	if chat == nil || chat.WorktreePath == "" {
		return m, nil
	}
	m.renaming = true
	m.renameErr = nil
	m.renameInput.SetValue(chat.Branch)
	m.renameInput.CursorEnd()
	return m, m.renameInput.Focus()
}

func (m Model) handleRenameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case components.KeyEscape:
		m.renaming = false
		m.renameInput.Blur()
		return m, nil
	case components.KeyEnter:
		chat := m.selectedChat()
		newBranch := m.renameInput.Value()
		if chat == nil || newBranch == "" || newBranch == chat.Branch {
			m.renaming = false
			m.renameInput.Blur()
			return m, nil
		}
		return m, m.renameBranch(chat.WorktreePath, newBranch)
	}

	var cmd tea.Cmd
	m.renameInput, cmd = m.renameInput.Update(msg)
	return m, cmd
}

func (m Model) handleRenameResult(msg renameResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		// Keep the prompt open so the name can be corrected
		m.renameErr = msg.err
		return m, nil
	}
	m.renaming = false
	m.renameInput.Blur()
	m.appendEvent("branch renamed")
	return m, m.refreshAll()
}

func (m Model) handleSSEEvent(msg sseEventMsg) (tea.Model, tea.Cmd) {
	switch msg.event.Type {
	case "heartbeat":
		return m, nil
	case "worktree:changes":
		var batch struct {
			WorktreePath string `json:"worktree_path"`
			Changes      []struct {
				Path string `json:"path"`
				Type string `json:"type"`
			} `json:"changes"`
		}
		if err := json.Unmarshal(msg.event.Payload, &batch); err == nil {
			m.appendEvent(fmt.Sprintf("changes in %s (%d)", batch.WorktreePath, len(batch.Changes)))
			return m, m.fetchStatus(batch.WorktreePath)
		}
		return m, nil
	case "worktree:created", "worktree:deleted", "workspace:moved", "chat:updated":
		m.appendEvent(msg.event.Type)
		return m, m.refreshAll()
	default:
		m.appendEvent(msg.event.Type)
		return m, nil
	}
}
