package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func tick() tea.Cmd {
	return tea.Tick(time.Second*5, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Data fetching commands

func (m *Model) fetchHealth() tea.Cmd {
	return func() tea.Msg {
		health, err := m.client.Health()
		if err != nil {
			return errMsg(err)
		}
		return healthMsg(health)
	}
}

func (m *Model) fetchChats() tea.Cmd {
	return func() tea.Msg {
		chats, err := m.client.Chats()
		if err != nil {
			return errMsg(err)
		}
		return chatsMsg(chats)
	}
}

func (m *Model) fetchWatchers() tea.Cmd {
	return func() tea.Msg {
		watchers, err := m.client.Watchers()
		if err != nil {
			// Watcher counts are cosmetic, skip the error noise
			return nil
		}
		return watchersMsg(watchers)
	}
}

func (m *Model) fetchTerminals() tea.Cmd {
	return func() tea.Msg {
		terminals, err := m.client.Terminals()
		if err != nil {
			return nil
		}
		return terminalsMsg(terminals)
	}
}

// fetchStatus polls git status for one worktree. Only the selected
// chat's worktree is polled, so a workspace full of chats does not turn
// into a wall of git subprocesses.
func (m *Model) fetchStatus(worktreePath string) tea.Cmd {
	if worktreePath == "" {
		return nil
	}
	return func() tea.Msg {
		status, err := m.client.Status(worktreePath)
		if err != nil {
			return nil
		}
		return statusMsg{worktreePath: worktreePath, status: status}
	}
}

func (m *Model) renameBranch(worktreePath, newBranch string) tea.Cmd {
	return func() tea.Msg {
		return renameResultMsg{err: m.client.RenameBranch(worktreePath, newBranch)}
	}
}

func (m *Model) refreshAll() tea.Cmd {
	cmds := []tea.Cmd{
		m.fetchChats(),
		m.fetchWatchers(),
		m.fetchTerminals(),
	}
	if chat := m.selectedChat(); chat != nil {
		cmds = append(cmds, m.fetchStatus(chat.WorktreePath))
	}
	return tea.Batch(cmds...)
}

func (m *Model) initCommands() tea.Cmd {
	return tea.Batch(
		m.fetchHealth(),
		m.refreshAll(),
		m.spinner.Tick,
		tick(),
	)
}
