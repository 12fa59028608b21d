package tui

import (
	"fmt"
	"strings"

	"github.com/hong-ai/hong/internal/tui/components"
)

// View renders the dashboard
func (m Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderChats())
	b.WriteString("\n")
	b.WriteString(m.renderDetail())
	b.WriteString("\n")
	b.WriteString(components.SectionHeaderStyle.Render("Events"))
	b.WriteString("\n")
	b.WriteString(m.events.View())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// chromeHeight is the number of lines everything except the event feed
// occupies, so resizes can size the viewport
func (m Model) chromeHeight() int {
	// header + chats header + chat rows + detail block + events header +
	// footer, plus blank separators
	return 9 + len(m.chats)
}

func (m Model) renderHeader() string {
	connection := components.StatusDisconnectedStyle.Render("● offline")
	if m.sseConnected {
		connection = components.StatusConnectedStyle.Render("● live")
	}
	title := fmt.Sprintf("🌿 Hóng %s  %s  %s", m.version, m.baseURL, connection)
	return components.HeaderStyle.Width(m.width).Render(title)
}

func (m Model) renderChats() string {
	var b strings.Builder
	b.WriteString(components.SectionHeaderStyle.Render(fmt.Sprintf("Chats (%d)", len(m.chats))))
	b.WriteString("\n")

	if !m.loaded {
		b.WriteString(fmt.Sprintf("%s fetching chats...", m.spinner.View()))
		return b.String()
	}
	if m.err != nil {
		b.WriteString(components.ErrorStyle.Render(fmt.Sprintf("daemon unreachable: %v", m.err)))
		return b.String()
	}
	if len(m.chats) == 0 {
		b.WriteString(components.MutedStyle.Render("no chats yet"))
		return b.String()
	}

	for i, chat := range m.chats {
		cursor := "  "
		if i == m.selected {
			cursor = components.KeyHighlightStyle.Render("> ")
		}

		name := chat.Name
		if chat.ArchivedAt != nil {
			name = components.MutedStyle.Render(name + " (archived)")
		} else if i == m.selected {
			name = components.SelectedStyle.Render(name)
		}

		branch := components.BranchStyle.Render(chat.Branch)
		dirty := ""
		if status, ok := m.statuses[chat.WorktreePath]; ok {
			if status.HasConflicts {
				dirty = components.ErrorStyle.Render(" ✗ conflicts")
			} else if status.IsDirty {
				dirty = components.DirtyStyle.Render(fmt.Sprintf(" ● %d changed", status.ChangedFiles))
			} else {
				dirty = components.CleanStyle.Render(" ✓ clean")
			}
		}

		b.WriteString(fmt.Sprintf("%s%s  %s%s\n", cursor, name, branch, dirty))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderDetail() string {
	chat := m.selectedChat()
	if chat == nil {
		return ""
	}

	watched := "no"
	for _, path := range m.watchers.Paths {
		if path == chat.WorktreePath {
			watched = "yes"
			break
		}
	}

	terminals := 0
	var titles []string
	for _, session := range m.terminals {
		if session.WorkspaceID == chat.ID && session.Running {
			terminals++
			if session.Title != "" {
				titles = append(titles, session.Title)
			}
		}
	}
	terminalLine := fmt.Sprintf("%d", terminals)
	if len(titles) > 0 {
		terminalLine += " (" + strings.Join(titles, ", ") + ")"
	}

	detail := fmt.Sprintf("worktree %s   base %s   watched %s   terminals %s",
		chat.WorktreePath, chat.BaseBranch, watched, terminalLine)

	if m.renaming {
		prompt := fmt.Sprintf("rename branch: %s", m.renameInput.View())
		if m.renameErr != nil {
			prompt += "  " + components.ErrorStyle.Render(m.renameErr.Error())
		}
		return components.MutedStyle.Render(detail) + "\n" + prompt
	}
	return components.MutedStyle.Render(detail)
}

func (m Model) renderFooter() string {
	help := "↑/↓ select · r rename branch · R refresh · pgup/pgdn events · q quit"
	return components.FooterStyle.Width(m.width).Render(help)
}
