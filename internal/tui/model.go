package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hong-ai/hong/internal/tui/components"
)

// maxEventLines bounds the event feed kept in memory
const maxEventLines = 200

// Model is the dashboard state. There is a single view: chats on top,
// the live event feed below, and an inline prompt when renaming a
// branch.
type Model struct {
	client  *Client
	baseURL string
	version string

	chats     []chatInfo
	selected  int
	statuses  map[string]worktreeStatus
	watchers  watcherList
	terminals []terminalInfo

	events       viewport.Model
	eventLines   []string
	sseConnected bool

	renaming    bool
	renameInput textinput.Model
	renameErr   error

	spinner spinner.Model
	loaded  bool
	width   int
	height  int
	err     error
}

// NewModel creates the dashboard model for the daemon at baseURL
func NewModel(client *Client, baseURL, version string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(components.ColorPrimary))

	input := textinput.New()
	input.Placeholder = "new-branch-name"
	input.CharLimit = 120
	input.Width = 40

	return Model{
		client:      client,
		baseURL:     baseURL,
		version:     version,
		statuses:    make(map[string]worktreeStatus),
		events:      viewport.New(80, 10),
		spinner:     sp,
		renameInput: input,
	}
}

// Init starts the spinner, the poll ticker and the first data fetch
func (m Model) Init() tea.Cmd {
	return m.initCommands()
}

// selectedChat returns the chat under the cursor, or nil when the list
// is empty
func (m *Model) selectedChat() *chatInfo {
	if len(m.chats) == 0 || m.selected < 0 || m.selected >= len(m.chats) {
		return nil
	}
	return &m.chats[m.selected]
}

// appendEvent pushes a line onto the event feed and scrolls to the
// bottom
func (m *Model) appendEvent(line string) {
	stamped := fmt.Sprintf("%s %s", time.Now().Format("15:04:05"), line)
	m.eventLines = append(m.eventLines, stamped)
	if len(m.eventLines) > maxEventLines {
		m.eventLines = m.eventLines[len(m.eventLines)-maxEventLines:]
	}
	m.events.SetContent(joinLines(m.eventLines))
	m.events.GotoBottom()
}

func joinLines(lines []string) string {
	out := ""
	for i, line := range lines {
		if i > 0 {
			out += "\n"
		}
		out += line
	}
	return out
}
