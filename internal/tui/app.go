package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the dashboard against the daemon at baseURL and blocks
// until the user quits. token may be empty when the daemon runs without
// authentication.
func Run(baseURL, token, version string) error {
	client := NewClient(baseURL, token)

	// Fail fast with a readable error instead of an empty dashboard
	if _, err := client.Health(); err != nil {
		return fmt.Errorf("daemon not reachable at %s: %w", baseURL, err)
	}

	model := NewModel(client, baseURL, version)
	program := tea.NewProgram(model, tea.WithAltScreen())

	stop := make(chan struct{})
	defer close(stop)
	go client.StreamEvents(program, stop)

	_, err := program.Run()
	return err
}
