package main

import "github.com/hong-ai/hong/internal/cmd"

// @title Hóng Daemon API
// @version 1.0
// @description Workspace daemon for agent coding sessions: git worktrees, change tracking, checkpoints and terminals.
// @BasePath /
func main() {
	cmd.Execute()
}
