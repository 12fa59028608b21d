package tui

import "time"

// Core message types
type tickMsg time.Time

// Data fetch messages
type chatsMsg []chatInfo
type watchersMsg watcherList
type terminalsMsg []terminalInfo
type healthMsg healthInfo
type errMsg error

type statusMsg struct {
	worktreePath string
	status       worktreeStatus
}

type renameResultMsg struct {
	err error
}

// SSE event messages
type sseConnectedMsg struct{}
type sseDisconnectedMsg struct {
	err error
}
type sseEventMsg struct {
	event appEvent
}
