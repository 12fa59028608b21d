package services

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"
	"github.com/google/uuid"

	"github.com/hong-ai/hong/internal/config"
	"github.com/hong-ai/hong/internal/git"
	"github.com/hong-ai/hong/internal/logger"
	"github.com/hong-ai/hong/internal/recovery"
)

// maxTerminalBuffer bounds the replay buffer kept per session
const maxTerminalBuffer = 16 * 1024

// titlePattern matches OSC 0 terminal title sequences in pty output.
// Agent CLIs announce what they are doing through the title, so the UI
// uses the last one seen to label terminal tabs.
var titlePattern = regexp.MustCompile(`\x1b\]0;([^\x07]*)\x07`)

// TerminalSession is one pty-backed shell bound to a workspace
type TerminalSession struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	WorkDir     string    `json:"work_dir"`
	CreatedAt   time.Time `json:"created_at"`

	mu      sync.Mutex
	ptyFile *os.File
	cmd     *exec.Cmd
	running bool

	subMu       sync.RWMutex
	subscribers map[chan []byte]struct{}

	bufferMu     sync.RWMutex
	outputBuffer []byte

	titleMu sync.RWMutex
	title   string

	done chan struct{}
}

// TerminalManager owns every terminal session the daemon has open. The
// worktree move protocol uses KillByWorkspaceID and MigrateSessionDirs to
// get open shells out of the way before a directory is renamed.
type TerminalManager struct {
	mu           sync.RWMutex
	sessions     map[string]*TerminalSession
	sessionsRoot string
}

// NewTerminalManager creates a manager storing session state under the
// runtime sessions directory
func NewTerminalManager() *TerminalManager {
	return NewTerminalManagerWithRoot(config.Runtime.SessionsDir)
}

// NewTerminalManagerWithRoot creates a manager with an explicit session
// state root
func NewTerminalManagerWithRoot(sessionsRoot string) *TerminalManager {
	return &TerminalManager{
		sessions:     make(map[string]*TerminalSession),
		sessionsRoot: sessionsRoot,
	}
}

// detectShell picks the user's shell, falling back to common locations
func detectShell() (string, []string) {
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell, []string{"-l"}
	}
	for _, sh := range []string{"/bin/bash", "/bin/zsh", "/bin/sh"} {
		if _, err := os.Stat(sh); err == nil {
			return sh, []string{"-l"}
		}
	}
	return "/bin/sh", nil
}

// CreateSession starts a shell in workDir and begins capturing its output
func (tm *TerminalManager) CreateSession(workspaceID, workDir string) (*TerminalSession, error) {
	if _, err := os.Stat(workDir); err != nil {
		return nil, fmt.Errorf("working directory %s: %w", workDir, err)
	}

	shell, args := detectShell()
	session := &TerminalSession{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		WorkDir:     workDir,
		CreatedAt:   time.Now(),
		subscribers: make(map[chan []byte]struct{}),
		done:        make(chan struct{}),
	}

	cmd := exec.Command(shell, args...)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		"HONG_SESSION_ID="+session.ID,
	)

	ptyFile, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: 80, Rows: 24})
	if err != nil {
		return nil, fmt.Errorf("failed to start pty: %w", err)
	}
	session.cmd = cmd
	session.ptyFile = ptyFile
	session.running = true

	tm.persistSessionState(session)

	tm.mu.Lock()
	tm.sessions[session.ID] = session
	tm.mu.Unlock()

	recovery.SafeGo("terminal-read "+session.ID, session.readLoop)
	recovery.SafeGoWithCleanup("terminal-wait "+session.ID, session.waitForExit, func() {
		tm.mu.Lock()
		delete(tm.sessions, session.ID)
		tm.mu.Unlock()
	})

	logger.Infof("🐚 Started terminal %s for workspace %s in %s", session.ID, workspaceID, workDir)
	return session, nil
}

// persistSessionState drops a small metadata file into the workspace's
// session state dir so the record survives a daemon restart
func (tm *TerminalManager) persistSessionState(session *TerminalSession) {
	stateDir := tm.SessionStateDir(session.WorkDir)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		logger.Warnf("Failed to create session state dir %s: %v", stateDir, err)
		return
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return
	}
	statePath := filepath.Join(stateDir, "terminal-"+session.ID+".json")
	if err := os.WriteFile(statePath, data, 0644); err != nil {
		logger.Warnf("Failed to write session state %s: %v", statePath, err)
	}
}

// SessionStateDir maps a working directory to its session state directory
func (tm *TerminalManager) SessionStateDir(workDir string) string {
	return filepath.Join(tm.sessionsRoot, git.SanitizeWorkspacePath(workDir))
}

// GetSession returns a live session by ID
func (tm *TerminalManager) GetSession(sessionID string) (*TerminalSession, bool) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	session, exists := tm.sessions[sessionID]
	return session, exists
}

// ListSessions returns the live sessions
func (tm *TerminalManager) ListSessions() []*TerminalSession {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	sessions := make([]*TerminalSession, 0, len(tm.sessions))
	for _, session := range tm.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

// CloseSession terminates one session
func (tm *TerminalManager) CloseSession(sessionID string) error {
	tm.mu.Lock()
	session, exists := tm.sessions[sessionID]
	delete(tm.sessions, sessionID)
	tm.mu.Unlock()

	if !exists {
		return fmt.Errorf("session %s not found", sessionID)
	}
	session.Close()
	return nil
}

// KillByWorkspaceID closes every session bound to a workspace and returns
// how many were closed
func (tm *TerminalManager) KillByWorkspaceID(workspaceID string) int {
	tm.mu.Lock()
	var doomed []*TerminalSession
	for id, session := range tm.sessions {
		if session.WorkspaceID == workspaceID {
			doomed = append(doomed, session)
			delete(tm.sessions, id)
		}
	}
	tm.mu.Unlock()

	for _, session := range doomed {
		session.Close()
	}
	if len(doomed) > 0 {
		logger.Infof("🐚 Killed %d terminal(s) for workspace %s", len(doomed), workspaceID)
	}
	return len(doomed)
}

// MigrateSessionDirs renames persisted session state dirs after a
// workspace move. Terminals opened in subdirectories of the old path have
// their own dirs, so everything sharing the old prefix is carried over.
// Each rename is best effort.
func (tm *TerminalManager) MigrateSessionDirs(oldPath, newPath string) {
	oldKey := git.SanitizeWorkspacePath(oldPath)
	newKey := git.SanitizeWorkspacePath(newPath)
	if oldKey == newKey {
		return
	}

	entries, err := os.ReadDir(tm.sessionsRoot)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warnf("Failed to read sessions root %s: %v", tm.sessionsRoot, err)
		}
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name != oldKey && !strings.HasPrefix(name, oldKey+"-") {
			continue
		}
		target := newKey + strings.TrimPrefix(name, oldKey)
		if err := os.Rename(filepath.Join(tm.sessionsRoot, name), filepath.Join(tm.sessionsRoot, target)); err != nil {
			logger.Warnf("Failed to migrate session dir %s -> %s: %v", name, target, err)
		}
	}
}

// Stop closes every session. Called at shutdown.
func (tm *TerminalManager) Stop() {
	tm.mu.Lock()
	sessions := make([]*TerminalSession, 0, len(tm.sessions))
	for _, session := range tm.sessions {
		sessions = append(sessions, session)
	}
	tm.sessions = make(map[string]*TerminalSession)
	tm.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}

// Write sends input to the shell
func (s *TerminalSession) Write(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.ptyFile == nil {
		return 0, fmt.Errorf("session %s is not running", s.ID)
	}
	return s.ptyFile.Write(data)
}

// Resize adjusts the pty dimensions
func (s *TerminalSession) Resize(cols, rows uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.ptyFile == nil {
		return fmt.Errorf("session %s is not running", s.ID)
	}
	return pty.Setsize(s.ptyFile, &pty.Winsize{Cols: cols, Rows: rows})
}

// Running reports whether the shell process is still alive
func (s *TerminalSession) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Attach registers a subscriber channel for output. Sends never block; a
// subscriber that falls behind misses bytes rather than stalling the pty.
func (s *TerminalSession) Attach(ch chan []byte) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subscribers[ch] = struct{}{}
}

// Detach removes a subscriber channel
func (s *TerminalSession) Detach(ch chan []byte) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	delete(s.subscribers, ch)
}

// Title returns the last title the shell announced via an OSC 0 escape
// sequence, or "" if none was seen yet
func (s *TerminalSession) Title() string {
	s.titleMu.RLock()
	defer s.titleMu.RUnlock()
	return s.title
}

// BufferedOutput returns a copy of the recent output for replay on attach
func (s *TerminalSession) BufferedOutput() []byte {
	s.bufferMu.RLock()
	defer s.bufferMu.RUnlock()
	if len(s.outputBuffer) == 0 {
		return nil
	}
	result := make([]byte, len(s.outputBuffer))
	copy(result, s.outputBuffer)
	return result
}

// Done is closed when the shell process exits
func (s *TerminalSession) Done() <-chan struct{} {
	return s.done
}

// Close terminates the shell
func (s *TerminalSession) Close() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	ptyFile := s.ptyFile
	cmd := s.cmd
	s.mu.Unlock()

	// Closing the pty sends SIGHUP to the shell
	if ptyFile != nil {
		_ = ptyFile.Close()
	}

	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		logger.Warnf("Terminal %s did not exit after hangup, killing", s.ID)
		if cmd != nil && cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	}
}

func (s *TerminalSession) readLoop() {
	buf := make([]byte, 4096)
	for {
		n, err := s.ptyFile.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			s.broadcast(data)
		}
		if err != nil {
			if err != io.EOF {
				logger.Debugf("Terminal %s read ended: %v", s.ID, err)
			}
			return
		}
	}
}

func (s *TerminalSession) broadcast(data []byte) {
	s.bufferMu.Lock()
	s.outputBuffer = append(s.outputBuffer, data...)
	if len(s.outputBuffer) > maxTerminalBuffer {
		s.outputBuffer = s.outputBuffer[len(s.outputBuffer)-maxTerminalBuffer:]
	}
	s.bufferMu.Unlock()

	// A sequence split across reads is missed; the next title change
	// catches up
	if matches := titlePattern.FindAllSubmatch(data, -1); len(matches) > 0 {
		if title := strings.TrimSpace(string(matches[len(matches)-1][1])); title != "" {
			s.titleMu.Lock()
			s.title = title
			s.titleMu.Unlock()
		}
	}

	s.subMu.RLock()
	defer s.subMu.RUnlock()
	for ch := range s.subscribers {
		select {
		case ch <- data:
		default:
		}
	}
}

func (s *TerminalSession) waitForExit() {
	if s.cmd != nil {
		_ = s.cmd.Wait()
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	close(s.done)
}
