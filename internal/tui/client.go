package tui

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Client is a thin HTTP client for the daemon API. The dashboard only
// reads state and renames branches, so it stays far smaller than the
// desktop app's client.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for the daemon at baseURL. token may be
// empty when the daemon runs without authentication.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// chatInfo mirrors the chat shape the daemon serves. The dashboard keeps
// its own copy so it only depends on the wire format.
type chatInfo struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	ProjectPath  string     `json:"project_path"`
	WorktreePath string     `json:"worktree_path"`
	Branch       string     `json:"branch"`
	BaseBranch   string     `json:"base_branch"`
	ArchivedAt   *time.Time `json:"archived_at"`
}

type terminalInfo struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	Title       string `json:"title"`
	Running     bool   `json:"running"`
}

type worktreeStatus struct {
	Branch         string `json:"branch"`
	BaseBranch     string `json:"base_branch"`
	IsDirty        bool   `json:"is_dirty"`
	HasConflicts   bool   `json:"has_conflicts"`
	ChangedFiles   int    `json:"changed_files"`
	UntrackedFiles int    `json:"untracked_files"`
}

type watcherList struct {
	Count int      `json:"count"`
	Paths []string `json:"paths"`
}

type healthInfo struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (c *Client) get(path string, out any) error {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// Health checks the daemon and reports its version
func (c *Client) Health() (healthInfo, error) {
	var h healthInfo
	err := c.get("/health", &h)
	return h, err
}

// Chats lists all chats known to the daemon
func (c *Client) Chats() ([]chatInfo, error) {
	var chats []chatInfo
	err := c.get("/v1/chats", &chats)
	return chats, err
}

// Watchers lists the live git metadata watchers
func (c *Client) Watchers() (watcherList, error) {
	var w watcherList
	err := c.get("/v1/watchers", &w)
	return w, err
}

// Terminals lists the live terminal sessions
func (c *Client) Terminals() ([]terminalInfo, error) {
	var sessions []terminalInfo
	err := c.get("/v1/terminal", &sessions)
	return sessions, err
}

// Status fetches the status summary of one worktree
func (c *Client) Status(worktreePath string) (worktreeStatus, error) {
	var s worktreeStatus
	err := c.get("/v1/git/status?worktree="+url.QueryEscape(worktreePath), &s)
	return s, err
}

// RenameBranch renames a worktree's branch. The daemon returns 409 with
// a typed result when the rename is rejected, so that body is decoded
// either way.
func (c *Client) RenameBranch(worktreePath, newBranch string) error {
	body, _ := json.Marshal(map[string]string{
		"worktree_path": worktreePath,
		"new_branch":    newBranch,
	})
	req, err := http.NewRequest("POST", c.baseURL+"/v1/git/branch/rename", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}

	var result struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil || result.Error == "" {
		return fmt.Errorf("rename failed: %s", resp.Status)
	}
	return fmt.Errorf("%s", result.Error)
}

// sseMessage and appEvent mirror the daemon's SSE frame shape
type sseMessage struct {
	Event     appEvent `json:"event"`
	Timestamp int64    `json:"timestamp"`
	ID        string   `json:"id"`
}

type appEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// StreamEvents connects to the daemon's SSE endpoint and forwards every
// event into the bubbletea program. It reconnects with backoff until
// stop is closed.
func (c *Client) StreamEvents(program *tea.Program, stop <-chan struct{}) {
	retry := 0
	for {
		select {
		case <-stop:
			return
		default:
		}

		if err := c.streamOnce(program, stop); err != nil {
			program.Send(sseDisconnectedMsg{err: err})
			retry++
			delay := time.Duration(retry) * 2 * time.Second
			if delay > 30*time.Second {
				delay = 30 * time.Second
			}
			select {
			case <-stop:
				return
			case <-time.After(delay):
			}
			continue
		}
		retry = 0
	}
}

func (c *Client) streamOnce(program *tea.Program, stop <-chan struct{}) error {
	req, err := http.NewRequest("GET", c.baseURL+"/v1/events?client=dashboard", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	c.authorize(req)

	// SSE connections are long-lived, so no client timeout here
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("events stream: %s", resp.Status)
	}

	// Tear the connection down when the dashboard exits so the scanner
	// below unblocks
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-stop:
			resp.Body.Close()
		case <-done:
		}
	}()

	program.Send(sseConnectedMsg{})

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var msg sseMessage
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &msg); err != nil {
			continue
		}
		program.Send(sseEventMsg{event: msg.Event})
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		return err
	}
	return fmt.Errorf("events stream closed")
}
