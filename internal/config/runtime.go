package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hong-ai/hong/internal/logger"
)

// RuntimeMode represents the execution environment
type RuntimeMode string

const (
	// PackagedMode indicates the daemon was launched by the desktop shell
	PackagedMode RuntimeMode = "packaged"
	// DevMode indicates running from a source checkout
	DevMode RuntimeMode = "dev"
)

// DefaultPort is the port the desktop shell expects the daemon on
const DefaultPort = 8787

// RuntimeConfig holds paths and settings for the current runtime environment
type RuntimeConfig struct {
	Mode         RuntimeMode
	HomeDir      string
	StateDir     string // root for persisted daemon state, ~/.hong by default
	SessionsDir  string // per-workspace terminal session state
	WorktreesDir string // where chat worktrees are created
	TempDir      string
	Port         int
}

var (
	// Runtime is the global runtime configuration instance
	Runtime *RuntimeConfig
)

func init() {
	Runtime = DetectRuntime()
}

// DetectRuntime determines the current runtime environment and returns the
// appropriate configuration
func DetectRuntime() *RuntimeConfig {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv("HOME")
		if homeDir == "" {
			homeDir = "."
		}
	}

	stateDir := os.Getenv("HONG_STATE_DIR")
	if stateDir == "" {
		if root := os.Getenv("HONG_HOME"); root != "" {
			stateDir = root
		} else {
			stateDir = filepath.Join(homeDir, ".hong")
		}
	}

	config := &RuntimeConfig{
		Mode:         detectMode(),
		HomeDir:      homeDir,
		StateDir:     stateDir,
		SessionsDir:  filepath.Join(stateDir, "sessions"),
		WorktreesDir: filepath.Join(stateDir, "worktrees"),
		TempDir:      os.TempDir(),
		Port:         detectPort(),
	}

	for _, dir := range []string{config.StateDir, config.SessionsDir, config.WorktreesDir} {
		if err := ensureDir(dir); err != nil {
			logger.Warnf("Failed to create state directory %s: %v", dir, err)
		}
	}

	return config
}

// detectMode determines whether the daemon was launched by the packaged app
func detectMode() RuntimeMode {
	if v := os.Getenv("HONG_PACKAGED"); v == "1" || strings.ToLower(v) == "true" {
		return PackagedMode
	}

	// Electron ships the daemon inside the app's resources directory
	if exe, err := os.Executable(); err == nil {
		if strings.Contains(exe, string(filepath.Separator)+"Resources"+string(filepath.Separator)) ||
			strings.Contains(exe, string(filepath.Separator)+"resources"+string(filepath.Separator)) {
			return PackagedMode
		}
	}

	return DevMode
}

func detectPort() int {
	if v := os.Getenv("HONG_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 && port < 65536 {
			return port
		}
		logger.Warnf("Ignoring invalid HONG_PORT value %q", v)
	}
	return DefaultPort
}

// ensureDir creates a directory if it doesn't exist
func ensureDir(path string) error {
	if path == "" {
		return nil
	}
	return os.MkdirAll(path, 0755)
}

// WorktreeBase returns the directory chat worktrees for a project live under
func (rc *RuntimeConfig) WorktreeBase(projectName string) string {
	return filepath.Join(rc.WorktreesDir, projectName)
}

// IsPackaged returns true when launched by the desktop shell
func (rc *RuntimeConfig) IsPackaged() bool {
	return rc.Mode == PackagedMode
}

// IsDev returns true when running from a source checkout
func (rc *RuntimeConfig) IsDev() bool {
	return rc.Mode == DevMode
}
