package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/hong-ai/hong/internal/logger"
)

// SettingsFileName is the optional per-project configuration file
const SettingsFileName = ".hong.yaml"

// ProjectSettings holds per-project overrides read from .hong.yaml in the
// project root. All fields are optional.
type ProjectSettings struct {
	// BaseBranch overrides the detected default branch for new worktrees
	BaseBranch string `yaml:"base_branch"`
	// BranchPrefix replaces the default "hong/" prefix on generated branches
	BranchPrefix string `yaml:"branch_prefix"`
	// WorktreeDir relocates worktrees for this project (absolute, or
	// relative to the project root)
	WorktreeDir string `yaml:"worktree_dir"`
}

// LoadProjectSettings reads .hong.yaml from the project root. A missing file
// returns empty settings; a malformed file is logged and treated as missing
// so a bad config never blocks worktree creation.
func LoadProjectSettings(projectPath string) ProjectSettings {
	var settings ProjectSettings

	data, err := os.ReadFile(filepath.Join(projectPath, SettingsFileName))
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warnf("Failed to read %s in %s: %v", SettingsFileName, projectPath, err)
		}
		return settings
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		logger.Warnf("Ignoring malformed %s in %s: %v", SettingsFileName, projectPath, err)
		return ProjectSettings{}
	}

	return settings
}

// ResolveWorktreeDir returns the directory worktrees for this project should
// be created under, applying any .hong.yaml override to the runtime default.
func (ps ProjectSettings) ResolveWorktreeDir(projectPath, projectName string) string {
	if ps.WorktreeDir == "" {
		return Runtime.WorktreeBase(projectName)
	}
	if filepath.IsAbs(ps.WorktreeDir) {
		return ps.WorktreeDir
	}
	return filepath.Join(projectPath, ps.WorktreeDir)
}

// ResolveBranchPrefix returns the branch prefix for generated worktree
// branches, defaulting to "hong/".
func (ps ProjectSettings) ResolveBranchPrefix() string {
	if ps.BranchPrefix == "" {
		return "hong/"
	}
	return ps.BranchPrefix
}
