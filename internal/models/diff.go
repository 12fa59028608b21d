package models

// ParsedDiffFile represents one file section of a unified diff
type ParsedDiffFile struct {
	Key           string `json:"key"`      // Stable identity: new path, or old path for deletions
	OldPath       string `json:"old_path"` // "/dev/null" for new files
	NewPath       string `json:"new_path"` // "/dev/null" for deletions
	Additions     int    `json:"additions"`
	Deletions     int    `json:"deletions"`
	IsBinary      bool   `json:"is_binary"`
	IsDeletedFile bool   `json:"is_deleted_file"`
	DiffText      string `json:"diff_text"` // Full section including the diff --git header
}

// DiffStats summarizes a parsed diff
type DiffStats struct {
	FileCount int `json:"file_count"`
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

// WorktreeDiff is the full diff view served to clients: per-file sections,
// repository totals and the hash of the raw text the files were parsed from
type WorktreeDiff struct {
	Files       []ParsedDiffFile `json:"files"`
	Stats       DiffStats        `json:"stats"`
	ContentHash string           `json:"content_hash"`
}

// WorktreeStatus represents the cached status summary of a worktree
type WorktreeStatus struct {
	Branch         string `json:"branch"`
	BaseBranch     string `json:"base_branch"`
	IsDirty        bool   `json:"is_dirty"`
	HasConflicts   bool   `json:"has_conflicts"`
	ChangedFiles   int    `json:"changed_files"`
	UntrackedFiles int    `json:"untracked_files"`
	CommitHash     string `json:"commit_hash"`
}
