package models

// ChangeType classifies what happened to a watched file
type ChangeType string

const (
	// ChangeAdd means the file appeared
	ChangeAdd ChangeType = "add"
	// ChangeModify means the file's content was written
	ChangeModify ChangeType = "change"
	// ChangeUnlink means the file was removed or renamed away
	ChangeUnlink ChangeType = "unlink"
)

// Change is a single folded filesystem event. When several raw events hit
// the same path within one debounce window, the last one wins.
type Change struct {
	Path string     `json:"path"`
	Type ChangeType `json:"type"`
}

// ChangeBatch is one debounced flush of git metadata changes for a
// worktree. Consumers treat a batch as "something changed, refresh",
// not as a precise event log.
type ChangeBatch struct {
	WorktreePath string   `json:"worktree_path"`
	Changes      []Change `json:"changes"`
	Timestamp    int64    `json:"timestamp"` // unix milliseconds
}
