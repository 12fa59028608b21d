package components

// Global keys
const (
	KeyQuit    = "ctrl+q"
	KeyQuitAlt = "ctrl+c"
	KeyEscape  = "esc"
	KeyEnter   = "enter"
)

// Navigation keys
const (
	KeyUp       = "up"
	KeyDown     = "down"
	KeyVimUp    = "k"
	KeyVimDown  = "j"
	KeyPageUp   = "pgup"
	KeyPageDown = "pgdown"
)

// Dashboard actions
const (
	KeyRename  = "r"
	KeyRefresh = "R"
)
