package services

import (
	"github.com/hong-ai/hong/internal/models"
)

// EventsEmitter is how services publish events to connected clients
// without depending on the HTTP layer. The SSE handler implements it;
// services hold it as an interface and tolerate nil.
type EventsEmitter interface {
	EmitChangeBatch(batch models.ChangeBatch)
	EmitChatUpdated(chat *models.Chat)
	EmitWorktreeCreated(chatID, worktreePath, branch string)
	EmitWorktreeDeleted(chatID, worktreePath string)
	EmitWorkspaceMoved(chatID, oldPath, newPath string)
}
