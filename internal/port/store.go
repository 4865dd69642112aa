package port

import (
	"context"

	"github.com/gryork-engineers/grybot/internal/domain"
)

// HistoryStore is the durable append-only log of chat exchanges.
type HistoryStore interface {
	// SaveChat appends one exchange to the log.
	SaveChat(ctx context.Context, userMessage, botResponse string) error

	// RecentChats returns up to limit turns, newest first.
	RecentChats(ctx context.Context, limit int) ([]domain.ChatTurn, error)

	// Close releases the underlying database handle.
	Close() error
}
