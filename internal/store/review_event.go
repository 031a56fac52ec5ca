package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-decks/internal/domain"
)

// ReviewEventStore records the append-only review history of cards.
type ReviewEventStore interface {
	// Append records one review event.
	Append(ctx context.Context, event *domain.ReviewEvent) error

	// ListByCard returns the card's events in the order they were appended.
	ListByCard(ctx context.Context, cardID uuid.UUID) ([]domain.ReviewEvent, error)

	// WithTx returns a ReviewEventStore bound to tx.
	WithTx(tx *sql.Tx) ReviewEventStore
}
