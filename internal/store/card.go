package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-decks/internal/domain"
)

// CardStore persists cards and their scheduling state.
type CardStore interface {
	// CreateMultiple inserts cards. Run it inside a transaction so a batch is
	// stored completely or not at all.
	CreateMultiple(ctx context.Context, cards []*domain.Card) error

	// GetByID returns the card without its history.
	// Returns ErrCardNotFound if the card does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// GetDueCards returns the user's cards in deckIDs that are due on or
	// before date, earliest due first, then by creation time and ID.
	GetDueCards(ctx context.Context, userID uuid.UUID, deckIDs []uuid.UUID, date time.Time) ([]*domain.Card, error)

	// CountDueByDeck returns, per deck, how many of the user's cards are due
	// on or before date. Decks without due cards are absent.
	CountDueByDeck(ctx context.Context, userID uuid.UUID, date time.Time) (map[uuid.UUID]int, error)

	// Update writes the card's content, deck and scheduling fields. It only
	// succeeds when the stored version still equals card.Version, and bumps
	// card.Version on success. Returns ErrCardNotFound if the card is gone
	// and ErrConflict if another writer got there first.
	Update(ctx context.Context, card *domain.Card) error

	// Delete removes a card and its review history.
	// Returns ErrCardNotFound if the card does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByDecks removes every card of the user in deckIDs, with history,
	// and returns how many cards were deleted.
	DeleteByDecks(ctx context.Context, userID uuid.UUID, deckIDs []uuid.UUID) (int64, error)

	// WithTx returns a CardStore bound to tx.
	WithTx(tx *sql.Tx) CardStore
}
