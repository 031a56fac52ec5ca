package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-decks/internal/domain"
)

// DeckStore persists decks.
type DeckStore interface {
	// Create inserts a deck.
	Create(ctx context.Context, deck *domain.Deck) error

	// GetByID returns ErrDeckNotFound if the deck does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error)

	// ListByUser returns every deck the user owns, in no particular order.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Deck, error)

	// ListByUserForUpdate is ListByUser for use inside a transaction that
	// rewrites the tree. The rows stay locked until the transaction ends.
	ListByUserForUpdate(ctx context.Context, userID uuid.UUID) ([]domain.Deck, error)

	// Update writes name, description and parent.
	// Returns ErrDeckNotFound if the deck does not exist.
	Update(ctx context.Context, deck *domain.Deck) error

	// DeleteMany removes the user's decks in ids. The caller is responsible
	// for collecting the full descendant set and deleting cards first.
	DeleteMany(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error

	// WithTx returns a DeckStore bound to tx.
	WithTx(tx *sql.Tx) DeckStore
}
