package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-decks/internal/domain"
	"github.com/phrazzld/scry-decks/internal/store"
)

// DeckStore implements store.DeckStore.
type DeckStore struct {
	db store.DBTX
}

// NewDeckStore creates a deck store on db.
func NewDeckStore(db store.DBTX) *DeckStore {
	return &DeckStore{db: db}
}

var _ store.DeckStore = (*DeckStore)(nil)

// WithTx returns a store that runs its queries on tx.
func (s *DeckStore) WithTx(tx *sql.Tx) store.DeckStore {
	return &DeckStore{db: tx}
}

const deckColumns = `id, user_id, name, description, parent_id, created_at, updated_at`

// Create inserts deck.
func (s *DeckStore) Create(ctx context.Context, deck *domain.Deck) error {
	if err := deck.Validate(); err != nil {
		return store.NewStoreError("deck", "create", "invalid deck", errors.Join(store.ErrInvalidEntity, err))
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decks (`+deckColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		deck.ID.String(), deck.UserID.String(), deck.Name, deck.Description,
		nullableID(deck.ParentID), formatTimestamp(deck.CreatedAt), formatTimestamp(deck.UpdatedAt),
	)
	if err != nil {
		return store.NewStoreError("deck", "create", "insert failed", MapError(err))
	}
	return nil
}

// GetByID returns store.ErrDeckNotFound when no deck has id.
func (s *DeckStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	deck, err := scanDeck(s.db.QueryRowContext(ctx,
		`SELECT `+deckColumns+` FROM decks WHERE id = ?`, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrDeckNotFound
		}
		return nil, store.NewStoreError("deck", "get", "query failed", MapError(err))
	}
	return deck, nil
}

// ListByUser returns every deck the user owns, ordered by name.
func (s *DeckStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Deck, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+deckColumns+` FROM decks WHERE user_id = ? ORDER BY name, id`, userID.String())
	if err != nil {
		return nil, store.NewStoreError("deck", "list", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var decks []domain.Deck
	for rows.Next() {
		deck, err := scanDeck(rows)
		if err != nil {
			return nil, store.NewStoreError("deck", "list", "scan failed", err)
		}
		decks = append(decks, *deck)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("deck", "list", "iteration failed", MapError(err))
	}
	return decks, nil
}

// ListByUserForUpdate is ListByUser. The single pooled connection already
// keeps other writers out while a transaction holds it.
func (s *DeckStore) ListByUserForUpdate(ctx context.Context, userID uuid.UUID) ([]domain.Deck, error) {
	return s.ListByUser(ctx, userID)
}

// Update writes the mutable deck fields.
func (s *DeckStore) Update(ctx context.Context, deck *domain.Deck) error {
	if err := deck.Validate(); err != nil {
		return store.NewStoreError("deck", "update", "invalid deck", errors.Join(store.ErrInvalidEntity, err))
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE decks SET name = ?, description = ?, parent_id = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		deck.Name, deck.Description, nullableID(deck.ParentID), formatTimestamp(deck.UpdatedAt),
		deck.ID.String(), deck.UserID.String(),
	)
	if err != nil {
		return store.NewStoreError("deck", "update", "update failed", MapError(err))
	}
	return checkRowsAffected(result, store.ErrDeckNotFound)
}

// DeleteMany removes the listed decks owned by userID in one statement.
func (s *DeckStore) DeleteMany(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	marks, args := inList(ids)
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM decks WHERE user_id = ? AND id IN (`+marks+`)`,
		append([]any{userID.String()}, args...)...,
	)
	if err != nil {
		return store.NewStoreError("deck", "delete", "delete failed", MapError(err))
	}
	return checkRowsAffected(result, store.ErrDeckNotFound)
}

func scanDeck(row rowScanner) (*domain.Deck, error) {
	var (
		deck             domain.Deck
		parent           sql.NullString
		created, updated string
	)
	if err := row.Scan(&deck.ID, &deck.UserID, &deck.Name, &deck.Description, &parent,
		&created, &updated); err != nil {
		return nil, err
	}

	var err error
	if deck.ParentID, err = parseNullableID(parent); err != nil {
		return nil, err
	}
	if deck.CreatedAt, err = parseTimestamp(created); err != nil {
		return nil, err
	}
	if deck.UpdatedAt, err = parseTimestamp(updated); err != nil {
		return nil, err
	}
	return &deck, nil
}
