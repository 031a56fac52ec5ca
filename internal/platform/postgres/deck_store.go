package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-decks/internal/domain"
	"github.com/phrazzld/scry-decks/internal/platform/logger"
	"github.com/phrazzld/scry-decks/internal/store"
)

// PostgresDeckStore implements store.DeckStore.
type PostgresDeckStore struct {
	db store.DBTX
}

// NewPostgresDeckStore creates a deck store on db.
func NewPostgresDeckStore(db store.DBTX) *PostgresDeckStore {
	return &PostgresDeckStore{db: db}
}

var _ store.DeckStore = (*PostgresDeckStore)(nil)

// WithTx returns a store that runs its queries on tx.
func (s *PostgresDeckStore) WithTx(tx *sql.Tx) store.DeckStore {
	return &PostgresDeckStore{db: tx}
}

const deckColumns = `id, user_id, name, description, parent_id, created_at, updated_at`

// Create inserts deck.
func (s *PostgresDeckStore) Create(ctx context.Context, deck *domain.Deck) error {
	if err := deck.Validate(); err != nil {
		return store.NewStoreError("deck", "create", "invalid deck", errors.Join(store.ErrInvalidEntity, err))
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decks (`+deckColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		deck.ID, deck.UserID, deck.Name, deck.Description, nullUUID(deck.ParentID),
		deck.CreatedAt, deck.UpdatedAt,
	)
	if err != nil {
		logger.FromContext(ctx).Error("failed to insert deck",
			slog.String("deck_id", deck.ID.String()),
			slog.String("error", err.Error()))
		return store.NewStoreError("deck", "create", "insert failed", MapError(err))
	}
	return nil
}

// GetByID returns store.ErrDeckNotFound when no deck has id.
func (s *PostgresDeckStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+deckColumns+` FROM decks WHERE id = $1`, id)
	deck, err := scanDeck(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrDeckNotFound
		}
		return nil, store.NewStoreError("deck", "get", "query failed", MapError(err))
	}
	return deck, nil
}

// ListByUser returns every deck the user owns, ordered by name.
func (s *PostgresDeckStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Deck, error) {
	return s.list(ctx, `
		SELECT `+deckColumns+` FROM decks
		WHERE user_id = $1
		ORDER BY name, id`, userID)
}

// ListByUserForUpdate returns the user's decks with FOR UPDATE row locks.
func (s *PostgresDeckStore) ListByUserForUpdate(ctx context.Context, userID uuid.UUID) ([]domain.Deck, error) {
	return s.list(ctx, `
		SELECT `+deckColumns+` FROM decks
		WHERE user_id = $1
		ORDER BY name, id
		FOR UPDATE`, userID)
}

func (s *PostgresDeckStore) list(ctx context.Context, query string, userID uuid.UUID) ([]domain.Deck, error) {
	rows, err := s.db.QueryContext(ctx, query, userID)
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

// Update writes the mutable deck fields.
func (s *PostgresDeckStore) Update(ctx context.Context, deck *domain.Deck) error {
	if err := deck.Validate(); err != nil {
		return store.NewStoreError("deck", "update", "invalid deck", errors.Join(store.ErrInvalidEntity, err))
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE decks
		SET name = $1, description = $2, parent_id = $3, updated_at = $4
		WHERE id = $5 AND user_id = $6`,
		deck.Name, deck.Description, nullUUID(deck.ParentID), deck.UpdatedAt, deck.ID, deck.UserID,
	)
	if err != nil {
		return store.NewStoreError("deck", "update", "update failed", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrDeckNotFound)
}

// DeleteMany removes the listed decks owned by userID in one statement.
func (s *PostgresDeckStore) DeleteMany(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM decks WHERE user_id = $1 AND id = ANY($2::uuid[])`,
		userID, uuidStrings(ids),
	)
	if err != nil {
		return store.NewStoreError("deck", "delete", "delete failed", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrDeckNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeck(row rowScanner) (*domain.Deck, error) {
	var (
		deck   domain.Deck
		parent uuid.NullUUID
	)
	if err := row.Scan(&deck.ID, &deck.UserID, &deck.Name, &deck.Description, &parent,
		&deck.CreatedAt, &deck.UpdatedAt); err != nil {
		return nil, err
	}
	if parent.Valid {
		id := parent.UUID
		deck.ParentID = &id
	}
	return &deck, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
