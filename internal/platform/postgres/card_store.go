package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-decks/internal/domain"
	"github.com/phrazzld/scry-decks/internal/platform/logger"
	"github.com/phrazzld/scry-decks/internal/store"
)

// PostgresCardStore implements store.CardStore.
type PostgresCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardStore creates a card store on db. A nil logger falls back
// to slog.Default.
func NewPostgresCardStore(db store.DBTX, logger *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

var _ store.CardStore = (*PostgresCardStore)(nil)

// WithTx returns a store that runs its queries on tx.
func (s *PostgresCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &PostgresCardStore{db: tx, logger: s.logger}
}

const cardColumns = `id, user_id, deck_id, question, answer, due, interval_days, ease_factor,
	document_id, bounding_boxes, version, created_at, updated_at`

// CreateMultiple inserts cards. Run it inside a transaction for the batch
// to be atomic.
func (s *PostgresCardStore) CreateMultiple(ctx context.Context, cards []*domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, card := range cards {
		if err := card.Validate(); err != nil {
			return store.NewStoreError("card", "create", "invalid card", errors.Join(store.ErrInvalidEntity, err))
		}
		boxes, err := encodeBoxes(card.BoundingBoxes)
		if err != nil {
			return store.NewStoreError("card", "create", "encode bounding boxes", err)
		}

		_, err = s.db.ExecContext(ctx, `
			INSERT INTO cards (`+cardColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			card.ID, card.UserID, card.DeckID, card.Question, card.Answer,
			domain.DateOf(card.Due), card.Interval, card.EaseFactor,
			nullUUID(card.DocumentID), boxes, card.Version, card.CreatedAt, card.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to insert card",
				slog.String("card_id", card.ID.String()),
				slog.String("error", err.Error()))
			return store.NewStoreError("card", "create", "insert failed", MapError(err))
		}
	}

	log.Debug("cards created", slog.Int("count", len(cards)))
	return nil
}

// GetByID returns store.ErrCardNotFound when no card has id.
func (s *PostgresCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = $1`, id)
	card, err := scanCard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCardNotFound
		}
		return nil, store.NewStoreError("card", "get", "query failed", MapError(err))
	}
	return card, nil
}

// GetDueCards returns the user's cards in deckIDs whose due date is on or
// before date, oldest due first.
func (s *PostgresCardStore) GetDueCards(
	ctx context.Context,
	userID uuid.UUID,
	deckIDs []uuid.UUID,
	date time.Time,
) ([]*domain.Card, error) {
	if len(deckIDs) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+cardColumns+` FROM cards
		WHERE user_id = $1 AND deck_id = ANY($2::uuid[]) AND due <= $3
		ORDER BY due, created_at, id`,
		userID, uuidStrings(deckIDs), domain.DateOf(date),
	)
	if err != nil {
		return nil, store.NewStoreError("card", "due", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var cards []*domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, store.NewStoreError("card", "due", "scan failed", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("card", "due", "iteration failed", MapError(err))
	}
	return cards, nil
}

// CountDueByDeck counts the user's due cards per deck. Decks without due
// cards are absent from the result.
func (s *PostgresCardStore) CountDueByDeck(
	ctx context.Context,
	userID uuid.UUID,
	date time.Time,
) (map[uuid.UUID]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT deck_id, COUNT(*) FROM cards
		WHERE user_id = $1 AND due <= $2
		GROUP BY deck_id`,
		userID, domain.DateOf(date),
	)
	if err != nil {
		return nil, store.NewStoreError("card", "count", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			deckID uuid.UUID
			n      int
		)
		if err := rows.Scan(&deckID, &n); err != nil {
			return nil, store.NewStoreError("card", "count", "scan failed", err)
		}
		counts[deckID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("card", "count", "iteration failed", MapError(err))
	}
	return counts, nil
}

// Update writes card if its stored version still equals card.Version and
// then increments card.Version. A stale version yields store.ErrConflict.
func (s *PostgresCardStore) Update(ctx context.Context, card *domain.Card) error {
	if err := card.Validate(); err != nil {
		return store.NewStoreError("card", "update", "invalid card", errors.Join(store.ErrInvalidEntity, err))
	}
	boxes, err := encodeBoxes(card.BoundingBoxes)
	if err != nil {
		return store.NewStoreError("card", "update", "encode bounding boxes", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE cards
		SET deck_id = $1, question = $2, answer = $3, due = $4, interval_days = $5,
			ease_factor = $6, document_id = $7, bounding_boxes = $8,
			version = version + 1, updated_at = $9
		WHERE id = $10 AND version = $11`,
		card.DeckID, card.Question, card.Answer, domain.DateOf(card.Due), card.Interval,
		card.EaseFactor, nullUUID(card.DocumentID), boxes,
		card.UpdatedAt, card.ID, card.Version,
	)
	if err != nil {
		return store.NewStoreError("card", "update", "update failed", MapError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM cards WHERE id = $1)`, card.ID).Scan(&exists); err != nil {
			return store.NewStoreError("card", "update", "existence check failed", MapError(err))
		}
		if !exists {
			return store.ErrCardNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Warn("card version conflict",
			slog.String("card_id", card.ID.String()),
			slog.Int("version", card.Version))
		return store.ErrConflict
	}

	card.Version++
	return nil
}

// Delete removes a card together with its review history.
func (s *PostgresCardStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM review_events WHERE card_id = $1`, id); err != nil {
		return store.NewStoreError("card", "delete", "delete history failed", MapError(err))
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		return store.NewStoreError("card", "delete", "delete failed", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrCardNotFound)
}

// DeleteByDecks removes every card the user has in deckIDs and returns how
// many were deleted.
func (s *PostgresCardStore) DeleteByDecks(ctx context.Context, userID uuid.UUID, deckIDs []uuid.UUID) (int64, error) {
	if len(deckIDs) == 0 {
		return 0, nil
	}
	ids := uuidStrings(deckIDs)

	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM review_events WHERE card_id IN (
			SELECT id FROM cards WHERE user_id = $1 AND deck_id = ANY($2::uuid[])
		)`, userID, ids); err != nil {
		return 0, store.NewStoreError("card", "delete", "delete history failed", MapError(err))
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM cards WHERE user_id = $1 AND deck_id = ANY($2::uuid[])`, userID, ids)
	if err != nil {
		return 0, store.NewStoreError("card", "delete", "delete failed", MapError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func scanCard(row rowScanner) (*domain.Card, error) {
	var (
		card  domain.Card
		doc   uuid.NullUUID
		boxes []byte
	)
	if err := row.Scan(&card.ID, &card.UserID, &card.DeckID, &card.Question, &card.Answer,
		&card.Due, &card.Interval, &card.EaseFactor, &doc, &boxes, &card.Version,
		&card.CreatedAt, &card.UpdatedAt); err != nil {
		return nil, err
	}

	card.Due = domain.DateOf(card.Due)
	if doc.Valid {
		id := doc.UUID
		card.DocumentID = &id
	}
	if len(boxes) > 0 {
		if err := json.Unmarshal(boxes, &card.BoundingBoxes); err != nil {
			return nil, fmt.Errorf("failed to decode bounding boxes: %w", err)
		}
	}
	return &card, nil
}

// encodeBoxes returns nil for an empty slice so the column stays NULL.
func encodeBoxes(boxes []domain.BoundingBox) ([]byte, error) {
	if len(boxes) == 0 {
		return nil, nil
	}
	return json.Marshal(boxes)
}
