package sqlite

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

// CardStore implements store.CardStore.
type CardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewCardStore creates a card store on db. A nil logger falls back to
// slog.Default.
func NewCardStore(db store.DBTX, logger *slog.Logger) *CardStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CardStore{db: db, logger: logger.With(slog.String("component", "card_store"))}
}

var _ store.CardStore = (*CardStore)(nil)

// WithTx returns a store that runs its queries on tx.
func (s *CardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &CardStore{db: tx, logger: s.logger}
}

const cardColumns = `id, user_id, deck_id, question, answer, due, interval_days, ease_factor,
	document_id, bounding_boxes, version, created_at, updated_at`

// CreateMultiple inserts cards.
func (s *CardStore) CreateMultiple(ctx context.Context, cards []*domain.Card) error {
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
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			card.ID.String(), card.UserID.String(), card.DeckID.String(), card.Question, card.Answer,
			formatDate(card.Due), card.Interval, card.EaseFactor,
			nullableID(card.DocumentID), boxes, card.Version,
			formatTimestamp(card.CreatedAt), formatTimestamp(card.UpdatedAt),
		)
		if err != nil {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to insert card",
				slog.String("card_id", card.ID.String()),
				slog.String("error", err.Error()))
			return store.NewStoreError("card", "create", "insert failed", MapError(err))
		}
	}
	return nil
}

// GetByID returns store.ErrCardNotFound when no card has id.
func (s *CardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	card, err := scanCard(s.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = ?`, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCardNotFound
		}
		return nil, store.NewStoreError("card", "get", "query failed", MapError(err))
	}
	return card, nil
}

// GetDueCards returns the user's cards in deckIDs due on or before date,
// oldest due first.
func (s *CardStore) GetDueCards(
	ctx context.Context,
	userID uuid.UUID,
	deckIDs []uuid.UUID,
	date time.Time,
) ([]*domain.Card, error) {
	if len(deckIDs) == 0 {
		return nil, nil
	}
	marks, deckArgs := inList(deckIDs)
	args := append([]any{userID.String()}, deckArgs...)
	args = append(args, formatDate(date))

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+cardColumns+` FROM cards
		WHERE user_id = ? AND deck_id IN (`+marks+`) AND due <= ?
		ORDER BY due, created_at, id`, args...)
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

// CountDueByDeck counts the user's due cards per deck.
func (s *CardStore) CountDueByDeck(ctx context.Context, userID uuid.UUID, date time.Time) (map[uuid.UUID]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT deck_id, COUNT(*) FROM cards
		WHERE user_id = ? AND due <= ?
		GROUP BY deck_id`, userID.String(), formatDate(date))
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

// Update writes card when the stored version matches card.Version, then
// increments card.Version. A stale version yields store.ErrConflict.
func (s *CardStore) Update(ctx context.Context, card *domain.Card) error {
	if err := card.Validate(); err != nil {
		return store.NewStoreError("card", "update", "invalid card", errors.Join(store.ErrInvalidEntity, err))
	}
	boxes, err := encodeBoxes(card.BoundingBoxes)
	if err != nil {
		return store.NewStoreError("card", "update", "encode bounding boxes", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE cards
		SET deck_id = ?, question = ?, answer = ?, due = ?, interval_days = ?,
			ease_factor = ?, document_id = ?, bounding_boxes = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		card.DeckID.String(), card.Question, card.Answer, formatDate(card.Due), card.Interval,
		card.EaseFactor, nullableID(card.DocumentID), boxes,
		formatTimestamp(card.UpdatedAt), card.ID.String(), card.Version,
	)
	if err != nil {
		return store.NewStoreError("card", "update", "update failed", MapError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		var n int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM cards WHERE id = ?`, card.ID.String()).Scan(&n); err != nil {
			return store.NewStoreError("card", "update", "existence check failed", MapError(err))
		}
		if n == 0 {
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
func (s *CardStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM review_events WHERE card_id = ?`, id.String()); err != nil {
		return store.NewStoreError("card", "delete", "delete history failed", MapError(err))
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id.String())
	if err != nil {
		return store.NewStoreError("card", "delete", "delete failed", MapError(err))
	}
	return checkRowsAffected(result, store.ErrCardNotFound)
}

// DeleteByDecks removes every card the user has in deckIDs and returns how
// many were deleted.
func (s *CardStore) DeleteByDecks(ctx context.Context, userID uuid.UUID, deckIDs []uuid.UUID) (int64, error) {
	if len(deckIDs) == 0 {
		return 0, nil
	}
	marks, deckArgs := inList(deckIDs)
	args := append([]any{userID.String()}, deckArgs...)

	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM review_events WHERE card_id IN (
			SELECT id FROM cards WHERE user_id = ? AND deck_id IN (`+marks+`)
		)`, args...); err != nil {
		return 0, store.NewStoreError("card", "delete", "delete history failed", MapError(err))
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM cards WHERE user_id = ? AND deck_id IN (`+marks+`)`, args...)
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
		card             domain.Card
		due              string
		doc, boxes       sql.NullString
		created, updated string
	)
	if err := row.Scan(&card.ID, &card.UserID, &card.DeckID, &card.Question, &card.Answer,
		&due, &card.Interval, &card.EaseFactor, &doc, &boxes, &card.Version,
		&created, &updated); err != nil {
		return nil, err
	}

	var err error
	if card.Due, err = parseDate(due); err != nil {
		return nil, err
	}
	if card.DocumentID, err = parseNullableID(doc); err != nil {
		return nil, err
	}
	if boxes.Valid && boxes.String != "" {
		if err := json.Unmarshal([]byte(boxes.String), &card.BoundingBoxes); err != nil {
			return nil, fmt.Errorf("failed to decode bounding boxes: %w", err)
		}
	}
	if card.CreatedAt, err = parseTimestamp(created); err != nil {
		return nil, err
	}
	if card.UpdatedAt, err = parseTimestamp(updated); err != nil {
		return nil, err
	}
	return &card, nil
}

// encodeBoxes returns nil for an empty slice so the column stays NULL.
func encodeBoxes(boxes []domain.BoundingBox) (any, error) {
	if len(boxes) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(boxes)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
