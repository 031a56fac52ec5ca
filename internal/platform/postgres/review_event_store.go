package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-decks/internal/domain"
	"github.com/phrazzld/scry-decks/internal/store"
)

// PostgresReviewEventStore implements store.ReviewEventStore.
type PostgresReviewEventStore struct {
	db store.DBTX
}

// NewPostgresReviewEventStore creates a review history store on db.
func NewPostgresReviewEventStore(db store.DBTX) *PostgresReviewEventStore {
	return &PostgresReviewEventStore{db: db}
}

var _ store.ReviewEventStore = (*PostgresReviewEventStore)(nil)

// WithTx returns a store that runs its queries on tx.
func (s *PostgresReviewEventStore) WithTx(tx *sql.Tx) store.ReviewEventStore {
	return &PostgresReviewEventStore{db: tx}
}

// Append adds event to the end of its card's history.
func (s *PostgresReviewEventStore) Append(ctx context.Context, event *domain.ReviewEvent) error {
	if err := event.Validate(); err != nil {
		return store.NewStoreError("review_event", "append", "invalid event", errors.Join(store.ErrInvalidEntity, err))
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO review_events (id, card_id, reviewed_at, outcome, interval_days, ease_factor)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.CardID, domain.DateOf(event.ReviewedAt), string(event.Outcome),
		event.Interval, event.EaseFactor,
	)
	if err != nil {
		return store.NewStoreError("review_event", "append", "insert failed", MapError(err))
	}
	return nil
}

// ListByCard returns a card's history in the order it was recorded.
func (s *PostgresReviewEventStore) ListByCard(ctx context.Context, cardID uuid.UUID) ([]domain.ReviewEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, card_id, reviewed_at, outcome, interval_days, ease_factor
		FROM review_events WHERE card_id = $1
		ORDER BY seq`, cardID)
	if err != nil {
		return nil, store.NewStoreError("review_event", "list", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	events := []domain.ReviewEvent{}
	for rows.Next() {
		var (
			event   domain.ReviewEvent
			outcome string
		)
		if err := rows.Scan(&event.ID, &event.CardID, &event.ReviewedAt, &outcome,
			&event.Interval, &event.EaseFactor); err != nil {
			return nil, store.NewStoreError("review_event", "list", "scan failed", err)
		}
		event.Outcome = domain.ReviewOutcome(outcome)
		event.ReviewedAt = domain.DateOf(event.ReviewedAt)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("review_event", "list", "iteration failed", MapError(err))
	}
	return events, nil
}
