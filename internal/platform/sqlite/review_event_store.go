package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-decks/internal/domain"
	"github.com/phrazzld/scry-decks/internal/store"
)

// ReviewEventStore implements store.ReviewEventStore.
type ReviewEventStore struct {
	db store.DBTX
}

// NewReviewEventStore creates a review history store on db.
func NewReviewEventStore(db store.DBTX) *ReviewEventStore {
	return &ReviewEventStore{db: db}
}

var _ store.ReviewEventStore = (*ReviewEventStore)(nil)

// WithTx returns a store that runs its queries on tx.
func (s *ReviewEventStore) WithTx(tx *sql.Tx) store.ReviewEventStore {
	return &ReviewEventStore{db: tx}
}

// Append adds event to the end of its card's history.
func (s *ReviewEventStore) Append(ctx context.Context, event *domain.ReviewEvent) error {
	if err := event.Validate(); err != nil {
		return store.NewStoreError("review_event", "append", "invalid event", errors.Join(store.ErrInvalidEntity, err))
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO review_events (id, card_id, reviewed_at, outcome, interval_days, ease_factor)
		VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID.String(), event.CardID.String(), formatDate(event.ReviewedAt),
		string(event.Outcome), event.Interval, event.EaseFactor,
	)
	if err != nil {
		return store.NewStoreError("review_event", "append", "insert failed", MapError(err))
	}
	return nil
}

// ListByCard returns a card's history in insertion order.
func (s *ReviewEventStore) ListByCard(ctx context.Context, cardID uuid.UUID) ([]domain.ReviewEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, card_id, reviewed_at, outcome, interval_days, ease_factor
		FROM review_events WHERE card_id = ?
		ORDER BY rowid`, cardID.String())
	if err != nil {
		return nil, store.NewStoreError("review_event", "list", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	events := []domain.ReviewEvent{}
	for rows.Next() {
		var (
			event             domain.ReviewEvent
			reviewed, outcome string
		)
		if err := rows.Scan(&event.ID, &event.CardID, &reviewed, &outcome,
			&event.Interval, &event.EaseFactor); err != nil {
			return nil, store.NewStoreError("review_event", "list", "scan failed", err)
		}
		if event.ReviewedAt, err = parseDate(reviewed); err != nil {
			return nil, store.NewStoreError("review_event", "list", "decode failed", err)
		}
		event.Outcome = domain.ReviewOutcome(outcome)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("review_event", "list", "iteration failed", MapError(err))
	}
	return events, nil
}
