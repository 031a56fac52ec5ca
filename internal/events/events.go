package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-decks/internal/domain"
)

// TypeReviewRecorded is emitted after a review answer has been committed.
const TypeReviewRecorded = "review.recorded"

// Event is a typed, JSON-encoded notification.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into v.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates an Event of eventType with payload encoded as JSON.
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// ReviewRecorded is the payload of a TypeReviewRecorded event.
type ReviewRecorded struct {
	UserID     uuid.UUID            `json:"user_id"`
	DeckID     uuid.UUID            `json:"deck_id"`
	CardID     uuid.UUID            `json:"card_id"`
	Outcome    domain.ReviewOutcome `json:"outcome"`
	Interval   int                  `json:"interval"`
	EaseFactor float64              `json:"ease_factor"`
	Due        time.Time            `json:"due"`
	ReviewedAt time.Time            `json:"reviewed_at"`
}

// NewReviewRecordedEvent builds the event for a committed review of card.
func NewReviewRecordedEvent(userID, sessionDeckID uuid.UUID, card *domain.Card, review *domain.ReviewEvent) (*Event, error) {
	return NewEvent(TypeReviewRecorded, ReviewRecorded{
		UserID:     userID,
		DeckID:     sessionDeckID,
		CardID:     card.ID,
		Outcome:    review.Outcome,
		Interval:   review.Interval,
		EaseFactor: review.EaseFactor,
		Due:        card.Due,
		ReviewedAt: review.ReviewedAt,
	})
}

// EventHandler processes emitted events.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// EventEmitter publishes events to whatever handlers are registered.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *Event) error
}
