package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-decks/internal/domain"
	"github.com/phrazzld/scry-decks/internal/domain/srs"
	"github.com/phrazzld/scry-decks/internal/store"
)

// State is the position of a session in its lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateActive    State = "active"
	StateExhausted State = "exhausted"
)

// View is what the caller sees after starting a session or answering.
type View struct {
	State          State                                `json:"state"`
	DeckID         uuid.UUID                            `json:"deck_id"`
	CurrentCard    *domain.Card                         `json:"current_card,omitempty"`
	Previews       map[domain.ReviewOutcome]srs.Preview `json:"previews,omitempty"`
	RemainingCount int                                  `json:"remaining_count"`
	Reviewed       int                                  `json:"reviewed"`
	Completed      bool                                 `json:"completed"`
}

// Service runs review sessions.
type Service interface {
	// StartSession loads the due cards of deckID and its descendants and
	// serves the earliest due one. Any previous session for the same user
	// and deck is replaced.
	//
	// Returns store.ErrDeckNotFound if the user does not own the deck and
	// ErrNoCardsDue if nothing in the subtree is due.
	StartSession(ctx context.Context, userID, deckID uuid.UUID) (*View, error)

	// SubmitAnswer commits outcome for cardID and returns the next view.
	// Answers for the same user and deck are serialized. When no cards
	// remain due the returned view is exhausted and marked completed.
	//
	// Returns a validation error wrapping ErrInvalidAnswer for an unknown
	// outcome, store.ErrDeckNotFound for a foreign deck, store.ErrCardNotFound
	// for a card that is unknown, foreign or outside the subtree,
	// ErrCardNotDue for a card that is not due today, and
	// store.ErrConflict if the card changed underneath the answer.
	// A rejected answer leaves the card and its history untouched.
	SubmitAnswer(
		ctx context.Context,
		userID, deckID, cardID uuid.UUID,
		outcome domain.ReviewOutcome,
	) (*View, error)

	// AbandonSession forgets the session for userID and deckID, if any.
	AbandonSession(userID, deckID uuid.UUID)
}

var (
	// ErrNoCardsDue is returned by StartSession when the subtree has no
	// due cards.
	ErrNoCardsDue = errors.New("no cards due for review")

	// ErrInvalidAnswer is wrapped by the validation error returned for an
	// unknown outcome label.
	ErrInvalidAnswer = fmt.Errorf("invalid answer: %w", domain.ErrInvalidReviewOutcome)

	// ErrCardNotDue is returned by SubmitAnswer for a card whose due date
	// is after today, such as a repeated submission of an answered card.
	ErrCardNotDue = fmt.Errorf("card is not due for review: %w", store.ErrConflict)
)

// ServiceError adds the failing session operation to an underlying error.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewStartSessionError returns a ServiceError for the start_session operation.
func NewStartSessionError(message string, err error) *ServiceError {
	return &ServiceError{Operation: "start_session", Message: message, Err: err}
}

// NewSubmitAnswerError returns a ServiceError for the submit_answer operation.
func NewSubmitAnswerError(message string, err error) *ServiceError {
	return &ServiceError{Operation: "submit_answer", Message: message, Err: err}
}
