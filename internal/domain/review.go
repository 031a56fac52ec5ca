package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReviewOutcome is the learner's self-assessment of a single review.
type ReviewOutcome string

const (
	// ReviewOutcomeAgain means the card was forgotten and is due again today.
	ReviewOutcomeAgain ReviewOutcome = "again"
	// ReviewOutcomeHard means the card was recalled with significant effort.
	ReviewOutcomeHard ReviewOutcome = "hard"
	// ReviewOutcomeGood means the card was recalled correctly.
	ReviewOutcomeGood ReviewOutcome = "good"
	// ReviewOutcomeEasy means the card was recalled effortlessly.
	ReviewOutcomeEasy ReviewOutcome = "easy"
)

// ReviewOutcomes lists every valid outcome in ascending quality order.
var ReviewOutcomes = []ReviewOutcome{
	ReviewOutcomeAgain,
	ReviewOutcomeHard,
	ReviewOutcomeGood,
	ReviewOutcomeEasy,
}

// Valid reports whether o is one of the four known outcomes.
func (o ReviewOutcome) Valid() bool {
	switch o {
	case ReviewOutcomeAgain, ReviewOutcomeHard, ReviewOutcomeGood, ReviewOutcomeEasy:
		return true
	default:
		return false
	}
}

// ParseReviewOutcome converts a label into a ReviewOutcome. Labels are
// matched case-insensitively after trimming; anything else is rejected.
func ParseReviewOutcome(s string) (ReviewOutcome, error) {
	o := ReviewOutcome(strings.ToLower(strings.TrimSpace(s)))
	if !o.Valid() {
		return "", ErrInvalidReviewOutcome
	}
	return o, nil
}

// Review event validation errors
var (
	ErrReviewEventCardIDEmpty  = errors.New("review event card ID cannot be empty")
	ErrReviewEventDateEmpty    = errors.New("review event date cannot be empty")
	ErrReviewEventNegativeIvl  = errors.New("review event interval cannot be negative")
	ErrReviewEventEaseTooSmall = errors.New("review event ease factor below floor")
)

// ReviewEvent is an immutable record of one committed review. It captures
// the card's state after the review and is never read back by scheduling.
type ReviewEvent struct {
	ID         uuid.UUID     `json:"id"`
	CardID     uuid.UUID     `json:"card_id"`
	ReviewedAt time.Time     `json:"reviewed_at"`
	Outcome    ReviewOutcome `json:"outcome"`
	Interval   int           `json:"interval"`
	EaseFactor float64       `json:"ease_factor"`
}

// NewReviewEvent builds a ReviewEvent for cardID on the given date.
func NewReviewEvent(
	cardID uuid.UUID,
	reviewedAt time.Time,
	outcome ReviewOutcome,
	interval int,
	ease float64,
) (*ReviewEvent, error) {
	event := &ReviewEvent{
		ID:         uuid.New(),
		CardID:     cardID,
		ReviewedAt: DateOf(reviewedAt),
		Outcome:    outcome,
		Interval:   interval,
		EaseFactor: ease,
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return event, nil
}

// Validate checks the event's invariants.
func (e *ReviewEvent) Validate() error {
	if e.CardID == uuid.Nil {
		return ErrReviewEventCardIDEmpty
	}
	if e.ReviewedAt.IsZero() {
		return ErrReviewEventDateEmpty
	}
	if !e.Outcome.Valid() {
		return ErrInvalidReviewOutcome
	}
	if e.Interval < 0 {
		return ErrReviewEventNegativeIvl
	}
	if e.EaseFactor < MinEaseFactor {
		return ErrReviewEventEaseTooSmall
	}
	return nil
}
