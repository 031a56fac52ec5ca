package srs

import (
	"errors"
	"fmt"
	"time"

	"github.com/phrazzld/scry-decks/internal/domain"
)

// Common errors
var (
	ErrNilCard = errors.New("card cannot be nil")

	// ErrInvalidOutcome aliases the domain sentinel so callers can match either.
	ErrInvalidOutcome = domain.ErrInvalidReviewOutcome
)

// Preview is the projected result of one outcome, shown before the learner
// answers.
type Preview struct {
	Interval   int       `json:"interval"`
	EaseFactor float64   `json:"ease_factor"`
	Due        time.Time `json:"due"`
}

// Service exposes the review engine. Previews and committed reviews share
// NextState, so the projection a learner sees is exactly what gets applied.
type Service interface {
	// NextState computes the schedule following outcome.
	NextState(interval int, ease float64, outcome domain.ReviewOutcome) (Schedule, error)

	// PreviewAllOutcomes projects every outcome for card without changing it.
	PreviewAllOutcomes(card *domain.Card, now time.Time) (map[domain.ReviewOutcome]Preview, error)

	// ApplyReview commits outcome to card: it updates due, interval and ease
	// and appends a ReviewEvent. On error the card is left untouched.
	ApplyReview(card *domain.Card, outcome domain.ReviewOutcome, now time.Time) (*domain.ReviewEvent, error)

	// StartingEase is the ease factor assigned to new cards.
	StartingEase() float64
}

type defaultService struct {
	params *Params
}

var _ Service = (*defaultService)(nil)

// NewDefaultService creates a Service with the default parameters.
func NewDefaultService() (Service, error) {
	return NewServiceWithParams(NewDefaultParams())
}

// NewServiceWithParams creates a Service with custom parameters.
func NewServiceWithParams(params *Params) (Service, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: params cannot be nil", ErrInvalidParams)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &defaultService{params: params}, nil
}

func (s *defaultService) NextState(interval int, ease float64, outcome domain.ReviewOutcome) (Schedule, error) {
	return NextState(s.params, interval, ease, outcome)
}

func (s *defaultService) StartingEase() float64 {
	return s.params.StartingEase
}

func (s *defaultService) PreviewAllOutcomes(
	card *domain.Card,
	now time.Time,
) (map[domain.ReviewOutcome]Preview, error) {
	if card == nil {
		return nil, ErrNilCard
	}

	today := domain.DateOf(now)
	previews := make(map[domain.ReviewOutcome]Preview, len(domain.ReviewOutcomes))
	for _, outcome := range domain.ReviewOutcomes {
		next, err := NextState(s.params, card.Interval, card.EaseFactor, outcome)
		if err != nil {
			return nil, err
		}
		previews[outcome] = Preview{
			Interval:   next.Interval,
			EaseFactor: next.EaseFactor,
			Due:        domain.AddDays(today, next.Interval),
		}
	}
	return previews, nil
}

func (s *defaultService) ApplyReview(
	card *domain.Card,
	outcome domain.ReviewOutcome,
	now time.Time,
) (*domain.ReviewEvent, error) {
	if card == nil {
		return nil, ErrNilCard
	}

	next, err := NextState(s.params, card.Interval, card.EaseFactor, outcome)
	if err != nil {
		return nil, err
	}

	today := domain.DateOf(now)
	event, err := domain.NewReviewEvent(card.ID, today, outcome, next.Interval, next.EaseFactor)
	if err != nil {
		return nil, err
	}

	card.Interval = next.Interval
	card.EaseFactor = next.EaseFactor
	card.Due = domain.AddDays(today, next.Interval)
	card.UpdatedAt = now.UTC()
	card.History = append(card.History, *event)

	return event, nil
}
