package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	// MinEaseFactor is the absolute lower bound for a card's ease factor.
	MinEaseFactor = 1.1

	// DefaultInterval is the interval in days assigned to new cards.
	DefaultInterval = 1

	// MaxInterval is the longest interval in days a card can hold.
	MaxInterval = 36500
)

// MaxDue is the latest due date a card can hold.
var MaxDue = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardUserIDEmpty is returned when a card's user ID is empty or nil.
	ErrCardUserIDEmpty = errors.New("card user ID cannot be empty")

	// ErrCardDeckIDEmpty is returned when a card is not attached to a deck.
	ErrCardDeckIDEmpty = errors.New("card deck ID cannot be empty")

	// ErrCardIntervalNegative is returned when a card's interval is below zero.
	ErrCardIntervalNegative = errors.New("card interval cannot be negative")

	// ErrCardIntervalTooLong is returned when a card's interval exceeds MaxInterval.
	ErrCardIntervalTooLong = errors.New("card interval too long")

	// ErrCardEaseTooSmall is returned when a card's ease factor is below MinEaseFactor.
	ErrCardEaseTooSmall = errors.New("card ease factor below floor")

	// ErrCardDueEmpty is returned when a card has no due date.
	ErrCardDueEmpty = errors.New("card due date cannot be empty")

	// ErrCardDueTooLate is returned when a card's due date is after MaxDue.
	ErrCardDueTooLate = errors.New("card due date too far in the future")
)

// BoundingBox marks the region of a source document a card was derived from.
// It is kept for provenance display only.
type BoundingBox struct {
	Page   int     `json:"page"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Card is a single question/answer pair scheduled for spaced review. All
// scheduling state (due, interval, ease) lives on the card itself.
type Card struct {
	ID            uuid.UUID     `json:"id"`
	UserID        uuid.UUID     `json:"user_id"`
	DeckID        uuid.UUID     `json:"deck_id"`
	Question      string        `json:"question"`
	Answer        string        `json:"answer"`
	Due           time.Time     `json:"due"`
	Interval      int           `json:"interval"`
	EaseFactor    float64       `json:"ease_factor"`
	History       []ReviewEvent `json:"history,omitempty"`
	DocumentID    *uuid.UUID    `json:"document_id,omitempty"`
	BoundingBoxes []BoundingBox `json:"bounding_boxes,omitempty"`
	Version       int           `json:"-"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// NewCard creates a card in deckID owned by userID. The card starts with the
// default interval, the given starting ease, and is due on the creation date.
// Question and answer content is not inspected.
func NewCard(userID, deckID uuid.UUID, question, answer string, startingEase float64, now time.Time) (*Card, error) {
	now = now.UTC()
	card := &Card{
		ID:         uuid.New(),
		UserID:     userID,
		DeckID:     deckID,
		Question:   question,
		Answer:     answer,
		Due:        DateOf(now),
		Interval:   DefaultInterval,
		EaseFactor: startingEase,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks the card's scheduling invariants.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}
	if c.UserID == uuid.Nil {
		return ErrCardUserIDEmpty
	}
	if c.DeckID == uuid.Nil {
		return ErrCardDeckIDEmpty
	}
	if c.Interval < 0 {
		return ErrCardIntervalNegative
	}
	if c.Interval > MaxInterval {
		return ErrCardIntervalTooLong
	}
	if c.EaseFactor < MinEaseFactor {
		return ErrCardEaseTooSmall
	}
	if c.Due.IsZero() {
		return ErrCardDueEmpty
	}
	if c.Due.After(MaxDue) {
		return ErrCardDueTooLate
	}
	return nil
}

// IsDue reports whether the card is due on or before the given day.
func (c *Card) IsDue(today time.Time) bool {
	return !c.Due.After(DateOf(today))
}

// UpdateContent replaces the card's question and answer.
func (c *Card) UpdateContent(question, answer string, now time.Time) {
	c.Question = question
	c.Answer = answer
	c.UpdatedAt = now.UTC()
}

// MoveToDeck reassigns the card to another deck.
func (c *Card) MoveToDeck(deckID uuid.UUID, now time.Time) error {
	if deckID == uuid.Nil {
		return ErrCardDeckIDEmpty
	}
	c.DeckID = deckID
	c.UpdatedAt = now.UTC()
	return nil
}

// Postpone pushes the due date back by days without changing the interval
// or ease factor.
func (c *Card) Postpone(days int, now time.Time) error {
	if days < 1 {
		return NewValidationError("days", "must be at least 1", ErrValidation)
	}
	if days > MaxInterval {
		return NewValidationError("days", "must be at most 36500", ErrCardDueTooLate)
	}
	due := AddDays(c.Due, days)
	if due.After(MaxDue) {
		return NewValidationError("days", "moves the due date past the latest allowed date", ErrCardDueTooLate)
	}
	c.Due = due
	c.UpdatedAt = now.UTC()
	return nil
}
