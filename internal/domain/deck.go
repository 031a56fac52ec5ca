package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// MaxDeckNameLength bounds a deck's display name.
const MaxDeckNameLength = 255

// Deck validation errors
var (
	ErrDeckIDEmpty      = errors.New("deck ID cannot be empty")
	ErrDeckUserIDEmpty  = errors.New("deck user ID cannot be empty")
	ErrDeckNameEmpty    = errors.New("deck name cannot be empty")
	ErrDeckNameTooLong  = errors.New("deck name is too long")
	ErrDeckSelfParented = errors.New("deck cannot be its own parent")
)

// Deck groups cards. Decks may nest under a parent deck, forming a forest
// per user.
type Deck struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewDeck creates a deck owned by userID. A nil parentID makes it a root.
func NewDeck(userID uuid.UUID, name, description string, parentID *uuid.UUID) (*Deck, error) {
	now := time.Now().UTC()
	deck := &Deck{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		Description: description,
		ParentID:    parentID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := deck.Validate(); err != nil {
		return nil, err
	}

	return deck, nil
}

// Validate checks the deck's own invariants. Acyclicity across decks is
// checked by the hierarchy package, which sees the whole forest.
func (d *Deck) Validate() error {
	if d.ID == uuid.Nil {
		return ErrDeckIDEmpty
	}
	if d.UserID == uuid.Nil {
		return ErrDeckUserIDEmpty
	}
	if d.Name == "" {
		return ErrDeckNameEmpty
	}
	if len(d.Name) > MaxDeckNameLength {
		return ErrDeckNameTooLong
	}
	if d.ParentID != nil && *d.ParentID == d.ID {
		return ErrDeckSelfParented
	}
	return nil
}

// IsRoot reports whether the deck has no parent.
func (d *Deck) IsRoot() bool {
	return d.ParentID == nil
}
