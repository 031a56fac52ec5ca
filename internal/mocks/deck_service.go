package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-decks/internal/domain"
	"github.com/phrazzld/scry-decks/internal/service"
)

// MockDeckService implements service.DeckService.
type MockDeckService struct {
	ListDecksOrderedFn func(ctx context.Context, userID uuid.UUID) ([]service.DeckWithDue, error)
	CreateDeckFn       func(ctx context.Context, userID uuid.UUID, input service.DeckInput) (*domain.Deck, error)
	GetDeckFn          func(ctx context.Context, userID, deckID uuid.UUID) (*domain.Deck, error)
	UpdateDeckFn       func(ctx context.Context, userID, deckID uuid.UUID, input service.DeckInput) (*domain.Deck, error)
	DeleteDeckFn       func(ctx context.Context, userID, deckID uuid.UUID) (int64, error)

	// Defaults used when the matching Fn is nil.
	Decks []service.DeckWithDue
	Deck  *domain.Deck
	Err   error
}

var _ service.DeckService = (*MockDeckService)(nil)

func (m *MockDeckService) ListDecksOrdered(ctx context.Context, userID uuid.UUID) ([]service.DeckWithDue, error) {
	if m.ListDecksOrderedFn != nil {
		return m.ListDecksOrderedFn(ctx, userID)
	}
	return m.Decks, m.Err
}

func (m *MockDeckService) CreateDeck(ctx context.Context, userID uuid.UUID, input service.DeckInput) (*domain.Deck, error) {
	if m.CreateDeckFn != nil {
		return m.CreateDeckFn(ctx, userID, input)
	}
	return m.Deck, m.Err
}

func (m *MockDeckService) GetDeck(ctx context.Context, userID, deckID uuid.UUID) (*domain.Deck, error) {
	if m.GetDeckFn != nil {
		return m.GetDeckFn(ctx, userID, deckID)
	}
	return m.Deck, m.Err
}

func (m *MockDeckService) UpdateDeck(
	ctx context.Context,
	userID, deckID uuid.UUID,
	input service.DeckInput,
) (*domain.Deck, error) {
	if m.UpdateDeckFn != nil {
		return m.UpdateDeckFn(ctx, userID, deckID, input)
	}
	return m.Deck, m.Err
}

func (m *MockDeckService) DeleteDeck(ctx context.Context, userID, deckID uuid.UUID) (int64, error) {
	if m.DeleteDeckFn != nil {
		return m.DeleteDeckFn(ctx, userID, deckID)
	}
	return 0, m.Err
}
