package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-decks/internal/domain"
	"github.com/phrazzld/scry-decks/internal/domain/srs"
	"github.com/phrazzld/scry-decks/internal/service"
)

// MockCardService implements service.CardService.
type MockCardService struct {
	CreateCardsFn       func(ctx context.Context, userID, deckID uuid.UUID, inputs []service.CardInput) ([]*domain.Card, error)
	GetCardFn           func(ctx context.Context, userID, cardID uuid.UUID) (*domain.Card, error)
	UpdateCardContentFn func(ctx context.Context, userID, cardID uuid.UUID, update service.CardUpdate) (*domain.Card, error)
	DeleteCardFn        func(ctx context.Context, userID, cardID uuid.UUID) error
	GetCardHistoryFn    func(ctx context.Context, userID, cardID uuid.UUID) ([]domain.ReviewEvent, error)
	PreviewCardFn       func(ctx context.Context, userID, cardID uuid.UUID) (map[domain.ReviewOutcome]srs.Preview, error)
	PostponeCardFn      func(ctx context.Context, userID, cardID uuid.UUID, days int) (*domain.Card, error)

	// Defaults used when the matching Fn is nil.
	Card *domain.Card
	Err  error
}

var _ service.CardService = (*MockCardService)(nil)

func (m *MockCardService) CreateCards(
	ctx context.Context,
	userID, deckID uuid.UUID,
	inputs []service.CardInput,
) ([]*domain.Card, error) {
	if m.CreateCardsFn != nil {
		return m.CreateCardsFn(ctx, userID, deckID, inputs)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return []*domain.Card{m.Card}, nil
}

func (m *MockCardService) GetCard(ctx context.Context, userID, cardID uuid.UUID) (*domain.Card, error) {
	if m.GetCardFn != nil {
		return m.GetCardFn(ctx, userID, cardID)
	}
	return m.Card, m.Err
}

func (m *MockCardService) UpdateCardContent(
	ctx context.Context,
	userID, cardID uuid.UUID,
	update service.CardUpdate,
) (*domain.Card, error) {
	if m.UpdateCardContentFn != nil {
		return m.UpdateCardContentFn(ctx, userID, cardID, update)
	}
	return m.Card, m.Err
}

func (m *MockCardService) DeleteCard(ctx context.Context, userID, cardID uuid.UUID) error {
	if m.DeleteCardFn != nil {
		return m.DeleteCardFn(ctx, userID, cardID)
	}
	return m.Err
}

func (m *MockCardService) GetCardHistory(ctx context.Context, userID, cardID uuid.UUID) ([]domain.ReviewEvent, error) {
	if m.GetCardHistoryFn != nil {
		return m.GetCardHistoryFn(ctx, userID, cardID)
	}
	if m.Card != nil {
		return m.Card.History, m.Err
	}
	return nil, m.Err
}

func (m *MockCardService) PreviewCard(
	ctx context.Context,
	userID, cardID uuid.UUID,
) (map[domain.ReviewOutcome]srs.Preview, error) {
	if m.PreviewCardFn != nil {
		return m.PreviewCardFn(ctx, userID, cardID)
	}
	return nil, m.Err
}

func (m *MockCardService) PostponeCard(ctx context.Context, userID, cardID uuid.UUID, days int) (*domain.Card, error) {
	if m.PostponeCardFn != nil {
		return m.PostponeCardFn(ctx, userID, cardID, days)
	}
	return m.Card, m.Err
}
