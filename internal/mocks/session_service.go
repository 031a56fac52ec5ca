package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-decks/internal/domain"
	"github.com/phrazzld/scry-decks/internal/service/session"
)

// MockSessionService implements session.Service and records answers.
type MockSessionService struct {
	StartSessionFn   func(ctx context.Context, userID, deckID uuid.UUID) (*session.View, error)
	SubmitAnswerFn   func(ctx context.Context, userID, deckID, cardID uuid.UUID, outcome domain.ReviewOutcome) (*session.View, error)
	AbandonSessionFn func(userID, deckID uuid.UUID)

	// Defaults used when the matching Fn is nil.
	View *session.View
	Err  error

	mu       sync.Mutex
	Outcomes []domain.ReviewOutcome
}

var _ session.Service = (*MockSessionService)(nil)

func (m *MockSessionService) StartSession(ctx context.Context, userID, deckID uuid.UUID) (*session.View, error) {
	if m.StartSessionFn != nil {
		return m.StartSessionFn(ctx, userID, deckID)
	}
	return m.View, m.Err
}

func (m *MockSessionService) SubmitAnswer(
	ctx context.Context,
	userID, deckID, cardID uuid.UUID,
	outcome domain.ReviewOutcome,
) (*session.View, error) {
	m.mu.Lock()
	m.Outcomes = append(m.Outcomes, outcome)
	m.mu.Unlock()

	if m.SubmitAnswerFn != nil {
		return m.SubmitAnswerFn(ctx, userID, deckID, cardID, outcome)
	}
	return m.View, m.Err
}

func (m *MockSessionService) AbandonSession(userID, deckID uuid.UUID) {
	if m.AbandonSessionFn != nil {
		m.AbandonSessionFn(userID, deckID)
	}
}
