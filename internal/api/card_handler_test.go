package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-decks/internal/api/shared"
	"github.com/phrazzld/scry-decks/internal/domain"
	"github.com/phrazzld/scry-decks/internal/domain/srs"
	"github.com/phrazzld/scry-decks/internal/mocks"
	"github.com/phrazzld/scry-decks/internal/service"
	"github.com/phrazzld/scry-decks/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

func testCard(deckID uuid.UUID) *domain.Card {
	return &domain.Card{
		ID:         uuid.New(),
		DeckID:     deckID,
		Question:   "q",
		Answer:     "a",
		Due:        day,
		Interval:   1,
		EaseFactor: 2.5,
	}
}

func TestCardHandler_CreateCards(t *testing.T) {
	userID, deckID := uuid.New(), uuid.New()
	path := "/decks/" + deckID.String() + "/cards"
	pattern := "/decks/{id}/cards"

	t.Run("created", func(t *testing.T) {
		svc := &mocks.MockCardService{
			CreateCardsFn: func(_ context.Context, _, gotDeck uuid.UUID, inputs []service.CardInput) ([]*domain.Card, error) {
				assert.Equal(t, deckID, gotDeck)
				require.Len(t, inputs, 2)
				assert.Equal(t, "What is a goroutine?", inputs[0].Question)
				return []*domain.Card{testCard(gotDeck), testCard(gotDeck)}, nil
			},
		}
		h := NewCardHandler(svc, quietLogger())

		body := `{"cards":[{"question":"What is a goroutine?","answer":"A lightweight thread"},{"question":"q2","answer":"a2"}]}`
		rec := serve(t, http.MethodPost, pattern, h.CreateCards, path, body, userID)
		require.Equal(t, http.StatusCreated, rec.Code)

		cards := decode[[]CardResponse](t, rec)
		require.Len(t, cards, 2)
		assert.Equal(t, 1, cards[0].Interval)
		assert.Equal(t, 2.5, cards[0].EaseFactor)
		assert.Equal(t, "2026-04-01", cards[0].Due)
	})

	t.Run("empty batch", func(t *testing.T) {
		h := NewCardHandler(&mocks.MockCardService{}, quietLogger())
		rec := serve(t, http.MethodPost, pattern, h.CreateCards, path, `{"cards":[]}`, userID)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid cards: must be at least 1", decode[shared.ErrorResponse](t, rec).Error)
	})

	t.Run("card without answer", func(t *testing.T) {
		h := NewCardHandler(&mocks.MockCardService{}, quietLogger())
		rec := serve(t, http.MethodPost, pattern, h.CreateCards, path, `{"cards":[{"question":"q"}]}`, userID)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid answer: required field", decode[shared.ErrorResponse](t, rec).Error)
	})
}

func TestCardHandler_GetCard(t *testing.T) {
	userID := uuid.New()
	card := testCard(uuid.New())
	card.History = []domain.ReviewEvent{
		{CardID: card.ID, ReviewedAt: day.AddDate(0, 0, -1), Outcome: domain.ReviewOutcomeAgain, Interval: 0, EaseFactor: 2.5},
	}

	h := NewCardHandler(&mocks.MockCardService{Card: card}, quietLogger())
	rec := serve(t, http.MethodGet, "/cards/{id}", h.GetCard, "/cards/"+card.ID.String(), "", userID)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[CardResponse](t, rec)
	require.Len(t, resp.History, 1)
	assert.Equal(t, "again", resp.History[0].Outcome)
	assert.Equal(t, "2026-03-31", resp.History[0].ReviewedAt)

	missing := &mocks.MockCardService{Err: service.NewCardServiceError("get_card", "x", store.ErrCardNotFound)}
	rec = serve(t, http.MethodGet, "/cards/{id}", NewCardHandler(missing, quietLogger()).GetCard, "/cards/"+uuid.NewString(), "", userID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Card not found", decode[shared.ErrorResponse](t, rec).Error)
}

func TestCardHandler_UpdateAndDelete(t *testing.T) {
	userID := uuid.New()
	card := testCard(uuid.New())
	path := "/cards/" + card.ID.String()

	svc := &mocks.MockCardService{
		UpdateCardContentFn: func(_ context.Context, _, _ uuid.UUID, update service.CardUpdate) (*domain.Card, error) {
			card.Question, card.Answer = update.Question, update.Answer
			return card, nil
		},
	}
	rec := serve(t, http.MethodPut, "/cards/{id}", NewCardHandler(svc, quietLogger()).UpdateCard, path,
		`{"question":"new q","answer":"new a"}`, userID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "new q", decode[CardResponse](t, rec).Question)

	rec = serve(t, http.MethodDelete, "/cards/{id}", NewCardHandler(&mocks.MockCardService{}, quietLogger()).DeleteCard, path, "", userID)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCardHandler_PreviewAndHistory(t *testing.T) {
	userID := uuid.New()
	cardID := uuid.New()

	svc := &mocks.MockCardService{
		PreviewCardFn: func(context.Context, uuid.UUID, uuid.UUID) (map[domain.ReviewOutcome]srs.Preview, error) {
			return map[domain.ReviewOutcome]srs.Preview{
				domain.ReviewOutcomeEasy: {Interval: 3, EaseFactor: 3.25, Due: day.AddDate(0, 0, 3)},
			}, nil
		},
		GetCardHistoryFn: func(context.Context, uuid.UUID, uuid.UUID) ([]domain.ReviewEvent, error) {
			return nil, nil
		},
	}
	h := NewCardHandler(svc, quietLogger())

	rec := serve(t, http.MethodGet, "/cards/{id}/preview", h.PreviewCard, "/cards/"+cardID.String()+"/preview", "", userID)
	require.Equal(t, http.StatusOK, rec.Code)
	previews := decode[map[string]PreviewResponse](t, rec)
	assert.Equal(t, PreviewResponse{Interval: 3, EaseFactor: 3.25, Due: "2026-04-04"}, previews["easy"])

	rec = serve(t, http.MethodGet, "/cards/{id}/history", h.GetCardHistory, "/cards/"+cardID.String()+"/history", "", userID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCardHandler_PostponeCard(t *testing.T) {
	userID := uuid.New()
	card := testCard(uuid.New())
	path := "/cards/" + card.ID.String() + "/postpone"
	pattern := "/cards/{id}/postpone"

	svc := &mocks.MockCardService{
		PostponeCardFn: func(_ context.Context, _, _ uuid.UUID, days int) (*domain.Card, error) {
			card.Due = card.Due.AddDate(0, 0, days)
			return card, nil
		},
	}
	h := NewCardHandler(svc, quietLogger())

	rec := serve(t, http.MethodPost, pattern, h.PostponeCard, path, `{"days":2}`, userID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-04-03", decode[CardResponse](t, rec).Due)

	rec = serve(t, http.MethodPost, pattern, h.PostponeCard, path, `{"days":0}`, userID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid days: required field", decode[shared.ErrorResponse](t, rec).Error)
}
