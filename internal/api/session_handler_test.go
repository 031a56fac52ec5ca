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
	"github.com/phrazzld/scry-decks/internal/service/session"
	"github.com/phrazzld/scry-decks/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeView(deckID uuid.UUID) *session.View {
	today := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	card := &domain.Card{
		ID:         uuid.New(),
		DeckID:     deckID,
		Question:   "What does chi route?",
		Answer:     "HTTP requests",
		Due:        today,
		Interval:   1,
		EaseFactor: 2.5,
	}
	return &session.View{
		State:       session.StateActive,
		DeckID:      deckID,
		CurrentCard: card,
		Previews: map[domain.ReviewOutcome]srs.Preview{
			domain.ReviewOutcomeAgain: {Interval: 0, EaseFactor: 2.5, Due: today},
			domain.ReviewOutcomeGood:  {Interval: 3, EaseFactor: 2.65, Due: today.AddDate(0, 0, 3)},
		},
		RemainingCount: 2,
	}
}

func TestSessionHandler_StartSession(t *testing.T) {
	userID, deckID := uuid.New(), uuid.New()
	path := "/decks/" + deckID.String() + "/session"

	t.Run("active session", func(t *testing.T) {
		view := activeView(deckID)
		svc := &mocks.MockSessionService{
			StartSessionFn: func(_ context.Context, gotUser, gotDeck uuid.UUID) (*session.View, error) {
				assert.Equal(t, userID, gotUser)
				assert.Equal(t, deckID, gotDeck)
				return view, nil
			},
		}
		h := NewSessionHandler(svc, quietLogger())

		rec := serve(t, http.MethodPost, "/decks/{id}/session", h.StartSession, path, "", userID)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode[SessionResponse](t, rec)
		assert.Equal(t, "active", body.State)
		require.NotNil(t, body.CurrentCard)
		assert.Equal(t, view.CurrentCard.ID, body.CurrentCard.ID)
		assert.Equal(t, "2026-04-01", body.CurrentCard.Due)
		assert.Equal(t, 3, body.Previews["good"].Interval)
		assert.Equal(t, "2026-04-04", body.Previews["good"].Due)
		assert.Equal(t, 2, body.RemainingCount)
		assert.False(t, body.Completed)
	})

	t.Run("no cards due", func(t *testing.T) {
		h := NewSessionHandler(&mocks.MockSessionService{Err: session.ErrNoCardsDue}, quietLogger())
		rec := serve(t, http.MethodPost, "/decks/{id}/session", h.StartSession, path, "", userID)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("deck not found", func(t *testing.T) {
		svc := &mocks.MockSessionService{Err: session.NewStartSessionError("failed to resolve deck", store.ErrDeckNotFound)}
		h := NewSessionHandler(svc, quietLogger())
		rec := serve(t, http.MethodPost, "/decks/{id}/session", h.StartSession, path, "", userID)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Deck not found", decode[shared.ErrorResponse](t, rec).Error)
	})

	t.Run("malformed deck id", func(t *testing.T) {
		h := NewSessionHandler(&mocks.MockSessionService{}, quietLogger())
		rec := serve(t, http.MethodPost, "/decks/{id}/session", h.StartSession, "/decks/nope/session", "", userID)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		h := NewSessionHandler(&mocks.MockSessionService{}, quietLogger())
		rec := serve(t, http.MethodPost, "/decks/{id}/session", h.StartSession, path, "", uuid.Nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestSessionHandler_SubmitAnswer(t *testing.T) {
	userID, deckID, cardID := uuid.New(), uuid.New(), uuid.New()
	path := "/decks/" + deckID.String() + "/session/answer"
	pattern := "/decks/{id}/session/answer"
	body := func(outcome string) string {
		return `{"card_id":"` + cardID.String() + `","outcome":"` + outcome + `"}`
	}

	t.Run("outcome label is case insensitive", func(t *testing.T) {
		svc := &mocks.MockSessionService{
			SubmitAnswerFn: func(_ context.Context, _, _, gotCard uuid.UUID, outcome domain.ReviewOutcome) (*session.View, error) {
				assert.Equal(t, cardID, gotCard)
				assert.Equal(t, domain.ReviewOutcomeGood, outcome)
				return activeView(deckID), nil
			},
		}
		h := NewSessionHandler(svc, quietLogger())

		rec := serve(t, http.MethodPost, pattern, h.SubmitAnswer, path, body(" GOOD "), userID)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, svc.Outcomes, 1)
	})

	t.Run("completed session", func(t *testing.T) {
		svc := &mocks.MockSessionService{View: &session.View{
			State:     session.StateExhausted,
			DeckID:    deckID,
			Reviewed:  4,
			Completed: true,
		}}
		h := NewSessionHandler(svc, quietLogger())

		rec := serve(t, http.MethodPost, pattern, h.SubmitAnswer, path, body("easy"), userID)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[SessionResponse](t, rec)
		assert.True(t, resp.Completed)
		assert.Equal(t, "exhausted", resp.State)
		assert.Nil(t, resp.CurrentCard)
		assert.Equal(t, 4, resp.Reviewed)
	})

	t.Run("invalid outcome never reaches the service", func(t *testing.T) {
		svc := &mocks.MockSessionService{}
		h := NewSessionHandler(svc, quietLogger())

		rec := serve(t, http.MethodPost, pattern, h.SubmitAnswer, path, body("perfect"), userID)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid outcome: must be one of again, hard, good, easy",
			decode[shared.ErrorResponse](t, rec).Error)
		assert.Empty(t, svc.Outcomes)
	})

	t.Run("missing card id", func(t *testing.T) {
		svc := &mocks.MockSessionService{}
		h := NewSessionHandler(svc, quietLogger())

		rec := serve(t, http.MethodPost, pattern, h.SubmitAnswer, path, `{"outcome":"good"}`, userID)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid card_id: required field", decode[shared.ErrorResponse](t, rec).Error)
		assert.Empty(t, svc.Outcomes)
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		h := NewSessionHandler(&mocks.MockSessionService{}, quietLogger())
		rec := serve(t, http.MethodPost, pattern, h.SubmitAnswer, path, `{"card":"x"}`, userID)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid request format", decode[shared.ErrorResponse](t, rec).Error)
	})

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"card outside subtree", session.NewSubmitAnswerError("failed to commit answer", store.ErrCardNotFound), http.StatusNotFound},
		{"lost update", session.NewSubmitAnswerError("failed to commit answer", store.ErrConflict), http.StatusConflict},
		{"card not due", session.NewSubmitAnswerError("failed to commit answer", session.ErrCardNotDue), http.StatusConflict},
		{"storage failure", session.NewSubmitAnswerError("failed to commit answer", assert.AnError), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSessionHandler(&mocks.MockSessionService{Err: tt.err}, quietLogger())
			rec := serve(t, http.MethodPost, pattern, h.SubmitAnswer, path, body("hard"), userID)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestSessionHandler_EndSession(t *testing.T) {
	userID, deckID := uuid.New(), uuid.New()
	var abandoned bool
	svc := &mocks.MockSessionService{
		AbandonSessionFn: func(gotUser, gotDeck uuid.UUID) {
			abandoned = gotUser == userID && gotDeck == deckID
		},
	}
	h := NewSessionHandler(svc, quietLogger())

	rec := serve(t, http.MethodDelete, "/decks/{id}/session", h.EndSession, "/decks/"+deckID.String()+"/session", "", userID)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, abandoned)
}
