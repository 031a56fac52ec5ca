package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-decks/internal/api/shared"
	"github.com/phrazzld/scry-decks/internal/domain"
	"github.com/phrazzld/scry-decks/internal/platform/logger"
	"github.com/phrazzld/scry-decks/internal/service/session"
)

// SessionHandler serves review sessions rooted at a deck.
type SessionHandler struct {
	sessionService session.Service
	logger         *slog.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(sessionService session.Service, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{
		sessionService: sessionService,
		logger:         logger.With(slog.String("component", "session_handler")),
	}
}

// StartSession handles POST /decks/{id}/session. It answers 204 when
// nothing in the deck or its descendants is due.
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, deckID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	view, err := h.sessionService.StartSession(r.Context(), userID, deckID)
	if errors.Is(err, session.ErrNoCardsDue) {
		log.Debug("no cards due", slog.String("deck_id", deckID.String()))
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start session")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, sessionViewToResponse(view))
}

// SubmitAnswer handles POST /decks/{id}/session/answer. When the last due
// card is answered the response is a completed session without a card.
func (h *SessionHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	userID, deckID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req AnswerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	outcome, err := domain.ParseReviewOutcome(req.Outcome)
	if err != nil {
		HandleAPIError(w, r, domain.NewValidationError("outcome", "must be one of again, hard, good, easy", err), "")
		return
	}

	view, err := h.sessionService.SubmitAnswer(r.Context(), userID, deckID, req.CardID, outcome)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit answer")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, sessionViewToResponse(view))
}

// EndSession handles DELETE /decks/{id}/session. Ending a session that
// does not exist is not an error.
func (h *SessionHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	userID, deckID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	h.sessionService.AbandonSession(userID, deckID)
	w.WriteHeader(http.StatusNoContent)
}
