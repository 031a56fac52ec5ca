package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-decks/internal/api/shared"
	"github.com/phrazzld/scry-decks/internal/platform/logger"
	"github.com/phrazzld/scry-decks/internal/service"
)

// CardHandler serves card creation, editing, history and previews.
type CardHandler struct {
	cardService service.CardService
	logger      *slog.Logger
}

// NewCardHandler creates a CardHandler.
func NewCardHandler(cardService service.CardService, logger *slog.Logger) *CardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CardHandler{
		cardService: cardService,
		logger:      logger.With(slog.String("component", "card_handler")),
	}
}

// CreateCards handles POST /decks/{id}/cards.
func (h *CardHandler) CreateCards(w http.ResponseWriter, r *http.Request) {
	userID, deckID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req CreateCardsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	inputs := make([]service.CardInput, 0, len(req.Cards))
	for _, c := range req.Cards {
		inputs = append(inputs, service.CardInput{
			Question:      c.Question,
			Answer:        c.Answer,
			DocumentID:    c.DocumentID,
			BoundingBoxes: c.BoundingBoxes,
		})
	}

	cards, err := h.cardService.CreateCards(r.Context(), userID, deckID, inputs)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create cards")
		return
	}

	resp := make([]CardResponse, 0, len(cards))
	for _, card := range cards {
		resp = append(resp, cardToResponse(card))
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, resp)
}

// GetCard handles GET /cards/{id}. The response includes review history.
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	userID, cardID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	card, err := h.cardService.GetCard(r.Context(), userID, cardID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get card")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// UpdateCard handles PUT /cards/{id}.
func (h *CardHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	userID, cardID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateCardRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	card, err := h.cardService.UpdateCardContent(r.Context(), userID, cardID, service.CardUpdate{
		Question: req.Question,
		Answer:   req.Answer,
		DeckID:   req.DeckID,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update card")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// DeleteCard handles DELETE /cards/{id}.
func (h *CardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	userID, cardID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.cardService.DeleteCard(r.Context(), userID, cardID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete card")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("card deleted",
		slog.String("card_id", cardID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// GetCardHistory handles GET /cards/{id}/history.
func (h *CardHandler) GetCardHistory(w http.ResponseWriter, r *http.Request) {
	userID, cardID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	history, err := h.cardService.GetCardHistory(r.Context(), userID, cardID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get card history")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, historyToResponse(history))
}

// PreviewCard handles GET /cards/{id}/preview: the schedule each outcome
// would produce, without changing the card.
func (h *CardHandler) PreviewCard(w http.ResponseWriter, r *http.Request) {
	userID, cardID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	previews, err := h.cardService.PreviewCard(r.Context(), userID, cardID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to preview card")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, previewsToResponse(previews))
}

// PostponeCard handles POST /cards/{id}/postpone.
func (h *CardHandler) PostponeCard(w http.ResponseWriter, r *http.Request) {
	userID, cardID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req PostponeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	card, err := h.cardService.PostponeCard(r.Context(), userID, cardID, req.Days)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to postpone card")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}
