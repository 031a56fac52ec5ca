package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-decks/internal/domain"
	"github.com/phrazzld/scry-decks/internal/domain/srs"
	"github.com/phrazzld/scry-decks/internal/service"
	"github.com/phrazzld/scry-decks/internal/service/session"
)

// dateLayout formats date-grained fields such as due dates.
const dateLayout = "2006-01-02"

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest is the body of POST /auth/refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse is returned by every auth endpoint.
type AuthResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	// ExpiresAt is the RFC 3339 expiry of the access token.
	ExpiresAt string `json:"expires_at"`
}

// DeckRequest is the body of POST /decks and PUT /decks/{id}.
type DeckRequest struct {
	Name        string     `json:"name"        validate:"required,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	ParentID    *uuid.UUID `json:"parent_id"`
}

// DeckResponse describes one deck. Depth and the due counts are only set
// in the ordered listing.
type DeckResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	Depth       int        `json:"depth"`
	DueCount    int        `json:"due_count"`
	TotalDue    int        `json:"total_due"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DeleteDeckResponse reports how much a deck deletion removed.
type DeleteDeckResponse struct {
	DeletedCards int64 `json:"deleted_cards"`
}

// CardContent is one card in a CreateCardsRequest.
type CardContent struct {
	Question      string               `json:"question"       validate:"required,max=10000"`
	Answer        string               `json:"answer"         validate:"required,max=10000"`
	DocumentID    *uuid.UUID           `json:"document_id"`
	BoundingBoxes []domain.BoundingBox `json:"bounding_boxes" validate:"max=50"`
}

// CreateCardsRequest is the body of POST /decks/{id}/cards.
type CreateCardsRequest struct {
	Cards []CardContent `json:"cards" validate:"required,min=1,max=100,dive"`
}

// UpdateCardRequest is the body of PUT /cards/{id}.
type UpdateCardRequest struct {
	Question string     `json:"question" validate:"required,max=10000"`
	Answer   string     `json:"answer"   validate:"required,max=10000"`
	DeckID   *uuid.UUID `json:"deck_id"`
}

// PostponeRequest is the body of POST /cards/{id}/postpone.
type PostponeRequest struct {
	Days int `json:"days" validate:"required,min=1,max=365"`
}

// AnswerRequest is the body of POST /decks/{id}/session/answer.
type AnswerRequest struct {
	CardID  uuid.UUID `json:"card_id" validate:"required"`
	Outcome string    `json:"outcome" validate:"required"`
}

// CardResponse describes a card and its schedule.
type CardResponse struct {
	ID            uuid.UUID             `json:"id"`
	DeckID        uuid.UUID             `json:"deck_id"`
	Question      string                `json:"question"`
	Answer        string                `json:"answer"`
	Due           string                `json:"due"`
	Interval      int                   `json:"interval"`
	EaseFactor    float64               `json:"ease_factor"`
	DocumentID    *uuid.UUID            `json:"document_id,omitempty"`
	BoundingBoxes []domain.BoundingBox  `json:"bounding_boxes,omitempty"`
	History       []ReviewEventResponse `json:"history,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// ReviewEventResponse is one entry of a card's review history.
type ReviewEventResponse struct {
	ReviewedAt string  `json:"reviewed_at"`
	Outcome    string  `json:"outcome"`
	Interval   int     `json:"interval"`
	EaseFactor float64 `json:"ease_factor"`
}

// PreviewResponse is the projected schedule for one outcome.
type PreviewResponse struct {
	Interval   int     `json:"interval"`
	EaseFactor float64 `json:"ease_factor"`
	Due        string  `json:"due"`
}

// SessionResponse is returned when a session starts and after each answer.
type SessionResponse struct {
	State          string                     `json:"state"`
	DeckID         uuid.UUID                  `json:"deck_id"`
	CurrentCard    *CardResponse              `json:"current_card,omitempty"`
	Previews       map[string]PreviewResponse `json:"previews,omitempty"`
	RemainingCount int                        `json:"remaining_count"`
	Reviewed       int                        `json:"reviewed"`
	Completed      bool                       `json:"completed"`
}

func deckToResponse(deck *domain.Deck) DeckResponse {
	return DeckResponse{
		ID:          deck.ID,
		Name:        deck.Name,
		Description: deck.Description,
		ParentID:    deck.ParentID,
		CreatedAt:   deck.CreatedAt,
		UpdatedAt:   deck.UpdatedAt,
	}
}

func decksWithDueToResponse(decks []service.DeckWithDue) []DeckResponse {
	resp := make([]DeckResponse, 0, len(decks))
	for i := range decks {
		d := deckToResponse(&decks[i].Deck)
		d.Depth = decks[i].Depth
		d.DueCount = decks[i].DueCount
		d.TotalDue = decks[i].TotalDue
		resp = append(resp, d)
	}
	return resp
}

func cardToResponse(card *domain.Card) CardResponse {
	resp := CardResponse{
		ID:            card.ID,
		DeckID:        card.DeckID,
		Question:      card.Question,
		Answer:        card.Answer,
		Due:           card.Due.Format(dateLayout),
		Interval:      card.Interval,
		EaseFactor:    card.EaseFactor,
		DocumentID:    card.DocumentID,
		BoundingBoxes: card.BoundingBoxes,
		CreatedAt:     card.CreatedAt,
		UpdatedAt:     card.UpdatedAt,
	}
	if len(card.History) > 0 {
		resp.History = historyToResponse(card.History)
	}
	return resp
}

func historyToResponse(events []domain.ReviewEvent) []ReviewEventResponse {
	resp := make([]ReviewEventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, ReviewEventResponse{
			ReviewedAt: e.ReviewedAt.Format(dateLayout),
			Outcome:    string(e.Outcome),
			Interval:   e.Interval,
			EaseFactor: e.EaseFactor,
		})
	}
	return resp
}

func previewsToResponse(previews map[domain.ReviewOutcome]srs.Preview) map[string]PreviewResponse {
	resp := make(map[string]PreviewResponse, len(previews))
	for outcome, p := range previews {
		resp[string(outcome)] = PreviewResponse{
			Interval:   p.Interval,
			EaseFactor: p.EaseFactor,
			Due:        p.Due.Format(dateLayout),
		}
	}
	return resp
}

func sessionViewToResponse(view *session.View) SessionResponse {
	resp := SessionResponse{
		State:          string(view.State),
		DeckID:         view.DeckID,
		RemainingCount: view.RemainingCount,
		Reviewed:       view.Reviewed,
		Completed:      view.Completed,
	}
	if view.CurrentCard != nil {
		card := cardToResponse(view.CurrentCard)
		resp.CurrentCard = &card
		resp.Previews = previewsToResponse(view.Previews)
	}
	return resp
}
