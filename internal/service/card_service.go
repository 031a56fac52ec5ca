package service

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-decks/internal/domain"
	"github.com/phrazzld/scry-decks/internal/domain/srs"
	"github.com/phrazzld/scry-decks/internal/platform/logger"
	"github.com/phrazzld/scry-decks/internal/store"
)

// CardInput is the content of a card to create.
type CardInput struct {
	Question      string
	Answer        string
	DocumentID    *uuid.UUID
	BoundingBoxes []domain.BoundingBox
}

// CardUpdate replaces a card's content and optionally moves it to another
// deck the user owns.
type CardUpdate struct {
	Question string
	Answer   string
	DeckID   *uuid.UUID
}

// CardService provides card-related operations. Every method hides cards
// owned by another user behind store.ErrCardNotFound.
type CardService interface {
	// CreateCards creates cards in deckID in a single transaction. New cards
	// are due today with the default interval and the starting ease.
	CreateCards(ctx context.Context, userID, deckID uuid.UUID, inputs []CardInput) ([]*domain.Card, error)

	// GetCard retrieves a card with its review history.
	GetCard(ctx context.Context, userID, cardID uuid.UUID) (*domain.Card, error)

	UpdateCardContent(ctx context.Context, userID, cardID uuid.UUID, update CardUpdate) (*domain.Card, error)

	DeleteCard(ctx context.Context, userID, cardID uuid.UUID) error

	// GetCardHistory lists a card's review events oldest first.
	GetCardHistory(ctx context.Context, userID, cardID uuid.UUID) ([]domain.ReviewEvent, error)

	// PreviewCard projects the schedule for every outcome without changing
	// the card.
	PreviewCard(ctx context.Context, userID, cardID uuid.UUID) (map[domain.ReviewOutcome]srs.Preview, error)

	// PostponeCard pushes the due date back by days. Interval and ease are
	// unchanged and no history is recorded.
	PostponeCard(ctx context.Context, userID, cardID uuid.UUID, days int) (*domain.Card, error)
}

type cardServiceImpl struct {
	db         *sql.DB
	cardStore  store.CardStore
	deckStore  store.DeckStore
	eventStore store.ReviewEventStore
	srsService srs.Service
	clock      Clock
	logger     *slog.Logger
}

// NewCardService creates a CardService. It returns an error if a required
// dependency is nil.
func NewCardService(
	db *sql.DB,
	cardStore store.CardStore,
	deckStore store.DeckStore,
	eventStore store.ReviewEventStore,
	srsService srs.Service,
	logger *slog.Logger,
) (CardService, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if cardStore == nil {
		return nil, domain.NewValidationError("cardStore", "cannot be nil", domain.ErrValidation)
	}
	if deckStore == nil {
		return nil, domain.NewValidationError("deckStore", "cannot be nil", domain.ErrValidation)
	}
	if eventStore == nil {
		return nil, domain.NewValidationError("eventStore", "cannot be nil", domain.ErrValidation)
	}
	if srsService == nil {
		return nil, domain.NewValidationError("srsService", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &cardServiceImpl{
		db:         db,
		cardStore:  cardStore,
		deckStore:  deckStore,
		eventStore: eventStore,
		srsService: srsService,
		clock:      systemClock,
		logger:     logger.With(slog.String("component", "card_service")),
	}, nil
}

func (s *cardServiceImpl) CreateCards(
	ctx context.Context,
	userID, deckID uuid.UUID,
	inputs []CardInput,
) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(inputs) == 0 {
		return nil, domain.NewValidationError("cards", "must not be empty", ErrEmptyCardBatch)
	}
	if err := s.checkDeckOwner(ctx, userID, deckID); err != nil {
		return nil, NewCardServiceError("create_cards", "deck not found", err)
	}

	now := s.clock()
	cards := make([]*domain.Card, 0, len(inputs))
	for _, in := range inputs {
		card, err := domain.NewCard(userID, deckID, in.Question, in.Answer, s.srsService.StartingEase(), now)
		if err != nil {
			return nil, domain.NewValidationError("card", err.Error(), err)
		}
		card.DocumentID = in.DocumentID
		card.BoundingBoxes = in.BoundingBoxes
		cards = append(cards, card)
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.cardStore.WithTx(tx).CreateMultiple(ctx, cards)
	})
	if err != nil {
		log.Error("failed to create cards",
			slog.String("deck_id", deckID.String()),
			slog.String("error", err.Error()))
		return nil, NewCardServiceError("create_cards", "failed to save cards", err)
	}

	log.Info("cards created",
		slog.String("deck_id", deckID.String()),
		slog.Int("card_count", len(cards)))
	return cards, nil
}

func (s *cardServiceImpl) GetCard(ctx context.Context, userID, cardID uuid.UUID) (*domain.Card, error) {
	card, err := s.ownedCard(ctx, userID, cardID)
	if err != nil {
		return nil, NewCardServiceError("get_card", "failed to get card", err)
	}
	history, err := s.eventStore.ListByCard(ctx, cardID)
	if err != nil {
		return nil, NewCardServiceError("get_card", "failed to load history", err)
	}
	card.History = history
	return card, nil
}

func (s *cardServiceImpl) UpdateCardContent(
	ctx context.Context,
	userID, cardID uuid.UUID,
	update CardUpdate,
) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := s.ownedCard(ctx, userID, cardID)
	if err != nil {
		return nil, NewCardServiceError("update_card", "failed to get card", err)
	}

	now := s.clock()
	if update.DeckID != nil && *update.DeckID != card.DeckID {
		if err := s.checkDeckOwner(ctx, userID, *update.DeckID); err != nil {
			return nil, NewCardServiceError("update_card", "target deck not found", err)
		}
		if err := card.MoveToDeck(*update.DeckID, now); err != nil {
			return nil, domain.NewValidationError("deck_id", err.Error(), err)
		}
	}
	card.UpdateContent(update.Question, update.Answer, now)

	if err := s.cardStore.Update(ctx, card); err != nil {
		log.Warn("failed to update card",
			slog.String("card_id", cardID.String()),
			slog.String("error", err.Error()))
		return nil, NewCardServiceError("update_card", "failed to save card", err)
	}
	return card, nil
}

func (s *cardServiceImpl) DeleteCard(ctx context.Context, userID, cardID uuid.UUID) error {
	if _, err := s.ownedCard(ctx, userID, cardID); err != nil {
		return NewCardServiceError("delete_card", "failed to get card", err)
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.cardStore.WithTx(tx).Delete(ctx, cardID)
	})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete card",
			slog.String("card_id", cardID.String()),
			slog.String("error", err.Error()))
		return NewCardServiceError("delete_card", "failed to delete card", err)
	}
	return nil
}

func (s *cardServiceImpl) GetCardHistory(
	ctx context.Context,
	userID, cardID uuid.UUID,
) ([]domain.ReviewEvent, error) {
	if _, err := s.ownedCard(ctx, userID, cardID); err != nil {
		return nil, NewCardServiceError("get_history", "failed to get card", err)
	}
	events, err := s.eventStore.ListByCard(ctx, cardID)
	if err != nil {
		return nil, NewCardServiceError("get_history", "failed to load history", err)
	}
	return events, nil
}

func (s *cardServiceImpl) PreviewCard(
	ctx context.Context,
	userID, cardID uuid.UUID,
) (map[domain.ReviewOutcome]srs.Preview, error) {
	card, err := s.ownedCard(ctx, userID, cardID)
	if err != nil {
		return nil, NewCardServiceError("preview_card", "failed to get card", err)
	}
	previews, err := s.srsService.PreviewAllOutcomes(card, s.clock())
	if err != nil {
		return nil, NewCardServiceError("preview_card", "failed to compute previews", err)
	}
	return previews, nil
}

func (s *cardServiceImpl) PostponeCard(
	ctx context.Context,
	userID, cardID uuid.UUID,
	days int,
) (*domain.Card, error) {
	card, err := s.ownedCard(ctx, userID, cardID)
	if err != nil {
		return nil, NewCardServiceError("postpone_card", "failed to get card", err)
	}
	if err := card.Postpone(days, s.clock()); err != nil {
		return nil, err
	}
	if err := s.cardStore.Update(ctx, card); err != nil {
		return nil, NewCardServiceError("postpone_card", "failed to save card", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("card postponed",
		slog.String("card_id", cardID.String()),
		slog.Int("days", days))
	return card, nil
}

func (s *cardServiceImpl) ownedCard(ctx context.Context, userID, cardID uuid.UUID) (*domain.Card, error) {
	card, err := s.cardStore.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card.UserID != userID {
		logger.FromContextOrDefault(ctx, s.logger).Debug("card owned by another user",
			slog.String("card_id", cardID.String()))
		return nil, store.ErrCardNotFound
	}
	return card, nil
}

func (s *cardServiceImpl) checkDeckOwner(ctx context.Context, userID, deckID uuid.UUID) error {
	deck, err := s.deckStore.GetByID(ctx, deckID)
	if err != nil {
		return err
	}
	if deck.UserID != userID {
		return store.ErrDeckNotFound
	}
	return nil
}
