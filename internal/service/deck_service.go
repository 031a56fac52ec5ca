package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-decks/internal/domain"
	"github.com/phrazzld/scry-decks/internal/domain/hierarchy"
	"github.com/phrazzld/scry-decks/internal/platform/logger"
	"github.com/phrazzld/scry-decks/internal/store"
)

// DeckWithDue is one row of the ordered deck listing.
type DeckWithDue struct {
	domain.Deck
	Depth    int `json:"depth"`
	DueCount int `json:"due_count"`
	TotalDue int `json:"total_due"`
}

// DeckInput carries the user-editable deck fields.
type DeckInput struct {
	Name        string
	Description string
	ParentID    *uuid.UUID
}

// DeckService manages a user's deck tree.
type DeckService interface {
	// ListDecksOrdered returns the user's decks in display order: parents
	// before children, siblings by name. Each row carries its own due count
	// and the total for its subtree. Decks caught in a parent cycle are
	// logged and left out.
	ListDecksOrdered(ctx context.Context, userID uuid.UUID) ([]DeckWithDue, error)

	CreateDeck(ctx context.Context, userID uuid.UUID, input DeckInput) (*domain.Deck, error)

	GetDeck(ctx context.Context, userID, deckID uuid.UUID) (*domain.Deck, error)

	// UpdateDeck renames, redescribes or moves a deck. Moving a deck under
	// itself or one of its descendants is a validation error.
	UpdateDeck(ctx context.Context, userID, deckID uuid.UUID, input DeckInput) (*domain.Deck, error)

	// DeleteDeck removes a deck, its descendants and all their cards in one
	// transaction and returns the number of cards deleted.
	DeleteDeck(ctx context.Context, userID, deckID uuid.UUID) (int64, error)
}

type deckServiceImpl struct {
	db        *sql.DB
	deckStore store.DeckStore
	cardStore store.CardStore
	clock     Clock
	logger    *slog.Logger
}

// NewDeckService creates a DeckService.
func NewDeckService(
	db *sql.DB,
	deckStore store.DeckStore,
	cardStore store.CardStore,
	logger *slog.Logger,
) (DeckService, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if deckStore == nil {
		return nil, domain.NewValidationError("deckStore", "cannot be nil", domain.ErrValidation)
	}
	if cardStore == nil {
		return nil, domain.NewValidationError("cardStore", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &deckServiceImpl{
		db:        db,
		deckStore: deckStore,
		cardStore: cardStore,
		clock:     systemClock,
		logger:    logger.With(slog.String("component", "deck_service")),
	}, nil
}

func (s *deckServiceImpl) ListDecksOrdered(ctx context.Context, userID uuid.UUID) ([]DeckWithDue, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	decks, err := s.deckStore.ListByUser(ctx, userID)
	if err != nil {
		log.Error("failed to list decks", slog.String("error", err.Error()))
		return nil, NewDeckServiceError("list_decks", "failed to list decks", err)
	}
	own, err := s.cardStore.CountDueByDeck(ctx, userID, s.clock())
	if err != nil {
		log.Error("failed to count due cards", slog.String("error", err.Error()))
		return nil, NewDeckServiceError("list_decks", "failed to count due cards", err)
	}

	nodes, err := hierarchy.OrderDecks(decks)
	if err != nil {
		logCycle(log, userID, err)
	}
	totals, err := hierarchy.AggregateDueCounts(decks, own)
	if err != nil {
		logCycle(log, userID, err)
	}

	result := make([]DeckWithDue, 0, len(nodes))
	for _, node := range nodes {
		result = append(result, DeckWithDue{
			Deck:     node.Deck,
			Depth:    node.Depth,
			DueCount: own[node.Deck.ID],
			TotalDue: totals[node.Deck.ID],
		})
	}
	return result, nil
}

func logCycle(log *slog.Logger, userID uuid.UUID, err error) {
	var cycle *hierarchy.CycleError
	if errors.As(err, &cycle) {
		ids := make([]string, len(cycle.DeckIDs))
		for i, id := range cycle.DeckIDs {
			ids[i] = id.String()
		}
		log.Warn("deck hierarchy contains a parent cycle; affected decks omitted",
			slog.String("user_id", userID.String()),
			slog.Any("deck_ids", ids))
		return
	}
	log.Warn("deck hierarchy is inconsistent",
		slog.String("user_id", userID.String()),
		slog.String("error", err.Error()))
}

func (s *deckServiceImpl) CreateDeck(ctx context.Context, userID uuid.UUID, input DeckInput) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if input.ParentID != nil {
		if _, err := s.ownedDeck(ctx, userID, *input.ParentID); err != nil {
			return nil, NewDeckServiceError("create_deck", "parent deck not found", err)
		}
	}

	deck, err := domain.NewDeck(userID, input.Name, input.Description, input.ParentID)
	if err != nil {
		return nil, deckValidationError(err)
	}

	if err := s.deckStore.Create(ctx, deck); err != nil {
		log.Error("failed to create deck", slog.String("error", err.Error()))
		return nil, NewDeckServiceError("create_deck", "failed to save deck", err)
	}

	log.Info("deck created", slog.String("deck_id", deck.ID.String()))
	return deck, nil
}

func (s *deckServiceImpl) GetDeck(ctx context.Context, userID, deckID uuid.UUID) (*domain.Deck, error) {
	deck, err := s.ownedDeck(ctx, userID, deckID)
	if err != nil {
		return nil, NewDeckServiceError("get_deck", "failed to get deck", err)
	}
	return deck, nil
}

func (s *deckServiceImpl) UpdateDeck(
	ctx context.Context,
	userID, deckID uuid.UUID,
	input DeckInput,
) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if input.ParentID != nil && *input.ParentID == deckID {
		return nil, domain.NewValidationError("parent_id", "deck cannot be its own parent", hierarchy.ErrDeckCycle)
	}

	var updated *domain.Deck
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		decks := s.deckStore.WithTx(tx)

		// Locked until the transaction ends.
		owned, err := decks.ListByUserForUpdate(ctx, userID)
		if err != nil {
			return NewDeckServiceError("update_deck", "failed to list decks", err)
		}
		deck := findDeck(owned, deckID)
		if deck == nil {
			log.Debug("deck not owned by user", slog.String("deck_id", deckID.String()))
			return NewDeckServiceError("update_deck", "failed to get deck", store.ErrDeckNotFound)
		}

		if input.ParentID != nil {
			if findDeck(owned, *input.ParentID) == nil {
				return NewDeckServiceError("update_deck", "parent deck not found", store.ErrDeckNotFound)
			}
			if hierarchy.WouldCreateCycle(owned, deckID, input.ParentID) {
				log.Debug("rejected deck move that would create a cycle",
					slog.String("deck_id", deckID.String()),
					slog.String("parent_id", input.ParentID.String()))
				return domain.NewValidationError("parent_id",
					"deck cannot be moved under one of its descendants", hierarchy.ErrDeckCycle)
			}
		}

		deck.Name = input.Name
		deck.Description = input.Description
		deck.ParentID = input.ParentID
		deck.UpdatedAt = s.clock()
		if err := deck.Validate(); err != nil {
			return deckValidationError(err)
		}

		if err := decks.Update(ctx, deck); err != nil {
			log.Error("failed to update deck", slog.String("error", err.Error()))
			return NewDeckServiceError("update_deck", "failed to save deck", err)
		}
		updated = deck
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// findDeck returns a copy of the deck with id, or nil.
func findDeck(decks []domain.Deck, id uuid.UUID) *domain.Deck {
	for i := range decks {
		if decks[i].ID == id {
			deck := decks[i]
			return &deck
		}
	}
	return nil
}

func (s *deckServiceImpl) DeleteDeck(ctx context.Context, userID, deckID uuid.UUID) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.ownedDeck(ctx, userID, deckID); err != nil {
		return 0, NewDeckServiceError("delete_deck", "failed to get deck", err)
	}
	decks, err := s.deckStore.ListByUser(ctx, userID)
	if err != nil {
		return 0, NewDeckServiceError("delete_deck", "failed to list decks", err)
	}
	ids, err := hierarchy.DescendantIDs(decks, deckID)
	if err != nil {
		return 0, NewDeckServiceError("delete_deck", "failed to resolve subtree", err)
	}

	var deleted int64
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		n, err := s.cardStore.WithTx(tx).DeleteByDecks(ctx, userID, ids)
		if err != nil {
			return err
		}
		deleted = n
		return s.deckStore.WithTx(tx).DeleteMany(ctx, userID, ids)
	})
	if err != nil {
		log.Error("failed to delete deck subtree",
			slog.String("deck_id", deckID.String()),
			slog.String("error", err.Error()))
		return 0, NewDeckServiceError("delete_deck", "failed to delete decks", err)
	}

	log.Info("deck subtree deleted",
		slog.String("deck_id", deckID.String()),
		slog.Int("deck_count", len(ids)),
		slog.Int64("card_count", deleted))
	return deleted, nil
}

// ownedDeck loads a deck and hides decks owned by someone else behind
// store.ErrDeckNotFound.
func (s *deckServiceImpl) ownedDeck(ctx context.Context, userID, deckID uuid.UUID) (*domain.Deck, error) {
	deck, err := s.deckStore.GetByID(ctx, deckID)
	if err != nil {
		return nil, err
	}
	if deck.UserID != userID {
		logger.FromContextOrDefault(ctx, s.logger).Debug("deck owned by another user",
			slog.String("deck_id", deckID.String()))
		return nil, store.ErrDeckNotFound
	}
	return deck, nil
}

func deckValidationError(err error) error {
	field := "deck"
	switch {
	case errors.Is(err, domain.ErrDeckNameEmpty), errors.Is(err, domain.ErrDeckNameTooLong):
		field = "name"
	case errors.Is(err, domain.ErrDeckSelfParented):
		field = "parent_id"
	}
	return domain.NewValidationError(field, err.Error(), err)
}
