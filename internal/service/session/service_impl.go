package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-decks/internal/domain"
	"github.com/phrazzld/scry-decks/internal/domain/hierarchy"
	"github.com/phrazzld/scry-decks/internal/domain/srs"
	"github.com/phrazzld/scry-decks/internal/events"
	"github.com/phrazzld/scry-decks/internal/platform/logger"
	"github.com/phrazzld/scry-decks/internal/store"
)

// DefaultTTL is how long an idle session is remembered.
const DefaultTTL = 30 * time.Minute

// Config holds the optional collaborators of the session service.
type Config struct {
	// TTL bounds how long an untouched session stays registered.
	TTL time.Duration
	// Clock supplies "now"; reviews are dated by its UTC day.
	Clock func() time.Time
	// Shuffler reorders cards after a retry; nil means math/rand/v2.
	Shuffler Shuffler
	// Emitter receives a review.recorded event after each committed answer.
	Emitter events.EventEmitter
}

var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	db         *sql.DB
	deckStore  store.DeckStore
	cardStore  store.CardStore
	eventStore store.ReviewEventStore
	srsService srs.Service
	emitter    events.EventEmitter
	shuffle    Shuffler
	clock      func() time.Time
	sessions   *registry
	logger     *slog.Logger
}

// NewService creates a session Service.
func NewService(
	db *sql.DB,
	deckStore store.DeckStore,
	cardStore store.CardStore,
	eventStore store.ReviewEventStore,
	srsService srs.Service,
	cfg Config,
	logger *slog.Logger,
) (Service, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if deckStore == nil {
		return nil, domain.NewValidationError("deckStore", "cannot be nil", domain.ErrValidation)
	}
	if cardStore == nil {
		return nil, domain.NewValidationError("cardStore", "cannot be nil", domain.ErrValidation)
	}
	if eventStore == nil {
		return nil, domain.NewValidationError("eventStore", "cannot be nil", domain.ErrValidation)
	}
	if srsService == nil {
		return nil, domain.NewValidationError("srsService", "cannot be nil", domain.ErrValidation)
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = func() time.Time { return time.Now().UTC() }
	}
	if cfg.Shuffler == nil {
		cfg.Shuffler = defaultShuffler
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &serviceImpl{
		db:         db,
		deckStore:  deckStore,
		cardStore:  cardStore,
		eventStore: eventStore,
		srsService: srsService,
		emitter:    cfg.Emitter,
		shuffle:    cfg.Shuffler,
		clock:      cfg.Clock,
		sessions:   newRegistry(cfg.TTL, cfg.Clock),
		logger:     logger.With(slog.String("component", "session_service")),
	}, nil
}

func (s *serviceImpl) StartSession(ctx context.Context, userID, deckID uuid.UUID) (*View, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", userID.String()),
		slog.String("deck_id", deckID.String()))

	deckIDs, err := s.subtree(ctx, userID, deckID)
	if err != nil {
		return nil, NewStartSessionError("failed to resolve deck", err)
	}

	key := sessionKey{userID: userID, deckID: deckID}
	sess := s.sessions.acquire(key)
	defer sess.mu.Unlock()

	now := s.clock()
	due, err := s.cardStore.GetDueCards(ctx, userID, deckIDs, domain.DateOf(now))
	if err != nil {
		log.Error("failed to load due cards", slog.String("error", err.Error()))
		return nil, NewStartSessionError("failed to load due cards", err)
	}

	if len(due) == 0 {
		s.sessions.remove(key, sess)
		log.Debug("no cards due")
		return nil, ErrNoCardsDue
	}

	sess.state = StateActive
	sess.reviewed = 0
	sess.order = reconcile(nil, due)

	log.Info("review session started", slog.Int("due_count", len(due)))
	return s.view(deckID, sess, due, now)
}

func (s *serviceImpl) SubmitAnswer(
	ctx context.Context,
	userID, deckID, cardID uuid.UUID,
	outcome domain.ReviewOutcome,
) (*View, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", userID.String()),
		slog.String("deck_id", deckID.String()),
		slog.String("card_id", cardID.String()))

	if !outcome.Valid() {
		log.Warn("invalid review outcome", slog.String("outcome", string(outcome)))
		return nil, domain.NewValidationError("outcome", "must be one of again, hard, good, easy", ErrInvalidAnswer)
	}

	deckIDs, err := s.subtree(ctx, userID, deckID)
	if err != nil {
		return nil, NewSubmitAnswerError("failed to resolve deck", err)
	}
	inSubtree := make(map[uuid.UUID]bool, len(deckIDs))
	for _, id := range deckIDs {
		inSubtree[id] = true
	}

	key := sessionKey{userID: userID, deckID: deckID}
	sess := s.sessions.acquire(key)
	defer sess.mu.Unlock()
	defer func() {
		// A session acquired only for this answer is not kept once the
		// answer fails.
		if sess.state == StateIdle {
			s.sessions.remove(key, sess)
		}
	}()

	now := s.clock()
	var (
		reviewed *domain.Card
		record   *domain.ReviewEvent
	)
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		cards := s.cardStore.WithTx(tx)

		card, err := cards.GetByID(ctx, cardID)
		if err != nil {
			return err
		}
		if card.UserID != userID || !inSubtree[card.DeckID] {
			log.Warn("answer for card outside session",
				slog.String("card_deck_id", card.DeckID.String()))
			return store.ErrCardNotFound
		}
		if !card.IsDue(now) {
			log.Debug("answer for card not yet due",
				slog.String("due", card.Due.Format(time.DateOnly)))
			return ErrCardNotDue
		}

		event, err := s.srsService.ApplyReview(card, outcome, now)
		if err != nil {
			return fmt.Errorf("failed to apply review: %w", err)
		}
		if err := cards.Update(ctx, card); err != nil {
			return err
		}
		if err := s.eventStore.WithTx(tx).Append(ctx, event); err != nil {
			return fmt.Errorf("failed to record review: %w", err)
		}

		reviewed, record = card, event
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrCardNotFound) || errors.Is(err, store.ErrConflict) {
			log.Debug("answer rejected", slog.String("error", err.Error()))
		} else {
			log.Error("failed to commit answer", slog.String("error", err.Error()))
		}
		return nil, NewSubmitAnswerError("failed to commit answer", err)
	}
	sess.reviewed++

	log.Info("review recorded",
		slog.String("outcome", string(outcome)),
		slog.Int("interval", reviewed.Interval),
		slog.Float64("ease_factor", reviewed.EaseFactor))
	s.emitReviewed(ctx, log, userID, deckID, reviewed, record)

	due, err := s.cardStore.GetDueCards(ctx, userID, deckIDs, domain.DateOf(now))
	if err != nil {
		log.Error("failed to reload due cards", slog.String("error", err.Error()))
		return nil, NewSubmitAnswerError("failed to reload due cards", err)
	}

	order := requeue(reconcile(sess.order, due), cardID, s.shuffle)
	if len(order) == 0 {
		s.sessions.remove(key, sess)
		log.Info("review session completed", slog.Int("reviewed", sess.reviewed))
		return &View{
			State:     StateExhausted,
			DeckID:    deckID,
			Reviewed:  sess.reviewed,
			Completed: true,
		}, nil
	}

	sess.state = StateActive
	sess.order = order
	return s.view(deckID, sess, due, now)
}

func (s *serviceImpl) AbandonSession(userID, deckID uuid.UUID) {
	s.sessions.remove(sessionKey{userID: userID, deckID: deckID}, nil)
}

// subtree returns deckID and its descendants among the user's decks. A deck
// the user does not own is reported as store.ErrDeckNotFound.
func (s *serviceImpl) subtree(ctx context.Context, userID, deckID uuid.UUID) ([]uuid.UUID, error) {
	decks, err := s.deckStore.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids, err := hierarchy.DescendantIDs(decks, deckID)
	if errors.Is(err, hierarchy.ErrDeckNotInSet) {
		return nil, store.ErrDeckNotFound
	}
	return ids, err
}

// view renders the head of sess.order. due must contain every ordered card.
func (s *serviceImpl) view(deckID uuid.UUID, sess *session, due []*domain.Card, now time.Time) (*View, error) {
	byID := make(map[uuid.UUID]*domain.Card, len(due))
	for _, card := range due {
		byID[card.ID] = card
	}
	current, ok := byID[sess.order[0]]
	if !ok {
		return nil, fmt.Errorf("session head %s missing from due set", sess.order[0])
	}

	previews, err := s.srsService.PreviewAllOutcomes(current, now)
	if err != nil {
		return nil, fmt.Errorf("failed to preview card: %w", err)
	}

	return &View{
		State:          sess.state,
		DeckID:         deckID,
		CurrentCard:    current,
		Previews:       previews,
		RemainingCount: len(sess.order),
		Reviewed:       sess.reviewed,
	}, nil
}

// emitReviewed publishes the committed review. Failures are logged only;
// the answer is already durable.
func (s *serviceImpl) emitReviewed(
	ctx context.Context,
	log *slog.Logger,
	userID, deckID uuid.UUID,
	card *domain.Card,
	record *domain.ReviewEvent,
) {
	if s.emitter == nil {
		return
	}
	event, err := events.NewReviewRecordedEvent(userID, deckID, card, record)
	if err != nil {
		log.Warn("failed to build review event", slog.String("error", err.Error()))
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("failed to emit review event", slog.String("error", err.Error()))
	}
}
