package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-decks/internal/domain"
	"github.com/phrazzld/scry-decks/internal/platform/sqlite"
	"github.com/phrazzld/scry-decks/internal/store"
	"github.com/phrazzld/scry-decks/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func createUser(t *testing.T, db store.DBTX, email string) *domain.User {
	t.Helper()
	user, err := domain.NewUser(email, "a-long-enough-password")
	require.NoError(t, err)
	user.HashedPassword = "hashed"
	user.Password = ""
	require.NoError(t, sqlite.NewUserStore(db).Create(context.Background(), user))
	return user
}

func createDeck(t *testing.T, db store.DBTX, userID uuid.UUID, name string, parent *uuid.UUID) *domain.Deck {
	t.Helper()
	deck, err := domain.NewDeck(userID, name, "", parent)
	require.NoError(t, err)
	require.NoError(t, sqlite.NewDeckStore(db).Create(context.Background(), deck))
	return deck
}

func newCard(t *testing.T, userID, deckID uuid.UUID, question string, due time.Time) *domain.Card {
	t.Helper()
	card, err := domain.NewCard(userID, deckID, question, "answer", 2.5, today)
	require.NoError(t, err)
	card.Due = due
	return card
}

func TestUserStore(t *testing.T) {
	ctx := context.Background()
	db := testdb.GetTestDBWithT(t)
	users := sqlite.NewUserStore(db)

	user := createUser(t, db, "Learner@Example.com")
	assert.Equal(t, "learner@example.com", user.Email)

	got, err := users.GetByEmail(ctx, "LEARNER@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "hashed", got.HashedPassword)
	assert.WithinDuration(t, user.CreatedAt, got.CreatedAt, time.Microsecond)

	got, err = users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	dup := *user
	dup.ID = uuid.New()
	assert.ErrorIs(t, users.Create(ctx, &dup), store.ErrEmailExists)

	_, err = users.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrUserNotFound)
	assert.True(t, store.IsNotFoundError(err))

	noHash := &domain.User{ID: uuid.New(), Email: "x@example.com"}
	assert.ErrorIs(t, users.Create(ctx, noHash), store.ErrInvalidEntity)
}

func TestDeckStore(t *testing.T) {
	ctx := context.Background()
	db := testdb.GetTestDBWithT(t)
	decks := sqlite.NewDeckStore(db)

	user := createUser(t, db, "decks@example.com")
	other := createUser(t, db, "other@example.com")

	root := createDeck(t, db, user.ID, "Spanish", nil)
	child := createDeck(t, db, user.ID, "Verbs", &root.ID)
	createDeck(t, db, other.ID, "Not mine", nil)

	listed, err := decks.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "Spanish", listed[0].Name)
	assert.Nil(t, listed[0].ParentID)
	require.NotNil(t, listed[1].ParentID)
	assert.Equal(t, root.ID, *listed[1].ParentID)

	locked, err := decks.ListByUserForUpdate(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, listed, locked)

	child.Name = "Irregular verbs"
	child.ParentID = nil
	require.NoError(t, decks.Update(ctx, child))
	got, err := decks.GetByID(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, "Irregular verbs", got.Name)
	assert.Nil(t, got.ParentID)

	missing := *child
	missing.ID = uuid.New()
	assert.ErrorIs(t, decks.Update(ctx, &missing), store.ErrDeckNotFound)

	orphan, err := domain.NewDeck(user.ID, "Orphan", "", &missing.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, decks.Create(ctx, orphan), store.ErrInvalidEntity, "parent must exist")

	require.NoError(t, decks.DeleteMany(ctx, user.ID, []uuid.UUID{root.ID, child.ID}))
	_, err = decks.GetByID(ctx, root.ID)
	assert.ErrorIs(t, err, store.ErrDeckNotFound)

	assert.ErrorIs(t, decks.DeleteMany(ctx, user.ID, []uuid.UUID{root.ID}), store.ErrDeckNotFound)
	assert.NoError(t, decks.DeleteMany(ctx, user.ID, nil))
}

func TestCardStoreDueQueries(t *testing.T) {
	ctx := context.Background()
	db := testdb.GetTestDBWithT(t)
	cards := sqlite.NewCardStore(db, nil)

	user := createUser(t, db, "cards@example.com")
	a := createDeck(t, db, user.ID, "A", nil)
	b := createDeck(t, db, user.ID, "B", &a.ID)
	c := createDeck(t, db, user.ID, "C", nil)

	overdue := newCard(t, user.ID, b.ID, "overdue", today.AddDate(0, 0, -2))
	dueToday := newCard(t, user.ID, a.ID, "today", today)
	future := newCard(t, user.ID, a.ID, "future", today.AddDate(0, 0, 1))
	elsewhere := newCard(t, user.ID, c.ID, "elsewhere", today)
	require.NoError(t, cards.CreateMultiple(ctx, []*domain.Card{overdue, dueToday, future, elsewhere}))

	due, err := cards.GetDueCards(ctx, user.ID, []uuid.UUID{a.ID, b.ID}, today)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, overdue.ID, due[0].ID, "oldest due date first")
	assert.Equal(t, dueToday.ID, due[1].ID)
	assert.Equal(t, today, due[1].Due)

	none, err := cards.GetDueCards(ctx, user.ID, nil, today)
	require.NoError(t, err)
	assert.Empty(t, none)

	counts, err := cards.CountDueByDeck(ctx, user.ID, today)
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int{a.ID: 1, b.ID: 1, c.ID: 1}, counts)

	counts, err = cards.CountDueByDeck(ctx, user.ID, today.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, counts[a.ID])
}

func TestCardStoreDueCardsTieBreakOnCreationTime(t *testing.T) {
	ctx := context.Background()
	db := testdb.GetTestDBWithT(t)
	cards := sqlite.NewCardStore(db, nil)

	user := createUser(t, db, "ties@example.com")
	deck := createDeck(t, db, user.ID, "Ties", nil)

	created := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	later := newCard(t, user.ID, deck.ID, "fractional second", today)
	later.CreatedAt = created.Add(250 * time.Millisecond)
	earlier := newCard(t, user.ID, deck.ID, "whole second", today)
	earlier.CreatedAt = created
	require.NoError(t, cards.CreateMultiple(ctx, []*domain.Card{later, earlier}))

	due, err := cards.GetDueCards(ctx, user.ID, []uuid.UUID{deck.ID}, today)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, earlier.ID, due[0].ID)
	assert.Equal(t, later.ID, due[1].ID)
	assert.True(t, created.Equal(due[0].CreatedAt))
}

func TestCardStoreUpdateUsesVersion(t *testing.T) {
	ctx := context.Background()
	db := testdb.GetTestDBWithT(t)
	cards := sqlite.NewCardStore(db, nil)

	user := createUser(t, db, "versions@example.com")
	deck := createDeck(t, db, user.ID, "Deck", nil)
	doc := uuid.New()
	card := newCard(t, user.ID, deck.ID, "q", today)
	card.DocumentID = &doc
	card.BoundingBoxes = []domain.BoundingBox{{Page: 2, X: 0.1, Y: 0.2, Width: 0.3, Height: 0.4}}
	require.NoError(t, cards.CreateMultiple(ctx, []*domain.Card{card}))

	first, err := cards.GetByID(ctx, card.ID)
	require.NoError(t, err)
	second, err := cards.GetByID(ctx, card.ID)
	require.NoError(t, err)
	require.NotNil(t, first.DocumentID)
	assert.Equal(t, doc, *first.DocumentID)
	assert.Equal(t, card.BoundingBoxes, first.BoundingBoxes)

	first.Interval = 3
	first.EaseFactor = 2.65
	first.Due = today.AddDate(0, 0, 3)
	require.NoError(t, cards.Update(ctx, first))
	assert.Equal(t, 2, first.Version)

	second.Interval = 0
	assert.ErrorIs(t, cards.Update(ctx, second), store.ErrConflict)

	stored, err := cards.GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Interval)
	assert.InDelta(t, 2.65, stored.EaseFactor, 1e-9)
	assert.Equal(t, 2, stored.Version)

	ghost := *stored
	ghost.ID = uuid.New()
	assert.ErrorIs(t, cards.Update(ctx, &ghost), store.ErrCardNotFound)

	stored.EaseFactor = 1.0
	assert.ErrorIs(t, cards.Update(ctx, stored), store.ErrInvalidEntity)
}

func TestCardStoreDeleteRemovesHistory(t *testing.T) {
	ctx := context.Background()
	db := testdb.GetTestDBWithT(t)
	cards := sqlite.NewCardStore(db, nil)
	events := sqlite.NewReviewEventStore(db)

	user := createUser(t, db, "delete@example.com")
	deck := createDeck(t, db, user.ID, "Deck", nil)
	keep := createDeck(t, db, user.ID, "Keep", nil)
	one := newCard(t, user.ID, deck.ID, "one", today)
	two := newCard(t, user.ID, deck.ID, "two", today)
	kept := newCard(t, user.ID, keep.ID, "kept", today)
	require.NoError(t, cards.CreateMultiple(ctx, []*domain.Card{one, two, kept}))

	for _, card := range []*domain.Card{one, two} {
		event, err := domain.NewReviewEvent(card.ID, today, domain.ReviewOutcomeGood, 2, 2.5)
		require.NoError(t, err)
		require.NoError(t, events.Append(ctx, event))
	}

	require.NoError(t, cards.Delete(ctx, one.ID))
	_, err := cards.GetByID(ctx, one.ID)
	assert.ErrorIs(t, err, store.ErrCardNotFound)
	assert.ErrorIs(t, cards.Delete(ctx, one.ID), store.ErrCardNotFound)

	n, err := cards.DeleteByDecks(ctx, user.ID, []uuid.UUID{deck.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	history, err := events.ListByCard(ctx, two.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = cards.GetByID(ctx, kept.ID)
	assert.NoError(t, err)
}

func TestReviewEventStoreKeepsOrder(t *testing.T) {
	ctx := context.Background()
	db := testdb.GetTestDBWithT(t)
	events := sqlite.NewReviewEventStore(db)

	user := createUser(t, db, "history@example.com")
	deck := createDeck(t, db, user.ID, "Deck", nil)
	card := newCard(t, user.ID, deck.ID, "q", today)
	require.NoError(t, sqlite.NewCardStore(db, nil).CreateMultiple(ctx, []*domain.Card{card}))

	outcomes := []domain.ReviewOutcome{
		domain.ReviewOutcomeAgain, domain.ReviewOutcomeGood, domain.ReviewOutcomeEasy,
	}
	for _, outcome := range outcomes {
		event, err := domain.NewReviewEvent(card.ID, today, outcome, 1, 2.5)
		require.NoError(t, err)
		require.NoError(t, events.Append(ctx, event))
	}

	history, err := events.ListByCard(ctx, card.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i, outcome := range outcomes {
		assert.Equal(t, outcome, history[i].Outcome)
		assert.Equal(t, today, history[i].ReviewedAt)
	}

	empty, err := events.ListByCard(ctx, uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestStoresParticipateInTransactions(t *testing.T) {
	ctx := context.Background()
	db := testdb.GetTestDBWithT(t)
	user := createUser(t, db, "tx@example.com")
	decks := sqlite.NewDeckStore(db)

	deck, err := domain.NewDeck(user.ID, "Rolled back", "", nil)
	require.NoError(t, err)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		require.NoError(t, decks.WithTx(tx).Create(ctx, deck))
		_, err := decks.WithTx(tx).GetByID(ctx, deck.ID)
		require.NoError(t, err)
	})

	_, err = decks.GetByID(ctx, deck.ID)
	assert.ErrorIs(t, err, store.ErrDeckNotFound)
}
