package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-decks/internal/domain"
	"github.com/phrazzld/scry-decks/internal/domain/srs"
	"github.com/phrazzld/scry-decks/internal/platform/sqlite"
	"github.com/phrazzld/scry-decks/internal/testdb"
	"github.com/stretchr/testify/require"
)

var testToday = time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	db     *sql.DB
	decks  *sqlite.DeckStore
	cards  *sqlite.CardStore
	events *sqlite.ReviewEventStore
	users  *sqlite.UserStore
	deckSv *deckServiceImpl
	cardSv *cardServiceImpl
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.GetTestDBWithT(t)
	f := &fixture{
		db:     db,
		decks:  sqlite.NewDeckStore(db),
		cards:  sqlite.NewCardStore(db, quietLogger()),
		events: sqlite.NewReviewEventStore(db),
		users:  sqlite.NewUserStore(db),
	}

	engine, err := srs.NewDefaultService()
	require.NoError(t, err)

	deckSv, err := NewDeckService(db, f.decks, f.cards, quietLogger())
	require.NoError(t, err)
	f.deckSv = deckSv.(*deckServiceImpl)
	f.deckSv.clock = func() time.Time { return testToday }

	cardSv, err := NewCardService(db, f.cards, f.decks, f.events, engine, quietLogger())
	require.NoError(t, err)
	f.cardSv = cardSv.(*cardServiceImpl)
	f.cardSv.clock = func() time.Time { return testToday }

	return f
}

func (f *fixture) user(t *testing.T) uuid.UUID {
	t.Helper()
	user, err := domain.NewUser(uuid.NewString()+"@example.com", "a-long-enough-password")
	require.NoError(t, err)
	user.HashedPassword = "hash"
	require.NoError(t, f.users.Create(context.Background(), user))
	return user.ID
}

func (f *fixture) deck(t *testing.T, userID uuid.UUID, name string, parent *uuid.UUID) *domain.Deck {
	t.Helper()
	deck, err := f.deckSv.CreateDeck(context.Background(), userID, DeckInput{Name: name, ParentID: parent})
	require.NoError(t, err)
	return deck
}

// card creates a card in deckID due offset days from testToday.
func (f *fixture) card(t *testing.T, userID, deckID uuid.UUID, question string, offset int) *domain.Card {
	t.Helper()
	cards, err := f.cardSv.CreateCards(context.Background(), userID, deckID, []CardInput{{Question: question, Answer: "a"}})
	require.NoError(t, err)
	card := cards[0]
	if offset != 0 {
		card.Due = domain.AddDays(testToday, offset)
		require.NoError(t, f.cards.Update(context.Background(), card))
	}
	return card
}
