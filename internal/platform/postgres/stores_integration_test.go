//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/phrazzld/scry-decks/internal/domain"
	"github.com/phrazzld/scry-decks/internal/platform/migrations"
	"github.com/phrazzld/scry-decks/internal/store"
	"github.com/phrazzld/scry-decks/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to the integration database, migrates it and returns a
// transaction that is rolled back when the test ends.
func openTestDB(t *testing.T) *sql.Tx {
	t.Helper()
	url := testdb.GetTestDatabaseURL()
	if url == "" {
		t.Skip("SCRY_TEST_DB_URL not set")
	}

	db, err := sql.Open("pgx", url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Run(context.Background(), db, "postgres", migrations.CommandUp, nil))

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback() })
	return tx
}

func seedUser(t *testing.T, tx *sql.Tx) *domain.User {
	t.Helper()
	user, err := domain.NewUser(uuid.NewString()+"@example.com", "correct-horse-battery")
	require.NoError(t, err)
	user.HashedPassword = "$2a$10$abcdefghijklmnopqrstuuN0.ZTP8yBGl3HZ6kL4sB1Oj9M9wG9nC"
	user.Password = ""
	require.NoError(t, NewPostgresUserStore(tx).Create(context.Background(), user))
	return user
}

func TestPostgresStoresRoundTrip(t *testing.T) {
	ctx := context.Background()
	tx := openTestDB(t)

	user := seedUser(t, tx)
	users := NewPostgresUserStore(tx)
	decks := NewPostgresDeckStore(tx)
	cards := NewPostgresCardStore(tx, nil)
	events := NewPostgresReviewEventStore(tx)

	dup := *user
	dup.ID = uuid.New()
	assert.ErrorIs(t, users.Create(ctx, &dup), store.ErrEmailExists)

	found, err := users.GetByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	parent, err := domain.NewDeck(user.ID, "Languages", "", nil)
	require.NoError(t, err)
	require.NoError(t, decks.Create(ctx, parent))
	child, err := domain.NewDeck(user.ID, "French", "", &parent.ID)
	require.NoError(t, err)
	require.NoError(t, decks.Create(ctx, child))

	listed, err := decks.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "French", listed[0].Name)
	require.NotNil(t, listed[0].ParentID)
	assert.Equal(t, parent.ID, *listed[0].ParentID)

	locked, err := decks.ListByUserForUpdate(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, listed, locked)

	today := domain.DateOf(time.Now())
	due, err := domain.NewCard(user.ID, child.ID, "bonjour", "hello", 2.5, today)
	require.NoError(t, err)
	later, err := domain.NewCard(user.ID, child.ID, "merci", "thanks", 2.5, today)
	require.NoError(t, err)
	later.Due = domain.AddDays(today, 3)
	require.NoError(t, cards.CreateMultiple(ctx, []*domain.Card{due, later}))

	dueCards, err := cards.GetDueCards(ctx, user.ID, []uuid.UUID{parent.ID, child.ID}, today)
	require.NoError(t, err)
	require.Len(t, dueCards, 1)
	assert.Equal(t, due.ID, dueCards[0].ID)

	counts, err := cards.CountDueByDeck(ctx, user.ID, today)
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int{child.ID: 1}, counts)

	stale := *dueCards[0]
	dueCards[0].Interval = 2
	require.NoError(t, cards.Update(ctx, dueCards[0]))
	assert.Equal(t, 2, dueCards[0].Version)
	assert.ErrorIs(t, cards.Update(ctx, &stale), store.ErrConflict)

	event, err := domain.NewReviewEvent(due.ID, today, domain.ReviewOutcomeGood, 2, 2.5)
	require.NoError(t, err)
	require.NoError(t, events.Append(ctx, event))
	history, err := events.ListByCard(ctx, due.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.ReviewOutcomeGood, history[0].Outcome)

	deleted, err := cards.DeleteByDecks(ctx, user.ID, []uuid.UUID{child.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	require.NoError(t, decks.DeleteMany(ctx, user.ID, []uuid.UUID{parent.ID, child.ID}))
	_, err = decks.GetByID(ctx, parent.ID)
	assert.ErrorIs(t, err, store.ErrDeckNotFound)
}
