package srs

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-decks/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCard(t *testing.T, interval int, ease float64, now time.Time) *domain.Card {
	t.Helper()
	card, err := domain.NewCard(uuid.New(), uuid.New(), "q", "a", 2.5, now)
	require.NoError(t, err)
	card.Interval = interval
	card.EaseFactor = ease
	return card
}

func TestNewServiceWithParams(t *testing.T) {
	t.Parallel()

	_, err := NewServiceWithParams(nil)
	assert.ErrorIs(t, err, ErrInvalidParams)

	bad := NewDefaultParams()
	bad.K = 0
	_, err = NewServiceWithParams(bad)
	assert.ErrorIs(t, err, ErrInvalidParams)

	svc, err := NewDefaultService()
	require.NoError(t, err)
	assert.Equal(t, 2.5, svc.StartingEase())
}

func TestApplyReview_GoodOnNewCard(t *testing.T) {
	t.Parallel()

	svc, err := NewDefaultService()
	require.NoError(t, err)

	now := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
	card := newTestCard(t, 1, 2.5, now)

	event, err := svc.ApplyReview(card, domain.ReviewOutcomeGood, now)
	require.NoError(t, err)

	assert.Equal(t, 3, card.Interval)
	assert.InDelta(t, 2.65, card.EaseFactor, epsilon)
	assert.Equal(t, time.Date(2024, 4, 4, 0, 0, 0, 0, time.UTC), card.Due)

	require.Len(t, card.History, 1)
	assert.Equal(t, *event, card.History[0])
	assert.Equal(t, domain.ReviewOutcomeGood, event.Outcome)
	assert.Equal(t, 3, event.Interval)
	assert.InDelta(t, 2.65, event.EaseFactor, epsilon)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), event.ReviewedAt)
}

func TestApplyReview_AgainDueToday(t *testing.T) {
	t.Parallel()

	svc, err := NewDefaultService()
	require.NoError(t, err)

	now := time.Date(2024, 4, 1, 22, 0, 0, 0, time.UTC)
	card := newTestCard(t, 5, 1.1, now)

	_, err = svc.ApplyReview(card, domain.ReviewOutcomeAgain, now)
	require.NoError(t, err)

	assert.Equal(t, 0, card.Interval)
	assert.Equal(t, 1.1, card.EaseFactor)
	assert.Equal(t, domain.DateOf(now), card.Due)
	assert.True(t, card.IsDue(now))
}

func TestApplyReview_InvalidOutcomeLeavesCardUntouched(t *testing.T) {
	t.Parallel()

	svc, err := NewDefaultService()
	require.NoError(t, err)

	now := time.Now()
	card := newTestCard(t, 4, 2.2, now)
	before := *card

	_, err = svc.ApplyReview(card, domain.ReviewOutcome("maybe"), now)
	assert.ErrorIs(t, err, ErrInvalidOutcome)
	assert.Equal(t, before, *card)

	_, err = svc.ApplyReview(nil, domain.ReviewOutcomeGood, now)
	assert.ErrorIs(t, err, ErrNilCard)
}

func TestPreviewAllOutcomes(t *testing.T) {
	t.Parallel()

	svc, err := NewDefaultService()
	require.NoError(t, err)

	now := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)
	card := newTestCard(t, 1, 2.5, now)
	before := *card

	var previews map[domain.ReviewOutcome]Preview
	for i := 0; i < 3; i++ {
		previews, err = svc.PreviewAllOutcomes(card, now)
		require.NoError(t, err)
	}
	assert.Equal(t, before, *card, "previewing must not mutate the card")

	require.Len(t, previews, 4)
	assert.Equal(t, 0, previews[domain.ReviewOutcomeAgain].Interval)
	assert.Equal(t, 2.5, previews[domain.ReviewOutcomeAgain].EaseFactor)
	assert.Equal(t, domain.DateOf(now), previews[domain.ReviewOutcomeAgain].Due)
	assert.Equal(t, 3, previews[domain.ReviewOutcomeGood].Interval)
	assert.Equal(t, time.Date(2024, 4, 4, 0, 0, 0, 0, time.UTC), previews[domain.ReviewOutcomeGood].Due)

	// Every preview matches what committing that outcome would produce.
	for outcome, preview := range previews {
		clone := *card
		_, err := svc.ApplyReview(&clone, outcome, now)
		require.NoError(t, err)
		assert.Equal(t, preview.Interval, clone.Interval, "outcome %s", outcome)
		assert.Equal(t, preview.EaseFactor, clone.EaseFactor, "outcome %s", outcome)
		assert.Equal(t, preview.Due, clone.Due, "outcome %s", outcome)
	}

	_, err = svc.PreviewAllOutcomes(nil, now)
	assert.ErrorIs(t, err, ErrNilCard)
}
