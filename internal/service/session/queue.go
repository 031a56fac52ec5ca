package session

import (
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-decks/internal/domain"
)

// Shuffler permutes n elements through swap. rand.Shuffle satisfies it.
type Shuffler func(n int, swap func(i, j int))

func defaultShuffler(n int, swap func(i, j int)) {
	rand.Shuffle(n, swap)
}

// reconcile merges a freshly loaded due set into the previous serving
// order. Cards that are still due keep their relative order, cards that
// became due are appended in the order they were loaded, and cards that
// are no longer due are dropped.
func reconcile(previous []uuid.UUID, due []*domain.Card) []uuid.UUID {
	dueSet := make(map[uuid.UUID]bool, len(due))
	for _, card := range due {
		dueSet[card.ID] = true
	}

	order := make([]uuid.UUID, 0, len(due))
	seen := make(map[uuid.UUID]bool, len(due))
	for _, id := range previous {
		if dueSet[id] && !seen[id] {
			order = append(order, id)
			seen[id] = true
		}
	}
	for _, card := range due {
		if !seen[card.ID] {
			order = append(order, card.ID)
			seen[card.ID] = true
		}
	}
	return order
}

// requeue moves the answered card to the back of order and shuffles every
// position after the first. With a single card, or when the answered card
// is no longer due, order is returned unchanged.
func requeue(order []uuid.UUID, answered uuid.UUID, shuffle Shuffler) []uuid.UUID {
	if len(order) < 2 {
		return order
	}

	idx := -1
	for i, id := range order {
		if id == answered {
			idx = i
			break
		}
	}
	if idx < 0 {
		return order
	}

	next := make([]uuid.UUID, 0, len(order))
	next = append(next, order[:idx]...)
	next = append(next, order[idx+1:]...)
	next = append(next, answered)

	rest := next[1:]
	shuffle(len(rest), func(i, j int) {
		rest[i], rest[j] = rest[j], rest[i]
	})
	return next
}
