// Package hierarchy orders a user's decks as a forest and rolls per-deck
// counts up to ancestors. All functions are pure: they take the full deck
// set and return new values without modifying their inputs.
package hierarchy

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-decks/internal/domain"
)

var (
	// ErrDeckCycle is returned when parent links loop back on themselves.
	ErrDeckCycle = errors.New("deck hierarchy contains a cycle")

	// ErrDeckNotInSet is returned when a deck ID is not part of the input.
	ErrDeckNotInSet = errors.New("deck not in set")
)

// CycleError lists the decks that could not be placed under any root.
// Results returned alongside it exclude these decks.
type CycleError struct {
	DeckIDs []uuid.UUID
}

func (e *CycleError) Error() string {
	ids := make([]string, len(e.DeckIDs))
	for i, id := range e.DeckIDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("%s: %d deck(s) excluded [%s]", ErrDeckCycle, len(ids), strings.Join(ids, ", "))
}

func (e *CycleError) Unwrap() error {
	return ErrDeckCycle
}

// Node is a deck placed in hierarchical order. Depth is 0 for roots.
type Node struct {
	Deck  domain.Deck
	Depth int
}

// forest is an indexed view of a deck set with duplicates removed.
type forest struct {
	decks    map[uuid.UUID]domain.Deck
	order    []uuid.UUID // input order, first occurrence wins
	roots    []domain.Deck
	children map[uuid.UUID][]domain.Deck
}

// buildForest indexes decks by ID and groups them under their parents.
// A deck whose parent is absent from the set is treated as a root, so it is
// never silently dropped.
func buildForest(decks []domain.Deck) *forest {
	f := &forest{
		decks:    make(map[uuid.UUID]domain.Deck, len(decks)),
		order:    make([]uuid.UUID, 0, len(decks)),
		children: make(map[uuid.UUID][]domain.Deck),
	}
	for _, d := range decks {
		if _, seen := f.decks[d.ID]; seen {
			continue
		}
		f.decks[d.ID] = d
		f.order = append(f.order, d.ID)
	}

	for _, id := range f.order {
		d := f.decks[id]
		if parentID, ok := f.parentOf(d); ok {
			f.children[parentID] = append(f.children[parentID], d)
			continue
		}
		f.roots = append(f.roots, d)
	}

	sortByName(f.roots)
	for parentID := range f.children {
		sortByName(f.children[parentID])
	}
	return f
}

// parentOf returns the deck's parent ID when that parent is in the set.
func (f *forest) parentOf(d domain.Deck) (uuid.UUID, bool) {
	if d.ParentID == nil {
		return uuid.Nil, false
	}
	if _, ok := f.decks[*d.ParentID]; !ok {
		return uuid.Nil, false
	}
	return *d.ParentID, true
}

// sortByName sorts by name, then by ID so equal names order deterministically.
func sortByName(decks []domain.Deck) {
	slices.SortFunc(decks, func(a, b domain.Deck) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
}

// OrderDecks returns decks in depth-first pre-order: roots sorted by name,
// each followed by its children sorted by name. Decks caught in a parent
// cycle cannot be reached from a root; they are left out and reported
// through a *CycleError while the rest of the ordering is still returned.
func OrderDecks(decks []domain.Deck) ([]Node, error) {
	f := buildForest(decks)

	ordered := make([]Node, 0, len(f.decks))
	visited := make(map[uuid.UUID]bool, len(f.decks))
	for _, root := range f.roots {
		ordered = appendSubtree(ordered, f, root, 0, visited)
	}

	if len(visited) < len(f.decks) {
		return ordered, f.unvisited(visited)
	}
	return ordered, nil
}

// appendSubtree emits d and then, recursively, each of its children.
func appendSubtree(
	ordered []Node,
	f *forest,
	d domain.Deck,
	depth int,
	visited map[uuid.UUID]bool,
) []Node {
	if visited[d.ID] {
		return ordered
	}
	visited[d.ID] = true
	ordered = append(ordered, Node{Deck: d, Depth: depth})

	for _, child := range f.children[d.ID] {
		ordered = appendSubtree(ordered, f, child, depth+1, visited)
	}
	return ordered
}

// unvisited builds a CycleError for every deck not in visited.
func (f *forest) unvisited(visited map[uuid.UUID]bool) *CycleError {
	var missing []uuid.UUID
	for _, id := range f.order {
		if !visited[id] {
			missing = append(missing, id)
		}
	}
	return &CycleError{DeckIDs: missing}
}

// depthOf counts parent links from id up to a root. It gives up after
// visiting every deck once, which only happens on a cycle.
func (f *forest) depthOf(id uuid.UUID) (int, bool) {
	depth := 0
	current := f.decks[id]
	for {
		parentID, ok := f.parentOf(current)
		if !ok {
			return depth, true
		}
		depth++
		if depth > len(f.decks) {
			return 0, false
		}
		current = f.decks[parentID]
	}
}

// AggregateDueCounts returns, for each deck, its own count plus the counts of
// all its descendants. Decks are processed deepest first so each total is
// complete before it flows into the parent. Decks in a parent cycle get no
// total and are reported through a *CycleError.
func AggregateDueCounts(decks []domain.Deck, own map[uuid.UUID]int) (map[uuid.UUID]int, error) {
	f := buildForest(decks)

	type entry struct {
		id    uuid.UUID
		depth int
	}
	entries := make([]entry, 0, len(f.order))
	var cyclic []uuid.UUID
	for _, id := range f.order {
		depth, ok := f.depthOf(id)
		if !ok {
			cyclic = append(cyclic, id)
			continue
		}
		entries = append(entries, entry{id: id, depth: depth})
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		return cmp.Compare(b.depth, a.depth)
	})

	totals := make(map[uuid.UUID]int, len(entries))
	for _, e := range entries {
		totals[e.id] = own[e.id]
	}
	for _, e := range entries {
		if parentID, ok := f.parentOf(f.decks[e.id]); ok {
			totals[parentID] += totals[e.id]
		}
	}

	if len(cyclic) > 0 {
		return totals, &CycleError{DeckIDs: cyclic}
	}
	return totals, nil
}

// DescendantIDs returns rootID followed by every deck beneath it, breadth
// first with siblings in name order. Each deck is visited at most once, so
// the walk terminates even when parent links are malformed.
func DescendantIDs(decks []domain.Deck, rootID uuid.UUID) ([]uuid.UUID, error) {
	f := buildForest(decks)
	if _, ok := f.decks[rootID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeckNotInSet, rootID)
	}

	ids := []uuid.UUID{rootID}
	visited := map[uuid.UUID]bool{rootID: true}
	for i := 0; i < len(ids) && len(ids) <= len(f.decks); i++ {
		for _, child := range f.children[ids[i]] {
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			ids = append(ids, child.ID)
		}
	}
	return ids, nil
}

// WouldCreateCycle reports whether giving deckID the parent newParentID
// would make deckID its own ancestor. A nil parent never creates a cycle.
func WouldCreateCycle(decks []domain.Deck, deckID uuid.UUID, newParentID *uuid.UUID) bool {
	if newParentID == nil {
		return false
	}
	if *newParentID == deckID {
		return true
	}

	f := buildForest(decks)
	current, ok := f.decks[*newParentID]
	for steps := 0; ok; steps++ {
		if current.ID == deckID {
			return true
		}
		if steps > len(f.decks) {
			// The existing chain already loops.
			return true
		}
		parentID, hasParent := f.parentOf(current)
		if !hasParent {
			return false
		}
		current, ok = f.decks[parentID]
	}
	return false
}
