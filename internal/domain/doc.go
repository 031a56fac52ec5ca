// Package domain contains the core entities of the deck scheduler: users,
// decks, cards and the review events recorded against them. It has no
// knowledge of persistence or transport.
package domain
