// Package store defines the persistence interfaces for users, decks, cards
// and review events, along with the shared store errors and transaction
// helper. Implementations live under internal/platform.
package store
