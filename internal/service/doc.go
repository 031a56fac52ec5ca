// Package service holds the application services for users, decks and
// cards. Services own ownership checks and transaction boundaries; the
// review session lives in the session subpackage.
package service
