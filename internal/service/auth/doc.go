// Package auth issues and validates the JWT access and refresh tokens that
// identify the owner of every deck and card, and verifies bcrypt password
// hashes.
package auth
