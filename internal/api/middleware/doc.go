// Package middleware provides the HTTP middleware for tracing and
// authentication.
package middleware
