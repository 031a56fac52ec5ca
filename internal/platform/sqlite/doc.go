// Package sqlite implements the internal/store interfaces on an embedded
// SQLite database using the pure Go modernc.org/sqlite driver. Dates and
// timestamps are stored as ISO 8601 text so that date comparisons work
// lexically.
package sqlite
