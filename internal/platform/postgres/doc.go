// Package postgres implements the internal/store interfaces on PostgreSQL
// through the pgx database/sql driver. Every store accepts a store.DBTX so
// the same code runs against a pool or inside a transaction.
package postgres
