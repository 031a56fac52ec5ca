// Package testdb provides migrated databases for tests. By default each
// test gets its own SQLite file in a temporary directory; integration
// tests can point SCRY_TEST_DB_URL at PostgreSQL instead.
package testdb
