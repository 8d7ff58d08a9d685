// Package sqlite provides the SQLite-backed document store. Documents
// and chunks live in a single database file opened in WAL mode; schema
// changes ship as embedded, versioned migrations.
package sqlite
