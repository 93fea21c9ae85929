// Package postgres implements the store interfaces on top of PostgreSQL.
//
// The catalog (cards, templates, features, combos) is read through
// GraphStore, variants are rewritten through TxManager, and job bookkeeping
// goes through JobStore. The schema lives in the embedded migrations
// directory and is applied with goose.
package postgres
