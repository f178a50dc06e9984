// Package postgresengine provides the PostgreSQL storage engine for the
// circulation ledger.
//
// The engine supports three database connection types (pgxpool.Pool, sql.DB,
// sqlx.DB) through an internal adapter layer, builds all SQL with goqu against
// the postgres dialect, and exposes exactly one entry point for mutations:
// WithinTx, which runs a callback against a transactional unit of work with
// row-level locking on the entities it loads for update.
package postgresengine
