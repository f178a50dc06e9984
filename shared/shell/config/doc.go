// Package config provides configuration helpers for the circulation system:
// PostgreSQL connections using different drivers (pgx.Pool, sql.DB, sqlx.DB)
// and TOML-based borrowing rules per borrower type.
package config
