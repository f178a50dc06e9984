package postgresengine

// Migrations returns the circulation schema migration statements for the given
// table prefix. Each string is a single SQL statement.
func Migrations(tablePrefix string) []string {
	p := tablePrefix

	return []string{
		`CREATE TABLE IF NOT EXISTS ` + p + `book_copies (
			id                uuid PRIMARY KEY,
			title             text NOT NULL,
			status            text NOT NULL,
			replacement_price numeric(10,2)
		)`,

		`CREATE TABLE IF NOT EXISTS ` + p + `loans (
			id            uuid PRIMARY KEY,
			copy_id       uuid NOT NULL REFERENCES ` + p + `book_copies (id),
			borrower_id   text NOT NULL,
			borrower_type text NOT NULL,
			borrow_date   date NOT NULL,
			due_date      date NOT NULL,
			return_date   date,
			status        text NOT NULL,
			renewal_count integer NOT NULL DEFAULT 0,
			fine_amount   numeric(10,2) NOT NULL DEFAULT 0
		)`,

		// At most one open loan per copy.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + p + `loans_open_copy
			ON ` + p + `loans (copy_id) WHERE status = 'borrowed'`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `loans_open_borrower
			ON ` + p + `loans (borrower_id) WHERE status = 'borrowed'`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `loans_open_due
			ON ` + p + `loans (due_date) WHERE status = 'borrowed'`,

		`CREATE TABLE IF NOT EXISTS ` + p + `reservations (
			id              uuid PRIMARY KEY,
			copy_id         uuid NOT NULL REFERENCES ` + p + `book_copies (id),
			borrower_id     text NOT NULL,
			requested_at    timestamp with time zone NOT NULL,
			queue_position  integer NOT NULL,
			status          text NOT NULL,
			pickup_deadline timestamp with time zone,
			cancel_reason   text NOT NULL DEFAULT ''
		)`,

		// Active reservations per copy carry unique positions.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + p + `reservations_active_position
			ON ` + p + `reservations (copy_id, queue_position) WHERE status IN ('waiting', 'ready')`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `reservations_active_borrower
			ON ` + p + `reservations (borrower_id) WHERE status IN ('waiting', 'ready')`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `reservations_ready_deadline
			ON ` + p + `reservations (pickup_deadline) WHERE status = 'ready'`,

		`CREATE TABLE IF NOT EXISTS ` + p + `fines (
			id             uuid PRIMARY KEY,
			loan_id        uuid REFERENCES ` + p + `loans (id),
			borrower_id    text NOT NULL,
			amount         numeric(10,2) NOT NULL,
			amount_paid    numeric(10,2) NOT NULL DEFAULT 0,
			balance_due    numeric(10,2) NOT NULL,
			reason         text NOT NULL,
			payment_status text NOT NULL,
			collected_by   text NOT NULL DEFAULT '',
			payment_date   timestamp with time zone
		)`,

		`CREATE INDEX IF NOT EXISTS idx_` + p + `fines_open_loan
			ON ` + p + `fines (loan_id, reason) WHERE payment_status IN ('unpaid', 'partial_paid')`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `fines_open_borrower
			ON ` + p + `fines (borrower_id) WHERE payment_status IN ('unpaid', 'partial_paid')`,

		`CREATE TABLE IF NOT EXISTS ` + p + `receipts (
			id             uuid PRIMARY KEY,
			receipt_number text NOT NULL UNIQUE,
			borrower_id    text NOT NULL,
			collected_by   text NOT NULL,
			total_paid     numeric(10,2) NOT NULL,
			cash_received  numeric(10,2) NOT NULL,
			change_given   numeric(10,2) NOT NULL,
			line_items     jsonb NOT NULL,
			issued_at      timestamp with time zone NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS ` + p + `letters (
			id            uuid PRIMARY KEY,
			letter_number text NOT NULL UNIQUE,
			borrower_id   text NOT NULL,
			letter_type   text NOT NULL,
			line_items    jsonb NOT NULL,
			issued_at     timestamp with time zone NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS ` + p + `accrual_runs (
			run_date date PRIMARY KEY,
			ran_at   timestamp with time zone NOT NULL
		)`,
	}
}
