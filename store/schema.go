package store

// schema is kept to types both SQLite and PostgreSQL accept. Times are
// stored as RFC3339 text.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		run_id     TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		label      TEXT NOT NULL DEFAULT '',
		bonds      INTEGER NOT NULL,
		failed     INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bond_results (
		run_id           TEXT NOT NULL,
		seq              INTEGER NOT NULL,
		position_id      TEXT NOT NULL,
		maturity_date    TEXT NOT NULL,
		maturity_years   INTEGER,
		notional         DOUBLE PRECISION NOT NULL,
		price            DOUBLE PRECISION NOT NULL,
		settlement_date  TEXT NOT NULL DEFAULT '',
		ytm              DOUBLE PRECISION NOT NULL,
		duration         DOUBLE PRECISION NOT NULL,
		accrued_interest DOUBLE PRECISION NOT NULL,
		dv01             DOUBLE PRECISION NOT NULL,
		error_kind       TEXT NOT NULL DEFAULT '',
		error            TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, seq)
	)`,
	`CREATE TABLE IF NOT EXISTS bucket_results (
		run_id         TEXT NOT NULL,
		seq            INTEGER NOT NULL,
		maturity_years INTEGER NOT NULL,
		total_notional DOUBLE PRECISION NOT NULL,
		weighted_dv01  DOUBLE PRECISION NOT NULL,
		total_accrued  DOUBLE PRECISION NOT NULL,
		positions      INTEGER NOT NULL,
		failed         INTEGER NOT NULL,
		PRIMARY KEY (run_id, seq)
	)`,
	`CREATE TABLE IF NOT EXISTS scenario_results (
		run_id    TEXT NOT NULL,
		seq       INTEGER NOT NULL,
		shift_bps INTEGER NOT NULL,
		pnl       DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (run_id, seq)
	)`,
}
