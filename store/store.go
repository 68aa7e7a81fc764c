// Package store persists portfolio reports to SQLite or PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/meenmo/bondrisk/portfolio"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// ErrRunNotFound is returned by LoadRun for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// NormalizeDriver maps a driver name or alias to its database/sql name.
// Empty means SQLite.
func NormalizeDriver(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite", DriverSQLite:
		return DriverSQLite, nil
	case DriverPostgres, "postgresql", "pq":
		return DriverPostgres, nil
	default:
		return "", fmt.Errorf("unsupported driver %q (sqlite3 or postgres)", driver)
	}
}

// Run is the header row of a stored report.
type Run struct {
	ID        string
	CreatedAt time.Time
	Label     string
	Bonds     int
	Failed    int
}

// Store writes and reads reports through database/sql.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects with driver ("sqlite3" or "postgres") and creates the
// schema if missing. For sqlite3 the dsn is a file path.
func Open(driver, dsn string) (*Store, error) {
	driver, err := NormalizeDriver(driver)
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}
	if dsn == "" {
		return nil, fmt.Errorf("Open: empty dsn")
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("Open: create schema: %w", err)
		}
	}
	return &Store{db: db, driver: driver}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SaveRun stores rep under a new run id and returns it.
func (s *Store) SaveRun(ctx context.Context, label string, rep portfolio.Report) (string, error) {
	now := time.Now().UTC()
	runID, err := newRunID(now)
	if err != nil {
		return "", fmt.Errorf("SaveRun: %w", err)
	}

	failed := 0
	for _, b := range rep.Bonds {
		if b.ErrorKind != "" {
			failed++
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("SaveRun: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.rebind(`
		INSERT INTO runs (run_id, created_at, label, bonds, failed)
		VALUES (?, ?, ?, ?, ?)`),
		runID, now.Format(time.RFC3339Nano), label, len(rep.Bonds), failed,
	); err != nil {
		return "", fmt.Errorf("SaveRun: insert run: %w", err)
	}

	for i, b := range rep.Bonds {
		var years sql.NullInt64
		if b.MaturityYears != nil {
			years = sql.NullInt64{Int64: int64(*b.MaturityYears), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO bond_results
			(run_id, seq, position_id, maturity_date, maturity_years, notional, price,
			 settlement_date, ytm, duration, accrued_interest, dv01, error_kind, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			runID, i, b.PositionID, b.MaturityDate, years, b.Notional, b.Price,
			b.SettlementDate, b.Yield, b.ModifiedDuration, b.AccruedInterest, b.DV01, b.ErrorKind, b.Error,
		); err != nil {
			return "", fmt.Errorf("SaveRun: insert bond %s: %w", b.PositionID, err)
		}
	}

	for i, b := range rep.Buckets {
		if _, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO bucket_results
			(run_id, seq, maturity_years, total_notional, weighted_dv01, total_accrued, positions, failed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
			runID, i, b.MaturityYears, b.TotalNotional, b.WeightedDV01, b.TotalAccrued, b.Positions, b.Failed,
		); err != nil {
			return "", fmt.Errorf("SaveRun: insert bucket %d: %w", b.MaturityYears, err)
		}
	}

	for i, sc := range rep.Scenarios {
		if _, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO scenario_results (run_id, seq, shift_bps, pnl)
			VALUES (?, ?, ?, ?)`),
			runID, i, sc.ShiftBps, sc.PnL,
		); err != nil {
			return "", fmt.Errorf("SaveRun: insert scenario %d: %w", sc.ShiftBps, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("SaveRun: commit: %w", err)
	}
	return runID, nil
}

// LoadRun reads a stored report back in its original row order.
func (s *Store) LoadRun(ctx context.Context, runID string) (portfolio.Report, error) {
	var rep portfolio.Report

	var exists int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM runs WHERE run_id = ?`), runID).Scan(&exists)
	if err != nil {
		return rep, fmt.Errorf("LoadRun: %w", err)
	}
	if exists == 0 {
		return rep, fmt.Errorf("LoadRun: %s: %w", runID, ErrRunNotFound)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT position_id, maturity_date, maturity_years, notional, price, settlement_date,
		       ytm, duration, accrued_interest, dv01, error_kind, error
		FROM bond_results WHERE run_id = ? ORDER BY seq`), runID)
	if err != nil {
		return rep, fmt.Errorf("LoadRun: bonds: %w", err)
	}
	for rows.Next() {
		var b portfolio.BondRow
		var years sql.NullInt64
		if err := rows.Scan(&b.PositionID, &b.MaturityDate, &years, &b.Notional, &b.Price,
			&b.SettlementDate, &b.Yield, &b.ModifiedDuration, &b.AccruedInterest, &b.DV01,
			&b.ErrorKind, &b.Error); err != nil {
			rows.Close()
			return rep, fmt.Errorf("LoadRun: bonds: %w", err)
		}
		if years.Valid {
			y := int(years.Int64)
			b.MaturityYears = &y
		}
		rep.Bonds = append(rep.Bonds, b)
	}
	if err := closeRows(rows); err != nil {
		return rep, fmt.Errorf("LoadRun: bonds: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, s.rebind(`
		SELECT maturity_years, total_notional, weighted_dv01, total_accrued, positions, failed
		FROM bucket_results WHERE run_id = ? ORDER BY seq`), runID)
	if err != nil {
		return rep, fmt.Errorf("LoadRun: buckets: %w", err)
	}
	for rows.Next() {
		var b portfolio.BucketRisk
		if err := rows.Scan(&b.MaturityYears, &b.TotalNotional, &b.WeightedDV01, &b.TotalAccrued,
			&b.Positions, &b.Failed); err != nil {
			rows.Close()
			return rep, fmt.Errorf("LoadRun: buckets: %w", err)
		}
		rep.Buckets = append(rep.Buckets, b)
	}
	if err := closeRows(rows); err != nil {
		return rep, fmt.Errorf("LoadRun: buckets: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, s.rebind(`
		SELECT shift_bps, pnl FROM scenario_results WHERE run_id = ? ORDER BY seq`), runID)
	if err != nil {
		return rep, fmt.Errorf("LoadRun: scenarios: %w", err)
	}
	for rows.Next() {
		var sc portfolio.ScenarioPnL
		if err := rows.Scan(&sc.ShiftBps, &sc.PnL); err != nil {
			rows.Close()
			return rep, fmt.Errorf("LoadRun: scenarios: %w", err)
		}
		rep.Scenarios = append(rep.Scenarios, sc)
	}
	if err := closeRows(rows); err != nil {
		return rep, fmt.Errorf("LoadRun: scenarios: %w", err)
	}

	return rep, nil
}

// ListRuns returns run headers, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT run_id, created_at, label, bonds, failed
		FROM runs ORDER BY run_id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("ListRuns: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var created string
		if err := rows.Scan(&r.ID, &created, &r.Label, &r.Bonds, &r.Failed); err != nil {
			return nil, fmt.Errorf("ListRuns: %w", err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("ListRuns: run %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}
