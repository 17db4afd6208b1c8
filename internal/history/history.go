// Package history keeps a SQLite log of restoration runs so results can be
// compared across sessions.
package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ironsheep/tv-restore-mcp/internal/quality"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Run is one recorded restoration.
type Run struct {
	// ID defaults to a new UUID when empty.
	ID string

	// Source names the caller, e.g. "tvctl inpaint" or "mcp tv_denoise".
	Source string
	Label  string
	Image  string

	Iterations int
	Lambda     float32

	// Before and After are nil when the run had no reference image.
	Before *quality.Report
	After  *quality.Report

	Elapsed time.Duration

	// CreatedAt defaults to the time of Record.
	CreatedAt time.Time
}

// Store is a run log backed by one SQLite file. It is safe for concurrent
// use.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies pending schema
// migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history %s: %w", path, err)
	}
	// SQLite serializes writers anyway; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("history %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = migrateLogger{}
	// m is not closed: that would close db.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// migrateLogger routes migrate output to slog at debug level.
type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...interface{}) {
	slog.Debug(fmt.Sprintf("[migrate] "+format, v...))
}

func (migrateLogger) Verbose() bool { return false }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts r and returns its id.
func (s *Store) Record(ctx context.Context, r Run) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	mseBefore, psnrBefore := reportColumns(r.Before)
	mseAfter, psnrAfter := reportColumns(r.After)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, source, label, image, iterations, lambda,
			mse_before, psnr_before, mse_after, psnr_after, elapsed_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Source, r.Label, r.Image, r.Iterations, float64(r.Lambda),
		mseBefore, psnrBefore, mseAfter, psnrAfter,
		r.Elapsed.Milliseconds(), r.CreatedAt.UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record run %s: %w", r.ID, err)
	}
	return r.ID, nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, source, label, image, iterations, lambda,
			mse_before, psnr_before, mse_after, psnr_after, elapsed_ms, created_at
		FROM runs ORDER BY created_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                     Run
			lambda                float64
			mseBefore, psnrBefore sql.NullFloat64
			mseAfter, psnrAfter   sql.NullFloat64
			elapsedMS, created    int64
		)
		if err := rows.Scan(&r.ID, &r.Source, &r.Label, &r.Image, &r.Iterations, &lambda,
			&mseBefore, &psnrBefore, &mseAfter, &psnrAfter, &elapsedMS, &created); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Lambda = float32(lambda)
		r.Before = reportFrom(mseBefore, psnrBefore)
		r.After = reportFrom(mseAfter, psnrAfter)
		r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		r.CreatedAt = time.Unix(0, created)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// reportColumns maps a report to nullable columns. Non-finite values, such
// as the PSNR of an exact match, are stored as NULL.
func reportColumns(rep *quality.Report) (mse, psnr sql.NullFloat64) {
	if rep == nil {
		return
	}
	return nullable(rep.MSE), nullable(rep.PSNR)
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// reportFrom rebuilds a report from its columns; a NULL PSNR next to a
// stored MSE reads back as +Inf. SNR is not stored and reads back as NaN.
func reportFrom(mse, psnr sql.NullFloat64) *quality.Report {
	if !mse.Valid {
		return nil
	}
	rep := &quality.Report{MSE: mse.Float64, SNR: math.NaN(), PSNR: math.Inf(1)}
	if psnr.Valid {
		rep.PSNR = psnr.Float64
	}
	return rep
}
