package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"btcspot/internal/domain"
	"btcspot/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the ports.RunArchiver interface using SQLite. It keeps
// a durable copy of every merged point plus one row per completed run. The CSV
// artifacts remain the system of record; the archive exists for inspection and
// ad-hoc queries.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("database path is required: %w", ports.ErrConfigurationError)
	}

	// Create the parent directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		err = fmt.Errorf("failed to create archive directory '%s': %w", filepath.Dir(cfg.DBPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", cfg.DBPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %v: %w", cfg.DBPath, err, ports.ErrDBConnection)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally; limiting the pool avoids lock churn
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize archive schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Archive database ready", map[string]interface{}{"path": cfg.DBPath})

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS prices (
		date  TEXT PRIMARY KEY,
		price REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS runs (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		run_time     TIMESTAMP NOT NULL,
		point_count  INTEGER NOT NULL,
		latest_date  TEXT,
		latest_price REAL,
		output_file  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_run_time ON runs (run_time);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing archive database connection")
		return r.db.Close()
	}
	return nil
}

// SaveSeries upserts every point of the series, keyed by date. A later run
// overwrites the stored price for a date it re-observes.
func (r *Repository) SaveSeries(ctx context.Context, series domain.Series) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin archive transaction: %v: %w", err, ports.ErrUpdateFailed)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO prices (date, price) VALUES (?, ?)
	ON CONFLICT(date) DO UPDATE SET price = excluded.price`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %v: %w", err, ports.ErrUpdateFailed)
	}
	defer stmt.Close()

	for _, p := range series {
		if _, err := stmt.ExecContext(ctx, p.Date.String(), p.Price); err != nil {
			return fmt.Errorf("failed to upsert price for %s: %v: %w", p.Date, err, ports.ErrUpdateFailed)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit archive transaction: %v: %w", err, ports.ErrUpdateFailed)
	}
	r.logger.Debug(ctx, "Series archived", map[string]interface{}{"points": len(series)})
	return nil
}

// RecordRun appends one run record and returns its assigned ID.
func (r *Repository) RecordRun(ctx context.Context, run *domain.RunRecord) (int64, error) {
	const query = `
	INSERT INTO runs (run_time, point_count, latest_date, latest_price, output_file)
	VALUES (?, ?, ?, ?, ?)`

	var latestDate sql.NullString
	if !run.LatestDate.IsZero() {
		latestDate = sql.NullString{String: run.LatestDate.String(), Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query,
		run.RunTime, run.PointCount, latestDate, run.LatestPrice, run.OutputFile)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run record: %v: %w", err, ports.ErrUpdateFailed)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for run record: %w", err)
	}
	run.ID = id // Update the domain object with the ID
	r.logger.Debug(ctx, "Run recorded", map[string]interface{}{"runID": id, "points": run.PointCount})
	return id, nil
}

// LoadSeries reads back every archived point, sorted ascending by date.
func (r *Repository) LoadSeries(ctx context.Context) (domain.Series, error) {
	const query = `SELECT date, price FROM prices ORDER BY date ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query archived prices: %v: %w", err, ports.ErrQueryFailed)
	}
	defer rows.Close()

	series := make(domain.Series, 0)
	for rows.Next() {
		var dateStr string
		var price float64
		if err := rows.Scan(&dateStr, &price); err != nil {
			return nil, fmt.Errorf("failed to scan archived price: %w", err)
		}
		date, err := domain.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("archived date is malformed: %w", err)
		}
		series = append(series, domain.PricePoint{Date: date, Price: price})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating archived prices: %w", err)
	}
	return series, nil
}

// FindRecentRuns retrieves the most recent run records, newest first.
func (r *Repository) FindRecentRuns(ctx context.Context, limit int) ([]*domain.RunRecord, error) {
	const query = `
	SELECT id, run_time, point_count, COALESCE(latest_date, ''), COALESCE(latest_price, 0), output_file
	FROM runs ORDER BY run_time DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query run records: %v: %w", err, ports.ErrQueryFailed)
	}
	defer rows.Close()

	runs := make([]*domain.RunRecord, 0)
	for rows.Next() {
		run := &domain.RunRecord{}
		var runTime time.Time
		var latestDateStr string
		if err := rows.Scan(&run.ID, &runTime, &run.PointCount, &latestDateStr, &run.LatestPrice, &run.OutputFile); err != nil {
			return nil, fmt.Errorf("failed to scan run record: %w", err)
		}
		run.RunTime = runTime
		if latestDateStr != "" {
			date, err := domain.ParseDate(latestDateStr)
			if err != nil {
				return nil, fmt.Errorf("run record date is malformed: %w", err)
			}
			run.LatestDate = date
		}
		runs = append(runs, run)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run records: %w", err)
	}
	return runs, nil
}
