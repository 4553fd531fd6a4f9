package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"PriceOracle/internal/model"
)

// DefaultListLimit caps ListForecasts when no positive limit is given.
const DefaultListLimit = 20

// SQLiteRecorder persists forecast history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the API read history while a run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS forecasts (
			run_id        TEXT PRIMARY KEY,
			timestamp     INTEGER NOT NULL,
			symbol        TEXT NOT NULL,
			last_close    REAL,
			predicted     REAL,
			change        REAL,
			change_pct    REAL,
			epochs        INTEGER,
			final_loss    REAL,
			recent_volume REAL,
			recent_rsi    REAL,
			recent_sma    REAL,
			sentiment     REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_forecasts_symbol_ts ON forecasts(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS run_failures (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			run_id    TEXT,
			symbol    TEXT,
			reason    TEXT,
			message   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_ts ON run_failures(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordForecast(ctx context.Context, f *model.Forecast) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := f.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO forecasts
		(run_id, timestamp, symbol, last_close, predicted, change, change_pct,
		 epochs, final_loss, recent_volume, recent_rsi, recent_sma, sentiment)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		f.RunID, created.UnixMilli(), f.Symbol, f.LastClose, f.Predicted, f.Change, f.ChangePct,
		f.Epochs, f.FinalLoss,
		f.Summary.RecentVolume, f.Summary.RecentRSI, f.Summary.RecentSMA, f.Summary.Sentiment,
	)
	return err
}

func (r *SQLiteRecorder) RecordFailure(ctx context.Context, f *Failure) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO run_failures
		(timestamp, run_id, symbol, reason, message)
		VALUES (?,?,?,?,?)`,
		time.Now().UnixMilli(), f.RunID, f.Symbol, f.Reason, f.Message,
	)
	return err
}

func (r *SQLiteRecorder) ListForecasts(ctx context.Context, symbol string, limit int) ([]model.Forecast, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := r.db.QueryContext(ctx, `SELECT
		run_id, timestamp, symbol, last_close, predicted, change, change_pct,
		epochs, final_loss, recent_volume, recent_rsi, recent_sma, sentiment
		FROM forecasts
		WHERE (? = '' OR symbol = ?)
		ORDER BY timestamp DESC
		LIMIT ?`, symbol, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query forecasts: %w", err)
	}
	defer rows.Close()

	var out []model.Forecast
	for rows.Next() {
		var (
			f  model.Forecast
			ts int64
		)
		if err := rows.Scan(&f.RunID, &ts, &f.Symbol, &f.LastClose, &f.Predicted, &f.Change, &f.ChangePct,
			&f.Epochs, &f.FinalLoss,
			&f.Summary.RecentVolume, &f.Summary.RecentRSI, &f.Summary.RecentSMA, &f.Summary.Sentiment); err != nil {
			return nil, fmt.Errorf("scan forecast: %w", err)
		}
		f.CreatedAt = time.UnixMilli(ts).UTC()
		f.Summary.LastClose = f.LastClose
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
