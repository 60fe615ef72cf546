package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists forecast runs to a local SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

var _ domrepo.RunRecorder = (*SQLiteRecorder)(nil)

// NewSQLiteRecorder opens (or creates) the database at path in WAL mode.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	return &SQLiteRecorder{db: db}, nil
}

func (r *SQLiteRecorder) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS forecast_runs (
			id             TEXT PRIMARY KEY,
			symbol         TEXT NOT NULL,
			created_at     INTEGER NOT NULL,
			time_step      INTEGER,
			epochs         INTEGER,
			future_steps   INTEGER,
			observations   INTEGER,
			train_rmse     REAL,
			test_rmse      REAL,
			final_loss     REAL,
			final_val_loss REAL,
			duration_ms    INTEGER,
			predictions    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_symbol_ts ON forecast_runs(symbol, created_at)`,
	}
	for _, s := range stmts {
		if _, err := r.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) Record(ctx context.Context, run *models.ForecastRun) error {
	preds, err := encodePredictions(run.Predictions)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err = r.db.ExecContext(ctx, `INSERT INTO forecast_runs
		(id, symbol, created_at, time_step, epochs, future_steps, observations,
		 train_rmse, test_rmse, final_loss, final_val_loss, duration_ms, predictions)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.Symbol, run.CreatedAt.UnixMilli(), run.TimeStep, run.Epochs, run.FutureSteps,
		run.Observations, run.TrainRMSE, run.TestRMSE, run.FinalLoss, run.FinalValLoss,
		run.Duration.Milliseconds(), preds,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// Recent returns up to limit runs for symbol, newest first.
func (r *SQLiteRecorder) Recent(ctx context.Context, symbol string, limit int) ([]*models.ForecastRun, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, symbol, created_at, time_step, epochs, future_steps,
		observations, train_rmse, test_rmse, final_loss, final_val_loss, duration_ms, predictions
		FROM forecast_runs WHERE symbol = ? ORDER BY created_at DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []*models.ForecastRun
	for rows.Next() {
		var (
			run       models.ForecastRun
			createdMs int64
			durMs     int64
			preds     string
		)
		if err := rows.Scan(&run.ID, &run.Symbol, &createdMs, &run.TimeStep, &run.Epochs, &run.FutureSteps,
			&run.Observations, &run.TrainRMSE, &run.TestRMSE, &run.FinalLoss, &run.FinalValLoss, &durMs, &preds); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.CreatedAt = time.UnixMilli(createdMs).UTC()
		run.Duration = time.Duration(durMs) * time.Millisecond
		if run.Predictions, err = decodePredictions(preds); err != nil {
			return nil, err
		}
		out = append(out, &run)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error { return r.db.Close() }

type storedPrediction struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

func encodePredictions(p []models.PredictionPoint) (string, error) {
	out := make([]storedPrediction, len(p))
	for i, pt := range p {
		out[i] = storedPrediction{Date: pt.Date.Format(models.DateLayout), Close: pt.PredictedClose}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode predictions: %w", err)
	}
	return string(b), nil
}

func decodePredictions(s string) ([]models.PredictionPoint, error) {
	if s == "" {
		return nil, nil
	}
	var in []storedPrediction
	if err := json.Unmarshal([]byte(s), &in); err != nil {
		return nil, fmt.Errorf("decode predictions: %w", err)
	}
	out := make([]models.PredictionPoint, len(in))
	for i, sp := range in {
		d, err := time.Parse(models.DateLayout, sp.Date)
		if err != nil {
			return nil, fmt.Errorf("decode prediction date: %w", err)
		}
		out[i] = models.PredictionPoint{Date: d, PredictedClose: sp.Close}
	}
	return out, nil
}
