package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	pkgch "StockCast/pkg/clickhouse"
	applogger "StockCast/pkg/logger"
)

// CHRecorder stores forecast runs in ClickHouse.
type CHRecorder struct {
	ch    *pkgch.Client
	db    *sql.DB
	table string
	l     *applogger.Logger
}

var _ domrepo.RunRecorder = (*CHRecorder)(nil)

func NewCHRecorder(ch *pkgch.Client, database string, l *applogger.Logger) *CHRecorder {
	if database == "" {
		database = "stockcast"
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &CHRecorder{ch: ch, db: ch.DB(), table: database + ".forecast_runs", l: l}
}

func (s *CHRecorder) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id             String,
			symbol         LowCardinality(String),
			created_at     DateTime64(3, 'UTC'),
			time_step      UInt32,
			epochs         UInt32,
			future_steps   UInt32,
			observations   UInt32,
			train_rmse     Float64,
			test_rmse      Float64,
			final_loss     Float64,
			final_val_loss Float64,
			duration_ms    UInt64,
			predictions    String
		) ENGINE = MergeTree ORDER BY (symbol, created_at)`, s.table),
	})
}

func (s *CHRecorder) Record(ctx context.Context, run *models.ForecastRun) error {
	preds, err := encodePredictions(run.Predictions)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`INSERT INTO %s (id, symbol, created_at, time_step, epochs, future_steps, observations,
		train_rmse, test_rmse, final_loss, final_val_loss, duration_ms, predictions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	_, err = s.db.ExecContext(ctx, q,
		run.ID, run.Symbol, run.CreatedAt.UTC(),
		uint32(run.TimeStep), uint32(run.Epochs), uint32(run.FutureSteps), uint32(run.Observations),
		run.TrainRMSE, run.TestRMSE, run.FinalLoss, run.FinalValLoss,
		uint64(run.Duration.Milliseconds()), preds,
	)
	if err != nil {
		s.l.Error("clickhouse record_run error",
			applogger.String("table", s.table),
			applogger.Symbol(run.Symbol),
			applogger.Error(err),
		)
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *CHRecorder) Recent(ctx context.Context, symbol string, limit int) ([]*models.ForecastRun, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT id, symbol, created_at, time_step, epochs, future_steps, observations,
               train_rmse, test_rmse, final_loss, final_val_loss, duration_ms, predictions
        FROM %s
        WHERE symbol = ?
        ORDER BY created_at DESC
        LIMIT ?
    `, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []*models.ForecastRun
	for rows.Next() {
		var (
			run                       models.ForecastRun
			timeStep, epochs, fut, ob uint32
			durMs                     uint64
			preds                     string
		)
		if err := rows.Scan(&run.ID, &run.Symbol, &run.CreatedAt, &timeStep, &epochs, &fut, &ob,
			&run.TrainRMSE, &run.TestRMSE, &run.FinalLoss, &run.FinalValLoss, &durMs, &preds); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.TimeStep, run.Epochs, run.FutureSteps, run.Observations = int(timeStep), int(epochs), int(fut), int(ob)
		run.Duration = time.Duration(durMs) * time.Millisecond
		if run.Predictions, err = decodePredictions(preds); err != nil {
			return nil, err
		}
		out = append(out, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.l.Debug("clickhouse recent_runs ok",
		applogger.Symbol(symbol),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *CHRecorder) Close() error { return s.ch.Close() }
