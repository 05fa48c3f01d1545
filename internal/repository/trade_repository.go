package repository

import (
	"context"

	"market-fusion/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const createTradesTable = `
CREATE TABLE IF NOT EXISTS trades (
    id            TEXT        PRIMARY KEY,
    symbol        TEXT        NOT NULL,
    signal        TEXT        NOT NULL,
    entry_price   NUMERIC     NOT NULL,
    exit_price    NUMERIC     NOT NULL,
    entry_time    TIMESTAMPTZ NOT NULL,
    exit_time     TIMESTAMPTZ NOT NULL,
    profit        NUMERIC     NOT NULL,
    return_pct    NUMERIC     NOT NULL,
    confidence    NUMERIC     NOT NULL,
    was_correct   BOOLEAN     NOT NULL,
    holding_hours NUMERIC     NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_exit_time ON trades (exit_time DESC);
`

// TradeRepository persists closed trades so performance analytics survive a
// restart. Open trades stay in memory only.
type TradeRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewTradeRepository(pool PgxPool, tracer trace.Tracer) *TradeRepository {
	return &TradeRepository{pool: pool, tracer: tracer}
}

func (r *TradeRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "trade-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createTradesTable)
	return err
}

func (r *TradeRepository) SaveTrade(ctx context.Context, trade *domain.TradeRecord) error {
	_, span := r.tracer.Start(ctx, "trade-repo.save-trade")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO trades (id, symbol, signal, entry_price, exit_price, entry_time, exit_time,
		                     profit, return_pct, confidence, was_correct, holding_hours)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (id) DO NOTHING`,
		trade.ID, trade.Symbol, string(trade.Signal), trade.EntryPrice, trade.ExitPrice,
		trade.EntryTime, trade.ExitTime, trade.Profit, trade.ReturnPct, trade.Confidence,
		trade.WasCorrect, trade.HoldingHours,
	)
	return err
}

// RecentTrades returns the most recently closed trades, oldest first so the
// tracker ring rebuilds in chronological order.
func (r *TradeRepository) RecentTrades(ctx context.Context, limit int) ([]*domain.TradeRecord, error) {
	_, span := r.tracer.Start(ctx, "trade-repo.recent-trades")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT id, symbol, signal, entry_price, exit_price, entry_time, exit_time,
		        profit, return_pct, confidence, was_correct, holding_hours
		 FROM (
		     SELECT * FROM trades ORDER BY exit_time DESC LIMIT $1
		 ) latest
		 ORDER BY exit_time ASC`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []*domain.TradeRecord
	for rows.Next() {
		tr := &domain.TradeRecord{Closed: true}
		var signal string
		if err := rows.Scan(&tr.ID, &tr.Symbol, &signal, &tr.EntryPrice, &tr.ExitPrice,
			&tr.EntryTime, &tr.ExitTime, &tr.Profit, &tr.ReturnPct, &tr.Confidence,
			&tr.WasCorrect, &tr.HoldingHours); err != nil {
			return nil, err
		}
		tr.Signal = domain.SignalAction(signal)
		trades = append(trades, tr)
	}
	return trades, rows.Err()
}
