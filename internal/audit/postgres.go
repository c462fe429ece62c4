package audit

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/Alias1177/TraderBot/models"
)

// PostgresSink persists the audit trail to PostgreSQL for later analysis.
type PostgresSink struct {
	db *sql.DB
}

// NewPostgresSink connects using the given DSN and creates the audit tables
// if they don't exist.
func NewPostgresSink(dsn string) (*PostgresSink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	// Check connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &PostgresSink{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS bot_ticks (
			id SERIAL PRIMARY KEY,
			tick BIGINT NOT NULL,
			time TIMESTAMPTZ NOT NULL,
			outcome TEXT NOT NULL,
			reason TEXT,
			decision TEXT,
			price DOUBLE PRECISION,
			ema DOUBLE PRECISION,
			rsi DOUBLE PRECISION,
			pdl DOUBLE PRECISION
		)
	`)
	if err != nil {
		return fmt.Errorf("creating bot_ticks table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS bot_orders (
			id SERIAL PRIMARY KEY,
			executed_at TIMESTAMPTZ NOT NULL,
			success BOOLEAN NOT NULL,
			order_id TEXT,
			status TEXT,
			symbol TEXT NOT NULL,
			side TEXT NOT NULL,
			quantity DOUBLE PRECISION NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			error TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("creating bot_orders table: %w", err)
	}

	return nil
}

func (s *PostgresSink) EmitTick(rec models.TickRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO bot_ticks (tick, time, outcome, reason, decision, price, ema, rsi, pdl)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.Tick, rec.Time, rec.Outcome, rec.Reason, string(rec.Decision),
		rec.Snapshot.CurrentPrice, rec.Snapshot.EMA, rec.Snapshot.RSI, rec.Snapshot.PDL,
	)
	return err
}

func (s *PostgresSink) EmitOrder(res models.OrderResult) error {
	_, err := s.db.Exec(`
		INSERT INTO bot_orders (executed_at, success, order_id, status, symbol, side, quantity, price, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		res.ExecutedAt, res.Success, res.OrderID, res.Status,
		res.Request.Symbol, string(res.Request.Side), res.Request.Quantity, res.Request.Price, res.Error,
	)
	return err
}

func (s *PostgresSink) Close() error {
	return s.db.Close()
}
