package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"papertrade/equity"
	"papertrade/ledger"
	"papertrade/mlog"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t ledger.Trade) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, time, symbol, action, quantity, price, realized_pnl, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Time, t.Symbol, string(t.Action), t.Quantity,
		t.Price.InexactFloat64(), t.RealizedPnL.InexactFloat64(), t.Reason,
	)
	return err
}

func (j *SQLite) RecordEquity(p equity.Point) error {
	_, err := j.db.Exec(`
		INSERT INTO equity (time, cash, market_value, total_equity)
		VALUES (?, ?, ?, ?)`,
		p.Time, p.Cash, p.MarketValue, p.TotalEquity,
	)
	return err
}

func (j *SQLite) RecordLog(e mlog.Entry) error {
	_, err := j.db.Exec(`
		INSERT INTO monitor_logs
		(time, type, event, symbol, quantity, price, level, pnl, pnl_pct, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Time, string(e.Type), string(e.Event), e.Symbol, e.Quantity,
		e.Price, e.Level, e.PnL, e.PnLPct, e.Detail,
	)
	return err
}

func (j *SQLite) Close() error { return j.db.Close() }

// scanTrade rebuilds a ledger.Trade from a row. Prices round-trip through
// REAL columns via shortest-decimal conversion, so replayed arithmetic
// matches the original run.
func scanTrade(rows *sql.Rows) (ledger.Trade, error) {
	var (
		t      ledger.Trade
		action string
		price  float64
		pnl    float64
	)
	if err := rows.Scan(&t.ID, &t.Time, &t.Symbol, &action, &t.Quantity, &price, &pnl, &t.Reason); err != nil {
		return ledger.Trade{}, err
	}
	t.Action = ledger.Action(action)
	t.Price = decimal.NewFromFloat(price)
	t.RealizedPnL = decimal.NewFromFloat(pnl)
	return t, nil
}
