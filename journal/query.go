package journal

import (
	"fmt"
	"time"

	"papertrade/equity"
	"papertrade/ledger"
	"papertrade/mlog"
)

const tradeColumns = `trade_id, time, symbol, action, quantity, price, realized_pnl, reason`

// AllTrades returns the complete trade history, oldest first. Used to
// rebuild the ledger on startup.
func (j *SQLite) AllTrades() ([]ledger.Trade, error) {
	rows, err := j.db.Query(`SELECT ` + tradeColumns + ` FROM trades ORDER BY time ASC, trade_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var out []ledger.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// RecentTrades returns up to limit trades, newest first.
func (j *SQLite) RecentTrades(limit int) ([]ledger.Trade, error) {
	rows, err := j.db.Query(`
		SELECT `+tradeColumns+` FROM trades
		ORDER BY time DESC, trade_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent trades: %w", err)
	}
	defer rows.Close()

	var out []ledger.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// EquityBetween returns equity points with time in [start, end), oldest first.
func (j *SQLite) EquityBetween(start, end time.Time) ([]equity.Point, error) {
	rows, err := j.db.Query(`
		SELECT time, cash, market_value, total_equity
		FROM equity
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, fmt.Errorf("query equity: %w", err)
	}
	defer rows.Close()

	var out []equity.Point
	for rows.Next() {
		var p equity.Point
		if err := rows.Scan(&p.Time, &p.Cash, &p.MarketValue, &p.TotalEquity); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AllEquity returns the persisted equity series, oldest first.
func (j *SQLite) AllEquity() ([]equity.Point, error) {
	return j.EquityBetween(time.Time{}, time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC))
}

// RecentLogs returns up to limit monitor log entries, oldest first, so the
// in-memory ring can be reloaded in append order.
func (j *SQLite) RecentLogs(limit int) ([]mlog.Entry, error) {
	rows, err := j.db.Query(`
		SELECT time, type, event, symbol, quantity, price, level, pnl, pnl_pct, detail
		FROM (
			SELECT rowid, * FROM monitor_logs ORDER BY time DESC, rowid DESC LIMIT ?
		) ORDER BY time ASC, rowid ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("query monitor logs: %w", err)
	}
	defer rows.Close()

	var out []mlog.Entry
	for rows.Next() {
		var (
			e     mlog.Entry
			typ   string
			event string
		)
		if err := rows.Scan(&e.Time, &typ, &event, &e.Symbol, &e.Quantity,
			&e.Price, &e.Level, &e.PnL, &e.PnLPct, &e.Detail); err != nil {
			return nil, err
		}
		e.Type = mlog.Type(typ)
		e.Event = mlog.Event(event)
		out = append(out, e)
	}
	return out, rows.Err()
}
