// Package journal persists the paper-trading record: executed trades,
// equity snapshots and monitor log entries. The in-memory components stay
// authoritative at runtime; the journal is what survives a restart.
package journal

import (
	"papertrade/equity"
	"papertrade/ledger"
	"papertrade/mlog"
)

// Journal is the full persistence surface. *SQLite implements it, and with
// it the per-component recorder interfaces (ledger.TradeRecorder,
// equity.Recorder, mlog.Recorder).
type Journal interface {
	RecordTrade(ledger.Trade) error
	RecordEquity(equity.Point) error
	RecordLog(mlog.Entry) error
	Close() error
}
