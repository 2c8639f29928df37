// Package mlog is the monitor's event log: an append-only, capacity-bounded
// ring of locale-free structured entries. Text is produced only when an
// entry is rendered for a requested language, so switching the dashboard
// language never rewrites history.
package mlog

import (
	"sync"
	"time"
)

type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
	TypeTrade   Type = "trade"
)

// Event identifies what happened; rendering picks the message template.
type Event string

const (
	EventPriceFailed    Event = "price_failed"
	EventNoPlans        Event = "no_plans"
	EventPlanLoadFailed Event = "plan_load_failed"
	EventWaitingEntry   Event = "waiting_entry"
	EventAboveEntry     Event = "above_entry"
	EventHolding        Event = "holding"
	EventBought         Event = "bought"
	EventSoldTarget     Event = "sold_target"
	EventSoldStop       Event = "sold_stop"
	EventCashShort      Event = "cash_short"
	EventOrderRejected  Event = "order_rejected"
)

// Entry is one logged occurrence. Only the fields relevant to its Event are
// set; Detail carries free-form context such as an upstream error string.
type Entry struct {
	Time     time.Time
	Type     Type
	Event    Event
	Symbol   string
	Quantity int64
	Price    float64
	Level    float64
	PnL      float64
	PnLPct   float64
	Detail   string
}

// Recorder persists entries as they are appended.
type Recorder interface {
	RecordLog(Entry) error
}

// Store is a fixed-capacity FIFO ring. Appending past capacity evicts the
// oldest entry; survivors keep their order.
type Store struct {
	mu       sync.Mutex
	entries  []Entry
	start    int
	count    int
	recorder Recorder
}

func NewStore(capacity int) *Store {
	if capacity < 1 {
		capacity = 1
	}
	return &Store{entries: make([]Entry, capacity)}
}

// SetRecorder attaches a persistence hook. Recording failures are dropped;
// the in-memory ring is the UI's source of truth.
func (s *Store) SetRecorder(r Recorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder = r
}

func (s *Store) Append(e Entry) {
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}

	s.mu.Lock()
	if s.count == len(s.entries) {
		s.entries[s.start] = e
		s.start = (s.start + 1) % len(s.entries)
	} else {
		s.entries[(s.start+s.count)%len(s.entries)] = e
		s.count++
	}
	rec := s.recorder
	s.mu.Unlock()

	if rec != nil {
		_ = rec.RecordLog(e)
	}
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(n int) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n > s.count || n < 0 {
		n = s.count
	}
	out := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		idx := (s.start + s.count - 1 - i) % len(s.entries)
		out = append(out, s.entries[idx])
	}
	return out
}

// All returns every stored entry, oldest first.
func (s *Store) All() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, s.count)
	for i := 0; i < s.count; i++ {
		out = append(out, s.entries[(s.start+i)%len(s.entries)])
	}
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}
