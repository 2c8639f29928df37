// Package web exposes the read-only JSON API and the websocket dashboard
// feed. Handlers read value snapshots; nothing here mutates account state.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"papertrade/equity"
	"papertrade/ledger"
	"papertrade/mlog"
)

const (
	defaultTradeLimit = 50
	defaultLogLimit   = 50
)

type Server struct {
	ledger  *ledger.Ledger
	sampler *equity.Sampler
	logs    *mlog.Store
	hub     *Hub
	logger  *log.Logger
	srv     *http.Server
}

func New(addr string, led *ledger.Ledger, sampler *equity.Sampler, logs *mlog.Store) *Server {
	s := &Server{
		ledger:  led,
		sampler: sampler,
		logs:    logs,
		hub:     NewHub(),
		logger:  log.Default(),
	}
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) SetLogger(l *log.Logger) {
	s.logger = l
	s.hub.SetLogger(l)
}

// Hub returns the websocket hub so it can be attached to the monitor as its
// publisher and run alongside the server.
func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/account", s.handleAccount)
	mux.HandleFunc("/api/positions", s.handlePositions)
	mux.HandleFunc("/api/trades", s.handleTrades)
	mux.HandleFunc("/api/equity-curve", s.handleEquityCurve)
	mux.HandleFunc("/api/monitor-logs", s.handleMonitorLogs)
	mux.Handle("/ws", s.hub)
	return mux
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Printf("api listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type accountPayload struct {
	InitialCapital float64 `json:"initial_capital"`
	Cash           float64 `json:"cash"`
	MarketValue    float64 `json:"market_value"`
	TotalEquity    float64 `json:"total_equity"`
	RealizedPnL    float64 `json:"realized_pnl"`
	TotalPnL       float64 `json:"total_pnl"`
	TotalPnLPct    float64 `json:"total_pnl_pct"`
	Positions      int     `json:"positions"`
}

type accountResponse struct {
	Status  string         `json:"status"`
	Account accountPayload `json:"account"`
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	snap := s.ledger.Snapshot()
	writeJSON(w, http.StatusOK, accountResponse{Status: "success", Account: accountPayload{
		InitialCapital: snap.InitialCapital.InexactFloat64(),
		Cash:           snap.Cash.InexactFloat64(),
		MarketValue:    snap.MarketValue().InexactFloat64(),
		TotalEquity:    snap.TotalEquity().InexactFloat64(),
		RealizedPnL:    snap.RealizedPnL.InexactFloat64(),
		TotalPnL:       snap.TotalPnL().InexactFloat64(),
		TotalPnLPct:    snap.TotalPnLPct().InexactFloat64(),
		Positions:      len(snap.Positions),
	}})
}

type positionPayload struct {
	Symbol           string  `json:"symbol"`
	Quantity         int64   `json:"quantity"`
	AvgPrice         float64 `json:"avg_price"`
	LastPrice        float64 `json:"last_price"`
	MarketValue      float64 `json:"market_value"`
	UnrealizedPnL    float64 `json:"unrealized_pnl"`
	UnrealizedPnLPct float64 `json:"unrealized_pnl_pct"`
}

type positionsResponse struct {
	Status    string            `json:"status"`
	Positions []positionPayload `json:"positions"`
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	snap := s.ledger.Snapshot()
	out := make([]positionPayload, 0, len(snap.Positions))
	for _, pos := range snap.Positions {
		out = append(out, positionPayload{
			Symbol:           pos.Symbol,
			Quantity:         pos.Quantity,
			AvgPrice:         pos.AvgPrice.InexactFloat64(),
			LastPrice:        pos.LastPrice.InexactFloat64(),
			MarketValue:      pos.MarketValue().InexactFloat64(),
			UnrealizedPnL:    pos.UnrealizedPnL().InexactFloat64(),
			UnrealizedPnLPct: pos.UnrealizedPnLPct().InexactFloat64(),
		})
	}
	writeJSON(w, http.StatusOK, positionsResponse{Status: "success", Positions: out})
}

type tradePayload struct {
	ID          string  `json:"id"`
	Timestamp   string  `json:"timestamp"`
	Symbol      string  `json:"symbol"`
	Action      string  `json:"action"`
	Quantity    int64   `json:"quantity"`
	Price       float64 `json:"price"`
	RealizedPnL float64 `json:"realized_pnl"`
	Reason      string  `json:"reason"`
}

type tradesResponse struct {
	Status string         `json:"status"`
	Trades []tradePayload `json:"trades"`
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	limit, err := limitParam(r, defaultTradeLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	trades := s.ledger.Trades()
	out := make([]tradePayload, 0, limit)
	// Newest first.
	for i := len(trades) - 1; i >= 0 && len(out) < limit; i-- {
		t := trades[i]
		out = append(out, tradePayload{
			ID:          t.ID,
			Timestamp:   t.Time.Format(time.RFC3339),
			Symbol:      t.Symbol,
			Action:      string(t.Action),
			Quantity:    t.Quantity,
			Price:       t.Price.InexactFloat64(),
			RealizedPnL: t.RealizedPnL.InexactFloat64(),
			Reason:      t.Reason,
		})
	}
	writeJSON(w, http.StatusOK, tradesResponse{Status: "success", Trades: out})
}

type equityPayload struct {
	Timestamp   string  `json:"timestamp"`
	Cash        float64 `json:"cash"`
	MarketValue float64 `json:"market_value"`
	TotalEquity float64 `json:"total_equity"`
}

type equityResponse struct {
	Status string          `json:"status"`
	Data   []equityPayload `json:"data"`
}

func (s *Server) handleEquityCurve(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	var points []equity.Point
	switch rng := r.URL.Query().Get("range"); rng {
	case "", "default":
		points = s.sampler.Recent()
	case "all":
		points = s.sampler.All()
	default:
		writeError(w, http.StatusBadRequest, "range must be \"default\" or \"all\"")
		return
	}

	out := make([]equityPayload, 0, len(points))
	for _, p := range points {
		out = append(out, equityPayload{
			Timestamp:   p.Time.Format(time.RFC3339),
			Cash:        p.Cash,
			MarketValue: p.MarketValue,
			TotalEquity: p.TotalEquity,
		})
	}
	writeJSON(w, http.StatusOK, equityResponse{Status: "success", Data: out})
}

type logPayload struct {
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Event     string `json:"event"`
	Symbol    string `json:"symbol,omitempty"`
	Message   string `json:"message"`
}

type logsResponse struct {
	Status string       `json:"status"`
	Logs   []logPayload `json:"logs"`
}

func (s *Server) handleMonitorLogs(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	limit, err := limitParam(r, defaultLogLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lang := r.URL.Query().Get("lang")

	entries := s.logs.Recent(limit)
	out := make([]logPayload, 0, len(entries))
	for _, e := range entries {
		out = append(out, logPayload{
			Timestamp: e.Time.Format(time.RFC3339),
			Type:      string(e.Type),
			Event:     string(e.Event),
			Symbol:    e.Symbol,
			Message:   mlog.Render(e, lang),
		})
	}
	writeJSON(w, http.StatusOK, logsResponse{Status: "success", Logs: out})
}

func limitParam(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New("limit must be a positive integer")
	}
	return n, nil
}

func requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Status: "error", Message: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
