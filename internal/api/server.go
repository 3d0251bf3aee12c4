// Package api serves the analysis task endpoints and the market read paths
// over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"EquityDesk/internal/model"
)

// Analyzer starts background analyses.
type Analyzer interface {
	Submit(ticker string) model.TaskRecord
}

// TaskReader looks up live task records.
type TaskReader interface {
	Get(id string) (model.TaskRecord, error)
}

// Archive looks up finished task records that are no longer live.
type Archive interface {
	LoadTask(id string) (*model.TaskRecord, error)
}

// MarketData is the gateway behind the market read paths.
type MarketData interface {
	FetchPrices(ctx context.Context, ticker, period, interval string) ([]model.OHLCV, error)
	FetchNews(ctx context.Context, ticker string, limit int) []model.NewsItem
}

// Server is the HTTP API.
type Server struct {
	httpServer *http.Server
	analyzer   Analyzer
	tasks      TaskReader
	archive    Archive
	market     MarketData
	logger     arbor.ILogger
	newsLimit  int
}

// Option configures a Server.
type Option func(*Server)

// WithArchive enables the poll fallback for swept tasks.
func WithArchive(a Archive) Option {
	return func(s *Server) { s.archive = a }
}

// WithNewsLimit sets the default number of headlines returned.
func WithNewsLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.newsLimit = n
		}
	}
}

// NewServer creates a server bound to addr.
func NewServer(addr string, analyzer Analyzer, tasks TaskReader, market MarketData, logger arbor.ILogger, opts ...Option) *Server {
	s := &Server{
		analyzer:  analyzer,
		tasks:     tasks,
		market:    market,
		logger:    logger,
		newsLimit: 10,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/analyze", s.handleSubmit)
	mux.HandleFunc("GET /api/analyze/{task_id}", s.handleStatus)
	mux.HandleFunc("GET /api/market/history", s.handleHistory)
	mux.HandleFunc("GET /api/market/news", s.handleNews)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           withCORS(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving in the background.
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("api server listening")
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("api server stopped")
		}
	}()
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn().Err(err).Msg("encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]string{"detail": detail})
}

func tickerParam(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("ticker")))
}

func intParam(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
