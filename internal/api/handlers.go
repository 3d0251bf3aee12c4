package api

import (
	"errors"
	"net/http"

	"EquityDesk/internal/calculator"
	"EquityDesk/internal/collector"
	"EquityDesk/internal/model"
)

// GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// POST /api/analyze?ticker= starts an analysis and returns at once.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ticker := tickerParam(r)
	if ticker == "" {
		s.writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	rec := s.analyzer.Submit(ticker)
	s.writeJSON(w, http.StatusOK, map[string]string{
		"task_id": rec.TaskID,
		"status":  string(rec.Status),
	})
}

// GET /api/analyze/{task_id}
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("task_id")
	rec, err := s.tasks.Get(id)
	if err == nil {
		s.writeJSON(w, http.StatusOK, rec)
		return
	}
	if s.archive != nil {
		if archived, aerr := s.archive.LoadTask(id); aerr == nil && archived != nil {
			s.writeJSON(w, http.StatusOK, archived)
			return
		}
	}
	s.writeError(w, http.StatusNotFound, "Task not found")
}

type bollingerSeries struct {
	Upper  []model.Point `json:"upper"`
	Middle []model.Point `json:"middle"`
	Lower  []model.Point `json:"lower"`
}

type overlaySeries struct {
	SMA50     []model.Point   `json:"sma50"`
	SMA200    []model.Point   `json:"sma200"`
	EMA20     []model.Point   `json:"ema20"`
	Bollinger bollingerSeries `json:"bollinger"`
}

type macdSeries struct {
	MACD      []model.Point `json:"macd"`
	Signal    []model.Point `json:"signal"`
	Histogram []model.Point `json:"histogram"`
}

type historyResponse struct {
	Ticker     string        `json:"ticker"`
	Candles    []model.OHLCV `json:"candles"`
	Indicators overlaySeries `json:"indicators"`
	RSI        []model.Point `json:"rsi"`
	MACD       macdSeries    `json:"macd"`
}

// GET /api/market/history?ticker=&period=&interval=
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ticker := tickerParam(r)
	if ticker == "" {
		s.writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	q := r.URL.Query()
	bars, err := s.market.FetchPrices(r.Context(), ticker, q.Get("period"), q.Get("interval"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, collector.ErrPriceUnavailable) {
			status = http.StatusBadGateway
		}
		s.logger.Warn().Str("ticker", ticker).Err(err).Msg("history unavailable")
		s.writeError(w, status, err.Error())
		return
	}

	series := calculator.Series(bars)
	s.writeJSON(w, http.StatusOK, historyResponse{
		Ticker:  ticker,
		Candles: bars,
		Indicators: overlaySeries{
			SMA50:  points(series.SMA50),
			SMA200: points(series.SMA200),
			EMA20:  points(series.EMA20),
			Bollinger: bollingerSeries{
				Upper:  points(series.BBUpper),
				Middle: points(series.BBMiddle),
				Lower:  points(series.BBLower),
			},
		},
		RSI: points(series.RSI),
		MACD: macdSeries{
			MACD:      points(series.MACD),
			Signal:    points(series.Signal),
			Histogram: points(series.Histogram),
		},
	})
}

// GET /api/market/news?ticker=&limit= never fails upstream.
func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	ticker := tickerParam(r)
	news := []model.NewsItem{}
	if ticker != "" {
		if items := s.market.FetchNews(r.Context(), ticker, intParam(r, "limit", s.newsLimit)); items != nil {
			news = items
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ticker": ticker, "news": news})
}

// points keeps empty series as [] in JSON.
func points(p []model.Point) []model.Point {
	if p == nil {
		return []model.Point{}
	}
	return p
}
