package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"freightbench/internal/benchmark"
	"freightbench/internal/errorx"
	"freightbench/internal/logger"
	"freightbench/internal/model"
	"freightbench/internal/rate"
	"freightbench/internal/refdata"
)

const defaultMaxBatch = 1000

// Options tune the HTTP adapter.
type Options struct {
	Batch        benchmark.BatchOptions
	MaxBatchSize int
	// Ping reports backend readiness for /healthz. Nil means always ready.
	Ping func(ctx context.Context) error
}

type Server struct {
	engine     *benchmark.Assembler
	log        *zap.Logger
	normalizer Normalizer
	opts       Options
}

func New(engine *benchmark.Assembler, log *zap.Logger, opts Options) http.Handler {
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = defaultMaxBatch
	}
	s := &Server{engine: engine, log: logger.OrNop(log), normalizer: NewNormalizer(), opts: opts}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Post("/benchmarks", s.handleCreateBenchmark)
	r.Post("/benchmarks/batch", s.handleBatch)
	r.Get("/lanes", s.handleGetLane)
	r.Get("/zones", s.handleGetZone)
	r.Get("/fx-rates", s.handleGetFxRate)
	r.Post("/fx-rates", s.handlePostFxRate)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.opts.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.opts.Ping(ctx); err != nil {
			s.log.Warn("health check failed", zap.Error(err))
			writeErrorJSON(w, http.StatusServiceUnavailable, "unavailable", "backend unavailable")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Benchmarks

func (s *Server) handleCreateBenchmark(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "read_error", "read error")
		return
	}
	in, err := s.normalizer.Normalize(body)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	res, err := s.engine.Compute(r.Context(), in)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type BatchRequest struct {
	Shipments []json.RawMessage `json:"shipments"`
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 32<<20)).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if len(req.Shipments) == 0 {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "shipments required")
		return
	}
	if len(req.Shipments) > s.opts.MaxBatchSize {
		writeErrorJSON(w, http.StatusRequestEntityTooLarge, "batch_too_large", "too many shipments")
		return
	}
	inputs := make([]model.ShipmentInput, len(req.Shipments))
	for i, raw := range req.Shipments {
		in, err := s.normalizer.Normalize(raw)
		if err != nil {
			writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "shipments["+strconv.Itoa(i)+"]: "+err.Error())
			return
		}
		inputs[i] = in
	}
	sum := s.engine.ComputeBatch(r.Context(), inputs, s.opts.Batch)
	writeJSON(w, http.StatusOK, sum)
}

// Reference lookups

func (s *Server) handleGetLane(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	origin, dest := strings.TrimSpace(q.Get("origin")), strings.TrimSpace(q.Get("dest"))
	if origin == "" || dest == "" {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "origin and dest required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"origin":    strings.ToUpper(origin),
		"dest":      strings.ToUpper(dest),
		"lane_type": string(rate.DetermineLaneType(origin, dest)),
	})
}

func (s *Server) handleGetZone(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tenantID, carrierID, country := q.Get("tenant_id"), q.Get("carrier_id"), q.Get("country")
	if tenantID == "" || carrierID == "" || country == "" {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "tenant_id, carrier_id and country required")
		return
	}
	date, err := dateParam(q.Get("date"))
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_date", "invalid date")
		return
	}
	m, err := s.engine.Zones().ResolveMatch(r.Context(), tenantID, carrierID, country, q.Get("postal_code"), date)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type FxRateResponse struct {
	From     string  `json:"from_ccy"`
	To       string  `json:"to_ccy"`
	Date     string  `json:"date"`
	Rate     float64 `json:"rate"`
	Source   string  `json:"source"`
	RateDate string  `json:"rate_date,omitempty"`
}

func (s *Server) handleGetFxRate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := strings.ToUpper(q.Get("from")), strings.ToUpper(q.Get("to"))
	if from == "" || to == "" {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "from and to required")
		return
	}
	date, err := dateParam(q.Get("date"))
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_date", "invalid date")
		return
	}
	quote, err := s.engine.FX().Lookup(r.Context(), from, to, date)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	res := FxRateResponse{From: from, To: to, Date: date.Format(time.DateOnly), Rate: quote.Rate, Source: quote.Source}
	if !quote.RateDate.IsZero() {
		res.RateDate = quote.RateDate.Format(time.DateOnly)
	}
	writeJSON(w, http.StatusOK, res)
}

type FxRateCreateRequest struct {
	RateDate string  `json:"rate_date"`
	From     string  `json:"from_ccy"`
	To       string  `json:"to_ccy"`
	Rate     float64 `json:"rate"`
	Source   string  `json:"source"`
}

func (s *Server) handlePostFxRate(w http.ResponseWriter, r *http.Request) {
	var req FxRateCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(req.RateDate))
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_rate_date", "invalid rate_date")
		return
	}
	rec := refdata.FxRate{RateDate: d, From: req.From, To: req.To, Rate: req.Rate, Source: orDefault(req.Source, "manual")}
	if err := s.engine.FX().AddRate(r.Context(), rec); err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

// writeEngineError maps engine error tiers to HTTP responses.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errorx.IsValidation(err):
		writeErrorJSON(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errorx.IsNotFound(err):
		writeErrorJSON(w, http.StatusNotFound, "resource_not_found", err.Error())
	case errorx.IsIntegrity(err):
		writeErrorJSON(w, http.StatusUnprocessableEntity, "data_integrity", err.Error())
	default:
		s.log.Error("request failed", zap.Error(err))
		writeErrorJSON(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorJSON writes a standardized JSON error response:
// {"error": {"code": "...", "message": "..."}}
func writeErrorJSON(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// requestIDMiddleware ensures X-Request-ID is set on the response.
// If provided in the request header, it is propagated; otherwise a UUID is generated.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if rid == "" {
			rid = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", rid)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("http request",
			zap.String("request_id", ww.Header().Get("X-Request-ID")),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)))
	})
}

func dateParam(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return refdata.Day(time.Now()), nil
	}
	return time.Parse(time.DateOnly, s)
}

func orDefault(s, d string) string {
	if strings.TrimSpace(s) == "" {
		return d
	}
	return s
}
