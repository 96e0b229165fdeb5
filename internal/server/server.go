// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the chart pipeline as a JSON HTTP API.
// Implements: prd005-http-api (R1-R5);
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/chart-engine/internal/pipeline"
	"github.com/pdiddy/chart-engine/pkg/types"
)

// DefaultAddr is the listen address used when ServerConfig.Addr is empty.
const DefaultAddr = "127.0.0.1:8000"

// Failure labels produced by the transport itself, alongside the pipeline's
// ErrorKind values.
const (
	kindInternal   = "internal"
	kindBadRequest = "bad_request"
	kindNotFound   = "not_found"
)

// DefaultAllowedOrigins returns the chart frontend's Vite dev hosts, the only
// origins granted CORS access unless the config lists others.
func DefaultAllowedOrigins() []string {
	return []string{"http://localhost:5173", "http://localhost:5174"}
}

// Engine is the pipeline surface the server drives. *pipeline.Pipeline
// implements it.
type Engine interface {
	Chat(ctx context.Context, message string, prev *types.Plan) (*pipeline.Result, error)
	Quick(ctx context.Context, resolved types.Plan) (*pipeline.Result, error)
}

// Server is the HTTP server for chart requests.
type Server struct {
	engine Engine
	cfg    types.ServerConfig
	logger *zap.Logger
	mux    *http.ServeMux
}

// New creates a new Server around engine. A nil logger disables request
// logging; an empty origin list falls back to DefaultAllowedOrigins.
func New(engine Engine, cfg types.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = DefaultAllowedOrigins()
	}

	s := &Server{engine: engine, cfg: cfg, logger: logger, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the HTTP handler for the server, with CORS and request
// logging wrapped around the routes.
func (s *Server) Handler() http.Handler {
	return s.logging(s.cors(s.mux))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/chat", s.handleChat)
	s.mux.HandleFunc("/api/chart/papers_by_year", s.handleChartByYear)
	s.mux.HandleFunc("/api/chart/papers_by_field", s.handleChartByField)
	s.mux.HandleFunc("/", s.handleUnknown)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// chatRequest is one conversation turn: the user's message plus the resolved
// plan from the previous turn, if any.
type chatRequest struct {
	Message  string      `json:"message"`
	PrevPlan *types.Plan `json:"prev_plan"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, "", "request body must be JSON")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeBadRequest(w, "message", "message is required")
		return
	}

	res, err := s.engine.Chat(r.Context(), req.Message, req.PrevPlan)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// chartRequest carries the optional filters of a one-shot chart request.
// Numeric fields are pointers so an absent key keeps its plan default.
type chartRequest struct {
	YearFrom        *int     `json:"year_from"`
	YearTo          *int     `json:"year_to"`
	Doctype         string   `json:"doctype"`
	FieldLevel      *int     `json:"field_level"`
	FieldScoreMin   *float64 `json:"field_score_min"`
	TopK            *int     `json:"top_k"`
	Color           string   `json:"color"`
	Mark            string   `json:"mark"`
	Compare         *bool    `json:"compare"`
	CompareYearFrom *int     `json:"compare_year_from"`
	CompareYearTo   *int     `json:"compare_year_to"`
}

// plan overlays the request's filters on the default plan for kind. The
// result still goes through the validator, so out-of-range values are
// reported there rather than here; the one check the overlay itself must make
// is that a requested comparison names both of its bounds.
func (req chartRequest) plan(kind types.ChartKind) (types.Plan, error) {
	p := types.DefaultPlan(kind)

	if req.YearFrom != nil {
		p.Years.From = *req.YearFrom
	}
	if req.YearTo != nil {
		p.Years.To = *req.YearTo
	}
	p.Doctype = req.Doctype
	if req.Color != "" {
		p.Color = req.Color
	}
	if req.Mark != "" {
		p.Mark = types.Mark(req.Mark)
	}

	if kind == types.ChartPapersByField {
		p.Field.TopK = types.DefaultChartTopK
		if req.FieldLevel != nil {
			p.Field.Level = *req.FieldLevel
		}
		if req.FieldScoreMin != nil {
			p.Field.ScoreMin = *req.FieldScoreMin
		}
		if req.TopK != nil {
			p.Field.TopK = *req.TopK
		}
	}

	if req.Compare != nil && *req.Compare {
		if req.CompareYearFrom == nil || req.CompareYearTo == nil {
			return types.Plan{}, &types.PipelineError{
				Kind:  types.ErrIntentIncomplete,
				Field: "compare",
				Msg:   "compare requires compare_year_from and compare_year_to",
			}
		}
		p.Compare = &types.YearRange{From: *req.CompareYearFrom, To: *req.CompareYearTo}
	}

	return p, nil
}

func (s *Server) handleChartByYear(w http.ResponseWriter, r *http.Request) {
	s.handleChart(w, r, types.ChartPapersByYear)
}

func (s *Server) handleChartByField(w http.ResponseWriter, r *http.Request) {
	s.handleChart(w, r, types.ChartPapersByField)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request, kind types.ChartKind) {
	if r.Method != http.MethodPost {
		s.writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	// An empty body is a valid request for the default chart.
	var req chartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeBadRequest(w, "", "request body must be JSON")
		return
	}

	p, err := req.plan(kind)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	res, err := s.engine.Quick(r.Context(), p)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleUnknown(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusNotFound, errorBody{Kind: kindNotFound, Error: "no such endpoint"})
}

// errorBody is the JSON shape of every failure response.
type errorBody struct {
	Kind  string `json:"kind"`
	Field string `json:"field,omitempty"`
	Error string `json:"error"`
}

// statusFor maps a failure to an HTTP status. Plan problems are the caller's
// fault; a dataset timeout surfaces as a bad upstream; everything else,
// including untagged parser failures, is an internal error.
func statusFor(err error) int {
	switch types.KindOf(err) {
	case types.ErrIntentIncomplete, types.ErrValidationFailed:
		return http.StatusBadRequest
	case types.ErrAggregationFailed:
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return http.StatusBadGateway
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func kindLabel(err error) string {
	if k := types.KindOf(err); k != "" {
		return string(k)
	}
	return kindInternal
}

func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	s.writeJSON(w, statusFor(err), errorBody{
		Kind:  kindLabel(err),
		Field: types.FieldOf(err),
		Error: err.Error(),
	})
}

func (s *Server) writeBadRequest(w http.ResponseWriter, field, msg string) {
	s.writeJSON(w, http.StatusBadRequest, errorBody{Kind: kindBadRequest, Field: field, Error: msg})
}

func (s *Server) writeMethodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	s.writeJSON(w, http.StatusMethodNotAllowed, errorBody{Kind: kindBadRequest, Error: "method not allowed"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", zap.Error(err))
	}
}

// cors grants the configured frontend origins cross-origin access and
// answers their preflight requests.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Origin")

		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.cfg.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

// Serve builds a Server around engine and blocks serving HTTP on cfg.Addr.
func Serve(engine Engine, cfg types.ServerConfig, logger *zap.Logger) error {
	srv := New(engine, cfg, logger)

	addr := cfg.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	srv.logger.Info("listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, srv.Handler())
}
