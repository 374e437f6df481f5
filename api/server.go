// Package api serves the engine bridge over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shogitools/usibridge/usi"
)

// AnalyzeResponse is the body of a successful GET /analyze.
type AnalyzeResponse struct {
	Engine  string `json:"engine"`
	Depth   int    `json:"depth"`
	MultiPV int    `json:"multipv"`
	Threads int    `json:"threads"`
	*usi.Result
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	OK    bool   `json:"ok"`
	State string `json:"state,omitempty"`
}

type Server struct {
	analyzer   usi.Analyzer
	engineName string
	// state is optional; when set, /health reports the engine state.
	state func() usi.State
}

func NewServer(analyzer usi.Analyzer, engineName string, state func() usi.State) *Server {
	return &Server{analyzer: analyzer, engineName: engineName, state: state}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /analyze", s.analyze)
	return mux
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{OK: true}
	if s.state != nil {
		resp.State = s.state().String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	w.Header().Set("X-Request-Id", requestID)
	logger := log.With().Str("request-id", requestID).Logger()

	req, err := parseRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	started := time.Now()
	res, err := s.analyzer.Analyze(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		logger.Error().Err(err).Int("status", status).Str("sfen", req.SFEN).Msg("analyze-failed")
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	logger.Info().
		Str("sfen", req.SFEN).
		Int("depth", req.Depth).
		Int("multipv", req.MultiPV).
		Str("bestmove", res.BestMove).
		Dur("elapsed", time.Since(started)).
		Msg("analyzed")

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		Engine:  s.engineName,
		Depth:   req.Depth,
		MultiPV: req.MultiPV,
		Threads: req.Threads,
		Result:  res,
	})
}

func parseRequest(r *http.Request) (usi.Request, error) {
	q := r.URL.Query()
	req := usi.Request{SFEN: q.Get("sfen"), ForceMove: q.Get("forceMove")}
	var err error
	if req.Depth, err = intParam(q.Get("depth"), "depth"); err != nil {
		return req, err
	}
	if req.MultiPV, err = intParam(q.Get("multipv"), "multipv"); err != nil {
		return req, err
	}
	if req.Threads, err = intParam(q.Get("threads"), "threads"); err != nil {
		return req, err
	}
	return Normalize(req)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, usi.ErrRequestTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, usi.ErrHandshakeTimeout),
		errors.Is(err, usi.ErrStartupFailure),
		errors.Is(err, usi.ErrUnexpectedExit),
		errors.Is(err, usi.ErrClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("failed to write response")
	}
}
