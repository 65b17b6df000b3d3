// Package server exposes extraction and verification over a small JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ppiankov/citecheck/internal/logger"
	"github.com/ppiankov/citecheck/internal/model"
	"github.com/ppiankov/citecheck/internal/pipeline"
	"github.com/ppiankov/citecheck/internal/resolve"
)

// Server handles API requests
type Server struct {
	cfg      model.ServerConfig
	pipeline *pipeline.Pipeline
	resolver resolve.Resolver

	// one verification at a time keeps lookups sequential across requests
	verifyMu sync.Mutex
}

// New creates a server verifying through p and resolving single citations through r
func New(cfg model.ServerConfig, p *pipeline.Pipeline, r resolve.Resolver) *Server {
	return &Server{
		cfg:      cfg,
		pipeline: p,
		resolver: r,
	}
}

// TextRequest carries a document to extract from or verify
type TextRequest struct {
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// ExtractResponse lists the citations found in a document
type ExtractResponse struct {
	Subject   string                    `json:"subject"`
	Citations []model.ExtractedCitation `json:"citations"`
}

// ResolveRequest asks for a single citation lookup
type ResolveRequest struct {
	Citation string  `json:"citation"`
	CaseName *string `json:"case_name,omitempty"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Routes builds the router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/extract", s.handleExtract)
		r.Post("/verify", s.handleVerify)
		r.Post("/resolve", s.handleResolve)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening on %s", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !s.decode(w, r, &req) {
		return
	}

	ex := pipeline.ExtractText(req.Subject, req.Text)
	writeJSON(w, http.StatusOK, ExtractResponse{Subject: ex.Subject, Citations: ex.Citations})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !s.decode(w, r, &req) {
		return
	}

	ex := pipeline.ExtractText(req.Subject, req.Text)
	if s.cfg.MaxCitations > 0 && len(ex.Citations) > s.cfg.MaxCitations {
		writeError(w, http.StatusRequestEntityTooLarge, "too_many_citations",
			"document holds more citations than one request may verify")
		return
	}

	s.verifyMu.Lock()
	defer s.verifyMu.Unlock()

	report, err := s.pipeline.Verify(r.Context(), ex, nil)
	if err != nil {
		// only cancellation fails a run; the client has gone
		logger.Info("Verification of %q abandoned: %v", req.Subject, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.Citation = strings.Join(strings.Fields(req.Citation), " ")
	if req.Citation == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "citation is required")
		return
	}

	res, err := s.resolver.Resolve(r.Context(), req.Citation, req.CaseName)
	if err != nil {
		writeError(w, http.StatusBadGateway, "lookup_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// decode reads a size-limited JSON body, writing the error response itself
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if s.cfg.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Debug("%s %s %d %v [%s]", r.Method, r.URL.Path, ww.Status(), time.Since(start), chimw.GetReqID(r.Context()))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}
