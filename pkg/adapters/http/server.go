package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/scriptbridge/internal/logging"
	"github.com/aretw0/scriptbridge/pkg/domain"
	"github.com/aretw0/scriptbridge/pkg/workplace"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Runner executes document events against the loaded handler scripts.
type Runner interface {
	Run(ctx context.Context, ev workplace.Event) (workplace.Result, error)
	Order() []string
}

// EventRequest is the body of POST /events.
// Document and PrevState are optional entity payloads in the wire layout.
type EventRequest struct {
	DocumentID string          `json:"document_id"`
	UserID     string          `json:"user_id"`
	EventID    string          `json:"event_id"`
	Document   json.RawMessage `json:"document,omitempty"`
	PrevState  json.RawMessage `json:"prev_state,omitempty"`
}

// Server serves the event API.
type Server struct {
	Runner   Runner
	Version  string
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithGatherer exposes the registry on GET /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.Version = v
	}
}

// NewHandler creates a new HTTP handler for the runner.
func NewHandler(runner Runner, opts ...Option) http.Handler {
	server := &Server{
		Runner:  runner,
		Version: "dev",
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Post("/events", server.PostEvent)
	r.Get("/order", server.GetOrder)
	r.Get("/health", server.GetHealth)
	r.Get("/healthz", server.GetHealth)
	r.Get("/info", server.GetInfo)
	if server.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(server.gatherer, promhttp.HandlerOpts{}))
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PostEvent handles the POST /events request.
// The response carries the run result; its status field holds the commit ResultCode.
func (s *Server) PostEvent(w http.ResponseWriter, r *http.Request) {
	var body EventRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("PostEvent: Invalid request body", "err", err)
		return
	}

	ev, err := body.toEvent()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		s.logger.Warn("PostEvent: Invalid event", "err", err)
		return
	}

	res, err := s.Runner.Run(r.Context(), ev)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrNotFound) {
			status = http.StatusNotFound
		}
		s.logger.Error("PostEvent: Run failed", "err", err, "document_id", ev.DocumentID)
		writeJSON(w, status, map[string]any{"error": err.Error(), "result": res}, s.logger)
		return
	}

	writeJSON(w, http.StatusOK, res, s.logger)
}

func (b EventRequest) toEvent() (workplace.Event, error) {
	ev := workplace.Event{DocumentID: b.DocumentID, UserID: b.UserID, EventID: b.EventID}

	if len(b.Document) > 0 {
		doc, err := domain.Parse(b.Document)
		if err != nil {
			return ev, fmt.Errorf("document: %w", err)
		}
		if ev.DocumentID == "" {
			ev.DocumentID = doc.ID()
		}
		ev.Document = doc
	}
	if len(b.PrevState) > 0 {
		prev, err := domain.Parse(b.PrevState)
		if err != nil {
			return ev, fmt.Errorf("prev_state: %w", err)
		}
		ev.PrevState = prev
	}
	if ev.DocumentID == "" {
		return ev, fmt.Errorf("%w: document_id is required", domain.ErrInvalidArgument)
	}
	return ev, nil
}

// GetOrder handles the GET /order request.
func (s *Server) GetOrder(w http.ResponseWriter, r *http.Request) {
	order := s.Runner.Order()
	if order == nil {
		order = []string{}
	}
	writeJSON(w, http.StatusOK, order, s.logger)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "scriptbridge-http",
		"version": s.Version,
	}, s.logger)
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "err", err)
	}
}
