// Package httpapi is the JSON surface the host automation platform polls.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"cardmarket-monitor/internal/components/assert"
	"cardmarket-monitor/internal/components/telemetry"
	"cardmarket-monitor/internal/coordinator"
	"cardmarket-monitor/internal/scrapers/cardmarket"
	"cardmarket-monitor/internal/services"
	"cardmarket-monitor/internal/tracking"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	report_api_encode  = "api.encode"
	report_api_request = "api.request"
)

const DefaultRequestTimeout = 6 * time.Minute

type Monitor interface {
	State() coordinator.State
	Sensors() []coordinator.Sensor
	Refresh(ctx context.Context) (coordinator.State, error)
}

type Actions interface {
	SearchCard(ctx context.Context, req services.SearchCardRequest) (services.SearchCardResponse, error)
	AddTrackedCard(ctx context.Context, req services.AddTrackedCardRequest) (services.AddTrackedCardResponse, error)
	RemoveTrackedCard(ctx context.Context, req services.RemoveTrackedCardRequest) (services.RemoveTrackedCardResponse, error)
	ListTrackedCards(ctx context.Context) ([]cardmarket.TrackedCardSpec, error)
}

type Options struct {
	// Registry is served on /metrics when set.
	Registry *prometheus.Registry
	// AllowedOrigins enables CORS for browser dashboards.
	AllowedOrigins []string
	// RequestTimeout bounds every request, it must cover a full refresh.
	RequestTimeout time.Duration
}

type Handlers struct {
	monitor Monitor
	actions Actions
	tel     telemetry.API
}

// NewRouter mounts every endpoint on a chi router.
func NewRouter(monitor Monitor, actions Actions, opts Options, tel telemetry.API) http.Handler {
	assert.NotNil(monitor)
	assert.NotNil(actions)
	assert.NotNil(tel)

	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}

	h := &Handlers{
		monitor: monitor,
		actions: actions,
		tel:     telemetry.NewScopedAPI("httpapi", tel),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", h.Health)
	if opts.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.GetState)
		r.Get("/sensors", h.GetSensors)
		r.Post("/refresh", h.Refresh)
		r.Post("/search", h.SearchCard)

		r.Get("/tracked", h.ListTracked)
		r.Post("/tracked", h.AddTracked)
		r.Delete("/tracked", h.RemoveTracked)
	})

	return r
}

type healthResponse struct {
	Status    string `json:"status"`
	HasData   bool   `json:"has_data"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// Health is 200 as long as there is something to serve, stale or not.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	state := h.monitor.State()
	res := healthResponse{Status: "ok", HasData: state.HasData, ErrorKind: state.ErrorKind}
	status := http.StatusOK
	if state.Degraded {
		res.Status = "degraded"
		if !state.HasData {
			status = http.StatusServiceUnavailable
		}
	}
	h.respondJSON(w, status, res)
}

func (h *Handlers) GetState(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.monitor.State())
}

func (h *Handlers) GetSensors(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.monitor.Sensors())
}

// Refresh answers with the new state, or with the error and the state that is
// still being served.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	state, err := h.monitor.Refresh(r.Context())
	if err != nil {
		h.respondJSON(w, statusOf(err), refreshFailure{
			errorResponse: errorResponse{Error: err.Error(), Kind: cardmarket.ErrorKind(err)},
			State:         state,
		})
		return
	}
	h.respondJSON(w, http.StatusOK, state)
}

type refreshFailure struct {
	errorResponse
	State coordinator.State `json:"state"`
}

func (h *Handlers) SearchCard(w http.ResponseWriter, r *http.Request) {
	var req services.SearchCardRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.actions.SearchCard(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, res)
}

func (h *Handlers) ListTracked(w http.ResponseWriter, r *http.Request) {
	cards, err := h.actions.ListTrackedCards(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	if cards == nil {
		cards = []cardmarket.TrackedCardSpec{}
	}
	h.respondJSON(w, http.StatusOK, cards)
}

func (h *Handlers) AddTracked(w http.ResponseWriter, r *http.Request) {
	var req services.AddTrackedCardRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.actions.AddTrackedCard(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	status := http.StatusOK
	if res.Added {
		status = http.StatusCreated
	}
	h.respondJSON(w, status, res)
}

// RemoveTracked takes its arguments from the body or, for clients that can't
// send a body with DELETE, from the query string.
func (h *Handlers) RemoveTracked(w http.ResponseWriter, r *http.Request) {
	req := services.RemoveTrackedCardRequest{
		CardURL:   r.URL.Query().Get("card_url"),
		UniqueKey: r.URL.Query().Get("unique_key"),
	}
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}
	res, err := h.actions.RemoveTrackedCard(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, res)
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidArgument), errors.Is(err, tracking.ErrInvalidCard):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case cardmarket.IsAuthError(err), cardmarket.IsConnectionError(err):
		return http.StatusBadGateway
	case errors.Is(err, cardmarket.ErrScraperClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (h *Handlers) respondError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	res := errorResponse{Error: err.Error()}
	if status == http.StatusBadGateway {
		res.Kind = cardmarket.ErrorKind(err)
	}
	if status >= http.StatusInternalServerError {
		h.tel.ReportWarning(report_api_request, err)
	}
	h.respondJSON(w, status, res)
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.tel.ReportBroken(report_api_encode, err)
	}
}
