package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"predictionScope/internal/decode"
	"predictionScope/internal/model"
	"predictionScope/internal/refresh"
)

// PortfolioSource computes a portfolio on demand.
type PortfolioSource interface {
	GetPortfolio(ctx context.Context, identity string) (model.Portfolio, error)
}

// API serves the projected views.
type API struct {
	Markets    *refresh.Poller[[]model.MarketState]
	Strategy   *refresh.Poller[model.StrategyMetrics]
	Admin      *refresh.Poller[string]
	Portfolios map[string]*refresh.Poller[model.Portfolio] // keyed by normalized address
	OnDemand   PortfolioSource
	Hub        *Hub
	Logger     *zap.Logger
}

type viewResponse struct {
	Data      any       `json:"data"`
	UpdatedAt time.Time `json:"updated_at"`
	LastError string    `json:"last_error,omitempty"`
}

type adminResponse struct {
	Admin   string `json:"admin"`
	IsAdmin *bool  `json:"is_admin,omitempty"`
}

// Router returns the HTTP router with the view endpoints.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/markets", a.listMarkets)
	r.Get("/v1/portfolio/{address}", a.getPortfolio)
	r.Get("/v1/strategy", a.getStrategy)
	r.Get("/v1/admin", a.getAdmin)
	r.Post("/v1/refresh", a.refresh)
	if a.Hub != nil {
		r.Get("/ws", a.Hub.HandleWS)
	}
	return r
}

func (a *API) listMarkets(w http.ResponseWriter, r *http.Request) {
	writeState(w, a.Markets)
}

func (a *API) getStrategy(w http.ResponseWriter, r *http.Request) {
	writeState(w, a.Strategy)
}

func (a *API) getAdmin(w http.ResponseWriter, r *http.Request) {
	if a.Admin == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "admin view not configured"})
		return
	}
	state := a.Admin.Latest()
	if !state.Loaded {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": notLoaded(state.Err)})
		return
	}
	resp := adminResponse{Admin: state.Value}
	if identity := r.URL.Query().Get("identity"); identity != "" {
		isAdmin := state.Value != "" && decode.NormalizeAddress(state.Value) == decode.NormalizeAddress(identity)
		resp.IsAdmin = &isAdmin
	}
	writeJSON(w, http.StatusOK, viewResponse{Data: resp, UpdatedAt: state.UpdatedAt, LastError: errString(state.Err)})
}

func (a *API) getPortfolio(w http.ResponseWriter, r *http.Request) {
	address := decode.NormalizeAddress(chi.URLParam(r, "address"))
	if poller, ok := a.Portfolios[address]; ok {
		writeState(w, poller)
		return
	}
	if a.OnDemand == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "address not tracked"})
		return
	}
	portfolio, err := a.OnDemand.GetPortfolio(r.Context(), address)
	if err != nil {
		a.logger().Warn("portfolio read failed", zap.String("address", address), zap.Error(err))
		writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, viewResponse{Data: portfolio, UpdatedAt: time.Now().UTC()})
}

// refresh triggers every poller, the way a client re-reads after submitting a transaction.
func (a *API) refresh(w http.ResponseWriter, r *http.Request) {
	triggered := 0
	if a.Markets != nil {
		a.Markets.Trigger()
		triggered++
	}
	if a.Strategy != nil {
		a.Strategy.Trigger()
		triggered++
	}
	if a.Admin != nil {
		a.Admin.Trigger()
		triggered++
	}
	for _, p := range a.Portfolios {
		p.Trigger()
		triggered++
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"triggered": triggered})
}

func (a *API) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

func writeState[T any](w http.ResponseWriter, poller *refresh.Poller[T]) {
	if poller == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "view not configured"})
		return
	}
	state := poller.Latest()
	if !state.Loaded {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": notLoaded(state.Err)})
		return
	}
	writeJSON(w, http.StatusOK, viewResponse{Data: state.Value, UpdatedAt: state.UpdatedAt, LastError: errString(state.Err)})
}

func notLoaded(err error) string {
	if err != nil {
		return err.Error()
	}
	return "not loaded yet"
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrConfigurationMissing):
		return http.StatusServiceUnavailable
	case errors.Is(err, model.ErrFetchFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
