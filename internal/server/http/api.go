package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autopeer-io/evfleet/internal/fleet/connectivity"
	"github.com/autopeer-io/evfleet/internal/fleet/model"
	"github.com/autopeer-io/evfleet/internal/fleet/prefs"
	"github.com/autopeer-io/evfleet/internal/fleet/projection"
	"github.com/autopeer-io/evfleet/internal/fleet/store"
	"github.com/autopeer-io/evfleet/internal/pkg/metrics"
	middleware "github.com/autopeer-io/evfleet/internal/pkg/middleware/http"
	"github.com/autopeer-io/evfleet/pkg/log"
)

// Connectivity is the part of the coordinator the API drives.
type Connectivity interface {
	Status() connectivity.Status
	SetSimulateOffline(ctx context.Context, enabled bool)
}

// Preferences is the persisted UI preference store.
type Preferences interface {
	PanelOrder() []prefs.PanelID
	SetPanelOrder(order []prefs.PanelID) error
	Language() string
	SetLanguage(lang string) error
}

// API exposes the fleet core over HTTP. Every handler maps to exactly one
// store, coordinator or preference operation.
type API struct {
	store *store.Store
	conn  Connectivity
	prefs Preferences

	// ready reports whether the dashboard is ready to serve; nil means always.
	ready          func() bool
	requestTimeout time.Duration
	upgrader       websocket.Upgrader

	// closing is closed by CloseStreams; hijacked stream connections are not
	// tracked by http.Server and watch it instead.
	closing   chan struct{}
	closeOnce sync.Once
}

type Option func(*API)

func WithReadiness(fn func() bool) Option {
	return func(a *API) { a.ready = fn }
}

func WithRequestTimeout(d time.Duration) Option {
	return func(a *API) { a.requestTimeout = d }
}

// WithCheckOrigin overrides the WebSocket origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(a *API) { a.upgrader.CheckOrigin = fn }
}

func NewAPI(st *store.Store, conn Connectivity, p Preferences, opts ...Option) *API {
	a := &API{
		store:          st,
		conn:           conn,
		prefs:          p,
		requestTimeout: middleware.DefaultRequestTimeout,
		closing:        make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CloseStreams ends every open stream with a going-away close frame. New
// stream requests are closed right after the upgrade.
func (a *API) CloseStreams() {
	a.closeOnce.Do(func() { close(a.closing) })
}

// Router builds the complete route table.
func (a *API) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Logging)

	r.HandleFunc("/healthz", a.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", a.handleReadyz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()

	// The stream outlives any request timeout.
	v1.HandleFunc("/stream", a.handleStream).Methods(http.MethodGet)

	api := v1.NewRoute().Subrouter()
	api.Use(middleware.Timeout(a.requestTimeout))

	api.HandleFunc("/vehicles", a.handleListVehicles).Methods(http.MethodGet)
	api.HandleFunc("/vehicles/selected", a.handleSelectedVehicle).Methods(http.MethodGet)
	api.HandleFunc("/selection", a.handleSelect).Methods(http.MethodPut)

	api.HandleFunc("/query", a.handleGetQuery).Methods(http.MethodGet)
	api.HandleFunc("/query", a.handlePutQuery).Methods(http.MethodPut)

	api.HandleFunc("/alerts", a.handleListAlerts).Methods(http.MethodGet)
	api.HandleFunc("/alerts", a.handleAckAll).Methods(http.MethodDelete)
	api.HandleFunc("/alerts/{id}", a.handleAckAlert).Methods(http.MethodDelete)

	api.HandleFunc("/connectivity", a.handleGetConnectivity).Methods(http.MethodGet)
	api.HandleFunc("/connectivity/simulate-offline", a.handleSimulateOffline).Methods(http.MethodPut)

	api.HandleFunc("/overview", a.handleOverview).Methods(http.MethodGet)

	api.HandleFunc("/preferences/panel-order", a.handleGetPanelOrder).Methods(http.MethodGet)
	api.HandleFunc("/preferences/panel-order", a.handlePutPanelOrder).Methods(http.MethodPut)
	api.HandleFunc("/preferences/language", a.handleGetLanguage).Methods(http.MethodGet)
	api.HandleFunc("/preferences/language", a.handlePutLanguage).Methods(http.MethodPut)

	return r
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (a *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if a.ready != nil && !a.ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// --- vehicles & selection ---

func (a *API) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, newList(projection.FilteredSortedVehicles(a.store.Snapshot())))
}

func (a *API) handleSelectedVehicle(w http.ResponseWriter, r *http.Request) {
	v, ok := projection.SelectedVehicle(a.store.Snapshot())
	if !ok {
		respondError(w, http.StatusNotFound, "no vehicle selected")
		return
	}
	respondJSON(w, http.StatusOK, v)
}

type selectionRequest struct {
	ID string `json:"id"`
}

func (a *API) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	a.store.SelectVehicle(req.ID)
	respondJSON(w, http.StatusOK, req)
}

// --- query ---

func (a *API) handleGetQuery(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, a.store.Snapshot().Query)
}

type queryRequest struct {
	Search *string `json:"search"`
	Status *string `json:"status"`
	SortBy *string `json:"sortBy"`
}

func (a *API) handlePutQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	// Validate everything before touching the store.
	var (
		status model.StatusFilter
		sortBy model.SortKey
		err    error
	)
	if req.Status != nil {
		if status, err = model.ParseStatusFilter(*req.Status); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.SortBy != nil {
		if sortBy, err = model.ParseSortKey(*req.SortBy); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if req.Search != nil {
		a.store.SetSearch(*req.Search)
	}
	if req.Status != nil {
		a.store.SetFilterStatus(status)
	}
	if req.SortBy != nil {
		a.store.SetSortBy(sortBy)
	}
	respondJSON(w, http.StatusOK, a.store.Snapshot().Query)
}

// --- alerts ---

func (a *API) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, alertList(a.store.Snapshot()))
}

func (a *API) handleAckAlert(w http.ResponseWriter, r *http.Request) {
	a.store.AckAlert(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleAckAll(w http.ResponseWriter, r *http.Request) {
	a.store.AckAll()
	w.WriteHeader(http.StatusNoContent)
}

// --- connectivity ---

func (a *API) handleGetConnectivity(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, a.conn.Status())
}

type simulateOfflineRequest struct {
	Enabled *bool `json:"enabled"`
}

func (a *API) handleSimulateOffline(w http.ResponseWriter, r *http.Request) {
	var req simulateOfflineRequest
	if err := decodeBody(r, &req); err != nil || req.Enabled == nil {
		respondError(w, http.StatusBadRequest, `body must be {"enabled": bool}`)
		return
	}
	a.conn.SetSimulateOffline(r.Context(), *req.Enabled)
	respondJSON(w, http.StatusOK, a.conn.Status())
}

// --- overview ---

func (a *API) handleOverview(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, projection.Summarize(a.store.Snapshot()))
}

// --- preferences ---

type panelOrderBody struct {
	Order []prefs.PanelID `json:"order"`
}

func (a *API) handleGetPanelOrder(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, panelOrderBody{Order: a.prefs.PanelOrder()})
}

func (a *API) handlePutPanelOrder(w http.ResponseWriter, r *http.Request) {
	var req panelOrderBody
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := a.prefs.SetPanelOrder(req.Order); err != nil {
		a.respondPrefsError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, panelOrderBody{Order: a.prefs.PanelOrder()})
}

type languageBody struct {
	Language  string   `json:"language"`
	Supported []string `json:"supported,omitempty"`
}

func (a *API) handleGetLanguage(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, languageBody{Language: a.prefs.Language(), Supported: prefs.SupportedLanguages})
}

func (a *API) handlePutLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageBody
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := a.prefs.SetLanguage(req.Language); err != nil {
		a.respondPrefsError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, languageBody{Language: a.prefs.Language(), Supported: prefs.SupportedLanguages})
}

// respondPrefsError maps validation failures to 400; anything else failed to
// persist and is a server error.
func (a *API) respondPrefsError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, prefs.ErrInvalidPanelOrder) || errors.Is(err, prefs.ErrUnsupportedLang) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	log.FromContext(r.Context()).Error(err, "Failed to save preferences")
	respondError(w, http.StatusInternalServerError, "failed to save preferences")
}
