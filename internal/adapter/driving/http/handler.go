// Package httphandler is the HTTP driving adapter serving the locker REST API.
package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/smartystudio/lockersync/internal/domain/model"
	"github.com/smartystudio/lockersync/internal/domain/port/driven"
)

// syncTrigger is the slice of the sync service the handler needs: a blocking
// manual trigger that reports its outcome.
type syncTrigger interface {
	TriggerSync(ctx context.Context, countryCode string) (model.SyncResult, error)
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	lockerStore driven.LockerStore
	syncTrigger syncTrigger
	logger      *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(lockerStore driven.LockerStore, trigger syncTrigger, logger *slog.Logger) *Handler {
	return &Handler{
		lockerStore: lockerStore,
		syncTrigger: trigger,
		logger:      logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/lockers", h.ListLockers)
	mux.HandleFunc("GET /api/v1/lockers/search", h.SearchLockerByName)
	mux.HandleFunc("GET /api/v1/lockers/{id}", h.GetLocker)
	mux.HandleFunc("GET /api/v1/countries", h.ListCountries)
	mux.HandleFunc("POST /api/v1/sync", h.TriggerSync)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// ListLockers returns lockers matching the country/city/post_code query
// parameters, ordered by address. When the country parameter is not supplied
// at all, the lexicographically first country present in the directory is
// used; an explicitly empty country (?country=) disables the country filter.
func (h *Handler) ListLockers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := model.LockerFilter{
		Country:  q.Get("country"),
		City:     q.Get("city"),
		PostCode: q.Get("post_code"),
	}

	if !q.Has("country") {
		countries, err := h.lockerStore.DistinctCountries(r.Context())
		if err != nil {
			h.logger.Error("failed to list countries for default filter", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if len(countries) > 0 {
			filter.Country = countries[0]
		}
	}

	lockers, err := h.lockerStore.Query(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to query lockers", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]LockerResponse, 0, len(lockers))
	for _, l := range lockers {
		resp = append(resp, toLockerResponse(l))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetLocker returns a single locker by its provider id.
func (h *Handler) GetLocker(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid locker id")
		return
	}

	locker, err := h.lockerStore.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get locker", "locker_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if locker == nil {
		writeError(w, http.StatusNotFound, "locker not found")
		return
	}

	writeJSON(w, http.StatusOK, toLockerResponse(*locker))
}

// SearchLockerByName returns the first locker whose name contains the given
// string, case-insensitively. Used as a fallback lookup when an order carries
// a locker name instead of an id.
func (h *Handler) SearchLockerByName(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "name parameter is required")
		return
	}

	locker, err := h.lockerStore.FindByName(r.Context(), name)
	if err != nil {
		h.logger.Error("failed to search locker", "name", name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if locker == nil {
		writeError(w, http.StatusNotFound, "locker not found")
		return
	}

	writeJSON(w, http.StatusOK, toLockerResponse(*locker))
}

// ListCountries returns the countries currently present in the directory.
func (h *Handler) ListCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.lockerStore.DistinctCountries(r.Context())
	if err != nil {
		h.logger.Error("failed to list countries", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if countries == nil {
		countries = []string{}
	}

	writeJSON(w, http.StatusOK, CountriesResponse{Countries: countries})
}

// TriggerSync runs a manual directory sync and reports its outcome. The
// optional JSON body may carry a country_code; otherwise the configured
// default is synced. Failures surface to the caller as a 502 with the
// provider's message.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.syncTrigger.TriggerSync(r.Context(), req.CountryCode)
	if err != nil {
		h.logger.Error("manual sync failed", "country", req.CountryCode, "error", err)
		writeError(w, http.StatusBadGateway, "sync failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toSyncResponse(result))
}

// Health returns a simple liveness response.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
