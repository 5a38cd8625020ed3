package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/smartystudio/lockersync/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// LockerResponse is the JSON representation of a parcel locker.
type LockerResponse struct {
	LockerID    int64  `json:"locker_id"`
	Name        string `json:"name"`
	Country     string `json:"country"`
	CityName    string `json:"city_name"`
	PostCode    string `json:"post_code"`
	Address     string `json:"address"`
	FullAddress string `json:"full_address"`
	UpdatedAt   string `json:"updated_at"`
}

// SyncResponse is the JSON representation of a completed sync run.
type SyncResponse struct {
	CountryCode string `json:"country_code"`
	Count       int    `json:"count"`
	DurationMS  int64  `json:"duration_ms"`
	SyncedAt    string `json:"synced_at"`
}

// SyncRequest is the JSON body for the manual sync endpoint. The body is
// optional; an absent or empty country code falls back to the configured one.
type SyncRequest struct {
	CountryCode string `json:"country_code"`
}

// CountriesResponse is the JSON representation of the countries endpoint.
type CountriesResponse struct {
	Countries []string `json:"countries"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toLockerResponse converts a domain Locker to its JSON response representation.
func toLockerResponse(l model.Locker) LockerResponse {
	return LockerResponse{
		LockerID:    l.LockerID,
		Name:        l.Name,
		Country:     l.Country,
		CityName:    l.CityName,
		PostCode:    l.PostCode,
		Address:     l.Address,
		FullAddress: l.FullAddress,
		UpdatedAt:   l.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// toSyncResponse converts a domain SyncResult to its JSON response representation.
func toSyncResponse(r model.SyncResult) SyncResponse {
	return SyncResponse{
		CountryCode: r.CountryCode,
		Count:       r.Count,
		DurationMS:  r.Duration.Milliseconds(),
		SyncedAt:    r.StartedAt.UTC().Format(time.RFC3339),
	}
}
