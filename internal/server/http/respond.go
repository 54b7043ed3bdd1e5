package http

import (
	"encoding/json"
	"net/http"

	"github.com/autopeer-io/evfleet/internal/fleet/model"
	"github.com/autopeer-io/evfleet/internal/fleet/projection"
	"github.com/autopeer-io/evfleet/internal/fleet/store"
	"github.com/autopeer-io/evfleet/pkg/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

// listResponse wraps collections so clients always get a count.
type listResponse[T any] struct {
	Count int `json:"count"`
	Items []T `json:"items"`
}

func newList[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Count: len(items), Items: items}
}

// alertList is the retained alerts with their count.
func alertList(s store.State) listResponse[model.Alert] {
	l := newList(s.Alerts)
	l.Count = projection.AlertCount(s)
	return l
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error(err, "Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
