package merchantloc

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/example/localmart/internal/discovery/domain"
	"github.com/example/localmart/internal/discovery/proximity"
)

// HTTP exposes the merchant location endpoints.
type HTTP struct {
	store  *Store
	filter *proximity.Filter
}

// NewHTTP creates the handler.
func NewHTTP(store *Store, filter *proximity.Filter) *HTTP {
	return &HTTP{store: store, filter: filter}
}

// Router builds the chi router.
func (h *HTTP) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/merchants/nearby", h.nearby)
	r.Post("/v1/merchants/{id}/location", h.updateLocation)
	return r
}

func (h *HTTP) nearby(w http.ResponseWriter, r *http.Request) {
	origin := domain.Coordinate{
		Lat: parseQueryFloat(r, "latitude"),
		Lng: parseQueryFloat(r, "longitude"),
	}
	if !origin.Valid() {
		http.Error(w, "latitude/longitude out of range", http.StatusBadRequest)
		return
	}
	radius := parseQueryFloat(r, "radius")
	if radius <= 0 {
		radius = 25
	}

	candidates, err := h.store.MerchantLocations(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.filter.Filter(origin, radius, candidates))
}

func (h *HTTP) updateLocation(w http.ResponseWriter, r *http.Request) {
	merchantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid merchant id", http.StatusBadRequest)
		return
	}
	var payload struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	coord := domain.Coordinate{Lat: payload.Lat, Lng: payload.Lng}
	if !coord.Valid() {
		http.Error(w, "latitude/longitude out of range", http.StatusBadRequest)
		return
	}
	h.store.Update(r.Context(), merchantID, coord)
	w.WriteHeader(http.StatusNoContent)
}

func parseQueryFloat(r *http.Request, key string) float64 {
	v, _ := strconv.ParseFloat(r.URL.Query().Get(key), 64)
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
