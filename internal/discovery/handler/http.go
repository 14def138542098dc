package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/localmart/internal/discovery/domain"
	"github.com/example/localmart/internal/discovery/service"
)

// TrendingSource exposes aggregated search analytics.
type TrendingSource interface {
	Top(n int) []TrendingLocation
}

// TrendingLocation is one entry of the trending postal codes list.
type TrendingLocation struct {
	PostalCode string `json:"postal_code"`
	Searches   int64  `json:"searches"`
}

// HTTP exposes the discovery endpoints.
type HTTP struct {
	svc      *service.Service
	trending TrendingSource
}

// NewHTTP constructs a handler. trending may be nil when no analytics worker
// is wired.
func NewHTTP(svc *service.Service, trending TrendingSource) *HTTP {
	return &HTTP{svc: svc, trending: trending}
}

// Router builds the chi router with all endpoints and middlewares.
func (h *HTTP) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Get("/v1/products/search", h.search)
	r.Get("/v1/recommendations", h.recommendations)
	r.Get("/v1/analytics/trending", h.trendingSearches)
	return r
}

type searchResponse struct {
	service.SearchResponse
	Message string `json:"message,omitempty"`
}

func (h *HTTP) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := service.SearchRequest{
		RadiusMiles:   parseFloat(q.Get("radius")),
		Category:      q.Get("category"),
		MinPriceCents: parseInt64(q.Get("minPrice")),
		MaxPriceCents: parseInt64(q.Get("maxPrice")),
		Page:          int(parseInt64(q.Get("page"))),
		PerPage:       int(parseInt64(q.Get("perPage"))),
	}

	if zip := strings.TrimSpace(q.Get("zipCode")); zip != "" {
		req.PostalCodes = append(req.PostalCodes, zip)
	}
	if zips := strings.TrimSpace(q.Get("zipCodes")); zips != "" {
		for _, zip := range strings.Split(zips, ",") {
			if zip = strings.TrimSpace(zip); zip != "" {
				req.PostalCodes = append(req.PostalCodes, zip)
			}
		}
	}
	if q.Get("latitude") != "" && q.Get("longitude") != "" {
		origin := domain.Coordinate{Lat: parseFloat(q.Get("latitude")), Lng: parseFloat(q.Get("longitude"))}
		if !origin.Valid() {
			http.Error(w, "latitude/longitude out of range", http.StatusBadRequest)
			return
		}
		req.Origin = &origin
	}

	resp, err := h.svc.Search(r.Context(), req)
	if err != nil {
		writeSearchError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{SearchResponse: resp, Message: coverageMessage(resp)})
}

// coverageMessage keeps the two degraded outcomes distinguishable: falling
// back to the nearest merchants is not the same as having no merchant
// location data for the area at all.
func coverageMessage(resp service.SearchResponse) string {
	switch resp.Coverage {
	case service.CoverageNearestFallback:
		return "No merchants within your search radius; showing the closest ones instead."
	case service.CoverageNoMerchantLocations:
		return "We're not available in your area yet."
	default:
		return ""
	}
}

func writeSearchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidPostalCode):
		http.Error(w, "zip code must be 5 digits", http.StatusBadRequest)
	case errors.Is(err, domain.ErrLocationNotFound):
		http.Error(w, "we don't recognize this location", http.StatusNotFound)
	case errors.Is(err, domain.ErrLookupUnavailable):
		http.Error(w, "location lookup is temporarily unavailable", http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *HTTP) recommendations(w http.ResponseWriter, r *http.Request) {
	count := int(parseInt64(r.URL.Query().Get("count")))
	if count <= 0 {
		count = 12
	}
	recs, err := h.svc.Recommendations(r.Context(), count)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": recs, "count": len(recs)})
}

func (h *HTTP) trendingSearches(w http.ResponseWriter, r *http.Request) {
	if h.trending == nil {
		writeJSON(w, http.StatusOK, map[string]any{"trending": []TrendingLocation{}})
		return
	}
	limit := int(parseInt64(r.URL.Query().Get("limit")))
	if limit <= 0 {
		limit = 10
	}
	writeJSON(w, http.StatusOK, map[string]any{"trending": h.trending.Top(limit)})
}

func parseFloat(v string) float64 {
	f, _ := strconv.ParseFloat(v, 64)
	return f
}

func parseInt64(v string) int64 {
	n, _ := strconv.ParseInt(v, 10, 64)
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
