package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Coordinate is an immutable latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate lies within the WGS84 bounds.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// ResolvedLocation is the outcome of a postal code lookup. It is derived per
// request and never persisted by this service.
type ResolvedLocation struct {
	PostalCode string     `json:"postal_code"`
	Coordinate Coordinate `json:"coordinate"`
	City       string     `json:"city,omitempty"`
	Region     string     `json:"region,omitempty"`
}

// Resolution carries the per-code outcome of a multi postal code lookup.
// Exactly one of Location or Err is meaningful.
type Resolution struct {
	PostalCode string
	Location   ResolvedLocation
	Err        error
}

// Geocoder resolves a postal code to a location.
type Geocoder interface {
	Resolve(ctx context.Context, postalCode string) (ResolvedLocation, error)
}

// Geocoder failure modes. Callers branch on these to pick the right
// user-facing response; the service never retries internally.
var (
	ErrInvalidPostalCode = errors.New("postal code must be 5 digits")
	ErrLocationNotFound  = errors.New("postal code has no known location")
	ErrLookupUnavailable = errors.New("postal code lookup unavailable")
)

// MerchantLocation is a read-only projection of a merchant record supplied by
// the caller.
type MerchantLocation struct {
	MerchantID uuid.UUID  `json:"merchant_id"`
	Coordinate Coordinate `json:"coordinate"`
}

// MerchantDistance pairs a merchant with its distance from a search origin.
type MerchantDistance struct {
	Merchant MerchantLocation `json:"merchant"`
	Miles    float64          `json:"miles"`
}

// ProximityResult is the outcome of filtering merchants around an origin.
//
// An empty WithinRadius with UsedFallback=false means the candidate set was
// empty: no merchant has location data yet. That state must be surfaced
// differently from "none within range", where UsedFallback is true and
// WithinRadius holds the nearest merchants regardless of distance.
type ProximityResult struct {
	WithinRadius            []MerchantDistance `json:"within_radius"`
	UsedFallback            bool               `json:"used_fallback"`
	FallbackNearestDistance *float64           `json:"fallback_nearest_distance,omitempty"`
}

// Product is the rankable projection of a listing.
type Product struct {
	ID            uuid.UUID `json:"id"`
	MerchantID    uuid.UUID `json:"merchant_id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	PriceCents    int64     `json:"price_cents"`
	Rating        float64   `json:"rating"`
	Views         int64     `json:"views"`
	Featured      bool      `json:"featured"`
	CreatedAt     time.Time `json:"created_at"`
	DistanceMiles *float64  `json:"distance_miles,omitempty"`
}

// RecommendationType names the bucket a recommendation was drawn from.
type RecommendationType string

const (
	RecommendationFeatured RecommendationType = "featured"
	RecommendationPopular  RecommendationType = "popular"
	RecommendationRecent   RecommendationType = "recent"
	RecommendationSeasonal RecommendationType = "seasonal"
)

// Recommendation tags a product with the bucket that selected it.
type Recommendation struct {
	Product Product            `json:"product"`
	Type    RecommendationType `json:"type"`
}

// ProductFilter narrows a catalog read. Zero values mean "no constraint".
type ProductFilter struct {
	Category      string
	MinPriceCents int64
	MaxPriceCents int64
}

// MerchantSource supplies merchant locations as an in-memory collection.
type MerchantSource interface {
	MerchantLocations(ctx context.Context) ([]MerchantLocation, error)
}

// ProductSource supplies candidate products as an in-memory collection.
type ProductSource interface {
	Products(ctx context.Context, filter ProductFilter) ([]Product, error)
}

// SearchEvent records a completed discovery query for analytics consumers.
type SearchEvent struct {
	ID          uuid.UUID `json:"id"`
	PostalCode  string    `json:"postal_code,omitempty"`
	RadiusMiles float64   `json:"radius_miles"`
	Category    string    `json:"category,omitempty"`
	Coverage    string    `json:"coverage"`
	Results     int       `json:"results"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// EventPublisher emits search events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event SearchEvent) error
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
