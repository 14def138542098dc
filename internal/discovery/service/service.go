package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/example/localmart/internal/discovery/domain"
	"github.com/example/localmart/internal/discovery/geo"
	"github.com/example/localmart/internal/discovery/proximity"
	"github.com/example/localmart/internal/discovery/ranking"
	"github.com/example/localmart/internal/discovery/recommend"
)

const (
	defaultRadiusMiles = 25.0
	defaultPerPage     = 20
	maxPerPage         = 100
)

// Coverage describes how the geographic part of a search was satisfied.
// Handlers translate these into distinct user-facing messages: a fallback
// result must never render as an empty page, and a market with no merchant
// location data at all must not reuse the fallback message.
type Coverage string

const (
	CoverageUnfiltered          Coverage = "unfiltered"
	CoverageInRadius            Coverage = "in_radius"
	CoverageNearestFallback     Coverage = "nearest_fallback"
	CoverageNoMerchantLocations Coverage = "no_merchant_locations"
)

// Service coordinates the discovery and recommendation paths between handlers
// and the catalog collaborators.
type Service struct {
	geocoder  domain.Geocoder
	merchants domain.MerchantSource
	products  domain.ProductSource
	filter    *proximity.Filter
	composer  *recommend.Composer
	seasons   recommend.SeasonMap
	events    domain.EventPublisher
	clock     domain.Clock
}

// New constructs a Service with the required collaborators.
func New(geocoder domain.Geocoder, merchants domain.MerchantSource, products domain.ProductSource,
	filter *proximity.Filter, composer *recommend.Composer, seasons recommend.SeasonMap,
	events domain.EventPublisher, clock domain.Clock) *Service {
	if seasons == nil {
		seasons = recommend.DefaultSeasonMap()
	}
	return &Service{
		geocoder:  geocoder,
		merchants: merchants,
		products:  products,
		filter:    filter,
		composer:  composer,
		seasons:   seasons,
		events:    events,
		clock:     clock,
	}
}

// SearchRequest contains the discovery query parameters.
type SearchRequest struct {
	PostalCodes   []string
	Origin        *domain.Coordinate
	RadiusMiles   float64
	Category      string
	MinPriceCents int64
	MaxPriceCents int64
	Page          int
	PerPage       int
}

// SearchResponse is the ranked, paginated discovery result.
type SearchResponse struct {
	Products             []domain.Product          `json:"products"`
	Total                int                       `json:"total"`
	Page                 int                       `json:"page"`
	PerPage              int                       `json:"per_page"`
	Coverage             Coverage                  `json:"coverage"`
	Location             *domain.ResolvedLocation  `json:"location,omitempty"`
	AdditionalLocations  []domain.ResolvedLocation `json:"additional_locations,omitempty"`
	FallbackNearestMiles *float64                  `json:"fallback_nearest_miles,omitempty"`
}

// Search resolves the request's location context, filters merchants by
// proximity, ranks the matching products and paginates the result. A search
// without any location context ranks the whole catalog by recency.
func (s *Service) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	if req.RadiusMiles <= 0 {
		req.RadiusMiles = defaultRadiusMiles
	}

	resp := SearchResponse{Coverage: CoverageUnfiltered}

	origin := req.Origin
	if origin == nil && len(req.PostalCodes) > 0 {
		primary, extra, err := s.resolveLocations(ctx, req.PostalCodes)
		if err != nil {
			return SearchResponse{}, err
		}
		origin = &primary.Coordinate
		resp.Location = primary
		resp.AdditionalLocations = extra
	}

	products, err := s.products.Products(ctx, domain.ProductFilter{
		Category:      req.Category,
		MinPriceCents: req.MinPriceCents,
		MaxPriceCents: req.MaxPriceCents,
	})
	if err != nil {
		return SearchResponse{}, fmt.Errorf("load products: %w", err)
	}

	hasLocation := origin != nil
	if hasLocation {
		locations, err := s.merchants.MerchantLocations(ctx)
		if err != nil {
			return SearchResponse{}, fmt.Errorf("load merchant locations: %w", err)
		}

		result := s.filter.Filter(*origin, req.RadiusMiles, locations)
		switch {
		case result.UsedFallback:
			resp.Coverage = CoverageNearestFallback
			resp.FallbackNearestMiles = result.FallbackNearestDistance
		case len(result.WithinRadius) == 0:
			resp.Coverage = CoverageNoMerchantLocations
		default:
			resp.Coverage = CoverageInRadius
		}

		if resp.Coverage == CoverageNoMerchantLocations {
			products = nil
		} else {
			products = restrictToMerchants(products, result.WithinRadius)
		}
	}

	ranked := ranking.Rank(products, hasLocation)
	resp.Total = len(ranked)
	resp.Page, resp.PerPage = normalizePage(req.Page, req.PerPage)
	resp.Products = paginate(ranked, resp.Page, resp.PerPage)

	s.publishSearch(ctx, req, resp)
	return resp, nil
}

// Recommendations composes the heterogeneous featured/popular/recent/seasonal
// mix over the full candidate pool. The seasonal categories come from the
// clock's current month, so the mix is rebuilt on every call.
func (s *Service) Recommendations(ctx context.Context, count int) ([]domain.Recommendation, error) {
	pool, err := s.products.Products(ctx, domain.ProductFilter{})
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	categories := s.seasons.Categories(s.clock.Now().Month())
	return s.composer.Compose(pool, count, categories), nil
}

// resolveLocations fans out over the requested postal codes and keeps the
// first success as the primary location, the remaining successes as auxiliary
// context. When every code fails the first failure is returned.
func (s *Service) resolveLocations(ctx context.Context, codes []string) (*domain.ResolvedLocation, []domain.ResolvedLocation, error) {
	resolutions := geo.ResolveMany(ctx, s.geocoder, codes)

	var primary *domain.ResolvedLocation
	var extra []domain.ResolvedLocation
	var firstErr error
	for i := range resolutions {
		res := resolutions[i]
		if res.Err != nil {
			if firstErr == nil {
				firstErr = res.Err
			}
			continue
		}
		if primary == nil {
			loc := res.Location
			primary = &loc
			continue
		}
		extra = append(extra, res.Location)
	}

	if primary == nil {
		return nil, nil, fmt.Errorf("resolve postal codes: %w", firstErr)
	}
	return primary, extra, nil
}

func restrictToMerchants(products []domain.Product, merchants []domain.MerchantDistance) []domain.Product {
	distances := make(map[uuid.UUID]float64, len(merchants))
	for _, md := range merchants {
		distances[md.Merchant.MerchantID] = md.Miles
	}

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		miles, ok := distances[p.MerchantID]
		if !ok {
			continue
		}
		p.DistanceMiles = &miles
		out = append(out, p)
	}
	return out
}

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

func paginate(products []domain.Product, page, perPage int) []domain.Product {
	start := (page - 1) * perPage
	if start >= len(products) {
		return []domain.Product{}
	}
	end := start + perPage
	if end > len(products) {
		end = len(products)
	}
	return products[start:end]
}

func (s *Service) publishSearch(ctx context.Context, req SearchRequest, resp SearchResponse) {
	if s.events == nil {
		return
	}
	event := domain.SearchEvent{
		ID:          uuid.New(),
		RadiusMiles: req.RadiusMiles,
		Category:    req.Category,
		Coverage:    string(resp.Coverage),
		Results:     resp.Total,
		OccurredAt:  s.clock.Now(),
	}
	if resp.Location != nil {
		event.PostalCode = resp.Location.PostalCode
	}
	_ = s.events.Publish(ctx, event)
}
