package proximity

import (
	"sort"

	"github.com/example/localmart/internal/discovery/domain"
	"github.com/example/localmart/internal/discovery/geo"
)

// DefaultFallbackCount is the number of nearest merchants substituted when a
// radius search comes back empty.
const DefaultFallbackCount = 3

// Config tunes the filter. FallbackCount is injected rather than hardcoded so
// deployments can widen the degraded-mode result set without code changes.
type Config struct {
	FallbackCount int
}

// Filter partitions merchants around a search origin and applies the
// fallback-nearest policy: a customer in a sparse market should see the
// closest listings rather than a blank page.
type Filter struct {
	fallbackCount int
}

// New constructs a Filter, filling config defaults.
func New(cfg Config) *Filter {
	if cfg.FallbackCount <= 0 {
		cfg.FallbackCount = DefaultFallbackCount
	}
	return &Filter{fallbackCount: cfg.FallbackCount}
}

// Filter computes the distance from origin to every candidate once, returns
// those within radiusMiles sorted ascending by distance, and falls back to the
// nearest fallbackCount merchants when none are in range. Candidates without
// valid coordinates are excluded entirely.
//
// An empty candidate set yields an empty result with UsedFallback=false;
// callers must treat that as "no location data available", not "none in
// range".
func (f *Filter) Filter(origin domain.Coordinate, radiusMiles float64, candidates []domain.MerchantLocation) domain.ProximityResult {
	measured := make([]domain.MerchantDistance, 0, len(candidates))
	for _, m := range candidates {
		if !m.Coordinate.Valid() {
			continue
		}
		measured = append(measured, domain.MerchantDistance{
			Merchant: m,
			Miles:    geo.DistanceMiles(origin, m.Coordinate),
		})
	}

	if len(measured) == 0 {
		resultOutcomes.WithLabelValues("no_candidates").Inc()
		return domain.ProximityResult{WithinRadius: []domain.MerchantDistance{}}
	}

	sort.SliceStable(measured, func(i, j int) bool {
		return measured[i].Miles < measured[j].Miles
	})

	inRange := measured[:0:0]
	for _, md := range measured {
		if md.Miles <= radiusMiles {
			inRange = append(inRange, md)
		}
	}

	if len(inRange) > 0 {
		resultOutcomes.WithLabelValues("in_radius").Inc()
		candidatesConsidered.Observe(float64(len(measured)))
		return domain.ProximityResult{WithinRadius: inRange}
	}

	nearest := measured
	if len(nearest) > f.fallbackCount {
		nearest = nearest[:f.fallbackCount]
	}
	closest := nearest[0].Miles

	resultOutcomes.WithLabelValues("fallback").Inc()
	candidatesConsidered.Observe(float64(len(measured)))
	return domain.ProximityResult{
		WithinRadius:            nearest,
		UsedFallback:            true,
		FallbackNearestDistance: &closest,
	}
}
