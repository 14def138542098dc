package service_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/example/localmart/internal/discovery/domain"
	"github.com/example/localmart/internal/discovery/proximity"
	"github.com/example/localmart/internal/discovery/recommend"
	"github.com/example/localmart/internal/discovery/repository"
	"github.com/example/localmart/internal/discovery/service"
)

var losAngeles = domain.Coordinate{Lat: 34.0522, Lng: -118.2437}

type stubGeocoder struct {
	locations map[string]domain.ResolvedLocation
}

func (s *stubGeocoder) Resolve(_ context.Context, code string) (domain.ResolvedLocation, error) {
	loc, ok := s.locations[code]
	if !ok {
		return domain.ResolvedLocation{}, domain.ErrLocationNotFound
	}
	return loc, nil
}

type stubPublisher struct{ events []domain.SearchEvent }

func (s *stubPublisher) Publish(_ context.Context, event domain.SearchEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubClock struct{ t time.Time }

func (s stubClock) Now() time.Time { return s.t }

type fixture struct {
	svc       *service.Service
	catalog   *repository.MemoryCatalog
	publisher *stubPublisher
	merchants []domain.MerchantLocation
}

// newFixture seeds three merchants 5, 30 and 60 miles north of Los Angeles,
// each with one product.
func newFixture(t *testing.T, clock domain.Clock) *fixture {
	t.Helper()
	catalog := repository.NewMemoryCatalog()
	merchants := []domain.MerchantLocation{
		{MerchantID: uuid.New(), Coordinate: domain.Coordinate{Lat: 34.124561, Lng: losAngeles.Lng}},
		{MerchantID: uuid.New(), Coordinate: domain.Coordinate{Lat: 34.486369, Lng: losAngeles.Lng}},
		{MerchantID: uuid.New(), Coordinate: domain.Coordinate{Lat: 34.920537, Lng: losAngeles.Lng}},
	}
	base := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)
	for i, m := range merchants {
		catalog.UpsertMerchant(m)
		catalog.AddProduct(domain.Product{
			ID:         uuid.New(),
			MerchantID: m.MerchantID,
			Name:       "product",
			Category:   "beverages",
			PriceCents: int64(1000 * (i + 1)),
			Rating:     4.5,
			Views:      int64(20 * (i + 1)),
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		})
	}

	publisher := &stubPublisher{}
	geocoder := &stubGeocoder{locations: map[string]domain.ResolvedLocation{
		"90012": {PostalCode: "90012", Coordinate: losAngeles, City: "Los Angeles", Region: "CA"},
		"10001": {PostalCode: "10001", Coordinate: domain.Coordinate{Lat: 40.7128, Lng: -74.0060}, City: "New York", Region: "NY"},
	}}

	svc := service.New(
		geocoder,
		catalog,
		catalog,
		proximity.New(proximity.Config{}),
		recommend.New(recommend.Config{}, rand.New(rand.NewSource(1))),
		recommend.DefaultSeasonMap(),
		publisher,
		clock,
	)
	return &fixture{svc: svc, catalog: catalog, publisher: publisher, merchants: merchants}
}

func TestSearchByPostalCodeInRadius(t *testing.T) {
	fx := newFixture(t, domain.SystemClock{})

	resp, err := fx.svc.Search(context.Background(), service.SearchRequest{
		PostalCodes: []string{"90012"},
		RadiusMiles: 25,
	})
	require.NoError(t, err)
	require.Equal(t, service.CoverageInRadius, resp.Coverage)
	require.NotNil(t, resp.Location)
	require.Equal(t, "Los Angeles", resp.Location.City)

	require.Len(t, resp.Products, 1)
	require.Equal(t, fx.merchants[0].MerchantID, resp.Products[0].MerchantID)
	require.NotNil(t, resp.Products[0].DistanceMiles)
	require.Equal(t, 5.0, *resp.Products[0].DistanceMiles)

	require.Len(t, fx.publisher.events, 1)
	require.Equal(t, "90012", fx.publisher.events[0].PostalCode)
	require.Equal(t, string(service.CoverageInRadius), fx.publisher.events[0].Coverage)
}

func TestSearchFallbackToNearest(t *testing.T) {
	fx := newFixture(t, domain.SystemClock{})

	resp, err := fx.svc.Search(context.Background(), service.SearchRequest{
		PostalCodes: []string{"90012"},
		RadiusMiles: 1,
	})
	require.NoError(t, err)
	require.Equal(t, service.CoverageNearestFallback, resp.Coverage)
	require.NotNil(t, resp.FallbackNearestMiles)
	require.Equal(t, 5.0, *resp.FallbackNearestMiles)

	require.Len(t, resp.Products, 3)
	require.Equal(t, 5.0, *resp.Products[0].DistanceMiles)
	require.Equal(t, 30.0, *resp.Products[1].DistanceMiles)
	require.Equal(t, 60.0, *resp.Products[2].DistanceMiles)
}

func TestSearchNoMerchantLocationData(t *testing.T) {
	catalog := repository.NewMemoryCatalog()
	catalog.AddProduct(domain.Product{ID: uuid.New(), MerchantID: uuid.New(), CreatedAt: time.Now()})
	publisher := &stubPublisher{}
	geocoder := &stubGeocoder{locations: map[string]domain.ResolvedLocation{
		"90012": {PostalCode: "90012", Coordinate: losAngeles},
	}}
	svc := service.New(geocoder, catalog, catalog, proximity.New(proximity.Config{}),
		recommend.New(recommend.Config{}, rand.New(rand.NewSource(1))), nil, publisher, domain.SystemClock{})

	resp, err := svc.Search(context.Background(), service.SearchRequest{PostalCodes: []string{"90012"}})
	require.NoError(t, err)
	require.Equal(t, service.CoverageNoMerchantLocations, resp.Coverage)
	require.Empty(t, resp.Products)
	require.Nil(t, resp.FallbackNearestMiles)
}

func TestSearchWithoutLocationRanksByRecency(t *testing.T) {
	fx := newFixture(t, domain.SystemClock{})

	resp, err := fx.svc.Search(context.Background(), service.SearchRequest{})
	require.NoError(t, err)
	require.Equal(t, service.CoverageUnfiltered, resp.Coverage)
	require.Len(t, resp.Products, 3)
	for i := 1; i < len(resp.Products); i++ {
		require.False(t, resp.Products[i].CreatedAt.After(resp.Products[i-1].CreatedAt))
	}
}

func TestSearchMultiplePostalCodesFirstSuccessIsPrimary(t *testing.T) {
	fx := newFixture(t, domain.SystemClock{})

	resp, err := fx.svc.Search(context.Background(), service.SearchRequest{
		PostalCodes: []string{"99999", "90012", "10001"},
		RadiusMiles: 25,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Location)
	require.Equal(t, "90012", resp.Location.PostalCode)
	require.Len(t, resp.AdditionalLocations, 1)
	require.Equal(t, "10001", resp.AdditionalLocations[0].PostalCode)
}

func TestSearchAllPostalCodesFailing(t *testing.T) {
	fx := newFixture(t, domain.SystemClock{})

	_, err := fx.svc.Search(context.Background(), service.SearchRequest{PostalCodes: []string{"99999"}})
	require.ErrorIs(t, err, domain.ErrLocationNotFound)
	require.Empty(t, fx.publisher.events)
}

func TestSearchExplicitOriginSkipsGeocoder(t *testing.T) {
	fx := newFixture(t, domain.SystemClock{})

	origin := losAngeles
	resp, err := fx.svc.Search(context.Background(), service.SearchRequest{Origin: &origin, RadiusMiles: 25})
	require.NoError(t, err)
	require.Equal(t, service.CoverageInRadius, resp.Coverage)
	require.Nil(t, resp.Location)
}

func TestSearchCategoryAndPriceFilters(t *testing.T) {
	fx := newFixture(t, domain.SystemClock{})

	resp, err := fx.svc.Search(context.Background(), service.SearchRequest{
		Category:      "garden",
		MinPriceCents: 1,
	})
	require.NoError(t, err)
	require.Empty(t, resp.Products)

	resp, err = fx.svc.Search(context.Background(), service.SearchRequest{
		Category:      "beverages",
		MaxPriceCents: 1500,
	})
	require.NoError(t, err)
	require.Len(t, resp.Products, 1)
}

func TestSearchPagination(t *testing.T) {
	fx := newFixture(t, domain.SystemClock{})

	resp, err := fx.svc.Search(context.Background(), service.SearchRequest{Page: 2, PerPage: 2})
	require.NoError(t, err)
	require.Equal(t, 3, resp.Total)
	require.Equal(t, 2, resp.Page)
	require.Len(t, resp.Products, 1)

	resp, err = fx.svc.Search(context.Background(), service.SearchRequest{Page: 9, PerPage: 2})
	require.NoError(t, err)
	require.Empty(t, resp.Products)
}

func TestRecommendationsUseClockSeason(t *testing.T) {
	// July: the summer categories include beverages, which all fixture
	// products carry.
	july := stubClock{t: time.Date(2024, time.July, 15, 0, 0, 0, 0, time.UTC)}
	fx := newFixture(t, july)

	recs, err := fx.svc.Recommendations(context.Background(), 12)
	require.NoError(t, err)
	require.NotEmpty(t, recs)
	require.LessOrEqual(t, len(recs), 12)

	seen := make(map[uuid.UUID]struct{})
	for _, rec := range recs {
		_, dup := seen[rec.Product.ID]
		require.False(t, dup)
		seen[rec.Product.ID] = struct{}{}
	}
}
