package recommend_test

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/example/localmart/internal/discovery/domain"
	"github.com/example/localmart/internal/discovery/recommend"
)

func buildPool(n int) []domain.Product {
	base := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	categories := []string{"beverages", "fresh-produce", "outdoor", "crafts", "candles", "decor"}
	pool := make([]domain.Product, 0, n)
	for i := 0; i < n; i++ {
		pool = append(pool, domain.Product{
			ID:        uuid.New(),
			Name:      fmt.Sprintf("product-%d", i),
			Category:  categories[i%len(categories)],
			Rating:    float64(i%6) + 0.5,
			Views:     int64(i * 3),
			Featured:  i%7 == 0,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	return pool
}

func seededComposer() *recommend.Composer {
	return recommend.New(recommend.Config{}, rand.New(rand.NewSource(42)))
}

func TestComposeNoDuplicatesAndBounded(t *testing.T) {
	pool := buildPool(60)
	recs := seededComposer().Compose(pool, 12, recommend.DefaultSeasonMap().Categories(time.June))

	require.LessOrEqual(t, len(recs), 12)
	seen := make(map[uuid.UUID]struct{})
	for _, rec := range recs {
		_, dup := seen[rec.Product.ID]
		require.False(t, dup, "duplicate product %s", rec.Product.ID)
		seen[rec.Product.ID] = struct{}{}
	}
}

func TestComposeBucketTags(t *testing.T) {
	pool := buildPool(60)
	recs := seededComposer().Compose(pool, 12, recommend.DefaultSeasonMap().Categories(time.June))

	byType := make(map[domain.RecommendationType]int)
	for _, rec := range recs {
		byType[rec.Type]++
	}
	// Featured ceil(12*0.25)=3, popular ceil(12*0.35)=5, recent ceil(12*0.25)=3,
	// seasonal takes the remainder.
	require.Equal(t, 3, byType[domain.RecommendationFeatured])
	require.Equal(t, 5, byType[domain.RecommendationPopular])
	require.Equal(t, 3, byType[domain.RecommendationRecent])
	require.Equal(t, 1, byType[domain.RecommendationSeasonal])
}

func TestComposeFeaturedOrderedByRatingThenViews(t *testing.T) {
	base := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	top := domain.Product{ID: uuid.New(), Featured: true, Rating: 5, Views: 10, CreatedAt: base}
	mid := domain.Product{ID: uuid.New(), Featured: true, Rating: 5, Views: 5, CreatedAt: base}
	low := domain.Product{ID: uuid.New(), Featured: true, Rating: 3, Views: 100, CreatedAt: base}

	// totalCount 4 keeps ceil(4*0.25)=1 featured slot: the highest rated,
	// most viewed product must win it.
	recs := seededComposer().Compose([]domain.Product{low, mid, top}, 4, nil)
	var featured []uuid.UUID
	for _, rec := range recs {
		if rec.Type == domain.RecommendationFeatured {
			featured = append(featured, rec.Product.ID)
		}
	}
	require.Equal(t, []uuid.UUID{top.ID}, featured)
}

func TestComposeSmallPoolDegrades(t *testing.T) {
	pool := buildPool(4)
	recs := seededComposer().Compose(pool, 12, nil)
	require.NotEmpty(t, recs)
	require.LessOrEqual(t, len(recs), 4)
}

func TestComposeEmptyPoolAndZeroCount(t *testing.T) {
	c := seededComposer()
	require.Empty(t, c.Compose(nil, 12, nil))
	require.Empty(t, c.Compose(buildPool(10), 0, nil))
}

func TestComposeNeverExceedsTotalOnTinyCounts(t *testing.T) {
	// ceil rounding makes the first three buckets overshoot tiny totals; the
	// final truncation must still cap the output.
	pool := buildPool(30)
	recs := seededComposer().Compose(pool, 2, recommend.DefaultSeasonMap().Categories(time.June))
	require.LessOrEqual(t, len(recs), 2)
}

func TestComposeDeterministicWithFixedSeed(t *testing.T) {
	pool := buildPool(40)
	cats := recommend.DefaultSeasonMap().Categories(time.June)

	first := recommend.New(recommend.Config{}, rand.New(rand.NewSource(7))).Compose(pool, 10, cats)
	second := recommend.New(recommend.Config{}, rand.New(rand.NewSource(7))).Compose(pool, 10, cats)

	require.Equal(t, len(first), len(second))
	for i := range first {
		require.Equal(t, first[i].Product.ID, second[i].Product.ID)
		require.Equal(t, first[i].Type, second[i].Type)
	}
}

func TestComposeConcurrentUse(t *testing.T) {
	pool := buildPool(60)
	cats := recommend.DefaultSeasonMap().Categories(time.June)
	c := seededComposer()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				recs := c.Compose(pool, 12, cats)
				if len(recs) > 12 {
					t.Error("compose exceeded requested total")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestSeasonOf(t *testing.T) {
	require.Equal(t, recommend.SeasonWinter, recommend.SeasonOf(time.January))
	require.Equal(t, recommend.SeasonWinter, recommend.SeasonOf(time.December))
	require.Equal(t, recommend.SeasonSpring, recommend.SeasonOf(time.April))
	require.Equal(t, recommend.SeasonSummer, recommend.SeasonOf(time.July))
	require.Equal(t, recommend.SeasonFall, recommend.SeasonOf(time.October))
}

func TestSeasonMapCategories(t *testing.T) {
	m := recommend.DefaultSeasonMap()
	require.Contains(t, m.Categories(time.July), "beverages")
	require.Contains(t, m.Categories(time.January), "candles")
	require.Empty(t, recommend.SeasonMap{}.Categories(time.July))
}
