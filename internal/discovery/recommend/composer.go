package recommend

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/localmart/internal/discovery/domain"
)

// Rand supplies the randomness for the presentation shuffle. Tests inject a
// seeded source to assert exact orderings.
type Rand interface {
	Intn(n int) int
}

// lockedRand serializes access to the underlying source. A Composer is shared
// across request goroutines and *rand.Rand is not safe for concurrent use.
type lockedRand struct {
	mu  sync.Mutex
	src Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Intn(n)
}

// Config tunes the bucket mix. Fractions apply to the requested total; the
// seasonal bucket receives whatever remains after the first three.
type Config struct {
	FeaturedFraction float64
	PopularFraction  float64
	RecentFraction   float64
	MinPopularRating float64
	MinPopularViews  int64
}

// Composer assembles a bounded heterogeneous recommendation list from four
// weighted buckets, deduplicated across buckets and shuffled for variety.
type Composer struct {
	cfg Config
	rng Rand
}

// New constructs a Composer, filling config defaults. A nil rng gets a
// time-seeded source; randomness here is presentational, not security
// relevant.
func New(cfg Config, rng Rand) *Composer {
	if cfg.FeaturedFraction <= 0 {
		cfg.FeaturedFraction = 0.25
	}
	if cfg.PopularFraction <= 0 {
		cfg.PopularFraction = 0.35
	}
	if cfg.RecentFraction <= 0 {
		cfg.RecentFraction = 0.25
	}
	if cfg.MinPopularRating <= 0 {
		cfg.MinPopularRating = 4.0
	}
	if cfg.MinPopularViews <= 0 {
		cfg.MinPopularViews = 10
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Composer{cfg: cfg, rng: &lockedRand{src: rng}}
}

// Compose builds at most totalCount recommendations from pool. Buckets that
// run out of matching candidates simply contribute fewer items; no product ID
// appears twice in the output.
func (c *Composer) Compose(pool []domain.Product, totalCount int, seasonalCategories []string) []domain.Recommendation {
	if totalCount <= 0 || len(pool) == 0 {
		return []domain.Recommendation{}
	}

	used := make(map[uuid.UUID]struct{}, totalCount)
	out := make([]domain.Recommendation, 0, totalCount)

	featuredCount := ceilFraction(totalCount, c.cfg.FeaturedFraction)
	out = appendBucket(out, used, domain.RecommendationFeatured, featuredCount, pool,
		func(p domain.Product) bool { return p.Featured },
		func(a, b domain.Product) bool {
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
			return a.Views > b.Views
		})

	popularCount := ceilFraction(totalCount, c.cfg.PopularFraction)
	out = appendBucket(out, used, domain.RecommendationPopular, popularCount, pool,
		func(p domain.Product) bool {
			return p.Rating >= c.cfg.MinPopularRating && p.Views >= c.cfg.MinPopularViews
		},
		func(a, b domain.Product) bool {
			if a.Views != b.Views {
				return a.Views > b.Views
			}
			return a.Rating > b.Rating
		})

	recentCount := ceilFraction(totalCount, c.cfg.RecentFraction)
	out = appendBucket(out, used, domain.RecommendationRecent, recentCount, pool,
		func(domain.Product) bool { return true },
		func(a, b domain.Product) bool { return a.CreatedAt.After(b.CreatedAt) })

	if seasonalCount := totalCount - len(out); seasonalCount > 0 {
		seasonal := make(map[string]struct{}, len(seasonalCategories))
		for _, cat := range seasonalCategories {
			seasonal[cat] = struct{}{}
		}
		out = appendBucket(out, used, domain.RecommendationSeasonal, seasonalCount, pool,
			func(p domain.Product) bool {
				_, ok := seasonal[p.Category]
				return ok
			},
			func(a, b domain.Product) bool {
				if !a.CreatedAt.Equal(b.CreatedAt) {
					return a.CreatedAt.After(b.CreatedAt)
				}
				return a.Rating > b.Rating
			})
	}

	c.shuffle(out)
	if len(out) > totalCount {
		out = out[:totalCount]
	}
	return out
}

// appendBucket selects up to count products matching keep, ordered by less,
// skipping IDs already selected by earlier buckets.
func appendBucket(out []domain.Recommendation, used map[uuid.UUID]struct{}, tag domain.RecommendationType,
	count int, pool []domain.Product, keep func(domain.Product) bool, less func(a, b domain.Product) bool) []domain.Recommendation {

	matched := make([]domain.Product, 0, len(pool))
	for _, p := range pool {
		if _, taken := used[p.ID]; taken {
			continue
		}
		if keep(p) {
			matched = append(matched, p)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool { return less(matched[i], matched[j]) })

	if len(matched) > count {
		matched = matched[:count]
	}
	for _, p := range matched {
		used[p.ID] = struct{}{}
		out = append(out, domain.Recommendation{Product: p, Type: tag})
	}
	return out
}

// shuffle applies a Fisher-Yates pass so bucket boundaries are not visible in
// the response order.
func (c *Composer) shuffle(items []domain.Recommendation) {
	for i := len(items) - 1; i > 0; i-- {
		j := c.rng.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

func ceilFraction(total int, fraction float64) int {
	return int(math.Ceil(float64(total) * fraction))
}
