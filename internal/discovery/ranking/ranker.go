package ranking

import (
	"sort"

	"github.com/example/localmart/internal/discovery/domain"
)

// Rank orders products for presentation. Featured placement is a paid signal
// and always wins; among the rest, distance decides when the request carried a
// location and both products have one, otherwise recency decides. The sort is
// stable: equal-rank products keep their relative input order. The input slice
// is never mutated.
func Rank(products []domain.Product, hasLocation bool) []domain.Product {
	out := make([]domain.Product, len(products))
	copy(out, products)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Featured != b.Featured {
			return a.Featured
		}
		if hasLocation && a.DistanceMiles != nil && b.DistanceMiles != nil {
			if *a.DistanceMiles != *b.DistanceMiles {
				return *a.DistanceMiles < *b.DistanceMiles
			}
			return false
		}
		return a.CreatedAt.After(b.CreatedAt)
	})

	return out
}
