package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/example/localmart/internal/discovery/domain"
)

// MemoryCatalog is an in-memory merchant/product source suitable for tests
// and local demos. It implements domain.MerchantSource and
// domain.ProductSource.
type MemoryCatalog struct {
	mu        sync.RWMutex
	merchants map[uuid.UUID]domain.MerchantLocation
	products  []domain.Product
}

// NewMemoryCatalog constructs an empty catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{merchants: make(map[uuid.UUID]domain.MerchantLocation)}
}

// UpsertMerchant stores or replaces a merchant location.
func (m *MemoryCatalog) UpsertMerchant(loc domain.MerchantLocation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.merchants[loc.MerchantID] = loc
}

// AddProduct appends a product to the catalog.
func (m *MemoryCatalog) AddProduct(p domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = append(m.products, p)
}

// MerchantLocations returns all merchant locations.
func (m *MemoryCatalog) MerchantLocations(_ context.Context) ([]domain.MerchantLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.MerchantLocation, 0, len(m.merchants))
	for _, loc := range m.merchants {
		out = append(out, loc)
	}
	return out, nil
}

// Products returns products matching the filter in insertion order.
func (m *MemoryCatalog) Products(_ context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.MinPriceCents > 0 && p.PriceCents < filter.MinPriceCents {
			continue
		}
		if filter.MaxPriceCents > 0 && p.PriceCents > filter.MaxPriceCents {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

type catalogFile struct {
	Merchants []domain.MerchantLocation `json:"merchants"`
	Products  []domain.Product          `json:"products"`
}

// LoadFile seeds the catalog from a JSON file holding merchants and products.
func (m *MemoryCatalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read catalog file: %w", err)
	}
	var parsed catalogFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse catalog file: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, loc := range parsed.Merchants {
		m.merchants[loc.MerchantID] = loc
	}
	m.products = append(m.products, parsed.Products...)
	return nil
}
