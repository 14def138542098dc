package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/example/localmart/internal/discovery/domain"
)

const (
	defaultLookupBaseURL = "https://api.zippopotam.us"
	defaultCountry       = "us"
	defaultTimeout       = 5 * time.Second
)

// ResolverConfig tunes the postal code lookup client.
type ResolverConfig struct {
	BaseURL string
	Country string
	Timeout time.Duration
}

// Resolver implements domain.Geocoder against a zippopotam-style HTTP lookup
// keyed by country and postal code. It performs one outbound call per
// resolution and never caches; callers layer caching above when they need it.
type Resolver struct {
	client  *http.Client
	baseURL string
	country string
}

// NewResolver constructs a Resolver, filling config defaults.
func NewResolver(cfg ResolverConfig) *Resolver {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultLookupBaseURL
	}
	if cfg.Country == "" {
		cfg.Country = defaultCountry
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Resolver{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		country: cfg.Country,
	}
}

type lookupResponse struct {
	PostCode string `json:"post code"`
	Places   []struct {
		PlaceName string `json:"place name"`
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
		State     string `json:"state abbreviation"`
	} `json:"places"`
}

// Resolve looks up a single postal code. It fails with
// domain.ErrInvalidPostalCode for malformed input, domain.ErrLocationNotFound
// for unknown codes and domain.ErrLookupUnavailable for transport or server
// failures.
func (r *Resolver) Resolve(ctx context.Context, postalCode string) (domain.ResolvedLocation, error) {
	code, err := NormalizePostalCode(postalCode)
	if err != nil {
		return domain.ResolvedLocation{}, err
	}

	url := fmt.Sprintf("%s/%s/%s", r.baseURL, r.country, code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.ResolvedLocation{}, fmt.Errorf("create lookup request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return domain.ResolvedLocation{}, fmt.Errorf("%w: %v", domain.ErrLookupUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ResolvedLocation{}, fmt.Errorf("%w: %s", domain.ErrLocationNotFound, code)
	case resp.StatusCode != http.StatusOK:
		return domain.ResolvedLocation{}, fmt.Errorf("%w: status %d", domain.ErrLookupUnavailable, resp.StatusCode)
	}

	var decoded lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.ResolvedLocation{}, fmt.Errorf("%w: decode response: %v", domain.ErrLookupUnavailable, err)
	}
	if len(decoded.Places) == 0 {
		return domain.ResolvedLocation{}, fmt.Errorf("%w: %s", domain.ErrLocationNotFound, code)
	}

	place := decoded.Places[0]
	lat, latErr := strconv.ParseFloat(place.Latitude, 64)
	lng, lngErr := strconv.ParseFloat(place.Longitude, 64)
	if latErr != nil || lngErr != nil {
		return domain.ResolvedLocation{}, fmt.Errorf("%w: malformed coordinates for %s", domain.ErrLookupUnavailable, code)
	}

	return domain.ResolvedLocation{
		PostalCode: code,
		Coordinate: domain.Coordinate{Lat: lat, Lng: lng},
		City:       place.PlaceName,
		Region:     place.State,
	}, nil
}

// ResolveMany resolves each postal code through g concurrently, one goroutine
// per code joined at a single barrier. Failures stay isolated per code and the
// result order matches the input order, so callers can take the first success
// as the primary location and keep the rest as auxiliary context.
func ResolveMany(ctx context.Context, g domain.Geocoder, postalCodes []string) []domain.Resolution {
	results := make([]domain.Resolution, len(postalCodes))

	var wg sync.WaitGroup
	for i, code := range postalCodes {
		wg.Add(1)
		go func(i int, code string) {
			defer wg.Done()
			loc, err := g.Resolve(ctx, code)
			results[i] = domain.Resolution{PostalCode: code, Location: loc, Err: err}
		}(i, code)
	}
	wg.Wait()

	return results
}

// NormalizePostalCode strips non-digit characters and enforces the 5 digit
// format used by US postal codes.
func NormalizePostalCode(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	code := b.String()
	if len(code) != 5 {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidPostalCode, raw)
	}
	return code, nil
}
