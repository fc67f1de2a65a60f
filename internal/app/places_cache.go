package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"restaurant_finder/internal/domain"
)

// maxCachedBytes skips caching oversized payloads.
const maxCachedBytes = 1_000_000

// noPanorama marks a cached negative panorama lookup.
const noPanorama = "-"

// CachedPlaces puts a cache-aside layer in front of a places provider.
// Cache failures degrade to direct calls.
type CachedPlaces struct {
	next     domain.PlacesProvider
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewCachedPlaces(p domain.PlacesProvider, c domain.Cache, ttl time.Duration) *CachedPlaces {
	return &CachedPlaces{next: p, cache: c, cacheTTL: ttl}
}

func (s *CachedPlaces) NearbySearch(ctx context.Context, q domain.NearbyQuery) ([]domain.Place, error) {
	key := fmt.Sprintf("nearby:%s:%d:%s", q.Location, q.Radius, q.Keyword)
	var out []domain.Place
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	ps, err := s.next.NearbySearch(ctx, q)
	if err != nil {
		return nil, err
	}
	// copy slice to avoid aliasing the provider's backing array
	cp := append([]domain.Place(nil), ps...)
	if cp == nil {
		cp = []domain.Place{}
	}
	s.put(ctx, key, cp)
	return cp, nil
}

func (s *CachedPlaces) GetDetails(ctx context.Context, placeID string, fields []string) (domain.PlaceDetails, error) {
	key := fmt.Sprintf("details:%s:%s", placeID, strings.Join(fields, ","))
	var d domain.PlaceDetails
	if ok, _ := s.cache.Get(ctx, key, &d); ok {
		return d, nil
	}
	d, err := s.next.GetDetails(ctx, placeID, fields)
	if err != nil {
		return domain.PlaceDetails{}, err
	}
	s.put(ctx, key, d)
	return d, nil
}

// GetPanorama caches misses as well, since most places have no panorama.
func (s *CachedPlaces) GetPanorama(ctx context.Context, loc domain.Coords, radius int) (string, error) {
	key := fmt.Sprintf("pano:%s:%d", loc, radius)
	var pano string
	if ok, _ := s.cache.Get(ctx, key, &pano); ok {
		if pano == noPanorama {
			return "", domain.ErrNotFound
		}
		return pano, nil
	}
	pano, err := s.next.GetPanorama(ctx, loc, radius)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.put(ctx, key, noPanorama)
		return "", err
	case err != nil:
		return "", err
	}
	s.put(ctx, key, pano)
	return pano, nil
}

func (s *CachedPlaces) PhotoURL(ref string) string       { return s.next.PhotoURL(ref) }
func (s *CachedPlaces) StreetViewURL(pano string) string { return s.next.StreetViewURL(pano) }

func (s *CachedPlaces) put(ctx context.Context, key string, v any) {
	// optional size guard
	if b, _ := json.Marshal(v); len(b) < maxCachedBytes {
		_ = s.cache.Set(ctx, key, v, int(s.cacheTTL.Seconds()))
	}
}
