package app_test

import (
	"context"
	"sync"

	"restaurant_finder/internal/domain"
)

// ---- fakes ----

type fakeLocal struct {
	out []domain.LocalPayload
	err error
}

func (f *fakeLocal) FetchRestaurants(ctx context.Context) ([]domain.LocalPayload, error) {
	return f.out, f.err
}

type fakePlaces struct {
	mu         sync.Mutex
	nearby     []domain.Place
	nearbyErr  error
	details    map[string]domain.PlaceDetails
	detailsErr error
	block      bool // GetDetails waits for ctx cancellation
	pano       string
	panoErr    error

	nearbyCalls  int
	detailsCalls map[string]int
	panoCalls    int
	lastQuery    domain.NearbyQuery
}

func (f *fakePlaces) NearbySearch(ctx context.Context, q domain.NearbyQuery) ([]domain.Place, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nearbyCalls++
	f.lastQuery = q
	return f.nearby, f.nearbyErr
}

func (f *fakePlaces) GetDetails(ctx context.Context, placeID string, fields []string) (domain.PlaceDetails, error) {
	f.mu.Lock()
	if f.detailsCalls == nil {
		f.detailsCalls = map[string]int{}
	}
	f.detailsCalls[placeID]++
	block, d, err := f.block, f.details[placeID], f.detailsErr
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return domain.PlaceDetails{}, ctx.Err()
	}
	if err != nil {
		return domain.PlaceDetails{}, err
	}
	d.PlaceID = placeID
	return d, nil
}

func (f *fakePlaces) GetPanorama(ctx context.Context, loc domain.Coords, radius int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.panoCalls++
	if f.panoErr != nil {
		return "", f.panoErr
	}
	if f.pano == "" {
		return "", domain.ErrNotFound
	}
	return f.pano, nil
}

func (f *fakePlaces) PhotoURL(ref string) string       { return "photo://" + ref }
func (f *fakePlaces) StreetViewURL(pano string) string { return "pano://" + pano }

func (f *fakePlaces) detailsFor(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.detailsCalls[id]
}

type recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recorder) Notify(ctx context.Context, ev domain.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) count(typ string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

type fakeCache struct {
	mu    sync.Mutex
	store map[string]any
	sets  int
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *[]domain.Place:
		*d = v.([]domain.Place)
	case *domain.PlaceDetails:
		*d = v.(domain.PlaceDetails)
	case *string:
		*d = v.(string)
	}
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	c.sets++
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

// ---- builders ----

var viewport = domain.Bounds{
	SW: domain.Coords{Lat: 48, Lng: 2},
	NE: domain.Coords{Lat: 49, Lng: 3},
}

func localAt(id string, lat, lng float64) domain.LocalPayload {
	return domain.LocalPayload{
		RestaurantID: id, RestaurantName: "L " + id, Address: "addr " + id,
		Lat: lat, Lng: lng, AverageRating: 4, TotalRatings: 1,
		Reviews: []domain.Review{domain.NewReview("Ann", 4, "ok")},
	}
}

func placeAt(id string, lat, lng, rating float64) domain.Place {
	return domain.Place{
		PlaceID: id, Name: "P " + id, Vicinity: "vic " + id,
		Geometry: domain.Geometry{Location: domain.Coords{Lat: lat, Lng: lng}},
		Rating:   rating, UserRatingsTotal: 10,
	}
}
