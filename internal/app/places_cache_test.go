package app_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"restaurant_finder/internal/adapters/places"
	"restaurant_finder/internal/app"
	"restaurant_finder/internal/domain"
)

func TestCachedPlaces_NearbyMissThenHit(t *testing.T) {
	p := &fakePlaces{nearby: []domain.Place{placeAt("p1", 1, 1, 4)}}
	cache := &fakeCache{}
	c := app.NewCachedPlaces(p, cache, 10*time.Minute)
	q := domain.NearbyQuery{Location: domain.Coords{Lat: 1, Lng: 1}, Radius: 500, Keyword: "restaurant"}

	// Miss (first time, populates cache)
	out, err := c.NearbySearch(context.Background(), q)
	if err != nil || len(out) != 1 {
		t.Fatalf("out=%+v err=%v", out, err)
	}

	// Mutate provider to ensure second read indeed comes from cache
	p.nearby = nil

	// Hit (served from cache)
	out2, err := c.NearbySearch(context.Background(), q)
	if err != nil || len(out2) != 1 || out2[0].PlaceID != "p1" {
		t.Fatalf("expected cached result, got %+v", out2)
	}
	if p.nearbyCalls != 1 {
		t.Fatalf("provider should be called once, got %d", p.nearbyCalls)
	}

	// A different keyword is a different key
	q.Keyword = "pizza"
	if _, err := c.NearbySearch(context.Background(), q); err != nil {
		t.Fatalf("err: %v", err)
	}
	if p.nearbyCalls != 2 {
		t.Fatalf("expected a second provider call, got %d", p.nearbyCalls)
	}
}

func TestCachedPlaces_ErrorsAreNotCached(t *testing.T) {
	p := &fakePlaces{nearbyErr: errors.New("boom")}
	cache := &fakeCache{}
	c := app.NewCachedPlaces(p, cache, time.Minute)

	if _, err := c.NearbySearch(context.Background(), domain.NearbyQuery{}); err == nil {
		t.Fatalf("expected error")
	}
	if cache.sets != 0 {
		t.Fatalf("errors must not be cached")
	}
}

func TestCachedPlaces_Details(t *testing.T) {
	p := &fakePlaces{details: map[string]domain.PlaceDetails{"p1": {Reviews: []domain.PlaceReview{{AuthorName: "Ana", Rating: 5}}}}}
	c := app.NewCachedPlaces(p, &fakeCache{}, time.Minute)

	for i := 0; i < 2; i++ {
		d, err := c.GetDetails(context.Background(), "p1", []string{"reviews"})
		if err != nil || len(d.Reviews) != 1 || d.Reviews[0].AuthorName != "Ana" {
			t.Fatalf("call %d: d=%+v err=%v", i, d, err)
		}
	}
	if p.detailsFor("p1") != 1 {
		t.Fatalf("expected one provider call, got %d", p.detailsFor("p1"))
	}
}

func TestCachedPlaces_PanoramaNegativeCache(t *testing.T) {
	p := &fakePlaces{}
	c := app.NewCachedPlaces(p, &fakeCache{}, time.Minute)
	loc := domain.Coords{Lat: 2, Lng: 2}

	for i := 0; i < 2; i++ {
		if _, err := c.GetPanorama(context.Background(), loc, 50); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("call %d: expected ErrNotFound, got %v", i, err)
		}
	}
	if p.panoCalls != 1 {
		t.Fatalf("misses are cached, got %d provider calls", p.panoCalls)
	}

	if got := c.PhotoURL("r"); got != "photo://r" {
		t.Fatalf("url builders pass through, got %q", got)
	}
}

func TestCachedPlaces_PanoramaHTTP404IsCachedMiss(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.NotFound(w, r)
	}))
	defer ts.Close()

	client, err := places.New(ts.URL, "test-key", 100)
	if err != nil {
		t.Fatalf("places.New: %v", err)
	}
	c := app.NewCachedPlaces(client, &fakeCache{}, time.Minute)
	loc := domain.Coords{Lat: 3, Lng: 3}

	for i := 0; i < 2; i++ {
		if _, err := c.GetPanorama(context.Background(), loc, 50); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("call %d: expected domain.ErrNotFound, got %v", i, err)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("404 should be cached as a miss, upstream hits=%d", got)
	}
}
