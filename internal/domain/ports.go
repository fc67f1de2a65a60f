package domain

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// StatusError carries a places status other than OK / ZERO_RESULTS.
type StatusError struct {
	Op     string
	Status string
	Msg    string
}

func (e *StatusError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: status %s: %s", e.Op, e.Status, e.Msg)
	}
	return fmt.Sprintf("%s: status %s", e.Op, e.Status)
}

type RestaurantRepository interface {
	// Write paths
	AddReview(id string, in ReviewInput) (Restaurant, bool)
	AddRestaurant(in RestaurantInput) Restaurant
	Publish(rs []Restaurant) []Restaurant
	AttachReviews(id string, rs []Review) bool

	// Read paths
	FindByID(id string) (Restaurant, bool)
	FilterByRating(from, to int) []Restaurant
	All() []Restaurant
	Len() int
}

type LocalSource interface {
	FetchRestaurants(ctx context.Context) ([]LocalPayload, error)
}

type PlacesProvider interface {
	NearbySearch(ctx context.Context, q NearbyQuery) ([]Place, error)
	GetDetails(ctx context.Context, placeID string, fields []string) (PlaceDetails, error)
	GetPanorama(ctx context.Context, loc Coords, radius int) (string, error)
	PhotoURL(ref string) string
	StreetViewURL(pano string) string
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Notifier tells downstream views that the directory changed.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

const (
	EventRefresh  = "refresh"
	EventEnriched = "enriched"
)

type Event struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event) {}
