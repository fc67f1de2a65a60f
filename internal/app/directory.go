package app

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"restaurant_finder/internal/adapters/observability"
	"restaurant_finder/internal/domain"
)

const (
	panoramaRadius = 50
	NoImageMessage = "NO IMAGE TO DISPLAY"
)

// Image is what the detail view shows for a restaurant.
type Image struct {
	URL     string `json:"url"`
	Kind    string `json:"kind"` // streetview|photo|custom|default
	Message string `json:"message,omitempty"`
}

// DirectoryService is the entry point for user actions on the directory.
type DirectoryService struct {
	repo         domain.RestaurantRepository
	places       domain.PlacesProvider
	notify       domain.Notifier
	radius       int
	defaultImage string
}

func NewDirectoryService(r domain.RestaurantRepository, p domain.PlacesProvider, n domain.Notifier, radius int, defaultImage string) *DirectoryService {
	if n == nil {
		n = domain.NopNotifier{}
	}
	if radius <= 0 {
		radius = DefaultRadius
	}
	return &DirectoryService{repo: r, places: p, notify: n, radius: radius, defaultImage: defaultImage}
}

func (s *DirectoryService) List() []domain.Restaurant { return s.repo.All() }

func (s *DirectoryService) Filter(from, to int) []domain.Restaurant {
	return s.repo.FilterByRating(from, to)
}

func (s *DirectoryService) Find(id string) (domain.Restaurant, bool) { return s.repo.FindByID(id) }

func (s *DirectoryService) AddReview(ctx context.Context, id string, in domain.ReviewInput) (domain.Restaurant, bool) {
	r, ok := s.repo.AddReview(id, in)
	if !ok {
		return domain.Restaurant{}, false
	}
	s.notify.Notify(ctx, domain.Event{Type: domain.EventRefresh})
	return r, true
}

func (s *DirectoryService) AddRestaurant(ctx context.Context, in domain.RestaurantInput) domain.Restaurant {
	r := s.repo.AddRestaurant(in)
	observability.DirectorySize.Set(float64(s.repo.Len()))
	s.notify.Notify(ctx, domain.Event{Type: domain.EventRefresh})
	return r
}

// Search looks up places matching keyword around center. Results are never stored.
func (s *DirectoryService) Search(ctx context.Context, center domain.Coords, keyword string) ([]domain.Restaurant, error) {
	ps, err := s.places.NearbySearch(ctx, domain.NearbyQuery{
		Location: center, Radius: s.radius, Keyword: strings.TrimSpace(keyword),
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Restaurant, 0, len(ps))
	for _, p := range ps {
		out = append(out, domain.NewSearchResult(p))
	}
	return out, nil
}

// Image resolves the picture for a record: a nearby street view, then the
// place photo, then the user's image, then the default one.
func (s *DirectoryService) Image(ctx context.Context, id string) (Image, error) {
	r, ok := s.repo.FindByID(id)
	if !ok {
		return Image{}, domain.ErrNotFound
	}

	pano, err := s.places.GetPanorama(ctx, r.Coords, panoramaRadius)
	switch {
	case err == nil && pano != "":
		return Image{URL: s.places.StreetViewURL(pano), Kind: "streetview"}, nil
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		if ctx.Err() != nil {
			return Image{}, ctx.Err()
		}
		log.Debug().Err(err).Str("id", id).Msg("panorama lookup failed")
	}

	if r.PhotoReference != "" {
		return Image{URL: s.places.PhotoURL(r.PhotoReference), Kind: "photo"}, nil
	}
	if r.CustomImage != "" {
		return Image{URL: r.CustomImage, Kind: "custom"}, nil
	}
	return Image{URL: s.defaultImage, Kind: "default", Message: NoImageMessage}, nil
}
