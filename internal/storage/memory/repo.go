package memory

import (
	"math"
	"sync"

	"restaurant_finder/internal/domain"
)

// Repo is the session's restaurant collection. Records are mutated in place
// and only leave the collection on Reset; callers always get copies.
type Repo struct {
	mu    sync.RWMutex
	items []*domain.Restaurant
	ids   *domain.IDGenerator
}

func New(ids *domain.IDGenerator) *Repo {
	if ids == nil {
		ids = domain.NewIDGenerator()
	}
	return &Repo{ids: ids}
}

func (r *Repo) FindByID(id string) (domain.Restaurant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if it := r.find(id); it != nil {
		return it.Clone(), true
	}
	return domain.Restaurant{}, false
}

func (r *Repo) All() []domain.Restaurant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Restaurant, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, it.Clone())
	}
	return out
}

// FilterByRating keeps records whose whole-star rating lies in [from, to].
func (r *Repo) FilterByRating(from, to int) []domain.Restaurant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Restaurant, 0, len(r.items))
	for _, it := range r.items {
		floor := int(math.Floor(it.AverageRating))
		if floor >= from && floor <= to {
			out = append(out, it.Clone())
		}
	}
	return out
}

func (r *Repo) AddReview(id string, in domain.ReviewInput) (domain.Restaurant, bool) {
	rv := in.Review()

	r.mu.Lock()
	defer r.mu.Unlock()
	it := r.find(id)
	if it == nil {
		return domain.Restaurant{}, false
	}
	it.Reviews = append([]domain.Review{rv}, it.Reviews...)
	it.TotalRatings++
	it.AverageRating = domain.UpdateAverageRating(it.AverageRating, it.TotalRatings, rv.Stars)
	it.RatingStars = domain.ComputeStarGlyphs(it.AverageRating)
	return it.Clone(), true
}

func (r *Repo) AddRestaurant(in domain.RestaurantInput) domain.Restaurant {
	rec := domain.NewUserRestaurant(in, r.ids.Next())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append([]*domain.Restaurant{&rec}, r.items...)
	return rec.Clone()
}

// Publish appends records in order. A record whose id is already stored is
// skipped; the returned slice holds the ones actually inserted.
func (r *Repo) Publish(rs []domain.Restaurant) []domain.Restaurant {
	r.mu.Lock()
	defer r.mu.Unlock()
	inserted := make([]domain.Restaurant, 0, len(rs))
	for _, rec := range rs {
		if r.find(rec.ID) != nil {
			continue
		}
		c := rec.Clone()
		r.items = append(r.items, &c)
		inserted = append(inserted, c.Clone())
	}
	return inserted
}

// AttachReviews appends fetched reviews without touching the rating stats.
func (r *Repo) AttachReviews(id string, rs []domain.Review) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	it := r.find(id)
	if it == nil {
		return false
	}
	it.Reviews = append(it.Reviews, rs...)
	return true
}

func (r *Repo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Reset drops every record; used when the session ends.
func (r *Repo) Reset() {
	r.mu.Lock()
	r.items = nil
	r.mu.Unlock()
}

func (r *Repo) find(id string) *domain.Restaurant {
	for _, it := range r.items {
		if it.ID == id {
			return it
		}
	}
	return nil
}
