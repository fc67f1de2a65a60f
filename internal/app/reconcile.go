package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"restaurant_finder/internal/adapters/observability"
	"restaurant_finder/internal/domain"
)

const (
	DefaultRadius  = 500
	DefaultKeyword = "restaurant"
)

// reviewFields is the details projection enrichment asks for.
var reviewFields = []string{"reviews"}

type ReconcileConfig struct {
	Radius        int
	Keyword       string
	Workers       int64
	EnrichTimeout time.Duration
}

// CycleReport summarises one load cycle. Source errors are reported, not returned.
type CycleReport struct {
	CycleID     string `json:"cycleId"`
	LocalCount  int    `json:"localCount"`
	RemoteCount int    `json:"remoteCount"`
	Published   int    `json:"published"`
	LocalErr    string `json:"localError,omitempty"`
	RemoteErr   string `json:"remoteError,omitempty"`
}

// ReconcileService runs load cycles: fetch both sources, merge, publish and
// enrich remote records in the background.
type ReconcileService struct {
	repo   domain.RestaurantRepository
	local  domain.LocalSource
	places domain.PlacesProvider
	notify domain.Notifier
	cfg    ReconcileConfig

	sem    *semaphore.Weighted
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewReconcileService(r domain.RestaurantRepository, l domain.LocalSource, p domain.PlacesProvider, n domain.Notifier, cfg ReconcileConfig) *ReconcileService {
	if cfg.Radius <= 0 {
		cfg.Radius = DefaultRadius
	}
	if cfg.Keyword == "" {
		cfg.Keyword = DefaultKeyword
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.EnrichTimeout <= 0 {
		cfg.EnrichTimeout = 20 * time.Second
	}
	if n == nil {
		n = domain.NopNotifier{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ReconcileService{
		repo: r, local: l, places: p, notify: n, cfg: cfg,
		sem: semaphore.NewWeighted(cfg.Workers),
		ctx: ctx, cancel: cancel,
	}
}

// Load runs one cycle for the viewport. center defaults to the viewport center.
func (s *ReconcileService) Load(ctx context.Context, bounds domain.Bounds, center *domain.Coords) CycleReport {
	rep := CycleReport{CycleID: uuid.NewString()}
	logger := log.With().Str("cycle", rep.CycleID).Logger()

	loc := bounds.Center()
	if center != nil {
		loc = *center
	}

	// 1) fan-out: both sources at once, joined before merging
	var (
		wg                  sync.WaitGroup
		locals              []domain.LocalPayload
		places              []domain.Place
		localErr, remoteErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		locals, localErr = s.local.FetchRestaurants(ctx)
	}()
	go func() {
		defer wg.Done()
		places, remoteErr = s.places.NearbySearch(ctx, domain.NearbyQuery{
			Location: loc, Radius: s.cfg.Radius, Keyword: s.cfg.Keyword,
		})
	}()
	wg.Wait()

	// 2) a failed source contributes nothing
	if localErr != nil {
		logger.Warn().Err(localErr).Msg("local source failed")
		rep.LocalErr = localErr.Error()
		locals = nil
	}
	if remoteErr != nil {
		logger.Warn().Err(remoteErr).Msg("places source failed")
		rep.RemoteErr = remoteErr.Error()
		places = nil
	}

	// 3) merge, 4) publish
	merged := Merge(bounds, locals, places)
	inserted := s.repo.Publish(merged)
	for _, r := range merged {
		if r.Source == domain.SourceLocal {
			rep.LocalCount++
		} else {
			rep.RemoteCount++
		}
	}
	rep.Published = len(inserted)
	observability.ObserveCycle(localErr, remoteErr, s.repo.Len())
	s.notify.Notify(ctx, domain.Event{Type: domain.EventRefresh})

	// 5) enrichment is never joined here
	for _, r := range inserted {
		if r.Source == domain.SourceRemote {
			s.enrich(r.ID)
		}
	}

	logger.Info().
		Int("local", rep.LocalCount).
		Int("remote", rep.RemoteCount).
		Int("published", rep.Published).
		Msg("load cycle done")
	return rep
}

// Merge keeps local records inside bounds, then provider results whose id is
// not among those local ids.
func Merge(bounds domain.Bounds, locals []domain.LocalPayload, places []domain.Place) []domain.Restaurant {
	out := make([]domain.Restaurant, 0, len(locals)+len(places))
	seen := make(map[string]struct{}, len(locals))
	for _, p := range locals {
		if !bounds.Contains(domain.Coords{Lat: p.Lat, Lng: p.Lng}) {
			continue
		}
		out = append(out, domain.NewLocalRestaurant(p))
		seen[p.RestaurantID] = struct{}{}
	}
	for _, p := range places {
		if _, dup := seen[p.PlaceID]; dup {
			continue
		}
		out = append(out, domain.NewRemoteRestaurant(p))
	}
	return out
}

func (s *ReconcileService) enrich(id string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.sem.Acquire(s.ctx, 1); err != nil {
			observability.ObserveEnrichment(observability.EnrichCancelled)
			return
		}
		defer s.sem.Release(1)

		ctx, cancel := context.WithTimeout(s.ctx, s.cfg.EnrichTimeout)
		defer cancel()

		d, err := s.places.GetDetails(ctx, id, reviewFields)
		if err != nil {
			if s.ctx.Err() != nil {
				observability.ObserveEnrichment(observability.EnrichCancelled)
				return
			}
			log.Debug().Err(err).Str("id", id).Msg("enrichment failed")
			observability.ObserveEnrichment(observability.EnrichError)
			return
		}
		if !s.repo.AttachReviews(id, domain.SelectReviews(d.Reviews)) {
			observability.ObserveEnrichment(observability.EnrichMissing)
			return
		}
		observability.ObserveEnrichment(observability.EnrichOK)
		s.notify.Notify(ctx, domain.Event{Type: domain.EventEnriched, ID: id})
	}()
}

// Wait blocks until every enrichment started so far has settled.
func (s *ReconcileService) Wait() { s.wg.Wait() }

// Close cancels outstanding enrichment and waits for it to stop.
func (s *ReconcileService) Close() {
	s.cancel()
	s.wg.Wait()
}
