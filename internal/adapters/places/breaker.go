package places

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"

	"restaurant_finder/internal/adapters/observability"
)

// newBreaker guards the places API. It opens after tripAt consecutive
// failures and probes again after 30s with up to 2 requests.
func newBreaker(name string, tripAt uint32) *gobreaker.CircuitBreaker[[]byte] {
	observability.ObserveBreaker(name, 0)
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= tripAt
			if trip {
				log.Warn().Str("breaker", name).Uint32("failures", counts.ConsecutiveFailures).Msg("opening circuit")
			}
			return trip
		},
		// a missing place or a caller giving up says nothing about the API's health
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit state change")
			observability.ObserveBreaker(name, stateValue(to))
		},
	})
}

func stateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return 0
}

// IsOpen reports whether err came from a breaker refusing the call.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
