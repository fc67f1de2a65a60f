// internal/adapters/localdb/source.go
package localdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"restaurant_finder/internal/adapters/observability"
	"restaurant_finder/internal/domain"
)

// maxBody caps how much of a local database is read.
const maxBody = 16 << 20

var ErrBadStatus = errors.New("localdb: unexpected status")

// Source reads the local restaurant database, a JSON array kept either on
// disk or behind an http(s) URL.
type Source struct {
	location string
	hc       *http.Client
}

func New(location string) *Source {
	return &Source{location: location, hc: &http.Client{Timeout: 10 * time.Second}}
}

// WithHTTPClient swaps the client used for URL locations.
func (s *Source) WithHTTPClient(hc *http.Client) *Source {
	s.hc = hc
	return s
}

func (s *Source) FetchRestaurants(ctx context.Context) ([]domain.LocalPayload, error) {
	b, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	var raw []map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("localdb: decode %s: %w", s.location, err)
	}
	out := make([]domain.LocalPayload, 0, len(raw))
	for i, m := range raw {
		p, ok := mapRestaurant(m)
		if !ok {
			log.Warn().Int("index", i).Str("location", s.location).Msg("skipping local record without id")
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Source) read(ctx context.Context) ([]byte, error) {
	if !isURL(s.location) {
		f, err := os.Open(s.location)
		if err != nil {
			return nil, fmt.Errorf("localdb: %w", err)
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, maxBody))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.location, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	start := time.Now()
	resp, err := s.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("localdb", "fetch", 0, time.Since(start))
		return nil, fmt.Errorf("localdb: %w", err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("localdb", "fetch", resp.StatusCode, time.Since(start))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w %d from %s", ErrBadStatus, resp.StatusCode, s.location)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBody))
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
