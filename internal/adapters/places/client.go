// internal/adapters/places/client.go
package places

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"restaurant_finder/internal/adapters/observability"
	"restaurant_finder/internal/domain"
)

const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
	statusNotFound    = "NOT_FOUND"

	defaultAttempts = 4
	service         = "places"
)

type Client struct {
	base     string
	hc       *http.Client
	key      string
	rl       *rate.Limiter
	cb       *gobreaker.CircuitBreaker[[]byte]
	attempts int
	tripAt   uint32
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.hc = hc } }

// WithMaxAttempts bounds tries per request, the first one included.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// WithTripAfter opens the breaker after n consecutive failed calls.
func WithTripAfter(n uint32) Option {
	return func(c *Client) {
		if n > 0 {
			c.tripAt = n
		}
	}
}

func New(base, key string, rps int, opts ...Option) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	c := &Client{
		base:     strings.TrimRight(base, "/"),
		hc:       &http.Client{Timeout: 20 * time.Second},
		key:      key,
		rl:       rate.NewLimiter(rate.Limit(rps), rps),
		attempts: defaultAttempts,
		tripAt:   5,
	}
	for _, o := range opts {
		o(c)
	}
	c.cb = newBreaker(service+"-api", c.tripAt)
	return c, nil
}

// ---- Public API ----

type nearbyResponse struct {
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message"`
	Results      []domain.Place `json:"results"`
}

type detailsResponse struct {
	Status       string              `json:"status"`
	ErrorMessage string              `json:"error_message"`
	Result       domain.PlaceDetails `json:"result"`
}

type panoramaResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	PanoID       string `json:"pano_id"`
}

func (c *Client) NearbySearch(ctx context.Context, q domain.NearbyQuery) ([]domain.Place, error) {
	v := url.Values{}
	v.Set("location", q.Location.String())
	v.Set("radius", strconv.Itoa(q.Radius))
	if q.Keyword != "" {
		v.Set("keyword", q.Keyword)
	}
	var out nearbyResponse
	if err := c.call(ctx, "nearbysearch", "/place/nearbysearch/json", v, &out); err != nil {
		return nil, err
	}
	switch out.Status {
	case statusOK:
		return out.Results, nil
	case statusZeroResults:
		return []domain.Place{}, nil
	}
	return nil, &domain.StatusError{Op: "nearbysearch", Status: out.Status, Msg: out.ErrorMessage}
}

func (c *Client) GetDetails(ctx context.Context, placeID string, fields []string) (domain.PlaceDetails, error) {
	v := url.Values{}
	v.Set("place_id", placeID)
	if len(fields) > 0 {
		v.Set("fields", strings.Join(fields, ","))
	}
	var out detailsResponse
	if err := c.call(ctx, "details", "/place/details/json", v, &out); err != nil {
		return domain.PlaceDetails{}, err
	}
	switch out.Status {
	case statusOK:
		if out.Result.PlaceID == "" {
			out.Result.PlaceID = placeID
		}
		return out.Result, nil
	case statusNotFound, statusZeroResults:
		return domain.PlaceDetails{}, fmt.Errorf("details %s: %w", placeID, domain.ErrNotFound)
	}
	return domain.PlaceDetails{}, &domain.StatusError{Op: "details", Status: out.Status, Msg: out.ErrorMessage}
}

// GetPanorama looks up the street-view panorama closest to loc within radius meters.
func (c *Client) GetPanorama(ctx context.Context, loc domain.Coords, radius int) (string, error) {
	v := url.Values{}
	v.Set("location", loc.String())
	v.Set("radius", strconv.Itoa(radius))
	var out panoramaResponse
	if err := c.call(ctx, "streetview", "/streetview/metadata", v, &out); err != nil {
		return "", err
	}
	switch out.Status {
	case statusOK:
		if out.PanoID != "" {
			return out.PanoID, nil
		}
		return "", domain.ErrNotFound
	case statusZeroResults, statusNotFound:
		return "", domain.ErrNotFound
	}
	return "", &domain.StatusError{Op: "streetview", Status: out.Status, Msg: out.ErrorMessage}
}

func (c *Client) PhotoURL(ref string) string {
	if ref == "" {
		return ""
	}
	v := url.Values{}
	v.Set("maxwidth", "600")
	v.Set("photoreference", ref)
	v.Set("key", c.key)
	return c.base + "/place/photo?" + v.Encode()
}

func (c *Client) StreetViewURL(pano string) string {
	v := url.Values{}
	v.Set("size", "600x600")
	v.Set("pano", pano)
	v.Set("heading", "151.78")
	v.Set("pitch", "-0.76")
	v.Set("key", c.key)
	return c.base + "/streetview?" + v.Encode()
}

// ---- Internals ----

var (
	ErrNotFound     = fmt.Errorf("places: %w", domain.ErrNotFound)
	ErrUnauthorized = errors.New("places: unauthorized")
	ErrForbidden    = errors.New("places: forbidden")
)

// call runs one request behind the circuit breaker and decodes the body into out.
func (c *Client) call(ctx context.Context, endpoint, path string, v url.Values, out any) error {
	v.Set("key", c.key)
	u := c.base + path + "?" + v.Encode()

	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.get(ctx, endpoint, u)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	if len(body) == 0 {
		return fmt.Errorf("%s: empty response", endpoint)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode: %w", endpoint, err)
	}
	return nil
}

// get performs a GET with client-side rate limiting and retries, returning the body.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, endpoint, u string) ([]byte, error) {
	// client-side rate limiting
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	last := c.attempts - 1
	var lastErr error
	for i := 0; i < c.attempts; i++ {
		// build a fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "restaurant-finder/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal(service, endpoint, 0, time.Since(start))
			// network error or context canceled
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			// context-aware sleep before retry
			if i < last && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr
		}
		observability.ObserveExternal(service, endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			b, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			return b, err

		case http.StatusNotFound:
			resp.Body.Close()
			return nil, ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return nil, ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return nil, ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < last && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr

		default:
			// read a small error body for diagnostics
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return nil, lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	// seconds form
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	// HTTP-date form
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential backoff delay with concurrency-safe jitter.
// i = retry attempt (0,1,2,...). Base doubles each attempt (200ms, 400ms, 800ms...),
// with up to +50% random jitter to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	// concurrency-safe jitter using crypto/rand
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0                  // 0..1
	j := time.Duration(0.5 * f * float64(base)) // up to +50%
	return base + j
}
