// Causeway - Nonprofit Recommendations for Crisis News
// Copyright 2026 Causeway Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/causeway-app/causeway

// Package directory implements the HTTP client for the external nonprofit
// directory (Every.org-compatible partner API). It owns per-call timeouts,
// client-side rate limiting, circuit breaking, and read-through caching of
// browse/search/detail queries; it performs no automatic retries.
package directory

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/causeway-app/causeway/internal/cache"
	"github.com/causeway-app/causeway/internal/metrics"
	"github.com/causeway-app/causeway/internal/recommend"
)

// maxResponseBytes bounds directory response bodies.
const maxResponseBytes = 4 << 20 // 4MB

// Config holds directory client configuration.
type Config struct {
	// BaseURL is the directory API root, e.g.
	// "https://partners.every.org/v0.2".
	BaseURL string

	// APIKey authenticates partner API calls.
	APIKey string

	// Timeout is the per-call HTTP timeout. Default: 5s.
	Timeout time.Duration

	// RatePerSecond is the client-side request rate cap. Default: 8.
	RatePerSecond float64

	// Burst is the rate limiter burst size. Default: 8.
	Burst int
}

// Client talks to the nonprofit directory. It implements
// recommend.DirectoryClient.
//
// The circuit breaker uses real time for its interval and timeout
// calculations; tests should exercise the underlying HTTP behavior via
// httptest rather than the breaker's recovery timing.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	cb         *gobreaker.CircuitBreaker[interface{}]
	store      *cache.Cache
	logger     zerolog.Logger
}

// NewClient creates a directory client. The cache store is optional; when
// nil, every call goes to the network.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewClient(cfg Config, store *cache.Cache, logger zerolog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("directory base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 8
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 8
	}

	clientLogger := logger.With().Str("component", "directory").Logger()

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		cb:         newBreaker("directory-api", clientLogger),
		store:      store,
		logger:     clientLogger,
	}, nil
}

// newBreaker builds the shared circuit breaker configuration: opens at a
// 60% failure rate over at least 10 requests, probes again after 2
// minutes.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func newBreaker(name string, logger zerolog.Logger) *gobreaker.CircuitBreaker[interface{}] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			if failureRatio >= 0.6 {
				logger.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("circuit breaker opening")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
}

// stateToFloat maps breaker states to gauge values.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// wireNonprofit is the directory's JSON representation of an organization.
type wireNonprofit struct {
	Slug            string   `json:"slug"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	EIN             string   `json:"ein"`
	LogoURL         string   `json:"logoUrl"`
	CoverImageURL   string   `json:"coverImageUrl"`
	WebsiteURL      string   `json:"websiteUrl"`
	LocationAddress string   `json:"locationAddress"`
	PrimaryCategory string   `json:"primaryCategory"`
	NTEECode        string   `json:"nteeCode"`
	NTEECodeMeaning string   `json:"nteeCodeMeaning"`
	Tags            []string `json:"tags"`
	Causes          []string `json:"causes"`
}

// listResponse is the browse/search response envelope.
type listResponse struct {
	Nonprofits []wireNonprofit `json:"nonprofits"`
}

// detailResponse is the single-nonprofit response envelope.
type detailResponse struct {
	Nonprofit wireNonprofit `json:"nonprofit"`
}

// BrowseCause returns nonprofits filed under a cause.
func (c *Client) BrowseCause(ctx context.Context, cause string, take, page int) ([]recommend.NonprofitCandidate, error) {
	key := cache.BrowseKey(cause, page, take)
	if cached, ok := c.cachedList(key); ok {
		return cached, nil
	}

	endpoint := fmt.Sprintf("browse/%s", url.PathEscape(cause))
	params := url.Values{
		"take": {strconv.Itoa(take)},
		"page": {strconv.Itoa(page)},
	}

	candidates, err := c.fetchList(ctx, "browse", endpoint, params)
	if err != nil {
		return nil, fmt.Errorf("browse cause %q: %w", cause, err)
	}

	c.storeList(key, candidates)
	return candidates, nil
}

// SearchNonprofits returns nonprofits matching a free-text term,
// optionally scoped to causes.
func (c *Client) SearchNonprofits(ctx context.Context, term string, causes []string, take int) ([]recommend.NonprofitCandidate, error) {
	key := cache.SearchKey(term, causes, take)
	if cached, ok := c.cachedList(key); ok {
		return cached, nil
	}

	endpoint := fmt.Sprintf("search/%s", url.PathEscape(term))
	params := url.Values{"take": {strconv.Itoa(take)}}
	if len(causes) > 0 {
		params.Set("causes", strings.Join(causes, ","))
	}

	candidates, err := c.fetchList(ctx, "search", endpoint, params)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", term, err)
	}

	c.storeList(key, candidates)
	return candidates, nil
}

// GetNonprofitDetails returns one nonprofit by slug or EIN.
func (c *Client) GetNonprofitDetails(ctx context.Context, identifier string) (*recommend.NonprofitCandidate, error) {
	key := cache.NonprofitKey(identifier)
	if c.store != nil {
		if value, ok := c.store.Get(key); ok {
			if candidate, valid := value.(*recommend.NonprofitCandidate); valid {
				return candidate, nil
			}
		}
	}

	endpoint := fmt.Sprintf("nonprofit/%s", url.PathEscape(identifier))
	body, err := c.doRequest(ctx, "details", endpoint, url.Values{})
	if err != nil {
		return nil, fmt.Errorf("nonprofit details %q: %w", identifier, err)
	}

	var decoded detailResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("nonprofit details %q: decode: %w", identifier, err)
	}

	candidate := toCandidate(decoded.Nonprofit)
	if c.store != nil {
		c.store.Set(key, &candidate)
	}
	return &candidate, nil
}

// cachedList returns a cached candidate list for the key, if present.
func (c *Client) cachedList(key string) ([]recommend.NonprofitCandidate, bool) {
	if c.store == nil {
		return nil, false
	}
	value, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	candidates, valid := value.([]recommend.NonprofitCandidate)
	return candidates, valid
}

// storeList caches a candidate list under the key's prefix TTL.
func (c *Client) storeList(key string, candidates []recommend.NonprofitCandidate) {
	if c.store != nil {
		c.store.Set(key, candidates)
	}
}

// fetchList performs a list request and maps the wire format.
func (c *Client) fetchList(ctx context.Context, operation, endpoint string, params url.Values) ([]recommend.NonprofitCandidate, error) {
	body, err := c.doRequest(ctx, operation, endpoint, params)
	if err != nil {
		return nil, err
	}

	var decoded listResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	candidates := make([]recommend.NonprofitCandidate, 0, len(decoded.Nonprofits))
	for _, wire := range decoded.Nonprofits {
		candidates = append(candidates, toCandidate(wire))
	}
	return candidates, nil
}

// doRequest issues one rate-limited, breaker-guarded GET and returns the
// response body.
func (c *Client) doRequest(ctx context.Context, operation, endpoint string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	if c.cfg.APIKey != "" {
		params.Set("apiKey", c.cfg.APIKey)
	}
	requestURL := fmt.Sprintf("%s/%s?%s", strings.TrimRight(c.cfg.BaseURL, "/"), endpoint, params.Encode())

	start := time.Now()
	result, err := c.cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	})

	metrics.DirectoryRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DirectoryRequests.WithLabelValues(operation, "error").Inc()
		return nil, err
	}
	metrics.DirectoryRequests.WithLabelValues(operation, "ok").Inc()

	body, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected breaker result type %T", result)
	}
	return body, nil
}

// toCandidate maps the wire representation to the engine's type.
func toCandidate(wire wireNonprofit) recommend.NonprofitCandidate {
	return recommend.NonprofitCandidate{
		Slug:            wire.Slug,
		Name:            wire.Name,
		Description:     wire.Description,
		EIN:             wire.EIN,
		LogoURL:         wire.LogoURL,
		CoverImageURL:   wire.CoverImageURL,
		WebsiteURL:      wire.WebsiteURL,
		LocationAddress: wire.LocationAddress,
		PrimaryCategory: wire.PrimaryCategory,
		NTEECode:        wire.NTEECode,
		NTEECodeMeaning: wire.NTEECodeMeaning,
		Tags:            wire.Tags,
		Causes:          wire.Causes,
	}
}

var _ recommend.DirectoryClient = (*Client)(nil)
