// Causeway - Nonprofit Recommendations for Crisis News
// Copyright 2026 Causeway Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/causeway-app/causeway

// Package trust implements HTTP-backed trust and vetting providers. A
// provider resolves per-nonprofit trust signals at rank time; resolution
// failures degrade a single candidate to unknown trust, never a request.
package trust

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/causeway-app/causeway/internal/metrics"
	"github.com/causeway-app/causeway/internal/recommend"
)

// maxResponseBytes bounds trust provider response bodies.
const maxResponseBytes = 1 << 20 // 1MB

// Config holds trust provider client configuration.
type Config struct {
	// Name identifies the provider; used as the signal's Source and in
	// metrics labels. Default: "charityapi".
	Name string

	// BaseURL is the provider API root.
	BaseURL string

	// APIKey authenticates requests, sent as a bearer token.
	APIKey string

	// Timeout is the per-call HTTP timeout. Default: 3s.
	Timeout time.Duration

	// RatePerSecond is the client-side request rate cap. Default: 20.
	RatePerSecond float64

	// Burst is the rate limiter burst size. Default: 20.
	Burst int
}

// Client resolves trust signals from an external vetting API. It
// implements recommend.TrustProvider. Lookups key on EIN and fall back to
// the directory slug when no EIN is known.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	cb         *gobreaker.CircuitBreaker[interface{}]
	logger     zerolog.Logger
}

// NewClient creates a trust provider client.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("trust provider base URL is required")
	}
	if cfg.Name == "" {
		cfg.Name = "charityapi"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 20
	}

	clientLogger := logger.With().
		Str("component", "trust").
		Str("provider", cfg.Name).
		Logger()

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		cb:         newBreaker("trust-"+cfg.Name, clientLogger),
		logger:     clientLogger,
	}, nil
}

// newBreaker builds the provider circuit breaker: opens at a 60% failure
// rate over at least 10 requests, probes again after 2 minutes.
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
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
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

// wireSignals is the provider's JSON representation of a vetting record.
type wireSignals struct {
	TrustScore *float64 `json:"trust_score"`
	Vetted     string   `json:"vetted_status"`
}

// Name returns the provider identifier used as signal provenance.
func (c *Client) Name() string {
	return c.cfg.Name
}

// Resolve returns trust signals for one candidate. A candidate with
// neither an EIN nor a slug resolves to default (unknown) signals without
// a network call.
//
//nolint:gocritic // hugeParam: candidate passed by value for immutability
func (c *Client) Resolve(ctx context.Context, candidate recommend.NonprofitCandidate) (recommend.TrustVettingSignals, error) {
	identifier := strings.TrimSpace(candidate.EIN)
	if identifier == "" {
		identifier = strings.TrimSpace(candidate.Slug)
	}
	if identifier == "" {
		return recommend.DefaultSignals(), nil
	}

	body, err := c.doRequest(ctx, identifier)
	if err != nil {
		metrics.TrustProviderRequests.WithLabelValues(c.cfg.Name, "error").Inc()
		return recommend.DefaultSignals(), fmt.Errorf("resolve %q: %w", identifier, err)
	}
	metrics.TrustProviderRequests.WithLabelValues(c.cfg.Name, "ok").Inc()

	var decoded wireSignals
	if err := json.Unmarshal(body, &decoded); err != nil {
		return recommend.DefaultSignals(), fmt.Errorf("resolve %q: decode: %w", identifier, err)
	}

	return recommend.TrustVettingSignals{
		TrustScore:   clampScore(decoded.TrustScore),
		VettedStatus: parseVetted(decoded.Vetted),
		Source:       c.cfg.Name,
	}, nil
}

// doRequest issues one rate-limited, breaker-guarded GET for an identifier.
func (c *Client) doRequest(ctx context.Context, identifier string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	requestURL := fmt.Sprintf("%s/organizations/%s",
		strings.TrimRight(c.cfg.BaseURL, "/"), url.PathEscape(identifier))

	result, err := c.cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if c.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		}

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
	if err != nil {
		return nil, err
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected breaker result type %T", result)
	}
	return body, nil
}

// parseVetted normalizes the provider's vetting state to the engine's
// enum; anything unrecognized is unknown.
func parseVetted(raw string) recommend.VettedStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "verified":
		return recommend.VettedVerified
	case "unverified":
		return recommend.VettedUnverified
	default:
		return recommend.VettedUnknown
	}
}

// clampScore bounds a reported trust score to 0-100.
func clampScore(score *float64) *float64 {
	if score == nil {
		return nil
	}
	v := *score
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return &v
}

var _ recommend.TrustProvider = (*Client)(nil)
