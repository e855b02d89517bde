// Causeway - Nonprofit Recommendations for Crisis News
// Copyright 2026 Causeway Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/causeway-app/causeway

package recommend

import (
	"context"
)

// Geography identifies where a crisis occurred, as extracted from an
// article by the upstream classifier. Any field may be empty.
type Geography struct {
	// Country is the affected country (e.g. "Turkey").
	Country string `json:"country,omitempty"`

	// Region is a sub-national region, state, or province.
	Region string `json:"region,omitempty"`

	// City is the affected city or town.
	City string `json:"city,omitempty"`
}

// IsZero reports whether no geographic facts were extracted.
func (g Geography) IsZero() bool {
	return g.Country == "" && g.Region == "" && g.City == ""
}

// ArticleEntities holds the structured facts extracted from a crisis
// article. It is an immutable input produced by an external classifier;
// the engine never modifies it.
type ArticleEntities struct {
	// Geography is the extracted crisis location.
	Geography Geography `json:"geography"`

	// DisasterType is the kind of crisis (e.g. "wildfire", "earthquake").
	DisasterType string `json:"disaster_type,omitempty"`

	// AffectedGroup is the primary affected population (e.g. "refugees").
	AffectedGroup string `json:"affected_group,omitempty"`
}

// NonprofitCandidate is a directory-sourced organization. Candidates are
// produced fresh per directory query and merged by Slug identity.
type NonprofitCandidate struct {
	// Slug is the stable unique identifier in the directory.
	Slug string `json:"slug"`

	// Name is the organization's display name.
	Name string `json:"name"`

	// Description is the directory's description of the organization.
	Description string `json:"description,omitempty"`

	// EIN is the US tax identifier, when known.
	EIN string `json:"ein,omitempty"`

	// LogoURL is the organization's logo image.
	LogoURL string `json:"logo_url,omitempty"`

	// CoverImageURL is the organization's cover image.
	CoverImageURL string `json:"cover_image_url,omitempty"`

	// WebsiteURL is the organization's website.
	WebsiteURL string `json:"website_url,omitempty"`

	// LocationAddress is a free-text location string.
	LocationAddress string `json:"location_address,omitempty"`

	// PrimaryCategory is the directory's top-level category.
	PrimaryCategory string `json:"primary_category,omitempty"`

	// NTEECode is the NTEE taxonomy code.
	NTEECode string `json:"ntee_code,omitempty"`

	// NTEECodeMeaning is the human-readable NTEE code description.
	NTEECodeMeaning string `json:"ntee_code_meaning,omitempty"`

	// Tags are directory-assigned tags.
	Tags []string `json:"tags,omitempty"`

	// Causes are the cause slugs the directory files this org under.
	Causes []string `json:"causes,omitempty"`
}

// VettedStatus is the vetting state reported by a trust provider.
type VettedStatus string

const (
	// VettedVerified means the organization passed external vetting.
	VettedVerified VettedStatus = "verified"
	// VettedUnverified means the organization failed external vetting.
	// Unverified candidates are excluded outright.
	VettedUnverified VettedStatus = "unverified"
	// VettedUnknown means no vetting signal is available.
	VettedUnknown VettedStatus = "unknown"
)

// TrustVettingSignals is the pluggable external trust signal for one
// candidate, supplied at rank time and never persisted by the engine.
type TrustVettingSignals struct {
	// TrustScore is 0-100; nil when unknown.
	TrustScore *float64 `json:"trust_score,omitempty"`

	// VettedStatus is the vetting state.
	VettedStatus VettedStatus `json:"vetted_status"`

	// Source is the provenance tag of the signal (e.g. "charityapi",
	// "none").
	Source string `json:"source"`
}

// DefaultSignals returns the signals used when every provider fails or
// none is configured.
func DefaultSignals() TrustVettingSignals {
	return TrustVettingSignals{
		TrustScore:   nil,
		VettedStatus: VettedUnknown,
		Source:       "none",
	}
}

// GeoTier is the coarse geographic-relevance bucket for a candidate.
type GeoTier int

const (
	// TierLocal (tier1): location text matches the input country, region,
	// or city.
	TierLocal GeoTier = iota + 1
	// TierRegional (tier2): location text matches a regional neighbor of
	// the input country.
	TierRegional
	// TierGlobal (tier3): everything else.
	TierGlobal
)

// String returns the wire name of the tier.
func (t GeoTier) String() string {
	switch t {
	case TierLocal:
		return "tier1"
	case TierRegional:
		return "tier2"
	case TierGlobal:
		return "tier3"
	default:
		return "unknown"
	}
}

// ScoreBreakdown makes every component of a candidate's total score
// explicit and re-derivable. Total is always the fixed weighted sum of the
// four sub-scores; there are no adjustments after the fact.
type ScoreBreakdown struct {
	Total   float64 `json:"total"`
	Geo     float64 `json:"geo"`
	Cause   float64 `json:"cause"`
	Trust   float64 `json:"trust"`
	Quality float64 `json:"quality"`
}

// NonprofitRanked is a candidate augmented with scoring output. Created
// once per ranking run and never mutated afterwards; ordering is a
// property of the containing list.
type NonprofitRanked struct {
	NonprofitCandidate

	// Score is the explicit component breakdown.
	Score ScoreBreakdown `json:"score"`

	// GeoTier is the geographic-relevance bucket.
	GeoTier GeoTier `json:"geo_tier"`

	// Reasons are human-readable ranking justifications.
	Reasons []string `json:"reasons"`

	// TrustVetting is the resolved trust signal used for this run.
	TrustVetting TrustVettingSignals `json:"trust_vetting"`
}

// ExcludedCounts reports how many candidates each hard filter removed.
type ExcludedCounts struct {
	// Vetting counts candidates dropped by the vetting gate.
	Vetting int `json:"vetting"`

	// Cause counts candidates dropped for a zero cause score.
	Cause int `json:"cause"`
}

// RerankResult is the full output of one reranking run.
type RerankResult struct {
	// Ranked is the ordered, diversified result list.
	Ranked []NonprofitRanked `json:"ranked"`

	// GeoTierCounts maps tier name to count in the ranked output.
	GeoTierCounts map[string]int `json:"geo_tier_counts"`

	// Excluded reports hard-filter removals.
	Excluded ExcludedCounts `json:"excluded_counts"`

	// TrustCoveragePercent is the share of the original pool that had a
	// known trust score.
	TrustCoveragePercent float64 `json:"trust_coverage_percent"`
}

// CandidatePool is the deduplicated candidate set gathered before ranking,
// plus the queries that produced it (for observability).
type CandidatePool struct {
	// Candidates contains no two entries with the same Slug.
	Candidates []NonprofitCandidate `json:"candidates"`

	// CausesUsed are the causes actually browsed.
	CausesUsed []string `json:"causes_used"`

	// TermsUsed are the search terms actually issued.
	TermsUsed []string `json:"terms_used"`
}

// Request is a recommendation request for one article.
type Request struct {
	// ArticleText is the raw article text; used for cache keying and
	// keyword scoring, not re-classified.
	ArticleText string `json:"article_text"`

	// Entities are the classifier-extracted facts.
	Entities ArticleEntities `json:"entities"`

	// Causes are the classifier-assigned cause slugs.
	Causes []string `json:"causes,omitempty"`

	// TopN is the number of results to return.
	// Defaults to Config.Limits.DefaultTopN when zero.
	TopN int `json:"top_n,omitempty"`

	// Debug requests pipeline diagnostics in the response.
	Debug bool `json:"debug,omitempty"`
}

// DebugInfo carries pipeline diagnostics when Request.Debug is set.
type DebugInfo struct {
	CausesUsed           []string       `json:"causes_used"`
	TermsUsed            []string       `json:"terms_used"`
	PoolSize             int            `json:"pool_size"`
	GeoTierCounts        map[string]int `json:"geo_tier_counts"`
	Excluded             ExcludedCounts `json:"excluded_counts"`
	TrustCoveragePercent float64        `json:"trust_coverage_percent"`
	CacheHit             bool           `json:"cache_hit"`
	LatencyMS            int64          `json:"latency_ms"`
}

// Response is a recommendation response.
type Response struct {
	// Nonprofits is the top-N ranked list.
	Nonprofits []NonprofitRanked `json:"nonprofits"`

	// Debug is present only when requested.
	Debug *DebugInfo `json:"debug,omitempty"`
}

// DirectoryClient is the contract with the external nonprofit directory.
// Every call returns a per-call error that is non-fatal to the pipeline;
// implementations own timeouts and any retry policy.
type DirectoryClient interface {
	// BrowseCause returns nonprofits filed under a cause.
	BrowseCause(ctx context.Context, cause string, take, page int) ([]NonprofitCandidate, error)

	// SearchNonprofits returns nonprofits matching a free-text term,
	// optionally scoped to causes.
	SearchNonprofits(ctx context.Context, term string, causes []string, take int) ([]NonprofitCandidate, error)

	// GetNonprofitDetails returns one nonprofit by slug or EIN.
	GetNonprofitDetails(ctx context.Context, identifier string) (*NonprofitCandidate, error)
}

// TrustProvider supplies trust/vetting signals for a candidate at rank
// time. Providers are injected, optional, and failure-tolerant: an error
// means "no signal", never a pipeline failure.
type TrustProvider interface {
	// Name returns the provider identifier used as signal provenance.
	Name() string

	// Resolve returns signals for one candidate.
	Resolve(ctx context.Context, candidate NonprofitCandidate) (TrustVettingSignals, error)
}

// NoopTrustProvider is the default provider: it always reports unknown.
type NoopTrustProvider struct{}

// Name returns the provider identifier.
func (NoopTrustProvider) Name() string { return "none" }

// Resolve returns default (unknown) signals.
func (NoopTrustProvider) Resolve(_ context.Context, _ NonprofitCandidate) (TrustVettingSignals, error) {
	return DefaultSignals(), nil
}

var _ TrustProvider = NoopTrustProvider{}
