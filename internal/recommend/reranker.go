// Causeway - Nonprofit Recommendations for Crisis News
// Copyright 2026 Causeway Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/causeway-app/causeway

package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Scoring constants for the cause component.
const (
	causePointsPerMatch    = 30.0
	domainKeywordPoints    = 5.0
	domainKeywordCap       = 50.0
	articleKeywordPoints   = 3.0
	articleKeywordCap      = 60.0
	causeScoreCap          = 100.0
	maxArticleKeywords     = 30
	minDescriptionLength   = 50
	qualityReasonThreshold = 80.0
)

// reliefKeywords are disaster-relief-domain terms whose presence in an
// org's description or NTEE meaning signals cause relevance even when the
// directory's cause slugs don't line up with the article's.
var reliefKeywords = []string{
	"disaster", "relief", "emergency", "humanitarian", "crisis",
	"response", "rescue", "recovery", "rebuild", "shelter",
	"evacuation", "displaced", "refugee", "first responder",
	"wildfire", "flood", "earthquake", "hurricane", "famine",
}

// articleStopwords are high-frequency tokens skipped when extracting
// keywords from article text.
var articleStopwords = map[string]struct{}{
	"about": {}, "after": {}, "also": {}, "been": {}, "before": {},
	"being": {}, "between": {}, "could": {}, "from": {}, "have": {},
	"into": {}, "more": {}, "other": {}, "over": {},
	"said": {}, "some": {}, "than": {}, "that": {}, "their": {},
	"them": {}, "then": {}, "there": {}, "these": {}, "they": {},
	"this": {}, "those": {}, "under": {}, "were": {}, "what": {},
	"when": {}, "where": {}, "which": {}, "while": {}, "will": {},
	"with": {}, "would": {}, "your": {},
}

// Reranker converts a candidate pool into the final ordered, diversified,
// explainable list. The policy: geography is primary, cause is secondary,
// trust is a tiebreaker, quality is a minor supporting signal.
type Reranker struct {
	cfg       *Config
	providers []TrustProvider
	logger    zerolog.Logger
}

// NewReranker creates a reranker. Providers are tried in order per
// candidate; an empty slice means every candidate gets default (unknown)
// signals.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewReranker(cfg *Config, providers []TrustProvider, logger zerolog.Logger) *Reranker {
	return &Reranker{
		cfg:       cfg,
		providers: providers,
		logger:    logger.With().Str("component", "reranker").Logger(),
	}
}

// Rerank scores, filters, sorts, and diversifies the candidate pool.
//
// Trust signals are resolved for all candidates first (parallel, bounded);
// the decision logic itself is synchronous and pure once signals are in
// hand. A failing provider never aborts the run: the affected candidate
// proceeds with default signals through the remaining gates.
func (r *Reranker) Rerank(ctx context.Context, pool []NonprofitCandidate, entities ArticleEntities, causes []string, articleText string) *RerankResult {
	signals := r.resolveSignals(ctx, pool)
	articleKeywords := extractArticleKeywords(articleText)

	result := &RerankResult{
		GeoTierCounts:        make(map[string]int),
		TrustCoveragePercent: trustCoverage(signals),
	}

	accepted := make([]NonprofitRanked, 0, len(pool))
	for i := range pool {
		candidate := &pool[i]

		if vettingGateExcludes(candidate, signals[i]) {
			result.Excluded.Vetting++
			continue
		}

		tier := classifyGeoTier(candidate.LocationAddress, entities.Geography)
		cause := r.causeScore(candidate, causes, articleKeywords)

		// A zero cause score excludes only once the list is healthy;
		// small pools stay intact rather than emptying out.
		if cause == 0 && len(accepted) >= r.cfg.Rerank.MinAcceptedForCauseGate {
			result.Excluded.Cause++
			continue
		}

		quality := qualityScore(candidate)
		trust := 0.0
		if signals[i].TrustScore != nil {
			trust = *signals[i].TrustScore
		}

		w := r.cfg.Weights
		breakdown := ScoreBreakdown{
			Geo:     geoScore(tier),
			Cause:   cause,
			Trust:   trust,
			Quality: quality,
		}
		breakdown.Total = w.Geo*breakdown.Geo + w.Cause*breakdown.Cause +
			w.Trust*breakdown.Trust + w.Quality*breakdown.Quality

		accepted = append(accepted, NonprofitRanked{
			NonprofitCandidate: *candidate,
			Score:              breakdown,
			GeoTier:            tier,
			Reasons:            r.buildReasons(tier, entities.Geography, breakdown, signals[i]),
			TrustVetting:       signals[i],
		})
	}

	r.sortRanked(accepted)
	result.Ranked = r.diversify(accepted)

	for i := range result.Ranked {
		result.GeoTierCounts[result.Ranked[i].GeoTier.String()]++
	}

	r.logger.Debug().
		Int("pool", len(pool)).
		Int("ranked", len(result.Ranked)).
		Int("excluded_vetting", result.Excluded.Vetting).
		Int("excluded_cause", result.Excluded.Cause).
		Float64("trust_coverage", result.TrustCoveragePercent).
		Msg("rerank complete")

	return result
}

// resolveSignals fetches trust/vetting signals for every candidate with
// bounded parallelism. Indexing by candidate position keeps the mapping
// deterministic regardless of completion order.
func (r *Reranker) resolveSignals(ctx context.Context, pool []NonprofitCandidate) []TrustVettingSignals {
	signals := make([]TrustVettingSignals, len(pool))
	sem := semaphore.NewWeighted(int64(r.cfg.Rerank.TrustConcurrency))
	var wg sync.WaitGroup

	for i := range pool {
		if err := sem.Acquire(ctx, 1); err != nil {
			signals[i] = DefaultSignals()
			continue
		}

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer sem.Release(1)
			signals[idx] = r.resolveOne(ctx, pool[idx])
		}(i)
	}

	wg.Wait()
	return signals
}

// resolveOne tries each provider in order; the first success wins.
func (r *Reranker) resolveOne(ctx context.Context, candidate NonprofitCandidate) TrustVettingSignals {
	for _, provider := range r.providers {
		sig, err := provider.Resolve(ctx, candidate)
		if err != nil {
			r.logger.Warn().
				Err(err).
				Str("provider", provider.Name()).
				Str("slug", candidate.Slug).
				Msg("trust provider failed")
			continue
		}
		if sig.Source == "" {
			sig.Source = provider.Name()
		}
		if sig.VettedStatus == "" {
			sig.VettedStatus = VettedUnknown
		}
		return sig
	}
	return DefaultSignals()
}

// causeScore computes the 0-100 cause-alignment component.
func (r *Reranker) causeScore(candidate *NonprofitCandidate, causes, articleKeywords []string) float64 {
	score := 0.0

	candidateCauses := make(map[string]struct{}, len(candidate.Causes))
	for _, c := range candidate.Causes {
		candidateCauses[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	for _, c := range causes {
		if _, ok := candidateCauses[strings.ToLower(strings.TrimSpace(c))]; ok {
			score += causePointsPerMatch
		}
	}

	domainText := strings.ToLower(candidate.Description + " " + candidate.NTEECodeMeaning)
	domainPoints := 0.0
	for _, keyword := range reliefKeywords {
		if strings.Contains(domainText, keyword) {
			domainPoints += domainKeywordPoints
		}
	}
	score += min(domainPoints, domainKeywordCap)

	description := strings.ToLower(candidate.Description)
	articlePoints := 0.0
	for _, keyword := range articleKeywords {
		if strings.Contains(description, keyword) {
			articlePoints += articleKeywordPoints
		}
	}
	score += min(articlePoints, articleKeywordCap)

	return min(score, causeScoreCap)
}

// qualityScore computes the 0-100 metadata-quality component.
func qualityScore(candidate *NonprofitCandidate) float64 {
	score := 0.0
	if len(candidate.Description) > minDescriptionLength {
		score += 30
	}
	if candidate.WebsiteURL != "" {
		score += 30
	}
	if candidate.LogoURL != "" {
		score += 10
	}
	if candidate.EIN != "" {
		score += 10
	}
	if candidate.LocationAddress != "" {
		score += 10
	}
	if candidate.NTEECode != "" {
		score += 10
	}
	return min(score, 100)
}

// sortRanked orders candidates: geo tier first, then cause score
// descending (ties within the epsilon window fall through), then trust
// score descending. Stable so equal candidates keep pool order.
func (r *Reranker) sortRanked(ranked []NonprofitRanked) {
	epsilon := r.cfg.Rerank.CauseTieEpsilon
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := &ranked[i], &ranked[j]
		if a.GeoTier != b.GeoTier {
			return a.GeoTier < b.GeoTier
		}
		if diff := a.Score.Cause - b.Score.Cause; diff > epsilon || diff < -epsilon {
			return diff > 0
		}
		return a.Score.Trust > b.Score.Trust
	})
}

// diversify walks the sorted list admitting at most MaxPerCategory entries
// per primary category, then backfills remaining slots from the skipped
// candidates in original order so small result sets aren't over-pruned.
func (r *Reranker) diversify(sorted []NonprofitRanked) []NonprofitRanked {
	limit := r.cfg.Rerank.MaxResults
	if limit > len(sorted) {
		limit = len(sorted)
	}

	categoryCounts := make(map[string]int)
	diverse := make([]NonprofitRanked, 0, limit)
	skipped := make([]NonprofitRanked, 0)

	for i := range sorted {
		if len(diverse) >= limit {
			break
		}
		category := strings.ToLower(sorted[i].PrimaryCategory)
		if category == "" {
			category = "unknown"
		}
		if categoryCounts[category] >= r.cfg.Rerank.MaxPerCategory {
			skipped = append(skipped, sorted[i])
			continue
		}
		categoryCounts[category]++
		diverse = append(diverse, sorted[i])
	}

	for i := range skipped {
		if len(diverse) >= limit {
			break
		}
		diverse = append(diverse, skipped[i])
	}

	return diverse
}

// buildReasons produces the human-readable ranking justification.
func (r *Reranker) buildReasons(tier GeoTier, geo Geography, score ScoreBreakdown, signals TrustVettingSignals) []string {
	reasons := make([]string, 0, 5)

	switch tier {
	case TierLocal:
		place := geo.Country
		if place == "" {
			place = geo.Region
		}
		if place == "" {
			place = geo.City
		}
		reasons = append(reasons, fmt.Sprintf("Operates directly in %s", place))
	case TierRegional:
		reasons = append(reasons, "Operates in the surrounding region")
	default:
		reasons = append(reasons, "Global organization with broad reach")
	}

	switch {
	case score.Cause >= 60:
		reasons = append(reasons, "Strong match for the article's causes")
	case score.Cause >= causePointsPerMatch:
		reasons = append(reasons, "Aligned with the article's causes")
	case score.Cause > 0:
		reasons = append(reasons, "Some relevance to the article's causes")
	}

	if signals.TrustScore != nil {
		reasons = append(reasons, fmt.Sprintf("Trust score %.0f/100 (%s)", *signals.TrustScore, signals.Source))
	} else {
		reasons = append(reasons, "Trust score unavailable; tie-breaker skipped")
	}

	switch signals.VettedStatus {
	case VettedVerified:
		reasons = append(reasons, fmt.Sprintf("Vetted by %s", signals.Source))
	case VettedUnknown:
		reasons = append(reasons, "Vetting status unknown")
	}

	if score.Quality >= qualityReasonThreshold {
		reasons = append(reasons, "Complete, well-documented profile")
	}

	return reasons
}

// trustCoverage is the percentage of the pool with a known trust score.
func trustCoverage(signals []TrustVettingSignals) float64 {
	if len(signals) == 0 {
		return 0
	}
	known := 0
	for i := range signals {
		if signals[i].TrustScore != nil {
			known++
		}
	}
	return float64(known) / float64(len(signals)) * 100.0
}

// extractArticleKeywords tokenizes article text into distinct lowercase
// keywords (4+ letters, stopwords removed, capped) for description
// matching during cause scoring.
func extractArticleKeywords(text string) []string {
	if text == "" {
		return nil
	}

	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})

	seen := make(map[string]struct{})
	keywords := make([]string, 0, maxArticleKeywords)
	for _, field := range fields {
		if len(keywords) >= maxArticleKeywords {
			break
		}
		if len(field) < 4 {
			continue
		}
		if _, stop := articleStopwords[field]; stop {
			continue
		}
		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}
		keywords = append(keywords, field)
	}

	return keywords
}
