// Causeway - Nonprofit Recommendations for Crisis News
// Copyright 2026 Causeway Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/causeway-app/causeway

package recommend

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Generator produces a bounded, deduplicated candidate pool from the
// external directory using two retrieval strategies: browse-by-cause and
// search-by-term. Sub-query failures degrade the pool but never abort
// generation; an empty pool is a valid result, not an error.
type Generator struct {
	directory DirectoryClient
	cfg       GeneratorConfig
	logger    zerolog.Logger
}

// NewGenerator creates a candidate generator.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewGenerator(directory DirectoryClient, cfg GeneratorConfig, logger zerolog.Logger) *Generator {
	return &Generator{
		directory: directory,
		cfg:       cfg,
		logger:    logger.With().Str("component", "candidates").Logger(),
	}
}

// directoryQuery is one browse or search sub-query.
type directoryQuery struct {
	// cause is set for browse queries.
	cause string
	// term is set for search queries; scopedCauses scopes the search.
	term         string
	scopedCauses []string
}

// queryResult holds the outcome of one sub-query, indexed by query order so
// merging stays deterministic regardless of completion order.
type queryResult struct {
	candidates []NonprofitCandidate
	err        error
}

// Generate gathers the candidate pool for an article.
//
// Browse queries run for the first MaxBrowseCauses causes; search queries
// run for the first MaxSearchTerms terms built from the entities. All
// sub-queries run with bounded concurrency and their results are merged in
// query-priority order, browse first, keyed by slug. The merged pool is
// truncated to PoolCap.
//
// The only returned errors are a nil directory client and context
// cancellation; a cancelled run returns no pool so partial results are
// never cached downstream.
func (g *Generator) Generate(ctx context.Context, entities ArticleEntities, causes []string) (*CandidatePool, error) {
	if g.directory == nil {
		return nil, errDirectoryNotConfigured
	}

	causesUsed := firstNonEmpty(causes, g.cfg.MaxBrowseCauses)
	terms := buildSearchTerms(entities)
	if len(terms) > g.cfg.MaxSearchTerms {
		terms = terms[:g.cfg.MaxSearchTerms]
	}

	queries := make([]directoryQuery, 0, len(causesUsed)+len(terms))
	for _, cause := range causesUsed {
		queries = append(queries, directoryQuery{cause: cause})
	}
	for _, term := range terms {
		queries = append(queries, directoryQuery{term: term, scopedCauses: causesUsed})
	}

	results := g.runQueries(ctx, queries)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pool := g.mergeResults(queries, results)
	if len(pool) > g.cfg.PoolCap {
		pool = pool[:g.cfg.PoolCap]
	}

	g.logger.Debug().
		Int("pool_size", len(pool)).
		Int("browse_queries", len(causesUsed)).
		Int("search_queries", len(terms)).
		Msg("candidate pool generated")

	return &CandidatePool{
		Candidates: pool,
		CausesUsed: causesUsed,
		TermsUsed:  terms,
	}, nil
}

// runQueries executes all sub-queries with bounded concurrency and
// collects results by query index.
func (g *Generator) runQueries(ctx context.Context, queries []directoryQuery) []queryResult {
	results := make([]queryResult, len(queries))
	sem := semaphore.NewWeighted(int64(g.cfg.MaxInFlight))
	var wg sync.WaitGroup

	for i, q := range queries {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = queryResult{err: err}
			continue
		}

		wg.Add(1)
		go func(idx int, query directoryQuery) {
			defer wg.Done()
			defer sem.Release(1)
			results[idx] = g.runSingleQuery(ctx, query)
		}(i, q)
	}

	wg.Wait()
	return results
}

// runSingleQuery issues one browse or search call.
func (g *Generator) runSingleQuery(ctx context.Context, q directoryQuery) queryResult {
	if q.cause != "" {
		candidates, err := g.directory.BrowseCause(ctx, q.cause, g.cfg.Take, 1)
		return queryResult{candidates: candidates, err: err}
	}
	candidates, err := g.directory.SearchNonprofits(ctx, q.term, q.scopedCauses, g.cfg.Take)
	return queryResult{candidates: candidates, err: err}
}

// mergeResults folds sub-query results into a slug-deduplicated pool.
//
// Browse results merge last-write-wins (a later browse may carry fresher
// content for the same slug); search results never overwrite an existing
// slug. Pool order follows first appearance, so merging is deterministic
// for deterministic upstream responses.
func (g *Generator) mergeResults(queries []directoryQuery, results []queryResult) []NonprofitCandidate {
	index := make(map[string]int)
	pool := make([]NonprofitCandidate, 0)

	for i, result := range results {
		if result.err != nil {
			g.logQueryFailure(queries[i], result.err)
			continue
		}

		browse := queries[i].cause != ""
		for _, candidate := range result.candidates {
			if candidate.Slug == "" {
				continue
			}
			pos, seen := index[candidate.Slug]
			switch {
			case !seen:
				index[candidate.Slug] = len(pool)
				pool = append(pool, candidate)
			case browse:
				pool[pos] = candidate
			}
		}
	}

	return pool
}

// logQueryFailure records a swallowed sub-query error.
func (g *Generator) logQueryFailure(q directoryQuery, err error) {
	event := g.logger.Warn().Err(err)
	if q.cause != "" {
		event.Str("browse_cause", q.cause).Msg("browse query failed")
		return
	}
	event.Str("search_term", q.term).Msg("search query failed")
}

// buildSearchTerms derives prioritized search terms from article entities.
// Specific terms come first; generic disaster-relief fallbacks are added
// only when a disaster type was extracted, so non-disaster articles don't
// pull in unrelated relief orgs. Empty and duplicate terms are dropped.
func buildSearchTerms(entities ArticleEntities) []string {
	geo := entities.Geography
	disaster := strings.TrimSpace(entities.DisasterType)
	group := strings.TrimSpace(entities.AffectedGroup)

	raw := make([]string, 0, 10)
	if disaster != "" {
		raw = append(raw, disaster, disaster+" relief")
	}
	if country := strings.TrimSpace(geo.Country); country != "" {
		raw = append(raw, country)
		if disaster != "" {
			raw = append(raw, country+" "+disaster)
		}
	}
	if region := strings.TrimSpace(geo.Region); region != "" {
		raw = append(raw, region)
	}
	if city := strings.TrimSpace(geo.City); city != "" {
		raw = append(raw, city)
	}
	if group != "" {
		raw = append(raw, group)
		if disaster != "" {
			raw = append(raw, group+" "+disaster)
		}
	}
	if disaster != "" {
		raw = append(raw, "disaster relief", "emergency response")
	}

	seen := make(map[string]struct{}, len(raw))
	terms := make([]string, 0, len(raw))
	for _, term := range raw {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		key := strings.ToLower(term)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		terms = append(terms, term)
	}

	return terms
}

// firstNonEmpty returns up to limit trimmed, non-empty values.
func firstNonEmpty(values []string, limit int) []string {
	out := make([]string, 0, limit)
	for _, v := range values {
		if len(out) >= limit {
			break
		}
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
