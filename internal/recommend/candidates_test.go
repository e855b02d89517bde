// Causeway - Nonprofit Recommendations for Crisis News
// Copyright 2026 Causeway Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/causeway-app/causeway

package recommend

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// fakeDirectory is a scripted DirectoryClient for generator tests.
type fakeDirectory struct {
	mu          sync.Mutex
	browse      map[string][]NonprofitCandidate
	search      map[string][]NonprofitCandidate
	browseErr   map[string]error
	searchErr   map[string]error
	browseCalls []string
	searchCalls []string
}

func (f *fakeDirectory) BrowseCause(_ context.Context, cause string, _, _ int) ([]NonprofitCandidate, error) {
	f.mu.Lock()
	f.browseCalls = append(f.browseCalls, cause)
	f.mu.Unlock()
	if err := f.browseErr[cause]; err != nil {
		return nil, err
	}
	return f.browse[cause], nil
}

func (f *fakeDirectory) SearchNonprofits(_ context.Context, term string, _ []string, _ int) ([]NonprofitCandidate, error) {
	f.mu.Lock()
	f.searchCalls = append(f.searchCalls, term)
	f.mu.Unlock()
	if err := f.searchErr[term]; err != nil {
		return nil, err
	}
	return f.search[term], nil
}

func (f *fakeDirectory) GetNonprofitDetails(_ context.Context, _ string) (*NonprofitCandidate, error) {
	return nil, errors.New("not implemented")
}

func candidate(slug, name string) NonprofitCandidate {
	return NonprofitCandidate{Slug: slug, Name: name}
}

func newTestGenerator(dir DirectoryClient) *Generator {
	return NewGenerator(dir, DefaultConfig().Generator, zerolog.Nop())
}

func TestGenerateNilDirectory(t *testing.T) {
	g := newTestGenerator(nil)
	if _, err := g.Generate(context.Background(), ArticleEntities{}, nil); err == nil {
		t.Fatal("expected error for nil directory")
	}
}

func TestGenerateMergesAndDeduplicates(t *testing.T) {
	dir := &fakeDirectory{
		browse: map[string][]NonprofitCandidate{
			"disaster-relief": {candidate("red-cross", "Red Cross"), candidate("direct-relief", "Direct Relief")},
		},
		search: map[string][]NonprofitCandidate{
			"wildfire": {candidate("red-cross", "Red Cross (search copy)"), candidate("calfire-fund", "CalFire Fund")},
		},
	}
	g := newTestGenerator(dir)

	pool, err := g.Generate(context.Background(),
		ArticleEntities{DisasterType: "wildfire"},
		[]string{"disaster-relief"})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	slugs := make(map[string]string)
	for _, c := range pool.Candidates {
		if prev, dup := slugs[c.Slug]; dup {
			t.Fatalf("duplicate slug %s (%s and %s)", c.Slug, prev, c.Name)
		}
		slugs[c.Slug] = c.Name
	}

	// The browse copy was merged first; the search copy must not replace it.
	if got := slugs["red-cross"]; got != "Red Cross" {
		t.Errorf("search result overwrote browse entry: got %q", got)
	}
	if _, ok := slugs["calfire-fund"]; !ok {
		t.Error("search-only candidate missing from pool")
	}
}

func TestGenerateSwallowsQueryFailures(t *testing.T) {
	dir := &fakeDirectory{
		browse: map[string][]NonprofitCandidate{
			"environment": {candidate("green-aid", "Green Aid")},
		},
		browseErr: map[string]error{
			"disaster-relief": errors.New("upstream 503"),
		},
		searchErr: map[string]error{
			"wildfire": errors.New("timeout"),
		},
	}
	g := newTestGenerator(dir)

	pool, err := g.Generate(context.Background(),
		ArticleEntities{DisasterType: "wildfire"},
		[]string{"disaster-relief", "environment"})
	if err != nil {
		t.Fatalf("Generate() should not fail on partial query errors: %v", err)
	}
	if len(pool.Candidates) != 1 || pool.Candidates[0].Slug != "green-aid" {
		t.Errorf("pool = %+v, want only green-aid", pool.Candidates)
	}
}

func TestGenerateEmptyPoolIsNotAnError(t *testing.T) {
	g := newTestGenerator(&fakeDirectory{})

	pool, err := g.Generate(context.Background(), ArticleEntities{}, nil)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if len(pool.Candidates) != 0 {
		t.Errorf("expected empty pool, got %d candidates", len(pool.Candidates))
	}
}

func TestGenerateCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := newTestGenerator(&fakeDirectory{})
	if _, err := g.Generate(ctx, ArticleEntities{DisasterType: "flood"}, []string{"disaster-relief"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Generate() error = %v, want context.Canceled", err)
	}
}

func TestGeneratePoolCap(t *testing.T) {
	many := make([]NonprofitCandidate, 300)
	for i := range many {
		many[i] = candidate(string(rune('a'+i%26))+string(rune('0'+i/26)), "Org")
	}
	dir := &fakeDirectory{
		browse: map[string][]NonprofitCandidate{"disaster-relief": many},
	}
	g := newTestGenerator(dir)

	pool, err := g.Generate(context.Background(), ArticleEntities{}, []string{"disaster-relief"})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if cap := DefaultConfig().Generator.PoolCap; len(pool.Candidates) > cap {
		t.Errorf("pool size %d exceeds cap %d", len(pool.Candidates), cap)
	}
}

func TestBuildSearchTerms(t *testing.T) {
	tests := []struct {
		name     string
		entities ArticleEntities
		want     []string
	}{
		{
			name: "full entities",
			entities: ArticleEntities{
				Geography:     Geography{Country: "Turkey", Region: "Hatay", City: "Antakya"},
				DisasterType:  "earthquake",
				AffectedGroup: "displaced families",
			},
			want: []string{
				"earthquake", "earthquake relief",
				"Turkey", "Turkey earthquake",
				"Hatay", "Antakya",
				"displaced families", "displaced families earthquake",
				"disaster relief", "emergency response",
			},
		},
		{
			name:     "geography only, no generic fallbacks",
			entities: ArticleEntities{Geography: Geography{Country: "Kenya"}},
			want:     []string{"Kenya"},
		},
		{
			name:     "empty entities",
			entities: ArticleEntities{},
			want:     []string{},
		},
		{
			name: "duplicates collapse case-insensitively",
			entities: ArticleEntities{
				Geography:    Geography{Country: "flood"},
				DisasterType: "Flood",
			},
			want: []string{"Flood", "Flood relief", "flood Flood", "disaster relief", "emergency response"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildSearchTerms(tt.entities)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("buildSearchTerms() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFirstNonEmpty(t *testing.T) {
	got := firstNonEmpty([]string{" ", "a", "", "b", "c", "d"}, 3)
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("firstNonEmpty() = %v, want %v", got, want)
	}
}
