// Causeway - Nonprofit Recommendations for Crisis News
// Copyright 2026 Causeway Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/causeway-app/causeway

package cache

import (
	"strings"
	"testing"
)

func TestSearchKeyCausePermutation(t *testing.T) {
	a := SearchKey("wildfire", []string{"environment", "disaster-relief"}, 50)
	b := SearchKey("wildfire", []string{"disaster-relief", "environment"}, 50)
	if a != b {
		t.Errorf("permuted causes produced different keys:\n%s\n%s", a, b)
	}

	c := SearchKey("wildfire", []string{"environment"}, 50)
	if a == c {
		t.Error("different cause sets produced the same key")
	}
}

func TestSearchKeyCaseInsensitive(t *testing.T) {
	a := SearchKey("Wildfire Relief", []string{"Environment"}, 50)
	b := SearchKey("wildfire relief", []string{"environment"}, 50)
	if a != b {
		t.Error("case variation should not change the key")
	}
}

func TestBrowseKeyParams(t *testing.T) {
	a := BrowseKey("disaster-relief", 1, 50)
	b := BrowseKey("disaster-relief", 2, 50)
	if a == b {
		t.Error("different pages produced the same key")
	}
	if !strings.HasPrefix(a, PrefixBrowse) {
		t.Errorf("key %q missing browse prefix", a)
	}
}

func TestNonprofitKeyNormalizes(t *testing.T) {
	a := NonprofitKey("  Direct-Relief  ")
	b := NonprofitKey("direct-relief")
	if a != b {
		t.Error("identifier whitespace and case should not change the key")
	}
}

func TestRecommendationKeyDeterministic(t *testing.T) {
	article := "A wildfire burned through the hills overnight."

	a := RecommendationKey(article, "United States", "California", "Paradise", []string{"environment", "wildfires"})
	b := RecommendationKey(article, "United States", "California", "Paradise", []string{"wildfires", "environment"})
	if a != b {
		t.Error("permuted causes produced different recommendation keys")
	}

	c := RecommendationKey(article, "Chile", "California", "Paradise", []string{"environment", "wildfires"})
	if a == c {
		t.Error("different country produced the same key")
	}
}

func TestRecommendationKeyTruncatesArticle(t *testing.T) {
	prefix := strings.Repeat("a", maxArticleKeyChars)

	a := RecommendationKey(prefix+"tail one", "", "", "", nil)
	b := RecommendationKey(prefix+"different tail", "", "", "", nil)
	if a != b {
		t.Error("text beyond the truncation bound should not change the key")
	}

	c := RecommendationKey("short text", "", "", "", nil)
	if a == c {
		t.Error("distinct short articles produced the same key")
	}
}

func TestKeyPrefixes(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		prefix string
	}{
		{"search", SearchKey("x", nil, 1), PrefixSearch},
		{"browse", BrowseKey("x", 1, 1), PrefixBrowse},
		{"nonprofit", NonprofitKey("x"), PrefixNonprofit},
		{"recommendation", RecommendationKey("x", "", "", "", nil), PrefixRecommendation},
	}

	for _, tt := range tests {
		if !strings.HasPrefix(tt.key, tt.prefix) {
			t.Errorf("%s key %q missing prefix %q", tt.name, tt.key, tt.prefix)
		}
	}
}
