// Causeway - Nonprofit Recommendations for Crisis News
// Copyright 2026 Causeway Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/causeway-app/causeway

package cache

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// maxArticleKeyChars bounds how much article text feeds the recommendation
// key. Articles differing only past this point share a cache slot, which is
// acceptable: the entities and causes that drive ranking also feed the key.
const maxArticleKeyChars = 500

// SearchKey builds the cache key for a directory search query.
// The causes list is sorted before hashing, so any permutation of the same
// causes produces the same key.
func SearchKey(term string, causes []string, take int) string {
	return hashedKey(PrefixSearch, map[string]interface{}{
		"term":   strings.ToLower(strings.TrimSpace(term)),
		"causes": sortedLower(causes),
		"take":   take,
	})
}

// BrowseKey builds the cache key for a browse-by-cause query.
func BrowseKey(cause string, page, take int) string {
	return hashedKey(PrefixBrowse, map[string]interface{}{
		"cause": strings.ToLower(strings.TrimSpace(cause)),
		"page":  page,
		"take":  take,
	})
}

// NonprofitKey builds the cache key for a nonprofit detail lookup.
func NonprofitKey(identifier string) string {
	return hashedKey(PrefixNonprofit, map[string]interface{}{
		"id": strings.ToLower(strings.TrimSpace(identifier)),
	})
}

// RecommendationKey builds the cache key for a full recommendation
// response: truncated article text, geography, and sorted causes.
func RecommendationKey(articleText, country, region, city string, causes []string) string {
	text := articleText
	if len(text) > maxArticleKeyChars {
		text = text[:maxArticleKeyChars]
	}
	return hashedKey(PrefixRecommendation, map[string]interface{}{
		"text":    text,
		"country": strings.ToLower(strings.TrimSpace(country)),
		"region":  strings.ToLower(strings.TrimSpace(region)),
		"city":    strings.ToLower(strings.TrimSpace(city)),
		"causes":  sortedLower(causes),
	})
}

// hashedKey serializes params to JSON and hashes the bytes for a compact,
// collision-resistant key. Map keys marshal in sorted order, so equal
// params always produce equal keys.
func hashedKey(prefix string, params map[string]interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		// Fallback to a readable key; %v over a map is not fully stable
		// but this path only triggers for unmarshalable params, which the
		// callers above never pass.
		return fmt.Sprintf("%s%v", prefix, params)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s%x", prefix, hash[:16])
}

// sortedLower returns a sorted, lowercased, trimmed copy with empties dropped.
func sortedLower(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
