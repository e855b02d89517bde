// Causeway - Nonprofit Recommendations for Crisis News
// Copyright 2026 Causeway Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/causeway-app/causeway

package recommend

import "testing"

func TestClassifyGeoTier(t *testing.T) {
	tests := []struct {
		name     string
		location string
		geo      Geography
		want     GeoTier
	}{
		{
			name:     "country match is local",
			location: "Ankara, Turkey",
			geo:      Geography{Country: "Turkey"},
			want:     TierLocal,
		},
		{
			name:     "city match is local",
			location: "Paradise, CA",
			geo:      Geography{Country: "United States", City: "Paradise"},
			want:     TierLocal,
		},
		{
			name:     "region match is local",
			location: "Serving all of California",
			geo:      Geography{Country: "United States", Region: "California"},
			want:     TierLocal,
		},
		{
			name:     "case insensitive match",
			location: "TURKEY AND SURROUNDING AREAS",
			geo:      Geography{Country: "turkey"},
			want:     TierLocal,
		},
		{
			name:     "neighbor match is regional",
			location: "Damascus, Syria",
			geo:      Geography{Country: "Turkey"},
			want:     TierRegional,
		},
		{
			name:     "regional keyword match",
			location: "Middle East operations",
			geo:      Geography{Country: "Syria"},
			want:     TierRegional,
		},
		{
			name:     "unrelated location is global",
			location: "Oslo, Norway",
			geo:      Geography{Country: "Turkey"},
			want:     TierGlobal,
		},
		{
			name:     "empty location is global",
			location: "",
			geo:      Geography{Country: "Turkey"},
			want:     TierGlobal,
		},
		{
			name:     "no article geography is global",
			location: "New York, NY",
			geo:      Geography{},
			want:     TierGlobal,
		},
		{
			name:     "unknown country has no neighbor table",
			location: "Vienna, Austria",
			geo:      Geography{Country: "Liechtenstein"},
			want:     TierGlobal,
		},
		{
			name:     "local beats regional when both match",
			location: "Turkey and Syria border region",
			geo:      Geography{Country: "Turkey"},
			want:     TierLocal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyGeoTier(tt.location, tt.geo); got != tt.want {
				t.Errorf("classifyGeoTier(%q, %+v) = %v, want %v", tt.location, tt.geo, got, tt.want)
			}
		})
	}
}

func TestGeoScore(t *testing.T) {
	tests := []struct {
		tier GeoTier
		want float64
	}{
		{TierLocal, 100},
		{TierRegional, 60},
		{TierGlobal, 30},
	}
	for _, tt := range tests {
		if got := geoScore(tt.tier); got != tt.want {
			t.Errorf("geoScore(%v) = %v, want %v", tt.tier, got, tt.want)
		}
	}
}

func TestGeoTierString(t *testing.T) {
	tests := []struct {
		tier GeoTier
		want string
	}{
		{TierLocal, "tier1"},
		{TierRegional, "tier2"},
		{TierGlobal, "tier3"},
		{GeoTier(0), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.tier.String(); got != tt.want {
			t.Errorf("GeoTier(%d).String() = %q, want %q", tt.tier, got, tt.want)
		}
	}
}
