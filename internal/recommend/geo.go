// Causeway - Nonprofit Recommendations for Crisis News
// Copyright 2026 Causeway Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/causeway-app/causeway

package recommend

import "strings"

// Geo sub-scores per tier. Geography is the primary ranking factor, so the
// tier gap is large enough that no cause/trust combination can cross it.
const (
	geoScoreLocal    = 100.0
	geoScoreRegional = 60.0
	geoScoreGlobal   = 30.0
)

// regionNeighbors maps a lowercase country name to the neighbors and
// sub-regions whose presence in an org's location text counts as regional
// (tier2) relevance. This is a hand-maintained constant, not a gazetteer;
// coverage grows as crises surface new countries.
var regionNeighbors = map[string][]string{
	"united states": {"mexico", "canada", "puerto rico", "caribbean"},
	"mexico":        {"united states", "guatemala", "belize", "central america"},
	"turkey":        {"syria", "greece", "iraq", "armenia", "middle east"},
	"syria":         {"turkey", "lebanon", "jordan", "iraq", "middle east"},
	"ukraine":       {"poland", "moldova", "romania", "hungary", "slovakia", "eastern europe"},
	"japan":         {"south korea", "philippines", "taiwan", "east asia"},
	"philippines":   {"indonesia", "malaysia", "vietnam", "southeast asia"},
	"india":         {"nepal", "bangladesh", "pakistan", "sri lanka", "south asia"},
	"pakistan":      {"india", "afghanistan", "iran", "south asia"},
	"haiti":         {"dominican republic", "caribbean", "latin america"},
	"kenya":         {"ethiopia", "somalia", "uganda", "tanzania", "east africa"},
	"morocco":       {"algeria", "spain", "north africa"},
	"australia":     {"new zealand", "papua new guinea", "oceania"},
	"greece":        {"turkey", "albania", "bulgaria", "mediterranean"},
	"chile":         {"argentina", "peru", "bolivia", "south america", "latin america"},
}

// classifyGeoTier buckets a candidate by its free-text location against the
// article's geography. Pure function of its inputs; matching is
// case-insensitive substring containment.
func classifyGeoTier(locationText string, geo Geography) GeoTier {
	location := strings.ToLower(locationText)
	if location == "" {
		return TierGlobal
	}

	for _, place := range []string{geo.Country, geo.Region, geo.City} {
		if place == "" {
			continue
		}
		if strings.Contains(location, strings.ToLower(place)) {
			return TierLocal
		}
	}

	if neighbors, ok := regionNeighbors[strings.ToLower(geo.Country)]; ok {
		for _, neighbor := range neighbors {
			if strings.Contains(location, neighbor) {
				return TierRegional
			}
		}
	}

	return TierGlobal
}

// geoScore maps a tier to its sub-score.
func geoScore(tier GeoTier) float64 {
	switch tier {
	case TierLocal:
		return geoScoreLocal
	case TierRegional:
		return geoScoreRegional
	default:
		return geoScoreGlobal
	}
}
