// Causeway - Nonprofit Recommendations for Crisis News
// Copyright 2026 Causeway Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/causeway-app/causeway

package recommend

import (
	"regexp"
	"strings"
	"unicode"
)

// legalSuffixPattern matches legal-entity suffix tokens as whole words.
// Applied only to names that contain no lowercase letters (see
// isLegalNameOnly): an all-caps registered name like "SMITH FAMILY
// FOUNDATION TRUST INC" is usually a raw registry record with no curated
// profile behind it.
var legalSuffixPattern = regexp.MustCompile(`\b(INC|LLC|CORP|CORPORATION|FOUNDATION|TRUST|LTD)\b`)

// isLegalNameOnly reports whether a name looks like a bare legal registry
// entry: all caps (contains letters, none lowercase) and carrying a legal
// suffix token.
func isLegalNameOnly(name string) bool {
	hasLetter := false
	for _, r := range name {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	if !hasLetter {
		return false
	}
	return legalSuffixPattern.MatchString(name)
}

// vettingGateExcludes applies the hard pre-scoring filter.
//
// Unverified candidates are always excluded. Unknown candidates are
// excluded only when their metadata is too thin to trust on its own:
// missing description or website, or a legal-name-only display name.
// Verified candidates always pass.
func vettingGateExcludes(candidate *NonprofitCandidate, signals TrustVettingSignals) bool {
	switch signals.VettedStatus {
	case VettedUnverified:
		return true
	case VettedUnknown:
		if strings.TrimSpace(candidate.Description) == "" {
			return true
		}
		if strings.TrimSpace(candidate.WebsiteURL) == "" {
			return true
		}
		return isLegalNameOnly(candidate.Name)
	default:
		return false
	}
}
