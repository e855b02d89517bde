// Causeway - Nonprofit Recommendations for Crisis News
// Copyright 2026 Causeway Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/causeway-app/causeway

package recommend

import "testing"

func TestIsLegalNameOnly(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"all caps with suffix", "SMITH FAMILY FOUNDATION TRUST INC", true},
		{"all caps LLC", "HELPING HANDS LLC", true},
		{"all caps CORP", "RELIEF CORP", true},
		{"mixed case with suffix", "Smith Family Foundation Inc", false},
		{"all caps without suffix", "DOCTORS WITHOUT BORDERS", false},
		{"suffix as substring not word", "INCREDIBLE AID NETWORK", false},
		{"empty", "", false},
		{"digits and punctuation only", "501(C)(3)", false},
		{"normal name", "Direct Relief", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isLegalNameOnly(tt.in); got != tt.want {
				t.Errorf("isLegalNameOnly(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestVettingGateExcludes(t *testing.T) {
	full := NonprofitCandidate{
		Name:        "Direct Relief",
		Description: "Provides medical assistance worldwide.",
		WebsiteURL:  "https://directrelief.org",
	}
	score := 90.0

	tests := []struct {
		name      string
		candidate NonprofitCandidate
		signals   TrustVettingSignals
		want      bool
	}{
		{
			name:      "unverified always excluded",
			candidate: full,
			signals:   TrustVettingSignals{TrustScore: &score, VettedStatus: VettedUnverified},
			want:      true,
		},
		{
			name:      "verified always passes",
			candidate: NonprofitCandidate{Name: "BARE REGISTRY TRUST INC"},
			signals:   TrustVettingSignals{VettedStatus: VettedVerified},
			want:      false,
		},
		{
			name:      "unknown with full metadata passes",
			candidate: full,
			signals:   DefaultSignals(),
			want:      false,
		},
		{
			name: "unknown without description excluded",
			candidate: NonprofitCandidate{
				Name:       "Direct Relief",
				WebsiteURL: "https://directrelief.org",
			},
			signals: DefaultSignals(),
			want:    true,
		},
		{
			name: "unknown without website excluded",
			candidate: NonprofitCandidate{
				Name:        "Direct Relief",
				Description: "Provides medical assistance worldwide.",
			},
			signals: DefaultSignals(),
			want:    true,
		},
		{
			name: "unknown legal-name-only excluded",
			candidate: NonprofitCandidate{
				Name:        "SMITH FAMILY FOUNDATION INC",
				Description: "A description that exists.",
				WebsiteURL:  "https://example.org",
			},
			signals: DefaultSignals(),
			want:    true,
		},
		{
			name: "unknown whitespace-only description excluded",
			candidate: NonprofitCandidate{
				Name:        "Direct Relief",
				Description: "   ",
				WebsiteURL:  "https://directrelief.org",
			},
			signals: DefaultSignals(),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := vettingGateExcludes(&tt.candidate, tt.signals); got != tt.want {
				t.Errorf("vettingGateExcludes() = %v, want %v", got, tt.want)
			}
		})
	}
}
