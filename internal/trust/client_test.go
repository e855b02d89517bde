// Causeway - Nonprofit Recommendations for Crisis News
// Copyright 2026 Causeway Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/causeway-app/causeway

package trust

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/causeway-app/causeway/internal/recommend"
)

func newTestProvider(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		Name:          "testvet",
		BaseURL:       baseURL,
		APIKey:        "secret",
		RatePerSecond: 1000,
		Burst:         1000,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return c
}

func TestResolveByEIN(t *testing.T) {
	var gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"trust_score": 87.5, "vetted_status": "verified"}`))
	}))
	defer server.Close()

	c := newTestProvider(t, server.URL)

	signals, err := c.Resolve(context.Background(), recommend.NonprofitCandidate{
		Slug: "direct-relief",
		EIN:  "95-1831116",
	})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if gotPath != "/organizations/95-1831116" {
		t.Errorf("path = %q, want EIN lookup", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if signals.TrustScore == nil || *signals.TrustScore != 87.5 {
		t.Errorf("trust score = %v, want 87.5", signals.TrustScore)
	}
	if signals.VettedStatus != recommend.VettedVerified {
		t.Errorf("vetted = %v, want verified", signals.VettedStatus)
	}
	if signals.Source != "testvet" {
		t.Errorf("source = %q, want testvet", signals.Source)
	}
}

func TestResolveFallsBackToSlug(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"vetted_status": "unknown"}`))
	}))
	defer server.Close()

	c := newTestProvider(t, server.URL)

	signals, err := c.Resolve(context.Background(), recommend.NonprofitCandidate{Slug: "team-rubicon"})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if gotPath != "/organizations/team-rubicon" {
		t.Errorf("path = %q, want slug lookup", gotPath)
	}
	if signals.TrustScore != nil {
		t.Errorf("trust score = %v, want nil", signals.TrustScore)
	}
}

func TestResolveNoIdentifierSkipsNetwork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request for candidate without identifier")
	}))
	defer server.Close()

	c := newTestProvider(t, server.URL)

	signals, err := c.Resolve(context.Background(), recommend.NonprofitCandidate{Name: "Nameless"})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if signals.VettedStatus != recommend.VettedUnknown || signals.Source != "none" {
		t.Errorf("signals = %+v, want defaults", signals)
	}
}

func TestResolveUpstreamErrorReturnsDefaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestProvider(t, server.URL)

	signals, err := c.Resolve(context.Background(), recommend.NonprofitCandidate{EIN: "12-3456789"})
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if signals.VettedStatus != recommend.VettedUnknown || signals.TrustScore != nil {
		t.Errorf("signals = %+v, want defaults on error", signals)
	}
}

func TestParseVetted(t *testing.T) {
	tests := []struct {
		in   string
		want recommend.VettedStatus
	}{
		{"verified", recommend.VettedVerified},
		{" Verified ", recommend.VettedVerified},
		{"unverified", recommend.VettedUnverified},
		{"unknown", recommend.VettedUnknown},
		{"", recommend.VettedUnknown},
		{"pending", recommend.VettedUnknown},
	}
	for _, tt := range tests {
		if got := parseVetted(tt.in); got != tt.want {
			t.Errorf("parseVetted(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestClampScore(t *testing.T) {
	if got := clampScore(nil); got != nil {
		t.Errorf("clampScore(nil) = %v", got)
	}

	tests := []struct {
		in, want float64
	}{
		{50, 50},
		{-10, 0},
		{150, 100},
	}
	for _, tt := range tests {
		in := tt.in
		got := clampScore(&in)
		if got == nil || *got != tt.want {
			t.Errorf("clampScore(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(Config{}, zerolog.Nop()); err == nil {
		t.Fatal("expected error for missing base URL")
	}
}
