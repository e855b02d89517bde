// Causeway - Nonprofit Recommendations for Crisis News
// Copyright 2026 Causeway Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/causeway-app/causeway

package api

import (
	"net/http"

	"github.com/goccy/go-json"
)

// Version is the service version reported by the health endpoint.
// Overridden at build time via -ldflags.
var Version = "dev"

// errorResponse is the uniform JSON error body for every non-2xx reply.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes a JSON response. Encoding failures after the header
// is written can only be logged by the caller's middleware.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError writes the uniform error shape.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Error: errorDetail{Code: code, Message: message},
	})
}
