// Causeway - Nonprofit Recommendations for Crisis News
// Copyright 2026 Causeway Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/causeway-app/causeway

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/causeway-app/causeway/internal/metrics"
	"github.com/causeway-app/causeway/internal/recommend"
)

// maxRequestBytes bounds recommendation request bodies. Article text is
// capped well below this; the margin covers entities and causes.
const maxRequestBytes = 1 << 20 // 1MB

// recommendTimeout bounds one full pipeline run.
const recommendTimeout = 30 * time.Second

// Handler implements the HTTP endpoints.
type Handler struct {
	engine   *recommend.Engine
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewHandler creates the endpoint handler.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(engine *recommend.Engine, logger zerolog.Logger) *Handler {
	return &Handler{
		engine:   engine,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With().Str("component", "handler").Logger(),
	}
}

// recommendRequest is the POST /api/v1/recommendations body.
type recommendRequest struct {
	ArticleText   string   `json:"article_text" validate:"required,min=1"`
	Country       string   `json:"country"`
	Region        string   `json:"region"`
	City          string   `json:"city"`
	DisasterType  string   `json:"disaster_type"`
	AffectedGroup string   `json:"affected_group"`
	Causes        []string `json:"causes" validate:"max=10,dive,max=100"`
	TopN          int      `json:"top_n" validate:"gte=0,lte=100"`
	Debug         bool     `json:"debug"`
}

// Recommend handles POST /api/v1/recommendations.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req recommendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", validationMessage(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), recommendTimeout)
	defer cancel()

	resp, err := h.engine.Recommend(ctx, recommend.Request{
		ArticleText: req.ArticleText,
		Entities: recommend.ArticleEntities{
			Geography: recommend.Geography{
				Country: req.Country,
				Region:  req.Region,
				City:    req.City,
			},
			DisasterType:  req.DisasterType,
			AffectedGroup: req.AffectedGroup,
		},
		Causes: req.Causes,
		TopN:   req.TopN,
		Debug:  req.Debug,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("request_id", RequestIDFrom(r.Context())).Msg("recommendation failed")
		metrics.RecommendationRequests.WithLabelValues("error").Inc()

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			writeError(w, http.StatusGatewayTimeout, "timeout", "recommendation timed out")
			return
		}
		writeError(w, http.StatusBadGateway, "upstream_failed", "recommendation pipeline failed")
		return
	}

	outcome := "ok"
	if resp.Debug != nil && resp.Debug.CacheHit {
		outcome = "cache_hit"
	}
	metrics.RecommendationRequests.WithLabelValues(outcome).Inc()
	metrics.RecommendationDuration.Observe(time.Since(start).Seconds())
	if resp.Debug != nil {
		metrics.RecommendationPoolSize.Observe(float64(resp.Debug.PoolSize))
	}

	writeJSON(w, http.StatusOK, resp)
}

// CacheStats handles GET /api/v1/recommendations/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, _ *http.Request) {
	stats := h.engine.CacheStats()
	metrics.CacheSize.Set(float64(stats.Size))
	writeJSON(w, http.StatusOK, stats)
}

// ClearCache handles DELETE /api/v1/recommendations/cache.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.engine.ClearCache()
	h.logger.Info().Str("request_id", RequestIDFrom(r.Context())).Msg("cache cleared via API")
	w.WriteHeader(http.StatusNoContent)
}

// healthResponse is the health endpoint body.
type healthResponse struct {
	Status  string                  `json:"status"`
	Engine  recommend.EngineMetrics `json:"engine"`
	Version string                  `json:"version"`
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Engine:  h.engine.GetMetrics(),
		Version: Version,
	})
}

// decodeJSON parses a bounded JSON request body, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(nil, r.Body, maxRequestBytes)
	defer body.Close()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	// A second document in the body is a malformed request.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// validationMessage flattens validator errors to one readable line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return "field " + first.Field() + " failed validation rule " + first.Tag()
	}
	return err.Error()
}
