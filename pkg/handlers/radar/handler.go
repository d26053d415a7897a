package radar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/de-tools/cost-radar/pkg/adapters"
	"github.com/de-tools/cost-radar/pkg/models/api"
	"github.com/de-tools/cost-radar/pkg/models/domain"
	"github.com/de-tools/cost-radar/pkg/services/analysis"
	"github.com/de-tools/cost-radar/pkg/services/lifecycle"
	"github.com/de-tools/cost-radar/pkg/services/recommend"
	"github.com/de-tools/cost-radar/pkg/store/duckdb/opportunity"
)

type Handler struct {
	analysis  analysis.Service
	tracker   lifecycle.Service
	generator recommend.Generator
}

func NewHandler(svc analysis.Service, tracker lifecycle.Service, generator recommend.Generator) *Handler {
	return &Handler{
		analysis:  svc,
		tracker:   tracker,
		generator: generator,
	}
}

// Ingest normalizes a raw record batch for one provider and returns the
// normalization summary without running detection.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	provider := domain.Provider(chi.URLParam(r, "provider"))

	var req api.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	raw := make([]domain.RawRecord, 0, len(req.Records))
	for _, record := range req.Records {
		raw = append(raw, domain.RawRecord(record))
	}

	summary, err := h.analysis.Ingest(ctx, provider, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(ctx, w, http.StatusOK, adapters.MapDomainIngestSummaryToApi(summary))
}

// Analyze runs the full pipeline over every registered provider.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	report, err := h.analysis.Analyze(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("analysis failed")
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}
	writeJSON(ctx, w, http.StatusOK, adapters.MapDomainReportToApi(*report, time.Now()))
}

// ListOpportunities returns tracked opportunities in ranking order,
// optionally filtered by status, risk, owner or provider.
func (h *Handler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := opportunity.Filter{
		Status:   r.URL.Query().Get("status"),
		Risk:     r.URL.Query().Get("risk"),
		Owner:    r.URL.Query().Get("owner"),
		Provider: r.URL.Query().Get("provider"),
	}

	opportunities, err := h.tracker.List(ctx, filter)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to list opportunities")
		writeError(w, http.StatusInternalServerError, "failed to list opportunities")
		return
	}

	now := time.Now()
	response := make([]api.Opportunity, 0, len(opportunities))
	for _, o := range opportunities {
		response = append(response, adapters.MapDomainOpportunityToApi(o, now))
	}
	writeJSON(ctx, w, http.StatusOK, response)
}

// GetOpportunity returns one opportunity with its recommendation text.
func (h *Handler) GetOpportunity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := chi.URLParam(r, "key")

	o, err := h.tracker.Get(ctx, key)
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}

	response := adapters.MapDomainOpportunityToApi(*o, time.Now())
	response.Recommendation = recommend.Recommend(ctx, h.generator, *o)
	writeJSON(ctx, w, http.StatusOK, response)
}

// UpdateStatus moves an opportunity through the lifecycle state machine.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := chi.URLParam(r, "key")

	var req api.StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}

	o, err := h.tracker.Transition(ctx, key, domain.Status(req.Status), req.Actor)
	if err != nil {
		var invalid *domain.InvalidTransitionError
		if errors.As(err, &invalid) {
			writeError(w, http.StatusConflict, invalid.Error())
			return
		}
		writeStoreError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, adapters.MapDomainOpportunityToApi(*o, time.Now()))
}

// Assign sets an owner on an opportunity and attaches its SLA deadline.
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := chi.URLParam(r, "key")

	var req api.AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.tracker.Assign(ctx, key, req.Owner, 1.0, req.Actor)
	if err != nil {
		var invalid *domain.InvalidTransitionError
		if errors.As(err, &invalid) {
			writeError(w, http.StatusConflict, invalid.Error())
			return
		}
		writeStoreError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, adapters.MapDomainOpportunityToApi(*o, time.Now()))
}

// SLAStats reports deadline compliance across tracked opportunities.
func (h *Handler) SLAStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.tracker.SLAStats(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to compute sla stats")
		writeError(w, http.StatusInternalServerError, "failed to compute sla stats")
		return
	}
	writeJSON(ctx, w, http.StatusOK, adapters.MapDomainSLAStatsToApi(stats))
}

func writeStoreError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, opportunity.ErrNotFound):
		writeError(w, http.StatusNotFound, "opportunity not found")
	case errors.Is(err, opportunity.ErrVersionConflict):
		writeError(w, http.StatusConflict, "opportunity was modified concurrently, retry")
	default:
		zerolog.Ctx(ctx).Error().Err(err).Msg("store operation failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.Error{Error: message})
}
