package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/podsight/attribution-engine/internal/attribution"
	"github.com/podsight/attribution-engine/internal/domain"
	"github.com/podsight/attribution-engine/internal/service/reporting"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	svc *reporting.Service
}

func NewHandlers(svc *reporting.Service) *Handlers {
	return &Handlers{svc: svc}
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

type createConversionRequest struct {
	CampaignID string    `json:"campaign_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Value      float64   `json:"value"`
	Models     []string  `json:"models,omitempty"`
}

// HandleCreateConversion records a conversion and attributes it immediately
// under the requested models (all of them when none are named).
func (h *Handlers) HandleCreateConversion(w http.ResponseWriter, r *http.Request) {
	var req createConversionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.CampaignID == "" {
		respondError(w, http.StatusBadRequest, "campaign_id is required")
		return
	}

	conv, results, err := h.svc.RecordConversion(r.Context(), reporting.RecordConversionInput{
		CampaignID: req.CampaignID,
		OccurredAt: req.OccurredAt,
		Value:      req.Value,
		Models:     toModelNames(req.Models),
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"conversion": conv,
		"results":    results,
	})
}

type attributeRequest struct {
	Models []string `json:"models,omitempty"`
}

// HandleAttribute re-runs attribution for an existing conversion. Safe to
// call repeatedly; stored results are replaced, not duplicated.
func (h *Handlers) HandleAttribute(w http.ResponseWriter, r *http.Request) {
	conversionID := chi.URLParam(r, "id")

	var req attributeRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	results, err := h.svc.Attribute(r.Context(), conversionID, toModelNames(req.Models))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"conversion_id": conversionID,
		"results":       results,
	})
}

func (h *Handlers) HandleConversionResults(w http.ResponseWriter, r *http.Request) {
	conversionID := chi.URLParam(r, "id")

	results, err := h.svc.ConversionResults(r.Context(), conversionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"conversion_id": conversionID,
		"results":       results,
	})
}

func (h *Handlers) HandleCampaignSummary(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "id")
	model := r.URL.Query().Get("model")
	if model == "" {
		model = string(domain.ModelLastTouch)
	}

	summary, err := h.svc.CampaignSummary(r.Context(), campaignID, domain.ModelName(model))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

type setSpendRequest struct {
	Spend float64 `json:"spend"`
}

func (h *Handlers) HandleSetSpend(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "id")

	var req setSpendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.svc.SetSpend(r.Context(), campaignID, req.Spend); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"campaign_id": campaignID,
		"spend":       req.Spend,
	})
}

func (h *Handlers) HandleModels(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"models": domain.AllModels,
	})
}

func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondServiceError maps service errors onto status codes. Caller mistakes
// (unknown model, invalid conversion, bad spend) are 400s; missing entities
// are 404s; the rest is a 500 with a generic message.
func respondServiceError(w http.ResponseWriter, err error) {
	var unknownModel *attribution.UnknownModelError
	var invalidConv *domain.InvalidConversionError

	switch {
	case errors.As(err, &unknownModel), errors.As(err, &invalidConv):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, reporting.ErrNegativeSpend):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, reporting.ErrConversionNotFound),
		errors.Is(err, reporting.ErrSummaryNotFound),
		errors.Is(err, reporting.ErrCampaignNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func toModelNames(names []string) []domain.ModelName {
	if len(names) == 0 {
		return nil
	}
	out := make([]domain.ModelName, len(names))
	for i, n := range names {
		out[i] = domain.ModelName(n)
	}
	return out
}
