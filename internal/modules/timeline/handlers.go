package timeline

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/salesops/resource-planner/internal/domain"
)

// Handler handles timeline HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new timeline handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "timeline").Logger(),
	}
}

// Routes mounts the timeline endpoints
func (h *Handler) Routes(r chi.Router) {
	r.Post("/generate-bulk", h.HandleGenerateBulk)
	r.Get("/stats", h.HandleGenerationStats)
	r.Delete("/predicted", h.HandleClearPredicted)
	r.Post("/{opportunityID}/generate", h.HandleGenerate)
	r.Get("/{opportunityID}", h.HandleGet)
	r.Delete("/{opportunityID}", h.HandleDelete)
	r.Patch("/{opportunityID}/status", h.HandlePatchStatus)
	r.Patch("/{opportunityID}/intervals/{serviceLine}/{stage}", h.HandlePatchInterval)
}

// HandleGenerate computes and stores the timeline for one opportunity
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	opportunityID := chi.URLParam(r, "opportunityID")

	bundle, rows, err := h.service.CalculateAndStore(opportunityID, domain.StatusPredicted)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"timeline":    bundle,
		"rows_stored": rows,
	})
}

// HandleGet returns the stored timeline for one opportunity
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	opportunityID := chi.URLParam(r, "opportunityID")

	rows, err := h.service.GetTimeline(opportunityID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if rows == nil {
		rows = []Row{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"opportunity_id": opportunityID,
		"rows":           rows,
	})
}

// HandleDelete removes all stored rows for one opportunity
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	opportunityID := chi.URLParam(r, "opportunityID")

	n, err := h.service.DeleteTimeline(opportunityID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"deleted": n,
	})
}

// HandlePatchStatus updates the status of a selection of rows
func (h *Handler) HandlePatchStatus(w http.ResponseWriter, r *http.Request) {
	opportunityID := chi.URLParam(r, "opportunityID")

	var patch StatusPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	n, err := h.service.PatchStatus(opportunityID, patch)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"updated": n,
	})
}

// HandlePatchInterval overwrites fields of one timeline row
func (h *Handler) HandlePatchInterval(w http.ResponseWriter, r *http.Request) {
	opportunityID := chi.URLParam(r, "opportunityID")
	serviceLine, ok := domain.ParseServiceLine(chi.URLParam(r, "serviceLine"))
	if !ok {
		h.writeError(w, http.StatusBadRequest, "Unknown service line")
		return
	}
	stage := chi.URLParam(r, "stage")

	var patch IntervalPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	row, err := h.service.PatchInterval(opportunityID, serviceLine, stage, patch)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, row)
}

// HandleGenerateBulk runs bulk generation across the portfolio
func (h *Handler) HandleGenerateBulk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RegeneratePredicted bool `json:"regenerate_predicted"`
	}
	if r.Body != nil {
		// An empty body means regenerate_predicted=false.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	report, err := h.service.GenerateBulk(req.RegeneratePredicted)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, report)
}

// HandleGenerationStats returns portfolio readiness counts
func (h *Handler) HandleGenerationStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GenerationStats()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

// HandleClearPredicted deletes every Predicted row
func (h *Handler) HandleClearPredicted(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.ClearPredicted()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"deleted": n,
	})
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrNoTimeline),
		errors.Is(err, domain.ErrNoMatchingRows):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidStatus):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrMissingDecisionDate),
		errors.Is(err, domain.ErrZeroEffortTimeline):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.log.Error().Err(err).Msg("Timeline request failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
