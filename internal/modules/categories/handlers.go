package categories

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/salesops/resource-planner/internal/domain"
)

// Handler exposes the seeded configuration read-only.
type Handler struct {
	repo *Repository
	log  zerolog.Logger
}

// NewHandler creates a new configuration handler
func NewHandler(repo *Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "categories").Logger(),
	}
}

// Routes mounts the configuration endpoints
func (h *Handler) Routes(r chi.Router) {
	r.Get("/opportunity-categories", h.HandleOpportunityCategories)
	r.Get("/service-line-categories/{serviceLine}", h.HandleServiceLineCategories)
	r.Get("/offering-mappings/{serviceLine}", h.HandleOfferingMappings)
}

// HandleOpportunityCategories lists the global TCV bands
func (h *Handler) HandleOpportunityCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.repo.ListOpportunityCategories()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if cats == nil {
		cats = []OpportunityCategory{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories": cats,
	})
}

// HandleServiceLineCategories lists the bands for one service line
func (h *Handler) HandleServiceLineCategories(w http.ResponseWriter, r *http.Request) {
	sl, ok := domain.ParseServiceLine(chi.URLParam(r, "serviceLine"))
	if !ok {
		h.writeError(w, http.StatusBadRequest, "Unknown service line")
		return
	}

	cats, err := h.repo.ListServiceLineCategories(sl)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if cats == nil {
		cats = []ServiceLineCategory{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories": cats,
	})
}

// HandleOfferingMappings lists the offering pairs mapped to one service line
func (h *Handler) HandleOfferingMappings(w http.ResponseWriter, r *http.Request) {
	sl, ok := domain.ParseServiceLine(chi.URLParam(r, "serviceLine"))
	if !ok {
		h.writeError(w, http.StatusBadRequest, "Unknown service line")
		return
	}

	mappings, err := h.repo.GetOfferingMappings(sl)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if mappings == nil {
		mappings = []OfferingMapping{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"mappings": mappings,
	})
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
