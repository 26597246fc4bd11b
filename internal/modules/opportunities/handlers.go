package opportunities

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/salesops/resource-planner/internal/domain"
)

// Handler handles opportunity HTTP requests
type Handler struct {
	repo *Repository
	log  zerolog.Logger
}

// NewHandler creates a new opportunity handler
func NewHandler(repo *Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "opportunities").Logger(),
	}
}

// Routes mounts the opportunity endpoints
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.HandleList)
	r.Get("/{opportunityID}", h.HandleGet)
}

// HandleList returns all opportunities
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	opps, err := h.repo.List()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if opps == nil {
		opps = []Opportunity{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"opportunities": opps,
	})
}

// HandleGet returns one opportunity with its line items
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	opportunityID := chi.URLParam(r, "opportunityID")

	opp, err := h.repo.GetByID(opportunityID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	items, err := h.repo.GetLineItems(opportunityID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if items == nil {
		items = []LineItem{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"opportunity": opp,
		"line_items":  items,
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
