package forecast

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/salesops/resource-planner/internal/domain"
)

// Handler handles forecast HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new forecast handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "forecast").Logger(),
	}
}

// Routes mounts the forecast endpoints
func (h *Handler) Routes(r chi.Router) {
	r.Get("/portfolio", h.HandlePortfolio)
	r.Get("/stage-resource", h.HandleStageResource)
	r.Get("/bounds", h.HandleBounds)
}

// HandlePortfolio returns the bucketed concurrent-FTE demand curve
func (h *Handler) HandlePortfolio(w http.ResponseWriter, r *http.Request) {
	filter, granularity, err := parseQuery(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.PortfolioForecast(filter, granularity)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleStageResource returns the demand curve stacked by current sales stage
func (h *Handler) HandleStageResource(w http.ResponseWriter, r *http.Request) {
	filter, granularity, err := parseQuery(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.StageResource(filter, granularity)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleBounds returns the stored timeline date range
func (h *Handler) HandleBounds(w http.ResponseWriter, r *http.Request) {
	bounds, err := h.service.TimelineBounds()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, bounds)
}

func parseQuery(r *http.Request) (Filter, Granularity, error) {
	granularity, err := ParseGranularity(r.URL.Query().Get("bucket"))
	if err != nil {
		return Filter{}, "", err
	}

	var filter Filter
	for _, code := range splitParam(r.URL.Query().Get("service_lines")) {
		sl, ok := domain.ParseServiceLine(code)
		if !ok {
			return Filter{}, "", errors.New("unknown service line " + code)
		}
		filter.ServiceLines = append(filter.ServiceLines, sl)
	}
	filter.Categories = splitParam(r.URL.Query().Get("categories"))
	filter.Stages = splitParam(r.URL.Query().Get("stages"))
	filter.SalesStages = splitParam(r.URL.Query().Get("sales_stages"))

	if v := r.URL.Query().Get("start"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return Filter{}, "", errors.New("bad start date " + v)
		}
		filter.Start = &t
	}
	if v := r.URL.Query().Get("end"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return Filter{}, "", errors.New("bad end date " + v)
		}
		filter.End = &t
	}

	return filter, granularity, nil
}

func splitParam(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
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
