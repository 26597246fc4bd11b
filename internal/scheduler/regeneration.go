package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/salesops/resource-planner/internal/modules/timeline"
)

// RegenerationJob refreshes every Predicted timeline overnight so the
// demand curves track loader updates without manual intervention.
// Forecast and Planned rows are never touched.
type RegenerationJob struct {
	service *timeline.Service
	log     zerolog.Logger
}

// NewRegenerationJob creates a new nightly regeneration job
func NewRegenerationJob(service *timeline.Service, log zerolog.Logger) *RegenerationJob {
	return &RegenerationJob{
		service: service,
		log:     log.With().Str("job", "regeneration").Logger(),
	}
}

// Name returns the job name
func (j *RegenerationJob) Name() string {
	return "timeline_regeneration"
}

// Run executes one bulk generation pass with regeneration enabled
func (j *RegenerationJob) Run() error {
	report, err := j.service.GenerateBulk(true)
	if err != nil {
		return err
	}

	j.log.Info().
		Str("run_id", report.RunID).
		Int("generated", report.Generated).
		Int("updated", report.Updated).
		Int("skipped", report.Skipped).
		Int("errors", report.Errors).
		Msg("Nightly regeneration complete")

	return nil
}
