package scheduler

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/salesops/resource-planner/internal/database"
)

// HealthCheckJob pings the database periodically so connection problems
// surface in the logs before a request hits them.
type HealthCheckJob struct {
	db  *database.DB
	log zerolog.Logger
}

// NewHealthCheckJob creates a new health check job
func NewHealthCheckJob(db *database.DB, log zerolog.Logger) *HealthCheckJob {
	return &HealthCheckJob{
		db:  db,
		log: log.With().Str("job", "health_check").Logger(),
	}
}

// Name returns the job name
func (j *HealthCheckJob) Name() string {
	return "health_check"
}

// Run pings the database
func (j *HealthCheckJob) Run() error {
	if err := j.db.Conn().Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
