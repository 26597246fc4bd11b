package forecast

import (
	"fmt"
	"time"

	"github.com/salesops/resource-planner/internal/domain"
)

// Granularity selects the bucket width for portfolio aggregation.
type Granularity string

const (
	GranularityWeek    Granularity = "week"
	GranularityMonth   Granularity = "month"
	GranularityQuarter Granularity = "quarter"
)

// ParseGranularity validates a bucket granularity value.
func ParseGranularity(value string) (Granularity, error) {
	switch Granularity(value) {
	case GranularityWeek, GranularityMonth, GranularityQuarter:
		return Granularity(value), nil
	case "":
		return GranularityWeek, nil
	}
	return "", fmt.Errorf("%q: %w", value, domain.ErrInvalidBucket)
}

// Filter narrows the timeline rows feeding the aggregation. Empty slices
// match everything; a nil window defaults to the stored data's bounds.
type Filter struct {
	ServiceLines []domain.ServiceLine `json:"service_lines,omitempty"`
	Categories   []string             `json:"categories,omitempty"`
	Stages       []string             `json:"stages,omitempty"`       // timeline row stage names
	SalesStages  []string             `json:"sales_stages,omitempty"` // opportunity current sales stage
	Start        *time.Time           `json:"start,omitempty"`
	End          *time.Time           `json:"end,omitempty"`
}

// AggRow is a stored stage interval joined with its opportunity's current
// sales stage.
type AggRow struct {
	OpportunityID string
	ServiceLine   domain.ServiceLine
	StageName     string
	StartDate     time.Time
	EndDate       time.Time
	FTERequired   float64
	EffortWeeks   float64
	Category      string
	SalesStage    string
}

// BucketPoint is the average concurrent FTE over one bucket's in-window
// days, globally and per service line.
type BucketPoint struct {
	Label         string             `json:"label"`
	Start         time.Time          `json:"start"`
	Days          int                `json:"days"`
	TotalFTE      float64            `json:"total_fte"`
	ByServiceLine map[string]float64 `json:"by_service_line"`
}

// StageBucketPoint breaks a bucket's average concurrent FTE down by
// (service line, opportunity current sales stage).
type StageBucketPoint struct {
	Label   string                        `json:"label"`
	Start   time.Time                     `json:"start"`
	Days    int                           `json:"days"`
	ByStage map[string]map[string]float64 `json:"by_stage"` // service line -> sales stage -> FTE
}

// Summary carries the unfiltered portfolio totals.
type Summary struct {
	OpportunityCount         int                `json:"opportunity_count"`
	EffortWeeksByServiceLine map[string]float64 `json:"effort_weeks_by_service_line"`
	EffortWeeksByStage       map[string]float64 `json:"effort_weeks_by_stage"`
	EffortWeeksByCategory    map[string]float64 `json:"effort_weeks_by_category"`
}

// PortfolioForecast is the aggregated demand curve for capacity planning.
type PortfolioForecast struct {
	Granularity      Granularity   `json:"granularity"`
	WindowStart      time.Time     `json:"window_start"`
	WindowEnd        time.Time     `json:"window_end"`
	Buckets          []BucketPoint `json:"buckets"`
	Summary          Summary       `json:"summary"`
	MissingTimelines int           `json:"missing_timelines"`
}

// StageResourceForecast is the stacked-by-current-stage variant of the
// demand curve.
type StageResourceForecast struct {
	Granularity Granularity        `json:"granularity"`
	WindowStart time.Time          `json:"window_start"`
	WindowEnd   time.Time          `json:"window_end"`
	Buckets     []StageBucketPoint `json:"buckets"`
}

// Bounds reports the earliest stage start and latest stage end stored.
type Bounds struct {
	EarliestStart *time.Time `json:"earliest_start"`
	LatestEnd     *time.Time `json:"latest_end"`
}
