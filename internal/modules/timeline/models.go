package timeline

import (
	"time"

	"github.com/salesops/resource-planner/internal/domain"
)

// Row is a materialized stage interval for one opportunity and service line.
type Row struct {
	ID               int64                 `json:"id"`
	OpportunityID    string                `json:"opportunity_id"`
	ServiceLine      domain.ServiceLine    `json:"service_line"`
	StageName        string                `json:"stage_name"`
	StageStartDate   time.Time             `json:"stage_start_date"`
	StageEndDate     time.Time             `json:"stage_end_date"`
	DurationWeeks    float64               `json:"duration_weeks"`
	FTERequired      float64               `json:"fte_required"`
	TotalEffortWeeks float64               `json:"total_effort_weeks"`
	Category         string                `json:"category"`
	ResourceCategory string                `json:"resource_category"`
	DecisionDate     *time.Time            `json:"decision_date"`
	CalculatedDate   time.Time             `json:"calculated_date"`
	LastUpdated      time.Time             `json:"last_updated"`
	ResourceStatus   domain.ResourceStatus `json:"resource_status"`
}

// StageInterval is one scheduled stage before persistence.
type StageInterval struct {
	StageName        string    `json:"stage_name"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	DurationWeeks    float64   `json:"duration_weeks"`
	FTERequired      float64   `json:"fte_required"`
	TotalEffortWeeks float64   `json:"total_effort_weeks"`
	ResourceCategory string    `json:"resource_category"`
}

// Bundle is the computed timeline for one opportunity across its planned
// service lines. An empty Category marks an uncategorized opportunity:
// a valid state with nothing to schedule.
type Bundle struct {
	OpportunityID      string                                 `json:"opportunity_id"`
	Category           string                                 `json:"category"`
	DecisionDate       time.Time                              `json:"decision_date"`
	ServiceLines       map[domain.ServiceLine][]StageInterval `json:"service_lines"`
	ResourceCategories map[domain.ServiceLine]string          `json:"resource_categories"`
}

// TotalFTE sums fte_required over every emitted interval.
func (b *Bundle) TotalFTE() float64 {
	var sum float64
	for _, intervals := range b.ServiceLines {
		for _, iv := range intervals {
			sum += iv.FTERequired
		}
	}
	return sum
}

// IsEmpty reports whether nothing was scheduled.
func (b *Bundle) IsEmpty() bool {
	for _, intervals := range b.ServiceLines {
		if len(intervals) > 0 {
			return false
		}
	}
	return true
}

// BulkAction classifies the outcome of bulk generation for one opportunity.
type BulkAction string

const (
	ActionGenerated BulkAction = "generated"
	ActionUpdated   BulkAction = "updated"
	ActionSkipped   BulkAction = "skipped"
	ActionError     BulkAction = "error"
)

// BulkOutcome is the per-opportunity result of a bulk generation run.
type BulkOutcome struct {
	OpportunityID string     `json:"opportunity_id"`
	Action        BulkAction `json:"action"`
	Reason        string     `json:"reason,omitempty"`
	RowsWritten   int        `json:"rows_written,omitempty"`
}

// BulkReport summarises one bulk generation run.
type BulkReport struct {
	RunID     string        `json:"run_id"`
	Generated int           `json:"generated"`
	Updated   int           `json:"updated"`
	Skipped   int           `json:"skipped"`
	Errors    int           `json:"errors"`
	Outcomes  []BulkOutcome `json:"outcomes"`
}

// GenerationStats describes portfolio readiness for bulk generation.
type GenerationStats struct {
	Total     int `json:"total"`     // opportunities stored
	Eligible  int `json:"eligible"`  // pass the eligibility predicate
	Existing  int `json:"existing"`  // have stored timeline rows
	Predicted int `json:"predicted"` // have at least one Predicted row
}

// StatusPatch selects rows of one opportunity and assigns a new status.
// Nil selectors match every row.
type StatusPatch struct {
	ServiceLine *domain.ServiceLine `json:"service_line,omitempty"`
	StageName   *string             `json:"stage_name,omitempty"`
	Status      string              `json:"status"`
}

// IntervalPatch overwrites fields of exactly one timeline row. Nil fields
// are left unchanged; total_effort_weeks is recomputed.
type IntervalPatch struct {
	StageStartDate *time.Time `json:"stage_start_date,omitempty"`
	StageEndDate   *time.Time `json:"stage_end_date,omitempty"`
	DurationWeeks  *float64   `json:"duration_weeks,omitempty"`
	FTERequired    *float64   `json:"fte_required,omitempty"`
}
