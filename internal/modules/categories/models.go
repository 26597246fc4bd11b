package categories

import "github.com/salesops/resource-planner/internal/domain"

// OpportunityCategory is a global TCV band. MaxTCV nil means unbounded.
// Stage durations are in weeks; a nil duration means the stage is not
// scheduled for this band.
type OpportunityCategory struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	MinTCV        float64  `json:"min_tcv"`
	MaxTCV        *float64 `json:"max_tcv"`
	Stage01Weeks  *float64 `json:"stage_01_weeks"`
	Stage02Weeks  *float64 `json:"stage_02_weeks"`
	Stage03Weeks  *float64 `json:"stage_03_weeks"`
	Stage04AWeeks *float64 `json:"stage_04a_weeks"`
	Stage04BWeeks *float64 `json:"stage_04b_weeks"`
	Stage05AWeeks *float64 `json:"stage_05a_weeks"`
	Stage05BWeeks *float64 `json:"stage_05b_weeks"`
	Stage06Weeks  *float64 `json:"stage_06_weeks"`
}

// DurationWeeks returns the duration for a stage code and whether one is
// configured.
func (c *OpportunityCategory) DurationWeeks(stage string) (float64, bool) {
	var v *float64
	switch stage {
	case "01":
		v = c.Stage01Weeks
	case "02":
		v = c.Stage02Weeks
	case "03":
		v = c.Stage03Weeks
	case "04A":
		v = c.Stage04AWeeks
	case "04B":
		v = c.Stage04BWeeks
	case "05A":
		v = c.Stage05AWeeks
	case "05B":
		v = c.Stage05BWeeks
	case "06":
		v = c.Stage06Weeks
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// ServiceLineCategory is a TCV band scoped to one service line.
type ServiceLineCategory struct {
	ID          int64              `json:"id"`
	ServiceLine domain.ServiceLine `json:"service_line"`
	Name        string             `json:"name"`
	MinTCV      float64            `json:"min_tcv"`
	MaxTCV      *float64           `json:"max_tcv"`
}

// StageEffort is an FTE template row keyed by
// (service_line, service_line_category, stage_name).
type StageEffort struct {
	ID                  int64              `json:"id"`
	ServiceLine         domain.ServiceLine `json:"service_line"`
	ServiceLineCategory string             `json:"service_line_category"`
	StageName           string             `json:"stage_name"`
	FTERequired         float64            `json:"fte_required"`
}

// OfferingThreshold configures the offering multiplier for
// (service_line, stage_name). Absence of a row means no multiplier applies.
type OfferingThreshold struct {
	ID                  int64              `json:"id"`
	ServiceLine         domain.ServiceLine `json:"service_line"`
	StageName           string             `json:"stage_name"`
	ThresholdCount      int                `json:"threshold_count"`
	IncrementMultiplier float64            `json:"increment_multiplier"`
}

// OfferingMapping asserts that a line item with both fields matching counts
// as a distinct offering toward the service line.
type OfferingMapping struct {
	ID                 int64              `json:"id"`
	ServiceLine        domain.ServiceLine `json:"service_line"`
	InternalService    string             `json:"internal_service"`
	SimplifiedOffering string             `json:"simplified_offering"`
}
