package domain

// ServiceLine represents a business unit code
type ServiceLine string

const (
	ServiceLineCES  ServiceLine = "CES"
	ServiceLineINS  ServiceLine = "INS"
	ServiceLineBPS  ServiceLine = "BPS"
	ServiceLineSEC  ServiceLine = "SEC"
	ServiceLineITOC ServiceLine = "ITOC"
	ServiceLineMW   ServiceLine = "MW"
)

// RevenueServiceLines is the closed set of revenue-bearing service lines,
// in the order revenue columns are stored on an opportunity.
var RevenueServiceLines = []ServiceLine{
	ServiceLineCES,
	ServiceLineINS,
	ServiceLineBPS,
	ServiceLineSEC,
	ServiceLineITOC,
	ServiceLineMW,
}

// ResourcePlannedServiceLines is the subset for which resource timelines
// are generated.
var ResourcePlannedServiceLines = []ServiceLine{
	ServiceLineMW,
	ServiceLineITOC,
}

// IsResourcePlanned reports whether timelines are generated for this
// service line.
func (s ServiceLine) IsResourcePlanned() bool {
	for _, sl := range ResourcePlannedServiceLines {
		if s == sl {
			return true
		}
	}
	return false
}

// ParseServiceLine validates a service line code against the revenue-bearing set.
func ParseServiceLine(code string) (ServiceLine, bool) {
	sl := ServiceLine(code)
	for _, known := range RevenueServiceLines {
		if sl == known {
			return sl, true
		}
	}
	return "", false
}

// StageOrder is the fixed ordered list of sales stage codes.
var StageOrder = []string{"01", "02", "03", "04A", "04B", "05A", "05B", "06"}

// StageIndex returns the position of a stage code in StageOrder, or -1 if
// the code is unknown.
func StageIndex(stage string) int {
	for i, s := range StageOrder {
		if s == stage {
			return i
		}
	}
	return -1
}

// RemainingStages returns the suffix of StageOrder beginning at the current
// stage. Unknown or empty stage codes are treated as "01" (all stages remain).
func RemainingStages(current string) []string {
	idx := StageIndex(current)
	if idx < 0 {
		idx = 0
	}
	out := make([]string, len(StageOrder)-idx)
	copy(out, StageOrder[idx:])
	return out
}

// ResourceStatus is the lifecycle status of a timeline row
type ResourceStatus string

const (
	StatusPredicted ResourceStatus = "Predicted" // machine-generated, overwritable
	StatusForecast  ResourceStatus = "Forecast"  // human-reviewed
	StatusPlanned   ResourceStatus = "Planned"   // committed
)

// ParseResourceStatus validates a status value against the enum.
func ParseResourceStatus(value string) (ResourceStatus, bool) {
	switch ResourceStatus(value) {
	case StatusPredicted, StatusForecast, StatusPlanned:
		return ResourceStatus(value), true
	}
	return "", false
}
