package timeline

import (
	"strings"

	"github.com/salesops/resource-planner/internal/modules/categories"
	"github.com/salesops/resource-planner/internal/modules/opportunities"
)

// CountOfferings counts the distinct simplified offerings on an
// opportunity's line items that are mapped to a service line. A line item
// counts only when both internal_service and simplified_offering match a
// mapping exactly; offerings are deduplicated after trimming.
func CountOfferings(items []opportunities.LineItem, mappings []categories.OfferingMapping) int {
	if len(mappings) == 0 {
		return 0
	}

	mapped := make(map[[2]string]bool, len(mappings))
	for _, m := range mappings {
		mapped[[2]string{m.InternalService, m.SimplifiedOffering}] = true
	}

	seen := make(map[string]bool)
	for _, item := range items {
		offering := strings.TrimSpace(item.SimplifiedOffering)
		if offering == "" {
			continue
		}
		if !mapped[[2]string{item.InternalService, item.SimplifiedOffering}] {
			continue
		}
		seen[offering] = true
	}

	return len(seen)
}

// ApplyThreshold derives the FTE scaling factor from an offering count.
// A nil threshold, or a count at or under the threshold, means no scaling.
func ApplyThreshold(count int, threshold *categories.OfferingThreshold) float64 {
	if threshold == nil {
		return 1.0
	}
	if count <= threshold.ThresholdCount {
		return 1.0
	}
	return 1.0 + float64(count-threshold.ThresholdCount)*threshold.IncrementMultiplier
}
