package opportunities

import (
	"time"

	"github.com/salesops/resource-planner/internal/domain"
)

// Opportunity is a sales opportunity as written by the upstream loader.
// Monetary values are in millions. Nil pointers mean the loader supplied
// no value; per-service-line revenues default to zero.
type Opportunity struct {
	ID           string     `json:"opportunity_id"`
	Name         string     `json:"name"`
	TCV          *float64   `json:"tcv"`
	DecisionDate *time.Time `json:"decision_date"`
	SalesStage   string     `json:"sales_stage"`
	LeadOffering *string    `json:"lead_offering"`
	CESRevenue   float64    `json:"ces_revenue"`
	INSRevenue   float64    `json:"ins_revenue"`
	BPSRevenue   float64    `json:"bps_revenue"`
	SECRevenue   float64    `json:"sec_revenue"`
	ITOCRevenue  float64    `json:"itoc_revenue"`
	MWRevenue    float64    `json:"mw_revenue"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ServiceLineRevenue returns the revenue attributed to a service line.
func (o *Opportunity) ServiceLineRevenue(sl domain.ServiceLine) float64 {
	switch sl {
	case domain.ServiceLineCES:
		return o.CESRevenue
	case domain.ServiceLineINS:
		return o.INSRevenue
	case domain.ServiceLineBPS:
		return o.BPSRevenue
	case domain.ServiceLineSEC:
		return o.SECRevenue
	case domain.ServiceLineITOC:
		return o.ITOCRevenue
	case domain.ServiceLineMW:
		return o.MWRevenue
	}
	return 0
}

// LineItem is a child record of an opportunity. The core consumes only the
// taxonomy fields; amounts surface in reports.
type LineItem struct {
	ID                 int64   `json:"id"`
	OpportunityID      string  `json:"opportunity_id"`
	InternalService    string  `json:"internal_service"`
	SimplifiedOffering string  `json:"simplified_offering"`
	Amount             float64 `json:"amount"`
}
