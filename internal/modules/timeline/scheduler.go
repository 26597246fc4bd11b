package timeline

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/salesops/resource-planner/internal/domain"
	"github.com/salesops/resource-planner/internal/modules/categories"
	"github.com/salesops/resource-planner/internal/modules/opportunities"
)

// Scheduler computes backward-scheduled stage timelines for opportunities.
type Scheduler struct {
	categories *categories.Repository
	resolver   *categories.Resolver
	opps       *opportunities.Repository
	log        zerolog.Logger
}

// NewScheduler creates a new stage scheduler
func NewScheduler(catRepo *categories.Repository, resolver *categories.Resolver, oppRepo *opportunities.Repository, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		categories: catRepo,
		resolver:   resolver,
		opps:       oppRepo,
		log:        log.With().Str("service", "scheduler").Logger(),
	}
}

// BuildTimeline computes the full timeline bundle for one opportunity.
// An uncategorized opportunity (negative or missing TCV, or no matching
// band) yields an empty bundle and no error. A missing decision date is an
// error. Service lines whose configuration is incomplete are skipped with a
// warning, never failed.
func (s *Scheduler) BuildTimeline(opp *opportunities.Opportunity) (*Bundle, error) {
	if opp.DecisionDate == nil {
		return nil, fmt.Errorf("opportunity %s: %w", opp.ID, domain.ErrMissingDecisionDate)
	}

	bundle := &Bundle{
		OpportunityID:      opp.ID,
		DecisionDate:       *opp.DecisionDate,
		ServiceLines:       make(map[domain.ServiceLine][]StageInterval),
		ResourceCategories: make(map[domain.ServiceLine]string),
	}

	if opp.TCV == nil {
		return bundle, nil
	}

	cat, err := s.resolver.ResolveOpportunityCategory(*opp.TCV)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve category for %s: %w", opp.ID, err)
	}
	if cat == nil {
		// Uncategorized is a valid state with nothing to schedule.
		return bundle, nil
	}
	bundle.Category = cat.Name

	items, err := s.opps.GetLineItems(opp.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load line items for %s: %w", opp.ID, err)
	}

	for _, target := range s.targetServiceLines(opp) {
		resourceCat, err := s.resolver.ResolveServiceLineCategory(target.serviceLine, target.revenue)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s category for %s: %w", target.serviceLine, opp.ID, err)
		}
		if resourceCat == nil {
			s.log.Warn().
				Str("opportunity_id", opp.ID).
				Str("service_line", string(target.serviceLine)).
				Float64("revenue", target.revenue).
				Msg("No resource category for service line, skipping")
			continue
		}

		efforts, err := s.categories.GetStageEfforts(target.serviceLine, resourceCat.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to load stage efforts for %s/%s: %w", target.serviceLine, resourceCat.Name, err)
		}
		if len(efforts) == 0 {
			s.log.Warn().
				Str("opportunity_id", opp.ID).
				Str("service_line", string(target.serviceLine)).
				Str("resource_category", resourceCat.Name).
				Msg("No stage effort template, skipping service line")
			continue
		}

		mappings, err := s.categories.GetOfferingMappings(target.serviceLine)
		if err != nil {
			return nil, fmt.Errorf("failed to load offering mappings for %s: %w", target.serviceLine, err)
		}
		offeringCount := CountOfferings(items, mappings)

		intervals, err := s.schedule(opp, cat, target.serviceLine, resourceCat.Name, efforts, offeringCount)
		if err != nil {
			return nil, err
		}

		bundle.ServiceLines[target.serviceLine] = intervals
		bundle.ResourceCategories[target.serviceLine] = resourceCat.Name
	}

	return bundle, nil
}

type scheduleTarget struct {
	serviceLine domain.ServiceLine
	revenue     float64
}

// targetServiceLines picks the resource-planned service lines with positive
// revenue; when none have revenue, a supported lead offering stands in with
// a nominal value.
func (s *Scheduler) targetServiceLines(opp *opportunities.Opportunity) []scheduleTarget {
	var targets []scheduleTarget
	for _, sl := range domain.ResourcePlannedServiceLines {
		if rev := opp.ServiceLineRevenue(sl); rev > 0 {
			targets = append(targets, scheduleTarget{serviceLine: sl, revenue: rev})
		}
	}

	if len(targets) == 0 && opp.LeadOffering != nil {
		if sl, ok := domain.ParseServiceLine(*opp.LeadOffering); ok && sl.IsResourcePlanned() {
			targets = append(targets, scheduleTarget{serviceLine: sl, revenue: 1.0})
		}
	}

	return targets
}

// schedule walks the remaining stages backward from the decision date.
// Stages without both a configured duration and an effort row are skipped
// without advancing the cursor, keeping the emitted chain contiguous.
func (s *Scheduler) schedule(
	opp *opportunities.Opportunity,
	cat *categories.OpportunityCategory,
	sl domain.ServiceLine,
	resourceCategory string,
	efforts map[string]float64,
	offeringCount int,
) ([]StageInterval, error) {
	remaining := domain.RemainingStages(opp.SalesStage)
	cursor := *opp.DecisionDate

	var reversed []StageInterval
	for i := len(remaining) - 1; i >= 0; i-- {
		stage := remaining[i]

		durationWeeks, hasDuration := cat.DurationWeeks(stage)
		baseFTE, hasEffort := efforts[stage]
		if !hasDuration || !hasEffort {
			continue
		}

		threshold, err := s.categories.GetOfferingThreshold(sl, stage)
		if err != nil {
			return nil, fmt.Errorf("failed to load offering threshold for %s/%s: %w", sl, stage, err)
		}
		fte := baseFTE * ApplyThreshold(offeringCount, threshold)

		end := cursor
		start := end.AddDate(0, 0, -int(math.Round(durationWeeks*7)))
		cursor = start

		reversed = append(reversed, StageInterval{
			StageName:        stage,
			StartDate:        start,
			EndDate:          end,
			DurationWeeks:    durationWeeks,
			FTERequired:      fte,
			TotalEffortWeeks: durationWeeks * fte,
			ResourceCategory: resourceCategory,
		})
	}

	// Emitted backward; return chronological.
	out := make([]StageInterval, len(reversed))
	for i, iv := range reversed {
		out[len(reversed)-1-i] = iv
	}

	return out, nil
}
