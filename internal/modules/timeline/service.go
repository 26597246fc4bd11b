package timeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/salesops/resource-planner/internal/domain"
	"github.com/salesops/resource-planner/internal/modules/categories"
	"github.com/salesops/resource-planner/internal/modules/opportunities"
)

// Service implements the timeline lifecycle: generation, status patches,
// interval edits, bulk regeneration and stats.
type Service struct {
	scheduler  *Scheduler
	repo       *Repository
	opps       *opportunities.Repository
	categories *categories.Repository
	resolver   *categories.Resolver
	log        zerolog.Logger
}

// NewService creates a new timeline service
func NewService(
	scheduler *Scheduler,
	repo *Repository,
	oppRepo *opportunities.Repository,
	catRepo *categories.Repository,
	resolver *categories.Resolver,
	log zerolog.Logger,
) *Service {
	return &Service{
		scheduler:  scheduler,
		repo:       repo,
		opps:       oppRepo,
		categories: catRepo,
		resolver:   resolver,
		log:        log.With().Str("service", "timeline").Logger(),
	}
}

// CalculateAndStore regenerates the timeline for one opportunity and
// replaces its stored rows. An uncategorized opportunity yields an empty
// bundle, no error, and no writes. A categorized opportunity whose schedule
// sums to zero FTE fails with ErrZeroEffortTimeline and writes nothing.
func (s *Service) CalculateAndStore(opportunityID string, status domain.ResourceStatus) (*Bundle, int, error) {
	opp, err := s.opps.GetByID(opportunityID)
	if err != nil {
		return nil, 0, err
	}

	return s.calculateAndStore(opp, status)
}

func (s *Service) calculateAndStore(opp *opportunities.Opportunity, status domain.ResourceStatus) (*Bundle, int, error) {
	bundle, err := s.scheduler.BuildTimeline(opp)
	if err != nil {
		return nil, 0, err
	}

	if bundle.Category == "" {
		return bundle, 0, nil
	}
	if bundle.TotalFTE() == 0 {
		return nil, 0, fmt.Errorf("opportunity %s: %w", opp.ID, domain.ErrZeroEffortTimeline)
	}

	now := time.Now().UTC()
	rows := rowsFromBundle(bundle, status, now)
	if err := s.repo.ReplaceForOpportunity(opp.ID, rows); err != nil {
		return nil, 0, err
	}

	s.log.Info().
		Str("opportunity_id", opp.ID).
		Int("rows", len(rows)).
		Str("status", string(status)).
		Msg("Timeline stored")

	return bundle, len(rows), nil
}

// GetTimeline returns the stored rows for one opportunity, which may be
// empty. The opportunity itself must exist.
func (s *Service) GetTimeline(opportunityID string) ([]Row, error) {
	if _, err := s.opps.GetByID(opportunityID); err != nil {
		return nil, err
	}

	return s.repo.GetByOpportunity(opportunityID)
}

// DeleteTimeline removes all stored rows for an opportunity.
func (s *Service) DeleteTimeline(opportunityID string) (int64, error) {
	if _, err := s.opps.GetByID(opportunityID); err != nil {
		return 0, err
	}

	n, err := s.repo.DeleteByOpportunity(opportunityID)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("opportunity %s: %w", opportunityID, domain.ErrNoTimeline)
	}

	return n, nil
}

// PatchStatus assigns a new status to the rows selected by the patch.
func (s *Service) PatchStatus(opportunityID string, patch StatusPatch) (int64, error) {
	status, ok := domain.ParseResourceStatus(patch.Status)
	if !ok {
		return 0, fmt.Errorf("%q: %w", patch.Status, domain.ErrInvalidStatus)
	}

	if _, err := s.opps.GetByID(opportunityID); err != nil {
		return 0, err
	}

	n, err := s.repo.UpdateStatus(opportunityID, patch, status, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("opportunity %s: %w", opportunityID, domain.ErrNoMatchingRows)
	}

	return n, nil
}

// PatchInterval overwrites fields of one stored row and recomputes
// total_effort_weeks.
func (s *Service) PatchInterval(opportunityID string, sl domain.ServiceLine, stage string, patch IntervalPatch) (*Row, error) {
	row, err := s.repo.GetInterval(opportunityID, sl, stage)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("timeline row %s/%s/%s: %w", opportunityID, sl, stage, domain.ErrNotFound)
	}

	if patch.StageStartDate != nil {
		row.StageStartDate = *patch.StageStartDate
	}
	if patch.StageEndDate != nil {
		row.StageEndDate = *patch.StageEndDate
	}
	if patch.DurationWeeks != nil {
		row.DurationWeeks = *patch.DurationWeeks
	}
	if patch.FTERequired != nil {
		row.FTERequired = *patch.FTERequired
	}
	row.TotalEffortWeeks = row.DurationWeeks * row.FTERequired
	row.LastUpdated = time.Now().UTC()

	if err := s.repo.UpdateInterval(row); err != nil {
		return nil, err
	}

	return row, nil
}

// ClearPredicted deletes every machine-generated row across the portfolio.
func (s *Service) ClearPredicted() (int64, error) {
	return s.repo.ClearPredicted()
}

// GenerateBulk walks the whole portfolio and generates or regenerates
// timelines. Regeneration only ever replaces opportunities whose rows are
// all Predicted; Forecast and Planned rows are never overwritten. The run
// never fails as a whole; per-opportunity errors are reported in the
// outcomes.
func (s *Service) GenerateBulk(regeneratePredicted bool) (*BulkReport, error) {
	opps, err := s.opps.List()
	if err != nil {
		return nil, err
	}

	report := &BulkReport{RunID: uuid.NewString()}
	for i := range opps {
		outcome := s.generateOne(&opps[i], regeneratePredicted)
		report.Outcomes = append(report.Outcomes, outcome)

		switch outcome.Action {
		case ActionGenerated:
			report.Generated++
		case ActionUpdated:
			report.Updated++
		case ActionSkipped:
			report.Skipped++
		case ActionError:
			report.Errors++
		}
	}

	s.log.Info().
		Str("run_id", report.RunID).
		Bool("regenerate_predicted", regeneratePredicted).
		Int("generated", report.Generated).
		Int("updated", report.Updated).
		Int("skipped", report.Skipped).
		Int("errors", report.Errors).
		Msg("Bulk generation finished")

	return report, nil
}

func (s *Service) generateOne(opp *opportunities.Opportunity, regeneratePredicted bool) BulkOutcome {
	outcome := BulkOutcome{OpportunityID: opp.ID}

	statuses, err := s.repo.Statuses(opp.ID)
	if err != nil {
		outcome.Action = ActionError
		outcome.Reason = err.Error()
		return outcome
	}
	hasRows := len(statuses) > 0

	eligible, reason := s.Eligibility(opp)

	if !hasRows {
		if !eligible {
			outcome.Action = ActionSkipped
			outcome.Reason = reason
			return outcome
		}
		return s.runGeneration(opp, ActionGenerated)
	}

	if !regeneratePredicted {
		outcome.Action = ActionSkipped
		outcome.Reason = "existing timeline rows"
		return outcome
	}
	for _, st := range statuses {
		if st != domain.StatusPredicted {
			outcome.Action = ActionSkipped
			outcome.Reason = "manually reviewed rows present"
			return outcome
		}
	}
	if !eligible {
		outcome.Action = ActionSkipped
		outcome.Reason = reason
		return outcome
	}

	return s.runGeneration(opp, ActionUpdated)
}

func (s *Service) runGeneration(opp *opportunities.Opportunity, success BulkAction) BulkOutcome {
	outcome := BulkOutcome{OpportunityID: opp.ID}

	_, n, err := s.calculateAndStore(opp, domain.StatusPredicted)
	switch {
	case errors.Is(err, domain.ErrZeroEffortTimeline):
		outcome.Action = ActionSkipped
		outcome.Reason = "zero-effort timeline"
	case err != nil:
		outcome.Action = ActionError
		outcome.Reason = err.Error()
	case n == 0:
		outcome.Action = ActionSkipped
		outcome.Reason = "uncategorized"
	default:
		outcome.Action = success
		outcome.RowsWritten = n
	}

	return outcome
}

// Eligibility checks whether an opportunity can produce a timeline: it
// needs a TCV, a decision date, a resolvable timeline category, and at
// least one resource-planned service line whose revenue resolves to a
// resource category backed by a stage-effort template.
func (s *Service) Eligibility(opp *opportunities.Opportunity) (bool, string) {
	if opp.TCV == nil {
		return false, "no TCV"
	}
	if opp.DecisionDate == nil {
		return false, "no decision date"
	}

	cat, err := s.resolver.ResolveOpportunityCategory(*opp.TCV)
	if err != nil {
		return false, err.Error()
	}
	if cat == nil {
		return false, "no timeline category"
	}

	for _, target := range s.scheduler.targetServiceLines(opp) {
		resourceCat, err := s.resolver.ResolveServiceLineCategory(target.serviceLine, target.revenue)
		if err != nil {
			return false, err.Error()
		}
		if resourceCat == nil {
			continue
		}
		hasEfforts, err := s.categories.HasStageEfforts(target.serviceLine, resourceCat.Name)
		if err != nil {
			return false, err.Error()
		}
		if hasEfforts {
			return true, ""
		}
	}

	return false, "no schedulable service line"
}

// GenerationStats summarises portfolio readiness.
func (s *Service) GenerationStats() (*GenerationStats, error) {
	opps, err := s.opps.List()
	if err != nil {
		return nil, err
	}

	withRows, err := s.repo.OpportunityIDsWithRows()
	if err != nil {
		return nil, err
	}
	withPredicted, err := s.repo.OpportunityIDsWithPredicted()
	if err != nil {
		return nil, err
	}

	stats := &GenerationStats{
		Total:     len(opps),
		Existing:  len(withRows),
		Predicted: len(withPredicted),
	}
	for i := range opps {
		if ok, _ := s.Eligibility(&opps[i]); ok {
			stats.Eligible++
		}
	}

	return stats, nil
}

// rowsFromBundle flattens a computed bundle into persistable rows.
func rowsFromBundle(bundle *Bundle, status domain.ResourceStatus, now time.Time) []Row {
	var rows []Row
	for _, sl := range domain.ResourcePlannedServiceLines {
		for _, iv := range bundle.ServiceLines[sl] {
			decision := bundle.DecisionDate
			rows = append(rows, Row{
				OpportunityID:    bundle.OpportunityID,
				ServiceLine:      sl,
				StageName:        iv.StageName,
				StageStartDate:   iv.StartDate,
				StageEndDate:     iv.EndDate,
				DurationWeeks:    iv.DurationWeeks,
				FTERequired:      iv.FTERequired,
				TotalEffortWeeks: iv.TotalEffortWeeks,
				Category:         bundle.Category,
				ResourceCategory: iv.ResourceCategory,
				DecisionDate:     &decision,
				CalculatedDate:   now,
				LastUpdated:      now,
				ResourceStatus:   status,
			})
		}
	}
	return rows
}
