package forecast

import (
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/salesops/resource-planner/internal/domain"
	"github.com/salesops/resource-planner/internal/modules/opportunities"
)

// EligibilityChecker decides whether an opportunity could produce a
// timeline; the timeline service implements it.
type EligibilityChecker interface {
	Eligibility(opp *opportunities.Opportunity) (bool, string)
}

// CategoryResolver maps a TCV onto a timeline category name, used when a
// category filter is applied to the missing-timelines count.
type CategoryResolver interface {
	ResolveOpportunityCategoryName(tcv float64) (string, error)
}

// Service aggregates stored stage intervals into time-bucketed concurrent
// FTE demand curves.
type Service struct {
	repo     *Repository
	opps     *opportunities.Repository
	checker  EligibilityChecker
	resolver CategoryResolver
	log      zerolog.Logger
}

// NewService creates a new forecast service
func NewService(
	repo *Repository,
	oppRepo *opportunities.Repository,
	checker EligibilityChecker,
	resolver CategoryResolver,
	log zerolog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		opps:     oppRepo,
		checker:  checker,
		resolver: resolver,
		log:      log.With().Str("service", "forecast").Logger(),
	}
}

// PortfolioForecast expands the filtered stage intervals into daily
// concurrent FTE and averages them into buckets. Stages overlap across
// service lines and opportunities, so planning needs simultaneous FTE per
// day rather than summed durations.
func (s *Service) PortfolioForecast(filter Filter, granularity Granularity) (*PortfolioForecast, error) {
	windowStart, windowEnd, err := s.resolveWindow(&filter)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.QueryRows(filter)
	if err != nil {
		return nil, err
	}

	dailyTotal := make(map[time.Time]float64)
	dailyBySL := make(map[time.Time]map[domain.ServiceLine]float64)
	serviceLines := make(map[domain.ServiceLine]bool)

	for _, row := range rows {
		serviceLines[row.ServiceLine] = true
		for _, d := range overlapDays(row, windowStart, windowEnd) {
			dailyTotal[d] += row.FTERequired
			if dailyBySL[d] == nil {
				dailyBySL[d] = make(map[domain.ServiceLine]float64)
			}
			dailyBySL[d][row.ServiceLine] += row.FTERequired
		}
	}

	var buckets []BucketPoint
	for start := bucketStart(windowStart, granularity); !start.After(windowEnd); start = nextBucket(start, granularity) {
		days := bucketDays(start, granularity, windowStart, windowEnd)
		if len(days) == 0 {
			continue
		}

		point := BucketPoint{
			Label:         bucketLabel(start, granularity),
			Start:         start,
			Days:          len(days),
			ByServiceLine: make(map[string]float64),
		}

		totals := make([]float64, len(days))
		for i, d := range days {
			totals[i] = dailyTotal[d]
		}
		point.TotalFTE = stat.Mean(totals, nil)

		for sl := range serviceLines {
			series := make([]float64, len(days))
			for i, d := range days {
				series[i] = dailyBySL[d][sl]
			}
			point.ByServiceLine[string(sl)] = stat.Mean(series, nil)
		}

		buckets = append(buckets, point)
	}

	summary, withRows, err := s.summarise()
	if err != nil {
		return nil, err
	}

	missing, err := s.countMissingTimelines(filter, withRows)
	if err != nil {
		return nil, err
	}

	return &PortfolioForecast{
		Granularity:      granularity,
		WindowStart:      windowStart,
		WindowEnd:        windowEnd,
		Buckets:          buckets,
		Summary:          summary,
		MissingTimelines: missing,
	}, nil
}

// StageResource is the stacked variant: each daily contribution is credited
// to the opportunity's current sales stage rather than the row's stage.
func (s *Service) StageResource(filter Filter, granularity Granularity) (*StageResourceForecast, error) {
	windowStart, windowEnd, err := s.resolveWindow(&filter)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.QueryRows(filter)
	if err != nil {
		return nil, err
	}

	type key struct {
		sl    domain.ServiceLine
		stage string
	}
	daily := make(map[time.Time]map[key]float64)
	keys := make(map[key]bool)

	for _, row := range rows {
		stage := row.SalesStage
		if domain.StageIndex(stage) < 0 {
			stage = "01"
		}
		k := key{sl: row.ServiceLine, stage: stage}
		keys[k] = true
		for _, d := range overlapDays(row, windowStart, windowEnd) {
			if daily[d] == nil {
				daily[d] = make(map[key]float64)
			}
			daily[d][k] += row.FTERequired
		}
	}

	var buckets []StageBucketPoint
	for start := bucketStart(windowStart, granularity); !start.After(windowEnd); start = nextBucket(start, granularity) {
		days := bucketDays(start, granularity, windowStart, windowEnd)
		if len(days) == 0 {
			continue
		}

		point := StageBucketPoint{
			Label:   bucketLabel(start, granularity),
			Start:   start,
			Days:    len(days),
			ByStage: make(map[string]map[string]float64),
		}

		for k := range keys {
			series := make([]float64, len(days))
			for i, d := range days {
				series[i] = daily[d][k]
			}
			sl := string(k.sl)
			if point.ByStage[sl] == nil {
				point.ByStage[sl] = make(map[string]float64)
			}
			point.ByStage[sl][k.stage] = stat.Mean(series, nil)
		}

		buckets = append(buckets, point)
	}

	return &StageResourceForecast{
		Granularity: granularity,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Buckets:     buckets,
	}, nil
}

// TimelineBounds reports the earliest start and latest end of stored rows.
func (s *Service) TimelineBounds() (*Bounds, error) {
	start, end, err := s.repo.Bounds()
	if err != nil {
		return nil, err
	}
	return &Bounds{EarliestStart: start, LatestEnd: end}, nil
}

// resolveWindow fills missing window edges from the stored data's bounds.
func (s *Service) resolveWindow(filter *Filter) (time.Time, time.Time, error) {
	var start, end time.Time

	if filter.Start != nil {
		start = dayOf(*filter.Start)
	}
	if filter.End != nil {
		end = dayOf(*filter.End)
	}

	if filter.Start == nil || filter.End == nil {
		boundStart, boundEnd, err := s.repo.Bounds()
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		today := dayOf(time.Now().UTC())
		if filter.Start == nil {
			if boundStart != nil {
				start = *boundStart
			} else {
				start = today
			}
		}
		if filter.End == nil {
			if boundEnd != nil {
				end = *boundEnd
			} else {
				end = today
			}
		}
	}

	if end.Before(start) {
		end = start
	}

	filter.Start = &start
	filter.End = &end
	return start, end, nil
}

// summarise computes the unfiltered portfolio totals and the set of
// opportunities that have rows.
func (s *Service) summarise() (Summary, map[string]bool, error) {
	rows, err := s.repo.ListAll()
	if err != nil {
		return Summary{}, nil, err
	}

	summary := Summary{
		EffortWeeksByServiceLine: make(map[string]float64),
		EffortWeeksByStage:       make(map[string]float64),
		EffortWeeksByCategory:    make(map[string]float64),
	}
	withRows := make(map[string]bool)

	for _, row := range rows {
		withRows[row.OpportunityID] = true
		summary.EffortWeeksByServiceLine[string(row.ServiceLine)] += row.EffortWeeks
		summary.EffortWeeksByStage[row.StageName] += row.EffortWeeks
		if row.Category != "" {
			summary.EffortWeeksByCategory[row.Category] += row.EffortWeeks
		}
	}
	summary.OpportunityCount = len(withRows)

	return summary, withRows, nil
}

// countMissingTimelines counts opportunities that pass the eligibility
// predicate but have no stored rows, honouring any category or service-line
// filters.
func (s *Service) countMissingTimelines(filter Filter, withRows map[string]bool) (int, error) {
	opps, err := s.opps.List()
	if err != nil {
		return 0, err
	}

	missing := 0
	for i := range opps {
		opp := &opps[i]
		if withRows[opp.ID] {
			continue
		}
		if ok, _ := s.checker.Eligibility(opp); !ok {
			continue
		}

		if len(filter.ServiceLines) > 0 {
			hasRevenue := false
			for _, sl := range filter.ServiceLines {
				if opp.ServiceLineRevenue(sl) > 0 {
					hasRevenue = true
					break
				}
			}
			if !hasRevenue {
				continue
			}
		}

		if len(filter.Categories) > 0 {
			if opp.TCV == nil {
				continue
			}
			name, err := s.resolver.ResolveOpportunityCategoryName(*opp.TCV)
			if err != nil {
				return 0, err
			}
			matched := false
			for _, c := range filter.Categories {
				if c == name {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}

		missing++
	}

	return missing, nil
}

// overlapDays lists the calendar days where a row intersects the window.
func overlapDays(row AggRow, windowStart, windowEnd time.Time) []time.Time {
	if row.EndDate.Before(row.StartDate) {
		return nil
	}

	start := row.StartDate
	if start.Before(windowStart) {
		start = windowStart
	}
	end := row.EndDate
	if end.After(windowEnd) {
		end = windowEnd
	}
	if end.Before(start) {
		return nil
	}

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// bucketDays lists the bucket's days that fall inside the window.
func bucketDays(start time.Time, g Granularity, windowStart, windowEnd time.Time) []time.Time {
	bucketEnd := nextBucket(start, g).AddDate(0, 0, -1)

	from := start
	if from.Before(windowStart) {
		from = windowStart
	}
	to := bucketEnd
	if to.After(windowEnd) {
		to = windowEnd
	}

	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
