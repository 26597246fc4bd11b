package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/salesops/resource-planner/internal/database"
	"github.com/salesops/resource-planner/internal/domain"
	"github.com/salesops/resource-planner/internal/modules/categories"
	"github.com/salesops/resource-planner/internal/modules/opportunities"
	"github.com/salesops/resource-planner/pkg/logger"
)

type testEnv struct {
	db        *database.DB
	opps      *opportunities.Repository
	cats      *categories.Repository
	resolver  *categories.Resolver
	scheduler *Scheduler
	repo      *Repository
	service   *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	log := logger.New(logger.Config{Level: "error"})
	oppRepo := opportunities.NewRepository(db.Conn(), log)
	catRepo := categories.NewRepository(db.Conn(), log)
	resolver := categories.NewResolver(catRepo, log)
	scheduler := NewScheduler(catRepo, resolver, oppRepo, log)
	repo := NewRepository(db.Conn(), log)
	service := NewService(scheduler, repo, oppRepo, catRepo, resolver, log)

	return &testEnv{
		db:        db,
		opps:      oppRepo,
		cats:      catRepo,
		resolver:  resolver,
		scheduler: scheduler,
		repo:      repo,
		service:   service,
	}
}

func date(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func fptr(v float64) *float64 { return &v }

// seedSmallDeal configures a "Sub $5M" band with a 4-week 04A stage and an
// MW effort of 0.5 FTE at 04A.
func (env *testEnv) seedSmallDeal(t *testing.T) {
	t.Helper()

	require.NoError(t, env.cats.InsertOpportunityCategory(&categories.OpportunityCategory{
		Name:          "Sub $5M",
		MinTCV:        0,
		MaxTCV:        fptr(5),
		Stage04AWeeks: fptr(4),
	}))
	require.NoError(t, env.cats.InsertServiceLineCategory(&categories.ServiceLineCategory{
		ServiceLine: domain.ServiceLineMW,
		Name:        "Sub $5M",
		MinTCV:      0,
		MaxTCV:      fptr(5),
	}))
	require.NoError(t, env.cats.InsertStageEffort(&categories.StageEffort{
		ServiceLine:         domain.ServiceLineMW,
		ServiceLineCategory: "Sub $5M",
		StageName:           "04A",
		FTERequired:         0.5,
	}))
}

func (env *testEnv) seedOpportunity(t *testing.T, opp *opportunities.Opportunity) {
	t.Helper()
	require.NoError(t, env.opps.Upsert(opp))
}

func TestBuildTimeline_SingleStageNoMultiplier(t *testing.T) {
	env := newTestEnv(t)
	env.seedSmallDeal(t)

	decision := date("2025-06-02") // Monday
	opp := &opportunities.Opportunity{
		ID:           "OPP-1",
		TCV:          fptr(3),
		DecisionDate: &decision,
		SalesStage:   "04A",
		MWRevenue:    3,
	}
	env.seedOpportunity(t, opp)

	bundle, err := env.scheduler.BuildTimeline(opp)
	require.NoError(t, err)
	require.Equal(t, "Sub $5M", bundle.Category)
	require.Equal(t, "Sub $5M", bundle.ResourceCategories[domain.ServiceLineMW])

	intervals := bundle.ServiceLines[domain.ServiceLineMW]
	require.Len(t, intervals, 1)

	iv := intervals[0]
	require.Equal(t, "04A", iv.StageName)
	require.Equal(t, date("2025-05-05"), iv.StartDate)
	require.Equal(t, date("2025-06-02"), iv.EndDate)
	require.Equal(t, 4.0, iv.DurationWeeks)
	require.InDelta(t, 0.5, iv.FTERequired, 1e-9)
	require.InDelta(t, 2.0, iv.TotalEffortWeeks, 1e-9)
}

func TestBuildTimeline_OfferingMultiplier(t *testing.T) {
	env := newTestEnv(t)
	env.seedSmallDeal(t)

	require.NoError(t, env.cats.InsertOfferingThreshold(&categories.OfferingThreshold{
		ServiceLine:         domain.ServiceLineMW,
		StageName:           "04A",
		ThresholdCount:      4,
		IncrementMultiplier: 0.2,
	}))

	decision := date("2025-06-02")
	opp := &opportunities.Opportunity{
		ID:           "OPP-2",
		TCV:          fptr(3),
		DecisionDate: &decision,
		SalesStage:   "04A",
		MWRevenue:    3,
	}
	env.seedOpportunity(t, opp)

	offerings := []string{"o1", "o2", "o3", "o4", "o5", "o6"}
	for _, offering := range offerings {
		require.NoError(t, env.cats.InsertOfferingMapping(&categories.OfferingMapping{
			ServiceLine:        domain.ServiceLineMW,
			InternalService:    "Cloud",
			SimplifiedOffering: offering,
		}))
		require.NoError(t, env.opps.InsertLineItem(&opportunities.LineItem{
			OpportunityID:      "OPP-2",
			InternalService:    "Cloud",
			SimplifiedOffering: offering,
		}))
	}

	bundle, err := env.scheduler.BuildTimeline(opp)
	require.NoError(t, err)

	intervals := bundle.ServiceLines[domain.ServiceLineMW]
	require.Len(t, intervals, 1)

	// 0.5 x (1 + (6-4) x 0.2) = 0.7
	require.InDelta(t, 0.7, intervals[0].FTERequired, 1e-9)
	require.InDelta(t, 2.8, intervals[0].TotalEffortWeeks, 1e-9)
}

func TestBuildTimeline_BackwardChaining(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.cats.InsertOpportunityCategory(&categories.OpportunityCategory{
		Name:          "Cat B",
		MinTCV:        25,
		MaxTCV:        fptr(100),
		Stage03Weeks:  fptr(4),
		Stage04AWeeks: fptr(15),
	}))
	require.NoError(t, env.cats.InsertServiceLineCategory(&categories.ServiceLineCategory{
		ServiceLine: domain.ServiceLineMW,
		Name:        "Cat B",
		MinTCV:      25,
		MaxTCV:      fptr(100),
	}))
	require.NoError(t, env.cats.InsertStageEffort(&categories.StageEffort{
		ServiceLine:         domain.ServiceLineMW,
		ServiceLineCategory: "Cat B",
		StageName:           "03",
		FTERequired:         0.25,
	}))
	require.NoError(t, env.cats.InsertStageEffort(&categories.StageEffort{
		ServiceLine:         domain.ServiceLineMW,
		ServiceLineCategory: "Cat B",
		StageName:           "04A",
		FTERequired:         2.0,
	}))

	decision := date("2025-12-31")
	opp := &opportunities.Opportunity{
		ID:           "OPP-3",
		TCV:          fptr(30),
		DecisionDate: &decision,
		SalesStage:   "03",
		MWRevenue:    30,
	}
	env.seedOpportunity(t, opp)

	bundle, err := env.scheduler.BuildTimeline(opp)
	require.NoError(t, err)

	intervals := bundle.ServiceLines[domain.ServiceLineMW]
	require.Len(t, intervals, 2)

	require.Equal(t, "03", intervals[0].StageName)
	require.Equal(t, date("2025-08-20"), intervals[0].StartDate)
	require.Equal(t, date("2025-09-17"), intervals[0].EndDate)

	require.Equal(t, "04A", intervals[1].StageName)
	require.Equal(t, date("2025-09-17"), intervals[1].StartDate)
	require.Equal(t, date("2025-12-31"), intervals[1].EndDate)

	// Contiguous backward chain ending at the decision date.
	require.Equal(t, intervals[0].EndDate, intervals[1].StartDate)
	require.Equal(t, decision, intervals[1].EndDate)
}

func TestBuildTimeline_UncategorizedIsEmptyNotError(t *testing.T) {
	env := newTestEnv(t)
	env.seedSmallDeal(t)

	decision := date("2025-06-02")
	opp := &opportunities.Opportunity{
		ID:           "OPP-4",
		TCV:          fptr(-2),
		DecisionDate: &decision,
		SalesStage:   "03",
		MWRevenue:    5,
	}
	env.seedOpportunity(t, opp)

	bundle, err := env.scheduler.BuildTimeline(opp)
	require.NoError(t, err)
	require.Empty(t, bundle.Category)
	require.True(t, bundle.IsEmpty())
}

func TestBuildTimeline_MissingDecisionDate(t *testing.T) {
	env := newTestEnv(t)
	env.seedSmallDeal(t)

	opp := &opportunities.Opportunity{
		ID:         "OPP-5",
		TCV:        fptr(3),
		SalesStage: "04A",
		MWRevenue:  3,
	}
	env.seedOpportunity(t, opp)

	_, err := env.scheduler.BuildTimeline(opp)
	require.ErrorIs(t, err, domain.ErrMissingDecisionDate)
}

func TestBuildTimeline_LeadOfferingFallback(t *testing.T) {
	env := newTestEnv(t)
	env.seedSmallDeal(t)

	decision := date("2025-06-02")
	lead := "MW"
	opp := &opportunities.Opportunity{
		ID:           "OPP-6",
		TCV:          fptr(3),
		DecisionDate: &decision,
		SalesStage:   "04A",
		LeadOffering: &lead,
	}
	env.seedOpportunity(t, opp)

	bundle, err := env.scheduler.BuildTimeline(opp)
	require.NoError(t, err)

	// No MW revenue, but the lead offering stands in with a nominal value.
	require.Len(t, bundle.ServiceLines[domain.ServiceLineMW], 1)
}

func TestBuildTimeline_UnknownStageTreatedAsFirst(t *testing.T) {
	env := newTestEnv(t)
	env.seedSmallDeal(t)

	decision := date("2025-06-02")
	opp := &opportunities.Opportunity{
		ID:           "OPP-7",
		TCV:          fptr(3),
		DecisionDate: &decision,
		SalesStage:   "banana",
		MWRevenue:    3,
	}
	env.seedOpportunity(t, opp)

	bundle, err := env.scheduler.BuildTimeline(opp)
	require.NoError(t, err)

	// All stages remain, but only 04A has both a duration and an effort row.
	intervals := bundle.ServiceLines[domain.ServiceLineMW]
	require.Len(t, intervals, 1)
	require.Equal(t, "04A", intervals[0].StageName)
	require.Equal(t, date("2025-06-02"), intervals[0].EndDate)
}
