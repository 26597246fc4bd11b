package timeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/salesops/resource-planner/internal/domain"
	"github.com/salesops/resource-planner/internal/modules/categories"
	"github.com/salesops/resource-planner/internal/modules/opportunities"
)

func seedSmallOpp(t *testing.T, env *testEnv, id string) *opportunities.Opportunity {
	t.Helper()

	decision := date("2025-06-02")
	opp := &opportunities.Opportunity{
		ID:           id,
		TCV:          fptr(3),
		DecisionDate: &decision,
		SalesStage:   "04A",
		MWRevenue:    3,
	}
	env.seedOpportunity(t, opp)
	return opp
}

func TestCalculateAndStore_PersistsPredictedRows(t *testing.T) {
	env := newTestEnv(t)
	env.seedSmallDeal(t)
	seedSmallOpp(t, env, "OPP-1")

	bundle, n, err := env.service.CalculateAndStore("OPP-1", domain.StatusPredicted)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, "Sub $5M", bundle.Category)

	rows, err := env.service.GetTimeline("OPP-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, domain.StatusPredicted, rows[0].ResourceStatus)
	require.Equal(t, domain.ServiceLineMW, rows[0].ServiceLine)
	require.Equal(t, date("2025-05-05"), rows[0].StageStartDate)
	require.Equal(t, date("2025-06-02"), rows[0].StageEndDate)
	require.InDelta(t, 2.0, rows[0].TotalEffortWeeks, 1e-9)
}

func TestCalculateAndStore_UncategorizedWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	env.seedSmallDeal(t)

	decision := date("2025-06-02")
	opp := &opportunities.Opportunity{
		ID:           "OPP-NEG",
		TCV:          fptr(-2),
		DecisionDate: &decision,
		SalesStage:   "04A",
		MWRevenue:    3,
	}
	env.seedOpportunity(t, opp)

	bundle, n, err := env.service.CalculateAndStore("OPP-NEG", domain.StatusPredicted)
	require.NoError(t, err)
	require.Zero(t, n)
	require.True(t, bundle.IsEmpty())

	rows, err := env.service.GetTimeline("OPP-NEG")
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestCalculateAndStore_ZeroEffortFails(t *testing.T) {
	env := newTestEnv(t)

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
		FTERequired:         0,
	}))
	seedSmallOpp(t, env, "OPP-ZERO")

	_, _, err := env.service.CalculateAndStore("OPP-ZERO", domain.StatusPredicted)
	require.ErrorIs(t, err, domain.ErrZeroEffortTimeline)

	rows, err := env.service.GetTimeline("OPP-ZERO")
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestCalculateAndStore_UnknownOpportunity(t *testing.T) {
	env := newTestEnv(t)
	env.seedSmallDeal(t)

	_, _, err := env.service.CalculateAndStore("missing", domain.StatusPredicted)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteTimeline(t *testing.T) {
	env := newTestEnv(t)
	env.seedSmallDeal(t)
	seedSmallOpp(t, env, "OPP-1")

	_, err := env.service.DeleteTimeline("OPP-1")
	require.ErrorIs(t, err, domain.ErrNoTimeline)

	_, _, err = env.service.CalculateAndStore("OPP-1", domain.StatusPredicted)
	require.NoError(t, err)

	n, err := env.service.DeleteTimeline("OPP-1")
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestPatchStatus(t *testing.T) {
	env := newTestEnv(t)
	env.seedSmallDeal(t)
	seedSmallOpp(t, env, "OPP-1")

	_, _, err := env.service.CalculateAndStore("OPP-1", domain.StatusPredicted)
	require.NoError(t, err)

	_, err = env.service.PatchStatus("OPP-1", StatusPatch{Status: "Approved"})
	require.ErrorIs(t, err, domain.ErrInvalidStatus)

	stage := "05A"
	_, err = env.service.PatchStatus("OPP-1", StatusPatch{StageName: &stage, Status: "Planned"})
	require.ErrorIs(t, err, domain.ErrNoMatchingRows)

	n, err := env.service.PatchStatus("OPP-1", StatusPatch{Status: "Planned"})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	rows, err := env.service.GetTimeline("OPP-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusPlanned, rows[0].ResourceStatus)
}

func TestPatchInterval_RecomputesTotalEffort(t *testing.T) {
	env := newTestEnv(t)
	env.seedSmallDeal(t)
	seedSmallOpp(t, env, "OPP-1")

	_, _, err := env.service.CalculateAndStore("OPP-1", domain.StatusPredicted)
	require.NoError(t, err)

	fte := 1.5
	row, err := env.service.PatchInterval("OPP-1", domain.ServiceLineMW, "04A", IntervalPatch{FTERequired: &fte})
	require.NoError(t, err)
	require.InDelta(t, 1.5, row.FTERequired, 1e-9)
	require.InDelta(t, 6.0, row.TotalEffortWeeks, 1e-9)

	_, err = env.service.PatchInterval("OPP-1", domain.ServiceLineITOC, "04A", IntervalPatch{FTERequired: &fte})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGenerateBulk_Counts(t *testing.T) {
	env := newTestEnv(t)
	env.seedSmallDeal(t)
	seedSmallOpp(t, env, "OPP-1")

	// Missing decision date makes this one ineligible.
	env.seedOpportunity(t, &opportunities.Opportunity{
		ID:         "OPP-2",
		TCV:        fptr(3),
		SalesStage: "04A",
		MWRevenue:  3,
	})

	report, err := env.service.GenerateBulk(false)
	require.NoError(t, err)
	require.NotEmpty(t, report.RunID)
	require.Equal(t, 1, report.Generated)
	require.Equal(t, 0, report.Updated)
	require.Equal(t, 1, report.Skipped)
	require.Equal(t, 0, report.Errors)
	require.Len(t, report.Outcomes, 2)
}

func TestGenerateBulk_SkipsExistingWithoutRegenerate(t *testing.T) {
	env := newTestEnv(t)
	env.seedSmallDeal(t)
	seedSmallOpp(t, env, "OPP-1")

	_, err := env.service.GenerateBulk(false)
	require.NoError(t, err)

	report, err := env.service.GenerateBulk(false)
	require.NoError(t, err)
	require.Equal(t, 0, report.Generated)
	require.Equal(t, 1, report.Skipped)
	require.Equal(t, "existing timeline rows", report.Outcomes[0].Reason)
}

func TestGenerateBulk_PreservesReviewedRows(t *testing.T) {
	env := newTestEnv(t)
	env.seedSmallDeal(t)
	seedSmallOpp(t, env, "OPP-1")

	_, err := env.service.GenerateBulk(true)
	require.NoError(t, err)

	stage := "04A"
	_, err = env.service.PatchStatus("OPP-1", StatusPatch{StageName: &stage, Status: "Planned"})
	require.NoError(t, err)

	before, err := env.service.GetTimeline("OPP-1")
	require.NoError(t, err)

	report, err := env.service.GenerateBulk(true)
	require.NoError(t, err)
	require.Equal(t, 0, report.Generated)
	require.Equal(t, 0, report.Updated)
	require.Equal(t, 1, report.Skipped)
	require.Equal(t, "manually reviewed rows present", report.Outcomes[0].Reason)

	after, err := env.service.GetTimeline("OPP-1")
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestGenerateBulk_RegenerationIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.seedSmallDeal(t)
	seedSmallOpp(t, env, "OPP-1")

	first, err := env.service.GenerateBulk(true)
	require.NoError(t, err)
	require.Equal(t, 1, first.Generated)

	before, err := env.service.GetTimeline("OPP-1")
	require.NoError(t, err)

	second, err := env.service.GenerateBulk(true)
	require.NoError(t, err)
	require.Equal(t, 0, second.Generated)
	require.Equal(t, 1, second.Updated)

	after, err := env.service.GetTimeline("OPP-1")
	require.NoError(t, err)
	require.Len(t, after, len(before))

	// Same schedule modulo row ids and generation timestamps.
	for i := range before {
		require.Equal(t, before[i].ServiceLine, after[i].ServiceLine)
		require.Equal(t, before[i].StageName, after[i].StageName)
		require.Equal(t, before[i].StageStartDate, after[i].StageStartDate)
		require.Equal(t, before[i].StageEndDate, after[i].StageEndDate)
		require.Equal(t, before[i].DurationWeeks, after[i].DurationWeeks)
		require.Equal(t, before[i].FTERequired, after[i].FTERequired)
		require.Equal(t, before[i].TotalEffortWeeks, after[i].TotalEffortWeeks)
		require.Equal(t, before[i].ResourceStatus, after[i].ResourceStatus)
	}
}

func TestClearPredicted(t *testing.T) {
	env := newTestEnv(t)
	env.seedSmallDeal(t)
	seedSmallOpp(t, env, "OPP-1")
	seedSmallOpp(t, env, "OPP-2")

	_, err := env.service.GenerateBulk(false)
	require.NoError(t, err)

	_, err = env.service.PatchStatus("OPP-2", StatusPatch{Status: "Forecast"})
	require.NoError(t, err)

	n, err := env.service.ClearPredicted()
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	rows, err := env.service.GetTimeline("OPP-2")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestGenerationStats(t *testing.T) {
	env := newTestEnv(t)
	env.seedSmallDeal(t)
	seedSmallOpp(t, env, "OPP-1")
	env.seedOpportunity(t, &opportunities.Opportunity{
		ID:         "OPP-2",
		TCV:        fptr(3),
		SalesStage: "04A",
		MWRevenue:  3,
	})

	_, _, err := env.service.CalculateAndStore("OPP-1", domain.StatusPredicted)
	require.NoError(t, err)

	stats, err := env.service.GenerationStats()
	require.NoError(t, err)
	require.Equal(t, 2, stats.Total)
	require.Equal(t, 1, stats.Eligible)
	require.Equal(t, 1, stats.Existing)
	require.Equal(t, 1, stats.Predicted)
}

func TestEligibility(t *testing.T) {
	env := newTestEnv(t)
	env.seedSmallDeal(t)

	decision := date("2025-06-02")

	tests := []struct {
		name   string
		opp    *opportunities.Opportunity
		want   bool
		reason string
	}{
		{
			"eligible",
			&opportunities.Opportunity{ID: "a", TCV: fptr(3), DecisionDate: &decision, MWRevenue: 3},
			true, "",
		},
		{
			"no tcv",
			&opportunities.Opportunity{ID: "b", DecisionDate: &decision, MWRevenue: 3},
			false, "no TCV",
		},
		{
			"no decision date",
			&opportunities.Opportunity{ID: "c", TCV: fptr(3), MWRevenue: 3},
			false, "no decision date",
		},
		{
			"no timeline category",
			&opportunities.Opportunity{ID: "d", TCV: fptr(-1), DecisionDate: &decision, MWRevenue: 3},
			false, "no timeline category",
		},
		{
			"no schedulable service line",
			&opportunities.Opportunity{ID: "e", TCV: fptr(3), DecisionDate: &decision, ITOCRevenue: 3},
			false, "no schedulable service line",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := env.service.Eligibility(tt.opp)
			require.Equal(t, tt.want, ok)
			require.Equal(t, tt.reason, reason)
		})
	}
}
