package forecast

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/salesops/resource-planner/internal/domain"
)

const dateLayout = "2006-01-02"

// Repository is the read path of the aggregator: stored timeline rows
// joined with their opportunity's current sales stage.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new forecast repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "forecast").Logger(),
	}
}

// QueryRows returns the rows overlapping the window and matching the
// filters. Start and End must be set by the caller.
func (r *Repository) QueryRows(filter Filter) ([]AggRow, error) {
	query := `
		SELECT t.opportunity_id, t.service_line, t.stage_name,
		       t.stage_start_date, t.stage_end_date, t.fte_required, t.total_effort_weeks,
		       COALESCE(t.category, ''), COALESCE(o.sales_stage, '')
		FROM opportunity_resource_timelines t
		LEFT JOIN opportunities o ON o.opportunity_id = t.opportunity_id
		WHERE t.stage_start_date <= ? AND t.stage_end_date >= ?`
	args := []interface{}{filter.End.Format(dateLayout), filter.Start.Format(dateLayout)}

	if len(filter.ServiceLines) > 0 {
		query += " AND t.service_line IN (" + placeholders(len(filter.ServiceLines)) + ")"
		for _, sl := range filter.ServiceLines {
			args = append(args, string(sl))
		}
	}
	if len(filter.Categories) > 0 {
		query += " AND t.category IN (" + placeholders(len(filter.Categories)) + ")"
		for _, c := range filter.Categories {
			args = append(args, c)
		}
	}
	if len(filter.Stages) > 0 {
		query += " AND t.stage_name IN (" + placeholders(len(filter.Stages)) + ")"
		for _, st := range filter.Stages {
			args = append(args, st)
		}
	}
	if len(filter.SalesStages) > 0 {
		query += " AND o.sales_stage IN (" + placeholders(len(filter.SalesStages)) + ")"
		for _, st := range filter.SalesStages {
			args = append(args, st)
		}
	}

	query += " ORDER BY t.opportunity_id, t.service_line, t.stage_start_date"

	return r.query(query, args...)
}

// ListAll returns every stored row with its sales stage, unfiltered.
func (r *Repository) ListAll() ([]AggRow, error) {
	return r.query(`
		SELECT t.opportunity_id, t.service_line, t.stage_name,
		       t.stage_start_date, t.stage_end_date, t.fte_required, t.total_effort_weeks,
		       COALESCE(t.category, ''), COALESCE(o.sales_stage, '')
		FROM opportunity_resource_timelines t
		LEFT JOIN opportunities o ON o.opportunity_id = t.opportunity_id
		ORDER BY t.opportunity_id, t.service_line, t.stage_start_date
	`)
}

// Bounds returns the earliest stage start and latest stage end stored, or
// nils when the table is empty.
func (r *Repository) Bounds() (*time.Time, *time.Time, error) {
	var minStart, maxEnd sql.NullString
	err := r.db.QueryRow(`
		SELECT MIN(stage_start_date), MAX(stage_end_date)
		FROM opportunity_resource_timelines
	`).Scan(&minStart, &maxEnd)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query timeline bounds: %w", err)
	}

	var start, end *time.Time
	if minStart.Valid && minStart.String != "" {
		t, err := time.Parse(dateLayout, minStart.String)
		if err != nil {
			return nil, nil, fmt.Errorf("bad stage_start_date %q: %w", minStart.String, err)
		}
		start = &t
	}
	if maxEnd.Valid && maxEnd.String != "" {
		t, err := time.Parse(dateLayout, maxEnd.String)
		if err != nil {
			return nil, nil, fmt.Errorf("bad stage_end_date %q: %w", maxEnd.String, err)
		}
		end = &t
	}

	return start, end, nil
}

func (r *Repository) query(query string, args ...interface{}) ([]AggRow, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecast rows: %w", err)
	}
	defer rows.Close()

	var out []AggRow
	for rows.Next() {
		var row AggRow
		var serviceLine, startDate, endDate string

		err := rows.Scan(
			&row.OpportunityID,
			&serviceLine,
			&row.StageName,
			&startDate,
			&endDate,
			&row.FTERequired,
			&row.EffortWeeks,
			&row.Category,
			&row.SalesStage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan forecast row: %w", err)
		}

		row.ServiceLine = domain.ServiceLine(serviceLine)
		if row.StartDate, err = time.Parse(dateLayout, startDate); err != nil {
			return nil, fmt.Errorf("bad stage_start_date %q: %w", startDate, err)
		}
		if row.EndDate, err = time.Parse(dateLayout, endDate); err != nil {
			return nil, fmt.Errorf("bad stage_end_date %q: %w", endDate, err)
		}

		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating forecast rows: %w", err)
	}

	return out, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
