package timeline

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/salesops/resource-planner/internal/domain"
)

const (
	dateLayout = "2006-01-02"
)

// Repository handles timeline-row database operations. The delete-then-
// insert of one opportunity's rows always runs in a single transaction so
// readers see either the old set or the new set.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new timeline repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "timeline").Logger(),
	}
}

const rowColumns = `id, opportunity_id, service_line, stage_name,
	stage_start_date, stage_end_date, duration_weeks, fte_required, total_effort_weeks,
	category, resource_category, decision_date, calculated_date, last_updated, resource_status`

// ReplaceForOpportunity atomically swaps all rows of one opportunity.
func (r *Repository) ReplaceForOpportunity(opportunityID string, rows []Row) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM opportunity_resource_timelines WHERE opportunity_id = ?", opportunityID); err != nil {
		return fmt.Errorf("failed to delete timeline rows for %s: %w", opportunityID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO opportunity_resource_timelines (
			opportunity_id, service_line, stage_name,
			stage_start_date, stage_end_date, duration_weeks, fte_required, total_effort_weeks,
			category, resource_category, decision_date, calculated_date, last_updated, resource_status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare timeline insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		var decisionDate sql.NullString
		if row.DecisionDate != nil {
			decisionDate = sql.NullString{String: row.DecisionDate.Format(dateLayout), Valid: true}
		}

		_, err := stmt.Exec(
			row.OpportunityID,
			string(row.ServiceLine),
			row.StageName,
			row.StageStartDate.Format(dateLayout),
			row.StageEndDate.Format(dateLayout),
			row.DurationWeeks,
			row.FTERequired,
			row.TotalEffortWeeks,
			row.Category,
			row.ResourceCategory,
			decisionDate,
			row.CalculatedDate.Format(time.RFC3339),
			row.LastUpdated.Format(time.RFC3339),
			string(row.ResourceStatus),
		)
		if err != nil {
			return fmt.Errorf("failed to insert timeline row %s/%s/%s: %w", row.OpportunityID, row.ServiceLine, row.StageName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit timeline replace for %s: %w", opportunityID, err)
	}

	return nil
}

// GetByOpportunity returns all rows for an opportunity in chronological
// order per service line.
func (r *Repository) GetByOpportunity(opportunityID string) ([]Row, error) {
	query := "SELECT " + rowColumns + ` FROM opportunity_resource_timelines
		WHERE opportunity_id = ?
		ORDER BY service_line, stage_start_date`

	return r.queryRows(query, opportunityID)
}

// DeleteByOpportunity removes all rows for an opportunity and returns the
// deleted count.
func (r *Repository) DeleteByOpportunity(opportunityID string) (int64, error) {
	res, err := r.db.Exec("DELETE FROM opportunity_resource_timelines WHERE opportunity_id = ?", opportunityID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete timeline rows for %s: %w", opportunityID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted rows for %s: %w", opportunityID, err)
	}

	return n, nil
}

// UpdateStatus assigns a new status to the rows selected by the patch and
// returns the number updated.
func (r *Repository) UpdateStatus(opportunityID string, patch StatusPatch, status domain.ResourceStatus, now time.Time) (int64, error) {
	query := `UPDATE opportunity_resource_timelines
		SET resource_status = ?, last_updated = ?
		WHERE opportunity_id = ?`
	args := []interface{}{string(status), now.Format(time.RFC3339), opportunityID}

	if patch.ServiceLine != nil {
		query += " AND service_line = ?"
		args = append(args, string(*patch.ServiceLine))
	}
	if patch.StageName != nil {
		query += " AND stage_name = ?"
		args = append(args, *patch.StageName)
	}

	res, err := r.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update status for %s: %w", opportunityID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count updated rows for %s: %w", opportunityID, err)
	}

	return n, nil
}

// GetInterval returns the single row for (opportunity, service line, stage),
// or nil when absent.
func (r *Repository) GetInterval(opportunityID string, sl domain.ServiceLine, stage string) (*Row, error) {
	query := "SELECT " + rowColumns + ` FROM opportunity_resource_timelines
		WHERE opportunity_id = ? AND service_line = ? AND stage_name = ?`

	rows, err := r.queryRows(query, opportunityID, string(sl), stage)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	return &rows[0], nil
}

// UpdateInterval overwrites the mutable fields of one row.
func (r *Repository) UpdateInterval(row *Row) error {
	_, err := r.db.Exec(`
		UPDATE opportunity_resource_timelines
		SET stage_start_date = ?, stage_end_date = ?, duration_weeks = ?,
		    fte_required = ?, total_effort_weeks = ?, last_updated = ?
		WHERE id = ?
	`,
		row.StageStartDate.Format(dateLayout),
		row.StageEndDate.Format(dateLayout),
		row.DurationWeeks,
		row.FTERequired,
		row.TotalEffortWeeks,
		row.LastUpdated.Format(time.RFC3339),
		row.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update timeline row %d: %w", row.ID, err)
	}

	return nil
}

// ClearPredicted deletes every Predicted row across all opportunities.
func (r *Repository) ClearPredicted() (int64, error) {
	res, err := r.db.Exec("DELETE FROM opportunity_resource_timelines WHERE resource_status = ?", string(domain.StatusPredicted))
	if err != nil {
		return 0, fmt.Errorf("failed to clear predicted rows: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared rows: %w", err)
	}

	return n, nil
}

// Statuses returns the distinct statuses present on an opportunity's rows.
func (r *Repository) Statuses(opportunityID string) ([]domain.ResourceStatus, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT resource_status FROM opportunity_resource_timelines
		WHERE opportunity_id = ?
	`, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query statuses for %s: %w", opportunityID, err)
	}
	defer rows.Close()

	var statuses []domain.ResourceStatus
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan status: %w", err)
		}
		statuses = append(statuses, domain.ResourceStatus(s))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating statuses: %w", err)
	}

	return statuses, nil
}

// OpportunityIDsWithRows returns the set of opportunities that have stored
// timeline rows.
func (r *Repository) OpportunityIDsWithRows() (map[string]bool, error) {
	rows, err := r.db.Query("SELECT DISTINCT opportunity_id FROM opportunity_resource_timelines")
	if err != nil {
		return nil, fmt.Errorf("failed to query opportunities with rows: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan opportunity id: %w", err)
		}
		ids[id] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating opportunity ids: %w", err)
	}

	return ids, nil
}

// OpportunityIDsWithPredicted returns the set of opportunities that have at
// least one Predicted row.
func (r *Repository) OpportunityIDsWithPredicted() (map[string]bool, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT opportunity_id FROM opportunity_resource_timelines
		WHERE resource_status = ?
	`, string(domain.StatusPredicted))
	if err != nil {
		return nil, fmt.Errorf("failed to query opportunities with predicted rows: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan opportunity id: %w", err)
		}
		ids[id] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating opportunity ids: %w", err)
	}

	return ids, nil
}

// Bounds returns the earliest stage start and latest stage end across all
// rows, or nils when no rows exist.
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

// ListAll returns every stored row.
func (r *Repository) ListAll() ([]Row, error) {
	query := "SELECT " + rowColumns + ` FROM opportunity_resource_timelines
		ORDER BY opportunity_id, service_line, stage_start_date`

	return r.queryRows(query)
}

func (r *Repository) queryRows(query string, args ...interface{}) ([]Row, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query timeline rows: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan timeline row: %w", err)
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating timeline rows: %w", err)
	}

	return out, nil
}

func scanRow(rows *sql.Rows) (Row, error) {
	var row Row
	var serviceLine, status string
	var startDate, endDate string
	var category, resourceCategory, decisionDate sql.NullString
	var calculatedDate, lastUpdated string

	err := rows.Scan(
		&row.ID,
		&row.OpportunityID,
		&serviceLine,
		&row.StageName,
		&startDate,
		&endDate,
		&row.DurationWeeks,
		&row.FTERequired,
		&row.TotalEffortWeeks,
		&category,
		&resourceCategory,
		&decisionDate,
		&calculatedDate,
		&lastUpdated,
		&status,
	)
	if err != nil {
		return row, err
	}

	row.ServiceLine = domain.ServiceLine(serviceLine)
	row.ResourceStatus = domain.ResourceStatus(status)
	if category.Valid {
		row.Category = category.String
	}
	if resourceCategory.Valid {
		row.ResourceCategory = resourceCategory.String
	}

	if row.StageStartDate, err = time.Parse(dateLayout, startDate); err != nil {
		return row, fmt.Errorf("bad stage_start_date %q: %w", startDate, err)
	}
	if row.StageEndDate, err = time.Parse(dateLayout, endDate); err != nil {
		return row, fmt.Errorf("bad stage_end_date %q: %w", endDate, err)
	}
	if decisionDate.Valid && decisionDate.String != "" {
		d, err := time.Parse(dateLayout, decisionDate.String)
		if err != nil {
			return row, fmt.Errorf("bad decision_date %q: %w", decisionDate.String, err)
		}
		row.DecisionDate = &d
	}
	if row.CalculatedDate, err = time.Parse(time.RFC3339, calculatedDate); err != nil {
		return row, fmt.Errorf("bad calculated_date %q: %w", calculatedDate, err)
	}
	if row.LastUpdated, err = time.Parse(time.RFC3339, lastUpdated); err != nil {
		return row, fmt.Errorf("bad last_updated %q: %w", lastUpdated, err)
	}

	return row, nil
}
