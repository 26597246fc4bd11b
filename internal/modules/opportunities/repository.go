package opportunities

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/salesops/resource-planner/internal/domain"
)

const dateLayout = "2006-01-02"

// Repository handles opportunity and line-item database operations.
// The core only reads; Upsert exists for the upstream loader and for tests.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new opportunity repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "opportunities").Logger(),
	}
}

const opportunityColumns = `opportunity_id, name, tcv, decision_date, sales_stage, lead_offering,
	ces_revenue, ins_revenue, bps_revenue, sec_revenue, itoc_revenue, mw_revenue,
	created_at, updated_at`

// GetByID returns one opportunity, or domain.ErrNotFound.
func (r *Repository) GetByID(id string) (*Opportunity, error) {
	query := "SELECT " + opportunityColumns + " FROM opportunities WHERE opportunity_id = ?"

	rows, err := r.db.Query(query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query opportunity %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("opportunity %s: %w", id, domain.ErrNotFound)
	}

	opp, err := scanOpportunity(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan opportunity %s: %w", id, err)
	}

	return &opp, nil
}

// List returns all opportunities ordered by id. Bulk generation iterates
// this; portfolios are small enough to hold in memory.
func (r *Repository) List() ([]Opportunity, error) {
	query := "SELECT " + opportunityColumns + " FROM opportunities ORDER BY opportunity_id"

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query opportunities: %w", err)
	}
	defer rows.Close()

	var opps []Opportunity
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan opportunity: %w", err)
		}
		opps = append(opps, opp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating opportunities: %w", err)
	}

	return opps, nil
}

// Count returns the number of stored opportunities.
func (r *Repository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM opportunities").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count opportunities: %w", err)
	}
	return n, nil
}

// GetLineItems returns all line items for an opportunity.
func (r *Repository) GetLineItems(opportunityID string) ([]LineItem, error) {
	query := `
		SELECT id, opportunity_id, internal_service, simplified_offering, amount
		FROM opportunity_line_items
		WHERE opportunity_id = ?
		ORDER BY id
	`

	rows, err := r.db.Query(query, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query line items for %s: %w", opportunityID, err)
	}
	defer rows.Close()

	var items []LineItem
	for rows.Next() {
		var item LineItem
		var internalService, simplifiedOffering sql.NullString
		var amount sql.NullFloat64

		if err := rows.Scan(&item.ID, &item.OpportunityID, &internalService, &simplifiedOffering, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		if internalService.Valid {
			item.InternalService = internalService.String
		}
		if simplifiedOffering.Valid {
			item.SimplifiedOffering = simplifiedOffering.String
		}
		if amount.Valid {
			item.Amount = amount.Float64
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line items: %w", err)
	}

	return items, nil
}

// Upsert writes an opportunity record. Loader-owned write path; the core
// never calls this.
func (r *Repository) Upsert(opp *Opportunity) error {
	now := time.Now().UTC().Format(time.RFC3339)

	var tcv sql.NullFloat64
	if opp.TCV != nil {
		tcv = sql.NullFloat64{Float64: *opp.TCV, Valid: true}
	}
	var decisionDate sql.NullString
	if opp.DecisionDate != nil {
		decisionDate = sql.NullString{String: opp.DecisionDate.Format(dateLayout), Valid: true}
	}
	var leadOffering sql.NullString
	if opp.LeadOffering != nil {
		leadOffering = sql.NullString{String: *opp.LeadOffering, Valid: true}
	}

	_, err := r.db.Exec(`
		INSERT INTO opportunities (
			opportunity_id, name, tcv, decision_date, sales_stage, lead_offering,
			ces_revenue, ins_revenue, bps_revenue, sec_revenue, itoc_revenue, mw_revenue,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(opportunity_id) DO UPDATE SET
			name = excluded.name,
			tcv = excluded.tcv,
			decision_date = excluded.decision_date,
			sales_stage = excluded.sales_stage,
			lead_offering = excluded.lead_offering,
			ces_revenue = excluded.ces_revenue,
			ins_revenue = excluded.ins_revenue,
			bps_revenue = excluded.bps_revenue,
			sec_revenue = excluded.sec_revenue,
			itoc_revenue = excluded.itoc_revenue,
			mw_revenue = excluded.mw_revenue,
			updated_at = excluded.updated_at
	`, opp.ID, opp.Name, tcv, decisionDate, opp.SalesStage, leadOffering,
		opp.CESRevenue, opp.INSRevenue, opp.BPSRevenue, opp.SECRevenue,
		opp.ITOCRevenue, opp.MWRevenue, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert opportunity %s: %w", opp.ID, err)
	}

	return nil
}

// InsertLineItem appends a line item. Loader-owned write path.
func (r *Repository) InsertLineItem(item *LineItem) error {
	res, err := r.db.Exec(`
		INSERT INTO opportunity_line_items (opportunity_id, internal_service, simplified_offering, amount)
		VALUES (?, ?, ?, ?)
	`, item.OpportunityID, item.InternalService, item.SimplifiedOffering, item.Amount)
	if err != nil {
		return fmt.Errorf("failed to insert line item for %s: %w", item.OpportunityID, err)
	}

	id, err := res.LastInsertId()
	if err == nil {
		item.ID = id
	}

	return nil
}

func scanOpportunity(rows *sql.Rows) (Opportunity, error) {
	var opp Opportunity
	var name, salesStage, decisionDate, leadOffering, createdAt, updatedAt sql.NullString
	var tcv, ces, ins, bps, sec, itoc, mw sql.NullFloat64

	err := rows.Scan(
		&opp.ID,
		&name,
		&tcv,
		&decisionDate,
		&salesStage,
		&leadOffering,
		&ces, &ins, &bps, &sec, &itoc, &mw,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return opp, err
	}

	if name.Valid {
		opp.Name = name.String
	}
	if salesStage.Valid {
		opp.SalesStage = salesStage.String
	}
	if tcv.Valid {
		v := tcv.Float64
		opp.TCV = &v
	}
	if decisionDate.Valid && decisionDate.String != "" {
		d, err := time.Parse(dateLayout, decisionDate.String)
		if err != nil {
			return opp, fmt.Errorf("bad decision_date %q: %w", decisionDate.String, err)
		}
		opp.DecisionDate = &d
	}
	if leadOffering.Valid && leadOffering.String != "" {
		s := leadOffering.String
		opp.LeadOffering = &s
	}
	opp.CESRevenue = nullToZero(ces)
	opp.INSRevenue = nullToZero(ins)
	opp.BPSRevenue = nullToZero(bps)
	opp.SECRevenue = nullToZero(sec)
	opp.ITOCRevenue = nullToZero(itoc)
	opp.MWRevenue = nullToZero(mw)

	if createdAt.Valid {
		if t, err := time.Parse(time.RFC3339, createdAt.String); err == nil {
			opp.CreatedAt = t
		}
	}
	if updatedAt.Valid {
		if t, err := time.Parse(time.RFC3339, updatedAt.String); err == nil {
			opp.UpdatedAt = t
		}
	}

	return opp, nil
}

func nullToZero(v sql.NullFloat64) float64 {
	if v.Valid {
		return v.Float64
	}
	return 0
}
