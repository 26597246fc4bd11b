package categories

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/salesops/resource-planner/internal/domain"
)

// Repository handles configuration-table lookups. Configuration is seeded by
// the operator and read-only to the core.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new configuration repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "categories").Logger(),
	}
}

// ListOpportunityCategories returns all global TCV bands ordered by min_tcv.
func (r *Repository) ListOpportunityCategories() ([]OpportunityCategory, error) {
	rows, err := r.db.Query(`
		SELECT id, name, min_tcv, max_tcv,
		       stage_01_weeks, stage_02_weeks, stage_03_weeks, stage_04a_weeks,
		       stage_04b_weeks, stage_05a_weeks, stage_05b_weeks, stage_06_weeks
		FROM opportunity_categories
		ORDER BY min_tcv
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query opportunity categories: %w", err)
	}
	defer rows.Close()

	var cats []OpportunityCategory
	for rows.Next() {
		var c OpportunityCategory
		var maxTCV sql.NullFloat64
		weeks := make([]sql.NullFloat64, 8)

		if err := rows.Scan(&c.ID, &c.Name, &c.MinTCV, &maxTCV,
			&weeks[0], &weeks[1], &weeks[2], &weeks[3],
			&weeks[4], &weeks[5], &weeks[6], &weeks[7]); err != nil {
			return nil, fmt.Errorf("failed to scan opportunity category: %w", err)
		}

		if maxTCV.Valid {
			v := maxTCV.Float64
			c.MaxTCV = &v
		}
		c.Stage01Weeks = nullFloat(weeks[0])
		c.Stage02Weeks = nullFloat(weeks[1])
		c.Stage03Weeks = nullFloat(weeks[2])
		c.Stage04AWeeks = nullFloat(weeks[3])
		c.Stage04BWeeks = nullFloat(weeks[4])
		c.Stage05AWeeks = nullFloat(weeks[5])
		c.Stage05BWeeks = nullFloat(weeks[6])
		c.Stage06Weeks = nullFloat(weeks[7])

		cats = append(cats, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating opportunity categories: %w", err)
	}

	return cats, nil
}

// GetOpportunityCategoryByName returns one band, or nil if absent.
func (r *Repository) GetOpportunityCategoryByName(name string) (*OpportunityCategory, error) {
	cats, err := r.ListOpportunityCategories()
	if err != nil {
		return nil, err
	}
	for i := range cats {
		if cats[i].Name == name {
			return &cats[i], nil
		}
	}
	return nil, nil
}

// ListServiceLineCategories returns the TCV bands for one service line.
func (r *Repository) ListServiceLineCategories(sl domain.ServiceLine) ([]ServiceLineCategory, error) {
	rows, err := r.db.Query(`
		SELECT id, service_line, name, min_tcv, max_tcv
		FROM service_line_categories
		WHERE service_line = ?
		ORDER BY min_tcv
	`, string(sl))
	if err != nil {
		return nil, fmt.Errorf("failed to query service line categories for %s: %w", sl, err)
	}
	defer rows.Close()

	var cats []ServiceLineCategory
	for rows.Next() {
		var c ServiceLineCategory
		var maxTCV sql.NullFloat64

		if err := rows.Scan(&c.ID, &c.ServiceLine, &c.Name, &c.MinTCV, &maxTCV); err != nil {
			return nil, fmt.Errorf("failed to scan service line category: %w", err)
		}
		if maxTCV.Valid {
			v := maxTCV.Float64
			c.MaxTCV = &v
		}
		cats = append(cats, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating service line categories: %w", err)
	}

	return cats, nil
}

// GetStageEfforts returns the FTE template for (service_line, category) as a
// stage_name -> fte map.
func (r *Repository) GetStageEfforts(sl domain.ServiceLine, category string) (map[string]float64, error) {
	rows, err := r.db.Query(`
		SELECT stage_name, fte_required
		FROM service_line_stage_efforts
		WHERE service_line = ? AND service_line_category = ?
	`, string(sl), category)
	if err != nil {
		return nil, fmt.Errorf("failed to query stage efforts for %s/%s: %w", sl, category, err)
	}
	defer rows.Close()

	efforts := make(map[string]float64)
	for rows.Next() {
		var stage string
		var fte float64
		if err := rows.Scan(&stage, &fte); err != nil {
			return nil, fmt.Errorf("failed to scan stage effort: %w", err)
		}
		efforts[stage] = fte
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stage efforts: %w", err)
	}

	return efforts, nil
}

// HasStageEfforts reports whether any FTE template rows exist for the pair.
func (r *Repository) HasStageEfforts(sl domain.ServiceLine, category string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM service_line_stage_efforts
			WHERE service_line = ? AND service_line_category = ?
		)
	`, string(sl), category).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check stage efforts for %s/%s: %w", sl, category, err)
	}
	return exists, nil
}

// GetOfferingThreshold returns the threshold row for (service_line, stage),
// or nil when no multiplier applies at this stage.
func (r *Repository) GetOfferingThreshold(sl domain.ServiceLine, stage string) (*OfferingThreshold, error) {
	rows, err := r.db.Query(`
		SELECT id, service_line, stage_name, threshold_count, increment_multiplier
		FROM service_line_offering_thresholds
		WHERE service_line = ? AND stage_name = ?
	`, string(sl), stage)
	if err != nil {
		return nil, fmt.Errorf("failed to query offering threshold for %s/%s: %w", sl, stage, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil
	}

	var t OfferingThreshold
	if err := rows.Scan(&t.ID, &t.ServiceLine, &t.StageName, &t.ThresholdCount, &t.IncrementMultiplier); err != nil {
		return nil, fmt.Errorf("failed to scan offering threshold: %w", err)
	}

	return &t, nil
}

// GetOfferingMappings returns all offering pairs mapped to a service line.
func (r *Repository) GetOfferingMappings(sl domain.ServiceLine) ([]OfferingMapping, error) {
	rows, err := r.db.Query(`
		SELECT id, service_line, internal_service, simplified_offering
		FROM service_line_offering_mappings
		WHERE service_line = ?
	`, string(sl))
	if err != nil {
		return nil, fmt.Errorf("failed to query offering mappings for %s: %w", sl, err)
	}
	defer rows.Close()

	var mappings []OfferingMapping
	for rows.Next() {
		var m OfferingMapping
		if err := rows.Scan(&m.ID, &m.ServiceLine, &m.InternalService, &m.SimplifiedOffering); err != nil {
			return nil, fmt.Errorf("failed to scan offering mapping: %w", err)
		}
		mappings = append(mappings, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating offering mappings: %w", err)
	}

	return mappings, nil
}

// Seeding helpers, used by the operator seed loader and by tests.

func (r *Repository) InsertOpportunityCategory(c *OpportunityCategory) error {
	res, err := r.db.Exec(`
		INSERT INTO opportunity_categories (
			name, min_tcv, max_tcv,
			stage_01_weeks, stage_02_weeks, stage_03_weeks, stage_04a_weeks,
			stage_04b_weeks, stage_05a_weeks, stage_05b_weeks, stage_06_weeks
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.Name, c.MinTCV, floatPtr(c.MaxTCV),
		floatPtr(c.Stage01Weeks), floatPtr(c.Stage02Weeks), floatPtr(c.Stage03Weeks), floatPtr(c.Stage04AWeeks),
		floatPtr(c.Stage04BWeeks), floatPtr(c.Stage05AWeeks), floatPtr(c.Stage05BWeeks), floatPtr(c.Stage06Weeks))
	if err != nil {
		return fmt.Errorf("failed to insert opportunity category %s: %w", c.Name, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		c.ID = id
	}
	return nil
}

func (r *Repository) InsertServiceLineCategory(c *ServiceLineCategory) error {
	res, err := r.db.Exec(`
		INSERT INTO service_line_categories (service_line, name, min_tcv, max_tcv)
		VALUES (?, ?, ?, ?)
	`, string(c.ServiceLine), c.Name, c.MinTCV, floatPtr(c.MaxTCV))
	if err != nil {
		return fmt.Errorf("failed to insert service line category %s/%s: %w", c.ServiceLine, c.Name, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		c.ID = id
	}
	return nil
}

func (r *Repository) InsertStageEffort(e *StageEffort) error {
	res, err := r.db.Exec(`
		INSERT INTO service_line_stage_efforts (service_line, service_line_category, stage_name, fte_required)
		VALUES (?, ?, ?, ?)
	`, string(e.ServiceLine), e.ServiceLineCategory, e.StageName, e.FTERequired)
	if err != nil {
		return fmt.Errorf("failed to insert stage effort %s/%s/%s: %w", e.ServiceLine, e.ServiceLineCategory, e.StageName, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		e.ID = id
	}
	return nil
}

func (r *Repository) InsertOfferingThreshold(t *OfferingThreshold) error {
	res, err := r.db.Exec(`
		INSERT INTO service_line_offering_thresholds (service_line, stage_name, threshold_count, increment_multiplier)
		VALUES (?, ?, ?, ?)
	`, string(t.ServiceLine), t.StageName, t.ThresholdCount, t.IncrementMultiplier)
	if err != nil {
		return fmt.Errorf("failed to insert offering threshold %s/%s: %w", t.ServiceLine, t.StageName, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		t.ID = id
	}
	return nil
}

func (r *Repository) InsertOfferingMapping(m *OfferingMapping) error {
	res, err := r.db.Exec(`
		INSERT INTO service_line_offering_mappings (service_line, internal_service, simplified_offering)
		VALUES (?, ?, ?)
	`, string(m.ServiceLine), m.InternalService, m.SimplifiedOffering)
	if err != nil {
		return fmt.Errorf("failed to insert offering mapping %s/%s/%s: %w", m.ServiceLine, m.InternalService, m.SimplifiedOffering, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		m.ID = id
	}
	return nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func floatPtr(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
