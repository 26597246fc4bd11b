package database

import "fmt"

type migration struct {
	version int
	sql     string
}

// Dates are stored as ISO-8601 day strings (YYYY-MM-DD), timestamps as
// RFC3339. All monetary values are in millions.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS opportunities (
    opportunity_id TEXT PRIMARY KEY,
    name           TEXT,
    tcv            REAL,
    decision_date  TEXT,
    sales_stage    TEXT,
    lead_offering  TEXT,
    ces_revenue    REAL,
    ins_revenue    REAL,
    bps_revenue    REAL,
    sec_revenue    REAL,
    itoc_revenue   REAL,
    mw_revenue     REAL,
    created_at     TEXT NOT NULL,
    updated_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS opportunity_line_items (
    id                  INTEGER PRIMARY KEY,
    opportunity_id      TEXT NOT NULL REFERENCES opportunities(opportunity_id),
    internal_service    TEXT,
    simplified_offering TEXT,
    amount              REAL
);

CREATE INDEX IF NOT EXISTS idx_line_items_opportunity
    ON opportunity_line_items(opportunity_id);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS opportunity_categories (
    id              INTEGER PRIMARY KEY,
    name            TEXT NOT NULL UNIQUE,
    min_tcv         REAL NOT NULL,
    max_tcv         REAL,
    stage_01_weeks  REAL,
    stage_02_weeks  REAL,
    stage_03_weeks  REAL,
    stage_04a_weeks REAL,
    stage_04b_weeks REAL,
    stage_05a_weeks REAL,
    stage_05b_weeks REAL,
    stage_06_weeks  REAL
);

CREATE TABLE IF NOT EXISTS service_line_categories (
    id           INTEGER PRIMARY KEY,
    service_line TEXT NOT NULL,
    name         TEXT NOT NULL,
    min_tcv      REAL NOT NULL,
    max_tcv      REAL,
    UNIQUE(service_line, name)
);

CREATE TABLE IF NOT EXISTS service_line_stage_efforts (
    id                    INTEGER PRIMARY KEY,
    service_line          TEXT NOT NULL,
    service_line_category TEXT NOT NULL,
    stage_name            TEXT NOT NULL,
    fte_required          REAL NOT NULL,
    UNIQUE(service_line, service_line_category, stage_name)
);

CREATE TABLE IF NOT EXISTS service_line_offering_thresholds (
    id                   INTEGER PRIMARY KEY,
    service_line         TEXT NOT NULL,
    stage_name           TEXT NOT NULL,
    threshold_count      INTEGER NOT NULL,
    increment_multiplier REAL NOT NULL,
    UNIQUE(service_line, stage_name)
);

CREATE TABLE IF NOT EXISTS service_line_offering_mappings (
    id                  INTEGER PRIMARY KEY,
    service_line        TEXT NOT NULL,
    internal_service    TEXT NOT NULL,
    simplified_offering TEXT NOT NULL,
    UNIQUE(service_line, internal_service, simplified_offering)
);
`,
	},
	{
		version: 3,
		sql: `
CREATE TABLE IF NOT EXISTS opportunity_resource_timelines (
    id                 INTEGER PRIMARY KEY,
    opportunity_id     TEXT NOT NULL,
    service_line       TEXT NOT NULL,
    stage_name         TEXT NOT NULL,
    stage_start_date   TEXT NOT NULL,
    stage_end_date     TEXT NOT NULL,
    duration_weeks     REAL NOT NULL,
    fte_required       REAL NOT NULL,
    total_effort_weeks REAL NOT NULL,
    category           TEXT,
    resource_category  TEXT,
    decision_date      TEXT,
    calculated_date    TEXT NOT NULL,
    last_updated       TEXT NOT NULL,
    resource_status    TEXT NOT NULL DEFAULT 'Predicted',
    UNIQUE(opportunity_id, service_line, stage_name)
);

CREATE INDEX IF NOT EXISTS idx_timelines_opportunity
    ON opportunity_resource_timelines(opportunity_id);
CREATE INDEX IF NOT EXISTS idx_timelines_dates
    ON opportunity_resource_timelines(stage_start_date, stage_end_date);
CREATE INDEX IF NOT EXISTS idx_timelines_status
    ON opportunity_resource_timelines(resource_status);
`,
	},
}

// Migrate applies pending migrations in version order.
func (db *DB) Migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range migrations {
		if err := db.runMigration(m); err != nil {
			return err
		}
	}

	return nil
}

func (db *DB) runMigration(m migration) error {
	var exists bool
	err := db.conn.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)",
		m.version,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check migration %d: %w", m.version, err)
	}
	if exists {
		return nil
	}

	if _, err := db.conn.Exec(m.sql); err != nil {
		return fmt.Errorf("failed to run migration %d: %w", m.version, err)
	}

	if _, err := db.conn.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", m.version, err)
	}

	return nil
}
