/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements every persistence interface of the engine using SQLite:

    energy.CompanyStore, energy.DepartmentStore, energy.RecordStore,
    energy.CarbonConfigStore, energy.ThresholdStore, simulation.ScenarioStore

APPEND-ONLY ENFORCEMENT:
  energy_records is written with INSERT only. There is no UPDATE on the
  table; rows disappear only through the company cascade.

KEY TABLES:
  companies:       Aggregate roots
  departments:     AI usage weights per department
  energy_records:  Immutable readings with their derived snapshot
  carbon_configs:  Intensity overrides, one per (company, region)
  thresholds:      Alert thresholds, one per (company, metric)
  scenarios:       Saved simulation results

DECIMALS:
  Every quantity is stored as TEXT holding the decimal string, so values
  read back are exactly the values written.

REFERENCES:
  energy_records.department_id is deliberately not a foreign key: deleting
  a department must leave its records (and their department_name snapshot)
  intact.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite is opened in WAL mode so
  readers don't block each other.

USAGE:
  store, err := sqlite.New("./data/carbon.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - energy/store.go: Interface definitions
  - store/memory/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/carbon-engine/energy"
	"github.com/warp/carbon-engine/generic"
	"github.com/warp/carbon-engine/simulation"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ energy.Store             = (*Store)(nil)
	_ simulation.ScenarioStore = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS companies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		industry TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		region TEXT NOT NULL,
		base_ai_percentage TEXT NOT NULL,
		electricity_cost_per_kwh TEXT NOT NULL,
		currency TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS departments (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		team TEXT NOT NULL DEFAULT '',
		product TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		ai_usage_weight TEXT NOT NULL,
		employee_count INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_departments_company
		ON departments(company_id);

	-- Energy records (append-only)
	CREATE TABLE IF NOT EXISTS energy_records (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		department_id TEXT NOT NULL DEFAULT '',
		department_name TEXT NOT NULL DEFAULT '',
		usage_date TEXT NOT NULL,
		total_kwh TEXT NOT NULL,
		region TEXT NOT NULL,
		period_type TEXT NOT NULL,
		data_source TEXT NOT NULL,
		currency TEXT NOT NULL,
		ai_kwh TEXT NOT NULL,
		attribution_weight TEXT NOT NULL,
		attribution_source TEXT NOT NULL,
		carbon_intensity TEXT NOT NULL,
		intensity_source TEXT NOT NULL,
		co2e_kg TEXT NOT NULL,
		ai_co2e_kg TEXT NOT NULL,
		cost TEXT NOT NULL,
		ai_cost TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Range queries by company (hot path)
	CREATE INDEX IF NOT EXISTS idx_energy_records_company_date
		ON energy_records(company_id, usage_date);

	CREATE TABLE IF NOT EXISTS carbon_configs (
		company_id TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		region TEXT NOT NULL,
		intensity TEXT NOT NULL,
		unit TEXT NOT NULL,
		valid_year INTEGER NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (company_id, region)
	);

	CREATE TABLE IF NOT EXISTS thresholds (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		metric_type TEXT NOT NULL,
		threshold_value TEXT NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL,
		UNIQUE(company_id, metric_type)
	);

	CREATE TABLE IF NOT EXISTS scenarios (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		result_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scenarios_company
		ON scenarios(company_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// COMPANY STORE
// =============================================================================

// SaveCompany inserts or updates a company.
func (s *Store) SaveCompany(ctx context.Context, c energy.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO companies (id, name, industry, country, region, base_ai_percentage,
		                       electricity_cost_per_kwh, currency, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			industry = excluded.industry,
			country = excluded.country,
			region = excluded.region,
			base_ai_percentage = excluded.base_ai_percentage,
			electricity_cost_per_kwh = excluded.electricity_cost_per_kwh,
			currency = excluded.currency,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.Name, c.Industry, c.Country, c.Region,
		c.BaseAIPercentage.String(), c.ElectricityCostPerKwh.String(), c.Currency,
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save company: %w", err)
	}
	return nil
}

const companyColumns = `id, name, industry, country, region, base_ai_percentage,
	electricity_cost_per_kwh, currency, created_at, updated_at`

// GetCompany retrieves a company by ID.
func (s *Store) GetCompany(ctx context.Context, id string) (energy.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+companyColumns+" FROM companies WHERE id = ?", id)
	c, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return energy.Company{}, generic.NotFound("company", id)
	}
	return c, err
}

// ListCompanies returns all companies, oldest first.
func (s *Store) ListCompanies(ctx context.Context) ([]energy.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+companyColumns+" FROM companies ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	var out []energy.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteCompany removes a company and everything it owns in one transaction.
func (s *Store) DeleteCompany(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"scenarios", "thresholds", "carbon_configs", "energy_records", "departments"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE company_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM companies WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCompany(row scanner) (energy.Company, error) {
	var (
		c                  energy.Company
		created, updated   string
		baseAI, costPerKwh string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Industry, &c.Country, &c.Region,
		&baseAI, &costPerKwh, &c.Currency, &created, &updated); err != nil {
		return energy.Company{}, err
	}
	var p parser
	c.BaseAIPercentage = p.decimal(baseAI)
	c.ElectricityCostPerKwh = p.decimal(costPerKwh)
	c.CreatedAt = p.time(created)
	c.UpdatedAt = p.time(updated)
	return c, p.err
}

// =============================================================================
// DEPARTMENT STORE
// =============================================================================

func (s *Store) SaveDepartment(ctx context.Context, d energy.Department) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO departments (id, company_id, name, team, product, description,
		                         ai_usage_weight, employee_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			team = excluded.team,
			product = excluded.product,
			description = excluded.description,
			ai_usage_weight = excluded.ai_usage_weight,
			employee_count = excluded.employee_count,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		d.ID, d.CompanyID, d.Name, d.Team, d.Product, d.Description,
		d.AIUsageWeight.String(), d.EmployeeCount,
		formatTime(d.CreatedAt), formatTime(d.UpdatedAt),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return generic.NotFound("company", d.CompanyID)
		}
		return fmt.Errorf("failed to save department: %w", err)
	}
	return nil
}

const departmentColumns = `id, company_id, name, team, product, description,
	ai_usage_weight, employee_count, created_at, updated_at`

func (s *Store) GetDepartment(ctx context.Context, id string) (energy.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+departmentColumns+" FROM departments WHERE id = ?", id)
	d, err := scanDepartment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return energy.Department{}, generic.NotFound("department", id)
	}
	return d, err
}

func (s *Store) ListDepartments(ctx context.Context, companyID string) ([]energy.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+departmentColumns+" FROM departments WHERE company_id = ? ORDER BY name",
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query departments: %w", err)
	}
	defer rows.Close()

	var out []energy.Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteDepartment removes only the department row; records keep their
// department_id and department_name.
func (s *Store) DeleteDepartment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM departments WHERE id = ?", id)
	return err
}

func scanDepartment(row scanner) (energy.Department, error) {
	var (
		d                energy.Department
		weight           string
		created, updated string
	)
	if err := row.Scan(&d.ID, &d.CompanyID, &d.Name, &d.Team, &d.Product, &d.Description,
		&weight, &d.EmployeeCount, &created, &updated); err != nil {
		return energy.Department{}, err
	}
	var p parser
	d.AIUsageWeight = p.decimal(weight)
	d.CreatedAt = p.time(created)
	d.UpdatedAt = p.time(updated)
	return d, p.err
}

// =============================================================================
// RECORD STORE (append-only)
// =============================================================================

// AppendRecords inserts records atomically.
func (s *Store) AppendRecords(ctx context.Context, records []energy.EnergyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, r := range records {
		if err := appendRecord(ctx, tx, r); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func appendRecord(ctx context.Context, db execer, r energy.EnergyRecord) error {
	query := `
		INSERT INTO energy_records
		(id, company_id, department_id, department_name, usage_date, total_kwh, region,
		 period_type, data_source, currency, ai_kwh, attribution_weight, attribution_source,
		 carbon_intensity, intensity_source, co2e_kg, ai_co2e_kg, cost, ai_cost, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	d := r.Derived
	_, err := db.ExecContext(ctx, query,
		r.ID, r.CompanyID, r.DepartmentID, r.DepartmentName,
		r.UsageDate.String(), r.TotalKwh.String(), r.Region,
		string(r.PeriodType), string(r.DataSource), r.Currency,
		d.AIAttributedKwh.String(), d.AttributionWeight.String(), string(d.AttributionSource),
		d.CarbonIntensity.String(), d.IntensitySource,
		d.Co2eKg.String(), d.AICo2eKg.String(), d.Cost.String(), d.AICost.String(),
		formatTime(r.CreatedAt),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return generic.NotFound("company", r.CompanyID)
		}
		return fmt.Errorf("failed to append energy record: %w", err)
	}
	return nil
}

// LoadRecords returns records in period ordered by usage date, then by
// insertion order.
func (s *Store) LoadRecords(ctx context.Context, companyID string, period generic.Period) ([]energy.EnergyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, company_id, department_id, department_name, usage_date, total_kwh, region,
		       period_type, data_source, currency, ai_kwh, attribution_weight, attribution_source,
		       carbon_intensity, intensity_source, co2e_kg, ai_co2e_kg, cost, ai_cost, created_at
		FROM energy_records
		WHERE company_id = ?`
	args := []any{companyID}
	if !period.IsZero() {
		query += ` AND usage_date >= ? AND usage_date <= ?`
		args = append(args, period.Start.String(), period.End.String())
	}
	query += ` ORDER BY usage_date ASC, rowid ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query energy records: %w", err)
	}
	defer rows.Close()

	var out []energy.EnergyRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRecord(row scanner) (energy.EnergyRecord, error) {
	var (
		r                                  energy.EnergyRecord
		usageDate, totalKwh, created       string
		periodType, dataSource, attrSource string
		aiKwh, weight, intensity           string
		co2e, aiCo2e, cost, aiCost         string
	)
	if err := row.Scan(&r.ID, &r.CompanyID, &r.DepartmentID, &r.DepartmentName,
		&usageDate, &totalKwh, &r.Region, &periodType, &dataSource, &r.Currency,
		&aiKwh, &weight, &attrSource, &intensity, &r.Derived.IntensitySource,
		&co2e, &aiCo2e, &cost, &aiCost, &created); err != nil {
		return energy.EnergyRecord{}, err
	}

	var p parser
	r.UsageDate = p.date(usageDate)
	r.TotalKwh = p.decimal(totalKwh)
	r.PeriodType = energy.PeriodType(periodType)
	r.DataSource = energy.DataSource(dataSource)
	r.Derived.AIAttributedKwh = p.decimal(aiKwh)
	r.Derived.AttributionWeight = p.decimal(weight)
	r.Derived.AttributionSource = energy.AttributionSource(attrSource)
	r.Derived.CarbonIntensity = p.decimal(intensity)
	r.Derived.Co2eKg = p.decimal(co2e)
	r.Derived.AICo2eKg = p.decimal(aiCo2e)
	r.Derived.Cost = p.decimal(cost)
	r.Derived.AICost = p.decimal(aiCost)
	r.CreatedAt = p.time(created)
	return r, p.err
}

// =============================================================================
// CARBON CONFIG STORE
// =============================================================================

// SaveCarbonConfig upserts the override for (company, region).
func (s *Store) SaveCarbonConfig(ctx context.Context, c energy.CarbonConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO carbon_configs (company_id, region, intensity, unit, valid_year, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(company_id, region) DO UPDATE SET
			intensity = excluded.intensity,
			unit = excluded.unit,
			valid_year = excluded.valid_year,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		c.CompanyID, strings.ToUpper(c.Region), c.Intensity.String(), c.Unit, c.ValidYear,
		formatTime(c.UpdatedAt),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return generic.NotFound("company", c.CompanyID)
		}
		return fmt.Errorf("failed to save carbon config: %w", err)
	}
	return nil
}

func (s *Store) ListCarbonConfigs(ctx context.Context, companyID string) ([]energy.CarbonConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT company_id, region, intensity, unit, valid_year, updated_at
		FROM carbon_configs WHERE company_id = ? ORDER BY region`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query carbon configs: %w", err)
	}
	defer rows.Close()

	var out []energy.CarbonConfig
	for rows.Next() {
		var (
			c                  energy.CarbonConfig
			intensity, updated string
		)
		if err := rows.Scan(&c.CompanyID, &c.Region, &intensity, &c.Unit, &c.ValidYear, &updated); err != nil {
			return nil, err
		}
		var p parser
		c.Intensity = p.decimal(intensity)
		c.UpdatedAt = p.time(updated)
		if p.err != nil {
			return nil, p.err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CarbonOverride implements carbon.OverrideSource.
func (s *Store) CarbonOverride(ctx context.Context, companyID, region string) (decimal.Decimal, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var intensity string
	err := s.db.QueryRowContext(ctx,
		"SELECT intensity FROM carbon_configs WHERE company_id = ? AND region = ?",
		companyID, strings.ToUpper(region),
	).Scan(&intensity)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to query carbon override: %w", err)
	}
	d, err := decimal.NewFromString(intensity)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("corrupt carbon override %q: %w", intensity, err)
	}
	return d, true, nil
}

// =============================================================================
// THRESHOLD STORE
// =============================================================================

// SaveThreshold upserts the threshold for (company, metric type). The
// first-written id is kept.
func (s *Store) SaveThreshold(ctx context.Context, t energy.Threshold) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO thresholds (id, company_id, metric_type, threshold_value, message, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(company_id, metric_type) DO UPDATE SET
			threshold_value = excluded.threshold_value,
			message = excluded.message,
			active = excluded.active
	`
	_, err := s.db.ExecContext(ctx, query,
		t.ID, t.CompanyID, string(t.MetricType), t.Value.String(), t.Message, t.Active,
		formatTime(t.CreatedAt),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return generic.NotFound("company", t.CompanyID)
		}
		return fmt.Errorf("failed to save threshold: %w", err)
	}
	return nil
}

func (s *Store) ListThresholds(ctx context.Context, companyID string) ([]energy.Threshold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, metric_type, threshold_value, message, active, created_at
		FROM thresholds WHERE company_id = ? ORDER BY metric_type`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query thresholds: %w", err)
	}
	defer rows.Close()

	var out []energy.Threshold
	for rows.Next() {
		var (
			t                      energy.Threshold
			metric, value, created string
		)
		if err := rows.Scan(&t.ID, &t.CompanyID, &metric, &value, &t.Message, &t.Active, &created); err != nil {
			return nil, err
		}
		var p parser
		t.MetricType = energy.MetricType(metric)
		t.Value = p.decimal(value)
		t.CreatedAt = p.time(created)
		if p.err != nil {
			return nil, p.err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// =============================================================================
// SCENARIO STORE
// =============================================================================

func (s *Store) SaveScenario(ctx context.Context, sc simulation.SavedScenario) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	resultJSON, err := json.Marshal(sc.Result)
	if err != nil {
		return fmt.Errorf("failed to encode scenario result: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scenarios (id, company_id, name, kind, result_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sc.ID, sc.CompanyID, sc.Name, string(sc.Result.Kind), string(resultJSON), formatTime(sc.CreatedAt),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return generic.NotFound("company", sc.CompanyID)
		}
		return fmt.Errorf("failed to save scenario: %w", err)
	}
	return nil
}

// ListScenarios returns saved scenarios newest first.
func (s *Store) ListScenarios(ctx context.Context, companyID string) ([]simulation.SavedScenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, name, result_json, created_at
		FROM scenarios WHERE company_id = ?
		ORDER BY created_at DESC, rowid DESC`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenarios: %w", err)
	}
	defer rows.Close()

	var out []simulation.SavedScenario
	for rows.Next() {
		var (
			sc                  simulation.SavedScenario
			resultJSON, created string
		)
		if err := rows.Scan(&sc.ID, &sc.CompanyID, &sc.Name, &resultJSON, &created); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(resultJSON), &sc.Result); err != nil {
			return nil, fmt.Errorf("failed to decode scenario %s: %w", sc.ID, err)
		}
		var p parser
		sc.CreatedAt = p.time(created)
		if p.err != nil {
			return nil, p.err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"scenarios", "thresholds", "carbon_configs", "energy_records", "departments", "companies"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parser collects the first conversion error while decoding a row.
type parser struct {
	err error
}

func (p *parser) decimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("corrupt decimal %q: %w", s, err)
	}
	return d
}

func (p *parser) time(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("corrupt timestamp %q: %w", s, err)
	}
	return t
}

func (p *parser) date(s string) generic.TimePoint {
	t, err := generic.ParseDate(s)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("corrupt date %q: %w", s, err)
	}
	return t
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
