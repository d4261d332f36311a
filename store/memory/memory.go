// Package memory provides an in-memory Store (for tests and dry runs).
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/warp/carbon-engine/energy"
	"github.com/warp/carbon-engine/generic"
	"github.com/warp/carbon-engine/simulation"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Store struct {
	mu          sync.RWMutex
	companies   map[string]energy.Company
	departments map[string]energy.Department
	records     map[string][]energy.EnergyRecord // by company, sorted by usage date
	configs     map[configKey]energy.CarbonConfig
	thresholds  map[thresholdKey]energy.Threshold
	scenarios   map[string][]simulation.SavedScenario
}

type configKey struct {
	CompanyID string
	Region    string
}

type thresholdKey struct {
	CompanyID  string
	MetricType energy.MetricType
}

var (
	_ energy.Store             = (*Store)(nil)
	_ simulation.ScenarioStore = (*Store)(nil)
)

func New() *Store {
	return &Store{
		companies:   make(map[string]energy.Company),
		departments: make(map[string]energy.Department),
		records:     make(map[string][]energy.EnergyRecord),
		configs:     make(map[configKey]energy.CarbonConfig),
		thresholds:  make(map[thresholdKey]energy.Threshold),
		scenarios:   make(map[string][]simulation.SavedScenario),
	}
}

// =============================================================================
// COMPANIES
// =============================================================================

func (m *Store) SaveCompany(_ context.Context, c energy.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.companies[c.ID] = c
	return nil
}

func (m *Store) GetCompany(_ context.Context, id string) (energy.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.companies[id]
	if !ok {
		return energy.Company{}, generic.NotFound("company", id)
	}
	return c, nil
}

func (m *Store) ListCompanies(_ context.Context) ([]energy.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]energy.Company, 0, len(m.companies))
	for _, c := range m.companies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Store) DeleteCompany(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.companies, id)
	delete(m.records, id)
	delete(m.scenarios, id)
	for k, d := range m.departments {
		if d.CompanyID == id {
			delete(m.departments, k)
		}
	}
	for k := range m.configs {
		if k.CompanyID == id {
			delete(m.configs, k)
		}
	}
	for k := range m.thresholds {
		if k.CompanyID == id {
			delete(m.thresholds, k)
		}
	}
	return nil
}

// =============================================================================
// DEPARTMENTS
// =============================================================================

func (m *Store) SaveDepartment(_ context.Context, d energy.Department) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.departments[d.ID] = d
	return nil
}

func (m *Store) GetDepartment(_ context.Context, id string) (energy.Department, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.departments[id]
	if !ok {
		return energy.Department{}, generic.NotFound("department", id)
	}
	return d, nil
}

func (m *Store) ListDepartments(_ context.Context, companyID string) ([]energy.Department, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []energy.Department
	for _, d := range m.departments {
		if d.CompanyID == companyID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Store) DeleteDepartment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.departments, id)
	return nil
}

// =============================================================================
// RECORDS - Append-only
// =============================================================================

// AppendRecords inserts each record at its date position. Records sharing
// a date keep insertion order.
func (m *Store) AppendRecords(_ context.Context, records []energy.EnergyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range records {
		if _, ok := m.companies[r.CompanyID]; !ok {
			return generic.NotFound("company", r.CompanyID)
		}
	}
	for _, r := range records {
		recs := m.records[r.CompanyID]

		// Binary search for insertion point
		i := sort.Search(len(recs), func(i int) bool {
			return recs[i].UsageDate.After(r.UsageDate)
		})
		recs = append(recs, energy.EnergyRecord{})
		copy(recs[i+1:], recs[i:])
		recs[i] = r
		m.records[r.CompanyID] = recs
	}
	return nil
}

func (m *Store) LoadRecords(_ context.Context, companyID string, period generic.Period) ([]energy.EnergyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []energy.EnergyRecord
	for _, r := range m.records[companyID] {
		if period.IsZero() || period.Contains(r.UsageDate) {
			out = append(out, r)
		}
	}
	return out, nil
}

// =============================================================================
// CARBON CONFIGS
// =============================================================================

func (m *Store) SaveCarbonConfig(_ context.Context, c energy.CarbonConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[configKey{c.CompanyID, strings.ToUpper(c.Region)}] = c
	return nil
}

func (m *Store) ListCarbonConfigs(_ context.Context, companyID string) ([]energy.CarbonConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []energy.CarbonConfig
	for k, c := range m.configs {
		if k.CompanyID == companyID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out, nil
}

func (m *Store) CarbonOverride(_ context.Context, companyID, region string) (decimal.Decimal, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.configs[configKey{companyID, strings.ToUpper(region)}]
	if !ok {
		return decimal.Zero, false, nil
	}
	return c.Intensity, true, nil
}

// =============================================================================
// THRESHOLDS
// =============================================================================

func (m *Store) SaveThreshold(_ context.Context, t energy.Threshold) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thresholds[thresholdKey{t.CompanyID, t.MetricType}] = t
	return nil
}

func (m *Store) ListThresholds(_ context.Context, companyID string) ([]energy.Threshold, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []energy.Threshold
	for k, t := range m.thresholds {
		if k.CompanyID == companyID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MetricType < out[j].MetricType })
	return out, nil
}

// =============================================================================
// SCENARIOS
// =============================================================================

func (m *Store) SaveScenario(_ context.Context, s simulation.SavedScenario) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.companies[s.CompanyID]; !ok {
		return generic.NotFound("company", s.CompanyID)
	}
	m.scenarios[s.CompanyID] = append(m.scenarios[s.CompanyID], s)
	return nil
}

// ListScenarios returns newest first.
func (m *Store) ListScenarios(_ context.Context, companyID string) ([]simulation.SavedScenario, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.scenarios[companyID]
	out := make([]simulation.SavedScenario, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		out = append(out, src[i])
	}
	return out, nil
}
