/*
store.go - Persistence interfaces for the energy ledger and directory

PURPOSE:
  Defines the boundary between the engine and the database. The engine
  only ever talks to these interfaces; SQLite and in-memory stores
  implement them.

KEY INTERFACES:
  CompanyStore:      Aggregate roots, cascade delete
  DepartmentStore:   Departments of a company
  RecordStore:       Append-only energy records
  CarbonConfigStore: Per-company intensity overrides (also the
                     carbon.OverrideSource used by the calculator)
  ThresholdStore:    Alert thresholds

APPEND-ONLY CONTRACT:
  RecordStore has no Update or Delete. Records disappear only when their
  company is deleted. AppendRecords is atomic: a batch is written in full
  or not at all.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - store/memory/memory.go: In-memory for tests and the CLI dry runs

SEE ALSO:
  - ledger.go: Writes records through RecordStore
  - directory.go: Manages everything else
*/
package energy

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/warp/carbon-engine/generic"
)

// CompanyStore persists companies. Get returns a *generic.NotFoundError
// for unknown ids.
type CompanyStore interface {
	SaveCompany(ctx context.Context, c Company) error
	GetCompany(ctx context.Context, id string) (Company, error)
	ListCompanies(ctx context.Context) ([]Company, error)

	// DeleteCompany removes the company and everything it owns:
	// departments, records, carbon configs, thresholds and saved scenarios.
	DeleteCompany(ctx context.Context, id string) error
}

// DepartmentStore persists departments.
type DepartmentStore interface {
	SaveDepartment(ctx context.Context, d Department) error
	GetDepartment(ctx context.Context, id string) (Department, error)
	ListDepartments(ctx context.Context, companyID string) ([]Department, error)

	// DeleteDepartment leaves records that reference the department intact.
	DeleteDepartment(ctx context.Context, id string) error
}

// RecordStore persists energy records. APPEND-ONLY.
type RecordStore interface {
	// AppendRecords writes all records atomically.
	AppendRecords(ctx context.Context, records []EnergyRecord) error

	// LoadRecords returns records for the company within period, ordered by
	// usage date ascending. A zero period returns every record.
	LoadRecords(ctx context.Context, companyID string, period generic.Period) ([]EnergyRecord, error)
}

// CarbonConfigStore persists intensity overrides, one per (company, region).
type CarbonConfigStore interface {
	SaveCarbonConfig(ctx context.Context, c CarbonConfig) error
	ListCarbonConfigs(ctx context.Context, companyID string) ([]CarbonConfig, error)
	CarbonOverride(ctx context.Context, companyID, region string) (decimal.Decimal, bool, error)
}

// ThresholdStore persists thresholds, one per (company, metric type).
type ThresholdStore interface {
	SaveThreshold(ctx context.Context, t Threshold) error
	ListThresholds(ctx context.Context, companyID string) ([]Threshold, error)
}

// Store is everything the ledger and directory need.
type Store interface {
	CompanyStore
	DepartmentStore
	RecordStore
	CarbonConfigStore
	ThresholdStore
}
