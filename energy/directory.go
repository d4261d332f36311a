package energy

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/carbon-engine/carbon"
	"github.com/warp/carbon-engine/generic"
)

// =============================================================================
// DIRECTORY - Companies, departments, carbon overrides, thresholds
// =============================================================================

// Directory manages everything around the ledger. All mutations validate
// before touching the store.
type Directory struct {
	store    Store
	registry *carbon.Registry
	logger   *zap.Logger
	now      func() time.Time
}

func NewDirectory(store Store, registry *carbon.Registry, logger *zap.Logger) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Directory{store: store, registry: registry, logger: logger, now: time.Now}
}

// WithClock replaces the clock used for timestamps and default valid years.
func (d *Directory) WithClock(now func() time.Time) *Directory {
	d.now = now
	return d
}

// CompanyInput carries optional fields; nil means "keep" on update and
// "default" on create.
type CompanyInput struct {
	Name                  *string
	Industry              *string
	Country               *string
	Region                *string
	BaseAIPercentage      *decimal.Decimal
	ElectricityCostPerKwh *decimal.Decimal
	Currency              *string
}

func (in CompanyInput) apply(c *Company) {
	setString(&c.Name, in.Name)
	setString(&c.Industry, in.Industry)
	setString(&c.Country, in.Country)
	setString(&c.Currency, in.Currency)
	if in.Region != nil {
		c.Region = carbon.NormalizeCode(*in.Region)
	}
	if in.BaseAIPercentage != nil {
		c.BaseAIPercentage = *in.BaseAIPercentage
	}
	if in.ElectricityCostPerKwh != nil {
		c.ElectricityCostPerKwh = *in.ElectricityCostPerKwh
	}
}

// DepartmentInput mirrors CompanyInput for departments.
type DepartmentInput struct {
	Name          *string
	Team          *string
	Product       *string
	Description   *string
	AIUsageWeight *decimal.Decimal
	EmployeeCount *int
}

func (in DepartmentInput) apply(d *Department) {
	setString(&d.Name, in.Name)
	setString(&d.Team, in.Team)
	setString(&d.Product, in.Product)
	setString(&d.Description, in.Description)
	if in.AIUsageWeight != nil {
		d.AIUsageWeight = *in.AIUsageWeight
	}
	if in.EmployeeCount != nil {
		d.EmployeeCount = *in.EmployeeCount
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

// =============================================================================
// COMPANIES
// =============================================================================

func (d *Directory) CreateCompany(ctx context.Context, in CompanyInput) (Company, error) {
	now := d.now().UTC()
	c := Company{
		ID:                    uuid.NewString(),
		Region:                "US",
		BaseAIPercentage:      DefaultBaseAIPercentage,
		ElectricityCostPerKwh: DefaultElectricityCostPerKwh,
		Currency:              DefaultCurrency,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	in.apply(&c)
	if err := d.validateCompany(c); err != nil {
		return Company{}, err
	}
	if err := d.store.SaveCompany(ctx, c); err != nil {
		return Company{}, err
	}
	d.logger.Info("company created", zap.String("company_id", c.ID), zap.String("name", c.Name))
	return c, nil
}

// UpdateCompany changes company settings. Existing records keep their
// snapshots; only new records see the new baseline or price.
func (d *Directory) UpdateCompany(ctx context.Context, id string, in CompanyInput) (Company, error) {
	c, err := d.store.GetCompany(ctx, id)
	if err != nil {
		return Company{}, err
	}
	in.apply(&c)
	c.UpdatedAt = d.now().UTC()
	if err := d.validateCompany(c); err != nil {
		return Company{}, err
	}
	if err := d.store.SaveCompany(ctx, c); err != nil {
		return Company{}, err
	}
	return c, nil
}

func (d *Directory) validateCompany(c Company) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !d.registry.Has(c.Region) {
		return generic.Invalid("region", c.Region, "unknown region")
	}
	return nil
}

func (d *Directory) Company(ctx context.Context, id string) (Company, error) {
	return d.store.GetCompany(ctx, id)
}

func (d *Directory) Companies(ctx context.Context) ([]Company, error) {
	return d.store.ListCompanies(ctx)
}

// DeleteCompany removes the company and everything it owns.
func (d *Directory) DeleteCompany(ctx context.Context, id string) error {
	if _, err := d.store.GetCompany(ctx, id); err != nil {
		return err
	}
	if err := d.store.DeleteCompany(ctx, id); err != nil {
		return err
	}
	d.logger.Info("company deleted", zap.String("company_id", id))
	return nil
}

// =============================================================================
// DEPARTMENTS
// =============================================================================

func (d *Directory) CreateDepartment(ctx context.Context, companyID string, in DepartmentInput) (Department, error) {
	if _, err := d.store.GetCompany(ctx, companyID); err != nil {
		return Department{}, err
	}
	now := d.now().UTC()
	dept := Department{
		ID:            uuid.NewString(),
		CompanyID:     companyID,
		AIUsageWeight: DefaultDepartmentWeight,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	in.apply(&dept)
	if err := dept.Validate(); err != nil {
		return Department{}, err
	}
	if err := d.ensureUniqueName(ctx, dept); err != nil {
		return Department{}, err
	}
	if err := d.store.SaveDepartment(ctx, dept); err != nil {
		return Department{}, err
	}
	return dept, nil
}

// UpdateDepartment changes a department. A new weight applies to records
// appended afterwards only.
func (d *Directory) UpdateDepartment(ctx context.Context, id string, in DepartmentInput) (Department, error) {
	dept, err := d.store.GetDepartment(ctx, id)
	if err != nil {
		return Department{}, err
	}
	in.apply(&dept)
	dept.UpdatedAt = d.now().UTC()
	if err := dept.Validate(); err != nil {
		return Department{}, err
	}
	if err := d.ensureUniqueName(ctx, dept); err != nil {
		return Department{}, err
	}
	if err := d.store.SaveDepartment(ctx, dept); err != nil {
		return Department{}, err
	}
	return dept, nil
}

// Department names are matched case-insensitively by CSV import, so they
// must be unique that way within a company.
func (d *Directory) ensureUniqueName(ctx context.Context, dept Department) error {
	existing, err := d.store.ListDepartments(ctx, dept.CompanyID)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.ID != dept.ID && strings.EqualFold(e.Name, dept.Name) {
			return generic.Invalid("name", dept.Name, "department name already exists")
		}
	}
	return nil
}

func (d *Directory) Department(ctx context.Context, id string) (Department, error) {
	return d.store.GetDepartment(ctx, id)
}

func (d *Directory) Departments(ctx context.Context, companyID string) ([]Department, error) {
	if _, err := d.store.GetCompany(ctx, companyID); err != nil {
		return nil, err
	}
	return d.store.ListDepartments(ctx, companyID)
}

// DeleteDepartment removes the department. Its records stay and keep the
// department name they were written with.
func (d *Directory) DeleteDepartment(ctx context.Context, id string) error {
	if _, err := d.store.GetDepartment(ctx, id); err != nil {
		return err
	}
	return d.store.DeleteDepartment(ctx, id)
}

// =============================================================================
// CARBON OVERRIDES
// =============================================================================

// SetCarbonConfig upserts the company's intensity for a region. Regions
// outside the registry are allowed: an override makes them resolvable.
func (d *Directory) SetCarbonConfig(ctx context.Context, companyID string, cfg CarbonConfig) (CarbonConfig, error) {
	if _, err := d.store.GetCompany(ctx, companyID); err != nil {
		return CarbonConfig{}, err
	}
	cfg.CompanyID = companyID
	cfg.Region = carbon.NormalizeCode(cfg.Region)
	cfg.Unit = carbon.IntensityUnit
	if cfg.ValidYear == 0 {
		cfg.ValidYear = d.now().UTC().Year()
	}
	cfg.UpdatedAt = d.now().UTC()
	if err := cfg.Validate(); err != nil {
		return CarbonConfig{}, err
	}
	if err := d.store.SaveCarbonConfig(ctx, cfg); err != nil {
		return CarbonConfig{}, err
	}
	d.logger.Info("carbon override set",
		zap.String("company_id", companyID),
		zap.String("region", cfg.Region),
		zap.String("intensity", cfg.Intensity.String()),
	)
	return cfg, nil
}

func (d *Directory) CarbonConfigs(ctx context.Context, companyID string) ([]CarbonConfig, error) {
	if _, err := d.store.GetCompany(ctx, companyID); err != nil {
		return nil, err
	}
	return d.store.ListCarbonConfigs(ctx, companyID)
}

// =============================================================================
// THRESHOLDS
// =============================================================================

type ThresholdInput struct {
	MetricType string
	Value      decimal.Decimal
	Message    string
	Active     *bool // default true
}

// ConfigureThreshold upserts the company's threshold for a metric. There is
// at most one threshold per (company, metric type).
func (d *Directory) ConfigureThreshold(ctx context.Context, companyID string, in ThresholdInput) (Threshold, error) {
	if _, err := d.store.GetCompany(ctx, companyID); err != nil {
		return Threshold{}, err
	}
	metric, err := ParseMetricType(in.MetricType)
	if err != nil {
		return Threshold{}, err
	}

	t := Threshold{
		ID:         uuid.NewString(),
		CompanyID:  companyID,
		MetricType: metric,
		Value:      in.Value,
		Message:    strings.TrimSpace(in.Message),
		Active:     in.Active == nil || *in.Active,
		CreatedAt:  d.now().UTC(),
	}
	if err := t.Validate(); err != nil {
		return Threshold{}, err
	}

	existing, err := d.store.ListThresholds(ctx, companyID)
	if err != nil {
		return Threshold{}, err
	}
	for _, e := range existing {
		if e.MetricType == metric {
			t.ID = e.ID
			t.CreatedAt = e.CreatedAt
			break
		}
	}
	if err := d.store.SaveThreshold(ctx, t); err != nil {
		return Threshold{}, err
	}
	return t, nil
}

func (d *Directory) Thresholds(ctx context.Context, companyID string) ([]Threshold, error) {
	if _, err := d.store.GetCompany(ctx, companyID); err != nil {
		return nil, err
	}
	return d.store.ListThresholds(ctx, companyID)
}
