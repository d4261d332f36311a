package simulation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/carbon-engine/carbon"
	"github.com/warp/carbon-engine/energy"
	"github.com/warp/carbon-engine/generic"
)

// BaselineDays is the window the baseline is taken over.
const BaselineDays = 30

// RecordSource is the read side of the ledger.
type RecordSource interface {
	Records(ctx context.Context, companyID string, period generic.Period) ([]energy.EnergyRecord, error)
}

// CompanyLookup resolves companies (the energy directory).
type CompanyLookup interface {
	Company(ctx context.Context, id string) (energy.Company, error)
}

// SavedScenario is a simulation result kept for later comparison.
type SavedScenario struct {
	ID        string
	CompanyID string
	Name      string
	Result    Result
	CreatedAt time.Time
}

// ScenarioStore persists saved scenarios. Deleting a company deletes its
// scenarios.
type ScenarioStore interface {
	SaveScenario(ctx context.Context, s SavedScenario) error
	ListScenarios(ctx context.Context, companyID string) ([]SavedScenario, error)
}

type Service struct {
	records   RecordSource
	companies CompanyLookup
	calc      *carbon.Calculator
	scenarios ScenarioStore
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(records RecordSource, companies CompanyLookup, calc *carbon.Calculator, scenarios ScenarioStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		records:   records,
		companies: companies,
		calc:      calc,
		scenarios: scenarios,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the clock used for the baseline window.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Baseline returns the AI footprint of the last 30 days ending today.
func (s *Service) Baseline(ctx context.Context, companyID string) (Baseline, error) {
	period := generic.TrailingDays(generic.FromTime(s.now()), BaselineDays)
	recs, err := s.records.Records(ctx, companyID, period)
	if err != nil {
		return Baseline{}, err
	}
	return BaselineOf(recs, period), nil
}

type GrowthInput struct {
	GrowthPercent decimal.Decimal
	MonthsAhead   int
}

func (s *Service) SimulateGrowth(ctx context.Context, companyID string, in GrowthInput) (Result, error) {
	base, err := s.Baseline(ctx, companyID)
	if err != nil {
		return Result{}, err
	}
	return Growth(base.Footprint, in.GrowthPercent, in.MonthsAhead)
}

type EfficiencyInput struct {
	EfficiencyPercent decimal.Decimal
}

func (s *Service) SimulateEfficiency(ctx context.Context, companyID string, in EfficiencyInput) (Result, error) {
	base, err := s.Baseline(ctx, companyID)
	if err != nil {
		return Result{}, err
	}
	return Efficiency(base.Footprint, in.EfficiencyPercent)
}

type RegionChangeInput struct {
	FromRegion        string // optional
	ToRegion          string
	TargetPricePerKwh *decimal.Decimal
}

func (s *Service) SimulateRegionChange(ctx context.Context, companyID string, in RegionChangeInput) (Result, error) {
	if strings.TrimSpace(in.ToRegion) == "" {
		return Result{}, generic.Invalid("toRegion", nil, "is required")
	}
	base, err := s.Baseline(ctx, companyID)
	if err != nil {
		return Result{}, err
	}

	var from *carbon.Intensity
	if strings.TrimSpace(in.FromRegion) != "" {
		f, err := s.calc.Resolve(ctx, companyID, in.FromRegion)
		if err != nil {
			return Result{}, err
		}
		from = &f
	}
	to, err := s.calc.Resolve(ctx, companyID, in.ToRegion)
	if err != nil {
		return Result{}, err
	}
	return RegionChange(base.Footprint, from, to, in.TargetPricePerKwh)
}

// Save stores a result under a name.
func (s *Service) Save(ctx context.Context, companyID, name string, result Result) (SavedScenario, error) {
	if _, err := s.companies.Company(ctx, companyID); err != nil {
		return SavedScenario{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return SavedScenario{}, generic.Invalid("name", nil, "must not be empty")
	}
	switch result.Kind {
	case KindGrowth, KindRegionChange, KindEfficiency:
	default:
		return SavedScenario{}, generic.Invalid("kind", result.Kind, "must be GROWTH, REGION_CHANGE or EFFICIENCY")
	}

	sc := SavedScenario{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		Name:      name,
		Result:    result,
		CreatedAt: s.now().UTC(),
	}
	if err := s.scenarios.SaveScenario(ctx, sc); err != nil {
		return SavedScenario{}, err
	}
	s.logger.Info("scenario saved",
		zap.String("company_id", companyID),
		zap.String("scenario_id", sc.ID),
		zap.String("kind", string(result.Kind)),
	)
	return sc, nil
}

// Scenarios lists saved scenarios, newest first.
func (s *Service) Scenarios(ctx context.Context, companyID string) ([]SavedScenario, error) {
	if _, err := s.companies.Company(ctx, companyID); err != nil {
		return nil, err
	}
	return s.scenarios.ListScenarios(ctx, companyID)
}
