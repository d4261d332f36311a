/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the domain model (decimal quantities, TimePoint dates) from the external
  API contract the dashboard client expects: camelCase keys, plain JSON
  numbers, YYYY-MM-DD dates.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

NUMBERS:
  Request quantities decode straight into decimal.Decimal (JSON numbers or
  numeric strings are both accepted), so no precision is lost on the way
  in. Responses are converted to float64 at this boundary only.

VALIDATION:
  Validation is done in the domain packages, not in DTOs. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/carbon-engine/alerts"
	"github.com/warp/carbon-engine/analytics"
	"github.com/warp/carbon-engine/carbon"
	"github.com/warp/carbon-engine/energy"
	"github.com/warp/carbon-engine/generic"
	"github.com/warp/carbon-engine/simulation"
)

// =============================================================================
// COMMON
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Field   string `json:"field,omitempty"`
}

type PeriodDTO struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func toPeriodDTO(p generic.Period) *PeriodDTO {
	if p.IsZero() {
		return nil
	}
	return &PeriodDTO{StartDate: p.Start.String(), EndDate: p.End.String()}
}

func num(d decimal.Decimal) float64 {
	return generic.Round2(d)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// =============================================================================
// COMPANIES & DEPARTMENTS
// =============================================================================

type CompanyDTO struct {
	ID                    string  `json:"id"`
	Name                  string  `json:"name"`
	Industry              string  `json:"industry,omitempty"`
	Country               string  `json:"country,omitempty"`
	Region                string  `json:"region"`
	BaseAIPercentage      float64 `json:"baseAiPercentage"`
	ElectricityCostPerKwh float64 `json:"electricityCostPerKwh"`
	Currency              string  `json:"currency"`
	CreatedAt             string  `json:"createdAt,omitempty"`
	UpdatedAt             string  `json:"updatedAt,omitempty"`
}

func toCompanyDTO(c energy.Company) CompanyDTO {
	return CompanyDTO{
		ID:                    c.ID,
		Name:                  c.Name,
		Industry:              c.Industry,
		Country:               c.Country,
		Region:                c.Region,
		BaseAIPercentage:      generic.Float(c.BaseAIPercentage),
		ElectricityCostPerKwh: generic.Float(c.ElectricityCostPerKwh),
		Currency:              c.Currency,
		CreatedAt:             formatTime(c.CreatedAt),
		UpdatedAt:             formatTime(c.UpdatedAt),
	}
}

// CompanyRequest creates or updates a company. Omitted fields keep their
// current (update) or default (create) values.
type CompanyRequest struct {
	Name                  *string          `json:"name"`
	Industry              *string          `json:"industry"`
	Country               *string          `json:"country"`
	Region                *string          `json:"region"`
	BaseAIPercentage      *decimal.Decimal `json:"baseAiPercentage"`
	ElectricityCostPerKwh *decimal.Decimal `json:"electricityCostPerKwh"`
	Currency              *string          `json:"currency"`
}

func (r CompanyRequest) toInput() energy.CompanyInput {
	return energy.CompanyInput{
		Name:                  r.Name,
		Industry:              r.Industry,
		Country:               r.Country,
		Region:                r.Region,
		BaseAIPercentage:      r.BaseAIPercentage,
		ElectricityCostPerKwh: r.ElectricityCostPerKwh,
		Currency:              r.Currency,
	}
}

type DepartmentDTO struct {
	ID            string  `json:"id"`
	CompanyID     string  `json:"companyId"`
	Name          string  `json:"name"`
	Team          string  `json:"team,omitempty"`
	Product       string  `json:"product,omitempty"`
	Description   string  `json:"description,omitempty"`
	AIUsageWeight float64 `json:"aiUsageWeight"`
	EmployeeCount int     `json:"employeeCount"`
	CreatedAt     string  `json:"createdAt,omitempty"`
	UpdatedAt     string  `json:"updatedAt,omitempty"`
}

func toDepartmentDTO(d energy.Department) DepartmentDTO {
	return DepartmentDTO{
		ID:            d.ID,
		CompanyID:     d.CompanyID,
		Name:          d.Name,
		Team:          d.Team,
		Product:       d.Product,
		Description:   d.Description,
		AIUsageWeight: generic.Float(d.AIUsageWeight),
		EmployeeCount: d.EmployeeCount,
		CreatedAt:     formatTime(d.CreatedAt),
		UpdatedAt:     formatTime(d.UpdatedAt),
	}
}

type DepartmentRequest struct {
	Name          *string          `json:"name"`
	Team          *string          `json:"team"`
	Product       *string          `json:"product"`
	Description   *string          `json:"description"`
	AIUsageWeight *decimal.Decimal `json:"aiUsageWeight"`
	EmployeeCount *int             `json:"employeeCount"`
}

func (r DepartmentRequest) toInput() energy.DepartmentInput {
	return energy.DepartmentInput{
		Name:          r.Name,
		Team:          r.Team,
		Product:       r.Product,
		Description:   r.Description,
		AIUsageWeight: r.AIUsageWeight,
		EmployeeCount: r.EmployeeCount,
	}
}

// =============================================================================
// ENERGY RECORDS
// =============================================================================

type EnergyRecordDTO struct {
	ID                string  `json:"id"`
	CompanyID         string  `json:"companyId"`
	DepartmentID      string  `json:"departmentId,omitempty"`
	DepartmentName    string  `json:"departmentName,omitempty"`
	UsageDate         string  `json:"usageDate"`
	TotalKwh          float64 `json:"totalKwh"`
	AIAttributedKwh   float64 `json:"aiAttributedKwh"`
	AttributionWeight float64 `json:"attributionWeight"`
	AttributionSource string  `json:"attributionSource"`
	Region            string  `json:"region"`
	CarbonIntensity   float64 `json:"carbonIntensity"`
	IntensitySource   string  `json:"intensitySource"`
	Co2eKg            float64 `json:"co2eKg"`
	AICo2eKg          float64 `json:"aiCo2eKg"`
	Cost              float64 `json:"cost"`
	AICost            float64 `json:"aiCost"`
	Currency          string  `json:"currency"`
	PeriodType        string  `json:"periodType"`
	DataSource        string  `json:"dataSource"`
	CreatedAt         string  `json:"createdAt"`
}

func toEnergyRecordDTO(r energy.EnergyRecord) EnergyRecordDTO {
	return EnergyRecordDTO{
		ID:                r.ID,
		CompanyID:         r.CompanyID,
		DepartmentID:      r.DepartmentID,
		DepartmentName:    r.DepartmentName,
		UsageDate:         r.UsageDate.String(),
		TotalKwh:          generic.Float(r.TotalKwh),
		AIAttributedKwh:   generic.Float(r.Derived.AIAttributedKwh),
		AttributionWeight: generic.Float(r.Derived.AttributionWeight),
		AttributionSource: string(r.Derived.AttributionSource),
		Region:            r.Region,
		CarbonIntensity:   generic.Float(r.Derived.CarbonIntensity),
		IntensitySource:   r.Derived.IntensitySource,
		Co2eKg:            generic.Float(r.Derived.Co2eKg),
		AICo2eKg:          generic.Float(r.Derived.AICo2eKg),
		Cost:              generic.Float(r.Derived.Cost),
		AICost:            generic.Float(r.Derived.AICost),
		Currency:          r.Currency,
		PeriodType:        string(r.PeriodType),
		DataSource:        string(r.DataSource),
		CreatedAt:         formatTime(r.CreatedAt),
	}
}

func toEnergyRecordDTOs(records []energy.EnergyRecord) []EnergyRecordDTO {
	dtos := make([]EnergyRecordDTO, len(records))
	for i, r := range records {
		dtos[i] = toEnergyRecordDTO(r)
	}
	return dtos
}

// EnergyRequest appends one reading.
type EnergyRequest struct {
	DepartmentID string           `json:"departmentId"`
	UsageDate    string           `json:"usageDate"`
	TotalKwh     *decimal.Decimal `json:"totalKwh"`
	Region       string           `json:"region"`
	PeriodType   string           `json:"periodType"`
}

// ImportResponse reports a CSV import. Rejected rows do not fail the call.
type ImportResponse struct {
	Success         bool                   `json:"success"`
	RecordsImported int                    `json:"recordsImported"`
	Rejected        []generic.RowRejection `json:"rejected"`
}

// =============================================================================
// ANALYTICS
// =============================================================================

type TotalsDTO struct {
	TotalKwh    float64 `json:"totalKwh"`
	AIKwh       float64 `json:"aiKwh"`
	Co2eKg      float64 `json:"co2eKg"`
	AICo2eKg    float64 `json:"aiCo2eKg"`
	Cost        float64 `json:"cost"`
	AICost      float64 `json:"aiCost"`
	RecordCount int     `json:"recordCount"`
}

func toTotalsDTO(t analytics.Totals) TotalsDTO {
	return TotalsDTO{
		TotalKwh:    num(t.TotalKwh),
		AIKwh:       num(t.AIKwh),
		Co2eKg:      num(t.Co2eKg),
		AICo2eKg:    num(t.AICo2eKg),
		Cost:        num(t.Cost),
		AICost:      num(t.AICost),
		RecordCount: t.RecordCount,
	}
}

type TrendPointDTO struct {
	Month string `json:"month"`
	Label string `json:"label"`
	TotalsDTO
}

func toTrendDTOs(buckets []analytics.MonthlyBucket) []TrendPointDTO {
	dtos := make([]TrendPointDTO, len(buckets))
	for i, b := range buckets {
		dtos[i] = TrendPointDTO{Month: b.Key, Label: b.Label, TotalsDTO: toTotalsDTO(b.Totals)}
	}
	return dtos
}

type ForecastPointDTO struct {
	Month             string  `json:"month"`
	Label             string  `json:"label"`
	Date              string  `json:"date"`
	PredictedAIKwh    float64 `json:"predictedAiKwh"`
	PredictedAICo2eKg float64 `json:"predictedAiCo2eKg"`
	PredictedAICost   float64 `json:"predictedAiCost"`
	ConfidenceLow     float64 `json:"confidenceLow"`
	ConfidenceHigh    float64 `json:"confidenceHigh"`
}

func toForecastDTOs(points []analytics.ForecastPoint) []ForecastPointDTO {
	dtos := make([]ForecastPointDTO, len(points))
	for i, p := range points {
		dtos[i] = ForecastPointDTO{
			Month:             p.Key,
			Label:             p.Label,
			Date:              p.Date.String(),
			PredictedAIKwh:    num(p.PredictedAIKwh),
			PredictedAICo2eKg: num(p.PredictedAICo2eKg),
			PredictedAICost:   num(p.PredictedAICost),
			ConfidenceLow:     num(p.ConfidenceLow),
			ConfidenceHigh:    num(p.ConfidenceHigh),
		}
	}
	return dtos
}

type DepartmentUsageDTO struct {
	DepartmentID  string  `json:"departmentId,omitempty"`
	Name          string  `json:"departmentName"`
	Team          string  `json:"team,omitempty"`
	AIUsageWeight float64 `json:"aiUsageWeight"`
	Deleted       bool    `json:"deleted,omitempty"`
	Percentage    float64 `json:"percentage"`
	TotalsDTO
}

func toDepartmentUsageDTOs(rows []analytics.DepartmentUsage) []DepartmentUsageDTO {
	dtos := make([]DepartmentUsageDTO, len(rows))
	for i, r := range rows {
		dtos[i] = DepartmentUsageDTO{
			DepartmentID:  r.DepartmentID,
			Name:          r.Name,
			Team:          r.Team,
			AIUsageWeight: generic.Float(r.AIUsageWeight),
			Deleted:       r.Deleted,
			Percentage:    num(r.Percentage),
			TotalsDTO:     toTotalsDTO(r.Totals),
		}
	}
	return dtos
}

type YearOverYearDTO struct {
	Comparison            string    `json:"comparison"`
	ThisYear              PeriodDTO `json:"thisYear"`
	LastYear              PeriodDTO `json:"lastYear"`
	ThisYearAIKwh         float64   `json:"thisYearAiKwh"`
	LastYearAIKwh         float64   `json:"lastYearAiKwh"`
	AIKwhChangePercent    float64   `json:"aiKwhChangePercent"`
	ThisYearTotalKwh      float64   `json:"thisYearTotalKwh"`
	LastYearTotalKwh      float64   `json:"lastYearTotalKwh"`
	TotalKwhChangePercent float64   `json:"totalKwhChangePercent"`
}

func toYearOverYearDTO(y analytics.YearOverYear) YearOverYearDTO {
	return YearOverYearDTO{
		Comparison:            y.Label,
		ThisYear:              *toPeriodDTO(y.ThisYear),
		LastYear:              *toPeriodDTO(y.LastYear),
		ThisYearAIKwh:         num(y.ThisYearAIKwh),
		LastYearAIKwh:         num(y.LastYearAIKwh),
		AIKwhChangePercent:    num(y.AIKwhChangePercent),
		ThisYearTotalKwh:      num(y.ThisYearTotalKwh),
		LastYearTotalKwh:      num(y.LastYearTotalKwh),
		TotalKwhChangePercent: num(y.TotalKwhChangePercent),
	}
}

// SummaryDTO is the KPI block of the dashboard.
type SummaryDTO struct {
	Period          *PeriodDTO `json:"period"`
	PreviousPeriod  *PeriodDTO `json:"previousPeriod"`
	PeriodType      string     `json:"periodType"`
	TotalEnergyKwh  float64    `json:"totalEnergyKwh"`
	AIEnergyKwh     float64    `json:"aiEnergyKwh"`
	AIPercentage    float64    `json:"aiPercentage"`
	TotalCo2eKg     float64    `json:"totalCo2eKg"`
	AICo2eKg        float64    `json:"aiCo2eKg"`
	TotalCost       float64    `json:"totalCost"`
	AICost          float64    `json:"aiCost"`
	Currency        string     `json:"currency"`
	EnergyChange    float64    `json:"energyChangePercent"`
	AIEnergyChange  float64    `json:"aiEnergyChangePercent"`
	CarbonChange    float64    `json:"carbonChangePercent"`
	CostChange      float64    `json:"costChangePercent"`
	DepartmentCount int        `json:"departmentCount"`
	DataPointCount  int        `json:"dataPointCount"`
}

func toSummaryDTO(s analytics.Summary) SummaryDTO {
	return SummaryDTO{
		Period:          toPeriodDTO(s.Period),
		PreviousPeriod:  toPeriodDTO(s.PreviousPeriod),
		PeriodType:      "LAST_30_DAYS",
		TotalEnergyKwh:  num(s.Current.TotalKwh),
		AIEnergyKwh:     num(s.Current.AIKwh),
		AIPercentage:    num(s.AIPercentage),
		TotalCo2eKg:     num(s.Current.Co2eKg),
		AICo2eKg:        num(s.Current.AICo2eKg),
		TotalCost:       num(s.Current.Cost),
		AICost:          num(s.Current.AICost),
		Currency:        s.Currency,
		EnergyChange:    num(s.EnergyChange),
		AIEnergyChange:  num(s.AIEnergyChange),
		CarbonChange:    num(s.CarbonChange),
		CostChange:      num(s.CostChange),
		DepartmentCount: s.DepartmentCount,
		DataPointCount:  s.Current.RecordCount,
	}
}

type RegionUsageDTO struct {
	Region     string  `json:"region"`
	Name       string  `json:"name"`
	Intensity  float64 `json:"carbonIntensity"`
	Percentage float64 `json:"percentage"`
	TotalsDTO
}

func toRegionUsageDTOs(rows []analytics.RegionUsage) []RegionUsageDTO {
	dtos := make([]RegionUsageDTO, len(rows))
	for i, r := range rows {
		dtos[i] = RegionUsageDTO{
			Region:     r.Region,
			Name:       r.Name,
			Intensity:  generic.Float(r.Intensity),
			Percentage: num(r.Percentage),
			TotalsDTO:  toTotalsDTO(r.Totals),
		}
	}
	return dtos
}

// DashboardDTO is the full dashboard in one response.
type DashboardDTO struct {
	Company             CompanyDTO           `json:"company"`
	Summary             SummaryDTO           `json:"summary"`
	DepartmentBreakdown []DepartmentUsageDTO `json:"departmentBreakdown"`
	Trends              []TrendPointDTO      `json:"trends"`
	Forecasts           []ForecastPointDTO   `json:"forecasts"`
	Alerts              []AlertDTO           `json:"alerts"`
	Insights            []InsightDTO         `json:"insights"`
	RegionBreakdown     []RegionUsageDTO     `json:"regionBreakdown"`
}

// =============================================================================
// CARBON
// =============================================================================

type CarbonIntensityDTO struct {
	Region          string  `json:"region"`
	Name            string  `json:"name"`
	CarbonIntensity float64 `json:"carbonIntensity"`
	Unit            string  `json:"unit"`
	Source          string  `json:"source,omitempty"`
}

func toRegionDTOs(regions []carbon.Region) []CarbonIntensityDTO {
	dtos := make([]CarbonIntensityDTO, len(regions))
	for i, r := range regions {
		dtos[i] = CarbonIntensityDTO{
			Region:          r.Code,
			Name:            r.Name,
			CarbonIntensity: generic.Float(r.Intensity),
			Unit:            carbon.IntensityUnit,
		}
	}
	return dtos
}

type CarbonConfigDTO struct {
	CompanyID       string  `json:"companyId"`
	Region          string  `json:"region"`
	CarbonIntensity float64 `json:"carbonIntensity"`
	Unit            string  `json:"unit"`
	ValidYear       int     `json:"validYear"`
	UpdatedAt       string  `json:"updatedAt,omitempty"`
}

func toCarbonConfigDTO(c energy.CarbonConfig) CarbonConfigDTO {
	return CarbonConfigDTO{
		CompanyID:       c.CompanyID,
		Region:          c.Region,
		CarbonIntensity: generic.Float(c.Intensity),
		Unit:            c.Unit,
		ValidYear:       c.ValidYear,
		UpdatedAt:       formatTime(c.UpdatedAt),
	}
}

type CarbonConfigRequest struct {
	Region          string           `json:"region"`
	CarbonIntensity *decimal.Decimal `json:"carbonIntensity"`
	ValidYear       int              `json:"validYear"`
}

// =============================================================================
// SIMULATION
// =============================================================================

type FootprintDTO struct {
	EnergyKwh float64 `json:"energyKwh"`
	Co2eKg    float64 `json:"co2eKg"`
	Cost      float64 `json:"cost"`
}

func toFootprintDTO(f simulation.Footprint) FootprintDTO {
	return FootprintDTO{EnergyKwh: num(f.Kwh), Co2eKg: num(f.Co2eKg), Cost: num(f.Cost)}
}

// SimulationParams is shared by the simulate requests and saved
// scenarios. Only the fields of the scenario kind are read.
type SimulationParams struct {
	GrowthPercent     *decimal.Decimal `json:"growthPercent,omitempty"`
	MonthsAhead       int              `json:"monthsAhead,omitempty"`
	EfficiencyPercent *decimal.Decimal `json:"efficiencyPercent,omitempty"`
	FromRegion        string           `json:"fromRegion,omitempty"`
	ToRegion          string           `json:"toRegion,omitempty"`
	TargetPricePerKwh *decimal.Decimal `json:"targetPricePerKwh,omitempty"`
}

type ParametersDTO struct {
	GrowthPercent     *float64 `json:"growthPercent,omitempty"`
	MonthsAhead       int      `json:"monthsAhead,omitempty"`
	EfficiencyPercent *float64 `json:"efficiencyPercent,omitempty"`
	FromRegion        string   `json:"fromRegion,omitempty"`
	ToRegion          string   `json:"toRegion,omitempty"`
	FromIntensity     *float64 `json:"fromIntensity,omitempty"`
	ToIntensity       *float64 `json:"toIntensity,omitempty"`
	TargetPricePerKwh *float64 `json:"targetPricePerKwh,omitempty"`
}

func optFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := generic.Float(*d)
	return &f
}

func toParametersDTO(p simulation.Parameters) ParametersDTO {
	return ParametersDTO{
		GrowthPercent:     optFloat(p.GrowthPercent),
		MonthsAhead:       p.MonthsAhead,
		EfficiencyPercent: optFloat(p.EfficiencyPercent),
		FromRegion:        p.FromRegion,
		ToRegion:          p.ToRegion,
		FromIntensity:     optFloat(p.FromIntensity),
		ToIntensity:       optFloat(p.ToIntensity),
		TargetPricePerKwh: optFloat(p.TargetPricePerKwh),
	}
}

type SimulationDTO struct {
	Kind          string        `json:"scenarioType"`
	Parameters    ParametersDTO `json:"parameters"`
	Baseline      FootprintDTO  `json:"baseline"`
	Projected     FootprintDTO  `json:"projected"`
	EnergyDelta   float64       `json:"energyDelta"`
	CarbonDelta   float64       `json:"carbonDelta"`
	CostDelta     float64       `json:"costDelta"`
	PercentChange float64       `json:"percentChange"`
	Description   string        `json:"description"`
}

func toSimulationDTO(r simulation.Result) SimulationDTO {
	return SimulationDTO{
		Kind:          string(r.Kind),
		Parameters:    toParametersDTO(r.Parameters),
		Baseline:      toFootprintDTO(r.Baseline),
		Projected:     toFootprintDTO(r.Projected),
		EnergyDelta:   num(r.EnergyDelta),
		CarbonDelta:   num(r.CarbonDelta),
		CostDelta:     num(r.CostDelta),
		PercentChange: num(r.PercentChange),
		Description:   r.Description,
	}
}

// SaveScenarioRequest names a scenario to re-run and persist.
type SaveScenarioRequest struct {
	Name       string           `json:"name"`
	Kind       string           `json:"scenarioType"`
	Parameters SimulationParams `json:"parameters"`
}

type ScenarioDTO struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	CreatedAt string        `json:"createdAt"`
	Result    SimulationDTO `json:"result"`
}

func toScenarioDTO(s simulation.SavedScenario) ScenarioDTO {
	return ScenarioDTO{
		ID:        s.ID,
		Name:      s.Name,
		CreatedAt: formatTime(s.CreatedAt),
		Result:    toSimulationDTO(s.Result),
	}
}

// =============================================================================
// ALERTS & INSIGHTS
// =============================================================================

type ThresholdDTO struct {
	ID             string  `json:"id"`
	MetricType     string  `json:"metricType"`
	ThresholdValue float64 `json:"thresholdValue"`
	AlertMessage   string  `json:"alertMessage,omitempty"`
	Active         bool    `json:"active"`
	CreatedAt      string  `json:"createdAt,omitempty"`
}

func toThresholdDTO(t energy.Threshold) ThresholdDTO {
	return ThresholdDTO{
		ID:             t.ID,
		MetricType:     string(t.MetricType),
		ThresholdValue: generic.Float(t.Value),
		AlertMessage:   t.Message,
		Active:         t.Active,
		CreatedAt:      formatTime(t.CreatedAt),
	}
}

type ThresholdRequest struct {
	MetricType     string           `json:"metricType"`
	ThresholdValue *decimal.Decimal `json:"thresholdValue"`
	AlertMessage   string           `json:"alertMessage"`
	Active         *bool            `json:"active"`
}

type AlertDTO struct {
	ThresholdID        string  `json:"thresholdId"`
	MetricType         string  `json:"metricType"`
	Title              string  `json:"title"`
	Message            string  `json:"message"`
	Severity           string  `json:"severity"`
	ThresholdValue     float64 `json:"thresholdValue"`
	CurrentValue       float64 `json:"currentValue"`
	PercentOfThreshold float64 `json:"percentOfThreshold"`
	Triggered          bool    `json:"triggered"`
}

func toAlertDTOs(list []alerts.Alert) []AlertDTO {
	dtos := make([]AlertDTO, len(list))
	for i, a := range list {
		dtos[i] = AlertDTO{
			ThresholdID:        a.ThresholdID,
			MetricType:         string(a.MetricType),
			Title:              a.Title,
			Message:            a.Message,
			Severity:           string(a.Severity),
			ThresholdValue:     num(a.ThresholdValue),
			CurrentValue:       num(a.CurrentValue),
			PercentOfThreshold: generic.Float(a.PercentOfThreshold.Round(1)),
			Triggered:          a.Triggered,
		}
	}
	return dtos
}

type InsightDTO struct {
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
	Priority    string `json:"priority"`
	Actionable  string `json:"actionable"`
}

func toInsightDTOs(list []alerts.Insight) []InsightDTO {
	dtos := make([]InsightDTO, len(list))
	for i, in := range list {
		dtos[i] = InsightDTO{
			Category:    string(in.Category),
			Title:       in.Title,
			Description: in.Description,
			Impact:      in.Impact,
			Priority:    string(in.Priority),
			Actionable:  in.Actionable,
		}
	}
	return dtos
}
