/*
handlers.go - HTTP API handlers for the carbon engine

PURPOSE:
  Exposes the ledger, analytics, alerts and simulation engines via REST.
  Handles HTTP request/response and JSON serialization, and delegates to
  the domain packages. No business rule lives here.

ENDPOINTS:
  Companies:
    GET    /api/companies                      List companies
    POST   /api/companies                      Create company
    GET    /api/companies/{id}                 Get company
    PUT    /api/companies/{id}                 Update company
    DELETE /api/companies/{id}                 Delete company and everything it owns

  Departments:
    GET    /api/companies/{id}/departments     List departments
    POST   /api/companies/{id}/departments     Create department
    GET    /api/departments/{id}               Get department
    PUT    /api/departments/{id}               Update department
    DELETE /api/departments/{id}               Delete department (records keep their snapshot)

  Energy:
    GET    /api/companies/{id}/energy          Records (?startDate=&endDate=)
    POST   /api/companies/{id}/energy          Append one reading
    POST   /api/companies/{id}/energy/csv      Bulk CSV import

  Carbon:
    GET    /api/carbon/intensities             Registry defaults
    GET    /api/companies/{id}/carbon/config   Company overrides
    POST   /api/companies/{id}/carbon/config   Upsert an override

  Dashboards, analytics, simulation, alerts: see dashboard.go and
  simulate.go.

ERROR HANDLING:
  Errors are returned as JSON {error, details, field}:
  - 400: ValidationError, malformed body or query
  - 404: NotFoundError
  - 413: CSV upload above maxUploadBytes
  - 500: Anything else (logged)
  A CSV import with rejected rows is NOT an error: 200 with the rejections.

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/carbon-engine/alerts"
	"github.com/warp/carbon-engine/analytics"
	"github.com/warp/carbon-engine/carbon"
	"github.com/warp/carbon-engine/energy"
	"github.com/warp/carbon-engine/generic"
	"github.com/warp/carbon-engine/simulation"
)

// maxUploadBytes caps CSV uploads.
const maxUploadBytes = 10 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is everything the handlers persist to.
type Store interface {
	energy.Store
	simulation.ScenarioStore
}

// Options carries the optional collaborators of a Handler.
type Options struct {
	Logger    *zap.Logger
	Publisher energy.Publisher
	Metrics   *Metrics
	Now       func() time.Time
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Directory  *energy.Directory
	Ledger     *energy.Ledger
	Analytics  *analytics.Service
	Alerts     *alerts.Service
	Simulation *simulation.Service
	Registry   *carbon.Registry
	Metrics    *Metrics

	logger *zap.Logger
	now    func() time.Time
}

// NewHandler wires the engines over store.
func NewHandler(store Store, registry *carbon.Registry, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}

	calc := carbon.NewCalculator(registry, store)
	directory := energy.NewDirectory(store, registry, logger.Named("directory")).WithClock(now)
	ledgerOpts := []energy.LedgerOption{
		energy.WithLogger(logger.Named("ledger")),
		energy.WithObserver(metrics),
		energy.WithClock(now),
	}
	if opts.Publisher != nil {
		ledgerOpts = append(ledgerOpts, energy.WithPublisher(opts.Publisher))
	}
	ledger := energy.NewLedger(store, calc, ledgerOpts...)

	return &Handler{
		Directory:  directory,
		Ledger:     ledger,
		Analytics:  analytics.NewService(ledger, directory, registry).WithClock(now),
		Alerts:     alerts.NewService(ledger, directory, registry, metrics).WithClock(now),
		Simulation: simulation.NewService(ledger, directory, calc, store, logger.Named("simulation")).WithClock(now),
		Registry:   registry,
		Metrics:    metrics,
		logger:     logger,
		now:        now,
	}
}

func (h *Handler) today() generic.TimePoint {
	return generic.FromTime(h.now())
}

// Healthz is the liveness probe.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// COMPANY HANDLERS
// =============================================================================

// ListCompanies returns all companies.
func (h *Handler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.Directory.Companies(r.Context())
	if err != nil {
		h.respondError(w, r, "Failed to list companies", err)
		return
	}
	dtos := make([]CompanyDTO, len(companies))
	for i, c := range companies {
		dtos[i] = toCompanyDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCompany creates a company with defaults for omitted fields.
func (h *Handler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var req CompanyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	company, err := h.Directory.CreateCompany(r.Context(), req.toInput())
	if err != nil {
		h.respondError(w, r, "Failed to create company", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCompanyDTO(company))
}

// GetCompany returns a single company.
func (h *Handler) GetCompany(w http.ResponseWriter, r *http.Request) {
	company, err := h.Directory.Company(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, "Failed to get company", err)
		return
	}
	writeJSON(w, http.StatusOK, toCompanyDTO(company))
}

// UpdateCompany changes the fields present in the body.
func (h *Handler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	var req CompanyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	company, err := h.Directory.UpdateCompany(r.Context(), chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		h.respondError(w, r, "Failed to update company", err)
		return
	}
	writeJSON(w, http.StatusOK, toCompanyDTO(company))
}

// DeleteCompany removes the company and everything it owns.
func (h *Handler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	if err := h.Directory.DeleteCompany(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, r, "Failed to delete company", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// DEPARTMENT HANDLERS
// =============================================================================

func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	depts, err := h.Directory.Departments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, "Failed to list departments", err)
		return
	}
	dtos := make([]DepartmentDTO, len(depts))
	for i, d := range depts {
		dtos[i] = toDepartmentDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var req DepartmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	dept, err := h.Directory.CreateDepartment(r.Context(), chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		h.respondError(w, r, "Failed to create department", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDepartmentDTO(dept))
}

func (h *Handler) GetDepartment(w http.ResponseWriter, r *http.Request) {
	dept, err := h.Directory.Department(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, "Failed to get department", err)
		return
	}
	writeJSON(w, http.StatusOK, toDepartmentDTO(dept))
}

// UpdateDepartment changes the fields present in the body. A new weight
// applies to records appended afterwards only.
func (h *Handler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	var req DepartmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	dept, err := h.Directory.UpdateDepartment(r.Context(), chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		h.respondError(w, r, "Failed to update department", err)
		return
	}
	writeJSON(w, http.StatusOK, toDepartmentDTO(dept))
}

func (h *Handler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	if err := h.Directory.DeleteDepartment(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, r, "Failed to delete department", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ENERGY HANDLERS
// =============================================================================

// ListEnergy returns records, optionally within ?startDate=&endDate=.
func (h *Handler) ListEnergy(w http.ResponseWriter, r *http.Request) {
	period, err := h.parsePeriod(r)
	if err != nil {
		h.respondError(w, r, "Invalid date range", err)
		return
	}
	records, err := h.Ledger.Records(r.Context(), chi.URLParam(r, "id"), period)
	if err != nil {
		h.respondError(w, r, "Failed to list energy records", err)
		return
	}
	writeJSON(w, http.StatusOK, toEnergyRecordDTOs(records))
}

// CreateEnergy appends one reading.
func (h *Handler) CreateEnergy(w http.ResponseWriter, r *http.Request) {
	var req EnergyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TotalKwh == nil {
		h.respondError(w, r, "Invalid energy record", generic.Invalid("totalKwh", nil, "is required"))
		return
	}
	usageDate, err := generic.ParseDate(req.UsageDate)
	if err != nil {
		h.respondError(w, r, "Invalid energy record", generic.Invalid("usageDate", req.UsageDate, "expected YYYY-MM-DD"))
		return
	}
	periodType, err := energy.ParsePeriodType(req.PeriodType)
	if err != nil {
		h.respondError(w, r, "Invalid energy record", err)
		return
	}

	rec, err := h.Ledger.Record(r.Context(), chi.URLParam(r, "id"), energy.RecordInput{
		DepartmentID: strings.TrimSpace(req.DepartmentID),
		UsageDate:    usageDate,
		TotalKwh:     *req.TotalKwh,
		Region:       req.Region,
		PeriodType:   periodType,
		DataSource:   energy.SourceManual,
	})
	if err != nil {
		h.respondError(w, r, "Failed to record energy usage", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEnergyRecordDTO(rec))
}

// ImportEnergyCSV accepts a multipart "file" field or a raw text/csv body.
func (h *Handler) ImportEnergyCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	var src io.Reader = r.Body
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid multipart upload", err)
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "Missing file field", err)
			return
		}
		defer file.Close()
		src = file
	}

	result, err := h.Ledger.Import(r.Context(), chi.URLParam(r, "id"), src)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "CSV upload too large", err)
		return
	}
	if err != nil && !generic.IsPartialImport(err) {
		h.respondError(w, r, "Failed to import CSV", err)
		return
	}
	rejected := result.Rejected
	if rejected == nil {
		rejected = []generic.RowRejection{}
	}
	writeJSON(w, http.StatusOK, ImportResponse{
		Success:         result.Success,
		RecordsImported: result.RecordsImported,
		Rejected:        rejected,
	})
}

// =============================================================================
// CARBON HANDLERS
// =============================================================================

// ListIntensities returns the registry defaults.
func (h *Handler) ListIntensities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toRegionDTOs(h.Registry.All()))
}

func (h *Handler) ListCarbonConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := h.Directory.CarbonConfigs(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, "Failed to list carbon configuration", err)
		return
	}
	dtos := make([]CarbonConfigDTO, len(configs))
	for i, c := range configs {
		dtos[i] = toCarbonConfigDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SetCarbonConfig upserts a company override. Existing records keep the
// intensity they were derived with.
func (h *Handler) SetCarbonConfig(w http.ResponseWriter, r *http.Request) {
	var req CarbonConfigRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.CarbonIntensity == nil {
		h.respondError(w, r, "Invalid carbon configuration", generic.Invalid("carbonIntensity", nil, "is required"))
		return
	}
	cfg, err := h.Directory.SetCarbonConfig(r.Context(), chi.URLParam(r, "id"), energy.CarbonConfig{
		Region:    req.Region,
		Intensity: *req.CarbonIntensity,
		ValidYear: req.ValidYear,
	})
	if err != nil {
		h.respondError(w, r, "Failed to set carbon configuration", err)
		return
	}
	writeJSON(w, http.StatusOK, toCarbonConfigDTO(cfg))
}

// GetEffectiveIntensity resolves the intensity new records in a region
// would be derived with.
func (h *Handler) GetEffectiveIntensity(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "id")
	if _, err := h.Directory.Company(r.Context(), companyID); err != nil {
		h.respondError(w, r, "Failed to resolve intensity", err)
		return
	}
	in, err := h.Ledger.Calculator().Resolve(r.Context(), companyID, chi.URLParam(r, "region"))
	if err != nil {
		h.respondError(w, r, "Failed to resolve intensity", err)
		return
	}
	writeJSON(w, http.StatusOK, CarbonIntensityDTO{
		Region:          in.Region,
		Name:            h.Registry.Name(in.Region),
		CarbonIntensity: generic.Float(in.Value),
		Unit:            carbon.IntensityUnit,
		Source:          string(in.Source),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// respondError maps domain errors to status codes. Unexpected errors are
// logged and their details withheld.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, message string, err error) {
	var verr *generic.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Details: err.Error(), Field: verr.Field})
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	default:
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, message, nil)
	}
}

// decodeBody decodes a JSON body, answering 400 itself on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// parsePeriod reads ?startDate=&endDate=. Neither means all time; a start
// without an end runs to today.
func (h *Handler) parsePeriod(r *http.Request) (generic.Period, error) {
	q := r.URL.Query()
	start, end := strings.TrimSpace(q.Get("startDate")), strings.TrimSpace(q.Get("endDate"))
	if start == "" && end == "" {
		return generic.Period{}, nil
	}

	var (
		p   generic.Period
		err error
	)
	if start != "" {
		if p.Start, err = generic.ParseDate(start); err != nil {
			return generic.Period{}, generic.Invalid("startDate", start, "expected YYYY-MM-DD")
		}
	}
	if end != "" {
		if p.End, err = generic.ParseDate(end); err != nil {
			return generic.Period{}, generic.Invalid("endDate", end, "expected YYYY-MM-DD")
		}
	} else {
		p.End = h.today()
	}
	if !p.Valid() {
		return generic.Period{}, generic.Invalid("endDate", p.End.String(), "must not be before startDate")
	}
	return p, nil
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, generic.Invalid(name, raw, "must be a non-negative integer")
	}
	return n, nil
}
