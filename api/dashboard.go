package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/warp/carbon-engine/alerts"
	"github.com/warp/carbon-engine/analytics"
	"github.com/warp/carbon-engine/energy"
	"github.com/warp/carbon-engine/generic"
)

// =============================================================================
// DASHBOARD
// =============================================================================

// GetDashboard returns every dashboard panel in one response. The panels
// are independent reads and are loaded concurrently; the first failure
// fails the whole response.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "id")
	company, err := h.Directory.Company(r.Context(), companyID)
	if err != nil {
		h.respondError(w, r, "Failed to load dashboard", err)
		return
	}

	var (
		summary     analytics.Summary
		departments []analytics.DepartmentUsage
		trends      []analytics.MonthlyBucket
		forecast    []analytics.ForecastPoint
		active      []alerts.Alert
		insights    []alerts.Insight
		regions     []analytics.RegionUsage
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		summary, err = h.Analytics.Summary(ctx, companyID)
		return err
	})
	g.Go(func() (err error) {
		departments, err = h.Analytics.Departments(ctx, companyID, generic.Period{})
		return err
	})
	g.Go(func() (err error) {
		trends, err = h.Analytics.Trends(ctx, companyID, analytics.DefaultHistoryMonths)
		return err
	})
	g.Go(func() (err error) {
		forecast, err = h.Analytics.Forecast(ctx, companyID, analytics.DefaultHistoryMonths, analytics.DefaultForecastMonths)
		return err
	})
	g.Go(func() (err error) {
		active, err = h.Alerts.Alerts(ctx, companyID)
		return err
	})
	g.Go(func() (err error) {
		insights, err = h.Alerts.Insights(ctx, companyID)
		return err
	})
	g.Go(func() (err error) {
		regions, err = h.Analytics.Regions(ctx, companyID)
		return err
	})
	if err := g.Wait(); err != nil {
		h.respondError(w, r, "Failed to load dashboard", err)
		return
	}

	writeJSON(w, http.StatusOK, DashboardDTO{
		Company:             toCompanyDTO(company),
		Summary:             toSummaryDTO(summary),
		DepartmentBreakdown: toDepartmentUsageDTOs(departments),
		Trends:              toTrendDTOs(trends),
		Forecasts:           toForecastDTOs(forecast),
		Alerts:              toAlertDTOs(active),
		Insights:            toInsightDTOs(insights),
		RegionBreakdown:     toRegionUsageDTOs(regions),
	})
}

// GetKPIs returns the 30-day summary.
func (h *Handler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Analytics.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, "Failed to compute KPIs", err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(summary))
}

// GetDepartmentBreakdown breaks AI usage down by department, all time
// unless ?startDate=&endDate= narrows it.
func (h *Handler) GetDepartmentBreakdown(w http.ResponseWriter, r *http.Request) {
	period, err := h.parsePeriod(r)
	if err != nil {
		h.respondError(w, r, "Invalid date range", err)
		return
	}
	rows, err := h.Analytics.Departments(r.Context(), chi.URLParam(r, "id"), period)
	if err != nil {
		h.respondError(w, r, "Failed to compute department breakdown", err)
		return
	}
	writeJSON(w, http.StatusOK, toDepartmentUsageDTOs(rows))
}

func (h *Handler) GetRegionBreakdown(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Analytics.Regions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, "Failed to compute region breakdown", err)
		return
	}
	writeJSON(w, http.StatusOK, toRegionUsageDTOs(rows))
}

// =============================================================================
// ANALYTICS
// =============================================================================

// GetTrends returns the trailing ?months= monthly series (default 6).
func (h *Handler) GetTrends(w http.ResponseWriter, r *http.Request) {
	months, err := queryInt(r, "months", analytics.DefaultHistoryMonths)
	if err != nil {
		h.respondError(w, r, "Invalid months", err)
		return
	}
	buckets, err := h.Analytics.Trends(r.Context(), chi.URLParam(r, "id"), months)
	if err != nil {
		h.respondError(w, r, "Failed to compute trends", err)
		return
	}
	writeJSON(w, http.StatusOK, toTrendDTOs(buckets))
}

// GetForecast extrapolates ?months= months ahead (default 3) from the
// last ?history= months (default 6).
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	ahead, err := queryInt(r, "months", analytics.DefaultForecastMonths)
	if err != nil {
		h.respondError(w, r, "Invalid months", err)
		return
	}
	history, err := queryInt(r, "history", analytics.DefaultHistoryMonths)
	if err != nil {
		h.respondError(w, r, "Invalid history", err)
		return
	}
	points, err := h.Analytics.Forecast(r.Context(), chi.URLParam(r, "id"), history, ahead)
	if err != nil {
		h.respondError(w, r, "Failed to compute forecast", err)
		return
	}
	writeJSON(w, http.StatusOK, toForecastDTOs(points))
}

func (h *Handler) GetYearOverYear(w http.ResponseWriter, r *http.Request) {
	yoy, err := h.Analytics.YearOverYear(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, "Failed to compare years", err)
		return
	}
	writeJSON(w, http.StatusOK, toYearOverYearDTO(yoy))
}

// =============================================================================
// ALERTS & INSIGHTS
// =============================================================================

// ListAlerts evaluates thresholds against month-to-date usage.
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	active, err := h.Alerts.Alerts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, "Failed to evaluate alerts", err)
		return
	}
	writeJSON(w, http.StatusOK, toAlertDTOs(active))
}

func (h *Handler) ListThresholds(w http.ResponseWriter, r *http.Request) {
	thresholds, err := h.Directory.Thresholds(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, "Failed to list thresholds", err)
		return
	}
	dtos := make([]ThresholdDTO, len(thresholds))
	for i, t := range thresholds {
		dtos[i] = toThresholdDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ConfigureThreshold upserts the threshold for one metric type.
func (h *Handler) ConfigureThreshold(w http.ResponseWriter, r *http.Request) {
	var req ThresholdRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ThresholdValue == nil {
		h.respondError(w, r, "Invalid threshold", generic.Invalid("thresholdValue", nil, "is required"))
		return
	}
	t, err := h.Directory.ConfigureThreshold(r.Context(), chi.URLParam(r, "id"), energy.ThresholdInput{
		MetricType: req.MetricType,
		Value:      *req.ThresholdValue,
		Message:    req.AlertMessage,
		Active:     req.Active,
	})
	if err != nil {
		h.respondError(w, r, "Failed to configure threshold", err)
		return
	}
	writeJSON(w, http.StatusOK, toThresholdDTO(t))
}

func (h *Handler) ListInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := h.Alerts.Insights(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, "Failed to derive insights", err)
		return
	}
	writeJSON(w, http.StatusOK, toInsightDTOs(insights))
}
