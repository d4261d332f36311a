package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/warp/carbon-engine/generic"
	"github.com/warp/carbon-engine/simulation"
)

// =============================================================================
// SIMULATION
// =============================================================================

// Simulations never write; only SaveScenario persists a result.

func (h *Handler) SimulateGrowth(w http.ResponseWriter, r *http.Request) {
	h.simulate(w, r, simulation.KindGrowth)
}

func (h *Handler) SimulateRegion(w http.ResponseWriter, r *http.Request) {
	h.simulate(w, r, simulation.KindRegionChange)
}

func (h *Handler) SimulateEfficiency(w http.ResponseWriter, r *http.Request) {
	h.simulate(w, r, simulation.KindEfficiency)
}

func (h *Handler) simulate(w http.ResponseWriter, r *http.Request, kind simulation.Kind) {
	var params SimulationParams
	if !decodeBody(w, r, &params) {
		return
	}
	result, err := h.runSimulation(r.Context(), chi.URLParam(r, "id"), kind, params)
	if err != nil {
		h.respondError(w, r, "Failed to run simulation", err)
		return
	}
	writeJSON(w, http.StatusOK, toSimulationDTO(result))
}

// SaveScenario re-runs the described simulation against the current
// baseline and stores the result under a name.
func (h *Handler) SaveScenario(w http.ResponseWriter, r *http.Request) {
	var req SaveScenarioRequest
	if !decodeBody(w, r, &req) {
		return
	}
	companyID := chi.URLParam(r, "id")
	kind, err := parseKind(req.Kind)
	if err != nil {
		h.respondError(w, r, "Invalid scenario", err)
		return
	}
	result, err := h.runSimulation(r.Context(), companyID, kind, req.Parameters)
	if err != nil {
		h.respondError(w, r, "Failed to run simulation", err)
		return
	}
	saved, err := h.Simulation.Save(r.Context(), companyID, req.Name, result)
	if err != nil {
		h.respondError(w, r, "Failed to save scenario", err)
		return
	}
	writeJSON(w, http.StatusCreated, toScenarioDTO(saved))
}

// ListScenarios returns saved scenarios, newest first.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	saved, err := h.Simulation.Scenarios(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, "Failed to list scenarios", err)
		return
	}
	dtos := make([]ScenarioDTO, len(saved))
	for i, s := range saved {
		dtos[i] = toScenarioDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) runSimulation(ctx context.Context, companyID string, kind simulation.Kind, p SimulationParams) (simulation.Result, error) {
	if _, err := h.Directory.Company(ctx, companyID); err != nil {
		return simulation.Result{}, err
	}
	switch kind {
	case simulation.KindGrowth:
		if p.GrowthPercent == nil {
			return simulation.Result{}, generic.Invalid("growthPercent", nil, "is required")
		}
		return h.Simulation.SimulateGrowth(ctx, companyID, simulation.GrowthInput{
			GrowthPercent: *p.GrowthPercent,
			MonthsAhead:   p.MonthsAhead,
		})
	case simulation.KindEfficiency:
		if p.EfficiencyPercent == nil {
			return simulation.Result{}, generic.Invalid("efficiencyPercent", nil, "is required")
		}
		return h.Simulation.SimulateEfficiency(ctx, companyID, simulation.EfficiencyInput{
			EfficiencyPercent: *p.EfficiencyPercent,
		})
	case simulation.KindRegionChange:
		return h.Simulation.SimulateRegionChange(ctx, companyID, simulation.RegionChangeInput{
			FromRegion:        p.FromRegion,
			ToRegion:          p.ToRegion,
			TargetPricePerKwh: p.TargetPricePerKwh,
		})
	}
	return simulation.Result{}, generic.Invalid("scenarioType", kind, "must be GROWTH, REGION_CHANGE or EFFICIENCY")
}

func parseKind(s string) (simulation.Kind, error) {
	switch k := simulation.Kind(strings.ToUpper(strings.TrimSpace(s))); k {
	case simulation.KindGrowth, simulation.KindRegionChange, simulation.KindEfficiency:
		return k, nil
	}
	return "", generic.Invalid("scenarioType", s, "must be GROWTH, REGION_CHANGE or EFFICIENCY")
}
