/*
Package carbon converts electricity into CO2e emissions and cost.

PURPOSE:
  Holds the region carbon-intensity registry and the calculator that
  resolves an intensity for (company, region) through an explicit
  override-then-default chain.

REGISTRY:
  The default table is process-wide static configuration. It is built once
  and injected into the Calculator as a read-only value; there is no global
  mutable singleton. Deployments may replace the table with a YAML file:

    regions:
      - code: US
        name: United States
        intensity: 386

UNITS:
  Intensity is grams CO2e per kWh. Emissions are reported in kilograms.

SEE ALSO:
  - calculator.go: Intensity resolution and emission/cost math
  - energy/ledger.go: Applies the calculator at write time
*/
package carbon

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/carbon-engine/generic"
)

// IntensityUnit is the unit every intensity in this package is expressed in.
const IntensityUnit = "gCO2/kWh"

// Region is a grid region with its default carbon intensity.
type Region struct {
	Code      string          `yaml:"code"`
	Name      string          `yaml:"name"`
	Intensity decimal.Decimal `yaml:"intensity"`
}

// Registry is a read-only lookup of region defaults. Codes are matched
// case-insensitively.
type Registry struct {
	regions map[string]Region
	order   []string
}

// NewRegistry builds a registry from the given regions, preserving order.
// Duplicate codes or negative intensities are rejected.
func NewRegistry(regions ...Region) (*Registry, error) {
	r := &Registry{regions: make(map[string]Region, len(regions))}
	for _, reg := range regions {
		code := NormalizeCode(reg.Code)
		if code == "" {
			return nil, generic.Invalid("region.code", reg.Code, "must not be empty")
		}
		if reg.Intensity.IsNegative() {
			return nil, generic.Invalid("region.intensity", reg.Intensity, "must be >= 0")
		}
		if _, dup := r.regions[code]; dup {
			return nil, generic.Invalid("region.code", code, "duplicate region")
		}
		reg.Code = code
		if reg.Name == "" {
			reg.Name = code
		}
		r.regions[code] = reg
		r.order = append(r.order, code)
	}
	return r, nil
}

// DefaultRegistry returns the built-in table (IEA and national grid data,
// approximations; actual values vary by time and source).
func DefaultRegistry() *Registry {
	r, err := NewRegistry(defaultRegions()...)
	if err != nil {
		panic(fmt.Sprintf("carbon: invalid built-in region table: %v", err))
	}
	return r
}

func defaultRegions() []Region {
	g := func(code, name string, intensity int64) Region {
		return Region{Code: code, Name: name, Intensity: decimal.NewFromInt(intensity)}
	}
	return []Region{
		// High carbon intensity
		g("IN", "India", 708),
		g("AU", "Australia", 656),
		g("CN", "China", 555),
		g("PL", "Poland", 650),
		g("ZA", "South Africa", 900),

		// Medium
		g("US", "United States", 386),
		g("JP", "Japan", 457),
		g("DE", "Germany", 350),
		g("UK", "United Kingdom", 233),
		g("IT", "Italy", 315),

		// Low
		g("EU", "European Union (Avg)", 276),
		g("CA", "Canada", 120),
		g("FR", "France", 56),
		g("SE", "Sweden", 41),
		g("NO", "Norway", 26),

		// Cloud provider regions
		g("US-EAST", "AWS US East", 380),
		g("US-WEST", "AWS US West", 300),
		g("EU-WEST", "AWS EU West (Ireland)", 296),
		g("EU-NORTH", "AWS EU North (Stockholm)", 45),
		g("AP-SOUTH", "AWS Asia Pacific (Mumbai)", 708),
	}
}

// LoadRegistry reads a YAML region table.
func LoadRegistry(r io.Reader) (*Registry, error) {
	var doc struct {
		Regions []Region `yaml:"regions"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode region table: %w", err)
	}
	if len(doc.Regions) == 0 {
		return nil, generic.Invalid("regions", nil, "region table is empty")
	}
	return NewRegistry(doc.Regions...)
}

// NormalizeCode canonicalizes a region code ("us-east " -> "US-EAST").
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Lookup returns the default entry for a region code.
func (r *Registry) Lookup(code string) (Region, bool) {
	reg, ok := r.regions[NormalizeCode(code)]
	return reg, ok
}

// Has reports whether the registry knows the region.
func (r *Registry) Has(code string) bool {
	_, ok := r.Lookup(code)
	return ok
}

// Name returns the human label for a code, or the code itself if unknown.
func (r *Registry) Name(code string) string {
	if reg, ok := r.Lookup(code); ok {
		return reg.Name
	}
	return code
}

// All returns every region in declaration order.
func (r *Registry) All() []Region {
	out := make([]Region, 0, len(r.order))
	for _, code := range r.order {
		out = append(out, r.regions[code])
	}
	return out
}

// Greenest returns regions sorted by ascending intensity. Ties keep
// declaration order.
func (r *Registry) Greenest() []Region {
	out := r.All()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Intensity.LessThan(out[j].Intensity)
	})
	return out
}

// UnmarshalYAML lets region files write intensity as a plain number.
func (reg *Region) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Code      string   `yaml:"code"`
		Name      string   `yaml:"name"`
		Intensity *float64 `yaml:"intensity"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.Intensity == nil {
		return fmt.Errorf("region %s: missing intensity", raw.Code)
	}
	reg.Code = raw.Code
	reg.Name = raw.Name
	reg.Intensity = decimal.NewFromFloat(*raw.Intensity)
	return nil
}
