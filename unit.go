package recipecost

import (
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"
)

const (
	UnitGram       = "g"
	UnitKilogram   = "kg"
	UnitOunce      = "oz"
	UnitPound      = "lb"
	UnitMilliliter = "ml"
	UnitLiter      = "l"
	UnitPiece      = "piece"
	UnitSlice      = "slice"
)

// UnitConversion is a directed edge: quantity in FromUnit * Factor = quantity in ToUnit.
type UnitConversion struct {
	FromUnit string
	ToUnit   string
	Factor   float64
}

type unitPair struct {
	from string
	to   string
}

// Registry is a flat table of explicitly seeded conversion edges. It never
// inverts an edge or chains two edges together.
type Registry struct {
	mutex sync.RWMutex
	rules map[unitPair]float64
}

type RejectedConversion struct {
	Conversion UnitConversion
	Err        error
}

// SeedReport lists what happened to every row of a seed batch.
type SeedReport struct {
	Inserted []UnitConversion
	Skipped  []UnitConversion
	Rejected []RejectedConversion
}

func NewRegistry() *Registry {
	return &Registry{
		rules: make(map[unitPair]float64),
	}
}

// NewRegistryFromConversions seeds a fresh registry; bad rows are reported, not fatal.
func NewRegistryFromConversions(convs []UnitConversion) (*Registry, SeedReport) {
	r := NewRegistry()
	return r, r.Seed(convs)
}

// UpsertEdge stores the edge unless the ordered pair already exists, in which
// case the stored factor is kept. It reports whether the edge was inserted.
func (r *Registry) UpsertEdge(fromUnit, toUnit string, factor float64) (bool, error) {
	if err := ValidateUnit(fromUnit); err != nil {
		return false, err
	}
	if err := ValidateUnit(toUnit); err != nil {
		return false, err
	}
	if err := ValidateFactor(factor); err != nil {
		return false, err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	key := unitPair{from: fromUnit, to: toUnit}
	if _, ok := r.rules[key]; ok {
		return false, nil
	}
	r.rules[key] = factor
	return true, nil
}

func (r *Registry) Seed(convs []UnitConversion) SeedReport {
	var report SeedReport
	for _, c := range convs {
		inserted, err := r.UpsertEdge(c.FromUnit, c.ToUnit, c.Factor)
		switch {
		case err != nil:
			report.Rejected = append(report.Rejected, RejectedConversion{Conversion: c, Err: err})
		case inserted:
			report.Inserted = append(report.Inserted, c)
		default:
			report.Skipped = append(report.Skipped, c)
		}
	}
	return report
}

// Factor returns the multiplier from fromUnit to toUnit. Equal units always
// yield 1.
func (r *Registry) Factor(fromUnit, toUnit string) (float64, error) {
	if err := ValidateUnit(fromUnit); err != nil {
		return 0, err
	}
	if err := ValidateUnit(toUnit); err != nil {
		return 0, err
	}
	if fromUnit == toUnit {
		return 1, nil
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if factor, ok := r.rules[unitPair{from: fromUnit, to: toUnit}]; ok {
		return factor, nil
	}
	return 0, &ConversionNotFoundError{From: fromUnit, To: toUnit}
}

func (r *Registry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.rules)
}

// Edges returns the stored edges ordered by from unit, then to unit.
func (r *Registry) Edges() []UnitConversion {
	r.mutex.RLock()
	edges := make([]UnitConversion, 0, len(r.rules))
	for k, f := range r.rules {
		edges = append(edges, UnitConversion{FromUnit: k.from, ToUnit: k.to, Factor: f})
	}
	r.mutex.RUnlock()

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].FromUnit != edges[j].FromUnit {
			return edges[i].FromUnit < edges[j].FromUnit
		}
		return edges[i].ToUnit < edges[j].ToUnit
	})
	return edges
}

func ValidateUnit(unit string) error {
	if unit == "" {
		return &InvalidInputError{Field: "unit", Value: `""`, Reason: "empty unit"}
	}
	if strings.TrimSpace(unit) != unit {
		return &InvalidInputError{Field: "unit", Value: unit, Reason: "surrounding whitespace"}
	}
	for _, c := range unit {
		if unicode.IsControl(c) {
			return &InvalidInputError{Field: "unit", Value: unit, Reason: "control character"}
		}
	}
	return nil
}

func ValidateFactor(factor float64) error {
	if math.IsNaN(factor) || math.IsInf(factor, 0) {
		return &InvalidInputError{Field: "factor", Value: factor, Reason: "not finite"}
	}
	if factor <= 0 {
		return &InvalidInputError{Field: "factor", Value: factor, Reason: "must be positive"}
	}
	return nil
}

// DefaultConversions is the baseline mass, volume and identity table.
func DefaultConversions() []UnitConversion {
	return []UnitConversion{
		// mass
		{FromUnit: UnitOunce, ToUnit: UnitGram, Factor: 28.35},
		{FromUnit: UnitPound, ToUnit: UnitGram, Factor: 453.59},
		{FromUnit: UnitKilogram, ToUnit: UnitGram, Factor: 1000},
		{FromUnit: UnitGram, ToUnit: UnitOunce, Factor: 0.035274},
		{FromUnit: UnitGram, ToUnit: UnitPound, Factor: 0.002205},
		{FromUnit: UnitGram, ToUnit: UnitKilogram, Factor: 0.001},
		{FromUnit: UnitPound, ToUnit: UnitOunce, Factor: 16},
		{FromUnit: UnitOunce, ToUnit: UnitPound, Factor: 0.0625},
		{FromUnit: UnitKilogram, ToUnit: UnitPound, Factor: 2.20462},
		{FromUnit: UnitPound, ToUnit: UnitKilogram, Factor: 0.453592},

		// volume
		{FromUnit: UnitLiter, ToUnit: UnitMilliliter, Factor: 1000},
		{FromUnit: UnitMilliliter, ToUnit: UnitLiter, Factor: 0.001},

		// identity
		{FromUnit: UnitGram, ToUnit: UnitGram, Factor: 1},
		{FromUnit: UnitKilogram, ToUnit: UnitKilogram, Factor: 1},
		{FromUnit: UnitOunce, ToUnit: UnitOunce, Factor: 1},
		{FromUnit: UnitPound, ToUnit: UnitPound, Factor: 1},
		{FromUnit: UnitMilliliter, ToUnit: UnitMilliliter, Factor: 1},
		{FromUnit: UnitLiter, ToUnit: UnitLiter, Factor: 1},
		{FromUnit: UnitPiece, ToUnit: UnitPiece, Factor: 1},
		{FromUnit: UnitSlice, ToUnit: UnitSlice, Factor: 1},
	}
}
