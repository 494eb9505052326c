package domain

import (
	"fmt"
	"math"
)

// Dataset is everything needed to simulate one reservoir. It is the typed form
// of the CurvaAV / Afluencias / Demandas / Evaporacao / Restricoes workbook
// sheets supplied by upstream collectors.
type Dataset struct {
	ReservoirID string `json:"reservoir_id"`

	// InitialVolume in hm³. When nil the smallest sampled curve volume is used.
	InitialVolume *float64           `json:"initial_volume,omitempty"`
	Curve         []VolumeAreaSample `json:"curve"`

	Inflow        []float64 `json:"inflow"`         // hm³/month
	Demand        []float64 `json:"demand"`         // hm³/month
	EvaporationMM []float64 `json:"evaporation_mm"` // mm/month

	// Constraints is nil when the reservoir has no constraints table.
	Constraints []ConstraintRow `json:"constraints,omitempty"`
}

// Months returns the simulation horizon.
func (d Dataset) Months() int {
	return len(d.Inflow)
}

// StartingVolume returns the initial volume, defaulting to the lowest volume
// on the curve (zero for an empty curve).
func (d Dataset) StartingVolume() float64 {
	if d.InitialVolume != nil {
		return *d.InitialVolume
	}
	if len(d.Curve) == 0 {
		return 0
	}
	lowest := d.Curve[0].Volume
	for _, s := range d.Curve[1:] {
		lowest = math.Min(lowest, s.Volume)
	}
	return lowest
}

// Validate checks the preconditions Simulate relies on: the three series share
// one length and hold finite, non-negative values, and the initial volume is
// non-negative. Curve problems are reported by FitAreaModel instead.
func (d Dataset) Validate() error {
	var problems []string

	if d.ReservoirID == "" {
		problems = append(problems, "reservoir_id is required")
	}
	if d.InitialVolume != nil && (!isFinite(*d.InitialVolume) || *d.InitialVolume < 0) {
		problems = append(problems, fmt.Sprintf("initial_volume %g must be a non-negative number", *d.InitialVolume))
	}

	n := len(d.Inflow)
	if len(d.Demand) != n || len(d.EvaporationMM) != n {
		problems = append(problems, fmt.Sprintf(
			"series lengths differ: inflow=%d demand=%d evaporation_mm=%d",
			n, len(d.Demand), len(d.EvaporationMM)))
	}

	problems = append(problems, checkSeries("inflow", d.Inflow)...)
	problems = append(problems, checkSeries("demand", d.Demand)...)
	problems = append(problems, checkSeries("evaporation_mm", d.EvaporationMM)...)

	if len(problems) > 0 {
		return &ValidationError{ReservoirID: d.ReservoirID, Problems: problems}
	}
	return nil
}

func checkSeries(name string, values []float64) []string {
	for i, v := range values {
		if !isFinite(v) || v < 0 {
			return []string{fmt.Sprintf("%s[%d] = %g must be a non-negative number", name, i, v)}
		}
	}
	return nil
}
