package domain

import (
	"fmt"
	"time"
)

// SimulationReport wraps a ResultBundle with the context it was produced in.
type SimulationReport struct {
	ReservoirID string       `json:"reservoir_id"`
	Months      int          `json:"months"`
	Limits      Constraints  `json:"limits"`
	Result      ResultBundle `json:"result"`
	Summary     Summary      `json:"summary"`
	Warnings    []string     `json:"warnings"`
	SimulatedAt time.Time    `json:"simulated_at"`
}

// Summary aggregates a run over the whole horizon, all in hm³.
type Summary struct {
	InitialVolume    float64 `json:"initial_volume"`
	FinalVolume      float64 `json:"final_volume"`
	TotalInflow      float64 `json:"total_inflow"`
	TotalDemand      float64 `json:"total_demand"`
	TotalRelease     float64 `json:"total_release"`
	TotalEvaporation float64 `json:"total_evaporation"`
	TotalDeficit     float64 `json:"total_deficit"`
	AlertCount       int     `json:"alert_count"`
}

// MonthRow is one line of the per-month results table.
type MonthRow struct {
	Month       int     `json:"month"`
	Volume      float64 `json:"volume"`
	Release     float64 `json:"release"`
	Evaporation float64 `json:"evaporation"`
}

// Rows flattens the result series into table rows, month numbers starting at 1.
func (r SimulationReport) Rows() []MonthRow {
	rows := make([]MonthRow, len(r.Result.Volumes))
	for i := range rows {
		rows[i] = MonthRow{
			Month:       i + 1,
			Volume:      r.Result.Volumes[i],
			Release:     r.Result.Releases[i],
			Evaporation: r.Result.Evaporation[i],
		}
	}
	return rows
}

// RunDataset validates a dataset, fits its area model, resolves its limits and
// simulates it. Validation and fit failures abort the run with no report; a
// malformed constraints table only adds a warning.
func RunDataset(ds Dataset) (SimulationReport, error) {
	if err := ds.Validate(); err != nil {
		return SimulationReport{}, err
	}

	model, err := FitAreaModel(ds.Curve)
	if err != nil {
		return SimulationReport{}, fmt.Errorf("reservoir %q: %w", ds.ReservoirID, err)
	}

	warnings := []string{}
	limits, err := ParseConstraints(ds.Constraints)
	if err != nil {
		warnings = append(warnings, err.Error()+"; using default limits")
	}

	initial := ds.StartingVolume()
	result := Simulate(initial, model, ds.Inflow, ds.Demand, ds.EvaporationMM, limits)

	return SimulationReport{
		ReservoirID: ds.ReservoirID,
		Months:      ds.Months(),
		Limits:      limits,
		Result:      result,
		Summary:     summarize(initial, ds, result),
		Warnings:    warnings,
		SimulatedAt: clock.Now().UTC(),
	}, nil
}

func summarize(initial float64, ds Dataset, result ResultBundle) Summary {
	s := Summary{
		InitialVolume: initial,
		FinalVolume:   initial,
		AlertCount:    len(result.Alerts),
	}
	for t := range result.Volumes {
		s.TotalInflow += ds.Inflow[t]
		s.TotalDemand += ds.Demand[t]
		s.TotalRelease += result.Releases[t]
		s.TotalEvaporation += result.Evaporation[t]
		s.TotalDeficit += ds.Demand[t] - result.Releases[t]
	}
	if n := len(result.Volumes); n > 0 {
		s.FinalVolume = result.Volumes[n-1]
	}
	return s
}
