package domain

import (
	"fmt"
	"math"
)

// AlertKind classifies an operational limit violation.
type AlertKind string

const (
	AlertBelowMinimumOperational AlertKind = "below_minimum_operational"
	AlertBelowDeadVolume         AlertKind = "below_dead_volume"
)

// Alert records a month whose closing volume broke an operational limit.
// Message is the human-readable text consumers display verbatim.
type Alert struct {
	Month   int       `json:"month"` // 1-based
	Kind    AlertKind `json:"kind"`
	Volume  float64   `json:"volume"`
	Message string    `json:"message"`
}

// ResultBundle is the per-month output of one simulation run, all in hm³.
type ResultBundle struct {
	Volumes     []float64 `json:"volumes"`
	Releases    []float64 `json:"releases"`
	Evaporation []float64 `json:"evaporation"`
	Alerts      []Alert   `json:"alerts"`
}

const (
	m2PerKm2 = 1e6
	mmPerM   = 1000
	m3PerHm3 = 1e6
)

// Simulate runs the monthly mass balance from initialVolume.
//
// inflow, demand and evapRateMM must have the same length; the horizon is
// len(inflow). Evaporation acts on the surface at the start of each month.
// Volume above limits.MaximumVolume is dropped without being reported.
func Simulate(initialVolume float64, model AreaModel, inflow, demand, evapRateMM []float64, limits Constraints) ResultBundle {
	n := len(inflow)
	result := ResultBundle{
		Volumes:     make([]float64, n),
		Releases:    make([]float64, n),
		Evaporation: make([]float64, n),
		Alerts:      []Alert{},
	}

	volume := initialVolume
	for t := 0; t < n; t++ {
		areaM2 := math.Max(model.Evaluate(volume), 0) * m2PerKm2
		depthM := evapRateMM[t] / mmPerM
		evap := areaM2 * depthM / m3PerHm3

		available := math.Max(0, volume+inflow[t]-evap)
		release := math.Min(demand[t], available)

		next := volume + inflow[t] - evap - release
		next = math.Max(0, math.Min(next, limits.MaximumVolume))

		month := t + 1
		if next < limits.MinimumOperationalVolume {
			result.Alerts = append(result.Alerts, newAlert(month, AlertBelowMinimumOperational, next))
		}
		if next < limits.DeadVolume {
			result.Alerts = append(result.Alerts, newAlert(month, AlertBelowDeadVolume, next))
		}

		result.Volumes[t] = next
		result.Releases[t] = release
		result.Evaporation[t] = evap
		volume = next
	}

	return result
}

func newAlert(month int, kind AlertKind, volume float64) Alert {
	var what string
	switch kind {
	case AlertBelowMinimumOperational:
		what = "minimum operational volume"
	case AlertBelowDeadVolume:
		what = "dead volume"
	}
	return Alert{
		Month:   month,
		Kind:    kind,
		Volume:  volume,
		Message: fmt.Sprintf("Month %d: volume below %s (%.2f hm³)", month, what, volume),
	}
}
