package domain

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testReservoir = "sobradinho"

func ptr(v float64) *float64 { return &v }

func scenarioDataset() Dataset {
	return Dataset{
		ReservoirID:   testReservoir,
		InitialVolume: ptr(15),
		Curve:         scenarioCurve(),
		Inflow:        []float64{5},
		Demand:        []float64{3},
		EvaporationMM: []float64{50},
	}
}

func freezeClock(t *testing.T) clockwork.Clock {
	t.Helper()
	fake := clockwork.NewFakeClockAt(time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC))
	SetClock(fake)
	t.Cleanup(func() { SetClock(nil) })
	return fake
}

func TestDataset_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Dataset)
		problem string
	}{
		{"missing id", func(d *Dataset) { d.ReservoirID = "" }, "reservoir_id is required"},
		{"negative initial volume", func(d *Dataset) { d.InitialVolume = ptr(-1) }, "initial_volume"},
		{"short demand", func(d *Dataset) { d.Demand = nil }, "series lengths differ: inflow=1 demand=0 evaporation_mm=1"},
		{"negative inflow", func(d *Dataset) { d.Inflow = []float64{-0.5} }, "inflow[0]"},
		{"NaN evaporation", func(d *Dataset) { d.EvaporationMM = []float64{math.NaN()} }, "evaporation_mm[0]"},
	}

	require.NoError(t, scenarioDataset().Validate())

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ds := scenarioDataset()
			tc.mutate(&ds)

			err := ds.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDataset)
			assert.Contains(t, err.Error(), tc.problem)
		})
	}
}

func TestDataset_StartingVolume(t *testing.T) {
	ds := scenarioDataset()
	assert.Equal(t, 15.0, ds.StartingVolume())

	ds.InitialVolume = nil
	ds.Curve = []VolumeAreaSample{{30, 2.4}, {12, 1}, {20, 1.8}, {40, 3}}
	assert.Equal(t, 12.0, ds.StartingVolume())

	ds.Curve = nil
	assert.Equal(t, 0.0, ds.StartingVolume())
}

func TestRunDataset(t *testing.T) {
	freezeClock(t)

	report, err := RunDataset(scenarioDataset())
	require.NoError(t, err)

	assert.Equal(t, testReservoir, report.ReservoirID)
	assert.Equal(t, 1, report.Months)
	assert.Equal(t, DefaultConstraints(), report.Limits)
	assert.Empty(t, report.Warnings)
	assert.NotNil(t, report.Warnings)
	assert.Equal(t, time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC), report.SimulatedAt)
	assert.InDelta(t, 16.92875, report.Result.Volumes[0], 1e-9)

	s := report.Summary
	assert.Equal(t, 15.0, s.InitialVolume)
	assert.InDelta(t, 16.92875, s.FinalVolume, 1e-9)
	assert.Equal(t, 5.0, s.TotalInflow)
	assert.Equal(t, 3.0, s.TotalDemand)
	assert.Equal(t, 3.0, s.TotalRelease)
	assert.InDelta(t, 0.07125, s.TotalEvaporation, 1e-9)
	assert.Equal(t, 0.0, s.TotalDeficit)
	assert.Equal(t, 0, s.AlertCount)
}

func TestRunDataset_MalformedConstraintsWarn(t *testing.T) {
	ds := scenarioDataset()
	ds.Constraints = []ConstraintRow{
		{Parameter: ParamMinimumOperationalVolume, Value: json.RawMessage(`"twenty"`)},
	}

	report, err := RunDataset(ds)
	require.NoError(t, err)

	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "using default limits")
	assert.Equal(t, DefaultConstraints(), report.Limits)
	assert.Empty(t, report.Result.Alerts, "default limits raise no alerts")
}

func TestRunDataset_ConstraintsProduceAlerts(t *testing.T) {
	ds := scenarioDataset()
	ds.Constraints = []ConstraintRow{
		{Parameter: ParamMinimumOperationalVolume, Value: json.RawMessage(`20`)},
	}

	report, err := RunDataset(ds)
	require.NoError(t, err)

	require.Len(t, report.Result.Alerts, 1)
	assert.Equal(t, 1, report.Summary.AlertCount)
	assert.Contains(t, report.Result.Alerts[0].Message, "Month 1")
	assert.Contains(t, report.Result.Alerts[0].Message, "16.93")
}

func TestRunDataset_FitErrorAborts(t *testing.T) {
	ds := scenarioDataset()
	ds.Curve = ds.Curve[:2]

	report, err := RunDataset(ds)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFit)
	assert.Contains(t, err.Error(), testReservoir)
	assert.Empty(t, report.ReservoirID)

	var fitErr *FitError
	assert.True(t, errors.As(err, &fitErr))
}

func TestRunDataset_EmptyHorizon(t *testing.T) {
	ds := scenarioDataset()
	ds.Inflow, ds.Demand, ds.EvaporationMM = []float64{}, []float64{}, []float64{}

	report, err := RunDataset(ds)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Months)
	assert.Empty(t, report.Result.Volumes)
	assert.Empty(t, report.Result.Alerts)
	assert.Equal(t, 15.0, report.Summary.FinalVolume)
	assert.Empty(t, report.Rows())
}

func TestSimulationReport_Rows(t *testing.T) {
	report := SimulationReport{Result: ResultBundle{
		Volumes:     []float64{10, 9},
		Releases:    []float64{1, 2},
		Evaporation: []float64{0.1, 0.2},
	}}

	assert.Equal(t, []MonthRow{
		{Month: 1, Volume: 10, Release: 1, Evaporation: 0.1},
		{Month: 2, Volume: 9, Release: 2, Evaporation: 0.2},
	}, report.Rows())
}

func TestSimulationReport_JSON(t *testing.T) {
	freezeClock(t)

	report, err := RunDataset(scenarioDataset())
	require.NoError(t, err)

	data, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, testReservoir, decoded["reservoir_id"])
	assert.Nil(t, decoded["limits"].(map[string]any)["maximum_volume"])
	assert.Equal(t, []any{}, decoded["warnings"])
	assert.Equal(t, "2025-03-01T12:00:00Z", decoded["simulated_at"])

	var back SimulationReport
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, math.IsInf(back.Limits.MaximumVolume, 1))
	assert.Equal(t, report.Result, back.Result)
}

func TestSimulationReport_JSON_InfiniteThresholdFallsBack(t *testing.T) {
	freezeClock(t)

	ds := scenarioDataset()
	ds.Constraints = []ConstraintRow{
		{Parameter: ParamMinimumOperationalVolume, Value: json.RawMessage(`"inf"`)},
		{Parameter: ParamDeadVolume, Value: json.RawMessage(`"Infinity"`)},
	}

	report, err := RunDataset(ds)
	require.NoError(t, err)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "infinite")
	assert.Equal(t, DefaultConstraints(), report.Limits)
	assert.Empty(t, report.Result.Alerts)

	data, err := json.Marshal(report)
	require.NoError(t, err, "every completed run must serialize")

	var back SimulationReport
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, report.Warnings, back.Warnings)
}
