package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRawEvent(t *testing.T) {
	t.Run("full dataset", func(t *testing.T) {
		data := []byte(`{
			"reservoir_id": "tres-marias",
			"initial_volume": 15,
			"curve": [{"volume":0,"area":0},{"volume":10,"area":1},{"volume":20,"area":1.8},{"volume":30,"area":2.4}],
			"inflow": [5, 4],
			"demand": [3, 3],
			"evaporation_mm": [50, 60],
			"constraints": [{"parameter":"Maximum Volume","value":30},{"parameter":"Dead Volume","value":"2"}]
		}`)

		ds, err := ParseRawEvent(RawEvent{Key: []byte("ignored"), Value: data})
		require.NoError(t, err)

		assert.Equal(t, "tres-marias", ds.ReservoirID)
		require.NotNil(t, ds.InitialVolume)
		assert.Equal(t, 15.0, *ds.InitialVolume)
		assert.Len(t, ds.Curve, 4)
		assert.Equal(t, []float64{5, 4}, ds.Inflow)
		assert.Equal(t, []float64{50, 60}, ds.EvaporationMM)
		require.Len(t, ds.Constraints, 2)

		limits, err := ParseConstraints(ds.Constraints)
		require.NoError(t, err)
		assert.Equal(t, 30.0, limits.MaximumVolume)
		assert.Equal(t, 2.0, limits.DeadVolume)
	})

	t.Run("key names the reservoir", func(t *testing.T) {
		ds, err := ParseRawEvent(RawEvent{Key: []byte(" furnas "), Value: []byte(`{"inflow":[]}`)})
		require.NoError(t, err)
		assert.Equal(t, "furnas", ds.ReservoirID)
		assert.Nil(t, ds.InitialVolume)
		assert.Nil(t, ds.Constraints, "absent table stays nil")
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseRawEvent(RawEvent{Value: []byte("{invalid json")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse reservoir dataset")
	})
}

func TestRawReservoirID(t *testing.T) {
	tests := []struct {
		name string
		raw  RawEvent
		want string
	}{
		{"payload id", RawEvent{Key: []byte("dataset-0"), Value: []byte(`{"reservoir_id":" serra-azul ","curve":[]}`)}, "serra-azul"},
		{"payload id with bad series", RawEvent{Value: []byte(`{"reservoir_id":"vale-verde","inflow":"x"}`)}, "vale-verde"},
		{"key when id missing", RawEvent{Key: []byte("lagoa-seca"), Value: []byte(`{"inflow":[1]}`)}, "lagoa-seca"},
		{"key when payload unreadable", RawEvent{Key: []byte("bad"), Value: []byte("not-json{{{")}, "bad"},
		{"nothing to go on", RawEvent{Value: []byte("{")}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RawReservoirID(tt.raw))
		})
	}
}
