package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Recognized parameter names of the operational constraints table.
const (
	ParamMaximumVolume            = "Maximum Volume"
	ParamMinimumOperationalVolume = "Minimum Operational Volume"
	ParamDeadVolume               = "Dead Volume"
)

// ConstraintRow is one Parameter/Value row of the constraints table.
// Value holds a JSON number or a numeric string.
type ConstraintRow struct {
	Parameter string          `json:"parameter"`
	Value     json.RawMessage `json:"value"`
}

// Constraints are the volume limits applied by the simulator, in hm³.
type Constraints struct {
	MaximumVolume            float64
	MinimumOperationalVolume float64
	DeadVolume               float64
}

// DefaultConstraints returns the limits used when no table is supplied:
// an uncapped reservoir with no alert thresholds.
func DefaultConstraints() Constraints {
	return Constraints{
		MaximumVolume:            math.Inf(1),
		MinimumOperationalVolume: 0,
		DeadVolume:               0,
	}
}

// constraintsJSON carries an infinite maximum volume as null.
type constraintsJSON struct {
	MaximumVolume            *float64 `json:"maximum_volume"`
	MinimumOperationalVolume float64  `json:"minimum_operational_volume"`
	DeadVolume               float64  `json:"dead_volume"`
}

func (c Constraints) MarshalJSON() ([]byte, error) {
	out := constraintsJSON{
		MinimumOperationalVolume: c.MinimumOperationalVolume,
		DeadVolume:               c.DeadVolume,
	}
	if !math.IsInf(c.MaximumVolume, 1) {
		maxVol := c.MaximumVolume
		out.MaximumVolume = &maxVol
	}
	return json.Marshal(out)
}

func (c *Constraints) UnmarshalJSON(data []byte) error {
	var in constraintsJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	c.MaximumVolume = math.Inf(1)
	if in.MaximumVolume != nil {
		c.MaximumVolume = *in.MaximumVolume
	}
	c.MinimumOperationalVolume = in.MinimumOperationalVolume
	c.DeadVolume = in.DeadVolume
	return nil
}

// ParseConstraints resolves a constraints table into limits. A nil or empty
// table yields the defaults. Rows with unrecognized parameters are ignored and
// repeated parameters keep the last value. When a recognized row cannot be
// read, the defaults are returned together with a *ConstraintParseError; the
// caller should report it and carry on.
func ParseConstraints(rows []ConstraintRow) (Constraints, error) {
	limits := DefaultConstraints()

	for i, row := range rows {
		name := strings.TrimSpace(row.Parameter)

		var target *float64
		switch name {
		case ParamMaximumVolume:
			target = &limits.MaximumVolume
		case ParamMinimumOperationalVolume:
			target = &limits.MinimumOperationalVolume
		case ParamDeadVolume:
			target = &limits.DeadVolume
		default:
			continue
		}

		v, err := parseConstraintValue(row.Value, name == ParamMaximumVolume)
		if err != nil {
			return DefaultConstraints(), &ConstraintParseError{Row: i, Parameter: name, Err: err}
		}
		*target = v
	}

	return limits, nil
}

// parseConstraintValue reads one threshold. Only the maximum may be
// unbounded; any other infinite threshold could not be reported.
func parseConstraintValue(raw json.RawMessage, allowInf bool) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, errors.New("missing value")
	}

	var v float64
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("decode value: %w", err)
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not a number", s)
		}
		v = parsed
	} else if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("value %s is not a number", raw)
	}

	if math.IsNaN(v) {
		return 0, errors.New("value is NaN")
	}
	if v < 0 {
		return 0, fmt.Errorf("value %g is negative", v)
	}
	if math.IsInf(v, 1) && !allowInf {
		return 0, errors.New("value is infinite")
	}
	return v, nil
}
