package domain

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// areaModelDegree is the polynomial degree of the volume/area fit.
const areaModelDegree = 3

// VolumeAreaSample is one point of the reservoir's volume/area curve.
type VolumeAreaSample struct {
	Volume float64 `json:"volume"` // hm³
	Area   float64 `json:"area"`   // km²
}

// AreaModel maps stored volume (hm³) to surface area (km²).
//
// Coefficients are held against the centred and scaled volume
// x = (v - shift) / scale, which keeps the Vandermonde system well conditioned
// for curves spanning thousands of hm³.
type AreaModel struct {
	coeffs [areaModelDegree + 1]float64 // ascending powers of x
	shift  float64
	scale  float64
}

// FitAreaModel fits a cubic least-squares polynomial through the samples.
// Sample order does not matter.
func FitAreaModel(samples []VolumeAreaSample) (AreaModel, error) {
	terms := areaModelDegree + 1
	n := len(samples)
	if n < terms {
		return AreaModel{}, &FitError{Samples: n, Reason: "at least 4 volume/area samples are required"}
	}

	distinct := make(map[float64]struct{}, n)
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range samples {
		if !isFinite(s.Volume) || !isFinite(s.Area) {
			return AreaModel{}, &FitError{Samples: n, Reason: "samples must be finite numbers"}
		}
		distinct[s.Volume] = struct{}{}
		lo = math.Min(lo, s.Volume)
		hi = math.Max(hi, s.Volume)
	}
	if len(distinct) < terms {
		return AreaModel{}, &FitError{Samples: n, Reason: "at least 4 distinct volumes are required"}
	}

	shift := (lo + hi) / 2
	scale := (hi - lo) / 2

	a := mat.NewDense(n, terms, nil)
	b := mat.NewVecDense(n, nil)
	for i, s := range samples {
		x := (s.Volume - shift) / scale
		p := 1.0
		for j := 0; j < terms; j++ {
			a.Set(i, j, p)
			p *= x
		}
		b.SetVec(i, s.Area)
	}

	var qr mat.QR
	qr.Factorize(a)

	var sol mat.VecDense
	if err := qr.SolveVecTo(&sol, false, b); err != nil {
		return AreaModel{}, &FitError{Samples: n, Reason: "degenerate volume/area curve", Err: err}
	}

	m := AreaModel{shift: shift, scale: scale}
	for j := 0; j < terms; j++ {
		m.coeffs[j] = sol.AtVec(j)
	}
	return m, nil
}

// Evaluate returns the raw polynomial area for a volume. It extrapolates
// outside the sampled range and may return a negative area there.
func (m AreaModel) Evaluate(volume float64) float64 {
	if m.scale == 0 {
		return 0
	}
	x := (volume - m.shift) / m.scale
	area := 0.0
	for j := len(m.coeffs) - 1; j >= 0; j-- {
		area = area*x + m.coeffs[j]
	}
	return area
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
