// Package domain models the monthly water balance of a single reservoir.
//
// # Units
//
//	Volume:       cubic hectometres (hm³), 1 hm³ = 1,000,000 m³.
//	Area:         square kilometres (km²) on the volume/area curve.
//	Evaporation:  millimetres of depth over the reservoir surface per month.
//	Flows:        inflow, demand and release are hm³ per month.
//
// # Area Model
//
// The volume/area curve of a reservoir is sampled at a handful of elevations.
// [FitAreaModel] fits a degree-3 least-squares polynomial area = f(volume)
// through those samples. At least four distinct volumes are required, anything
// less is under-determined and fails with a [FitError]. The polynomial is
// evaluated outside the sampled range without complaint, so values can be
// negative; the simulator clamps the surface to zero before using it.
//
// # Balance Recurrence
//
// For each month t, starting from volume v:
//
//	area   = max(f(v), 0) km²
//	evap   = area * evapMM[t] / 1000        (hm³, start-of-month surface)
//	avail  = max(0, v + inflow[t] - evap)
//	rel    = min(demand[t], avail)
//	v'     = clamp(v + inflow[t] - evap - rel, 0, MaximumVolume)
//
// Water above MaximumVolume is discarded; no spill series is produced.
// When v' falls below the minimum operational volume or the dead volume an
// [Alert] is recorded for that month. The two checks are independent.
//
// # Operational Constraints
//
// Limits arrive as an optional Parameter/Value table. Recognized parameters:
//
//	"Maximum Volume"              default +Inf
//	"Minimum Operational Volume"  default 0
//	"Dead Volume"                 default 0
//
// A malformed table never aborts a run: [ParseConstraints] returns the defaults
// together with a [ConstraintParseError] that callers surface as a warning.
package domain
