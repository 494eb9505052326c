// Command validate performs integrity checks on reservoir dataset fixtures:
// series shape, volume/area curve fit quality, constraint tables, and the
// invariants of the simulated balance.
//
// Usage:
//
//	go run ./cmd/validate -datasets data/mock/reservoirs.json
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/reservoir-balance-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

// fitTolerance is the largest residual (km²) accepted between a curve sample
// and the fitted area model.
const fitTolerance = 0.5

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	datasetsPath := flag.String("datasets", "", "path to a JSON array of reservoir datasets")
	flag.Parse()

	if *datasetsPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*datasetsPath))
}

func run(path string) int {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	fmt.Println("=== Reservoir Dataset Validation ===")
	fmt.Println()

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read datasets: %v\n", err)
		return 1
	}
	var datasets []domain.Dataset
	if err := json.Unmarshal(data, &datasets); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: decode datasets: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateShape(datasets),
		validateCurveFit(datasets),
		validateConstraints(datasets),
		validateBalance(datasets),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Datasets: %d\n", len(datasets))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Shape ──

func validateShape(datasets []domain.Dataset) *phase {
	p := &phase{name: "Phase 1: Shape (ids, series)"}
	seen := map[string]bool{}
	for i := range datasets {
		ds := &datasets[i]
		if err := ds.Validate(); err != nil {
			p.errorf("dataset %d: %v", i, err)
		}
		if seen[ds.ReservoirID] {
			p.errorf("dataset %d: duplicate reservoir id %q", i, ds.ReservoirID)
		}
		seen[ds.ReservoirID] = true
	}
	return p
}

// ── Phase 2: Curve fit ──

func validateCurveFit(datasets []domain.Dataset) *phase {
	p := &phase{name: "Phase 2: Curve Fit (volume/area)"}
	for i := range datasets {
		ds := &datasets[i]
		model, err := domain.FitAreaModel(ds.Curve)
		if err != nil {
			p.errorf("%s: %v", ds.ReservoirID, err)
			continue
		}
		for _, s := range ds.Curve {
			if got := model.Evaluate(s.Volume); math.Abs(got-s.Area) > fitTolerance {
				p.errorf("%s: fitted area %.3f at volume %g differs from sample %.3f", ds.ReservoirID, got, s.Volume, s.Area)
			}
		}
	}
	return p
}

// ── Phase 3: Constraints ──

func validateConstraints(datasets []domain.Dataset) *phase {
	p := &phase{name: "Phase 3: Constraints (operational limits)"}
	for i := range datasets {
		ds := &datasets[i]
		limits, err := domain.ParseConstraints(ds.Constraints)
		if err != nil {
			// The service recovers from this with default limits, so it is
			// reported but does not fail the phase.
			var cpe *domain.ConstraintParseError
			if errors.As(err, &cpe) {
				fmt.Printf("  Note: %s: constraint row %d (%s) unreadable, default limits apply\n", ds.ReservoirID, cpe.Row, cpe.Parameter)
			} else {
				p.errorf("%s: %v", ds.ReservoirID, err)
			}
			continue
		}
		if limits.DeadVolume > limits.MinimumOperationalVolume {
			p.errorf("%s: dead volume %g above minimum operational volume %g",
				ds.ReservoirID, limits.DeadVolume, limits.MinimumOperationalVolume)
		}
		if limits.MinimumOperationalVolume > limits.MaximumVolume {
			p.errorf("%s: minimum operational volume %g above maximum %g",
				ds.ReservoirID, limits.MinimumOperationalVolume, limits.MaximumVolume)
		}
	}
	return p
}

// ── Phase 4: Balance invariants ──

func validateBalance(datasets []domain.Dataset) *phase {
	p := &phase{name: "Phase 4: Balance (simulation invariants)"}
	for i := range datasets {
		report, err := domain.RunDataset(datasets[i])
		if err != nil {
			// Already reported by the shape or fit phases.
			continue
		}
		checkReport(p, datasets[i], &report)
	}
	return p
}

func checkReport(p *phase, ds domain.Dataset, r *domain.SimulationReport) {
	n := ds.Months()
	res := r.Result
	if len(res.Volumes) != n || len(res.Releases) != n || len(res.Evaporation) != n {
		p.errorf("%s: result lengths %d/%d/%d, expected %d",
			r.ReservoirID, len(res.Volumes), len(res.Releases), len(res.Evaporation), n)
		return
	}
	for t := 0; t < n; t++ {
		if res.Volumes[t] < 0 || res.Volumes[t] > r.Limits.MaximumVolume {
			p.errorf("%s month %d: volume %g outside [0, %g]", r.ReservoirID, t+1, res.Volumes[t], r.Limits.MaximumVolume)
		}
		if res.Releases[t] < 0 || res.Releases[t] > ds.Demand[t] {
			p.errorf("%s month %d: release %g outside [0, %g]", r.ReservoirID, t+1, res.Releases[t], ds.Demand[t])
		}
		if res.Evaporation[t] < 0 {
			p.errorf("%s month %d: negative evaporation %g", r.ReservoirID, t+1, res.Evaporation[t])
		}
	}
	if r.Summary.AlertCount != len(res.Alerts) {
		p.errorf("%s: summary counts %d alerts, result holds %d", r.ReservoirID, r.Summary.AlertCount, len(res.Alerts))
	}
}
