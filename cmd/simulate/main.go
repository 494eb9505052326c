// Command simulate runs the reservoir balance simulation for one or more
// dataset files and prints the reports as JSON. A file may hold a single
// dataset object or an array of datasets. Datasets without a reservoir id are
// keyed by their file name.
//
// Usage:
//
//	go run ./cmd/simulate \
//	  -fixed-time 2025-03-01T12:00:00Z \
//	  -out reports.json \
//	  data/mock/reservoirs.json
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/reservoir-balance-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	fixedTime := flag.String("fixed-time", "", "RFC3339 timestamp stamped on every report (for reproducible output)")
	out := flag.String("out", "", "output path for the reports (default stdout)")
	rows := flag.Bool("rows", false, "emit per-month rows instead of full reports")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return errors.New("at least one dataset file is required")
	}

	if *fixedTime != "" {
		ts, err := time.Parse(time.RFC3339, *fixedTime)
		if err != nil {
			return fmt.Errorf("parse -fixed-time: %w", err)
		}
		domain.SetClock(clockwork.NewFakeClockAt(ts))
		defer domain.SetClock(nil)
	}

	var datasets []domain.Dataset
	for _, path := range flag.Args() {
		ds, err := loadDatasets(path)
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		datasets = append(datasets, ds...)
	}

	reports, failed := simulateAll(datasets)
	log.Printf("simulated %d of %d reservoirs", len(reports), len(datasets))

	var v any = reports
	if *rows {
		v = rowsByReservoir(reports)
	}
	if err := writeJSON(*out, v); err != nil {
		return fmt.Errorf("write reports: %w", err)
	}

	if failed > 0 {
		return fmt.Errorf("%d reservoir(s) could not be simulated", failed)
	}
	return nil
}

// rowsByReservoir keys each report's monthly rows by reservoir id. A repeated
// id gets a "#n" suffix so no run is dropped from the output.
func rowsByReservoir(reports []domain.SimulationReport) map[string][]domain.MonthRow {
	out := make(map[string][]domain.MonthRow, len(reports))
	for i := range reports {
		id := reports[i].ReservoirID
		key := id
		for n := 2; ; n++ {
			if _, taken := out[key]; !taken {
				break
			}
			key = fmt.Sprintf("%s#%d", id, n)
		}
		if key != id {
			log.Printf("duplicate reservoir id %q, writing rows under %q", id, key)
		}
		out[key] = reports[i].Rows()
	}
	return out
}

// simulateAll runs every dataset independently. Failures are logged and
// counted; they do not stop the remaining runs.
func simulateAll(datasets []domain.Dataset) ([]domain.SimulationReport, int) {
	reports := make([]domain.SimulationReport, 0, len(datasets))
	failed := 0
	for i := range datasets {
		report, err := domain.RunDataset(datasets[i])
		if err != nil {
			log.Printf("skip: %v", err)
			failed++
			continue
		}
		for _, w := range report.Warnings {
			log.Printf("%s: warning: %s", report.ReservoirID, w)
		}
		for _, a := range report.Result.Alerts {
			log.Printf("%s: %s", report.ReservoirID, a.Message)
		}
		reports = append(reports, report)
	}
	return reports, failed
}

func loadDatasets(path string) ([]domain.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var datasets []domain.Dataset
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &datasets); err != nil {
			return nil, err
		}
	} else {
		var ds domain.Dataset
		if err := json.Unmarshal(trimmed, &ds); err != nil {
			return nil, err
		}
		datasets = append(datasets, ds)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for i := range datasets {
		if strings.TrimSpace(datasets[i].ReservoirID) != "" {
			continue
		}
		datasets[i].ReservoirID = name
		if len(datasets) > 1 {
			datasets[i].ReservoirID = fmt.Sprintf("%s-%d", name, i+1)
		}
	}
	return datasets, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
