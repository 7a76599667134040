package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/organisms/config"
	"github.com/pthm-cable/organisms/evolution"
)

// OutputManager handles structured experiment output with CSV logging.
// A nil *OutputManager is valid and writes nothing.
type OutputManager struct {
	dir          string
	statsFile    *os.File
	scoresFile   *os.File
	perfFile     *os.File
	lifetimeFile *os.File

	// Track if headers have been written
	statsHeaderWritten    bool
	scoresHeaderWritten   bool
	perfHeaderWritten     bool
	lifetimeHeaderWritten bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	files := []struct {
		name string
		dst  **os.File
	}{
		{"generations.csv", &om.statsFile},
		{"scores.csv", &om.scoresFile},
		{"perf.csv", &om.perfFile},
		{"lifetimes.csv", &om.lifetimeFile},
	}
	for _, spec := range files {
		f, err := os.Create(filepath.Join(dir, spec.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", spec.name, err)
		}
		*spec.dst = f
	}

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteGeneration writes a generation stats record to generations.csv.
func (om *OutputManager) WriteGeneration(stats GenerationStats) error {
	if om == nil {
		return nil
	}
	if err := appendCSV([]GenerationStats{stats}, om.statsFile, &om.statsHeaderWritten); err != nil {
		return fmt.Errorf("writing generation stats: %w", err)
	}
	return nil
}

// WriteScore writes a generation score record to scores.csv.
func (om *OutputManager) WriteScore(score evolution.GenerationScore) error {
	if om == nil {
		return nil
	}
	if err := appendCSV([]evolution.GenerationScore{score}, om.scoresFile, &om.scoresHeaderWritten); err != nil {
		return fmt.Errorf("writing score: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, generation int) error {
	if om == nil {
		return nil
	}
	if err := appendCSV([]PerfStatsCSV{stats.ToCSV(generation)}, om.perfFile, &om.perfHeaderWritten); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteLifetimes writes one row per organism of a finished generation to lifetimes.csv.
func (om *OutputManager) WriteLifetimes(lifetimes []LifetimeStats) error {
	if om == nil || len(lifetimes) == 0 {
		return nil
	}
	if err := appendCSV(lifetimes, om.lifetimeFile, &om.lifetimeHeaderWritten); err != nil {
		return fmt.Errorf("writing lifetimes: %w", err)
	}
	return nil
}

// appendCSV writes records, including the header only on the first call.
func appendCSV(records any, f *os.File, headerWritten *bool) error {
	if !*headerWritten {
		if err := gocsv.Marshal(records, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, f)
}

// WriteHallOfFame saves the hall of fame as JSON.
func (om *OutputManager) WriteHallOfFame(hof *HallOfFame) error {
	if om == nil || hof == nil {
		return nil
	}

	data, err := hof.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshaling hall of fame: %w", err)
	}

	if err := os.WriteFile(filepath.Join(om.dir, "hall_of_fame.json"), data, 0644); err != nil {
		return fmt.Errorf("writing hall_of_fame.json: %w", err)
	}

	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.statsFile, om.scoresFile, om.perfFile, om.lifetimeFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
