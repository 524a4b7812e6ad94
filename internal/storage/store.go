package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/episim/internal/config"
	"github.com/san-kum/episim/internal/dynamo"
	"github.com/san-kum/episim/internal/logging"
	"github.com/san-kum/episim/internal/stochastic"
)

var ErrNoTraces = errors.New("storage: run has no replicate traces")

type Store struct {
	baseDir string
	logger  *slog.Logger
}

func New(baseDir string, logger *slog.Logger) *Store {
	return &Store{baseDir: baseDir, logger: logging.OrDiscard(logger)}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID            string                      `json:"id"`
	Name          string                      `json:"name,omitempty"`
	Model         string                      `json:"model"`
	Kind          string                      `json:"kind"`
	Timestamp     time.Time                   `json:"timestamp"`
	Seed          int64                       `json:"seed"`
	Dt            float64                     `json:"dt"`
	Duration      float64                     `json:"duration"`
	Points        int                         `json:"points,omitempty"`
	Integrator    string                      `json:"integrator,omitempty"`
	Replicates    int                         `json:"replicates,omitempty"`
	Params        map[string]float64          `json:"params,omitempty"`
	Interventions []config.InterventionConfig `json:"interventions,omitempty"`
	Compartments  []string                    `json:"compartments"`
	Population    float64                     `json:"population,omitempty"`
	R0            float64                     `json:"r0,omitempty"`
	AttackRate    float64                     `json:"attack_rate,omitempty"`
	Metrics       map[string]float64          `json:"metrics"`
	Plot          config.PlotConfig           `json:"plot"`
}

// NewMetadata describes a run of cfg; the caller fills in results.
func NewMetadata(cfg *config.Config, result *dynamo.Result) RunMetadata {
	name := cfg.Name
	if name == "" {
		name = cfg.Model
	}
	kind := cfg.Kind
	if kind == "" {
		kind = config.KindODE
	}
	return RunMetadata{
		Name:          name,
		Model:         cfg.Model,
		Kind:          kind,
		Seed:          cfg.Seed,
		Dt:            cfg.Dt,
		Duration:      cfg.Duration,
		Points:        cfg.Points,
		Integrator:    cfg.Integrator,
		Replicates:    cfg.Replicates,
		Params:        cfg.Params,
		Interventions: cfg.Interventions,
		Compartments:  result.Compartments,
		Metrics:       result.Metrics,
		Plot:          cfg.Plot,
	}
}

// Save writes metadata.json and states.csv, plus traces.csv when an ensemble
// is given, into a fresh run directory and returns its ID.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result, ens *stochastic.EnsembleResult) (string, error) {
	now := time.Now()
	prefix := meta.Name
	if prefix == "" {
		prefix = meta.Model
	}
	meta.ID = fmt.Sprintf("%s_%d", prefix, now.UnixNano())
	meta.Timestamp = now
	if meta.Compartments == nil {
		meta.Compartments = result.Compartments
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeFile(filepath.Join(runDir, "metadata.json"), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return "", err
	}

	if err := writeFile(filepath.Join(runDir, "states.csv"), func(w io.Writer) error {
		return ExportCSV(w, result)
	}); err != nil {
		return "", err
	}

	if ens != nil {
		if err := writeFile(filepath.Join(runDir, "traces.csv"), func(w io.Writer) error {
			return writeTraces(w, ens)
		}); err != nil {
			return "", err
		}
	}

	s.logger.Debug("run saved", "id", meta.ID, "dir", runDir, "samples", len(result.States))
	return meta.ID, nil
}

func writeFile(path string, fill func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fill(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeTraces(w io.Writer, ens *stochastic.EnsembleResult) error {
	cw := csv.NewWriter(w)
	header := append([]string{"replicate", "time"}, ens.Compartments...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for k, run := range ens.Runs {
		rep := strconv.Itoa(k)
		for i, x := range run.States {
			row := []string{rep, formatFloat(run.Times[i])}
			for _, v := range x {
				row = append(row, formatFloat(v))
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// List returns every stored run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			s.logger.Debug("skipping directory", "name", entry.Name(), "err", err)
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadStates reads states.csv back into a result.
func (s *Store) LoadStates(runID string) (*dynamo.Result, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, err
	}

	result := &dynamo.Result{Metrics: make(map[string]float64)}
	if len(records) == 0 {
		return result, nil
	}
	result.Compartments = records[0][1:]

	for _, record := range records[1:] {
		t, x, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", runID, err)
		}
		result.Times = append(result.Times, t)
		result.States = append(result.States, x)
	}
	return result, nil
}

// LoadTraces reads traces.csv back into an ensemble.
func (s *Store) LoadTraces(runID string) (*stochastic.EnsembleResult, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, "traces.csv"))
	if os.IsNotExist(err) {
		return nil, ErrNoTraces
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoTraces
	}

	ens := &stochastic.EnsembleResult{Compartments: records[0][2:]}
	for _, record := range records[1:] {
		rep, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", runID, err)
		}
		t, x, err := parseRow(record[1:])
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", runID, err)
		}
		for len(ens.Runs) <= rep {
			ens.Runs = append(ens.Runs, &dynamo.Result{Compartments: ens.Compartments})
		}
		run := ens.Runs[rep]
		run.Times = append(run.Times, t)
		run.States = append(run.States, x)
	}
	if len(ens.Runs) > 0 {
		ens.Times = ens.Runs[0].Times
	}
	return ens, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func parseRow(record []string) (float64, dynamo.State, error) {
	t, err := strconv.ParseFloat(record[0], 64)
	if err != nil {
		return 0, nil, err
	}
	x := make(dynamo.State, len(record)-1)
	for j := 1; j < len(record); j++ {
		x[j-1], err = strconv.ParseFloat(record[j], 64)
		if err != nil {
			return 0, nil, err
		}
	}
	return t, x, nil
}
