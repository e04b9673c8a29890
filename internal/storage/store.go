package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/safecar/internal/config"
	"github.com/san-kum/safecar/internal/envelope"
	"github.com/san-kum/safecar/internal/logging"
	"github.com/san-kum/safecar/internal/sweep"
)

const (
	metadataFile = "metadata.json"
	boundsFile   = "bounds.csv"
)

var ErrCorruptRun = errors.New("storage: corrupt run data")

type Store struct {
	baseDir string
	log     *slog.Logger
}

func New(baseDir string, log *slog.Logger) *Store {
	if log == nil {
		log = logging.Discard()
	}
	return &Store{baseDir: baseDir, log: log}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID                  string                 `json:"id"`
	Preset              string                 `json:"preset"`
	Timestamp           time.Time              `json:"timestamp"`
	Vehicle             envelope.Vehicle       `json:"vehicle"`
	Sweep               config.SweepConfig     `json:"sweep"`
	WorstCaseIterations int                    `json:"worst_case_iterations"`
	Bisections          int                    `json:"bisections"`
	MaxSustainable      float64                `json:"max_sustainable_speed"`
	Stats               map[string]sweep.Stats `json:"stats"`
	Violations          int                    `json:"monotonicity_violations"`
}

var boundsHeader = []string{
	"v_current", "delta_next",
	"next_max", "next_min", "next_feasible",
	"worst_max", "worst_min", "worst_feasible",
}

// Save writes the run metadata and the sampled surface under a new run
// directory and returns the run ID.
func (s *Store) Save(meta RunMetadata, surf *sweep.Surface) (string, error) {
	if meta.ID == "" {
		prefix := meta.Preset
		if prefix == "" {
			prefix = "run"
		}
		meta.ID = fmt.Sprintf("%s_%s", prefix, uuid.NewString()[:8])
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(runDir, boundsFile))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := WriteCSV(f, surf); err != nil {
		return "", err
	}

	s.log.Info("run saved", "id", meta.ID, "dir", runDir, "points", len(surf.Speeds)*len(surf.Deltas))
	return meta.ID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// List returns all readable runs, oldest first. Unreadable directories are
// skipped.
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
			s.log.Debug("skipping run", "dir", entry.Name(), "err", err)
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptRun, runID, err)
	}
	return &meta, nil
}

// LoadSurface reads the bounds CSV of a run back into a Surface.
func (s *Store) LoadSurface(runID string) (*sweep.Surface, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, boundsFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(boundsHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptRun, runID, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: %s: no samples", ErrCorruptRun, runID)
	}

	return surfaceFromRecords(records[1:])
}

// surfaceFromRecords rebuilds the grid from rows written in speed-major
// order by WriteCSV.
func surfaceFromRecords(records [][]string) (*sweep.Surface, error) {
	var speeds, deltas []float64
	for _, rec := range records {
		v, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: v_current %q", ErrCorruptRun, rec[0])
		}
		d, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: delta_next %q", ErrCorruptRun, rec[1])
		}
		if len(speeds) == 0 || speeds[len(speeds)-1] != v {
			speeds = append(speeds, v)
		}
		if len(speeds) == 1 {
			deltas = append(deltas, d)
		}
	}
	if len(speeds)*len(deltas) != len(records) {
		return nil, fmt.Errorf("%w: %d rows do not form a %dx%d grid", ErrCorruptRun, len(records), len(speeds), len(deltas))
	}

	surf := &sweep.Surface{
		Speeds: speeds,
		Deltas: deltas,
		Next:   make([][]envelope.Interval, len(speeds)),
		Worst:  make([][]envelope.Interval, len(speeds)),
	}
	for i := range speeds {
		surf.Next[i] = make([]envelope.Interval, len(deltas))
		surf.Worst[i] = make([]envelope.Interval, len(deltas))
		for j := range deltas {
			rec := records[i*len(deltas)+j]
			next, err := parseInterval(rec[2], rec[3], rec[4])
			if err != nil {
				return nil, err
			}
			worst, err := parseInterval(rec[5], rec[6], rec[7])
			if err != nil {
				return nil, err
			}
			surf.Next[i][j], surf.Worst[i][j] = next, worst
		}
	}
	return surf, nil
}

func parseInterval(maxField, minField, feasibleField string) (envelope.Interval, error) {
	feasible, err := strconv.ParseBool(feasibleField)
	if err != nil {
		return envelope.Infeasible, fmt.Errorf("%w: feasible flag %q", ErrCorruptRun, feasibleField)
	}
	if !feasible {
		return envelope.Infeasible, nil
	}
	hi, err := strconv.ParseFloat(maxField, 64)
	if err != nil {
		return envelope.Infeasible, fmt.Errorf("%w: max %q", ErrCorruptRun, maxField)
	}
	lo, err := strconv.ParseFloat(minField, 64)
	if err != nil {
		return envelope.Infeasible, fmt.Errorf("%w: min %q", ErrCorruptRun, minField)
	}
	return envelope.Interval{Max: hi, Min: lo}, nil
}
