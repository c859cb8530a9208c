// Package storage persists runs as a directory per run holding
// metadata.json and trajectory.csv.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/san-kum/stagesim/internal/config"
	"github.com/san-kum/stagesim/internal/metrics"
	"github.com/san-kum/stagesim/internal/trajectory"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type RunMetadata struct {
	ID         string               `json:"id"`
	Label      string               `json:"label"`
	Timestamp  time.Time            `json:"timestamp"`
	Solver     string               `json:"solver"`
	Config     *config.Config       `json:"config"`
	Segments   []trajectory.Segment `json:"segments"`
	Summary    metrics.Summary      `json:"summary"`
	CrossCheck trajectory.Report    `json:"cross_check"`
}

// Save writes a new run directory and returns its id. label names the
// preset or config the run came from.
func (s *Store) Save(label string, cfg *config.Config, tr *trajectory.Trajectory) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", label, now.UnixNano())
	runDir := s.Dir(runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Label:      label,
		Timestamp:  now,
		Solver:     cfg.Solver.Name,
		Config:     cfg,
		Segments:   tr.Segments,
		Summary:    metrics.Summarize(tr),
		CrossCheck: trajectory.CrossCheck(tr, false),
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, trajectoryFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, tr); err != nil {
		return "", err
	}
	return runID, nil
}

// List returns the stored runs, oldest first. Unreadable entries are skipped.
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
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadTrajectory rebuilds a stored trajectory from its CSV and the segment
// table in its metadata.
func (s *Store) LoadTrajectory(runID string) (*RunMetadata, *trajectory.Trajectory, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}

	file, err := os.Open(filepath.Join(s.Dir(runID), trajectoryFile))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	tr, err := ReadCSV(file, meta.Segments)
	if err != nil {
		return nil, nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if meta.Config != nil {
		tr.Constants = meta.Config.Physics
	}
	return meta, tr, nil
}
