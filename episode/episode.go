// Copyright (C) 2025, The Robust Semantic Agent Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package episode records per-step agent trajectories and serializes them
// as append-only JSONL, one episode per line, for offline analysis.
package episode

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// Step is a single recorded timestep.
type Step struct {
	Timestep    int                    `json:"timestep"`
	State       []float64              `json:"state"`
	Action      []float64              `json:"action"`
	Observation []float64              `json:"observation"`
	Reward      float64                `json:"reward"`
	Info        map[string]interface{} `json:"info,omitempty"`
}

// Episode is a full trajectory plus metadata.
type Episode struct {
	EpisodeID   int    `json:"episode_id"`
	ConfigHash  string `json:"config_hash"`
	Steps       []Step `json:"-"`
	TotalReturn float64
	Done        bool
}

// New returns an empty episode identified by episodeID.
func New(episodeID int, configHash string) *Episode {
	return &Episode{EpisodeID: episodeID, ConfigHash: configHash}
}

// AddStep appends a timestep and accumulates its reward into TotalReturn.
func (e *Episode) AddStep(state, action, observation []float64, reward float64, info map[string]interface{}) {
	e.Steps = append(e.Steps, Step{
		Timestep:    len(e.Steps),
		State:       append([]float64(nil), state...),
		Action:      append([]float64(nil), action...),
		Observation: append([]float64(nil), observation...),
		Reward:      reward,
		Info:        info,
	})
	e.TotalReturn += reward
}

// ComputeReturn returns the discounted cumulative reward Σ γ^t r_t.
func (e *Episode) ComputeReturn(discount float64) float64 {
	var ret float64
	for t, step := range e.Steps {
		ret += math.Pow(discount, float64(t)) * step.Reward
	}
	return ret
}

// episodeDoc is the JSON shape written per line: summary fields plus the
// full step trajectory.
type episodeDoc struct {
	EpisodeID   int     `json:"episode_id"`
	ConfigHash  string  `json:"config_hash"`
	TotalReturn float64 `json:"total_return"`
	NumSteps    int     `json:"num_steps"`
	Steps       []Step  `json:"steps"`
}

func (e *Episode) toDoc() episodeDoc {
	return episodeDoc{
		EpisodeID:   e.EpisodeID,
		ConfigHash:  e.ConfigHash,
		TotalReturn: e.TotalReturn,
		NumSteps:    len(e.Steps),
		Steps:       e.Steps,
	}
}

// ToJSONL renders the episode as one JSON object (no trailing newline).
func (e *Episode) ToJSONL() (string, error) {
	b, err := json.Marshal(e.toDoc())
	if err != nil {
		return "", fmt.Errorf("episode: marshal: %w", err)
	}
	return string(b), nil
}

// Save appends the episode's JSONL line to path, creating parent
// directories as needed.
func (e *Episode) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("episode: creating directory for %s: %w", path, err)
	}

	line, err := e.ToJSONL()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("episode: opening %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("episode: writing %s: %w", path, err)
	}
	return nil
}

func fromDoc(doc episodeDoc) *Episode {
	return &Episode{
		EpisodeID:   doc.EpisodeID,
		ConfigHash:  doc.ConfigHash,
		Steps:       doc.Steps,
		TotalReturn: doc.TotalReturn,
		Done:        true,
	}
}

// LoadJSONL reads every episode recorded in the JSONL file at path, in
// the order Save wrote them. Blank lines are skipped.
func LoadJSONL(path string) ([]*Episode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("episode: opening %s: %w", path, err)
	}
	defer f.Close()

	var episodes []*Episode
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var doc episodeDoc
		if err := json.Unmarshal([]byte(line), &doc); err != nil {
			return nil, fmt.Errorf("episode: parsing %s line %d: %w", path, lineNo, err)
		}
		episodes = append(episodes, fromDoc(doc))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("episode: reading %s: %w", path, err)
	}
	return episodes, nil
}

// LoadDir reads every *.jsonl file directly inside dir and returns their
// episodes concatenated, for evaluate's runs-dir aggregation.
func LoadDir(dir string) ([]*Episode, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("episode: reading directory %s: %w", dir, err)
	}

	var all []*Episode
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jsonl") {
			continue
		}
		eps, err := LoadJSONL(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		all = append(all, eps...)
	}
	return all, nil
}
