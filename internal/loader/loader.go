// Package loader parses YAML plan files into task lists and execution
// options. The scheduler itself never reads files; this is the
// task-definition collaborator feeding it.
package loader

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Lordsisodia/waveflow/pkg/models"
)

// PlanYAML represents the YAML structure of a plan file.
type PlanYAML struct {
	Plan struct {
		Name    string      `yaml:"name"`
		Tasks   []TaskYAML  `yaml:"tasks"`
		Options OptionsYAML `yaml:"options"`
	} `yaml:"plan"`
}

type TaskYAML struct {
	ID        string                 `yaml:"id"`
	Name      string                 `yaml:"name,omitempty"`
	DependsOn []string               `yaml:"depends_on,omitempty"`
	Metadata  map[string]interface{} `yaml:"metadata,omitempty"`
}

type OptionsYAML struct {
	MaxConcurrency    int    `yaml:"max_concurrency,omitempty"`
	FailureStrategy   string `yaml:"failure_strategy,omitempty"`
	RequireAllSuccess bool   `yaml:"require_all_success,omitempty"`
	MaxRetries        int    `yaml:"max_retries,omitempty"`
	BaseBackoffMs     int    `yaml:"base_backoff_ms,omitempty"`
	OverallDeadline   string `yaml:"overall_deadline,omitempty"`
}

// Plan is a fully parsed and validated plan file.
type Plan struct {
	Name    string
	Tasks   []models.Task
	Options models.ExecutionOptions
}

// LoadFile reads and parses a plan from a YAML file.
func LoadFile(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read plan file %s", path)
	}
	return Load(data)
}

// Load parses a plan from YAML bytes, validating plan-level integrity:
// a non-empty name, at least one task, unique non-empty task ids and a
// parseable option set. Dependency integrity is the scheduler's job.
func Load(data []byte) (*Plan, error) {
	var raw PlanYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parse plan yaml")
	}
	if raw.Plan.Name == "" {
		return nil, errors.New("plan name is required")
	}
	if len(raw.Plan.Tasks) == 0 {
		return nil, errors.New("plan has no tasks")
	}

	seen := make(map[string]bool, len(raw.Plan.Tasks))
	tasks := make([]models.Task, 0, len(raw.Plan.Tasks))
	for i, t := range raw.Plan.Tasks {
		if t.ID == "" {
			return nil, fmt.Errorf("task at position %d has no id", i)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("duplicate task id %q", t.ID)
		}
		seen[t.ID] = true
		name := t.Name
		if name == "" {
			name = t.ID
		}
		tasks = append(tasks, models.Task{
			ID:        t.ID,
			Name:      name,
			DependsOn: t.DependsOn,
			Metadata:  t.Metadata,
		})
	}

	opts, err := parseOptions(raw.Plan.Options)
	if err != nil {
		return nil, err
	}

	return &Plan{
		Name:    raw.Plan.Name,
		Tasks:   tasks,
		Options: opts,
	}, nil
}

func parseOptions(o OptionsYAML) (models.ExecutionOptions, error) {
	strategy, err := models.ParseFailureStrategy(o.FailureStrategy)
	if err != nil {
		return models.ExecutionOptions{}, err
	}
	opts := models.ExecutionOptions{
		MaxConcurrency:    o.MaxConcurrency,
		FailureStrategy:   strategy,
		RequireAllSuccess: o.RequireAllSuccess,
		MaxRetries:        o.MaxRetries,
		BaseBackoff:       time.Duration(o.BaseBackoffMs) * time.Millisecond,
	}
	if o.OverallDeadline != "" {
		d, err := time.ParseDuration(o.OverallDeadline)
		if err != nil {
			return models.ExecutionOptions{}, errors.Wrapf(err, "parse overall_deadline %q", o.OverallDeadline)
		}
		opts.OverallDeadline = d
	}
	return opts.Normalized(), nil
}
