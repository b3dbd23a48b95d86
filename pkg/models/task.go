package models

// Task is one schedulable unit of work. The scheduler treats it as
// read-only input for the duration of a run and never mutates it.
type Task struct {
	ID        string                 `json:"id" yaml:"id"`
	Name      string                 `json:"name" yaml:"name"`
	DependsOn []string               `json:"depends_on,omitempty" yaml:"depends_on"`
	Metadata  map[string]interface{} `json:"metadata,omitempty" yaml:"metadata"`
}
