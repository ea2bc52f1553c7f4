// Package envschema decodes and validates the YAML documents a resource
// environment serves: project configuration, workflow definitions, and
// external processor/converter definitions. Shape requirements are expressed
// as JSON schemas; fields beyond the required shape are preserved by the
// decoder and ignored by validation.
package envschema

// ProjectConfig is the root config.yml of a project or system installation.
type ProjectConfig struct {
	Name     string         `yaml:"name,omitempty" json:"name,omitempty"`
	Version  string         `yaml:"version,omitempty" json:"version,omitempty"`
	Defaults ConfigDefaults `yaml:"defaults,omitempty" json:"defaults,omitempty"`
}

// ConfigDefaults selects fallback behavior when a command does not name a
// workflow or converter explicitly.
type ConfigDefaults struct {
	Workflow  string `yaml:"workflow,omitempty" json:"workflow,omitempty"`
	Converter string `yaml:"converter,omitempty" json:"converter,omitempty"`
}

// WorkflowFile is a workflows/<name>/workflow.yml document.
type WorkflowFile struct {
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description,omitempty" json:"description,omitempty"`
	Stages      []Stage `yaml:"stages,omitempty" json:"stages,omitempty"`
}

// Stage is one status in a workflow's document lifecycle.
type Stage struct {
	Name string   `yaml:"name" json:"name"`
	Next []string `yaml:"next,omitempty" json:"next,omitempty"`
}

// ProcessorDefinition describes an external diagram/content processor
// invoked as a subprocess by the (out-of-scope) processing subsystem.
type ProcessorDefinition struct {
	Name       string   `yaml:"name" json:"name"`
	Command    string   `yaml:"command" json:"command"`
	Args       []string `yaml:"args,omitempty" json:"args,omitempty"`
	Extensions []string `yaml:"extensions,omitempty" json:"extensions,omitempty"`
}

// ConverterDefinition describes an external document converter (pandoc and
// friends) invoked as a subprocess.
type ConverterDefinition struct {
	Name       string   `yaml:"name" json:"name"`
	Command    string   `yaml:"command" json:"command"`
	Args       []string `yaml:"args,omitempty" json:"args,omitempty"`
	Extensions []string `yaml:"extensions,omitempty" json:"extensions,omitempty"`
}
