package envschema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const projectConfigSchema = `{
	"type": "object",
	"properties": {
		"name": {"type": "string"},
		"version": {"type": "string"},
		"defaults": {
			"type": "object",
			"properties": {
				"workflow": {"type": "string"},
				"converter": {"type": "string"}
			},
			"additionalProperties": true
		}
	},
	"additionalProperties": true
}`

const workflowSchema = `{
	"type": "object",
	"required": ["name"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"stages": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"next": {"type": "array", "items": {"type": "string"}}
				},
				"additionalProperties": true
			}
		}
	},
	"additionalProperties": true
}`

const definitionSchema = `{
	"type": "object",
	"required": ["name", "command"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"command": {"type": "string", "minLength": 1},
		"args": {"type": "array", "items": {"type": "string"}},
		"extensions": {"type": "array", "items": {"type": "string"}}
	},
	"additionalProperties": true
}`

var (
	compileOnce sync.Once
	compileErr  error
	compiled    map[string]*jsonschema.Schema
)

// compile builds every schema exactly once. Schemas are package constants,
// so a compile failure is a programming error surfaced on first use.
func compile() error {
	compileOnce.Do(func() {
		compiled = make(map[string]*jsonschema.Schema)
		for id, src := range map[string]string{
			"config":     projectConfigSchema,
			"workflow":   workflowSchema,
			"definition": definitionSchema,
		} {
			compiler := jsonschema.NewCompiler()
			resourceID := fmt.Sprintf("docwright://schema/%s.json", id)
			if err := compiler.AddResource(resourceID, strings.NewReader(src)); err != nil {
				compileErr = fmt.Errorf("add schema resource %s: %w", id, err)
				return
			}
			schema, err := compiler.Compile(resourceID)
			if err != nil {
				compileErr = fmt.Errorf("compile schema %s: %w", id, err)
				return
			}
			compiled[id] = schema
		}
	})
	return compileErr
}

// validateYAML decodes data as generic YAML and validates it against the
// named schema. The generic decode (not the typed struct) is what the schema
// sees, so required-field violations are caught even when the typed decode
// would silently zero-fill.
func validateYAML(schemaID string, data []byte) error {
	if err := compile(); err != nil {
		return err
	}
	var value any
	if err := yaml.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if value == nil {
		return fmt.Errorf("document is empty")
	}
	payload, err := normalize(value)
	if err != nil {
		return fmt.Errorf("normalize payload: %w", err)
	}
	if err := compiled[schemaID].Validate(payload); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// normalize round-trips the yaml.v3 value through JSON so the validator sees
// the exact types encoding/json produces (string-keyed maps, float64
// numbers). YAML's map[any]any keys are stringified on the way.
func normalize(value any) (any, error) {
	data, err := json.Marshal(stringifyKeys(value))
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func stringifyKeys(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = stringifyKeys(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[fmt.Sprintf("%v", k)] = stringifyKeys(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = stringifyKeys(item)
		}
		return out
	default:
		return v
	}
}

// ParseProjectConfig decodes and validates a config.yml payload.
func ParseProjectConfig(data []byte) (*ProjectConfig, error) {
	if err := validateYAML("config", data); err != nil {
		return nil, err
	}
	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// ParseWorkflow decodes and validates a workflow.yml payload.
func ParseWorkflow(data []byte) (*WorkflowFile, error) {
	if err := validateYAML("workflow", data); err != nil {
		return nil, err
	}
	var wf WorkflowFile
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("decode workflow: %w", err)
	}
	return &wf, nil
}

// ParseProcessor decodes and validates a processors/<name>.yml payload.
func ParseProcessor(data []byte) (*ProcessorDefinition, error) {
	if err := validateYAML("definition", data); err != nil {
		return nil, err
	}
	var def ProcessorDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("decode processor definition: %w", err)
	}
	return &def, nil
}

// ParseConverter decodes and validates a converters/<name>.yml payload.
func ParseConverter(data []byte) (*ConverterDefinition, error) {
	if err := validateYAML("definition", data); err != nil {
		return nil, err
	}
	var def ConverterDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("decode converter definition: %w", err)
	}
	return &def, nil
}
