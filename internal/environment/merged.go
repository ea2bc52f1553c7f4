package environment

import (
	"github.com/docwright/docwright/internal/envschema"
)

// MergedEnvironment layers a project-local environment over a system-global
// one. Local always wins when it has an answer; only a NotFoundError from
// the local side falls through to global. Any other local failure — a
// corrupt override, a security violation — propagates unmasked, because
// silently resolving to the global default would hide the local bug from
// the user.
type MergedEnvironment struct {
	local  Environment
	global Environment
}

var _ Environment = (*MergedEnvironment)(nil)

// NewMerged composes local over global.
func NewMerged(local, global Environment) *MergedEnvironment {
	return &MergedEnvironment{local: local, global: global}
}

// Local returns the override side of the composition.
func (e *MergedEnvironment) Local() Environment {
	return e.local
}

// Global returns the fallback side of the composition.
func (e *MergedEnvironment) Global() Environment {
	return e.global
}

// Initialize initializes both sides.
func (e *MergedEnvironment) Initialize() error {
	if err := e.local.Initialize(); err != nil {
		return err
	}
	return e.global.Initialize()
}

func (e *MergedEnvironment) Config() (*envschema.ProjectConfig, error) {
	cfg, err := e.local.Config()
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		return cfg, nil
	}
	return e.global.Config()
}

func (e *MergedEnvironment) Workflow(name string) (*envschema.WorkflowFile, error) {
	wf, err := e.local.Workflow(name)
	if err == nil {
		return wf, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}
	return e.global.Workflow(name)
}

func (e *MergedEnvironment) ListWorkflows() ([]string, error) {
	local, err := e.local.ListWorkflows()
	if err != nil {
		return nil, err
	}
	global, err := e.global.ListWorkflows()
	if err != nil {
		return nil, err
	}
	return dedupeSorted(append(append([]string{}, local...), global...)), nil
}

func (e *MergedEnvironment) HasWorkflow(name string) bool {
	return e.local.HasWorkflow(name) || e.global.HasWorkflow(name)
}

func (e *MergedEnvironment) ProcessorDefinitions() ([]envschema.ProcessorDefinition, error) {
	global, err := e.global.ProcessorDefinitions()
	if err != nil {
		return nil, err
	}
	local, err := e.local.ProcessorDefinitions()
	if err != nil {
		return nil, err
	}
	byName := map[string]envschema.ProcessorDefinition{}
	for _, def := range global {
		byName[def.Name] = def
	}
	for _, def := range local {
		byName[def.Name] = def
	}
	out := make([]envschema.ProcessorDefinition, 0, len(byName))
	for _, name := range sortedKeysOf(byName) {
		out = append(out, byName[name])
	}
	return out, nil
}

func (e *MergedEnvironment) ConverterDefinitions() ([]envschema.ConverterDefinition, error) {
	global, err := e.global.ConverterDefinitions()
	if err != nil {
		return nil, err
	}
	local, err := e.local.ConverterDefinitions()
	if err != nil {
		return nil, err
	}
	byName := map[string]envschema.ConverterDefinition{}
	for _, def := range global {
		byName[def.Name] = def
	}
	for _, def := range local {
		byName[def.Name] = def
	}
	out := make([]envschema.ConverterDefinition, 0, len(byName))
	for _, name := range sortedKeysOf(byName) {
		out = append(out, byName[name])
	}
	return out, nil
}

func (e *MergedEnvironment) Template(req TemplateRequest) ([]byte, error) {
	content, err := e.local.Template(req)
	if err == nil {
		return content, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}
	return e.global.Template(req)
}

func (e *MergedEnvironment) HasTemplate(req TemplateRequest) bool {
	return e.local.HasTemplate(req) || e.global.HasTemplate(req)
}

func (e *MergedEnvironment) Static(req StaticRequest) ([]byte, error) {
	content, err := e.local.Static(req)
	if err == nil {
		return content, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}
	return e.global.Static(req)
}

func (e *MergedEnvironment) HasStatic(req StaticRequest) bool {
	return e.local.HasStatic(req) || e.global.HasStatic(req)
}

func (e *MergedEnvironment) Manifest() (*Manifest, error) {
	local, err := e.local.Manifest()
	if err != nil {
		return nil, err
	}
	global, err := e.global.Manifest()
	if err != nil {
		return nil, err
	}
	return mergeManifests(local, global), nil
}
