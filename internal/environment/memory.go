package environment

import (
	"path"

	"github.com/docwright/docwright/internal/envschema"
)

// MemoryEnvironment serves resources from in-process maps. It exists for
// tests and programmatic embedding; fixtures are set after construction via
// the Add*/Set* methods. Not safe for mutation concurrent with reads.
type MemoryEnvironment struct {
	config     *envschema.ProjectConfig
	workflows  map[string]*envschema.WorkflowFile
	templates  map[string][]byte
	statics    map[string][]byte
	processors map[string]envschema.ProcessorDefinition
	converters map[string]envschema.ConverterDefinition
}

var _ Environment = (*MemoryEnvironment)(nil)

// NewMemory returns an empty in-memory environment.
func NewMemory() *MemoryEnvironment {
	return &MemoryEnvironment{
		workflows:  map[string]*envschema.WorkflowFile{},
		templates:  map[string][]byte{},
		statics:    map[string][]byte{},
		processors: map[string]envschema.ProcessorDefinition{},
		converters: map[string]envschema.ConverterDefinition{},
	}
}

// SetConfig installs the project config fixture.
func (e *MemoryEnvironment) SetConfig(cfg *envschema.ProjectConfig) {
	e.config = cfg
}

// AddWorkflow installs a workflow fixture under the given name.
func (e *MemoryEnvironment) AddWorkflow(name string, wf *envschema.WorkflowFile) {
	e.workflows[name] = wf
}

// AddTemplate installs template content for workflow/template/variant. An
// empty variant installs the default rendering.
func (e *MemoryEnvironment) AddTemplate(workflow, template, variant string, content []byte) {
	e.templates[templateKey(workflow, template, variant)] = content
}

// AddStatic installs static asset content for a workflow.
func (e *MemoryEnvironment) AddStatic(workflow, name string, content []byte) {
	e.statics[path.Join(workflow, name)] = content
}

// AddProcessor installs a processor definition fixture.
func (e *MemoryEnvironment) AddProcessor(def envschema.ProcessorDefinition) {
	e.processors[def.Name] = def
}

// AddConverter installs a converter definition fixture.
func (e *MemoryEnvironment) AddConverter(def envschema.ConverterDefinition) {
	e.converters[def.Name] = def
}

// Initialize is a no-op; memory environments are queryable on construction.
func (e *MemoryEnvironment) Initialize() error {
	return nil
}

func (e *MemoryEnvironment) Config() (*envschema.ProjectConfig, error) {
	return e.config, nil
}

func (e *MemoryEnvironment) Workflow(name string) (*envschema.WorkflowFile, error) {
	wf, ok := e.workflows[name]
	if !ok {
		return nil, NotFound(KindWorkflow, name)
	}
	return wf, nil
}

func (e *MemoryEnvironment) ListWorkflows() ([]string, error) {
	return sortedKeysOf(e.workflows), nil
}

func (e *MemoryEnvironment) HasWorkflow(name string) bool {
	_, ok := e.workflows[name]
	return ok
}

func (e *MemoryEnvironment) ProcessorDefinitions() ([]envschema.ProcessorDefinition, error) {
	out := make([]envschema.ProcessorDefinition, 0, len(e.processors))
	for _, name := range sortedKeysOf(e.processors) {
		out = append(out, e.processors[name])
	}
	return out, nil
}

func (e *MemoryEnvironment) ConverterDefinitions() ([]envschema.ConverterDefinition, error) {
	out := make([]envschema.ConverterDefinition, 0, len(e.converters))
	for _, name := range sortedKeysOf(e.converters) {
		out = append(out, e.converters[name])
	}
	return out, nil
}

func (e *MemoryEnvironment) Template(req TemplateRequest) ([]byte, error) {
	if req.Variant != "" {
		if content, ok := e.templates[templateKey(req.Workflow, req.Template, req.Variant)]; ok {
			return content, nil
		}
	}
	if content, ok := e.templates[templateKey(req.Workflow, req.Template, "")]; ok {
		return content, nil
	}
	return nil, NotFound(KindTemplate, req.ID())
}

func (e *MemoryEnvironment) HasTemplate(req TemplateRequest) bool {
	_, err := e.Template(req)
	return err == nil
}

func (e *MemoryEnvironment) Static(req StaticRequest) ([]byte, error) {
	content, ok := e.statics[path.Join(req.Workflow, req.Static)]
	if !ok {
		return nil, NotFound(KindStatic, req.ID())
	}
	return content, nil
}

func (e *MemoryEnvironment) HasStatic(req StaticRequest) bool {
	_, err := e.Static(req)
	return err == nil
}

func (e *MemoryEnvironment) Manifest() (*Manifest, error) {
	m := newManifest()
	m.Workflows = sortedKeysOf(e.workflows)
	m.Processors = sortedKeysOf(e.processors)
	m.Converters = sortedKeysOf(e.converters)
	m.HasConfig = e.config != nil

	templates := map[string]map[string]bool{}
	for key := range e.templates {
		workflow, template := splitTemplateKey(key)
		if templates[workflow] == nil {
			templates[workflow] = map[string]bool{}
		}
		templates[workflow][template] = true
	}
	for wf, set := range templates {
		m.Templates[wf] = sortedKeys(set)
	}

	statics := map[string]map[string]bool{}
	for key := range e.statics {
		dir, name := path.Split(key)
		wf := path.Clean(dir)
		if statics[wf] == nil {
			statics[wf] = map[string]bool{}
		}
		statics[wf][name] = true
	}
	for wf, set := range statics {
		m.Statics[wf] = sortedKeys(set)
	}
	return m, nil
}

func templateKey(workflow, template, variant string) string {
	if variant == "" {
		variant = defaultVariant
	}
	return path.Join(workflow, template, variant)
}

func splitTemplateKey(key string) (workflow, template string) {
	dir, _ := path.Split(key)
	dir = path.Clean(dir)
	return path.Dir(dir), path.Base(dir)
}

func sortedKeysOf[V any](m map[string]V) []string {
	set := make(map[string]bool, len(m))
	for k := range m {
		set[k] = true
	}
	return sortedKeys(set)
}
