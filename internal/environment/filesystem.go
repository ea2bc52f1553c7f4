package environment

import (
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/docwright/docwright/internal/debug"
	"github.com/docwright/docwright/internal/envschema"
	"github.com/docwright/docwright/internal/security"
)

// FilesystemEnvironment serves resources from a directory tree through an
// injected fs.FS. Every read is routed through the security validator, so a
// hostile tree (oversized files, binary garbage in YAML slots) degrades to
// per-resource errors instead of being trusted.
type FilesystemEnvironment struct {
	fsys      fs.FS
	validator *security.Validator

	manifestOnce sync.Once
	manifest     *Manifest
	manifestErr  error
}

var _ Environment = (*FilesystemEnvironment)(nil)

// NewFilesystem wraps an fs.FS. A nil validator selects the default limits.
func NewFilesystem(fsys fs.FS, validator *security.Validator) *FilesystemEnvironment {
	if validator == nil {
		validator = security.Default()
	}
	return &FilesystemEnvironment{fsys: fsys, validator: validator}
}

// NewFilesystemDir wraps a directory on the host filesystem.
func NewFilesystemDir(dir string, validator *security.Validator) *FilesystemEnvironment {
	return NewFilesystem(os.DirFS(dir), validator)
}

// Initialize is a no-op; filesystem environments read lazily.
func (e *FilesystemEnvironment) Initialize() error {
	return nil
}

func (e *FilesystemEnvironment) Config() (*envschema.ProjectConfig, error) {
	for _, p := range configCandidates() {
		if !e.exists(p) {
			continue
		}
		data, err := e.readFile(p)
		if err != nil {
			return nil, err
		}
		cfg, err := envschema.ParseProjectConfig(data)
		if err != nil {
			return nil, Validation(p, err)
		}
		return cfg, nil
	}
	return nil, nil
}

func (e *FilesystemEnvironment) Workflow(name string) (*envschema.WorkflowFile, error) {
	if err := e.validator.ValidateFilename(name); err != nil {
		return nil, fmt.Errorf("workflow name: %w", err)
	}
	p := workflowPath(name)
	if !e.exists(p) {
		return nil, NotFound(KindWorkflow, name)
	}
	data, err := e.readFile(p)
	if err != nil {
		return nil, err
	}
	wf, err := envschema.ParseWorkflow(data)
	if err != nil {
		return nil, Validation(p, err)
	}
	return wf, nil
}

func (e *FilesystemEnvironment) ListWorkflows() ([]string, error) {
	entries, err := fs.ReadDir(e.fsys, workflowsDir)
	if err != nil {
		return []string{}, nil
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() && e.exists(workflowPath(entry.Name())) {
			names = append(names, entry.Name())
		}
	}
	return dedupeSorted(names), nil
}

func (e *FilesystemEnvironment) HasWorkflow(name string) bool {
	if e.validator.ValidateFilename(name) != nil {
		return false
	}
	return e.exists(workflowPath(name))
}

func (e *FilesystemEnvironment) ProcessorDefinitions() ([]envschema.ProcessorDefinition, error) {
	var defs []envschema.ProcessorDefinition
	for _, p := range e.definitionPaths(processorsDir) {
		data, err := e.readFile(p)
		if err != nil {
			debug.Warnf("skipping definition %s: %v\n", p, err)
			continue
		}
		def, err := envschema.ParseProcessor(data)
		if err != nil {
			debug.Warnf("skipping invalid definition %s: %v\n", p, err)
			continue
		}
		defs = append(defs, *def)
	}
	return defs, nil
}

func (e *FilesystemEnvironment) ConverterDefinitions() ([]envschema.ConverterDefinition, error) {
	var defs []envschema.ConverterDefinition
	for _, p := range e.definitionPaths(convertersDir) {
		data, err := e.readFile(p)
		if err != nil {
			debug.Warnf("skipping definition %s: %v\n", p, err)
			continue
		}
		def, err := envschema.ParseConverter(data)
		if err != nil {
			debug.Warnf("skipping invalid definition %s: %v\n", p, err)
			continue
		}
		defs = append(defs, *def)
	}
	return defs, nil
}

func (e *FilesystemEnvironment) Template(req TemplateRequest) ([]byte, error) {
	if err := e.validateRequest(req.Workflow, req.Template, req.Variant); err != nil {
		return nil, err
	}
	for _, p := range templateCandidates(req) {
		if e.exists(p) {
			return e.readFile(p)
		}
	}
	return nil, NotFound(KindTemplate, req.ID())
}

func (e *FilesystemEnvironment) HasTemplate(req TemplateRequest) bool {
	if e.validateRequest(req.Workflow, req.Template, req.Variant) != nil {
		return false
	}
	for _, p := range templateCandidates(req) {
		if e.exists(p) {
			return true
		}
	}
	return false
}

func (e *FilesystemEnvironment) Static(req StaticRequest) ([]byte, error) {
	if err := e.validateRequest(req.Workflow, req.Static); err != nil {
		return nil, err
	}
	for _, p := range staticCandidates(req) {
		if e.exists(p) {
			return e.readFile(p)
		}
	}
	return nil, NotFound(KindStatic, req.ID())
}

func (e *FilesystemEnvironment) HasStatic(req StaticRequest) bool {
	if e.validateRequest(req.Workflow, req.Static) != nil {
		return false
	}
	for _, p := range staticCandidates(req) {
		if e.exists(p) {
			return true
		}
	}
	return false
}

func (e *FilesystemEnvironment) Manifest() (*Manifest, error) {
	e.manifestOnce.Do(func() {
		paths, err := e.collectPaths()
		if err != nil {
			e.manifestErr = err
			return
		}
		e.manifest = buildManifest(paths, e.readFile)
	})
	return e.manifest, e.manifestErr
}

// validateRequest checks every caller-supplied name component so a request
// can never be used to walk out of the tree.
func (e *FilesystemEnvironment) validateRequest(names ...string) error {
	for _, name := range names {
		if name == "" {
			continue
		}
		if err := e.validator.ValidateFilename(name); err != nil {
			return fmt.Errorf("resource name: %w", err)
		}
	}
	return nil
}

func (e *FilesystemEnvironment) exists(p string) bool {
	if e.validator.ValidatePath(p) != nil {
		return false
	}
	_, err := fs.Stat(e.fsys, p)
	return err == nil
}

func (e *FilesystemEnvironment) readFile(p string) ([]byte, error) {
	if err := e.validator.ValidatePath(p); err != nil {
		return nil, err
	}
	info, err := fs.Stat(e.fsys, p)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", p, err)
	}
	if err := e.validator.ValidateFileSize(p, info.Size()); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(e.fsys, p)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	if security.IsTextPath(p) {
		if err := e.validator.ValidateContent(p, data); err != nil {
			return nil, err
		}
	}
	return data, nil
}

func (e *FilesystemEnvironment) definitionPaths(dir string) []string {
	entries, err := fs.ReadDir(e.fsys, dir)
	if err != nil {
		return nil
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), definitionExt) {
			paths = append(paths, dir+"/"+entry.Name())
		}
	}
	return paths
}

func (e *FilesystemEnvironment) collectPaths() ([]string, error) {
	var paths []string
	err := fs.WalkDir(e.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk source tree: %w", err)
	}
	return paths, nil
}
