package environment

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/docwright/docwright/internal/debug"
	"github.com/docwright/docwright/internal/envschema"
	"github.com/docwright/docwright/internal/security"
)

// ArchiveEnvironment serves resources from a ZIP archive. The archive is
// treated as untrusted input: on first use every entry is extracted into a
// validated in-memory map keyed by normalized path, and all queries answer
// from that frozen map. Individual unsafe entries are skipped; aggregate or
// content-level violations fail initialization outright.
type ArchiveEnvironment struct {
	name      string
	source    func() ([]byte, error)
	validator *security.Validator

	initOnce sync.Once
	initErr  error
	files    map[string][]byte

	manifestOnce sync.Once
	manifest     *Manifest
}

var _ Environment = (*ArchiveEnvironment)(nil)

// NewArchive reads the ZIP at the given path on first use. A nil validator
// selects the default limits.
func NewArchive(zipPath string, validator *security.Validator) *ArchiveEnvironment {
	return NewArchiveSource(zipPath, func() ([]byte, error) {
		return os.ReadFile(zipPath) // #nosec G304 - caller-supplied archive location
	}, validator)
}

// NewArchiveBuffer serves the given ZIP bytes directly. name is used only
// in diagnostics.
func NewArchiveBuffer(name string, data []byte, validator *security.Validator) *ArchiveEnvironment {
	return NewArchiveSource(name, func() ([]byte, error) {
		return data, nil
	}, validator)
}

// NewArchiveSource builds an environment over an arbitrary archive byte
// source. The source is invoked at most once, on first initialization.
func NewArchiveSource(name string, source func() ([]byte, error), validator *security.Validator) *ArchiveEnvironment {
	if validator == nil {
		validator = security.Default()
	}
	return &ArchiveEnvironment{name: name, source: source, validator: validator}
}

// Name returns the diagnostic name of the archive source.
func (e *ArchiveEnvironment) Name() string {
	return e.name
}

// Initialize extracts and validates the archive. It runs the heavy work at
// most once, including under concurrent callers; repeat calls return the
// memoized result.
func (e *ArchiveEnvironment) Initialize() error {
	e.initOnce.Do(func() {
		e.initErr = e.extract()
	})
	return e.initErr
}

func (e *ArchiveEnvironment) extract() error {
	data, err := e.source()
	if err != nil {
		return fmt.Errorf("read archive %s: %w", e.name, err)
	}
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Validation(e.name, fmt.Errorf("not a zip archive: %w", err))
	}

	files := map[string][]byte{}
	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		normalized := normalizePath(entry.Name)
		if err := e.validator.ValidatePath(normalized); err != nil {
			debug.Warnf("archive %s: skipping entry %q: %v\n", e.name, entry.Name, err)
			continue
		}
		if err := e.validator.ValidateFilename(path.Base(normalized)); err != nil {
			debug.Warnf("archive %s: skipping entry %q: %v\n", e.name, entry.Name, err)
			continue
		}
		limit := e.validator.MaxSizeFor(normalized)
		if err := e.validator.ValidateFileSize(normalized, int64(entry.UncompressedSize64)); err != nil {
			debug.Warnf("archive %s: skipping entry %q: %v\n", e.name, entry.Name, err)
			continue
		}
		content, err := readEntry(entry, limit)
		if err != nil {
			debug.Warnf("archive %s: skipping entry %q: %v\n", e.name, entry.Name, err)
			continue
		}
		files[normalized] = content
	}

	// The batch ceiling defends against archives that pass every per-entry
	// check but exhaust memory in aggregate. Failing here rejects the whole
	// archive; no partial result is kept.
	batch := make([]security.FileInfo, 0, len(files))
	for p, content := range files {
		batch = append(batch, security.FileInfo{Path: p, Size: int64(len(content))})
	}
	if err := e.validator.ValidateBatch(batch); err != nil {
		return Validation(e.name, err)
	}

	// Past the aggregate check the content is expected to be parseable
	// text where the layout says so; corruption at this level marks the
	// archive itself invalid.
	for p, content := range files {
		if !security.IsTextPath(p) {
			continue
		}
		if err := e.validator.ValidateContent(p, content); err != nil {
			return Validation(e.name, err)
		}
	}

	e.files = files
	return nil
}

// readEntry reads one entry's bytes, refusing to buffer more than the
// declared limit even when the header understates the true size.
func readEntry(entry *zip.File, limit int64) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry: %w", err)
	}
	defer rc.Close()
	content, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read entry: %w", err)
	}
	if int64(len(content)) > limit {
		return nil, fmt.Errorf("entry exceeds declared size limit %d", limit)
	}
	return content, nil
}

func (e *ArchiveEnvironment) Config() (*envschema.ProjectConfig, error) {
	if err := e.Initialize(); err != nil {
		return nil, err
	}
	for _, p := range configCandidates() {
		data, ok := e.files[p]
		if !ok {
			continue
		}
		cfg, err := envschema.ParseProjectConfig(data)
		if err != nil {
			return nil, Validation(p, err)
		}
		return cfg, nil
	}
	return nil, nil
}

func (e *ArchiveEnvironment) Workflow(name string) (*envschema.WorkflowFile, error) {
	if err := e.Initialize(); err != nil {
		return nil, err
	}
	if err := e.validator.ValidateFilename(name); err != nil {
		return nil, fmt.Errorf("workflow name: %w", err)
	}
	data, ok := e.files[workflowPath(name)]
	if !ok {
		return nil, NotFound(KindWorkflow, name)
	}
	wf, err := envschema.ParseWorkflow(data)
	if err != nil {
		return nil, Validation(workflowPath(name), err)
	}
	return wf, nil
}

func (e *ArchiveEnvironment) ListWorkflows() ([]string, error) {
	m, err := e.Manifest()
	if err != nil {
		return nil, err
	}
	return m.Workflows, nil
}

func (e *ArchiveEnvironment) HasWorkflow(name string) bool {
	if e.Initialize() != nil {
		return false
	}
	if e.validator.ValidateFilename(name) != nil {
		return false
	}
	_, ok := e.files[workflowPath(name)]
	return ok
}

func (e *ArchiveEnvironment) ProcessorDefinitions() ([]envschema.ProcessorDefinition, error) {
	if err := e.Initialize(); err != nil {
		return nil, err
	}
	var defs []envschema.ProcessorDefinition
	for _, p := range e.sortedPaths(processorsDir + "/") {
		def, err := envschema.ParseProcessor(e.files[p])
		if err != nil {
			debug.Warnf("archive %s: skipping invalid definition %s: %v\n", e.name, p, err)
			continue
		}
		defs = append(defs, *def)
	}
	return defs, nil
}

func (e *ArchiveEnvironment) ConverterDefinitions() ([]envschema.ConverterDefinition, error) {
	if err := e.Initialize(); err != nil {
		return nil, err
	}
	var defs []envschema.ConverterDefinition
	for _, p := range e.sortedPaths(convertersDir + "/") {
		def, err := envschema.ParseConverter(e.files[p])
		if err != nil {
			debug.Warnf("archive %s: skipping invalid definition %s: %v\n", e.name, p, err)
			continue
		}
		defs = append(defs, *def)
	}
	return defs, nil
}

func (e *ArchiveEnvironment) Template(req TemplateRequest) ([]byte, error) {
	if err := e.Initialize(); err != nil {
		return nil, err
	}
	for _, p := range templateCandidates(req) {
		if content, ok := e.files[p]; ok {
			return content, nil
		}
	}
	return nil, NotFound(KindTemplate, req.ID())
}

func (e *ArchiveEnvironment) HasTemplate(req TemplateRequest) bool {
	if e.Initialize() != nil {
		return false
	}
	for _, p := range templateCandidates(req) {
		if _, ok := e.files[p]; ok {
			return true
		}
	}
	return false
}

func (e *ArchiveEnvironment) Static(req StaticRequest) ([]byte, error) {
	if err := e.Initialize(); err != nil {
		return nil, err
	}
	for _, p := range staticCandidates(req) {
		if content, ok := e.files[p]; ok {
			return content, nil
		}
	}
	return nil, NotFound(KindStatic, req.ID())
}

func (e *ArchiveEnvironment) HasStatic(req StaticRequest) bool {
	if e.Initialize() != nil {
		return false
	}
	for _, p := range staticCandidates(req) {
		if _, ok := e.files[p]; ok {
			return true
		}
	}
	return false
}

func (e *ArchiveEnvironment) Manifest() (*Manifest, error) {
	if err := e.Initialize(); err != nil {
		return nil, err
	}
	e.manifestOnce.Do(func() {
		paths := make([]string, 0, len(e.files))
		for p := range e.files {
			paths = append(paths, p)
		}
		e.manifest = buildManifest(paths, func(p string) ([]byte, error) {
			content, ok := e.files[p]
			if !ok {
				return nil, NotFound(KindArchive, p)
			}
			return content, nil
		})
	})
	return e.manifest, nil
}

func (e *ArchiveEnvironment) sortedPaths(prefix string) []string {
	var out []string
	for p := range e.files {
		if strings.HasPrefix(p, prefix) && strings.HasSuffix(p, definitionExt) &&
			!strings.Contains(strings.TrimPrefix(p, prefix), "/") {
			out = append(out, p)
		}
	}
	return dedupeSorted(out)
}
