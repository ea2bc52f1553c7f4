package environment

import (
	"path"
	"strings"
)

// Directory layout shared by the filesystem and archive backings. Both
// resolve resources by computing the same candidate-path lists and taking
// the first hit, so the layout lives in one place.
const (
	configFileName    = "config.yml"
	configFileAltName = "config.yaml"
	workflowsDir      = "workflows"
	workflowFileName  = "workflow.yml"
	templatesDir      = "templates"
	staticDirName     = "static"
	processorsDir     = "processors"
	convertersDir     = "converters"
	defaultVariant    = "default"
	templateExt       = ".md"
	definitionExt     = ".yml"
)

func configCandidates() []string {
	return []string{configFileName, configFileAltName}
}

func workflowPath(name string) string {
	return path.Join(workflowsDir, name, workflowFileName)
}

// templateCandidates lists the paths a template request may resolve to, in
// priority order: the requested variant first, then the default rendering.
func templateCandidates(req TemplateRequest) []string {
	base := path.Join(workflowsDir, req.Workflow, templatesDir, req.Template)
	var candidates []string
	if req.Variant != "" && req.Variant != defaultVariant {
		candidates = append(candidates, path.Join(base, req.Variant+templateExt))
	}
	return append(candidates, path.Join(base, defaultVariant+templateExt))
}

// staticCandidates lists the paths a static request may resolve to: the
// conventional templates/static location first, then the flatter per-workflow
// fallback.
func staticCandidates(req StaticRequest) []string {
	return []string{
		path.Join(workflowsDir, req.Workflow, templatesDir, staticDirName, req.Static),
		path.Join(workflowsDir, req.Workflow, staticDirName, req.Static),
	}
}

func processorPath(name string) string {
	return path.Join(processorsDir, name+definitionExt)
}

func converterPath(name string) string {
	return path.Join(convertersDir, name+definitionExt)
}

// normalizePath rewrites an archive entry name into the canonical lookup
// key: forward slashes, no leading separators, no redundant segments. It
// never resolves ".." — unsafe paths must be rejected, not repaired.
func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	for strings.HasPrefix(p, "/") {
		p = strings.TrimPrefix(p, "/")
	}
	// path.Clean would fold "a/../b" into "b", silently fixing what the
	// validator must see. Only collapse empty and "." segments.
	segs := strings.Split(p, "/")
	out := segs[:0]
	for _, s := range segs {
		if s == "" || s == "." {
			continue
		}
		out = append(out, s)
	}
	return strings.Join(out, "/")
}
