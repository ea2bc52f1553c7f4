package environment

import (
	"sort"
	"strings"

	"github.com/docwright/docwright/internal/debug"
	"github.com/docwright/docwright/internal/envschema"
)

// Manifest summarizes everything an environment can currently serve. It is
// derived from the backing source, never stored, and regenerating it without
// a source change yields identical output.
type Manifest struct {
	Workflows  []string            `json:"workflows" yaml:"workflows"`
	Processors []string            `json:"processors" yaml:"processors"`
	Converters []string            `json:"converters" yaml:"converters"`
	Templates  map[string][]string `json:"templates" yaml:"templates"`
	Statics    map[string][]string `json:"statics" yaml:"statics"`
	HasConfig  bool                `json:"has_config" yaml:"has_config"`
}

func newManifest() *Manifest {
	return &Manifest{
		Workflows:  []string{},
		Processors: []string{},
		Converters: []string{},
		Templates:  map[string][]string{},
		Statics:    map[string][]string{},
	}
}

// buildManifest derives a manifest from a flat list of normalized resource
// paths. read loads a path's bytes; it is only called for processor and
// converter definitions, which must parse to contribute their declared
// name. Invalid definitions are skipped with a warning, never fatal.
//
// The same scan serves the filesystem backing (paths from a directory walk)
// and the archive backing (keys of the extracted map), which keeps the two
// views of the layout convention from drifting apart.
func buildManifest(paths []string, read func(string) ([]byte, error)) *Manifest {
	m := newManifest()
	templates := map[string]map[string]bool{}
	statics := map[string]map[string]bool{}
	var workflows, processors, converters []string

	for _, p := range paths {
		segs := strings.Split(p, "/")
		switch {
		case p == configFileName || p == configFileAltName:
			m.HasConfig = true

		case len(segs) == 3 && segs[0] == workflowsDir && segs[2] == workflowFileName:
			workflows = append(workflows, segs[1])

		case len(segs) == 5 && segs[0] == workflowsDir && segs[2] == templatesDir &&
			segs[3] != staticDirName && strings.HasSuffix(segs[4], templateExt):
			wf := segs[1]
			if templates[wf] == nil {
				templates[wf] = map[string]bool{}
			}
			templates[wf][segs[3]] = true

		case len(segs) == 5 && segs[0] == workflowsDir && segs[2] == templatesDir &&
			segs[3] == staticDirName:
			wf := segs[1]
			if statics[wf] == nil {
				statics[wf] = map[string]bool{}
			}
			statics[wf][segs[4]] = true

		case len(segs) == 2 && segs[0] == processorsDir && strings.HasSuffix(segs[1], definitionExt):
			if name, ok := definitionName(p, read, parseProcessorName); ok {
				processors = append(processors, name)
			}

		case len(segs) == 2 && segs[0] == convertersDir && strings.HasSuffix(segs[1], definitionExt):
			if name, ok := definitionName(p, read, parseConverterName); ok {
				converters = append(converters, name)
			}
		}
	}

	m.Workflows = dedupeSorted(workflows)
	m.Processors = dedupeSorted(processors)
	m.Converters = dedupeSorted(converters)
	for wf, set := range templates {
		m.Templates[wf] = sortedKeys(set)
	}
	for wf, set := range statics {
		m.Statics[wf] = sortedKeys(set)
	}
	return m
}

func definitionName(p string, read func(string) ([]byte, error), parse func([]byte) (string, error)) (string, bool) {
	data, err := read(p)
	if err != nil {
		debug.Warnf("skipping definition %s: %v\n", p, err)
		return "", false
	}
	name, err := parse(data)
	if err != nil {
		debug.Warnf("skipping invalid definition %s: %v\n", p, err)
		return "", false
	}
	return name, true
}

func parseProcessorName(data []byte) (string, error) {
	def, err := envschema.ParseProcessor(data)
	if err != nil {
		return "", err
	}
	return def.Name, nil
}

func parseConverterName(data []byte) (string, error) {
	def, err := envschema.ParseConverter(data)
	if err != nil {
		return "", err
	}
	return def.Name, nil
}

func dedupeSorted(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// mergeManifests applies the layering rules field by field: lists union and
// deduplicate, per-workflow maps union per key, and has_config falls through
// to global only when local has none.
func mergeManifests(local, global *Manifest) *Manifest {
	m := newManifest()
	m.Workflows = dedupeSorted(append(append([]string{}, local.Workflows...), global.Workflows...))
	m.Processors = dedupeSorted(append(append([]string{}, local.Processors...), global.Processors...))
	m.Converters = dedupeSorted(append(append([]string{}, local.Converters...), global.Converters...))
	for wf, names := range global.Templates {
		m.Templates[wf] = dedupeSorted(names)
	}
	for wf, names := range local.Templates {
		m.Templates[wf] = dedupeSorted(append(append([]string{}, names...), m.Templates[wf]...))
	}
	for wf, names := range global.Statics {
		m.Statics[wf] = dedupeSorted(names)
	}
	for wf, names := range local.Statics {
		m.Statics[wf] = dedupeSorted(append(append([]string{}, names...), m.Statics[wf]...))
	}
	m.HasConfig = local.HasConfig || global.HasConfig
	return m
}
