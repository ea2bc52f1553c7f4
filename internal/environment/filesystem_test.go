package environment

import (
	"reflect"
	"testing"
	"testing/fstest"

	"github.com/docwright/docwright/internal/security"
)

func fixtureFS() fstest.MapFS {
	return fstest.MapFS{
		"config.yml":                                  {Data: []byte("name: docs\n")},
		"workflows/blog/workflow.yml":                 {Data: []byte("name: blog\ndescription: blog posts\n")},
		"workflows/blog/templates/post/default.md":    {Data: []byte("# {{title}}")},
		"workflows/blog/templates/post/mobile.md":     {Data: []byte("# mobile {{title}}")},
		"workflows/blog/templates/static/style.css":   {Data: []byte("body{}")},
		"workflows/job/workflow.yml":                  {Data: []byte("name: job\n")},
		"workflows/job/templates/resume/default.md":   {Data: []byte("resume default")},
		"processors/mermaid.yml":                      {Data: []byte("name: mermaid\ncommand: mmdc\n")},
		"converters/pandoc.yml":                       {Data: []byte("name: pandoc\ncommand: pandoc\n")},
		"converters/broken.yml":                       {Data: []byte("command: no-name\n")},
		"workflows/job/templates/static/letter.css":   {Data: []byte(".a{}")},
	}
}

func TestFilesystemConfig(t *testing.T) {
	env := NewFilesystem(fixtureFS(), nil)
	cfg, err := env.Config()
	if err != nil {
		t.Fatalf("Config: %v", err)
	}
	if cfg == nil || cfg.Name != "docs" {
		t.Fatalf("config = %+v", cfg)
	}

	// No config file at all: absent, not an error.
	empty := NewFilesystem(fstest.MapFS{}, nil)
	cfg, err = empty.Config()
	if err != nil || cfg != nil {
		t.Fatalf("absent config = (%v, %v), want (nil, nil)", cfg, err)
	}

	// Present but invalid: a validation error, never silently absent.
	bad := NewFilesystem(fstest.MapFS{
		"config.yaml": {Data: []byte("name: [broken\n")},
	}, nil)
	if _, err := bad.Config(); !IsValidation(err) {
		t.Fatalf("invalid config = %v, want validation error", err)
	}
}

func TestFilesystemConfigAltName(t *testing.T) {
	env := NewFilesystem(fstest.MapFS{
		"config.yaml": {Data: []byte("name: alt\n")},
	}, nil)
	cfg, err := env.Config()
	if err != nil || cfg == nil || cfg.Name != "alt" {
		t.Fatalf("config.yaml fallback = (%+v, %v)", cfg, err)
	}
}

func TestFilesystemWorkflow(t *testing.T) {
	env := NewFilesystem(fixtureFS(), nil)

	wf, err := env.Workflow("blog")
	if err != nil {
		t.Fatalf("Workflow(blog): %v", err)
	}
	if wf.Description != "blog posts" {
		t.Errorf("description = %q", wf.Description)
	}

	if _, err := env.Workflow("missing"); !IsNotFound(err) {
		t.Errorf("Workflow(missing) = %v, want not-found", err)
	}

	// Malformed workflow file: distinct failure kind from absence.
	corrupt := NewFilesystem(fstest.MapFS{
		"workflows/bad/workflow.yml": {Data: []byte("description: no name\n")},
	}, nil)
	if _, err := corrupt.Workflow("bad"); !IsValidation(err) {
		t.Errorf("corrupt workflow = %v, want validation error", err)
	}
	// The malformed workflow still exists for probing purposes.
	if !corrupt.HasWorkflow("bad") {
		t.Error("HasWorkflow(bad) = false, want true for malformed-but-present")
	}

	names, err := env.ListWorkflows()
	if err != nil {
		t.Fatalf("ListWorkflows: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"blog", "job"}) {
		t.Errorf("ListWorkflows = %v", names)
	}
}

func TestFilesystemWorkflowNameValidation(t *testing.T) {
	env := NewFilesystem(fixtureFS(), nil)

	if _, err := env.Workflow("../escape"); err == nil || IsNotFound(err) {
		t.Errorf("traversal workflow name = %v, want security rejection", err)
	}
	if env.HasWorkflow("../escape") {
		t.Error("HasWorkflow(traversal) = true")
	}
	if env.HasTemplate(TemplateRequest{Workflow: "../x", Template: "post"}) {
		t.Error("HasTemplate with traversal workflow = true")
	}
}

func TestFilesystemTemplateResolution(t *testing.T) {
	env := NewFilesystem(fixtureFS(), nil)

	got, err := env.Template(TemplateRequest{Workflow: "blog", Template: "post", Variant: "mobile"})
	if err != nil {
		t.Fatalf("Template(mobile): %v", err)
	}
	if string(got) != "# mobile {{title}}" {
		t.Errorf("mobile = %q", got)
	}

	got, err = env.Template(TemplateRequest{Workflow: "blog", Template: "post", Variant: "print"})
	if err != nil {
		t.Fatalf("Template(print fallback): %v", err)
	}
	if string(got) != "# {{title}}" {
		t.Errorf("fallback = %q", got)
	}

	if _, err := env.Template(TemplateRequest{Workflow: "blog", Template: "absent"}); !IsNotFound(err) {
		t.Errorf("absent template = %v, want not-found", err)
	}
	if !env.HasTemplate(TemplateRequest{Workflow: "job", Template: "resume"}) {
		t.Error("HasTemplate(job/resume) = false")
	}
}

func TestFilesystemStaticFallbackLocation(t *testing.T) {
	env := NewFilesystem(fstest.MapFS{
		"workflows/blog/workflow.yml":    {Data: []byte("name: blog\n")},
		"workflows/blog/static/img.svg":  {Data: []byte("<svg/>")},
	}, nil)

	// Not under templates/static, but the flatter fallback finds it.
	content, err := env.Static(StaticRequest{Workflow: "blog", Static: "img.svg"})
	if err != nil {
		t.Fatalf("Static fallback: %v", err)
	}
	if string(content) != "<svg/>" {
		t.Errorf("content = %q", content)
	}
}

func TestFilesystemDefinitions(t *testing.T) {
	env := NewFilesystem(fixtureFS(), nil)

	procs, err := env.ProcessorDefinitions()
	if err != nil {
		t.Fatalf("ProcessorDefinitions: %v", err)
	}
	if len(procs) != 1 || procs[0].Name != "mermaid" {
		t.Errorf("processors = %+v", procs)
	}

	// broken.yml has no name and is skipped, not fatal.
	convs, err := env.ConverterDefinitions()
	if err != nil {
		t.Fatalf("ConverterDefinitions: %v", err)
	}
	if len(convs) != 1 || convs[0].Name != "pandoc" {
		t.Errorf("converters = %+v", convs)
	}
}

func TestFilesystemManifest(t *testing.T) {
	env := NewFilesystem(fixtureFS(), nil)

	m, err := env.Manifest()
	if err != nil {
		t.Fatalf("Manifest: %v", err)
	}
	if !m.HasConfig {
		t.Error("HasConfig = false")
	}
	if !reflect.DeepEqual(m.Workflows, []string{"blog", "job"}) {
		t.Errorf("Workflows = %v", m.Workflows)
	}
	if !reflect.DeepEqual(m.Templates["blog"], []string{"post"}) {
		t.Errorf("Templates[blog] = %v", m.Templates["blog"])
	}
	if !reflect.DeepEqual(m.Statics["blog"], []string{"style.css"}) {
		t.Errorf("Statics[blog] = %v", m.Statics["blog"])
	}
	if !reflect.DeepEqual(m.Converters, []string{"pandoc"}) {
		t.Errorf("Converters = %v (invalid definitions must be skipped)", m.Converters)
	}

	// Manifest generation is idempotent.
	again, err := env.Manifest()
	if err != nil {
		t.Fatalf("second Manifest: %v", err)
	}
	if !reflect.DeepEqual(m, again) {
		t.Error("repeated Manifest() differs")
	}
}

func TestFilesystemOversizedFile(t *testing.T) {
	limits := security.DefaultLimits()
	limits.MaxFileSizes = map[string]int64{".md": 8}
	env := NewFilesystem(fstest.MapFS{
		"workflows/blog/workflow.yml":              {Data: []byte("name: blog\n")},
		"workflows/blog/templates/post/default.md": {Data: []byte("way more than eight bytes")},
	}, security.NewValidator(limits))

	if _, err := env.Template(TemplateRequest{Workflow: "blog", Template: "post"}); err == nil {
		t.Fatal("oversized template served")
	}
}
