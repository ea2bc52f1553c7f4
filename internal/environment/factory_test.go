package environment

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestNewLayeredWiring(t *testing.T) {
	project := t.TempDir()
	system := t.TempDir()
	writeTree(t, project, map[string]string{
		"workflows/job/workflow.yml":                "name: job\ndescription: project copy\n",
		"workflows/job/templates/resume/default.md": "project resume",
	})
	writeTree(t, system, map[string]string{
		"config.yml":                  "name: system\n",
		"workflows/job/workflow.yml":  "name: job\ndescription: system copy\n",
		"workflows/blog/workflow.yml": "name: blog\n",
	})

	env := NewLayered(project, system, nil)
	if err := Validate(env); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	wf, err := env.Workflow("job")
	if err != nil {
		t.Fatalf("Workflow(job): %v", err)
	}
	if wf.Description != "project copy" {
		t.Errorf("description = %q, want project copy", wf.Description)
	}

	names, err := env.ListWorkflows()
	if err != nil {
		t.Fatalf("ListWorkflows: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"blog", "job"}) {
		t.Errorf("ListWorkflows = %v", names)
	}

	cfg, err := env.Config()
	if err != nil || cfg == nil || cfg.Name != "system" {
		t.Fatalf("config = (%+v, %v)", cfg, err)
	}

	got, err := env.Template(TemplateRequest{Workflow: "job", Template: "resume"})
	if err != nil || string(got) != "project resume" {
		t.Fatalf("template = (%q, %v)", got, err)
	}
}

func TestNewLayeredMissingRoots(t *testing.T) {
	system := t.TempDir()
	writeTree(t, system, map[string]string{
		"workflows/blog/workflow.yml": "name: blog\n",
	})

	// A project root that does not exist contributes nothing but does not
	// break resolution of the system side.
	env := NewLayered(filepath.Join(system, "no-such-dir"), system, nil)
	if err := Validate(env); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !env.HasWorkflow("blog") {
		t.Error("system workflow lost behind missing project root")
	}

	// Both roots empty: a valid, empty environment.
	empty := NewLayered("", "", nil)
	if err := Validate(empty); err != nil {
		t.Fatalf("Validate(empty): %v", err)
	}
	names, err := empty.ListWorkflows()
	if err != nil {
		t.Fatalf("ListWorkflows: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("empty environment lists %v", names)
	}
}
