package security

import (
	"strings"
	"testing"
)

func TestValidatePath(t *testing.T) {
	v := Default()

	valid := []string{
		"config.yml",
		"workflows/blog/workflow.yml",
		"workflows/blog/templates/post/default.md",
		"a/b/c/d.txt",
		"..hidden/file.md", // double-dot prefix is not a traversal segment
	}
	for _, p := range valid {
		if err := v.ValidatePath(p); err != nil {
			t.Errorf("ValidatePath(%q) = %v, want nil", p, err)
		}
	}

	invalid := []string{
		"",
		"/etc/passwd",
		"../outside.yml",
		"workflows/../../escape.md",
		"a/..",
		"C:/windows/system32",
		"file\x00.yml",
	}
	for _, p := range invalid {
		if err := v.ValidatePath(p); err == nil {
			t.Errorf("ValidatePath(%q) = nil, want error", p)
		}
	}
}

func TestValidateFilename(t *testing.T) {
	v := Default()

	for _, name := range []string{"workflow.yml", "style.css", "post", "a-b_c.0"} {
		if err := v.ValidateFilename(name); err != nil {
			t.Errorf("ValidateFilename(%q) = %v, want nil", name, err)
		}
	}
	for _, name := range []string{"", "a/b", "a\\b", "..", ".", "bad\nname", "bell\x07"} {
		if err := v.ValidateFilename(name); err == nil {
			t.Errorf("ValidateFilename(%q) = nil, want error", name)
		}
	}
}

func TestValidateFileSize(t *testing.T) {
	v := Default()

	if err := v.ValidateFileSize("workflows/blog/workflow.yml", 512); err != nil {
		t.Fatalf("small yaml rejected: %v", err)
	}
	if err := v.ValidateFileSize("workflows/blog/workflow.yml", 2<<20); err == nil {
		t.Fatal("2MB yaml accepted, want rejection at 1MB limit")
	}
	// Unknown extensions get the larger default ceiling.
	if err := v.ValidateFileSize("assets/logo.png", 5<<20); err != nil {
		t.Fatalf("5MB png rejected: %v", err)
	}
	if err := v.ValidateFileSize("assets/logo.png", 20<<20); err == nil {
		t.Fatal("20MB png accepted, want rejection at default limit")
	}
	if err := v.ValidateFileSize("x.md", -1); err == nil {
		t.Fatal("negative size accepted")
	}
}

func TestValidateBatch(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxTotalFiles = 3
	limits.MaxTotalBytes = 100
	v := NewValidator(limits)

	ok := []FileInfo{
		{Path: "a.md", Size: 30},
		{Path: "b.md", Size: 30},
		{Path: "c.md", Size: 30},
	}
	if err := v.ValidateBatch(ok); err != nil {
		t.Fatalf("batch within limits rejected: %v", err)
	}

	tooMany := append(ok, FileInfo{Path: "d.md", Size: 1})
	if err := v.ValidateBatch(tooMany); err == nil {
		t.Fatal("batch over entry-count limit accepted")
	}

	tooBig := []FileInfo{{Path: "a.md", Size: 60}, {Path: "b.md", Size: 60}}
	if err := v.ValidateBatch(tooBig); err == nil {
		t.Fatal("batch over byte limit accepted")
	}
}

func TestValidateContent(t *testing.T) {
	v := Default()

	if err := v.ValidateContent("w.yml", []byte("name: blog\n")); err != nil {
		t.Fatalf("plain yaml rejected: %v", err)
	}
	if err := v.ValidateContent("w.yml", []byte{0xff, 0xfe, 0x00}); err == nil {
		t.Fatal("non-UTF-8 content accepted")
	}
	if err := v.ValidateContent("w.yml", []byte("key: !!python/object:os.system x\n")); err == nil {
		t.Fatal("denied yaml tag accepted")
	}

	limits := DefaultLimits()
	limits.MaxContentBytes = 10
	small := NewValidator(limits)
	if err := small.ValidateContent("w.yml", []byte(strings.Repeat("a", 11))); err == nil {
		t.Fatal("oversized content accepted")
	}
}

func TestSecurityErrorMessage(t *testing.T) {
	err := Default().ValidatePath("../x")
	se, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if se.Path != "../x" {
		t.Errorf("Path = %q, want ../x", se.Path)
	}
	if !strings.Contains(se.Error(), "traversal") {
		t.Errorf("message %q does not name the violation", se.Error())
	}
}
