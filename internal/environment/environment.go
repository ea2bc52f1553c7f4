// Package environment provides uniform access to docwright resources —
// project config, workflow definitions, templates, static assets, and
// external processor/converter definitions — regardless of whether they live
// in a directory tree, an in-memory fixture, a ZIP archive, or a layered
// combination of sources. Callers hold an Environment and never branch on
// the concrete backing.
package environment

import (
	"errors"
	"fmt"

	"github.com/docwright/docwright/internal/envschema"
)

// Environment is the capability contract every backing satisfies.
//
// Has* probes never return an error; they report false for anything a get
// would fail to resolve by absence, and true for resources that exist even
// when malformed. Config returns (nil, nil) when no config file is present;
// it only errors when a config file exists but is invalid.
type Environment interface {
	// Initialize makes the environment queryable. Implementations with no
	// deferred work return nil immediately. Safe to call repeatedly and
	// from concurrent callers; heavy work runs at most once.
	Initialize() error

	Config() (*envschema.ProjectConfig, error)

	Workflow(name string) (*envschema.WorkflowFile, error)
	ListWorkflows() ([]string, error)
	HasWorkflow(name string) bool

	ProcessorDefinitions() ([]envschema.ProcessorDefinition, error)
	ConverterDefinitions() ([]envschema.ConverterDefinition, error)

	Template(req TemplateRequest) ([]byte, error)
	HasTemplate(req TemplateRequest) bool
	Static(req StaticRequest) ([]byte, error)
	HasStatic(req StaticRequest) bool

	Manifest() (*Manifest, error)
}

// TemplateRequest identifies a template by workflow, template name, and an
// optional variant. An empty Variant selects the default rendering.
type TemplateRequest struct {
	Workflow string
	Template string
	Variant  string
}

// ID renders the request as a diagnostic identifier.
func (r TemplateRequest) ID() string {
	if r.Variant != "" {
		return fmt.Sprintf("%s/%s/%s", r.Workflow, r.Template, r.Variant)
	}
	return fmt.Sprintf("%s/%s", r.Workflow, r.Template)
}

// StaticRequest identifies a static asset within a workflow.
type StaticRequest struct {
	Workflow string
	Static   string
}

// ID renders the request as a diagnostic identifier.
func (r StaticRequest) ID() string {
	return fmt.Sprintf("%s/%s", r.Workflow, r.Static)
}

// ResourceKind names the resource categories an environment serves.
type ResourceKind string

const (
	KindConfig    ResourceKind = "config"
	KindWorkflow  ResourceKind = "workflow"
	KindTemplate  ResourceKind = "template"
	KindStatic    ResourceKind = "static"
	KindProcessor ResourceKind = "processor"
	KindConverter ResourceKind = "converter"
	KindArchive   ResourceKind = "archive"
)

// NotFoundError reports an absent resource. Callers can recover by offering
// the available alternatives.
type NotFoundError struct {
	Kind ResourceKind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// NotFound constructs a NotFoundError for the given kind and identifier.
func NotFound(kind ResourceKind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ValidationError reports a resource that exists but failed schema or
// content validation, or an archive that failed aggregate validation.
type ValidationError struct {
	Resource string
	Err      error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Resource, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validation wraps err as a ValidationError scoped to the named resource.
func Validation(resource string, err error) error {
	return &ValidationError{Resource: resource, Err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
