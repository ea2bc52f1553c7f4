// Package security gatekeeps every byte that enters an Environment from an
// external source. It validates entry paths, filenames, per-extension sizes,
// aggregate batch volume, and text content before anything is trusted or
// parsed. All checks are pure; the package does no I/O.
package security

import (
	"fmt"
	"path"
	"strings"
	"unicode/utf8"
)

// Error reports a rejected path, filename, size, or content check.
type Error struct {
	Path   string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("unsafe resource %q: %s", e.Path, e.Reason)
}

// FileInfo is the metadata the aggregate batch check needs. Content is not
// required; only identity and uncompressed size.
type FileInfo struct {
	Path string
	Size int64
}

// Limits configures the validator. The zero value is not usable; start from
// DefaultLimits and override fields as needed.
type Limits struct {
	// MaxFileSizes maps a lowercase extension (with leading dot) to the
	// largest acceptable uncompressed size for files of that type.
	MaxFileSizes map[string]int64

	// MaxFileSizeDefault applies to extensions not listed in MaxFileSizes.
	MaxFileSizeDefault int64

	// MaxTotalFiles and MaxTotalBytes cap an entire batch (archive or
	// directory snapshot). Exceeding either fails the whole load.
	MaxTotalFiles int
	MaxTotalBytes int64

	// MaxContentBytes caps any single text payload handed to a parser.
	MaxContentBytes int64

	// DeniedContentPatterns are substrings that disqualify a text payload,
	// e.g. YAML tags that instantiate arbitrary types in other runtimes.
	DeniedContentPatterns []string
}

// DefaultLimits returns the limit table used when callers do not supply one.
func DefaultLimits() Limits {
	return Limits{
		MaxFileSizes: map[string]int64{
			".yml":  1 << 20,
			".yaml": 1 << 20,
			".json": 1 << 20,
			".md":   1 << 20,
			".txt":  1 << 20,
			".css":  1 << 20,
		},
		MaxFileSizeDefault:    10 << 20,
		MaxTotalFiles:         10000,
		MaxTotalBytes:         100 << 20,
		MaxContentBytes:       1 << 20,
		DeniedContentPatterns: []string{"!!python/", "!!ruby/", "!!java"},
	}
}

// Validator applies the configured limits. It is stateless and safe for
// concurrent use.
type Validator struct {
	limits Limits
}

// NewValidator returns a validator enforcing the given limits.
func NewValidator(limits Limits) *Validator {
	return &Validator{limits: limits}
}

// Default returns a validator with DefaultLimits.
func Default() *Validator {
	return NewValidator(DefaultLimits())
}

// ValidatePath rejects absolute paths, ".." traversal segments, and null
// bytes. The path is expected to already be slash-normalized.
func (v *Validator) ValidatePath(p string) error {
	if p == "" {
		return &Error{Path: p, Reason: "empty path"}
	}
	if strings.ContainsRune(p, 0) {
		return &Error{Path: p, Reason: "path contains null byte"}
	}
	if strings.HasPrefix(p, "/") || isDrivePath(p) {
		return &Error{Path: p, Reason: "absolute path"}
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return &Error{Path: p, Reason: "path traversal segment"}
		}
	}
	return nil
}

// ValidateFilename rejects names containing path separators or control
// characters. Used for single path components (workflow names, template
// names, static file names) supplied by callers.
func (v *Validator) ValidateFilename(name string) error {
	if name == "" {
		return &Error{Path: name, Reason: "empty filename"}
	}
	if strings.ContainsAny(name, "/\\") {
		return &Error{Path: name, Reason: "filename contains path separator"}
	}
	if name == ".." || name == "." {
		return &Error{Path: name, Reason: "filename is a traversal segment"}
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return &Error{Path: name, Reason: "filename contains control character"}
		}
	}
	return nil
}

// ValidateFileSize compares size against the per-extension limit table.
func (v *Validator) ValidateFileSize(p string, size int64) error {
	if size < 0 {
		return &Error{Path: p, Reason: "negative size"}
	}
	limit := v.MaxSizeFor(p)
	if size > limit {
		return &Error{Path: p, Reason: fmt.Sprintf("size %d exceeds limit %d", size, limit)}
	}
	return nil
}

// MaxSizeFor returns the size ceiling that applies to the given path's
// extension.
func (v *Validator) MaxSizeFor(p string) int64 {
	ext := strings.ToLower(path.Ext(p))
	if limit, ok := v.limits.MaxFileSizes[ext]; ok {
		return limit
	}
	return v.limits.MaxFileSizeDefault
}

// ValidateBatch runs the aggregate check over a whole batch of entries.
// Unlike the per-entry checks, a failure here signals systemic abuse and
// must fail the entire load.
func (v *Validator) ValidateBatch(files []FileInfo) error {
	if len(files) > v.limits.MaxTotalFiles {
		return &Error{
			Path:   "",
			Reason: fmt.Sprintf("batch has %d entries, limit is %d", len(files), v.limits.MaxTotalFiles),
		}
	}
	var total int64
	for _, f := range files {
		total += f.Size
	}
	if total > v.limits.MaxTotalBytes {
		return &Error{
			Path:   "",
			Reason: fmt.Sprintf("batch totals %d bytes, limit is %d", total, v.limits.MaxTotalBytes),
		}
	}
	return nil
}

// ValidateContent runs a content sanity pass over a text payload before it
// reaches a parser: size ceiling, UTF-8 validity, and the configured
// denylist.
func (v *Validator) ValidateContent(p string, content []byte) error {
	if int64(len(content)) > v.limits.MaxContentBytes {
		return &Error{Path: p, Reason: fmt.Sprintf("content %d bytes exceeds limit %d", len(content), v.limits.MaxContentBytes)}
	}
	if !utf8.Valid(content) {
		return &Error{Path: p, Reason: "content is not valid UTF-8"}
	}
	if strings.ContainsRune(string(content), 0) {
		return &Error{Path: p, Reason: "content contains null byte"}
	}
	for _, pat := range v.limits.DeniedContentPatterns {
		if pat != "" && strings.Contains(string(content), pat) {
			return &Error{Path: p, Reason: fmt.Sprintf("content matches denied pattern %q", pat)}
		}
	}
	return nil
}

// IsTextPath reports whether the path's extension marks it as a text payload
// that ValidateContent should cover.
func IsTextPath(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".yml", ".yaml", ".json", ".md", ".txt", ".css":
		return true
	}
	return false
}

// isDrivePath detects Windows-style absolute paths like "C:/..." that
// survive slash normalization.
func isDrivePath(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
