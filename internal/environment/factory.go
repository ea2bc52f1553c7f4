package environment

import (
	"fmt"
	"os"

	"github.com/docwright/docwright/internal/security"
)

// NewLayered wires a project root over a system root: a MergedEnvironment
// whose local side is the project directory and whose global side is the
// system installation. A root that is empty or does not exist contributes
// an empty environment, so a half-installed setup still resolves whatever
// the other side carries.
func NewLayered(projectDir, systemDir string, validator *security.Validator) *MergedEnvironment {
	return NewMerged(
		dirEnvironment(projectDir, validator),
		dirEnvironment(systemDir, validator),
	)
}

func dirEnvironment(dir string, validator *security.Validator) Environment {
	if dir == "" {
		return NewMemory()
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return NewMemory()
	}
	return NewFilesystemDir(dir, validator)
}

// Validate initializes the environment and derives its manifest, surfacing
// construction-time problems (unreadable source, failed archive validation)
// before the environment is handed to callers.
func Validate(env Environment) error {
	if err := env.Initialize(); err != nil {
		return fmt.Errorf("initialize environment: %w", err)
	}
	if _, err := env.Manifest(); err != nil {
		return fmt.Errorf("derive manifest: %w", err)
	}
	return nil
}
