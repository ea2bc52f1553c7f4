package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/docwright/docwright/internal/security"
)

// Settings are the CLI's own knobs, read from .docwright/config.yaml in the
// working directory (or an ancestor). They are distinct from the project
// config an Environment serves; these only tell dw where to look and how
// strict to be.
type Settings struct {
	ProjectRoot string
	SystemRoot  string
	Limits      security.Limits
}

// loadSettings reads .docwright/config.yaml if one exists. Absence is not an
// error; defaults apply.
func loadSettings() Settings {
	s := Settings{
		SystemRoot: defaultSystemRoot(),
		Limits:     security.DefaultLimits(),
	}

	configPath := findSettingsFile()
	if configPath == "" {
		return s
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		// Unreadable settings never block the command; defaults apply.
		return s
	}

	if root := v.GetString("roots.project"); root != "" {
		s.ProjectRoot = root
	}
	if root := v.GetString("roots.system"); root != "" {
		s.SystemRoot = root
	}
	if n := v.GetInt("limits.max-total-files"); n > 0 {
		s.Limits.MaxTotalFiles = n
	}
	if n := v.GetInt64("limits.max-total-bytes"); n > 0 {
		s.Limits.MaxTotalBytes = n
	}
	if n := v.GetInt64("limits.max-file-bytes"); n > 0 {
		s.Limits.MaxFileSizeDefault = n
	}
	return s
}

// findSettingsFile walks from the working directory upward looking for
// .docwright/config.yaml.
func findSettingsFile() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ".docwright", "config.yaml")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func defaultSystemRoot() string {
	if root := os.Getenv("DW_SYSTEM_ROOT"); root != "" {
		return root
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".docwright", "system")
}
