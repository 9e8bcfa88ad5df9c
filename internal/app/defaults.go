package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths are the locations filer uses before a config file has been read.
type Paths struct {
	ConfigFile string // $FILER_CONFIG_PATH or ~/.config/filer.toml
	BaseDir    string // $FILER_HOME or ~/.local/share/filer
}

// DefaultPaths resolves Paths from the environment, falling back to the
// user's home directory.
func DefaultPaths() (Paths, error) {
	var home string
	under := func(env string, elem ...string) (string, error) {
		if v := os.Getenv(env); v != "" {
			return v, nil
		}
		if home == "" {
			h, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("locate home directory for %s: %w", env, err)
			}
			home = h
		}
		return filepath.Join(append([]string{home}, elem...)...), nil
	}

	cfgFile, err := under("FILER_CONFIG_PATH", ".config", "filer.toml")
	if err != nil {
		return Paths{}, err
	}
	base, err := under("FILER_HOME", ".local", "share", "filer")
	if err != nil {
		return Paths{}, err
	}
	return Paths{ConfigFile: cfgFile, BaseDir: base}, nil
}
