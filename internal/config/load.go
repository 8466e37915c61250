package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the standard locations.
const FileName = "avatar.yaml"

// Load loads configuration with priority: defaults < file < flags.
// flags may be nil. The result is not validated; callers add parts from
// arguments first and then call Validate.
func Load(flags *Flags) (*Config, error) {
	cfg := Default()

	configPath := flags.ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	flags.apply(cfg)

	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./" + FileName,
		filepath.Join(ConfigDir(), FileName),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "MidgardAvatar")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "MidgardAvatar")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "midgard-avatar")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "midgard-avatar")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
// Relative local part paths are resolved against the file's directory.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	base := filepath.Dir(path)
	for i, p := range cfg.Parts {
		if isLocalRelative(p) {
			cfg.Parts[i] = filepath.Join(base, p)
		}
	}
	return nil
}

func isLocalRelative(p string) bool {
	if p == "" || filepath.IsAbs(p) {
		return false
	}
	return !strings.HasPrefix(p, "http://") && !strings.HasPrefix(p, "https://")
}
