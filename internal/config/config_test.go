package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Loader defaults
	if cfg.Loader.Timeout != 30*time.Second {
		t.Errorf("expected timeout 30s, got %v", cfg.Loader.Timeout)
	}
	if cfg.Loader.Retries != 3 {
		t.Errorf("expected 3 retries, got %d", cfg.Loader.Retries)
	}
	if !cfg.Loader.Cache {
		t.Error("expected cache to be enabled by default")
	}

	// Output defaults
	if cfg.Output.Name != "custom_avatar" {
		t.Errorf("expected name custom_avatar, got %s", cfg.Output.Name)
	}
	if !cfg.Output.Text || !cfg.Output.Binary {
		t.Error("expected both exports enabled by default")
	}
	if cfg.Output.Sink != SinkFile {
		t.Errorf("expected binary sink 'file', got %s", cfg.Output.Sink)
	}
	if cfg.Output.TextSink != SinkLog {
		t.Errorf("expected text sink 'log', got %s", cfg.Output.TextSink)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("expected console format, got %s", cfg.Logging.Format)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "avatar.yaml")

	yamlContent := `
parts:
  - body.glb
  - /abs/hair.glb
  - https://cdn.example.com/hat.glb

loader:
  timeout: 5s
  retries: 1
  cache: false

output:
  dir: out
  name: hero
  text: false
  sink: http
  upload_url: https://upload.example.com/avatars
  indent: true

logging:
  level: "debug"
  log_file: "avatar.log"
  format: json
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	wantParts := []string{
		filepath.Join(tmpDir, "body.glb"),
		"/abs/hair.glb",
		"https://cdn.example.com/hat.glb",
	}
	if len(cfg.Parts) != len(wantParts) {
		t.Fatalf("expected %d parts, got %d", len(wantParts), len(cfg.Parts))
	}
	for i, want := range wantParts {
		if cfg.Parts[i] != want {
			t.Errorf("part %d: expected %s, got %s", i, want, cfg.Parts[i])
		}
	}

	if cfg.Loader.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", cfg.Loader.Timeout)
	}
	if cfg.Loader.Retries != 1 {
		t.Errorf("expected 1 retry, got %d", cfg.Loader.Retries)
	}
	if cfg.Loader.Cache {
		t.Error("expected cache to be disabled")
	}

	if cfg.Output.Name != "hero" {
		t.Errorf("expected name hero, got %s", cfg.Output.Name)
	}
	if cfg.Output.Text {
		t.Error("expected text export to be disabled")
	}
	if !cfg.Output.Binary {
		t.Error("expected binary export to keep its default")
	}
	if cfg.Output.Sink != SinkHTTP {
		t.Errorf("expected sink http, got %s", cfg.Output.Sink)
	}
	if !cfg.Output.Indent {
		t.Error("expected indent to be enabled")
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected json format, got %s", cfg.Logging.Format)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected loaded config to validate, got %v", err)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
loader:
  timeout: not a duration
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	err := loadFromFile(cfg, configPath)
	if err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/avatar.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, FileName)
	if err := os.WriteFile(configPath, []byte("parts: [a.glb]\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find avatar.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(t *testing.T, cfg *Config)
	}{
		{
			name: "no flags keeps defaults",
			args: nil,
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Output.Dir != "." {
					t.Errorf("expected dir '.', got %s", cfg.Output.Dir)
				}
				if cfg.Loader.Retries != 3 {
					t.Errorf("expected 3 retries, got %d", cfg.Loader.Retries)
				}
			},
		},
		{
			name: "debug flag",
			args: []string{"--debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "output flags",
			args: []string{"-o", "/tmp/out", "--name", "hero", "--sink", "http", "--upload-url", "https://u.example.com", "--indent"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Output.Dir != "/tmp/out" {
					t.Errorf("expected dir /tmp/out, got %s", cfg.Output.Dir)
				}
				if cfg.Output.Name != "hero" {
					t.Errorf("expected name hero, got %s", cfg.Output.Name)
				}
				if cfg.Output.Sink != SinkHTTP {
					t.Errorf("expected sink http, got %s", cfg.Output.Sink)
				}
				if cfg.Output.UploadURL != "https://u.example.com" {
					t.Errorf("expected upload url, got %s", cfg.Output.UploadURL)
				}
				if !cfg.Output.Indent {
					t.Error("expected indent to be enabled")
				}
			},
		},
		{
			name: "export toggles",
			args: []string{"--no-text"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Output.Text {
					t.Error("expected text export to be disabled")
				}
				if !cfg.Output.Binary {
					t.Error("expected binary export to stay enabled")
				}
			},
		},
		{
			name: "loader and logging flags",
			args: []string{"--timeout", "2s", "--retries", "0", "--log-file", "x.log", "--log-format", "json"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Loader.Timeout != 2*time.Second {
					t.Errorf("expected timeout 2s, got %v", cfg.Loader.Timeout)
				}
				if cfg.Loader.Retries != 0 {
					t.Errorf("expected 0 retries, got %d", cfg.Loader.Retries)
				}
				if cfg.Logging.LogFile != "x.log" {
					t.Errorf("expected log file x.log, got %s", cfg.Logging.LogFile)
				}
				if cfg.Logging.Format != "json" {
					t.Errorf("expected json format, got %s", cfg.Logging.Format)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			flags := BindFlags(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("failed to parse flags: %v", err)
			}

			cfg := Default()
			flags.apply(cfg)

			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "avatar.yaml")

	yamlContent := `
output:
  name: from_file
  dir: file_dir
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags := BindFlags(fs)
	if err := fs.Parse([]string{"--config", configPath, "--name", "from_flag"}); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	cfg, err := Load(flags)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Name should be from flag, not file
	if cfg.Output.Name != "from_flag" {
		t.Errorf("expected name from_flag, got %s", cfg.Output.Name)
	}

	// Dir should be from file since no flag override
	if cfg.Output.Dir != "file_dir" {
		t.Errorf("expected dir file_dir from file, got %s", cfg.Output.Dir)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"no parts", func(c *Config) { c.Parts = nil }, "Parts needs at least 1"},
		{"empty part", func(c *Config) { c.Parts = []string{""} }, "Parts[0]"},
		{"unknown sink", func(c *Config) { c.Output.Sink = "ftp" }, "Output.Sink must be one of"},
		{"unknown level", func(c *Config) { c.Logging.Level = "trace" }, "Logging.Level must be one of"},
		{"bad upload url", func(c *Config) { c.Output.UploadURL = "not a url" }, "not a URL"},
		{"http without url", func(c *Config) { c.Output.Sink = SinkHTTP }, "upload_url is required"},
		{"disabled http export needs no url", func(c *Config) {
			c.Output.Sink = SinkHTTP
			c.Output.Binary = false
		}, ""},
		{"nothing to export", func(c *Config) {
			c.Output.Text = false
			c.Output.Binary = false
		}, "neither text nor binary"},
		{"zero timeout", func(c *Config) { c.Loader.Timeout = 0 }, "Loader.Timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Parts = []string{"body.glb"}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "avatar.yaml")

	cfg := Default()
	cfg.Parts = []string{"/parts/body.glb"}
	cfg.Loader.Timeout = 7 * time.Second
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload config: %v", err)
	}
	if loaded.Loader.Timeout != 7*time.Second {
		t.Errorf("expected timeout 7s, got %v", loaded.Loader.Timeout)
	}
	if len(loaded.Parts) != 1 || loaded.Parts[0] != "/parts/body.glb" {
		t.Errorf("expected parts [/parts/body.glb], got %v", loaded.Parts)
	}
}
