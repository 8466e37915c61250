// Package config handles avatar pipeline configuration loading and management.
package config

import "time"

// Sink names accepted in the output section.
const (
	SinkFile = "file"
	SinkHTTP = "http"
	SinkLog  = "log"
)

// Config holds all pipeline settings.
type Config struct {
	Parts   []string      `yaml:"parts" validate:"min=1,dive,required"`
	Loader  LoaderConfig  `yaml:"loader"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoaderConfig holds part loading settings.
type LoaderConfig struct {
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
	Retries int           `yaml:"retries" validate:"gte=0,lte=10"`
	Cache   bool          `yaml:"cache"`
}

// OutputConfig holds export settings. Name is the file name without
// extension; the text export gets .gltf and the binary export .glb.
type OutputConfig struct {
	Dir       string `yaml:"dir" validate:"required"`
	Name      string `yaml:"name" validate:"required"`
	Text      bool   `yaml:"text"`
	Binary    bool   `yaml:"binary"`
	Sink      string `yaml:"sink" validate:"oneof=file http log"`
	TextSink  string `yaml:"text_sink" validate:"oneof=file http log"`
	UploadURL string `yaml:"upload_url" validate:"omitempty,url"`
	Indent    bool   `yaml:"indent"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" validate:"oneof=debug info warn error"`
	LogFile string `yaml:"log_file"`
	Format  string `yaml:"format" validate:"oneof=console json"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Loader: LoaderConfig{
			Timeout: 30 * time.Second,
			Retries: 3,
			Cache:   true,
		},
		Output: OutputConfig{
			Dir:      ".",
			Name:     "custom_avatar",
			Text:     true,
			Binary:   true,
			Sink:     SinkFile,
			TextSink: SinkLog,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
			Format:  "console",
		},
	}
}

// UsesSink reports whether any enabled export is delivered to sink.
func (o OutputConfig) UsesSink(sink string) bool {
	return (o.Text && o.TextSink == sink) || (o.Binary && o.Sink == sink)
}
