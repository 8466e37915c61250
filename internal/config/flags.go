package config

import (
	"time"

	"github.com/spf13/pflag"
)

// Flags holds command-line overrides bound to a FlagSet.
type Flags struct {
	set *pflag.FlagSet

	config    string
	debug     bool
	out       string
	name      string
	sink      string
	textSink  string
	uploadURL string
	indent    bool
	noText    bool
	noBinary  bool
	timeout   time.Duration
	retries   int
	logFile   string
	logFormat string
}

// BindFlags registers the override flags on fs.
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{set: fs}
	fs.StringVarP(&f.config, "config", "c", "", "Path to config file")
	fs.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	fs.StringVarP(&f.out, "out", "o", "", "Output directory for the file sink")
	fs.StringVar(&f.name, "name", "", "Output file name without extension")
	fs.StringVar(&f.sink, "sink", "", "Sink for the binary export (file, http, log)")
	fs.StringVar(&f.textSink, "text-sink", "", "Sink for the text export (file, http, log)")
	fs.StringVar(&f.uploadURL, "upload-url", "", "Base URL for the http sink")
	fs.BoolVar(&f.indent, "indent", false, "Indent the text export")
	fs.BoolVar(&f.noText, "no-text", false, "Skip the text export")
	fs.BoolVar(&f.noBinary, "no-binary", false, "Skip the binary export")
	fs.DurationVar(&f.timeout, "timeout", 0, "Per-request timeout for remote parts")
	fs.IntVar(&f.retries, "retries", 0, "Retries for remote parts")
	fs.StringVar(&f.logFile, "log-file", "", "Also log to this file")
	fs.StringVar(&f.logFormat, "log-format", "", "Log format (console, json)")
	return f
}

// ConfigPath returns the explicit config path if provided via --config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return f.config
}

// apply applies CLI flag overrides to the config. Only flags set on the
// command line take effect.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	changed := f.set.Changed

	if f.debug {
		cfg.Logging.Level = "debug"
	}
	if changed("out") {
		cfg.Output.Dir = f.out
	}
	if changed("name") {
		cfg.Output.Name = f.name
	}
	if changed("sink") {
		cfg.Output.Sink = f.sink
	}
	if changed("text-sink") {
		cfg.Output.TextSink = f.textSink
	}
	if changed("upload-url") {
		cfg.Output.UploadURL = f.uploadURL
	}
	if changed("indent") {
		cfg.Output.Indent = f.indent
	}
	if f.noText {
		cfg.Output.Text = false
	}
	if f.noBinary {
		cfg.Output.Binary = false
	}
	if changed("timeout") {
		cfg.Loader.Timeout = f.timeout
	}
	if changed("retries") {
		cfg.Loader.Retries = f.retries
	}
	if changed("log-file") {
		cfg.Logging.LogFile = f.logFile
	}
	if changed("log-format") {
		cfg.Logging.Format = f.logFormat
	}
}
