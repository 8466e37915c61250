// Package app holds the avatar pipeline's application state: configuration,
// the asset manager, loader, composer, exporter and output sinks. Each export
// request composes once and exports text and binary variants independently.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-avatar/internal/assets"
	"github.com/Faultbox/midgard-avatar/internal/compose"
	"github.com/Faultbox/midgard-avatar/internal/config"
	"github.com/Faultbox/midgard-avatar/internal/export"
	"github.com/Faultbox/midgard-avatar/internal/loader"
	"github.com/Faultbox/midgard-avatar/internal/sink"
	"github.com/Faultbox/midgard-avatar/pkg/scene"
)

// File extensions of the two export variants.
const (
	ExtText   = ".gltf"
	ExtBinary = ".glb"
)

// Options supply the resources State is built on. Zero values take the OS
// filesystem and a no-op logger.
type Options struct {
	Fs     afero.Fs
	Logger *zap.Logger
}

// Delivery describes one delivered export.
type Delivery struct {
	Name   string
	Sink   string
	Bytes  int
	Digest uint64
}

// Report is the outcome of one export request. Text or Binary is nil when
// that variant is disabled.
type Report struct {
	RequestID string
	Text      *Delivery
	Binary    *Delivery
}

// State is the application state passed to every pipeline entry point.
type State struct {
	config   *config.Config
	log      *zap.Logger
	assets   *assets.Manager
	loader   *loader.Loader
	composer *compose.Composer
	exporter *export.Exporter
	uploader *sink.HTTP

	textSink   sink.Sink
	binarySink sink.Sink
}

// New validates cfg and builds the pipeline.
func New(cfg *config.Config, opts Options) (*State, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	log := opts.Logger

	s := &State{
		config: cfg,
		log:    log,
		assets: assets.NewManager(assets.Options{
			Fs:      opts.Fs,
			Timeout: cfg.Loader.Timeout,
			Retries: cfg.Loader.Retries,
			NoCache: !cfg.Loader.Cache,
			Logger:  log.Named("assets"),
		}),
		composer: compose.New(log.Named("compose")),
		exporter: export.New(log.Named("export")),
	}
	s.loader = loader.New(s.assets, log.Named("loader"))

	deps := sink.Deps{
		File: sink.NewFile(opts.Fs, cfg.Output.Dir, log.Named("sink")),
		Log:  sink.NewLog(log.Named("sink")),
	}
	if cfg.Output.UploadURL != "" {
		s.uploader = sink.NewHTTP(nil, cfg.Output.UploadURL, log.Named("sink"))
		deps.HTTP = s.uploader
	}

	var err error
	if s.textSink, err = sink.New(cfg.Output.TextSink, deps); err != nil {
		return nil, fmt.Errorf("text sink: %w", err)
	}
	if s.binarySink, err = sink.New(cfg.Output.Sink, deps); err != nil {
		return nil, fmt.Errorf("binary sink: %w", err)
	}

	return s, nil
}

// Config returns the configuration the state was built from.
func (s *State) Config() *config.Config {
	return s.config
}

// Loader returns the part loader.
func (s *State) Loader() *loader.Loader {
	return s.loader
}

// Close releases cached assets.
func (s *State) Close() {
	s.assets.Close()
}

// Run loads the configured parts and exports them.
func (s *State) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	parts, err := s.loader.LoadAll(ctx, s.config.Parts)
	if err != nil {
		return nil, err
	}
	s.log.Debug("loaded parts", zap.Int("parts", len(parts)), zap.Duration("took", time.Since(start)))
	return s.Export(ctx, parts)
}

// Export composes parts and delivers the enabled export variants. The exporter
// is held only while encoding, not during delivery.
func (s *State) Export(ctx context.Context, parts []*scene.Node) (*Report, error) {
	report := &Report{RequestID: uuid.NewString()}
	log := s.log.With(zap.String("request", report.RequestID))

	avatar, err := s.composer.Compose(parts)
	if err != nil {
		return nil, fmt.Errorf("composing avatar: %w", err)
	}

	text, binary, err := s.encode(ctx, avatar)
	if err != nil {
		return nil, err
	}

	out := s.config.Output
	if text != nil {
		report.Text, err = s.deliver(ctx, s.textSink, out.TextSink, sink.Payload{
			Name:        out.Name + ExtText,
			ContentType: sink.ContentTypeGLTF,
			Data:        text,
			Digest:      xxhash.Sum64(text),
		})
		if err != nil {
			return nil, err
		}
	}
	if binary != nil {
		report.Binary, err = s.deliver(ctx, s.binarySink, out.Sink, sink.Payload{
			Name:        out.Name + ExtBinary,
			ContentType: sink.ContentTypeGLB,
			Data:        binary.Data,
			Digest:      binary.Digest,
		})
		if err != nil {
			return nil, err
		}
	}

	log.Info("export request complete",
		zap.Int("parts", len(parts)),
		zap.Int("meshes", len(avatar.Meshes)),
		zap.Int("bones", len(avatar.Skeleton.Bones)),
		zap.Int("clips", len(avatar.Animations())),
	)
	return report, nil
}

// encode runs both exports under one exporter lease. Each export is self
// contained and includes every composed clip.
func (s *State) encode(ctx context.Context, avatar *compose.Avatar) (text []byte, binary *export.Result, err error) {
	lease, err := s.exporter.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer lease.Release()

	out := s.config.Output
	if out.Text {
		opts := export.Options{Animations: avatar.Animations()}
		if out.Indent {
			opts.Indent = "  "
		}
		res, err := lease.Export(avatar.Scene, opts)
		if err != nil {
			return nil, nil, fmt.Errorf("text export: %w", err)
		}
		text = res.Data
	}
	if out.Binary {
		binary, err = lease.Export(avatar.Scene, export.Options{Binary: true, Animations: avatar.Animations()})
		if err != nil {
			return nil, nil, fmt.Errorf("binary export: %w", err)
		}
	}
	return text, binary, nil
}

func (s *State) deliver(ctx context.Context, dst sink.Sink, kind string, p sink.Payload) (*Delivery, error) {
	if err := dst.Deliver(ctx, p); err != nil {
		return nil, fmt.Errorf("delivering %s to %s sink: %w", p.Name, kind, err)
	}
	return &Delivery{Name: p.Name, Sink: kind, Bytes: len(p.Data), Digest: p.Digest}, nil
}

// IsCanceled reports whether err comes from a canceled or expired context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
