// Package loader turns glTF and GLB avatar part files into scene graphs.
package loader

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/midgard-avatar/internal/assets"
	"github.com/Faultbox/midgard-avatar/pkg/gltfio"
	"github.com/Faultbox/midgard-avatar/pkg/scene"
)

// Loader loads avatar parts through an asset manager.
type Loader struct {
	assets *assets.Manager
	log    *zap.Logger
}

// New creates a Loader. A nil logger discards output.
func New(m *assets.Manager, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{assets: m, log: log}
}

// Load fetches and builds the part at source.
func (l *Loader) Load(ctx context.Context, source string) (*scene.Node, error) {
	start := time.Now()
	data, err := l.assets.Load(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("loading part %s: %w", source, err)
	}
	part, err := l.LoadBytes(ctx, data, source)
	if err != nil {
		return nil, fmt.Errorf("loading part %s: %w", source, err)
	}
	l.log.Info("loaded part",
		zap.String("source", source),
		zap.Int("bytes", len(data)),
		zap.Int("clips", len(part.Animations)),
		zap.Duration("took", time.Since(start)),
	)
	return part, nil
}

// LoadBytes builds a part from GLB or glTF JSON data. External buffer URIs
// are resolved relative to base and fetched through the asset manager.
func (l *Loader) LoadBytes(ctx context.Context, data []byte, base string) (*scene.Node, error) {
	doc, err := gltfio.Decode(data)
	if err != nil {
		return nil, err
	}
	err = gltfio.ResolveBuffers(doc, func(uri string) ([]byte, error) {
		src, err := assets.Resolve(base, uri)
		if err != nil {
			return nil, err
		}
		return l.assets.Load(ctx, src)
	})
	if err != nil {
		return nil, err
	}
	return Build(doc)
}

// LoadAll loads sources concurrently. Parts are returned in source order; the
// first failure cancels the remaining loads.
func (l *Loader) LoadAll(ctx context.Context, sources []string) ([]*scene.Node, error) {
	parts := make([]*scene.Node, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			part, err := l.Load(ctx, src)
			if err != nil {
				return err
			}
			parts[i] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parts, nil
}
