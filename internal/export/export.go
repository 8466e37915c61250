// Package export serializes composed avatars to glTF JSON or GLB.
package export

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/Faultbox/midgard-avatar/pkg/gltfio"
	"github.com/Faultbox/midgard-avatar/pkg/scene"
)

// Export errors.
var (
	// ErrEncode means the scene graph holds something glTF cannot represent.
	ErrEncode = errors.New("encode error")

	// ErrExporterBusy means another export holds the exporter.
	ErrExporterBusy = errors.New("exporter busy")
)

// Generator is written to the asset's generator field.
const Generator = "midgard-avatar"

// Options are the per-export settings.
type Options struct {
	// Binary selects a GLB container instead of a JSON document.
	Binary bool

	// Indent pretty-prints JSON output. Ignored for GLB.
	Indent string

	// Animations lists the clips to include.
	Animations []*scene.AnimationClip
}

// Result is one serialized avatar.
type Result struct {
	Binary bool

	// Data holds GLB bytes or the JSON document.
	Data []byte

	// Document is the encoded document. In text mode its buffer is embedded
	// as a data URI.
	Document *gltf.Document

	// Digest is the xxhash of Data.
	Digest uint64
}

// Exporter encodes scene graphs. It reuses internal encoding state, so at
// most one export runs at a time; Export fails fast when busy and Acquire
// waits.
type Exporter struct {
	log *zap.Logger
	sem *semaphore.Weighted
	enc *encoder
}

// New creates an Exporter. A nil logger discards output.
func New(log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{
		log: log,
		sem: semaphore.NewWeighted(1),
		enc: newEncoder(log),
	}
}

// Export serializes the tree rooted at root. It returns ErrExporterBusy
// without waiting when another export is in flight.
func (e *Exporter) Export(root *scene.Node, opts Options) (*Result, error) {
	if !e.sem.TryAcquire(1) {
		return nil, ErrExporterBusy
	}
	defer e.sem.Release(1)
	return e.export(root, opts)
}

// Lease is exclusive use of an Exporter. Release must be called on every
// path; calling it more than once is harmless.
type Lease struct {
	e    *Exporter
	once sync.Once
	mu   sync.Mutex // held by in-flight lease exports
	done atomic.Bool
}

// Acquire waits for exclusive use of the exporter or for ctx to end.
func (e *Exporter) Acquire(ctx context.Context) (*Lease, error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquiring exporter: %w", err)
	}
	return &Lease{e: e}, nil
}

// Export serializes root under the lease.
func (l *Lease) Export(root *scene.Node, opts Options) (*Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done.Load() {
		return nil, fmt.Errorf("%w: lease already released", ErrExporterBusy)
	}
	return l.e.export(root, opts)
}

// Release returns the exporter once any export running under the lease
// has finished.
func (l *Lease) Release() {
	l.once.Do(func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.done.Store(true)
		l.e.sem.Release(1)
	})
}

func (e *Exporter) export(root *scene.Node, opts Options) (*Result, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: nil root", ErrEncode)
	}

	doc, err := e.enc.encode(root, opts)
	if err != nil {
		return nil, err
	}

	data, err := gltfio.Encode(doc, opts.Binary, opts.Indent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	res := &Result{
		Binary:   opts.Binary,
		Data:     data,
		Document: doc,
		Digest:   xxhash.Sum64(data),
	}
	e.log.Info("exported avatar",
		zap.String("root", root.Name),
		zap.Bool("binary", opts.Binary),
		zap.Int("bytes", len(data)),
		zap.Int("nodes", len(doc.Nodes)),
		zap.Int("animations", len(doc.Animations)),
		zap.String("digest", fmt.Sprintf("%016x", res.Digest)),
	)
	return res, nil
}
