package sink

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// File writes payloads into a directory. Each file is written under a
// temporary name and renamed into place.
type File struct {
	fs  afero.Fs
	dir string
	log *zap.Logger
}

// NewFile creates a file sink writing into dir on fs.
func NewFile(fs afero.Fs, dir string, log *zap.Logger) *File {
	if log == nil {
		log = zap.NewNop()
	}
	return &File{fs: fs, dir: dir, log: log}
}

// Deliver writes p to dir/p.Name.
func (f *File) Deliver(_ context.Context, p Payload) error {
	if err := f.fs.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(f.dir, filepath.Base(p.Name))
	tmp := path + ".tmp"
	if err := afero.WriteFile(f.fs, tmp, p.Data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := f.fs.Rename(tmp, path); err != nil {
		_ = f.fs.Remove(tmp)
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}

	f.log.Info("wrote avatar", zap.String("path", path), zap.Int("bytes", len(p.Data)))
	return nil
}
