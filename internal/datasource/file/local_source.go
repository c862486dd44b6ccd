package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Local is a filesystem data source that opens files from the local disk.
// Paths ending in ".gz" are decompressed transparently.
type Local struct{ path string }

// NewLocal returns a new Local data source bound to the provided filesystem
// path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Name returns the path the source was created with.
func (l *Local) Name() string { return l.path }

// Open opens the configured path for reading and returns an io.ReadCloser.
//
// Behavior:
//   - If the context is already canceled, Open returns the context error
//     without touching the filesystem.
//   - The file is advised for sequential read-ahead where the platform
//     supports it.
//   - For ".gz" paths the returned reader yields decompressed bytes; closing
//     it closes both the gzip stream and the file.
//   - Filesystem errors are wrapped with the path while still permitting
//     errors.Is(err, os.ErrNotExist).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	adviseSequential(f)

	if !strings.HasSuffix(strings.ToLower(l.path), ".gz") {
		return f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("gzip %s: %w", l.path, err)
	}
	return &gzipFile{Reader: zr, f: f}, nil
}

type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g *gzipFile) Close() error {
	zerr := g.Reader.Close()
	ferr := g.f.Close()
	if zerr != nil {
		return zerr
	}
	return ferr
}
