package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	domainerrors "github.com/daylogapp/daylog-server/internal/errors"
	"github.com/daylogapp/daylog-server/internal/id"
)

// Sink persists an encoded artifact and returns where it landed.
type Sink interface {
	Write(ctx context.Context, name string, data []byte) (string, error)
}

// FileSink writes artifacts into a directory. Files appear under their final
// name only once fully written.
type FileSink struct {
	dir string
}

// NewFileSink creates a sink rooted at dir. The directory is created on
// first write.
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

// Dir returns the directory artifacts are written to.
func (s *FileSink) Dir() string {
	return s.dir
}

// Write stores data as dir/name, replacing any previous artifact.
func (s *FileSink) Write(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || filepath.Base(name) != name {
		return "", domainerrors.Validationf("invalid artifact name %q", name)
	}

	path := filepath.Join(s.dir, name)
	err := writeAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return "", domainerrors.StoreUnavailable("write export artifact", err)
	}
	return path, nil
}

// writeAtomic creates path via a uniquely named temp file in the same
// directory followed by a rename. On failure the temp file is removed and
// path is left as it was.
func writeAtomic(path string, write func(w io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	suffix, err := id.FileSuffix()
	if err != nil {
		return err
	}
	tmpPath := path + "." + suffix + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmpPath) // Clean up on failure

	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
