package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Sharer hands a finished artifact to something outside the server.
type Sharer interface {
	Share(ctx context.Context, path string) error
}

// OpenSharer opens artifacts with the platform's default application.
type OpenSharer struct {
	goos string
	// start launches the command without waiting for it.
	start func(cmd *exec.Cmd) error
}

// NewOpenSharer creates a sharer for the running platform.
func NewOpenSharer() *OpenSharer {
	return &OpenSharer{
		goos:  runtime.GOOS,
		start: startDetached,
	}
}

// Share launches the default opener for path.
func (s *OpenSharer) Share(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// Not bound to ctx: the opener outlives the request that triggered it.
	cmd, err := openCommand(s.goos, path)
	if err != nil {
		return err
	}
	return s.start(cmd)
}

// startDetached starts cmd and reaps it in the background.
func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait() //nolint:errcheck // Opener exit status is not actionable
	return nil
}

// openCommand builds the opener invocation for goos.
func openCommand(goos, path string) (*exec.Cmd, error) {
	switch goos {
	case "windows":
		// Empty quoted title so start treats path as the target.
		return exec.Command("cmd", "/c", "start", `""`, path), nil
	case "darwin":
		return exec.Command("open", path), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command("xdg-open", path), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

// DirSharer copies artifacts into a drop directory watched by another
// process (a synced folder, a mounted share).
type DirSharer struct {
	dir string
}

// NewDirSharer creates a sharer that copies into dir.
func NewDirSharer(dir string) *DirSharer {
	return &DirSharer{dir: dir}
}

// Share copies path into the drop directory under the same base name.
func (s *DirSharer) Share(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer src.Close()

	dst := filepath.Join(s.dir, filepath.Base(path))
	return writeAtomic(dst, func(w io.Writer) error {
		_, err := io.Copy(w, src)
		return err
	})
}
