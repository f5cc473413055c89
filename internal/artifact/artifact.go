package artifact

import (
	"bufio"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// IOError reports a local file operation that failed.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("artifact %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// NewPath returns a fresh artifact path in dir, unique across runs.
func NewPath(dir string) string {
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, fmt.Sprintf("temp_file_%s.bin", uuid.NewString()))
}

// Generate writes exactly sizeKB*1024 random bytes to path, replacing any
// existing file.
func Generate(path string, sizeKB int) error {
	if sizeKB <= 0 {
		return &IOError{Op: "generate", Path: path, Err: fmt.Errorf("size must be positive, got %d KB", sizeKB)}
	}

	f, err := os.Create(path)
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}

	w := bufio.NewWriter(f)
	if _, err := io.CopyN(w, rand.Reader, int64(sizeKB)*1024); err != nil {
		f.Close()
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &IOError{Op: "close", Path: path, Err: err}
	}
	return nil
}

// Remove deletes the artifact at path.
func Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return &IOError{Op: "remove", Path: path, Err: err}
	}
	return nil
}

// Files binds Generate and Remove to a value so callers can swap them out.
type Files struct{}

func (Files) Generate(path string, sizeKB int) error { return Generate(path, sizeKB) }

func (Files) Remove(path string) error { return Remove(path) }
