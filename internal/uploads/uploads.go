// Package uploads stages job-description files for the lifetime of a single
// generation request.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Stager stores an uploaded file under a fresh name and removes it later.
type Stager interface {
	Stage(ctx context.Context, filename string, r io.Reader) (string, error)
	Remove(ctx context.Context, name string) error
}

// StoredName returns a collision-free name that keeps the original extension.
func StoredName(filename string) string {
	return uuid.NewString() + filepath.Ext(filename)
}

// Disk stages files in a local directory.
type Disk struct {
	dir string
}

// NewDisk creates dir if needed.
func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Disk{dir: dir}, nil
}

func (d *Disk) Dir() string { return d.dir }

func (d *Disk) Stage(_ context.Context, filename string, r io.Reader) (string, error) {
	name := StoredName(filename)
	f, err := os.OpenFile(filepath.Join(d.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write staged file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close staged file: %w", err)
	}
	return name, nil
}

// Remove deletes a staged file. A file that is already gone is not an error.
func (d *Disk) Remove(_ context.Context, name string) error {
	if name == "" || filepath.Base(name) != name {
		return fmt.Errorf("invalid staged name %q", name)
	}
	err := os.Remove(filepath.Join(d.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
