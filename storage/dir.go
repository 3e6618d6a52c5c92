package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DirStore keeps blobs as files below a local directory
type DirStore struct {
	root string
}

// NewDirStore returns a store rooted at dir, creating it if needed
func NewDirStore(dir string) (*DirStore, error) {

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating store directory: %w", err)
	}

	return &DirStore{root: dir}, nil
}

func (d *DirStore) path(name string) (string, error) {

	clean, err := cleanName(name)

	if err != nil {
		return "", err
	}

	return filepath.Join(d.root, filepath.FromSlash(clean)), nil
}

// Get reads the blob
func (d *DirStore) Get(ctx context.Context, name string) ([]byte, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := d.path(name)

	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)

	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("error reading blob %s: %w", name, err)
	}

	return data, nil
}

// Put writes the blob, replacing any existing one.  The file is written to a
// temporary name first so readers never see a partial blob
func (d *DirStore) Put(ctx context.Context, name string, data []byte) error {

	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := d.path(name)

	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("error creating blob directory: %w", err)
	}

	tmp := p + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("error writing blob %s: %w", name, err)
	}

	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("error renaming blob %s: %w", name, err)
	}

	return nil
}
