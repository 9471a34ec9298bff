package resource

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// DirManager serves resources stored as plain files under a directory.
type DirManager struct {
	root string
	fds  fdTable
}

// NewDirManager returns a manager rooted at dir.
func NewDirManager(dir string) *DirManager {
	return &DirManager{root: dir}
}

func (m *DirManager) resolve(name string) (string, error) {
	if name == "" || !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: %q escapes the rawfile directory", ErrNotFound, name)
	}
	return filepath.Join(m.root, filepath.FromSlash(name)), nil
}

func (m *DirManager) GetRawFd(ctx context.Context, name string) (Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return Descriptor{}, err
	}
	path, err := m.resolve(name)
	if err != nil {
		return Descriptor{}, err
	}
	if err := m.fds.reserve(name); err != nil {
		return Descriptor{}, fmt.Errorf("get raw fd %s: %w", name, err)
	}

	f, err := os.Open(path)
	if err != nil {
		m.fds.cancel(name)
		return Descriptor{}, fmt.Errorf("get raw fd %s: %w", name, openErr(err))
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		m.fds.cancel(name)
		return Descriptor{}, fmt.Errorf("get raw fd %s: %w", name, openErr(err))
	}
	if info.IsDir() {
		f.Close()
		m.fds.cancel(name)
		return Descriptor{}, fmt.Errorf("get raw fd %s: %w: is a directory", name, ErrNotFound)
	}

	m.fds.commit(name, f)
	return Descriptor{
		FD:     int(f.Fd()),
		Offset: 0,
		Length: info.Size(),
		file:   f,
	}, nil
}

func (m *DirManager) CloseRawFd(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, ok := m.fds.take(name)
	if !ok {
		return fmt.Errorf("close raw fd %s: %w", name, ErrNotOpen)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close raw fd %s: %w", name, openErr(err))
	}
	return nil
}

// List returns slash-separated names of all regular files, sorted.
func (m *DirManager) List(ctx context.Context) ([]string, error) {
	var names []string
	err := filepath.WalkDir(m.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, err := filepath.Rel(m.root, path)
			if err != nil {
				return err
			}
			names = append(names, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", m.root, openErr(err))
	}
	sort.Strings(names)
	return names, nil
}

// Close releases every descriptor still open.
func (m *DirManager) Close() error {
	return m.fds.closeAll()
}
