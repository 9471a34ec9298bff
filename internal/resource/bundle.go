package resource

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
)

// RawfilePrefix is the directory inside a bundle that holds raw resources.
const RawfilePrefix = "resources/rawfile/"

type bundleEntry struct {
	offset     int64
	length     int64
	compressed bool
}

// BundleManager serves resources packed in a zip container. A descriptor
// points into the container itself, so entries must be stored uncompressed.
type BundleManager struct {
	path    string
	entries map[string]bundleEntry
	fds     fdTable
}

// OpenBundle indexes the rawfile entries of the container at path.
func OpenBundle(path string) (*BundleManager, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open bundle %s: %w", path, openErr(err))
	}
	defer zr.Close()

	entries := make(map[string]bundleEntry)
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, RawfilePrefix) || strings.HasSuffix(f.Name, "/") {
			continue
		}
		offset, err := f.DataOffset()
		if err != nil {
			return nil, fmt.Errorf("open bundle %s: entry %s: %w", path, f.Name, openErr(err))
		}
		entries[strings.TrimPrefix(f.Name, RawfilePrefix)] = bundleEntry{
			offset:     offset,
			length:     int64(f.UncompressedSize64),
			compressed: f.Method != zip.Store,
		}
	}
	return &BundleManager{path: path, entries: entries}, nil
}

func (m *BundleManager) GetRawFd(ctx context.Context, name string) (Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return Descriptor{}, err
	}
	entry, ok := m.entries[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("get raw fd %s: %w", name, ErrNotFound)
	}
	if entry.compressed {
		return Descriptor{}, fmt.Errorf("get raw fd %s: %w: entry is compressed", name, ErrIO)
	}
	if err := m.fds.reserve(name); err != nil {
		return Descriptor{}, fmt.Errorf("get raw fd %s: %w", name, err)
	}

	f, err := os.Open(m.path)
	if err != nil {
		m.fds.cancel(name)
		return Descriptor{}, fmt.Errorf("get raw fd %s: %w", name, openErr(err))
	}
	m.fds.commit(name, f)
	return Descriptor{
		FD:     int(f.Fd()),
		Offset: entry.offset,
		Length: entry.length,
		file:   f,
	}, nil
}

func (m *BundleManager) CloseRawFd(ctx context.Context, name string) error {
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

// List returns the rawfile names in the bundle, sorted.
func (m *BundleManager) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(m.entries))
	for name := range m.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Close releases every descriptor still open.
func (m *BundleManager) Close() error {
	return m.fds.closeAll()
}
