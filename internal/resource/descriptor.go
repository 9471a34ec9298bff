// Package resource hands out raw file descriptors for bundled media resources.
//
// A descriptor addresses a byte region (offset, length) of an open file. For
// directory resources that is the whole file; for bundle containers it is a
// stored entry inside the container.
package resource

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"sync"
)

// Descriptor is an open raw file descriptor. The issuing Manager owns the
// underlying file until CloseRawFd is called for the same name.
type Descriptor struct {
	FD     int
	Offset int64
	Length int64
	// Lease identifies one acquisition in logs.
	Lease string

	file *os.File
}

// Section returns a reader over [Offset, Offset+Length) of the open file.
// Reads fail once the descriptor has been released.
func (d *Descriptor) Section() *io.SectionReader {
	if d == nil || d.file == nil {
		return io.NewSectionReader(emptyReaderAt{}, 0, 0)
	}
	return io.NewSectionReader(d.file, d.Offset, d.Length)
}

type emptyReaderAt struct{}

func (emptyReaderAt) ReadAt([]byte, int64) (int, error) { return 0, io.EOF }

// Manager is the platform resource manager.
type Manager interface {
	GetRawFd(ctx context.Context, name string) (Descriptor, error)
	CloseRawFd(ctx context.Context, name string) error
	List(ctx context.Context) ([]string, error)
}

var (
	ErrNotFound         = errors.New("resource not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrIO               = errors.New("resource i/o error")
	ErrNotOpen          = errors.New("resource not open")
	ErrAlreadyOpen      = errors.New("resource already open")
)

// FailureReason classifies a failed acquire or release.
type FailureReason int

const (
	ReasonNone FailureReason = iota
	ReasonNotFound
	ReasonPermissionDenied
	ReasonIO
	ReasonNotOpen
	ReasonAlreadyOpen
)

func (r FailureReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonNotFound:
		return "not_found"
	case ReasonPermissionDenied:
		return "permission_denied"
	case ReasonNotOpen:
		return "not_open"
	case ReasonAlreadyOpen:
		return "already_open"
	default:
		return "io"
	}
}

// Reason maps err to a FailureReason. Unknown errors count as I/O failures.
func Reason(err error) FailureReason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return ReasonNotFound
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, fs.ErrPermission):
		return ReasonPermissionDenied
	case errors.Is(err, ErrNotOpen):
		return ReasonNotOpen
	case errors.Is(err, ErrAlreadyOpen):
		return ReasonAlreadyOpen
	default:
		return ReasonIO
	}
}

// fdTable tracks files opened by a manager, keyed by resource name.
type fdTable struct {
	mu   sync.Mutex
	open map[string]*os.File
}

func (t *fdTable) reserve(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.open == nil {
		t.open = make(map[string]*os.File)
	}
	if _, ok := t.open[name]; ok {
		return ErrAlreadyOpen
	}
	t.open[name] = nil
	return nil
}

func (t *fdTable) commit(name string, f *os.File) {
	t.mu.Lock()
	t.open[name] = f
	t.mu.Unlock()
}

func (t *fdTable) cancel(name string) {
	t.mu.Lock()
	delete(t.open, name)
	t.mu.Unlock()
}

func (t *fdTable) take(name string) (*os.File, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	f, ok := t.open[name]
	if !ok || f == nil {
		return nil, false
	}
	delete(t.open, name)
	return f, true
}

func (t *fdTable) closeAll() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var errs []error
	for name, f := range t.open {
		if f != nil {
			errs = append(errs, f.Close())
		}
		delete(t.open, name)
	}
	return errors.Join(errs...)
}

// openErr wraps an os error with the matching sentinel.
func openErr(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return errors.Join(ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return errors.Join(ErrPermissionDenied, err)
	default:
		return errors.Join(ErrIO, err)
	}
}
