package resource

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olivier-w/surfacetest/internal/testutil"
)

func newDirFixture(t *testing.T) (*DirManager, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.mp4"), []byte("0123456789"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "a.wav"), []byte("abc"), 0o644))
	m := NewDirManager(dir)
	t.Cleanup(func() { _ = m.Close() })
	return m, dir
}

func TestDirManagerDescribesWholeFile(t *testing.T) {
	m, _ := newDirFixture(t)
	ctx := context.Background()

	d, err := m.GetRawFd(ctx, "test.mp4")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, d.FD, 0)
	assert.Equal(t, int64(0), d.Offset)
	assert.Equal(t, int64(10), d.Length)

	data, err := io.ReadAll(d.Section())
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(data))

	require.NoError(t, m.CloseRawFd(ctx, "test.mp4"))
	_, err = d.Section().ReadAt(make([]byte, 1), 0)
	assert.Error(t, err, "section should be unreadable after close")
}

func TestDirManagerErrors(t *testing.T) {
	m, _ := newDirFixture(t)
	ctx := context.Background()

	_, err := m.GetRawFd(ctx, "missing.mp4")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.GetRawFd(ctx, "../escape")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.GetRawFd(ctx, "sub")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.GetRawFd(ctx, "test.mp4")
	require.NoError(t, err)
	_, err = m.GetRawFd(ctx, "test.mp4")
	assert.ErrorIs(t, err, ErrAlreadyOpen)

	assert.ErrorIs(t, m.CloseRawFd(ctx, "sub/a.wav"), ErrNotOpen)
}

func TestDirManagerList(t *testing.T) {
	m, _ := newDirFixture(t)
	names, err := m.List(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"sub/a.wav", "test.mp4"}, names); diff != "" {
		t.Fatalf("List mismatch (-want +got):\n%s", diff)
	}
}

func TestBundleManagerPointsIntoContainer(t *testing.T) {
	wav := testutil.WAVBytes(t, 8000, 1, 400)
	path := testutil.WriteBundle(t, filepath.Join(t.TempDir(), "entry.hap"),
		testutil.BundleEntry{Name: "first.txt", Data: []byte("padding entry")},
		testutil.BundleEntry{Name: "tone.wav", Data: wav},
		testutil.BundleEntry{Name: "packed.wav", Data: wav, Compressed: true},
	)
	m, err := OpenBundle(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	ctx := context.Background()

	d, err := m.GetRawFd(ctx, "tone.wav")
	require.NoError(t, err)
	assert.Greater(t, d.Offset, int64(0))
	assert.Equal(t, int64(len(wav)), d.Length)

	got, err := io.ReadAll(d.Section())
	require.NoError(t, err)
	assert.True(t, bytes.Equal(wav, got), "section must be the stored entry bytes")

	_, err = m.GetRawFd(ctx, "packed.wav")
	assert.ErrorIs(t, err, ErrIO)

	_, err = m.GetRawFd(ctx, "nope.wav")
	assert.ErrorIs(t, err, ErrNotFound)

	names, err := m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"first.txt", "packed.wav", "tone.wav"}, names)

	require.NoError(t, m.CloseRawFd(ctx, "tone.wav"))
	assert.ErrorIs(t, m.CloseRawFd(ctx, "tone.wav"), ErrNotOpen)
}

func TestOpenBundleMissingFile(t *testing.T) {
	_, err := OpenBundle(filepath.Join(t.TempDir(), "none.hap"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReasonClassification(t *testing.T) {
	cases := map[FailureReason]error{
		ReasonNone:             nil,
		ReasonNotFound:         os.ErrNotExist,
		ReasonPermissionDenied: os.ErrPermission,
		ReasonNotOpen:          ErrNotOpen,
		ReasonAlreadyOpen:      ErrAlreadyOpen,
		ReasonIO:               errors.New("disk on fire"),
	}
	for want, err := range cases {
		assert.Equal(t, want, Reason(err), "error %v", err)
	}
	assert.Equal(t, "permission_denied", ReasonPermissionDenied.String())
}

func newAccessor(t *testing.T) (*Accessor, *bytes.Buffer) {
	t.Helper()
	m, _ := newDirFixture(t)
	var buf bytes.Buffer
	return NewAccessor(m, zerolog.New(&buf)), &buf
}

func TestAccessorLifecycle(t *testing.T) {
	a, logs := newAccessor(t)
	ctx := context.Background()

	assert.Equal(t, Unopened, a.State("test.mp4"))

	res := a.Acquire(ctx, "test.mp4")
	require.True(t, res.OK())
	assert.Equal(t, ReasonNone, res.Reason())
	assert.NotEmpty(t, res.Descriptor.Lease)
	assert.Equal(t, Open, a.State("test.mp4"))
	assert.Contains(t, logs.String(), "getRawFd success")

	again := a.Acquire(ctx, "test.mp4")
	assert.Equal(t, ReasonAlreadyOpen, again.Reason())

	require.NoError(t, a.Release(ctx, "test.mp4"))
	assert.Equal(t, Closed, a.State("test.mp4"))

	res = a.Acquire(ctx, "test.mp4")
	require.True(t, res.OK(), "a closed name can be acquired again")
	a.ReleaseAll(ctx)
	assert.Equal(t, Closed, a.State("test.mp4"))
}

func TestAccessorAcquireMissingReturnsTypedFailure(t *testing.T) {
	a, logs := newAccessor(t)

	res := a.Acquire(context.Background(), "missing.mp4")
	assert.False(t, res.OK())
	assert.Nil(t, res.Descriptor)
	assert.Equal(t, ReasonNotFound, res.Reason())
	assert.Equal(t, Unopened, a.State("missing.mp4"))
	assert.Contains(t, logs.String(), "not_found")
}

func TestAccessorReleaseWithoutAcquireWarns(t *testing.T) {
	a, logs := newAccessor(t)
	ctx := context.Background()

	require.NoError(t, a.Release(ctx, "test.mp4"))
	assert.Contains(t, logs.String(), `"level":"warn"`)

	require.True(t, a.Acquire(ctx, "test.mp4").OK())
	require.NoError(t, a.Release(ctx, "test.mp4"))
	logs.Reset()
	require.NoError(t, a.Release(ctx, "test.mp4"), "double release is a no-op")
	assert.Contains(t, logs.String(), "closeRawFd without an open descriptor")
}

func TestAccessorReleaseIgnoresCancellation(t *testing.T) {
	m, _ := newDirFixture(t)
	a := NewAccessor(m, zerolog.Nop())

	require.True(t, a.Acquire(context.Background(), "test.mp4").OK())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, a.Release(ctx, "test.mp4"))
	assert.Equal(t, Closed, a.State("test.mp4"))

	_, held := m.fds.take("test.mp4")
	assert.False(t, held, "manager must not keep the file after release")

	res := a.Acquire(context.Background(), "test.mp4")
	require.True(t, res.OK(), "released name can be acquired again, got %v", res.Err)
	a.ReleaseAll(ctx)
	assert.Equal(t, Closed, a.State("test.mp4"))
}

type failingCloseManager struct {
	*DirManager
	closeErr error
}

func (m *failingCloseManager) CloseRawFd(ctx context.Context, name string) error {
	if m.closeErr != nil {
		return m.closeErr
	}
	return m.DirManager.CloseRawFd(ctx, name)
}

func TestAccessorFailedReleaseStaysOpen(t *testing.T) {
	dm, _ := newDirFixture(t)
	m := &failingCloseManager{DirManager: dm, closeErr: ErrIO}
	a := NewAccessor(m, zerolog.Nop())
	ctx := context.Background()

	require.True(t, a.Acquire(ctx, "test.mp4").OK())
	assert.ErrorIs(t, a.Release(ctx, "test.mp4"), ErrIO)
	assert.Equal(t, Open, a.State("test.mp4"))

	m.closeErr = nil
	require.NoError(t, a.Release(ctx, "test.mp4"), "release can be retried")
	assert.Equal(t, Closed, a.State("test.mp4"))
}

func TestAccessorReleaseAfterManagerClosedIt(t *testing.T) {
	m, _ := newDirFixture(t)
	a := NewAccessor(m, zerolog.Nop())
	ctx := context.Background()

	require.True(t, a.Acquire(ctx, "test.mp4").OK())
	require.NoError(t, m.CloseRawFd(ctx, "test.mp4"))

	require.NoError(t, a.Release(ctx, "test.mp4"))
	assert.Equal(t, Closed, a.State("test.mp4"))
}

func TestAccessorCompatibilityLayer(t *testing.T) {
	a, _ := newAccessor(t)
	ctx := context.Background()

	assert.Nil(t, a.OpenFileDescriptor(ctx, "missing.mp4"))

	d := a.OpenFileDescriptor(ctx, "sub/a.wav")
	require.NotNil(t, d)
	assert.Equal(t, int64(3), d.Length)

	a.CloseFileDescriptor(ctx, "sub/a.wav")
	a.CloseFileDescriptor(ctx, "sub/a.wav")
	assert.Equal(t, Closed, a.State("sub/a.wav"))
}

func TestNilDescriptorSectionIsEmpty(t *testing.T) {
	var d *Descriptor
	n, err := d.Section().Read(make([]byte, 4))
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)
}
