package surface

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/olivier-w/surfacetest/internal/player"
	"github.com/olivier-w/surfacetest/internal/resource"
	"github.com/olivier-w/surfacetest/internal/testutil"
)

type fixture struct {
	binding *Binding
	meter   *MeterSink
	id      string
	in      AVFileDescriptor
	out     *os.File
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	bundle := testutil.WriteBundle(t, filepath.Join(dir, "entry.hap"),
		testutil.BundleEntry{Name: "readme.txt", Data: []byte("leading entry")},
		testutil.BundleEntry{Name: "tone.wav", Data: testutil.WAVBytes(t, 8000, 2, 4000)},
	)
	mgr, err := resource.OpenBundle(bundle)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })

	d, err := mgr.GetRawFd(context.Background(), "tone.wav")
	require.NoError(t, err)

	out, err := os.Create(filepath.Join(dir, "out.wav"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = out.Close() })

	reg := NewRegistry()
	meter := &MeterSink{}
	id := reg.Register(meter)

	return fixture{
		binding: NewBinding(reg, zerolog.Nop()),
		meter:   meter,
		id:      strconv.FormatUint(id, 10),
		in:      AVFileDescriptor{FD: d.FD, Offset: d.Offset, Length: d.Length},
		out:     out,
	}
}

func TestSetSurfaceIDRendersToSurfaceAndOutput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.binding.SetSurfaceID(ctx, f.id, f.in, int(f.out.Fd()))
	require.NoError(t, err)
	assert.Equal(t, f.id+","+strconv.Itoa(f.in.FD)+","+strconv.Itoa(int(f.out.Fd())), got)

	assert.Equal(t, int64(4000), f.meter.Frames())
	assert.Positive(t, f.meter.Peak())

	rendered, err := os.Open(f.out.Name())
	require.NoError(t, err)
	defer rendered.Close()
	d, err := player.Probe(rendered, rendered.Name())
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, d)

	current, err := f.binding.GetSurfaceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, f.id, current)
}

func TestSetSurfaceIDValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	outFd := int(f.out.Fd())

	cases := []struct {
		name      string
		surfaceID string
		in        AVFileDescriptor
		outFd     int
		want      error
	}{
		{"empty id", "", f.in, outFd, ErrInvalidSurfaceID},
		{"non-digit id", "x12", f.in, outFd, ErrInvalidSurfaceID},
		{"overflowing id", "99999999999999999999999", f.in, outFd, ErrInvalidSurfaceID},
		{"negative fd", f.id, AVFileDescriptor{FD: -1}, outFd, ErrInvalidInput},
		{"negative offset", f.id, AVFileDescriptor{FD: f.in.FD, Offset: -1}, outFd, ErrInvalidInput},
		{"negative out", f.id, f.in, -1, ErrInvalidOutput},
		{"unknown surface", "4242", f.in, outFd, ErrSurfaceNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.binding.SetSurfaceID(ctx, tc.surfaceID, tc.in, tc.outFd)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	current, err := f.binding.GetSurfaceID(ctx)
	require.NoError(t, err)
	assert.Empty(t, current, "failed calls leave the surface id unset")
}

func TestSetSurfaceIDRejectsUnknownStream(t *testing.T) {
	dir := t.TempDir()
	in, err := os.Create(filepath.Join(dir, "in.bin"))
	require.NoError(t, err)
	defer in.Close()
	_, err = in.WriteString("definitely not audio")
	require.NoError(t, err)

	f := newFixture(t)
	_, err = f.binding.SetSurfaceID(context.Background(), f.id, AVFileDescriptor{FD: int(in.Fd())}, int(f.out.Fd()))
	assert.ErrorIs(t, err, player.ErrUnsupportedFormat)
}

func TestCallbackForms(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	f := newFixture(t)
	ctx := context.Background()

	type reply struct {
		s   string
		err error
	}
	done := make(chan reply, 1)
	f.binding.SetSurfaceIDCallback(ctx, f.id, f.in, int(f.out.Fd()), func(s string, err error) {
		done <- reply{s, err}
	})
	r := <-done
	require.NoError(t, r.err)
	assert.Contains(t, r.s, f.id+",")

	f.binding.GetSurfaceIDCallback(ctx, func(s string, err error) {
		done <- reply{s, err}
	})
	r = <-done
	require.NoError(t, r.err)
	assert.Equal(t, f.id, r.s)
}

func TestRegistryUnregister(t *testing.T) {
	reg := NewRegistry()
	a := reg.Register(&MeterSink{})
	b := reg.Register(&MeterSink{})
	assert.NotEqual(t, a, b)

	reg.Unregister(a)
	_, ok := reg.Lookup(a)
	assert.False(t, ok)
	_, ok = reg.Lookup(b)
	assert.True(t, ok)
}
