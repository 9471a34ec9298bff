package player

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/olivier-w/surfacetest/internal/testutil"
)

func TestOpenPCMDecodesWAVSection(t *testing.T) {
	wav := testutil.WAVBytes(t, 8000, 2, 8000)

	// Surround the fixture with padding so only the section is a valid stream.
	padded := append(bytes.Repeat([]byte{0xAA}, 37), wav...)
	padded = append(padded, bytes.Repeat([]byte{0x55}, 11)...)
	section := io.NewSectionReader(bytes.NewReader(padded), 37, int64(len(wav)))

	pcm, err := OpenPCM(section, "tone.wav")
	if err != nil {
		t.Fatalf("OpenPCM returned error: %v", err)
	}
	if pcm.SampleRate() != 8000 || pcm.ChannelCount() != 2 {
		t.Fatalf("unexpected format %d Hz/%d ch", pcm.SampleRate(), pcm.ChannelCount())
	}
	if pcm.Length() != 8000*2*2 {
		t.Fatalf("expected %d PCM bytes, got %d", 8000*2*2, pcm.Length())
	}
	if pcm.Duration() != time.Second {
		t.Fatalf("expected 1s, got %v", pcm.Duration())
	}

	data, err := io.ReadAll(pcm)
	if err != nil {
		t.Fatalf("reading PCM: %v", err)
	}
	if int64(len(data)) != pcm.Length() {
		t.Fatalf("read %d bytes, expected %d", len(data), pcm.Length())
	}
}

func TestProbeReportsDuration(t *testing.T) {
	path := testutil.WriteWAV(t, filepath.Join(t.TempDir(), "a.wav"), 4000, 1, 10000)
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	got, err := Probe(f, path)
	if err != nil {
		t.Fatalf("Probe returned error: %v", err)
	}
	if got != 2500*time.Millisecond {
		t.Fatalf("expected 2.5s, got %v", got)
	}
}

func TestProbeRejectsUnknownExtension(t *testing.T) {
	_, err := Probe(bytes.NewReader(nil), "clip.m4a")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestWAVDecoderSeekClamps(t *testing.T) {
	wav := testutil.WAVBytes(t, 8000, 1, 100)
	dec, err := newWAVDecoder(bytes.NewReader(wav))
	if err != nil {
		t.Fatalf("newWAVDecoder returned error: %v", err)
	}
	pos, err := dec.Seek(1<<20, io.SeekStart)
	if err != nil {
		t.Fatalf("Seek returned error: %v", err)
	}
	if pos != dec.Length() {
		t.Fatalf("expected seek to clamp to %d, got %d", dec.Length(), pos)
	}
	pos, _ = dec.Seek(-10, io.SeekStart)
	if pos != 0 {
		t.Fatalf("expected negative seek to clamp to 0, got %d", pos)
	}
}

func TestReadMetadataFallsBackToName(t *testing.T) {
	m := ReadMetadata(bytes.NewReader([]byte("not a tag")), "dir/My Song.mp3")
	if m.Title != "My Song" {
		t.Fatalf("expected filename title, got %q", m.Title)
	}
	m = ReadMetadata(bytes.NewReader(nil), "clip.wav")
	if m.Title != "clip" {
		t.Fatalf("expected filename title, got %q", m.Title)
	}
}

func TestCountingReaderTracksPosition(t *testing.T) {
	cr := &countingReader{reader: bytes.NewReader(make([]byte, 10))}
	buf := make([]byte, 4)
	_, _ = cr.Read(buf)
	_, _ = cr.Read(buf)
	if cr.Pos() != 8 {
		t.Fatalf("expected position 8, got %d", cr.Pos())
	}
}

func TestPlayerCloseIsIdempotent(t *testing.T) {
	p := &Player{stopMon: make(chan struct{})}
	p.Close()
	p.Close()
	if !p.closed {
		t.Fatal("expected player to be closed")
	}
	p.TogglePause()
	if p.Paused() {
		t.Fatal("expected toggle on closed player to be ignored")
	}
}

func TestPlayerPositionUsesByteRate(t *testing.T) {
	p := &Player{counter: &countingReader{pos: 16000}, bytesPerSec: 32000}
	if got := p.Position(); got != 500*time.Millisecond {
		t.Fatalf("expected 500ms, got %v", got)
	}
}

func TestSeekTargetClampsAndAligns(t *testing.T) {
	const bytesPerSec, frame, total = 32000, 4, 64000
	cases := []struct {
		pos   int64
		delta time.Duration
		want  int64
	}{
		{0, time.Second, 32000},
		{32000, -5 * time.Second, 0},
		{32000, 10 * time.Second, total},
		{1000, 100 * time.Microsecond, 1000},
		{1000, 150 * time.Microsecond, 1004},
	}
	for _, tc := range cases {
		if got := seekTarget(tc.pos, tc.delta, bytesPerSec, frame, total); got != tc.want {
			t.Fatalf("seekTarget(%d, %v) = %d, want %d", tc.pos, tc.delta, got, tc.want)
		}
	}
}

func TestPlayerSeekAfterCloseIsIgnored(t *testing.T) {
	wav := testutil.WAVBytes(t, 8000, 1, 8000)
	dec, err := newWAVDecoder(bytes.NewReader(wav))
	if err != nil {
		t.Fatalf("newWAVDecoder returned error: %v", err)
	}
	p := &Player{
		decoder:     dec,
		counter:     &countingReader{reader: dec},
		bytesPerSec: 16000,
		frameSize:   2,
		stopMon:     make(chan struct{}),
	}
	p.Close()
	p.Seek(time.Second)
	if p.Position() != 0 {
		t.Fatalf("expected closed player to stay at 0, got %v", p.Position())
	}
}

func TestCountingReaderSetPos(t *testing.T) {
	cr := &countingReader{reader: bytes.NewReader(make([]byte, 10))}
	cr.SetPos(6)
	_, _ = cr.Read(make([]byte, 2))
	if cr.Pos() != 8 {
		t.Fatalf("expected position 8, got %d", cr.Pos())
	}
}
