// Package testutil builds media fixtures for tests.
package testutil

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// RawfilePrefix is where bundle containers keep raw resources.
const RawfilePrefix = "resources/rawfile/"

// WriteWAV writes a 16-bit PCM ramp with the given number of sample frames.
func WriteWAV(t testing.TB, path string, sampleRate, channels, frames int) string {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	defer f.Close()

	data := make([]int, frames*channels)
	for i := range data {
		data[i] = (i % 200) * 100
	}
	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("finalize wav: %v", err)
	}
	return path
}

// WAVBytes returns the encoded bytes of a WriteWAV fixture.
func WAVBytes(t testing.TB, sampleRate, channels, frames int) []byte {
	t.Helper()
	path := WriteWAV(t, filepath.Join(t.TempDir(), "fixture.wav"), sampleRate, channels, frames)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read wav: %v", err)
	}
	return data
}

// BundleEntry is a single rawfile in a bundle fixture.
type BundleEntry struct {
	Name       string
	Data       []byte
	Compressed bool
}

// WriteBundle writes a zip container with entries under RawfilePrefix.
func WriteBundle(t testing.TB, path string, entries ...BundleEntry) string {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create bundle: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		method := zip.Store
		if e.Compressed {
			method = zip.Deflate
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: RawfilePrefix + e.Name, Method: method})
		if err != nil {
			t.Fatalf("bundle entry %s: %v", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			t.Fatalf("bundle write %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close bundle: %v", err)
	}
	return path
}
