package player

import (
	"errors"
	"io"
	"time"
)

// ErrUnsupportedFormat is returned for names without a known audio extension.
var ErrUnsupportedFormat = errors.New("unsupported format")

const bytesPerSample = 2

// PCM is a decoded 16-bit little-endian interleaved stream.
type PCM struct {
	dec audioDecoder
}

// OpenPCM decodes r, choosing the codec from the extension of name.
func OpenPCM(r io.ReadSeeker, name string) (*PCM, error) {
	dec, err := newDecoder(r, name)
	if err != nil {
		return nil, err
	}
	return &PCM{dec: dec}, nil
}

func (p *PCM) Read(b []byte) (int, error) { return p.dec.Read(b) }
func (p *PCM) SampleRate() int            { return p.dec.SampleRate() }
func (p *PCM) ChannelCount() int          { return p.dec.ChannelCount() }

// Length is the decoded size in bytes.
func (p *PCM) Length() int64 { return p.dec.Length() }

// Duration is the playback length of the whole stream.
func (p *PCM) Duration() time.Duration {
	return pcmDuration(p.dec.Length(), p.dec.SampleRate(), p.dec.ChannelCount())
}

// Probe returns the playback length of an encoded stream.
func Probe(r io.ReadSeeker, name string) (time.Duration, error) {
	p, err := OpenPCM(r, name)
	if err != nil {
		return 0, err
	}
	return p.Duration(), nil
}

func pcmDuration(n int64, sampleRate, channels int) time.Duration {
	bytesPerSec := int64(sampleRate) * int64(channels) * bytesPerSample
	if bytesPerSec <= 0 || n <= 0 {
		return 0
	}
	return time.Duration(float64(n) / float64(bytesPerSec) * float64(time.Second))
}
